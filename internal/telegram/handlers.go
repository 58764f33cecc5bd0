package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ryutarou1/lucky-alarm-native/internal/alarm"
	"github.com/ryutarou1/lucky-alarm-native/internal/notify"
	"github.com/ryutarou1/lucky-alarm-native/internal/scheduler"
	"github.com/ryutarou1/lucky-alarm-native/internal/store"
)

// statsRecentLimit caps how many history entries /stats lists.
const statsRecentLimit = 7

// ensureState loads the chat's persisted state; on first contact the
// documented defaults are persisted before being returned.
func (r *Router) ensureState(ctx context.Context, chatID int64) (store.State, error) {
	st, found, err := r.sessions.Load(ctx, chatID)
	if err != nil {
		return store.State{}, err
	}
	if found {
		return st, nil
	}
	st = store.Default()
	if err := r.sessions.Save(ctx, chatID, st); err != nil {
		return store.State{}, err
	}
	return st, nil
}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// wakePayload is the message delivered when the alarm fires. It never names
// the drawn offset; the savings report follows once the firing is confirmed.
func wakePayload(chatID int64) notify.Payload {
	return notify.Payload{
		ChatID: chatID,
		Title:  "⏰ Wake up!",
		Body:   "Good morning. Your lucky alarm fired, you are up ahead of schedule.",
	}
}

// NotifySavings reports a confirmed firing's savings back to the chat. The
// realized minutes are always revealed here; spoiler-free mode only hides
// them while the alarm is still pending.
func (r *Router) NotifySavings(chatID int64, saved, weekly, total int, suggestion string) {
	r.sendText(chatID, savingsText(saved, weekly, total, suggestion))
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	if _, err := r.ensureState(ctx, chatID); err != nil {
		r.log.Error("ensureState failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}
	_, armed := r.sched.Active(chatID)
	msg := tgbotapi.NewMessage(chatID, startText)
	msg.ReplyMarkup = mainMenuKeyboard(armed)
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	st, err := r.ensureState(ctx, chatID)
	if err != nil {
		r.log.Error("ensureState failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error reading your settings.")
		return
	}

	alarmLine := "😴 not armed"
	inst, armed := r.sched.Active(chatID)
	if armed {
		if st.Settings.SpoilerFree {
			alarmLine = fmt.Sprintf("⏰ armed, fires a little before %s 🤫", inst.Target)
		} else {
			alarmLine = fmt.Sprintf("⏰ armed, fires %s (%d min before %s)",
				inst.FireAt.Format(fireAtLayout), inst.OffsetMinutes, inst.Target)
		}
	}

	body := fmt.Sprintf("%s\n\n"+statusFmt,
		statusTitle,
		alarmLine,
		st.Settings.Weekday.Target, st.Settings.Weekday.MinOffset, st.Settings.Weekday.MaxOffset,
		st.Settings.Weekend.Target, st.Settings.Weekend.MinOffset, st.Settings.Weekend.MaxOffset,
		onOff(st.Settings.SpoilerFree),
	)

	msg := tgbotapi.NewMessage(chatID, body)
	msg.ReplyMarkup = mainMenuKeyboard(armed)
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleSettings(ctx context.Context, chatID int64) {
	st, err := r.ensureState(ctx, chatID)
	if err != nil {
		r.log.Error("ensureState failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error opening settings.")
		return
	}
	body := fmt.Sprintf(settingsFmt,
		st.Settings.Weekday.Target, st.Settings.Weekday.MinOffset, st.Settings.Weekday.MaxOffset,
		st.Settings.Weekend.Target, st.Settings.Weekend.MinOffset, st.Settings.Weekend.MaxOffset,
		onOff(st.Settings.SpoilerFree),
	)
	msg := tgbotapi.NewMessage(chatID, body)
	msg.ReplyMarkup = settingsInlineKeyboard(st.Settings.SpoilerFree)
	_, _ = r.bot.Send(msg)
}

// --- Arm / Disarm ---

func (r *Router) handleArm(ctx context.Context, chatID int64) {
	if _, err := r.ensureState(ctx, chatID); err != nil {
		r.log.Error("ensureState failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error reading your settings.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Which profile should I arm?")
	msg.ReplyMarkup = armKindKeyboard()
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleArmKind(ctx context.Context, chatID int64, val, cbID string) {
	_ = r.answerCallback(cbID, "")
	kind := alarm.Kind(val)
	if !kind.Valid() {
		return
	}
	st, err := r.ensureState(ctx, chatID)
	if err != nil {
		r.log.Error("ensureState failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error reading your settings.")
		return
	}

	inst, err := r.sched.Arm(ctx, chatID, st.Settings.Profile(kind), time.Now(), wakePayload(chatID))
	switch {
	case errors.Is(err, scheduler.ErrPermissionDenied):
		r.sendText(chatID, "I am not allowed to message you right now. Unblock the bot and try again.")
		return
	case errors.Is(err, alarm.ErrInvalidProfile):
		r.sendText(chatID, fmt.Sprintf("Your %s profile is invalid, fix it in /settings first.", strings.ToLower(kindLabel(kind))))
		return
	case err != nil:
		r.log.Error("arm failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Could not schedule the wake-up. Try again in a moment.")
		return
	}

	var body string
	if st.Settings.SpoilerFree {
		body = fmt.Sprintf("⏰ %s alarm armed. You will wake up a little before %s 🤫",
			kindLabel(kind), inst.Target)
	} else {
		body = fmt.Sprintf("⏰ %s alarm armed: fires %s, %d min before %s.",
			kindLabel(kind), inst.FireAt.Format(fireAtLayout), inst.OffsetMinutes, inst.Target)
	}
	msg := tgbotapi.NewMessage(chatID, body)
	msg.ReplyMarkup = mainMenuKeyboard(true)
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleDisarm(ctx context.Context, chatID int64) {
	if _, armed := r.sched.Active(chatID); !armed {
		msg := tgbotapi.NewMessage(chatID, "Nothing to cancel, no alarm is armed.")
		msg.ReplyMarkup = mainMenuKeyboard(false)
		_, _ = r.bot.Send(msg)
		return
	}
	if err := r.sched.Disarm(ctx, chatID); err != nil {
		r.log.Error("disarm failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Could not cancel the alarm. Try again.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, "🔕 Alarm canceled. Sleep in, no savings today.")
	msg.ReplyMarkup = mainMenuKeyboard(false)
	_, _ = r.bot.Send(msg)
}

// --- Stats ---

func (r *Router) handleStats(ctx context.Context, chatID int64) {
	st, err := r.ensureState(ctx, chatID)
	if err != nil {
		r.log.Error("ensureState failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error reading your history.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", statsTitle)
	fmt.Fprintf(&b, "This week: %d min\nAll time: %d min\n", alarm.WeeklySaved(st.History, time.Now()), st.TotalSaved)
	if len(st.History) == 0 {
		b.WriteString("\nNo wake-ups recorded yet. /arm one!")
	} else {
		b.WriteString("\nRecent wake-ups:\n")
		for i, rec := range st.History {
			if i == statsRecentLimit {
				break
			}
			fmt.Fprintf(&b, "• %s: %d min before %s\n", rec.Date, rec.SavedMinutes, rec.Target)
		}
	}
	r.sendText(chatID, b.String())
}

// --- Settings editing flows ---

func (r *Router) askTarget(ctx context.Context, chatID int64, val, cbID string) {
	_ = r.answerCallback(cbID, "")
	kind := alarm.Kind(val)
	if !kind.Valid() {
		return
	}
	r.sendText(chatID, fmt.Sprintf("Send the new %s target time as HH:MM (e.g. 07:30):",
		strings.ToLower(kindLabel(kind))))
	r.setPending(chatID, pendingTarget+string(kind))
}

func (r *Router) askRange(ctx context.Context, chatID int64, val, cbID string) {
	_ = r.answerCallback(cbID, "")
	kind := alarm.Kind(val)
	if !kind.Valid() {
		return
	}
	r.sendText(chatID, fmt.Sprintf("Send the new %s window as MIN-MAX minutes before target (e.g. 5-30, max %d):",
		strings.ToLower(kindLabel(kind)), r.maxOffsetCap))
	r.setPending(chatID, pendingRange+string(kind))
}

func (r *Router) handleSpoilerToggle(ctx context.Context, chatID int64, cbID string) {
	st, err := r.ensureState(ctx, chatID)
	if err != nil {
		_ = r.answerCallback(cbID, "")
		r.log.Error("ensureState failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error reading your settings.")
		return
	}
	st.Settings.SpoilerFree = !st.Settings.SpoilerFree
	if err := r.sessions.Save(ctx, chatID, st); err != nil {
		_ = r.answerCallback(cbID, "")
		r.log.Error("save settings failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Could not save settings.")
		return
	}
	_ = r.answerCallback(cbID, "Spoiler-free mode "+onOff(st.Settings.SpoilerFree))
	msg := tgbotapi.NewMessage(chatID, "Spoiler-free mode is now "+onOff(st.Settings.SpoilerFree)+".")
	msg.ReplyMarkup = settingsInlineKeyboard(st.Settings.SpoilerFree)
	_, _ = r.bot.Send(msg)
}

// --- Free-form dispatcher (target and range text entry) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	pending := r.getPending(chatID)
	switch {
	case strings.HasPrefix(pending, pendingTarget):
		r.clearPending(chatID)
		kind := alarm.Kind(strings.TrimPrefix(pending, pendingTarget))
		target, err := alarm.ParseTimeOfDay(text)
		if err != nil {
			r.sendText(chatID, "Invalid time. Use HH:MM, e.g. 07:30.")
			return
		}
		r.updateProfile(ctx, chatID, kind,
			func(p *alarm.Profile) { p.Target = target },
			fmt.Sprintf("%s target updated to %s.", kindLabel(kind), target))

	case strings.HasPrefix(pending, pendingRange):
		r.clearPending(chatID)
		kind := alarm.Kind(strings.TrimPrefix(pending, pendingRange))
		lo, hi, err := parseOffsetRange(text)
		if err != nil {
			r.sendText(chatID, "Invalid range. Use MIN-MAX, e.g. 5-30.")
			return
		}
		if hi > r.maxOffsetCap {
			r.sendText(chatID, fmt.Sprintf("Too adventurous: the window may reach at most %d minutes.", r.maxOffsetCap))
			return
		}
		r.updateProfile(ctx, chatID, kind,
			func(p *alarm.Profile) { p.MinOffset, p.MaxOffset = lo, hi },
			fmt.Sprintf("%s window updated: wake %d-%d min early.", kindLabel(kind), lo, hi))

	default:
		// No pending flow: ignore free-form message
	}
}

// updateProfile applies change to the chat's profile of the given kind,
// validates and persists it, and confirms to the user. An armed alarm is not
// recomputed; the confirmation says so.
func (r *Router) updateProfile(ctx context.Context, chatID int64, kind alarm.Kind, change func(*alarm.Profile), confirmation string) {
	st, err := r.ensureState(ctx, chatID)
	if err != nil {
		r.log.Error("ensureState failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Error reading your settings.")
		return
	}
	p := st.Settings.Profile(kind)
	change(&p)
	if err := p.Validate(); err != nil {
		r.sendText(chatID, "That does not make a valid profile: "+err.Error())
		return
	}
	st.Settings.SetProfile(kind, p)
	if err := r.sessions.Save(ctx, chatID, st); err != nil {
		r.log.Error("save settings failed", zap.Error(err), zap.Int64("chatID", chatID))
		r.sendText(chatID, "Could not save settings.")
		return
	}
	if _, armed := r.sched.Active(chatID); armed {
		confirmation += " The armed alarm keeps its old draw, /arm again to apply."
	}
	r.sendText(chatID, confirmation)
}

// parseOffsetRange parses "MIN-MAX" into inclusive offset bounds.
func parseOffsetRange(s string) (int, int, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("expected MIN-MAX, got %q", s)
	}
	minV, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("bad minimum %q", lo)
	}
	maxV, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("bad maximum %q", hi)
	}
	return minV, maxV, nil
}
