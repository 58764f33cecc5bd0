package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ryutarou1/lucky-alarm-native/internal/scheduler"
	"github.com/ryutarou1/lucky-alarm-native/internal/store"
)

// Pending state keys used in conversational flows. The profile kind the
// answer applies to is appended after the colon.
const (
	pendingTarget = "await_target:"
	pendingRange  = "await_range:"
)

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot          *tgbotapi.BotAPI
	log          *zap.Logger
	sessions     store.Sessions
	sched        *scheduler.Scheduler
	maxOffsetCap int
	state        map[int64]string // chatID -> pending state
	mu           sync.RWMutex
}

// NewRouter creates a new Telegram router. maxOffsetCap bounds the offset
// ranges users may configure, on top of the profile's own validation.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, sessions store.Sessions, maxOffsetCap int) *Router {
	return &Router{
		bot:          bot,
		log:          log,
		sessions:     sessions,
		maxOffsetCap: maxOffsetCap,
		state:        make(map[int64]string),
	}
}

// AttachScheduler completes the wiring after construction. The router sends
// for the notifier that the scheduler drives, so the scheduler cannot also be
// a constructor argument here. Must be called before the first update.
func (r *Router) AttachScheduler(s *scheduler.Scheduler) {
	r.sched = s
}

// setPending sets a pending state for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

// getPending returns current pending state for a chat.
func (r *Router) getPending(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending clears a pending state for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/status"):
			r.handleStatus(ctx, chatID)
		case strings.HasPrefix(text, "/arm"):
			r.handleArm(ctx, chatID)
		case strings.HasPrefix(text, "/disarm"):
			r.handleDisarm(ctx, chatID)
		case strings.HasPrefix(text, "/stats"):
			r.handleStats(ctx, chatID)
		case strings.HasPrefix(text, "/settings"):
			r.handleSettings(ctx, chatID)
		default:
			// Free-form text used by the target/range editing flows
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		data := cb.Data
		chatID := cb.Message.Chat.ID

		switch {
		case strings.HasPrefix(data, "arm:"):
			r.handleArmKind(ctx, chatID, strings.TrimPrefix(data, "arm:"), cb.ID)
		case strings.HasPrefix(data, "target:"):
			r.askTarget(ctx, chatID, strings.TrimPrefix(data, "target:"), cb.ID)
		case strings.HasPrefix(data, "range:"):
			r.askRange(ctx, chatID, strings.TrimPrefix(data, "range:"), cb.ID)
		case data == "spoiler:toggle":
			r.handleSpoilerToggle(ctx, chatID, cb.ID)
		default:
			// Unknown callback: ignore silently
		}
		return
	}
}

// SendMessage sends a plain text message to the given chat.
// This makes Router satisfy notify.Sender.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
