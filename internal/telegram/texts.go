package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ryutarou1/lucky-alarm-native/internal/alarm"
)

// UI texts in English
const (
	startText = "👋 I am your lucky alarm.\n\n" +
		"Pick a target wake-up time and I will fire a random few minutes early. " +
		"How early stays a surprise until you are up, and every early minute lands in your savings.\n\n" +
		"/arm an alarm, check /status and /stats, tune /settings."

	statusTitle = "🧾 Your wake-up setup:"
	statusFmt   = "• Alarm: %s\n• Weekday: %s, wake %d-%d min early\n• Weekend: %s, wake %d-%d min early\n• Spoiler-free: %s\n"

	statsTitle = "💰 Minutes saved by waking up early"

	settingsFmt = "⚙️ Settings\n\n" +
		"• Weekday: %s, wake %d-%d min early\n" +
		"• Weekend: %s, wake %d-%d min early\n" +
		"• Spoiler-free mode: %s\n\n" +
		"What do you want to change?"

	fireAtLayout = "Mon, 02 Jan 15:04"
)

func savingsText(saved, weekly, total int, suggestion string) string {
	return fmt.Sprintf(
		"🎉 You got up %d minutes before your target!\n\n"+
			"💰 Saved this week: %d min\n"+
			"🏦 Saved all time: %d min\n\n"+
			"💡 %s",
		saved, weekly, total, suggestion)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func kindLabel(k alarm.Kind) string {
	if k == alarm.Weekend {
		return "Weekend"
	}
	return "Weekday"
}

// mainMenuKeyboard builds a reply keyboard with a single toggle button:
// "/arm" while nothing is armed, "/disarm" otherwise.
func mainMenuKeyboard(armed bool) tgbotapi.ReplyKeyboardMarkup {
	toggle := "/arm"
	if armed {
		toggle = "/disarm"
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/status"),
			tgbotapi.NewKeyboardButton("/stats"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/settings"),
			tgbotapi.NewKeyboardButton(toggle),
		),
	)
}

// Inline keyboards
func armKindKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏢 Weekday", "arm:weekday"),
			tgbotapi.NewInlineKeyboardButtonData("🏖 Weekend", "arm:weekend"),
		),
	)
}

func settingsInlineKeyboard(spoilerFree bool) tgbotapi.InlineKeyboardMarkup {
	spoiler := "🙉 Spoiler-free: off"
	if spoilerFree {
		spoiler = "🙈 Spoiler-free: on"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Weekday time", "target:weekday"),
			tgbotapi.NewInlineKeyboardButtonData("🎲 Weekday window", "range:weekday"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Weekend time", "target:weekend"),
			tgbotapi.NewInlineKeyboardButtonData("🎲 Weekend window", "range:weekend"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(spoiler, "spoiler:toggle"),
		),
	)
}
