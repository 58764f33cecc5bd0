package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatGate is the permission capability backed by the Telegram API: a chat
// that cannot be fetched (bot blocked, chat deleted) cannot receive
// notifications, so scheduling for it is refused.
type ChatGate struct {
	bot *tgbotapi.BotAPI
}

// NewChatGate creates a gate checking reachability through bot.
func NewChatGate(bot *tgbotapi.BotAPI) *ChatGate {
	return &ChatGate{bot: bot}
}

// NotificationsAllowed reports whether the chat is reachable.
func (g *ChatGate) NotificationsAllowed(ctx context.Context, chatID int64) (bool, error) {
	_, err := g.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
