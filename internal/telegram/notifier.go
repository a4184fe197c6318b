package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier shares the week summary to a Telegram chat.
type Notifier struct {
	api    Sender
	chatID int64
}

// NewNotifier creates a share target for chatID.
func NewNotifier(api Sender, chatID int64) *Notifier {
	return &Notifier{api: api, chatID: chatID}
}

func (n *Notifier) Name() string { return "telegram" }

// Share sends text as is. The summary already starts with its title.
func (n *Notifier) Share(_ context.Context, _, text string) error {
	if n.chatID == 0 {
		return fmt.Errorf("telegram chat id is not set")
	}
	if _, err := n.api.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		return fmt.Errorf("failed to send to chat %d: %w", n.chatID, err)
	}
	return nil
}
