package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/taxibot/core/telegram/keyboard"
	"github.com/m3rciful/taxibot/internal/order"
)

// Sender is the part of the Telegram API used to deliver replies.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TeleTransport delivers replies as Telegram messages.
type TeleTransport struct {
	API Sender
}

// Deliver sends r to the chat with its keyboard, if any.
func (t TeleTransport) Deliver(_ context.Context, chatID int64, r order.Reply) error {
	var opts []interface{}
	if markup := replyMarkup(r); markup != nil {
		opts = append(opts, markup)
	}
	if _, err := t.API.Send(tele.ChatID(chatID), r.Text, opts...); err != nil {
		return &TransportError{ChatID: chatID, Err: err}
	}
	return nil
}

func replyMarkup(r order.Reply) *tele.ReplyMarkup {
	switch {
	case len(r.Keyboard) > 0:
		return keyboard.ReplyButtons(r.Keyboard)
	case r.RemoveKeyboard:
		return keyboard.RemoveKeyboard()
	}
	return nil
}
