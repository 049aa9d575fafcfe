package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender — часть Telegram API для отправки сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier отправляет уведомления личным сообщением.
type TelegramNotifier struct {
	bot Sender
}

func NewTelegramNotifier(bot Sender) *TelegramNotifier {
	return &TelegramNotifier{bot: bot}
}

// Notify отправляет "заголовок\nописание" в личку пользователя.
func (t *TelegramNotifier) Notify(ctx context.Context, userID int64, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(userID, n.Text())); err != nil {
		return fmt.Errorf("ошибка отправки уведомления %s: %w", n.Kind, err)
	}
	return nil
}
