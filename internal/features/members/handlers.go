// Package members — handlers.go обрабатывает команду /lang.
package members

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/i18n"
)

// Sender — часть Telegram API, через которую обработчик отвечает пользователю.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler обрабатывает команды участников.
type Handler struct {
	service *Service
	bot     Sender
}

// NewHandler создаёт новый обработчик команд участников.
func NewHandler(service *Service, bot Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleLanguage обрабатывает /lang ru|en.
func (h *Handler) HandleLanguage(ctx context.Context, chatID, userID int64, args []string) {
	tr := h.service.Translator(ctx, userID)
	if len(args) != 1 {
		h.sendMessage(chatID, tr.T(i18n.KeyLanguageUsage))
		return
	}

	lang, err := h.service.SetLanguage(ctx, userID, args[0])
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Смена языка отклонена")
		h.sendMessage(chatID, tr.T(i18n.KeyLanguageUsage))
		return
	}
	h.sendMessage(chatID, i18n.New(string(lang)).T(i18n.KeyLanguageSet))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
