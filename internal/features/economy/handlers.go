// Package economy — handlers.go обрабатывает команды /stars (баланс) и /history (история).
package economy

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// Sender — часть Telegram API, через которую обработчик отвечает пользователю.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler обрабатывает команды экономики.
type Handler struct {
	service *Service
	bot     Sender
}

// NewHandler создаёт новый обработчик экономических команд.
func NewHandler(service *Service, bot Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleBalance обрабатывает /stars — показывает баланс.
//
//	⭐ Баланс: 150 звёзд
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64, tr i18n.Translator) {
	balance, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения баланса")
		h.sendMessage(chatID, tr.T(i18n.KeyInternalError), "")
		return
	}
	h.sendMessage(chatID, tr.Tf(i18n.KeyBalance, common.FormatStars(balance, string(tr.Lang()))), "")
}

// HandleTransactions обрабатывает /history — последние транзакции.
// Старые записи скрыты под спойлером, поэтому ответ идёт в MarkdownV2.
func (h *Handler) HandleTransactions(ctx context.Context, chatID, userID int64, tr i18n.Translator) {
	history, err := h.service.GetTransactionHistory(ctx, userID, tr)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения истории")
		h.sendMessage(chatID, tr.T(i18n.KeyInternalError), "")
		return
	}
	h.sendMessage(chatID, escapeMarkdownV2(history), tgbotapi.ModeMarkdownV2)
}

func (h *Handler) sendMessage(chatID int64, text, parseMode string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// escapeMarkdownV2 экранирует спецсимволы, оставляя разметку спойлера ||.
func escapeMarkdownV2(text string) string {
	const special = "_*[]()~`>#+-=|{}.!\\"
	out := make([]rune, 0, len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '|' && i+1 < len(runes) && runes[i+1] == '|' {
			out = append(out, '|', '|')
			i++
			continue
		}
		for _, s := range special {
			if r == s {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}
