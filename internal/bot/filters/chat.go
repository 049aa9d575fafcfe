// Package filters решает, обрабатывать ли апдейт: бот работает только
// в личных сообщениях и не отвечает забаненным.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// BanChecker проверяет флаг бана (members.Service).
type BanChecker interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

type ChatFilter struct {
	members BanChecker
}

func NewChatFilter(members BanChecker) *ChatFilter {
	return &ChatFilter{members: members}
}

// CheckAccess проверяет сообщение.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("nil message.From (service/channel message?)")
		return false
	}
	return f.check(ctx, message.Chat, message.From.ID)
}

// CheckCallback проверяет нажатие inline-кнопки.
func (f *ChatFilter) CheckCallback(ctx context.Context, query *tgbotapi.CallbackQuery) bool {
	if query == nil || query.From == nil || query.Message == nil || query.Message.Chat == nil {
		log.WithField("component", "ChatFilter").Debug("callback without message (inline mode?)")
		return false
	}
	return f.check(ctx, query.Message.Chat, query.From.ID)
}

func (f *ChatFilter) check(ctx context.Context, chat *tgbotapi.Chat, userID int64) bool {
	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chat.ID,
		"chat_type": chat.Type,
		"user_id":   userID,
	})

	if !chat.IsPrivate() {
		logger.Debug("deny: not a private chat")
		return false
	}

	banned, err := f.members.IsBanned(ctx, userID)
	if err != nil {
		// БД недоступна: пропускаем, дальше обработчики сами ответят ошибкой
		logger.WithError(err).Error("ban check failed (db)")
		return true
	}
	if banned {
		logger.Info("deny: banned")
		return false
	}
	return true
}
