// Package shop — handlers.go обрабатывает /shop и кнопки магазина.
package shop

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// Sender — часть Telegram API, через которую обработчик отвечает пользователю.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler обрабатывает команды магазина.
type Handler struct {
	service *Service
	bot     Sender
	now     func() time.Time
}

// NewHandler создаёт обработчик магазина.
func NewHandler(service *Service, bot Sender) *Handler {
	return &Handler{service: service, bot: bot, now: time.Now}
}

// HandleShop обрабатывает /shop: сразу отправляет экран загрузки,
// затем заменяет его готовым каталогом.
func (h *Handler) HandleShop(ctx context.Context, chatID, userID int64, tr i18n.Translator) {
	loading := h.service.LoadingScreen(TabShop, tr)
	msg := tgbotapi.NewMessage(chatID, MessageText(loading))
	msg.ReplyMarkup = Keyboard(loading)
	sent, err := h.bot.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки магазина")
		return
	}
	h.refresh(ctx, chatID, sent.MessageID, userID, TabShop, tr)
}

// HandleCallback обрабатывает shop:tab, shop:buy, shop:use и shop:locked.
// На каждое нажатие отвечает всплывающим текстом и перерисовывает экран.
func (h *Handler) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery, tr i18n.Translator) {
	userID := query.From.ID
	verb, arg, ok := parseCallback(query.Data)
	if !ok {
		h.answer(query.ID, "")
		return
	}

	tab := TabShop
	answer := ""
	redraw := true

	switch verb {
	case verbTab:
		tab = ParseTab(arg)
	case verbLocked:
		answer = tr.T(i18n.KeyNotEnoughStars)
		redraw = false
	case verbBuy:
		answer = h.purchase(ctx, userID, arg, tr)
	case verbUse:
		tab = TabInventory
		answer = h.use(ctx, userID, arg, tr)
	default:
		redraw = false
	}

	h.answer(query.ID, answer)
	if redraw && query.Message != nil {
		h.refresh(ctx, query.Message.Chat.ID, query.Message.MessageID, userID, tab, tr)
	}
}

func (h *Handler) purchase(ctx context.Context, userID int64, arg string, tr i18n.Translator) string {
	id, err := uuid.Parse(arg)
	if err != nil {
		return tr.T(i18n.KeyRewardNotFound)
	}
	if _, err := h.service.Purchase(ctx, userID, id, h.now()); err != nil {
		logActionError(err, userID, "Покупка не удалась")
		return tr.T(FailureKey(err, ActionBuy))
	}
	return tr.T(i18n.KeyPurchaseOK)
}

func (h *Handler) use(ctx context.Context, userID int64, arg string, tr i18n.Translator) string {
	id, err := uuid.Parse(arg)
	if err != nil {
		return tr.T(i18n.KeyRewardNotFound)
	}
	if _, err := h.service.Use(ctx, userID, id, h.now()); err != nil {
		logActionError(err, userID, "Награда не использована")
		return tr.T(FailureKey(err, ActionUse))
	}
	return tr.T(i18n.KeyUseOK)
}

func (h *Handler) refresh(ctx context.Context, chatID int64, messageID int, userID int64, tab Tab, tr i18n.Translator) {
	view, err := h.service.Screen(ctx, userID, tab, tr)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка загрузки магазина")
		edit := tgbotapi.NewEditMessageText(chatID, messageID, tr.T(i18n.KeyInternalError))
		if _, err := h.bot.Request(edit); err != nil {
			log.WithError(err).Debug("Не удалось показать ошибку магазина")
		}
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, MessageText(view), Keyboard(view))
	if _, err := h.bot.Request(edit); err != nil {
		// Telegram отвечает ошибкой, если текст не изменился
		log.WithError(err).Debug("Экран магазина не изменён")
	}
}

func (h *Handler) answer(queryID, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		log.WithError(err).Warn("Ошибка ответа на callback")
	}
}

func logActionError(err error, userID int64, msg string) {
	entry := log.WithError(err).WithField("user_id", userID)
	if isDomainError(err) {
		entry.Debug(msg)
		return
	}
	entry.Error(msg)
}

// isDomainError — ожидаемый отказ, а не сбой.
func isDomainError(err error) bool {
	for _, target := range []error{
		common.ErrInsufficientStars,
		common.ErrFreezeMonthlyLimit,
		common.ErrRewardNotFound,
		common.ErrPurchaseNotFound,
		common.ErrRewardAlreadyUsed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
