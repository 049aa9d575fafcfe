// Package habits — handlers.go обрабатывает команды /habits, /addhabit, /done, /delhabit
// и нажатия кнопок «выполнено» под списком привычек.
package habits

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// CallbackPrefix — префикс callback data кнопок привычек.
const CallbackPrefix = "habit:"

const callbackDone = CallbackPrefix + "done:"

// Sender — часть Telegram API, через которую обработчик отвечает пользователю.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler обрабатывает команды привычек.
type Handler struct {
	service *Service
	bot     Sender
	now     func() time.Time
}

// NewHandler создаёт новый обработчик команд привычек.
func NewHandler(service *Service, bot Sender) *Handler {
	return &Handler{service: service, bot: bot, now: time.Now}
}

// HandleList обрабатывает /habits.
func (h *Handler) HandleList(ctx context.Context, chatID, userID int64, tr i18n.Translator) {
	text, markup, err := h.render(ctx, userID, tr)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения привычек")
		h.sendMessage(chatID, tr.T(i18n.KeyInternalError))
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки списка привычек")
	}
}

// HandleAdd обрабатывает /addhabit <название> [дни].
// Последний аргумент из цифр и запятых считается списком дней.
func (h *Handler) HandleAdd(ctx context.Context, chatID, userID int64, args []string, tr i18n.Translator) {
	if len(args) == 0 {
		h.sendMessage(chatID, tr.T(i18n.KeyHabitUsage))
		return
	}

	var days []int
	if last := args[len(args)-1]; len(args) > 1 && looksLikeDays(last) {
		parsed, err := ParseDays(last)
		if err != nil {
			h.sendMessage(chatID, tr.T(i18n.KeyHabitUsage))
			return
		}
		days = parsed
		args = args[:len(args)-1]
	}

	habit, err := h.service.Create(ctx, userID, strings.Join(args, " "), days, h.now())
	if err != nil {
		switch {
		case errors.Is(err, common.ErrHabitLimit):
			h.sendMessage(chatID, tr.T(i18n.KeyHabitLimit))
			return
		case errors.Is(err, common.ErrInvalidHabit):
			log.WithError(err).WithField("user_id", userID).Debug("Привычка отклонена")
			h.sendMessage(chatID, tr.T(i18n.KeyHabitUsage))
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка создания привычки")
		h.sendMessage(chatID, tr.T(i18n.KeyInternalError))
		return
	}
	h.sendMessage(chatID, tr.Tf(i18n.KeyHabitAdded, habit.Name))
}

// HandleDone обрабатывает /done <номер>.
func (h *Handler) HandleDone(ctx context.Context, chatID, userID int64, args []string, tr i18n.Translator) {
	habit, ok := h.habitByNumber(ctx, chatID, userID, args, tr)
	if !ok {
		return
	}
	h.sendMessage(chatID, h.complete(ctx, userID, habit.ID, tr))
}

// HandleDelete обрабатывает /delhabit <номер>.
func (h *Handler) HandleDelete(ctx context.Context, chatID, userID int64, args []string, tr i18n.Translator) {
	habit, ok := h.habitByNumber(ctx, chatID, userID, args, tr)
	if !ok {
		return
	}
	name, err := h.service.Delete(ctx, userID, habit.ID)
	if err != nil {
		if errors.Is(err, common.ErrHabitNotFound) {
			h.sendMessage(chatID, tr.T(i18n.KeyHabitNotFound))
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка удаления привычки")
		h.sendMessage(chatID, tr.T(i18n.KeyInternalError))
		return
	}
	h.sendMessage(chatID, tr.Tf(i18n.KeyHabitDeleted, name))
}

// HandleCallback обрабатывает кнопку habit:done:<id>: отмечает привычку,
// отвечает на callback и перерисовывает список в том же сообщении.
func (h *Handler) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery, tr i18n.Translator) {
	userID := query.From.ID
	answer := tr.T(i18n.KeyHabitNotFound)

	if raw, ok := strings.CutPrefix(query.Data, callbackDone); ok {
		if id, err := uuid.Parse(raw); err == nil {
			answer = h.complete(ctx, userID, id, tr)
		}
	}

	if _, err := h.bot.Request(tgbotapi.NewCallback(query.ID, answer)); err != nil {
		log.WithError(err).Warn("Ошибка ответа на callback")
	}

	if query.Message == nil {
		return
	}
	text, markup, err := h.render(ctx, userID, tr)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка обновления списка привычек")
		return
	}
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(query.Message.Chat.ID, query.Message.MessageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	}
	if _, err := h.bot.Request(edit); err != nil {
		log.WithError(err).Debug("Список привычек не изменён")
	}
}

func (h *Handler) complete(ctx context.Context, userID int64, habitID uuid.UUID, tr i18n.Translator) string {
	done, err := h.service.Complete(ctx, userID, habitID, h.now())
	switch {
	case err == nil:
		return tr.Tf(i18n.KeyHabitDone, done.Habit.Name, done.Habit.Streak, done.Stars)
	case errors.Is(err, common.ErrAlreadyCompleted):
		return tr.Tf(i18n.KeyHabitAlreadyDone, done.Habit.Name)
	case errors.Is(err, common.ErrHabitNotFound):
		return tr.T(i18n.KeyHabitNotFound)
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка отметки привычки")
		return tr.T(i18n.KeyInternalError)
	}
}

// habitByNumber находит привычку по номеру из списка /habits (с единицы).
func (h *Handler) habitByNumber(ctx context.Context, chatID, userID int64, args []string, tr i18n.Translator) (*Habit, bool) {
	if len(args) != 1 {
		h.sendMessage(chatID, tr.T(i18n.KeyHabitNotFound))
		return nil, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		h.sendMessage(chatID, tr.T(i18n.KeyHabitNotFound))
		return nil, false
	}
	list, err := h.service.List(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения привычек")
		h.sendMessage(chatID, tr.T(i18n.KeyInternalError))
		return nil, false
	}
	if n > len(list) {
		h.sendMessage(chatID, tr.T(i18n.KeyHabitNotFound))
		return nil, false
	}
	return list[n-1], true
}

// render строит текст списка и кнопки для невыполненных сегодня привычек.
func (h *Handler) render(ctx context.Context, userID int64, tr i18n.Translator) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	list, err := h.service.List(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if len(list) == 0 {
		return tr.T(i18n.KeyHabitsEmpty), nil, nil
	}

	today := h.service.Today(h.now())
	var sb strings.Builder
	sb.WriteString(tr.T(i18n.KeyHabitsTitle))
	sb.WriteString("\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, habit := range list {
		mark := "▫️"
		switch {
		case habit.CompletedOn(common.ISODate(today)):
			mark = "✅"
		case habit.DueOn(today.Weekday()):
			mark = "⬜"
			label := fmt.Sprintf("✅ %d. %s", i+1, habit.Name)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, DoneCallbackData(habit.ID)),
			))
		}
		fmt.Fprintf(&sb, "\n%d. %s %s · 🔥 %d · %s", i+1, mark, habit.Name, habit.Streak, formatDays(habit.TargetDays, tr))
	}

	if len(rows) == 0 {
		return sb.String(), nil, nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return sb.String(), &markup, nil
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// DoneCallbackData возвращает callback data кнопки «выполнено».
func DoneCallbackData(id uuid.UUID) string {
	return callbackDone + id.String()
}

func formatDays(days []int, tr i18n.Translator) string {
	if len(days) == len(AllDays) {
		return tr.T(i18n.KeyEveryDay)
	}
	names := strings.Split(tr.T(i18n.KeyWeekdays), ",")
	// Неделя в списке начинается с понедельника
	parts := make([]string, 0, len(days))
	for _, want := range []int{1, 2, 3, 4, 5, 6, 0} {
		for _, d := range days {
			if d == want && d < len(names) {
				parts = append(parts, names[d])
			}
		}
	}
	return strings.Join(parts, ", ")
}

func looksLikeDays(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' {
			return false
		}
	}
	return s != ""
}
