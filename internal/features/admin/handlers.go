// Package admin — handlers.go обрабатывает админ-команды в личных сообщениях.
// Поток: /login → пароль → сессия на 24 часа → команды каталога и звёзд.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/features/economy"
	"serotonyl.ru/habits-bot/internal/features/members"
	"serotonyl.ru/habits-bot/internal/features/shop"
)

// Sender — часть Telegram API, нужная обработчику.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Catalog — управление каталогом магазина.
type Catalog interface {
	AddReward(ctx context.Context, e shop.CatalogEntry) (*shop.ShopReward, error)
	HideReward(ctx context.Context, id uuid.UUID) error
}

// Wallet — начисление и списание звёзд.
type Wallet interface {
	AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error
	DeductBalance(ctx context.Context, userID int64, amount int64, txType, description string) error
}

// Directory — поиск участников по @username или ID.
type Directory interface {
	GetByUserID(ctx context.Context, userID int64) (*members.Member, error)
	GetByUsername(ctx context.Context, username string) (*members.Member, error)
}

// Handler обрабатывает админ-команды.
type Handler struct {
	service   *Service
	catalog   Catalog
	wallet    Wallet
	directory Directory
	bot       Sender
}

// NewHandler создаёт обработчик админ-команд.
func NewHandler(service *Service, catalog Catalog, wallet Wallet, directory Directory, bot Sender) *Handler {
	return &Handler{
		service:   service,
		catalog:   catalog,
		wallet:    wallet,
		directory: directory,
		bot:       bot,
	}
}

// Commands — команды, которые обрабатывает админка.
var Commands = map[string]bool{
	"login":      true,
	"logout":     true,
	"addreward":  true,
	"hidereward": true,
	"grant":      true,
	"take":       true,
}

// HandleCommand выполняет админ-команду. args — всё после команды.
// Для не-админов команды молча игнорируются.
func (h *Handler) HandleCommand(ctx context.Context, chatID, userID int64, command, args string) {
	if !h.service.IsAdmin(userID) {
		log.WithFields(log.Fields{"user_id": userID, "command": command}).Debug("Админ-команда от не-админа")
		return
	}

	switch command {
	case "login":
		h.handleLogin(ctx, chatID, userID, strings.TrimSpace(args))
		return
	case "logout":
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка выхода")
		}
		h.service.ClearState(userID)
		h.sendMessage(chatID, "👋 Сессия закрыта")
		return
	}

	if err := h.service.RequireSession(ctx, userID); err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			h.sendMessage(chatID, "🔐 "+err.Error()+": /login")
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки сессии")
		h.sendMessage(chatID, "❌ Внутренняя ошибка")
		return
	}

	switch command {
	case "addreward":
		h.handleAddReward(ctx, chatID, userID, args)
	case "hidereward":
		h.handleHideReward(ctx, chatID, userID, args)
	case "grant":
		h.handleAdjust(ctx, chatID, userID, args, true)
	case "take":
		h.handleAdjust(ctx, chatID, userID, args, false)
	}
}

// HandleText перехватывает ввод пароля после /login без аргумента.
// Возвращает true, если сообщение поглощено админкой.
func (h *Handler) HandleText(ctx context.Context, chatID, userID int64, text string) bool {
	state := h.service.GetState(userID)
	if state == nil || state.State != StateAwaitingPassword {
		return false
	}
	h.service.ClearState(userID)
	h.login(ctx, chatID, userID, strings.TrimSpace(text))
	return true
}

func (h *Handler) handleLogin(ctx context.Context, chatID, userID int64, password string) {
	if password == "" {
		h.service.SetState(userID, StateAwaitingPassword)
		h.sendMessage(chatID, "🔐 Введите пароль для доступа к админке:")
		return
	}
	h.login(ctx, chatID, userID, password)
}

func (h *Handler) login(ctx context.Context, chatID, userID int64, password string) {
	err := h.service.Login(ctx, userID, password)
	switch {
	case err == nil:
		h.sendMessage(chatID, "✅ Вход выполнен. Команды:\n"+
			"/addreward <тип> <цена> <название> | <описание>\n"+
			"/hidereward <id>\n"+
			"/grant <@user|id> <звёзды>\n"+
			"/take <@user|id> <звёзды>\n"+
			"/logout")
	case errors.Is(err, common.ErrWrongPassword), errors.Is(err, common.ErrTooManyAttempts), errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(chatID, "❌ "+err.Error())
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка входа")
		h.sendMessage(chatID, "❌ Внутренняя ошибка")
	}
}

func (h *Handler) handleAddReward(ctx context.Context, chatID, userID int64, args string) {
	entry, err := parseAddReward(args)
	if err != nil {
		h.sendMessage(chatID, "❌ "+err.Error()+"\nФормат: /addreward <тип> <цена> <название> | <описание>")
		return
	}
	reward, err := h.catalog.AddReward(ctx, entry)
	if err != nil {
		if errors.Is(err, common.ErrInvalidReward) {
			h.sendMessage(chatID, "❌ "+err.Error())
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка добавления награды")
		h.sendMessage(chatID, "❌ Внутренняя ошибка")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ %s %s · %d ⭐\nID: %s",
		reward.RewardType.Icon().Emoji(), reward.Name, reward.PriceStars, reward.ID))
}

func (h *Handler) handleHideReward(ctx context.Context, chatID, userID int64, args string) {
	id, err := uuid.Parse(strings.TrimSpace(args))
	if err != nil {
		h.sendMessage(chatID, "❌ Формат: /hidereward <id>")
		return
	}
	if err := h.catalog.HideReward(ctx, id); err != nil {
		if errors.Is(err, common.ErrRewardNotFound) {
			h.sendMessage(chatID, "❌ "+err.Error())
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка скрытия награды")
		h.sendMessage(chatID, "❌ Внутренняя ошибка")
		return
	}
	h.sendMessage(chatID, "✅ Награда скрыта из магазина")
}

// handleAdjust выдаёт (grant) или списывает звёзды.
func (h *Handler) handleAdjust(ctx context.Context, chatID, adminID int64, args string, grant bool) {
	target, amount, err := parseGrant(strings.Fields(args))
	if err != nil {
		h.sendMessage(chatID, "❌ "+err.Error()+"\nФормат: /grant <@user|id> <звёзды>")
		return
	}

	member, err := h.resolve(ctx, target)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			h.sendMessage(chatID, "❌ Пользователь не найден")
			return
		}
		log.WithError(err).Error("Ошибка поиска пользователя")
		h.sendMessage(chatID, "❌ Внутренняя ошибка")
		return
	}

	description := fmt.Sprintf("admin %d", adminID)
	if grant {
		err = h.wallet.AddBalance(ctx, member.UserID, amount, economy.TxTypeAdminGive, description)
	} else {
		err = h.wallet.DeductBalance(ctx, member.UserID, amount, economy.TxTypeAdminTake, description)
	}
	if err != nil {
		if errors.Is(err, common.ErrInsufficientStars) || errors.Is(err, common.ErrInvalidAmount) {
			h.sendMessage(chatID, "❌ "+err.Error())
			return
		}
		log.WithError(err).WithField("target_id", member.UserID).Error("Ошибка изменения баланса")
		h.sendMessage(chatID, "❌ Внутренняя ошибка")
		return
	}

	log.WithFields(log.Fields{
		"admin_id":  adminID,
		"target_id": member.UserID,
		"amount":    amount,
		"grant":     grant,
	}).Info("Баланс изменён администратором")

	sign := "+"
	if !grant {
		sign = "-"
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ %s: %s%d ⭐", member.DisplayName(), sign, amount))
}

func (h *Handler) resolve(ctx context.Context, target string) (*members.Member, error) {
	if strings.HasPrefix(target, "@") {
		return h.directory.GetByUsername(ctx, target)
	}
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return h.directory.GetByUsername(ctx, target)
	}
	return h.directory.GetByUserID(ctx, id)
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// parseAddReward разбирает «<тип> <цена> <название> | <описание>».
func parseAddReward(args string) (shop.CatalogEntry, error) {
	head, desc, _ := strings.Cut(args, "|")
	fields := strings.Fields(head)
	if len(fields) < 3 {
		return shop.CatalogEntry{}, errors.New("не хватает аргументов")
	}
	price, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || price < 0 {
		return shop.CatalogEntry{}, fmt.Errorf("некорректная цена %q", fields[1])
	}
	entry := shop.CatalogEntry{
		RewardType:  shop.RewardType(strings.ToLower(fields[0])),
		PriceStars:  price,
		Name:        strings.Join(fields[2:], " "),
		Description: strings.TrimSpace(desc),
	}
	if err := entry.Validate(); err != nil {
		return shop.CatalogEntry{}, err
	}
	return entry, nil
}

// parseGrant разбирает «<@user|id> <звёзды>».
func parseGrant(args []string) (string, int64, error) {
	if len(args) != 2 {
		return "", 0, errors.New("нужно два аргумента")
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		return "", 0, fmt.Errorf("некорректная сумма %q", args[1])
	}
	return args[0], amount, nil
}
