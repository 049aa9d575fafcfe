// Package bot содержит главный модуль бота — маршрутизацию апдейтов, запуск и остановку.
// bot.go принимает готовые сервисы и обработчики, подключает их и запускает polling.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/bot/filters"
	"serotonyl.ru/habits-bot/internal/bot/middleware"
	"serotonyl.ru/habits-bot/internal/config"
	"serotonyl.ru/habits-bot/internal/features/admin"
	"serotonyl.ru/habits-bot/internal/features/economy"
	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/features/members"
	"serotonyl.ru/habits-bot/internal/features/shop"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// Sessions — сессии уведомлений (notify.Manager).
type Sessions interface {
	Mount(ctx context.Context, userID int64)
	Touch(ctx context.Context, userID int64)
}

// Handlers — обработчики фич, между которыми бот маршрутизирует апдейты.
type Handlers struct {
	Members *members.Handler
	Economy *economy.Handler
	Habits  *habits.Handler
	Shop    *shop.Handler
	Admin   *admin.Handler
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	handlers       Handlers
	memberService  *members.Service
	economyService *economy.Service
	sessions       Sessions

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
// sessions может быть nil — тогда уведомления в сессии не планируются.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	memberService *members.Service,
	economyService *economy.Service,
	handlers Handlers,
	sessions Sessions,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		cfg:            cfg,
		chatFilter:     filters.NewChatFilter(memberService),
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		handlers:       handlers,
		memberService:  memberService,
		economyService: economyService,
		sessions:       sessions,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram. Блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	defer b.rateLimiter.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message
	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	b.ensureMember(ctx, message.From)

	// Ожидание пароля админки перехватывает любой текст
	if b.handlers.Admin.HandleText(ctx, chatID, userID, message.Text) {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		b.touch(ctx, userID)
		return
	}
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("parsed command")

	b.routeCommand(ctx, chatID, userID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	tr := b.memberService.Translator(ctx, userID)

	if admin.Commands[cmd] {
		b.handlers.Admin.HandleCommand(ctx, chatID, userID, cmd, strings.Join(args, " "))
		return
	}

	switch cmd {
	case "start":
		if err := b.economyService.CreateBalance(ctx, userID); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("CreateBalance failed")
		}
		b.sendMessage(chatID, tr.T(i18n.KeyHelp))
		// Новая сессия: уведомления планируются заново
		if b.sessions != nil && b.cfg.FeatureNotificationsEnabled {
			b.sessions.Mount(ctx, userID)
		}
		return

	case "help":
		b.sendMessage(chatID, tr.T(i18n.KeyHelp))

	case "habits":
		b.handlers.Habits.HandleList(ctx, chatID, userID, tr)

	case "addhabit":
		b.handlers.Habits.HandleAdd(ctx, chatID, userID, args, tr)

	case "done":
		b.handlers.Habits.HandleDone(ctx, chatID, userID, args, tr)

	case "delhabit":
		b.handlers.Habits.HandleDelete(ctx, chatID, userID, args, tr)

	case "shop":
		if b.cfg.FeatureShopEnabled {
			b.handlers.Shop.HandleShop(ctx, chatID, userID, tr)
		} else {
			b.sendMessage(chatID, tr.T(i18n.KeyShopDisabled))
		}

	case "stars":
		b.handlers.Economy.HandleBalance(ctx, chatID, userID, tr)

	case "history":
		b.handlers.Economy.HandleTransactions(ctx, chatID, userID, tr)

	case "lang":
		b.handlers.Members.HandleLanguage(ctx, chatID, userID, args)
	}

	b.touch(ctx, userID)
}

// handleCallback обрабатывает нажатия inline-кнопок.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	middleware.LogCallback(query)

	if !b.chatFilter.CheckCallback(ctx, query) {
		return
	}
	if !b.rateLimiter.Allow(query.From.ID) {
		log.WithField("user_id", query.From.ID).Debug("rate limited (callback)")
		b.answerCallback(query.ID)
		return
	}

	userID := query.From.ID
	b.ensureMember(ctx, query.From)
	tr := b.memberService.Translator(ctx, userID)

	switch {
	case strings.HasPrefix(query.Data, shop.CallbackPrefix):
		if !b.cfg.FeatureShopEnabled {
			b.answerCallbackText(query.ID, tr.T(i18n.KeyShopDisabled))
			return
		}
		b.handlers.Shop.HandleCallback(ctx, query, tr)

	case strings.HasPrefix(query.Data, habits.CallbackPrefix):
		b.handlers.Habits.HandleCallback(ctx, query, tr)

	default:
		log.WithField("data", query.Data).Debug("Неизвестный callback")
		b.answerCallback(query.ID)
		return
	}

	b.touch(ctx, userID)
}

// ensureMember — ошибки нельзя игнорировать молча, иначе потом будет "оно не работает"
func (b *Bot) ensureMember(ctx context.Context, from *tgbotapi.User) {
	if err := b.memberService.EnsureMember(ctx, from.ID,
		from.UserName, from.FirstName, from.LastName, from.LanguageCode,
	); err != nil {
		log.WithError(err).WithField("user_id", from.ID).Warn("EnsureMember failed")
	}
}

// touch даёт менеджеру уведомлений шанс показать их в текущей сессии.
func (b *Bot) touch(ctx context.Context, userID int64) {
	if b.sessions != nil && b.cfg.FeatureNotificationsEnabled {
		b.sessions.Touch(ctx, userID)
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (b *Bot) answerCallback(queryID string) {
	b.answerCallbackText(queryID, "")
}

func (b *Bot) answerCallbackText(queryID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}
}

// CommandParser парсит команды с префиксами / и !
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @botname у команды отбрасывается: /shop@habits_bot → shop.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command, _, _ := strings.Cut(parts[0], "@")
	command = strings.ToLower(command)
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
