// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// менеджер уведомлений, планировщик и HTTP API.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/bot"
	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/config"
	"serotonyl.ru/habits-bot/internal/db/postgres"
	"serotonyl.ru/habits-bot/internal/features/admin"
	"serotonyl.ru/habits-bot/internal/features/economy"
	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/features/members"
	"serotonyl.ru/habits-bot/internal/features/notify"
	"serotonyl.ru/habits-bot/internal/features/shop"
	"serotonyl.ru/habits-bot/internal/httpapi"
	"serotonyl.ru/habits-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot           *bot.Bot
	Scheduler     *jobs.Scheduler
	Notifications *notify.Manager
	HTTP          *httpapi.Server // nil, если HTTP_ADDR пуст
	DB            *pgxpool.Pool
	BotAPI        *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc := common.LoadLocation(cfg.AppTimezone)

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	memberRepo := members.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	habitRepo := habits.NewRepository(pool)
	shopRepo := shop.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	memberService := members.NewService(memberRepo, cfg.DefaultLanguage, cfg.AdminIDs)
	economyService := economy.NewService(economyRepo, loc)
	habitService := habits.NewService(habitRepo, economyService, cfg, loc)
	shopService := shop.NewService(shopRepo, economyService, habitService, loc)
	adminService := admin.NewService(adminRepo, cfg)

	// Каталог из YAML: отсутствующий файл — не ошибка
	if n, err := shopService.SeedCatalog(ctx, cfg.ShopCatalogFile); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	} else if n > 0 {
		log.WithFields(log.Fields{"file": cfg.ShopCatalogFile, "rewards": n}).Info("Каталог магазина загружен")
	}

	// === 5. Уведомления ===
	policy := notify.Policy{
		BaseDelay:       cfg.NotifyBaseDelay,
		StaggerDelay:    cfg.NotifyStaggerDelay,
		StreakThreshold: cfg.HabitStreakThreshold,
	}
	notifier := notify.NewTelegramNotifier(botAPI)
	manager := notify.NewManager(policy, habitService, memberService, notifier, loc)

	// === 6. Обработчики ===
	handlers := bot.Handlers{
		Members: members.NewHandler(memberService, botAPI),
		Economy: economy.NewHandler(economyService, botAPI),
		Habits:  habits.NewHandler(habitService, botAPI),
		Shop:    shop.NewHandler(shopService, botAPI),
		Admin:   admin.NewHandler(adminService, shopService, economyService, memberService, botAPI),
	}

	// === 7. Собираем бота ===
	var sessions bot.Sessions
	if cfg.FeatureNotificationsEnabled {
		sessions = manager
	}
	b := bot.New(botAPI, cfg, memberService, economyService, handlers, sessions)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, loc, habitService, memberService, notifier, policy, manager)

	// === 9. HTTP API ===
	var server *httpapi.Server
	if cfg.HTTPAddr != "" {
		router := httpapi.NewRouter(httpapi.Deps{
			Shop:      shopService,
			Habits:    habitService,
			Planner:   manager,
			Languages: memberService,
			APIKey:    cfg.HTTPAPIKey,
			Location:  loc,
		})
		server = httpapi.NewServer(cfg.HTTPAddr, router)
	}

	return &App{
		Bot:           b,
		Scheduler:     scheduler,
		Notifications: manager,
		HTTP:          server,
		DB:            pool,
		BotAPI:        botAPI,
	}, nil
}

// Shutdown останавливает компоненты в обратном порядке. Пул БД закрывается последним.
func (a *App) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.HTTP != nil {
		if err := a.HTTP.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("HTTP API остановлен с ошибкой")
		}
	}
	a.Notifications.Close()
	a.Scheduler.Stop()
	a.DB.Close()
}
