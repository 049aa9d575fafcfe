// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// перед этим godotenv подхватывает .env (если он есть).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"habits_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv          string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel     string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone     string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"ru"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Habits ---
	HabitStreakThreshold int   `envconfig:"HABIT_STREAK_THRESHOLD" default:"7"`
	HabitReminderHour    int   `envconfig:"HABIT_REMINDER_HOUR" default:"9"`
	HabitCompletionStars int64 `envconfig:"HABIT_COMPLETION_STARS" default:"1"`
	HabitMaxPerUser      int   `envconfig:"HABIT_MAX_PER_USER" default:"20"`

	// --- Notifications ---
	NotifyBaseDelay    time.Duration `envconfig:"NOTIFY_BASE_DELAY" default:"500ms"`
	NotifyStaggerDelay time.Duration `envconfig:"NOTIFY_STAGGER_DELAY" default:"1500ms"`

	// --- Shop ---
	ShopCatalogFile  string `envconfig:"SHOP_CATALOG_FILE" default:"catalog.yaml"`

	// --- HTTP API ---
	// Пустой HTTP_ADDR — API выключен.
	HTTPAddr   string `envconfig:"HTTP_ADDR" default:""`
	HTTPAPIKey string `envconfig:"HTTP_API_KEY" default:""`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureShopEnabled          bool `envconfig:"FEATURE_SHOP_ENABLED" default:"true"`
	FeatureNotificationsEnabled bool `envconfig:"FEATURE_NOTIFICATIONS_ENABLED" default:"true"`
	FeatureRemindersEnabled     bool `envconfig:"FEATURE_REMINDERS_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdminID проверяет, входит ли пользователь в ADMIN_IDS.
func (c *Config) IsAdminID(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.HabitStreakThreshold <= 0 {
		return fmt.Errorf("HABIT_STREAK_THRESHOLD должен быть > 0")
	}
	if c.HabitReminderHour < 0 || c.HabitReminderHour > 23 {
		return fmt.Errorf("HABIT_REMINDER_HOUR должен быть в диапазоне 0..23")
	}
	if c.HabitCompletionStars < 0 {
		return fmt.Errorf("HABIT_COMPLETION_STARS не может быть отрицательным")
	}
	if c.NotifyBaseDelay < 0 || c.NotifyStaggerDelay < 0 {
		return fmt.Errorf("NOTIFY_*_DELAY не может быть отрицательным")
	}
	if c.HTTPAddr != "" && c.HTTPAPIKey == "" {
		return fmt.Errorf("HTTP_API_KEY обязателен, если задан HTTP_ADDR")
	}
	return nil
}

// Load читает .env (если есть) и переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("не удалось прочитать .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
