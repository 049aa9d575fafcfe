// Package admin реализует админ-команды с парольной аутентификацией:
// управление каталогом магазина и выдачу звёзд.
// models.go описывает структуры сессий и попыток входа.
package admin

import "time"

// AdminSession — активная сессия администратора.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// AdminState — состояние диалога с админом.
// Сейчас единственный шаг — ожидание пароля после /login без аргумента.
type AdminState struct {
	State     string
	ExpiresAt time.Time
}

// StateAwaitingPassword — ждём пароль следующим сообщением.
const StateAwaitingPassword = "awaiting_password"

// Ограничения входа
const (
	maxFailedAttempts = 3
	attemptsWindow    = time.Hour
	sessionTTL        = 24 * time.Hour
	stateTTL          = 5 * time.Minute
)
