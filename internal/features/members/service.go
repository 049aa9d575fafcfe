// Package members — service.go содержит бизнес-логику управления участниками.
// Сервис координирует регистрацию, проверку доступа и выбор языка.
package members

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// Store — операции с хранилищем участников, нужные сервису.
type Store interface {
	Create(ctx context.Context, m *Member) error
	GetByUserID(ctx context.Context, userID int64) (*Member, error)
	GetByUsername(ctx context.Context, username string) (*Member, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error
	SetLanguage(ctx context.Context, userID int64, language string) error
}

// Service управляет участниками.
type Service struct {
	repo            Store
	defaultLanguage i18n.Lang
	adminIDs        map[int64]bool
}

// NewService создаёт новый сервис участников.
// Пользователи из adminIDs получают флаг is_admin при регистрации.
func NewService(repo Store, defaultLanguage string, adminIDs []int64) *Service {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Service{
		repo:            repo,
		defaultLanguage: i18n.Parse(defaultLanguage),
		adminIDs:        admins,
	}
}

// Register создаёт участника или обновляет его имя/username.
func (s *Service) Register(ctx context.Context, userID int64, username, firstName, lastName, languageCode string) error {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrUserNotFound) {
		return err
	}
	if existing != nil {
		return s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		})
	}

	// Язык Telegram-клиента берём, только если он есть в таблицах
	lang := s.defaultLanguage
	if i18n.Supported(languageCode) {
		lang = i18n.Parse(languageCode)
	}

	member := &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Language:  string(lang),
		IsAdmin:   s.adminIDs[userID],
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("ошибка регистрации участника: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
		"language": lang,
	}).Info("Новый участник зарегистрирован")
	return nil
}

// EnsureMember гарантирует, что пользователь есть в базе.
// Если нет — создаёт запись. Вызывается на каждое входящее сообщение.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName, languageCode string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.Register(ctx, userID, username, firstName, lastName, languageCode)
}

// GetByUserID возвращает участника по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает участника по @username (с @ или без).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Member, error) {
	if len(username) > 0 && username[0] == '@' {
		username = username[1:]
	}
	return s.repo.GetByUsername(ctx, username)
}

// Language возвращает язык пользователя. Ошибки чтения не мешают ответу —
// в этом случае используется язык по умолчанию.
func (s *Service) Language(ctx context.Context, userID int64) i18n.Lang {
	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrUserNotFound) {
			log.WithError(err).WithField("user_id", userID).Warn("Не удалось прочитать язык участника")
		}
		return s.defaultLanguage
	}
	if !i18n.Supported(m.Language) {
		return s.defaultLanguage
	}
	return i18n.Parse(m.Language)
}

// Translator возвращает переводчик на языке пользователя.
func (s *Service) Translator(ctx context.Context, userID int64) i18n.Translator {
	return i18n.New(string(s.Language(ctx, userID)))
}

// SetLanguage меняет язык пользователя. Неподдерживаемые теги отклоняются.
func (s *Service) SetLanguage(ctx context.Context, userID int64, tag string) (i18n.Lang, error) {
	if !i18n.Supported(tag) {
		return "", fmt.Errorf("язык %q не поддерживается", tag)
	}
	lang := i18n.Parse(tag)
	if err := s.repo.SetLanguage(ctx, userID, string(lang)); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"user_id": userID, "language": lang}).Info("Язык изменён")
	return lang, nil
}

// IsBanned проверяет флаг бана. Неизвестный пользователь не забанен.
func (s *Service) IsBanned(ctx context.Context, userID int64) (bool, error) {
	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.IsBanned, nil
}
