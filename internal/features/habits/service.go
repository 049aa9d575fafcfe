// Package habits — service.go содержит бизнес-логику привычек:
// создание, выполнение с начислением звёзд, заморозки и ежедневный сброс серий.
package habits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/config"
	"serotonyl.ru/habits-bot/internal/features/economy"
)

// Store — операции с хранилищем привычек.
type Store interface {
	List(ctx context.Context, userID int64) ([]*Habit, error)
	Count(ctx context.Context, userID int64) (int, error)
	Create(ctx context.Context, h *Habit) error
	Delete(ctx context.Context, userID int64, habitID uuid.UUID) (string, error)
	MarkCompleted(ctx context.Context, userID int64, habitID uuid.UUID, day time.Time) (before, after *Habit, err error)
	Freeze(ctx context.Context, userID int64, day time.Time) error
	BreakMissed(ctx context.Context, day time.Time) (int64, error)
	PendingUsers(ctx context.Context, day time.Time) ([]int64, error)
}

// Wallet начисляет звёзды (реализуется economy.Service).
type Wallet interface {
	AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error
}

// Service управляет привычками.
type Service struct {
	repo     Store
	wallet   Wallet
	cfg      *config.Config
	loc      *time.Location
	validate *validator.Validate
}

// NewService создаёт новый сервис привычек. «Сегодня» считается в часовом поясе loc.
func NewService(repo Store, wallet Wallet, cfg *config.Config, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		wallet:   wallet,
		cfg:      cfg,
		loc:      loc,
		validate: validator.New(),
	}
}

// Today возвращает полночь текущего дня в часовом поясе сервиса.
func (s *Service) Today(now time.Time) time.Time {
	return common.StartOfDay(now.In(s.loc))
}

// List возвращает привычки пользователя.
func (s *Service) List(ctx context.Context, userID int64) ([]*Habit, error) {
	return s.repo.List(ctx, userID)
}

// Create добавляет привычку. Пустой days — каждый день.
func (s *Service) Create(ctx context.Context, userID int64, name string, days []int, now time.Time) (*Habit, error) {
	name = strings.TrimSpace(name)
	if len(days) == 0 {
		days = AllDays
	}
	days = append([]int(nil), days...)
	sort.Ints(days)

	if err := s.validate.Struct(CreateInput{Name: name, TargetDays: days}); err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrInvalidHabit)
	}

	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cfg.HabitMaxPerUser > 0 && count >= s.cfg.HabitMaxPerUser {
		return nil, fmt.Errorf("лимит %d: %w", s.cfg.HabitMaxPerUser, common.ErrHabitLimit)
	}

	h := &Habit{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       name,
		TargetDays: days,
		CreatedAt:  now.UTC(),
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"habit_id": h.ID,
		"days":     days,
	}).Info("Привычка создана")
	return h, nil
}

// Delete удаляет привычку и возвращает её название.
func (s *Service) Delete(ctx context.Context, userID int64, habitID uuid.UUID) (string, error) {
	name, err := s.repo.Delete(ctx, userID, habitID)
	if err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"user_id": userID, "habit_id": habitID}).Info("Привычка удалена")
	return name, nil
}

// Complete отмечает выполнение сегодня и начисляет звёзды:
// HABIT_COMPLETION_STARS плюс бонус за серию до выполнения.
// Повторная отметка за день — common.ErrAlreadyCompleted, звёзды не начисляются.
func (s *Service) Complete(ctx context.Context, userID int64, habitID uuid.UUID, now time.Time) (*Completion, error) {
	today := s.Today(now)
	before, after, err := s.repo.MarkCompleted(ctx, userID, habitID, today)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyCompleted) {
			return &Completion{Habit: after}, err
		}
		return nil, err
	}

	stars := s.cfg.HabitCompletionStars + StreakBonus(before.Streak)
	if stars > 0 {
		description := fmt.Sprintf("Habit %q - Day %d", after.Name, after.Streak)
		if err := s.wallet.AddBalance(ctx, userID, stars, economy.TxTypeHabitBonus, description); err != nil {
			// Отметка уже сохранена, поэтому звёзды просто не начисляются.
			log.WithError(err).WithField("user_id", userID).Error("Ошибка начисления звёзд за привычку")
			stars = 0
		}
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"habit_id": habitID,
		"streak":   after.Streak,
		"stars":    stars,
	}).Debug("Привычка выполнена")
	return &Completion{Habit: after, Stars: stars}, nil
}

// Freeze защищает серии пользователя от сброса за день now.
func (s *Service) Freeze(ctx context.Context, userID int64, now time.Time) error {
	if err := s.repo.Freeze(ctx, userID, s.Today(now)); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Серии заморожены на сегодня")
	return nil
}

// DailyReset ломает серии привычек, пропущенных вчера.
// Запускается кроном в 00:00 по часовому поясу приложения.
func (s *Service) DailyReset(ctx context.Context, now time.Time) error {
	yesterday := s.Today(now).AddDate(0, 0, -1)
	broken, err := s.repo.BreakMissed(ctx, yesterday)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"day":    common.ISODate(yesterday),
		"broken": broken,
	}).Info("Ежедневный сброс серий завершён")
	return nil
}

// PendingToday возвращает пользователей с невыполненными привычками на сегодня.
func (s *Service) PendingToday(ctx context.Context, now time.Time) ([]int64, error) {
	return s.repo.PendingUsers(ctx, s.Today(now))
}

// ParseDays разбирает список дней "1,3,5" (0 = воскресенье).
func ParseDays(raw string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(part) != 1 || part[0] < '0' || part[0] > '6' {
			return nil, fmt.Errorf("день %q: %w", part, common.ErrInvalidHabit)
		}
		days = append(days, int(part[0]-'0'))
	}
	return days, nil
}
