// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневный сброс пропущенных серий
// и утреннее напоминание о привычках на сегодня.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/config"
	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/features/notify"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// Habits — операции habits.Service, нужные задачам.
type Habits interface {
	DailyReset(ctx context.Context, now time.Time) error
	PendingToday(ctx context.Context, now time.Time) ([]int64, error)
	List(ctx context.Context, userID int64) ([]*habits.Habit, error)
}

// Languages отдаёт переводчик пользователя (members.Service).
type Languages interface {
	Translator(ctx context.Context, userID int64) i18n.Translator
}

// Sessions — сессии уведомлений (notify.Manager), чистятся в полночь.
type Sessions interface {
	Prune() int
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	loc      *time.Location
	habits   Habits
	langs    Languages
	notifier notify.Notifier
	policy   notify.Policy
	sessions Sessions

	now          func() time.Time
	sendInterval time.Duration // пауза между рассылками (лимиты Telegram)
}

// NewScheduler создаёт планировщик задач в часовом поясе приложения.
// sessions может быть nil.
func NewScheduler(cfg *config.Config, loc *time.Location, h Habits, langs Languages, notifier notify.Notifier, policy notify.Policy, sessions Sessions) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		cfg:          cfg,
		loc:          loc,
		habits:       h,
		langs:        langs,
		notifier:     notifier,
		policy:       policy,
		sessions:     sessions,
		now:          time.Now,
		sendInterval: 50 * time.Millisecond,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	// Ежедневный сброс в 00:00
	if _, err := s.cron.AddFunc("0 0 * * *", func() {
		log.Info("[CRON] Ежедневный сброс серий")
		if err := s.RunMidnight(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка сброса")
		}
	}); err != nil {
		return fmt.Errorf("ошибка регистрации сброса: %w", err)
	}

	if s.cfg.FeatureRemindersEnabled {
		spec := fmt.Sprintf("0 %d * * *", s.cfg.HabitReminderHour)
		if _, err := s.cron.AddFunc(spec, func() {
			log.Debug("[CRON] Рассылка напоминаний")
			sent, err := s.RunReminders(ctx)
			if err != nil {
				log.WithError(err).Error("[CRON] Ошибка напоминаний")
				return
			}
			log.WithField("sent", sent).Info("[CRON] Напоминания разосланы")
		}); err != nil {
			return fmt.Errorf("ошибка регистрации напоминаний: %w", err)
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"timezone":      s.loc.String(),
		"reminder_hour": s.cfg.HabitReminderHour,
		"reminders":     s.cfg.FeatureRemindersEnabled,
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// RunDailyReset обнуляет серии, пропущенные вчера.
func (s *Scheduler) RunDailyReset(ctx context.Context) error {
	return s.habits.DailyReset(ctx, s.now().In(s.loc))
}

// RunMidnight выполняет полуночные задачи: сброс серий и удаление
// отработавших сессий уведомлений. Сессии чистятся и при ошибке сброса.
func (s *Scheduler) RunMidnight(ctx context.Context) error {
	err := s.RunDailyReset(ctx)
	if s.sessions != nil {
		s.sessions.Prune()
	}
	return err
}

// RunReminders отправляет напоминание каждому, у кого есть невыполненные
// привычки на сегодня. Возвращает число отправленных сообщений.
// Ошибка отправки одному пользователю не прерывает рассылку.
func (s *Scheduler) RunReminders(ctx context.Context) (int, error) {
	now := s.now().In(s.loc)
	users, err := s.habits.PendingToday(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		list, err := s.habits.List(ctx, userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Не удалось получить привычки")
			continue
		}
		n, ok := s.policy.Reminder(list, now, s.langs.Translator(ctx, userID))
		if !ok {
			continue
		}
		if err := s.notifier.Notify(ctx, userID, n); err != nil {
			// Пользователь мог заблокировать бота
			log.WithError(err).WithField("user_id", userID).Debug("Напоминание не доставлено")
			continue
		}
		sent++

		if s.sendInterval > 0 {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			case <-time.After(s.sendInterval):
			}
		}
	}
	return sent, nil
}
