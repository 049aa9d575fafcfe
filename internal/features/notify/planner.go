// Package notify показывает пользователю напоминание о привычках на сегодня
// и поздравление с длинной серией: не больше двух сообщений за сессию,
// с задержкой после начала сессии.
package notify

import (
	"fmt"
	"time"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// Kind — вид уведомления.
type Kind string

const (
	KindReminder Kind = "reminder"
	KindStreak   Kind = "streak"
)

// Notification — запланированное уведомление.
type Notification struct {
	Kind        Kind          `json:"kind"`
	Delay       time.Duration `json:"-"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Value       int           `json:"value"` // Число привычек или длина серии
}

// Text — текст сообщения в Telegram.
func (n Notification) Text() string {
	return n.Title + "\n" + n.Description
}

// Policy — правила планирования.
type Policy struct {
	BaseDelay       time.Duration // Задержка первого уведомления
	StaggerDelay    time.Duration // Пауза между первым и вторым
	StreakThreshold int           // С какой серии поздравляем
}

// DefaultPolicy: 500 мс, затем ещё 1500 мс, серия от 7 дней.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:       500 * time.Millisecond,
		StaggerDelay:    1500 * time.Millisecond,
		StreakThreshold: 7,
	}
}

// Reminder строит напоминание о привычках, запланированных на день now
// и ещё не выполненных. now должен быть в часовом поясе пользователя.
func (p Policy) Reminder(list []*habits.Habit, now time.Time, tr i18n.Translator) (Notification, bool) {
	today := common.ISODate(now)
	pending := 0
	for _, h := range list {
		if h.DueOn(now.Weekday()) && !h.CompletedOn(today) {
			pending++
		}
	}
	if pending == 0 {
		return Notification{}, false
	}
	return Notification{
		Kind:        KindReminder,
		Title:       "🎯 " + tr.T(i18n.KeyHabitsReminder),
		Description: fmt.Sprintf("%d %s", pending, tr.T(i18n.KeyHabitsToComplete)),
		Value:       pending,
	}, true
}

// Celebration строит поздравление с самой длинной серией от StreakThreshold.
// Серия берётся в момент планирования, а не показа: за StaggerDelay она не меняется.
func (p Policy) Celebration(list []*habits.Habit, tr i18n.Translator) (Notification, bool) {
	longest := -1
	for _, h := range list {
		if h.Streak >= p.StreakThreshold && h.Streak > longest {
			longest = h.Streak
		}
	}
	if longest < 0 {
		return Notification{}, false
	}
	return Notification{
		Kind:        KindStreak,
		Title:       "🔥 " + tr.T(i18n.KeyStreakCelebration),
		Description: fmt.Sprintf("%s: %d %s", tr.T(i18n.KeyLongestStreak), longest, tr.T(i18n.KeyDays)),
		Value:       longest,
	}, true
}

// Plan возвращает уведомления с задержками от начала сессии:
// напоминание через BaseDelay, поздравление через BaseDelay+StaggerDelay
// (или через BaseDelay, если напоминания нет).
func (p Policy) Plan(list []*habits.Habit, now time.Time, tr i18n.Translator) []Notification {
	var plan []Notification
	delay := p.BaseDelay

	if n, ok := p.Reminder(list, now, tr); ok {
		n.Delay = delay
		plan = append(plan, n)
		delay += p.StaggerDelay
	}
	if n, ok := p.Celebration(list, tr); ok {
		n.Delay = delay
		plan = append(plan, n)
	}
	return plan
}
