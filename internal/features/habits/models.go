// Package habits хранит привычки пользователей, отметки выполнения и серии (streak).
// За каждое выполнение начисляются звёзды, которые тратятся в магазине наград.
package habits

import (
	"time"

	"github.com/google/uuid"
)

// AllDays — привычка по умолчанию выполняется каждый день (0 = воскресенье).
var AllDays = []int{0, 1, 2, 3, 4, 5, 6}

// Habit — одна привычка пользователя.
type Habit struct {
	ID             uuid.UUID `db:"id"`
	UserID         int64     `db:"user_id"`
	Name           string    `db:"name"`
	TargetDays     []int     `db:"target_days"` // Дни недели 0–6, 0 = воскресенье
	CompletedDates []string  `db:"-"`           // ISO-даты выполнения (2006-01-02)
	Streak         int       `db:"streak"`
	LongestStreak  int       `db:"longest_streak"`
	CreatedAt      time.Time `db:"created_at"`
}

// DueOn сообщает, запланирована ли привычка на день недели.
func (h *Habit) DueOn(day time.Weekday) bool {
	for _, d := range h.TargetDays {
		if d == int(day) {
			return true
		}
	}
	return false
}

// CompletedOn сообщает, отмечена ли привычка в ISO-дату date.
func (h *Habit) CompletedOn(date string) bool {
	for _, d := range h.CompletedDates {
		if d == date {
			return true
		}
	}
	return false
}

// PendingOn — привычка запланирована на день и ещё не выполнена.
func (h *Habit) PendingOn(day time.Time) bool {
	return h.DueOn(day.Weekday()) && !h.CompletedOn(day.Format("2006-01-02"))
}

// Completion — результат отметки выполнения.
type Completion struct {
	Habit *Habit
	Stars int64 // Сколько звёзд начислено
}

// CreateInput — данные новой привычки (проверяются validator).
type CreateInput struct {
	Name       string `validate:"required,max=64"`
	TargetDays []int  `validate:"required,min=1,max=7,unique,dive,min=0,max=6"`
}

// streakBonus — дополнительный бонус по длине серии до выполнения.
// Серии длиннее таблицы получают последний элемент.
var streakBonus = []int64{0, 0, 1, 1, 2, 2, 3}

// StreakBonus возвращает бонус за серию streak.
func StreakBonus(streak int) int64 {
	if streak < 0 {
		return 0
	}
	if streak >= len(streakBonus) {
		return streakBonus[len(streakBonus)-1]
	}
	return streakBonus[streak]
}
