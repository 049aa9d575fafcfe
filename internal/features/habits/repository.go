// Package habits — repository.go работает с таблицами habits, habit_completions и habit_freezes.
package habits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/habits-bot/internal/common"
)

// completionWindowDays — за сколько дней подтягиваем отметки вместе с привычкой.
const completionWindowDays = 60

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const habitSelect = `
	SELECT h.id, h.user_id, h.name, h.target_days, h.streak, h.longest_streak, h.created_at,
	       COALESCE(
	           array_agg(to_char(c.completed_on, 'YYYY-MM-DD') ORDER BY c.completed_on)
	               FILTER (WHERE c.completed_on IS NOT NULL),
	           '{}'
	       )
	FROM habits h
	LEFT JOIN habit_completions c
	       ON c.habit_id = h.id AND c.completed_on >= CURRENT_DATE - $2::int
`

// List возвращает привычки пользователя в порядке создания.
func (r *Repository) List(ctx context.Context, userID int64) ([]*Habit, error) {
	query := habitSelect + `
		WHERE h.user_id = $1
		GROUP BY h.id
		ORDER BY h.created_at, h.id
	`
	rows, err := r.db.Query(ctx, query, userID, completionWindowDays)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения привычек: %w", err)
	}
	defer rows.Close()

	var habits []*Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// Count возвращает количество привычек пользователя.
func (r *Repository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM habits WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта привычек: %w", err)
	}
	return n, nil
}

// Create сохраняет новую привычку.
func (r *Repository) Create(ctx context.Context, h *Habit) error {
	query := `
		INSERT INTO habits (id, user_id, name, target_days, streak, longest_streak, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, $5)
	`
	if _, err := r.db.Exec(ctx, query, h.ID, h.UserID, h.Name, h.TargetDays, h.CreatedAt); err != nil {
		return fmt.Errorf("ошибка создания привычки: %w", err)
	}
	return nil
}

// Delete удаляет привычку пользователя и возвращает её название.
func (r *Repository) Delete(ctx context.Context, userID int64, habitID uuid.UUID) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `
		DELETE FROM habits WHERE id = $1 AND user_id = $2 RETURNING name
	`, habitID, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("привычка %s: %w", habitID, common.ErrHabitNotFound)
		}
		return "", fmt.Errorf("ошибка удаления привычки: %w", err)
	}
	return name, nil
}

// MarkCompleted отмечает выполнение за день day и увеличивает серию.
// Возвращает привычку до увеличения серии (чтобы посчитать бонус) и после.
// Повторная отметка в тот же день — common.ErrAlreadyCompleted.
func (r *Repository) MarkCompleted(ctx context.Context, userID int64, habitID uuid.UUID, day time.Time) (before, after *Habit, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var h Habit
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, name, target_days, streak, longest_streak, created_at
		FROM habits WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, habitID, userID).Scan(&h.ID, &h.UserID, &h.Name, &h.TargetDays, &h.Streak, &h.LongestStreak, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("привычка %s: %w", habitID, common.ErrHabitNotFound)
		}
		return nil, nil, fmt.Errorf("ошибка получения привычки: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO habit_completions (habit_id, completed_on)
		VALUES ($1, $2::date)
		ON CONFLICT DO NOTHING
	`, habitID, common.ISODate(day))
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка отметки выполнения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &h, &h, common.ErrAlreadyCompleted
	}

	next := h
	next.Streak = h.Streak + 1
	if next.Streak > next.LongestStreak {
		next.LongestStreak = next.Streak
	}
	_, err = tx.Exec(ctx, `
		UPDATE habits SET streak = $2, longest_streak = $3, updated_at = NOW() WHERE id = $1
	`, habitID, next.Streak, next.LongestStreak)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка обновления серии: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return &h, &next, nil
}

// Freeze записывает день заморозки: пропуск в этот день не ломает серии.
func (r *Repository) Freeze(ctx context.Context, userID int64, day time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO habit_freezes (user_id, frozen_on) VALUES ($1, $2::date)
		ON CONFLICT DO NOTHING
	`, userID, common.ISODate(day))
	if err != nil {
		return fmt.Errorf("ошибка заморозки: %w", err)
	}
	return nil
}

// BreakMissed обнуляет серии привычек, запланированных на day и не выполненных,
// если у владельца нет заморозки на этот день. Возвращает число сломанных серий.
func (r *Repository) BreakMissed(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE habits h
		SET streak = 0, updated_at = NOW()
		WHERE h.streak > 0
		  AND $2::int = ANY(h.target_days)
		  AND NOT EXISTS (
		      SELECT 1 FROM habit_completions c
		      WHERE c.habit_id = h.id AND c.completed_on = $1::date)
		  AND NOT EXISTS (
		      SELECT 1 FROM habit_freezes f
		      WHERE f.user_id = h.user_id AND f.frozen_on = $1::date)
	`, common.ISODate(day), int(day.Weekday()))
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса серий: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PendingUsers возвращает пользователей, у которых есть невыполненные привычки на day.
func (r *Repository) PendingUsers(ctx context.Context, day time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT h.user_id
		FROM habits h
		JOIN members m ON m.user_id = h.user_id AND NOT m.is_banned
		WHERE $2::int = ANY(h.target_days)
		  AND NOT EXISTS (
		      SELECT 1 FROM habit_completions c
		      WHERE c.habit_id = h.id AND c.completed_on = $1::date)
		ORDER BY h.user_id
	`, common.ISODate(day), int(day.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска невыполненных привычек: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func scanHabit(row pgx.Row) (*Habit, error) {
	var h Habit
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.TargetDays, &h.Streak, &h.LongestStreak, &h.CreatedAt, &h.CompletedDates)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения привычки: %w", err)
	}
	return &h, nil
}
