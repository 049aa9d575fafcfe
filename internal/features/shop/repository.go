// Package shop — repository.go работает с таблицами shop_rewards и purchased_rewards.
// Покупка списывает звёзды и создаёт запись в одной транзакции БД.
package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/features/economy"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const rewardColumns = `id, name, description, reward_type, price_stars, is_active, created_at`

// ListActive возвращает видимые позиции каталога, от дешёвых к дорогим.
func (r *Repository) ListActive(ctx context.Context) ([]*ShopReward, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+rewardColumns+`
		FROM shop_rewards
		WHERE is_active
		ORDER BY price_stars, name
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога: %w", err)
	}
	defer rows.Close()

	var rewards []*ShopReward
	for rows.Next() {
		var rw ShopReward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.Description, &rw.RewardType, &rw.PriceStars, &rw.IsActive, &rw.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения награды: %w", err)
		}
		rewards = append(rewards, &rw)
	}
	return rewards, rows.Err()
}

// GetReward возвращает активную позицию каталога.
func (r *Repository) GetReward(ctx context.Context, id uuid.UUID) (*ShopReward, error) {
	var rw ShopReward
	err := r.db.QueryRow(ctx, `
		SELECT `+rewardColumns+` FROM shop_rewards WHERE id = $1 AND is_active
	`, id).Scan(&rw.ID, &rw.Name, &rw.Description, &rw.RewardType, &rw.PriceStars, &rw.IsActive, &rw.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("награда %s: %w", id, common.ErrRewardNotFound)
		}
		return nil, fmt.Errorf("ошибка получения награды: %w", err)
	}
	return &rw, nil
}

// UpsertReward создаёт позицию или обновляет существующую с тем же именем
// (и снова делает её видимой).
func (r *Repository) UpsertReward(ctx context.Context, e CatalogEntry) (*ShopReward, error) {
	var rw ShopReward
	err := r.db.QueryRow(ctx, `
		INSERT INTO shop_rewards (id, name, description, reward_type, price_stars, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    reward_type = EXCLUDED.reward_type,
		    price_stars = EXCLUDED.price_stars,
		    is_active = TRUE
		RETURNING `+rewardColumns,
		uuid.New(), e.Name, e.Description, string(e.RewardType), e.PriceStars,
	).Scan(&rw.ID, &rw.Name, &rw.Description, &rw.RewardType, &rw.PriceStars, &rw.IsActive, &rw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения награды: %w", err)
	}
	return &rw, nil
}

// HideReward скрывает позицию каталога. Купленные награды остаются у владельцев.
func (r *Repository) HideReward(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE shop_rewards SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка скрытия награды: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("награда %s: %w", id, common.ErrRewardNotFound)
	}
	return nil
}

const purchasedSelect = `
	SELECT p.id, p.user_id, p.reward_id, p.reward_type, p.price_stars, p.is_used, p.used_at, p.created_at,
	       r.id, r.name, r.description, r.reward_type, r.price_stars, r.is_active, r.created_at
	FROM purchased_rewards p
	LEFT JOIN shop_rewards r ON r.id = p.reward_id
`

// ListPurchased возвращает награды пользователя, новые сверху.
func (r *Repository) ListPurchased(ctx context.Context, userID int64) ([]*PurchasedReward, error) {
	rows, err := r.db.Query(ctx, purchasedSelect+`
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения наград: %w", err)
	}
	defer rows.Close()

	var list []*PurchasedReward
	for rows.Next() {
		pr, err := scanPurchased(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, pr)
	}
	return list, rows.Err()
}

// GetPurchase возвращает купленную награду пользователя.
func (r *Repository) GetPurchase(ctx context.Context, userID int64, id uuid.UUID) (*PurchasedReward, error) {
	pr, err := scanPurchased(r.db.QueryRow(ctx, purchasedSelect+`
		WHERE p.id = $1 AND p.user_id = $2
	`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("покупка %s: %w", id, common.ErrPurchaseNotFound)
		}
		return nil, err
	}
	return pr, nil
}

// Purchase списывает звёзды и создаёт покупку атомарно.
// Для заморозки проверяется лимит: одна покупка начиная с monthStart.
func (r *Repository) Purchase(ctx context.Context, userID int64, reward *ShopReward, now, monthStart time.Time) (*PurchasedReward, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Покупки одного пользователя идут строго по очереди
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return nil, fmt.Errorf("ошибка блокировки: %w", err)
	}

	if reward.RewardType == RewardFreeze {
		var count int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM purchased_rewards
			WHERE user_id = $1 AND reward_type = $2 AND created_at >= $3
		`, userID, string(RewardFreeze), monthStart).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("ошибка проверки лимита: %w", err)
		}
		if count > 0 {
			return nil, common.ErrFreezeMonthlyLimit
		}
	}

	description := fmt.Sprintf("Shop: %s", reward.Name)
	if err := economy.DeductInTx(ctx, tx, userID, reward.PriceStars, economy.TxTypeShopPurchase, description); err != nil {
		return nil, err
	}

	rewardID := reward.ID
	pr := &PurchasedReward{
		ID:         uuid.New(),
		UserID:     userID,
		RewardID:   &rewardID,
		RewardType: reward.RewardType,
		PriceStars: reward.PriceStars,
		CreatedAt:  now.UTC(),
		Reward:     reward,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO purchased_rewards (id, user_id, reward_id, reward_type, price_stars, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
	`, pr.ID, userID, rewardID, string(pr.RewardType), pr.PriceStars, pr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи покупки: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return pr, nil
}

// MarkUsed помечает награду использованной. Уже использованная — common.ErrRewardAlreadyUsed.
func (r *Repository) MarkUsed(ctx context.Context, userID int64, id uuid.UUID, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchased_rewards SET is_used = TRUE, used_at = $3
		WHERE id = $1 AND user_id = $2 AND NOT is_used
	`, id, userID, now.UTC())
	if err != nil {
		return fmt.Errorf("ошибка использования награды: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrRewardAlreadyUsed
	}
	return nil
}

func scanPurchased(row pgx.Row) (*PurchasedReward, error) {
	var (
		pr         PurchasedReward
		rID        *uuid.UUID
		rName      *string
		rDesc      *string
		rType      *string
		rPrice     *int64
		rActive    *bool
		rCreatedAt *time.Time
	)
	err := row.Scan(
		&pr.ID, &pr.UserID, &pr.RewardID, &pr.RewardType, &pr.PriceStars, &pr.IsUsed, &pr.UsedAt, &pr.CreatedAt,
		&rID, &rName, &rDesc, &rType, &rPrice, &rActive, &rCreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка чтения покупки: %w", err)
	}
	if rID != nil {
		pr.Reward = &ShopReward{
			ID:          *rID,
			Name:        *rName,
			Description: *rDesc,
			RewardType:  RewardType(*rType),
			PriceStars:  *rPrice,
			IsActive:    *rActive,
			CreatedAt:   *rCreatedAt,
		}
	}
	return &pr, nil
}
