// Package shop — магазин наград: каталог, покупки за звёзды, инвентарь
// и отрисовка экрана магазина для Telegram и HTTP API.
package shop

import (
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/habits-bot/internal/i18n"
)

// RewardType — тип награды. Неизвестные типы из каталога допустимы
// и отображаются как обычный подарок.
type RewardType string

const (
	RewardFreeze      RewardType = "freeze"       // Заморозка серий на день
	RewardProDiscount RewardType = "pro_discount" // Скидка на подписку
	RewardTheme       RewardType = "theme"        // Тема оформления
)

// Icon — идентификатор иконки награды.
type Icon string

const (
	IconSnowflake Icon = "snowflake"
	IconPercent   Icon = "percent"
	IconPalette   Icon = "palette"
	IconGift      Icon = "gift"
)

var rewardIcons = map[RewardType]Icon{
	RewardFreeze:      IconSnowflake,
	RewardProDiscount: IconPercent,
	RewardTheme:       IconPalette,
}

var iconEmoji = map[Icon]string{
	IconSnowflake: "❄️",
	IconPercent:   "🏷",
	IconPalette:   "🎨",
	IconGift:      "🎁",
}

// Icon возвращает иконку для типа; всё неизвестное — подарок.
func (t RewardType) Icon() Icon {
	if icon, ok := rewardIcons[t]; ok {
		return icon
	}
	return IconGift
}

// Known сообщает, известен ли тип боту.
func (t RewardType) Known() bool {
	_, ok := rewardIcons[t]
	return ok
}

// QualifierKey — ключ подписи-уточнения под наградой (если она есть).
func (t RewardType) QualifierKey() (i18n.Key, bool) {
	switch t {
	case RewardFreeze:
		return i18n.KeyOncePerMonth, true
	case RewardTheme:
		return i18n.KeyCustomTheme, true
	default:
		return "", false
	}
}

// Emoji возвращает эмодзи для Telegram. Пустая иконка — пустая строка.
func (i Icon) Emoji() string {
	return iconEmoji[i]
}

// ShopReward — позиция каталога.
type ShopReward struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	RewardType  RewardType `json:"reward_type"`
	PriceStars  int64      `json:"price_stars"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Affordable: награду можно купить при балансе stars.
func (r *ShopReward) Affordable(stars int64) bool {
	return stars >= r.PriceStars
}

// PurchasedReward — купленная награда пользователя.
// Reward равен nil, если позицию удалили из каталога.
type PurchasedReward struct {
	ID         uuid.UUID   `json:"id"`
	UserID     int64       `json:"user_id"`
	RewardID   *uuid.UUID  `json:"reward_id,omitempty"`
	RewardType RewardType  `json:"reward_type"`
	PriceStars int64       `json:"price_stars"`
	IsUsed     bool        `json:"is_used"`
	UsedAt     *time.Time  `json:"used_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	Reward     *ShopReward `json:"reward,omitempty"`
}

// UnusedRewards отбирает неиспользованные награды, сохраняя порядок.
func UnusedRewards(purchased []*PurchasedReward) []*PurchasedReward {
	var out []*PurchasedReward
	for _, pr := range purchased {
		if !pr.IsUsed {
			out = append(out, pr)
		}
	}
	return out
}
