// Package shop — service.go: покупка и использование наград, наполнение каталога
// и сборка экрана магазина из данных пользователя.
package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// Store — операции с каталогом и покупками.
type Store interface {
	ListActive(ctx context.Context) ([]*ShopReward, error)
	GetReward(ctx context.Context, id uuid.UUID) (*ShopReward, error)
	UpsertReward(ctx context.Context, e CatalogEntry) (*ShopReward, error)
	HideReward(ctx context.Context, id uuid.UUID) error
	ListPurchased(ctx context.Context, userID int64) ([]*PurchasedReward, error)
	GetPurchase(ctx context.Context, userID int64, id uuid.UUID) (*PurchasedReward, error)
	Purchase(ctx context.Context, userID int64, reward *ShopReward, now, monthStart time.Time) (*PurchasedReward, error)
	MarkUsed(ctx context.Context, userID int64, id uuid.UUID, now time.Time) error
}

// Balances читает баланс звёзд (economy.Service).
type Balances interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
}

// Freezer замораживает серии на сегодня (habits.Service).
type Freezer interface {
	Freeze(ctx context.Context, userID int64, now time.Time) error
}

// Service управляет магазином наград.
type Service struct {
	repo     Store
	balances Balances
	freezer  Freezer
	loc      *time.Location
}

// NewService создаёт сервис магазина. Календарный месяц и даты покупок
// считаются в часовом поясе loc.
func NewService(repo Store, balances Balances, freezer Freezer, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, balances: balances, freezer: freezer, loc: loc}
}

// SeedCatalog загружает YAML-каталог и обновляет позиции по имени.
func (s *Service) SeedCatalog(ctx context.Context, path string) (int, error) {
	entries, err := LoadCatalog(path)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if _, err := s.repo.UpsertReward(ctx, e); err != nil {
			return 0, err
		}
	}
	log.WithFields(log.Fields{"file": path, "rewards": len(entries)}).Info("Каталог магазина загружен")
	return len(entries), nil
}

// AddReward добавляет позицию в каталог (команда /addreward).
func (s *Service) AddReward(ctx context.Context, e CatalogEntry) (*ShopReward, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	reward, err := s.repo.UpsertReward(ctx, e)
	if err != nil {
		return nil, err
	}
	if !reward.RewardType.Known() {
		log.WithField("reward_type", reward.RewardType).Warn("Награда с неизвестным типом: будет показана как подарок")
	}
	log.WithFields(log.Fields{"reward_id": reward.ID, "name": reward.Name}).Info("Награда добавлена в каталог")
	return reward, nil
}

// HideReward убирает позицию из каталога.
func (s *Service) HideReward(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.HideReward(ctx, id); err != nil {
		return err
	}
	log.WithField("reward_id", id).Info("Награда скрыта")
	return nil
}

// ListRewards возвращает видимый каталог.
func (s *Service) ListRewards(ctx context.Context) ([]*ShopReward, error) {
	return s.repo.ListActive(ctx)
}

// ListPurchased возвращает все награды пользователя.
func (s *Service) ListPurchased(ctx context.Context, userID int64) ([]*PurchasedReward, error) {
	return s.repo.ListPurchased(ctx, userID)
}

// GetUnusedRewards возвращает неиспользованные награды пользователя.
func (s *Service) GetUnusedRewards(ctx context.Context, userID int64) ([]*PurchasedReward, error) {
	list, err := s.repo.ListPurchased(ctx, userID)
	if err != nil {
		return nil, err
	}
	return UnusedRewards(list), nil
}

// Purchase покупает награду за звёзды.
// Ошибки: common.ErrRewardNotFound, common.ErrInsufficientStars, common.ErrFreezeMonthlyLimit.
func (s *Service) Purchase(ctx context.Context, userID int64, rewardID uuid.UUID, now time.Time) (*PurchasedReward, error) {
	reward, err := s.repo.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	monthStart := common.StartOfMonth(now.In(s.loc))
	pr, err := s.repo.Purchase(ctx, userID, reward, now, monthStart)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"user_id":   userID,
		"reward_id": rewardID,
		"price":     reward.PriceStars,
	}).Info("Награда куплена")
	return pr, nil
}

// Use использует купленную награду и применяет её эффект.
// Ошибки: common.ErrPurchaseNotFound, common.ErrRewardAlreadyUsed.
func (s *Service) Use(ctx context.Context, userID int64, purchaseID uuid.UUID, now time.Time) (*PurchasedReward, error) {
	pr, err := s.repo.GetPurchase(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	if pr.IsUsed {
		return nil, common.ErrRewardAlreadyUsed
	}

	if err := s.apply(ctx, pr, now); err != nil {
		return nil, err
	}
	if err := s.repo.MarkUsed(ctx, userID, purchaseID, now); err != nil {
		return nil, err
	}

	usedAt := now.UTC()
	pr.IsUsed = true
	pr.UsedAt = &usedAt
	log.WithFields(log.Fields{
		"user_id":     userID,
		"purchase_id": purchaseID,
		"reward_type": pr.RewardType,
	}).Info("Награда использована")
	return pr, nil
}

// apply выполняет эффект награды. Только заморозка меняет состояние бота,
// остальные награды выдаются вручную и просто отмечаются.
func (s *Service) apply(ctx context.Context, pr *PurchasedReward, now time.Time) error {
	if pr.RewardType != RewardFreeze {
		return nil
	}
	if err := s.freezer.Freeze(ctx, pr.UserID, now); err != nil {
		return fmt.Errorf("ошибка применения заморозки: %w", err)
	}
	return nil
}

// Screen собирает данные пользователя и отрисовывает экран магазина.
func (s *Service) Screen(ctx context.Context, userID int64, tab Tab, tr i18n.Translator) (View, error) {
	stars, err := s.balances.GetBalance(ctx, userID)
	if err != nil {
		return View{}, err
	}
	rewards, err := s.repo.ListActive(ctx)
	if err != nil {
		return View{}, err
	}
	purchased, err := s.repo.ListPurchased(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return Render(ViewInput{
		Rewards:    rewards,
		Purchased:  purchased,
		Stars:      stars,
		Tab:        tab,
		Unused:     func() []*PurchasedReward { return UnusedRewards(purchased) },
		Translator: tr,
		Location:   s.loc,
	}), nil
}

// LoadingScreen — экран до загрузки данных: баланс и вкладки без содержимого каталога.
func (s *Service) LoadingScreen(tab Tab, tr i18n.Translator) View {
	return Render(ViewInput{Loading: true, Tab: tab, Translator: tr, Location: s.loc})
}

// FailureKey подбирает текст ответа для ошибки покупки или использования.
func FailureKey(err error, action ActionKind) i18n.Key {
	switch {
	case errors.Is(err, common.ErrInsufficientStars):
		return i18n.KeyNotEnoughStars
	case errors.Is(err, common.ErrFreezeMonthlyLimit):
		return i18n.KeyFreezeLimit
	case errors.Is(err, common.ErrRewardNotFound), errors.Is(err, common.ErrPurchaseNotFound):
		return i18n.KeyRewardNotFound
	case errors.Is(err, common.ErrRewardAlreadyUsed):
		return i18n.KeyRewardUsed
	case action == ActionUse:
		return i18n.KeyUseFailed
	default:
		return i18n.KeyPurchaseFailed
	}
}
