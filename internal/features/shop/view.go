package shop

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// Tab — вкладка экрана магазина.
type Tab string

const (
	TabShop      Tab = "shop"
	TabInventory Tab = "inventory"
)

// ParseTab возвращает вкладку по строке; всё неизвестное — каталог.
func ParseTab(s string) Tab {
	if Tab(s) == TabInventory {
		return TabInventory
	}
	return TabShop
}

// PlaceholderRows — сколько строк-заглушек показывает каталог во время загрузки.
const PlaceholderRows = 3

// ActionKind — что делает кнопка.
type ActionKind string

const (
	ActionBuy ActionKind = "buy"
	ActionUse ActionKind = "use"
)

// Action — кнопка в строке. Результат вызова экран не обрабатывает:
// о нём сообщает тот, кто выполнил действие.
type Action struct {
	Kind     ActionKind `json:"kind"`
	TargetID uuid.UUID  `json:"target_id"`
	Label    string     `json:"label"`
	Enabled  bool       `json:"enabled"`
}

// ViewInput — всё, из чего строится экран.
type ViewInput struct {
	Rewards   []*ShopReward
	Purchased []*PurchasedReward
	Loading   bool
	Stars     int64
	Tab       Tab
	// Unused возвращает неиспользованные награды. Вызывается ровно один раз за Render.
	// Если nil — считается по Purchased.
	Unused     func() []*PurchasedReward
	Translator i18n.Translator
	Location   *time.Location
}

// View — отрисованный экран магазина.
type View struct {
	Language  i18n.Lang     `json:"language"`
	Balance   BalanceCard   `json:"balance"`
	Tabs      []TabHeader   `json:"tabs"`
	Active    Tab           `json:"active"`
	Catalog   CatalogView   `json:"catalog"`
	Inventory InventoryView `json:"inventory"`
}

// BalanceCard — карточка с балансом. Badge пуст, когда доступных наград нет.
type BalanceCard struct {
	Stars  int64  `json:"stars"`
	Label  string `json:"label"`
	Unused int    `json:"unused"`
	Badge  string `json:"badge,omitempty"`
}

// TabHeader — заголовок вкладки. Badge > 0 только у инвентаря.
type TabHeader struct {
	ID     Tab    `json:"id"`
	Label  string `json:"label"`
	Badge  int    `json:"badge,omitempty"`
	Active bool   `json:"active"`
}

// CatalogView — вкладка каталога. Заполнено ровно одно из:
// Placeholders (загрузка), Items или Empty.
type CatalogView struct {
	Placeholders int           `json:"placeholders,omitempty"`
	Items        []CatalogItem `json:"items,omitempty"`
	Empty        *EmptyState   `json:"empty,omitempty"`
}

// CatalogItem — строка каталога.
type CatalogItem struct {
	RewardID    uuid.UUID `json:"reward_id"`
	Icon        Icon      `json:"icon"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Qualifier   string    `json:"qualifier,omitempty"`
	Price       int64     `json:"price_stars"`
	Affordable  bool      `json:"affordable"`
	Action      Action    `json:"action"`
}

// InventoryView — вкладка «Мои награды».
type InventoryView struct {
	Items []InventoryItem `json:"items,omitempty"`
	Empty *EmptyState     `json:"empty,omitempty"`
}

// InventoryItem — купленная награда. Icon и Name пусты,
// если позиция каталога удалена.
type InventoryItem struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	Icon       Icon      `json:"icon,omitempty"`
	Name       string    `json:"name,omitempty"`
	Used       bool      `json:"used"`
	Status     string    `json:"status"`
	Date       string    `json:"date"`
	Action     *Action   `json:"action,omitempty"`
}

// EmptyState — сообщение вместо пустого списка.
type EmptyState struct {
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Render строит экран магазина. Функция чистая: кроме in.Unused
// ничего не вызывает, доступность пересчитывается при каждом вызове.
func Render(in ViewInput) View {
	tr := in.Translator
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	var unused []*PurchasedReward
	if in.Unused != nil {
		unused = in.Unused()
	} else {
		unused = UnusedRewards(in.Purchased)
	}
	unusedCount := len(unused)

	active := in.Tab
	if active != TabInventory {
		active = TabShop
	}

	v := View{
		Language: tr.Lang(),
		Balance: BalanceCard{
			Stars:  in.Stars,
			Label:  tr.T(i18n.KeyYourStars),
			Unused: unusedCount,
		},
		Active: active,
		Tabs: []TabHeader{
			{ID: TabShop, Label: tr.T(i18n.KeyTabShop), Active: active == TabShop},
			{ID: TabInventory, Label: tr.T(i18n.KeyTabInventory), Badge: unusedCount, Active: active == TabInventory},
		},
		Catalog:   renderCatalog(in.Rewards, in.Loading, in.Stars, tr),
		Inventory: renderInventory(in.Purchased, tr, loc),
	}
	if unusedCount > 0 {
		v.Balance.Badge = fmt.Sprintf("%d %s", unusedCount, tr.T(i18n.KeyAvailableCount))
	}
	return v
}

func renderCatalog(rewards []*ShopReward, loading bool, stars int64, tr i18n.Translator) CatalogView {
	if loading {
		return CatalogView{Placeholders: PlaceholderRows}
	}
	if len(rewards) == 0 {
		return CatalogView{Empty: &EmptyState{Message: tr.T(i18n.KeyShopEmpty)}}
	}

	items := make([]CatalogItem, 0, len(rewards))
	for _, r := range rewards {
		canBuy := r.Affordable(stars)
		item := CatalogItem{
			RewardID:    r.ID,
			Icon:        r.RewardType.Icon(),
			Name:        r.Name,
			Description: r.Description,
			Price:       r.PriceStars,
			Affordable:  canBuy,
			Action: Action{
				Kind:     ActionBuy,
				TargetID: r.ID,
				Label:    tr.T(i18n.KeyBuy),
				Enabled:  canBuy,
			},
		}
		if key, ok := r.RewardType.QualifierKey(); ok {
			item.Qualifier = tr.T(key)
		}
		items = append(items, item)
	}
	return CatalogView{Items: items}
}

func renderInventory(purchased []*PurchasedReward, tr i18n.Translator, loc *time.Location) InventoryView {
	if len(purchased) == 0 {
		return InventoryView{Empty: &EmptyState{
			Message: tr.T(i18n.KeyNoRewards),
			Hint:    tr.T(i18n.KeyEarnStarsHint),
		}}
	}

	items := make([]InventoryItem, 0, len(purchased))
	for _, pr := range purchased {
		item := InventoryItem{
			PurchaseID: pr.ID,
			Used:       pr.IsUsed,
			Date:       common.FormatShortDate(pr.CreatedAt.In(loc), string(tr.Lang())),
		}
		if pr.Reward != nil {
			item.Icon = pr.Reward.RewardType.Icon()
			item.Name = pr.Reward.Name
		}
		if pr.IsUsed {
			item.Status = tr.T(i18n.KeyStatusUsed)
		} else {
			item.Status = tr.T(i18n.KeyStatusAvailable)
			item.Action = &Action{
				Kind:     ActionUse,
				TargetID: pr.ID,
				Label:    tr.T(i18n.KeyUse),
				Enabled:  true,
			}
		}
		items = append(items, item)
	}
	return InventoryView{Items: items}
}
