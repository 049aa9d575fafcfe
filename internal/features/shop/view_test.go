package shop

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/habits-bot/internal/i18n"
)

func reward(name string, typ RewardType, price int64) *ShopReward {
	return &ShopReward{ID: uuid.New(), Name: name, Description: name + " desc", RewardType: typ, PriceStars: price, IsActive: true}
}

func purchase(r *ShopReward, used bool, created time.Time) *PurchasedReward {
	pr := &PurchasedReward{ID: uuid.New(), IsUsed: used, CreatedAt: created, Reward: r}
	if r != nil {
		id := r.ID
		pr.RewardID = &id
		pr.RewardType = r.RewardType
	}
	return pr
}

func TestRenderAffordabilityThreshold(t *testing.T) {
	r := reward("Freeze", RewardFreeze, 10)
	cases := []struct {
		stars int64
		want  bool
	}{{9, false}, {10, true}, {11, true}}

	var base *CatalogItem
	for _, c := range cases {
		v := Render(ViewInput{Rewards: []*ShopReward{r}, Stars: c.stars, Translator: i18n.New("en")})
		item := v.Catalog.Items[0]
		if item.Action.Enabled != c.want || item.Affordable != c.want {
			t.Errorf("stars=%d: enabled=%v, want %v", c.stars, item.Action.Enabled, c.want)
		}
		item.Action.Enabled, item.Affordable = false, false
		if base == nil {
			base = &item
			continue
		}
		if item != *base {
			t.Errorf("stars=%d: only the enabled state may change, got %+v vs %+v", c.stars, item, *base)
		}
	}
}

func TestRenderUnusedCountFromAccessor(t *testing.T) {
	r := reward("Theme", RewardTheme, 5)
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	purchased := []*PurchasedReward{
		purchase(r, false, now),
		purchase(r, true, now),
		purchase(r, false, now),
	}
	calls := 0
	v := Render(ViewInput{
		Purchased:  purchased,
		Translator: i18n.New("en"),
		Unused: func() []*PurchasedReward {
			calls++
			return UnusedRewards(purchased)
		},
	})

	if calls != 1 {
		t.Fatalf("accessor called %d times", calls)
	}
	if v.Balance.Unused != 2 || v.Tabs[1].Badge != 2 || v.Tabs[0].Badge != 0 {
		t.Fatalf("badges: balance=%d inventory=%d shop=%d", v.Balance.Unused, v.Tabs[1].Badge, v.Tabs[0].Badge)
	}
	if v.Balance.Badge != "2 available" {
		t.Fatalf("balance badge = %q", v.Balance.Badge)
	}

	none := Render(ViewInput{Purchased: []*PurchasedReward{purchase(r, true, now)}, Translator: i18n.New("en")})
	if none.Balance.Badge != "" || none.Tabs[1].Badge != 0 {
		t.Fatalf("no badge expected when everything is used: %+v", none.Balance)
	}
}

func TestRenderLoadingShowsThreePlaceholders(t *testing.T) {
	for _, rewards := range [][]*ShopReward{nil, {reward("a", RewardTheme, 1)}, {reward("a", "", 1), reward("b", "", 2), reward("c", "", 3), reward("d", "", 4)}} {
		v := Render(ViewInput{Rewards: rewards, Loading: true, Translator: i18n.New("ru")})
		if v.Catalog.Placeholders != PlaceholderRows || PlaceholderRows != 3 {
			t.Fatalf("placeholders = %d", v.Catalog.Placeholders)
		}
		if v.Catalog.Items != nil || v.Catalog.Empty != nil {
			t.Fatalf("loading catalog must contain only placeholders: %+v", v.Catalog)
		}
	}
}

func TestRenderEmptyStates(t *testing.T) {
	v := Render(ViewInput{Translator: i18n.New("en")})
	if v.Catalog.Empty == nil || v.Catalog.Empty.Message != "Shop is empty" || v.Catalog.Items != nil {
		t.Fatalf("catalog empty state: %+v", v.Catalog)
	}
	if v.Inventory.Empty == nil || v.Inventory.Empty.Message != "No rewards yet" || v.Inventory.Empty.Hint != "Earn stars and buy rewards!" {
		t.Fatalf("inventory empty state: %+v", v.Inventory)
	}

	ru := Render(ViewInput{Translator: i18n.New("ru")})
	if ru.Inventory.Empty.Message != "У вас пока нет наград" || ru.Inventory.Empty.Hint != "Заработайте звёзды и купите награды!" {
		t.Fatalf("ru inventory empty state: %+v", ru.Inventory.Empty)
	}
}

func TestRewardTypeIconsAndQualifiers(t *testing.T) {
	icons := map[RewardType]Icon{
		RewardFreeze:      IconSnowflake,
		RewardProDiscount: IconPercent,
		RewardTheme:       IconPalette,
		"stickers":        IconGift,
		"":                IconGift,
	}
	for typ, want := range icons {
		if got := typ.Icon(); got != want {
			t.Errorf("%q.Icon() = %q, want %q", typ, got, want)
		}
		if typ.Icon().Emoji() == "" {
			t.Errorf("%q has no emoji", typ)
		}
	}

	v := Render(ViewInput{
		Rewards:    []*ShopReward{reward("f", RewardFreeze, 1), reward("t", RewardTheme, 1), reward("p", RewardProDiscount, 1)},
		Translator: i18n.New("en"),
	})
	want := []string{"Once per month", "Custom Theme", ""}
	for i, item := range v.Catalog.Items {
		if item.Qualifier != want[i] {
			t.Errorf("item %d qualifier = %q, want %q", i, item.Qualifier, want[i])
		}
		if item.Action.Label != "Buy" || item.Action.Kind != ActionBuy {
			t.Errorf("item %d action = %+v", i, item.Action)
		}
	}
}

func TestRenderInventory(t *testing.T) {
	created := time.Date(2025, 3, 5, 22, 30, 0, 0, time.UTC)
	msk := time.FixedZone("MSK", 3*60*60)
	r := reward("Freeze", RewardFreeze, 30)
	orphan := purchase(nil, false, created)
	used := purchase(r, true, created)

	v := Render(ViewInput{
		Purchased:  []*PurchasedReward{orphan, used},
		Translator: i18n.New("ru"),
		Location:   msk,
		Tab:        TabInventory,
	})
	if v.Active != TabInventory || !v.Tabs[1].Active || v.Tabs[0].Active {
		t.Fatalf("inventory tab must be active: %+v", v.Tabs)
	}

	first := v.Inventory.Items[0]
	if first.Icon != "" || first.Name != "" {
		t.Errorf("missing catalog entry must omit icon and name: %+v", first)
	}
	if first.Status != "Доступно" || first.Action == nil || first.Action.Label != "Использовать" {
		t.Errorf("unused item: %+v", first)
	}
	// 22:30 UTC — уже 6 марта по Москве
	if first.Date != "06 мар. 2025" {
		t.Errorf("date = %q", first.Date)
	}

	second := v.Inventory.Items[1]
	if second.Icon != IconSnowflake || second.Name != "Freeze" || second.Status != "Использовано" || second.Action != nil {
		t.Errorf("used item: %+v", second)
	}

	en := Render(ViewInput{Purchased: []*PurchasedReward{used}, Translator: i18n.New("en-GB")})
	if en.Inventory.Items[0].Date != "05 Mar 2025" || en.Inventory.Items[0].Status != "Used" {
		t.Errorf("en item: %+v", en.Inventory.Items[0])
	}
}

func TestRenderUnknownLanguageFallsBack(t *testing.T) {
	v := Render(ViewInput{Translator: i18n.New("de")})
	if v.Language != i18n.LangRu || v.Tabs[0].Label != "Магазин" || v.Balance.Label != "Ваши звёзды" {
		t.Fatalf("fallback view: %+v", v)
	}
	if ParseTab("bogus") != TabShop || ParseTab("inventory") != TabInventory {
		t.Fatal("ParseTab")
	}
}
