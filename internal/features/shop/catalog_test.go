package shop

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

func TestParseCatalog(t *testing.T) {
	entries, err := ParseCatalog([]byte(`
rewards:
  - name: Freeze
    description: Keep streaks
    reward_type: freeze
    price_stars: 30
  - name: Free sticker
    reward_type: stickers
    price_stars: 0
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].RewardType != RewardFreeze || entries[1].PriceStars != 0 {
		t.Fatalf("entries = %+v", entries)
	}

	bad := []string{
		"rewards:\n  - name: x\n    reward_type: theme\n    price_stars: -1\n",
		"rewards:\n  - reward_type: theme\n    price_stars: 1\n",
		"rewards:\n  - name: x\n    price_stars: 1\n",
		"rewards:\n  - {name: x, reward_type: theme}\n  - {name: x, reward_type: freeze}\n",
	}
	for _, doc := range bad {
		if _, err := ParseCatalog([]byte(doc)); !errors.Is(err, common.ErrInvalidReward) {
			t.Errorf("expected ErrInvalidReward for %q, got %v", doc, err)
		}
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	entries, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || entries != nil {
		t.Fatalf("missing file: %v, %v", entries, err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("rewards: [{name: a, reward_type: theme, price_stars: 3}]"), 0o600); err != nil {
		t.Fatal(err)
	}
	entries, err = LoadCatalog(path)
	if err != nil || len(entries) != 1 {
		t.Fatalf("LoadCatalog = %v, %v", entries, err)
	}
}

func TestCallbackData(t *testing.T) {
	id := uuid.New()
	for _, verb := range []string{verbBuy, verbUse, verbLocked} {
		data := callbackData(verb, id.String())
		if len(data) > 64 {
			t.Fatalf("%s is %d bytes", data, len(data))
		}
		gotVerb, arg, ok := parseCallback(data)
		if !ok || gotVerb != verb || arg != id.String() {
			t.Fatalf("parseCallback(%q) = %q %q %v", data, gotVerb, arg, ok)
		}
	}
	for _, data := range []string{"habit:done:x", "shop:", "shop:buy", "shop::x"} {
		if _, _, ok := parseCallback(data); ok {
			t.Errorf("%q must not parse", data)
		}
	}
}

func TestKeyboardLocksUnaffordable(t *testing.T) {
	cheap := reward("Cheap", RewardTheme, 1)
	pricey := reward("Pricey", RewardFreeze, 100)
	v := Render(ViewInput{Rewards: []*ShopReward{cheap, pricey}, Stars: 5, Translator: i18n.New("ru")})

	kb := Keyboard(v)
	if len(kb.InlineKeyboard) != 3 {
		t.Fatalf("rows = %d", len(kb.InlineKeyboard))
	}
	tabs := kb.InlineKeyboard[0]
	if tabs[0].Text != "• Магазин" || *tabs[1].CallbackData != "shop:tab:inventory" {
		t.Fatalf("tabs = %+v", tabs)
	}
	assertButton(t, kb.InlineKeyboard[1][0], "Купить: Cheap · 1 ⭐", callbackData(verbBuy, cheap.ID.String()))
	assertButton(t, kb.InlineKeyboard[2][0], "🔒 Pricey · 100 ⭐", callbackData(verbLocked, pricey.ID.String()))
}

func assertButton(t *testing.T, b tgbotapi.InlineKeyboardButton, text, data string) {
	t.Helper()
	if b.Text != text || b.CallbackData == nil || *b.CallbackData != data {
		t.Errorf("button = %q/%v, want %q/%q", b.Text, b.CallbackData, text, data)
	}
}
