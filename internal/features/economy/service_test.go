package economy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

type fakeStore struct {
	balances map[int64]int64
	txs      []*Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{balances: map[int64]int64{}}
}

func (f *fakeStore) CreateBalance(ctx context.Context, userID int64) error {
	if _, ok := f.balances[userID]; !ok {
		f.balances[userID] = 0
	}
	return nil
}

func (f *fakeStore) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return f.balances[userID], nil
}

func (f *fakeStore) AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	f.balances[userID] += amount
	to := userID
	f.txs = append([]*Transaction{{ToUserID: &to, Amount: amount, TransactionType: txType, Description: description}}, f.txs...)
	return nil
}

func (f *fakeStore) DeductBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	if f.balances[userID] < amount {
		return common.ErrInsufficientStars
	}
	f.balances[userID] -= amount
	from := userID
	f.txs = append([]*Transaction{{FromUserID: &from, Amount: amount, TransactionType: txType, Description: description}}, f.txs...)
	return nil
}

func (f *fakeStore) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	if len(f.txs) > limit {
		return f.txs[:limit], nil
	}
	return f.txs, nil
}

type fakeSender struct {
	msgs []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.msgs = append(f.msgs, msg)
	}
	return tgbotapi.Message{}, nil
}

func TestAddAndDeduct(t *testing.T) {
	svc := NewService(newFakeStore(), time.UTC)
	ctx := context.Background()

	if err := svc.AddBalance(ctx, 1, 0, TxTypeAdminGive, ""); !errors.Is(err, common.ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
	if err := svc.AddBalance(ctx, 1, 10, TxTypeHabitBonus, "bonus"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeductBalance(ctx, 1, 11, TxTypeShopPurchase, "buy"); !errors.Is(err, common.ErrInsufficientStars) {
		t.Fatalf("overdraft: %v", err)
	}
	if err := svc.DeductBalance(ctx, 1, 10, TxTypeShopPurchase, "buy"); err != nil {
		t.Fatal(err)
	}
	if b, _ := svc.GetBalance(ctx, 1); b != 0 {
		t.Fatalf("balance = %d", b)
	}
}

func TestTransactionHistory(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, time.UTC)
	ctx := context.Background()

	empty, err := svc.GetTransactionHistory(ctx, 1, i18n.New("en"))
	if err != nil || empty != "📋 No transactions yet" {
		t.Fatalf("empty history = %q, %v", empty, err)
	}

	for i := 0; i < 7; i++ {
		_ = svc.AddBalance(ctx, 1, 2, TxTypeHabitBonus, "habit")
	}
	_ = svc.DeductBalance(ctx, 1, 5, TxTypeShopPurchase, "shop")

	text, err := svc.GetTransactionHistory(ctx, 1, i18n.New("ru"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "📋 Последние 8 транзакций:") {
		t.Errorf("title: %q", text)
	}
	if !strings.Contains(text, "-5 звёзд | shop") {
		t.Errorf("deduction line missing: %q", text)
	}
	if strings.Count(text, "||") != 2 {
		t.Errorf("expected spoiler around older entries: %q", text)
	}
}

func TestHandleBalance(t *testing.T) {
	store := newFakeStore()
	store.balances[3] = 21
	sender := &fakeSender{}
	h := NewHandler(NewService(store, time.UTC), sender)

	h.HandleBalance(context.Background(), 3, 3, i18n.New("ru"))
	h.HandleBalance(context.Background(), 3, 3, i18n.New("en"))

	if got := sender.msgs[0].Text; got != "⭐ Баланс: 21 звезда" {
		t.Errorf("ru = %q", got)
	}
	if got := sender.msgs[1].Text; got != "⭐ Balance: 21 stars" {
		t.Errorf("en = %q", got)
	}
}

func TestEscapeMarkdownV2KeepsSpoiler(t *testing.T) {
	got := escapeMarkdownV2("1. a-b | +5\n||hidden.||")
	want := `1\. a\-b \| \+5` + "\n" + `||hidden\.||`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
