package habits

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/config"
	"serotonyl.ru/habits-bot/internal/i18n"
)

type fakeStore struct {
	habits    []*Habit
	freezes   map[string]bool
	brokenDay time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{freezes: map[string]bool{}}
}

func (f *fakeStore) List(ctx context.Context, userID int64) ([]*Habit, error) {
	var out []*Habit
	for _, h := range f.habits {
		if h.UserID == userID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context, userID int64) (int, error) {
	list, _ := f.List(ctx, userID)
	return len(list), nil
}

func (f *fakeStore) Create(ctx context.Context, h *Habit) error {
	cp := *h
	f.habits = append(f.habits, &cp)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, userID int64, habitID uuid.UUID) (string, error) {
	for i, h := range f.habits {
		if h.ID == habitID && h.UserID == userID {
			f.habits = append(f.habits[:i], f.habits[i+1:]...)
			return h.Name, nil
		}
	}
	return "", common.ErrHabitNotFound
}

func (f *fakeStore) MarkCompleted(ctx context.Context, userID int64, habitID uuid.UUID, day time.Time) (*Habit, *Habit, error) {
	for _, h := range f.habits {
		if h.ID != habitID || h.UserID != userID {
			continue
		}
		before := *h
		if h.CompletedOn(common.ISODate(day)) {
			return &before, &before, common.ErrAlreadyCompleted
		}
		h.CompletedDates = append(h.CompletedDates, common.ISODate(day))
		h.Streak++
		if h.Streak > h.LongestStreak {
			h.LongestStreak = h.Streak
		}
		after := *h
		return &before, &after, nil
	}
	return nil, nil, common.ErrHabitNotFound
}

func (f *fakeStore) Freeze(ctx context.Context, userID int64, day time.Time) error {
	f.freezes[common.ISODate(day)] = true
	return nil
}

func (f *fakeStore) BreakMissed(ctx context.Context, day time.Time) (int64, error) {
	f.brokenDay = day
	return 0, nil
}

func (f *fakeStore) PendingUsers(ctx context.Context, day time.Time) ([]int64, error) {
	return nil, nil
}

type fakeWallet struct {
	credited map[int64]int64
}

func (w *fakeWallet) AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	if w.credited == nil {
		w.credited = map[int64]int64{}
	}
	w.credited[userID] += amount
	return nil
}

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// 2025-03-05 — среда.
var wednesday = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *fakeStore, *fakeWallet) {
	store := newFakeStore()
	wallet := &fakeWallet{}
	cfg := &config.Config{HabitCompletionStars: 1, HabitMaxPerUser: 2}
	return NewService(store, wallet, cfg, time.UTC), store, wallet
}

func TestStreakBonus(t *testing.T) {
	want := map[int]int64{-1: 0, 0: 0, 1: 0, 2: 1, 3: 1, 4: 2, 5: 2, 6: 3, 30: 3}
	for streak, bonus := range want {
		if got := StreakBonus(streak); got != bonus {
			t.Errorf("StreakBonus(%d) = %d, want %d", streak, got, bonus)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	h, err := svc.Create(ctx, 1, "  Зарядка ", nil, wednesday)
	if err != nil {
		t.Fatal(err)
	}
	if h.Name != "Зарядка" || len(h.TargetDays) != 7 {
		t.Fatalf("unexpected habit: %+v", h)
	}

	if _, err := svc.Create(ctx, 1, "", nil, wednesday); !errors.Is(err, common.ErrInvalidHabit) {
		t.Errorf("empty name: %v", err)
	}
	if _, err := svc.Create(ctx, 1, strings.Repeat("я", 65), nil, wednesday); !errors.Is(err, common.ErrInvalidHabit) {
		t.Errorf("long name: %v", err)
	}
	if _, err := svc.Create(ctx, 1, "x", []int{1, 7}, wednesday); !errors.Is(err, common.ErrInvalidHabit) {
		t.Errorf("day 7: %v", err)
	}
	if _, err := svc.Create(ctx, 1, "x", []int{1, 1}, wednesday); !errors.Is(err, common.ErrInvalidHabit) {
		t.Errorf("duplicate days: %v", err)
	}
	if _, err := svc.Create(ctx, 1, strings.Repeat("я", 64), []int{3, 1}, wednesday); err != nil {
		t.Errorf("64 runes must be accepted: %v", err)
	}
	if _, err := svc.Create(ctx, 1, "third", nil, wednesday); !errors.Is(err, common.ErrHabitLimit) {
		t.Errorf("limit: %v", err)
	}
}

func TestCompleteCreditsStarsOncePerDay(t *testing.T) {
	svc, store, wallet := newTestService()
	ctx := context.Background()
	h, _ := svc.Create(ctx, 1, "Чтение", nil, wednesday)
	store.habits[0].Streak = 4

	done, err := svc.Complete(ctx, 1, h.ID, wednesday)
	if err != nil {
		t.Fatal(err)
	}
	if done.Habit.Streak != 5 || done.Habit.LongestStreak != 5 {
		t.Errorf("streak = %d/%d", done.Habit.Streak, done.Habit.LongestStreak)
	}
	if done.Stars != 3 || wallet.credited[1] != 3 {
		t.Errorf("stars = %d, credited = %d", done.Stars, wallet.credited[1])
	}

	again, err := svc.Complete(ctx, 1, h.ID, wednesday.Add(time.Hour))
	if !errors.Is(err, common.ErrAlreadyCompleted) {
		t.Fatalf("second completion: %v", err)
	}
	if again.Habit.Name != "Чтение" || wallet.credited[1] != 3 {
		t.Errorf("second completion must not credit stars")
	}

	if _, err := svc.Complete(ctx, 2, h.ID, wednesday); !errors.Is(err, common.ErrHabitNotFound) {
		t.Errorf("foreign habit: %v", err)
	}
}

func TestTodayUsesServiceTimezone(t *testing.T) {
	store := newFakeStore()
	msk := time.FixedZone("MSK", 3*60*60)
	svc := NewService(store, &fakeWallet{}, &config.Config{}, msk)

	// 22:30 UTC вторника — уже среда по Москве
	now := time.Date(2025, 3, 4, 22, 30, 0, 0, time.UTC)
	if got := common.ISODate(svc.Today(now)); got != "2025-03-05" {
		t.Fatalf("Today = %s", got)
	}

	if err := svc.DailyReset(context.Background(), now); err != nil {
		t.Fatal(err)
	}
	if got := common.ISODate(store.brokenDay); got != "2025-03-04" {
		t.Fatalf("DailyReset checked %s, want yesterday", got)
	}

	if err := svc.Freeze(context.Background(), 1, now); err != nil {
		t.Fatal(err)
	}
	if !store.freezes["2025-03-05"] {
		t.Fatalf("freeze not recorded for today: %v", store.freezes)
	}
}

func TestParseDays(t *testing.T) {
	days, err := ParseDays("1, 3,5")
	if err != nil || len(days) != 3 || days[2] != 5 {
		t.Fatalf("ParseDays = %v, %v", days, err)
	}
	if _, err := ParseDays("1,8"); !errors.Is(err, common.ErrInvalidHabit) {
		t.Fatalf("8 must be rejected: %v", err)
	}
}

func TestHabitPendingOn(t *testing.T) {
	h := &Habit{TargetDays: []int{1, 3, 5}}
	if !h.PendingOn(wednesday) {
		t.Fatal("due and not completed")
	}
	h.CompletedDates = []string{"2025-03-05"}
	if h.PendingOn(wednesday) {
		t.Fatal("already completed")
	}
	if h.PendingOn(wednesday.AddDate(0, 0, 1)) {
		t.Fatal("not due on Thursday")
	}
}

func TestHandleListAndCallback(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	sender := &fakeSender{}
	h := NewHandler(svc, sender)
	h.now = func() time.Time { return wednesday }
	tr := i18n.New("en")

	due, _ := svc.Create(ctx, 1, "Run", []int{3}, wednesday)
	_, _ = svc.Create(ctx, 1, "Swim", []int{6}, wednesday)

	h.HandleList(ctx, 1, 1, tr)
	msg := sender.sent[0].(tgbotapi.MessageConfig)
	if !strings.Contains(msg.Text, "1. ⬜ Run · 🔥 0 · Wed") || !strings.Contains(msg.Text, "2. ▫️ Swim · 🔥 0 · Sat") {
		t.Fatalf("list text:\n%s", msg.Text)
	}
	markup := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if len(markup.InlineKeyboard) != 1 || *markup.InlineKeyboard[0][0].CallbackData != DoneCallbackData(due.ID) {
		t.Fatalf("expected one done button, got %+v", markup.InlineKeyboard)
	}

	query := &tgbotapi.CallbackQuery{
		ID:      "q1",
		From:    &tgbotapi.User{ID: 1},
		Data:    DoneCallbackData(due.ID),
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: 1}},
	}
	h.HandleCallback(ctx, query, tr)

	answer := sender.requests[0].(tgbotapi.CallbackConfig)
	if answer.Text != "✅ “Run” done! Streak: 1, +1 ⭐" {
		t.Fatalf("callback answer = %q", answer.Text)
	}
	edit := sender.requests[1].(tgbotapi.EditMessageTextConfig)
	if !strings.Contains(edit.Text, "1. ✅ Run") || edit.ReplyMarkup != nil {
		t.Fatalf("edited list:\n%s (markup %v)", edit.Text, edit.ReplyMarkup)
	}
}

func TestHandleAddParsesDays(t *testing.T) {
	svc, store, _ := newTestService()
	sender := &fakeSender{}
	h := NewHandler(svc, sender)
	h.now = func() time.Time { return wednesday }

	h.HandleAdd(context.Background(), 1, 1, []string{"Morning", "walk", "1,3"}, i18n.New("ru"))
	if len(store.habits) != 1 || store.habits[0].Name != "Morning walk" || len(store.habits[0].TargetDays) != 2 {
		t.Fatalf("habit not stored: %+v", store.habits)
	}
	if got := sender.sent[0].(tgbotapi.MessageConfig).Text; got != "✅ Привычка «Morning walk» добавлена" {
		t.Fatalf("reply = %q", got)
	}
}
