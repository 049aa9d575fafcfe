package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"serotonyl.ru/habits-bot/internal/config"
	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/features/notify"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// 2025-03-05 — среда.
var wednesday = time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)

type fakeHabits struct {
	lists   map[int64][]*habits.Habit
	resetAt time.Time
}

func (f *fakeHabits) DailyReset(ctx context.Context, now time.Time) error {
	f.resetAt = now
	return nil
}

func (f *fakeHabits) PendingToday(ctx context.Context, now time.Time) ([]int64, error) {
	var users []int64
	for id := range f.lists {
		users = append(users, id)
	}
	return users, nil
}

func (f *fakeHabits) List(ctx context.Context, userID int64) ([]*habits.Habit, error) {
	return f.lists[userID], nil
}

type langs map[int64]string

func (l langs) Translator(ctx context.Context, userID int64) i18n.Translator {
	return i18n.New(l[userID])
}

type outbox struct {
	sent map[int64]notify.Notification
	fail map[int64]bool
}

func (o *outbox) Notify(ctx context.Context, userID int64, n notify.Notification) error {
	if o.fail[userID] {
		return errors.New("bot was blocked by the user")
	}
	o.sent[userID] = n
	return nil
}

func newTestScheduler(h Habits, l Languages, n notify.Notifier) *Scheduler {
	cfg := &config.Config{HabitReminderHour: 9, FeatureRemindersEnabled: true}
	s := NewScheduler(cfg, time.UTC, h, l, n, notify.DefaultPolicy(), nil)
	s.now = func() time.Time { return wednesday }
	s.sendInterval = 0
	return s
}

func TestRunReminders(t *testing.T) {
	h := &fakeHabits{lists: map[int64][]*habits.Habit{
		// две привычки на среду, одна уже выполнена
		1: {
			{Name: "a", TargetDays: habits.AllDays},
			{Name: "b", TargetDays: []int{3}},
			{Name: "c", TargetDays: habits.AllDays, CompletedDates: []string{"2025-03-05"}},
		},
		// всё выполнено к моменту рассылки
		2: {{Name: "a", TargetDays: habits.AllDays, CompletedDates: []string{"2025-03-05"}}},
		// доставка падает
		3: {{Name: "a", TargetDays: habits.AllDays}},
	}}
	out := &outbox{sent: map[int64]notify.Notification{}, fail: map[int64]bool{3: true}}
	s := newTestScheduler(h, langs{1: "en"}, out)

	sent, err := s.RunReminders(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sent != 1 || len(out.sent) != 1 {
		t.Fatalf("sent = %d, outbox = %v", sent, out.sent)
	}
	n := out.sent[1]
	if n.Kind != notify.KindReminder || n.Value != 2 {
		t.Fatalf("notification = %+v", n)
	}
	if n.Text() != "🎯 Habits for today\n2 habits to complete" {
		t.Fatalf("text = %q", n.Text())
	}
}

func TestRunRemindersCancelled(t *testing.T) {
	h := &fakeHabits{lists: map[int64][]*habits.Habit{1: {{Name: "a", TargetDays: habits.AllDays}}}}
	out := &outbox{sent: map[int64]notify.Notification{}}
	s := newTestScheduler(h, langs{}, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.RunReminders(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(out.sent) != 0 {
		t.Fatal("sent after cancel")
	}
}

func TestRunDailyResetUsesLocation(t *testing.T) {
	h := &fakeHabits{}
	s := newTestScheduler(h, langs{}, &outbox{})
	loc := time.FixedZone("UTC+3", 3*60*60)
	s.loc = loc

	if err := s.RunDailyReset(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.resetAt.Location() != loc || !h.resetAt.Equal(wednesday) {
		t.Fatalf("reset at %v", h.resetAt)
	}
}

type fakeSessions struct {
	pruned int
}

func (f *fakeSessions) Prune() int {
	f.pruned++
	return 0
}

type failingReset struct {
	fakeHabits
}

func (f *failingReset) DailyReset(ctx context.Context, now time.Time) error {
	return errors.New("connection refused")
}

func TestRunMidnightPrunesSessions(t *testing.T) {
	h := &fakeHabits{}
	sessions := &fakeSessions{}
	s := newTestScheduler(h, langs{}, &outbox{})
	s.sessions = sessions

	if err := s.RunMidnight(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !h.resetAt.Equal(wednesday) || sessions.pruned != 1 {
		t.Fatalf("reset at %v, prune calls %d", h.resetAt, sessions.pruned)
	}

	// Ошибка сброса не мешает чистке сессий
	s.habits = &failingReset{}
	if err := s.RunMidnight(context.Background()); err == nil {
		t.Fatal("reset error swallowed")
	}
	if sessions.pruned != 2 {
		t.Fatalf("prune calls %d", sessions.pruned)
	}

	// Без менеджера сессий полночь не падает
	s.sessions = nil
	s.habits = h
	if err := s.RunMidnight(context.Background()); err != nil {
		t.Fatal(err)
	}
}
