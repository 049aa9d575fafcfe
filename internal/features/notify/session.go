package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// State — состояние сессии уведомлений.
type State int

const (
	StateNotShown State = iota // Уведомления ещё не планировались
	StateShown                 // Уведомления запланированы, повторно не показываем
)

func (s State) String() string {
	if s == StateShown {
		return "shown"
	}
	return "not_shown"
}

// Notifier доставляет уведомление пользователю.
type Notifier interface {
	Notify(ctx context.Context, userID int64, n Notification) error
}

// Timer — отменяемый отложенный вызов (*time.Timer).
type Timer interface {
	Stop() bool
}

// AfterFunc планирует f через d. В тестах подменяется.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Session — уведомления одного пользователя за одну сессию.
// Сессия начинается при монтировании (/start) и заканчивается Close.
type Session struct {
	userID    int64
	policy    Policy
	notifier  Notifier
	afterFunc AfterFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	closed bool
	timers []Timer
}

// NewSession создаёт сессию в состоянии StateNotShown.
func NewSession(userID int64, policy Policy, notifier Notifier, afterFunc AfterFunc) *Session {
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		userID:    userID,
		policy:    policy,
		notifier:  notifier,
		afterFunc: afterFunc,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State возвращает текущее состояние.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run планирует уведомления для habits, если сессия их ещё не показывала.
// Пустой список ничего не меняет. Возвращает запланированное.
func (s *Session) Run(list []*habits.Habit, now time.Time, tr i18n.Translator) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state == StateShown || len(list) == 0 {
		return nil
	}

	plan := s.policy.Plan(list, now, tr)
	for _, n := range plan {
		i := len(s.timers)
		s.timers = append(s.timers, s.afterFunc(n.Delay, func() { s.fire(i, n) }))
	}
	s.state = StateShown
	return plan
}

// fire доставляет n и освобождает слот сработавшего таймера.
func (s *Session) fire(i int, n Notification) {
	s.mu.Lock()
	closed := s.closed
	if i < len(s.timers) {
		s.timers[i] = nil
	}
	s.mu.Unlock()
	if closed {
		return
	}

	if err := s.notifier.Notify(s.ctx, s.userID, n); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id": s.userID,
			"kind":    n.Kind,
		}).Warn("Уведомление не доставлено")
	}
}

// Pending возвращает число ещё не сработавших таймеров.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := 0
	for _, t := range s.timers {
		if t != nil {
			pending++
		}
	}
	return pending
}

func (s *Session) idle() bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	return closed || s.Pending() == 0
}

// Close завершает сессию: отменяет таймеры и прерывает доставку.
// Повторный вызов безопасен.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, t := range s.timers {
		if t != nil {
			t.Stop()
		}
	}
	s.timers = nil
	s.cancel()
}
