package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// HabitSource отдаёт привычки пользователя (habits.Service).
type HabitSource interface {
	List(ctx context.Context, userID int64) ([]*habits.Habit, error)
}

// LanguageSource отдаёт переводчик пользователя (members.Service).
type LanguageSource interface {
	Translator(ctx context.Context, userID int64) i18n.Translator
}

// Manager держит по одной сессии на пользователя.
type Manager struct {
	policy   Policy
	habits   HabitSource
	langs    LanguageSource
	notifier Notifier
	loc      *time.Location

	now       func() time.Time
	afterFunc AfterFunc

	mu       sync.Mutex
	sessions map[int64]*Session
	closed   bool
}

// NewManager создаёт менеджер сессий. «Сегодня» считается в часовом поясе loc.
func NewManager(policy Policy, source HabitSource, langs LanguageSource, notifier Notifier, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{
		policy:    policy,
		habits:    source,
		langs:     langs,
		notifier:  notifier,
		loc:       loc,
		now:       time.Now,
		afterFunc: realAfterFunc,
		sessions:  make(map[int64]*Session),
	}
}

// Policy возвращает правила планирования.
func (m *Manager) Policy() Policy {
	return m.policy
}

// Mount начинает новую сессию (закрывая прежнюю) и сразу планирует уведомления.
func (m *Manager) Mount(ctx context.Context, userID int64) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if old, ok := m.sessions[userID]; ok {
		old.Close()
	}
	session := NewSession(userID, m.policy, m.notifier, m.afterFunc)
	m.sessions[userID] = session
	m.mu.Unlock()

	m.run(ctx, userID, session)
}

// Touch вызывается на любое взаимодействие: если сессии нет — создаёт её,
// если уведомления уже показаны — ничего не делает.
func (m *Manager) Touch(ctx context.Context, userID int64) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	session, ok := m.sessions[userID]
	if !ok {
		session = NewSession(userID, m.policy, m.notifier, m.afterFunc)
		m.sessions[userID] = session
	}
	m.mu.Unlock()

	if session.State() == StateShown {
		return
	}
	m.run(ctx, userID, session)
}

// Close закрывает все сессии. Вызывается при остановке бота.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[int64]*Session)
	m.closed = true
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	log.WithField("sessions", len(sessions)).Info("Сессии уведомлений закрыты")
}

// Prune закрывает и удаляет сессии без ожидающих таймеров.
// Следующее взаимодействие такого пользователя начнёт новую сессию.
// Возвращает число удалённых сессий.
func (m *Manager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for userID, s := range m.sessions {
		if !s.idle() {
			continue
		}
		s.Close()
		delete(m.sessions, userID)
		pruned++
	}
	if pruned > 0 {
		log.WithFields(log.Fields{
			"pruned": pruned,
			"active": len(m.sessions),
		}).Info("Неактивные сессии уведомлений удалены")
	}
	return pruned
}

// Preview возвращает план уведомлений на текущий момент без планирования.
func (m *Manager) Preview(ctx context.Context, userID int64, tr i18n.Translator) ([]Notification, error) {
	list, err := m.habits.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return m.policy.Plan(list, m.now().In(m.loc), tr), nil
}

func (m *Manager) run(ctx context.Context, userID int64, session *Session) {
	list, err := m.habits.List(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось получить привычки для уведомлений")
		return
	}
	plan := session.Run(list, m.now().In(m.loc), m.langs.Translator(ctx, userID))
	if len(plan) > 0 {
		log.WithFields(log.Fields{
			"user_id":       userID,
			"notifications": len(plan),
		}).Debug("Уведомления запланированы")
	}
}
