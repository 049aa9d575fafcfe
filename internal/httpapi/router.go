// Package httpapi — JSON API поверх магазина, привычек и плана уведомлений.
// Пользователь передаётся заголовком X-User-ID (Telegram user ID),
// доступ к /v1 закрыт ключом X-API-Key.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/features/notify"
	"serotonyl.ru/habits-bot/internal/features/shop"
	"serotonyl.ru/habits-bot/internal/i18n"
)

const (
	serviceTimeout = 10 * time.Second
	requestTimeout = 30 * time.Second
)

// Shop — операции магазина (shop.Service).
type Shop interface {
	Screen(ctx context.Context, userID int64, tab shop.Tab, tr i18n.Translator) (shop.View, error)
	Purchase(ctx context.Context, userID int64, rewardID uuid.UUID, now time.Time) (*shop.PurchasedReward, error)
	Use(ctx context.Context, userID int64, purchaseID uuid.UUID, now time.Time) (*shop.PurchasedReward, error)
}

// Habits — операции привычек (habits.Service).
type Habits interface {
	List(ctx context.Context, userID int64) ([]*habits.Habit, error)
	Complete(ctx context.Context, userID int64, habitID uuid.UUID, now time.Time) (*habits.Completion, error)
}

// Planner строит план уведомлений (notify.Manager).
type Planner interface {
	Preview(ctx context.Context, userID int64, tr i18n.Translator) ([]notify.Notification, error)
}

// Languages отдаёт переводчик пользователя (members.Service).
type Languages interface {
	Translator(ctx context.Context, userID int64) i18n.Translator
}

// Deps — сервисы, которые обслуживает API.
type Deps struct {
	Shop      Shop
	Habits    Habits
	Planner   Planner
	Languages Languages
	APIKey    string
	// Часовой пояс, в котором считается «сегодня» для привычек
	Location *time.Location
}

// NewRouter собирает chi-роутер с middleware и /healthz.
func NewRouter(deps Deps) *chi.Mux {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	h := &handler{
		shop:    deps.Shop,
		habits:  deps.Habits,
		planner: deps.Planner,
		langs:   deps.Languages,
		loc:     loc,
		now:     time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.StandardLogger(), NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(requireAPIKey(deps.APIKey))
		r.Use(requireUser)

		r.Get("/shop", h.getShop)
		r.Post("/shop/rewards/{rewardID}/purchase", h.purchase)
		r.Post("/shop/purchases/{purchaseID}/use", h.use)

		r.Get("/habits", h.listHabits)
		r.Post("/habits/{habitID}/complete", h.completeHabit)

		r.Get("/notifications/plan", h.notificationPlan)
	})
	return r
}

// Server — HTTP-сервер API с корректной остановкой.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start блокируется, пока сервер не остановлен.
func (s *Server) Start() error {
	log.WithField("addr", s.srv.Addr).Info("HTTP API запущен")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("X-API-Key")), []byte(key)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
