package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/features/habits"
	"serotonyl.ru/habits-bot/internal/features/shop"
	"serotonyl.ru/habits-bot/internal/i18n"
)

type ctxKey int

const userIDKey ctxKey = iota

type handler struct {
	shop    Shop
	habits  Habits
	planner Planner
	langs   Languages
	loc     *time.Location
	now     func() time.Time
}

type habitResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	TargetDays    []int     `json:"target_days"`
	Streak        int       `json:"streak"`
	LongestStreak int       `json:"longest_streak"`
	DueToday      bool      `json:"due_today"`
	DoneToday     bool      `json:"done_today"`
}

type completionResponse struct {
	Habit habitResponse `json:"habit"`
	Stars int64         `json:"stars"`
}

type notificationResponse struct {
	Kind        string `json:"kind"`
	DelayMS     int64  `json:"delay_ms"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Value       int    `json:"value"`
}

func (h *handler) getShop(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	tab := shop.ParseTab(r.URL.Query().Get("tab"))

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	view, err := h.shop.Screen(ctx, userID, tab, h.translator(ctx, r, userID))
	if err != nil {
		respondInternal(w, err, "shop screen")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) purchase(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	rewardID, err := uuid.Parse(chi.URLParam(r, "rewardID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reward id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	pr, err := h.shop.Purchase(ctx, userID, rewardID, h.now())
	if err != nil {
		respondShopError(w, err, shop.ActionBuy, h.translator(ctx, r, userID))
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (h *handler) use(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	purchaseID, err := uuid.Parse(chi.URLParam(r, "purchaseID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid purchase id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if _, err := h.shop.Use(ctx, userID, purchaseID, h.now()); err != nil {
		respondShopError(w, err, shop.ActionUse, h.translator(ctx, r, userID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listHabits(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	list, err := h.habits.List(ctx, userID)
	if err != nil {
		respondInternal(w, err, "list habits")
		return
	}
	now := h.now().In(h.loc)
	items := make([]habitResponse, 0, len(list))
	for _, hb := range list {
		items = append(items, toHabitResponse(hb, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *handler) completeHabit(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	habitID, err := uuid.Parse(chi.URLParam(r, "habitID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid habit id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	now := h.now()
	c, err := h.habits.Complete(ctx, userID, habitID, now)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, completionResponse{Habit: toHabitResponse(c.Habit, now.In(h.loc)), Stars: c.Stars})
	case errors.Is(err, common.ErrHabitNotFound):
		writeError(w, http.StatusNotFound, "habit not found")
	case errors.Is(err, common.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "habit already completed today")
	default:
		respondInternal(w, err, "complete habit")
	}
}

func (h *handler) notificationPlan(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	plan, err := h.planner.Preview(ctx, userID, h.translator(ctx, r, userID))
	if err != nil {
		respondInternal(w, err, "notification plan")
		return
	}
	items := make([]notificationResponse, 0, len(plan))
	for _, n := range plan {
		items = append(items, notificationResponse{
			Kind:        string(n.Kind),
			DelayMS:     n.Delay.Milliseconds(),
			Title:       n.Title,
			Description: n.Description,
			Value:       n.Value,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// translator: ?lang= перекрывает язык пользователя, если он поддерживается.
func (h *handler) translator(ctx context.Context, r *http.Request, userID int64) i18n.Translator {
	if lang := r.URL.Query().Get("lang"); i18n.Supported(lang) {
		return i18n.New(lang)
	}
	return h.langs.Translator(ctx, userID)
}

// toHabitResponse: «сегодня» считается в часовом поясе now.
func toHabitResponse(hb *habits.Habit, now time.Time) habitResponse {
	return habitResponse{
		ID:            hb.ID,
		Name:          hb.Name,
		TargetDays:    hb.TargetDays,
		Streak:        hb.Streak,
		LongestStreak: hb.LongestStreak,
		DueToday:      hb.DueOn(now.Weekday()),
		DoneToday:     hb.CompletedOn(common.ISODate(now)),
	}
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(headerUserID(r), 10, 64)
		if err != nil || userID <= 0 {
			writeError(w, http.StatusUnauthorized, "missing user ID")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

func headerUserID(r *http.Request) string {
	if v := r.Header.Get("X-User-ID"); v != "" {
		return v
	}
	return r.Header.Get("x-user-id")
}

func respondShopError(w http.ResponseWriter, err error, action shop.ActionKind, tr i18n.Translator) {
	message := tr.T(shop.FailureKey(err, action))
	switch {
	case errors.Is(err, common.ErrRewardNotFound), errors.Is(err, common.ErrPurchaseNotFound):
		writeError(w, http.StatusNotFound, message)
	case errors.Is(err, common.ErrInsufficientStars),
		errors.Is(err, common.ErrFreezeMonthlyLimit),
		errors.Is(err, common.ErrRewardAlreadyUsed):
		writeError(w, http.StatusConflict, message)
	default:
		respondInternal(w, err, "shop action")
	}
}

func respondInternal(w http.ResponseWriter, err error, op string) {
	log.WithError(err).WithField("op", op).Error("Ошибка HTTP API")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
