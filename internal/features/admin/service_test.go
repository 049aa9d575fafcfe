package admin

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/config"
	"serotonyl.ru/habits-bot/internal/features/members"
	"serotonyl.ru/habits-bot/internal/features/shop"
)

func hashPassword(password string) string {
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte(password), salt, 1, 64*1024, 2, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		64*1024, 1, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

type fakeStore struct {
	sessions map[int64]*AdminSession
	failed   map[int64]int
	attempts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[int64]*AdminSession{}, failed: map[int64]int{}}
}

func (f *fakeStore) CreateSession(ctx context.Context, s *AdminSession) error {
	cp := *s
	cp.IsActive = true
	f.sessions[s.UserID] = &cp
	return nil
}

func (f *fakeStore) GetActiveSession(ctx context.Context, userID int64) (*AdminSession, error) {
	s, ok := f.sessions[userID]
	if !ok || !s.IsActive {
		return nil, common.ErrSessionExpired
	}
	return s, nil
}

func (f *fakeStore) DeactivateSession(ctx context.Context, userID int64) error {
	if s, ok := f.sessions[userID]; ok {
		s.IsActive = false
	}
	return nil
}

func (f *fakeStore) UpdateActivity(ctx context.Context, userID int64) error { return nil }

func (f *fakeStore) LogAttempt(ctx context.Context, userID int64, success bool) error {
	f.attempts++
	if !success {
		f.failed[userID]++
	}
	return nil
}

func (f *fakeStore) GetRecentAttempts(ctx context.Context, userID int64, window time.Duration) (int, error) {
	return f.failed[userID], nil
}

func newTestService(store Store) *Service {
	cfg := &config.Config{AdminIDs: []int64{1}, AdminPasswordHash: hashPassword("secret")}
	return NewService(store, cfg)
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("пароль")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$") {
		t.Fatalf("hash = %q", hash)
	}
	if !verifyArgon2id("пароль", hash) || verifyArgon2id("парол", hash) {
		t.Fatal("round trip failed")
	}
	other, _ := HashPassword("пароль")
	if other == hash {
		t.Fatal("salt must be random")
	}
}

func TestVerifyArgon2id(t *testing.T) {
	hash := hashPassword("secret")
	if !verifyArgon2id("secret", hash) {
		t.Fatal("valid password rejected")
	}
	if verifyArgon2id("Secret", hash) {
		t.Fatal("wrong password accepted")
	}
	if verifyArgon2id("secret", "plain-text") {
		t.Fatal("malformed hash accepted")
	}
	if verifyArgon2id("secret", strings.Replace(hash, "argon2id", "argon2i", 1)) {
		t.Fatal("other argon2 variant accepted")
	}
}

func TestLoginFlow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	if err := svc.Login(ctx, 2, "secret"); !errors.Is(err, common.ErrNotAdmin) {
		t.Fatalf("non-admin login: %v", err)
	}
	if err := svc.RequireSession(ctx, 1); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("session before login: %v", err)
	}
	if err := svc.Login(ctx, 1, "nope"); !errors.Is(err, common.ErrWrongPassword) {
		t.Fatalf("wrong password: %v", err)
	}
	if err := svc.Login(ctx, 1, "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.RequireSession(ctx, 1); err != nil {
		t.Fatalf("session after login: %v", err)
	}
	if s := store.sessions[1]; s.SessionToken == "" || time.Until(s.ExpiresAt) < 23*time.Hour {
		t.Fatalf("session = %+v", s)
	}
	if err := svc.Logout(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := svc.RequireSession(ctx, 1); !errors.Is(err, common.ErrSessionExpired) {
		t.Fatalf("session after logout: %v", err)
	}
}

func TestLoginLockout(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	for i := 0; i < maxFailedAttempts; i++ {
		_ = svc.Login(ctx, 1, "bad")
	}
	attempts := store.attempts
	if err := svc.Login(ctx, 1, "secret"); !errors.Is(err, common.ErrTooManyAttempts) {
		t.Fatalf("expected lockout, got %v", err)
	}
	if store.attempts != attempts {
		t.Fatal("locked-out attempt must not be checked or logged")
	}
}

func TestStateExpires(t *testing.T) {
	svc := newTestService(newFakeStore())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.SetState(1, StateAwaitingPassword)
	if st := svc.GetState(1); st == nil || st.State != StateAwaitingPassword {
		t.Fatalf("state = %+v", st)
	}
	now = now.Add(stateTTL + time.Second)
	if st := svc.GetState(1); st != nil {
		t.Fatalf("expired state returned: %+v", st)
	}
}

func TestParseAddReward(t *testing.T) {
	e, err := parseAddReward("FREEZE 30 Заморозка серий | Серии не сгорят")
	if err != nil {
		t.Fatal(err)
	}
	if e.RewardType != shop.RewardFreeze || e.PriceStars != 30 || e.Name != "Заморозка серий" || e.Description != "Серии не сгорят" {
		t.Fatalf("entry = %+v", e)
	}

	e, err = parseAddReward("stickers 5 Набор стикеров")
	if err != nil || e.Description != "" || e.RewardType != "stickers" {
		t.Fatalf("entry without description = %+v, %v", e, err)
	}

	for _, bad := range []string{"", "theme 10", "theme ten Тема", "theme -1 Тема"} {
		if _, err := parseAddReward(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestParseGrant(t *testing.T) {
	target, amount, err := parseGrant([]string{"@kate", "15"})
	if err != nil || target != "@kate" || amount != 15 {
		t.Fatalf("parseGrant = %q %d %v", target, amount, err)
	}
	for _, bad := range [][]string{nil, {"@kate"}, {"@kate", "0"}, {"@kate", "x"}, {"1", "2", "3"}} {
		if _, _, err := parseGrant(bad); err == nil {
			t.Errorf("%v accepted", bad)
		}
	}
}

type fakeSender struct {
	texts []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

type fakeWallet struct {
	balances map[int64]int64
}

func (f *fakeWallet) AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	f.balances[userID] += amount
	return nil
}

func (f *fakeWallet) DeductBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	if f.balances[userID] < amount {
		return common.ErrInsufficientStars
	}
	f.balances[userID] -= amount
	return nil
}

type fakeDirectory struct{}

func (fakeDirectory) GetByUserID(ctx context.Context, userID int64) (*members.Member, error) {
	if userID == 7 {
		return &members.Member{UserID: 7, Username: "kate"}, nil
	}
	return nil, common.ErrUserNotFound
}

func (fakeDirectory) GetByUsername(ctx context.Context, username string) (*members.Member, error) {
	if strings.TrimPrefix(username, "@") == "kate" {
		return &members.Member{UserID: 7, Username: "kate"}, nil
	}
	return nil, common.ErrUserNotFound
}

type fakeCatalog struct {
	added []shop.CatalogEntry
}

func (f *fakeCatalog) AddReward(ctx context.Context, e shop.CatalogEntry) (*shop.ShopReward, error) {
	f.added = append(f.added, e)
	return &shop.ShopReward{ID: uuid.New(), Name: e.Name, RewardType: e.RewardType, PriceStars: e.PriceStars}, nil
}

func (f *fakeCatalog) HideReward(ctx context.Context, id uuid.UUID) error {
	return common.ErrRewardNotFound
}

func TestHandlerRequiresSession(t *testing.T) {
	svc := newTestService(newFakeStore())
	sender := &fakeSender{}
	catalog := &fakeCatalog{}
	wallet := &fakeWallet{balances: map[int64]int64{}}
	h := NewHandler(svc, catalog, wallet, fakeDirectory{}, sender)
	ctx := context.Background()

	h.HandleCommand(ctx, 1, 1, "grant", "@kate 10")
	if wallet.balances[7] != 0 {
		t.Fatal("grant without session applied")
	}

	h.HandleCommand(ctx, 1, 1, "login", "")
	if !h.HandleText(ctx, 1, 1, "secret") {
		t.Fatal("password input not consumed")
	}
	if h.HandleText(ctx, 1, 1, "hello") {
		t.Fatal("plain text consumed after login")
	}

	h.HandleCommand(ctx, 1, 1, "grant", "@kate 10")
	h.HandleCommand(ctx, 1, 1, "take", "7 4")
	if wallet.balances[7] != 6 {
		t.Fatalf("balance = %d", wallet.balances[7])
	}
	h.HandleCommand(ctx, 1, 1, "take", "7 100")
	if wallet.balances[7] != 6 {
		t.Fatal("overdraft applied")
	}

	h.HandleCommand(ctx, 1, 1, "addreward", "theme 50 Тёмная тема")
	if len(catalog.added) != 1 || catalog.added[0].Name != "Тёмная тема" {
		t.Fatalf("catalog = %+v", catalog.added)
	}

	last := sender.texts[len(sender.texts)-1]
	if !strings.HasPrefix(last, "✅ 🎨 Тёмная тема · 50 ⭐") {
		t.Fatalf("reply = %q", last)
	}
}

func TestHandlerIgnoresNonAdmin(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(newTestService(newFakeStore()), &fakeCatalog{}, &fakeWallet{balances: map[int64]int64{}}, fakeDirectory{}, sender)
	h.HandleCommand(context.Background(), 5, 5, "login", "secret")
	if len(sender.texts) != 0 {
		t.Fatalf("non-admin got replies: %v", sender.texts)
	}
}
