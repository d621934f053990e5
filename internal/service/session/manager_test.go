package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"skycover-agent/internal/domain/notification"
	sessionDomain "skycover-agent/internal/domain/session"
	xerrors "skycover-agent/internal/pkg/errors"
	"skycover-agent/internal/pkg/tokenstore"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type fakeValidator struct {
	err   error
	calls int32
}

func (v *fakeValidator) ValidateToken(_ context.Context) error {
	atomic.AddInt32(&v.calls, 1)
	return v.err
}

func (v *fakeValidator) callCount() int32 {
	return atomic.LoadInt32(&v.calls)
}

type fakeNotifier struct {
	mu        sync.Mutex
	published []*notification.Notification
}

func (n *fakeNotifier) Publish(msg *notification.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, msg)
}

func (n *fakeNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var titles []string
	for _, msg := range n.published {
		titles = append(titles, msg.Title)
	}
	return titles
}

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"name":  "Test User",
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

func newTestManager(validator TokenValidator, notifier Notifier, opts Options) (*Manager, tokenstore.Store) {
	store := tokenstore.NewMemoryStore()
	return NewManager(store, validator, notifier, zap.NewNop(), opts), store
}

func TestInitialize_NoCredential(t *testing.T) {
	m, _ := newTestManager(&fakeValidator{}, &fakeNotifier{}, Options{})

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	sess := m.Session()
	if sess.IsAuthenticated {
		t.Error("IsAuthenticated = true, want false")
	}
	if sess.Loading {
		t.Error("Loading = true after Initialize, want false")
	}
}

func TestInitialize_ExpiredCredential(t *testing.T) {
	notifier := &fakeNotifier{}
	m, store := newTestManager(&fakeValidator{}, notifier, Options{})
	ctx := context.Background()

	expired := makeToken(t, time.Now().Add(-time.Hour))
	if err := store.Set(ctx, tokenstore.KeyAuthToken, expired); err != nil {
		t.Fatal(err)
	}

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if m.Authenticated() {
		t.Error("Authenticated() = true with an expired credential")
	}
	if _, err := store.Get(ctx, tokenstore.KeyAuthToken); !xerrors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("persisted token not cleared, err = %v", err)
	}
	titles := notifier.titles()
	if len(titles) != 1 || titles[0] != "Session expired" {
		t.Errorf("notifications = %v, want one expiry notice", titles)
	}
}

func TestInitialize_UndecodableCredential(t *testing.T) {
	m, store := newTestManager(&fakeValidator{}, &fakeNotifier{}, Options{})
	ctx := context.Background()

	if err := store.Set(ctx, tokenstore.KeyAuthToken, "not-a-jwt"); err != nil {
		t.Fatal(err)
	}

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if m.Authenticated() {
		t.Error("Authenticated() = true with an undecodable credential")
	}
	if _, err := store.Get(ctx, tokenstore.KeyAuthToken); !xerrors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("persisted garbage not cleared, err = %v", err)
	}
}

func TestInitialize_ValidCredential(t *testing.T) {
	m, store := newTestManager(&fakeValidator{}, &fakeNotifier{}, Options{StartDelay: time.Hour})
	ctx := context.Background()

	token := makeToken(t, time.Now().Add(time.Hour))
	if err := store.Set(ctx, tokenstore.KeyAuthToken, token); err != nil {
		t.Fatal(err)
	}

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer m.Logout(ctx)

	if !m.Authenticated() {
		t.Fatal("Authenticated() = false after restoring a valid credential")
	}
	if m.Token() != token {
		t.Error("Token() does not return the restored credential")
	}
	sess := m.Session()
	if sess.User == nil || sess.User.Email != "user@example.com" {
		t.Errorf("User = %+v, want claims-derived user", sess.User)
	}
}

func TestLogin_InvalidToken(t *testing.T) {
	m, _ := newTestManager(&fakeValidator{}, &fakeNotifier{}, Options{})

	if err := m.Login(context.Background(), "garbage", nil); err == nil {
		t.Error("Login() error = nil for an undecodable token")
	}
	if m.Authenticated() {
		t.Error("Authenticated() = true after a failed login")
	}
}

func TestLoginLogout(t *testing.T) {
	m, store := newTestManager(&fakeValidator{}, &fakeNotifier{}, Options{StartDelay: time.Hour})
	ctx := context.Background()

	var sessionEnded int32
	m.SetSessionEndCallback(func() { atomic.AddInt32(&sessionEnded, 1) })

	token := makeToken(t, time.Now().Add(time.Hour))
	user := &sessionDomain.User{ID: "user-1", Email: "user@example.com", Name: "Test User"}
	if err := m.Login(ctx, token, user); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if !m.Authenticated() {
		t.Fatal("Authenticated() = false after login")
	}
	if got, err := store.Get(ctx, tokenstore.KeyAuthToken); err != nil || got != token {
		t.Errorf("persisted token = %q, %v", got, err)
	}

	m.Logout(ctx)

	if m.Authenticated() {
		t.Error("Authenticated() = true after logout")
	}
	if m.Token() != "" {
		t.Error("Token() non-empty after logout")
	}
	if _, err := store.Get(ctx, tokenstore.KeyAuthToken); !xerrors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("token survived logout, err = %v", err)
	}
	if _, err := store.Get(ctx, tokenstore.KeyWalletAddress); !xerrors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("wallet hint survived logout, err = %v", err)
	}
	if atomic.LoadInt32(&sessionEnded) != 1 {
		t.Errorf("session end callback fired %d times, want 1", sessionEnded)
	}
}

func TestValidateNow_FailOpen(t *testing.T) {
	validator := &fakeValidator{err: xerrors.Wrap(xerrors.ErrNetworkTransient, "connection refused")}
	m, _ := newTestManager(validator, &fakeNotifier{}, Options{StartDelay: time.Hour})
	ctx := context.Background()

	if err := m.Login(ctx, makeToken(t, time.Now().Add(time.Hour)), nil); err != nil {
		t.Fatal(err)
	}
	defer m.Logout(ctx)

	m.ValidateNow(ctx)

	if !m.Authenticated() {
		t.Error("Authenticated() = false after a transient validation failure, want fail-open")
	}
}

func TestValidateNow_ServerRejection(t *testing.T) {
	validator := &fakeValidator{err: xerrors.Wrap(xerrors.ErrAuthExpired, "server returned 401")}
	notifier := &fakeNotifier{}
	m, _ := newTestManager(validator, notifier, Options{StartDelay: time.Hour})
	ctx := context.Background()

	if err := m.Login(ctx, makeToken(t, time.Now().Add(time.Hour)), nil); err != nil {
		t.Fatal(err)
	}

	m.ValidateNow(ctx)

	if m.Authenticated() {
		t.Error("Authenticated() = true after the server rejected the token")
	}
	titles := notifier.titles()
	if len(titles) != 1 || titles[0] != "Session expired" {
		t.Errorf("notifications = %v, want one expiry notice", titles)
	}
}

func TestValidateNow_LocalExpiry(t *testing.T) {
	validator := &fakeValidator{}
	m, _ := newTestManager(validator, &fakeNotifier{}, Options{StartDelay: time.Hour})
	ctx := context.Background()

	if err := m.Login(ctx, makeToken(t, time.Now().Add(50*time.Millisecond)), nil); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	m.ValidateNow(ctx)

	if m.Authenticated() {
		t.Error("Authenticated() = true past the token's expiry")
	}
	if validator.callCount() != 0 {
		t.Error("server validation ran for a locally expired token")
	}
}

func TestActivity_DebouncesToOneValidation(t *testing.T) {
	validator := &fakeValidator{}
	m, _ := newTestManager(validator, &fakeNotifier{}, Options{
		RevalidateInterval: time.Hour,
		ActivityDebounce:   30 * time.Millisecond,
	})
	ctx := context.Background()

	if err := m.Login(ctx, makeToken(t, time.Now().Add(time.Hour)), nil); err != nil {
		t.Fatal(err)
	}
	defer m.Logout(ctx)

	for i := 0; i < 10; i++ {
		m.Activity()
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := validator.callCount(); got != 1 {
		t.Errorf("validator called %d times after an activity burst, want 1", got)
	}
}

func TestLogout_CancelsPendingValidation(t *testing.T) {
	validator := &fakeValidator{}
	m, _ := newTestManager(validator, &fakeNotifier{}, Options{
		RevalidateInterval: 40 * time.Millisecond,
		ActivityDebounce:   20 * time.Millisecond,
	})
	ctx := context.Background()

	if err := m.Login(ctx, makeToken(t, time.Now().Add(time.Hour)), nil); err != nil {
		t.Fatal(err)
	}
	m.Activity()
	m.Logout(ctx)

	time.Sleep(120 * time.Millisecond)

	if got := validator.callCount(); got != 0 {
		t.Errorf("validator called %d times after logout, want 0", got)
	}
}

func TestRepeatedLogin_SingleSchedule(t *testing.T) {
	validator := &fakeValidator{}
	m, _ := newTestManager(validator, &fakeNotifier{}, Options{
		RevalidateInterval: time.Hour,
		ActivityDebounce:   30 * time.Millisecond,
	})
	ctx := context.Background()

	token := makeToken(t, time.Now().Add(time.Hour))
	for i := 0; i < 3; i++ {
		if err := m.Login(ctx, token, nil); err != nil {
			t.Fatal(err)
		}
	}
	defer m.Logout(ctx)

	m.Activity()
	time.Sleep(150 * time.Millisecond)

	if got := validator.callCount(); got != 1 {
		t.Errorf("validator called %d times, want 1 (stacked schedules)", got)
	}
}
