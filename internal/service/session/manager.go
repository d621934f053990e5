// internal/service/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"skycover-agent/internal/domain/notification"
	"skycover-agent/internal/domain/session"
	xerrors "skycover-agent/internal/pkg/errors"
	"skycover-agent/internal/pkg/jwt"
	"skycover-agent/internal/pkg/tokenstore"

	"go.uber.org/zap"
)

// TokenValidator checks the credential against the backend. nil = confirmed
// valid, ErrAuthExpired = explicitly rejected, ErrNetworkTransient = server
// unreachable (the manager fails open on that).
type TokenValidator interface {
	ValidateToken(ctx context.Context) error
}

// Notifier receives user-facing events.
type Notifier interface {
	Publish(n *notification.Notification)
}

// Options tune the revalidation schedule. Tests inject short intervals.
type Options struct {
	RevalidateInterval time.Duration
	ActivityDebounce   time.Duration
	StartDelay         time.Duration
}

func (o *Options) withDefaults() {
	if o.RevalidateInterval <= 0 {
		o.RevalidateInterval = 3 * time.Minute
	}
	if o.ActivityDebounce <= 0 {
		o.ActivityDebounce = time.Second
	}
	if o.StartDelay < 0 {
		o.StartDelay = 0
	}
}

// Manager owns authentication state: it is the only writer of the session
// snapshot and the persisted credential. Tokens are validated locally
// (expiry) and remotely (server check), on a periodic timer and after bursts
// of user activity.
type Manager struct {
	store     tokenstore.Store
	validator TokenValidator
	notifier  Notifier
	logger    *zap.Logger
	opts      Options

	// onSessionEnd tells the wallet binder a dead session must not keep a
	// bound wallet. This is the single intentional coupling point between
	// the two state owners.
	onSessionEnd func()

	mu    sync.Mutex
	sess  session.Session
	cred  *session.Credential
	sched chan struct{} // close cancels the active schedule; nil when idle

	activityCh chan struct{}
}

func NewManager(store tokenstore.Store, validator TokenValidator, notifier Notifier, logger *zap.Logger, opts Options) *Manager {
	opts.withDefaults()
	return &Manager{
		store:      store,
		validator:  validator,
		notifier:   notifier,
		logger:     logger,
		opts:       opts,
		sess:       session.Session{Loading: true},
		activityCh: make(chan struct{}, 1),
	}
}

// SetSessionEndCallback wires the wallet binder's disconnect handler. Must be
// called before Initialize.
func (m *Manager) SetSessionEndCallback(fn func()) {
	m.onSessionEnd = fn
}

// Session returns a read-only snapshot of the derived state.
func (m *Manager) Session() session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.sess
	if m.sess.User != nil {
		u := *m.sess.User
		snap.User = &u
	}
	return snap
}

// Authenticated reports whether a live session exists.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.IsAuthenticated
}

// Token returns the current bearer token, or "" without a session.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return ""
	}
	return m.cred.Token
}

// Initialize loads the persisted credential and settles the session state.
// Loading flips to false exactly once, on every path.
func (m *Manager) Initialize(ctx context.Context) error {
	defer m.finishLoading()

	token, err := m.store.Get(ctx, tokenstore.KeyAuthToken)
	if xerrors.Is(err, tokenstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		m.logger.Warn("failed to read persisted credential", zap.Error(err))
		return nil
	}

	cred, err := m.buildCredential(token, m.loadPersistedUser(ctx))
	if err != nil {
		m.logger.Warn("discarding undecodable persisted credential", zap.Error(err))
		m.clearPersisted(ctx)
		return nil
	}

	if cred.Expired(time.Now()) {
		m.clearPersisted(ctx)
		m.notifier.Publish(notification.New(notification.SeverityWarning,
			"Session expired", "Your session has expired. Please log in again.", nil))
		return nil
	}

	m.mu.Lock()
	m.cred = cred
	m.sess.IsAuthenticated = true
	m.sess.User = cred.User
	m.startScheduleLocked()
	m.mu.Unlock()
	return nil
}

// Login persists the credential and starts revalidation. Any prior schedule
// is cancelled first, so repeated logins never stack timers.
func (m *Manager) Login(ctx context.Context, token string, user *session.User) error {
	cred, err := m.buildCredential(token, user)
	if err != nil {
		return xerrors.Wrap(err, "invalid login token")
	}

	if err := m.store.Set(ctx, tokenstore.KeyAuthToken, token); err != nil {
		return xerrors.Wrap(err, "failed to persist credential")
	}
	if cred.User != nil {
		if data, err := json.Marshal(cred.User); err == nil {
			if err := m.store.Set(ctx, tokenstore.KeyUserData, string(data)); err != nil {
				m.logger.Warn("failed to persist user data", zap.Error(err))
			}
		}
	}

	m.mu.Lock()
	m.cred = cred
	m.sess.IsAuthenticated = true
	m.sess.User = cred.User
	m.sess.Loading = false
	m.startScheduleLocked()
	m.mu.Unlock()
	return nil
}

// Logout tears the session down: credential and wallet hint cleared, all
// timers cancelled synchronously, wallet binder signalled.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.cancelScheduleLocked()
	m.cred = nil
	m.sess.IsAuthenticated = false
	m.sess.User = nil
	m.mu.Unlock()

	m.clearPersisted(ctx)
	if err := m.store.Remove(ctx, tokenstore.KeyWalletAddress); err != nil {
		m.logger.Warn("failed to clear wallet hint", zap.Error(err))
	}

	if m.onSessionEnd != nil {
		m.onSessionEnd()
	}
}

// Activity records a user-activity signal. One validation fires per quiet
// period after a burst of these.
func (m *Manager) Activity() {
	select {
	case m.activityCh <- struct{}{}:
	default:
	}
}

// ValidateNow checks the credential immediately. No-op without a session.
// Local expiry and explicit server rejection end the session; a transport
// failure is treated as valid (fail-open) so connectivity gaps do not log
// users out.
func (m *Manager) ValidateNow(ctx context.Context) {
	m.mu.Lock()
	if !m.sess.IsAuthenticated || m.cred == nil {
		m.mu.Unlock()
		return
	}
	cred := m.cred
	m.mu.Unlock()

	if cred.Expired(time.Now()) {
		m.expire(ctx)
		return
	}

	err := m.validator.ValidateToken(ctx)
	switch {
	case err == nil:
	case xerrors.Is(err, xerrors.ErrNetworkTransient):
		m.logger.Debug("token validation skipped, server unreachable", zap.Error(err))
	default:
		m.expire(ctx)
	}
}

// expire funnels every terminal auth failure through one path: logout plus
// notification. A logout that raced ahead of us wins and suppresses both.
func (m *Manager) expire(ctx context.Context) {
	m.mu.Lock()
	if !m.sess.IsAuthenticated {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.Logout(ctx)
	m.notifier.Publish(notification.New(notification.SeverityWarning,
		"Session expired", "Your session has expired. Please log in again.", nil))
}

func (m *Manager) buildCredential(token string, user *session.User) (*session.Credential, error) {
	claims, err := jwt.Decode(token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &session.User{
			ID:    claims.Subject,
			Email: claims.Email,
			Name:  claims.Name,
		}
	}
	return &session.Credential{
		Token:  token,
		User:   user,
		Expiry: claims.Expiry(),
	}, nil
}

func (m *Manager) loadPersistedUser(ctx context.Context) *session.User {
	data, err := m.store.Get(ctx, tokenstore.KeyUserData)
	if err != nil {
		return nil
	}
	var user session.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		m.logger.Warn("discarding unparsable persisted user", zap.Error(err))
		return nil
	}
	return &user
}

func (m *Manager) clearPersisted(ctx context.Context) {
	if err := m.store.Remove(ctx, tokenstore.KeyAuthToken); err != nil {
		m.logger.Warn("failed to clear credential", zap.Error(err))
	}
	if err := m.store.Remove(ctx, tokenstore.KeyUserData); err != nil {
		m.logger.Warn("failed to clear user data", zap.Error(err))
	}
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	m.sess.Loading = false
	m.mu.Unlock()
}

// startScheduleLocked replaces the active schedule with a fresh one. Caller
// holds m.mu. The previous schedule is always cancelled first, so at most one
// periodic timer and one debounce timer exist per session.
func (m *Manager) startScheduleLocked() {
	m.cancelScheduleLocked()
	stop := make(chan struct{})
	m.sched = stop
	go m.scheduleLoop(stop)
}

func (m *Manager) cancelScheduleLocked() {
	if m.sched != nil {
		close(m.sched)
		m.sched = nil
	}
}

func (m *Manager) scheduleLoop(stop chan struct{}) {
	// Short delay before the first validation so a login or page load is not
	// immediately raced by a server round-trip.
	if m.opts.StartDelay > 0 {
		select {
		case <-time.After(m.opts.StartDelay):
		case <-stop:
			return
		}
	}

	ticker := time.NewTicker(m.opts.RevalidateInterval)
	defer ticker.Stop()

	debounce := time.NewTimer(m.opts.ActivityDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-stop:
			return

		case <-ticker.C:
			m.ValidateNow(context.Background())

		case <-m.activityCh:
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(m.opts.ActivityDebounce)

		case <-debounce.C:
			m.ValidateNow(context.Background())
		}
	}
}
