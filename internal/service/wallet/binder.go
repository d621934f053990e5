// internal/service/wallet/binder.go
package wallet

import (
	"context"
	"sync"

	"skycover-agent/internal/domain/notification"
	"skycover-agent/internal/domain/wallet"
	xerrors "skycover-agent/internal/pkg/errors"
	"skycover-agent/internal/pkg/tokenstore"
	"skycover-agent/internal/provider"

	"go.uber.org/zap"
)

// WalletUpdater pushes the bound address to the backend identity record.
type WalletUpdater interface {
	UpdateWalletAddress(ctx context.Context, address string) error
}

// SessionChecker reports whether a live session exists. Backend pushes only
// happen with one.
type SessionChecker interface {
	Authenticated() bool
}

// Notifier receives user-facing events.
type Notifier interface {
	Publish(n *notification.Notification)
}

// Binder owns the locally observed wallet address and keeps it reconciled
// against the external provider. Passive paths (initialize, provider events)
// are best-effort; Sync is the hard pre-transaction gate.
type Binder struct {
	provider provider.Provider // nil when no wallet provider is installed
	store    tokenstore.Store
	backend  WalletUpdater
	session  SessionChecker
	notifier Notifier
	logger   *zap.Logger

	mu           sync.Mutex
	address      string
	isConnecting bool
	isLoading    bool

	// epoch orders binder writes: a provider event bumps it, and any
	// in-flight read started before the bump is discarded on commit.
	// Last observed account wins.
	epoch uint64
}

func NewBinder(p provider.Provider, store tokenstore.Store, backend WalletUpdater, session SessionChecker, notifier Notifier, logger *zap.Logger) *Binder {
	return &Binder{
		provider: p,
		store:    store,
		backend:  backend,
		session:  session,
		notifier: notifier,
		logger:   logger,
	}
}

// Binding returns a read-only snapshot.
func (b *Binder) Binding() wallet.Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	return wallet.Binding{
		Address:      b.address,
		IsConnecting: b.isConnecting,
		IsLoading:    b.isLoading,
	}
}

// Address returns the bound address, or "".
func (b *Binder) Address() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.address
}

// Initialize restores a persisted address hint, but only after the provider
// confirms that exact address is still authorized. A stale hint is discarded.
func (b *Binder) Initialize(ctx context.Context) {
	b.mu.Lock()
	b.isLoading = true
	epoch := b.epoch
	b.mu.Unlock()
	defer b.finishLoading()

	hint, err := b.store.Get(ctx, tokenstore.KeyWalletAddress)
	if err != nil {
		if !xerrors.Is(err, tokenstore.ErrNotFound) {
			b.logger.Warn("failed to read wallet hint", zap.Error(err))
		}
		return
	}
	if b.provider == nil {
		return
	}

	accounts, err := b.provider.ListAccounts(ctx)
	if err != nil {
		b.logger.Warn("failed to list provider accounts", zap.Error(err))
		return
	}
	for _, account := range accounts {
		if wallet.SameAddress(account, hint) {
			b.bindIfCurrent(ctx, epoch, hint)
			return
		}
	}

	// Hint no longer authorized by the provider.
	if err := b.store.Remove(ctx, tokenstore.KeyWalletAddress); err != nil {
		b.logger.Warn("failed to discard stale wallet hint", zap.Error(err))
	}
}

// Connect requests account access and binds the resulting signer address.
// A backend push failure is a soft warning: it never unwinds a successful
// wallet connection.
func (b *Binder) Connect(ctx context.Context) (string, error) {
	if b.provider == nil {
		return "", xerrors.ErrWalletUnavailable
	}

	b.mu.Lock()
	b.isConnecting = true
	epoch := b.epoch
	b.mu.Unlock()
	defer b.finishConnecting()

	if _, err := b.provider.RequestAccounts(ctx); err != nil {
		return "", xerrors.Wrap(err, "wallet access request failed")
	}

	signer, err := b.provider.Signer(ctx)
	if err != nil {
		return "", xerrors.Wrap(err, "failed to obtain signer")
	}
	address, err := signer.Address(ctx)
	if err != nil {
		return "", xerrors.Wrap(err, "failed to read signer address")
	}

	if !b.bindIfCurrent(ctx, epoch, address) {
		// A provider event rebound the wallet while we were connecting;
		// its observation is newer than ours.
		return b.Address(), nil
	}
	return address, nil
}

// Disconnect clears the bound address and its persisted hint. The provider's
// own authorization is out of this component's control and is left alone.
func (b *Binder) Disconnect(ctx context.Context) {
	b.mu.Lock()
	b.address = ""
	b.epoch++
	b.mu.Unlock()

	if err := b.store.Remove(ctx, tokenstore.KeyWalletAddress); err != nil {
		b.logger.Warn("failed to clear wallet hint", zap.Error(err))
	}
}

// HandleSessionEnd clears the bound address without touching the provider.
// Wired to the session manager's logout path: a wallet bound to a dead
// session must not remain silently bound.
func (b *Binder) HandleSessionEnd() {
	b.mu.Lock()
	b.address = ""
	b.epoch++
	b.mu.Unlock()
}

// Run consumes the provider's account-change stream until ctx ends. Events
// are handled strictly in order.
func (b *Binder) Run(ctx context.Context) {
	if b.provider == nil {
		return
	}
	changes := b.provider.AccountsChanged()
	for {
		select {
		case <-ctx.Done():
			return
		case accounts, ok := <-changes:
			if !ok {
				return
			}
			b.handleAccountsChanged(ctx, accounts)
		}
	}
}

func (b *Binder) handleAccountsChanged(ctx context.Context, accounts []string) {
	if len(accounts) == 0 {
		b.Disconnect(ctx)
		return
	}

	next := accounts[0]
	b.mu.Lock()
	same := wallet.SameAddress(b.address, next)
	b.epoch++
	epoch := b.epoch
	b.mu.Unlock()
	if same {
		return
	}

	// Passive path: push failures are logged, never thrown.
	b.bindIfCurrent(ctx, epoch, next)
}

// Sync reads the provider's current signer address and forces the binding to
// match it. Unlike the passive paths, a backend push failure here propagates:
// this is the correctness gate before an irreversible purchase transaction.
func (b *Binder) Sync(ctx context.Context) (string, error) {
	if b.provider == nil {
		return "", xerrors.ErrWalletUnavailable
	}

	b.mu.Lock()
	epoch := b.epoch
	bound := b.address
	b.mu.Unlock()

	signer, err := b.provider.Signer(ctx)
	if err != nil {
		return "", xerrors.Wrap(err, "failed to obtain signer")
	}
	current, err := signer.Address(ctx)
	if err != nil {
		return "", xerrors.Wrap(err, "failed to read signer address")
	}

	if wallet.SameAddress(bound, current) {
		return current, nil
	}

	b.logger.Info("wallet address drifted, rebinding",
		zap.String("bound", bound),
		zap.String("current", current))

	if !b.commitIfCurrent(epoch, current) {
		return b.Address(), nil
	}
	if err := b.store.Set(ctx, tokenstore.KeyWalletAddress, current); err != nil {
		b.logger.Warn("failed to persist wallet hint", zap.Error(err))
	}
	if b.session.Authenticated() {
		if err := b.backend.UpdateWalletAddress(ctx, current); err != nil {
			return "", xerrors.Wrap(err, "failed to sync wallet address to backend")
		}
	}
	return current, nil
}

// bindIfCurrent commits an observed address unless a newer observation got
// there first, then persists it and pushes it to the backend when a session
// exists. Push failures are soft unless the caller said otherwise.
func (b *Binder) bindIfCurrent(ctx context.Context, epoch uint64, address string) bool {
	if !b.commitIfCurrent(epoch, address) {
		return false
	}

	if err := b.store.Set(ctx, tokenstore.KeyWalletAddress, address); err != nil {
		b.logger.Warn("failed to persist wallet hint", zap.Error(err))
	}

	if b.session.Authenticated() {
		if err := b.backend.UpdateWalletAddress(ctx, address); err != nil {
			b.logger.Warn("failed to push wallet address to backend", zap.Error(err))
			b.notifier.Publish(notification.New(notification.SeverityWarning,
				"Wallet sync incomplete",
				"Wallet connected, but the address could not be saved to your account.", nil))
		}
	}
	return true
}

// commitIfCurrent writes the address only when no newer observation has
// superseded epoch.
func (b *Binder) commitIfCurrent(epoch uint64, address string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.epoch != epoch {
		return false
	}
	b.address = address
	return true
}

func (b *Binder) finishLoading() {
	b.mu.Lock()
	b.isLoading = false
	b.mu.Unlock()
}

func (b *Binder) finishConnecting() {
	b.mu.Lock()
	b.isConnecting = false
	b.mu.Unlock()
}
