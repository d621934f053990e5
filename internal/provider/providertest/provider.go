// internal/provider/providertest/provider.go
package providertest

import (
	"context"
	"fmt"
	"sync"

	"skycover-agent/internal/provider"
)

// Provider is a scriptable in-memory wallet provider for tests. Accounts can
// be swapped at any time; EmitAccountsChanged drives the subscription stream.
type Provider struct {
	mu       sync.Mutex
	accounts []string

	RequestErr error
	ListErr    error
	SignerErr  error
	SendErr    error
	WaitErr    error

	// NextHash is the hash the next submitted transaction reports.
	NextHash string

	// SentRequests records every TxRequest passed to SendTransaction.
	SentRequests []provider.TxRequest

	accountsCh chan []string
}

func New(accounts ...string) *Provider {
	return &Provider{
		accounts:   accounts,
		NextHash:   "0xdeadbeef",
		accountsCh: make(chan []string, 8),
	}
}

// SetAccounts replaces the authorized account set without emitting an event.
func (p *Provider) SetAccounts(accounts ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = accounts
}

// EmitAccountsChanged swaps the account set and delivers the change event.
func (p *Provider) EmitAccountsChanged(accounts ...string) {
	p.SetAccounts(accounts...)
	p.accountsCh <- accounts
}

func (p *Provider) RequestAccounts(_ context.Context) ([]string, error) {
	if p.RequestErr != nil {
		return nil, p.RequestErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.accounts...), nil
}

func (p *Provider) ListAccounts(_ context.Context) ([]string, error) {
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.accounts...), nil
}

func (p *Provider) Signer(_ context.Context) (provider.Signer, error) {
	if p.SignerErr != nil {
		return nil, p.SignerErr
	}
	return &fakeSigner{provider: p}, nil
}

func (p *Provider) AccountsChanged() <-chan []string {
	return p.accountsCh
}

type fakeSigner struct {
	provider *Provider
}

func (s *fakeSigner) Address(_ context.Context) (string, error) {
	p := s.provider
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.accounts) == 0 {
		return "", fmt.Errorf("no account selected")
	}
	return p.accounts[0], nil
}

func (s *fakeSigner) SendTransaction(_ context.Context, req provider.TxRequest) (provider.TxHandle, error) {
	p := s.provider
	p.mu.Lock()
	p.SentRequests = append(p.SentRequests, req)
	p.mu.Unlock()
	if p.SendErr != nil {
		return nil, p.SendErr
	}
	return &fakeTxHandle{hash: p.NextHash, waitErr: p.WaitErr}, nil
}

type fakeTxHandle struct {
	hash    string
	waitErr error
}

func (h *fakeTxHandle) Hash() string { return h.hash }

func (h *fakeTxHandle) Wait(_ context.Context) error { return h.waitErr }
