// internal/provider/provider.go
package provider

import (
	"context"
	"math/big"
)

// TxRequest is a raw transaction to be signed and submitted by a Signer.
// GasLimit is always set explicitly by callers; gas estimation failures must
// not be able to block a purchase.
type TxRequest struct {
	To       string
	Value    *big.Int
	GasLimit uint64
	Data     []byte
}

// TxHandle is a submitted transaction. Wait blocks until the transaction is
// confirmed and returns an error when it was mined but reverted.
type TxHandle interface {
	Hash() string
	Wait(ctx context.Context) error
}

// Signer exposes the selected account and transaction submission.
type Signer interface {
	Address(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, req TxRequest) (TxHandle, error)
}

// Provider is the external wallet collaborator. Implementations own account
// authorization; the agent only observes it.
//
// AccountsChanged delivers the authorized account set whenever it changes.
// An empty slice signals a full disconnect. The channel is closed when the
// provider shuts down.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	ListAccounts(ctx context.Context) ([]string, error)
	Signer(ctx context.Context) (Signer, error)
	AccountsChanged() <-chan []string
}
