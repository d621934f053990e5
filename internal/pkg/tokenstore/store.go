// internal/pkg/tokenstore/store.go
package tokenstore

import (
	"context"
	"errors"
)

// Fixed keys for the agent's durable state. These are the only keys the
// agent writes; each operation is single-key and assumed atomic.
const (
	KeyAuthToken     = "auth:token"
	KeyUserData      = "auth:user"
	KeyWalletAddress = "wallet:address"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("tokenstore: key not found")

// Store is opaque key-value persistence for the credential token, the
// serialized user and the wallet-address hint.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
