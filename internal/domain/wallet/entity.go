// internal/domain/wallet/entity.go
package wallet

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Binding is the locally trusted mapping from the current session to an
// external wallet address. Address is empty when no wallet is bound.
type Binding struct {
	Address      string `json:"address"`
	IsConnecting bool   `json:"is_connecting"`
	IsLoading    bool   `json:"is_loading"`
}

// IsConnected is derived state: a binding with a non-empty address.
func (b Binding) IsConnected() bool {
	return b.Address != ""
}

// ValidAddress reports whether s is a well-formed Ethereum address
// (0x prefix plus 40 hex characters).
func ValidAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	return common.IsHexAddress(s)
}

// SameAddress compares two addresses ignoring checksum casing.
func SameAddress(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	if !common.IsHexAddress(a) || !common.IsHexAddress(b) {
		return strings.EqualFold(a, b)
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}

// DTOs

type UpdateRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}
