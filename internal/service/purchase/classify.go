// internal/service/purchase/classify.go
package purchase

import (
	"strings"

	"skycover-agent/internal/domain/purchase"
	xerrors "skycover-agent/internal/pkg/errors"
)

// classifyChainFailure maps a provider/chain error onto a failure reason by
// sentinel and substring inspection. Providers disagree on error shapes, so
// the substrings cover the common wallet phrasings.
func classifyChainFailure(err error) purchase.FailureReason {
	switch {
	case err == nil:
		return purchase.ReasonNone
	case xerrors.Is(err, xerrors.ErrWalletUnavailable):
		return purchase.ReasonNoProvider
	case xerrors.Is(err, xerrors.ErrUserRejected):
		return purchase.ReasonUserRejected
	case xerrors.Is(err, xerrors.ErrInsufficientFunds):
		return purchase.ReasonInsufficientFunds
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"),
		strings.Contains(msg, "user denied"),
		strings.Contains(msg, "action_rejected"):
		return purchase.ReasonUserRejected
	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "insufficient balance"):
		return purchase.ReasonInsufficientFunds
	case strings.Contains(msg, "no provider"),
		strings.Contains(msg, "provider not"),
		strings.Contains(msg, "not installed"):
		return purchase.ReasonNoProvider
	default:
		return purchase.ReasonUnknown
	}
}

// classifySyncFailure maps a wallet-gate failure. Missing provider is its own
// reason; everything else failed the sync itself.
func classifySyncFailure(err error) purchase.FailureReason {
	if xerrors.Is(err, xerrors.ErrWalletUnavailable) {
		return purchase.ReasonNoProvider
	}
	return purchase.ReasonWalletSyncFailed
}

func failureTitle(reason purchase.FailureReason) string {
	switch reason {
	case purchase.ReasonNoProvider:
		return "Wallet not available"
	case purchase.ReasonUserRejected:
		return "Transaction cancelled"
	case purchase.ReasonInsufficientFunds:
		return "Insufficient funds"
	case purchase.ReasonWalletSyncFailed:
		return "Wallet verification failed"
	case purchase.ReasonWalletAddressChanged:
		return "Wallet changed"
	default:
		return "Purchase failed"
	}
}

func failureMessage(reason purchase.FailureReason) string {
	switch reason {
	case purchase.ReasonNoProvider:
		return "No wallet provider was found. Install or unlock a wallet and try again."
	case purchase.ReasonUserRejected:
		return "You declined the transaction in your wallet. Nothing was charged."
	case purchase.ReasonInsufficientFunds:
		return "Your wallet balance does not cover the premium and gas."
	case purchase.ReasonWalletSyncFailed:
		return "Your wallet address could not be verified. Reconnect your wallet and try again."
	case purchase.ReasonWalletAddressChanged:
		return "Your wallet's active account changed during checkout. Confirm the new account and retry."
	default:
		return "Something went wrong before any payment was made. Please try again."
	}
}
