// internal/domain/purchase/entity.go
package purchase

import (
	"time"

	"skycover-agent/internal/domain/policy"
)

// State is one step of the purchase flow. An attempt moves strictly forward;
// Failed absorbs from any non-terminal state.
type State string

const (
	StateIdle             State = "idle"
	StateWalletVerifying  State = "wallet_verifying"
	StateChainSubmitting  State = "chain_submitting"
	StateChainConfirming  State = "chain_confirming"
	StateBackendRecording State = "backend_recording"
	StateSettled          State = "settled"
	StateFailed           State = "failed"
)

// Reconciliation describes how the chain and backend sides of the dual write
// ended up relative to each other.
type Reconciliation string

const (
	// Reconciled: chain transfer confirmed and backend record created.
	Reconciled Reconciliation = "reconciled"
	// ChainOnly: chain transfer confirmed but the backend record was not
	// created. The money moved; the record did not. Surfaced for manual
	// reconciliation, never rolled back or retried here.
	ChainOnly Reconciliation = "chain_only"
	// ReconcileFailed: nothing irreversible happened.
	ReconcileFailed Reconciliation = "failed"
)

// FailureReason classifies why an attempt reached Failed.
type FailureReason string

const (
	ReasonNone                 FailureReason = ""
	ReasonNoProvider           FailureReason = "no_provider"
	ReasonUserRejected         FailureReason = "user_rejected"
	ReasonInsufficientFunds    FailureReason = "insufficient_funds"
	ReasonWalletSyncFailed     FailureReason = "wallet_sync_failed"
	ReasonWalletAddressChanged FailureReason = "wallet_address_changed_mid_flow"
	ReasonUnknown              FailureReason = "unknown"
)

// Intent is one purchase attempt's input: the chosen template, location and
// the terms derived from them. Ephemeral, never persisted.
type Intent struct {
	Template *policy.Template
	Location *policy.Location
	Terms    *policy.Terms
}

// Outcome is the finalized result of one attempt. Created when orchestration
// starts, finalized exactly once, and never retried after it is terminal.
type Outcome struct {
	AttemptID       string         `json:"attempt_id"`
	State           State          `json:"state"`
	Reconciliation  Reconciliation `json:"reconciliation"`
	FailureReason   FailureReason  `json:"failure_reason,omitempty"`
	TxHash          string         `json:"tx_hash,omitempty"`
	ChainConfirmed  bool           `json:"chain_confirmed"`
	BackendPolicyID *int32         `json:"backend_policy_id,omitempty"`
	Error           string         `json:"error,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
}

// DTOs

type PurchaseRequest struct {
	TemplateID int32           `json:"template_id" binding:"required"`
	PolicyName string          `json:"policy_name,omitempty"`
	Location   policy.Location `json:"location" binding:"required"`
}
