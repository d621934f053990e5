// internal/service/purchase/orchestrator.go
package purchase

import (
	"context"
	"time"

	"skycover-agent/internal/domain/notification"
	"skycover-agent/internal/domain/policy"
	"skycover-agent/internal/domain/purchase"
	"skycover-agent/internal/domain/wallet"
	xerrors "skycover-agent/internal/pkg/errors"
	"skycover-agent/internal/provider"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// WalletGate verifies the wallet binding immediately before the chain call.
type WalletGate interface {
	Sync(ctx context.Context) (string, error)
	Address() string
}

// ContractCaller submits the buyPolicy call.
type ContractCaller interface {
	Address() string
	BuyPolicy(ctx context.Context, signer provider.Signer, terms *policy.Terms) (provider.TxHandle, error)
}

// PolicyRecorder creates the backend policy record.
type PolicyRecorder interface {
	CreatePolicy(ctx context.Context, create *policy.CreatePolicyRequest) (*policy.InsurancePolicy, error)
}

// Journal records finished attempts for operator reconciliation. Optional.
type Journal interface {
	Record(ctx context.Context, outcome *purchase.Outcome) error
}

// Notifier receives user-facing events.
type Notifier interface {
	Publish(n *notification.Notification)
}

// Orchestrator drives the multi-step buy flow. One attempt at a time per
// instance; each step catches its own failure and settles the attempt in a
// terminal state rather than propagating a fault. The chain/backend dual
// write is deliberately not transactional: once the chain call confirms, a
// backend failure yields a ChainOnly outcome, never a rollback.
type Orchestrator struct {
	wallet   WalletGate
	prov     provider.Provider // nil when no wallet provider is installed
	contract ContractCaller
	backend  PolicyRecorder
	journal  Journal // nil disables journaling
	notifier Notifier
	logger   *zap.Logger
}

func NewOrchestrator(wallet WalletGate, prov provider.Provider, contract ContractCaller, backend PolicyRecorder, journal Journal, notifier Notifier, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		wallet:   wallet,
		prov:     prov,
		contract: contract,
		backend:  backend,
		journal:  journal,
		notifier: notifier,
		logger:   logger,
	}
}

// Purchase runs one attempt to completion. The returned outcome is always
// terminal; orchestration errors are encoded in it, not returned.
func (o *Orchestrator) Purchase(ctx context.Context, intent *purchase.Intent, policyName string) *purchase.Outcome {
	outcome := &purchase.Outcome{
		AttemptID: ulid.Make().String(),
		State:     purchase.StateIdle,
		StartedAt: time.Now(),
	}
	defer func() {
		outcome.FinishedAt = time.Now()
		o.record(ctx, outcome)
	}()

	// Step 1: verify the wallet identity before anything irreversible.
	outcome.State = purchase.StateWalletVerifying
	if o.prov == nil || o.contract == nil {
		o.fail(outcome, purchase.ReasonNoProvider, xerrors.ErrWalletUnavailable)
		return outcome
	}
	if o.wallet.Address() == "" {
		o.fail(outcome, purchase.ReasonNoProvider, xerrors.ErrWalletMismatch)
		return outcome
	}
	boundBefore := o.wallet.Address()
	verified, err := o.wallet.Sync(ctx)
	if err != nil {
		o.fail(outcome, classifySyncFailure(err), err)
		return outcome
	}
	if boundBefore != "" && verified != "" && !wallet.SameAddress(boundBefore, verified) {
		// The provider's selected account moved under us. The binding is
		// already corrected; the user has to confirm with the new wallet.
		o.fail(outcome, purchase.ReasonWalletAddressChanged, xerrors.ErrWalletMismatch)
		return outcome
	}

	// Step 2: submit the chain call with an explicit gas ceiling.
	outcome.State = purchase.StateChainSubmitting
	signer, err := o.prov.Signer(ctx)
	if err != nil {
		o.fail(outcome, purchase.ReasonNoProvider, err)
		return outcome
	}
	tx, err := o.contract.BuyPolicy(ctx, signer, intent.Terms)
	if err != nil {
		o.fail(outcome, classifyChainFailure(err), err)
		return outcome
	}
	outcome.TxHash = tx.Hash()

	// Step 3: await confirmation. Past this point the transfer is final.
	outcome.State = purchase.StateChainConfirming
	if err := tx.Wait(ctx); err != nil {
		o.fail(outcome, classifyChainFailure(err), err)
		return outcome
	}
	outcome.ChainConfirmed = true

	// Step 4: create the backend record. A failure here is reported, not
	// rolled back — the chain side cannot be recalled.
	outcome.State = purchase.StateBackendRecording
	created, err := o.backend.CreatePolicy(ctx, o.buildRecord(intent, policyName, outcome.TxHash))
	if err != nil {
		o.settleChainOnly(outcome, err)
		return outcome
	}

	outcome.State = purchase.StateSettled
	outcome.Reconciliation = purchase.Reconciled
	outcome.BackendPolicyID = &created.ID

	o.logger.Info("policy purchased",
		zap.String("attempt", outcome.AttemptID),
		zap.String("tx", outcome.TxHash),
		zap.Int32("policy_id", created.ID))
	o.notifier.Publish(notification.New(notification.SeveritySuccess,
		"Policy purchased",
		"Your policy is active and recorded.",
		map[string]interface{}{"tx_hash": outcome.TxHash, "policy_id": created.ID}))
	return outcome
}

// BuildIntent derives terms for a template/location pair.
func BuildIntent(tmpl *policy.Template, loc *policy.Location) (*purchase.Intent, error) {
	terms, err := policy.DeriveTerms(tmpl, loc)
	if err != nil {
		return nil, err
	}
	return &purchase.Intent{Template: tmpl, Location: loc, Terms: terms}, nil
}

func (o *Orchestrator) buildRecord(intent *purchase.Intent, policyName string, txHash string) *policy.CreatePolicyRequest {
	if policyName == "" {
		policyName = intent.Template.TemplateName
	}
	start := time.Now().UTC()
	end := start.Add(time.Duration(intent.Terms.Duration) * time.Second)
	templateID := intent.Template.ID

	return &policy.CreatePolicyRequest{
		PolicyTemplateID:        &templateID,
		PolicyName:              policyName,
		PolicyType:              intent.Template.PolicyType,
		LocationLatitude:        intent.Location.Latitude,
		LocationLongitude:       intent.Location.Longitude,
		LocationH3Index:         intent.Location.H3Index,
		LocationName:            intent.Location.Name,
		CoverageAmount:          policy.FormatEther(intent.Terms.Payout),
		PremiumAmount:           policy.FormatEther(intent.Terms.Premium),
		Currency:                "ETH",
		StartDate:               policy.WireDate{Time: start},
		EndDate:                 policy.WireDate{Time: end},
		SmartContractAddress:    o.contract.Address(),
		PurchaseTransactionHash: txHash,
	}
}

func (o *Orchestrator) fail(outcome *purchase.Outcome, reason purchase.FailureReason, err error) {
	outcome.State = purchase.StateFailed
	outcome.Reconciliation = purchase.ReconcileFailed
	outcome.FailureReason = reason
	outcome.Error = err.Error()

	o.logger.Warn("purchase attempt failed",
		zap.String("attempt", outcome.AttemptID),
		zap.String("reason", string(reason)),
		zap.Error(err))
	o.notifier.Publish(notification.New(notification.SeverityError,
		failureTitle(reason), failureMessage(reason), map[string]interface{}{
			"attempt_id": outcome.AttemptID,
		}))
}

func (o *Orchestrator) settleChainOnly(outcome *purchase.Outcome, err error) {
	outcome.State = purchase.StateSettled
	outcome.Reconciliation = purchase.ChainOnly
	outcome.Error = err.Error()

	o.logger.Error("policy confirmed on-chain but backend recording failed",
		zap.String("attempt", outcome.AttemptID),
		zap.String("tx", outcome.TxHash),
		zap.Error(err))
	o.notifier.Publish(notification.New(notification.SeverityWarning,
		"Policy purchased, record pending",
		"Your purchase is confirmed on-chain but could not be saved to our records yet. Keep the transaction hash for support.",
		map[string]interface{}{"tx_hash": outcome.TxHash}))
}

func (o *Orchestrator) record(ctx context.Context, outcome *purchase.Outcome) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Record(ctx, outcome); err != nil {
		o.logger.Warn("failed to journal purchase outcome",
			zap.String("attempt", outcome.AttemptID),
			zap.Error(err))
	}
}
