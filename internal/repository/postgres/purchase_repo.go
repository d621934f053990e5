// internal/repository/postgres/purchase_repo.go
package postgres

import (
	"context"
	"fmt"

	"skycover-agent/internal/domain/purchase"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PurchaseRepository journals finished purchase attempts so chain-only
// outcomes stay findable for manual reconciliation.
type PurchaseRepository struct {
	db *pgxpool.Pool
}

func NewPurchaseRepository(db *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// EnsureSchema creates the journal table when missing.
func (r *PurchaseRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS purchase_attempts (
			attempt_id        TEXT PRIMARY KEY,
			state             TEXT NOT NULL,
			reconciliation    TEXT NOT NULL,
			failure_reason    TEXT,
			tx_hash           TEXT,
			chain_confirmed   BOOLEAN NOT NULL DEFAULT FALSE,
			backend_policy_id INTEGER,
			error_message     TEXT,
			started_at        TIMESTAMPTZ NOT NULL,
			finished_at       TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure purchase journal schema: %w", err)
	}
	return nil
}

// Record inserts one terminal outcome. Attempt IDs are ULIDs, so conflicts
// mean a double write of the same attempt and are upserted harmlessly.
func (r *PurchaseRepository) Record(ctx context.Context, o *purchase.Outcome) error {
	query := `
		INSERT INTO purchase_attempts
			(attempt_id, state, reconciliation, failure_reason, tx_hash,
			 chain_confirmed, backend_policy_id, error_message, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (attempt_id) DO UPDATE SET
			state = EXCLUDED.state,
			reconciliation = EXCLUDED.reconciliation,
			failure_reason = EXCLUDED.failure_reason,
			tx_hash = EXCLUDED.tx_hash,
			chain_confirmed = EXCLUDED.chain_confirmed,
			backend_policy_id = EXCLUDED.backend_policy_id,
			error_message = EXCLUDED.error_message,
			finished_at = EXCLUDED.finished_at
	`
	_, err := r.db.Exec(ctx, query,
		o.AttemptID, o.State, o.Reconciliation, nullString(string(o.FailureReason)),
		nullString(o.TxHash), o.ChainConfirmed, o.BackendPolicyID,
		nullString(o.Error), o.StartedAt, o.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record purchase attempt: %w", err)
	}
	return nil
}

// ListRecent returns finished attempts, newest first.
func (r *PurchaseRepository) ListRecent(ctx context.Context, limit int) ([]purchase.Outcome, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT attempt_id, state, reconciliation, COALESCE(failure_reason, ''),
		       COALESCE(tx_hash, ''), chain_confirmed, backend_policy_id,
		       COALESCE(error_message, ''), started_at, finished_at
		FROM purchase_attempts
		ORDER BY finished_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase attempts: %w", err)
	}
	defer rows.Close()

	var outcomes []purchase.Outcome
	for rows.Next() {
		var o purchase.Outcome
		var reason string
		if err := rows.Scan(&o.AttemptID, &o.State, &o.Reconciliation, &reason,
			&o.TxHash, &o.ChainConfirmed, &o.BackendPolicyID, &o.Error,
			&o.StartedAt, &o.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase attempt: %w", err)
		}
		o.FailureReason = purchase.FailureReason(reason)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// ListUnreconciled returns chain-only attempts awaiting manual reconciliation.
func (r *PurchaseRepository) ListUnreconciled(ctx context.Context) ([]purchase.Outcome, error) {
	query := `
		SELECT attempt_id, state, reconciliation, COALESCE(failure_reason, ''),
		       COALESCE(tx_hash, ''), chain_confirmed, backend_policy_id,
		       COALESCE(error_message, ''), started_at, finished_at
		FROM purchase_attempts
		WHERE reconciliation = $1
		ORDER BY finished_at DESC
	`
	rows, err := r.db.Query(ctx, query, purchase.ChainOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreconciled attempts: %w", err)
	}
	defer rows.Close()

	var outcomes []purchase.Outcome
	for rows.Next() {
		var o purchase.Outcome
		var reason string
		if err := rows.Scan(&o.AttemptID, &o.State, &o.Reconciliation, &reason,
			&o.TxHash, &o.ChainConfirmed, &o.BackendPolicyID, &o.Error,
			&o.StartedAt, &o.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase attempt: %w", err)
		}
		o.FailureReason = purchase.FailureReason(reason)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
