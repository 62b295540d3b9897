package repository

import (
	"context"
	"fmt"

	"app/internal/model"
	"app/internal/store"
)

// LedgerRepository mutates credit balances. The only operation is a single
// atomic increment at the store level, never fetch-then-write, so concurrent
// adjustments on the same user always sum correctly.
type LedgerRepository interface {
	// AdjustBalance adds delta (negative to spend, positive to grant) and
	// returns the post-adjustment user. No non-negative floor is enforced
	// here; that policy belongs to the caller.
	AdjustBalance(ctx context.Context, clerkID string, delta int) (*model.User, error)
}

type ledgerRepo struct {
	store *store.Manager
}

// NewLedgerRepo creates a LedgerRepository on the shared connection manager.
func NewLedgerRepo(st *store.Manager) LedgerRepository {
	return &ledgerRepo{store: st}
}

func (r *ledgerRepo) AdjustBalance(ctx context.Context, clerkID string, delta int) (*model.User, error) {
	pool, err := r.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	const q = `
        UPDATE users
        SET credit_balance = credit_balance + $2,
            updated_at     = NOW()
        WHERE clerk_id = $1
        RETURNING ` + userColumns
	var u model.User
	if err := scanUser(pool.QueryRow(ctx, q, clerkID, delta), &u); err != nil {
		return nil, fmt.Errorf("adjust balance for user %s by %d: %w", clerkID, delta, mapError(err))
	}
	return &u, nil
}
