package repository

import (
	"context"
	"fmt"

	"app/internal/model"
	"app/internal/store"
)

// TransactionRepository persists immutable purchase records. The unique
// payment_id constraint is the idempotency gate: a second insert for the
// same payment fails with ErrAlreadyRecorded.
type TransactionRepository interface {
	Record(ctx context.Context, t *model.Transaction) error
	GetByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error)
	ListByBuyer(ctx context.Context, clerkID string, limit, offset int) ([]model.Transaction, error)
}

type transactionRepo struct {
	store *store.Manager
}

// NewTransactionRepo creates a TransactionRepository on the shared connection manager.
func NewTransactionRepo(st *store.Manager) TransactionRepository {
	return &transactionRepo{store: st}
}

const transactionColumns = `id, payment_id, amount, credits, plan, buyer_clerk_id, created_at`

func (r *transactionRepo) Record(ctx context.Context, t *model.Transaction) error {
	pool, err := r.store.Get(ctx)
	if err != nil {
		return err
	}
	const q = `
        INSERT INTO transactions (payment_id, amount, credits, plan, buyer_clerk_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	row := pool.QueryRow(ctx, q, t.PaymentID, t.Amount, t.Credits, t.Plan, t.BuyerClerkID)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("record transaction %s: %w", t.PaymentID, mapError(err))
	}
	return nil
}

func (r *transactionRepo) GetByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error) {
	pool, err := r.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + transactionColumns + ` FROM transactions WHERE payment_id = $1`
	var t model.Transaction
	row := pool.QueryRow(ctx, q, paymentID)
	if err := row.Scan(&t.ID, &t.PaymentID, &t.Amount, &t.Credits, &t.Plan, &t.BuyerClerkID, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("fetch transaction %s: %w", paymentID, mapError(err))
	}
	return &t, nil
}

func (r *transactionRepo) ListByBuyer(ctx context.Context, clerkID string, limit, offset int) ([]model.Transaction, error) {
	pool, err := r.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	const q = `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE buyer_clerk_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := pool.Query(ctx, q, clerkID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %s: %w", clerkID, mapError(err))
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.PaymentID, &t.Amount, &t.Credits, &t.Plan, &t.BuyerClerkID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction for user %s: %w", clerkID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions for user %s: %w", clerkID, mapError(err))
	}
	return out, nil
}
