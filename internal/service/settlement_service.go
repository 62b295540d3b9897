package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrInconsistencyDetected means the transaction row exists but the credits
// were not granted. It must reach an operator or a reconciliation pass; the
// transaction table is the source of truth for re-driving the grant.
var ErrInconsistencyDetected = errors.New("transaction recorded but credits not granted")

// PaymentEvent is one completed-payment notification from the processor.
type PaymentEvent struct {
	PaymentID    string
	Amount       int64
	Credits      int
	Plan         string
	BuyerClerkID string
}

// SettlementService records completed purchases and grants their credits.
type SettlementService interface {
	// Settle is idempotent: replaying the same payment event returns the
	// previously recorded transaction without granting credits again.
	Settle(ctx context.Context, ev PaymentEvent) (*model.Transaction, error)
}

type settlementService struct {
	transactions repository.TransactionRepository
	ledger       repository.LedgerRepository
	logger       zerolog.Logger
}

// NewSettlementService creates a SettlementService with a scoped logger.
func NewSettlementService(transactions repository.TransactionRepository, ledger repository.LedgerRepository, logger zerolog.Logger) SettlementService {
	return &settlementService{
		transactions: transactions,
		ledger:       ledger,
		logger:       logger.With().Str("service", "SettlementService").Logger(),
	}
}

// Settle records first and credits second. The order guarantees that under
// any failure the transaction table tells exactly which payments have not
// been credited; crediting first would allow double grants on retry.
func (s *settlementService) Settle(ctx context.Context, ev PaymentEvent) (*model.Transaction, error) {
	tx := &model.Transaction{
		PaymentID:    ev.PaymentID,
		Amount:       ev.Amount,
		Credits:      ev.Credits,
		Plan:         ev.Plan,
		BuyerClerkID: ev.BuyerClerkID,
	}
	err := s.transactions.Record(ctx, tx)
	if errors.Is(err, repository.ErrAlreadyRecorded) {
		prior, gerr := s.transactions.GetByPaymentID(ctx, ev.PaymentID)
		if gerr != nil {
			return nil, fmt.Errorf("fetch prior settlement %s: %w", ev.PaymentID, gerr)
		}
		s.logger.Info().Str("payment_id", ev.PaymentID).Msg("Payment already settled, skipping credit grant")
		return prior, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.AdjustBalance(ctx, ev.BuyerClerkID, ev.Credits); err != nil {
		s.logger.Error().
			Err(err).
			Str("payment_id", ev.PaymentID).
			Str("buyer", ev.BuyerClerkID).
			Int("credits", ev.Credits).
			Msg("Transaction recorded but credit grant failed; needs reconciliation")
		return tx, fmt.Errorf("settle %s: %w: %w", ev.PaymentID, ErrInconsistencyDetected, err)
	}
	return tx, nil
}
