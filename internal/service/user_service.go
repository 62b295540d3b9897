package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Each transformation consumes one credit.
const transformationCost = 1

// UserService is the facade exposed to the page/API layer.
type UserService interface {
	Get(ctx context.Context, clerkID string) (*model.User, error)
	// SpendTransformation debits the cost of one transformation and returns
	// the post-debit user. The balance may go negative; the UI layer gates
	// entry before starting a transformation.
	SpendTransformation(ctx context.Context, clerkID string) (*model.User, error)
	PurchaseHistory(ctx context.Context, clerkID string, limit, offset int) ([]model.Transaction, error)
}

type userService struct {
	userRepo     repository.UserRepository
	ledger       repository.LedgerRepository
	transactions repository.TransactionRepository
	logger       zerolog.Logger
}

// NewUserService creates a UserService with a scoped logger.
func NewUserService(userRepo repository.UserRepository, ledger repository.LedgerRepository, transactions repository.TransactionRepository, logger zerolog.Logger) UserService {
	return &userService{
		userRepo:     userRepo,
		ledger:       ledger,
		transactions: transactions,
		logger:       logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) Get(ctx context.Context, clerkID string) (*model.User, error) {
	return s.userRepo.GetUserByClerkID(ctx, clerkID)
}

func (s *userService) SpendTransformation(ctx context.Context, clerkID string) (*model.User, error) {
	u, err := s.ledger.AdjustBalance(ctx, clerkID, -transformationCost)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error().Err(err).Str("clerk_id", clerkID).Msg("Failed to debit transformation")
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) PurchaseHistory(ctx context.Context, clerkID string, limit, offset int) ([]model.Transaction, error) {
	if limit <= 0 || limit > 100 {
		return nil, fmt.Errorf("invalid limit: %d", limit)
	}
	return s.transactions.ListByBuyer(ctx, clerkID, limit, offset)
}
