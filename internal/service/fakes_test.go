package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"app/internal/model"
	"app/internal/repository"
)

// In-memory doubles for the repositories. They enforce the same invariants
// the store does (unique keys, atomic increments) so the services can be
// exercised under concurrency.

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ClerkID]; ok {
		return fmt.Errorf("constraint users_clerk_id_key: %w", repository.ErrDuplicateKey)
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return fmt.Errorf("constraint users_email_key: %w", repository.ErrDuplicateKey)
		}
		if existing.Username == u.Username {
			return fmt.Errorf("constraint users_username_key: %w", repository.ErrDuplicateKey)
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.PlanID = 1
	u.CreditBalance = 10
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ClerkID] = &cp
	return nil
}

func (f *fakeUserRepo) GetUserByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, clerkID string, fields repository.UserUpdate) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if fields.Username != nil {
		u.Username = *fields.Username
	}
	if fields.FirstName != nil {
		u.FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		u.LastName = *fields.LastName
	}
	if fields.PhotoURL != nil {
		u.PhotoURL = *fields.PhotoURL
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, clerkID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[clerkID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.users, clerkID)
	return u, nil
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int
	adjusts  int

	failErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int)}
}

func (f *fakeLedger) AdjustBalance(ctx context.Context, clerkID string, delta int) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	bal, ok := f.balances[clerkID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.adjusts++
	f.balances[clerkID] = bal + delta
	return &model.User{ClerkID: clerkID, CreditBalance: bal + delta}, nil
}

func (f *fakeLedger) balance(clerkID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[clerkID]
}

type fakeTransactions struct {
	mu   sync.Mutex
	byID map[string]*model.Transaction
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{byID: make(map[string]*model.Transaction)}
}

func (f *fakeTransactions) Record(ctx context.Context, t *model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[t.PaymentID]; ok {
		return repository.ErrAlreadyRecorded
	}
	t.ID = int64(len(f.byID) + 1)
	t.CreatedAt = time.Now()
	cp := *t
	f.byID[t.PaymentID] = &cp
	return nil
}

func (f *fakeTransactions) GetByPaymentID(ctx context.Context, paymentID string) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[paymentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTransactions) ListByBuyer(ctx context.Context, clerkID string, limit, offset int) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Transaction
	for _, t := range f.byID {
		if t.BuyerClerkID == clerkID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTransactions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}
