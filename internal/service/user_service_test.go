package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"app/internal/repository"

	"github.com/rs/zerolog"
)

func TestSpendTransformation(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc := NewUserService(newFakeUserRepo(), ledger, newFakeTransactions(), zerolog.Nop())

	u, err := svc.SpendTransformation(context.Background(), "u1")
	if err != nil {
		t.Fatalf("spend: %v", err)
	}
	if u.CreditBalance != 9 {
		t.Fatalf("expected balance 9, got %d", u.CreditBalance)
	}
}

func TestSpendTransformationUnknownUser(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), newFakeLedger(), newFakeTransactions(), zerolog.Nop())
	_, err := svc.SpendTransformation(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Concurrent debits and grants on the same user must sum exactly, for any
// interleaving: the ledger is a single atomic increment, never read-modify-write.
func TestConcurrentAdjustmentsSumExactly(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	userSvc := NewUserService(newFakeUserRepo(), ledger, newFakeTransactions(), zerolog.Nop())
	settleSvc := NewSettlementService(newFakeTransactions(), ledger, zerolog.Nop())

	const spends = 30
	const grants = 10
	const grantSize = 5

	var wg sync.WaitGroup
	for i := 0; i < spends; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := userSvc.SpendTransformation(context.Background(), "u1"); err != nil {
				t.Errorf("spend: %v", err)
			}
		}()
	}
	for i := 0; i < grants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := paymentEvent(string(rune('a'+i)), "u1", grantSize)
			if _, err := settleSvc.Settle(context.Background(), ev); err != nil {
				t.Errorf("settle: %v", err)
			}
		}(i)
	}
	wg.Wait()

	want := 10 - spends + grants*grantSize
	if got := ledger.balance("u1"); got != want {
		t.Fatalf("expected balance %d, got %d", want, got)
	}
}

func TestPurchaseHistoryLimit(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), newFakeLedger(), newFakeTransactions(), zerolog.Nop())
	if _, err := svc.PurchaseHistory(context.Background(), "u1", 0, 0); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
	if _, err := svc.PurchaseHistory(context.Background(), "u1", 1000, 0); err == nil {
		t.Fatal("expected error for oversized limit")
	}
}
