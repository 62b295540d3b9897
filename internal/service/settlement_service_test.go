package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func paymentEvent(paymentID, buyer string, credits int) PaymentEvent {
	return PaymentEvent{
		PaymentID:    paymentID,
		Amount:       999,
		Credits:      credits,
		Plan:         "pro",
		BuyerClerkID: buyer,
	}
}

func TestSettleGrantsCreditsOnce(t *testing.T) {
	txs := newFakeTransactions()
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc := NewSettlementService(txs, ledger, zerolog.Nop())
	ctx := context.Background()

	tx, err := svc.Settle(ctx, paymentEvent("p1", "u1", 50))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if tx.PaymentID != "p1" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if got := ledger.balance("u1"); got != 60 {
		t.Fatalf("expected balance 60, got %d", got)
	}

	// Replay: same outcome, no second grant.
	again, err := svc.Settle(ctx, paymentEvent("p1", "u1", 50))
	if err != nil {
		t.Fatalf("replayed settle should succeed, got %v", err)
	}
	if again.ID != tx.ID {
		t.Fatalf("replay should return the prior transaction, got %+v", again)
	}
	if got := ledger.balance("u1"); got != 60 {
		t.Fatalf("replay granted credits again: balance %d", got)
	}
	if txs.count() != 1 {
		t.Fatalf("expected one transaction row, got %d", txs.count())
	}
}

func TestSettleConcurrentDuplicates(t *testing.T) {
	txs := newFakeTransactions()
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc := NewSettlementService(txs, ledger, zerolog.Nop())

	const deliveries = 20
	var wg sync.WaitGroup
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Settle(context.Background(), paymentEvent("p1", "u1", 50))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if got := ledger.balance("u1"); got != 60 {
		t.Fatalf("expected balance 60 after concurrent duplicates, got %d", got)
	}
	if txs.count() != 1 {
		t.Fatalf("expected one transaction row, got %d", txs.count())
	}
	if ledger.adjusts != 1 {
		t.Fatalf("expected exactly one credit grant, got %d", ledger.adjusts)
	}
}

func TestSettleCreditFailureSurfacesInconsistency(t *testing.T) {
	txs := newFakeTransactions()
	ledger := newFakeLedger()
	boom := errors.New("connection reset")
	ledger.failErr = boom
	svc := NewSettlementService(txs, ledger, zerolog.Nop())

	tx, err := svc.Settle(context.Background(), paymentEvent("p2", "u1", 25))
	if !errors.Is(err, ErrInconsistencyDetected) {
		t.Fatalf("expected ErrInconsistencyDetected, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause should be preserved, got %v", err)
	}
	// The recorded transaction is returned so the caller can point the
	// operator at the row that needs re-driving.
	if tx == nil || tx.PaymentID != "p2" {
		t.Fatalf("expected recorded transaction, got %+v", tx)
	}
	if txs.count() != 1 {
		t.Fatalf("transaction row must remain as reconciliation source, got %d", txs.count())
	}
}

func TestSettleDistinctPayments(t *testing.T) {
	txs := newFakeTransactions()
	ledger := newFakeLedger()
	ledger.balances["u1"] = 0
	svc := NewSettlementService(txs, ledger, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Settle(ctx, paymentEvent("p1", "u1", 50)); err != nil {
		t.Fatalf("settle p1: %v", err)
	}
	if _, err := svc.Settle(ctx, paymentEvent("p2", "u1", 100)); err != nil {
		t.Fatalf("settle p2: %v", err)
	}
	if got := ledger.balance("u1"); got != 150 {
		t.Fatalf("expected balance 150, got %d", got)
	}
	if txs.count() != 2 {
		t.Fatalf("expected two transaction rows, got %d", txs.count())
	}
}
