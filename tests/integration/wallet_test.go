package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/adapter/repository/postgres"
	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
	"github.com/novapay/remit/tests/testutil"
)

func TestWalletCreation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	txManager := postgres.NewTxManager(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()

	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, outboxRepo, nil, nil, idGen, nil, "XLM")

	wallet, err := walletUC.CreateWallet(ctx, "principal-1")
	if err != nil {
		t.Fatalf("create wallet failed: %v", err)
	}

	if wallet.PublicRef == "" || !wallet.Balance.IsZero() {
		t.Fatalf("unexpected wallet: %+v", wallet)
	}

	// One wallet per principal.
	if _, err := walletUC.CreateWallet(ctx, "principal-1"); !errors.Is(err, domain.ErrWalletExists) {
		t.Fatalf("expected ErrWalletExists on second create, got %v", err)
	}

	// The creation event lands in the outbox.
	events, err := outboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("outbox read failed: %v", err)
	}

	found := false
	for _, e := range events {
		if e.EventType == domain.EventTypeWalletCreated && e.AggregateID == wallet.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected wallet.created outbox event")
	}
}

func TestWalletApplyDeltaGuards(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	walletRepo := postgres.NewWalletRepository(testDB.Pool)
	wallet := testDB.CreateTestWallet(ctx, "principal-1", decimal.NewFromInt(100))

	// Over-debit is rejected without touching the balance.
	_, err := walletRepo.ApplyDelta(ctx, nil, wallet.ID, decimal.NewFromInt(-150), wallet.UpdatedAt)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// A valid debit returns the new balance.
	balance, err := walletRepo.ApplyDelta(ctx, nil, wallet.ID, decimal.NewFromInt(-40), wallet.UpdatedAt)
	if err != nil {
		t.Fatalf("apply delta failed: %v", err)
	}

	if !balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected balance 60, got %s", balance)
	}

	// Unknown wallet is told apart from insufficient funds.
	_, err = walletRepo.ApplyDelta(ctx, nil, "missing", decimal.NewFromInt(-1), wallet.UpdatedAt)
	if !errors.Is(err, domain.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

// Two debits racing for the same balance: the guard admits exactly
// one. 100 minus one 60 leaves 40; the loser sees insufficient funds.
func TestConcurrentDebitsAdmitExactlyOne(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	walletRepo := postgres.NewWalletRepository(testDB.Pool)
	wallet := testDB.CreateTestWallet(ctx, "principal-1", decimal.NewFromInt(100))

	start := make(chan struct{})
	errs := make(chan error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := walletRepo.ApplyDelta(ctx, nil, wallet.ID, decimal.NewFromInt(-60), time.Now().UTC())
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var rejected int
	for err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInsufficientFunds):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if rejected != 1 {
		t.Fatalf("expected exactly one rejected debit, got %d", rejected)
	}

	after, err := walletRepo.GetByID(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if !after.Balance.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected balance 40, got %s", after.Balance)
	}
}
