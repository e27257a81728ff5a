package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/adapter/repository/postgres"
	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
	"github.com/novapay/remit/tests/testutil"
)

func newTransferUC(testDB *testutil.TestDB) (*usecase.TransferUseCase, *postgres.WalletRepository, *postgres.TransactionRepository) {
	pool := testDB.Pool
	txManager := postgres.NewTxManager(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()

	uc := usecase.NewTransferUseCase(txManager, walletRepo, txnRepo, outboxRepo, nil, nil, idGen, nil, "XLM")

	return uc, walletRepo, txnRepo
}

func TestTransferMovesValueAtomically(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	uc, walletRepo, txnRepo := newTransferUC(testDB)

	sender := testDB.CreateTestWallet(ctx, "alice", decimal.NewFromInt(100))
	recipient := testDB.CreateTestWallet(ctx, "bob", decimal.NewFromInt(10))

	result, err := uc.CreateTransfer(ctx, usecase.CreateTransferInput{
		FromWalletID: sender.ID,
		ToWalletID:   recipient.ID,
		Amount:       decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	// Both legs share a correlation id and are completed.
	if result.Debit.CorrelationID != result.Credit.CorrelationID {
		t.Fatalf("legs have different correlation ids")
	}

	for _, txn := range []*domain.Transaction{result.Debit, result.Credit} {
		stored, err := txnRepo.GetByID(ctx, txn.ID)
		if err != nil {
			t.Fatalf("record lookup failed: %v", err)
		}
		if stored.Status != domain.TransactionCompleted {
			t.Fatalf("expected completed record, got %s", stored.Status)
		}
	}

	// Exactly the transferred amount moved.
	after, _ := walletRepo.GetByID(ctx, sender.ID)
	if !after.Balance.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected sender balance 70, got %s", after.Balance)
	}

	after, _ = walletRepo.GetByID(ctx, recipient.ID)
	if !after.Balance.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected recipient balance 40, got %s", after.Balance)
	}
}

func TestTransferInsufficientFundsLeavesFailedRecords(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	uc, walletRepo, txnRepo := newTransferUC(testDB)

	sender := testDB.CreateTestWallet(ctx, "alice", decimal.NewFromInt(5))
	recipient := testDB.CreateTestWallet(ctx, "bob", decimal.NewFromInt(0))

	_, err := uc.CreateTransfer(ctx, usecase.CreateTransferInput{
		FromWalletID: sender.ID,
		ToWalletID:   recipient.ID,
		Amount:       decimal.NewFromInt(30),
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// Both legs are recorded as failed; nothing silently disappears.
	for _, w := range []string{sender.ID, recipient.ID} {
		txns, err := txnRepo.ListByWallet(ctx, w, 10, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(txns) != 1 || txns[0].Status != domain.TransactionFailed {
			t.Fatalf("expected one failed record for wallet %s, got %+v", w, txns)
		}
	}

	// Balances are untouched.
	after, _ := walletRepo.GetByID(ctx, sender.ID)
	if !after.Balance.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected sender balance unchanged, got %s", after.Balance)
	}
}

func TestTransferToSameWalletRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	uc, _, txnRepo := newTransferUC(testDB)

	wallet := testDB.CreateTestWallet(ctx, "alice", decimal.NewFromInt(100))

	_, err := uc.CreateTransfer(ctx, usecase.CreateTransferInput{
		FromWalletID: wallet.ID,
		ToWalletID:   wallet.ID,
		Amount:       decimal.NewFromInt(10),
	})
	if !errors.Is(err, domain.ErrSameWallet) {
		t.Fatalf("expected ErrSameWallet, got %v", err)
	}

	// Rejected before any record exists.
	txns, _ := txnRepo.ListByWallet(ctx, wallet.ID, 10, 0)
	if len(txns) != 0 {
		t.Fatalf("expected no records, got %d", len(txns))
	}
}
