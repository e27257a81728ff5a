package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/infrastructure/metrics"
)

// balanceCacheTTL bounds how long a cached balance may be served. The
// cache is read-through and invalidated on every settlement commit; it
// is never the source of truth.
const balanceCacheTTL = 30 * time.Second

// WalletUseCase handles wallet lifecycle and balance reads.
type WalletUseCase struct {
	walletRepo WalletRepository
	outboxRepo OutboxRepository
	rates      RateConverter
	cache      Cache
	idGen      IDGenerator
	txManager  TransactionManager
	metrics    *metrics.Metrics
	asset      string
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	outboxRepo OutboxRepository,
	rates RateConverter,
	cache Cache,
	idGen IDGenerator,
	m *metrics.Metrics,
	settlementAsset string,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		outboxRepo: outboxRepo,
		rates:      rates,
		cache:      cache,
		idGen:      idGen,
		metrics:    m,
		asset:      settlementAsset,
	}
}

// CreateWallet creates the wallet for a principal. A principal owns at
// most one wallet; a second create fails with domain.ErrWalletExists.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, principalID string) (*domain.Wallet, error) {
	if principalID == "" {
		return nil, domain.ErrInvalidCounterparty
	}

	now := time.Now().UTC()

	wallet := &domain.Wallet{
		ID:          uc.idGen.Generate(),
		PrincipalID: principalID,
		PublicRef:   newPublicRef(),
		Balance:     decimal.Zero,
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return wallet, nil
		}
		defer func() { _ = tx.Rollback(ctx) }()

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   wallet.ID,
			AggregateType: domain.AggregateTypeWallet,
			EventType:     domain.EventTypeWalletCreated,
			Payload: map[string]any{
				"wallet_id":    wallet.ID,
				"principal_id": wallet.PrincipalID,
				"public_ref":   wallet.PublicRef,
			},
			CreatedAt: now,
		}

		if err := uc.outboxRepo.Create(ctx, tx, event); err == nil {
			_ = tx.Commit(ctx)
		}
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	return wallet, nil
}

// GetWallet retrieves a wallet by ID.
func (uc *WalletUseCase) GetWallet(ctx context.Context, id string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByID(ctx, id)
}

// GetWalletByPrincipal retrieves the principal's wallet.
func (uc *WalletUseCase) GetWalletByPrincipal(ctx context.Context, principalID string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByPrincipal(ctx, principalID)
}

// BalanceResult carries a balance read plus its display-currency
// equivalent computed through the rate converter.
type BalanceResult struct {
	WalletID        string
	Balance         decimal.Decimal
	Asset           string
	Equivalent      decimal.Decimal
	DisplayCurrency string
}

// GetBalance returns the wallet's balance in settlement-asset units.
// displayCurrency may be empty to skip the equivalent conversion.
func (uc *WalletUseCase) GetBalance(ctx context.Context, walletID, displayCurrency string) (*BalanceResult, error) {
	balance, err := uc.readBalance(ctx, walletID)
	if err != nil {
		return nil, err
	}

	result := &BalanceResult{
		WalletID: walletID,
		Balance:  balance,
		Asset:    uc.asset,
	}

	if displayCurrency != "" && displayCurrency != uc.asset {
		rate, err := uc.rates.Rate(uc.asset, displayCurrency)
		if err != nil {
			return nil, err
		}

		result.Equivalent = balance.Mul(rate)
		result.DisplayCurrency = displayCurrency
	}

	return result, nil
}

// ListWallets lists wallets with pagination.
func (uc *WalletUseCase) ListWallets(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.walletRepo.List(ctx, limit, offset)
}

func (uc *WalletUseCase) readBalance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	key := balanceCacheKey(walletID)

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, key); err == nil && len(cached) > 0 {
			if d, err := decimal.NewFromString(string(cached)); err == nil {
				return d, nil
			}
		}
	}

	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, key, []byte(wallet.Balance.String()), balanceCacheTTL)
	}

	return wallet.Balance, nil
}

// newPublicRef derives an opaque settlement-rail address for a wallet.
func newPublicRef() string {
	return "G" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
