package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/novapay/remit/internal/adapter/http/dto"
	"github.com/novapay/remit/internal/domain"
	"github.com/novapay/remit/internal/usecase"
)

type transferServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateTransferInput) (*usecase.TransferResult, error)
}

func (s *transferServiceStub) CreateTransfer(ctx context.Context, input usecase.CreateTransferInput) (*usecase.TransferResult, error) {
	return s.createFn(ctx, input)
}

type transactionServiceStub struct {
	getFn           func(ctx context.Context, id string) (*domain.Transaction, error)
	byCorrelationFn func(ctx context.Context, correlationID string) ([]*domain.Transaction, error)
	listFn          func(ctx context.Context, input usecase.ListByWalletInput) ([]*domain.Transaction, error)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, id)
}

func (s *transactionServiceStub) GetByCorrelation(ctx context.Context, correlationID string) ([]*domain.Transaction, error) {
	return s.byCorrelationFn(ctx, correlationID)
}

func (s *transactionServiceStub) ListByWallet(ctx context.Context, input usecase.ListByWalletInput) ([]*domain.Transaction, error) {
	return s.listFn(ctx, input)
}

func TestTransferHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateTransferInput

	handler := NewTransferHandler(&transferServiceStub{
		createFn: func(_ context.Context, input usecase.CreateTransferInput) (*usecase.TransferResult, error) {
			captured = input
			return &usecase.TransferResult{
				CorrelationID: "corr-1",
				Debit:         &domain.Transaction{ID: "t1", WalletID: input.FromWalletID, Amount: input.Amount.Neg()},
				Credit:        &domain.Transaction{ID: "t2", WalletID: input.ToWalletID, Amount: input.Amount},
			}, nil
		},
	}, nil)

	body, _ := json.Marshal(dto.CreateTransferRequest{
		FromWalletID: "w1",
		ToWalletID:   "w2",
		Amount:       decimal.NewFromInt(100),
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.FromWalletID != "w1" || captured.ToWalletID != "w2" {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.TransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	if resp.CorrelationID != "corr-1" || resp.Debit == nil || resp.Credit == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTransferHandler_Create_InsufficientFunds(t *testing.T) {
	handler := NewTransferHandler(&transferServiceStub{
		createFn: func(context.Context, usecase.CreateTransferInput) (*usecase.TransferResult, error) {
			return nil, domain.ErrInsufficientFunds
		},
	}, nil)

	body, _ := json.Marshal(dto.CreateTransferRequest{
		FromWalletID: "w1",
		ToWalletID:   "w2",
		Amount:       decimal.NewFromInt(100),
	})

	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestTransferHandler_Create_InvalidBody(t *testing.T) {
	handler := NewTransferHandler(&transferServiceStub{
		createFn: func(context.Context, usecase.CreateTransferInput) (*usecase.TransferResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/transfers", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
