package api

import (
	"context"
	"errors"

	"money-server-go/internal/models"
	"money-server-go/internal/store"

	"go.uber.org/zap"
)

// CancelTransfer withdraws a still-pending transaction. The caller proves
// authority with the capability token issued when the transaction was
// recorded. A transfer that already settled cannot be canceled; the money
// moved and only compensation may pull it back.
func (s *TransactionService) CancelTransfer(ctx context.Context, req *models.CancelTransferRequest) *models.SimpleResponse {
	ok, err := s.store.ValidateTransferToken(ctx, req.SecureCode, req.TransactionID)
	if err != nil {
		zap.L().Error("Failed to validate cancel token",
			zap.String("transaction", req.TransactionID), zap.Error(err))
		return &models.SimpleResponse{Description: "unable to validate token"}
	}
	if !ok {
		return &models.SimpleResponse{Description: "unauthorized"}
	}

	err = s.store.CancelTransaction(ctx, req.TransactionID, "canceled by caller")
	if errors.Is(err, store.ErrNotCancelable) {
		return &models.SimpleResponse{Description: "transaction already settled"}
	}
	if err != nil {
		zap.L().Error("Failed to cancel transaction",
			zap.String("transaction", req.TransactionID), zap.Error(err))
		return &models.SimpleResponse{Description: "unable to cancel"}
	}

	zap.L().Info("Transaction canceled", zap.String("transaction", req.TransactionID))
	return &models.SimpleResponse{Success: true}
}

// GetTransaction returns one transaction to a party of it.
func (s *TransactionService) GetTransaction(ctx context.Context, req *models.GetTransactionRequest) *models.GetTransactionResponse {
	if !s.sessions.Validate(req.ClientID, req.SessionID, req.SecureSessionID) {
		return &models.GetTransactionResponse{Description: "unauthorized"}
	}

	tx, err := s.store.FetchTransaction(ctx, req.TransactionID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.GetTransactionResponse{Description: "no such transaction"}
	}
	if err != nil {
		zap.L().Error("Failed to fetch transaction",
			zap.String("transaction", req.TransactionID), zap.Error(err))
		return &models.GetTransactionResponse{Description: "unable to fetch transaction"}
	}
	if tx.Sender != req.ClientID && tx.Receiver != req.ClientID {
		return &models.GetTransactionResponse{Description: "unauthorized"}
	}

	return &models.GetTransactionResponse{
		Success:     true,
		Amount:      tx.Amount,
		Time:        tx.Time,
		Type:        tx.Type,
		Sender:      tx.Sender,
		Receiver:    tx.Receiver,
		Description: tx.Description,
	}
}
