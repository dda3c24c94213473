package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"money-server-go/internal/models"
	"money-server-go/internal/store"

	"go.uber.org/zap"
)

// WebLogin authenticates a web console session against the password hash
// stored in the user's profile.
func (s *TransactionService) WebLogin(ctx context.Context, req *models.WebLoginRequest) *models.SimpleResponse {
	if req.UserID == "" || req.WebSessionID == "" {
		return &models.SimpleResponse{Description: "missing credentials"}
	}

	info, err := s.store.FetchUserInfo(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return &models.SimpleResponse{Description: "unauthorized"}
	}
	if err != nil {
		zap.L().Error("Failed to fetch user info for web login",
			zap.String("user", req.UserID), zap.Error(err))
		return &models.SimpleResponse{Description: "unable to log in"}
	}
	if !hashEqual(info.PswHash, req.PasswordHash) {
		return &models.SimpleResponse{Description: "unauthorized"}
	}

	s.sessions.LoginWeb(req.UserID, req.WebSessionID)
	zap.L().Info("Web login", zap.String("user", req.UserID))
	return &models.SimpleResponse{Success: true}
}

func (s *TransactionService) WebLogout(ctx context.Context, req *models.WebLogoutRequest) *models.SimpleResponse {
	s.sessions.LogoutWeb(req.UserID)
	return &models.SimpleResponse{Success: true}
}

func (s *TransactionService) WebGetBalance(ctx context.Context, req *models.WebGetBalanceRequest) *models.WebGetBalanceResponse {
	if !s.sessions.ValidateWeb(req.UserID, req.WebSessionID) {
		return &models.WebGetBalanceResponse{Description: "unauthorized"}
	}

	res, err := s.store.GetBalance(ctx, req.UserID)
	if err != nil {
		zap.L().Error("Failed to read balance for web",
			zap.String("user", req.UserID), zap.Error(err))
		return &models.WebGetBalanceResponse{Description: "unable to read balance"}
	}
	if res.Kind != store.BalanceOK {
		return &models.WebGetBalanceResponse{Description: "no such account"}
	}
	return &models.WebGetBalanceResponse{Success: true, Balance: res.Amount}
}

// WebGetTransaction returns the transaction at the given index inside the
// time window. The console pages through history one record at a time.
func (s *TransactionService) WebGetTransaction(ctx context.Context, req *models.WebGetTransactionRequest) *models.WebGetTransactionResponse {
	if !s.sessions.ValidateWeb(req.UserID, req.WebSessionID) {
		return &models.WebGetTransactionResponse{Description: "unauthorized"}
	}
	if req.Index < 0 {
		return &models.WebGetTransactionResponse{Description: "invalid index"}
	}

	list, err := s.store.FetchTransactions(ctx, req.UserID, req.StartTime, req.EndTime, req.Index, 1)
	if err != nil {
		zap.L().Error("Failed to list transactions for web",
			zap.String("user", req.UserID), zap.Error(err))
		return &models.WebGetTransactionResponse{Description: "unable to list transactions"}
	}
	if len(list) == 0 {
		return &models.WebGetTransactionResponse{Description: "no more transactions"}
	}

	tx := list[0]
	return &models.WebGetTransactionResponse{
		Success: true,
		Transaction: models.WebTransactionEntry{
			TransactionID: tx.ID,
			Sender:        tx.Sender,
			Receiver:      tx.Receiver,
			Amount:        tx.Amount,
			Type:          tx.Type,
			Time:          tx.Time,
			Status:        tx.Status,
			Description:   tx.Description,
		},
	}
}

func (s *TransactionService) WebGetTransactionNum(ctx context.Context, req *models.WebGetTransactionNumRequest) *models.WebGetTransactionNumResponse {
	if !s.sessions.ValidateWeb(req.UserID, req.WebSessionID) {
		return &models.WebGetTransactionNumResponse{Description: "unauthorized"}
	}

	count, err := s.store.CountTransactions(ctx, req.UserID, req.StartTime, req.EndTime)
	if err != nil {
		zap.L().Error("Failed to count transactions for web",
			zap.String("user", req.UserID), zap.Error(err))
		return &models.WebGetTransactionNumResponse{Description: "unable to count transactions"}
	}
	return &models.WebGetTransactionNumResponse{Success: true, Number: count}
}

// hashEqual compares password hashes without leaking the position of the
// first differing byte. Hex digests compare case-insensitively.
func hashEqual(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	a := strings.ToLower(stored)
	b := strings.ToLower(presented)
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
