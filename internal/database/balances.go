package database

import (
	"context"
	"database/sql"
	"fmt"

	"money-server-go/internal/models"
	"money-server-go/internal/store"

	"go.uber.org/zap"
)

// GetBalance returns the tagged balance of a user. The system user reports
// the fixed sentinel and never hits storage.
func (s *Service) GetBalance(ctx context.Context, userID string) (store.BalanceResult, error) {
	if userID == models.SystemUserID {
		return store.BalanceResult{Kind: store.BalanceOK, Amount: models.SystemBalance}, nil
	}

	var balance int
	err := s.db.QueryRowContext(ctx, queryGetBalance, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return store.BalanceResult{Kind: store.BalanceNotFound}, nil
	}
	if err != nil {
		return store.BalanceResult{}, fmt.Errorf("unable to fetch balance of %s: %w", userID, err)
	}
	return store.BalanceResult{Kind: store.BalanceOK, Amount: balance}, nil
}

// CreateUser inserts a fresh balance row. A colliding insert reports
// store.ErrUserExists; callers decide whether that matters. The system user
// is a silent no-op.
func (s *Service) CreateUser(ctx context.Context, userID string, balance, status, class int) error {
	if userID == models.SystemUserID {
		return nil
	}

	exists, err := s.balanceRowExists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return store.ErrUserExists
	}

	if _, err := s.db.ExecContext(ctx, queryInsertBalance, userID, balance, status, class); err != nil {
		return fmt.Errorf("unable to add balance row for %s: %w", userID, err)
	}

	zap.L().Info("Balance row created",
		zap.String("user", userID),
		zap.Int("balance", balance),
		zap.Int("class", class))
	return nil
}

func (s *Service) balanceRowExists(ctx context.Context, userID string) (bool, error) {
	var balance int
	err := s.db.QueryRowContext(ctx, queryGetBalance, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to check balance row for %s: %w", userID, err)
	}
	return true, nil
}
