package database

import (
	"context"
	"database/sql"
	"fmt"

	"money-server-go/internal/models"
	"money-server-go/internal/store"
)

func (s *Service) FetchUserInfo(ctx context.Context, userID string) (*models.UserInfo, error) {
	info := &models.UserInfo{}
	err := s.db.QueryRowContext(ctx, querySelectUserInfo, userID).Scan(
		&info.UserID, &info.SimIP, &info.Avatar, &info.PswHash,
		&info.Type, &info.Class, &info.ServerURL)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch user info for %s: %w", userID, err)
	}
	return info, nil
}

// AddUserInfo records or refreshes the session-time profile of a user.
// Re-login from another region overwrites the previous row.
func (s *Service) AddUserInfo(ctx context.Context, info *models.UserInfo) error {
	_, err := s.db.ExecContext(ctx, queryUpsertUserInfo,
		info.UserID, info.SimIP, info.Avatar, info.PswHash,
		info.Type, info.Class, info.ServerURL)
	if err != nil {
		return fmt.Errorf("unable to add user info for %s: %w", info.UserID, err)
	}
	return nil
}

func (s *Service) UpdateUserInfo(ctx context.Context, info *models.UserInfo) error {
	res, err := s.db.ExecContext(ctx, queryUpdateUserInfo,
		info.SimIP, info.Avatar, info.PswHash,
		info.Type, info.Class, info.ServerURL, info.UserID)
	if err != nil {
		return fmt.Errorf("unable to update user info for %s: %w", info.UserID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check user info update for %s: %w", info.UserID, err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Service) UserExists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, queryUserExists, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to check user %s: %w", userID, err)
	}
	return true, nil
}
