package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"money-server-go/internal/models"
	"money-server-go/internal/store"
)

func testService(t *testing.T) *Service {
	t.Helper()

	cfg := models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "money_test.db"),
		MaxOpenConns:    2,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		PingTimeout:     5 * time.Second,
	}
	svc, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestCreateUserAndGetBalance(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	userID := "11111111-2222-3333-4444-555555555555"
	if err := svc.CreateUser(ctx, userID, 1000, 0, models.AvatarLocal); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	res, err := svc.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if res.Kind != store.BalanceOK {
		t.Fatalf("expected BalanceOK, got %v", res.Kind)
	}
	if res.Amount != 1000 {
		t.Errorf("expected balance 1000, got %d", res.Amount)
	}
}

func TestGetBalanceUnknownUser(t *testing.T) {
	svc := testService(t)

	res, err := svc.GetBalance(context.Background(), "99999999-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if res.Kind != store.BalanceNotFound {
		t.Errorf("expected BalanceNotFound, got %v", res.Kind)
	}
}

func TestGetBalanceSystemUser(t *testing.T) {
	svc := testService(t)

	res, err := svc.GetBalance(context.Background(), models.SystemUserID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if res.Kind != store.BalanceOK {
		t.Fatalf("expected BalanceOK, got %v", res.Kind)
	}
	if res.Amount != models.SystemBalance {
		t.Errorf("expected system balance %d, got %d", models.SystemBalance, res.Amount)
	}
}

func TestCreateUserTwice(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	userID := "11111111-2222-3333-4444-555555555555"
	if err := svc.CreateUser(ctx, userID, 1000, 0, models.AvatarLocal); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	err := svc.CreateUser(ctx, userID, 500, 0, models.AvatarLocal)
	if !errors.Is(err, store.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}

	res, err := svc.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if res.Amount != 1000 {
		t.Errorf("duplicate create must not change balance, got %d", res.Amount)
	}
}

func TestCreateSystemUserIsNoop(t *testing.T) {
	svc := testService(t)

	if err := svc.CreateUser(context.Background(), models.SystemUserID, 1000, 0, models.AvatarLocal); err != nil {
		t.Fatalf("CreateUser for system user: %v", err)
	}
}
