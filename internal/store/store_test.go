package store

import (
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestMoneyStoreInterfaceExists(t *testing.T) {
	// This test simply validates that the MoneyStore interface compiles
	// and the sentinel errors are accessible.
	_ = ErrNotFound
	_ = ErrUserExists
	_ = ErrInsufficientFunds
	_ = ErrNotCancelable
	_ = ErrNotRollbackable
	_ = BalanceResult{}

	// Ensure the interface is non-nil type.
	var _ MoneyStore
}

func TestBalanceResultKinds(t *testing.T) {
	ok := BalanceResult{Kind: BalanceOK, Amount: 300}
	if ok.Kind != BalanceOK || ok.Amount != 300 {
		t.Errorf("unexpected result %+v", ok)
	}

	missing := BalanceResult{Kind: BalanceNotFound}
	if missing.Kind == BalanceOK {
		t.Error("not-found result must not compare equal to BalanceOK")
	}
}
