package store

import (
	"context"
	"errors"

	"money-server-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound          = errors.New("not found")
	ErrUserExists        = errors.New("user already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotCancelable     = errors.New("transaction is not pending")
	ErrNotRollbackable   = errors.New("transaction is not reversible")
)

// BalanceKind tags the outcome of a balance query so callers cannot confuse
// a missing row with a legitimate balance.
type BalanceKind int

const (
	BalanceOK BalanceKind = iota
	BalanceNotFound
)

// BalanceResult is the tagged result of GetBalance. Amount is only
// meaningful when Kind is BalanceOK.
type BalanceResult struct {
	Kind   BalanceKind
	Amount int
}

// MoneyStore defines the contract the ledger backend must satisfy. Every
// operation that touches storage reports failure through the error return;
// business outcomes (missing row, insufficient funds, status-guard misses)
// use the sentinel errors above.
type MoneyStore interface {
	// --- Balances ---
	GetBalance(ctx context.Context, userID string) (BalanceResult, error)
	CreateUser(ctx context.Context, userID string, balance, status, class int) error

	// --- Transfer legs ---
	// Withdraw debits the sender and stamps the transaction's sender leg in
	// one atomic step, leaving the record Pending. Give credits the receiver
	// and flips the record to Success. Both skip the balance row when the
	// party is the system user.
	Withdraw(ctx context.Context, transactionID, senderID string, amount int) error
	Give(ctx context.Context, transactionID, receiverID string, amount int) error
	// BuyMoney credits a user without a withdraw leg and marks the
	// transaction Success (banker / currency-purchase path).
	BuyMoney(ctx context.Context, transactionID, userID string, amount int) error

	// --- Transactions ---
	AddTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, transactionID string, status int, description string) error
	FetchTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	FetchTransactions(ctx context.Context, userID string, startTime, endTime int64, offset, limit int) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, userID string, startTime, endTime int64) (int, error)
	ValidateTransferToken(ctx context.Context, secureCode, transactionID string) (bool, error)
	// CancelTransaction marks a transaction Failed only while it is still
	// Pending; ErrNotCancelable otherwise.
	CancelTransaction(ctx context.Context, transactionID, description string) error
	// Rollback reverses an applied transfer (debit receiver, credit sender,
	// Success -> Failed) in a single atomic step. Repeated calls converge:
	// once the record has left Success the call returns ErrNotRollbackable
	// without moving money.
	Rollback(ctx context.Context, transactionID, description string) error
	ExpirePending(ctx context.Context, deadline int64) (int64, error)

	// --- Sales aggregates ---
	UpsertSaleAggregate(ctx context.Context, sale *models.SaleAggregate) error
	RebuildSales(ctx context.Context) error

	// --- User info ---
	FetchUserInfo(ctx context.Context, userID string) (*models.UserInfo, error)
	AddUserInfo(ctx context.Context, info *models.UserInfo) error
	UpdateUserInfo(ctx context.Context, info *models.UserInfo) error
	UserExists(ctx context.Context, userID string) (bool, error)

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}
