package database

import (
	"context"
	"database/sql"
	"fmt"

	"money-server-go/internal/models"
	"money-server-go/internal/store"

	"go.uber.org/zap"
)

// AddTransaction inserts a fresh Pending record. SenderBalance and
// ReceiverBalance start at -1 until the matching leg is applied.
func (s *Service) AddTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ObjectID == "" {
		tx.ObjectID = models.SystemUserID
	}

	_, err := s.db.ExecContext(ctx, queryInsertTransaction,
		tx.ID, tx.Sender, tx.Receiver, tx.Amount,
		tx.ObjectID, tx.ObjectName, tx.RegionHandle, tx.RegionID,
		tx.Type, tx.Time, tx.SecureCode, tx.Status, tx.CommonName, tx.Description)
	if err != nil {
		return fmt.Errorf("unable to add transaction %s: %w", tx.ID, err)
	}
	return nil
}

// Withdraw debits the sender and stamps the sender leg of the transaction in
// one database transaction, so the balance change and its bookkeeping land
// together or not at all. The record stays Pending until Give flips it.
//
// Balances never go negative: an insufficient balance fails the whole leg
// with store.ErrInsufficientFunds and no mutation.
func (s *Service) Withdraw(ctx context.Context, transactionID, senderID string, amount int) error {
	// System sender: no balance row to touch, just satisfy the sender leg.
	if senderID == models.SystemUserID {
		res, err := s.db.ExecContext(ctx, queryStampSenderLeg,
			0, models.StatusPending, transactionID, senderID)
		if err != nil {
			return fmt.Errorf("unable to stamp system sender leg of %s: %w", transactionID, err)
		}
		return requireRow(res, transactionID)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin withdraw of %s: %w", transactionID, err)
	}
	defer dbtx.Rollback()

	var balance int
	err = dbtx.QueryRowContext(ctx, queryGetBalance, senderID).Scan(&balance)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("unable to read sender balance for %s: %w", transactionID, err)
	}
	if balance < amount {
		return store.ErrInsufficientFunds
	}

	res, err := dbtx.ExecContext(ctx, queryDebitBalance, amount, senderID, amount)
	if err != nil {
		return fmt.Errorf("unable to debit sender for %s: %w", transactionID, err)
	}
	if err := requireRow(res, transactionID); err != nil {
		return err
	}

	res, err = dbtx.ExecContext(ctx, queryStampSenderLeg,
		balance-amount, models.StatusPending, transactionID, senderID)
	if err != nil {
		return fmt.Errorf("unable to stamp sender leg of %s: %w", transactionID, err)
	}
	if err := requireRow(res, transactionID); err != nil {
		return err
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("unable to commit withdraw of %s: %w", transactionID, err)
	}
	return nil
}

// Give credits the receiver, stamps the receiver leg and flips the record to
// Success, all in one database transaction.
func (s *Service) Give(ctx context.Context, transactionID, receiverID string, amount int) error {
	if receiverID == models.SystemUserID {
		res, err := s.db.ExecContext(ctx, queryStampReceiverLeg,
			0, models.StatusSuccess, transactionID, receiverID)
		if err != nil {
			return fmt.Errorf("unable to stamp system receiver leg of %s: %w", transactionID, err)
		}
		return requireRow(res, transactionID)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin give of %s: %w", transactionID, err)
	}
	defer dbtx.Rollback()

	var balance int
	err = dbtx.QueryRowContext(ctx, queryGetBalance, receiverID).Scan(&balance)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("unable to read receiver balance for %s: %w", transactionID, err)
	}

	if _, err := dbtx.ExecContext(ctx, queryCreditBalance, amount, receiverID); err != nil {
		return fmt.Errorf("unable to credit receiver for %s: %w", transactionID, err)
	}

	res, err := dbtx.ExecContext(ctx, queryStampReceiverLeg,
		balance+amount, models.StatusSuccess, transactionID, receiverID)
	if err != nil {
		return fmt.Errorf("unable to stamp receiver leg of %s: %w", transactionID, err)
	}
	if err := requireRow(res, transactionID); err != nil {
		return err
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("unable to commit give of %s: %w", transactionID, err)
	}
	return nil
}

// BuyMoney credits a user without a withdraw leg and marks the record
// Success. Used by the banker and currency-purchase paths.
func (s *Service) BuyMoney(ctx context.Context, transactionID, userID string, amount int) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin buy-money of %s: %w", transactionID, err)
	}
	defer dbtx.Rollback()

	var balance int
	err = dbtx.QueryRowContext(ctx, queryGetBalance, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("unable to read balance for %s: %w", transactionID, err)
	}

	if _, err := dbtx.ExecContext(ctx, queryCreditBalance, amount, userID); err != nil {
		return fmt.Errorf("unable to credit user for %s: %w", transactionID, err)
	}

	res, err := dbtx.ExecContext(ctx, queryStampReceiverLeg,
		balance+amount, models.StatusSuccess, transactionID, userID)
	if err != nil {
		return fmt.Errorf("unable to stamp buy-money leg of %s: %w", transactionID, err)
	}
	if err := requireRow(res, transactionID); err != nil {
		return err
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("unable to commit buy-money of %s: %w", transactionID, err)
	}
	return nil
}

// Rollback reverses an applied transfer: debit the receiver, credit the
// sender, flip Success -> Failed. The whole reversal is one database
// transaction, and the status guard makes repeated attempts converge
// instead of double-crediting.
//
// The reversal debit is deliberately unguarded: restoring the sender takes
// priority over the non-negative invariant, so a receiver who already spent
// the money can be driven negative here.
func (s *Service) Rollback(ctx context.Context, transactionID, description string) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin rollback of %s: %w", transactionID, err)
	}
	defer dbtx.Rollback()

	tx, err := fetchTransactionTx(ctx, dbtx, transactionID)
	if err != nil {
		return err
	}
	if tx.Status != models.StatusSuccess {
		return store.ErrNotRollbackable
	}

	if tx.Receiver != models.SystemUserID {
		if _, err := dbtx.ExecContext(ctx, queryCreditBalance, -tx.Amount, tx.Receiver); err != nil {
			return fmt.Errorf("unable to pull back %d from %s: %w", tx.Amount, tx.Receiver, err)
		}
	}
	if tx.Sender != models.SystemUserID {
		if _, err := dbtx.ExecContext(ctx, queryCreditBalance, tx.Amount, tx.Sender); err != nil {
			return fmt.Errorf("unable to return %d to %s: %w", tx.Amount, tx.Sender, err)
		}
	}

	res, err := dbtx.ExecContext(ctx, queryUpdateStatusGuarded,
		models.StatusFailed, description, transactionID, models.StatusSuccess)
	if err != nil {
		return fmt.Errorf("unable to fail transaction %s: %w", transactionID, err)
	}
	if err := requireRow(res, transactionID); err != nil {
		return err
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("unable to commit rollback of %s: %w", transactionID, err)
	}

	zap.L().Info("Transaction rolled back",
		zap.String("transaction", transactionID),
		zap.String("sender", tx.Sender),
		zap.String("receiver", tx.Receiver),
		zap.Int("amount", tx.Amount))
	return nil
}

// UpdateTransactionStatus overwrites status and description unconditionally.
func (s *Service) UpdateTransactionStatus(ctx context.Context, transactionID string, status int, description string) error {
	res, err := s.db.ExecContext(ctx, queryUpdateStatus, status, description, transactionID)
	if err != nil {
		return fmt.Errorf("unable to update status of %s: %w", transactionID, err)
	}
	return requireRow(res, transactionID)
}

// CancelTransaction marks a transaction Failed only while it is still
// Pending. Canceling a settled transfer must not silently succeed: funds
// already moved and only Rollback may reverse them.
func (s *Service) CancelTransaction(ctx context.Context, transactionID, description string) error {
	res, err := s.db.ExecContext(ctx, queryUpdateStatusGuarded,
		models.StatusFailed, description, transactionID, models.StatusPending)
	if err != nil {
		return fmt.Errorf("unable to cancel transaction %s: %w", transactionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check cancel of %s: %w", transactionID, err)
	}
	if affected == 0 {
		return store.ErrNotCancelable
	}
	return nil
}

// ValidateTransferToken compares the caller-supplied capability token
// against the stored secure code.
func (s *Service) ValidateTransferToken(ctx context.Context, secureCode, transactionID string) (bool, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, querySelectSecureCode, transactionID).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("unable to read secure code of %s: %w", transactionID, err)
	}
	return stored != "" && stored == secureCode, nil
}

// ExpirePending fails every Pending transaction whose timestamp is at or
// before the deadline. Running it twice with the same deadline is a no-op
// the second time.
func (s *Service) ExpirePending(ctx context.Context, deadline int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, queryExpirePending,
		models.StatusFailed, deadline, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("unable to expire pending transactions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unable to count expired transactions: %w", err)
	}
	return affected, nil
}

func (s *Service) FetchTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := s.db.QueryRowContext(ctx, querySelectTransaction, transactionID).Scan(
		&tx.ID, &tx.Sender, &tx.Receiver, &tx.Amount,
		&tx.SenderBalance, &tx.ReceiverBalance,
		&tx.ObjectID, &tx.ObjectName, &tx.RegionHandle, &tx.RegionID,
		&tx.Type, &tx.Time, &tx.SecureCode, &tx.Status,
		&tx.CommonName, &tx.Description)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch transaction %s: %w", transactionID, err)
	}
	return tx, nil
}

// FetchTransactions lists a user's transactions inside the time window,
// ordered by ascending time.
func (s *Service) FetchTransactions(ctx context.Context, userID string, startTime, endTime int64, offset, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, querySelectTransactions,
		startTime, endTime, userID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to list transactions of %s: %w", userID, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		err := rows.Scan(
			&tx.ID, &tx.Sender, &tx.Receiver, &tx.Amount,
			&tx.SenderBalance, &tx.ReceiverBalance,
			&tx.ObjectID, &tx.ObjectName, &tx.RegionHandle, &tx.RegionID,
			&tx.Type, &tx.Time, &tx.SecureCode, &tx.Status,
			&tx.CommonName, &tx.Description)
		if err != nil {
			return nil, fmt.Errorf("unable to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (s *Service) CountTransactions(ctx context.Context, userID string, startTime, endTime int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, queryCountTransactions,
		startTime, endTime, userID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unable to count transactions of %s: %w", userID, err)
	}
	return count, nil
}

func fetchTransactionTx(ctx context.Context, dbtx *sql.Tx, transactionID string) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := dbtx.QueryRowContext(ctx, querySelectTransaction, transactionID).Scan(
		&tx.ID, &tx.Sender, &tx.Receiver, &tx.Amount,
		&tx.SenderBalance, &tx.ReceiverBalance,
		&tx.ObjectID, &tx.ObjectName, &tx.RegionHandle, &tx.RegionID,
		&tx.Type, &tx.Time, &tx.SecureCode, &tx.Status,
		&tx.CommonName, &tx.Description)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch transaction %s: %w", transactionID, err)
	}
	return tx, nil
}

func requireRow(res sql.Result, transactionID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check rows affected for %s: %w", transactionID, err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
