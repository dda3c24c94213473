/**
 * Copyright 2025-present the money-server-go authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	"money-server-go/internal/models"
	"money-server-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.MoneyStore.
var _ store.MoneyStore = (*Service)(nil)

// Current table revisions. Bump when adding a migration step below.
const (
	balancesRev     = 2
	userinfoRev     = 2
	transactionsRev = 3
	totalsalesRev   = 2
)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Ledger store initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// Ping verifies the pool can still reach storage. The pool re-establishes
// broken connections on its own; this exists for the admin health path.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS table_revisions (
		name TEXT PRIMARY KEY,
		rev INTEGER NOT NULL
	);

	-- One row per avatar; the system user never gets a row.
	CREATE TABLE IF NOT EXISTS balances (
		user TEXT PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0,
		status INTEGER NOT NULL DEFAULT 0,
		type INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS transactions (
		uuid TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		amount INTEGER NOT NULL,
		sender_balance INTEGER NOT NULL DEFAULT -1,
		receiver_balance INTEGER NOT NULL DEFAULT -1,
		object_uuid TEXT NOT NULL DEFAULT '',
		object_name TEXT NOT NULL DEFAULT '',
		region_handle TEXT NOT NULL DEFAULT '0',
		region_uuid TEXT NOT NULL DEFAULT '',
		type INTEGER NOT NULL DEFAULT 0,
		time INTEGER NOT NULL,
		secure TEXT NOT NULL DEFAULT '',
		status INTEGER NOT NULL DEFAULT 1,
		common_name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_time ON transactions(time);
	CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender);
	CREATE INDEX IF NOT EXISTS idx_transactions_receiver ON transactions(receiver);
	CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);

	CREATE TABLE IF NOT EXISTS userinfo (
		user TEXT PRIMARY KEY,
		sim_ip TEXT NOT NULL DEFAULT '',
		avatar TEXT NOT NULL DEFAULT '',
		psw_hash TEXT NOT NULL DEFAULT '',
		type INTEGER NOT NULL DEFAULT 0,
		class INTEGER NOT NULL DEFAULT 0,
		server_url TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS totalsales (
		uuid TEXT PRIMARY KEY,
		user TEXT NOT NULL,
		object_uuid TEXT NOT NULL,
		type INTEGER NOT NULL,
		total_count INTEGER NOT NULL DEFAULT 0,
		total_amount INTEGER NOT NULL DEFAULT 0,
		time INTEGER NOT NULL,
		UNIQUE(user, object_uuid, type)
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return s.migrate(ctx)
}

// migrate walks each table forward from its recorded revision. Fresh
// databases are created at the current revision, so the steps only fire for
// ledgers carried over from older deployments.
func (s *Service) migrate(ctx context.Context) error {
	steps := map[string]struct {
		current int
		upgrade map[int]string
	}{
		"balances": {balancesRev, map[int]string{
			1: `ALTER TABLE balances ADD COLUMN type INTEGER NOT NULL DEFAULT 0`,
		}},
		"userinfo": {userinfoRev, map[int]string{
			1: `ALTER TABLE userinfo ADD COLUMN server_url TEXT NOT NULL DEFAULT ''`,
		}},
		"transactions": {transactionsRev, map[int]string{
			1: `ALTER TABLE transactions ADD COLUMN region_uuid TEXT NOT NULL DEFAULT ''`,
			2: `ALTER TABLE transactions ADD COLUMN common_name TEXT NOT NULL DEFAULT ''`,
		}},
		"totalsales": {totalsalesRev, map[int]string{
			1: `CREATE UNIQUE INDEX IF NOT EXISTS idx_totalsales_seller ON totalsales(user, object_uuid, type)`,
		}},
	}

	for name, step := range steps {
		rev, err := s.tableRevision(ctx, name, step.current)
		if err != nil {
			return fmt.Errorf("unable to read revision of %s: %w", name, err)
		}
		for ; rev < step.current; rev++ {
			stmt, ok := step.upgrade[rev]
			if !ok {
				return fmt.Errorf("no migration from %s rev %d", name, rev)
			}
			zap.L().Info("Migrating table",
				zap.String("table", name),
				zap.Int("from_rev", rev),
				zap.Int("to_rev", rev+1))
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration of %s from rev %d failed: %w", name, rev, err)
			}
			if _, err := s.db.ExecContext(ctx, queryBumpRevision, rev+1, name); err != nil {
				return fmt.Errorf("unable to record revision of %s: %w", name, err)
			}
		}
	}
	return nil
}

// tableRevision returns the recorded revision for a table, inserting the
// current one for tables this process just created.
func (s *Service) tableRevision(ctx context.Context, name string, current int) (int, error) {
	var rev int
	err := s.db.QueryRowContext(ctx, queryGetRevision, name).Scan(&rev)
	if err == sql.ErrNoRows {
		if _, err := s.db.ExecContext(ctx, queryInsertRevision, name, current); err != nil {
			return 0, err
		}
		return current, nil
	}
	if err != nil {
		return 0, err
	}
	return rev, nil
}
