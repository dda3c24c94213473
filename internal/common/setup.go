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

package common

import (
	"context"
	"log"
	"strings"
	"time"

	"money-server-go/internal/api"
	"money-server-go/internal/database"
	"money-server-go/internal/models"
	"money-server-go/internal/notifier"
	"money-server-go/internal/session"
	"money-server-go/internal/sweeper"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from a .env file if one exists.
// Configuration can equally come from the shell or the container runtime.
func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

// Services bundles everything the money server needs at runtime.
type Services struct {
	DbService  *database.Service
	Sessions   *session.Registry
	ApiService *api.TransactionService
	Sweeper    *sweeper.Sweeper
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	// Sale aggregates are rebuilt from history so a crash between a sale
	// and its bookkeeping leaves no gap.
	if err := dbService.RebuildSales(ctx); err != nil {
		dbService.Close()
		return nil, err
	}

	sessions := session.NewRegistry(cfg.Money.SessionTTL)
	sink := notifier.New(10 * time.Second)
	apiService := api.NewTransactionService(dbService, sessions, sink, cfg)

	sweep, err := sweeper.New(dbService, cfg.Sweeper)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	return &Services{
		DbService:  dbService,
		Sessions:   sessions,
		ApiService: apiService,
		Sweeper:    sweep,
	}, nil
}

func (cs *Services) Close() {
	if cs.Sweeper != nil {
		cs.Sweeper.Stop()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
