// Copyright 2025-present the money-server-go authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api implements the money-server operations behind the XML-RPC
// surface: logins, transfers, compensating rollbacks, the web console and
// the viewer's currency endpoints. Handlers never return protocol faults
// for business failures; they answer success=false with a description, the
// way the simulators expect.
package api

import (
	"context"

	"money-server-go/internal/models"
	"money-server-go/internal/notifier"
	"money-server-go/internal/session"
	"money-server-go/internal/store"

	"go.uber.org/zap"
)

// Notifier is the outbound side of the protocol: callbacks into the region
// simulators. Satisfied by notifier.Notifier.
type Notifier interface {
	OnMoneyTransferred(simAddr string, notice *notifier.TransferNotice) (bool, error)
	UpdateBalance(simAddr string, update *notifier.BalanceUpdate) error
	UserAlert(simAddr, userID, message string) error
}

// TransactionService wires the ledger store, the session registry and the
// simulator notifier together behind the RPC handlers.
type TransactionService struct {
	store    store.MoneyStore
	sessions *session.Registry
	notifier Notifier
	cfg      *models.Config
}

func NewTransactionService(st store.MoneyStore, sessions *session.Registry, n Notifier, cfg *models.Config) *TransactionService {
	return &TransactionService{
		store:    st,
		sessions: sessions,
		notifier: n,
		cfg:      cfg,
	}
}

// balanceOf reads a balance for a response payload. Storage errors are
// logged and reported as zero; the viewer refreshes on the next poll.
func (s *TransactionService) balanceOf(ctx context.Context, userID string) int {
	res, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		zap.L().Error("Failed to read balance", zap.String("user", userID), zap.Error(err))
		return 0
	}
	if res.Kind != store.BalanceOK {
		return 0
	}
	return res.Amount
}

// simAddrOf resolves the simulator address a user logged in from. Empty
// when the user is offline or unknown.
func (s *TransactionService) simAddrOf(ctx context.Context, userID string) string {
	info, err := s.store.FetchUserInfo(ctx, userID)
	if err != nil {
		return ""
	}
	return info.SimIP
}
