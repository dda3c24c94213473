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

// Package notifier pushes money events back to the region simulators over
// XML-RPC. Balance updates are best effort; only the transfer-settlement
// callback feeds back into transaction state.
package notifier

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kolo/xmlrpc"
)

// TransferNotice tells the receiving simulator that a transfer settled so
// it can deliver the purchased object or trigger the scripted event.
type TransferNotice struct {
	TransactionID string `xmlrpc:"transactionID"`
	SenderID      string `xmlrpc:"senderID"`
	ReceiverID    string `xmlrpc:"receiverID"`
	Amount        int    `xmlrpc:"amount"`
	ObjectID      string `xmlrpc:"objectID"`
	Type          int    `xmlrpc:"transactionType"`
	SecureCode    string `xmlrpc:"secureCode"`
}

type transferReply struct {
	Success bool `xmlrpc:"success"`
}

// BalanceUpdate refreshes the viewer's balance display, optionally with a
// chat message describing the movement.
type BalanceUpdate struct {
	ClientID string `xmlrpc:"clientUUID"`
	Balance  int    `xmlrpc:"clientBalance"`
	Message  string `xmlrpc:"message"`
}

type balanceReply struct {
	Success bool `xmlrpc:"success"`
}

// Notifier issues XML-RPC calls to simulator addresses recorded at login.
type Notifier struct {
	timeout time.Duration
}

func New(timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{timeout: timeout}
}

func (n *Notifier) call(simAddr, method string, args, reply any) error {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: n.timeout}).DialContext,
		ResponseHeaderTimeout: n.timeout,
	}
	client, err := xmlrpc.NewClient("http://"+simAddr+"/", transport)
	if err != nil {
		return fmt.Errorf("unable to reach simulator %s: %w", simAddr, err)
	}
	defer client.Close()

	if err := client.Call(method, args, reply); err != nil {
		return fmt.Errorf("%s call to %s failed: %w", method, simAddr, err)
	}
	return nil
}

// OnMoneyTransferred reports a settled transfer to the receiver's simulator
// and returns whether the simulator accepted delivery. A false return is
// the signal to reverse the transfer.
func (n *Notifier) OnMoneyTransferred(simAddr string, notice *TransferNotice) (bool, error) {
	var reply transferReply
	if err := n.call(simAddr, "OnMoneyTransfered", notice, &reply); err != nil {
		return false, err
	}
	return reply.Success, nil
}

// UpdateBalance refreshes the viewer balance display. Failures are the
// caller's to log and ignore.
func (n *Notifier) UpdateBalance(simAddr string, update *BalanceUpdate) error {
	var reply balanceReply
	return n.call(simAddr, "UpdateBalance", update, &reply)
}

// UserAlert pops a dialog in the user's viewer.
func (n *Notifier) UserAlert(simAddr, userID, message string) error {
	args := struct {
		ClientID string `xmlrpc:"clientUUID"`
		Message  string `xmlrpc:"message"`
	}{ClientID: userID, Message: message}
	var reply balanceReply
	return n.call(simAddr, "UserAlert", &args, &reply)
}
