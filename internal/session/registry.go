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

// Package session tracks which avatars are logged in and holds the
// capability tokens the simulators present on every call. Sessions live in
// memory only; a restart logs everyone out, and the simulators re-register
// on their next login.
package session

import (
	"sync"
	"time"
)

type entry struct {
	token    string
	loggedAt time.Time
}

// Registry is a concurrency-safe in-memory session table. A TTL of zero
// means sessions never expire and are only removed by explicit logout.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]entry
	secure      map[string]entry
	webSessions map[string]entry
	ttl         time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions:    make(map[string]entry),
		secure:      make(map[string]entry),
		webSessions: make(map[string]entry),
		ttl:         ttl,
	}
}

// Login records the viewer session and secure session tokens for a user,
// replacing any previous login.
func (r *Registry) Login(userID, sessionID, secureSessionID string) {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = entry{token: sessionID, loggedAt: now}
	r.secure[userID] = entry{token: secureSessionID, loggedAt: now}
}

// Logout drops the viewer session tokens. The web session, if any, survives.
func (r *Registry) Logout(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	delete(r.secure, userID)
}

// Validate checks both session tokens of a user. Expired entries are
// dropped on the way out.
func (r *Registry) Validate(userID, sessionID, secureSessionID string) bool {
	return r.check(r.sessions, userID, sessionID) &&
		r.check(r.secure, userID, secureSessionID)
}

// ValidateSecure checks only the secure session token. The viewer's
// currency endpoints send just that pair.
func (r *Registry) ValidateSecure(userID, secureSessionID string) bool {
	return r.check(r.secure, userID, secureSessionID)
}

// LoginWeb records the token of a web console session.
func (r *Registry) LoginWeb(userID, webSessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webSessions[userID] = entry{token: webSessionID, loggedAt: time.Now()}
}

func (r *Registry) LogoutWeb(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.webSessions, userID)
}

func (r *Registry) ValidateWeb(userID, webSessionID string) bool {
	return r.check(r.webSessions, userID, webSessionID)
}

func (r *Registry) check(table map[string]entry, userID, token string) bool {
	if token == "" {
		return false
	}

	r.mu.RLock()
	e, ok := table[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if r.ttl > 0 && time.Since(e.loggedAt) > r.ttl {
		r.mu.Lock()
		// Only evict the entry we judged stale; a re-login may have
		// raced this check.
		if cur, ok := table[userID]; ok && cur == e {
			delete(table, userID)
		}
		r.mu.Unlock()
		return false
	}

	return e.token == token
}
