/**
 * Copyright 2025-present Coinbase Global, Inc.
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

package session

import (
	"sync"

	"github.com/coinbase/fixengine/message"
)

// Registry is a SessionID -> *Session table guarded by its own mutex --
// an explicit value rather than a single process-wide singleton, so tests
// can hand a factory a fresh registry instead of sharing global state.
type Registry struct {
	mu       sync.Mutex
	sessions map[message.SessionID]*Session
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[message.SessionID]*Session)}
}

// DefaultRegistry is the process-wide registry convenience callers may
// share; nothing requires using it -- a SessionFactory can be handed any
// Registry value, including a fresh one per test.
var DefaultRegistry = NewRegistry()

// Register adds s under its SessionID, replacing any previous entry.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
}

// Unregister removes id from the table.
func (r *Registry) Unregister(id message.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Lookup returns the Session registered under id, if any.
func (r *Registry) Lookup(id message.SessionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// LookupFromHeader extracts a SessionID from header (reversing
// Sender/TargetCompID when reverse is true, the acceptor's view of an
// inbound message) and looks it up.
func (r *Registry) LookupFromHeader(header *message.FieldMap, reverse bool) (*Session, bool) {
	return r.Lookup(message.HeaderSessionID(header, reverse))
}

// All returns every currently registered session, in no particular order.
func (r *Registry) All() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
