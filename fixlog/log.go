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

// Package fixlog adapts structured logging onto the session/dictionary
// event surface: every state transition and rejection emits a one-line
// event through the log. It plays the role quickfix's LogFactory/Log
// pair plays, but against go.uber.org/zap instead of the C++ engine's
// file-based logger.
package fixlog

// Log receives session-level events: raw inbound/outbound bytes and
// one-line textual events (state transitions, rejects, dictionary load
// failures).
type Log interface {
	OnIncoming(raw []byte)
	OnOutgoing(raw []byte)
	OnEvent(text string)
	OnEventf(format string, args ...any)
}

// nopLog discards everything. It is the package-level default so callers
// that never configure a Log still get a working, allocation-free no-op.
type nopLog struct{}

func (nopLog) OnIncoming([]byte)            {}
func (nopLog) OnOutgoing([]byte)            {}
func (nopLog) OnEvent(string)               {}
func (nopLog) OnEventf(string, ...any)      {}

// Nop is the shared no-op Log.
var Nop Log = nopLog{}
