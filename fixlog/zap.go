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

package fixlog

import "go.uber.org/zap"

// zapLog adapts a *zap.SugaredLogger into Log, tagging every line with the
// session it belongs to so multi-session processes can filter by field
// instead of by log-line prefix.
type zapLog struct {
	sugar     *zap.SugaredLogger
	sessionID string
}

// NewZapLog returns a Log backed by logger, labeled with sessionID.
func NewZapLog(logger *zap.Logger, sessionID string) Log {
	return &zapLog{sugar: logger.Sugar().With("session", sessionID), sessionID: sessionID}
}

func (l *zapLog) OnIncoming(raw []byte) {
	l.sugar.Debugw("fix incoming", "raw", string(raw))
}

func (l *zapLog) OnOutgoing(raw []byte) {
	l.sugar.Debugw("fix outgoing", "raw", string(raw))
}

func (l *zapLog) OnEvent(text string) {
	l.sugar.Info(text)
}

func (l *zapLog) OnEventf(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

// Factory mints a Log per SessionID, mirroring quickfix's LogFactory
// contract of producing one Log per session plus one for the engine as a
// whole.
type Factory struct {
	base *zap.Logger
}

// NewFactory returns a Factory that derives every session's Log from base.
func NewFactory(base *zap.Logger) *Factory {
	return &Factory{base: base}
}

// ForSession returns the Log for sessionID.
func (f *Factory) ForSession(sessionID string) Log {
	return NewZapLog(f.base, sessionID)
}

// Global returns the engine-wide Log, labeled "engine" rather than any one
// session.
func (f *Factory) Global() Log {
	return NewZapLog(f.base, "engine")
}
