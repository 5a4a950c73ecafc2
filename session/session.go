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

// Package session implements the protocol state machine: logon/logout
// negotiation, heartbeat/test-request liveness, gap detection
// and resend, reject generation, and session-time enforcement, wired
// against a SessionState, two DataDictionary instances (session and
// application), a ValidationRules overlay, a Schedule, a Responder, a
// MessageStore (reached through SessionState) and a user Application.
package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/coinbase/fixengine/datadictionary"
	"github.com/coinbase/fixengine/fixlog"
	"github.com/coinbase/fixengine/message"
	"github.com/coinbase/fixengine/schedule"
	"github.com/coinbase/fixengine/sessionstate"
	"github.com/coinbase/fixengine/validationrules"
	"github.com/coinbase/fixengine/wire"
)

// Config bundles everything a SessionFactory resolves from settings before
// constructing a Session.
type Config struct {
	ID         message.SessionID
	Initiate   bool
	SessionDD  *datadictionary.DataDictionary
	AppDD      *datadictionary.DataDictionary
	DefaultApplVerID string // FIXT sessions only

	Rules *validationrules.ValidationRules

	HeartBtInt    time.Duration
	LogonTimeout  time.Duration
	LogoutTimeout time.Duration

	CheckLatency                bool
	MaxLatency                  time.Duration
	CheckCompID                 bool
	ResetOnLogon                bool
	ResetOnLogout                bool
	MillisecondsInTimeStamp     bool
	PersistMessages             bool
	SendRedundantResendRequests bool
}

// Session is the protocol state machine for one counterparty relationship.
// mu guards sendRaw, disconnect and nextResendRequest, the three
// operations the concurrency model requires to be serialized per session;
// a separate registry mutex (see Registry) guards the process-wide table.
type Session struct {
	mu sync.Mutex

	id       message.SessionID
	initiate bool

	sessionDD        *datadictionary.DataDictionary
	appDD            *datadictionary.DataDictionary
	defaultApplVerID string
	rules            *validationrules.ValidationRules

	state *sessionstate.State

	schedMu sync.Mutex
	sched   *schedule.Schedule
	stopped bool // Stop() disables auto-reconnect without mutating sched

	responder Responder
	app       Application
	log       fixlog.Log
	registry  *Registry

	checkLatency            bool
	maxLatency              time.Duration
	checkCompID             bool
	resetOnLogon            bool
	resetOnLogout           bool
	millisInTime            bool
	persistMessages         bool
	sendRedundantResendReqs bool
}

// New constructs a Session wired against cfg, the given state, app, log and
// registry, with a null schedule (set explicitly via SetSchedule). The
// Responder is supplied later, once a transport connection exists, via
// SetResponder.
func New(cfg Config, state *sessionstate.State, app Application, log fixlog.Log, registry *Registry) *Session {
	if log == nil {
		log = fixlog.Nop
	}
	s := &Session{
		id:                      cfg.ID,
		initiate:                cfg.Initiate,
		sessionDD:               cfg.SessionDD,
		appDD:                   cfg.AppDD,
		defaultApplVerID:        cfg.DefaultApplVerID,
		rules:                   cfg.Rules,
		state:                   state,
		sched:                   schedule.Null(),
		app:                     app,
		log:                     log,
		registry:                registry,
		checkLatency:            cfg.CheckLatency,
		maxLatency:              cfg.MaxLatency,
		checkCompID:             cfg.CheckCompID,
		resetOnLogon:            cfg.ResetOnLogon,
		resetOnLogout:           cfg.ResetOnLogout,
		millisInTime:            cfg.MillisecondsInTimeStamp,
		persistMessages:         cfg.PersistMessages,
		sendRedundantResendReqs: cfg.SendRedundantResendRequests,
	}
	state.SetHeartBtInt(cfg.HeartBtInt)
	state.SetLogonTimeout(cfg.LogonTimeout)
	state.SetLogoutTimeout(cfg.LogoutTimeout)
	return s
}

// ID returns this session's identity.
func (s *Session) ID() message.SessionID { return s.id }

// SetResponder installs the transport collaborator a connected Session
// transmits through. A Session with no Responder can still be built and
// have its state inspected, but Send/sendRaw will fail.
func (s *Session) SetResponder(r Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = r
}

// SetSchedule atomically replaces the session-time window.
func (s *Session) SetSchedule(sched *schedule.Schedule) {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	s.sched = sched
}

func (s *Session) schedule() *schedule.Schedule {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	return s.sched
}

// IsLoggedOn reports whether logon has been exchanged both ways.
func (s *Session) IsLoggedOn() bool { return s.state.IsLoggedOn() }

// Stop disables future auto-reconnect/auto-logon without disturbing the
// configured schedule object itself -- the explicit replacement for
// mustLogout's null-schedule trick.
func (s *Session) Stop() {
	s.schedMu.Lock()
	s.stopped = true
	s.schedMu.Unlock()
}

func (s *Session) isStopped() bool {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	return s.stopped
}

// fillHeader stamps the standard header fields onto msg. explicitSeqNum,
// when non-zero, overrides the next-sender cursor -- used for
// retransmission and for the SequenceReset-GapFill, the one outbound
// message type that does not consume nextSender.
func (s *Session) fillHeader(msg *message.Message, explicitSeqNum int, now time.Time) {
	msg.Header.Set(message.TagBeginString, s.id.BeginString)
	msg.Header.Set(message.TagSenderCompID, s.id.SenderCompID)
	msg.Header.Set(message.TagTargetCompID, s.id.TargetCompID)

	seqNum := explicitSeqNum
	if seqNum == 0 {
		seqNum = s.state.NextSenderMsgSeqNum()
	}
	msg.Header.SetInt(message.TagMsgSeqNum, seqNum)
	msg.Header.Set(message.TagSendingTime, formatSendingTime(now, s.millisInTime))
}

func formatSendingTime(t time.Time, millis bool) string {
	t = t.UTC()
	if millis {
		return t.Format("20060102-15:04:05.000")
	}
	return t.Format("20060102-15:04:05")
}

// Send is the application-facing outbound entry point: PossDupFlag(43)
// and OrigSendingTime(122) are stripped -- an application never
// originates a retransmission directly -- before dispatching to sendRaw
// under the session lock.
func (s *Session) Send(msg *message.Message, now time.Time) error {
	msg.Header.Delete(message.TagPossDupFlag)
	msg.Header.Delete(message.TagOrigSendingTime)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRaw(msg, 0, false, now)
}

// sendRaw fills the header, routes the message through the admin or
// application ToAdmin/ToApp callback, serializes, persists, and transmits
// according to the message type and logon state. Callers must hold s.mu.
func (s *Session) sendRaw(msg *message.Message, explicitSeqNum int, isRetransmit bool, now time.Time) error {
	s.fillHeader(msg, explicitSeqNum, now)
	msgType, _ := msg.MsgType()

	if message.IsAdminMessageType(msgType) {
		s.app.ToAdmin(msg, s.id)
		if msgType == message.MsgTypeLogon && msg.Body.GetOr(message.TagResetSeqNumFlag, "N") == "Y" && !s.state.ReceivedReset() {
			if err := s.state.Reset(); err != nil {
				return fmt.Errorf("session: reset before logon: %w", err)
			}
			// Re-stamp MsgSeqNum(1): fillHeader read the cursor before this
			// reset, so whatever it wrote is stale. The cursor itself is
			// fresh at 1 and still advances normally below.
			msg.Header.SetInt(message.TagMsgSeqNum, 1)
			s.state.SetSentReset(true)
		}
	} else {
		if !s.state.IsLoggedOn() && s.state.IsResendRequested() {
			return nil
		}
		if err := s.app.ToApp(msg, s.id); err != nil {
			return err
		}
	}

	raw, err := wire.Serialize(msg)
	if err != nil {
		return fmt.Errorf("session: serialize: %w", err)
	}

	seqNum, _ := msg.MsgSeqNum()
	if !isRetransmit && s.persistMessages {
		if err := s.state.Store().SetMessage(seqNum, raw); err != nil {
			return fmt.Errorf("session: persist: %w", err)
		}
	}
	if explicitSeqNum == 0 && !isRetransmit {
		if err := s.state.IncrNextSenderMsgSeqNum(); err != nil {
			return fmt.Errorf("session: advance sender seq num: %w", err)
		}
	}

	if s.shouldTransmit(msgType) {
		if s.responder == nil {
			return fmt.Errorf("session: no responder attached")
		}
		s.log.OnOutgoing(raw)
		if err := s.responder.Send(raw); err != nil {
			return fmt.Errorf("session: transport send: %w", err)
		}
		s.state.SetLastSentTime(now)
	}
	return nil
}

// shouldTransmit is the transmission gate: admin handshake/resend
// control messages always go out; everything else only while logged on.
func (s *Session) shouldTransmit(msgType string) bool {
	switch msgType {
	case message.MsgTypeLogon, message.MsgTypeLogout, message.MsgTypeResendRequest, message.MsgTypeSequenceReset:
		return true
	default:
		return s.state.IsLoggedOn()
	}
}

// Connect records a connection attempt and, for an initiator inside
// session time, sends the initial Logon.
func (s *Session) Connect(now time.Time) error {
	s.state.SetLastConnectionAttemptTime(now)
	if !s.initiate {
		return nil
	}
	return s.sendLogon(now, false)
}

// sendLogon builds and sends a Logon(A) message, applying resetOnLogon and
// FIXT's DefaultApplVerID(1137) where configured.
func (s *Session) sendLogon(now time.Time, resetSeqNum bool) error {
	if s.resetOnLogon {
		resetSeqNum = true
	}
	if resetSeqNum {
		if err := s.state.Reset(); err != nil {
			return err
		}
	}
	msg := message.New()
	msg.Header.Set(message.TagMsgType, message.MsgTypeLogon)
	msg.Body.SetInt(message.TagEncryptMethod, 0)
	msg.Body.SetInt(message.TagHeartBtInt, int(s.state.HeartBtInt()/time.Second))
	if resetSeqNum {
		msg.Body.Set(message.TagResetSeqNumFlag, "Y")
	}
	if s.id.IsFIXT() && s.defaultApplVerID != "" {
		msg.Body.Set(message.TagDefaultApplVerID, s.defaultApplVerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sendRaw(msg, 0, false, now); err != nil {
		return err
	}
	s.state.SetSentLogon(true)
	s.state.SetSentLogonTime(now)
	return nil
}

// Disconnect tears down the transport and clears the logon flags so a
// later Connect starts a fresh handshake.
func (s *Session) Disconnect(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetLogoutReason(reason)
	s.state.SoftReset()
	if s.responder == nil {
		return nil
	}
	return s.responder.Disconnect()
}

// mustLogout logs the session out immediately and, unlike the historical
// null-schedule trick, uses Stop to durably suppress reconnection.
func (s *Session) mustLogout(now time.Time, reason string) error {
	s.Stop()
	return s.sendLogout(now, reason)
}

func (s *Session) sendLogout(now time.Time, reason string) error {
	if s.state.SentLogout() {
		return nil
	}
	msg := message.New()
	msg.Header.Set(message.TagMsgType, message.MsgTypeLogout)
	if reason != "" {
		msg.Body.Set(message.TagText, reason)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sendRaw(msg, 0, false, now); err != nil {
		return err
	}
	s.state.SetSentLogout(true)
	s.state.SetSentLogoutTime(now)
	return nil
}

func (s *Session) sendHeartbeat(now time.Time, testReqID string) error {
	msg := message.New()
	msg.Header.Set(message.TagMsgType, message.MsgTypeHeartbeat)
	if testReqID != "" {
		msg.Body.Set(message.TagTestReqID, testReqID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRaw(msg, 0, false, now)
}

func (s *Session) sendTestRequest(now time.Time) error {
	msg := message.New()
	msg.Header.Set(message.TagMsgType, message.MsgTypeTestRequest)
	msg.Body.Set(message.TagTestReqID, strconv.Itoa(s.state.NextTestRequestID()))
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRaw(msg, 0, false, now)
}

func (s *Session) sendResendRequest(now time.Time, begin, end int) error {
	msg := message.New()
	msg.Header.Set(message.TagMsgType, message.MsgTypeResendRequest)
	msg.Body.SetInt(message.TagBeginSeqNo, begin)
	msg.Body.SetInt(message.TagEndSeqNo, end)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRaw(msg, 0, false, now)
}

// sendGapFill emits a SequenceReset(GapFillFlag=Y) covering [beginSeqNo,
// endSeqNo) -- the sole outbound message that carries an explicit
// MsgSeqNum and does not consume nextSender.
func (s *Session) sendGapFill(now time.Time, beginSeqNo, newSeqNo int) error {
	msg := message.New()
	msg.Header.Set(message.TagMsgType, message.MsgTypeSequenceReset)
	msg.Header.Set(message.TagPossDupFlag, "Y")
	msg.Body.Set(message.TagGapFillFlag, "Y")
	msg.Body.SetInt(message.TagNewSeqNo, newSeqNo)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRaw(msg, beginSeqNo, false, now)
}

// resendRaw transmits already-serialized retransmission bytes as given,
// without touching the sender cursor or the store; the caller stamps
// PossDupFlag(43) and OrigSendingTime(122) before serializing.
func (s *Session) resendRaw(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.responder == nil {
		return fmt.Errorf("session: no responder attached")
	}
	s.log.OnOutgoing(raw)
	return s.responder.Send(raw)
}

// Tick drives timer-based behavior: initiator logon-on-schedule (bounded
// by reconnectInterval), heartbeat/test-request liveness, and
// session-time rollover.
func (s *Session) Tick(now time.Time) error {
	sched := s.schedule()
	inRange := sched.InRange(now)

	if s.state.SentLogout() {
		if sentAt := s.state.SentLogoutTime(); !sentAt.IsZero() && now.Sub(sentAt) >= s.state.LogoutTimeout() {
			return s.Disconnect("logout response timed out")
		}
	}

	if !inRange {
		if s.state.IsLoggedOn() {
			if err := s.sendLogout(now, "session time ended"); err != nil {
				return err
			}
		} else if !s.state.ManualLogoutRequested() {
			if sched.ShouldAutoEOD() {
				return s.state.Reset()
			}
			s.state.SoftReset()
		}
		return nil
	}

	if s.initiate && !s.isStopped() && !s.state.SentLogon() {
		elapsed := now.Sub(s.state.LastConnectionAttemptTime())
		if elapsed >= sched.ReconnectInterval() {
			return s.Connect(now)
		}
		return nil
	}

	if s.state.SentLogon() && !s.state.ReceivedLogon() {
		if sentAt := s.state.SentLogonTime(); !sentAt.IsZero() && now.Sub(sentAt) >= s.state.LogonTimeout() {
			return s.Disconnect("logon response timed out")
		}
		return nil
	}

	if !s.state.IsLoggedOn() {
		return nil
	}

	idle := now.Sub(s.state.LastSentTime())
	if idle >= s.state.HeartBtInt() {
		if err := s.sendHeartbeat(now, ""); err != nil {
			return err
		}
	}

	sinceRecv := now.Sub(s.state.LastReceivedTime())
	heartBt := s.state.HeartBtInt()
	switch {
	case sinceRecv >= 2*heartBt:
		return s.Disconnect("peer unresponsive")
	case sinceRecv >= heartBt+heartBt/4:
		return s.sendTestRequest(now)
	}
	return nil
}
