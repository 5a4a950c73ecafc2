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
	"time"

	"github.com/coinbase/fixengine/datadictionary"
	"github.com/coinbase/fixengine/message"
	"github.com/coinbase/fixengine/wire"
)

// Next is the inbound entry point: parse raw bytes against the session
// dictionary, validate against the session and application dictionaries,
// and dispatch by MsgType. Parsing never uses the application dictionary,
// so repeating groups declared only there are not split into instances.
// Once logon has been received, a *MessageRejectError surfaced here has
// already been answered on the wire by the time Next returns; before
// logon it is returned unanswered. A non-nil, non-reject error signals a
// transport/logic fault the caller should treat as fatal.
func (s *Session) Next(raw []byte, now time.Time) error {
	s.log.OnIncoming(raw)
	s.state.SetLastReceivedTime(now)

	msg, err := wire.Parse(raw, s.sessionDD)
	if err != nil {
		return err
	}

	if begin, _ := msg.BeginString(); begin != s.id.BeginString {
		return s.handleReject(now, msg, &MessageRejectError{
			SessionReason: ReasonOther,
			Text:          "unsupported BeginString " + begin,
			Fatal:         true,
		})
	}

	appDD := s.appDD
	if appDD == nil {
		appDD = s.sessionDD
	}
	if err := datadictionary.Validate(datadictionary.Incoming, msg, s.sessionDD, appDD, s.rules); err != nil {
		return s.handleReject(now, msg, messageRejectFromValidation(err))
	}

	if err := s.dispatch(msg, now); err != nil {
		return err
	}

	s.drainQueue(now)
	if s.state.IsLoggedOn() {
		return s.Tick(now)
	}
	return nil
}

// dispatch routes msg to its MsgType-specific handler. Both Next and
// drainQueue funnel through here so a queued admin message (Heartbeat,
// TestRequest, Logon) replays through the same handler a live one would,
// instead of drainQueue's former hardcoded assumption that anything queued
// must be an application message.
func (s *Session) dispatch(msg *message.Message, now time.Time) error {
	msgType, _ := msg.MsgType()
	switch msgType {
	case message.MsgTypeLogon:
		return s.nextLogon(msg, now)
	case message.MsgTypeHeartbeat:
		return s.nextHeartbeat(msg, now)
	case message.MsgTypeTestRequest:
		return s.nextTestRequest(msg, now)
	case message.MsgTypeSequenceReset:
		return s.nextSequenceReset(msg, now)
	case message.MsgTypeLogout:
		return s.nextLogout(msg, now)
	case message.MsgTypeResendRequest:
		return s.nextResendRequest(msg, now)
	case message.MsgTypeReject:
		return s.nextReject(msg, now)
	default:
		return s.nextApp(msg, now)
	}
}

// validLogonState reports whether msgType is admissible given the current
// handshake state. Logon is always admissible -- it is the very message
// that establishes ReceivedLogon -- so nextLogon can route through verify
// like every other handler instead of special-casing the gate itself.
// Every other MsgType requires a logon already received.
func (s *Session) validLogonState(msgType string) bool {
	if msgType == message.MsgTypeLogon {
		return true
	}
	return s.state.ReceivedLogon()
}

// verify applies the per-message admission checks (logon state,
// CompID match, SendingTime accuracy) common to every inbound MsgType.
// Sequence-number gap detection is handled separately by checkSeqNum,
// since callers need different checkTooHigh/checkTooLow pairs per type.
func (s *Session) verify(msg *message.Message, now time.Time) *MessageRejectError {
	msgType, _ := msg.MsgType()
	if !s.validLogonState(msgType) {
		return &MessageRejectError{SessionReason: ReasonOther, Text: "message received before logon", Fatal: true}
	}

	if s.checkCompID {
		sender, _ := msg.Header.Get(message.TagSenderCompID)
		target, _ := msg.Header.Get(message.TagTargetCompID)
		if sender != s.id.TargetCompID || target != s.id.SenderCompID {
			return &MessageRejectError{SessionReason: ReasonOther, Text: "CompID mismatch", Fatal: true}
		}
	}

	if s.checkLatency {
		if sendingTime, ok := parseSendingTime(msg); ok {
			if d := now.Sub(sendingTime); d > s.maxLatency || d < -s.maxLatency {
				return &MessageRejectError{
					SessionReason: ReasonSendingTimeAccuracyProblem,
					RefTagID:      message.TagSendingTime,
					Text:          "SendingTime accuracy problem",
					Fatal:         true,
				}
			}
		}
	}
	return nil
}

func parseSendingTime(msg *message.Message) (time.Time, bool) {
	raw, ok := msg.Header.Get(message.TagSendingTime)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{"20060102-15:04:05.000", "20060102-15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// checkSeqNum compares msg's MsgSeqNum against the target cursor and
// applies whichever of doTargetTooHigh/doTargetTooLow the caller asks for.
// ok is false when a gap was found and already handled (queued+resend, or
// rejected/logged out); the caller must stop and return err as-is. ok is
// true when the cursor matched and the caller should proceed normally.
func (s *Session) checkSeqNum(msg *message.Message, now time.Time, checkTooHigh, checkTooLow bool) (ok bool, err error) {
	seqNum, _ := msg.MsgSeqNum()
	expected := s.state.NextTargetMsgSeqNum()

	if checkTooHigh && seqNum > expected {
		return false, s.doTargetTooHigh(msg, now, seqNum, expected)
	}
	if checkTooLow && seqNum < expected {
		return false, s.doTargetTooLow(msg, now, seqNum, expected)
	}
	return true, nil
}

// nextApp handles every non-admin MsgType: verify, gap-check against
// nextTarget, hand off to the application, and advance the target cursor.
func (s *Session) nextApp(msg *message.Message, now time.Time) error {
	if rej := s.verify(msg, now); rej != nil {
		return s.handleReject(now, msg, rej)
	}
	if ok, err := s.checkSeqNum(msg, now, true, true); !ok {
		return err
	}
	seqNum, _ := msg.MsgSeqNum()

	if err := s.app.FromApp(msg, s.id); err != nil {
		if err != ErrDoNotSend {
			return err
		}
	}
	if err := s.state.IncrNextTargetMsgSeqNum(); err != nil {
		return err
	}
	s.state.ClearResendRangeIfSatisfied(seqNum)
	return nil
}

// doTargetTooHigh queues the out-of-sequence message and requests a
// resend of the missing range.
func (s *Session) doTargetTooHigh(msg *message.Message, now time.Time, seqNum, expected int) error {
	s.state.Queue(seqNum, msg)
	if s.state.IsResendRequested() && !s.sendRedundantResendReqs {
		return nil
	}
	return s.sendResendRequest(now, expected, 0)
}

// doTargetTooLow accepts a possible duplicate when PossDupFlag is set and
// OrigSendingTime precedes SendingTime; otherwise it is an unrecoverable
// gap and the session logs out.
func (s *Session) doTargetTooLow(msg *message.Message, now time.Time, seqNum, expected int) error {
	if msg.Header.GetOr(message.TagPossDupFlag, "N") != "Y" {
		return s.mustLogout(now, "MsgSeqNum too low, no PossDupFlag")
	}
	orig, hasOrig := parseOrigSendingTime(msg)
	sending, hasSending := parseSendingTime(msg)
	if hasOrig && hasSending && orig.After(sending) {
		return s.handleReject(now, msg, &MessageRejectError{
			SessionReason: ReasonSendingTimeAccuracyProblem,
			Text:          "OrigSendingTime after SendingTime",
			Fatal:         true,
		})
	}
	return nil
}

func parseOrigSendingTime(msg *message.Message) (time.Time, bool) {
	raw, ok := msg.Header.Get(message.TagOrigSendingTime)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{"20060102-15:04:05.000", "20060102-15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// drainQueue replays queued out-of-order messages strictly in ascending
// seq-num order once the gap preceding them has closed.
func (s *Session) drainQueue(now time.Time) {
	for s.state.QueueLen() > 0 {
		next := s.state.NextTargetMsgSeqNum()
		msg, ok := s.state.Dequeue(next)
		if !ok {
			return
		}
		_ = s.dispatch(msg, now)
	}
}

// nextLogon implements the acceptor/initiator handshake: reset on
// ResetSeqNumFlag, adopt the counterparty's
// HeartBtInt, reply with our own Logon if we did not already send one.
func (s *Session) nextLogon(msg *message.Message, now time.Time) error {
	resetFlag := msg.Body.GetOr(message.TagResetSeqNumFlag, "N") == "Y"
	if resetFlag {
		// Skip the cursor wipe if we already reset as part of sending our
		// own reset-flagged Logon this handshake -- this message is then
		// just the counterparty's echo of the same reset, and re-zeroing
		// would throw away the progress our own send already made.
		if !s.state.SentReset() {
			if err := s.state.Reset(); err != nil {
				return err
			}
		}
		s.state.SetReceivedReset(true)
	}

	if rej := s.verify(msg, now); rej != nil {
		return s.handleReject(now, msg, rej)
	}
	// Too-low is checked here, against whatever the reset above just left
	// the cursor at; too-high is deliberately not checked yet -- it needs
	// its own resetFlag-aware branch below instead of the generic one.
	if ok, err := s.checkSeqNum(msg, now, false, true); !ok {
		return err
	}

	if hb, ok := msg.Body.Get(message.TagHeartBtInt); ok {
		if secs, err := parseDurationSeconds(hb); err == nil {
			s.state.SetHeartBtInt(secs)
		}
	}

	if !s.state.SentLogon() {
		// sendLogon(reset) resets both cursors and the logon flags when
		// replying in kind, so ReceivedLogon and the inbound MsgSeqNum are
		// applied only afterward -- otherwise they would be immediately
		// clobbered by our own reply's reset.
		if err := s.sendLogon(now, s.state.ReceivedReset()); err != nil {
			return err
		}
	}

	s.state.SetReceivedLogon(true)

	// A reset-flagged Logon always wins the cursor outright; otherwise a
	// Logon above the expected MsgSeqNum queues and triggers a resend
	// exactly like any other message type, without ever clobbering the
	// cursor to a value above what's actually been seen.
	seqNum, _ := msg.MsgSeqNum()
	expected := s.state.NextTargetMsgSeqNum()
	if !resetFlag && seqNum > expected {
		if err := s.doTargetTooHigh(msg, now, seqNum, expected); err != nil {
			return err
		}
	} else if err := s.state.SetNextTargetMsgSeqNum(seqNum + 1); err != nil {
		return err
	}

	// A Logon queued above a gap still completes the handshake itself --
	// both sides have now exchanged a Logon -- so onLogon fires regardless
	// of whether the cursor advanced or the message was queued.
	if s.state.IsLoggedOn() {
		s.app.OnLogon(s.id)
		if s.registry != nil {
			s.registry.Register(s)
		}
	}
	return nil
}

func parseDurationSeconds(raw string) (time.Duration, error) {
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, &datadictionary.RejectError{Kind: datadictionary.IncorrectDataFormat, Text: "not a valid HeartBtInt"}
		}
		n = n*10 + int(r-'0')
	}
	return time.Duration(n) * time.Second, nil
}

// nextHeartbeat accepts a Heartbeat, gap-checked like any other message,
// and advances the target cursor.
func (s *Session) nextHeartbeat(msg *message.Message, now time.Time) error {
	return s.nextAdminAdvance(msg, now, true, true)
}

// nextTestRequest answers an inbound TestRequest with a Heartbeat
// echoing TestReqID(112), after the same too-high/too-low gap check a
// Heartbeat or an application message gets.
func (s *Session) nextTestRequest(msg *message.Message, now time.Time) error {
	if rej := s.verify(msg, now); rej != nil {
		return s.handleReject(now, msg, rej)
	}
	if ok, err := s.checkSeqNum(msg, now, true, true); !ok {
		return err
	}
	testReqID, _ := msg.Body.Get(message.TagTestReqID)
	if err := s.sendHeartbeat(now, testReqID); err != nil {
		return err
	}
	return s.advanceTarget(msg)
}

// nextSequenceReset moves the target cursor forward to NewSeqNo. It does
// not read GapFillFlag: Reset and GapFill modes are handled alike, and
// the message's own MsgSeqNum is not compared with the cursor. It carries
// its own NewSeqNo validation rather than the generic too-high/too-low
// check, so it only needs the shared logon-state/CompID/latency checks.
func (s *Session) nextSequenceReset(msg *message.Message, now time.Time) error {
	if rej := s.verify(msg, now); rej != nil {
		return s.handleReject(now, msg, rej)
	}
	newSeqNo, ok := msg.Body.Get(message.TagNewSeqNo)
	if !ok {
		return s.handleReject(now, msg, &MessageRejectError{SessionReason: ReasonRequiredTagMissing, RefTagID: message.TagNewSeqNo, Text: "NewSeqNo missing"})
	}
	n, err := parseNonNegativeInt(newSeqNo)
	if err != nil {
		return s.handleReject(now, msg, &MessageRejectError{SessionReason: ReasonValueIsIncorrect, RefTagID: message.TagNewSeqNo, Text: "NewSeqNo malformed"})
	}
	expected := s.state.NextTargetMsgSeqNum()
	if n < expected {
		return s.handleReject(now, msg, &MessageRejectError{SessionReason: ReasonValueIsIncorrect, RefTagID: message.TagNewSeqNo, Text: "NewSeqNo lower than expected"})
	}
	s.state.ClearResendRangeIfSatisfied(n - 1)
	return s.state.SetNextTargetMsgSeqNum(n)
}

func parseNonNegativeInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, &datadictionary.RejectError{Kind: datadictionary.IncorrectDataFormat, Text: "empty"}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &datadictionary.RejectError{Kind: datadictionary.IncorrectDataFormat, Text: "not numeric"}
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// nextLogout replies with Logout (unless already sent) then disconnects,
// applying resetOnLogout when configured. No gap check: a Logout always
// ends the session regardless of where the target cursor sits.
func (s *Session) nextLogout(msg *message.Message, now time.Time) error {
	if rej := s.verify(msg, now); rej != nil {
		return s.handleReject(now, msg, rej)
	}
	if err := s.advanceTarget(msg); err != nil {
		return err
	}

	alreadySent := s.state.SentLogout()
	if !alreadySent {
		if err := s.sendLogout(now, ""); err != nil {
			return err
		}
	}
	s.app.OnLogout(s.id)
	if s.registry != nil {
		s.registry.Unregister(s.id)
	}
	if s.resetOnLogout {
		if err := s.state.Reset(); err != nil {
			return err
		}
	}
	return s.Disconnect("logout")
}

// nextResendRequest satisfies a ResendRequest(begin,end): clamp "through
// current" sentinels, then either emit a single gap-fill (persistence
// off) or replay stored messages, coalescing consecutive admin messages
// into gap-fills and retransmitting application messages with
// PossDupFlag set.
func (s *Session) nextResendRequest(msg *message.Message, now time.Time) error {
	if rej := s.verify(msg, now); rej != nil {
		return s.handleReject(now, msg, rej)
	}
	begin, _ := msg.Body.Get(message.TagBeginSeqNo)
	end, _ := msg.Body.Get(message.TagEndSeqNo)
	beginSeq, _ := parseNonNegativeInt(begin)
	endSeq, _ := parseNonNegativeInt(end)

	nextSender := s.state.NextSenderMsgSeqNum()
	if endSeq == 0 || endSeq >= 999999 || endSeq >= nextSender {
		endSeq = nextSender - 1
	}
	originalEnd := endSeq
	s.state.SetResendRange(beginSeq, originalEnd)

	if !s.persistMessages {
		if err := s.advanceTarget(msg); err != nil {
			return err
		}
		return s.sendGapFill(now, beginSeq, endSeq+1)
	}

	stored, err := s.state.Store().GetMessages(beginSeq, endSeq)
	if err != nil {
		return err
	}
	if err := s.advanceTarget(msg); err != nil {
		return err
	}

	gapBegin := beginSeq
	pending := false
	for _, sm := range stored {
		parsed, perr := wire.Parse(sm.Raw, s.sessionDD)
		if perr != nil {
			continue
		}
		if parsed.IsAdmin() {
			pending = true
			continue
		}
		if err := s.app.ToApp(parsed, s.id); err != nil {
			if err == ErrDoNotSend {
				pending = true
				continue
			}
			return err
		}
		if pending {
			if err := s.sendGapFill(now, gapBegin, sm.SeqNum); err != nil {
				return err
			}
			pending = false
		}
		parsed.Header.Set(message.TagPossDupFlag, "Y")
		if orig, ok := parsed.Header.Get(message.TagSendingTime); ok {
			parsed.Header.Set(message.TagOrigSendingTime, orig)
		}
		raw, serr := wire.Serialize(parsed)
		if serr != nil {
			return serr
		}
		if err := s.resendRaw(raw); err != nil {
			return err
		}
		gapBegin = sm.SeqNum + 1
	}
	if gapBegin <= endSeq || pending {
		if err := s.sendGapFill(now, gapBegin, endSeq+1); err != nil {
			return err
		}
	}
	return nil
}

// nextReject is an incoming session-level Reject(3): gap-checked for
// too-low only (no too-high queueing, since original_source treats
// Reject(3) like other trailing admin messages -- just advance once
// the cursor agrees).
func (s *Session) nextReject(msg *message.Message, now time.Time) error {
	if rej := s.verify(msg, now); rej != nil {
		return s.handleReject(now, msg, rej)
	}
	if ok, err := s.checkSeqNum(msg, now, false, true); !ok {
		return err
	}
	return s.advanceTarget(msg)
}

func (s *Session) nextAdminAdvance(msg *message.Message, now time.Time, checkTooHigh, checkTooLow bool) error {
	if rej := s.verify(msg, now); rej != nil {
		return s.handleReject(now, msg, rej)
	}
	if ok, err := s.checkSeqNum(msg, now, checkTooHigh, checkTooLow); !ok {
		return err
	}
	return s.advanceTarget(msg)
}

func (s *Session) advanceTarget(msg *message.Message) error {
	seqNum, _ := msg.MsgSeqNum()
	if err := s.state.IncrNextTargetMsgSeqNum(); err != nil {
		return err
	}
	s.state.ClearResendRangeIfSatisfied(seqNum)
	return nil
}

// handleReject emits a Reject or BusinessMessageReject for rej, then logs
// out and disconnects when rej is fatal (RejectLogon and
// UnsupportedVersion both drive immediate logout+disconnect). Rejects are
// only emitted once logon has been received; otherwise the failure is
// simply returned to the caller.
func (s *Session) handleReject(now time.Time, msg *message.Message, rej *MessageRejectError) error {
	if !s.state.ReceivedLogon() {
		if rej.Fatal {
			_ = s.Disconnect(rej.Text)
		}
		return rej
	}

	refSeqNum, _ := msg.MsgSeqNum()
	refMsgType, _ := msg.MsgType()

	var sendErr error
	if rej.Business {
		sendErr = s.sendBusinessReject(now, refSeqNum, refMsgType, rej)
	} else {
		sendErr = s.sendReject(now, refSeqNum, refMsgType, rej)
	}
	if sendErr != nil {
		return sendErr
	}
	if refMsgType != message.MsgTypeReject && refMsgType != message.MsgTypeSequenceReset {
		if err := s.state.IncrNextTargetMsgSeqNum(); err != nil {
			return err
		}
	}
	if rej.Fatal {
		return s.mustLogout(now, rej.Text)
	}
	return nil
}

func (s *Session) sendReject(now time.Time, refSeqNum int, refMsgType string, rej *MessageRejectError) error {
	msg := message.New()
	msg.Header.Set(message.TagMsgType, message.MsgTypeReject)
	msg.Body.SetInt(message.TagRefSeqNum, refSeqNum)
	msg.Body.Set(message.TagRefMsgType, refMsgType)
	msg.Body.SetInt(message.TagSessionRejectReason, int(rej.SessionReason))
	if rej.RefTagID != 0 {
		msg.Body.SetInt(message.TagRefTagID, int(rej.RefTagID))
	}
	msg.Body.Set(message.TagText, rej.Text)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRaw(msg, 0, false, now)
}

func (s *Session) sendBusinessReject(now time.Time, refSeqNum int, refMsgType string, rej *MessageRejectError) error {
	msg := message.New()
	msg.Header.Set(message.TagMsgType, message.MsgTypeBusinessReject)
	msg.Body.SetInt(message.TagRefSeqNum, refSeqNum)
	msg.Body.Set(message.TagRefMsgType, refMsgType)
	msg.Body.SetInt(message.TagBusinessRejectReason, int(rej.BizReason))
	msg.Body.Set(message.TagText, rej.Text)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRaw(msg, 0, false, now)
}
