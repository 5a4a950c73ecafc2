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
	"testing"
	"time"

	"github.com/coinbase/fixengine/message"
	"github.com/coinbase/fixengine/wire"
)

// TestSession_Heartbeat_TooHigh_QueuesAndRequestsResend checks that a
// Heartbeat arriving above the expected MsgSeqNum is gap-checked exactly
// like an application message, instead of silently advancing the target
// cursor by one.
func TestSession_Heartbeat_TooHigh_QueuesAndRequestsResend(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	_, acceptor, _, acceptResp := newLoggedOnPair(t, now)

	id := SessionIDForTest()
	skipAhead := rawAppMessage(t, id.Reverse(), message.MsgTypeHeartbeat, 5, now, nil)
	if err := acceptor.Next(skipAhead, now); err != nil {
		t.Fatalf("acceptor.Next: %v", err)
	}

	raw, ok := acceptResp.take()
	if !ok {
		t.Fatal("expected acceptor to request a resend instead of silently advancing")
	}
	msg, err := parseRawForTest(t, raw)
	if err != nil {
		t.Fatalf("parse resend request: %v", err)
	}
	if mt, _ := msg.MsgType(); mt != message.MsgTypeResendRequest {
		t.Fatalf("msgType = %q, want ResendRequest", mt)
	}
	if acceptor.state.NextTargetMsgSeqNum() != 2 {
		t.Fatalf("target cursor = %d, want 2 (unchanged -- the Heartbeat is queued, not applied)",
			acceptor.state.NextTargetMsgSeqNum())
	}
	if acceptor.state.QueueLen() != 1 {
		t.Fatalf("queue length = %d, want 1", acceptor.state.QueueLen())
	}
}

// TestSession_TestRequest_TooHigh_QueuesAndRequestsResend checks the same
// gap check for TestRequest: no Heartbeat reply goes out, and the cursor
// does not advance past the gap.
func TestSession_TestRequest_TooHigh_QueuesAndRequestsResend(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	_, acceptor, _, acceptResp := newLoggedOnPair(t, now)

	id := SessionIDForTest()
	skipAhead := rawAppMessage(t, id.Reverse(), message.MsgTypeTestRequest, 5, now,
		map[message.Tag]string{message.TagTestReqID: "42"})
	if err := acceptor.Next(skipAhead, now); err != nil {
		t.Fatalf("acceptor.Next: %v", err)
	}

	frames := acceptResp.takeAll()
	if len(frames) != 1 {
		t.Fatalf("expected exactly one frame (ResendRequest, no Heartbeat reply), got %d", len(frames))
	}
	msg, err := parseRawForTest(t, frames[0])
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mt, _ := msg.MsgType(); mt != message.MsgTypeResendRequest {
		t.Fatalf("msgType = %q, want ResendRequest", mt)
	}
	if acceptor.state.NextTargetMsgSeqNum() != 2 {
		t.Fatalf("target cursor = %d, want 2 (unchanged)", acceptor.state.NextTargetMsgSeqNum())
	}
}

// TestSession_Logon_TooHigh_QueuesAndRequestsResend checks that an initial
// (non-reset) Logon arriving with MsgSeqNum above 1 still completes the
// handshake's own Logon reply but queues the inbound Logon and requests a
// resend, instead of adopting the gap as the new target cursor.
func TestSession_Logon_TooHigh_QueuesAndRequestsResend(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	id := SessionIDForTest()
	acceptor, acceptResp, acceptApp := newTestSession(t, id.Reverse(), false)

	msg := message.New()
	msg.Header.Set(message.TagBeginString, id.BeginString)
	msg.Header.Set(message.TagMsgType, message.MsgTypeLogon)
	msg.Header.Set(message.TagSenderCompID, id.SenderCompID)
	msg.Header.Set(message.TagTargetCompID, id.TargetCompID)
	msg.Header.SetInt(message.TagMsgSeqNum, 5)
	msg.Header.Set(message.TagSendingTime, formatSendingTime(now, false))
	msg.Body.SetInt(message.TagEncryptMethod, 0)
	msg.Body.SetInt(message.TagHeartBtInt, 30)
	raw, err := wire.Serialize(msg)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	if err := acceptor.Next(raw, now); err != nil {
		t.Fatalf("acceptor.Next(logon): %v", err)
	}

	frames := acceptResp.takeAll()
	if len(frames) != 2 {
		t.Fatalf("expected Logon reply then ResendRequest, got %d frames", len(frames))
	}
	reply, err := parseRawForTest(t, frames[0])
	if err != nil {
		t.Fatalf("parse reply: %v", err)
	}
	if mt, _ := reply.MsgType(); mt != message.MsgTypeLogon {
		t.Fatalf("first frame MsgType = %q, want Logon", mt)
	}
	resendReq, err := parseRawForTest(t, frames[1])
	if err != nil {
		t.Fatalf("parse resend request: %v", err)
	}
	if mt, _ := resendReq.MsgType(); mt != message.MsgTypeResendRequest {
		t.Fatalf("second frame MsgType = %q, want ResendRequest", mt)
	}

	if acceptor.state.NextTargetMsgSeqNum() != 1 {
		t.Fatalf("target cursor = %d, want 1 (unchanged -- the Logon is queued, not applied)",
			acceptor.state.NextTargetMsgSeqNum())
	}
	if acceptor.state.QueueLen() != 1 {
		t.Fatalf("queue length = %d, want 1", acceptor.state.QueueLen())
	}
	if len(acceptApp.logons) != 1 {
		t.Fatalf("OnLogon calls = %d, want 1 (handshake itself completed despite the gap)", len(acceptApp.logons))
	}
}

// TestSession_Tick_LogonTimeout_Disconnects checks that an initiator that
// sent a Logon and never received a reply disconnects once LogonTimeout
// elapses, instead of waiting forever.
func TestSession_Tick_LogonTimeout_Disconnects(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	id := SessionIDForTest()
	initiator, _, _ := newTestSessionWithConfig(t, id, true, func(cfg *Config) {
		cfg.LogonTimeout = 5 * time.Second
	})

	if err := initiator.Connect(now); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !initiator.state.SentLogon() {
		t.Fatal("expected initiator to have sent a Logon")
	}

	tooSoon := now.Add(2 * time.Second)
	if err := initiator.Tick(tooSoon); err != nil {
		t.Fatalf("Tick (too soon): %v", err)
	}
	if initiator.state.SentLogon() == false {
		t.Fatal("expected the session to still be waiting on a logon reply")
	}

	tooLate := now.Add(10 * time.Second)
	if err := initiator.Tick(tooLate); err != nil {
		t.Fatalf("Tick (timed out): %v", err)
	}
	if initiator.state.SentLogon() {
		t.Fatal("expected a logon-timeout disconnect to clear SentLogon via SoftReset")
	}
}

// TestSession_Tick_LogoutTimeout_Disconnects checks that a session waiting
// on a Logout reply disconnects once LogoutTimeout elapses.
func TestSession_Tick_LogoutTimeout_Disconnects(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	_, acceptor, _, acceptResp := newLoggedOnPair(t, now)

	if err := acceptor.sendLogout(now, "going offline"); err != nil {
		t.Fatalf("sendLogout: %v", err)
	}
	acceptResp.takeAll()
	acceptor.state.SetLogoutTimeout(5 * time.Second)

	tooLate := now.Add(10 * time.Second)
	if err := acceptor.Tick(tooLate); err != nil {
		t.Fatalf("Tick (timed out): %v", err)
	}
	if acceptor.IsLoggedOn() {
		t.Fatal("expected a logout-timeout disconnect to end the session")
	}
}
