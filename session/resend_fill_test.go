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
)

// TestSession_ResendRequest_CoalescesAdminIntoGapFill builds a sender
// whose message store holds heartbeat, app, heartbeat at seq 2,3,4, then
// asks it to resend [2,4]: the two admin messages on either side of the
// one app message must each collapse into a single gap-fill rather than
// being replayed verbatim.
func TestSession_ResendRequest_CoalescesAdminIntoGapFill(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	id := SessionIDForTest()

	sender, senderResp, _ := newTestSessionWithConfig(t, id, true, func(cfg *Config) {
		cfg.PersistMessages = true
	})
	if err := sender.Connect(now); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, ok := senderResp.take(); !ok {
		t.Fatal("expected initial Logon")
	}
	// Fake the handshake completing without a counterparty session: mark
	// both logon flags directly so Send() will actually transmit.
	sender.state.SetReceivedLogon(true)
	if err := sender.state.SetNextTargetMsgSeqNum(2); err != nil {
		t.Fatalf("SetNextTargetMsgSeqNum: %v", err)
	}

	heartbeat := func() *message.Message {
		m := message.New()
		m.Header.Set(message.TagMsgType, message.MsgTypeHeartbeat)
		return m
	}
	appMsg := func() *message.Message {
		m := message.New()
		m.Header.Set(message.TagMsgType, "AA")
		m.Body.Set(99002, "payload")
		return m
	}

	for _, m := range []*message.Message{heartbeat(), appMsg(), heartbeat()} {
		if err := sender.Send(m, now); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	senderResp.takeAll() // discard the three direct sends; we only care about the resend replay

	resendReq := rawAppMessage(t, id, message.MsgTypeResendRequest, 2, now, map[message.Tag]string{
		message.TagBeginSeqNo: "2",
		message.TagEndSeqNo:   "4",
	})
	// ResendRequest is admin; MsgSeqNum(2) here is the counterparty's own
	// next-send cursor, unrelated to the range being requested.
	if err := sender.Next(resendReq, now); err != nil {
		t.Fatalf("Next(ResendRequest): %v", err)
	}

	frames := senderResp.takeAll()
	var types []string
	for _, raw := range frames {
		msg, err := parseRawForTest(t, raw)
		if err != nil {
			t.Fatalf("parse replay frame: %v", err)
		}
		mt, _ := msg.MsgType()
		types = append(types, mt)
	}
	want := []string{message.MsgTypeSequenceReset, "AA", message.MsgTypeSequenceReset}
	if len(types) != len(want) {
		t.Fatalf("replay frame types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("replay frame %d type = %q, want %q (%v)", i, types[i], want[i], types)
		}
	}

	first, _ := parseRawForTest(t, frames[0])
	firstNewSeqNo, _ := first.Body.Get(message.TagNewSeqNo)
	if firstNewSeqNo != "3" {
		t.Fatalf("first gap-fill NewSeqNo = %s, want 3", firstNewSeqNo)
	}

	resent, _ := parseRawForTest(t, frames[1])
	if possDup := resent.Header.GetOr(message.TagPossDupFlag, "N"); possDup != "Y" {
		t.Fatal("resent app message should carry PossDupFlag=Y")
	}

	last, _ := parseRawForTest(t, frames[2])
	lastNewSeqNo, _ := last.Body.Get(message.TagNewSeqNo)
	if lastNewSeqNo != "5" {
		t.Fatalf("final gap-fill NewSeqNo = %s, want 5", lastNewSeqNo)
	}
}
