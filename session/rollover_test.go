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
	"github.com/coinbase/fixengine/schedule"
)

// narrowWindow returns a daily schedule covering only a single minute,
// autoEOD toggling the hard/soft reset Tick takes outside that window.
func narrowWindow(t *testing.T, autoEOD bool) *schedule.Schedule {
	t.Helper()
	toggle := "NoAutoEOD"
	if autoEOD {
		toggle = "AutoEOD"
	}
	sched, err := schedule.Parse("D|0,1,2,3,4,5,6|09:00:00|09:01:00|" + toggle + "|NoAutoReconnect|0|NoAutoConnect|NoAutoDisconnect")
	if err != nil {
		t.Fatalf("parse schedule: %v", err)
	}
	return sched
}

func TestSession_Tick_OutOfRangeLoggedOn_SendsLogout(t *testing.T) {
	inRange := time.Date(2026, 1, 2, 9, 0, 30, 0, time.UTC)
	outOfRange := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	initiator, acceptor, initResp, acceptResp := newLoggedOnPair(t, inRange)
	initiator.SetSchedule(narrowWindow(t, true))
	acceptor.SetSchedule(narrowWindow(t, true))
	initResp.takeAll()
	acceptResp.takeAll()

	if err := acceptor.Tick(outOfRange); err != nil {
		t.Fatalf("acceptor.Tick: %v", err)
	}

	raw, ok := acceptResp.take()
	if !ok {
		t.Fatal("expected a Logout once the session window closes")
	}
	msg, err := parseRawForTest(t, raw)
	if err != nil {
		t.Fatalf("parse logout: %v", err)
	}
	if mt, _ := msg.MsgType(); mt != message.MsgTypeLogout {
		t.Fatalf("msgType = %q, want Logout", mt)
	}
	_ = initiator
}

func TestSession_Tick_OutOfRangeNotLoggedOn_AutoEODResetsToOne(t *testing.T) {
	outOfRange := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	id := SessionIDForTest()
	s, resp, _ := newTestSession(t, id, true)
	s.SetSchedule(narrowWindow(t, true))

	if err := s.state.SetNextSenderMsgSeqNum(7); err != nil {
		t.Fatalf("seed sender seq: %v", err)
	}
	if err := s.state.SetNextTargetMsgSeqNum(9); err != nil {
		t.Fatalf("seed target seq: %v", err)
	}

	if err := s.Tick(outOfRange); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if _, ok := resp.take(); ok {
		t.Fatal("expected no message sent for a logged-off session outside its window")
	}
	if s.state.NextSenderMsgSeqNum() != 1 || s.state.NextTargetMsgSeqNum() != 1 {
		t.Fatalf("seq nums = (%d,%d), want (1,1) after an AutoEOD rollover reset",
			s.state.NextSenderMsgSeqNum(), s.state.NextTargetMsgSeqNum())
	}
}

func TestSession_Tick_OutOfRangeNotLoggedOn_NoAutoEODPreservesSeqNums(t *testing.T) {
	outOfRange := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	id := SessionIDForTest()
	s, resp, _ := newTestSession(t, id, true)
	s.SetSchedule(narrowWindow(t, false))

	if err := s.state.SetNextSenderMsgSeqNum(7); err != nil {
		t.Fatalf("seed sender seq: %v", err)
	}
	if err := s.state.SetNextTargetMsgSeqNum(9); err != nil {
		t.Fatalf("seed target seq: %v", err)
	}

	if err := s.Tick(outOfRange); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if _, ok := resp.take(); ok {
		t.Fatal("expected no message sent for a logged-off session outside its window")
	}
	if s.state.NextSenderMsgSeqNum() != 7 || s.state.NextTargetMsgSeqNum() != 9 {
		t.Fatalf("seq nums = (%d,%d), want (7,9) preserved by a soft reset",
			s.state.NextSenderMsgSeqNum(), s.state.NextTargetMsgSeqNum())
	}
}
