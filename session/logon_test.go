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
)

func TestSession_Logon_InitiatorHandshake(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	initiator, acceptor, _, _ := newLoggedOnPair(t, now)

	if initiator.state.NextSenderMsgSeqNum() != 2 || initiator.state.NextTargetMsgSeqNum() != 2 {
		t.Fatalf("initiator seq nums = (%d,%d), want (2,2)", initiator.state.NextSenderMsgSeqNum(), initiator.state.NextTargetMsgSeqNum())
	}
	if acceptor.state.NextSenderMsgSeqNum() != 2 || acceptor.state.NextTargetMsgSeqNum() != 2 {
		t.Fatalf("acceptor seq nums = (%d,%d), want (2,2)", acceptor.state.NextSenderMsgSeqNum(), acceptor.state.NextTargetMsgSeqNum())
	}

	initApp := initiator.app.(*recordingApp)
	acceptApp := acceptor.app.(*recordingApp)
	if len(initApp.logons) != 1 {
		t.Fatalf("initiator OnLogon calls = %d, want 1", len(initApp.logons))
	}
	if len(acceptApp.logons) != 1 {
		t.Fatalf("acceptor OnLogon calls = %d, want 1", len(acceptApp.logons))
	}
}

func TestSession_Connect_AcceptorDoesNotInitiate(t *testing.T) {
	id := SessionIDForTest()
	acceptor, resp, _ := newTestSession(t, id.Reverse(), false)
	if err := acceptor.Connect(time.Now()); err != nil {
		t.Fatalf("acceptor connect: %v", err)
	}
	if _, ok := resp.take(); ok {
		t.Fatal("acceptor should not send a Logon on Connect")
	}
}
