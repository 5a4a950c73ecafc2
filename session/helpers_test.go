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

	"github.com/coinbase/fixengine/datadictionary"
	"github.com/coinbase/fixengine/message"
	"github.com/coinbase/fixengine/schedule"
	"github.com/coinbase/fixengine/sessionstate"
	"github.com/coinbase/fixengine/store"
	"github.com/coinbase/fixengine/validationrules"
	"github.com/coinbase/fixengine/wire"
)

// testDictionary declares only the standard header/trailer tags every
// message carries -- wire.Parse routes any undeclared tag into Body, so
// these declarations are what keep SenderCompID, MsgSeqNum, SendingTime
// and friends landing in Header for parsed inbound messages. Content
// validation is switched off so tests can build application-level bodies
// without also declaring a per-MsgType field universe.
func testDictionary() (*datadictionary.DataDictionary, *validationrules.ValidationRules) {
	dd := datadictionary.New(message.FIX42)
	dd.AddHeaderField(message.TagBeginString, true)
	dd.AddHeaderField(message.TagBodyLength, true)
	dd.AddHeaderField(message.TagMsgType, true)
	dd.AddHeaderField(message.TagSenderCompID, true)
	dd.AddHeaderField(message.TagTargetCompID, true)
	dd.AddHeaderField(message.TagMsgSeqNum, true)
	dd.AddHeaderField(message.TagSendingTime, true)
	dd.AddHeaderField(message.TagPossDupFlag, false)
	dd.AddHeaderField(message.TagOrigSendingTime, false)
	dd.AddTrailerField(message.TagCheckSum, true)

	rules := validationrules.New()
	rules.Validate = false
	return dd, rules
}

// recordingResponder is a Responder that queues sent frames instead of
// writing to a transport, so a test can pop them off and feed them to the
// other side's Next at a controlled moment.
type recordingResponder struct {
	sent [][]byte
}

func (r *recordingResponder) Send(raw []byte) error {
	r.sent = append(r.sent, append([]byte(nil), raw...))
	return nil
}

func (r *recordingResponder) Disconnect() error { return nil }

func (r *recordingResponder) take() ([]byte, bool) {
	if len(r.sent) == 0 {
		return nil, false
	}
	raw := r.sent[0]
	r.sent = r.sent[1:]
	return raw, true
}

func (r *recordingResponder) takeAll() [][]byte {
	out := r.sent
	r.sent = nil
	return out
}

// recordingApp is an Application that records every callback for
// assertion; vetoFromApp lets a test exercise the ErrDoNotSend path.
type recordingApp struct {
	logons      []message.SessionID
	logouts     []message.SessionID
	fromApp     []*message.Message
	vetoFromApp bool
}

func (a *recordingApp) OnCreate(message.SessionID) {}

func (a *recordingApp) OnLogon(id message.SessionID) { a.logons = append(a.logons, id) }

func (a *recordingApp) OnLogout(id message.SessionID) { a.logouts = append(a.logouts, id) }

func (a *recordingApp) ToAdmin(*message.Message, message.SessionID) {}

func (a *recordingApp) FromAdmin(*message.Message, message.SessionID) error { return nil }

func (a *recordingApp) ToApp(*message.Message, message.SessionID) error { return nil }

func (a *recordingApp) FromApp(msg *message.Message, id message.SessionID) error {
	a.fromApp = append(a.fromApp, msg)
	if a.vetoFromApp {
		return ErrDoNotSend
	}
	return nil
}

// newTestSession builds a Session against a fresh in-memory store, a
// recordingResponder and a recordingApp, with CompID checking on and
// content validation off.
func newTestSession(t *testing.T, id message.SessionID, initiate bool) (*Session, *recordingResponder, *recordingApp) {
	t.Helper()
	return newTestSessionWithConfig(t, id, initiate, nil)
}

// newTestSessionWithConfig is newTestSession with an optional hook to
// adjust the Config before the Session is built, for tests that need
// latency checking, persistence, or other non-default behavior.
func newTestSessionWithConfig(t *testing.T, id message.SessionID, initiate bool, configure func(*Config)) (*Session, *recordingResponder, *recordingApp) {
	t.Helper()
	dd, rules := testDictionary()
	st := sessionstate.New(store.NewMemoryMessageStore(), initiate)
	app := &recordingApp{}
	cfg := Config{
		ID:            id,
		Initiate:      initiate,
		SessionDD:     dd,
		Rules:         rules,
		HeartBtInt:    30 * time.Second,
		LogonTimeout:  10 * time.Second,
		LogoutTimeout: 10 * time.Second,
		CheckCompID:   true,
	}
	if configure != nil {
		configure(&cfg)
	}
	s := New(cfg, st, app, nil, NewRegistry())
	// New installs the always-out-of-range null schedule; give test
	// sessions an all-week window so Tick does not log them out.
	sched, err := schedule.Parse("D|0,1,2,3,4,5,6|00:00:00|23:59:59|NoAutoEOD|NoAutoReconnect|0|NoAutoConnect|NoAutoDisconnect")
	if err != nil {
		t.Fatalf("parse test schedule: %v", err)
	}
	s.SetSchedule(sched)
	resp := &recordingResponder{}
	s.SetResponder(resp)
	return s, resp, app
}

// SessionIDForTest is the shared (BeginString, SenderCompID, TargetCompID)
// triple every test in this package builds sessions against, from the
// initiator's point of view.
func SessionIDForTest() message.SessionID {
	return message.SessionID{BeginString: "FIX.4.2", SenderCompID: "INITIATOR", TargetCompID: "ACCEPTOR"}
}

// newLoggedOnPair builds an initiator/acceptor pair sharing a SessionID
// and drives the full Logon handshake via their recordingResponders,
// returning both sessions ready for further exchange at time now.
func newLoggedOnPair(t *testing.T, now time.Time) (initiator, acceptor *Session, initResp, acceptResp *recordingResponder) {
	t.Helper()
	id := SessionIDForTest()
	initiator, initResp, _ = newTestSession(t, id, true)
	acceptor, acceptResp, _ = newTestSession(t, id.Reverse(), false)

	if err := initiator.Connect(now); err != nil {
		t.Fatalf("initiator connect: %v", err)
	}
	logonRaw, ok := initResp.take()
	if !ok {
		t.Fatal("initiator did not send a Logon")
	}
	if err := acceptor.Next(logonRaw, now); err != nil {
		t.Fatalf("acceptor processing initiator logon: %v", err)
	}
	replyRaw, ok := acceptResp.take()
	if !ok {
		t.Fatal("acceptor did not reply with a Logon")
	}
	if err := initiator.Next(replyRaw, now); err != nil {
		t.Fatalf("initiator processing acceptor logon: %v", err)
	}
	if !initiator.IsLoggedOn() || !acceptor.IsLoggedOn() {
		t.Fatal("expected both sides logged on after handshake")
	}
	return initiator, acceptor, initResp, acceptResp
}

// rawAppMessage builds wire bytes for a non-admin message from sender's
// point of view, addressed as if sender were the counterparty of id (i.e.
// the message arrives claiming id.TargetCompID as its SenderCompID).
func rawAppMessage(t *testing.T, id message.SessionID, msgType string, seqNum int, now time.Time, extra map[message.Tag]string) []byte {
	t.Helper()
	msg := message.New()
	msg.Header.Set(message.TagBeginString, id.BeginString)
	msg.Header.Set(message.TagMsgType, msgType)
	msg.Header.Set(message.TagSenderCompID, id.TargetCompID)
	msg.Header.Set(message.TagTargetCompID, id.SenderCompID)
	msg.Header.SetInt(message.TagMsgSeqNum, seqNum)
	msg.Header.Set(message.TagSendingTime, formatSendingTime(now, false))
	for tag, value := range extra {
		msg.Body.Set(tag, value)
	}
	raw, err := wire.Serialize(msg)
	if err != nil {
		t.Fatalf("serialize test message: %v", err)
	}
	return raw
}

// parseRawForTest parses raw bytes a session sent, for assertions against
// its MsgType and body fields.
func parseRawForTest(t *testing.T, raw []byte) (*message.Message, error) {
	t.Helper()
	dd, _ := testDictionary()
	return wire.Parse(raw, dd)
}
