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

// Package sessionstate implements the mutable per-session bookkeeping a
// Session drives -- sequence numbers, flags, timers, the pending resend
// range, and the out-of-order message queue. Flag, timer, resend-range and
// queue methods take the State's own lock; the sequence-number methods
// delegate directly to the MessageStore and rely on its locking.
package sessionstate

import (
	"sync"
	"time"

	"github.com/coinbase/fixengine/message"
	"github.com/coinbase/fixengine/store"
)

// ResendRange is the pending resend window; (0, 0) means "no outstanding
// resend request".
type ResendRange struct {
	Begin int
	End   int
}

// State is the per-session mutable state a Session drives through logon,
// heartbeat, resend and logout flows.
type State struct {
	mu sync.Mutex

	store store.MessageStore

	sentLogon             bool
	receivedLogon          bool
	sentLogout             bool
	sentReset              bool
	receivedReset          bool
	initiate               bool
	manualLoginRequested   bool
	manualLogoutRequested  bool

	lastSentTime              time.Time
	lastReceivedTime           time.Time
	lastConnectionAttemptTime time.Time
	sentLogonTime             time.Time
	sentLogoutTime            time.Time
	heartBtInt                time.Duration
	logonTimeout               time.Duration
	logoutTimeout              time.Duration
	testRequestCounter         int

	resendRange ResendRange

	messageQueue map[int]*message.Message

	logoutReason string
}

// New returns a fresh State backed by st, with both sequence-number
// cursors whatever st currently holds (1/1 for a new MemoryMessageStore).
func New(st store.MessageStore, initiate bool) *State {
	return &State{
		store:        st,
		initiate:     initiate,
		heartBtInt:   30 * time.Second,
		logonTimeout: 10 * time.Second,
		logoutTimeout: 2 * time.Second,
		messageQueue: make(map[int]*message.Message),
	}
}

// Store returns the MessageStore this state owns.
func (s *State) Store() store.MessageStore { return s.store }

// NextSenderMsgSeqNum / NextTargetMsgSeqNum read the current cursors.
func (s *State) NextSenderMsgSeqNum() int {
	n, _ := s.store.NextSenderMsgSeqNum()
	return n
}

func (s *State) NextTargetMsgSeqNum() int {
	n, _ := s.store.NextTargetMsgSeqNum()
	return n
}

// IncrNextSenderMsgSeqNum / IncrNextTargetMsgSeqNum advance a cursor by
// exactly one.
func (s *State) IncrNextSenderMsgSeqNum() error {
	return s.store.IncrNextSenderMsgSeqNum()
}

func (s *State) IncrNextTargetMsgSeqNum() error {
	return s.store.IncrNextTargetMsgSeqNum()
}

func (s *State) SetNextSenderMsgSeqNum(n int) error {
	return s.store.SetNextSenderMsgSeqNum(n)
}

func (s *State) SetNextTargetMsgSeqNum(n int) error {
	return s.store.SetNextTargetMsgSeqNum(n)
}

// Flags. Each getter/setter pair takes the state's own lock.
func (s *State) SentLogon() bool      { s.mu.Lock(); defer s.mu.Unlock(); return s.sentLogon }
func (s *State) SetSentLogon(v bool)  { s.mu.Lock(); defer s.mu.Unlock(); s.sentLogon = v }

func (s *State) ReceivedLogon() bool     { s.mu.Lock(); defer s.mu.Unlock(); return s.receivedLogon }
func (s *State) SetReceivedLogon(v bool) { s.mu.Lock(); defer s.mu.Unlock(); s.receivedLogon = v }

func (s *State) SentLogout() bool     { s.mu.Lock(); defer s.mu.Unlock(); return s.sentLogout }
func (s *State) SetSentLogout(v bool) { s.mu.Lock(); defer s.mu.Unlock(); s.sentLogout = v }

func (s *State) SentReset() bool     { s.mu.Lock(); defer s.mu.Unlock(); return s.sentReset }
func (s *State) SetSentReset(v bool) { s.mu.Lock(); defer s.mu.Unlock(); s.sentReset = v }

func (s *State) ReceivedReset() bool     { s.mu.Lock(); defer s.mu.Unlock(); return s.receivedReset }
func (s *State) SetReceivedReset(v bool) { s.mu.Lock(); defer s.mu.Unlock(); s.receivedReset = v }

func (s *State) IsInitiator() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.initiate }

func (s *State) ManualLoginRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manualLoginRequested
}
func (s *State) SetManualLoginRequested(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualLoginRequested = v
}

func (s *State) ManualLogoutRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manualLogoutRequested
}
func (s *State) SetManualLogoutRequested(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualLogoutRequested = v
}

// Timers.
func (s *State) LastSentTime() time.Time { s.mu.Lock(); defer s.mu.Unlock(); return s.lastSentTime }
func (s *State) SetLastSentTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSentTime = t
}

func (s *State) LastReceivedTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReceivedTime
}
func (s *State) SetLastReceivedTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReceivedTime = t
}

func (s *State) LastConnectionAttemptTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastConnectionAttemptTime
}
func (s *State) SetLastConnectionAttemptTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastConnectionAttemptTime = t
}

// SentLogonTime / SentLogoutTime record when this side's own Logon/Logout
// was transmitted, so Tick can bound the wait for the counterparty's reply
// independently of LastSentTime (which every outbound message updates).
func (s *State) SentLogonTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentLogonTime
}
func (s *State) SetSentLogonTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentLogonTime = t
}

func (s *State) SentLogoutTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentLogoutTime
}
func (s *State) SetSentLogoutTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentLogoutTime = t
}

func (s *State) HeartBtInt() time.Duration { s.mu.Lock(); defer s.mu.Unlock(); return s.heartBtInt }
func (s *State) SetHeartBtInt(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartBtInt = d
}

func (s *State) LogonTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logonTimeout
}
func (s *State) SetLogonTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logonTimeout = d
}

func (s *State) LogoutTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutTimeout
}
func (s *State) SetLogoutTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutTimeout = d
}

func (s *State) TestRequestCounter() int { s.mu.Lock(); defer s.mu.Unlock(); return s.testRequestCounter }

// NextTestRequestID increments and returns the monotonic TestReqID counter.
func (s *State) NextTestRequestID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testRequestCounter++
	return s.testRequestCounter
}

// Resend range.
func (s *State) ResendRange() ResendRange { s.mu.Lock(); defer s.mu.Unlock(); return s.resendRange }

func (s *State) SetResendRange(begin, end int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resendRange = ResendRange{Begin: begin, End: end}
}

// ClearResendRangeIfSatisfied clears the resend range once seqNum reaches
// its end.
func (s *State) ClearResendRangeIfSatisfied(seqNum int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resendRange.End != 0 && seqNum >= s.resendRange.End {
		s.resendRange = ResendRange{}
	}
}

func (s *State) IsResendRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resendRange.End != 0
}

// Logout reason.
func (s *State) LogoutReason() string { s.mu.Lock(); defer s.mu.Unlock(); return s.logoutReason }
func (s *State) SetLogoutReason(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutReason = reason
}

// Out-of-order message queue.
func (s *State) Queue(seqNum int, msg *message.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageQueue[seqNum] = msg
}

// Dequeue returns and removes the queued message at seqNum, if any.
func (s *State) Dequeue(seqNum int) (*message.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messageQueue[seqNum]
	if ok {
		delete(s.messageQueue, seqNum)
	}
	return msg, ok
}

// QueueLen reports how many messages are currently queued.
func (s *State) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messageQueue)
}

// IsLoggedOn reports whether logon has been exchanged both ways.
func (s *State) IsLoggedOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentLogon && s.receivedLogon
}

// SoftReset clears transient flags and the out-of-order queue but
// preserves sequence numbers.
func (s *State) SoftReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentLogon = false
	s.receivedLogon = false
	s.sentLogout = false
	s.sentReset = false
	s.receivedReset = false
	s.sentLogonTime = time.Time{}
	s.sentLogoutTime = time.Time{}
	s.resendRange = ResendRange{}
	s.testRequestCounter = 0
	s.messageQueue = make(map[int]*message.Message)
	s.logoutReason = ""
}

// Reset restores sequence numbers to 1 and clears all transient state,
// including the backing store's own persisted messages.
func (s *State) Reset() error {
	s.mu.Lock()
	s.sentLogon = false
	s.receivedLogon = false
	s.sentLogout = false
	s.sentReset = false
	s.receivedReset = false
	s.sentLogonTime = time.Time{}
	s.sentLogoutTime = time.Time{}
	s.resendRange = ResendRange{}
	s.testRequestCounter = 0
	s.messageQueue = make(map[int]*message.Message)
	s.logoutReason = ""
	s.mu.Unlock()
	return s.store.Reset()
}
