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

package message

import "strconv"

// Message is an ordered header, body and trailer, each a FieldMap. A
// well-formed header carries at minimum BeginString(8), BodyLength(9),
// MsgType(35), SenderCompID(49), TargetCompID(56), MsgSeqNum(34),
// SendingTime(52); a well-formed trailer carries CheckSum(10).
type Message struct {
	Header  *FieldMap
	Body    *FieldMap
	Trailer *FieldMap
}

// New returns an empty Message with initialized sections.
func New() *Message {
	return &Message{Header: NewFieldMap(), Body: NewFieldMap(), Trailer: NewFieldMap()}
}

// MsgType reads MsgType(35) from the header.
func (m *Message) MsgType() (string, bool) {
	return m.Header.Get(TagMsgType)
}

// BeginString reads BeginString(8) from the header.
func (m *Message) BeginString() (string, bool) {
	return m.Header.Get(TagBeginString)
}

// MsgSeqNum reads MsgSeqNum(34) from the header as an integer. A malformed
// or missing MsgSeqNum returns (0, false).
func (m *Message) MsgSeqNum() (int, bool) {
	raw, ok := m.Header.Get(TagMsgSeqNum)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsAdmin reports whether this message's MsgType is a session-level
// control message.
func (m *Message) IsAdmin() bool {
	t, ok := m.MsgType()
	return ok && IsAdminMessageType(t)
}

// SessionID is the immutable (BeginString, SenderCompID, TargetCompID)
// triple plus an optional qualifier that scopes settings/state/session
// instances sharing the same counterparty pair (e.g. two strategies both
// talking to the same TargetCompID).
type SessionID struct {
	BeginString  string
	SenderCompID string
	TargetCompID string
	Qualifier    string
}

// IsFIXT reports whether this session negotiates at the FIX Transport
// session layer (BeginString "FIXT.1.1").
func (id SessionID) IsFIXT() bool {
	return id.BeginString == "FIXT.1.1"
}

// Reverse swaps Sender/Target, the identity of the counterparty's view of
// the same session -- used by session lookup when matching an inbound
// message against a registered acceptor session.
func (id SessionID) Reverse() SessionID {
	return SessionID{
		BeginString:  id.BeginString,
		SenderCompID: id.TargetCompID,
		TargetCompID: id.SenderCompID,
		Qualifier:    id.Qualifier,
	}
}

func (id SessionID) String() string {
	s := id.BeginString + ":" + id.SenderCompID + "->" + id.TargetCompID
	if id.Qualifier != "" {
		s += ":" + id.Qualifier
	}
	return s
}

// HeaderSessionID extracts the SessionID a message's header claims. When
// reverse is true, Sender/Target are swapped -- used to look up the
// acceptor session an inbound message belongs to (its SenderCompID is our
// TargetCompID and vice versa).
func HeaderSessionID(header *FieldMap, reverse bool) SessionID {
	begin, _ := header.Get(TagBeginString)
	sender, _ := header.Get(TagSenderCompID)
	target, _ := header.Get(TagTargetCompID)
	id := SessionID{BeginString: begin, SenderCompID: sender, TargetCompID: target}
	if reverse {
		return id.Reverse()
	}
	return id
}
