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

// Tag is a FIX field number. Tags are always >= 1; tags at or above a
// version's UserMin threshold are user-defined and bypass strict
// dictionary checks (see datadictionary.DataDictionary.UserMin).
type Tag int

// Standard header/trailer tags every message touches directly, regardless
// of FIX version. Keeping these as named constants (rather than magic
// numbers scattered through session/datadictionary) matches how the
// teacher package keys every well-known tag off a constants table.
const (
	TagBeginString    Tag = 8
	TagBodyLength     Tag = 9
	TagMsgType        Tag = 35
	TagSenderCompID   Tag = 49
	TagTargetCompID   Tag = 56
	TagMsgSeqNum      Tag = 34
	TagSendingTime    Tag = 52
	TagCheckSum       Tag = 10
	TagPossDupFlag    Tag = 43
	TagOrigSendingTime Tag = 122
	TagTestReqID      Tag = 112
	TagHeartBtInt     Tag = 108
	TagEncryptMethod  Tag = 98
	TagResetSeqNumFlag Tag = 141
	TagBeginSeqNo     Tag = 7
	TagEndSeqNo       Tag = 16
	TagNewSeqNo       Tag = 36
	TagGapFillFlag    Tag = 123
	TagRefSeqNum      Tag = 45
	TagRefMsgType     Tag = 372
	TagSessionRejectReason Tag = 373
	TagBusinessRejectReason Tag = 380
	TagRefTagID       Tag = 371
	TagText           Tag = 58
	TagDefaultApplVerID Tag = 1137
	TagApplVerID      Tag = 1128
	TagUsername       Tag = 553
	TagPassword       Tag = 554
)

// Admin (session-level) message types.
const (
	MsgTypeHeartbeat     = "0"
	MsgTypeTestRequest   = "1"
	MsgTypeResendRequest = "2"
	MsgTypeReject        = "3"
	MsgTypeSequenceReset = "4"
	MsgTypeLogout        = "5"
	MsgTypeLogon         = "A"
	MsgTypeBusinessReject = "j"
)

// IsAdminMessageType reports whether msgType is one of the six session-layer
// control messages: Heartbeat, TestRequest, ResendRequest, Reject,
// SequenceReset and Logout (Logon itself is also admin).
func IsAdminMessageType(msgType string) bool {
	switch msgType {
	case MsgTypeHeartbeat, MsgTypeTestRequest, MsgTypeResendRequest,
		MsgTypeReject, MsgTypeSequenceReset, MsgTypeLogout, MsgTypeLogon:
		return true
	}
	return false
}

// Field is a single (tag, raw string value) pair as it appeared on the wire.
type Field struct {
	Tag   Tag
	Value string
}
