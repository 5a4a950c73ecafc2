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
	"fmt"

	"github.com/coinbase/fixengine/datadictionary"
	"github.com/coinbase/fixengine/message"
)

// SessionRejectReason is the SessionRejectReason(373) enumeration a
// session-level Reject(3) carries.
type SessionRejectReason int

const (
	ReasonInvalidTagNumber              SessionRejectReason = 0
	ReasonRequiredTagMissing            SessionRejectReason = 1
	ReasonTagNotDefinedForMessageType   SessionRejectReason = 2
	ReasonUndefinedTag                  SessionRejectReason = 3
	ReasonTagSpecifiedWithoutValue      SessionRejectReason = 4
	ReasonValueIsIncorrect              SessionRejectReason = 5
	ReasonIncorrectDataFormat           SessionRejectReason = 6
	ReasonDecimalValueIncorrect         SessionRejectReason = 7
	ReasonSendingTimeAccuracyProblem    SessionRejectReason = 10
	ReasonInvalidMsgType                SessionRejectReason = 11
	ReasonTagAppearsMoreThanOnce        SessionRejectReason = 13
	ReasonTagSpecifiedOutOfOrder        SessionRejectReason = 14
	ReasonIncorrectNumInGroupCount      SessionRejectReason = 16
	ReasonOther                         SessionRejectReason = 99
)

// BusinessRejectReason is the BusinessRejectReason(380) enumeration a
// BusinessMessageReject(j) carries for FIX >= 4.2 application messages.
type BusinessRejectReason int

const (
	BizReasonOther                             BusinessRejectReason = 0
	BizReasonUnknownID                         BusinessRejectReason = 1
	BizReasonUnsupportedMessageType            BusinessRejectReason = 3
	BizReasonConditionallyRequiredFieldMissing BusinessRejectReason = 5
)

// MessageRejectError is returned by verify/dispatch to signal that an
// inbound message should be answered with a Reject or BusinessMessageReject
// rather than processed further.
type MessageRejectError struct {
	SessionReason SessionRejectReason
	BizReason     BusinessRejectReason
	RefTagID      message.Tag
	Text          string
	// Business reports whether FIX >= 4.2 BusinessMessageReject framing
	// applies instead of a session-level Reject.
	Business bool
	// Fatal reports that the dispatcher must log out and disconnect after
	// emitting the reject (RejectLogon / UnsupportedVersion semantics).
	Fatal bool
}

func (e *MessageRejectError) Error() string {
	return fmt.Sprintf("session: reject: %s", e.Text)
}

// rejectReasonForKind maps a datadictionary.RejectKind to the
// SessionRejectReason code the dispatcher attaches to the outbound Reject.
func rejectReasonForKind(kind datadictionary.RejectKind) SessionRejectReason {
	switch kind {
	case datadictionary.InvalidTagNumber:
		return ReasonInvalidTagNumber
	case datadictionary.RequiredTagMissing:
		return ReasonRequiredTagMissing
	case datadictionary.TagNotDefinedForMessage:
		return ReasonTagNotDefinedForMessageType
	case datadictionary.TagOutOfOrder:
		return ReasonTagSpecifiedOutOfOrder
	case datadictionary.RepeatedTag:
		return ReasonTagAppearsMoreThanOnce
	case datadictionary.NoTagValue:
		return ReasonTagSpecifiedWithoutValue
	case datadictionary.IncorrectDataFormat:
		return ReasonIncorrectDataFormat
	case datadictionary.IncorrectTagValue:
		return ReasonValueIsIncorrect
	case datadictionary.InvalidMessageType:
		return ReasonInvalidMsgType
	case datadictionary.RepeatingGroupMismatch:
		return ReasonIncorrectNumInGroupCount
	default:
		return ReasonOther
	}
}

// messageRejectFromValidation translates a *datadictionary.RejectError (or
// any other validation error) into a *MessageRejectError, marking
// UnsupportedVersion as fatal: both it and RejectLogon drive an immediate
// logout and disconnect.
func messageRejectFromValidation(err error) *MessageRejectError {
	de, ok := err.(*datadictionary.RejectError)
	if !ok {
		return &MessageRejectError{SessionReason: ReasonOther, Text: err.Error()}
	}
	mre := &MessageRejectError{
		SessionReason: rejectReasonForKind(de.Kind),
		RefTagID:      de.Tag,
		Text:          de.Text,
	}
	if de.Kind == datadictionary.UnsupportedVersion {
		mre.Fatal = true
	}
	return mre
}
