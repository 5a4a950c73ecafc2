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

package datadictionary

import (
	"fmt"

	"github.com/coinbase/fixengine/message"
)

// RejectKind enumerates the precise validation failure kinds DataDictionary
// can raise. Each maps to a SessionRejectReason/BusinessRejectReason code
// one level up in package session; keeping the kind as a small closed enum
// here (rather than raw error strings) is what lets ValidationRules
// tolerate failures per (direction, msgType, tag, kind).
type RejectKind int

const (
	_ RejectKind = iota
	UnsupportedVersion
	InvalidMessageType
	TagOutOfOrder
	RequiredTagMissing
	RepeatedTag
	NoTagValue
	IncorrectDataFormat
	IncorrectTagValue
	InvalidTagNumber
	TagNotDefinedForMessage
	RepeatingGroupMismatch
)

func (k RejectKind) String() string {
	switch k {
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case InvalidMessageType:
		return "InvalidMessageType"
	case TagOutOfOrder:
		return "TagOutOfOrder"
	case RequiredTagMissing:
		return "RequiredTagMissing"
	case RepeatedTag:
		return "RepeatedTag"
	case NoTagValue:
		return "NoTagValue"
	case IncorrectDataFormat:
		return "IncorrectDataFormat"
	case IncorrectTagValue:
		return "IncorrectTagValue"
	case InvalidTagNumber:
		return "InvalidTagNumber"
	case TagNotDefinedForMessage:
		return "TagNotDefinedForMessage"
	case RepeatingGroupMismatch:
		return "RepeatingGroupMismatch"
	default:
		return "Unknown"
	}
}

// RejectError is raised by Validate/iterate. It names the precise failure
// kind, the offending tag (0 if not tag-specific) and a human-readable
// message, so the session dispatcher can translate it into the matching
// Reject/BusinessMessageReject without re-deriving the reason from a
// generic error string.
type RejectError struct {
	Kind    RejectKind
	Tag     message.Tag
	MsgType string
	Text    string
}

func (e *RejectError) Error() string {
	if e.Tag != 0 {
		return fmt.Sprintf("%s: tag %d: %s", e.Kind, e.Tag, e.Text)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Text)
}

func reject(kind RejectKind, tag message.Tag, msgType, text string) *RejectError {
	return &RejectError{Kind: kind, Tag: tag, MsgType: msgType, Text: text}
}

// LoadError is raised by the XML loader for malformed dictionary documents.
// It is a configuration-time error, never raised by Validate.
type LoadError struct {
	Path string
	Text string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("datadictionary: load %s: %s", e.Path, e.Text)
}
