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

// Package validationrules implements the direction-aware tolerance overlay
// that selectively suppresses DataDictionary rejections per (direction,
// message type, tag) -- the sole legitimate way to relax protocol
// strictness without recompiling the dictionary.
package validationrules

import (
	"github.com/coinbase/fixengine/message"
)

// Kind enumerates the rejection kinds ValidationRules can tolerate. The
// numeric values match the wire encoding used by setValidationRules
// descriptors, including the historical gap between 7 and 104.
type Kind int

const (
	BadFormat              Kind = 0
	OutOfBounds            Kind = 1
	Missing                Kind = 2
	RepeatingGroupMismatch Kind = 3
	UnknownTag             Kind = 4
	EmptyTag               Kind = 5
	OutOfOrderTag          Kind = 6
	DuplicateTag           Kind = 7
	VersionMismatch        Kind = 104
)

// WildcardMsgType is the "?" msgType key meaning "any message type".
const WildcardMsgType = "?"

// direction/tagSet is a per-direction (msgType -> set of tolerated tags)
// table; msgType "?" is the wildcard entry.
type tagSet map[string]map[message.Tag]bool

func (s tagSet) has(msgType string, tag message.Tag) bool {
	if byTag, ok := s[msgType]; ok && byTag[tag] {
		return true
	}
	if byTag, ok := s[WildcardMsgType]; ok && byTag[tag] {
		return true
	}
	return false
}

func (s *tagSet) add(msgType string, tag message.Tag) {
	if *s == nil {
		*s = make(tagSet)
	}
	if (*s)[msgType] == nil {
		(*s)[msgType] = make(map[message.Tag]bool)
	}
	(*s)[msgType][tag] = true
}

type directionalTagSet struct {
	inbound  tagSet
	outbound tagSet
}

func (d *directionalTagSet) forDirection(dir message.Direction) tagSet {
	if dir == message.Incoming {
		return d.inbound
	}
	return d.outbound
}

func (d *directionalTagSet) add(dir message.Direction, msgType string, tag message.Tag) {
	if dir == message.Incoming {
		d.inbound.add(msgType, tag)
	} else {
		d.outbound.add(msgType, tag)
	}
}

// ValidationRules is the tolerance overlay. A nil *ValidationRules denotes
// "strict": validate everything, tolerate nothing -- every
// ShouldTolerateXxx call on a nil receiver returns false except when global
// Validate is explicitly toggled off, which a nil pointer can never do, so
// nil is unconditionally strict.
type ValidationRules struct {
	Validate                  bool
	ValidateBounds             bool
	ValidateLength             bool
	ValidateChecksum           bool
	ValidateFieldsOutOfOrder   bool
	ValidateFieldsHaveValues   bool
	ValidateUserDefinedFields  bool

	allowedFields tagSet
	byKind        map[Kind]*directionalTagSet
}

// New returns a strict ValidationRules: every boolean defaults true (full
// validation) and no tags are tolerated.
func New() *ValidationRules {
	return &ValidationRules{
		Validate:                 true,
		ValidateBounds:           true,
		ValidateLength:           true,
		ValidateChecksum:         true,
		ValidateFieldsOutOfOrder: true,
		ValidateFieldsHaveValues: true,
		ValidateUserDefinedFields: true,
		allowedFields:            make(tagSet),
		byKind:                   make(map[Kind]*directionalTagSet),
	}
}

func (r *ValidationRules) kindSet(k Kind) *directionalTagSet {
	if r.byKind == nil {
		r.byKind = make(map[Kind]*directionalTagSet)
	}
	ds, ok := r.byKind[k]
	if !ok {
		ds = &directionalTagSet{}
		r.byKind[k] = ds
	}
	return ds
}

// AllowField always admits tag for msgType ("?" for all message types),
// independent of rejection kind.
func (r *ValidationRules) AllowField(msgType string, tag message.Tag) {
	r.allowedFields.add(msgType, tag)
}

// Tolerate records that (direction, msgType, tag) should be tolerated for
// rejection kind k.
func (r *ValidationRules) Tolerate(k Kind, dir message.Direction, msgType string, tag message.Tag) {
	r.kindSet(k).add(dir, msgType, tag)
}

// shouldTolerate implements the common query contract: tolerate iff
// (a) global validation is off, (b) the tag is always-allowed for msgType,
// or (c) the tag is tolerated for this specific rejection kind/direction.
// A nil receiver is strict and tolerates nothing.
func (r *ValidationRules) shouldTolerate(k Kind, dir message.Direction, msgType string, tag message.Tag) bool {
	if r == nil {
		return false
	}
	if !r.Validate {
		return true
	}
	if r.allowedFields.has(msgType, tag) {
		return true
	}
	ds, ok := r.byKind[k]
	if !ok {
		return false
	}
	return ds.forDirection(dir).has(msgType, tag)
}

func (r *ValidationRules) ShouldTolerateBadFormat(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(BadFormat, dir, msgType, tag)
}

func (r *ValidationRules) ShouldTolerateMissing(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(Missing, dir, msgType, tag)
}

func (r *ValidationRules) ShouldTolerateOutOfBounds(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(OutOfBounds, dir, msgType, tag)
}

func (r *ValidationRules) ShouldTolerateUnknownTag(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(UnknownTag, dir, msgType, tag)
}

func (r *ValidationRules) ShouldTolerateEmptyTag(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(EmptyTag, dir, msgType, tag)
}

func (r *ValidationRules) ShouldTolerateOutOfOrderTag(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(OutOfOrderTag, dir, msgType, tag)
}

func (r *ValidationRules) ShouldTolerateDuplicateTag(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(DuplicateTag, dir, msgType, tag)
}

func (r *ValidationRules) ShouldTolerateRepeatingGroupMismatch(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(RepeatingGroupMismatch, dir, msgType, tag)
}

func (r *ValidationRules) ShouldTolerateVersionMismatch(dir message.Direction, msgType string, tag message.Tag) bool {
	return r.shouldTolerate(VersionMismatch, dir, msgType, tag)
}

// IsValidationEnabled reports whether a nil-safe caller should run
// DataDictionary validation at all. If rules disable validation, callers
// should treat the message as accepted without inspecting it further.
func (r *ValidationRules) IsValidationEnabled() bool {
	return r == nil || r.Validate
}
