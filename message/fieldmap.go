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

// FieldMap holds one "section" of a message (header, body or trailer) as an
// ordered sequence of fields, plus any repeating-group instances nested
// under a group's delimiter tag. The ordered sequence is what lets
// iteration detect RepeatedTag and structural out-of-order tags; the
// group table is what lets checkGroupCount compare a declared NumInGroup
// value against the number of instances actually parsed.
//
// A FieldMap never holds group member tags directly in its top-level field
// list -- only the group's count tag appears there. Each group instance is
// itself a FieldMap, so nesting is a tree (never a graph): there is exactly
// one owner for every nested FieldMap.
type FieldMap struct {
	fields []Field
	groups map[Tag][]*FieldMap

	// outOfOrder/badOrderTag are set by a dictionary-aware parser (see
	// package wire) when it detects that fields appeared in a structurally
	// invalid sequence (header tags interleaved with body tags, etc). A
	// FieldMap built directly in memory (outbound construction) is never
	// out of order.
	outOfOrder  bool
	badOrderTag Tag
}

// NewFieldMap returns an empty, ready-to-use FieldMap.
func NewFieldMap() *FieldMap {
	return &FieldMap{}
}

// Add appends a field, preserving duplicates. Use Add while building a
// FieldMap from wire bytes, where a duplicate tag is itself meaningful
// (RepeatedTag). Use Set to overwrite when constructing a message to send.
func (m *FieldMap) Add(tag Tag, value string) {
	m.fields = append(m.fields, Field{Tag: tag, Value: value})
}

// Set overwrites the first occurrence of tag, or appends if absent.
func (m *FieldMap) Set(tag Tag, value string) {
	for i := range m.fields {
		if m.fields[i].Tag == tag {
			m.fields[i].Value = value
			return
		}
	}
	m.Add(tag, value)
}

// SetInt is a convenience wrapper around Set for integer-valued fields.
func (m *FieldMap) SetInt(tag Tag, value int) {
	m.Set(tag, strconv.Itoa(value))
}

// Get returns the first occurrence of tag.
func (m *FieldMap) Get(tag Tag) (string, bool) {
	for i := range m.fields {
		if m.fields[i].Tag == tag {
			return m.fields[i].Value, true
		}
	}
	return "", false
}

// GetOr returns the first occurrence of tag, or def if absent.
func (m *FieldMap) GetOr(tag Tag, def string) string {
	if v, ok := m.Get(tag); ok {
		return v
	}
	return def
}

// Has reports whether tag is present at least once.
func (m *FieldMap) Has(tag Tag) bool {
	_, ok := m.Get(tag)
	return ok
}

// Delete removes every occurrence of tag.
func (m *FieldMap) Delete(tag Tag) {
	out := m.fields[:0]
	for _, f := range m.fields {
		if f.Tag != tag {
			out = append(out, f)
		}
	}
	m.fields = out
	if m.groups != nil {
		delete(m.groups, tag)
	}
}

// Len returns the number of top-level field occurrences (excluding nested
// group member fields, which live on their own FieldMap instances).
func (m *FieldMap) Len() int { return len(m.fields) }

// Fields returns the ordered top-level field sequence as parsed or built.
// The returned slice must not be mutated by the caller.
func (m *FieldMap) Fields() []Field { return m.fields }

// FirstTag returns the tag of the first field, used as a repeating group's
// implicit delimiter tag when the dictionary doesn't name one explicitly.
func (m *FieldMap) FirstTag() (Tag, bool) {
	if len(m.fields) == 0 {
		return 0, false
	}
	return m.fields[0].Tag, true
}

// SetGroups installs parsed/constructed group instances under tag (the
// group's NumInGroup count tag). The count field itself must already be
// present in the top-level field sequence; SetGroups only attaches the
// nested instances.
func (m *FieldMap) SetGroups(tag Tag, instances []*FieldMap) {
	if m.groups == nil {
		m.groups = make(map[Tag][]*FieldMap)
	}
	m.groups[tag] = instances
}

// GetGroups returns the group instances nested under tag, in wire order.
func (m *FieldMap) GetGroups(tag Tag) []*FieldMap {
	if m.groups == nil {
		return nil
	}
	return m.groups[tag]
}

// GroupCount returns the number of group instances actually parsed under
// tag -- the value checkGroupCount compares the declared NumInGroup
// against.
func (m *FieldMap) GroupCount(tag Tag) int {
	return len(m.GetGroups(tag))
}

// MarkOutOfOrder records that the field at badTag broke structural
// ordering during a dictionary-aware parse (see wire.Parse).
func (m *FieldMap) MarkOutOfOrder(badTag Tag) {
	if !m.outOfOrder {
		m.outOfOrder = true
		m.badOrderTag = badTag
	}
}

// OutOfOrder reports whether this FieldMap was flagged during parsing, and
// if so which tag triggered it.
func (m *FieldMap) OutOfOrder() (Tag, bool) {
	return m.badOrderTag, m.outOfOrder
}

// Clone deep-copies the FieldMap, including nested group instances -- the
// owned-handle discipline DataDictionary relies on for its nested group
// dictionaries (see datadictionary.DataDictionary.Clone), reused here for
// any FieldMap that needs copy-on-assignment semantics.
func (m *FieldMap) Clone() *FieldMap {
	if m == nil {
		return nil
	}
	out := &FieldMap{
		fields:      append([]Field(nil), m.fields...),
		outOfOrder:  m.outOfOrder,
		badOrderTag: m.badOrderTag,
	}
	if m.groups != nil {
		out.groups = make(map[Tag][]*FieldMap, len(m.groups))
		for tag, instances := range m.groups {
			cloned := make([]*FieldMap, len(instances))
			for i, inst := range instances {
				cloned[i] = inst.Clone()
			}
			out.groups[tag] = cloned
		}
	}
	return out
}
