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

// Package datadictionary implements the loaded, per-version FIX schema: the
// field universe, types, enumerations, required-field sets and nested
// repeating-group dictionaries, plus the Validate/iterate pipeline that
// checks a parsed message against that schema.
package datadictionary

import (
	"github.com/coinbase/fixengine/message"
	"github.com/coinbase/fixengine/validationrules"
)

// DefaultUserMin is the lowest tag conventionally reserved for
// user-defined fields across FIX versions; callers loading a dictionary
// whose XML doesn't otherwise imply a threshold get this default.
const DefaultUserMin message.Tag = 5000

// GroupDef describes one repeating group: the tag that delimits each
// instance (the group's first field, used to detect where one instance
// ends and the next begins) and the nested dictionary describing that
// instance's own legal/required fields and sub-groups.
type GroupDef struct {
	Delimiter message.Tag
	Dict      *DataDictionary
}

// DataDictionary is a loaded, immutable-after-construction FIX schema.
// Every tag named in messageFields or groups also appears in fields; every
// requiredFields[msgType] is a subset of messageFields[msgType]; every
// nested group dictionary's Version equals the owning dictionary's
// Version. Copies (Clone) are always deep, including nested group
// dictionaries, so there is never a shared, mutable nested dictionary
// between two DataDictionary values.
type DataDictionary struct {
	Version message.Version
	UserMin message.Tag

	fields        map[message.Tag]bool
	orderedFields []message.Tag

	fieldType   map[message.Tag]FieldType
	fieldValues map[message.Tag]map[string]bool

	names      map[string]message.Tag
	tagNames   map[message.Tag]string
	valueNames map[message.Tag]map[string]string

	messageFields  map[string]map[message.Tag]bool
	requiredFields map[string]map[message.Tag]bool

	headerFields    map[message.Tag]bool // value: required
	trailerFields   map[message.Tag]bool
	dataFields      map[message.Tag]bool

	groups map[message.Tag]map[string]GroupDef // group tag -> msgType -> def
}

// New returns an empty dictionary for the given version, ready for a loader
// (XML or programmatic) to populate.
func New(version message.Version) *DataDictionary {
	return &DataDictionary{
		Version:        version,
		UserMin:        DefaultUserMin,
		fields:         make(map[message.Tag]bool),
		fieldType:      make(map[message.Tag]FieldType),
		fieldValues:    make(map[message.Tag]map[string]bool),
		names:          make(map[string]message.Tag),
		tagNames:       make(map[message.Tag]string),
		valueNames:     make(map[message.Tag]map[string]string),
		messageFields:  make(map[string]map[message.Tag]bool),
		requiredFields: make(map[string]map[message.Tag]bool),
		headerFields:   make(map[message.Tag]bool),
		trailerFields:  make(map[message.Tag]bool),
		dataFields:     make(map[message.Tag]bool),
		groups:         make(map[message.Tag]map[string]GroupDef),
	}
}

// AddField registers tag in the field universe with its name and type.
func (d *DataDictionary) AddField(tag message.Tag, name string, ft FieldType) {
	if !d.fields[tag] {
		d.orderedFields = append(d.orderedFields, tag)
	}
	d.fields[tag] = true
	d.fieldType[tag] = ft
	d.names[name] = tag
	d.tagNames[tag] = name
}

// AddEnumValue registers an allowed enumeration value for tag.
func (d *DataDictionary) AddEnumValue(tag message.Tag, value, description string) {
	if d.fieldValues[tag] == nil {
		d.fieldValues[tag] = make(map[string]bool)
	}
	d.fieldValues[tag][value] = true
	if description != "" {
		if d.valueNames[tag] == nil {
			d.valueNames[tag] = make(map[string]string)
		}
		d.valueNames[tag][value] = description
	}
}

// AddMessageField declares that msgType may legally carry tag, and
// registers it as required when required is true.
func (d *DataDictionary) AddMessageField(msgType string, tag message.Tag, required bool) {
	if d.messageFields[msgType] == nil {
		d.messageFields[msgType] = make(map[message.Tag]bool)
	}
	d.messageFields[msgType][tag] = true
	if required {
		if d.requiredFields[msgType] == nil {
			d.requiredFields[msgType] = make(map[message.Tag]bool)
		}
		d.requiredFields[msgType][tag] = true
	}
}

// AddHeaderField declares tag as a legal header field.
func (d *DataDictionary) AddHeaderField(tag message.Tag, required bool) {
	d.headerFields[tag] = required
}

// AddTrailerField declares tag as a legal trailer field.
func (d *DataDictionary) AddTrailerField(tag message.Tag, required bool) {
	d.trailerFields[tag] = required
}

// MarkDataField records tag as a length-prefixed binary field, exempt from
// the usual string/enum format checks performed by checkValidFormat.
func (d *DataDictionary) MarkDataField(tag message.Tag) {
	d.dataFields[tag] = true
}

// AddGroup registers a repeating group: under msgType, tag is a NumInGroup
// count field whose instances are delimited by delimiter and structured
// per nested. nested.Version is forced to d.Version, preserving the
// invariant that every nested dictionary's version matches its owner's.
func (d *DataDictionary) AddGroup(msgType string, tag, delimiter message.Tag, nested *DataDictionary) {
	nested.Version = d.Version
	if d.groups[tag] == nil {
		d.groups[tag] = make(map[string]GroupDef)
	}
	d.groups[tag][msgType] = GroupDef{Delimiter: delimiter, Dict: nested}
}

// HasMessageType reports whether msgType is a legal message type under
// this dictionary.
func (d *DataDictionary) HasMessageType(msgType string) bool {
	_, ok := d.messageFields[msgType]
	return ok
}

// HasField reports whether tag is in the field universe.
func (d *DataDictionary) HasField(tag message.Tag) bool {
	return d.fields[tag]
}

// IsHeaderField reports whether tag is declared as a legal header field.
func (d *DataDictionary) IsHeaderField(tag message.Tag) bool {
	_, ok := d.headerFields[tag]
	return ok
}

// IsTrailerField reports whether tag is declared as a legal trailer field.
func (d *DataDictionary) IsTrailerField(tag message.Tag) bool {
	_, ok := d.trailerFields[tag]
	return ok
}

// FieldType returns tag's declared type, or Unknown if undeclared.
func (d *DataDictionary) FieldType(tag message.Tag) FieldType {
	return d.fieldType[tag]
}

// FieldName returns tag's declared name, or "" if undeclared.
func (d *DataDictionary) FieldName(tag message.Tag) string {
	return d.tagNames[tag]
}

// FieldTag returns the tag declared under name, or (0, false).
func (d *DataDictionary) FieldTag(name string) (message.Tag, bool) {
	t, ok := d.names[name]
	return t, ok
}

// ValueName returns the human-readable description of (tag, value), or "".
func (d *DataDictionary) ValueName(tag message.Tag, value string) string {
	if vs, ok := d.valueNames[tag]; ok {
		return vs[value]
	}
	return ""
}

// Group returns the group definition for tag under msgType, if declared.
func (d *DataDictionary) Group(msgType string, tag message.Tag) (GroupDef, bool) {
	byMsg, ok := d.groups[tag]
	if !ok {
		return GroupDef{}, false
	}
	def, ok := byMsg[msgType]
	return def, ok
}

// OrderedFields returns the field universe in declaration order as a fresh
// copy on every call, which callers may use for canonical serialization.
func (d *DataDictionary) OrderedFields() []message.Tag {
	out := make([]message.Tag, len(d.orderedFields))
	copy(out, d.orderedFields)
	return out
}

// IsUserDefined reports whether tag is at or above the UserMin threshold,
// and therefore bypasses strict tag-number/value-in-message/group-count
// checks.
func (d *DataDictionary) IsUserDefined(tag message.Tag) bool {
	return tag >= d.UserMin
}

// Clone deep-copies the dictionary, including every nested group
// dictionary, transitively: no two DataDictionary values ever share a
// mutable nested dictionary.
func (d *DataDictionary) Clone() *DataDictionary {
	if d == nil {
		return nil
	}
	out := New(d.Version)
	out.UserMin = d.UserMin
	for tag := range d.fields {
		out.fields[tag] = true
	}
	out.orderedFields = append([]message.Tag(nil), d.orderedFields...)
	for tag, ft := range d.fieldType {
		out.fieldType[tag] = ft
	}
	for tag, values := range d.fieldValues {
		cp := make(map[string]bool, len(values))
		for v := range values {
			cp[v] = true
		}
		out.fieldValues[tag] = cp
	}
	for name, tag := range d.names {
		out.names[name] = tag
	}
	for tag, name := range d.tagNames {
		out.tagNames[tag] = name
	}
	for tag, vs := range d.valueNames {
		cp := make(map[string]string, len(vs))
		for v, desc := range vs {
			cp[v] = desc
		}
		out.valueNames[tag] = cp
	}
	for msgType, tags := range d.messageFields {
		cp := make(map[message.Tag]bool, len(tags))
		for t := range tags {
			cp[t] = true
		}
		out.messageFields[msgType] = cp
	}
	for msgType, tags := range d.requiredFields {
		cp := make(map[message.Tag]bool, len(tags))
		for t := range tags {
			cp[t] = true
		}
		out.requiredFields[msgType] = cp
	}
	for tag, req := range d.headerFields {
		out.headerFields[tag] = req
	}
	for tag, req := range d.trailerFields {
		out.trailerFields[tag] = req
	}
	for tag := range d.dataFields {
		out.dataFields[tag] = true
	}
	for tag, byMsg := range d.groups {
		cp := make(map[string]GroupDef, len(byMsg))
		for msgType, def := range byMsg {
			cp[msgType] = GroupDef{Delimiter: def.Delimiter, Dict: def.Dict.Clone()}
		}
		out.groups[tag] = cp
	}
	return out
}

// direction/rules aliases kept local so validate.go reads naturally
// without a package-qualifier on every line.
type Direction = message.Direction
type Rules = validationrules.ValidationRules

const (
	Incoming = message.Incoming
	Outgoing = message.Outgoing
)
