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
	"strings"

	"github.com/coinbase/fixengine/message"
)

// Validate is the top-level entry point: it admits or rejects msg
// under the given sessionDD (header/trailer schema) and appDD (body
// schema), applying rules' tolerances at every step. sessionDD and appDD
// may be the same dictionary for non-FIXT sessions.
func Validate(dir Direction, msg *message.Message, sessionDD, appDD *DataDictionary, rules *Rules) error {
	if !rules.IsValidationEnabled() {
		return nil
	}

	msgType, _ := msg.MsgType()

	if begin, _ := msg.BeginString(); sessionDD != nil && begin != sessionDD.Version.Raw {
		if !rules.ShouldTolerateVersionMismatch(dir, msgType, 0) {
			return reject(UnsupportedVersion, 0, msgType, "BeginString mismatch: expected "+sessionDD.Version.Raw+" got "+begin)
		}
	}

	if appDD != nil {
		if err := appDD.checkMsgType(dir, msgType, rules); err != nil {
			return err
		}
	}

	for _, fm := range []*message.FieldMap{msg.Header, msg.Body, msg.Trailer} {
		if badTag, bad := fm.OutOfOrder(); bad {
			if !rules.ShouldTolerateOutOfOrderTag(dir, msgType, badTag) {
				return reject(TagOutOfOrder, badTag, msgType, "field out of order")
			}
		}
	}

	if appDD != nil {
		if err := appDD.checkHasRequired(dir, msg.Header, msg.Body, msg.Trailer, msgType, sessionDD, rules); err != nil {
			return err
		}
	}

	if sessionDD != nil {
		if err := sessionDD.iterate(dir, msg.Header, msgType, rules, true); err != nil {
			return err
		}
		if err := sessionDD.iterate(dir, msg.Trailer, msgType, rules, true); err != nil {
			return err
		}
	}
	if appDD != nil {
		if err := appDD.iterate(dir, msg.Body, msgType, rules, false); err != nil {
			return err
		}
	}
	return nil
}

// checkMsgType fails InvalidMessageType when msgType isn't in the
// dictionary's message universe.
func (d *DataDictionary) checkMsgType(dir Direction, msgType string, rules *Rules) error {
	if d.HasMessageType(msgType) {
		return nil
	}
	if rules.ShouldTolerateUnknownTag(dir, msgType, message.TagMsgType) {
		return nil
	}
	return reject(InvalidMessageType, message.TagMsgType, msgType, "unknown message type "+msgType)
}

// iterate walks fm's top-level field sequence in order: repeated-tag,
// empty-value, format and enum checks, plus — for
// non-header/trailer fields below UserMin — tag-legality,
// tag-belongs-to-message and group-count checks.
func (d *DataDictionary) iterate(dir Direction, fm *message.FieldMap, msgType string, rules *Rules, isHeaderOrTrailer bool) error {
	fields := fm.Fields()
	var prevTag message.Tag
	havePrev := false

	for _, f := range fields {
		tag, value := f.Tag, f.Value

		if havePrev && prevTag == tag {
			if !rules.ShouldTolerateDuplicateTag(dir, msgType, tag) {
				return reject(RepeatedTag, tag, msgType, "repeated tag")
			}
		}
		prevTag = tag
		havePrev = true

		if value == "" {
			if !rules.ShouldTolerateEmptyTag(dir, msgType, tag) {
				return reject(NoTagValue, tag, msgType, "tag has no value")
			}
		}

		if d.Version.Raw != "" {
			ft := d.fieldType[tag]
			if err := d.checkValidFormat(dir, msgType, tag, value, ft, rules); err != nil {
				return err
			}
			if err := d.checkValue(dir, msgType, tag, value, ft, rules); err != nil {
				return err
			}
		}

		if !d.IsUserDefined(tag) {
			if !d.HasField(tag) {
				if !rules.ShouldTolerateUnknownTag(dir, msgType, tag) {
					return reject(InvalidTagNumber, tag, msgType, "unknown tag")
				}
			} else if !isHeaderOrTrailer {
				if err := d.checkIsInMessage(dir, msgType, tag, rules); err != nil {
					return err
				}
				if err := d.checkGroupCount(dir, fm, msgType, tag, rules); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (d *DataDictionary) checkValidFormat(dir Direction, msgType string, tag message.Tag, value string, ft FieldType, rules *Rules) error {
	if d.dataFields[tag] {
		return nil
	}
	if err := ft.checkFormat(value); err != nil {
		if !rules.ShouldTolerateBadFormat(dir, msgType, tag) {
			return reject(IncorrectDataFormat, tag, msgType, err.Error())
		}
	}
	return nil
}

func (d *DataDictionary) checkValue(dir Direction, msgType string, tag message.Tag, value string, ft FieldType, rules *Rules) error {
	allowed, hasEnum := d.fieldValues[tag]
	if !hasEnum {
		return nil
	}
	ok := true
	if ft.isMultipleValue() {
		for _, tok := range strings.Split(value, " ") {
			if tok == "" {
				continue
			}
			if !allowed[tok] {
				ok = false
				break
			}
		}
	} else {
		ok = allowed[value]
	}
	if !ok {
		if !rules.ShouldTolerateOutOfBounds(dir, msgType, tag) {
			return reject(IncorrectTagValue, tag, msgType, "value "+value+" not in enumeration")
		}
	}
	return nil
}

func (d *DataDictionary) checkIsInMessage(dir Direction, msgType string, tag message.Tag, rules *Rules) error {
	if byMsg, ok := d.messageFields[msgType]; ok && byMsg[tag] {
		return nil
	}
	if rules.ShouldTolerateUnknownTag(dir, msgType, tag) {
		return nil
	}
	return reject(TagNotDefinedForMessage, tag, msgType, "tag not defined for this message type")
}

// checkGroupCount compares a declared NumInGroup value against the number
// of group instances actually parsed. A non-integer or negative declared
// count is treated as a mismatch rather than a separate format error.
func (d *DataDictionary) checkGroupCount(dir Direction, fm *message.FieldMap, msgType string, tag message.Tag, rules *Rules) error {
	byMsg, ok := d.groups[tag]
	if !ok {
		return nil
	}
	if _, ok := byMsg[msgType]; !ok {
		return nil
	}
	declaredStr, _ := fm.Get(tag)
	declared, err := parseNonNegativeInt(declaredStr)
	actual := fm.GroupCount(tag)
	if err != nil || declared != actual {
		if !rules.ShouldTolerateRepeatingGroupMismatch(dir, msgType, tag) {
			return reject(RepeatingGroupMismatch, tag, msgType, "declared group count does not match parsed instances")
		}
	}
	return nil
}

func parseNonNegativeInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, &formatError{"empty"}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &formatError{"not a non-negative integer"}
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// checkHasRequired verifies header/trailer/body required fields, then
// recurses into every present group instance whose schema is known.
func (d *DataDictionary) checkHasRequired(dir Direction, header, body, trailer *message.FieldMap, msgType string, sessionDD *DataDictionary, rules *Rules) error {
	if sessionDD != nil {
		for tag, required := range sessionDD.headerFields {
			if required && !header.Has(tag) {
				if !rules.ShouldTolerateMissing(dir, msgType, tag) {
					return reject(RequiredTagMissing, tag, msgType, "required header tag missing")
				}
			}
		}
		for tag, required := range sessionDD.trailerFields {
			if required && !trailer.Has(tag) {
				if !rules.ShouldTolerateMissing(dir, msgType, tag) {
					return reject(RequiredTagMissing, tag, msgType, "required trailer tag missing")
				}
			}
		}
	}
	for tag := range d.requiredFields[msgType] {
		if !body.Has(tag) {
			if !rules.ShouldTolerateMissing(dir, msgType, tag) {
				return reject(RequiredTagMissing, tag, msgType, "required tag missing")
			}
		}
	}
	for tag, byMsg := range d.groups {
		def, ok := byMsg[msgType]
		if !ok || !body.Has(tag) {
			continue
		}
		for _, instance := range body.GetGroups(tag) {
			if err := def.Dict.checkHasRequired(dir, header, instance, trailer, msgType, nil, rules); err != nil {
				return err
			}
		}
	}
	return nil
}
