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

package validationrules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coinbase/fixengine/message"
)

// kindsImplyAllowedField reports the rejectType codes that additionally
// admit the tag into allowedFields -- these are the kinds
// that would otherwise also trip InvalidTagNumber/TagNotDefinedForMessage
// on the same tag, so tolerating them implies the tag is legal to send.
func kindsImplyAllowedField(k Kind) bool {
	switch k {
	case BadFormat, OutOfBounds, UnknownTag, EmptyTag:
		return true
	}
	return false
}

// SetAllowedFields parses a ';'-separated list of "msgType:tag1,tag2,..."
// groups and merges them into r.allowedFields.
func (r *ValidationRules) SetAllowedFields(descriptor string) error {
	if strings.TrimSpace(descriptor) == "" {
		return nil
	}
	for _, group := range strings.Split(descriptor, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		parts := strings.SplitN(group, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("validationrules: malformed allowed-fields group %q", group)
		}
		msgType := parts[0]
		for _, tagStr := range strings.Split(parts[1], ",") {
			tagStr = strings.TrimSpace(tagStr)
			if tagStr == "" {
				continue
			}
			n, err := strconv.Atoi(tagStr)
			if err != nil {
				return fmt.Errorf("validationrules: malformed tag %q in group %q: %w", tagStr, group, err)
			}
			r.AllowField(msgType, message.Tag(n))
		}
	}
	return nil
}

// SetValidationRules parses a ','-separated list of
// "inbound-rejectType-msgType-tag" rules.
func (r *ValidationRules) SetValidationRules(descriptor string) error {
	if strings.TrimSpace(descriptor) == "" {
		return nil
	}
	for _, rule := range strings.Split(descriptor, ",") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		parts := strings.Split(rule, "-")
		if len(parts) != 4 {
			return fmt.Errorf("validationrules: malformed rule %q", rule)
		}
		inboundStr, rejectTypeStr, msgType, tagStr := parts[0], parts[1], parts[2], parts[3]

		inboundN, err := strconv.Atoi(inboundStr)
		if err != nil || (inboundN != 0 && inboundN != 1) {
			return fmt.Errorf("validationrules: malformed inbound flag in rule %q", rule)
		}
		dir := message.Outgoing
		if inboundN == 1 {
			dir = message.Incoming
		}

		rejectType, err := strconv.Atoi(rejectTypeStr)
		if err != nil {
			return fmt.Errorf("validationrules: malformed rejectType in rule %q", rule)
		}
		kind, err := kindFromRejectType(rejectType)
		if err != nil {
			return fmt.Errorf("validationrules: rule %q: %w", rule, err)
		}

		tagN, err := strconv.Atoi(tagStr)
		if err != nil {
			return fmt.Errorf("validationrules: malformed tag in rule %q", rule)
		}
		tag := message.Tag(tagN)

		r.Tolerate(kind, dir, msgType, tag)
		if kindsImplyAllowedField(kind) {
			r.AllowField(msgType, tag)
		}
	}
	return nil
}

func kindFromRejectType(rejectType int) (Kind, error) {
	switch rejectType {
	case 0:
		return BadFormat, nil
	case 1:
		return OutOfBounds, nil
	case 2:
		return Missing, nil
	case 3:
		return RepeatingGroupMismatch, nil
	case 4:
		return UnknownTag, nil
	case 5:
		return EmptyTag, nil
	case 6:
		return OutOfOrderTag, nil
	case 7:
		return DuplicateTag, nil
	case 104:
		return VersionMismatch, nil
	default:
		return 0, fmt.Errorf("unknown rejectType %d", rejectType)
	}
}
