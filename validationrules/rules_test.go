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
	"testing"

	"github.com/coinbase/fixengine/message"
)

func TestNilRulesAreStrict(t *testing.T) {
	var r *ValidationRules
	if !r.IsValidationEnabled() {
		t.Fatal("nil rules should still run validation")
	}
	if r.ShouldTolerateMissing(message.Incoming, "D", 11) {
		t.Fatal("nil rules should tolerate nothing")
	}
}

func TestSetValidationRules_TolerateMissingForSpecificTag(t *testing.T) {
	r := New()
	if err := r.SetValidationRules("1-2-D-21"); err != nil {
		t.Fatal(err)
	}
	if !r.ShouldTolerateMissing(message.Incoming, "D", 21) {
		t.Fatal("expected tag 21 missing to be tolerated inbound for msgType D")
	}
	if r.ShouldTolerateMissing(message.Outgoing, "D", 21) {
		t.Fatal("rule was inbound-only, must not tolerate outbound")
	}
	if r.ShouldTolerateMissing(message.Incoming, "D", 22) {
		t.Fatal("rule named tag 21 only")
	}
}

func TestSetValidationRules_WildcardMsgType(t *testing.T) {
	r := New()
	if err := r.SetValidationRules("0-4-?-9999"); err != nil {
		t.Fatal(err)
	}
	if !r.ShouldTolerateUnknownTag(message.Outgoing, "D", 9999) {
		t.Fatal("expected wildcard msgType to apply across message types")
	}
	if !r.ShouldTolerateUnknownTag(message.Outgoing, "8", 9999) {
		t.Fatal("expected wildcard msgType to apply across message types")
	}
}

func TestSetValidationRules_BadFormatImpliesAllowedField(t *testing.T) {
	r := New()
	if err := r.SetValidationRules("1-0-D-9999"); err != nil {
		t.Fatal(err)
	}
	// rejectType 0 (badFormat) implies admission into allowedFields, which
	// tolerates every rejection kind for that (msgType, tag) pair.
	if !r.ShouldTolerateMissing(message.Incoming, "D", 9999) {
		t.Fatal("expected badFormat rule to also admit tag into allowedFields")
	}
}

func TestSetAllowedFields(t *testing.T) {
	r := New()
	if err := r.SetAllowedFields("D:9001,9002;8:9003"); err != nil {
		t.Fatal(err)
	}
	if !r.ShouldTolerateUnknownTag(message.Incoming, "D", 9001) {
		t.Fatal("expected 9001 allowed for D")
	}
	if r.ShouldTolerateUnknownTag(message.Incoming, "D", 9003) {
		t.Fatal("9003 was only allowed for msgType 8")
	}
	if !r.ShouldTolerateUnknownTag(message.Incoming, "8", 9003) {
		t.Fatal("expected 9003 allowed for 8")
	}
}

func TestGlobalValidateOffTolerateAll(t *testing.T) {
	r := New()
	r.Validate = false
	if !r.ShouldTolerateMissing(message.Incoming, "D", 1) {
		t.Fatal("validate=false should tolerate everything")
	}
}

func TestMalformedDescriptorsError(t *testing.T) {
	r := New()
	if err := r.SetValidationRules("not-a-rule"); err == nil {
		t.Fatal("expected error for malformed rule")
	}
	if err := r.SetAllowedFields("noColon"); err == nil {
		t.Fatal("expected error for malformed allowed-fields group")
	}
}
