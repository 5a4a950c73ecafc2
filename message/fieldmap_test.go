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

import "testing"

func TestFieldMap_SetOverwritesFirstOccurrence(t *testing.T) {
	m := NewFieldMap()
	m.Add(55, "BTC-USD")
	m.Add(55, "ETH-USD")
	m.Set(55, "SOL-USD")

	if got, _ := m.Get(55); got != "SOL-USD" {
		t.Fatalf("expected first occurrence overwritten, got %s", got)
	}
	if m.Len() != 2 {
		t.Fatalf("expected Set to overwrite in place, not append; len=%d", m.Len())
	}
}

func TestFieldMap_DeleteRemovesAllOccurrences(t *testing.T) {
	m := NewFieldMap()
	m.Add(58, "a")
	m.Add(58, "b")
	m.Add(59, "c")

	m.Delete(58)

	if m.Has(58) {
		t.Fatal("expected tag 58 fully removed")
	}
	if m.Len() != 1 {
		t.Fatalf("expected only tag 59 left, len=%d", m.Len())
	}
}

func TestFieldMap_GroupsRoundTrip(t *testing.T) {
	m := NewFieldMap()
	m.Add(268, "2") // NoMDEntries

	e1 := NewFieldMap()
	e1.Add(269, "0")
	e2 := NewFieldMap()
	e2.Add(269, "1")
	m.SetGroups(268, []*FieldMap{e1, e2})

	if m.GroupCount(268) != 2 {
		t.Fatalf("expected 2 group instances, got %d", m.GroupCount(268))
	}
	got := m.GetGroups(268)
	if v, _ := got[0].Get(269); v != "0" {
		t.Fatalf("expected first instance MDEntryType=0, got %s", v)
	}
}

func TestFieldMap_CloneIsDeepAndIndependent(t *testing.T) {
	m := NewFieldMap()
	m.Add(268, "1")
	inst := NewFieldMap()
	inst.Add(269, "0")
	m.SetGroups(268, []*FieldMap{inst})

	clone := m.Clone()
	clone.GetGroups(268)[0].Set(269, "1")

	if v, _ := m.GetGroups(268)[0].Get(269); v != "0" {
		t.Fatalf("mutating clone's nested group must not affect original, got %s", v)
	}
}

func TestFieldMap_OutOfOrderMarking(t *testing.T) {
	m := NewFieldMap()
	if _, bad := m.OutOfOrder(); bad {
		t.Fatal("fresh FieldMap should not be out of order")
	}
	m.MarkOutOfOrder(55)
	tag, bad := m.OutOfOrder()
	if !bad || tag != 55 {
		t.Fatalf("expected out-of-order tag 55, got tag=%d bad=%v", tag, bad)
	}
	// First bad tag sticks even if marked again.
	m.MarkOutOfOrder(99)
	tag, _ = m.OutOfOrder()
	if tag != 55 {
		t.Fatalf("expected first bad tag to stick, got %d", tag)
	}
}

func TestSessionID_Reverse(t *testing.T) {
	id := SessionID{BeginString: "FIX.4.4", SenderCompID: "A", TargetCompID: "B"}
	r := id.Reverse()
	if r.SenderCompID != "B" || r.TargetCompID != "A" {
		t.Fatalf("expected swapped comp ids, got %+v", r)
	}
}

func TestVersion_LessWithinFamily(t *testing.T) {
	if !FIX42.Less(FIX44) {
		t.Fatal("expected FIX.4.2 < FIX.4.4")
	}
	if FIX44.Less(FIX42) {
		t.Fatal("expected FIX.4.4 not < FIX.4.2")
	}
	if FIX44.Less(FIXT11) || FIXT11.Less(FIX44) {
		t.Fatal("expected cross-family versions to be incomparable by Less")
	}
}
