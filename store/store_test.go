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

package store

import "testing"

func TestMemoryMessageStore_RoundTrip(t *testing.T) {
	s := NewMemoryMessageStore()
	for seq := 1; seq <= 5; seq++ {
		if err := s.SetMessage(seq, []byte("msg")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetMessages(2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].SeqNum != 2 || got[2].SeqNum != 4 {
		t.Fatalf("expected seq nums 2,3,4 in order, got %+v", got)
	}
}

func TestMemoryMessageStore_GetMessages_SkipsGaps(t *testing.T) {
	s := NewMemoryMessageStore()
	_ = s.SetMessage(2, []byte("a"))
	_ = s.SetMessage(4, []byte("b"))

	got, err := s.GetMessages(1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].SeqNum != 2 || got[1].SeqNum != 4 {
		t.Fatalf("expected only seq 2 and 4, got %+v", got)
	}
}

func TestMemoryMessageStore_IncrAndReset(t *testing.T) {
	s := NewMemoryMessageStore()
	_ = s.IncrNextSenderMsgSeqNum()
	_ = s.IncrNextSenderMsgSeqNum()
	if n, _ := s.NextSenderMsgSeqNum(); n != 3 {
		t.Fatalf("expected nextSender=3 after two increments, got %d", n)
	}

	_ = s.SetMessage(1, []byte("x"))
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.NextSenderMsgSeqNum(); n != 1 {
		t.Fatalf("expected reset to restore nextSender to 1, got %d", n)
	}
	msgs, _ := s.GetMessages(1, 1)
	if len(msgs) != 0 {
		t.Fatal("expected reset to discard stored messages")
	}
}

func TestMemoryMessageStore_SetMessageCopiesInput(t *testing.T) {
	s := NewMemoryMessageStore()
	raw := []byte("original")
	_ = s.SetMessage(1, raw)
	raw[0] = 'X'

	got, _ := s.GetMessages(1, 1)
	if string(got[0].Raw) != "original" {
		t.Fatal("SetMessage must defensively copy its input, mutation leaked in")
	}
}
