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

package wire

import (
	"strings"
	"testing"

	"github.com/coinbase/fixengine/datadictionary"
	"github.com/coinbase/fixengine/message"
)

func rawMsg(s string) []byte {
	return []byte(strings.ReplaceAll(s, "|", "\x01"))
}

func TestTokenize_RoundTripsTagValuePairs(t *testing.T) {
	fields, err := Tokenize(rawMsg("8=FIX.4.4|35=A|49=CLIENT|"))
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Tag != message.TagBeginString || fields[0].Value != "FIX.4.4" {
		t.Fatalf("unexpected first field: %+v", fields[0])
	}
	if fields[1].Tag != message.TagMsgType || fields[1].Value != "A" {
		t.Fatalf("unexpected second field: %+v", fields[1])
	}
}

func TestTokenize_RejectsMissingEquals(t *testing.T) {
	if _, err := Tokenize(rawMsg("8FIX.4.4|")); err == nil {
		t.Fatal("expected error for missing '='")
	}
}

func buildTestMessage() *message.Message {
	msg := message.New()
	msg.Header.Set(message.TagBeginString, "FIX.4.4")
	msg.Header.Set(message.TagMsgType, "A")
	msg.Header.Set(message.TagSenderCompID, "CLIENT")
	msg.Header.Set(message.TagTargetCompID, "SERVER")
	msg.Header.Set(message.TagMsgSeqNum, "1")
	msg.Body.Set(message.TagHeartBtInt, "30")
	return msg
}

func TestSerialize_ComputesBodyLengthAndCheckSum(t *testing.T) {
	msg := buildTestMessage()
	raw, err := Serialize(msg)
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyFraming(raw); err != nil {
		t.Fatalf("serialized message failed framing verification: %v", err)
	}
}

func TestParseThenSerialize_RoundTrips(t *testing.T) {
	msg := buildTestMessage()
	raw, err := Serialize(msg)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(raw, nil)
	if err != nil {
		t.Fatal(err)
	}

	reSerialized, err := Serialize(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if string(reSerialized) != string(raw) {
		t.Fatalf("round trip mismatch:\n got  %q\n want %q", reSerialized, raw)
	}
}

func TestParse_SectionsFieldsByDictionary(t *testing.T) {
	dict := datadictionary.New(message.FIX44)
	dict.AddHeaderField(message.TagSenderCompID, true)
	dict.AddTrailerField(message.Tag(93), false) // SignatureLength, arbitrary trailer tag

	raw := rawMsg("8=FIX.4.4|9=5|35=A|49=CLIENT|10=000|")
	msg, err := Parse(raw, dict)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := msg.Header.Get(message.TagSenderCompID); !ok || v != "CLIENT" {
		t.Fatalf("expected SenderCompID to land in header, got %v/%v", v, ok)
	}
}

func TestParse_FlagsHeaderTagAfterBodyStarted(t *testing.T) {
	dict := datadictionary.New(message.FIX44)
	dict.AddHeaderField(message.TagSenderCompID, true)

	// SenderCompID(49) appears after a body tag (108) has already started
	// the body section.
	raw := rawMsg("8=FIX.4.4|9=5|35=A|108=30|49=CLIENT|10=000|")
	msg, err := Parse(raw, dict)
	if err != nil {
		t.Fatal(err)
	}
	if _, outOfOrder := msg.Header.OutOfOrder(); !outOfOrder {
		t.Fatal("expected header to be flagged out of order")
	}
}

func TestParse_GroupInstancesNestUnderCountTag(t *testing.T) {
	dict := datadictionary.New(message.FIX44)
	entryDict := datadictionary.New(message.FIX44)
	entryDict.AddField(message.Tag(269), "MDEntryType", datadictionary.Char)
	entryDict.AddField(message.Tag(270), "MDEntryPx", datadictionary.Price)
	entryDict.AddMessageField("W", message.Tag(269), true)
	entryDict.AddMessageField("W", message.Tag(270), true)
	dict.AddGroup("W", message.Tag(268), message.Tag(269), entryDict)

	raw := rawMsg("8=FIX.4.4|9=5|35=W|268=2|269=0|270=100|269=1|270=200|10=000|")
	msg, err := Parse(raw, dict)
	if err != nil {
		t.Fatal(err)
	}
	groups := msg.Body.GetGroups(message.Tag(268))
	if len(groups) != 2 {
		t.Fatalf("expected 2 group instances, got %d", len(groups))
	}
	if v, _ := groups[0].Get(message.Tag(270)); v != "100" {
		t.Fatalf("expected first instance MDEntryPx=100, got %s", v)
	}
	if v, _ := groups[1].Get(message.Tag(270)); v != "200" {
		t.Fatalf("expected second instance MDEntryPx=200, got %s", v)
	}
}

func TestCheckSum_WrapsModulo256(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = 1
	}
	if got := CheckSum(data); got != 300%256 {
		t.Fatalf("expected checksum %d, got %d", 300%256, got)
	}
}

func TestNextMessage_SplitsAccumulatedStreamBytes(t *testing.T) {
	msg := buildTestMessage()
	raw, _ := Serialize(msg)
	buf := append(append([]byte{}, raw...), raw...)

	first, rest, err := NextMessage(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(raw) {
		t.Fatal("expected first message to match the serialized message")
	}
	second, rest2, err := NextMessage(rest)
	if err != nil {
		t.Fatal(err)
	}
	if string(second) != string(raw) {
		t.Fatal("expected second message to match the serialized message")
	}
	if len(rest2) != 0 {
		t.Fatal("expected no remaining bytes")
	}
}

func TestNextMessage_ReportsIncompleteOnPartialBuffer(t *testing.T) {
	msg := buildTestMessage()
	raw, _ := Serialize(msg)
	partial := raw[:len(raw)-5]

	if _, _, err := NextMessage(partial); err != ErrIncomplete {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestVerifyFraming_DetectsTamperedChecksum(t *testing.T) {
	msg := buildTestMessage()
	raw, _ := Serialize(msg)
	tampered := append([]byte{}, raw...)
	// CheckSum is always a 3-digit value in [0, 255]; "999" can never be a
	// correct checksum, so this substitution is guaranteed to mismatch.
	copy(tampered[len(tampered)-4:len(tampered)-1], "999")

	if err := VerifyFraming(tampered); err == nil {
		t.Fatal("expected checksum mismatch to be detected")
	}
}
