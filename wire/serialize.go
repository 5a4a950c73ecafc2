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
	"bytes"
	"fmt"
	"strconv"

	"github.com/coinbase/fixengine/message"
)

// Serialize renders msg back to wire bytes: BeginString(8) and BodyLength(9)
// first, then every other header field in the order they were set, then the
// body, then the trailer, with CheckSum(10) computed and appended last.
// BodyLength and CheckSum are always recomputed from the rest of the
// message -- whatever value a caller set for either tag is ignored, since
// they are framing, not content.
func Serialize(msg *message.Message) ([]byte, error) {
	beginString, ok := msg.Header.Get(message.TagBeginString)
	if !ok {
		return nil, fmt.Errorf("wire: serialize: missing BeginString(8)")
	}

	var headerRest, body, trailerRest bytes.Buffer
	writeFieldMap(&headerRest, msg.Header, message.TagBeginString, message.TagBodyLength)
	writeFieldMap(&body, msg.Body)
	writeFieldMap(&trailerRest, msg.Trailer, message.TagCheckSum)

	bodyLength := headerRest.Len() + body.Len() + trailerRest.Len()

	var out bytes.Buffer
	writeField(&out, message.TagBeginString, beginString)
	writeField(&out, message.TagBodyLength, strconv.Itoa(bodyLength))
	out.Write(headerRest.Bytes())
	out.Write(body.Bytes())
	out.Write(trailerRest.Bytes())

	sum := CheckSum(out.Bytes())
	writeField(&out, message.TagCheckSum, fmt.Sprintf("%03d", sum))

	return out.Bytes(), nil
}

// CheckSum sums every byte of data modulo 256: the CheckSum of every
// emitted message equals (sum of preceding bytes) mod 256.
func CheckSum(data []byte) int {
	var sum int
	for _, b := range data {
		sum += int(b)
	}
	return sum % 256
}

func writeField(buf *bytes.Buffer, tag message.Tag, value string) {
	buf.WriteString(strconv.Itoa(int(tag)))
	buf.WriteByte('=')
	buf.WriteString(value)
	buf.WriteByte(soh)
}

// writeFieldMap serializes fm's fields in order, recursing into any nested
// group instances immediately after their count tag, skipping any tag
// listed in skip (used to carve BeginString/BodyLength out of the header
// and CheckSum out of the trailer, since those three are written by hand).
func writeFieldMap(buf *bytes.Buffer, fm *message.FieldMap, skip ...message.Tag) {
	for _, f := range fm.Fields() {
		if containsTag(skip, f.Tag) {
			continue
		}
		writeField(buf, f.Tag, f.Value)
		for _, inst := range fm.GetGroups(f.Tag) {
			writeFieldMap(buf, inst)
		}
	}
}

func containsTag(tags []message.Tag, tag message.Tag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
