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

// Package wire implements the wire-format tokenizer that splits a raw
// buffer into fields: a single-pass SOH/tag=value tokenizer, a
// group-aware Parse that sections tokens into header/body/trailer against
// a DataDictionary, and a Serialize that reproduces FIX's
// BodyLength/CheckSum framing.
package wire

import (
	"fmt"
	"strconv"

	"github.com/coinbase/fixengine/message"
)

const soh = 0x01

// Tokenize splits raw into an ordered field sequence using a single-pass
// IndexByte scan over SOH-delimited segments.
func Tokenize(raw []byte) ([]message.Field, error) {
	var fields []message.Field
	pos := 0
	n := len(raw)
	for pos < n {
		eq := indexByte(raw[pos:], '=')
		if eq == -1 {
			return nil, fmt.Errorf("wire: malformed field at offset %d: missing '='", pos)
		}
		eq += pos
		tagStr := string(raw[pos:eq])
		tagNum, err := strconv.Atoi(tagStr)
		if err != nil {
			return nil, fmt.Errorf("wire: malformed tag %q at offset %d", tagStr, pos)
		}

		valueStart := eq + 1
		sohPos := indexByte(raw[valueStart:], soh)
		var value string
		var next int
		if sohPos == -1 {
			value = string(raw[valueStart:])
			next = n
		} else {
			value = string(raw[valueStart : valueStart+sohPos])
			next = valueStart + sohPos + 1
		}

		fields = append(fields, message.Field{Tag: message.Tag(tagNum), Value: value})
		pos = next
	}
	return fields, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
