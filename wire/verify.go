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
	"fmt"
	"strconv"

	"github.com/coinbase/fixengine/message"
)

// VerifyFraming recomputes BodyLength(9) and CheckSum(10) over raw (one
// complete message, as returned by NextMessage) and reports a mismatch.
// raw must begin with BeginString(8) followed by BodyLength(9). Package
// session does not call it: Session.Next parses without a framing check.
func VerifyFraming(raw []byte) error {
	fields, err := Tokenize(raw)
	if err != nil {
		return err
	}
	if len(fields) < 3 {
		return fmt.Errorf("wire: message too short to frame-check")
	}

	declaredChecksum, ok := lastFieldValue(fields, 10)
	if !ok {
		return fmt.Errorf("wire: missing CheckSum(10)")
	}

	checksumFieldStart := len(raw) - len("10="+declaredChecksum+"\x01")
	if checksumFieldStart < 0 {
		return fmt.Errorf("wire: malformed CheckSum(10) framing")
	}
	if fields[0].Tag != message.TagBeginString || fields[1].Tag != message.TagBodyLength {
		return fmt.Errorf("wire: message must begin with BeginString(8) and BodyLength(9)")
	}
	bodyStart := len("8=" + fields[0].Value + "\x019=" + fields[1].Value + "\x01")
	declaredLen, err := strconv.Atoi(fields[1].Value)
	if err != nil {
		return fmt.Errorf("wire: malformed BodyLength(9) value %q: %w", fields[1].Value, err)
	}
	if got := checksumFieldStart - bodyStart; got != declaredLen {
		return fmt.Errorf("wire: BodyLength mismatch: computed %d, message claims %d", got, declaredLen)
	}
	gotChecksum := CheckSum(raw[:checksumFieldStart])
	wantChecksum, err := atoiChecksum(declaredChecksum)
	if err != nil {
		return fmt.Errorf("wire: malformed CheckSum(10) value %q: %w", declaredChecksum, err)
	}
	if gotChecksum != wantChecksum {
		return fmt.Errorf("wire: CheckSum mismatch: computed %03d, message claims %s", gotChecksum, declaredChecksum)
	}

	return nil
}

func lastFieldValue(fields []message.Field, tag int) (string, bool) {
	for i := len(fields) - 1; i >= 0; i-- {
		if int(fields[i].Tag) == tag {
			return fields[i].Value, true
		}
	}
	return "", false
}

func atoiChecksum(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit %q", c)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
