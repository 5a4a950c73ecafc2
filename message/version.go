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

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed BeginString. Comparing Versions by field instead of
// lexicographically comparing the raw BeginString avoids the trap where
// "FIX.4.10" would sort before "FIX.4.4" and where "FIXT.1.1" doesn't sort
// sensibly against "FIX.5.0" at all.
type Version struct {
	Family string // "FIX" or "FIXT"
	Major  int
	Minor  int
	Raw    string
}

// ParseVersion parses a BeginString such as "FIX.4.4" or "FIXT.1.1".
func ParseVersion(beginString string) (Version, error) {
	parts := strings.SplitN(beginString, ".", 3)
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("message: malformed BeginString %q", beginString)
	}
	major, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("message: malformed BeginString %q: %w", beginString, err)
	}
	minor, err := strconv.Atoi(parts[2])
	if err != nil {
		return Version{}, fmt.Errorf("message: malformed BeginString %q: %w", beginString, err)
	}
	return Version{Family: parts[0], Major: major, Minor: minor, Raw: beginString}, nil
}

// MustParseVersion panics on malformed input; used for package-level constants.
func MustParseVersion(beginString string) Version {
	v, err := ParseVersion(beginString)
	if err != nil {
		panic(err)
	}
	return v
}

// IsFIXT reports whether this version is the FIX Transport session layer,
// which carries its application version separately via DefaultApplVerID(1137).
func (v Version) IsFIXT() bool {
	return v.Family == "FIXT"
}

// Less orders versions within the same family by (major, minor). Versions
// from different families are incomparable by this ordering and Less
// returns false for both a.Less(b) and b.Less(a); callers that need to
// compare a FIXT session version against a FIX.5.x application version
// should compare ApplVerID, not BeginString.
func (v Version) Less(o Version) bool {
	if v.Family != o.Family {
		return false
	}
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// AtLeast reports whether v >= o within the same family.
func (v Version) AtLeast(o Version) bool {
	return v == o || o.Less(v)
}

func (v Version) String() string { return v.Raw }

var (
	FIX40  = MustParseVersion("FIX.4.0")
	FIX41  = MustParseVersion("FIX.4.1")
	FIX42  = MustParseVersion("FIX.4.2")
	FIX43  = MustParseVersion("FIX.4.3")
	FIX44  = MustParseVersion("FIX.4.4")
	FIXT11 = MustParseVersion("FIXT.1.1")
)
