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

// Package schedule decides whether a given UTC instant lies inside a
// session's connection window, and exposes the auto-connect/reconnect/
// EOD/disconnect policy bits that ride along with a schedule descriptor.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
	msPerWeek   = 7 * msPerDay
)

// timeOfDay is a UTC wall-clock time within a day, in milliseconds.
type timeOfDay int64

// ConfigError is raised when a descriptor string fails to parse. It is a
// configuration-time error only; Schedule.InRange never returns one.
type ConfigError struct {
	Descriptor string
	Reason     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("schedule: invalid descriptor %q: %s", e.Descriptor, e.Reason)
}

// Schedule decides session-time windows and carries the auto-* policy
// bits that travel with a schedule descriptor.
type Schedule struct {
	weekly bool // true = "W", false = "D"
	days   []int // weekday integers 0-6, ascending
	start  timeOfDay
	end    timeOfDay
	reverse bool // end < start

	autoEOD         bool
	autoReconnect   bool
	reconnectSecs   int
	autoConnect     bool
	autoDisconnect  bool

	// null reports a Schedule that is always out of range with every
	// policy bit false.
	null bool
}

// Null returns a schedule that is always out of range, with every auto-*
// policy bit false.
func Null() *Schedule {
	return &Schedule{null: true}
}

// Parse parses a 9-element pipe-delimited descriptor:
//
//	W|D|days|start|end|AutoEOD|AutoReconnect|interval|AutoConnect|AutoDisconnect
//
// NOTE: the element numbering in the prose (1..9) counts the W/D token as
// element 1; Parse below indexes the split slice 0-based.
func Parse(descriptor string) (*Schedule, error) {
	parts := strings.Split(descriptor, "|")
	if len(parts) != 9 {
		return nil, &ConfigError{descriptor, fmt.Sprintf("expected 9 elements, got %d", len(parts))}
	}

	s := &Schedule{}
	switch parts[0] {
	case "W":
		s.weekly = true
	case "D":
		s.weekly = false
	default:
		return nil, &ConfigError{descriptor, "element 1 must be W or D"}
	}

	days, err := parseDays(parts[1])
	if err != nil {
		return nil, &ConfigError{descriptor, err.Error()}
	}
	if s.weekly && len(days) == 0 {
		return nil, &ConfigError{descriptor, "weekly schedule requires at least one day"}
	}
	s.days = days

	start, err := parseTimeOfDay(parts[2])
	if err != nil {
		return nil, &ConfigError{descriptor, "start: " + err.Error()}
	}
	end, err := parseTimeOfDay(parts[3])
	if err != nil {
		return nil, &ConfigError{descriptor, "end: " + err.Error()}
	}
	s.start = start
	s.end = end
	s.reverse = end < start

	if s.reverse && len(s.days) == 0 {
		return nil, &ConfigError{descriptor, "reverse schedule requires at least one day"}
	}

	autoEOD, err := parseToggle(parts[4], "AutoEOD", "NoAutoEOD")
	if err != nil {
		return nil, &ConfigError{descriptor, err.Error()}
	}
	s.autoEOD = autoEOD

	autoReconnect, err := parseToggle(parts[5], "AutoReconnect", "NoAutoReconnect")
	if err != nil {
		return nil, &ConfigError{descriptor, err.Error()}
	}
	s.autoReconnect = autoReconnect

	interval, err := strconv.Atoi(parts[6])
	if err != nil || interval < 0 {
		return nil, &ConfigError{descriptor, "element 7 must be a non-negative integer"}
	}
	s.reconnectSecs = interval

	autoConnect, err := parseToggle(parts[7], "AutoConnect", "NoAutoConnect")
	if err != nil {
		return nil, &ConfigError{descriptor, err.Error()}
	}
	s.autoConnect = autoConnect

	autoDisconnect, err := parseToggle(parts[8], "AutoDisconnect", "NoAutoDisconnect")
	if err != nil {
		return nil, &ConfigError{descriptor, err.Error()}
	}
	s.autoDisconnect = autoDisconnect

	return s, nil
}

func parseDays(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var days []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", tok)
		}
		days = append(days, n)
	}
	sort.Ints(days)
	return days, nil
}

// parseTimeOfDay accepts "HH:MM" (padded with ":00") or "HH:MM:SS".
func parseTimeOfDay(s string) (timeOfDay, error) {
	if len(s) == 5 {
		s += ":00"
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	ms := int64(t.Hour())*msPerHour + int64(t.Minute())*msPerMinute + int64(t.Second())*msPerSecond
	return timeOfDay(ms), nil
}

func parseToggle(s, yes, no string) (bool, error) {
	switch s {
	case yes:
		return true, nil
	case no:
		return false, nil
	default:
		return false, fmt.Errorf("expected %q or %q, got %q", yes, no, s)
	}
}

// ShouldAutoEOD, ShouldAutoReconnect, ShouldAutoConnect, ShouldAutoDisconnect
// and ReconnectInterval expose the policy bits carried by the descriptor.
func (s *Schedule) ShouldAutoEOD() bool {
	return !s.null && s.autoEOD
}
func (s *Schedule) ShouldAutoReconnect() bool {
	return !s.null && s.autoReconnect
}
func (s *Schedule) ShouldAutoConnect() bool {
	return !s.null && s.autoConnect
}
func (s *Schedule) ShouldAutoDisconnect() bool {
	return !s.null && s.autoDisconnect
}
func (s *Schedule) ReconnectInterval() time.Duration {
	if s.null {
		return 0
	}
	return time.Duration(s.reconnectSecs) * time.Second
}

// weeklyMillis converts a UTC instant to "weekly milliseconds": milliseconds
// since the most recent Sunday 00:00:00 UTC (weekday 0), computed as
// (weekday*86400 + H*3600 + M*60 + S)*1000 + ms with time.Weekday()'s own
// 0=Sunday numbering; the (weekday-1) form of the same rule applies only to
// a 1-based weekday where Sunday is 1.
func weeklyMillis(t time.Time) int64 {
	t = t.UTC()
	weekday := int64(t.Weekday())
	return weekday*msPerDay + int64(t.Hour())*msPerHour + int64(t.Minute())*msPerMinute +
		int64(t.Second())*msPerSecond + int64(t.Nanosecond())/1_000_000
}

// InRange reports whether now lies inside the session-time window.
func (s *Schedule) InRange(now time.Time) bool {
	if s.null {
		return false
	}
	wm := weeklyMillis(now)

	if s.weekly {
		min := int64(s.days[0])*msPerDay + int64(s.start)
		max := int64(s.days[len(s.days)-1])*msPerDay + int64(s.end)
		if !s.reverse {
			return wm >= min && wm <= max
		}
		return wm <= min || wm >= max
	}

	for _, d := range s.days {
		dayStart := int64(d) * msPerDay
		if !s.reverse {
			lo := dayStart + int64(s.start)
			hi := dayStart + int64(s.end)
			if wm >= lo && wm <= hi {
				return true
			}
			continue
		}
		lo := dayStart + int64(s.start)
		hi := dayStart + msPerDay + int64(s.end)
		// hi may exceed one week (Saturday + crossing into next Sunday);
		// normalize both wm and wm+msPerWeek against the window so the
		// wrap is transparent to the comparison.
		if (wm >= lo && wm <= hi) || (wm+msPerWeek >= lo && wm+msPerWeek <= hi) {
			return true
		}
	}
	return false
}
