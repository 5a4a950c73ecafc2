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

// Package config loads session settings (ConnectionType, SessionQualifier,
// UseDataDictionary, HeartBtInt, Schedule, ValidationRules, ...) from a
// layered settings file via github.com/spf13/viper. A settings file has
// one "default" block of global key/value pairs and a list of per-session
// blocks that override or extend it -- the same two-tier model quickfix's
// Settings/SessionSettings split implements over an INI file.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/coinbase/fixengine/message"
)

// Dict is a flat, typed view over one session's merged (default + override)
// key/value settings, modeled on quickfix's SessionSettings accessor
// surface (conf.Settings.GlobalSettings().Setting("BeginString")).
type Dict map[string]string

// HasSetting reports whether key was set (by default or override).
func (d Dict) HasSetting(key string) bool {
	_, ok := d[key]
	return ok
}

// String returns key's raw string value, or an error if unset.
func (d Dict) String(key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", fmt.Errorf("config: missing setting %q", key)
	}
	return v, nil
}

// StringOr returns key's value, or def if unset.
func (d Dict) StringOr(key, def string) string {
	if v, ok := d[key]; ok {
		return v
	}
	return def
}

// Int parses key's value as an integer.
func (d Dict) Int(key string) (int, error) {
	v, err := d.String(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: setting %q is not an integer: %w", key, err)
	}
	return n, nil
}

// IntOr parses key's value, or returns def if unset or malformed.
func (d Dict) IntOr(key string, def int) int {
	n, err := d.Int(key)
	if err != nil {
		return def
	}
	return n
}

// Bool parses key's value as a boolean ("Y"/"N" or any strconv.ParseBool
// form), the two conventions quickfix session settings files mix.
func (d Dict) Bool(key string) (bool, error) {
	v, err := d.String(key)
	if err != nil {
		return false, err
	}
	switch strings.ToUpper(v) {
	case "Y":
		return true, nil
	case "N":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: setting %q is not a boolean: %w", key, err)
	}
	return b, nil
}

// BoolOr parses key's value, or returns def if unset or malformed.
func (d Dict) BoolOr(key string, def bool) bool {
	b, err := d.Bool(key)
	if err != nil {
		return def
	}
	return b
}

// rawFile is the shape viper unmarshals a settings file into.
type rawFile struct {
	Default  map[string]string   `mapstructure:"default"`
	Sessions []map[string]string `mapstructure:"sessions"`
}

// Settings holds the global defaults plus every configured session's
// overrides, keyed by the resolved message.SessionID.
type Settings struct {
	global   Dict
	sessions map[message.SessionID]Dict
	order    []message.SessionID
}

// Load reads a settings file (YAML, TOML, JSON or INI -- whichever
// extension path carries, auto-detected by viper) at path.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var raw rawFile
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return fromRaw(raw)
}

func fromRaw(raw rawFile) (*Settings, error) {
	s := &Settings{
		global:   Dict(raw.Default),
		sessions: make(map[message.SessionID]Dict, len(raw.Sessions)),
	}
	if s.global == nil {
		s.global = Dict{}
	}

	for _, override := range raw.Sessions {
		merged := make(Dict, len(s.global)+len(override))
		for k, v := range s.global {
			merged[k] = v
		}
		for k, v := range override {
			merged[k] = v
		}

		id := message.SessionID{
			BeginString:  merged.StringOr("BeginString", ""),
			SenderCompID: merged.StringOr("SenderCompID", ""),
			TargetCompID: merged.StringOr("TargetCompID", ""),
			Qualifier:    merged.StringOr("SessionQualifier", ""),
		}
		if id.BeginString == "" || id.SenderCompID == "" || id.TargetCompID == "" {
			return nil, fmt.Errorf("config: session block missing BeginString/SenderCompID/TargetCompID: %v", override)
		}
		s.sessions[id] = merged
		s.order = append(s.order, id)
	}
	return s, nil
}

// GlobalSettings returns the unmerged default block.
func (s *Settings) GlobalSettings() Dict {
	return s.global
}

// Get returns the merged settings for id, or an error if id was never
// configured.
func (s *Settings) Get(id message.SessionID) (Dict, error) {
	d, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("config: no session configured for %s/%s->%s", id.BeginString, id.SenderCompID, id.TargetCompID)
	}
	return d, nil
}

// SessionIDs returns every configured SessionID, in file order.
func (s *Settings) SessionIDs() []message.SessionID {
	out := make([]message.SessionID, len(s.order))
	copy(out, s.order)
	return out
}
