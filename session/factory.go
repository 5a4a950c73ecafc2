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

package session

import (
	"fmt"
	"time"

	"github.com/coinbase/fixengine/config"
	"github.com/coinbase/fixengine/datadictionary"
	"github.com/coinbase/fixengine/fixlog"
	"github.com/coinbase/fixengine/message"
	"github.com/coinbase/fixengine/schedule"
	"github.com/coinbase/fixengine/sessionstate"
	"github.com/coinbase/fixengine/store"
	"github.com/coinbase/fixengine/validationrules"
)

// Factory constructs Sessions from config.Dict settings, caching loaded
// dictionaries by file path so multiple sessions sharing the same
// DataDictionary XML do not reparse it.
type Factory struct {
	Registry *Registry
	LogFactory *fixlog.Factory

	dictCache map[string]*datadictionary.DataDictionary
}

// NewFactory returns a Factory that registers sessions into registry and
// logs through logFactory.
func NewFactory(registry *Registry, logFactory *fixlog.Factory) *Factory {
	return &Factory{
		Registry:   registry,
		LogFactory: logFactory,
		dictCache:  make(map[string]*datadictionary.DataDictionary),
	}
}

func (f *Factory) loadDictionary(path string) (*datadictionary.DataDictionary, error) {
	if dd, ok := f.dictCache[path]; ok {
		return dd.Clone(), nil
	}
	dd, err := datadictionary.LoadXML(path)
	if err != nil {
		return nil, err
	}
	f.dictCache[path] = dd
	return dd.Clone(), nil
}

// CreateSession builds a *Session for id from settings, constructing its
// MessageStore via newStore and wiring app as the application callback
// surface.
func (f *Factory) CreateSession(id message.SessionID, settings config.Dict, newStore func(message.SessionID) (store.MessageStore, error), app Application) (*Session, error) {
	connType := settings.StringOr("ConnectionType", "initiator")
	if connType != "initiator" && connType != "acceptor" {
		return nil, fmt.Errorf("session: invalid ConnectionType %q", connType)
	}

	sessionDDPath := settings.StringOr("TransportDataDictionary", settings.StringOr("DataDictionary", ""))
	var sessionDD *datadictionary.DataDictionary
	if sessionDDPath != "" {
		dd, err := f.loadDictionary(sessionDDPath)
		if err != nil {
			return nil, fmt.Errorf("session: load session dictionary: %w", err)
		}
		sessionDD = dd
	} else {
		v, err := message.ParseVersion(id.BeginString)
		if err != nil {
			return nil, fmt.Errorf("session: no DataDictionary configured and BeginString unparseable: %w", err)
		}
		sessionDD = datadictionary.New(v)
	}

	var appDD *datadictionary.DataDictionary
	defaultApplVerID := settings.StringOr("DefaultApplVerID", "")
	if id.IsFIXT() {
		appKey := "AppDataDictionary"
		if defaultApplVerID != "" {
			appKey = "AppDataDictionary." + defaultApplVerID
		}
		if path := settings.StringOr(appKey, ""); path != "" {
			dd, err := f.loadDictionary(path)
			if err != nil {
				return nil, fmt.Errorf("session: load app dictionary: %w", err)
			}
			appDD = dd
		}
	}

	rules := validationrules.New()
	rules.Validate = settings.BoolOr("Validate", true)
	rules.ValidateBounds = settings.BoolOr("ValidateBounds", true)
	rules.ValidateLength = settings.BoolOr("ValidateLengthAndChecksum", true)
	rules.ValidateChecksum = settings.BoolOr("ValidateLengthAndChecksum", true)
	rules.ValidateFieldsOutOfOrder = settings.BoolOr("ValidateFieldsOutOfOrder", true)
	rules.ValidateFieldsHaveValues = settings.BoolOr("ValidateFieldsHaveValues", true)
	rules.ValidateUserDefinedFields = settings.BoolOr("ValidateUserDefinedFields", true)
	if descriptor := settings.StringOr("AllowedFields", ""); descriptor != "" {
		if err := rules.SetAllowedFields(descriptor); err != nil {
			return nil, fmt.Errorf("session: AllowedFields: %w", err)
		}
	}
	if descriptor := settings.StringOr("ValidationRules", ""); descriptor != "" {
		if err := rules.SetValidationRules(descriptor); err != nil {
			return nil, fmt.Errorf("session: ValidationRules: %w", err)
		}
	}

	st, err := newStore(id)
	if err != nil {
		return nil, fmt.Errorf("session: create store: %w", err)
	}
	state := sessionstate.New(st, connType == "initiator")

	cfg := Config{
		ID:                          id,
		Initiate:                    connType == "initiator",
		SessionDD:                   sessionDD,
		AppDD:                       appDD,
		DefaultApplVerID:            defaultApplVerID,
		Rules:                       rules,
		HeartBtInt:                  time.Duration(settings.IntOr("HeartBtInt", 30)) * time.Second,
		LogonTimeout:                time.Duration(settings.IntOr("LogonTimeout", 10)) * time.Second,
		LogoutTimeout:               time.Duration(settings.IntOr("LogoutTimeout", 2)) * time.Second,
		CheckLatency:                settings.BoolOr("CheckLatency", true),
		MaxLatency:                  time.Duration(settings.IntOr("MaxLatency", 120)) * time.Second,
		CheckCompID:                 settings.BoolOr("CheckCompID", true),
		ResetOnLogon:                settings.BoolOr("ResetOnLogon", false),
		ResetOnLogout:               settings.BoolOr("ResetOnLogout", false),
		MillisecondsInTimeStamp:     settings.BoolOr("MillisecondsInTimeStamp", true),
		PersistMessages:             settings.BoolOr("PersistMessages", true),
		SendRedundantResendRequests: settings.BoolOr("SendRedundantResendRequests", false),
	}

	var log fixlog.Log = fixlog.Nop
	if f.LogFactory != nil {
		log = f.LogFactory.ForSession(id.String())
	}

	s := New(cfg, state, app, log, f.Registry)

	if descriptor := settings.StringOr("Schedule", ""); descriptor != "" {
		sched, err := schedule.Parse(descriptor)
		if err != nil {
			return nil, fmt.Errorf("session: Schedule: %w", err)
		}
		s.SetSchedule(sched)
	}

	return s, nil
}
