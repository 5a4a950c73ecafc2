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

package commands

import (
	"fmt"

	"github.com/coinbase/fixengine/message"
)

// logApplication is the smoke-test Application callback surface the
// `session run` command wires in: it accepts everything and logs each
// callback to stdout, standing in for a real user-supplied trading
// application.
type logApplication struct{}

func (logApplication) OnCreate(id message.SessionID) {
	fmt.Printf("onCreate %s\n", id)
}

func (logApplication) OnLogon(id message.SessionID) {
	fmt.Printf("onLogon %s\n", id)
}

func (logApplication) OnLogout(id message.SessionID) {
	fmt.Printf("onLogout %s\n", id)
}

func (logApplication) ToAdmin(msg *message.Message, id message.SessionID) {}

func (logApplication) FromAdmin(msg *message.Message, id message.SessionID) error { return nil }

func (logApplication) ToApp(msg *message.Message, id message.SessionID) error { return nil }

func (logApplication) FromApp(msg *message.Message, id message.SessionID) error {
	msgType, _ := msg.MsgType()
	fmt.Printf("fromApp %s msgType=%s\n", id, msgType)
	return nil
}
