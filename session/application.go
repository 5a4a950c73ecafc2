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
	"errors"

	"github.com/coinbase/fixengine/message"
)

// Application is the user-supplied callback surface, the same seven-method
// shape quickfix's Application interface exposes.
type Application interface {
	OnCreate(id message.SessionID)
	OnLogon(id message.SessionID)
	OnLogout(id message.SessionID)
	ToAdmin(msg *message.Message, id message.SessionID)
	FromAdmin(msg *message.Message, id message.SessionID) error
	ToApp(msg *message.Message, id message.SessionID) error
	FromApp(msg *message.Message, id message.SessionID) error
}

// ErrDoNotSend is returned by Application.ToApp to silently drop an
// outbound application message.
var ErrDoNotSend = errors.New("session: application vetoed send")

// Responder is the byte-transport collaborator a Session borrows to
// transmit framed messages and tear down the connection.
type Responder interface {
	Send(raw []byte) error
	Disconnect() error
}
