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
	"net"

	"github.com/coinbase/fixengine/wire"
)

// connResponder is the simplest possible net.Conn-backed session.Responder:
// this CLI driver needs only a byte pipe, not a hardened transport with
// encryption or connection management.
type connResponder struct {
	conn net.Conn
}

func (r *connResponder) Send(raw []byte) error {
	_, err := r.conn.Write(raw)
	return err
}

func (r *connResponder) Disconnect() error {
	return r.conn.Close()
}

// readLoop accumulates bytes from conn and invokes onMessage for every
// complete FIX message framed by wire.NextMessage, exiting when the
// connection closes or onMessage requests a stop.
func readLoop(conn net.Conn, onMessage func(raw []byte) error) error {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				msg, rest, ferr := wire.NextMessage(buf)
				if ferr == wire.ErrIncomplete {
					break
				}
				if ferr != nil {
					return ferr
				}
				buf = rest
				if merr := onMessage(msg); merr != nil {
					return merr
				}
			}
		}
		if err != nil {
			return err
		}
	}
}
