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

// fixengine is a thin driver exposing the session/dictionary/schedule core
// through a cobra command tree: validate a data dictionary, check a
// schedule descriptor against an instant, and run a session against a
// settings file over a bare net.Conn responder.
package main

import "github.com/coinbase/fixengine/cmd/fixengine/commands"

func main() {
	commands.Execute()
}
