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
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coinbase/fixengine/config"
	"github.com/coinbase/fixengine/fixlog"
	"github.com/coinbase/fixengine/message"
	"github.com/coinbase/fixengine/session"
	"github.com/coinbase/fixengine/store"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run FIX sessions from a settings file",
	}
	cmd.AddCommand(sessionRunCmd())
	return cmd
}

func sessionRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <settings-file>",
		Short: "Connect every session in a settings file over TCP and log session-level events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(args[0])
		},
	}
}

func runSessions(settingsPath string) error {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	registry := session.NewRegistry()
	factory := session.NewFactory(registry, fixlog.NewFactory(logger))

	ids := settings.SessionIDs()
	if len(ids) == 0 {
		return fmt.Errorf("settings file declares no sessions")
	}

	errc := make(chan error, len(ids))
	for _, id := range ids {
		dict, err := settings.Get(id)
		if err != nil {
			return err
		}
		go func(id message.SessionID, dict config.Dict) {
			errc <- runOneSession(factory, id, dict)
		}(id, dict)
	}
	return <-errc
}

func runOneSession(factory *session.Factory, id message.SessionID, dict config.Dict) error {
	newStore := func(message.SessionID) (store.MessageStore, error) {
		if path := dict.StringOr("SQLiteStorePath", ""); path != "" {
			return store.NewSQLiteMessageStore(path, id.String())
		}
		return store.NewMemoryMessageStore(), nil
	}

	s, err := factory.CreateSession(id, dict, newStore, logApplication{})
	if err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}

	conn, err := connectTransport(dict)
	if err != nil {
		return fmt.Errorf("connect %s: %w", id, err)
	}
	defer conn.Close()

	s.SetResponder(&connResponder{conn: conn})
	if err := s.Connect(time.Now()); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			_ = s.Tick(time.Now())
		}
	}()

	return readLoop(conn, func(raw []byte) error {
		return s.Next(raw, time.Now())
	})
}

// connectTransport dials SocketConnectHost:SocketConnectPort for an
// initiator, or listens once on SocketAcceptPort for an acceptor -- the
// simplest possible net.Conn establishment for this smoke-test CLI.
func connectTransport(dict config.Dict) (net.Conn, error) {
	if dict.StringOr("ConnectionType", "initiator") == "acceptor" {
		port := dict.StringOr("SocketAcceptPort", "")
		if port == "" {
			return nil, fmt.Errorf("acceptor session missing SocketAcceptPort")
		}
		ln, err := net.Listen("tcp", ":"+port)
		if err != nil {
			return nil, err
		}
		defer ln.Close()
		return ln.Accept()
	}

	host := dict.StringOr("SocketConnectHost", "127.0.0.1")
	port := dict.StringOr("SocketConnectPort", "")
	if port == "" {
		return nil, fmt.Errorf("initiator session missing SocketConnectPort")
	}
	return net.Dial("tcp", host+":"+port)
}
