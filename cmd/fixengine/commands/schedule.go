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
	"time"

	"github.com/spf13/cobra"

	"github.com/coinbase/fixengine/schedule"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Evaluate schedule descriptors",
	}
	cmd.AddCommand(scheduleCheckCmd())
	return cmd
}

func scheduleCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <descriptor> <RFC3339-instant>",
		Short: "Report whether an instant falls inside a schedule descriptor's window",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := schedule.Parse(args[0])
			if err != nil {
				return err
			}
			instant, err := time.Parse(time.RFC3339, args[1])
			if err != nil {
				return fmt.Errorf("parse instant: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inRange: %v\n", sched.InRange(instant))
			fmt.Fprintf(cmd.OutOrStdout(), "autoEOD: %v autoReconnect: %v autoConnect: %v autoDisconnect: %v reconnectInterval: %s\n",
				sched.ShouldAutoEOD(), sched.ShouldAutoReconnect(), sched.ShouldAutoConnect(), sched.ShouldAutoDisconnect(), sched.ReconnectInterval())
			return nil
		},
	}
}
