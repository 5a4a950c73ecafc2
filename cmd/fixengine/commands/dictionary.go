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

	"github.com/spf13/cobra"

	"github.com/coinbase/fixengine/datadictionary"
)

func dictionaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Inspect and validate FIX data dictionaries",
	}
	cmd.AddCommand(dictionaryValidateCmd())
	return cmd
}

func dictionaryValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <xml-path>",
		Short: "Load a data dictionary XML file and report its version and declared field count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dd, err := datadictionary.LoadXML(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", dd.Version.Raw)
			fmt.Fprintf(cmd.OutOrStdout(), "fields declared: %d\n", len(dd.OrderedFields()))
			return nil
		},
	}
}
