/*
	(c) Copyright NetFoundry Inc. Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package subcmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openziti/fabstatus/kernel/loader"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewValidateCommand())
}

func NewValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario file for unknown references and state labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to read scenario: %w", err)
			}
			result, err := loader.ValidateScenarioBytes(data)
			if err != nil {
				return err
			}

			if len(result.Errors)+len(result.Warnings) > 0 {
				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"Level", "Path", "Message"})
				for _, e := range result.Errors {
					t.AppendRow(table.Row{"error", e.Path, e.Message})
				}
				for _, w := range result.Warnings {
					t.AppendRow(table.Row{"warning", w.Path, w.Message})
				}
				t.Render()
			}

			if !result.IsValid() {
				return result
			}
			logrus.Infof("validate: '%s' is valid (%d warning(s))", configPath, len(result.Warnings))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML scenario file")
	cmd.MarkFlagRequired("config")

	return cmd
}
