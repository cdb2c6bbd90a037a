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
	"context"

	"github.com/openziti/fabstatus/kernel/engine"
	"github.com/openziti/fabstatus/kernel/loader"
	"github.com/openziti/fabstatus/kernel/mcp"
	"github.com/openziti/fabstatus/kernel/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewMCPServerCommand())
}

func NewMCPServerCommand() *cobra.Command {
	mcpCmd := &MCPServerCommand{}

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start an MCP server that reports and aggregates resource states",
		Long: `Start an MCP (Model Context Protocol) server on stdio backed by a live
status aggregator for the resources in a scenario file.

The server provides tools for:
  - set_state: Report a state change for a resource
  - get_status: Get the current snapshot of a resource
  - list_children: List monitored parents and their children

And resources:
  - fabstatus://status: Current snapshot of every resource`,
		RunE: mcpCmd.run,
	}

	cmd.Flags().StringVarP(&mcpCmd.ConfigPath, "config", "c", "", "path to YAML scenario file")
	cmd.Flags().StringSliceVar(&mcpCmd.Monitor, "monitor", nil, "additional parent types to monitor")
	cmd.Flags().StringVar(&mcpCmd.StateFile, "state-file", "", "JSON snapshot file to seed from and save to on exit")
	cmd.MarkFlagRequired("config")

	return cmd
}

type MCPServerCommand struct {
	ConfigPath string
	Monitor    []string
	StateFile  string
}

func (m *MCPServerCommand) run(cmd *cobra.Command, args []string) error {
	scenario, err := loader.LoadScenario(m.ConfigPath)
	if err != nil {
		return err
	}

	var snapshots store.SnapshotStore
	var fileStore *store.FileStore
	if m.StateFile != "" {
		if fileStore, err = store.NewFileStore(m.StateFile); err != nil {
			return err
		}
		snapshots = fileStore
	} else {
		logrus.Info("using in-memory store")
		snapshots = store.NewMemoryStore()
	}
	store.Seed(snapshots, scenario.Initial)

	a := engine.NewAggregator(scenario.Graph, snapshots, snapshots,
		engine.WithMonitoredType(scenario.Monitor...),
		engine.WithMonitoredType(m.Monitor...),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sub := snapshots.Subscribe(ctx)
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx, sub.Channel(ctx))
	}()

	for _, ev := range scenario.Events {
		snapshots.Set(ev.Resource, ev.Snapshot)
	}

	logrus.Info("starting MCP server on stdio...")
	serveErr := mcp.NewStatusMCPServer(snapshots, a).ServeStdio()

	cancel()
	if err := <-done; err != nil {
		logrus.WithError(err).Warn("aggregator stopped with error")
	}
	if fileStore != nil {
		if err := fileStore.Save(); err != nil {
			logrus.WithError(err).Error("failed to save snapshots")
		}
	}
	return serveErr
}
