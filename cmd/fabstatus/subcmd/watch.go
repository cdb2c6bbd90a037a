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
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openziti/fabstatus/kernel/engine"
	"github.com/openziti/fabstatus/kernel/loader"
	"github.com/openziti/fabstatus/kernel/model"
	"github.com/openziti/fabstatus/kernel/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewWatchCommand())
}

func NewWatchCommand() *cobra.Command {
	watchCmd := &WatchCommand{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Replay a scenario's state changes and report the aggregate state of every monitored parent",
		RunE:  watchCmd.watch,
	}

	cmd.Flags().StringVarP(&watchCmd.ConfigPath, "config", "c", "", "path to YAML scenario file")
	cmd.Flags().StringSliceVar(&watchCmd.Monitor, "monitor", nil, "additional parent types to monitor")
	cmd.Flags().IntVar(&watchCmd.Concurrency, "concurrency", 1, "parents published in parallel per event")
	cmd.Flags().BoolVar(&watchCmd.SuppressUnchanged, "suppress-unchanged", false, "skip publishing unchanged aggregate states")
	cmd.Flags().StringVar(&watchCmd.StateFile, "state-file", "", "JSON snapshot file to seed from and save to")
	cmd.Flags().StringVarP(&watchCmd.Output, "output", "o", "table", "output format: table or json")
	cmd.MarkFlagRequired("config")

	return cmd
}

type WatchCommand struct {
	ConfigPath        string
	Monitor           []string
	Concurrency       int
	SuppressUnchanged bool
	StateFile         string
	Output            string
}

func (w *WatchCommand) watch(cmd *cobra.Command, args []string) error {
	if w.Output != "table" && w.Output != "json" {
		return fmt.Errorf("unsupported output format '%s'", w.Output)
	}

	scenario, err := loader.LoadScenario(w.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	var snapshots store.SnapshotStore = store.NewMemoryStore()
	var fileStore *store.FileStore
	if w.StateFile != "" {
		if fileStore, err = store.NewFileStore(w.StateFile); err != nil {
			return err
		}
		snapshots = fileStore
	}
	store.Seed(snapshots, scenario.Initial)

	a := engine.NewAggregator(scenario.Graph, snapshots, snapshots, w.options(scenario)...)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// replay one change at a time and let its roll-up (including nested groups) settle before the next
	sub := snapshots.Subscribe(ctx)
	handled := 0
	for _, ev := range scenario.Events {
		snapshots.Set(ev.Resource, ev.Snapshot)
		handled += settle(ctx, sub, a)
	}
	logrus.Infof("watch: replayed %d change(s), handled %d event(s) across %d parent(s)",
		len(scenario.Events), handled, len(a.Parents()))

	if fileStore != nil {
		if err := fileStore.Save(); err != nil {
			return err
		}
		logrus.Infof("watch: saved snapshots to '%s'", fileStore.Path)
	}

	return w.render(cmd.OutOrStdout(), a, snapshots)
}

func (w *WatchCommand) options(scenario *loader.Scenario) []engine.Option {
	opts := []engine.Option{
		engine.WithMonitoredType(scenario.Monitor...),
		engine.WithMonitoredType(w.Monitor...),
		engine.WithPublishConcurrency(w.Concurrency),
	}
	if w.SuppressUnchanged {
		opts = append(opts, engine.WithSuppressUnchanged())
	}
	return opts
}

func settle(ctx context.Context, sub *store.Subscription, a *engine.Aggregator) int {
	handled := 0
	for ctx.Err() == nil {
		ev, ok := sub.TryNext()
		if !ok {
			break
		}
		a.Handle(ctx, ev)
		handled++
	}
	return handled
}

type parentStatus struct {
	Parent   model.Identity   `json:"parent"`
	Children []model.Identity `json:"children"`
	Snapshot *model.Snapshot  `json:"snapshot,omitempty"`
}

func (w *WatchCommand) render(out io.Writer, a *engine.Aggregator, snapshots store.SnapshotStore) error {
	statuses := make([]parentStatus, 0, len(a.Parents()))
	for _, p := range a.Parents() {
		ps := parentStatus{Parent: p, Children: a.Children(p)}
		if s, found := snapshots.TryGetCurrentState(p); found {
			ps.Snapshot = &s
		}
		statuses = append(statuses, ps)
	}

	if w.Output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Parent", "Children", "State", "Style", "Exit Code"})
	for _, ps := range statuses {
		state, style, exitCode := "-", "-", "-"
		if ps.Snapshot != nil {
			state, style = string(ps.Snapshot.State), string(ps.Snapshot.Style)
			if ps.Snapshot.ExitCode != nil {
				exitCode = strconv.Itoa(*ps.Snapshot.ExitCode)
			}
		}
		t.AppendRow(table.Row{ps.Parent, len(ps.Children), state, style, exitCode})
	}
	t.Render()
	return nil
}
