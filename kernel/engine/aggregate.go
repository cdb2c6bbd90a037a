package engine

import "github.com/openziti/fabstatus/kernel/model"

// Aggregate derives a parent's snapshot from its children's snapshots. The result depends only on the
// multiset of non-empty labels and the children's exit codes, never on order. It returns false when no
// child carries a state yet, meaning nothing should be published.
//
// Precedence, first match wins:
//
//	any FailedToStart, RuntimeUnhealthy or Exited  -> FailedToStart / error
//	any Stopping                                   -> Stopping / info
//	any Running                                    -> Running / success
//	any Starting, Waiting or NotStarted            -> NotStarted or Waiting when unanimous, else Starting / info
//	all Finished                                   -> Finished / success, error if exit code > 0
//	all Active                                     -> Active / success, error if exit code > 0
//	anything else                                  -> Degraded / warning
func Aggregate(children []model.Snapshot) (model.Snapshot, bool) {
	counts := make(map[model.State]int, len(children))
	voters := 0
	var exitCode *int

	for _, child := range children {
		if child.ExitCode != nil && (exitCode == nil || *child.ExitCode > *exitCode) {
			exitCode = child.ExitCode
		}
		if !child.HasState() {
			continue
		}
		counts[child.State]++
		voters++
	}
	if voters == 0 {
		return model.Snapshot{}, false
	}

	hasAny := func(states ...model.State) bool {
		for _, s := range states {
			if counts[s] > 0 {
				return true
			}
		}
		return false
	}
	allAre := func(s model.State) bool {
		return counts[s] == voters
	}

	var state model.State
	var style model.Style
	switch {
	case hasAny(model.FailedToStart, model.RuntimeUnhealthy, model.Exited):
		state, style = model.FailedToStart, model.StyleError
	case hasAny(model.Stopping):
		state, style = model.Stopping, model.StyleInfo
	case hasAny(model.Running):
		state, style = model.Running, model.StyleSuccess
	case hasAny(model.Starting, model.Waiting, model.NotStarted):
		switch {
		case allAre(model.NotStarted):
			state = model.NotStarted
		case allAre(model.Waiting):
			state = model.Waiting
		default:
			state = model.Starting
		}
		style = model.StyleInfo
	case allAre(model.Finished):
		state = model.Finished
	case allAre(model.Active):
		state = model.Active
	default:
		state, style = model.Degraded, model.StyleWarning
	}

	result := model.NewSnapshot(state, style).WithExitCode(exitCode)
	if result.Style == "" {
		result.Style = exitStyle(result.ExitCodeOrZero())
	}
	return result, true
}

// exitStyle styles a terminal aggregate; a missing exit code counts as zero.
func exitStyle(exitCode int) model.Style {
	if exitCode > 0 {
		return model.StyleError
	}
	return model.StyleSuccess
}
