package model

import "fmt"

// State is a resource state label.
type State string

const (
	NotStarted       State = "NotStarted"
	Waiting          State = "Waiting"
	Starting         State = "Starting"
	Running          State = "Running"
	Stopping         State = "Stopping"
	Exited           State = "Exited"
	FailedToStart    State = "FailedToStart"
	RuntimeUnhealthy State = "RuntimeUnhealthy"
	Finished         State = "Finished"
	Active           State = "Active"

	// Degraded is only ever produced by aggregation.
	Degraded State = "Degraded"
)

var knownStates = map[State]struct{}{
	NotStarted: {}, Waiting: {}, Starting: {}, Running: {}, Stopping: {}, Exited: {},
	FailedToStart: {}, RuntimeUnhealthy: {}, Finished: {}, Active: {}, Degraded: {},
}

func (s State) IsKnown() bool {
	_, ok := knownStates[s]
	return ok
}

// ParseState accepts any label of the fixed vocabulary. The empty label is valid and means "no state yet".
func ParseState(v string) (State, error) {
	s := State(v)
	if v != "" && !s.IsKnown() {
		return "", fmt.Errorf("unknown state label '%s'", v)
	}
	return s, nil
}

// Style is the display style attached to a state.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
)

func ParseStyle(v string) (Style, error) {
	switch s := Style(v); s {
	case "", StyleInfo, StyleSuccess, StyleWarning, StyleError:
		return s, nil
	default:
		return "", fmt.Errorf("unknown style '%s'", v)
	}
}

// Snapshot is an immutable view of a resource's state. Use the With* methods to derive new values;
// never modify Properties in place.
type Snapshot struct {
	State      State             `json:"state"`
	Style      Style             `json:"style,omitempty"`
	ExitCode   *int              `json:"exitCode,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

func NewSnapshot(state State, style Style) Snapshot {
	return Snapshot{State: state, Style: style}
}

func (s Snapshot) WithState(state State, style Style) Snapshot {
	s.State = state
	s.Style = style
	return s
}

func (s Snapshot) WithExitCode(code *int) Snapshot {
	if code != nil {
		c := *code
		code = &c
	}
	s.ExitCode = code
	return s
}

func (s Snapshot) WithProperty(key, value string) Snapshot {
	props := make(map[string]string, len(s.Properties)+1)
	for k, v := range s.Properties {
		props[k] = v
	}
	props[key] = value
	s.Properties = props
	return s
}

// HasState reports whether the snapshot carries a non-empty label.
func (s Snapshot) HasState() bool {
	return s.State != ""
}

// SameStatus compares state, style and exit code, ignoring properties.
func (s Snapshot) SameStatus(other Snapshot) bool {
	if s.State != other.State || s.Style != other.Style {
		return false
	}
	if s.ExitCode == nil || other.ExitCode == nil {
		return s.ExitCode == nil && other.ExitCode == nil
	}
	return *s.ExitCode == *other.ExitCode
}

// ExitCodeOrZero returns the exit code, treating a missing one as zero.
func (s Snapshot) ExitCodeOrZero() int {
	if s.ExitCode == nil {
		return 0
	}
	return *s.ExitCode
}

// Event is a single state change delivered by the host.
type Event struct {
	Resource Identity
	Snapshot Snapshot
}

// Mutator derives a resource's next snapshot from its current one.
type Mutator func(current Snapshot) Snapshot

// IntPtr is a convenience for building exit codes.
func IntPtr(v int) *int {
	return &v
}
