package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/openziti/fabstatus/kernel/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type ScenarioYaml struct {
	Monitor   []string       `yaml:"monitor"`
	Resources []ResourceYaml `yaml:"resources"`
	Initial   []EventYaml    `yaml:"initial"`
	Events    []EventYaml    `yaml:"events"`
}

type ResourceYaml struct {
	Name          string             `yaml:"name"`
	Type          string             `yaml:"type"`
	Parent        string             `yaml:"parent"`
	Relationships []RelationshipYaml `yaml:"relationships"`
}

type RelationshipYaml struct {
	Type   string `yaml:"type"`
	Target string `yaml:"target"`
}

type EventYaml struct {
	Resource   string            `yaml:"resource"`
	State      string            `yaml:"state"`
	Style      string            `yaml:"style"`
	ExitCode   *int              `yaml:"exitCode"`
	Properties map[string]string `yaml:"properties"`
}

// Scenario is a resource graph plus the state changes to replay against it.
type Scenario struct {
	Monitor []string
	Graph   *model.Graph
	Initial []model.Event
	Events  []model.Event
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scenario [%s]", path)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var doc ScenarioYaml
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse scenario")
	}

	result := Validate(&doc)
	if !result.IsValid() {
		return nil, result
	}

	graph := model.NewGraph()
	for _, r := range doc.Resources {
		graph.Add(&model.Resource{Name: model.Identity(r.Name), Type: r.Type})
	}
	for i, r := range doc.Resources {
		node := graph.Resources[i]
		if r.Parent != "" {
			node.Parent = graph.Find(model.Identity(r.Parent))
		}
		for _, rel := range r.Relationships {
			node.Relate(rel.Type, graph.Find(model.Identity(rel.Target)))
		}
	}

	initial, err := toEvents(doc.Initial)
	if err != nil {
		return nil, err
	}
	events, err := toEvents(doc.Events)
	if err != nil {
		return nil, err
	}

	return &Scenario{
		Monitor: doc.Monitor,
		Graph:   graph,
		Initial: initial,
		Events:  events,
	}, nil
}

func toEvents(in []EventYaml) ([]model.Event, error) {
	events := make([]model.Event, 0, len(in))
	for _, e := range in {
		s, err := e.snapshot()
		if err != nil {
			return nil, err
		}
		events = append(events, model.Event{Resource: model.Identity(e.Resource), Snapshot: s})
	}
	return events, nil
}

func (e EventYaml) snapshot() (model.Snapshot, error) {
	state, err := model.ParseState(e.State)
	if err != nil {
		return model.Snapshot{}, err
	}
	style, err := model.ParseStyle(e.Style)
	if err != nil {
		return model.Snapshot{}, err
	}
	s := model.NewSnapshot(state, style).WithExitCode(e.ExitCode)
	for k, v := range e.Properties {
		s = s.WithProperty(k, v)
	}
	return s, nil
}

// ValidationIssue points at the offending element of a scenario.
type ValidationIssue struct {
	Path    string
	Message string
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return fmt.Sprintf("invalid scenario: %s", strings.Join(msgs, "; "))
}

func (r *ValidationResult) errorf(path, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(path, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateScenarioBytes parses YAML and reports every problem found rather than stopping at the first.
func ValidateScenarioBytes(data []byte) (*ValidationResult, error) {
	var doc ScenarioYaml
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse scenario")
	}
	return Validate(&doc), nil
}

func Validate(doc *ScenarioYaml) *ValidationResult {
	result := &ValidationResult{}

	if len(doc.Resources) == 0 {
		result.warnf("resources", "no resources defined")
	}

	names := make(map[string]bool)
	for i, r := range doc.Resources {
		path := fmt.Sprintf("resources[%d]", i)
		if r.Name == "" {
			result.errorf(path+".name", "resource name is required")
			continue
		}
		key := model.Identity(r.Name).Key()
		if names[key] {
			result.warnf(path+".name", "duplicate resource name '%s'", r.Name)
		}
		names[key] = true
	}

	monitored := model.NewTypeRegistry(doc.Monitor...)
	hasMonitored := false
	for i, r := range doc.Resources {
		path := fmt.Sprintf("resources[%d]", i)
		if monitored.IsMonitored(r.Type) {
			hasMonitored = true
		}
		if r.Parent != "" && !names[model.Identity(r.Parent).Key()] {
			result.errorf(path+".parent", "unknown parent '%s'", r.Parent)
		}
		for j, rel := range r.Relationships {
			relPath := fmt.Sprintf("%s.relationships[%d]", path, j)
			if rel.Type == "" {
				result.errorf(relPath+".type", "relationship type is required")
			}
			if !names[model.Identity(rel.Target).Key()] {
				result.errorf(relPath+".target", "unknown target '%s'", rel.Target)
			}
		}
	}
	if len(doc.Resources) > 0 && !hasMonitored {
		result.warnf("monitor", "no resource has a monitored type %v", monitored.Types())
	}
	validateParentCycles(result, doc.Resources)

	validateEvents(result, "initial", doc.Initial, names)
	validateEvents(result, "events", doc.Events, names)

	return result
}

// parentRef locates the declaration that gives a resource its effective parent: the structural parent
// when set, otherwise the last Parent relationship.
func parentRef(i int, r ResourceYaml) (string, string) {
	path := fmt.Sprintf("resources[%d]", i)
	if r.Parent != "" {
		return r.Parent, path + ".parent"
	}
	target, targetPath := "", ""
	for j, rel := range r.Relationships {
		if rel.Type == model.ParentRelationship && rel.Target != "" {
			target, targetPath = rel.Target, fmt.Sprintf("%s.relationships[%d].target", path, j)
		}
	}
	return target, targetPath
}

// validateParentCycles rejects parent chains that loop back on themselves. Edges are keyed by name, since
// events are routed by name and every resource sharing a name feeds the same parents.
func validateParentCycles(result *ValidationResult, resources []ResourceYaml) {
	edges := make(map[string][]string)
	for i, r := range resources {
		if r.Name == "" {
			continue
		}
		if parent, _ := parentRef(i, r); parent != "" {
			key := model.Identity(r.Name).Key()
			edges[key] = append(edges[key], model.Identity(parent).Key())
		}
	}

	reaches := func(from, to string) bool {
		visited := map[string]bool{}
		pending := []string{from}
		for len(pending) > 0 {
			cur := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			if cur == to {
				return true
			}
			if visited[cur] {
				continue
			}
			visited[cur] = true
			pending = append(pending, edges[cur]...)
		}
		return false
	}

	for i, r := range resources {
		if r.Name == "" {
			continue
		}
		parent, path := parentRef(i, r)
		if parent == "" {
			continue
		}
		if reaches(model.Identity(parent).Key(), model.Identity(r.Name).Key()) {
			result.errorf(path, "parent chain of '%s' loops back to itself through '%s'", r.Name, parent)
		}
	}
}

func validateEvents(result *ValidationResult, section string, events []EventYaml, names map[string]bool) {
	for i, e := range events {
		path := fmt.Sprintf("%s[%d]", section, i)
		if e.Resource == "" {
			result.errorf(path+".resource", "resource is required")
		} else if !names[model.Identity(e.Resource).Key()] {
			result.warnf(path+".resource", "resource '%s' is not in the graph", e.Resource)
		}
		if _, err := model.ParseState(e.State); err != nil {
			result.errorf(path+".state", "%v", err)
		}
		if _, err := model.ParseStyle(e.Style); err != nil {
			result.errorf(path+".style", "%v", err)
		}
	}
}
