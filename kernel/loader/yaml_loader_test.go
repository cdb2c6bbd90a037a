package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openziti/fabstatus/kernel/model"
)

const basicScenario = `
monitor:
  - group
  - compose

resources:
  - name: frontend
    type: group
  - name: web
    type: executable
    parent: frontend
  - name: cache
    type: container
    relationships:
      - type: Parent
        target: frontend
      - type: Reference
        target: web

initial:
  - resource: cache
    state: Running
    style: success

events:
  - resource: web
    state: Exited
    style: error
    exitCode: 3
    properties:
      pid: "42"
`

func TestLoadScenario_Basic(t *testing.T) {
	path := writeTempYaml(t, basicScenario)
	defer os.Remove(path)

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	if len(s.Monitor) != 2 || s.Monitor[1] != "compose" {
		t.Errorf("unexpected monitor list: %v", s.Monitor)
	}
	if len(s.Graph.Resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(s.Graph.Resources))
	}

	frontend := s.Graph.Find("frontend")
	web := s.Graph.Find("web")
	cache := s.Graph.Find("cache")
	if web.Parent != frontend {
		t.Error("web should be structurally parented to frontend")
	}
	if model.EffectiveParent(cache) != frontend {
		t.Error("cache should resolve frontend through its Parent relationship")
	}
	if len(cache.Relationships) != 2 || cache.Relationships[1].Target != web {
		t.Errorf("unexpected relationships: %+v", cache.Relationships)
	}

	if len(s.Initial) != 1 || s.Initial[0].Snapshot.State != model.Running {
		t.Errorf("unexpected initial states: %+v", s.Initial)
	}
	if len(s.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(s.Events))
	}
	ev := s.Events[0]
	if ev.Snapshot.ExitCode == nil || *ev.Snapshot.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %v", ev.Snapshot.ExitCode)
	}
	if ev.Snapshot.Properties["pid"] != "42" {
		t.Errorf("expected pid property, got %v", ev.Snapshot.Properties)
	}
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("/nonexistent/path.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestParseScenario_InvalidYAML(t *testing.T) {
	_, err := ParseScenario([]byte("invalid: yaml: content:"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestParseScenario_UnknownParent(t *testing.T) {
	_, err := ParseScenario([]byte(`
resources:
  - name: web
    type: executable
    parent: missing
`))
	if err == nil {
		t.Fatal("expected error for unknown parent")
	}
	result, ok := err.(*ValidationResult)
	if !ok {
		t.Fatalf("expected *ValidationResult, got %T", err)
	}
	if result.Errors[0].Path != "resources[0].parent" {
		t.Errorf("unexpected error path: %s", result.Errors[0].Path)
	}
}

// Validation Tests

func TestValidateScenario_Valid(t *testing.T) {
	result, err := ValidateScenarioBytes([]byte(basicScenario))
	if err != nil {
		t.Fatalf("ValidateScenarioBytes failed: %v", err)
	}
	if !result.IsValid() {
		t.Errorf("expected valid scenario, got errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateScenario_MissingName(t *testing.T) {
	result, err := ValidateScenarioBytes([]byte(`
resources:
  - type: group
`))
	if err != nil {
		t.Fatalf("ValidateScenarioBytes failed: %v", err)
	}
	if result.IsValid() {
		t.Error("expected validation errors for missing name")
	}
	if result.Errors[0].Path != "resources[0].name" {
		t.Errorf("expected error for resources[0].name, got %s", result.Errors[0].Path)
	}
}

func TestValidateScenario_UnknownState(t *testing.T) {
	result, err := ValidateScenarioBytes([]byte(`
resources:
  - name: g
    type: group
events:
  - resource: g
    state: PartiallyRunning
    style: glowing
`))
	if err != nil {
		t.Fatalf("ValidateScenarioBytes failed: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 errors, got %v", result.Errors)
	}
}

func TestValidateScenario_Warnings(t *testing.T) {
	result, err := ValidateScenarioBytes([]byte(`
resources:
  - name: web
    type: executable
  - name: WEB
    type: executable
events:
  - resource: ghost
    state: Running
`))
	if err != nil {
		t.Fatalf("ValidateScenarioBytes failed: %v", err)
	}
	if !result.IsValid() {
		t.Errorf("warnings only should still be valid, got %v", result.Errors)
	}
	// duplicate name, no monitored type, unknown event resource
	if len(result.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", result.Warnings)
	}
}

func TestValidateScenario_NoResources(t *testing.T) {
	result, err := ValidateScenarioBytes([]byte("resources: []\n"))
	if err != nil {
		t.Fatalf("ValidateScenarioBytes failed: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected warning for empty resources")
	}
}

func TestValidateScenario_RelationshipErrors(t *testing.T) {
	result, err := ValidateScenarioBytes([]byte(`
resources:
  - name: web
    type: executable
    relationships:
      - target: nowhere
`))
	if err != nil {
		t.Fatalf("ValidateScenarioBytes failed: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected missing type and unknown target errors, got %v", result.Errors)
	}
}

func TestValidateScenario_SelfParent(t *testing.T) {
	_, err := ParseScenario([]byte(`
resources:
  - name: g
    type: group
    parent: G
  - name: a
    type: executable
    parent: g
events:
  - resource: a
    state: Running
`))
	if err == nil {
		t.Fatal("expected error for self-parented resource")
	}
	result, ok := err.(*ValidationResult)
	if !ok {
		t.Fatalf("expected *ValidationResult, got %T", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Path != "resources[0].parent" {
		t.Errorf("expected a single error at resources[0].parent, got %v", result.Errors)
	}
}

func TestValidateScenario_TwoNodeCycle(t *testing.T) {
	result, err := ValidateScenarioBytes([]byte(`
resources:
  - name: g1
    type: group
    parent: g2
  - name: g2
    type: group
    relationships:
      - type: Parent
        target: g1
  - name: leaf
    type: executable
    parent: g1
`))
	if err != nil {
		t.Fatalf("ValidateScenarioBytes failed: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected an error for each resource on the cycle, got %v", result.Errors)
	}
	if result.Errors[0].Path != "resources[0].parent" {
		t.Errorf("unexpected error path: %s", result.Errors[0].Path)
	}
	if result.Errors[1].Path != "resources[1].relationships[0].target" {
		t.Errorf("unexpected error path: %s", result.Errors[1].Path)
	}
}

func TestValidateScenario_StructuralParentShadowsRelationship(t *testing.T) {
	// web rolls up into frontend, so its Parent relationship to itself never takes effect
	result, err := ValidateScenarioBytes([]byte(`
resources:
  - name: frontend
    type: group
  - name: web
    type: executable
    parent: frontend
    relationships:
      - type: Parent
        target: web
`))
	if err != nil {
		t.Fatalf("ValidateScenarioBytes failed: %v", err)
	}
	if !result.IsValid() {
		t.Errorf("expected valid scenario, got errors: %v", result.Errors)
	}
}

func writeTempYaml(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
