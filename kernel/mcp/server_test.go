package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openziti/fabstatus/kernel/engine"
	"github.com/openziti/fabstatus/kernel/model"
	"github.com/openziti/fabstatus/kernel/store"
)

func newTestServer(t *testing.T) (*StatusMCPServer, *store.MemoryStore, *engine.Aggregator) {
	t.Helper()
	g := model.NewGraph()
	app := g.Add(model.NewGroup("app"))
	g.Add(model.NewChild("api", "executable", app))
	g.Add(model.NewChild("db", "container", app))

	memStore := store.NewMemoryStore()
	a := engine.NewAggregator(g, memStore, memStore)
	return NewStatusMCPServer(memStore, a), memStore, a
}

func callTool(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewStatusMCPServer(t *testing.T) {
	server, _, _ := newTestServer(t)

	if server == nil {
		t.Fatal("expected server to be created")
	}
	if server.store == nil {
		t.Error("expected store to be set")
	}
	if server.aggregator == nil {
		t.Error("expected aggregator to be set")
	}
}

func TestSetStateHandler_RollsUp(t *testing.T) {
	server, memStore, a := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := memStore.Subscribe(ctx)

	result, err := server.setStateHandler(ctx, callTool(map[string]any{
		"resource":  "api",
		"state":     "Exited",
		"style":     "error",
		"exit_code": float64(137),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %v", result.Content)
	}

	for {
		ev, ok := sub.TryNext()
		if !ok {
			break
		}
		a.Handle(ctx, ev)
	}

	result, err = server.getStatusHandler(ctx, callTool(map[string]any{"resource": "app"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected app to have a state, got %v", result.Content)
	}

	var response store.ResourceState
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Snapshot.State != model.FailedToStart {
		t.Errorf("expected app to be FailedToStart, got %s", response.Snapshot.State)
	}
	if response.Snapshot.ExitCode == nil || *response.Snapshot.ExitCode != 137 {
		t.Errorf("expected exit code 137, got %v", response.Snapshot.ExitCode)
	}
}

func TestSetStateHandler_InvalidState(t *testing.T) {
	server, _, _ := newTestServer(t)

	result, err := server.setStateHandler(context.Background(), callTool(map[string]any{
		"resource": "api",
		"state":    "Sleeping",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown state")
	}
}

func TestSetStateHandler_MissingResource(t *testing.T) {
	server, _, _ := newTestServer(t)

	result, err := server.setStateHandler(context.Background(), callTool(map[string]any{"state": "Running"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing resource")
	}
}

func TestGetStatusHandler_NotFound(t *testing.T) {
	server, _, _ := newTestServer(t)

	result, err := server.getStatusHandler(context.Background(), callTool(map[string]any{"resource": "nonexistent"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for nonexistent resource")
	}
}

func TestListChildrenHandler(t *testing.T) {
	server, _, _ := newTestServer(t)

	result, err := server.listChildrenHandler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var response struct {
		Count   int                 `json:"count"`
		Parents map[string][]string `json:"parents"`
	}
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Count != 1 {
		t.Errorf("expected 1 parent, got %d", response.Count)
	}
	if len(response.Parents["app"]) != 2 {
		t.Errorf("expected 2 children of app, got %v", response.Parents["app"])
	}
}

func TestStatusHandler(t *testing.T) {
	server, memStore, _ := newTestServer(t)
	memStore.Set("api", model.NewSnapshot(model.Running, model.StyleSuccess))

	contents, err := server.statusHandler(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}

	textContent := contents[0].(mcp.TextResourceContents)
	if textContent.URI != StatusURI {
		t.Errorf("expected URI '%s', got %s", StatusURI, textContent.URI)
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(textContent.Text), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if int(response["count"].(float64)) != 1 {
		t.Errorf("expected count 1, got %v", response["count"])
	}
}
