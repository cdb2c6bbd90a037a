package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/openziti/fabstatus/kernel/engine"
	"github.com/openziti/fabstatus/kernel/model"
	"github.com/openziti/fabstatus/kernel/store"
)

const StatusURI = "fabstatus://status"

// StatusMCPServer exposes the host snapshot store and the aggregator's topology over MCP.
type StatusMCPServer struct {
	server     *server.MCPServer
	store      store.SnapshotStore
	aggregator *engine.Aggregator
}

func NewStatusMCPServer(s store.SnapshotStore, a *engine.Aggregator) *StatusMCPServer {
	srv := server.NewMCPServer(
		"Fabstatus Roll-up",
		"v1.0.0",
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
	)

	fs := &StatusMCPServer{
		server:     srv,
		store:      s,
		aggregator: a,
	}

	fs.registerTools()
	fs.registerResources()

	return fs
}

func (fs *StatusMCPServer) ServeStdio() error {
	return server.ServeStdio(fs.server)
}

func (fs *StatusMCPServer) registerTools() {
	fs.server.AddTool(mcp.NewTool("set_state",
		mcp.WithDescription("Report a state change for a resource"),
		mcp.WithString("resource",
			mcp.Description("Name of the resource"),
			mcp.Required(),
		),
		mcp.WithString("state",
			mcp.Description("State label, e.g. Running, Exited, Finished"),
			mcp.Required(),
		),
		mcp.WithString("style",
			mcp.Description("Display style: info, success, warning or error"),
		),
		mcp.WithNumber("exit_code",
			mcp.Description("Exit code of the resource, if it has exited"),
		),
	), fs.setStateHandler)

	fs.server.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get the current snapshot of a resource"),
		mcp.WithString("resource",
			mcp.Description("Name of the resource"),
			mcp.Required(),
		),
	), fs.getStatusHandler)

	fs.server.AddTool(mcp.NewTool("list_children",
		mcp.WithDescription("List the monitored parents and the children rolled up into each"),
	), fs.listChildrenHandler)
}

func (fs *StatusMCPServer) registerResources() {
	resource := mcp.NewResource(StatusURI, "Fabstatus Status",
		mcp.WithResourceDescription("Current snapshot of every resource"),
		mcp.WithMIMEType("application/json"),
	)
	fs.server.AddResource(resource, fs.statusHandler)
}

func (fs *StatusMCPServer) setStateHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError("resource argument is required"), nil
	}
	rawState, err := request.RequireString("state")
	if err != nil {
		return mcp.NewToolResultError("state argument is required"), nil
	}
	state, err := model.ParseState(rawState)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	style, err := model.ParseStyle(request.GetString("style", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snapshot := model.NewSnapshot(state, style)
	if args := request.GetArguments(); args["exit_code"] != nil {
		snapshot = snapshot.WithExitCode(model.IntPtr(request.GetInt("exit_code", 0)))
	}

	id := model.Identity(name)
	err = fs.store.PublishUpdate(ctx, id, func(current model.Snapshot) model.Snapshot {
		return current.WithState(snapshot.State, snapshot.Style).WithExitCode(snapshot.ExitCode)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("resource '%s' is now %s", name, state)), nil
}

func (fs *StatusMCPServer) getStatusHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError("resource argument is required"), nil
	}
	snapshot, found := fs.store.TryGetCurrentState(model.Identity(name))
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("resource '%s' has no state", name)), nil
	}
	return jsonResult(store.ResourceState{Resource: model.Identity(name), Snapshot: snapshot})
}

func (fs *StatusMCPServer) listChildrenHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parents := make(map[string][]model.Identity)
	for _, p := range fs.aggregator.Parents() {
		parents[p.String()] = fs.aggregator.Children(p)
	}
	return jsonResult(map[string]any{
		"count":   len(parents),
		"parents": parents,
	})
}

func (fs *StatusMCPServer) statusHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snapshots := fs.store.Snapshots()
	data, err := json.Marshal(map[string]any{
		"count":     len(snapshots),
		"resources": snapshots,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StatusURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
