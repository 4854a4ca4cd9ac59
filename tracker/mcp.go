package tracker

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/scrib/kit"
)

// RegisterMCP registers the tracker tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerProjectsTool(srv)
	s.registerSummaryTool(srv)
	s.registerProductivityTool(srv)
	s.registerTriggerTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// --- projects ---

func (s *Service) registerProjectsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrib_projects",
		Description: "List the tracked writing projects.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"projects": s.cfg.Projects()}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- summary ---

type summaryReq struct {
	ProjectID string `json:"project_id"`
}

func (s *Service) registerSummaryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrib_summary",
		Description: "Current word and page counts for a project, with day-over-day deltas.",
		InputSchema: inputSchema(map[string]any{
			"project_id": map[string]any{"type": "string", "description": "Tracked project ID"},
		}, []string{"project_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*summaryReq)
		sum, err := s.ProjectSummary(ctx, r.ProjectID)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			return map[string]any{"project_id": r.ProjectID, "measurements": 0}, nil
		}
		return sum, nil
	}

	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r summaryReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- productivity ---

func (s *Service) registerProductivityTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrib_productivity",
		Description: "Cross-project writing statistics: best and worst days, active-day mean, streaks.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.ProductivityStats(ctx)
	}

	decode := func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- trigger update ---

func (s *Service) registerTriggerTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "scrib_trigger_update",
		Description: "Run one update cycle over all tracked projects now. Fails if a run is already in progress.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.RunAll(ctx)
	}

	decode := func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
