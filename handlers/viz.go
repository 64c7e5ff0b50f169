// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_graph tool for pipelines and organizations
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/viz"
)

type VizHandlers struct {
	client *api.Client
}

func NewVizHandlers(client *api.Client) *VizHandlers {
	return &VizHandlers{client: client}
}

type GenerateGraphInput struct {
	Type     string `json:"type" jsonschema:"Graph type: pipeline or organization"`
	EntityID int64  `json:"entity_id" jsonschema:"Pipeline id or organization id (required)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}
	if input.EntityID <= 0 {
		return nil, GenerateGraphOutput{}, fmt.Errorf("entity_id is required")
	}

	generator := viz.NewGraphGenerator(h.client.Registry())
	var dot string
	var err error

	switch input.Type {
	case "pipeline":
		if _, err = h.client.ListStages(ctx, input.EntityID); err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to list stages: %w", err)
		}
		if _, err = h.client.PipelineDeals(ctx, input.EntityID, api.ListOptions{}); err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to list pipeline deals: %w", err)
		}
		dot, err = generator.GeneratePipelineGraph(ctx, input.EntityID)

	case "organization", "org":
		if _, err = h.client.GetOrganization(ctx, input.EntityID); err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to get organization: %w", err)
		}
		if _, err = h.client.OrganizationPersons(ctx, input.EntityID, api.ListOptions{}); err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to list persons: %w", err)
		}
		if _, err = h.client.OrganizationDeals(ctx, input.EntityID, api.ListOptions{}); err != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to list deals: %w", err)
		}
		dot, err = generator.GenerateOrgGraph(ctx, input.EntityID)

	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, organization)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "[label=")
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}
