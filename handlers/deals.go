// ABOUTME: Pipeline and deal MCP tool handlers
// ABOUTME: Implements list_pipelines, list_pipeline_deals, get_deal and set_field
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/objects"
)

type DealHandlers struct {
	client *api.Client
}

func NewDealHandlers(client *api.Client) *DealHandlers {
	return &DealHandlers{client: client}
}

type ListPipelinesInput struct{}

type ListPipelinesOutput struct {
	Pipelines []PipelineOutput `json:"pipelines"`
}

func (h *DealHandlers) ListPipelines(ctx context.Context, _ *mcp.CallToolRequest, _ ListPipelinesInput) (*mcp.CallToolResult, ListPipelinesOutput, error) {
	pipelines, err := h.client.ListPipelines(ctx)
	if err != nil {
		return nil, ListPipelinesOutput{}, fmt.Errorf("failed to list pipelines: %w", err)
	}
	// Stages link themselves to their pipelines as they load.
	if _, err := h.client.ListStages(ctx, 0); err != nil {
		return nil, ListPipelinesOutput{}, fmt.Errorf("failed to list stages: %w", err)
	}

	out := ListPipelinesOutput{Pipelines: make([]PipelineOutput, 0, len(pipelines))}
	for _, p := range pipelines {
		p.SortStages()
		out.Pipelines = append(out.Pipelines, pipelineToOutput(p))
	}
	return nil, out, nil
}

type ListPipelineDealsInput struct {
	PipelineID int64 `json:"pipeline_id" jsonschema:"Pipeline id (required)"`
	StageID    int64 `json:"stage_id,omitempty" jsonschema:"Only deals in this stage"`
	Limit      int   `json:"limit,omitempty" jsonschema:"Maximum deals to return (default 100)"`
}

type ListPipelineDealsOutput struct {
	Pipeline string       `json:"pipeline"`
	Deals    []DealOutput `json:"deals"`
	Count    int          `json:"count"`
}

func (h *DealHandlers) ListPipelineDeals(ctx context.Context, _ *mcp.CallToolRequest, input ListPipelineDealsInput) (*mcp.CallToolResult, ListPipelineDealsOutput, error) {
	if input.PipelineID <= 0 {
		return nil, ListPipelineDealsOutput{}, fmt.Errorf("pipeline_id is required")
	}
	if input.Limit <= 0 {
		input.Limit = 100
	}

	pipeline, err := h.client.GetPipeline(ctx, input.PipelineID)
	if err != nil {
		return nil, ListPipelineDealsOutput{}, fmt.Errorf("failed to get pipeline: %w", err)
	}
	if _, err := h.client.ListStages(ctx, input.PipelineID); err != nil {
		return nil, ListPipelineDealsOutput{}, fmt.Errorf("failed to list stages: %w", err)
	}

	opts := api.ListOptions{Limit: input.Limit}
	if input.StageID > 0 {
		opts.Params = map[string][]string{"stage_id": {fmt.Sprint(input.StageID)}}
	}
	deals, err := h.client.PipelineDeals(ctx, input.PipelineID, opts)
	if err != nil {
		return nil, ListPipelineDealsOutput{}, fmt.Errorf("failed to list pipeline deals: %w", err)
	}

	// next_stage depends on stage order
	pipeline.SortStages()
	out := ListPipelineDealsOutput{
		Pipeline: pipeline.Name(),
		Deals:    dealsToOutput(deals),
		Count:    len(deals),
	}
	return nil, out, nil
}

type GetDealInput struct {
	ID int64 `json:"id" jsonschema:"Pipedrive deal id (required)"`
}

type DealDetailOutput struct {
	Deal   DealOutput     `json:"deal"`
	Fields map[string]any `json:"fields"`
}

func (h *DealHandlers) GetDeal(ctx context.Context, _ *mcp.CallToolRequest, input GetDealInput) (*mcp.CallToolResult, DealDetailOutput, error) {
	if input.ID <= 0 {
		return nil, DealDetailOutput{}, fmt.Errorf("id is required")
	}

	deal, err := h.client.GetDeal(ctx, input.ID)
	if err != nil {
		return nil, DealDetailOutput{}, fmt.Errorf("failed to get deal: %w", err)
	}

	fields, err := fieldValues(deal)
	if err != nil {
		return nil, DealDetailOutput{}, fmt.Errorf("failed to read deal fields: %w", err)
	}
	return nil, DealDetailOutput{Deal: dealToOutput(deal), Fields: fields}, nil
}

type SetFieldInput struct {
	Kind  string `json:"kind" jsonschema:"Entity kind: person, organization or deal (required)"`
	ID    int64  `json:"id" jsonschema:"Entity id (required)"`
	Field string `json:"field" jsonschema:"Field name; custom fields use their display name in snake_case (required)"`
	Value string `json:"value" jsonschema:"New value; enumerated custom fields take an option label, empty clears"`
}

type SetFieldOutput struct {
	Kind   string         `json:"kind"`
	ID     int64          `json:"id"`
	Saved  []string       `json:"saved"`
	Fields map[string]any `json:"fields"`
}

func (h *DealHandlers) SetField(ctx context.Context, _ *mcp.CallToolRequest, input SetFieldInput) (*mcp.CallToolResult, SetFieldOutput, error) {
	kind, err := objects.ParseKind(input.Kind)
	if err != nil {
		return nil, SetFieldOutput{}, err
	}
	if input.ID <= 0 {
		return nil, SetFieldOutput{}, fmt.Errorf("id is required")
	}
	if input.Field == "" {
		return nil, SetFieldOutput{}, fmt.Errorf("field is required")
	}

	rec, err := h.client.Get(ctx, kind, input.ID)
	if err != nil {
		return nil, SetFieldOutput{}, fmt.Errorf("failed to load %s: %w", kind, err)
	}

	if err := rec.Set(input.Field, input.Value); err != nil {
		return nil, SetFieldOutput{}, fmt.Errorf("failed to set %s: %w", input.Field, err)
	}
	saved := rec.ModifiedFields()
	if len(saved) == 0 {
		return nil, SetFieldOutput{}, fmt.Errorf("%s is not a stored field of %s", input.Field, kind)
	}

	rec, err = h.client.SaveChanges(ctx, rec)
	if err != nil {
		return nil, SetFieldOutput{}, fmt.Errorf("failed to save %s: %w", kind, err)
	}

	fields, err := fieldValues(rec)
	if err != nil {
		return nil, SetFieldOutput{}, fmt.Errorf("failed to read %s fields: %w", kind, err)
	}
	return nil, SetFieldOutput{Kind: string(kind), ID: rec.ID(), Saved: saved, Fields: fields}, nil
}
