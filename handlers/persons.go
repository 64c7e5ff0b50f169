// ABOUTME: Person MCP tool handlers
// ABOUTME: Implements find_persons and get_person over the API client
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/objects"
)

type PersonHandlers struct {
	client *api.Client
}

func NewPersonHandlers(client *api.Client) *PersonHandlers {
	return &PersonHandlers{client: client}
}

type FindPersonsInput struct {
	Term  string `json:"term" jsonschema:"Name, email or phone fragment to search for (required)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type FindPersonsOutput struct {
	Persons []PersonOutput `json:"persons"`
	Count   int            `json:"count"`
}

func (h *PersonHandlers) FindPersons(ctx context.Context, _ *mcp.CallToolRequest, input FindPersonsInput) (*mcp.CallToolResult, FindPersonsOutput, error) {
	if input.Term == "" {
		return nil, FindPersonsOutput{}, fmt.Errorf("term is required")
	}
	if input.Limit <= 0 {
		input.Limit = 10
	}

	persons, err := h.client.FindPersons(ctx, input.Term, api.ListOptions{Limit: input.Limit})
	if err != nil {
		return nil, FindPersonsOutput{}, fmt.Errorf("failed to find persons: %w", err)
	}

	out := FindPersonsOutput{Persons: make([]PersonOutput, 0, len(persons))}
	for _, p := range persons {
		out.Persons = append(out.Persons, personToOutput(p))
	}
	out.Count = len(out.Persons)
	return nil, out, nil
}

type GetPersonInput struct {
	ID int64 `json:"id" jsonschema:"Pipedrive person id (required)"`
}

type PersonDetailOutput struct {
	Person PersonOutput   `json:"person"`
	Fields map[string]any `json:"fields"`
	Deals  []DealOutput   `json:"deals"`
}

func (h *PersonHandlers) GetPerson(ctx context.Context, _ *mcp.CallToolRequest, input GetPersonInput) (*mcp.CallToolResult, PersonDetailOutput, error) {
	if input.ID <= 0 {
		return nil, PersonDetailOutput{}, fmt.Errorf("id is required")
	}

	person, err := h.client.GetPerson(ctx, input.ID)
	if err != nil {
		return nil, PersonDetailOutput{}, fmt.Errorf("failed to get person: %w", err)
	}

	fields, err := fieldValues(person)
	if err != nil {
		return nil, PersonDetailOutput{}, fmt.Errorf("failed to read person fields: %w", err)
	}

	out := PersonDetailOutput{
		Person: personToOutput(person),
		Fields: fields,
		Deals:  dealsToOutput(person.Deals()),
	}
	return nil, out, nil
}

func dealsToOutput(deals []*objects.Record) []DealOutput {
	out := make([]DealOutput, 0, len(deals))
	for _, d := range deals {
		out = append(out, dealToOutput(d))
	}
	return out
}
