// ABOUTME: MCP server assembly
// ABOUTME: Registers every Pipedrive tool against one API client
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pipedrive/api"
)

// NewServer returns an MCP server exposing the client's persons, pipelines and deals.
func NewServer(client *api.Client, version string) *mcp.Server {
	personHandlers := NewPersonHandlers(client)
	dealHandlers := NewDealHandlers(client)
	vizHandlers := NewVizHandlers(client)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pipedrive",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_persons",
		Description: "Search Pipedrive persons by name, email or phone",
	}, personHandlers.FindPersons)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_person",
		Description: "Get one person with all fields, custom fields by name, and their deals",
	}, personHandlers.GetPerson)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_pipelines",
		Description: "List every pipeline with its stages in order",
	}, dealHandlers.ListPipelines)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_pipeline_deals",
		Description: "List the deals of a pipeline, optionally limited to one stage",
	}, dealHandlers.ListPipelineDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_deal",
		Description: "Get one deal with all fields, custom fields by name, and its stage, org and person",
	}, dealHandlers.GetDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_field",
		Description: "Set one field of a person, organization or deal and save it to Pipedrive",
	}, dealHandlers.SetField)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of a pipeline or an organization",
	}, vizHandlers.GenerateGraph)

	return server
}
