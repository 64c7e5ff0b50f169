// ABOUTME: MCP server subcommand
// ABOUTME: Serves the Pipedrive tools over stdio for MCP clients
package cli

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pipedrive/handlers"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(s *Session, version string) error {
	client, err := s.Client()
	if err != nil {
		return err
	}

	log.Println("Starting Pipedrive MCP Server...")
	server := handlers.NewServer(client, version)
	return server.Run(context.Background(), &mcp.StdioTransport{})
}
