// ABOUTME: Entry point for the Pipedrive CLI and MCP server
// ABOUTME: Parses global flags, loads settings and routes to the command
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/pipedrive/cli"
	"github.com/harperreed/pipedrive/config"
	"github.com/harperreed/pipedrive/objects"
)

const version = "0.2.0"

type command func(s *cli.Session, args []string) error

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Settings file (default: ./pipedrive_settings.json, then ~/.config/pipedrive/settings.json)")
	dbPath := flag.String("db-path", "", "Snapshot database path (default: ~/.local/share/pipedrive/pipedrive.db)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("pipedrive version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *dbPath != "" {
		settings.DBPath = *dbPath
	}
	if *logLevel != "" {
		settings.LogLevel = *logLevel
	}
	level, err := settings.Level()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	config.InitLogger(level)

	session := cli.NewSession(settings)
	defer session.Close()

	cmd, cmdArgs, ok := route(args)
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", joinArgs(args))
		printUsage()
		session.Close()
		os.Exit(1)
	}

	if err := cmd(session, cmdArgs); err != nil {
		session.Close()
		log.Fatalf("Error: %v", err)
	}
}

// route resolves the command for args and the arguments left for it.
func route(args []string) (command, []string, bool) {
	name, rest := args[0], args[1:]

	if kind, err := objects.ParseKind(name); err == nil {
		return entityCommand(kind, rest)
	}

	switch name {
	case "set":
		return cli.SetCommand, rest, true
	case "dashboard":
		return cli.DashboardCommand, rest, true
	case "browse":
		return cli.BrowseCommand, rest, true
	case "serve":
		return cli.ServeCommand, rest, true
	case "mcp":
		return func(s *cli.Session, _ []string) error { return cli.MCPCommand(s, version) }, rest, true
	case "changes":
		if len(rest) > 0 && rest[0] == "status" {
			return cli.SyncStatusCommand, rest[1:], true
		}
		return cli.ChangesCommand, rest, true
	}

	if len(rest) == 0 {
		return nil, nil, false
	}
	sub, subArgs := rest[0], rest[1:]

	var cmd command
	switch name + " " + sub {
	case "report pipeline", "report pipelines":
		cmd = cli.ReportPipelineCommand
	case "report persons":
		cmd = cli.ReportPersonsCommand
	case "viz pipeline":
		cmd = cli.VizPipelineCommand
	case "viz org", "viz organization":
		cmd = cli.VizOrgCommand
	case "snapshot save":
		cmd = cli.SnapshotSaveCommand
	case "snapshot list":
		cmd = cli.SnapshotListCommand
	case "snapshot show":
		cmd = cli.SnapshotShowCommand
	case "snapshot restore":
		cmd = cli.SnapshotRestoreCommand
	case "snapshot delete":
		cmd = cli.SnapshotDeleteCommand
	case "auth token":
		cmd = cli.AuthTokenCommand
	case "auth login":
		cmd = cli.AuthLoginCommand
	case "auth url":
		cmd = cli.AuthURLCommand
	case "auth exchange":
		cmd = cli.AuthExchangeCommand
	case "auth status":
		cmd = cli.AuthStatusCommand
	case "fields list":
		cmd = cli.FieldsListCommand
	case "fields refresh":
		cmd = cli.FieldsRefreshCommand
	case "fields clear":
		cmd = cli.FieldsClearCommand
	case "fields status":
		cmd = cli.FieldsStatusCommand
	case "webhooks list":
		cmd = cli.WebhooksListCommand
	case "webhooks add":
		cmd = cli.WebhooksAddCommand
	case "webhooks delete":
		cmd = cli.WebhooksDeleteCommand
	default:
		return nil, nil, false
	}
	return cmd, subArgs, true
}

func entityCommand(kind objects.Kind, rest []string) (command, []string, bool) {
	sub, subArgs := "list", rest
	if len(rest) > 0 {
		sub, subArgs = rest[0], rest[1:]
	}

	var fn func(*cli.Session, objects.Kind, []string) error
	switch sub {
	case "list":
		fn = cli.ListCommand
	case "get":
		fn = cli.GetCommand
	case "create":
		fn = cli.CreateCommand
	case "delete":
		fn = cli.DeleteCommand
	default:
		if len(rest) > 0 && len(rest[0]) > 0 && rest[0][0] == '-' {
			fn, subArgs = cli.ListCommand, rest
			break
		}
		return nil, nil, false
	}
	return func(s *cli.Session, args []string) error { return fn(s, kind, args) }, subArgs, true
}

func joinArgs(args []string) string {
	if len(args) > 1 {
		return args[0] + " " + args[1]
	}
	return args[0]
}

func printUsage() {
	fmt.Printf(`pipedrive v%s - Pipedrive CRM client

USAGE:
  pipedrive [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Settings file (default: ./pipedrive_settings.json,
                         then ~/.config/pipedrive/settings.json)
  --db-path <path>       Snapshot database (default: ~/.local/share/pipedrive/pipedrive.db)
  --log-level <level>    debug, info, warn or error (default: warn)

  Settings can be overridden with PIPEDRIVE_API_TOKEN, PIPEDRIVE_API_BASE_URL,
  PIPEDRIVE_CLIENT_ID, PIPEDRIVE_CLIENT_SECRET, PIPEDRIVE_OAUTH and friends,
  in the environment or a .env file.

ENTITY COMMANDS:
  <kind> is one of persons, orgs, deals, pipelines, stages, notes,
  activities, users, products.

  pipedrive <kind> list        List records
    --limit <n>                  Max results (default: 50, 0 for all)
    --term <text>                Search (persons, deals, products)
    --pipeline <id>              Pipeline filter (stages)

  pipedrive <kind> get <id>    Show every field, custom fields by name
  pipedrive <kind> create key=value...   Create a record (storage keys)
  pipedrive <kind> delete <id> Delete a record

  pipedrive set [--dry-run] <kind> <id> field=value...
                               Change fields and save only what changed

REPORTS:
  pipedrive report pipeline    Deals of every pipeline grouped by stage
    --pipeline <id>              Only this pipeline
    --limit <n>                  Max deals per pipeline
  pipedrive report persons     Persons with their organizations
    --limit <n>                  Persons to load (default: 5000)
    --show <n>                   Persons to print (default: 5)
    --orgs                       Also load organizations
  pipedrive dashboard          Pipeline totals, rotting deals, stale persons

VISUALIZATION:
  pipedrive viz pipeline <id>  Stages, deals and organizations of a pipeline
    --output <file>              Output file (default: stdout)
    --format <fmt>               dot, svg or png (default: dot)
  pipedrive viz org <id>       Organization with its persons and deals
    --output <file>              Output file (default: stdout)
  pipedrive browse             Interactive pipeline board
    --pipeline <id>              Only this pipeline
  pipedrive serve              Web dashboard with pipeline graphs and /metrics
    --addr <host:port>           Listen address (default: localhost:8080)
    --snapshot <id>              Serve a saved snapshot instead of live data

SNAPSHOTS:
  pipedrive snapshot save      Load records and save them locally
    --kinds <list>               Kinds to load (default: pipelines,persons,organizations)
    --note <text>                Note stored with the snapshot
  pipedrive snapshot list      List snapshots
  pipedrive snapshot show <id> List the records of a snapshot
    --kind <kind>                Only this kind
  pipedrive snapshot restore <id>
    --browse                     Open the board on the restored records
  pipedrive snapshot delete <id>

CHANGES:
  pipedrive changes            Changes since the last run (first run: last 24h)
    --since <time>               Explicit start; does not move the cursor
  pipedrive changes status     Show the sync cursor

AUTH:
  pipedrive auth token [token] Save an API token (prompts when omitted)
  pipedrive auth login         OAuth login through the browser
  pipedrive auth url           Print the OAuth authorization URL
  pipedrive auth exchange <code>
  pipedrive auth status

FIELDS:
  pipedrive fields list <kind> Custom fields of persons, orgs or deals
  pipedrive fields refresh     Re-read every schema into the cache
  pipedrive fields clear       Empty the schema cache
  pipedrive fields status      When each schema was cached

WEBHOOKS:
  pipedrive webhooks list
  pipedrive webhooks add <url> --action added --object deal
  pipedrive webhooks delete <id>

MCP SERVER:
  pipedrive mcp                Start MCP server on stdio

EXAMPLES:
  # Store your API token
  pipedrive auth token

  # Find a person
  pipedrive persons list --term "Ada"

  # Move a deal's custom Priority field to High
  pipedrive set deals 101 priority=High

  # Render the sales pipeline
  pipedrive viz pipeline 1 --format svg --output sales.svg

`, version)
}
