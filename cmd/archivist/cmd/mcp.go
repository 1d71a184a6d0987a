package cmd

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "archivist/internal/adapters/mcp"
)

// Version is reported to MCP clients
const Version = "0.1.0"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the console tools over MCP on stdio",
	Args:  args(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, _ []string) error {
		console, err := current.console(cmd.Context())
		if err != nil {
			return err
		}

		mcpServer := server.NewMCPServer(
			"archivist-mcp",
			Version,
			server.WithToolCapabilities(true),
		)

		mcpServer.AddTool(
			mcp.NewTool("ping",
				mcp.WithDescription("Health check, returns pong"),
			),
			func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("pong"), nil
			},
		)

		mcpadapter.RegisterReadTools(mcpServer, console)
		mcpadapter.RegisterWriteTools(mcpServer, console)

		return server.ServeStdio(mcpServer)
	},
}

// ExecuteMCP runs the mcp subcommand with the process flags, for the
// standalone archivist-mcp binary
func ExecuteMCP() int {
	rootCmd.SetArgs(append([]string{"mcp"}, os.Args[1:]...))
	return Execute()
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
