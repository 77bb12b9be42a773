package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jfarrand/noted/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for editor agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets editor agents chat with the assistant and save notes through
the same decision core. Configure with:

  {
    "mcpServers": {
      "noted": { "command": "noted", "args": ["mcp"] }
    }
  }

Available tools: noted_chat, noted_organize_note, noted_extract_tasks,
noted_summarize_meeting, noted_weekly_report, noted_list_profiles,
noted_switch_profile`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		return mcp.NewServer(a).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
