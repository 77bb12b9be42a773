package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfarrand/noted/internal/output"
)

var chatDate string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message to the assistant",
	Long: `Send a message to the assistant against the active profile.

The assistant decides whether to reply, ask for confirmation, or write
to the vault. Writes require an explicit write verb (save, log, record,
...) or a "confirm" reply to a pending action.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}

		resp, err := a.Chat(cmd.Context(), strings.Join(args, " "), chatDate)
		if err != nil {
			return err
		}

		fmt.Fprintf(ui.Out, "[%s] %s\n", output.ActionColor(string(resp.Action)), resp.Message)
		if resp.Notice != "" {
			ui.Info("%s", resp.Notice)
		}
		for _, f := range resp.Files {
			ui.Success("wrote %s", f)
		}
		ui.VerboseLog("intent=%s reason=%s", resp.Intent, resp.Reason)
		return nil
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the active session's transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		msgs, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			role := output.Cyan(string(m.Role))
			if m.Role == "assistant" {
				role = output.Green(string(m.Role))
			}
			fmt.Fprintf(ui.Out, "%s: %s\n", role, m.Content)
		}
		return nil
	},
}

var chatClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the active session's transcript and pending action",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		if dryRun {
			ui.DryRunMsg("Would clear the active session's transcript")
			return nil
		}
		if err := a.ClearSession(cmd.Context()); err != nil {
			return err
		}
		ui.Success("Session cleared")
		return nil
	},
}

var chatSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the active profile's chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		sessions, err := a.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			ui.Info("No sessions yet")
			return nil
		}
		table := ui.Table([]string{"ID", "Day", "Created"})
		for _, s := range sessions {
			table.Append([]string{s.ID, s.Day, s.CreatedAt.Format("2006-01-02 15:04")})
		}
		return table.Render()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatDate, "date", "", "Backfill date (YYYY-MM-DD), defaults to today")
	chatHistoryCmd.Flags().Int("limit", 50, "Maximum messages to show")
	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatClearCmd)
	chatCmd.AddCommand(chatSessionsCmd)
	rootCmd.AddCommand(chatCmd)
}
