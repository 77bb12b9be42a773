package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	progressDone     []string
	progressBlockers []string
	progressNext     []string
	progressDate     string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Log today's progress",
	Long: `Log today's progress from explicit inputs. The entry is generated
from your inputs plus the week's existing notes, and the weekly
summary is refreshed afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		if len(progressDone)+len(progressBlockers)+len(progressNext) == 0 {
			return cmd.Help()
		}
		if dryRun {
			ui.DryRunMsg("Would log daily progress")
			return nil
		}
		res, err := a.DailyProgress(cmd.Context(), progressDone, progressBlockers, progressNext, progressDate)
		if err != nil {
			return err
		}
		reportResult(res)
		return nil
	},
}

var progressCacheCmd = &cobra.Command{
	Use:   "cache <text>",
	Short: "Cache draft text so it cannot be lost",
	Long: `Append raw draft text to the day's draft cache file. Use this to
protect unconfirmed input; nothing else in the vault is touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		if dryRun {
			ui.DryRunMsg("Would cache draft text")
			return nil
		}
		rel, err := a.CacheDraft(cmd.Context(), strings.Join(args, " "), progressDate)
		if err != nil {
			return err
		}
		ui.Success("Draft cached: %s", rel)
		return nil
	},
}

func init() {
	progressCmd.Flags().StringArrayVar(&progressDone, "done", nil, "Something finished today (repeatable)")
	progressCmd.Flags().StringArrayVar(&progressBlockers, "blocker", nil, "A blocker (repeatable)")
	progressCmd.Flags().StringArrayVar(&progressNext, "next", nil, "A next step (repeatable)")
	progressCmd.PersistentFlags().StringVar(&progressDate, "date", "", "Backfill date (YYYY-MM-DD), defaults to today")

	progressCmd.AddCommand(progressCacheCmd)
	rootCmd.AddCommand(progressCmd)
}
