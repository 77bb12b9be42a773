package cmd

import (
	"github.com/spf13/cobra"
)

var reportDate string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the weekly report",
	Long: `Generate the formal weekly report for the week containing --date
(default: today) from the week's daily progress logs. The report is
written under Reports/YYYY/MM in the active profile's vault.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		if dryRun {
			ui.DryRunMsg("Would generate the weekly report")
			return nil
		}
		res, err := a.WeeklyReport(cmd.Context(), reportDate)
		if err != nil {
			return err
		}
		reportResult(res)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Any date inside the target week (YYYY-MM-DD)")
	rootCmd.AddCommand(reportCmd)
}
