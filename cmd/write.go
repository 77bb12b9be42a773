package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfarrand/noted/internal/router"
)

// Direct write commands. Invoking one is the explicit write permission;
// no classification or confirmation round-trip happens here.

var (
	writeDate    string
	noteCategory string
)

var noteCmd = &cobra.Command{
	Use:   "note <text>",
	Short: "Organize raw text into a structured note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		if dryRun {
			ui.DryRunMsg("Would organize and save a note")
			return nil
		}
		res, err := a.OrganizeNote(cmd.Context(), text, noteCategory, writeDate)
		if err != nil {
			return err
		}
		reportResult(res)
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks <text>",
	Short: "Extract tasks from text into the day's task list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		if dryRun {
			ui.DryRunMsg("Would extract tasks")
			return nil
		}
		res, err := a.ExtractTasks(cmd.Context(), strings.Join(args, " "), writeDate)
		if err != nil {
			return err
		}
		reportResult(res)
		return nil
	},
}

var meetingCmd = &cobra.Command{
	Use:   "meeting <text>",
	Short: "Summarize meeting notes into a structured recap",
	Long: `Summarize raw meeting notes into a structured recap with decisions,
participants, and action items. Action items are chained into the
day's task list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		if dryRun {
			ui.DryRunMsg("Would summarize and save a meeting")
			return nil
		}
		res, err := a.SummarizeMeeting(cmd.Context(), strings.Join(args, " "), writeDate)
		if err != nil {
			return err
		}
		reportResult(res)
		return nil
	},
}

var tasksPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the week's unchecked task items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getAssistant()
		if err != nil {
			return err
		}
		tasks, err := a.PendingTasks(cmd.Context(), writeDate)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			ui.Info("No pending tasks this week")
			return nil
		}
		for _, task := range tasks {
			fmt.Fprintf(ui.Out, "- [ ] %s\n", task)
		}
		return nil
	},
}

func reportResult(res router.Result) {
	switch res.Status {
	case router.StatusSuccess:
		ui.Success("%s", res.Message)
	case router.StatusPartial:
		ui.Warning("%s (%s)", res.Message, res.Reason)
	default:
		ui.Error("%s", res.Reason)
	}
	for _, f := range res.Files {
		ui.Info("wrote %s", f)
	}
}

func init() {
	for _, c := range []*cobra.Command{noteCmd, tasksCmd, meetingCmd} {
		c.Flags().StringVar(&writeDate, "date", "", "Backfill date (YYYY-MM-DD), defaults to today")
	}
	noteCmd.Flags().StringVar(&noteCategory, "category", "", "Note category (e.g. Learning, Ideas)")
	tasksPendingCmd.Flags().StringVar(&writeDate, "date", "", "Week selector (YYYY-MM-DD), defaults to today")
	tasksCmd.AddCommand(tasksPendingCmd)

	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(meetingCmd)
}
