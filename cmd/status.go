package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/output"
)

// latestSprint is the --sprint value used when the flag is given bare.
const latestSprint = "latest"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show board statistics",
	Long: `Reports task counts and workload per column, with optional per-assignee
totals, due dates, a sprint report and a report for a date period.

--sprint takes a sprint number or name; given bare it reports on the latest
sprint. --date may be repeated: one date covers that day, several cover the
span between the earliest and the latest.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("untracked", false, "list task documents not on the board")
	statusCmd.Flags().Bool("assigned", false, "add per-assignee totals")
	statusCmd.Flags().Bool("due", false, "add due-date standing")
	statusCmd.Flags().String("sprint", "", "add a sprint report (number or name)")
	statusCmd.Flags().Lookup("sprint").NoOptDefVal = latestSprint
	statusCmd.Flags().StringArray("date", nil, "add a period report (repeatable)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	x, tasks, err := r.Load()
	if err != nil {
		return err
	}

	now := time.Now()
	opts := board.StatusOptions{Now: now}
	opts.Assigned, _ = cmd.Flags().GetBool("assigned")
	opts.Due, _ = cmd.Flags().GetBool("due")
	if cmd.Flags().Changed("sprint") {
		opts.Sprint = true
		opts.SprintSelector, _ = cmd.Flags().GetString("sprint")
		if opts.SprintSelector == latestSprint {
			opts.SprintSelector = ""
		}
	}
	rawDates, _ := cmd.Flags().GetStringArray("date")
	for _, s := range rawDates {
		d, err := parseDate("period", s)
		if err != nil {
			return err
		}
		opts.Dates = append(opts.Dates, d)
	}

	report, err := board.Status(x, tasks, opts)
	if err != nil {
		return err
	}

	if untracked, _ := cmd.Flags().GetBool("untracked"); untracked {
		ids, err := r.TaskIDs()
		if err != nil {
			return err
		}
		report.Untracked = board.Untracked(x, ids)
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, report)
	case output.FormatCompact:
		output.StatusCompact(os.Stdout, report)
		return nil
	}
	output.StatusTable(os.Stdout, report)
	return nil
}
