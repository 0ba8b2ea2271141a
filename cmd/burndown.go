package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/output"
)

var burndownCmd = &cobra.Command{
	Use:   "burndown",
	Short: "Chart active workload over time",
	Long: `Computes burndown data points: the workload of tasks that have started
and not yet completed at each instant a task is created, started or completed.

Give one or more --sprint values for one series per sprint, or --date values
for a single series (one date runs to now; several span earliest to latest).
Without either, the series covers the latest sprint, or the whole board
history when there are no sprints.`,
	RunE: runBurndown,
}

func init() {
	burndownCmd.Flags().StringArray("sprint", nil, "sprint number or name (repeatable)")
	burndownCmd.Flags().StringArray("date", nil, "window bound (repeatable)")
	burndownCmd.Flags().String("assigned", "", "only chart tasks assigned to this person")
	burndownCmd.Flags().String("normalise", "", "round timestamps (auto, days, hours, minutes, seconds)")
	burndownCmd.Flags().Lookup("normalise").NoOptDefVal = string(date.Auto)
	burndownCmd.MarkFlagsMutuallyExclusive("sprint", "date")
	rootCmd.AddCommand(burndownCmd)
}

func runBurndown(cmd *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	x, tasks, err := r.Load()
	if err != nil {
		return err
	}

	opts := board.BurndownOptions{Now: time.Now()}
	opts.Sprints, _ = cmd.Flags().GetStringArray("sprint")
	opts.Assigned, _ = cmd.Flags().GetString("assigned")

	rawDates, _ := cmd.Flags().GetStringArray("date")
	for _, s := range rawDates {
		d, err := parseDate("burndown", s)
		if err != nil {
			return err
		}
		opts.Dates = append(opts.Dates, d)
	}

	normalise, _ := cmd.Flags().GetString("normalise")
	if opts.Normalise, err = date.ParseResolution(normalise); err != nil {
		return clierr.Wrap(clierr.InvalidInput, "--normalise", err)
	}

	report, err := board.Burndown(x, tasks, opts)
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, report)
	case output.FormatCompact:
		output.BurndownCompact(os.Stdout, report)
		return nil
	}
	output.BurndownTable(os.Stdout, report)
	return nil
}
