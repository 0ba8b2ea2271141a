package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/output"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Start or list sprints",
	Args:  cobra.NoArgs,
	RunE:  runSprintList,
}

var sprintAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Start a new sprint",
	Long: `Starts a new sprint. Each sprint runs until the next one starts, so the
start date must not precede the latest sprint's start.`,
	Args: cobra.ExactArgs(1),
	RunE: runSprintAdd,
}

var sprintListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sprints",
	Args:    cobra.NoArgs,
	RunE:    runSprintList,
}

func init() {
	sprintAddCmd.Flags().String("description", "", "sprint description")
	sprintAddCmd.Flags().String("start", "", "start date (defaults to now)")

	sprintCmd.AddCommand(sprintAddCmd)
	sprintCmd.AddCommand(sprintListCmd)
	rootCmd.AddCommand(sprintCmd)
}

func runSprintAdd(cmd *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	description, _ := cmd.Flags().GetString("description")
	var start time.Time
	if v, _ := cmd.Flags().GetString("start"); v != "" {
		if start, err = parseDate("start", v); err != nil {
			return err
		}
	}

	s, err := r.AddSprint(args[0], description, start)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, s)
	}
	output.Messagef(os.Stdout, "Started sprint %s on %s", s.Name, s.Start.Format("2006-01-02"))
	return nil
}

func runSprintList(_ *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	x, err := r.LoadIndex()
	if err != nil {
		return err
	}

	sprints := board.Sprints(x.Options, time.Now())

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, sprints)
	default:
		output.SprintTable(os.Stdout, sprints)
	}
	return nil
}
