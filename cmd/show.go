package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/output"
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show task details",
	Long: `Displays full details of a single task: metadata, workload, due status,
sub-tasks, relations, comments and its rendered description.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	x, err := r.LoadIndex()
	if err != nil {
		return err
	}
	t, err := r.LoadTask(args[0])
	if err != nil {
		return err
	}

	column, ok := x.Find(t.ID)
	if !ok {
		logger.Warn("task is not on the board", "task", t.ID)
	}
	tracked := board.Track(t, column, x.Options, time.Now())

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, tracked)
	}
	if format == output.FormatCompact {
		output.TaskDetailCompact(os.Stdout, tracked)
		return nil
	}

	output.TaskDetail(os.Stdout, tracked, x.Options)
	return nil
}
