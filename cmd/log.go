package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/output"
	"github.com/baflo/kanbn-sub002/internal/repo"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent board activity",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().IntP("limit", "n", 20, "number of entries to show (0 for all)") //nolint:mnd // default page size
	logCmd.Flags().String("task", "", "only show entries for this task")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return clierr.Newf(clierr.InvalidInput, "limit must be non-negative, got %d", limit)
	}
	taskID, _ := cmd.Flags().GetString("task")

	readLimit := limit
	if taskID != "" {
		readLimit = 0
	}
	entries, err := repo.ReadLog(r.Dir(), readLimit)
	if err != nil {
		return err
	}
	if taskID != "" {
		entries = filterLog(entries, taskID, limit)
	}

	if outputFormat() == output.FormatJSON {
		if entries == nil {
			entries = []repo.LogEntry{}
		}
		return output.JSON(os.Stdout, entries)
	}
	output.LogTable(os.Stdout, entries, time.Now())
	return nil
}

// filterLog keeps the last limit entries for taskID.
func filterLog(entries []repo.LogEntry, taskID string, limit int) []repo.LogEntry {
	var out []repo.LogEntry
	for _, e := range entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
