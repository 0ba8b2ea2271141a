package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/output"
	"github.com/baflo/kanbn-sub002/internal/repo"
	"github.com/baflo/kanbn-sub002/internal/watcher"
)

var flagWatch bool

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the board",
	Long: `Displays the board's columns side by side. Hidden columns are left out.

Use --view to display a saved view instead, or --group-by to list the tasks
grouped by column, assignee or tag.

Use --watch to keep the display live-updating. The board re-renders automatically
whenever the index or a task document changes on disk. Press Ctrl+C to stop.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "live-update the board on file changes")
	boardCmd.Flags().String("view", "", "show a saved view")
	boardCmd.Flags().String("group-by", "", "group board by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	boardCmd.MarkFlagsMutuallyExclusive("view", "group-by")
}

func runBoard(cmd *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	view, _ := cmd.Flags().GetString("view")
	groupBy, _ := cmd.Flags().GetString("group-by")

	if err := renderBoard(r, view, groupBy); err != nil {
		return err
	}

	if !flagWatch {
		return nil
	}

	return watchBoard(r, view, groupBy)
}

func renderBoard(r *repo.Repo, view, groupBy string) error {
	x, tasks, err := r.Tracked()
	if err != nil {
		return err
	}
	tasks = onBoard(tasks)

	switch {
	case groupBy != "":
		grouped, err := board.GroupBy(tasks, groupBy, x)
		if err != nil {
			return err
		}
		return outputGrouped(grouped)
	case view != "":
		v, err := board.ApplyView(x.Options, tasks, view, board.QueryOptions{Options: x.Options, Now: time.Now()})
		if err != nil {
			return err
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, v)
		}
		output.ViewTable(os.Stdout, v, x.Options)
		return nil
	}

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, map[string]any{
			"name":    x.Name,
			"columns": x.ColumnMap(),
			"tasks":   tasks,
		})
	case output.FormatCompact:
		counts := board.CountByColumn(x)
		fmt.Fprintln(os.Stdout, x.Name)
		for _, name := range x.ColumnNames() {
			if !x.Options.IsHidden(name) {
				fmt.Fprintf(os.Stdout, "  %s: %d\n", name, counts[name])
			}
		}
		return nil
	}

	output.BoardTable(os.Stdout, x, tasks)
	return nil
}

func watchBoard(r *repo.Repo, view, groupBy string) error {
	watchPaths := []string{r.Dir(), r.Config().TasksPath()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(watchPaths, func() {
		clearScreen()
		// Reopen so config and option changes are picked up.
		fresh, openErr := repo.Open(r.Dir(), repo.WithLogger(logger))
		if openErr != nil {
			logger.Warn("reloading board", "err", openErr)
			fresh = r
		}
		if renderErr := renderBoard(fresh, view, groupBy); renderErr != nil {
			logger.Warn("rendering board", "err", renderErr)
		}
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	logger.Info("watching for changes (Ctrl+C to stop)")

	w.Run(ctx, func(watchErr error) {
		logger.Warn("file watcher", "err", watchErr)
	})

	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
