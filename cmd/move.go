package cmd

import (
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/output"
	"github.com/baflo/kanbn-sub002/internal/repo"
)

var moveCmd = &cobra.Command{
	Use:   "move ID[,ID,...] [COLUMN]",
	Short: "Move a task to a different column",
	Long: `Moves a task to another column. Provide the column directly, or use
--next/--prev to move along the board's column order. Moving into a started
or completed column records the task's started or completed date.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.RangeArgs(1, 2), //nolint:mnd // 1 or 2 positional args
	RunE: runMove,
}

func init() {
	moveCmd.Flags().Bool("next", false, "move to the next column")
	moveCmd.Flags().Bool("prev", false, "move to the previous column")
	moveCmd.Flags().IntP("position", "p", -1, "zero-based position in the target column (default: end)")
	moveCmd.MarkFlagsMutuallyExclusive("next", "prev")
	rootCmd.AddCommand(moveCmd)
}

// moveResult is the JSON shape of a single move.
type moveResult struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Changed bool   `json:"changed"`
}

func runMove(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	r, err := openRepo()
	if err != nil {
		return err
	}

	if len(ids) == 1 {
		res, err := executeMove(r, ids[0], cmd, args)
		if err != nil {
			return err
		}
		return outputMoveResult(res)
	}

	return runBatch(ids, func(id string) error {
		_, err := executeMove(r, id, cmd, args)
		return err
	})
}

// executeMove resolves the target column and moves one task. Moving a task
// to the column it is already in, without a position, is a no-op.
func executeMove(r *repo.Repo, id string, cmd *cobra.Command, args []string) (moveResult, error) {
	x, err := r.LoadIndex()
	if err != nil {
		return moveResult{}, err
	}
	from, ok := x.Find(id)
	if !ok {
		return moveResult{}, clierr.Newf(clierr.TaskNotFound, "task %q is not on the board", id).
			WithDetails(map[string]any{"id": id})
	}

	to, err := resolveTargetColumn(cmd, args, x, from)
	if err != nil {
		return moveResult{}, err
	}
	position, _ := cmd.Flags().GetInt("position")

	res := moveResult{ID: id, From: from, To: to}
	if from == to && !cmd.Flags().Changed("position") {
		return res, nil
	}
	if err := r.MoveTask(id, to, position); err != nil {
		return moveResult{}, err
	}
	res.Changed = true
	return res, nil
}

func resolveTargetColumn(cmd *cobra.Command, args []string, x *index.Index, from string) (string, error) {
	next, _ := cmd.Flags().GetBool("next")
	prev, _ := cmd.Flags().GetBool("prev")
	names := x.ColumnNames()
	idx := slices.Index(names, from)

	switch {
	case len(args) == 2: //nolint:mnd // positional arg
		if _, ok := x.Column(args[1]); !ok {
			return "", clierr.Newf(clierr.ColumnNotFound, "column %q does not exist", args[1]).
				WithDetails(map[string]any{"column": args[1], "columns": names})
		}
		return args[1], nil
	case next:
		if idx >= len(names)-1 {
			return "", clierr.Newf(clierr.InvalidInput, "task is already in the last column %q", from)
		}
		return names[idx+1], nil
	case prev:
		if idx <= 0 {
			return "", clierr.Newf(clierr.InvalidInput, "task is already in the first column %q", from)
		}
		return names[idx-1], nil
	case cmd.Flags().Changed("position"):
		return from, nil
	default:
		return "", clierr.New(clierr.InvalidInput, "provide a target column or use --next/--prev")
	}
}

func outputMoveResult(res moveResult) error {
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, res)
	}
	if !res.Changed {
		output.Messagef(os.Stdout, "Task %s is already in %s", res.ID, res.To)
		return nil
	}
	output.Messagef(os.Stdout, "Moved task %s: %s -> %s", res.ID, res.From, res.To)
	return nil
}
