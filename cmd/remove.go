package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/output"
	"github.com/baflo/kanbn-sub002/internal/repo"
)

var removeCmd = &cobra.Command{
	Use:     "remove ID[,ID,...]",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a task",
	Long: `Takes a task off the board and deletes its document. Prompts for
confirmation in interactive mode. Multiple IDs can be provided as a
comma-separated list (requires --yes).`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")
	removeCmd.Flags().Bool("keep-file", false, "only remove the task from the index")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	r, err := openRepo()
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	keepFile, _ := cmd.Flags().GetBool("keep-file")

	if len(ids) > 1 && !yes {
		return clierr.New(clierr.ConfirmationRequired, "batch remove requires --yes")
	}

	if len(ids) == 1 {
		return removeSingleTask(r, ids[0], yes, keepFile)
	}

	return runBatch(ids, func(id string) error {
		warnDependents(r, id)
		return r.RemoveTask(id, keepFile)
	})
}

func removeSingleTask(r *repo.Repo, id string, yes, keepFile bool) error {
	t, err := r.LoadTask(id)
	if err != nil && !clierr.HasCode(err, clierr.TaskNotFound) {
		return err
	}
	name := id
	if t != nil {
		name = t.Name
	}

	warnDependents(r, id)

	if !yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return clierr.New(clierr.ConfirmationRequired,
				"cannot prompt for confirmation (not a terminal); use --yes")
		}
		fmt.Fprintf(os.Stderr, "Remove task %s %q? [y/N] ", id, name)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(os.Stderr, "Canceled.")
			return nil
		}
	}

	if err := r.RemoveTask(id, keepFile); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status":   "removed",
			"id":       id,
			"name":     name,
			"keptFile": keepFile,
		})
	}

	output.Messagef(os.Stdout, "Removed task %s: %s", id, name)
	return nil
}

func warnDependents(r *repo.Repo, id string) {
	tasks, err := r.LoadTasks()
	if err != nil {
		logger.Warn("could not check dependents", "task", id, "err", err)
		return
	}
	for _, dep := range board.FindDependents(tasks, id) {
		logger.Warn("task references the removed task", "task", dep, "removed", id)
	}
}
