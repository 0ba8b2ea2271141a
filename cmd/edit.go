package cmd

import (
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/output"
	"github.com/baflo/kanbn-sub002/internal/task"
)

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a task",
	Long: `Updates a task's metadata, description, sub-tasks, relations and
comments. Only the flags given are changed. Use --name to rename the task,
which also changes its id.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("name", "", "new task name (renames the task)")
	editCmd.Flags().String("description", "", "task description (markdown)")
	editCmd.Flags().String("assigned", "", "assignee (empty to clear)")
	editCmd.Flags().StringSlice("tags", nil, "replace tags (comma-separated)")
	editCmd.Flags().StringSlice("add-tag", nil, "add tags")
	editCmd.Flags().StringSlice("remove-tag", nil, "remove tags")
	editCmd.Flags().String("due", "", "due date (empty to clear)")
	editCmd.Flags().Float64("progress", 0, "progress between 0 and 1")
	editCmd.Flags().StringArray("sub-task", nil, "add a sub-task (repeatable)")
	editCmd.Flags().IntSlice("complete", nil, "mark sub-tasks complete by 1-based number")
	editCmd.Flags().StringArray("relation", nil, "add a relation as [TYPE:]ID (repeatable)")
	editCmd.Flags().StringSlice("remove-relation", nil, "remove relations to these ids")
	editCmd.Flags().StringArray("field", nil, "set a custom field as NAME=VALUE (repeatable)")
	editCmd.Flags().String("comment", "", "add a comment")
	editCmd.Flags().String("author", "", "comment author")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	id := args[0]

	if name, _ := cmd.Flags().GetString("name"); cmd.Flags().Changed("name") {
		if id, err = r.RenameTask(id, name); err != nil {
			return err
		}
	}

	x, err := r.LoadIndex()
	if err != nil {
		return err
	}

	t, err := r.UpdateTask(id, func(t *task.Task) error {
		if err := applyTaskFlags(cmd, t, x.Options); err != nil {
			return err
		}
		applyEditFlags(cmd, t)
		return nil
	})
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		column, _ := x.Find(t.ID)
		return output.JSON(os.Stdout, board.Track(t, column, x.Options, time.Now()))
	}
	output.Messagef(os.Stdout, "Updated task %s", t.ID)
	return nil
}

// applyEditFlags handles the flags only edit has.
func applyEditFlags(cmd *cobra.Command, t *task.Task) {
	flags := cmd.Flags()

	add, _ := flags.GetStringSlice("add-tag")
	for _, tag := range add {
		if !t.HasTag(tag) {
			t.Metadata.Tags = append(t.Metadata.Tags, tag)
		}
	}
	remove, _ := flags.GetStringSlice("remove-tag")
	t.Metadata.Tags = slices.DeleteFunc(t.Metadata.Tags, func(tag string) bool {
		return slices.Contains(remove, tag)
	})

	complete, _ := flags.GetIntSlice("complete")
	for _, n := range complete {
		if n >= 1 && n <= len(t.SubTasks) {
			t.SubTasks[n-1].Completed = true
		} else {
			logger.Warn("no such sub-task", "task", t.ID, "number", n)
		}
	}

	unrelate, _ := flags.GetStringSlice("remove-relation")
	t.Relations = slices.DeleteFunc(t.Relations, func(r task.Relation) bool {
		return slices.Contains(unrelate, r.Task)
	})

	if text, _ := flags.GetString("comment"); text != "" {
		author, _ := flags.GetString("author")
		now := time.Now()
		t.Comments = append(t.Comments, task.Comment{Text: text, Author: author, Date: &now})
	}
}
