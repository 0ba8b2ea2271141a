package cmd

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/output"
	"github.com/baflo/kanbn-sub002/internal/task"
)

var addCmd = &cobra.Command{
	Use:     "add NAME",
	Aliases: []string{"create"},
	Short:   "Add a task to the board",
	Long: `Creates a task document and appends it to a column (the first column by
default). The task id is derived from its name.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringP("column", "c", "", "column to add the task to (default: first column)")
	addCmd.Flags().String("description", "", "task description (markdown)")
	addCmd.Flags().String("assigned", "", "assignee")
	addCmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	addCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "tag":
			name = "tags"
		case "assignee":
			name = "assigned"
		}
		return pflag.NormalizedName(name)
	})
	addCmd.Flags().String("due", "", "due date (e.g. 2024-05-01, next friday)")
	addCmd.Flags().Float64("progress", 0, "progress between 0 and 1")
	addCmd.Flags().StringArray("sub-task", nil, "sub-task text (repeatable)")
	addCmd.Flags().StringArray("relation", nil, "related task as [TYPE:]ID (repeatable)")
	addCmd.Flags().StringArray("field", nil, "custom field as NAME=VALUE (repeatable)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	x, err := r.LoadIndex()
	if err != nil {
		return err
	}

	t := &task.Task{Name: args[0]}
	if err := applyTaskFlags(cmd, t, x.Options); err != nil {
		return err
	}

	column, _ := cmd.Flags().GetString("column")
	if err := r.AddTask(t, column); err != nil {
		return err
	}

	if column == "" {
		column = x.Columns[0].Name
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, board.Track(t, column, x.Options, time.Now()))
	}
	output.Messagef(os.Stdout, "Added task %s to %s", t.ID, column)
	return nil
}

// applyTaskFlags copies the task flags shared by add and edit onto t.
func applyTaskFlags(cmd *cobra.Command, t *task.Task, o index.Options) error {
	flags := cmd.Flags()

	if flags.Changed("description") {
		t.Description, _ = flags.GetString("description")
	}
	if flags.Changed("assigned") {
		t.Metadata.Assigned, _ = flags.GetString("assigned")
	}
	if flags.Changed("tags") {
		t.Metadata.Tags, _ = flags.GetStringSlice("tags")
	}
	if flags.Changed("due") {
		s, _ := flags.GetString("due")
		if s == "" {
			t.Metadata.Due = nil
		} else {
			d, err := parseDate("due", s)
			if err != nil {
				return err
			}
			t.Metadata.Due = &d
		}
	}
	if flags.Changed("progress") {
		p, _ := flags.GetFloat64("progress")
		if err := task.ValidateProgress(p); err != nil {
			return err
		}
		t.Metadata.Progress = &p
	}

	subTasks, _ := flags.GetStringArray("sub-task")
	for _, s := range subTasks {
		t.SubTasks = append(t.SubTasks, task.SubTask{Text: s})
	}

	relations, _ := flags.GetStringArray("relation")
	for _, rel := range relations {
		t.Relations = append(t.Relations, parseRelation(rel))
	}

	fields, _ := flags.GetStringArray("field")
	for _, f := range fields {
		name, value, err := parseCustomField(f, o)
		if err != nil {
			return err
		}
		if t.Metadata.Custom == nil {
			t.Metadata.Custom = make(map[string]any)
		}
		t.Metadata.Custom[name] = value
	}
	return nil
}

// parseRelation splits "[TYPE:]ID".
func parseRelation(s string) task.Relation {
	if typ, id, ok := strings.Cut(s, ":"); ok {
		return task.Relation{Type: strings.TrimSpace(typ), Task: strings.TrimSpace(id)}
	}
	return task.Relation{Task: strings.TrimSpace(s)}
}

// parseCustomField splits NAME=VALUE and converts VALUE to the declared
// field type.
func parseCustomField(s string, o index.Options) (string, any, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, clierr.Newf(clierr.InvalidInput, "invalid field %q (expected NAME=VALUE)", s)
	}
	field, declared := o.CustomField(name)
	if !declared {
		return name, raw, nil
	}

	switch field.Type {
	case index.FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", nil, clierr.Newf(clierr.InvalidInput, "field %q expects a number, got %q", name, raw)
		}
		return name, n, nil
	case index.FieldBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", nil, clierr.Newf(clierr.InvalidInput, "field %q expects a boolean, got %q", name, raw)
		}
		return name, b, nil
	case index.FieldDate:
		d, err := parseDate(name, raw)
		if err != nil {
			return "", nil, err
		}
		return name, date.Format(d), nil
	}
	return name, raw, nil
}
