package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/output"
)

var findCmd = &cobra.Command{
	Use:     "find",
	Aliases: []string{"list", "ls", "search"},
	Short:   "Find tasks",
	Long: `Lists tasks matching every --filter, sorted by --sort.

Filters take FIELD=VALUE. String fields match VALUE as a case-insensitive
regular expression; repeat a filter to match any of several values. Date
fields match the given day, or the range spanned by several values. Number
fields match the value, or the range spanned by several values.

Sorters take FIELD or FIELD:desc, applied in order.

Fields: ` + strings.Join(board.FieldNames(), ", ") + ` and any custom field.`,
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringArrayP("filter", "f", nil, "filter as FIELD=VALUE (repeatable)")
	findCmd.Flags().StringArrayP("sort", "s", nil, "sort as FIELD[:asc|desc] (repeatable)")
	findCmd.Flags().String("view", "", "evaluate a saved view instead of a flat list")
	findCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	findCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	findCmd.Flags().Bool("untracked", false, "include task documents that are not on the board")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}
	x, tasks, err := r.Tracked()
	if err != nil {
		return err
	}

	if untracked, _ := cmd.Flags().GetBool("untracked"); !untracked {
		tasks = onBoard(tasks)
	}

	rawFilters, _ := cmd.Flags().GetStringArray("filter")
	filters, err := parseFilters(rawFilters)
	if err != nil {
		return err
	}
	rawSorters, _ := cmd.Flags().GetStringArray("sort")
	sorters, err := parseSorters(rawSorters)
	if err != nil {
		return err
	}
	opts := board.QueryOptions{Options: x.Options, Now: time.Now()}

	if view, _ := cmd.Flags().GetString("view"); view != "" {
		filtered, err := board.Filter(tasks, filters, opts)
		if err != nil {
			return err
		}
		v, err := board.ApplyView(x.Options, filtered, view, opts)
		if err != nil {
			return err
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, v)
		}
		output.ViewTable(os.Stdout, v, x.Options)
		return nil
	}

	found, err := board.FilterAndSort(tasks, filters, sorters, opts)
	if err != nil {
		return err
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	if groupBy, _ := cmd.Flags().GetString("group-by"); groupBy != "" {
		grouped, err := board.GroupBy(found, groupBy, x)
		if err != nil {
			return err
		}
		return outputGrouped(grouped)
	}

	return outputTaskList(found, x.Options)
}

// onBoard drops tasks that no column references.
func onBoard(tasks []*board.Tracked) []*board.Tracked {
	out := make([]*board.Tracked, 0, len(tasks))
	for _, t := range tasks {
		if t.Column != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseFilters turns FIELD=VALUE pairs into filters. Repeated fields
// collect their values into a list.
func parseFilters(pairs []string) (board.Filters, error) {
	filters := board.Filters{}
	for _, p := range pairs {
		field, value, ok := strings.Cut(p, "=")
		if !ok || field == "" {
			return nil, clierr.Newf(clierr.InvalidInput, "invalid filter %q (expected FIELD=VALUE)", p)
		}
		switch prev := filters[field].(type) {
		case nil:
			filters[field] = value
		case string:
			filters[field] = []string{prev, value}
		case []string:
			filters[field] = append(prev, value)
		}
	}
	return filters, nil
}

// parseSorters turns FIELD[:ORDER] into sorters.
func parseSorters(specs []string) ([]index.Sorter, error) {
	sorters := make([]index.Sorter, 0, len(specs))
	for _, s := range specs {
		field, order, _ := strings.Cut(s, ":")
		switch order {
		case "", "asc", index.Ascending:
			order = index.Ascending
		case "desc", index.Descending:
			order = index.Descending
		default:
			return nil, clierr.Newf(clierr.InvalidInput, "invalid sort order %q in %q (expected asc or desc)", order, s)
		}
		sorters = append(sorters, index.Sorter{Field: field, Order: order})
	}
	return sorters, nil
}

func outputGrouped(grouped board.GroupedSummary) error {
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, grouped)
	case output.FormatCompact:
		output.GroupedCompact(os.Stdout, grouped)
		return nil
	}
	output.GroupedTable(os.Stdout, grouped)
	return nil
}

func outputTaskList(tasks []*board.Tracked, o index.Options) error {
	format := outputFormat()
	if format == output.FormatJSON {
		if tasks == nil {
			tasks = []*board.Tracked{}
		}
		return output.JSON(os.Stdout, tasks)
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, tasks)
		return nil
	}

	output.TaskTable(os.Stdout, tasks, o)
	return nil
}
