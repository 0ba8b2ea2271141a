package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/config"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/output"
	"github.com/baflo/kanbn-sub002/internal/repo"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new board",
	Long: `Creates a .kanbn directory with an index document and a tasks/ subdirectory
in the current directory (or --dir).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("name", "", "board name (defaults to current directory name)")
	initCmd.Flags().String("description", "", "board description")
	initCmd.Flags().StringSlice("columns", nil, "comma-separated list of columns")
	initCmd.Flags().Int("format", int(index.V1), "index format (1: heading lists, 2: table)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	root := flagDir
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = filepath.Base(absRoot)
	}
	description, _ := cmd.Flags().GetString("description")
	columns, _ := cmd.Flags().GetStringSlice("columns")
	format, _ := cmd.Flags().GetInt("format")
	if format != int(index.V1) && format != int(index.V2) {
		return clierr.Newf(clierr.InvalidInput, "invalid --format %d; valid: 1, 2", format)
	}

	r, err := repo.Init(absRoot, name, repo.InitOptions{
		Description: description,
		Columns:     columns,
		Format:      index.FormatVersion(format),
	}, repo.WithLogger(logger))
	if err != nil {
		return err
	}

	x, err := r.LoadIndex()
	if err != nil {
		return err
	}
	cfg := r.Config()

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{
			"status":  "initialized",
			"dir":     cfg.Dir(),
			"name":    name,
			"index":   cfg.MainPath(),
			"tasks":   cfg.TasksPath(),
			"columns": x.ColumnNames(),
		})
	}

	output.Messagef(os.Stdout, "Initialized board %q in %s", name, cfg.Dir())
	output.Messagef(os.Stdout, "  Index:   %s", cfg.MainPath())
	output.Messagef(os.Stdout, "  Tasks:   %s", cfg.TasksPath())
	output.Messagef(os.Stdout, "  Columns: %s", strings.Join(x.ColumnNames(), ", "))
	if columns == nil {
		output.Messagef(os.Stdout, "  Default columns used: %s", strings.Join(config.DefaultColumns, ", "))
	}
	return nil
}
