package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/config"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/output"
	"github.com/baflo/kanbn-sub002/internal/repo"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify board configuration",
	Long: `View the full configuration, get a specific key, or set a writable value.
Keys prefixed with board. live in the index document; the rest live in the
config file.`,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key. Index keys are
// read from and written to the index document.
type configAccessor struct {
	get      func(*config.Config, *index.Index) any
	set      func(*config.Config, *index.Index, string) error
	index    bool
	writable bool
}

func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config, _ *index.Index) any { return c.Version },
		},
		"dir": {
			get: func(c *config.Config, _ *index.Index) any { return c.Dir() },
		},
		"main_file": {
			get: func(c *config.Config, _ *index.Index) any { return c.MainFile },
		},
		"tasks_dir": {
			get: func(c *config.Config, _ *index.Index) any { return c.TasksDir },
		},
		"format": {
			get: func(c *config.Config, _ *index.Index) any { return c.Format },
			set: func(c *config.Config, _ *index.Index, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput, "invalid format %q: must be 1 or 2", v)
				}
				c.Format = n
				return nil // validation handles range check
			},
			writable: true,
		},
		"options": {
			get: func(c *config.Config, _ *index.Index) any {
				if !c.ExternalOptions() {
					return "--"
				}
				keys := make([]string, 0, len(c.Options))
				for k := range c.Options {
					keys = append(keys, k)
				}
				slices.Sort(keys)
				return keys
			},
		},
		"board.name": {
			get: func(_ *config.Config, x *index.Index) any { return x.Name },
			set: func(_ *config.Config, x *index.Index, v string) error {
				if strings.TrimSpace(v) == "" {
					return clierr.New(clierr.InvalidInput, "board name cannot be empty")
				}
				x.Name = v
				return nil
			},
			index:    true,
			writable: true,
		},
		"board.description": {
			get:      func(_ *config.Config, x *index.Index) any { return x.Description },
			set:      func(_ *config.Config, x *index.Index, v string) error { x.Description = v; return nil },
			index:    true,
			writable: true,
		},
		"board.columns": {
			get:   func(_ *config.Config, x *index.Index) any { return x.ColumnNames() },
			index: true,
		},
		"board.format": {
			get:   func(_ *config.Config, x *index.Index) any { return int(x.Options.Version()) },
			index: true,
		},
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"dir",
		"main_file",
		"tasks_dir",
		"format",
		"options",
		"board.name",
		"board.description",
		"board.columns",
		"board.format",
	}
}

func loadConfigTarget() (*repo.Repo, *index.Index, error) {
	r, err := openRepo()
	if err != nil {
		return nil, nil, err
	}
	x, err := r.LoadIndex()
	if err != nil {
		return nil, nil, err
	}
	return r, x, nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	r, x, err := loadConfigTarget()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(r.Config(), x)
		}
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		val := accessors[key].get(r.Config(), x)
		fmt.Fprintf(os.Stdout, "%-20s %v\n", key, formatConfigValue(val))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	r, x, err := loadConfigTarget()
	if err != nil {
		return err
	}

	key := args[0]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}

	val := acc.get(r.Config(), x)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}

	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	cfg := r.Config()
	var result any
	if acc.index {
		err = r.UpdateIndex(func(x *index.Index) error {
			if err := acc.set(cfg, x, value); err != nil {
				return err
			}
			result = acc.get(cfg, x)
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		if err := acc.set(cfg, nil, value); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return clierr.Wrap(clierr.InvalidInput, "invalid config", err)
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		result = acc.get(cfg, nil)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": result})
	}

	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(result))
	return nil
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case []string:
		if len(v) == 0 {
			return "--"
		}
		return strings.Join(v, ", ")
	case string:
		if v == "" {
			return "--"
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
