package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"

	"github.com/baflo/kanbn-sub002/internal/clierr"
)

const (
	fileMode = 0o600
	dirMode  = 0o750
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("no board found (run 'kanbn init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config locates the board documents and optionally manages the board's
// options outside the index.
type Config struct {
	Version  int    `yaml:"version" toml:"version"`
	MainFile string `yaml:"main_file" toml:"main_file"`
	TasksDir string `yaml:"tasks_dir" toml:"tasks_dir"`
	// Format is the index format written for new boards (1 or 2).
	Format int `yaml:"format,omitempty" toml:"format,omitempty"`
	// Options, when set, are externally managed: they seed index decoding
	// and are never written back into the index.
	Options map[string]any `yaml:"options,omitempty" toml:"options,omitempty"`

	// Version 1 keys, folded into MainFile and TasksDir by migrate.
	LegacyMainFile string `yaml:"mainFile,omitempty" toml:"mainFile,omitempty"`
	LegacyTasksDir string `yaml:"tasksDir,omitempty" toml:"tasksDir,omitempty"`

	// dir is the absolute path to the board directory (not serialized).
	dir string
	// file is the config file name the config was read from, if any.
	file string
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Version:  CurrentVersion,
		MainFile: DefaultMainFile,
		TasksDir: DefaultTasksDir,
	}
}

// Dir returns the absolute path to the board directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the board directory path on the config.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// MainPath returns the absolute path to the index document.
func (c *Config) MainPath() string {
	return filepath.Join(c.dir, c.MainFile)
}

// TasksPath returns the absolute path to the tasks directory.
func (c *Config) TasksPath() string {
	return filepath.Join(c.dir, c.TasksDir)
}

// ConfigPath returns the absolute path to the config file. Boards without a
// config file report the YAML location.
func (c *Config) ConfigPath() string {
	name := c.file
	if name == "" {
		name = ConfigFileName
	}
	return filepath.Join(c.dir, name)
}

// ExternalOptions reports whether the board's options live in the config
// file rather than the index.
func (c *Config) ExternalOptions() bool {
	return len(c.Options) > 0
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.MainFile == "" {
		return fmt.Errorf("%w: main_file is required", ErrInvalid)
	}
	if c.TasksDir == "" {
		return fmt.Errorf("%w: tasks_dir is required", ErrInvalid)
	}
	for _, p := range []string{c.MainFile, c.TasksDir} {
		if filepath.IsAbs(p) || strings.HasPrefix(filepath.Clean(p), "..") {
			return fmt.Errorf("%w: %q must stay inside the board directory", ErrInvalid, p)
		}
	}
	if c.Format != 0 && c.Format != 1 && c.Format != 2 {
		return fmt.Errorf("%w: format must be 1 or 2, got %d", ErrInvalid, c.Format)
	}
	return nil
}

// Init creates the board directory under root and its tasks subdirectory.
// It does not write a config file; boards run on defaults until one is
// saved.
func Init(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault()
	cfg.SetDir(filepath.Join(absRoot, DefaultDir))
	if _, err := os.Stat(cfg.MainPath()); err == nil {
		return nil, clierr.Newf(clierr.BoardAlreadyExists, "a board already exists in %s", cfg.Dir())
	}
	if err := os.MkdirAll(cfg.TasksPath(), dirMode); err != nil {
		return nil, fmt.Errorf("creating tasks directory: %w", err)
	}
	return cfg, nil
}

// Save writes the config to its config file, in TOML if it was read from
// TOML and YAML otherwise.
func (c *Config) Save() error {
	var (
		data []byte
		err  error
	)
	if c.file == TOMLConfigFileName {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads and validates the config of the given board directory. A board
// without a config file gets the defaults.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if fi, err := os.Stat(absDir); err != nil || !fi.IsDir() {
		return nil, ErrNotFound
	}

	cfg := NewDefault()
	cfg.Version = 0
	found, err := readConfigFile(cfg, absDir)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg.Version = CurrentVersion
	}
	cfg.dir = absDir

	// Migrate old config versions forward before validating.
	oldVersion := cfg.Version
	if err := migrate(cfg); err != nil {
		return nil, err
	}

	// Persist migrated config so future loads skip re-migration.
	if found && cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfigFile decodes config.yml, or failing that config.toml, into cfg.
func readConfigFile(cfg *Config, dir string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName)) //nolint:gosec // config path from trusted source
	switch {
	case err == nil:
		cfg.file = ConfigFileName
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return false, fmt.Errorf("parsing config: %w", err)
		}
		return true, nil
	case !os.IsNotExist(err):
		return false, fmt.Errorf("reading config: %w", err)
	}

	path := filepath.Join(dir, TOMLConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	cfg.file = TOMLConfigFileName
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("parsing config: %w", err)
	}
	return true, nil
}

// FindDir walks upward from startDir looking for a board directory.
// Returns the absolute path to the board directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, DefaultDir)
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			return candidate, nil
		}

		// Also check if we're inside the board directory itself.
		if filepath.Base(dir) == DefaultDir {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", clierr.New(clierr.BoardNotFound, ErrNotFound.Error())
		}
		dir = parent
	}
}
