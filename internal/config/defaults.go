// Package config handles board configuration.
package config

const (
	// DefaultDir is the board directory name.
	DefaultDir = ".kanbn"
	// DefaultMainFile is the default index document name.
	DefaultMainFile = "index.md"
	// DefaultTasksDir is the default tasks subdirectory name.
	DefaultTasksDir = "tasks"

	// ConfigFileName is the YAML config file within the board directory.
	ConfigFileName = "config.yml"
	// TOMLConfigFileName is the TOML alternative to ConfigFileName.
	TOMLConfigFileName = "config.toml"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 2
)

// DefaultColumns are the columns of a freshly initialised board.
var DefaultColumns = []string{"Backlog", "Todo", "In Progress", "Done"}
