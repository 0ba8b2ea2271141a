// Package repo reads and writes board documents on disk and performs the
// mutations the CLI exposes.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/config"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/filelock"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

const (
	fileMode     = 0o600
	lockFileName = ".lock"
	lockTimeout  = 10 * time.Second
)

// Repo is a board on disk.
type Repo struct {
	cfg    *config.Config
	logger *log.Logger
	parser date.Parser
	now    func() time.Time
}

// Option configures a Repo.
type Option func(*Repo)

// WithLogger sets the logger for load and save diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Repo) { r.logger = l }
}

// WithClock overrides the time source used for document dates.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// WithDateParser overrides the natural-language date parser.
func WithDateParser(p date.Parser) Option {
	return func(r *Repo) { r.parser = p }
}

func newRepo(cfg *config.Config, opts []Option) *Repo {
	r := &Repo{cfg: cfg, logger: log.Default(), parser: date.Default, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open loads the board in dir.
func Open(dir string, opts ...Option) (*Repo, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, clierr.New(clierr.BoardNotFound, err.Error())
		}
		return nil, err
	}
	r := newRepo(cfg, opts)
	if _, err := os.Stat(cfg.MainPath()); err != nil {
		return nil, clierr.Newf(clierr.BoardNotFound, "no index found at %s", cfg.MainPath())
	}
	r.logger.Debug("opened board", "dir", cfg.Dir())
	return r, nil
}

// InitOptions describes a new board.
type InitOptions struct {
	Description string
	// Columns defaults to config.DefaultColumns.
	Columns []string
	// Format is the index format to write; V1 when zero.
	Format index.FormatVersion
}

// Init creates a board under root.
func Init(root, name string, o InitOptions, opts ...Option) (*Repo, error) {
	if name == "" {
		return nil, clierr.New(clierr.InvalidInput, "board name is required")
	}
	cfg, err := config.Init(root)
	if err != nil {
		return nil, err
	}
	r := newRepo(cfg, opts)

	columns := o.Columns
	if len(columns) == 0 {
		columns = config.DefaultColumns
	}
	x := &index.Index{Name: name, Description: o.Description}
	for _, c := range columns {
		if err := x.AddColumn(c); err != nil {
			return nil, err
		}
	}
	if o.Format == index.V2 {
		v := int(index.V2)
		x.Options.IndexVersion = &v
	}

	if err := r.writeIndex(x); err != nil {
		return nil, err
	}
	r.logMutation(ActionInit, "", name)
	return r, nil
}

// Config returns the board configuration.
func (r *Repo) Config() *config.Config {
	return r.cfg
}

// Dir returns the board directory.
func (r *Repo) Dir() string {
	return r.cfg.Dir()
}

// withLock runs fn while holding the board's write lock.
func (r *Repo) withLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	unlock, err := filelock.Lock(ctx, filepath.Join(r.cfg.Dir(), lockFileName))
	if err != nil {
		return fmt.Errorf("locking board: %w", err)
	}
	defer func() {
		if err := unlock(); err != nil {
			r.logger.Warn("releasing board lock", "err", err)
		}
	}()
	return fn()
}

// LoadIndex reads and decodes the index document.
func (r *Repo) LoadIndex() (*index.Index, error) {
	data, err := os.ReadFile(r.cfg.MainPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, clierr.Newf(clierr.BoardNotFound, "no index found at %s", r.cfg.MainPath())
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}
	x, err := index.Decode(string(data),
		index.WithOptions(r.cfg.Options),
		index.WithDateParser(r.parser),
		index.WithNow(r.now()),
	)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded index", "name", x.Name, "columns", len(x.Columns))
	return x, nil
}

// SaveIndex reapplies column sorting and writes the index document.
func (r *Repo) SaveIndex(x *index.Index) error {
	if len(x.Options.ColumnSorting) > 0 {
		tasks, err := r.LoadTasks()
		if err != nil {
			return err
		}
		if err := SortColumns(x, tasks, r.now()); err != nil {
			return err
		}
	}
	return r.writeIndex(x)
}

func (r *Repo) writeIndex(x *index.Index) error {
	opts := []index.EncodeOption{index.WithTasksDir(r.cfg.TasksDir)}
	if r.cfg.ExternalOptions() {
		opts = append(opts, index.WithExternalOptions())
	}
	text, err := index.Encode(x, x.Options.Version(), opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.cfg.MainPath(), []byte(text), fileMode); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	r.logger.Debug("saved index", "path", r.cfg.MainPath())
	return nil
}

// SortColumns orders every column named in columnSorting by its sorters.
// Ids without a loaded task keep their relative order after the sorted ones.
func SortColumns(x *index.Index, tasks []*task.Task, now time.Time) error {
	byID := make(map[string]*task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	qo := board.QueryOptions{Options: x.Options, Now: now}

	for i := range x.Columns {
		c := &x.Columns[i]
		sorters, ok := x.Options.ColumnSorting[c.Name]
		if !ok || len(sorters) == 0 {
			continue
		}
		var (
			tracked []*board.Tracked
			missing []string
		)
		for _, id := range c.Tasks {
			if t, ok := byID[id]; ok {
				tracked = append(tracked, board.Track(t, c.Name, x.Options, now))
			} else {
				missing = append(missing, id)
			}
		}
		sorted, err := board.Sort(tracked, sorters, qo)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(c.Tasks))
		for _, t := range sorted {
			ids = append(ids, t.ID)
		}
		c.Tasks = append(ids, missing...)
	}
	return nil
}

func (r *Repo) taskOptions() []task.Option {
	return []task.Option{task.WithDateParser(r.parser), task.WithNow(r.now())}
}

// LoadTask reads one task.
func (r *Repo) LoadTask(id string) (*task.Task, error) {
	path, err := task.FindByID(r.cfg.TasksPath(), id)
	if err != nil {
		return nil, err
	}
	return task.Read(path, r.taskOptions()...)
}

// LoadTasks reads every task document, skipping and logging malformed ones.
func (r *Repo) LoadTasks() ([]*task.Task, error) {
	tasks, warnings, err := task.ReadAllLenient(r.cfg.TasksPath(), r.taskOptions()...)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		r.logger.Warn("skipping malformed task file", "file", w.File, "err", w.Err)
	}
	r.logger.Debug("loaded tasks", "count", len(tasks))
	return tasks, nil
}

// TaskIDs lists the ids of every task document.
func (r *Repo) TaskIDs() ([]string, error) {
	return task.IDs(r.cfg.TasksPath())
}

// SaveTask stamps the task's updated date and writes it.
func (r *Repo) SaveTask(t *task.Task) error {
	t.Touch(r.now())
	text, err := task.Encode(t)
	if err != nil {
		return err
	}
	path := filepath.Join(r.cfg.TasksPath(), task.Filename(t.ID))
	if err := os.WriteFile(path, []byte(text), fileMode); err != nil {
		return fmt.Errorf("writing task: %w", err)
	}
	r.logger.Debug("saved task", "id", t.ID)
	return nil
}

// Load reads the index and every task.
func (r *Repo) Load() (*index.Index, []*task.Task, error) {
	x, err := r.LoadIndex()
	if err != nil {
		return nil, nil, err
	}
	tasks, err := r.LoadTasks()
	if err != nil {
		return nil, nil, err
	}
	return x, tasks, nil
}

// Tracked loads the board and hydrates every task.
func (r *Repo) Tracked() (*index.Index, []*board.Tracked, error) {
	x, tasks, err := r.Load()
	if err != nil {
		return nil, nil, err
	}
	return x, board.Hydrate(x, tasks, r.now()), nil
}
