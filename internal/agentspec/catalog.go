package agentspec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// ErrDuplicateID is returned by a strict Loader when two documents share an id.
var ErrDuplicateID = errors.New("duplicate agent id")

// DocumentPattern is the glob used to discover command documents.
const DocumentPattern = "**/*.md"

// Collision records two documents that produced the same agent id.
// Kept is the path whose spec ended up in the catalog.
type Collision struct {
	ID      string
	Kept    string
	Dropped string
}

// Catalog is an immutable set of agent specs keyed by id.
type Catalog struct {
	specs      map[string]AgentSpec
	collisions []Collision
	skipped    []string
}

// NewCatalog builds a catalog from specs. When two specs share an id the one
// with the lexicographically last SourcePath wins.
func NewCatalog(specs ...AgentSpec) *Catalog {
	c := &Catalog{specs: make(map[string]AgentSpec, len(specs))}
	for _, s := range specs {
		c.add(s)
	}
	return c
}

func (c *Catalog) add(s AgentSpec) *Collision {
	existing, ok := c.specs[s.ID]
	if !ok {
		c.specs[s.ID] = s
		return nil
	}

	col := Collision{ID: s.ID, Kept: existing.SourcePath, Dropped: s.SourcePath}
	if s.SourcePath > existing.SourcePath {
		c.specs[s.ID] = s
		col.Kept, col.Dropped = s.SourcePath, existing.SourcePath
	}
	c.collisions = append(c.collisions, col)
	return &col
}

// Get returns the spec with the given id.
func (c *Catalog) Get(id string) (AgentSpec, bool) {
	s, ok := c.specs[id]
	return s, ok
}

// Len returns the number of specs.
func (c *Catalog) Len() int {
	return len(c.specs)
}

// Map returns a copy of the id to spec mapping.
func (c *Catalog) Map() map[string]AgentSpec {
	out := make(map[string]AgentSpec, len(c.specs))
	for id, s := range c.specs {
		out[id] = s
	}
	return out
}

// Order returns agent ids in pipeline order.
func (c *Catalog) Order() []string {
	return PipelineOrder(c.specs)
}

// Specs returns all specs in pipeline order.
func (c *Catalog) Specs() []AgentSpec {
	ids := c.Order()
	out := make([]AgentSpec, len(ids))
	for i, id := range ids {
		out[i] = c.specs[id]
	}
	return out
}

// ByPhase groups agent ids by phase, each group sorted by id.
func (c *Catalog) ByPhase() map[Phase][]string {
	grouped := make(map[Phase][]string)
	for id, s := range c.specs {
		grouped[s.Phase] = append(grouped[s.Phase], id)
	}
	for _, ids := range grouped {
		sort.Strings(ids)
	}
	return grouped
}

// Collisions returns the id collisions seen while building the catalog.
func (c *Catalog) Collisions() []Collision {
	out := make([]Collision, len(c.collisions))
	copy(out, c.collisions)
	return out
}

// Skipped returns the paths of documents that could not be read.
func (c *Catalog) Skipped() []string {
	out := make([]string, len(c.skipped))
	copy(out, c.skipped)
	return out
}

// PipelineOrder sorts ids by (PhaseNumber, ID) ascending.
func PipelineOrder(specs map[string]AgentSpec) []string {
	list := make([]AgentSpec, 0, len(specs))
	for _, s := range specs {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].PhaseNumber != list[j].PhaseNumber {
			return list[i].PhaseNumber < list[j].PhaseNumber
		}
		return list[i].ID < list[j].ID
	})

	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

// Loader discovers and parses command documents.
type Loader struct {
	// Strict turns id collisions into ErrDuplicateID instead of a logged event.
	Strict bool

	logger   *zap.Logger
	readFile func(string) ([]byte, error)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for skipped documents and id collisions.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStrictIDs makes id collisions fatal.
func WithStrictIDs(strict bool) LoaderOption {
	return func(l *Loader) {
		l.Strict = strict
	}
}

// withReadFile replaces the file reader; used by tests to simulate read failures.
func withReadFile(fn func(string) ([]byte, error)) LoaderOption {
	return func(l *Loader) {
		l.readFile = fn
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		logger:   zap.NewNop(),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Discover returns every markdown document below root, sorted by path.
func (l *Loader) Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("commands directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("commands directory %s: not a directory", root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), DocumentPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir parses every command document below root. Documents that cannot be
// read are logged and skipped.
func (l *Loader) LoadDir(root string) (*Catalog, error) {
	paths, err := l.Discover(root)
	if err != nil {
		return nil, err
	}
	return l.LoadFiles(paths)
}

// ParseFile reads and parses the command document at path. Read failures
// are returned as *DocumentReadError.
func (l *Loader) ParseFile(path string) (AgentSpec, error) {
	data, err := l.readFile(path)
	if err != nil {
		return AgentSpec{}, &DocumentReadError{Path: path, Err: err}
	}
	return Parse(path, string(data)), nil
}

// LoadFiles parses the given documents independently.
func (l *Loader) LoadFiles(paths []string) (*Catalog, error) {
	c := NewCatalog()

	for _, path := range paths {
		spec, err := l.ParseFile(path)
		if err != nil {
			l.logger.Warn("Skipping unreadable command document",
				zap.String("path", path),
				zap.Error(err))
			c.skipped = append(c.skipped, path)
			continue
		}

		if col := c.add(spec); col != nil {
			if l.Strict {
				return nil, fmt.Errorf("%w %q: %s and %s", ErrDuplicateID, col.ID, col.Kept, col.Dropped)
			}
			l.logger.Warn("Duplicate agent id, keeping lexicographically last path",
				zap.String("id", col.ID),
				zap.String("kept", col.Kept),
				zap.String("dropped", col.Dropped))
		}

		l.logger.Debug("Parsed command document",
			zap.String("id", spec.ID),
			zap.String("phase", spec.Phase.String()),
			zap.Int("preparation", len(spec.preparation)),
			zap.Int("steps", len(spec.steps)))
	}

	return c, nil
}
