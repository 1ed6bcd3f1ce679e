// Package knowledge loads and serves the migration knowledge base: the
// builtin and library type tables backing the mapper, the package
// equivalence catalog, idiom translations, and testing strategies.
//
// Defaults are compiled in via go:embed. A data directory, when
// configured, overrides individual files by name and can be hot
// reloaded while the server runs.
package knowledge

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
	"github.com/tsbridge/tsbridge/internal/typemap"
)

//go:embed data/*.json
var embedded embed.FS

// File names recognized in a data directory override.
const (
	builtinsFile   = "builtins.json"
	librariesFile  = "libraries.json"
	packagesFile   = "packages.json"
	idiomsFile     = "idioms.json"
	strategiesFile = "testing_strategies.json"
)

// Package describes a Python package and its TypeScript ecosystem
// equivalents.
type Package struct {
	PythonPackage   string   `json:"python_package"`
	TSEquivalents   []string `json:"ts_equivalents"`
	Confidence      string   `json:"confidence"`
	Notes           string   `json:"notes,omitempty"`
	MigrationEffort string   `json:"migration_effort"`
}

// Idiom is one Python construct paired with its idiomatic TypeScript
// translation.
type Idiom struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Python      string `json:"python"`
	TypeScript  string `json:"typescript"`
	Description string `json:"description"`
}

// Strategy is a testing approach recommendation for migrated code.
type Strategy struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	AppliesTo []string `json:"applies_to"`
	Strategy  string   `json:"strategy"`
	Tools     []string `json:"tools"`
	Notes     string   `json:"notes,omitempty"`
}

// tables is one immutable snapshot of every loaded table. Reload builds
// a fresh snapshot and swaps the pointer, so readers never see a
// half-updated state.
type tables struct {
	builtins   map[string]typemap.Entry
	libraries  map[string]map[string]typemap.Entry
	packages   []Package
	idioms     []Idiom
	strategies []Strategy
}

// Store is the knowledge base. It implements typemap.Table.
type Store struct {
	dataDir string
	logger  *slog.Logger

	mu    sync.RWMutex
	tab   *tables
	index *searchIndex
}

var _ typemap.Table = (*Store)(nil)

// New loads the knowledge base. dataDir may be empty, in which case
// only the embedded defaults are used.
func New(dataDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{dataDir: dataDir, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rebuilds every table and the search index from the embedded
// defaults plus any data directory overrides, then swaps them in
// atomically. Safe to call concurrently with readers.
func (s *Store) Reload() error {
	tab := &tables{}

	var g errgroup.Group
	g.Go(func() error { return s.loadFile(builtinsFile, &tab.builtins) })
	g.Go(func() error { return s.loadFile(librariesFile, &tab.libraries) })
	g.Go(func() error { return s.loadFile(packagesFile, &tab.packages) })
	g.Go(func() error { return s.loadFile(idiomsFile, &tab.idioms) })
	g.Go(func() error { return s.loadFile(strategiesFile, &tab.strategies) })
	if err := g.Wait(); err != nil {
		return err
	}

	if err := validateTables(tab); err != nil {
		return err
	}

	idx, err := buildIndex(tab)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.index
	s.tab = tab
	s.index = idx
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}

	s.logger.Info("knowledge base loaded",
		"builtins", len(tab.builtins),
		"library_modules", len(tab.libraries),
		"packages", len(tab.packages),
		"idioms", len(tab.idioms),
		"strategies", len(tab.strategies),
		"data_dir", s.dataDir,
	)
	return nil
}

// loadFile reads one table file, preferring the data directory override
// over the embedded default, and unmarshals it into dst.
func (s *Store) loadFile(name string, dst any) error {
	raw, source, err := s.readFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return tsberrors.New(tsberrors.ErrCodeDataCorrupt,
			fmt.Sprintf("knowledge file %s is not valid JSON", name), err).
			WithDetail("source", source)
	}
	return nil
}

func (s *Store) readFile(name string) (raw []byte, source string, err error) {
	if s.dataDir != "" {
		override := filepath.Join(s.dataDir, name)
		raw, err = os.ReadFile(override)
		if err == nil {
			return raw, override, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", tsberrors.New(tsberrors.ErrCodeDataNotFound,
				fmt.Sprintf("cannot read knowledge override %s", override), err)
		}
	}
	raw, err = embedded.ReadFile("data/" + name)
	if err != nil {
		return nil, "", tsberrors.New(tsberrors.ErrCodeDataNotFound,
			fmt.Sprintf("embedded knowledge file %s missing", name), err)
	}
	return raw, "embedded:" + name, nil
}

// validateTables rejects snapshots that would break lookups at query
// time: empty type tables and entries with no target name.
func validateTables(tab *tables) error {
	if len(tab.builtins) == 0 {
		return tsberrors.DataError("builtin type table is empty", nil)
	}
	for name, e := range tab.builtins {
		if e.TSName == "" {
			return tsberrors.DataError(fmt.Sprintf("builtin entry %q has no ts_name", name), nil)
		}
	}
	for module, entries := range tab.libraries {
		for name, e := range entries {
			if e.TSName == "" {
				return tsberrors.DataError(fmt.Sprintf("library entry %s.%s has no ts_name", module, name), nil)
			}
		}
	}
	return nil
}

func (s *Store) snapshot() *tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab
}

// Builtin implements typemap.Table.
func (s *Store) Builtin(name string) (typemap.Entry, bool) {
	e, ok := s.snapshot().builtins[name]
	return e, ok
}

// Qualified implements typemap.Table.
func (s *Store) Qualified(module, name string) (typemap.Entry, bool) {
	entries, ok := s.snapshot().libraries[module]
	if !ok {
		return typemap.Entry{}, false
	}
	e, ok := entries[name]
	return e, ok
}

// HasModule implements typemap.Table.
func (s *Store) HasModule(module string) bool {
	_, ok := s.snapshot().libraries[module]
	return ok
}

// BuiltinTable returns a copy of the builtin type table.
func (s *Store) BuiltinTable() map[string]typemap.Entry {
	tab := s.snapshot()
	out := make(map[string]typemap.Entry, len(tab.builtins))
	for k, v := range tab.builtins {
		out[k] = v
	}
	return out
}

// LibraryTable returns a copy of the qualified type table, keyed by
// module then name.
func (s *Store) LibraryTable() map[string]map[string]typemap.Entry {
	tab := s.snapshot()
	out := make(map[string]map[string]typemap.Entry, len(tab.libraries))
	for module, entries := range tab.libraries {
		inner := make(map[string]typemap.Entry, len(entries))
		for name, e := range entries {
			inner[name] = e
		}
		out[module] = inner
	}
	return out
}

// Packages returns the package equivalence catalog.
func (s *Store) Packages() []Package {
	return append([]Package(nil), s.snapshot().packages...)
}

// LookupPackage finds the catalog row for a Python package name.
func (s *Store) LookupPackage(name string) (Package, bool) {
	for _, p := range s.snapshot().packages {
		if p.PythonPackage == name {
			return p, true
		}
	}
	return Package{}, false
}

// Idioms returns the idiom translation table.
func (s *Store) Idioms() []Idiom {
	return append([]Idiom(nil), s.snapshot().idioms...)
}

// Strategies returns the testing strategy recommendations.
func (s *Store) Strategies() []Strategy {
	return append([]Strategy(nil), s.snapshot().strategies...)
}

// Close releases the search index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		err := s.index.Close()
		s.index = nil
		return err
	}
	return nil
}
