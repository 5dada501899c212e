// Package tileset keeps the named tile catalogs available to solve
// requests, loaded from a directory of YAML files and optionally hot
// reloaded when those files change.
package tileset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Le-Vincent56/Procedural-Generation/internal/wfc"
)

// Store holds the loaded catalogs keyed by catalog name. All methods
// are safe for concurrent use; solve requests read catalogs while the
// watcher goroutine replaces them.
type Store struct {
	dir string

	mu       sync.RWMutex
	catalogs map[string]*wfc.Catalog
	byFile   map[string]string // file path -> catalog name it provided
}

// NewStore loads every catalog file under dir. A malformed catalog at
// startup is a hard error; operators should not boot on a partial set.
func NewStore(dir string) (*Store, error) {
	s := &Store{
		dir:      dir,
		catalogs: make(map[string]*wfc.Catalog),
		byFile:   make(map[string]string),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read catalog directory: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !isCatalogFile(entry.Name()) {
			continue
		}
		if err := s.loadFile(filepath.Join(s.dir, entry.Name())); err != nil {
			return err
		}
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("no catalog files found in %s", s.dir)
	}
	return nil
}

// loadFile parses one catalog file and installs it, replacing whatever
// catalog the same file provided before.
func (s *Store) loadFile(path string) error {
	catalog, err := wfc.LoadCatalog(path)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", filepath.Base(path), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if previous, ok := s.byFile[path]; ok && previous != catalog.Name() {
		delete(s.catalogs, previous)
	}
	s.catalogs[catalog.Name()] = catalog
	s.byFile[path] = catalog.Name()
	return nil
}

// drop removes the catalog a deleted file provided
func (s *Store) drop(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.byFile[path]
	if !ok {
		return "", false
	}
	delete(s.byFile, path)
	delete(s.catalogs, name)
	return name, true
}

// Get returns the catalog with the given name
func (s *Store) Get(name string) (*wfc.Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.catalogs[name]
	return c, ok
}

// Names returns the loaded catalog names in sorted order
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.catalogs))
	for name := range s.catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded catalogs
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.catalogs)
}

func isCatalogFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
