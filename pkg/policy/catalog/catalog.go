package catalog

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync/atomic"
	"time"
)

// Catalog is an immutable index of discovered rule modules: an arena of
// modules plus a package-name index. Once built it is read-only and safe
// to share across concurrent evaluation requests.
type Catalog struct {
	root     string
	modules  []Module
	index    map[string]int
	aliases  map[string]string
	version  string
	loadTime time.Time
}

// Root returns the catalog root directory.
func (c *Catalog) Root() string {
	return c.root
}

// Modules returns a copy of all cataloged modules, sorted by package name.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// Get retrieves a module by package name.
func (c *Catalog) Get(packageName string) (Module, bool) {
	i, ok := c.index[packageName]
	if !ok {
		return Module{}, false
	}
	return c.modules[i], true
}

// Len returns the number of cataloged modules.
func (c *Catalog) Len() int {
	return len(c.modules)
}

// Version returns the catalog content version. It changes whenever the
// set of modules or any module's content changes.
func (c *Catalog) Version() string {
	return c.version
}

// LoadTime returns when the catalog snapshot was built.
func (c *Catalog) LoadTime() time.Time {
	return c.loadTime
}

// Categories returns the sorted distinct category paths present in the
// catalog.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	for i := range c.modules {
		seen[c.modules[i].CategoryPath()] = true
	}
	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// computeVersion hashes sorted package names and content digests into a
// deterministic catalog version.
func (c *Catalog) computeVersion() string {
	h := sha256.New()
	for i := range c.modules {
		h.Write([]byte(c.modules[i].PackageName))
		h.Write([]byte(c.modules[i].Digest))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// Store holds the live catalog snapshot and swaps in replacements
// atomically. In-flight evaluations that captured a snapshot are
// unaffected by a reload.
type Store struct {
	loader  *Loader
	root    string
	current atomic.Pointer[Catalog]
}

// NewStore discovers the initial catalog and returns a store holding it.
func NewStore(loader *Loader, root string) (*Store, *LoadReport, error) {
	c, report, err := loader.Discover(root)
	if err != nil {
		return nil, nil, err
	}
	s := &Store{loader: loader, root: root}
	s.current.Store(c)
	return s, report, nil
}

// Catalog returns the current catalog snapshot.
func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

// Reload discovers a fresh catalog and swaps it in atomically. On
// discovery failure the previous catalog remains active.
func (s *Store) Reload() (*LoadReport, error) {
	c, report, err := s.loader.Discover(s.root)
	if err != nil {
		return nil, err
	}
	s.current.Store(c)
	return report, nil
}
