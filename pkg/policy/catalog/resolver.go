package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
)

// ResolveCategory returns the modules matching a category request.
//
// category may be an alias configured on the loader; aliases expand to
// deeper namespaced paths before matching. An empty version selects the
// numerically highest version directory present for each matched
// category/subcategory pairing, independently per subcategory.
func (c *Catalog) ResolveCategory(category, subcategory, version string) ([]Module, error) {
	target := category
	if expanded, ok := c.aliases[category]; ok {
		target = expanded
	}
	if subcategory != "" {
		target = target + "/" + subcategory
	}

	// Group candidate modules by their category path so version
	// selection is independent per subcategory.
	groups := make(map[string][]Module)
	for i := range c.modules {
		path := c.modules[i].CategoryPath()
		if path == target || strings.HasPrefix(path, target+"/") {
			groups[path] = append(groups[path], c.modules[i])
		}
	}
	if len(groups) == 0 {
		return nil, &ResolveError{
			Category:    category,
			Subcategory: subcategory,
			Version:     version,
			Message:     "no modules in catalog",
		}
	}

	var out []Module
	for _, members := range groups {
		want := version
		if want == "" {
			versions := distinctVersions(members)
			want = maxVersion(versions)
		}
		for _, m := range members {
			if m.Version == want {
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return nil, &ResolveError{
			Category:    category,
			Subcategory: subcategory,
			Version:     version,
			Message:     fmt.Sprintf("version %q not present for any matched subcategory", version),
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PackageName < out[j].PackageName
	})
	return out, nil
}

// ResolveDependencies computes the dependency closure of the given
// modules: every declared data import is mapped back to a cataloged
// package and followed transitively. The resulting bundle contains each
// package at most once, ordered dependencies-first with ties broken by
// package name.
//
// An import that does not resolve to a cataloged package, or an import
// cycle, yields a *DependencyError naming the offending packages.
func (c *Catalog) ResolveDependencies(modules []Module) (*Bundle, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	visited := make(map[string]bool)
	queue := make([]string, 0, len(modules))

	for _, m := range modules {
		if visited[m.PackageName] {
			continue
		}
		visited[m.PackageName] = true
		queue = append(queue, m.PackageName)
		if err := g.AddVertex(m.PackageName); err != nil {
			return nil, fmt.Errorf("failed to add package %q to dependency graph: %w", m.PackageName, err)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		module, ok := c.Get(name)
		if !ok {
			return nil, &DependencyError{Package: name, Missing: name, Message: "package vanished from catalog"}
		}

		for _, imp := range module.Imports {
			if _, ok := c.Get(imp); !ok {
				return nil, &DependencyError{Package: name, Missing: imp}
			}

			if !visited[imp] {
				visited[imp] = true
				queue = append(queue, imp)
				if err := g.AddVertex(imp); err != nil {
					return nil, fmt.Errorf("failed to add package %q to dependency graph: %w", imp, err)
				}
			}

			// Edge from dependency to dependent, so topological order
			// lists dependencies first.
			err := g.AddEdge(imp, name)
			switch {
			case err == nil:
			case errors.Is(err, graph.ErrEdgeAlreadyExists):
				// Duplicate import declaration; harmless.
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, &DependencyError{
					Package: name,
					Cycle:   []string{name, imp, name},
				}
			default:
				return nil, &DependencyError{
					Package: name,
					Message: "failed to record dependency edge",
					Cause:   err,
				}
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		// Unreachable with PreventCycles, but fail loudly rather than
		// return a partial bundle.
		return nil, &DependencyError{Message: "topological sort failed", Cause: err}
	}

	bundle := &Bundle{Modules: make([]Module, 0, len(order))}
	for _, name := range order {
		m, _ := c.Get(name)
		bundle.Modules = append(bundle.Modules, m)
	}
	return bundle, nil
}

// ResolveBundle resolves a category request straight to a
// dependency-closed bundle.
func (c *Catalog) ResolveBundle(category, subcategory, version string) (*Bundle, error) {
	modules, err := c.ResolveCategory(category, subcategory, version)
	if err != nil {
		return nil, err
	}
	return c.ResolveDependencies(modules)
}

// distinctVersions returns the distinct version directory names among
// the given modules.
func distinctVersions(modules []Module) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range modules {
		if !seen[m.Version] {
			seen[m.Version] = true
			out = append(out, m.Version)
		}
	}
	return out
}
