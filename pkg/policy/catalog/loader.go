package catalog

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"themis-hq/themis/pkg/telemetry/metrics"
)

// LoaderConfig contains configuration for catalog discovery.
type LoaderConfig struct {
	// MaxFileSize is the maximum rule file size in bytes (default: 1MB).
	MaxFileSize int64

	// Extensions is the list of rule file extensions (default: [".rego"]).
	Extensions []string

	// SkipHidden controls whether to skip hidden files/directories
	// (default: true).
	SkipHidden bool

	// Aliases maps shorthand category names to deeper namespaced paths
	// (e.g. "eu_ai_act" -> "international/eu_ai_act").
	Aliases map[string]string
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize: 1 * 1024 * 1024,
		Extensions:  []string{".rego"},
		SkipHidden:  true,
	}
}

// Loader discovers rule modules from a directory tree and builds
// immutable catalog snapshots.
type Loader struct {
	config *LoaderConfig
	logger *slog.Logger
}

// NewLoader creates a new catalog loader.
func NewLoader(config *LoaderConfig, logger *slog.Logger) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{config: config, logger: logger}
}

// Discover walks the rule tree rooted at root and builds a catalog.
//
// A malformed rule file is logged, recorded in the report and skipped;
// it never aborts the scan. A missing or unreadable root is fatal and
// propagates immediately.
func (l *Loader) Discover(root string) (*Catalog, *LoadReport, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog root %q is not accessible: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("catalog root %q is not a directory", root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve catalog root %q: %w", root, err)
	}

	report := &LoadReport{}
	var modules []Module
	index := make(map[string]int)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if l.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != absRoot {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !l.hasValidExtension(path) {
			return nil
		}

		report.FileCount++

		module, perr := l.loadModule(absRoot, path)
		if perr != nil {
			l.logger.Warn("skipping malformed rule file",
				"path", path,
				"error", perr,
			)
			report.Skipped = append(report.Skipped, perr)
			return nil
		}

		if prev, ok := index[module.PackageName]; ok {
			dup := &ParseError{
				Path:    path,
				Message: fmt.Sprintf("duplicate package %q, already declared in %q", module.PackageName, modules[prev].Path),
			}
			l.logger.Warn("skipping duplicate rule package",
				"package", module.PackageName,
				"path", path,
			)
			report.Skipped = append(report.Skipped, dup)
			return nil
		}

		index[module.PackageName] = len(modules)
		modules = append(modules, *module)
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("failed to walk catalog root %q: %w", absRoot, walkErr)
	}

	// Sort modules by package name and rebuild the index so catalog
	// contents are independent of directory traversal order.
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].PackageName < modules[j].PackageName
	})
	for i := range modules {
		index[modules[i].PackageName] = i
	}

	c := &Catalog{
		root:     absRoot,
		modules:  modules,
		index:    index,
		aliases:  l.config.Aliases,
		loadTime: time.Now(),
	}
	c.version = c.computeVersion()

	report.ModuleCount = len(modules)
	report.LoadTime = time.Since(start)

	metrics.RecordCatalogLoad(len(modules), len(report.Skipped), report.LoadTime.Seconds())

	l.logger.Info("catalog discovered",
		"root", absRoot,
		"modules", report.ModuleCount,
		"skipped", len(report.Skipped),
		"version", c.version,
		"duration_ms", report.LoadTime.Milliseconds(),
	)

	return c, report, nil
}

// loadModule reads and parses a single rule file into a Module.
func (l *Loader) loadModule(root, path string) (*Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: "failed to access file", Cause: err}
	}
	if info.Size() > l.config.MaxFileSize {
		return nil, &ParseError{
			Path:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(content) {
		return nil, &ParseError{Path: path, Message: "file contains invalid UTF-8 encoding"}
	}

	category, subcategory, version, area, err := splitCatalogPath(root, path)
	if err != nil {
		return nil, err
	}

	h, err := parseHeader(path, content)
	if err != nil {
		return nil, err
	}

	return &Module{
		Path:        path,
		Category:    category,
		Subcategory: subcategory,
		Version:     version,
		Area:        area,
		PackageName: h.PackageName,
		Imports:     h.Imports,
		Metadata:    h.Metadata,
		State:       h.State,
		Digest:      fmt.Sprintf("%x", sha256.Sum256(content))[:16],
	}, nil
}

// splitCatalogPath decomposes a rule file path relative to the catalog
// root into its category, optional subcategory, version and optional
// area segments, per the layout
// <category>/[<subcategory>/]<version>/[<area>/]<name>.
func splitCatalogPath(root, path string) (category, subcategory, version, area string, err error) {
	rel, rerr := filepath.Rel(root, path)
	if rerr != nil {
		return "", "", "", "", &ParseError{Path: path, Message: "file outside catalog root", Cause: rerr}
	}

	segs := strings.Split(filepath.ToSlash(rel), "/")
	if len(segs) < 3 {
		return "", "", "", "", &ParseError{Path: path, Message: "path too shallow: expected <category>/<version>/<name>"}
	}

	// The version directory is the first segment matching the version
	// grammar; everything between it and the category is subcategory,
	// everything between it and the file is area.
	dirs := segs[:len(segs)-1]
	versionIdx := -1
	for i := 1; i < len(dirs); i++ {
		if isVersionDir(dirs[i]) {
			versionIdx = i
			break
		}
	}
	if versionIdx < 0 {
		return "", "", "", "", &ParseError{Path: path, Message: "no version directory (v<N> or v<N>.<N>) in path"}
	}

	category = dirs[0]
	subcategory = strings.Join(dirs[1:versionIdx], "/")
	version = dirs[versionIdx]
	area = strings.Join(dirs[versionIdx+1:], "/")
	return category, subcategory, version, area, nil
}

// hasValidExtension checks if the file has a rule file extension.
func (l *Loader) hasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, validExt := range l.config.Extensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}
