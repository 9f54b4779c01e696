// Package loader reads parameter documents from XML, YAML, TOML and JSON
// files and turns them into params stores.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	params "github.com/goliatone/go-params"
)

// DefaultFile is read by LoadWithFallback when no usable path is given.
const DefaultFile = "params.xml"

var (
	// ErrUnsupportedFormat reports a file extension no decoder handles.
	ErrUnsupportedFormat = errors.New("loader: unsupported document format")
	// ErrMultipleValues reports an XML param with more than one value.
	ErrMultipleValues = errors.New("loader: parameter declares more than one value")
	// ErrInvalidValue reports a value that cannot be turned into text.
	ErrInvalidValue = errors.New("loader: invalid value")
)

// Format names a document encoding.
type Format string

const (
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFor maps a file extension to its Format.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Document is the decoded content of one file.
type Document struct {
	Source   string              `json:"-"`
	Params   map[string][]string `json:"params"`
	Defaults map[string]string   `json:"defaults"`
	Rules    []params.Rule       `json:"rules"`
}

// Store builds a store holding the document's parameters and defaults, added
// in name order. The store is named after the document source unless opts
// name it.
func (d *Document) Store(opts ...params.Option) *params.Store {
	if d.Source != "" {
		opts = append([]params.Option{params.WithName(filepath.Base(d.Source))}, opts...)
	}
	store := params.NewStore(opts...)
	for _, name := range slices.Sorted(maps.Keys(d.Params)) {
		store.AddParameter(params.NewParameter(name, d.Params[name]...))
	}
	for _, name := range slices.Sorted(maps.Keys(d.Defaults)) {
		store.AddDefault(name, d.Defaults[name])
	}
	return store
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for fallback and drop-in diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithFallback replaces DefaultFile for LoadWithFallback.
func WithFallback(path string) Option {
	return func(l *Loader) {
		l.fallback = path
	}
}

// WithStoreOptions applies opts to every store the loader builds.
func WithStoreOptions(opts ...params.Option) Option {
	return func(l *Loader) {
		l.storeOpts = append(l.storeOpts, opts...)
	}
}

// Loader reads documents from disk.
type Loader struct {
	logger    *slog.Logger
	fallback  string
	storeOpts []params.Option
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		logger:   slog.New(slog.DiscardHandler),
		fallback: DefaultFile,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load reads and decodes one document.
func Load(path string) (*Document, error) {
	return New().Load(path)
}

// Load reads and decodes the document at path; its format follows the
// extension.
func (l *Loader) Load(path string) (*Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	doc, err := Decode(format, path, data)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("params document loaded",
		"path", path,
		"format", string(format),
		"params", len(doc.Params),
		"defaults", len(doc.Defaults),
		"rules", len(doc.Rules),
	)
	return doc, nil
}

// LoadWithFallback loads path, or the fallback file when path is empty,
// missing or a directory. Falling back is logged as a warning.
func (l *Loader) LoadWithFallback(path string) (*Document, error) {
	if path == "" {
		l.logger.Warn("params file is not specified, using default file", "fallback", l.fallback)
		return l.Load(l.fallback)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		l.logger.Warn("params file doesn't exist or is not a valid file, using default file",
			"path", path,
			"fallback", l.fallback,
		)
		return l.Load(l.fallback)
	}
	return l.Load(path)
}

// LoadStore loads path and builds its store.
func (l *Loader) LoadStore(path string) (*params.Store, []params.Rule, error) {
	doc, err := l.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return doc.Store(l.storeOpts...), doc.Rules, nil
}

// LoadDropIns loads every supported file in dir in lexical order and merges
// them so that later files override earlier ones. Rules from all files are
// concatenated in load order. An empty directory yields an empty store.
func (l *Loader) LoadDropIns(dir string) (*params.Store, []params.Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("loader: read drop-in directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := FormatFor(entry.Name()); err != nil {
			l.logger.Debug("params drop-in skipped", "path", filepath.Join(dir, entry.Name()))
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(paths)
	return l.Merge(paths...)
}

// Merge loads paths and folds them into one store, the last path being the
// strongest.
func (l *Loader) Merge(paths ...string) (*params.Store, []params.Rule, error) {
	if len(paths) == 0 {
		return params.NewStore(l.storeOpts...), nil, nil
	}
	stores := make([]*params.Store, 0, len(paths))
	var rules []params.Rule
	for _, path := range paths {
		doc, err := l.Load(path)
		if err != nil {
			return nil, nil, err
		}
		stores = append(stores, doc.Store(l.storeOpts...))
		rules = append(rules, doc.Rules...)
	}
	merged := stores[len(stores)-1]
	for i := len(stores) - 2; i >= 0; i-- {
		if err := params.InheritAndOverride(merged, stores[i], params.WithMergePrefix("drop-in")); err != nil {
			return nil, nil, err
		}
	}
	return merged, rules, nil
}
