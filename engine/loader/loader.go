package loader

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var loaderLog = log.New("loader")

//go:embed schema/scene.schema.json
var sceneSchemaSource string

const sceneSchemaURL = "scene.schema.json"

var (
	// ErrUnknownFormat is returned for a file extension no backend handles.
	ErrUnknownFormat = errors.New("loader: unknown document format")

	// ErrInvalidDocument wraps schema validation and decoding failures.
	ErrInvalidDocument = errors.New("loader: invalid scene document")
)

// Format identifies a scene document encoding.
type Format int

const (
	// FormatYAML selects the YAML backend.
	FormatYAML Format = iota
	// FormatJSON selects the JSON backend.
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

// FormatForPath picks a Format from a file extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Format: the format
//   - error: ErrUnknownFormat
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache    map[string]*Document
	backends map[Format]documentBackend
	schema   *jsonschema.Schema
	validate bool
}

// Loader reads, validates, and caches scene documents, and turns them into scene assets.
type Loader interface {
	// Load reads a scene document and caches the result by path. The backend is chosen
	// by extension: .yaml and .yml for YAML, .json for JSON.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - *Document: the decoded document
	//   - error: ErrUnknownFormat, ErrInvalidDocument, or a read error
	Load(path string) (*Document, error)

	// LoadReader reads a scene document from r and caches it under name.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the document source
	//   - format: the encoding
	//
	// Returns:
	//   - *Document: the decoded document
	//   - error: ErrInvalidDocument or a read error
	LoadReader(name string, r io.Reader, format Format) (*Document, error)

	// Get retrieves a cached document. Returns nil if not found.
	Get(name string) *Document

	// Documents returns a copy of the document cache.
	Documents() map[string]*Document

	// Build resolves a document's mesh references and creates its renderables and light.
	//
	// Parameters:
	//   - doc: the document
	//
	// Returns:
	//   - *Assets: the scene assets
	//   - error: ErrInvalidDocument for unresolvable references
	Build(doc *Document) (*Assets, error)
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the YAML and JSON backends and the built-in scene schema.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache: make(map[string]*Document),
		backends: map[Format]documentBackend{
			FormatYAML: yamlBackend{},
			FormatJSON: jsonBackend{},
		},
		schema:   jsonschema.MustCompileString(sceneSchemaURL, sceneSchemaSource),
		validate: true,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Document, error) {
	if doc := l.Get(path); doc != nil {
		return doc, nil
	}
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	doc, err := l.decode(path, raw, format)
	if err != nil {
		return nil, err
	}
	l.store(path, doc)
	return doc, nil
}

func (l *loader) LoadReader(name string, r io.Reader, format Format) (*Document, error) {
	if doc := l.Get(name); doc != nil {
		return doc, nil
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %q: %w", name, err)
	}
	doc, err := l.decode(name, raw, format)
	if err != nil {
		return nil, err
	}
	l.store(name, doc)
	return doc, nil
}

func (l *loader) decode(name string, raw []byte, format Format) (*Document, error) {
	backend, ok := l.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	value, doc, err := backend.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, name, err)
	}
	if l.validate {
		if err := l.schema.Validate(value); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, name, err)
		}
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	loaderLog.Debugf("loaded %s document %q: %d meshes, %d objects, %d characters",
		format, doc.Name, len(doc.Meshes), len(doc.Objects), len(doc.Characters))
	return doc, nil
}

func (l *loader) store(name string, doc *Document) {
	l.mu.Lock()
	l.cache[name] = doc
	l.mu.Unlock()
}

func (l *loader) Get(name string) *Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Documents() map[string]*Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Document, len(l.cache))
	for k, v := range l.cache {
		result[k] = v
	}
	return result
}
