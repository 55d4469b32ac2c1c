package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/symbolgraph/pkg/assembler"
	"github.com/platinummonkey/symbolgraph/pkg/openapi"
	"github.com/platinummonkey/symbolgraph/pkg/symbols"
)

const (
	// Extension is appended to the module name to form the catalog directory
	Extension = ".catalog"

	endpointsDir = "Endpoints"
	schemasDir   = "Schemas"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer materializes an assembled graph as a catalog directory
type Writer struct {
	log             *logrus.Logger
	baseURL         string
	includeExamples bool
}

// Option configures a Writer
type Option func(*Writer)

// WithLogger sets the writer's logger
func WithLogger(log *logrus.Logger) Option {
	return func(w *Writer) {
		if log != nil {
			w.log = log
		}
	}
}

// WithBaseURL adds full URLs to endpoint pages
func WithBaseURL(url string) Option {
	return func(w *Writer) {
		w.baseURL = strings.TrimRight(url, "/")
	}
}

// WithIncludeExamples embeds explicit and synthesized example payloads
func WithIncludeExamples(include bool) Option {
	return func(w *Writer) {
		w.includeExamples = include
	}
}

// NewWriter creates a Writer
func NewWriter(opts ...Option) *Writer {
	w := &Writer{log: logrus.New()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Result describes a written catalog
type Result struct {
	// Path is the catalog directory
	Path string
	// Files lists every written file relative to Path, in write order
	Files []string
}

// Dir returns the catalog directory for module under outputDir
func Dir(outputDir, module string) string {
	return filepath.Join(outputDir, module+Extension)
}

// ValidateModuleName rejects names that are empty, contain path separators
// or dots, or do not start with a letter or underscore. Only letters, digits,
// '_' and '-' are accepted.
func ValidateModuleName(module string) error {
	if module == "" {
		return fmt.Errorf("%w: must not be empty", ErrInvalidModuleName)
	}
	for i, r := range module {
		switch {
		case unicode.IsLetter(r), r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-'):
		default:
			return fmt.Errorf("%w: %q may only contain letters, digits, '_' and '-' and must start with a letter", ErrInvalidModuleName, module)
		}
	}
	return nil
}

// SymbolsFileName returns the name of the symbol-graph file for module
func SymbolsFileName(module string) string {
	return strings.ToLower(module) + ".symbols.json"
}

// Write renders built into {outputDir}/{Module}.catalog. An existing
// catalog is left untouched unless overwrite is set, in which case it is
// removed first. The first directory or file failure aborts the write.
func (w *Writer) Write(built *assembler.Result, doc *openapi.Document, outputDir string, overwrite bool) (*Result, error) {
	g := built.Graph
	if err := ValidateModuleName(g.Module); err != nil {
		return nil, err
	}
	dir := Dir(outputDir, g.Module)

	if _, err := os.Lstat(dir); err == nil {
		if !overwrite {
			return nil, &CatalogExistsError{Path: dir}
		}
		w.log.WithField("path", dir).Info("removing existing catalog")
		if err := os.RemoveAll(dir); err != nil {
			return nil, &DirectoryCreationError{Path: dir, Err: err}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, &DirectoryCreationError{Path: dir, Err: err}
	}

	for _, d := range []string{dir, filepath.Join(dir, endpointsDir), filepath.Join(dir, schemasDir)} {
		if err := os.MkdirAll(d, dirPerm); err != nil {
			return nil, &DirectoryCreationError{Path: d, Err: err}
		}
	}

	renderer := NewPageRenderer(doc, built.Index, g.Module)
	renderer.baseURL = w.baseURL
	renderer.includeExamples = w.includeExamples

	result := &Result{Path: dir}
	write := func(rel string, data []byte) error {
		path := filepath.Join(dir, rel)
		if err := os.WriteFile(path, data, filePerm); err != nil {
			return &FileWriteError{Path: path, Err: err}
		}
		result.Files = append(result.Files, rel)
		return nil
	}

	if err := write(g.Module+".md", []byte(renderer.Root())); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := symbols.Encode(&buf, g.Sorted()); err != nil {
		return nil, &FileWriteError{Path: filepath.Join(dir, SymbolsFileName(g.Module)), Err: err}
	}
	if err := write(SymbolsFileName(g.Module), buf.Bytes()); err != nil {
		return nil, err
	}

	for _, ep := range built.Index.Endpoints {
		if err := write(filepath.Join(endpointsDir, ep.LocalID+".md"), []byte(renderer.Endpoint(ep))); err != nil {
			return nil, err
		}
	}
	for _, s := range built.Index.Schemas {
		if err := write(filepath.Join(schemasDir, s.LocalID+".md"), []byte(renderer.Schema(s))); err != nil {
			return nil, err
		}
	}

	w.log.WithFields(logrus.Fields{
		"path":  dir,
		"files": len(result.Files),
	}).Info("wrote catalog")

	return result, nil
}
