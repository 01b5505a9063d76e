// Package extract turns files into plain text. Each file category
// (plain text, code, markup, document) maps to a Strategy, with plain text
// as the fallback for unknown extensions.
package extract

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// Category groups extensions that share an extraction strategy.
type Category string

const (
	CategoryText     Category = "text"
	CategoryCode     Category = "code"
	CategoryMarkup   Category = "markup"
	CategoryDocument Category = "document"
)

var categoryByExt = map[string]Category{
	".txt": CategoryText, ".md": CategoryText, ".rst": CategoryText, ".log": CategoryText,

	".py": CategoryCode, ".js": CategoryCode, ".ts": CategoryCode, ".tsx": CategoryCode,
	".jsx": CategoryCode, ".java": CategoryCode, ".cpp": CategoryCode, ".c": CategoryCode,
	".h": CategoryCode, ".hpp": CategoryCode, ".cs": CategoryCode, ".go": CategoryCode,
	".rs": CategoryCode, ".rb": CategoryCode, ".php": CategoryCode, ".swift": CategoryCode,
	".kt": CategoryCode, ".scala": CategoryCode,

	".html": CategoryMarkup, ".htm": CategoryMarkup, ".css": CategoryMarkup,
	".scss": CategoryMarkup, ".sass": CategoryMarkup, ".json": CategoryMarkup,
	".xml": CategoryMarkup, ".yaml": CategoryMarkup, ".yml": CategoryMarkup,

	".pdf": CategoryDocument,
}

// CategoryOf returns the category for path's extension, or CategoryText
// when the extension is unknown.
func CategoryOf(path string) Category {
	if c, ok := categoryByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}
	return CategoryText
}

// Strategy extracts text from one file.
type Strategy interface {
	Extract(path string) (string, error)
}

// Registry resolves strategies by category and enforces the extension
// allow-list.
type Registry struct {
	allowed    []string
	strategies map[Category]Strategy
	fallback   Strategy
}

// NewRegistry returns a registry that accepts the given extensions
// (lowercase, with leading dot). An empty list accepts every extension.
func NewRegistry(allowed []string) *Registry {
	text := TextStrategy{}
	r := &Registry{
		strategies: map[Category]Strategy{
			CategoryText:     text,
			CategoryCode:     text,
			CategoryMarkup:   text,
			CategoryDocument: PDFStrategy{},
		},
		fallback: text,
	}
	for _, ext := range allowed {
		r.allowed = append(r.allowed, strings.ToLower(ext))
	}
	return r
}

// Register replaces the strategy for a category.
func (r *Registry) Register(c Category, s Strategy) {
	r.strategies[c] = s
}

// For returns the strategy that handles path.
func (r *Registry) For(path string) Strategy {
	if c, ok := categoryByExt[strings.ToLower(filepath.Ext(path))]; ok {
		if s, ok := r.strategies[c]; ok {
			return s
		}
	}
	return r.fallback
}

// Supports reports whether path's extension is on the allow-list.
func (r *Registry) Supports(path string) bool {
	if len(r.allowed) == 0 {
		return true
	}
	return slices.Contains(r.allowed, strings.ToLower(filepath.Ext(path)))
}

// Extract returns the text content of path.
func (r *Registry) Extract(path string) (string, error) {
	if !r.Supports(path) {
		return "", nferrors.New(nferrors.ErrCodeUnsupportedExtension,
			fmt.Sprintf("unsupported file type: %s", filepath.Ext(path)), nil).
			WithDetail("path", path)
	}
	return r.For(path).Extract(path)
}
