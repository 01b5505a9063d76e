// Package fileops serves file previews and hands files to the desktop:
// open with the default application, or reveal in the file manager.
package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// DefaultPreviewChars is the preview length cap in characters.
const DefaultPreviewChars = 50000

// Extractor turns a file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Preview is the leading text of a file.
type Preview struct {
	FilePath  string `json:"file_path"`
	FileName  string `json:"file_name"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
	// TotalSize is the extracted text length in characters.
	TotalSize int `json:"total_size"`
}

// Previewer extracts previews through the same strategies used for
// indexing, so PDFs preview as text.
type Previewer struct {
	extractor Extractor
	maxChars  int
}

// NewPreviewer creates a Previewer. maxChars <= 0 uses DefaultPreviewChars.
func NewPreviewer(extractor Extractor, maxChars int) *Previewer {
	if maxChars <= 0 {
		maxChars = DefaultPreviewChars
	}
	return &Previewer{extractor: extractor, maxChars: maxChars}
}

// Preview returns up to maxChars characters of path's text. A missing
// file is FileNotFound; anything unreadable is FileReadError.
func (p *Previewer) Preview(path string) (*Preview, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}

	text, err := p.extractor.Extract(path)
	if err != nil {
		if nferrors.GetCode(err) == nferrors.ErrCodeFileNotFound {
			return nil, err
		}
		return nil, nferrors.New(nferrors.ErrCodeFileRead, "could not read file content", err).
			WithDetail("path", path)
	}

	total := utf8.RuneCountInString(text)
	content := text
	if total > p.maxChars {
		content = string([]rune(text)[:p.maxChars])
	}

	return &Preview{
		FilePath:  path,
		FileName:  filepath.Base(path),
		Content:   content,
		Truncated: total > p.maxChars,
		TotalSize: total,
	}, nil
}

// requireFile checks that path names an existing entry.
func requireFile(path string) error {
	if path == "" {
		return nferrors.ValidationError("file_path is required", nil)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nferrors.New(nferrors.ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), err).
				WithDetail("path", path)
		}
		return nferrors.New(nferrors.ErrCodeFileRead, fmt.Sprintf("cannot access %s", path), err)
	}
	return nil
}
