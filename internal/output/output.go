// Package output provides consistent CLI output formatting for search
// results, file listings and previews.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/nlpfinder/internal/fileops"
	"github.com/Aman-CERP/nlpfinder/internal/search"
	"github.com/Aman-CERP/nlpfinder/internal/store"
)

// maxResultPreview caps how much chunk text a result line shows.
const maxResultPreview = 240

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool

	title lipgloss.Style
	score lipgloss.Style
	dim   lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
}

// New creates a Writer. Color is enabled only for terminals without NO_COLOR.
func New(out io.Writer) *Writer {
	return NewWithColor(out, colorSupported(out))
}

// NewWithColor creates a Writer with color explicitly on or off.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	w := &Writer{out: out, useColor: useColor}
	plain := lipgloss.NewStyle()
	w.title, w.score, w.dim, w.ok, w.warn, w.fail = plain, plain, plain, plain, plain, plain
	if useColor {
		w.title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
		w.score = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
		w.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
		w.ok = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		w.warn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		w.fail = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	}
	return w
}

func colorSupported(out io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.ok.Render("✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.warn.Render("!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.fail.Render("✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SearchResults prints ranked results, best first.
func (w *Writer) SearchResults(resp *search.Response) {
	if resp == nil || len(resp.Results) == 0 {
		q := ""
		if resp != nil {
			q = resp.Query
		}
		_, _ = fmt.Fprintf(w.out, "No results for %q\n", q)
		return
	}

	_, _ = fmt.Fprintf(w.out, "%s\n\n", w.title.Render(fmt.Sprintf("%d result(s) for %q", resp.TotalResults, resp.Query)))
	for i, r := range resp.Results {
		_, _ = fmt.Fprintf(w.out, "%2d. %s %s\n", i+1, w.score.Render(fmt.Sprintf("[%3d]", r.SimilarityScore)), r.FileName)
		_, _ = fmt.Fprintf(w.out, "    %s\n", w.dim.Render(fmt.Sprintf("%s (chunk %d of %d)", r.FilePath, r.ChunkIndex+1, r.TotalChunks)))

		text := r.Snippet
		if text == "" {
			text = r.ChunkText
		}
		for _, line := range strings.Split(preview(text, maxResultPreview), "\n") {
			_, _ = fmt.Fprintf(w.out, "    %s\n", line)
		}
		_, _ = fmt.Fprintln(w.out)
	}
}

// Files prints the indexed documents as an aligned table.
func (w *Writer) Files(docs []store.Document) {
	if len(docs) == 0 {
		_, _ = fmt.Fprintln(w.out, "No files indexed")
		return
	}

	nameWidth := len("NAME")
	for _, d := range docs {
		nameWidth = max(nameWidth, utf8.RuneCountInString(d.Name))
	}
	nameWidth = min(nameWidth, 48)

	_, _ = fmt.Fprintln(w.out, w.dim.Render(fmt.Sprintf("%-*s  %10s  %6s  %s", nameWidth, "NAME", "SIZE", "CHUNKS", "PATH")))
	for _, d := range docs {
		_, _ = fmt.Fprintf(w.out, "%-*s  %10s  %6d  %s\n", nameWidth, truncate(d.Name, nameWidth), formatSize(d.SizeBytes), d.TotalChunks, d.Path)
	}
	_, _ = fmt.Fprintf(w.out, "\n%d file(s)\n", len(docs))
}

// Preview prints a file preview with a header line.
func (w *Writer) Preview(p *fileops.Preview) {
	_, _ = fmt.Fprintln(w.out, w.title.Render(p.FileName))
	_, _ = fmt.Fprintln(w.out, w.dim.Render(p.FilePath))
	_, _ = fmt.Fprintln(w.out)
	_, _ = fmt.Fprintln(w.out, p.Content)
	if p.Truncated {
		_, _ = fmt.Fprintln(w.out)
		_, _ = fmt.Fprintln(w.out, w.dim.Render(fmt.Sprintf("[truncated: showing %d of %d characters]", utf8.RuneCountInString(p.Content), p.TotalSize)))
	}
}

// preview collapses blank lines and caps text at n runes.
func preview(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return truncate(strings.Join(kept, "\n"), n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGT"[exp])
}
