package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// StatusInfo is what `nlpfinder status` reports.
type StatusInfo struct {
	Indexed      bool      `json:"indexed"`
	Directory    string    `json:"indexed_directory,omitempty"`
	TotalFiles   int       `json:"total_files"`
	TotalVectors int       `json:"total_vectors"`
	Dimension    int       `json:"dimension"`
	LastIndexed  time.Time `json:"last_indexed,omitzero"`

	VectorSize   int64 `json:"vector_size"`
	MetadataSize int64 `json:"metadata_size"`
	TotalSize    int64 `json:"total_size"`

	EmbedderURL    string `json:"embedder_url"`
	EmbedderModel  string `json:"embedder_model"`
	EmbedderStatus string `json:"embedder_status"` // ready, offline or model_missing
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
	now    func() time.Time
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor), now: time.Now}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	if !info.Indexed {
		_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: not indexed"))
		_, _ = fmt.Fprintln(r.out, "  Run `nlpfinder index <directory>` to build an index.")
		_, _ = fmt.Fprintln(r.out)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+info.Directory))
		_, _ = fmt.Fprintf(r.out, "  Files:        %d\n", info.TotalFiles)
		_, _ = fmt.Fprintf(r.out, "  Chunks:       %d\n", info.TotalVectors)
		_, _ = fmt.Fprintf(r.out, "  Dimension:    %d\n", info.Dimension)
		if !info.LastIndexed.IsZero() {
			_, _ = fmt.Fprintf(r.out, "  Last indexed: %s\n", r.formatTime(info.LastIndexed))
		}
		_, _ = fmt.Fprintln(r.out)

		_, _ = fmt.Fprintln(r.out, "  Storage:")
		_, _ = fmt.Fprintf(r.out, "    Vectors:    %s\n", FormatBytes(info.VectorSize))
		_, _ = fmt.Fprintf(r.out, "    Metadata:   %s\n", FormatBytes(info.MetadataSize))
		_, _ = fmt.Fprintf(r.out, "    Total:      %s\n", FormatBytes(info.TotalSize))
		_, _ = fmt.Fprintln(r.out)
	}

	_, _ = fmt.Fprintln(r.out, "  Embedder:")
	_, _ = fmt.Fprintf(r.out, "    URL:    %s\n", info.EmbedderURL)
	_, _ = fmt.Fprintf(r.out, "    Model:  %s\n", info.EmbedderModel)
	_, _ = fmt.Fprintf(r.out, "    Status: %s\n", r.renderStatus(info.EmbedderStatus))
	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready":
		return r.styles.Success.Render(status)
	case "model_missing":
		return r.styles.Warning.Render(status)
	case "offline":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

func (r *StatusRenderer) formatTime(t time.Time) string {
	diff := r.now().Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
