package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRenderer_Render(t *testing.T) {
	// Given: an indexed status
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)
	r.now = func() time.Time { return now }

	// When: rendering
	err := r.Render(StatusInfo{
		Indexed:        true,
		Directory:      "/docs",
		TotalFiles:     12,
		TotalVectors:   48,
		Dimension:      768,
		LastIndexed:    now.Add(-2 * time.Hour),
		VectorSize:     3 * 1024 * 1024,
		MetadataSize:   64 * 1024,
		TotalSize:      3*1024*1024 + 64*1024,
		EmbedderURL:    "http://localhost:11434",
		EmbedderModel:  "nomic-embed-text",
		EmbedderStatus: "ready",
	})

	// Then: all sections are printed
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Index Status: /docs")
	assert.Contains(t, out, "Files:        12")
	assert.Contains(t, out, "Chunks:       48")
	assert.Contains(t, out, "Last indexed: 2 hours ago")
	assert.Contains(t, out, "Vectors:    3.0 MB")
	assert.Contains(t, out, "Metadata:   64.0 KB")
	assert.Contains(t, out, "Status: ready")
}

func TestStatusRenderer_NotIndexed(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.Render(StatusInfo{EmbedderStatus: "offline", EmbedderURL: "http://localhost:11434"}))

	out := buf.String()
	assert.Contains(t, out, "not indexed")
	assert.Contains(t, out, "nlpfinder index")
	assert.Contains(t, out, "Status: offline")
	assert.NotContains(t, out, "Storage")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.RenderJSON(StatusInfo{Indexed: true, TotalFiles: 3, EmbedderStatus: "ready"}))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, true, parsed["indexed"])
	assert.EqualValues(t, 3, parsed["total_files"])
	assert.Equal(t, "ready", parsed["embedder_status"])
	assert.NotContains(t, parsed, "last_indexed")
}

func TestStatusRenderer_FormatTime(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	r := NewStatusRenderer(&bytes.Buffer{}, true)
	r.now = func() time.Time { return now }

	assert.Equal(t, "just now", r.formatTime(now.Add(-10*time.Second)))
	assert.Equal(t, "1 minute ago", r.formatTime(now.Add(-time.Minute)))
	assert.Equal(t, "5 minutes ago", r.formatTime(now.Add(-5*time.Minute)))
	assert.Equal(t, "1 day ago", r.formatTime(now.Add(-25*time.Hour)))
	assert.Equal(t, "2026-04-01 12:00", r.formatTime(now.AddDate(0, 0, -39)))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))
	assert.Equal(t, "1.0 GB", FormatBytes(1024*1024*1024))
}
