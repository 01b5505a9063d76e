package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/search"
)

func TestFormatSearchResults_Basic(t *testing.T) {
	// Given: a response with one result
	resp := &search.Response{
		Query: "quarterly revenue",
		Results: []search.Result{{
			FileName:        "report.md",
			FilePath:        "/docs/report.md",
			ChunkText:       "Revenue grew 12% in Q3.",
			ChunkIndex:      1,
			TotalChunks:     4,
			SimilarityScore: 87,
		}},
		TotalResults: 1,
	}

	// When: formatting results
	md := FormatSearchResults(resp)

	// Then: markdown contains the expected elements
	assert.Contains(t, md, `## Search Results for "quarterly revenue"`)
	assert.Contains(t, md, "Found 1 result\n")
	assert.Contains(t, md, "### 1. report.md (score: 87)")
	assert.Contains(t, md, "`/docs/report.md` chunk 2 of 4")
	assert.Contains(t, md, "Revenue grew 12% in Q3.")
}

func TestFormatSearchResults_PrefersSnippet(t *testing.T) {
	// Given: a result with an LLM snippet
	resp := &search.Response{
		Query: "q",
		Results: []search.Result{
			{FileName: "a.txt", ChunkText: "long chunk text", Snippet: "short excerpt", TotalChunks: 1},
			{FileName: "b.txt", ChunkText: "other", TotalChunks: 1},
		},
	}

	// When: formatting
	md := FormatSearchResults(resp)

	// Then: the snippet replaces the chunk text and the count is plural
	assert.Contains(t, md, "short excerpt")
	assert.NotContains(t, md, "long chunk text")
	assert.Contains(t, md, "Found 2 results")
}

func TestFormatSearchResults_Empty(t *testing.T) {
	assert.Equal(t, `No results found for "nothing"`, FormatSearchResults(&search.Response{Query: "nothing"}))
	assert.Equal(t, `No results found for ""`, FormatSearchResults(nil))
}

func TestFormatSearchResults_TruncatesLongChunks(t *testing.T) {
	// Given: a chunk longer than the preview bound
	long := strings.Repeat("é", maxChunkPreview+50)
	resp := &search.Response{Query: "q", Results: []search.Result{{FileName: "x.txt", ChunkText: long, TotalChunks: 1}}}

	// When: formatting
	md := FormatSearchResults(resp)

	// Then: text is cut on a rune boundary with an ellipsis
	assert.Contains(t, md, strings.Repeat("é", maxChunkPreview)+"...")
	assert.NotContains(t, md, strings.Repeat("é", maxChunkPreview+1))
}

func TestFormatJobStatus(t *testing.T) {
	// Given: a processing job
	j := index.Job{
		Status:    index.StatusProcessing,
		Directory: "/data",
		Current:   1,
		Total:     4,
		Message:   "Processing notes.txt",
	}

	// When: formatting
	out := FormatJobStatus(j)

	// Then: status, directory, progress and message are shown
	assert.Contains(t, out, "**Status:** processing")
	assert.Contains(t, out, "**Directory:** /data")
	assert.Contains(t, out, "25.0% (1/4 files)")
	assert.Contains(t, out, "Processing notes.txt")
}

func TestFormatJobStatus_IdleOmitsProgress(t *testing.T) {
	out := FormatJobStatus(index.Job{Status: index.StatusIdle})
	assert.NotContains(t, out, "Progress")
	assert.NotContains(t, out, "Directory")
}
