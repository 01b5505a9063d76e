package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/search"
)

// maxChunkPreview bounds the chunk text echoed per result.
const maxChunkPreview = 600

// FormatSearchResults formats search results as markdown.
func FormatSearchResults(resp *search.Response) string {
	if resp == nil || len(resp.Results) == 0 {
		query := ""
		if resp != nil {
			query = resp.Query
		}
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\"\n\n", resp.Query))
	sb.WriteString(fmt.Sprintf("Found %d result", len(resp.Results)))
	if len(resp.Results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range resp.Results {
		formatResult(&sb, i+1, r)
	}
	return sb.String()
}

func formatResult(sb *strings.Builder, n int, r search.Result) {
	sb.WriteString(fmt.Sprintf("### %d. %s (score: %d)\n\n", n, r.FileName, r.SimilarityScore))
	sb.WriteString(fmt.Sprintf("`%s` chunk %d of %d\n\n", r.FilePath, r.ChunkIndex+1, r.TotalChunks))

	text := r.Snippet
	if text == "" {
		text = r.ChunkText
	}
	text = truncateRunes(strings.TrimSpace(text), maxChunkPreview)

	sb.WriteString("```\n")
	sb.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n\n")
}

// FormatJobStatus renders a one-paragraph job summary.
func FormatJobStatus(j index.Job) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", j.Status))
	if j.Directory != "" {
		sb.WriteString(fmt.Sprintf("**Directory:** %s\n", j.Directory))
	}
	if j.Total > 0 {
		sb.WriteString(fmt.Sprintf("**Progress:** %.1f%% (%d/%d files)\n", j.Percent(), j.Current, j.Total))
	}
	if j.Message != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", j.Message))
	}
	return sb.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
