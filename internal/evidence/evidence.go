// Package evidence merges document search hits and web search results into a
// single provenance-tagged context string plus an ordered source list.
package evidence

import (
	"fmt"
	"strings"

	"github.com/ragbot/ragbot/internal/domain"
)

// Web result content is capped when building both the context block and the
// source excerpt.
const webExcerptLimit = 500

const (
	documentHeader = "=== DOCUMENT CONTEXT ==="
	webHeader      = "=== WEB SEARCH RESULTS ==="
)

// Assemble renders document hits first, in rank order, separated by blank
// lines. When web hits are present both evidence classes get explicit section
// headers so the generation model can tell them apart from the text alone.
// The source list mirrors block order: all document sources, then all web
// sources. Empty inputs on both sides yield an empty context and no sources.
func Assemble(docHits []domain.SearchHit, webHits []domain.WebResult) (string, []domain.Source) {
	var sources []domain.Source

	var docParts []string
	for _, hit := range docHits {
		docParts = append(docParts, hit.Chunk.Text)
		sources = append(sources, domain.Source{
			Text:   hit.Chunk.Text,
			Origin: hit.Chunk.SourceName,
			Page:   hit.Chunk.Page,
			Score:  hit.Score,
		})
	}
	docContext := strings.Join(docParts, "\n\n")

	if len(webHits) == 0 {
		return docContext, sources
	}

	var blocks []string
	if docContext != "" {
		blocks = append(blocks, documentHeader+"\n"+docContext)
	}
	blocks = append(blocks, webHeader+"\n"+formatWebResults(webHits))

	for _, result := range webHits {
		sources = append(sources, domain.Source{
			Text:   truncate(result.Content),
			Origin: result.URL,
			Score:  result.Score,
		})
	}

	return strings.Join(blocks, "\n\n"), sources
}

// formatWebResults renders web hits as a numbered list with title, truncated
// content and URL per entry.
func formatWebResults(results []domain.WebResult) string {
	var b strings.Builder
	for i, result := range results {
		title := result.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		if result.Content != "" {
			fmt.Fprintf(&b, "   Content: %s\n", truncate(result.Content))
		}
		if result.URL != "" {
			fmt.Fprintf(&b, "   Source: %s\n", result.URL)
		}
		if i < len(results)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func truncate(content string) string {
	if len(content) > webExcerptLimit {
		return content[:webExcerptLimit] + "..."
	}
	return content
}
