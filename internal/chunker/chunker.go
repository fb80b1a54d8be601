// Package chunker splits extracted document text into overlapping,
// sentence-aligned segments with page provenance.
package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ragbot/ragbot/internal/domain"
)

// Default window parameters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// boundaryLookahead bounds how far past the window edge a sentence
	// terminator may be before we give up and hard-cut.
	boundaryLookahead = 100
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Everything outside word characters and common punctuation is dropped.
	// Square brackets survive so inline page markers stay intact.
	disallowedRe = regexp.MustCompile(`[^\w\s.,!?;:\-()\[\]]`)
	pageFindRe   = regexp.MustCompile(`\[Page (\d+)\]`)
	pageStripRe  = regexp.MustCompile(`\[Page \d+\]\s*`)
)

// Chunker splits normalized text with a sliding window.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. Non-positive size or negative overlap fall back to
// the defaults; overlap must stay below size for the window to make progress.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts rawText into ordered chunks tagged with sourceName and
// documentID. Empty input yields no chunks.
func (c *Chunker) Split(rawText, sourceName, documentID string) []domain.Chunk {
	text := Normalize(rawText)

	var chunks []domain.Chunk
	start := 0
	idx := 0

	for start < len(text) {
		end := start + c.size
		if end < len(text) {
			end = extendToSentence(text, end)
		} else {
			end = len(text)
		}

		window := strings.TrimSpace(text[start:end])
		if window != "" {
			page := firstPage(window)
			clean := pageStripRe.ReplaceAllString(window, "")

			chunks = append(chunks, domain.Chunk{
				Text:       clean,
				SourceName: sourceName,
				DocumentID: documentID,
				ChunkIndex: idx,
				Page:       page,
			})
			idx++
		}

		if end >= len(text) {
			break
		}
		next := end - c.overlap
		if next <= start {
			// Window cannot move forward, cut losses and jump past it.
			next = end
		}
		if next == start {
			break
		}
		start = next
	}

	return chunks
}

// Normalize collapses whitespace runs and drops characters outside the
// allow-list, preserving inline page markers.
func Normalize(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extendToSentence moves the cut point to just past the next sentence
// terminator followed by whitespace, if one exists within the lookahead.
// Otherwise the raw edge stands.
func extendToSentence(text string, pos int) int {
	limit := boundaryLookahead
	if rest := len(text) - pos; rest < limit {
		limit = rest
	}
	for i := 0; i < limit; i++ {
		ch := text[pos+i]
		if ch == '.' || ch == '!' || ch == '?' {
			if pos+i+1 < len(text) && isSpace(text[pos+i+1]) {
				return pos + i + 1
			}
		}
	}
	return pos
}

// firstPage returns the page number of the first marker in the window, if any.
func firstPage(window string) *int {
	m := pageFindRe.FindStringSubmatch(window)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
