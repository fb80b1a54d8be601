package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Outcome
	}{
		{
			name: "plain answer without marker",
			raw:  "The report covers Q3 revenue in detail.",
			want: Outcome{Kind: OutcomeAnswer, Answer: "The report covers Q3 revenue in detail."},
		},
		{
			name: "marker with bracketed query",
			raw:  "WEB_SEARCH_NEEDED: [latest Mars rover news]",
			want: Outcome{Kind: OutcomeSearch, SearchQuery: "latest Mars rover news"},
		},
		{
			name: "marker with quoted query",
			raw:  `WEB_SEARCH_NEEDED: "current stock price"`,
			want: Outcome{Kind: OutcomeSearch, SearchQuery: "current stock price"},
		},
		{
			name: "marker after partial answer",
			raw:  "The documents mention the rover program. WEB_SEARCH_NEEDED: rover launch date 2026",
			want: Outcome{Kind: OutcomeSearch, SearchQuery: "rover launch date 2026"},
		},
		{
			name: "marker with empty query flags fallback",
			raw:  "WEB_SEARCH_NEEDED:   ",
			want: Outcome{Kind: OutcomeSearch, QueryMissing: true},
		},
		{
			name: "marker with only brackets flags fallback",
			raw:  "WEB_SEARCH_NEEDED: []",
			want: Outcome{Kind: OutcomeSearch, QueryMissing: true},
		},
		{
			name: "empty response is an answer",
			raw:  "",
			want: Outcome{Kind: OutcomeAnswer, Answer: ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOutcome(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Kind == OutcomeSearch, got.NeedsSearch())
		})
	}
}

func TestFormatUserMessage(t *testing.T) {
	withContext := FormatUserMessage("what changed?", "chunk one\n\nchunk two")
	assert.Contains(t, withContext, "Context information:")
	assert.Contains(t, withContext, "chunk one")
	assert.Contains(t, withContext, "Question: what changed?")

	withoutContext := FormatUserMessage("what changed?", "")
	assert.NotContains(t, withoutContext, "Context information:")
	assert.Contains(t, withoutContext, "No document context is available")
}
