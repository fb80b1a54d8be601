package llm

import "strings"

// Marker is the literal substring whose presence in a raw model response
// signals escalation intent. Everything after it is the proposed search query.
const Marker = "WEB_SEARCH_NEEDED:"

// OutcomeKind tags the result of parsing a generation response.
type OutcomeKind int

const (
	// OutcomeAnswer means the response is a final answer.
	OutcomeAnswer OutcomeKind = iota
	// OutcomeSearch means the model requested a web search.
	OutcomeSearch
)

// Outcome is the parsed form of a raw generation response. The two kinds are
// mutually exclusive: an answer carries Answer, a search request carries
// SearchQuery. QueryMissing marks a search request whose query could not be
// extracted; callers substitute the user's original question in that case.
type Outcome struct {
	Kind         OutcomeKind
	Answer       string
	SearchQuery  string
	QueryMissing bool
}

// NeedsSearch reports whether the outcome is a web-search request.
func (o Outcome) NeedsSearch() bool {
	return o.Kind == OutcomeSearch
}

// ParseOutcome inspects a raw model response for the escalation marker.
// All prompt-format knowledge lives here; nothing else in the codebase
// touches the marker.
func ParseOutcome(raw string) Outcome {
	idx := strings.Index(raw, Marker)
	if idx < 0 {
		return Outcome{Kind: OutcomeAnswer, Answer: raw}
	}

	query := raw[idx+len(Marker):]
	query = strings.TrimSpace(query)
	query = strings.Trim(query, `[]"'`)
	query = strings.TrimSpace(query)

	if query == "" {
		return Outcome{Kind: OutcomeSearch, QueryMissing: true}
	}
	return Outcome{Kind: OutcomeSearch, SearchQuery: query}
}
