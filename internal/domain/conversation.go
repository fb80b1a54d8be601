package domain

import "time"

// ConversationTurn is one query/answer exchange within a conversation.
// Turns are append-only except for the single post-escalation rewrite of the
// latest turn's answer and sources.
type ConversationTurn struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Query          string    `json:"query"`
	Answer         string    `json:"answer"`
	Sources        []Source  `json:"sources,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationSummary is a per-conversation aggregate for listings.
type ConversationSummary struct {
	ConversationID string    `json:"conversation_id"`
	TurnCount      int       `json:"message_count"`
	FirstQuery     string    `json:"first_query"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChatMessage is a single role-tagged message sent to the generation model.
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// QueryRequest is the request to ask a question over the document corpus.
type QueryRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Query          string `json:"query" binding:"required"`
	TopK           int    `json:"top_k,omitempty"`
}

// QueryResponse is the response to a query or a web-search approval call.
type QueryResponse struct {
	Answer         string      `json:"response"`
	Sources        []Source    `json:"sources"`
	ConversationID string      `json:"conversation_id"`
	NeedsWebSearch bool        `json:"needs_web_search"`
	SearchQuery    string      `json:"search_query,omitempty"`
	WebResults     []WebResult `json:"web_search_results,omitempty"`
}

// WebSearchRequest carries the user's explicit approval or denial of a
// proposed web-search escalation.
type WebSearchRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Approved       *bool  `json:"approved" binding:"required"`
}
