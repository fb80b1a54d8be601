package domain

import "time"

// Chunk is a bounded, provenance-tagged segment of a source document's text.
// Chunks are created at ingestion time and never mutated; a chunk is uniquely
// identified by (DocumentID, ChunkIndex).
type Chunk struct {
	Text       string `json:"text"`
	SourceName string `json:"source_name"`
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Page       *int   `json:"page,omitempty"`
}

// SearchHit is a single result of a similarity query, best-first by rank.
type SearchHit struct {
	Chunk Chunk
	Score float32
	Rank  int
}

// WebResult is a single web search result.
type WebResult struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	URL     string  `json:"url"`
	Score   float32 `json:"score"`
}

// Source is a provenance record surfaced to the end user. Origin is a
// filename for document evidence and a URL for web evidence.
type Source struct {
	Text   string  `json:"text"`
	Origin string  `json:"source"`
	Page   *int    `json:"page,omitempty"`
	Score  float32 `json:"score"`
}

// Document records an uploaded file and how many chunks it produced.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadResponse is the response for a processed upload.
type UploadResponse struct {
	Message     string `json:"message"`
	DocumentID  string `json:"document_id"`
	ChunksCount int    `json:"chunks_count"`
}
