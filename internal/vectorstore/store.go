// Package vectorstore provides an exact nearest-neighbor index over
// unit-normalized chunk embeddings, with durable on-disk artifacts.
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ragbot/ragbot/internal/domain"
)

// Embedder converts text into fixed-dimension vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Store keeps chunk vectors and their metadata in two parallel slices.
// A vector's slot (its position in the slices) is assigned at append time and
// stays stable for the life of the index, so search results map back to
// chunk metadata by slot.
type Store struct {
	mu       sync.RWMutex
	embedder Embedder
	logger   *zap.Logger
	dataDir  string
	vectors  [][]float32
	chunks   []domain.Chunk
}

// New creates a store backed by dataDir, loading any previously saved
// artifacts. A corrupt or mismatched artifact pair degrades to an empty
// index with a logged warning rather than an error.
func New(embedder Embedder, dataDir string, logger *zap.Logger) *Store {
	s := &Store{
		embedder: embedder,
		logger:   logger,
		dataDir:  dataDir,
	}
	s.load()
	return s
}

// Add embeds and appends a batch of chunks. The batch is all-or-nothing: on
// any embedding failure no vectors are retained. A save failure after a
// successful append is logged but not fatal, the in-memory index stays
// authoritative.
func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if s.embedder == nil {
		return fmt.Errorf("no embedding provider configured")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i := range vectors {
		if len(vectors[i]) == 0 {
			return fmt.Errorf("embedder returned empty vector for chunk %d", i)
		}
		normalize(vectors[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.vectors) > 0 && len(vectors[0]) != len(s.vectors[0]) {
		return fmt.Errorf("vector dimension mismatch: index has %d, batch has %d",
			len(s.vectors[0]), len(vectors[0]))
	}

	s.vectors = append(s.vectors, vectors...)
	s.chunks = append(s.chunks, chunks...)

	if err := s.saveLocked(); err != nil {
		s.logger.Warn("failed to save index artifacts", zap.Error(err))
	}
	return nil
}

// Query returns the topK most similar chunks to text, best first. Ties in
// score keep ascending insertion-slot order. Querying an empty index returns
// no hits and no error; topK is clamped to the number of stored vectors.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]domain.SearchHit, error) {
	if s.Count() == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	query := vectors[0]
	normalize(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make([]float32, len(s.vectors))
	for slot := range s.vectors {
		scores[slot] = dot(s.vectors[slot], query)
	}

	slots := make([]int, len(scores))
	for i := range slots {
		slots[i] = i
	}
	// Stable sort keeps equal scores in ascending slot order.
	sort.SliceStable(slots, func(i, j int) bool {
		return scores[slots[i]] > scores[slots[j]]
	})

	if topK > len(slots) {
		topK = len(slots)
	}
	hits := make([]domain.SearchHit, topK)
	for rank := 0; rank < topK; rank++ {
		slot := slots[rank]
		hits[rank] = domain.SearchHit{
			Chunk: s.chunks[slot],
			Score: scores[slot],
			Rank:  rank,
		}
	}
	return hits, nil
}

// Clear drops all vectors and metadata and removes the saved artifacts.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vectors = nil
	s.chunks = nil
	return s.removeArtifacts()
}

// Count returns the number of stored vectors.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Dimensions returns the embedder's vector dimensionality, or zero when no
// embedding provider is configured.
func (s *Store) Dimensions() int {
	if s.embedder == nil {
		return 0
	}
	return s.embedder.Dimensions()
}

// normalize scales v in place to unit L2 norm. Zero vectors are left alone.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// dot is the inner product, equal to cosine similarity for unit vectors.
func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
