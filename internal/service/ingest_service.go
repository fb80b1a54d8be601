package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ragbot/ragbot/internal/chunker"
	"github.com/ragbot/ragbot/internal/domain"
	"github.com/ragbot/ragbot/internal/repository"
)

// Index is the vector index consumed by the services.
type Index interface {
	Add(ctx context.Context, chunks []domain.Chunk) error
	Query(ctx context.Context, text string, topK int) ([]domain.SearchHit, error)
	Clear() error
	Count() int
}

// ExtractFunc turns raw document bytes into page-marked plain text.
type ExtractFunc func(data []byte) (string, error)

// IngestService handles document ingestion: extract, chunk, index
type IngestService struct {
	index   Index
	docRepo *repository.DocumentRepository
	chunker *chunker.Chunker
	extract ExtractFunc
	logger  *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	index Index,
	docRepo *repository.DocumentRepository,
	ch *chunker.Chunker,
	extract ExtractFunc,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		index:   index,
		docRepo: docRepo,
		chunker: ch,
		extract: extract,
		logger:  logger,
	}
}

// UploadPDF processes an uploaded PDF and adds its chunks to the index.
// Nothing is persisted if extraction, chunking or indexing fails.
func (s *IngestService) UploadPDF(ctx context.Context, filename string, data []byte) (*domain.UploadResponse, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return nil, domain.ErrUnsupportedFile
	}

	text, err := s.extract(data)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", filename, err)
	}

	docID := uuid.New().String()
	chunks := s.chunker.Split(text, filename, docID)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	if err := s.index.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", filename, err)
	}

	doc := &domain.Document{ID: docID, Filename: filename, ChunkCount: len(chunks)}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	s.logger.Info("processed document",
		zap.String("filename", filename),
		zap.String("document_id", docID),
		zap.Int("chunks", len(chunks)),
	)

	return &domain.UploadResponse{
		Message:     fmt.Sprintf("Successfully processed %s", filename),
		DocumentID:  docID,
		ChunksCount: len(chunks),
	}, nil
}

// ListDocuments returns all ingested documents
func (s *IngestService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.docRepo.List()
}

// DocumentCount returns the number of ingested documents
func (s *IngestService) DocumentCount() (int, error) {
	return s.docRepo.Count()
}

// IndexSize returns the number of vectors in the index
func (s *IngestService) IndexSize() int {
	return s.index.Count()
}

// Reset clears the index and the document registry
func (s *IngestService) Reset(ctx context.Context) error {
	if err := s.index.Clear(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	if err := s.docRepo.Clear(); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	s.logger.Info("index cleared")
	return nil
}
