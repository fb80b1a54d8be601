package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/ragbot/ragbot/internal/domain"
)

// DocumentRepository records uploaded documents and their chunk counts
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create stores a document record
func (r *DocumentRepository) Create(doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.UploadedAt = time.Now()

	_, err := r.db.Exec(`
		INSERT INTO documents (id, filename, chunk_count, uploaded_at)
		VALUES (?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.ChunkCount, doc.UploadedAt)

	return err
}

// List returns all documents, newest first
func (r *DocumentRepository) List() ([]domain.Document, error) {
	rows, err := r.db.Query(`
		SELECT id, filename, chunk_count, uploaded_at
		FROM documents
		ORDER BY uploaded_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.ChunkCount, &doc.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Count returns the number of stored documents
func (r *DocumentRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// Clear removes all document records
func (r *DocumentRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM documents`)
	return err
}
