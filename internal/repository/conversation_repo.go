package repository

import (
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/ragbot/ragbot/internal/domain"
)

// ConversationRepository handles the append/read log of conversation turns
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Append records a new turn and returns its id
func (r *ConversationRepository) Append(conversationID, query, answer string, sources []domain.Source) (int64, error) {
	sourcesJSON, _ := json.Marshal(sources)

	result, err := r.db.Exec(`
		INSERT INTO conversations (conversation_id, query, answer, sources, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, conversationID, query, answer, string(sourcesJSON), time.Now())
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// OverwriteLatest replaces the answer and sources of the conversation's most
// recent turn. A conversation with zero turns yields ErrConversationNotFound.
func (r *ConversationRepository) OverwriteLatest(conversationID, answer string, sources []domain.Source) error {
	sourcesJSON, _ := json.Marshal(sources)

	result, err := r.db.Exec(`
		UPDATE conversations
		SET answer = ?, sources = ?
		WHERE id = (
			SELECT id FROM conversations
			WHERE conversation_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
	`, answer, string(sourcesJSON), conversationID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

// History returns all turns of a conversation, oldest first
func (r *ConversationRepository) History(conversationID string) ([]domain.ConversationTurn, error) {
	rows, err := r.db.Query(`
		SELECT id, conversation_id, query, answer, sources, created_at
		FROM conversations
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		turn := domain.ConversationTurn{}
		var sourcesJSON sql.NullString

		if err := rows.Scan(&turn.ID, &turn.ConversationID, &turn.Query,
			&turn.Answer, &sourcesJSON, &turn.CreatedAt); err != nil {
			return nil, err
		}

		if sourcesJSON.Valid && sourcesJSON.String != "" {
			json.Unmarshal([]byte(sourcesJSON.String), &turn.Sources)
		}
		turns = append(turns, turn)
	}

	return turns, rows.Err()
}

// ListSummaries returns one aggregate per conversation, newest-updated first
func (r *ConversationRepository) ListSummaries() ([]domain.ConversationSummary, error) {
	rows, err := r.db.Query(`
		SELECT conversation_id, query, created_at
		FROM conversations
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.ConversationSummary)
	var order []string
	for rows.Next() {
		var (
			conversationID string
			query          string
			createdAt      time.Time
		)
		if err := rows.Scan(&conversationID, &query, &createdAt); err != nil {
			return nil, err
		}

		summary, ok := byID[conversationID]
		if !ok {
			summary = &domain.ConversationSummary{
				ConversationID: conversationID,
				FirstQuery:     truncateQuery(query),
				CreatedAt:      createdAt,
			}
			byID[conversationID] = summary
			order = append(order, conversationID)
		}
		summary.TurnCount++
		summary.UpdatedAt = createdAt
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, *byID[id])
	}
	// Newest activity first
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func truncateQuery(query string) string {
	if len(query) > 100 {
		return query[:100] + "..."
	}
	return query
}
