package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ragbot/ragbot/internal/config"
	"github.com/ragbot/ragbot/internal/domain"
	"github.com/ragbot/ragbot/internal/evidence"
	"github.com/ragbot/ragbot/internal/llm"
	"github.com/ragbot/ragbot/internal/repository"
)

// Generator produces a chat completion from a message sequence.
type Generator interface {
	Chat(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// WebSearcher runs an external web search.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error)
}

// historyWindow caps how many past turns are replayed to the model.
const historyWindow = 10

const (
	declinedMessage       = "Web search was not approved. I can only answer based on your uploaded documents."
	llmUnavailableMessage = "LLM service is not available. Please configure llm.api_key."
	webUnavailableMessage = "Web search service is not available. Please configure web_search.api_key."
)

// ChatService answers questions over the indexed documents and drives the
// two-phase web-search escalation. Phase one (Query) may end with a proposed
// search; phase two (WebSearch) runs only after the user's explicit approval
// and rewrites the latest turn in place.
type ChatService struct {
	cfg       *config.Config
	convRepo  *repository.ConversationRepository
	index     Index
	generator Generator
	searcher  WebSearcher
	logger    *zap.Logger
}

// NewChatService creates a new chat service. generator and searcher may be
// nil when the corresponding provider is not configured; affected requests
// then get a plain-text notice instead of an error.
func NewChatService(
	cfg *config.Config,
	convRepo *repository.ConversationRepository,
	index Index,
	generator Generator,
	searcher WebSearcher,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		cfg:       cfg,
		convRepo:  convRepo,
		index:     index,
		generator: generator,
		searcher:  searcher,
		logger:    logger,
	}
}

// GeneratorAvailable reports whether a generation provider is configured.
func (s *ChatService) GeneratorAvailable() bool { return s.generator != nil }

// SearchAvailable reports whether a web-search provider is configured.
func (s *ChatService) SearchAvailable() bool { return s.searcher != nil }

// Query answers a question from document evidence. The raw model response is
// stored as the turn's answer even when it is an escalation request, so that
// WebSearch can later recover the proposed query from it.
func (s *ChatService) Query(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error) {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	if s.generator == nil {
		return &domain.QueryResponse{
			Answer:         llmUnavailableMessage,
			Sources:        []domain.Source{},
			ConversationID: conversationID,
		}, nil
	}

	history, err := s.convRepo.History(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.Index.TopK
	}
	hits, err := s.index.Query(ctx, req.Query, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	evidenceText, sources := evidence.Assemble(hits, nil)
	messages := buildMessages(llm.DocumentSystemPrompt, history, llm.FormatUserMessage(req.Query, evidenceText))

	raw, err := s.generator.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	resp := &domain.QueryResponse{
		Answer:         raw,
		Sources:        sources,
		ConversationID: conversationID,
	}

	outcome := llm.ParseOutcome(raw)
	if outcome.NeedsSearch() {
		resp.NeedsWebSearch = true
		resp.SearchQuery = outcome.SearchQuery
		if outcome.QueryMissing {
			resp.SearchQuery = req.Query
		}
		s.logger.Info("web search proposed",
			zap.String("conversation_id", conversationID),
			zap.String("search_query", resp.SearchQuery),
		)
	}

	if _, err := s.convRepo.Append(conversationID, req.Query, raw, sources); err != nil {
		return nil, fmt.Errorf("failed to record turn: %w", err)
	}

	return resp, nil
}

// WebSearch resolves a pending escalation. A denial short-circuits with a
// fixed notice and leaves the conversation untouched. An approval searches
// the web, regenerates the answer from combined evidence and overwrites the
// latest turn exactly once.
func (s *ChatService) WebSearch(ctx context.Context, req *domain.WebSearchRequest) (*domain.QueryResponse, error) {
	approved := req.Approved != nil && *req.Approved
	if !approved {
		return &domain.QueryResponse{
			Answer:         declinedMessage,
			Sources:        []domain.Source{},
			ConversationID: req.ConversationID,
		}, nil
	}

	if s.generator == nil {
		return &domain.QueryResponse{
			Answer:         llmUnavailableMessage,
			Sources:        []domain.Source{},
			ConversationID: req.ConversationID,
		}, nil
	}
	if s.searcher == nil {
		return &domain.QueryResponse{
			Answer:         webUnavailableMessage,
			Sources:        []domain.Source{},
			ConversationID: req.ConversationID,
		}, nil
	}

	history, err := s.convRepo.History(req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) == 0 {
		return nil, domain.ErrConversationNotFound
	}

	latest := history[len(history)-1]

	// The proposed query lives inside the stored raw answer. When the model
	// never asked for a search, or dropped the query, fall back to the
	// user's own question.
	searchQuery := latest.Query
	outcome := llm.ParseOutcome(latest.Answer)
	if outcome.NeedsSearch() && !outcome.QueryMissing {
		searchQuery = outcome.SearchQuery
	}

	webResults, err := s.searcher.Search(ctx, searchQuery, s.cfg.WebSearch.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	// Document retrieval reruns with the original question, not the
	// model-proposed search query.
	hits, err := s.index.Query(ctx, latest.Query, s.cfg.Index.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	evidenceText, sources := evidence.Assemble(hits, webResults)
	messages := buildMessages(llm.WebSystemPrompt, history, llm.FormatUserMessage(latest.Query, evidenceText))

	answer, err := s.generator.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	if err := s.convRepo.OverwriteLatest(req.ConversationID, answer, sources); err != nil {
		return nil, fmt.Errorf("failed to update turn: %w", err)
	}

	s.logger.Info("web search completed",
		zap.String("conversation_id", req.ConversationID),
		zap.String("search_query", searchQuery),
		zap.Int("results", len(webResults)),
	)

	return &domain.QueryResponse{
		Answer:         answer,
		Sources:        sources,
		ConversationID: req.ConversationID,
		WebResults:     webResults,
	}, nil
}

// History returns all turns of a conversation, oldest first.
func (s *ChatService) History(ctx context.Context, conversationID string) ([]domain.ConversationTurn, error) {
	return s.convRepo.History(conversationID)
}

// ListConversations returns per-conversation summaries, newest activity first.
func (s *ChatService) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	return s.convRepo.ListSummaries()
}

// buildMessages assembles the model input: system prompt, a bounded window of
// past turns as user/assistant pairs, then the current user message.
func buildMessages(systemPrompt string, history []domain.ConversationTurn, userMessage string) []domain.ChatMessage {
	messages := []domain.ChatMessage{{Role: "system", Content: systemPrompt}}

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, turn := range history[start:] {
		messages = append(messages,
			domain.ChatMessage{Role: "user", Content: turn.Query},
			domain.ChatMessage{Role: "assistant", Content: turn.Answer},
		)
	}

	return append(messages, domain.ChatMessage{Role: "user", Content: userMessage})
}
