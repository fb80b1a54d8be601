package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ragbot/ragbot/internal/config"
	"github.com/ragbot/ragbot/internal/domain"
	"github.com/ragbot/ragbot/internal/repository"
)

type fakeIndex struct {
	hits     []domain.SearchHit
	queryErr error
	addErr   error

	added   [][]domain.Chunk
	queries []string
	cleared bool
}

func (f *fakeIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, chunks)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, text string, topK int) ([]domain.SearchHit, error) {
	f.queries = append(f.queries, text)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.hits, nil
}

func (f *fakeIndex) Clear() error {
	f.cleared = true
	return nil
}

func (f *fakeIndex) Count() int {
	total := 0
	for _, chunks := range f.added {
		total += len(chunks)
	}
	return total
}

type fakeGenerator struct {
	response string
	err      error

	calls        int
	lastMessages []domain.ChatMessage
}

func (f *fakeGenerator) Chat(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	f.calls++
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeSearcher struct {
	results []domain.WebResult
	err     error

	calls     int
	lastQuery string
	lastMax   int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	f.calls++
	f.lastQuery = query
	f.lastMax = maxResults
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Index:     config.IndexConfig{TopK: 5},
		WebSearch: config.WebSearchConfig{MaxResults: 5},
	}
}

func newConvRepo(t *testing.T) *repository.ConversationRepository {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewConversationRepository(db)
}

func docHit(text, source string, score float32) domain.SearchHit {
	return domain.SearchHit{
		Chunk: domain.Chunk{Text: text, SourceName: source},
		Score: score,
	}
}

func TestChatService_QueryAnswersFromDocuments(t *testing.T) {
	repo := newConvRepo(t)
	index := &fakeIndex{hits: []domain.SearchHit{docHit("relevant text", "report.pdf", 0.9)}}
	gen := &fakeGenerator{response: "The report says so."}

	svc := NewChatService(testConfig(), repo, index, gen, &fakeSearcher{}, zap.NewNop())

	resp, err := svc.Query(context.Background(), &domain.QueryRequest{Query: "what does the report say?"})
	require.NoError(t, err)

	assert.Equal(t, "The report says so.", resp.Answer)
	assert.False(t, resp.NeedsWebSearch)
	assert.NotEmpty(t, resp.ConversationID, "conversation id is minted when absent")
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "report.pdf", resp.Sources[0].Origin)

	turns, err := repo.History(resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "what does the report say?", turns[0].Query)
	assert.Equal(t, "The report says so.", turns[0].Answer)
}

func TestChatService_QueryProposesWebSearch(t *testing.T) {
	repo := newConvRepo(t)
	gen := &fakeGenerator{response: "WEB_SEARCH_NEEDED: [latest Mars rover news]"}

	svc := NewChatService(testConfig(), repo, &fakeIndex{}, gen, &fakeSearcher{}, zap.NewNop())

	resp, err := svc.Query(context.Background(), &domain.QueryRequest{
		ConversationID: "conv-1",
		Query:          "any Mars news?",
	})
	require.NoError(t, err)

	assert.True(t, resp.NeedsWebSearch)
	assert.Equal(t, "latest Mars rover news", resp.SearchQuery)

	// The raw marker response must be persisted so the approval call can
	// recover the proposed query from it.
	turns, err := repo.History("conv-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "WEB_SEARCH_NEEDED: [latest Mars rover news]", turns[0].Answer)
}

func TestChatService_QueryFallsBackToUserQuestion(t *testing.T) {
	gen := &fakeGenerator{response: "WEB_SEARCH_NEEDED: []"}
	svc := NewChatService(testConfig(), newConvRepo(t), &fakeIndex{}, gen, &fakeSearcher{}, zap.NewNop())

	resp, err := svc.Query(context.Background(), &domain.QueryRequest{Query: "who won the cup?"})
	require.NoError(t, err)

	assert.True(t, resp.NeedsWebSearch)
	assert.Equal(t, "who won the cup?", resp.SearchQuery)
}

func TestChatService_QueryGenerationFailureWritesNothing(t *testing.T) {
	repo := newConvRepo(t)
	gen := &fakeGenerator{err: errors.New("provider down")}
	svc := NewChatService(testConfig(), repo, &fakeIndex{}, gen, &fakeSearcher{}, zap.NewNop())

	_, err := svc.Query(context.Background(), &domain.QueryRequest{ConversationID: "conv-1", Query: "q"})
	require.Error(t, err)

	turns, err := repo.History("conv-1")
	require.NoError(t, err)
	assert.Empty(t, turns, "failed generation must not record a turn")
}

func TestChatService_WebSearchDeclined(t *testing.T) {
	repo := newConvRepo(t)
	_, err := repo.Append("conv-1", "any Mars news?", "WEB_SEARCH_NEEDED: [mars news]", nil)
	require.NoError(t, err)

	index := &fakeIndex{}
	gen := &fakeGenerator{}
	searcher := &fakeSearcher{}
	svc := NewChatService(testConfig(), repo, index, gen, searcher, zap.NewNop())

	approved := false
	resp, err := svc.WebSearch(context.Background(), &domain.WebSearchRequest{
		ConversationID: "conv-1",
		Approved:       &approved,
	})
	require.NoError(t, err)

	assert.Equal(t, declinedMessage, resp.Answer)
	assert.Zero(t, gen.calls, "no generation on denial")
	assert.Zero(t, searcher.calls, "no search on denial")
	assert.Empty(t, index.queries, "no retrieval on denial")

	turns, err := repo.History("conv-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "WEB_SEARCH_NEEDED: [mars news]", turns[0].Answer, "denial leaves the turn untouched")
}

func TestChatService_WebSearchApproved(t *testing.T) {
	repo := newConvRepo(t)
	_, err := repo.Append("conv-1", "any Mars news?", "WEB_SEARCH_NEEDED: [latest Mars rover news]", nil)
	require.NoError(t, err)

	index := &fakeIndex{hits: []domain.SearchHit{docHit("mission overview", "mars.pdf", 0.8)}}
	gen := &fakeGenerator{response: "Perseverance found something."}
	searcher := &fakeSearcher{results: []domain.WebResult{
		{Title: "Rover update", Content: "New findings.", URL: "https://example.com/rover", Score: 0.7},
	}}
	svc := NewChatService(testConfig(), repo, index, gen, searcher, zap.NewNop())

	approved := true
	resp, err := svc.WebSearch(context.Background(), &domain.WebSearchRequest{
		ConversationID: "conv-1",
		Approved:       &approved,
	})
	require.NoError(t, err)

	assert.Equal(t, "latest Mars rover news", searcher.lastQuery, "search uses the model-proposed query")
	require.Len(t, index.queries, 1)
	assert.Equal(t, "any Mars news?", index.queries[0], "retrieval uses the original question")

	assert.Equal(t, "Perseverance found something.", resp.Answer)
	require.Len(t, resp.WebResults, 1)
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "mars.pdf", resp.Sources[0].Origin)
	assert.Equal(t, "https://example.com/rover", resp.Sources[1].Origin)

	turns, err := repo.History("conv-1")
	require.NoError(t, err)
	require.Len(t, turns, 1, "approval rewrites the turn, never appends")
	assert.Equal(t, "Perseverance found something.", turns[0].Answer)
}

func TestChatService_WebSearchWithoutMarkerUsesQuestion(t *testing.T) {
	repo := newConvRepo(t)
	_, err := repo.Append("conv-1", "what is the capital of France?", "Paris.", nil)
	require.NoError(t, err)

	gen := &fakeGenerator{response: "Still Paris."}
	searcher := &fakeSearcher{}
	svc := NewChatService(testConfig(), repo, &fakeIndex{}, gen, searcher, zap.NewNop())

	approved := true
	_, err = svc.WebSearch(context.Background(), &domain.WebSearchRequest{
		ConversationID: "conv-1",
		Approved:       &approved,
	})
	require.NoError(t, err)

	assert.Equal(t, "what is the capital of France?", searcher.lastQuery)
}

func TestChatService_WebSearchUnknownConversation(t *testing.T) {
	svc := NewChatService(testConfig(), newConvRepo(t), &fakeIndex{}, &fakeGenerator{}, &fakeSearcher{}, zap.NewNop())

	approved := true
	_, err := svc.WebSearch(context.Background(), &domain.WebSearchRequest{
		ConversationID: "missing",
		Approved:       &approved,
	})
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestChatService_WebSearchFailureLeavesTurn(t *testing.T) {
	repo := newConvRepo(t)
	_, err := repo.Append("conv-1", "q", "WEB_SEARCH_NEEDED: [something]", nil)
	require.NoError(t, err)

	gen := &fakeGenerator{}
	searcher := &fakeSearcher{err: errors.New("search provider down")}
	svc := NewChatService(testConfig(), repo, &fakeIndex{}, gen, searcher, zap.NewNop())

	approved := true
	_, err = svc.WebSearch(context.Background(), &domain.WebSearchRequest{
		ConversationID: "conv-1",
		Approved:       &approved,
	})
	require.Error(t, err)
	assert.Zero(t, gen.calls)

	turns, err := repo.History("conv-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "WEB_SEARCH_NEEDED: [something]", turns[0].Answer)
}

func TestChatService_QueryWithoutGenerator(t *testing.T) {
	repo := newConvRepo(t)
	svc := NewChatService(testConfig(), repo, &fakeIndex{}, nil, nil, zap.NewNop())

	resp, err := svc.Query(context.Background(), &domain.QueryRequest{ConversationID: "conv-1", Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, llmUnavailableMessage, resp.Answer)
	turns, err := repo.History("conv-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestBuildMessages_WindowsHistory(t *testing.T) {
	var history []domain.ConversationTurn
	for i := 0; i < 12; i++ {
		history = append(history, domain.ConversationTurn{
			Query:  fmt.Sprintf("question %d", i),
			Answer: fmt.Sprintf("answer %d", i),
		})
	}

	messages := buildMessages("system prompt", history, "current question")

	// system + 10 replayed turns as pairs + current message
	require.Len(t, messages, 22)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "question 2", messages[1].Content, "oldest turns fall out of the window")
	assert.Equal(t, "user", messages[21].Role)
	assert.Equal(t, "current question", messages[21].Content)
}
