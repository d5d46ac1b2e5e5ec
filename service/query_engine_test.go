package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

type fakeAI struct {
	completeFn func(prompt string) (string, error)
	chatFn     func(messages []types.ChatMessage) (string, error)
	embedFn    func(texts []string) ([][]float32, error)
}

func (f *fakeAI) Chat(ctx context.Context, messages []types.ChatMessage) (string, error) {
	if f.chatFn == nil {
		return "answer", nil
	}
	return f.chatFn(messages)
}

func (f *fakeAI) Complete(ctx context.Context, prompt string) (string, error) {
	if f.completeFn == nil {
		return "", errors.New("no completion configured")
	}
	return f.completeFn(prompt)
}

func (f *fakeAI) ChatStream(ctx context.Context, messages []types.ChatMessage, handler types.StreamHandler) error {
	answer, err := f.Chat(ctx, messages)
	if err != nil {
		return err
	}
	// Deliver in two pieces so callers observe more than one delta
	half := len(answer) / 2
	handler(answer[:half])
	handler(answer[half:])
	return nil
}

func (f *fakeAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embedFn == nil {
		return nil, errors.New("no embedder configured")
	}
	return f.embedFn(texts)
}

type fakeVectorStore struct {
	docs          []types.Document
	nearVector    [][]float32
	batches       [][]types.DocumentChunk
	deletedTitles []string
}

func (f *fakeVectorStore) UpsertDocument(ctx context.Context, doc *types.Document, embedding []float32) error {
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeVectorStore) BatchInsertChunks(ctx context.Context, chunks []types.DocumentChunk, embeddings [][]float32) error {
	f.batches = append(f.batches, append([]types.DocumentChunk(nil), chunks...))
	for _, chunk := range chunks {
		f.docs = append(f.docs, types.Document{
			Content: chunk.Content,
			Metadata: types.Metadata{
				Title: chunk.Metadata.Title,
				Tags:  chunk.Metadata.Tags,
			},
		})
	}
	return nil
}

func (f *fakeVectorStore) DeleteDocument(ctx context.Context, id string) error { return nil }

func (f *fakeVectorStore) DeleteByTitle(ctx context.Context, title string) error {
	f.deletedTitles = append(f.deletedTitles, title)
	var kept []types.Document
	for _, doc := range f.docs {
		if doc.Metadata.Title != title {
			kept = append(kept, doc)
		}
	}
	f.docs = kept
	return nil
}

func (f *fakeVectorStore) SearchSimilar(ctx context.Context, queries []string, limit int) ([]types.Document, []float32, error) {
	return f.truncate(limit), nil, nil
}

func (f *fakeVectorStore) SearchSimilarWithMetadata(ctx context.Context, queries []string, metadata types.Metadata, limit int) ([]types.Document, []float32, error) {
	return f.truncate(limit), nil, nil
}

func (f *fakeVectorStore) SearchNearVector(ctx context.Context, vector []float32, metadata types.Metadata, limit int) ([]types.Document, []float32, error) {
	f.nearVector = append(f.nearVector, vector)
	return f.truncate(limit), nil, nil
}

func (f *fakeVectorStore) SearchByMetadata(ctx context.Context, metadata types.Metadata, limit int) ([]types.Document, error) {
	return f.truncate(limit), nil
}

func (f *fakeVectorStore) AskAI(ctx context.Context, question string, queries []string, metadata types.Metadata, limit int) ([]types.Document, error) {
	return f.truncate(limit), nil
}

func (f *fakeVectorStore) ListChunks(ctx context.Context, title string) ([]types.Document, error) {
	var out []types.Document
	for _, doc := range f.docs {
		if doc.Metadata.Title == title {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeVectorStore) CreateCollection(ctx context.Context, name string) error { return nil }
func (f *fakeVectorStore) DeleteCollection(ctx context.Context, name string) error { return nil }

func (f *fakeVectorStore) truncate(limit int) []types.Document {
	if limit > 0 && limit < len(f.docs) {
		return f.docs[:limit]
	}
	return f.docs
}

func paperDocs(title string, n int) []types.Document {
	docs := make([]types.Document, 0, n)
	for i := 1; i <= n; i++ {
		docs = append(docs, types.Document{
			Content:  fmt.Sprintf("Passage %d of %s.", i, title),
			Metadata: types.Metadata{Title: title, Custom: map[string]string{"page": fmt.Sprint(i)}},
		})
	}
	return docs
}

func TestParseRouteDecision(t *testing.T) {
	decision, err := service.ParseRouteDecision(`{"choice": 1, "reason": "summary question"}`)
	require.NoError(t, err)
	assert.Equal(t, 1, decision.Choice)
	assert.Equal(t, "summary question", decision.Reason)
}

func TestParseRouteDecision_ToleratesSurroundingProse(t *testing.T) {
	out := "Sure! Here is my verdict:\n```json\n{\"choice\": 2, \"reason\": \"lookup\"}\n```\n"
	decision, err := service.ParseRouteDecision(out)
	require.NoError(t, err)
	assert.Equal(t, 2, decision.Choice)
}

func TestParseRouteDecision_Invalid(t *testing.T) {
	_, err := service.ParseRouteDecision("I pick the first option")
	assert.Error(t, err)

	_, err = service.ParseRouteDecision(`{"choice": 7}`)
	assert.Error(t, err)
}

func TestQuery_EmptyQuestion(t *testing.T) {
	engine := service.NewQueryEngine(&fakeAI{}, &fakeVectorStore{}, 0)

	_, err := engine.Query(context.Background(), types.AskRequest{Question: "   "}, nil)
	assert.Error(t, err)
}

func TestQuery_RoutesToVectorEngine(t *testing.T) {
	store := &fakeVectorStore{docs: paperDocs("attention", 3)}
	ai := &fakeAI{
		completeFn: func(prompt string) (string, error) {
			return `{"choice": 2, "reason": "specific lookup"}`, nil
		},
		chatFn: func(messages []types.ChatMessage) (string, error) {
			last := messages[len(messages)-1]
			assert.Contains(t, last.Content, "Passage 1 of attention.")
			return "the answer", nil
		},
		embedFn: func(texts []string) ([][]float32, error) {
			return [][]float32{{0.1, 0.2}}, nil
		},
	}
	engine := service.NewQueryEngine(ai, store, 0)

	result, err := engine.Query(context.Background(), types.AskRequest{Question: "what is attention?"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.EngineVector, result.Engine)
	assert.Equal(t, "the answer", result.Answer)
	assert.Len(t, result.Sources, 3)
	assert.Len(t, store.nearVector, 1, "client-side embedding should drive the search")
}

func TestQuery_RoutesToSummaryEngine(t *testing.T) {
	store := &fakeVectorStore{docs: paperDocs("attention", 4)}
	var summaryPrompts int
	ai := &fakeAI{
		completeFn: func(prompt string) (string, error) {
			if strings.Contains(prompt, "pick the single choice") {
				return `{"choice": 1, "reason": "asks for a summary"}`, nil
			}
			summaryPrompts++
			return "condensed text", nil
		},
		chatFn: func(messages []types.ChatMessage) (string, error) {
			last := messages[len(messages)-1]
			assert.Contains(t, last.Content, "condensed text")
			return "the summary answer", nil
		},
	}
	engine := service.NewQueryEngine(ai, store, 0)

	result, err := engine.Query(context.Background(),
		types.AskRequest{Question: "summarize the paper", Title: "attention"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.EngineSummary, result.Engine)
	assert.Equal(t, "the summary answer", result.Answer)
	assert.Equal(t, 1, summaryPrompts, "four chunks collapse in a single pass")
}

func TestQuery_UnparseableVerdictFallsBackToVector(t *testing.T) {
	store := &fakeVectorStore{docs: paperDocs("attention", 1)}
	ai := &fakeAI{
		completeFn: func(prompt string) (string, error) {
			return "I like the first one best", nil
		},
	}
	engine := service.NewQueryEngine(ai, store, 0)

	result, err := engine.Query(context.Background(), types.AskRequest{Question: "anything"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.EngineVector, result.Engine)
}

func TestQuery_SummaryFailureFallsBackToVector(t *testing.T) {
	// No chunks indexed under the requested title, so the summary engine
	// has nothing to work with
	store := &fakeVectorStore{docs: paperDocs("other-paper", 2)}
	ai := &fakeAI{
		completeFn: func(prompt string) (string, error) {
			return `{"choice": 1, "reason": "summary"}`, nil
		},
	}
	engine := service.NewQueryEngine(ai, store, 0)

	result, err := engine.Query(context.Background(),
		types.AskRequest{Question: "summarize it", Title: "missing-paper"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.EngineVector, result.Engine)
}

func TestQuery_NoDocumentsIndexed(t *testing.T) {
	ai := &fakeAI{
		completeFn: func(prompt string) (string, error) {
			return `{"choice": 2, "reason": "lookup"}`, nil
		},
	}
	engine := service.NewQueryEngine(ai, &fakeVectorStore{}, 0)

	result, err := engine.Query(context.Background(), types.AskRequest{Question: "anything"}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.EngineVector, result.Engine)
	assert.Contains(t, result.Answer, "upload")
	assert.Empty(t, result.Sources)
}

func TestQueryStream_EmitsDeltas(t *testing.T) {
	store := &fakeVectorStore{docs: paperDocs("attention", 2)}
	ai := &fakeAI{
		completeFn: func(prompt string) (string, error) {
			return `{"choice": 2, "reason": "lookup"}`, nil
		},
		chatFn: func(messages []types.ChatMessage) (string, error) {
			return "streamed answer", nil
		},
	}
	engine := service.NewQueryEngine(ai, store, 0)

	var deltas []string
	result, err := engine.QueryStream(context.Background(),
		types.AskRequest{Question: "what is attention?"}, nil,
		func(delta string) { deltas = append(deltas, delta) })
	require.NoError(t, err)
	assert.Equal(t, "streamed answer", result.Answer)
	require.Greater(t, len(deltas), 1, "partial output must arrive in pieces")
	assert.Equal(t, result.Answer, strings.Join(deltas, ""))
}
