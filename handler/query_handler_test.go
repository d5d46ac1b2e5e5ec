package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teenai/paperchat-be/handler"
	"github.com/teenai/paperchat-be/types"
)

type askAIVectorStore struct {
	docs []types.Document
	err  error

	question string
	queries  []string
	metadata types.Metadata
	limit    int
}

func (f *askAIVectorStore) AskAI(ctx context.Context, question string, queries []string, metadata types.Metadata, limit int) ([]types.Document, error) {
	f.question = question
	f.queries = queries
	f.metadata = metadata
	f.limit = limit
	return f.docs, f.err
}

func (f *askAIVectorStore) UpsertDocument(ctx context.Context, doc *types.Document, embedding []float32) error {
	return nil
}

func (f *askAIVectorStore) BatchInsertChunks(ctx context.Context, chunks []types.DocumentChunk, embeddings [][]float32) error {
	return nil
}

func (f *askAIVectorStore) DeleteDocument(ctx context.Context, id string) error { return nil }
func (f *askAIVectorStore) DeleteByTitle(ctx context.Context, title string) error { return nil }
func (f *askAIVectorStore) CreateCollection(ctx context.Context, name string) error { return nil }
func (f *askAIVectorStore) DeleteCollection(ctx context.Context, name string) error { return nil }

func (f *askAIVectorStore) SearchSimilar(ctx context.Context, queries []string, limit int) ([]types.Document, []float32, error) {
	return f.docs, nil, nil
}

func (f *askAIVectorStore) SearchSimilarWithMetadata(ctx context.Context, queries []string, metadata types.Metadata, limit int) ([]types.Document, []float32, error) {
	return f.docs, nil, nil
}

func (f *askAIVectorStore) SearchNearVector(ctx context.Context, vector []float32, metadata types.Metadata, limit int) ([]types.Document, []float32, error) {
	return f.docs, nil, nil
}

func (f *askAIVectorStore) SearchByMetadata(ctx context.Context, metadata types.Metadata, limit int) ([]types.Document, error) {
	return f.docs, nil
}

func (f *askAIVectorStore) ListChunks(ctx context.Context, title string) ([]types.Document, error) {
	return f.docs, nil
}

func askAIRouter(store *askAIVectorStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/documents/ask-ai", handler.NewQueryHandler(nil, store).HandleAskAI)
	return router
}

func TestHandleAskAI(t *testing.T) {
	store := &askAIVectorStore{docs: []types.Document{{
		ID:      "doc-1",
		Content: "The encoder stacks six identical layers.",
		Metadata: types.Metadata{
			Title:  "attention-is-all-you-need",
			Custom: map[string]string{"generative": "It uses six encoder layers."},
		},
	}}}
	router := askAIRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/ask-ai",
		strings.NewReader(`{"question": "How many encoder layers?", "search_request": {"queries": ["encoder layers"], "tags": ["nlp"]}}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "How many encoder layers?", store.question)
	assert.Equal(t, []string{"encoder layers"}, store.queries)
	assert.Equal(t, []string{"nlp"}, store.metadata.Tags)
	assert.Equal(t, 5, store.limit, "limit defaults when the request omits it")

	var resp struct {
		Data types.SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Documents, 1)
	assert.Equal(t, "It uses six encoder layers.", resp.Data.Documents[0].Metadata.Custom["generative"])
}

func TestHandleAskAI_MissingQuestion(t *testing.T) {
	router := askAIRouter(&askAIVectorStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/ask-ai",
		strings.NewReader(`{"search_request": {"queries": ["encoder layers"]}}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAskAI_StoreError(t *testing.T) {
	router := askAIRouter(&askAIVectorStore{err: errors.New("weaviate unreachable")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/ask-ai",
		strings.NewReader(`{"question": "anything"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
