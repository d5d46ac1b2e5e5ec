package database

import (
	"context"

	"github.com/teenai/paperchat-be/types"
)

// ChatStore defines the interface for chat-related operations
type ChatStore interface {
	CreateChat(ctx context.Context, chat *types.Chat) error
	GetChat(ctx context.Context, id string) (*types.Chat, error)
	ListChats(ctx context.Context, userID string) ([]types.Chat, error)
	TouchChat(ctx context.Context, id string, updatedAt int64) error
	DeleteChat(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, message *types.Message) error
	GetMessages(ctx context.Context, chatID string) ([]types.Message, error)
	DeleteMessages(ctx context.Context, chatID string) error
}

// VectorStore defines the interface for retrieval operations
type VectorStore interface {
	// Chunk operations
	UpsertDocument(ctx context.Context, doc *types.Document, embedding []float32) error
	BatchInsertChunks(ctx context.Context, chunks []types.DocumentChunk, embeddings [][]float32) error
	DeleteDocument(ctx context.Context, id string) error
	DeleteByTitle(ctx context.Context, title string) error

	// Search operations
	SearchSimilar(ctx context.Context, queries []string, limit int) ([]types.Document, []float32, error)
	SearchSimilarWithMetadata(ctx context.Context, queries []string, metadata types.Metadata, limit int) ([]types.Document, []float32, error)
	SearchNearVector(ctx context.Context, vector []float32, metadata types.Metadata, limit int) ([]types.Document, []float32, error)
	SearchByMetadata(ctx context.Context, metadata types.Metadata, limit int) ([]types.Document, error)
	// AskAI retrieves chunks and lets the vector store's generative module
	// answer the question over them
	AskAI(ctx context.Context, question string, queries []string, metadata types.Metadata, limit int) ([]types.Document, error)
	// ListChunks returns every chunk of a paper in page order
	ListChunks(ctx context.Context, title string) ([]types.Document, error)

	// Collection operations
	CreateCollection(ctx context.Context, name string) error
	DeleteCollection(ctx context.Context, name string) error
}
