package service

import (
	"context"

	"github.com/teenai/paperchat-be/types"
)

// AIService abstracts the hosted generative-model API
type AIService interface {
	// Chat generates the next assistant turn for a conversation
	Chat(ctx context.Context, messages []types.ChatMessage) (string, error)
	// Complete answers a single prompt without conversation state
	Complete(ctx context.Context, prompt string) (string, error)
	// ChatStream streams partial output to the handler as it is generated
	ChatStream(ctx context.Context, messages []types.ChatMessage, handler types.StreamHandler) error
	// Embed returns one embedding vector per input text
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
