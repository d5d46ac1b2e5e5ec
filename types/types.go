package types

import "context"

const (
	TypeWebsocketPing       = "ping"
	TypeWebsocketPong       = "pong"
	TypeWebsocketChat       = "chat"
	TypeWebsocketStream     = "stream"
	TypeWebsocketProcessing = "processing"
	TypeWebsocketError      = "error"
)

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketChatPayload struct {
	ChatID   string `json:"chat_id"`
	Question string `json:"question"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketChatResponse struct {
	ChatID  string     `json:"chat_id"`
	Message string     `json:"message"`
	Engine  string     `json:"engine,omitempty"`
	Sources []Document `json:"sources,omitempty"`
}

type WebSocketProcessingResponse struct {
	Message string `json:"message"`
}

// WebSocketStreamResponse carries one partial-output delta of the answer
// being generated
type WebSocketStreamResponse struct {
	Delta string `json:"delta"`
}

// FunctionHandler is a type for handling function calls
type FunctionHandler func(ctx context.Context, args []byte) (any, error)

// StreamHandler receives partial model output as it is generated
type StreamHandler func(response string)
