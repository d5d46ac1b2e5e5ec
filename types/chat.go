package types

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat represents a conversation over the uploaded papers
type Chat struct {
	ID        string `bson:"_id" json:"id"`
	Title     string `bson:"title" json:"title"`
	UserID    string `bson:"user_id" json:"user_id"`
	CreatedAt int64  `bson:"created_at" json:"created_at"`
	UpdatedAt int64  `bson:"updated_at" json:"updated_at"`
}

// Message is a persisted chat message
type Message struct {
	ID        string `bson:"_id" json:"id"`
	ChatID    string `bson:"chat_id" json:"chat_id"`
	Role      string `bson:"role" json:"role"`
	Content   string `bson:"content" json:"content"`
	CreatedAt int64  `bson:"created_at" json:"created_at"`
}

// ChatMessage is a single conversation turn sent to a model API
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	ChatID   string `json:"chat_id"`
	Question string `json:"question"`
}

type ChatResponse struct {
	ChatID  string     `json:"chat_id"`
	Message *Message   `json:"message"`
	Engine  string     `json:"engine,omitempty"`
	Sources []Document `json:"sources,omitempty"`
}
