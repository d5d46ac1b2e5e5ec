package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/teenai/paperchat-be/database"
	"github.com/teenai/paperchat-be/repository"
	"github.com/teenai/paperchat-be/types"
)

const chatTitleMaxLen = 64

// ChatService runs conversations over the uploaded papers, persisting every
// turn in the chat store
type ChatService struct {
	chatStore database.ChatStore
	engine    *QueryEngine
	archive   *repository.QAArchive
}

func NewChatService(chatStore database.ChatStore, engine *QueryEngine, archive *repository.QAArchive) *ChatService {
	return &ChatService{
		chatStore: chatStore,
		engine:    engine,
		archive:   archive,
	}
}

// Ask answers a question inside a chat. An empty chat id starts a new chat
// titled after the question.
func (s *ChatService) Ask(ctx context.Context, userID string, req types.ChatRequest) (*types.ChatResponse, error) {
	return s.ask(ctx, userID, req, nil)
}

// AskStream answers like Ask but pushes partial output to the handler while
// the answer is generated. The full turn is still persisted afterwards.
func (s *ChatService) AskStream(ctx context.Context, userID string, req types.ChatRequest, stream types.StreamHandler) (*types.ChatResponse, error) {
	return s.ask(ctx, userID, req, stream)
}

func (s *ChatService) ask(ctx context.Context, userID string, req types.ChatRequest, stream types.StreamHandler) (*types.ChatResponse, error) {
	now := time.Now().Unix()

	chatID := req.ChatID
	if chatID == "" {
		chatID = uuid.NewString()
		chat := &types.Chat{
			ID:        chatID,
			Title:     chatTitle(req.Question),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.chatStore.CreateChat(ctx, chat); err != nil {
			return nil, fmt.Errorf("failed to create chat: %w", err)
		}
	} else {
		chat, err := s.chatStore.GetChat(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("chat not found: %w", err)
		}
		if chat.UserID != userID {
			return nil, fmt.Errorf("chat %s does not belong to user", chatID)
		}
	}

	stored, err := s.chatStore.GetMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	history := make([]types.ChatMessage, 0, len(stored))
	for _, msg := range stored {
		history = append(history, types.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	result, err := s.engine.QueryStream(ctx, types.AskRequest{Question: req.Question}, history, stream)
	if err != nil {
		return nil, err
	}

	userMessage := &types.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      types.RoleUser,
		Content:   req.Question,
		CreatedAt: now,
	}
	assistantMessage := &types.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      types.RoleAssistant,
		Content:   result.Answer,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.chatStore.CreateMessage(ctx, userMessage); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	if err := s.chatStore.CreateMessage(ctx, assistantMessage); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	if err := s.chatStore.TouchChat(ctx, chatID, assistantMessage.CreatedAt); err != nil {
		log.Printf("Warning: failed to touch chat %s: %v", chatID, err)
	}

	if s.archive != nil {
		if err := s.archive.Append(repository.QAEntry{
			ChatID:   chatID,
			Question: req.Question,
			Answer:   result.Answer,
			Engine:   result.Engine,
		}); err != nil {
			log.Printf("Warning: failed to archive Q&A entry: %v", err)
		}
	}

	return &types.ChatResponse{
		ChatID:  chatID,
		Message: assistantMessage,
		Engine:  result.Engine,
		Sources: result.Sources,
	}, nil
}

func (s *ChatService) ListChats(ctx context.Context, userID string) ([]types.Chat, error) {
	return s.chatStore.ListChats(ctx, userID)
}

func (s *ChatService) GetMessages(ctx context.Context, userID, chatID string) ([]types.Message, error) {
	if err := s.authorize(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return s.chatStore.GetMessages(ctx, chatID)
}

// ClearHistory removes the messages of a chat but keeps the chat itself
func (s *ChatService) ClearHistory(ctx context.Context, userID, chatID string) error {
	if err := s.authorize(ctx, userID, chatID); err != nil {
		return err
	}
	return s.chatStore.DeleteMessages(ctx, chatID)
}

func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	if err := s.authorize(ctx, userID, chatID); err != nil {
		return err
	}
	return s.chatStore.DeleteChat(ctx, chatID)
}

func (s *ChatService) authorize(ctx context.Context, userID, chatID string) error {
	chat, err := s.chatStore.GetChat(ctx, chatID)
	if err != nil {
		return fmt.Errorf("chat not found: %w", err)
	}
	if chat.UserID != userID {
		return fmt.Errorf("chat %s does not belong to user", chatID)
	}
	return nil
}

// chatTitle truncates on a rune boundary so multi-byte questions stay valid
// UTF-8
func chatTitle(question string) string {
	runes := []rune(question)
	if len(runes) > chatTitleMaxLen {
		runes = runes[:chatTitleMaxLen]
	}
	return string(runes)
}
