package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

type memoryChatStore struct {
	chats    map[string]*types.Chat
	messages map[string][]types.Message
}

func newMemoryChatStore() *memoryChatStore {
	return &memoryChatStore{
		chats:    make(map[string]*types.Chat),
		messages: make(map[string][]types.Message),
	}
}

func (m *memoryChatStore) CreateChat(ctx context.Context, chat *types.Chat) error {
	m.chats[chat.ID] = chat
	return nil
}

func (m *memoryChatStore) GetChat(ctx context.Context, id string) (*types.Chat, error) {
	chat, ok := m.chats[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return chat, nil
}

func (m *memoryChatStore) ListChats(ctx context.Context, userID string) ([]types.Chat, error) {
	var out []types.Chat
	for _, chat := range m.chats {
		if chat.UserID == userID {
			out = append(out, *chat)
		}
	}
	return out, nil
}

func (m *memoryChatStore) TouchChat(ctx context.Context, id string, updatedAt int64) error {
	if chat, ok := m.chats[id]; ok {
		chat.UpdatedAt = updatedAt
	}
	return nil
}

func (m *memoryChatStore) DeleteChat(ctx context.Context, id string) error {
	delete(m.chats, id)
	delete(m.messages, id)
	return nil
}

func (m *memoryChatStore) CreateMessage(ctx context.Context, message *types.Message) error {
	m.messages[message.ChatID] = append(m.messages[message.ChatID], *message)
	return nil
}

func (m *memoryChatStore) GetMessages(ctx context.Context, chatID string) ([]types.Message, error) {
	return m.messages[chatID], nil
}

func (m *memoryChatStore) DeleteMessages(ctx context.Context, chatID string) error {
	delete(m.messages, chatID)
	return nil
}

func newTestChatService(store *memoryChatStore) *service.ChatService {
	ai := &fakeAI{
		completeFn: func(prompt string) (string, error) {
			return `{"choice": 2, "reason": "lookup"}`, nil
		},
		chatFn: func(messages []types.ChatMessage) (string, error) {
			return "model answer", nil
		},
	}
	vectorDB := &fakeVectorStore{docs: paperDocs("attention", 2)}
	engine := service.NewQueryEngine(ai, vectorDB, 0)
	return service.NewChatService(store, engine, nil)
}

func TestAsk_NewChat(t *testing.T) {
	store := newMemoryChatStore()
	svc := newTestChatService(store)

	resp, err := svc.Ask(context.Background(), "user-1", types.ChatRequest{Question: "What is attention?"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ChatID)
	assert.Equal(t, "model answer", resp.Message.Content)
	assert.Equal(t, types.RoleAssistant, resp.Message.Role)

	chat, err := store.GetChat(context.Background(), resp.ChatID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", chat.UserID)
	assert.Equal(t, "What is attention?", chat.Title)

	messages, _ := store.GetMessages(context.Background(), resp.ChatID)
	require.Len(t, messages, 2)
	assert.Equal(t, types.RoleUser, messages[0].Role)
	assert.Equal(t, types.RoleAssistant, messages[1].Role)
}

func TestAsk_ExistingChatKeepsHistory(t *testing.T) {
	store := newMemoryChatStore()
	svc := newTestChatService(store)

	first, err := svc.Ask(context.Background(), "user-1", types.ChatRequest{Question: "first question"})
	require.NoError(t, err)

	second, err := svc.Ask(context.Background(), "user-1", types.ChatRequest{
		ChatID:   first.ChatID,
		Question: "follow up",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ChatID, second.ChatID)

	messages, _ := store.GetMessages(context.Background(), first.ChatID)
	assert.Len(t, messages, 4)
}

func TestAsk_RejectsForeignChat(t *testing.T) {
	store := newMemoryChatStore()
	svc := newTestChatService(store)

	resp, err := svc.Ask(context.Background(), "user-1", types.ChatRequest{Question: "hello"})
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), "user-2", types.ChatRequest{
		ChatID:   resp.ChatID,
		Question: "sneaky",
	})
	assert.Error(t, err)
}

func TestClearHistory(t *testing.T) {
	store := newMemoryChatStore()
	svc := newTestChatService(store)

	resp, err := svc.Ask(context.Background(), "user-1", types.ChatRequest{Question: "hello"})
	require.NoError(t, err)

	require.NoError(t, svc.ClearHistory(context.Background(), "user-1", resp.ChatID))

	messages, err := svc.GetMessages(context.Background(), "user-1", resp.ChatID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// The chat itself survives
	_, err = store.GetChat(context.Background(), resp.ChatID)
	assert.NoError(t, err)
}

func TestDeleteChat(t *testing.T) {
	store := newMemoryChatStore()
	svc := newTestChatService(store)

	resp, err := svc.Ask(context.Background(), "user-1", types.ChatRequest{Question: "hello"})
	require.NoError(t, err)

	assert.Error(t, svc.DeleteChat(context.Background(), "user-2", resp.ChatID))
	require.NoError(t, svc.DeleteChat(context.Background(), "user-1", resp.ChatID))

	_, err = store.GetChat(context.Background(), resp.ChatID)
	assert.Error(t, err)
}

func TestAskStream_DeltasMatchPersistedAnswer(t *testing.T) {
	store := newMemoryChatStore()
	svc := newTestChatService(store)

	var deltas []string
	resp, err := svc.AskStream(context.Background(), "user-1",
		types.ChatRequest{Question: "What is attention?"},
		func(delta string) { deltas = append(deltas, delta) })
	require.NoError(t, err)
	require.Greater(t, len(deltas), 1, "partial output must arrive in pieces")
	assert.Equal(t, resp.Message.Content, strings.Join(deltas, ""))

	// Streaming still persists the full turn
	messages, _ := store.GetMessages(context.Background(), resp.ChatID)
	require.Len(t, messages, 2)
	assert.Equal(t, resp.Message.Content, messages[1].Content)
}

func TestAsk_TitleKeepsRuneBoundaries(t *testing.T) {
	store := newMemoryChatStore()
	svc := newTestChatService(store)

	question := strings.Repeat("Đặc trưng của mô hình là gì? ", 5)
	resp, err := svc.Ask(context.Background(), "user-1", types.ChatRequest{Question: question})
	require.NoError(t, err)

	chat, err := store.GetChat(context.Background(), resp.ChatID)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(chat.Title))
	assert.Equal(t, 64, utf8.RuneCountInString(chat.Title))
	assert.True(t, strings.HasPrefix(question, chat.Title))
}
