package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/teenai/paperchat-be/types"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const geminiSystemPrompt = "You are a research assistant for scientific papers. " +
	"Answer questions about the uploaded papers using the provided context. " +
	"If the context does not contain the answer, say so instead of guessing."

// GeminiService talks to the Gemini API, rotating between API keys when a
// request fails
type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	model      *genai.GenerativeModel
	embedModel string
	modelName  string
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName, embedModel string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:    apiKeys,
		currentKey: 0,
		modelName:  modelName,
		embedModel: embedModel,
	}

	if err := service.initClient(); err != nil {
		return nil, err
	}

	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	s.model = client.GenerativeModel(s.modelName)
	s.model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(geminiSystemPrompt)},
	}
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	currentClient := s.client
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	s.mu.Unlock()

	if err := currentClient.Close(); err != nil {
		return err
	}
	return s.initClient()
}

func (s *GeminiService) Chat(ctx context.Context, messages []types.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages provided")
	}

	history := make([]*genai.Content, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  geminiRole(msg.Role),
		})
	}
	prompt := genai.Text(messages[len(messages)-1].Content)

	chat := s.model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, prompt)
	if err != nil {
		// Try rotating API key if there's an error
		if err := s.rotateAPIKey(); err != nil {
			return "", err
		}
		chat = s.model.StartChat()
		chat.History = history
		resp, err = chat.SendMessage(ctx, prompt)
		if err != nil {
			return "", err
		}
	}

	return collectText(resp)
}

func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if err := s.rotateAPIKey(); err != nil {
			return "", err
		}
		resp, err = s.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
	}
	return collectText(resp)
}

func (s *GeminiService) ChatStream(ctx context.Context, messages []types.ChatMessage, handler types.StreamHandler) error {
	if len(messages) == 0 {
		return errors.New("no messages provided")
	}
	if handler == nil {
		handler = func(response string) { println(response) }
	}

	history := make([]*genai.Content, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  geminiRole(msg.Role),
		})
	}
	chat := s.model.StartChat()
	chat.History = history

	iter := chat.SendMessageStream(ctx, genai.Text(messages[len(messages)-1].Content))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					handler(string(text))
				}
			}
		}
	}
	return nil
}

func (s *GeminiService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	em := s.client.EmbeddingModel(s.embedModel)
	batch := em.NewBatch()
	for _, text := range texts {
		batch = batch.AddContent(genai.Text(text))
	}
	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		if err := s.rotateAPIKey(); err != nil {
			return nil, err
		}
		em = s.client.EmbeddingModel(s.embedModel)
		batch = em.NewBatch()
		for _, text := range texts {
			batch = batch.AddContent(genai.Text(text))
		}
		resp, err = em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, err
		}
	}

	embeddings := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		embeddings = append(embeddings, e.Values)
	}
	return embeddings, nil
}

func geminiRole(role string) string {
	if role == types.RoleAssistant {
		return "model"
	}
	return "user"
}

func collectText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("no response generated")
	}
	content := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content += string(text)
			}
		}
	}
	return content, nil
}
