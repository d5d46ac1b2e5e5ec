package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/teenai/paperchat-be/database"
	"github.com/teenai/paperchat-be/types"
)

const (
	defaultTopK      = 5
	summaryGroupSize = 10

	summaryToolDescription = "Useful for summarization questions related to any topic in the uploaded papers."
	vectorToolDescription  = "Useful for retrieving specific information from the uploaded papers."
)

const selectorPromptTemplate = `Some choices are given below. It is provided in a numbered list (1 to %d), where each item in the list corresponds to an answering strategy.
%s
Using only the choices above and not prior knowledge, pick the single choice that is most relevant to the question: "%s"
Answer with a JSON object of the form {"choice": <number>, "reason": "<short explanation>"} and nothing else.`

// QueryEngine routes a question to either the summary engine or the vector
// retrieval engine, mirroring a router query engine with an LLM single
// selector
type QueryEngine struct {
	ai       AIService
	vectorDB database.VectorStore
	topK     int
}

func NewQueryEngine(ai AIService, vectorDB database.VectorStore, topK int) *QueryEngine {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &QueryEngine{
		ai:       ai,
		vectorDB: vectorDB,
		topK:     topK,
	}
}

// Query answers a question using the engine picked by the selector. History
// is carried only into the final synthesis step.
func (e *QueryEngine) Query(ctx context.Context, req types.AskRequest, history []types.ChatMessage) (*types.QueryResult, error) {
	return e.QueryStream(ctx, req, history, nil)
}

// QueryStream answers like Query but pushes partial output of the synthesis
// step to the handler as it is generated. A nil handler disables streaming.
func (e *QueryEngine) QueryStream(ctx context.Context, req types.AskRequest, history []types.ChatMessage, stream types.StreamHandler) (*types.QueryResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	engine := e.route(ctx, req.Question)
	switch engine {
	case types.EngineSummary:
		result, err := e.querySummary(ctx, req, history, stream)
		if err == nil {
			return result, nil
		}
		log.Printf("Summary engine failed, falling back to vector engine: %v", err)
		return e.queryVector(ctx, req, history, stream)
	default:
		return e.queryVector(ctx, req, history, stream)
	}
}

// route asks the model to pick an engine. Anything unparseable falls back to
// the vector engine.
func (e *QueryEngine) route(ctx context.Context, question string) string {
	choices := fmt.Sprintf("(1) %s\n(2) %s", summaryToolDescription, vectorToolDescription)
	prompt := fmt.Sprintf(selectorPromptTemplate, 2, choices, question)

	verdict, err := e.ai.Complete(ctx, prompt)
	if err != nil {
		log.Printf("Selector failed, using vector engine: %v", err)
		return types.EngineVector
	}

	decision, err := ParseRouteDecision(verdict)
	if err != nil {
		log.Printf("Unparseable selector verdict %q, using vector engine", verdict)
		return types.EngineVector
	}
	if decision.Choice == 1 {
		return types.EngineSummary
	}
	return types.EngineVector
}

// ParseRouteDecision extracts the selector verdict from raw model output,
// tolerating surrounding prose and markdown fences
func ParseRouteDecision(output string) (types.RouteDecision, error) {
	var decision types.RouteDecision
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start == -1 || end == -1 || end < start {
		return decision, fmt.Errorf("no JSON object in selector output")
	}
	if err := json.Unmarshal([]byte(output[start:end+1]), &decision); err != nil {
		return decision, fmt.Errorf("invalid selector output: %w", err)
	}
	if decision.Choice < 1 || decision.Choice > 2 {
		return decision, fmt.Errorf("selector choice %d out of range", decision.Choice)
	}
	return decision, nil
}

func (e *QueryEngine) queryVector(ctx context.Context, req types.AskRequest, history []types.ChatMessage, stream types.StreamHandler) (*types.QueryResult, error) {
	limit := req.TopK
	if limit <= 0 {
		limit = e.topK
	}
	metadata := types.Metadata{Title: req.Title, Tags: req.Tags}

	docs, err := e.retrieve(ctx, req.Question, metadata, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(docs) == 0 {
		return &types.QueryResult{
			Answer: "I could not find anything relevant in the uploaded papers. Please upload documents first or rephrase the question.",
			Engine: types.EngineVector,
		}, nil
	}

	var contextBlock strings.Builder
	for _, doc := range docs {
		fmt.Fprintf(&contextBlock, "[%s, page %s]\n%s\n\n",
			doc.Metadata.Title, doc.Metadata.Custom["page"], doc.Content)
	}

	messages := make([]types.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, types.ChatMessage{
		Role: types.RoleUser,
		Content: fmt.Sprintf(
			"Context information from the uploaded papers is below.\n---------------------\n%s---------------------\nGiven the context information and not prior knowledge, answer the question: %s",
			contextBlock.String(), req.Question),
	})

	answer, err := e.synthesize(ctx, messages, stream)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize answer: %w", err)
	}

	return &types.QueryResult{
		Answer:  answer,
		Engine:  types.EngineVector,
		Sources: docs,
	}, nil
}

// synthesize runs the final generation step, streaming when a handler is set
func (e *QueryEngine) synthesize(ctx context.Context, messages []types.ChatMessage, stream types.StreamHandler) (string, error) {
	if stream == nil {
		return e.ai.Chat(ctx, messages)
	}
	var answer strings.Builder
	err := e.ai.ChatStream(ctx, messages, func(delta string) {
		answer.WriteString(delta)
		stream(delta)
	})
	if err != nil {
		return "", err
	}
	return answer.String(), nil
}

// retrieve embeds the question client-side when the model API supports it,
// otherwise leans on the server-side text2vec module
func (e *QueryEngine) retrieve(ctx context.Context, question string, metadata types.Metadata, limit int) ([]types.Document, error) {
	embeddings, err := e.ai.Embed(ctx, []string{question})
	if err == nil && len(embeddings) == 1 {
		docs, _, err := e.vectorDB.SearchNearVector(ctx, embeddings[0], metadata, limit)
		if err == nil {
			return docs, nil
		}
		log.Printf("nearVector search failed, trying nearText: %v", err)
	}
	docs, _, err := e.vectorDB.SearchSimilarWithMetadata(ctx, []string{question}, metadata, limit)
	return docs, err
}

// querySummary tree-summarizes every chunk of the targeted papers before
// answering
func (e *QueryEngine) querySummary(ctx context.Context, req types.AskRequest, history []types.ChatMessage, stream types.StreamHandler) (*types.QueryResult, error) {
	var docs []types.Document
	var err error
	if req.Title != "" {
		docs, err = e.vectorDB.ListChunks(ctx, req.Title)
	} else {
		docs, err = e.vectorDB.SearchByMetadata(ctx, types.Metadata{Tags: req.Tags}, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no chunks found to summarize")
	}

	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Content)
	}

	summary, err := e.treeSummarize(ctx, req.Question, texts)
	if err != nil {
		return nil, err
	}

	messages := make([]types.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, types.ChatMessage{
		Role: types.RoleUser,
		Content: fmt.Sprintf(
			"The following is a summary of the uploaded papers.\n---------------------\n%s\n---------------------\nAnswer the question using the summary: %s",
			summary, req.Question),
	})

	answer, err := e.synthesize(ctx, messages, stream)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize answer: %w", err)
	}

	return &types.QueryResult{
		Answer: answer,
		Engine: types.EngineSummary,
	}, nil
}

// treeSummarize collapses chunk groups bottom-up until one summary remains
func (e *QueryEngine) treeSummarize(ctx context.Context, question string, texts []string) (string, error) {
	for len(texts) > 1 {
		var reduced []string
		for i := 0; i < len(texts); i += summaryGroupSize {
			end := i + summaryGroupSize
			if end > len(texts) {
				end = len(texts)
			}
			prompt := fmt.Sprintf(
				"Summarize the following passages from a scientific paper, keeping every detail relevant to the question %q:\n\n%s",
				question, strings.Join(texts[i:end], "\n\n"))
			summary, err := e.ai.Complete(ctx, prompt)
			if err != nil {
				return "", fmt.Errorf("summarization failed: %w", err)
			}
			reduced = append(reduced, summary)
		}
		texts = reduced
	}
	return texts[0], nil
}
