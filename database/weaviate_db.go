package database

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/teenai/paperchat-be/config"
	"github.com/teenai/paperchat-be/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

var (
	PAPER_CLASS        = "Paper"
	PAPER_CLASS_OBJECT = &models.Class{
		Class: PAPER_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "tags", DataType: []string{"text[]"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "totalPages", DataType: []string{"int"}},
			{Name: "createdAt", DataType: []string{"int"}},
		},
		VectorIndexType: "hnsw",
	}
)

var paperFields = []graphql.Field{
	{Name: "content"},
	{Name: "title"},
	{Name: "source"},
	{Name: "tags"},
	{Name: "page"},
	{Name: "totalPages"},
	{Name: "createdAt"},
	{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
}

type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(config config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(config.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(config.Host, scheme+"://")
	cfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if config.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{
			Value: config.APIKey,
		}
		cfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     config.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	PAPER_CLASS_OBJECT.Vectorizer = config.Text2Vec
	PAPER_CLASS_OBJECT.ModuleConfig = config.ModuleConfig
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}

	hasPaperClass := false
	for _, class := range schema.Classes {
		if class.Class == PAPER_CLASS {
			hasPaperClass = true
			break
		}
	}
	// Create Paper class if it doesn't exist
	if !hasPaperClass {
		err = client.Schema().ClassCreator().WithClass(PAPER_CLASS_OBJECT).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create Paper class: %v", err)
		}
	}
	return &WeaviateStore{
		client: client,
	}, nil
}

func (s *WeaviateStore) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(PAPER_CLASS).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete Paper class: %v", err)
	}

	err = s.client.Schema().ClassCreator().WithClass(PAPER_CLASS_OBJECT).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create Paper class: %v", err)
	}
	return nil
}

func (s *WeaviateStore) UpsertDocument(ctx context.Context, doc *types.Document, embedding []float32) error {
	creator := s.client.Data().Creator().
		WithClassName(PAPER_CLASS).
		WithProperties(chunkProperties(doc.Content, doc.Metadata, doc.CreatedAt))

	if embedding != nil {
		creator = creator.WithVector(embedding)
	}

	result, err := creator.Do(ctx)
	if err != nil {
		return err
	}
	log.Println("UpsertDocument result:", result.Object.ID)
	return nil
}

func (s *WeaviateStore) BatchInsertChunks(ctx context.Context, chunks []types.DocumentChunk, embeddings [][]float32) error {
	total := len(chunks)
	createdAt := time.Now().Unix()
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()

		for j := i; j < end; j++ {
			obj := &models.Object{
				Class: PAPER_CLASS,
				Properties: map[string]interface{}{
					"content":    chunks[j].Content,
					"title":      chunks[j].Metadata.Title,
					"source":     chunks[j].Metadata.Source,
					"tags":       chunks[j].Metadata.Tags,
					"page":       chunks[j].Metadata.PageNum,
					"totalPages": chunks[j].Metadata.TotalPages,
					"createdAt":  createdAt,
				},
			}
			if embeddings != nil && j < len(embeddings) {
				obj.Vector = embeddings[j]
			}
			batcher = batcher.WithObjects(obj)
		}

		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}

		log.Printf("Inserted batch %d-%d of %d chunks", i, end, total)
	}

	return nil
}

func (s *WeaviateStore) DeleteDocument(ctx context.Context, id string) error {
	return s.client.Data().Deleter().
		WithClassName(PAPER_CLASS).
		WithID(id).
		Do(ctx)
}

// DeleteByTitle removes every chunk belonging to a paper, used before re-ingesting
func (s *WeaviateStore) DeleteByTitle(ctx context.Context, title string) error {
	where := filters.Where().
		WithPath([]string{"title"}).
		WithOperator(filters.Equal).
		WithValueString(title)

	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(PAPER_CLASS).
		WithWhere(where).
		Do(ctx)
	return err
}

func (s *WeaviateStore) SearchSimilarWithMetadata(ctx context.Context, queries []string, metadata types.Metadata, limit int) ([]types.Document, []float32, error) {
	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts(queries).
		WithCertainty(0.7)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(PAPER_CLASS).
		WithFields(paperFields...).
		WithNearText(nearText)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if where := BuildMetadataFilter(metadata); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, nil, err
	}
	if result.Errors != nil {
		return nil, nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	return parseSearchResponse(result.Data)
}

func (s *WeaviateStore) SearchSimilar(ctx context.Context, queries []string, limit int) ([]types.Document, []float32, error) {
	return s.SearchSimilarWithMetadata(ctx, queries, types.Metadata{}, limit)
}

// AskAI retrieves the most similar chunks and lets Weaviate's generative
// module answer the question over them. The generated answer is attached to
// each document under the "generative" metadata key.
func (s *WeaviateStore) AskAI(ctx context.Context, question string, queries []string, metadata types.Metadata, limit int) ([]types.Document, error) {
	if len(queries) == 0 {
		queries = []string{question}
	}

	gs := graphql.NewGenerativeSearch().SingleResult(question + " with context {content}")

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts(queries).
		WithCertainty(0.7)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(PAPER_CLASS).
		WithFields(paperFields...).
		WithGenerativeSearch(gs).
		WithNearText(nearText)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if where := BuildMetadataFilter(metadata); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("generative search failed: %v", result.Errors[0].Message)
	}

	docs, _, err := parseSearchResponse(result.Data)
	if err != nil {
		return nil, err
	}
	attachGenerated(result.Data, docs)
	return docs, nil
}

// attachGenerated copies the generative answers from the raw response into
// the parsed documents, matching by position
func attachGenerated(data map[string]models.JSONObject, docs []types.Document) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return
	}
	items, ok := get[PAPER_CLASS].([]interface{})
	if !ok {
		return
	}
	for i, item := range items {
		if i >= len(docs) {
			break
		}
		props, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		additional, ok := props["_additional"].(map[string]interface{})
		if !ok {
			continue
		}
		generate, ok := additional["generate"].(map[string]interface{})
		if !ok {
			continue
		}
		if generate["error"] == nil {
			docs[i].Metadata.Custom["generative"] = asString(generate["singleResult"])
		}
	}
}

// SearchNearVector retrieves chunks by a client-side embedding instead of a
// server-side text2vec module
func (s *WeaviateStore) SearchNearVector(ctx context.Context, vector []float32, metadata types.Metadata, limit int) ([]types.Document, []float32, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(PAPER_CLASS).
		WithFields(paperFields...).
		WithNearVector(nearVector)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if where := BuildMetadataFilter(metadata); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, nil, err
	}
	if result.Errors != nil {
		return nil, nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	return parseSearchResponse(result.Data)
}

func (s *WeaviateStore) SearchByMetadata(ctx context.Context, metadata types.Metadata, limit int) ([]types.Document, error) {
	getBuilder := s.client.GraphQL().Get().
		WithClassName(PAPER_CLASS).
		WithFields(paperFields...)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if where := BuildMetadataFilter(metadata); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}
	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	docs, _, err := parseSearchResponse(result.Data)
	return docs, err
}

// ListChunks returns every chunk of a paper ordered by page, feeding the
// summary engine
func (s *WeaviateStore) ListChunks(ctx context.Context, title string) ([]types.Document, error) {
	where := filters.Where().
		WithPath([]string{"title"}).
		WithOperator(filters.Equal).
		WithValueString(title)

	result, err := s.client.GraphQL().Get().
		WithClassName(PAPER_CLASS).
		WithFields(paperFields...).
		WithWhere(where).
		WithSort(graphql.Sort{Path: []string{"page"}, Order: graphql.Asc}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks failed: %v", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("list chunks failed: %v", result.Errors[0].Message)
	}

	docs, _, err := parseSearchResponse(result.Data)
	return docs, err
}

func (s *WeaviateStore) CreateCollection(ctx context.Context, name string) error {
	classObj := &models.Class{
		Class:           name,
		Properties:      PAPER_CLASS_OBJECT.Properties,
		Vectorizer:      PAPER_CLASS_OBJECT.Vectorizer,
		ModuleConfig:    PAPER_CLASS_OBJECT.ModuleConfig,
		VectorIndexType: "hnsw",
	}

	return s.client.Schema().ClassCreator().WithClass(classObj).Do(ctx)
}

func (s *WeaviateStore) DeleteCollection(ctx context.Context, name string) error {
	return s.client.Schema().ClassDeleter().WithClassName(name).Do(ctx)
}

// Helper functions

func chunkProperties(content string, metadata types.Metadata, createdAt int64) map[string]interface{} {
	props := map[string]interface{}{
		"content":   content,
		"title":     metadata.Title,
		"source":    metadata.Source,
		"tags":      metadata.Tags,
		"createdAt": createdAt,
	}
	if page, ok := metadata.Custom["page"]; ok {
		if p, err := strconv.Atoi(page); err == nil {
			props["page"] = p
		}
	}
	if totalPages, ok := metadata.Custom["total_pages"]; ok {
		if p, err := strconv.Atoi(totalPages); err == nil {
			props["totalPages"] = p
		}
	}
	return props
}

func parseSearchResponse(data map[string]models.JSONObject) ([]types.Document, []float32, error) {
	var docs []types.Document
	var distances []float32

	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return docs, distances, nil
	}
	items, ok := get[PAPER_CLASS].([]interface{})
	if !ok {
		return docs, distances, nil
	}

	for _, item := range items {
		props, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		document := types.Document{
			Content: asString(props["content"]),
			Metadata: types.Metadata{
				Title:  asString(props["title"]),
				Source: asString(props["source"]),
				Tags:   parseStringArray(props["tags"]),
				Custom: map[string]string{},
			},
		}
		if createdAt, ok := props["createdAt"].(float64); ok {
			document.CreatedAt = int64(createdAt)
		}
		if page, ok := props["page"].(float64); ok {
			document.Metadata.Custom["page"] = strconv.Itoa(int(page))
		}
		if totalPages, ok := props["totalPages"].(float64); ok {
			document.Metadata.Custom["total_pages"] = strconv.Itoa(int(totalPages))
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			document.ID = asString(additional["id"])
			if distance, ok := additional["distance"].(float64); ok {
				distances = append(distances, float32(distance))
				document.Metadata.Custom["distance"] = fmt.Sprintf("%f", distance)
			}
		}
		docs = append(docs, document)
	}

	return docs, distances, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func parseStringArray(v interface{}) []string {
	if v == nil {
		return nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// BuildMetadataFilter translates document metadata into a weaviate where filter
func BuildMetadataFilter(metadata types.Metadata) *filters.WhereBuilder {
	var whereFilter *filters.WhereBuilder

	if metadata.Title != "" {
		whereFilter = filters.Where().
			WithPath([]string{"title"}).
			WithOperator(filters.Equal).
			WithValueString(metadata.Title)
	}

	if metadata.Source != "" {
		sourceFilter := filters.Where().
			WithPath([]string{"source"}).
			WithOperator(filters.Equal).
			WithValueString(metadata.Source)
		if whereFilter == nil {
			whereFilter = sourceFilter
		} else {
			whereFilter = whereFilter.WithOperator(filters.And).WithOperands([]*filters.WhereBuilder{sourceFilter})
		}
	}

	for _, tag := range metadata.Tags {
		tagFilter := filters.Where().
			WithPath([]string{"tags"}).
			WithOperator(filters.ContainsAny).
			WithValueString(tag)
		if whereFilter == nil {
			whereFilter = tagFilter
		} else {
			whereFilter = whereFilter.WithOperator(filters.And).WithOperands([]*filters.WhereBuilder{tagFilter})
		}
	}

	return whereFilter
}
