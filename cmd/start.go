/*
Copyright © 2025 teenai
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/spf13/cobra"
	"github.com/teenai/paperchat-be/config"
	"github.com/teenai/paperchat-be/database"
	"github.com/teenai/paperchat-be/handler"
	"github.com/teenai/paperchat-be/middleware"
	"github.com/teenai/paperchat-be/repository"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the paper chat server",
	Long:  `Starts the HTTP server that handles uploads, questions and chat history`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		pdfService := service.NewPDFService(types.DocumentServiceConfig{
			MaxChunkSize: cfg.Chunking.MaxChunkSize,
			OverlapSize:  cfg.Chunking.OverlapSize,
		})

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}

		aiService, err := newAIService(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize AI service: %v", err)
		}
		registerSearchTool(aiService, weaviateDb)

		mongoClient, err := database.NewMongoClient(context.Background(), cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		mongoDb := mongoClient.Database(cfg.MongoDatabase)

		store, err := newStorage(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize storage backend: %v", err)
		}

		archive, err := repository.NewQAArchive(cfg.ArchivePath)
		if err != nil {
			log.Fatalf("Failed to open Q&A archive: %v", err)
		}

		// init repo
		chatRepo := repository.NewChatRepo(mongoDb)
		userRepo := repository.NewUserRepo(mongoDb.Collection("users"))

		// init service
		userService := service.NewUserService(userRepo)
		fileService := service.NewFileService(store, weaviateDb, pdfService, aiService)
		engine := service.NewQueryEngine(aiService, weaviateDb, 0)
		chatService := service.NewChatService(chatRepo, engine, archive)
		wsService := service.NewWebSocketService(chatService)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		uploadHandler := handler.NewUploadHandler(fileService)
		chatHandler := handler.NewChatHandler(chatService)
		historyHandler := handler.NewHistoryHandler(chatService)
		queryHandler := handler.NewQueryHandler(engine, weaviateDb)
		pdfHandler := handler.NewDocumentHandler(store)
		loginHandler := handler.NewLoginHandler(userService)
		userMngHandler := handler.NewUserManageHandler(userService)

		metrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
		if err != nil {
			log.Fatalf("Failed to register metrics: %v", err)
		}

		// Setup Gin router
		router := gin.Default()

		// Apply global middleware
		router.Use(corsHandler.CorsMiddleware)
		router.Use(metrics.Handler())

		router.GET("/healthz", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))

		// API v1 routes - require authentication
		apiV1 := router.Group("/api/v1")
		apiV1.POST("/login", loginHandler.HandleLogin)

		userRoutes := apiV1.Group("/")
		userRoutes.Use(middleware.AuthMiddleware)
		{
			userRoutes.POST("/chat", chatHandler.HandleChat)
			userRoutes.GET("/chats", historyHandler.HandleListChats)
			userRoutes.GET("/chats/:id/messages", historyHandler.HandleGetMessages)
			userRoutes.POST("/chats/:id/clear", historyHandler.HandleClearHistory)
			userRoutes.DELETE("/chats/:id", historyHandler.HandleDeleteChat)
			userRoutes.POST("/ask", queryHandler.HandleAsk)
			userRoutes.POST("/documents/search", queryHandler.HandleSearch)
			userRoutes.POST("/documents/ask-ai", queryHandler.HandleAskAI)
			userRoutes.GET("/pdf", pdfHandler.HandleServeDocument)
			userRoutes.GET("/ws/chat", func(c *gin.Context) {
				claims := middleware.ClaimsFromContext(c)
				if claims == nil {
					c.AbortWithStatus(401)
					return
				}
				wsService.HandleChat(c.Writer, c.Request, claims.ID)
			})
		}

		// Admin routes - require admin authentication
		adminRoutes := router.Group("/admin/api/v1")
		adminRoutes.Use(middleware.AdminAuthMiddleware)
		{
			adminRoutes.POST("/upload", uploadHandler.UploadDocumentHandler)
			adminRoutes.POST("/users/create", userMngHandler.HandleCreateUser)
			adminRoutes.GET("/users/paginate", userMngHandler.HandlePaginateUsers)
			adminRoutes.GET("/users/get", userMngHandler.HandleGetUser)
			adminRoutes.DELETE("/users/delete", userMngHandler.HandleDeleteUser)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

// registerSearchTool exposes vector search as a function call so OpenAI-style
// models can look up passages on their own. Gemini goes through the query
// engine instead.
func registerSearchTool(ai service.AIService, vectorDB database.VectorStore) {
	oa, ok := ai.(*service.OpenAIService)
	if !ok {
		return
	}
	oa.RegisterFunctionCall(
		"search_papers",
		"Search the indexed papers for passages relevant to a query",
		jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"query": {
					Type:        jsonschema.String,
					Description: "The search query",
				},
			},
			Required: []string{"query"},
		},
		func(ctx context.Context, args []byte) (any, error) {
			var params struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, err
			}
			docs, _, err := vectorDB.SearchSimilarWithMetadata(ctx, []string{params.Query}, types.Metadata{}, 5)
			if err != nil {
				return nil, err
			}
			jsonResult, err := json.Marshal(docs)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal results: %v", err)
			}
			return string(jsonResult), nil
		},
	)
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
