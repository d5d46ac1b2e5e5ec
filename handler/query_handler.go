package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teenai/paperchat-be/database"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

// QueryHandler answers one-shot questions and raw similarity searches without
// touching chat history
type QueryHandler struct {
	engine   *service.QueryEngine
	vectorDB database.VectorStore
}

func NewQueryHandler(engine *service.QueryEngine, vectorDB database.VectorStore) *QueryHandler {
	return &QueryHandler{
		engine:   engine,
		vectorDB: vectorDB,
	}
}

func (h *QueryHandler) HandleAsk(c *gin.Context) {
	var req types.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "Invalid request body",
		})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "Question is required",
		})
		return
	}

	result, err := h.engine.Query(c.Request.Context(), req, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data:   result,
	})
}

// HandleAskAI answers a question with the vector store's generative module
// instead of the router engine, one round trip for retrieval and synthesis
func (h *QueryHandler) HandleAskAI(c *gin.Context) {
	var req types.AskAIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "Invalid request body",
		})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "Question is required",
		})
		return
	}
	if req.SearchRequest.Limit == 0 {
		req.SearchRequest.Limit = 5
	}

	docs, err := h.vectorDB.AskAI(
		c.Request.Context(),
		req.Question,
		req.SearchRequest.Queries,
		types.Metadata{Title: req.SearchRequest.Title, Tags: req.SearchRequest.Tags},
		req.SearchRequest.Limit,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: "Search failed: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data:   types.SearchResponse{Documents: docs},
	})
}

func (h *QueryHandler) HandleSearch(c *gin.Context) {
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "Invalid request body",
		})
		return
	}
	if len(req.Queries) == 0 {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "At least one query is required",
		})
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}

	docs, _, err := h.vectorDB.SearchSimilarWithMetadata(
		c.Request.Context(),
		req.Queries,
		types.Metadata{Title: req.Title, Tags: req.Tags},
		req.Limit,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: "Search failed: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data:   types.SearchResponse{Documents: docs},
	})
}
