package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teenai/paperchat-be/middleware"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// HandleChat answers a question inside a chat, creating the chat when no id
// is given
func (h *ChatHandler) HandleChat(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, types.DataResponse{
			Status:  types.StatusError,
			Message: "Not authenticated",
		})
		return
	}

	var req types.ChatRequest
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

	response, err := h.chatService.Ask(c.Request.Context(), claims.ID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data:   response,
	})
}
