package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teenai/paperchat-be/middleware"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

// HistoryHandler exposes chat history: listing chats, reading messages and
// clearing history
type HistoryHandler struct {
	chatService *service.ChatService
}

func NewHistoryHandler(chatService *service.ChatService) *HistoryHandler {
	return &HistoryHandler{
		chatService: chatService,
	}
}

func (h *HistoryHandler) HandleListChats(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		sendUnauthenticated(c)
		return
	}

	chats, err := h.chatService.ListChats(c.Request.Context(), claims.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data:   chats,
	})
}

func (h *HistoryHandler) HandleGetMessages(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		sendUnauthenticated(c)
		return
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), claims.ID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data:   messages,
	})
}

// HandleClearHistory deletes the messages of a chat but keeps the chat
func (h *HistoryHandler) HandleClearHistory(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		sendUnauthenticated(c)
		return
	}

	if err := h.chatService.ClearHistory(c.Request.Context(), claims.ID, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  types.StatusSuccess,
		Message: "Chat history cleared",
	})
}

func (h *HistoryHandler) HandleDeleteChat(c *gin.Context) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		sendUnauthenticated(c)
		return
	}

	if err := h.chatService.DeleteChat(c.Request.Context(), claims.ID, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status:  types.StatusSuccess,
		Message: "Chat deleted",
	})
}

func sendUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, types.DataResponse{
		Status:  types.StatusError,
		Message: "Not authenticated",
	})
}
