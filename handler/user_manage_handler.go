package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

type UserManageHandler interface {
	HandleCreateUser(c *gin.Context)
	HandlePaginateUsers(c *gin.Context)
	HandleGetUser(c *gin.Context)
	HandleDeleteUser(c *gin.Context)
}

type userManageHandler struct {
	userService service.UserService
}

func NewUserManageHandler(userService service.UserService) UserManageHandler {
	return &userManageHandler{
		userService: userService,
	}
}

func (h *userManageHandler) HandleCreateUser(c *gin.Context) {
	var req types.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "Invalid request body",
		})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data:   user,
	})
}

func (h *userManageHandler) HandlePaginateUsers(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	users, total, err := h.userService.PaginateUsers(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.PaginateResponse{
		Total:    total,
		Elements: users,
		Page:     page,
		Limit:    limit,
	})
}

func (h *userManageHandler) HandleGetUser(c *gin.Context) {
	id := c.Query("id")
	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  types.StatusError,
			Message: "user not found",
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data:   user,
	})
}

func (h *userManageHandler) HandleDeleteUser(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "id parameter is required",
		})
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
	})
}
