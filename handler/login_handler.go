package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
	"github.com/teenai/paperchat-be/utils"
)

type LoginHandler interface {
	HandleLogin(c *gin.Context)
}

type loginHandler struct {
	userService service.UserService
}

func NewLoginHandler(userService service.UserService) LoginHandler {
	return &loginHandler{
		userService: userService,
	}
}

func (h *loginHandler) HandleLogin(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "Invalid request body",
		})
		return
	}

	user, err := h.userService.Authenticate(c, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, types.DataResponse{
				Status:  types.StatusError,
				Message: "Invalid username or password",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}

	token, err := utils.GenerateUserToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  types.StatusError,
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: types.StatusSuccess,
		Data: types.LoginResponse{
			Token: token,
			User:  user,
		},
	})
}
