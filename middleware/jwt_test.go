package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teenai/paperchat-be/middleware"
	"github.com/teenai/paperchat-be/types"
	"github.com/teenai/paperchat-be/utils"
)

func authedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/user", middleware.AuthMiddleware, func(c *gin.Context) {
		claims := middleware.ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.ID})
	})
	router.GET("/admin", middleware.AdminAuthMiddleware, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	token, err := utils.GenerateUserToken(&types.User{ID: "user-1", Username: "alice", Role: role})
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := authedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, types.USER_ROLE_USER))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router := authedRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	router := authedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthMiddleware_RejectsNonAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := authedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, types.USER_ROLE_USER))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminAuthMiddleware_AllowsAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := authedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, types.USER_ROLE_ADMIN))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
