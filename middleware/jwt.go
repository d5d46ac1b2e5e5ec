package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/teenai/paperchat-be/types"
	"github.com/teenai/paperchat-be/utils"
)

const ClaimsContextKey = "claims"

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
		Status:  types.StatusError,
		Message: message,
	})
}

func parseBearer(c *gin.Context) (*utils.UserClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "Authorization header is required")
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		abortUnauthorized(c, "Authorization header format must be Bearer {token}")
		return nil, false
	}

	claims, err := utils.ParseUserToken(parts[1])
	if err != nil {
		abortUnauthorized(c, "Invalid token")
		return nil, false
	}
	return claims, true
}

// AuthMiddleware requires a valid user token and stores the claims in the
// request context
func AuthMiddleware(c *gin.Context) {
	claims, ok := parseBearer(c)
	if !ok {
		return
	}
	c.Set(ClaimsContextKey, claims)
	c.Next()
}

// AdminAuthMiddleware additionally requires the admin role
func AdminAuthMiddleware(c *gin.Context) {
	claims, ok := parseBearer(c)
	if !ok {
		return
	}
	if claims.Role != types.USER_ROLE_ADMIN {
		c.AbortWithStatusJSON(http.StatusForbidden, types.DataResponse{
			Status:  types.StatusError,
			Message: "Admin privileges required",
		})
		return
	}
	c.Set(ClaimsContextKey, claims)
	c.Next()
}

// ClaimsFromContext returns the authenticated user claims set by the auth
// middleware
func ClaimsFromContext(c *gin.Context) *utils.UserClaims {
	value, exists := c.Get(ClaimsContextKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*utils.UserClaims)
	return claims
}
