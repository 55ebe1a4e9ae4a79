package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

// TokenAuthMiddleware authenticates requests with the opaque bearer tokens
// issued at login and resolves them to a user through the auth service.
type TokenAuthMiddleware struct {
	authService services.AuthService
	logger      utils.Logger
}

func NewTokenAuthMiddleware(authService services.AuthService, logger utils.Logger) *TokenAuthMiddleware {
	return &TokenAuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// AuthMiddleware resolves the Authorization header and stores the caller's
// identity in the request context.
func (m *TokenAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or invalid Authorization header",
			})
			return
		}

		user, err := m.authService.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired session token",
			})
			return
		}

		c.Set("user_id", user.UID)
		c.Set("user_name", user.Name)
		c.Set("user_role", user.Role)
		c.Set("auth_token", token)

		c.Next()
	}
}

// RequireRoleMiddleware restricts a route group to the given roles. It must
// run after AuthMiddleware.
func (m *TokenAuthMiddleware) RequireRoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("user_role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}

		role, ok := value.(models.UserRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
		})
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
