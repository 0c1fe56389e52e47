package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifelink-backend/internal/domain"
	"lifelink-backend/pkg/jwt"
	"lifelink-backend/pkg/response"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID   = "user_id"
	ContextFullName = "full_name"
	ContextRole     = "role"
)

// RevocationChecker reports whether a token has been revoked
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware validates the bearer token and sets user_id, full_name and
// role on the context. revocationChecker may be nil; revocation errors fail
// open since the signature was already verified.
func AuthMiddleware(jwtManager *jwt.JWTManager, revocationChecker RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]

		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		if claims.Audience != jwt.Audience {
			response.Unauthorized(c, "Invalid token audience")
			c.Abort()
			return
		}

		if revocationChecker != nil {
			revoked, err := revocationChecker.IsRevoked(c.Request.Context(), tokenString)
			if err == nil && revoked {
				response.Unauthorized(c, "Token revoked")
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextFullName, claims.FullName)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects requests whose token role differs from the given role
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != role {
			response.Forbidden(c, "Requires "+string(role)+" role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID extracts the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// GetRole extracts the authenticated user's role from the context
func GetRole(c *gin.Context) domain.Role {
	value, exists := c.Get(ContextRole)
	if !exists {
		return ""
	}
	role, _ := value.(string)
	return domain.Role(role)
}

// GetFullName extracts the authenticated user's display name from the context
func GetFullName(c *gin.Context) string {
	value, exists := c.Get(ContextFullName)
	if !exists {
		return ""
	}
	name, _ := value.(string)
	return name
}
