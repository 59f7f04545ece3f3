package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openlearn/lms-service/internal/auth"
	"github.com/openlearn/lms-service/internal/models"
	"github.com/openlearn/lms-service/internal/repositories"
)

// JWTAuthMiddleware authenticates requests with the service's own bearer
// tokens. The user record is always re-read from the store so role changes
// and blocks take effect immediately, not at token expiry.
type JWTAuthMiddleware struct {
	tokens   *auth.TokenManager
	userRepo repositories.UserRepository
}

// NewJWTAuthMiddleware creates the authentication middleware
func NewJWTAuthMiddleware(tokens *auth.TokenManager, userRepo repositories.UserRepository) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// AuthMiddleware returns a Gin middleware that requires a valid bearer token
func (m *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.authenticate(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
			})
			c.Abort()
			return
		}

		if user.IsBlocked {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Account is blocked",
			})
			c.Abort()
			return
		}

		setUserContext(c, user)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches user info when a valid token is present
// and continues anonymously otherwise. Blocked users are still rejected:
// a blocked account has no public surface.
func (m *JWTAuthMiddleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.authenticate(c)
		if ok {
			if user.IsBlocked {
				c.JSON(http.StatusForbidden, ErrorResponse{
					Message: "Account is blocked",
				})
				c.Abort()
				return
			}
			setUserContext(c, user)
		}
		c.Next()
	}
}

// RequireRoleMiddleware checks if user has one of the required roles.
// Admins pass every role gate.
func (m *JWTAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Forbidden",
			})
			c.Abort()
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Forbidden",
			})
			c.Abort()
			return
		}

		for _, requiredRole := range requiredRoles {
			if role == requiredRole || role == models.RoleAdmin {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
		})
		c.Abort()
	}
}

// authenticate extracts and verifies the bearer token, then loads the
// current user record
func (m *JWTAuthMiddleware) authenticate(c *gin.Context) (*models.User, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
		return nil, false
	}

	userID, _, err := m.tokens.VerifyToken(tokenParts[1])
	if err != nil {
		return nil, false
	}

	user, err := m.userRepo.GetByID(c.Request.Context(), nil, userID)
	if err != nil {
		return nil, false
	}

	return user, true
}

func setUserContext(c *gin.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("user", user)
	c.Set("user_role", user.Role)
	c.Set("user_email", user.Email)
}

// GetUserFromContext extracts the authenticated user from the Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// OptionalUserFromContext returns the authenticated user or nil for
// anonymous requests
func OptionalUserFromContext(c *gin.Context) *models.User {
	user, err := GetUserFromContext(c)
	if err != nil {
		return nil
	}
	return user
}

// GetUserIDFromContext extracts the authenticated user's ID
func GetUserIDFromContext(c *gin.Context) (uint, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(uint)
	if !ok {
		return 0, fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}
