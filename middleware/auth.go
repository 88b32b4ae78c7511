package middleware

import (
	"context"
	"net/http"
	"strings"

	"cermont/models"
	"cermont/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
	CtxUserRole  = "user_role"
	CtxClaims    = "claims"
)

// RevocationChecker reports whether an access token id was blacklisted on logout.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) bool
}

func abortUnauthorized(c *gin.Context, message, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Message: message,
		Error:   detail,
	})
}

func AuthMiddleware(tokens *utils.TokenManager, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required", "")
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
			abortUnauthorized(c, "Invalid authorization header format", "")
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(tokenParts[1]))
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token", err.Error())
			return
		}
		if revoked != nil && revoked.IsTokenRevoked(c.Request.Context(), claims.ID) {
			abortUnauthorized(c, "Token has been revoked", "")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxUserRole)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Message: "User role not found",
			})
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
			Success: false,
			Message: "Access denied",
			Error:   "requires role: " + strings.Join(roles, ", "),
		})
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}
