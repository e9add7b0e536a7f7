// Package middleware provides HTTP middleware for the Gin router.
//
// Go Learning Note — Middleware Pattern (Gin):
// In Gin, middleware is any function with the signature `gin.HandlerFunc`, which
// is `func(*gin.Context)`. Middleware functions form a chain: each one runs,
// optionally calls c.Next() to pass control to the next handler, and can call
// c.Abort() to stop the chain.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rides/internal/domain/entities"
	"rides/internal/repository"
)

// Context keys for request-scoped values set with c.Set.
const (
	UserIDKey    = "user_id"
	UserKey      = "user"
	RequestIDKey = "request_id"
)

// BearerAuth resolves "Authorization: Bearer <user-id>" against the user
// store. Unknown users are rejected with 401.
//
// This stands in for real token verification: the bearer value is taken to be
// the user ID as-is. A JWT verifier would replace only the parsing step; the
// store lookup and the values placed on the context stay the same.
//
// Go Learning Note — Returning Functions (Closures):
// BearerAuth returns a gin.HandlerFunc that captures users. This is how Gin
// middleware receives its dependencies.
func BearerAuth(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		userID := strings.TrimSpace(parts[1])
		user, err := users.GetByID(c.Request.Context(), userID)
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "user store unavailable", "retryable": true})
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, user)
		c.Next()
	}
}

// RequireDriver ensures the authenticated user has the driver role. Must run
// after BearerAuth.
func RequireDriver() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := GetUser(c); user == nil || !user.IsDriver {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "driver access required"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the ID set by BearerAuth.
//
// Go Learning Note — Type Assertion:
// c.GetString wraps the `v, ok := x.(string)` form, returning "" instead of
// panicking when the key is missing.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUser returns the user loaded by BearerAuth, or nil.
func GetUser(c *gin.Context) *entities.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*entities.User)
	return user
}
