package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"coffee-salon/internal/app"
)

const (
	ContextIdentityKey  = "identity"
	ContextAuthErrorKey = "auth_error"
)

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*app.Identity, error)
}

// ResolveIdentity resolves an optional bearer credential. Requests without one
// continue as anonymous; a bad one is remembered for the handler to report, so
// operations that do not need a caller still work.
func ResolveIdentity(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		ident, err := resolver.ResolveIdentity(c.Request.Context(), token)
		if err != nil {
			c.Set(ContextAuthErrorKey, err)
		} else {
			c.Set(ContextIdentityKey, ident)
		}
		c.Next()
	}
}

// Identity returns the caller resolved by ResolveIdentity. Both results are nil
// for an anonymous request.
func Identity(c *gin.Context) (*app.Identity, error) {
	if errAny, ok := c.Get(ContextAuthErrorKey); ok {
		if err, ok := errAny.(error); ok {
			return nil, err
		}
	}
	if identAny, ok := c.Get(ContextIdentityKey); ok {
		if ident, ok := identAny.(*app.Identity); ok {
			return ident, nil
		}
	}
	return nil, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return strings.TrimSpace(authHeader[len(prefix):])
	}
	// browsers cannot set headers on a websocket handshake
	return strings.TrimSpace(c.Query("token"))
}
