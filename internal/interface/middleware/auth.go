package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/trainboard/pkg/helpers"
	"github.com/oksasatya/trainboard/pkg/response"
)

const identityKey = "identity"

type ctxKey struct{}

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// Auth verifies the bearer access token and attaches the caller's identity
// to both the Gin context and the request context. Requests without a valid
// token are rejected with 401.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		id, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// CurrentIdentity returns the identity set by Auth.
func CurrentIdentity(c *gin.Context) (helpers.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return helpers.Identity{}, false
	}
	id, ok := v.(helpers.Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id helpers.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (helpers.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(helpers.Identity)
	return id, ok
}
