package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/trainboard/internal/interface/http"
	"github.com/oksasatya/trainboard/internal/interface/middleware"
)

// AuthModule serves the public signup, signin and refresh endpoints.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Redis   *redis.Client
	Limit   int // requests per minute per IP and route
	Allow   middleware.AllowFunc
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client, limit int, allow middleware.AllowFunc) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb, Limit: limit, Allow: allow}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(m.Redis, m.Limit, time.Minute, middleware.KeyByIPAndPath(), m.Allow)

	auth := rg.Group("/auth", limiter)
	{
		auth.POST("/signup", m.Handler.SignUp)
		auth.POST("/signin", m.Handler.SignIn)
		auth.POST("/refresh", m.Handler.Refresh)
	}
}
