package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/trainboard/internal/interface/http"
	"github.com/oksasatya/trainboard/internal/interface/middleware"
	"github.com/oksasatya/trainboard/pkg/helpers"
)

// TrainModule serves /train. Every route requires a bearer access token.
type TrainModule struct {
	Handler *handlers.TrainHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewTrainModule(h *handlers.TrainHandler, jwt *helpers.JWTManager, rdb *redis.Client) *TrainModule {
	return &TrainModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *TrainModule) Name() string { return "train" }

func (m *TrainModule) Register(rg *gin.RouterGroup) {
	trains := rg.Group("/train")
	trains.Use(
		middleware.Auth(m.JWT),
		middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		trains.POST("", m.Handler.Create)
		trains.GET("", m.Handler.FindAll)
		trains.GET("/search", m.Handler.Search)
		trains.GET("/user/:id", m.Handler.FindByUser)
		trains.GET("/:id", m.Handler.FindOne)
		trains.PATCH("/:id", m.Handler.Update)
		trains.DELETE("/:id", m.Handler.Remove)
	}
}
