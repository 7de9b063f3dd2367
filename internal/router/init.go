package router

import (
	"github.com/oksasatya/trainboard/internal/application"
	"github.com/oksasatya/trainboard/internal/container"
	repo "github.com/oksasatya/trainboard/internal/domain/repository"
	pginfra "github.com/oksasatya/trainboard/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/trainboard/internal/interface/http"
	"github.com/oksasatya/trainboard/internal/interface/middleware"
	"github.com/oksasatya/trainboard/internal/router/modules"
)

type Deps struct {
	Auth   *handlers.AuthHandler
	Trains *handlers.TrainHandler
}

func buildDeps() Deps {
	logger := container.GetLogger()
	users := pginfra.NewUserRepository(container.GetPGPool())
	trains := pginfra.NewTrainRepository(container.GetPGPool())

	// keep the interfaces nil when the optional backends are absent
	var mail application.JobPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		mail = pub
	}
	var index repo.TrainIndexer
	if x := container.GetTrainIndex(); x != nil {
		index = x
	}

	authSvc := application.NewAuthService(users, container.GetJWT(), logger, mail)
	trainSvc := application.NewTrainService(trains, users, logger, index)

	return Deps{
		Auth:   handlers.NewAuthHandler(authSvc, logger),
		Trains: handlers.NewTrainHandler(trainSvc, logger),
	}
}

// InitModules wires every module from the container and adds it to r.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	deps := buildDeps()

	var allow middleware.AllowFunc
	if cfg.Env == "development" {
		allow = middleware.AllowPrivateIP()
	}

	r.Add(modules.NewAuthModule(deps.Auth, container.GetRedis(), cfg.AuthRateLimit, allow))
	r.Add(modules.NewTrainModule(deps.Trains, container.GetJWT(), container.GetRedis()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
}
