package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/trainboard/config"
	"github.com/oksasatya/trainboard/internal/domain"
	"github.com/oksasatya/trainboard/internal/domain/entity"
	pginfra "github.com/oksasatya/trainboard/internal/infrastructure/postgres"
	"github.com/oksasatya/trainboard/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:    2,
		MinConns:    1,
		PingTimeout: cfg.DBPingTimeout,
		AppName:     cfg.AppName + "-seed",
	})
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	trains := pginfra.NewTrainRepository(pool)

	email := "demo@trainboard.dev"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		logger.Fatalf("failed to hash password: %v", err)
	}

	u := &entity.User{Email: email, Password: hash, Name: "Demo User"}
	if err := users.Create(ctx, u); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			logger.Fatalf("failed to seed user: %v", err)
		}
		if u, err = users.GetByEmail(ctx, email); err != nil {
			logger.Fatalf("failed to load existing user: %v", err)
		}
		logger.WithField("user_id", u.ID).Info("demo user already present")
	} else {
		logger.WithField("user_id", u.ID).Infof("seeded user email=%s password=%s", email, password)
	}

	existing, err := trains.ListByUserID(ctx, u.ID)
	if err != nil {
		logger.Fatalf("failed to list trains: %v", err)
	}
	if len(existing) > 0 {
		logger.WithField("count", len(existing)).Info("demo trains already present")
		return
	}

	day := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	for _, t := range []entity.Train{
		{Name: "Morning Express", Origin: "Paris", Destination: "Lyon", Departure: day.Add(7 * time.Hour), Arrival: day.Add(9 * time.Hour)},
		{Name: "Coastal Line", Origin: "Nice", Destination: "Marseille", Departure: day.Add(10 * time.Hour), Arrival: day.Add(12*time.Hour + 30*time.Minute)},
		{Name: "Night Sleeper", Origin: "Paris", Destination: "Nice", Departure: day.Add(21 * time.Hour), Arrival: day.Add(32 * time.Hour)},
	} {
		t.UserID = u.ID
		if err := trains.Create(ctx, &t); err != nil {
			logger.Fatalf("failed to seed train %q: %v", t.Name, err)
		}
		logger.WithField("train_id", t.ID).Infof("seeded train %s", t.Name)
	}
	logger.Info("seeded rows reach elasticsearch on the next api start")
}
