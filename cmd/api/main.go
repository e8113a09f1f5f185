package main

import (
	"context"
	"log"

	"github.com/aquavolt-iot/aquavolt-backend/config"
	accrepo "github.com/aquavolt-iot/aquavolt-backend/internal/account/repository"
	"github.com/aquavolt-iot/aquavolt-backend/internal/bootstrap"
	"github.com/aquavolt-iot/aquavolt-backend/internal/identity"
	"github.com/aquavolt-iot/aquavolt-backend/internal/maintenance"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN()})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	adminAuth, err := bootstrap.InitializeFirebase(&cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}

	provider := identity.NewFirebaseProvider(adminAuth, cfg.Firebase.APIKey)

	scheduler := maintenance.NewScheduler(accrepo.NewRepo(db))
	scheduler.Start()
	defer scheduler.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "aquavolt-backend",
		Version:     cfg.App.Version,
		DB:          db,
		Redis:       rdb,
		AdminAuth:   adminAuth,
		Provider:    provider,
	})

	log.Printf("listening on :%s (env=%s)", cfg.Server.Port, cfg.App.Environment)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
