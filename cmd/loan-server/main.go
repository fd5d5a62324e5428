package main

import (
	"context"
	"log"
	"time"

	"genie-backend/internal/config"
	"genie-backend/internal/db"
	"genie-backend/internal/loan"
	"genie-backend/internal/server"
	"genie-backend/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Missing artifacts leave the server up; /api/loan/predict answers 503.
	predictor, err := loan.LoadPredictor(cfg.ModelPath, cfg.ScalerPath)
	if err != nil {
		log.Printf("[loan] running without a model: %v", err)
	} else {
		log.Printf("[loan] artifacts loaded (fingerprint %s)", predictor.Fingerprint())
	}

	cache := predictionCache(cfg)

	var (
		audit   loan.AuditLog
		history server.PredictionHistory
	)
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := database.RunMigrations(ctx, cfg.MigrationsDir); err != nil {
			cancel()
			log.Fatalf("failed to run migrations: %v", err)
		}
		cancel()
		defer database.Close()

		pl := store.NewPredictionLog(database)
		audit, history = pl, pl
		log.Println("[db] prediction audit log enabled")
	}

	svc := loan.NewService(predictor, cache, audit)
	s := server.NewLoanServer(cfg, svc, history)

	if err := server.Serve(":"+cfg.LoanPort, s.Router()); err != nil {
		log.Printf("server error: %v", err)
	}
	log.Println("server exited")
}

func predictionCache(cfg config.Config) store.PredictionCache {
	if cfg.RedisAddr == "" {
		return store.NewMemoryCache(cfg.PredictionCacheTTL)
	}
	rc := store.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.PredictionCacheTTL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Printf("[cache] redis at %s unreachable, using memory: %v", cfg.RedisAddr, err)
		_ = rc.Close()
		return store.NewMemoryCache(cfg.PredictionCacheTTL)
	}
	log.Printf("[cache] using redis at %s", cfg.RedisAddr)
	return rc
}
