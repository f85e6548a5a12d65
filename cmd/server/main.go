package main

import (
	"fmt"
	"log"

	"concord/internal/config"
	"concord/internal/engine"
	"concord/internal/handler"
	"concord/internal/repository/postgres"
	"concord/internal/router"
	"concord/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	runRepo := postgres.NewRunRepo(db)

	// Initialize consolidation engine
	eng := engine.New(cfg.Models.Descriptors(), engine.Thresholds{
		ConflictHighConfidence: cfg.Engine.ConflictHighConfidenceThreshold,
		ConfidenceSpreadMedium: cfg.Engine.ConfidenceSpreadMedium,
	}, nil)

	// Initialize services
	analysisSvc := service.NewAnalysisService(eng, runRepo)

	// Initialize handlers
	analysisH := handler.NewAnalysisHandler(analysisSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(analysisH, healthH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
