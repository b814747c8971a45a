package main

import (
	"fmt"
	"log"

	"omrscan/internal/config"
	"omrscan/internal/handler"
	"omrscan/internal/omr"
	"omrscan/internal/repository/postgres"
	"omrscan/internal/router"
	"omrscan/internal/service"
	s3storage "omrscan/internal/storage/s3"
	"omrscan/internal/vision/gemini"
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
	templateRepo := postgres.NewTemplateRepo(db)
	keyRepo := postgres.NewAnswerKeyRepo(db)
	sheetRepo := postgres.NewSheetRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize vision pipeline
	visionClient := gemini.NewClient(&cfg.Vision)
	processor := omr.NewProcessor(visionClient)
	aggregator := omr.NewAggregator(processor, cfg.Vision.Concurrency)

	// Initialize services
	templateSvc := service.NewTemplateService(templateRepo)
	keySvc := service.NewAnswerKeyService(keyRepo, processor, &cfg.S3)
	sheetSvc := service.NewSheetService(sheetRepo, templateRepo, keyRepo, s3Client, processor, aggregator, &cfg.S3)

	// Initialize handlers
	healthH := handler.NewHealthHandler(db)
	templateH := handler.NewTemplateHandler(templateSvc)
	keyH := handler.NewAnswerKeyHandler(keySvc)
	sheetH := handler.NewSheetHandler(sheetSvc)

	// Setup router
	r := router.Setup(healthH, templateH, keyH, sheetH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
