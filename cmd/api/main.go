package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/melih/slipway/internal/adapters/docker"
	gitadapter "github.com/melih/slipway/internal/adapters/git"
	"github.com/melih/slipway/internal/adapters/http"
	"github.com/melih/slipway/internal/config"
	"github.com/melih/slipway/internal/core/pipeline"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	configPath := envOr("SLIPWAY_CONFIG", "slipway.yaml")
	repoPath := envOr("SLIPWAY_REPO", ".")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Infrastructure adapters
	builder, err := docker.NewBuilder()
	if err != nil {
		log.Fatalf("Failed to initialize Docker builder: %v", err)
	}
	scanner, err := docker.NewScanRunner()
	if err != nil {
		log.Fatalf("Failed to initialize scan runner: %v", err)
	}
	publisher, err := docker.NewPublisher()
	if err != nil {
		log.Fatalf("Failed to initialize publisher: %v", err)
	}
	diff := gitadapter.NewDiffProvider(repoPath, cfg.SourceRoot)

	// Core orchestrator and its HTTP surface
	orc := pipeline.New(cfg, repoPath, diff, builder, scanner, publisher)
	store := http.NewRunStore()
	handler := http.NewPipelineHandler(orc, diff, cfg.Catalog(), cfg.BaseRef, store)

	app := fiber.New()

	api := app.Group("/api")
	v1 := api.Group("/v1")

	runs := v1.Group("/runs")
	runs.Post("/", handler.TriggerRun)
	runs.Get("/", handler.ListRuns)
	runs.Get("/:id", handler.GetRun)

	v1.Get("/services", handler.ListServices)
	v1.Post("/selection", handler.PreviewSelection)

	log.Println("Server starting on :3000")
	if err := app.Listen(":3000"); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
