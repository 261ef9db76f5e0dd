package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JasChiang/ai-video-writer-sub002/api"
	"github.com/JasChiang/ai-video-writer-sub002/assets"
	"github.com/JasChiang/ai-video-writer-sub002/config"
	"github.com/JasChiang/ai-video-writer-sub002/download"
	"github.com/JasChiang/ai-video-writer-sub002/filestore"
	"github.com/JasChiang/ai-video-writer-sub002/frames"
	"github.com/JasChiang/ai-video-writer-sub002/generate"
	"github.com/JasChiang/ai-video-writer-sub002/pipeline"
	"github.com/JasChiang/ai-video-writer-sub002/ytinfo"
)

func main() {
	// .env is for local dev only; deployments set real env vars
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.Paths.VideoCache, cfg.Paths.ImageCache} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	// startup retention sweep, before request traffic; best-effort
	assets.SweepAll(cfg.Paths.VideoCache, cfg.Paths.ImageCache, cfg.Retention.Days)

	store := assets.NewStore(cfg.Paths.VideoCache)
	downloader := download.New(cfg.Download.Binary, cfg.Download.Retries, cfg.Paths.VideoCache)

	client := filestore.NewClient(cfg.FileStore.BaseURL)
	registry := filestore.NewRegistry(client)
	registry.PageSize = cfg.FileStore.ListPageSize
	registry.PollInterval = time.Duration(cfg.FileStore.PollIntervalSec) * time.Second
	registry.PollAttempts = cfg.FileStore.PollAttempts

	generator := generate.New(cfg.Generate.Model, cfg.Generate.Temperature, cfg.Generate.MaxTokens, cfg.FileStore.BaseURL)
	extractor := frames.New(cfg.Paths.ImageCache)

	orchestrator := pipeline.New(store, downloader, registry, generator, extractor, ytinfo.New())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("🎬 ai-video-writer starting on %s (retention: %dd)", cfg.Server.Address, cfg.Retention.Days)
	if err := api.New(cfg.Server.Address, orchestrator).Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("✅ shut down cleanly")
}
