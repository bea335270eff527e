package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awanllm/chat-gateway/internal/api"
	"github.com/awanllm/chat-gateway/internal/auth"
	"github.com/awanllm/chat-gateway/internal/chat"
	"github.com/awanllm/chat-gateway/internal/config"
	"github.com/awanllm/chat-gateway/internal/database"
	"github.com/awanllm/chat-gateway/internal/llm"
	"github.com/awanllm/chat-gateway/internal/memory"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connections
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	redisClient := database.InitRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	providers := llm.ProvidersFromConfig(cfg)
	resolver, err := llm.NewResolver(cfg.DefaultProvider, providers)
	if err != nil {
		log.Fatalf("Invalid DEFAULT_LLM_PROVIDER: %v", err)
	}
	for _, id := range llm.KnownProviders {
		if _, ok := providers[id]; ok {
			log.Printf("✅ Provider %s configured", id)
		}
	}

	store := memory.NewCachedStore(memory.NewGormStore(db), redisClient, cfg.HistoryCacheTTL)
	service := chat.NewService(store, resolver, cfg.MaxHistoryMessages, cfg.UpstreamTimeout)
	validator := auth.NewValidator(db, redisClient, cfg.APIKeyCacheTTL)

	// Setup and run the server
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           api.NewRouter(cfg, service, validator),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s (default provider: %s)", cfg.ServerPort, resolver.Default())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server exited")
}
