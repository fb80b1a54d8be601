package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ragbot/ragbot/internal/api"
	"github.com/ragbot/ragbot/internal/chunker"
	"github.com/ragbot/ragbot/internal/config"
	"github.com/ragbot/ragbot/internal/embedding"
	"github.com/ragbot/ragbot/internal/extract"
	"github.com/ragbot/ragbot/internal/llm"
	"github.com/ragbot/ragbot/internal/repository"
	"github.com/ragbot/ragbot/internal/service"
	"github.com/ragbot/ragbot/internal/vectorstore"
	"github.com/ragbot/ragbot/internal/websearch"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	convRepo := repository.NewConversationRepository(db)
	docRepo := repository.NewDocumentRepository(db)

	// Generation and embedding share one provider key. Without it the server
	// still starts; ingestion and queries report the provider as missing.
	var (
		embedder  vectorstore.Embedder
		generator service.Generator
	)
	if cfg.LLM.APIKey != "" {
		embedClient, err := embedding.NewClient(embedding.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.EmbeddingModel,
		})
		if err != nil {
			logger.Fatal("Failed to create embedding client", zap.Error(err))
		}
		embedder = embedClient

		llmClient, err := llm.NewClient(llm.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
		if err != nil {
			logger.Fatal("Failed to create llm client", zap.Error(err))
		}
		generator = llmClient
	} else {
		logger.Warn("llm.api_key not set, generation and ingestion are disabled")
	}

	var searcher service.WebSearcher
	if cfg.WebSearch.APIKey != "" {
		searchClient, err := websearch.NewClient(websearch.Config{
			APIKey:  cfg.WebSearch.APIKey,
			BaseURL: cfg.WebSearch.BaseURL,
		})
		if err != nil {
			logger.Fatal("Failed to create web search client", zap.Error(err))
		}
		searcher = searchClient
	} else {
		logger.Warn("web_search.api_key not set, web search is disabled")
	}

	// Initialize vector index
	store := vectorstore.New(embedder, cfg.Index.DataDir, logger)

	// Initialize services
	ingestService := service.NewIngestService(
		store,
		docRepo,
		chunker.New(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		extract.PDF,
		logger,
	)

	chatService := service.NewChatService(
		cfg,
		convRepo,
		store,
		generator,
		searcher,
		logger,
	)

	// Setup router
	router := api.SetupRouter(chatService, ingestService, api.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting ragbot server",
			zap.String("address", cfg.Address()),
			zap.Int("indexed_chunks", store.Count()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
