package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/askdocs/askdocs/internal/api"
	"github.com/askdocs/askdocs/internal/cache"
	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/database"
	"github.com/askdocs/askdocs/internal/document"
	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/rag"
	"github.com/askdocs/askdocs/internal/stt"
	"github.com/askdocs/askdocs/internal/vectorstore"
	"github.com/askdocs/askdocs/pkg/chunker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Redis is optional; without it the embedding cache is disabled.
	var rdb *redis.Client
	var embedCache embedding.Cache
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, running without embedding cache", "error", err)
			rdb.Close()
			rdb = nil
		} else {
			embedCache = cache.NewCache(rdb)
			defer rdb.Close()
		}
	}

	gateway := llm.NewGateway(cfg.LLM)
	embedSvc := embedding.NewService(gateway, cfg.RAG.EmbeddingProvider, cfg.RAG.EmbeddingModel, embedCache)

	// The embedding model must work before we serve anything: probe its
	// output dimension now and fail fast if it doesn't.
	dim, err := embedSvc.Dimension(ctx)
	if err != nil {
		slog.Error("embedding model unavailable", "error", err)
		os.Exit(1)
	}
	slog.Info("embedding model ready", "model", embedSvc.Model(), "dimension", dim)

	var db *pgxpool.Pool
	var store vectorstore.VectorStore
	switch cfg.RAG.Backend {
	case "memory":
		store = vectorstore.NewMemoryStore()
	default:
		db, err = database.NewPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pgStore, err := vectorstore.NewPgVectorStore(db, cfg.RAG.Collection)
		if err != nil {
			slog.Error("invalid vector store config", "error", err)
			os.Exit(1)
		}
		store = pgStore
	}

	if err := store.EnsureCollection(ctx, dim); err != nil {
		slog.Error("collection bootstrap failed", "error", err)
		os.Exit(1)
	}
	slog.Info("collection ready", "collection", cfg.RAG.Collection, "backend", cfg.RAG.Backend)

	pipeline := rag.NewPipeline(store, embedSvc, gateway, rag.Options{
		ChunkOpts: chunker.ChunkOptions{
			MaxTokens: cfg.RAG.ChunkSize,
			Overlap:   cfg.RAG.ChunkOverlap,
		},
		TopK:           cfg.RAG.TopK,
		ScoreThreshold: cfg.RAG.ScoreThreshold,
		Provider:       cfg.LLM.DefaultProvider,
		Model:          cfg.LLM.DefaultModel,
	})

	transcriber := stt.NewService(func() (stt.STTProvider, error) {
		if cfg.STT.Backend == "local" {
			return stt.NewLocalSTT(stt.LocalSTTConfig{BaseURL: cfg.STT.LocalBaseURL}), nil
		}
		return stt.NewOpenAISTT(stt.OpenAISTTConfig{
			APIKey:  cfg.STT.OpenAIKey,
			BaseURL: cfg.STT.OpenAIBaseURL,
			Model:   cfg.STT.OpenAIModel,
		}), nil
	})

	router := api.NewRouter(db, rdb, cfg, api.Services{
		Pipeline:    pipeline,
		Summarizer:  rag.NewSummarizer(gateway, cfg.LLM.DefaultProvider, cfg.LLM.DefaultModel),
		Extractor:   document.NewExtractor(),
		Transcriber: transcriber,
		Store:       store,
	})
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
