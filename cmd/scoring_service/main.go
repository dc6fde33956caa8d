package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Jampi276/pymescore-ai/internal/config"
	"github.com/Jampi276/pymescore-ai/internal/database/milvus"
	"github.com/Jampi276/pymescore-ai/internal/database/redis"
	"github.com/Jampi276/pymescore-ai/internal/embedding"
	"github.com/Jampi276/pymescore-ai/internal/llm"
	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/storages/vectorstore"
	"github.com/Jampi276/pymescore-ai/internal/scoring_service/api"
	"github.com/Jampi276/pymescore-ai/internal/scoring_service/service"
	"github.com/Jampi276/pymescore-ai/internal/scoring_service/store"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("ScoringService", "")
	appLogger.Info("Starting PYME scoring service...")

	ctx := context.Background()

	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	generator, err := buildLLM(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	vectorStore, err := buildVectorStore(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to open vector store: %v", err)
	}

	users, err := buildUserStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open user store: %v", err)
	}

	jwtSecret := os.Getenv(cfg.Auth.JwtSecretEnv)
	if jwtSecret == "" {
		appLogger.Warn(fmt.Sprintf("%s is not set, using an ephemeral signing secret", cfg.Auth.JwtSecretEnv))
		jwtSecret = fmt.Sprintf("ephemeral-%d", time.Now().UnixNano())
	}

	svc := service.New(cfg, embedder, generator, vectorStore, users, []byte(jwtSecret), appLogger)
	if err := svc.CreateOrGetCollection(ctx, svc.DefaultCollection()); err != nil {
		log.Fatalf("Failed to prepare default collection: %v", err)
	}

	handler := api.NewHandler(svc, appLogger)
	router := api.SetupRouter(handler, svc)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening on %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Forced shutdown: %v", err))
	}
	appLogger.Info("Server stopped.")
}

func buildEmbedder(ctx context.Context, cfg *config.AppConfig) (interfaces.EmbeddingModel, error) {
	apiKey := os.Getenv(cfg.Embedding.APIKeyEnv)
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIModel(apiKey, cfg.Embedding.Model, cfg.Embedding.Dimension)
	case "gemini":
		return embedding.NewGoogleModel(ctx, apiKey, cfg.Embedding.Model, cfg.Embedding.Dimension)
	case "ollama":
		return embedding.NewOllamaModel(cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildLLM(ctx context.Context, cfg *config.AppConfig) (interfaces.LLM, error) {
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAI(cfg.LLM.Model, apiKey, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	case "gemini":
		return llm.NewGemini(ctx, cfg.LLM.Model, apiKey)
	case "ollama":
		return llm.NewOllama(cfg.LLM.Model, cfg.LLM.BaseURL)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

func buildVectorStore(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (interfaces.VectorStore, error) {
	switch cfg.VectorStore.Backend {
	case "sqlite":
		return vectorstore.NewSQLiteStore(cfg.VectorStore.Path, cfg.Embedding.Dimension, log)
	case "milvus":
		client, err := milvus.GetClient(ctx, &cfg.Milvus)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewMilvusStore(client, cfg.Embedding.Dimension, log)
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.VectorStore.Backend)
	}
}

func buildUserStore(cfg *config.AppConfig) (store.UserStore, error) {
	switch cfg.UserStore.Backend {
	case "redis":
		client, err := redis.GetClient(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store.NewRedisUserStore(client), nil
	case "memory", "":
		return store.NewInMemoryUserStore(), nil
	default:
		return nil, fmt.Errorf("unknown user store backend %q", cfg.UserStore.Backend)
	}
}
