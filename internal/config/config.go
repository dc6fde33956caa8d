package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig selects and configures the generation backend.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`    // "openai", "gemini" or "ollama"
	Model       string  `yaml:"model"`       // model name (e.g. "gpt-4o-mini")
	APIKeyEnv   string  `yaml:"apiKeyEnv"`   // env var holding the API key
	BaseURL     string  `yaml:"baseURL"`     // only used by the ollama provider
	Temperature float32 `yaml:"temperature"` // sampling temperature
	MaxTokens   int     `yaml:"maxTokens"`   // response token budget
	Timeout     int     `yaml:"timeout"`     // per-call deadline in seconds
}

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`  // "openai", "gemini" or "ollama"
	Model     string `yaml:"model"`     // embedding model name
	APIKeyEnv string `yaml:"apiKeyEnv"` // env var holding the API key
	BaseURL   string `yaml:"baseURL"`   // only used by the ollama provider
	Dimension int    `yaml:"dimension"` // vector dimension, fixed per collection
	Timeout   int    `yaml:"timeout"`   // per-call deadline in seconds
}

// VectorStoreConfig configures the vector index backing.
type VectorStoreConfig struct {
	Backend        string `yaml:"backend"`        // "sqlite" (default, on-disk) or "milvus"
	Path           string `yaml:"path"`           // directory for the sqlite backing
	CollectionName string `yaml:"collectionName"` // default logical collection
}

// MilvusConfig holds the connection settings for the milvus backend.
type MilvusConfig struct {
	Address     string `yaml:"address"`     // milvus service address
	VectorField string `yaml:"vectorField"` // name of the embedding field
}

// RedisConfig holds the connection settings for the redis-backed stores.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ChunkingConfig tunes the character splitter.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunkSize"` // window size in characters
	Overlap   int `yaml:"overlap"`   // characters shared between windows
	Backoff   int `yaml:"backoff"`   // backward scan distance for a word boundary
}

// RetrievalConfig tunes context retrieval for chat.
type RetrievalConfig struct {
	MaxResults         int     `yaml:"maxResults"`         // topK candidates per query
	RelevanceThreshold float64 `yaml:"relevanceThreshold"` // strict lower bound on relevance
}

// ChatConfig tunes session behaviour.
type ChatConfig struct {
	HistoryWindow  int `yaml:"historyWindow"`  // messages re-injected into the prompt
	MaxSessions    int `yaml:"maxSessions"`    // live session cap before LRU eviction
	SessionIdleTTL int `yaml:"sessionIdleTTL"` // idle seconds before a session is evictable
}

// AuthConfig configures token issuance for the HTTP layer.
type AuthConfig struct {
	JwtSecretEnv string `yaml:"jwtSecretEnv"` // env var holding the signing secret
	TokenTTL     int    `yaml:"tokenTTL"`     // token validity in seconds
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address   string `yaml:"address"`
	UploadDir string `yaml:"uploadDir"`
}

// UserStoreConfig selects the user repository backing.
type UserStoreConfig struct {
	Backend string `yaml:"backend"` // "memory" or "redis"
}

// AppConfig is the root configuration for the scoring service.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	Milvus      MilvusConfig      `yaml:"milvus"`
	Redis       RedisConfig       `yaml:"redis"`
	UserStore   UserStoreConfig   `yaml:"userStore"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Chat        ChatConfig        `yaml:"chat"`
	Auth        AuthConfig        `yaml:"auth"`
	LogLevel    string            `yaml:"logLevel"`
}

// LoadConfig reads and decodes the yaml configuration file, then fills in
// defaults for anything left unset.
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used by tests
// and by the server when no config file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "data/uploads"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2000
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.APIKeyEnv == "" {
		c.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 1536
	}
	if c.Embedding.Timeout == 0 {
		c.Embedding.Timeout = 30
	}
	if c.VectorStore.Backend == "" {
		c.VectorStore.Backend = "sqlite"
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = "data/chromadb"
	}
	if c.VectorStore.CollectionName == "" {
		c.VectorStore.CollectionName = "pyme_financial_docs"
	}
	if c.Milvus.VectorField == "" {
		c.Milvus.VectorField = "embedding"
	}
	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.UserStore.Backend == "" {
		c.UserStore.Backend = "memory"
	}
	if c.Chunking.ChunkSize == 0 {
		c.Chunking.ChunkSize = 1000
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 200
	}
	if c.Chunking.Backoff == 0 {
		c.Chunking.Backoff = 100
	}
	if c.Retrieval.MaxResults == 0 {
		c.Retrieval.MaxResults = 3
	}
	if c.Retrieval.RelevanceThreshold == 0 {
		c.Retrieval.RelevanceThreshold = 0.7
	}
	if c.Chat.HistoryWindow == 0 {
		c.Chat.HistoryWindow = 4
	}
	if c.Chat.MaxSessions == 0 {
		c.Chat.MaxSessions = 256
	}
	if c.Chat.SessionIdleTTL == 0 {
		c.Chat.SessionIdleTTL = 3600
	}
	if c.Auth.JwtSecretEnv == "" {
		c.Auth.JwtSecretEnv = "JWT_SECRET"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 86400
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LLMTimeout returns the generation call deadline as a duration.
func (c *AppConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.Timeout) * time.Second
}

// EmbeddingTimeout returns the embedding call deadline as a duration.
func (c *AppConfig) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.Timeout) * time.Second
}
