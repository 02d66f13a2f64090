package types

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every option the core recognizes. It is built once in main
// and handed to each constructor; nothing reads the environment afterwards.
type Config struct {
	// Fetch client
	FetchConcurrency int
	RequestInterval  time.Duration
	RequestTimeout   time.Duration
	MaxRetries       int
	RetryBackoffBase float64
	UserAgent        string

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Embedding
	EmbeddingProvider   string
	EmbeddingDimension  int
	EmbedBatchSize      int
	SimilarityThreshold float64

	OllamaURL           string
	OllamaEmbedModel    string
	OllamaGenerateModel string

	// Postgres
	PostgresDSN string

	ServerAddr string
}

// ConfigFromEnv reads the recognized environment variables, applying the
// defaults the scrapers were tuned with.
func ConfigFromEnv() Config {
	return Config{
		FetchConcurrency: getEnvInt("SCRAPER_MAX_CONCURRENT_REQUESTS", 5),
		RequestInterval:  getEnvDuration("SCRAPER_REQUEST_INTERVAL", 2*time.Second),
		RequestTimeout:   getEnvDuration("SCRAPER_REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:       getEnvInt("SCRAPER_MAX_RETRIES", 3),
		RetryBackoffBase: getEnvFloat("SCRAPER_RETRY_BACKOFF_BASE", 2.0),
		UserAgent: getEnvString("SCRAPER_USER_AGENT",
			"OpenJuris-Scraper (PH Legal Documents Archive)"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 512),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		EmbeddingProvider:   getEnvString("EMBEDDING_PROVIDER", "ollama"),
		EmbeddingDimension:  getEnvInt("EMBEDDING_DIMENSION", 768),
		EmbedBatchSize:      getEnvInt("EMBEDDING_BATCH_SIZE", 30),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.7),

		OllamaURL:           getEnvString("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbedModel:    getEnvString("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		OllamaGenerateModel: getEnvString("OLLAMA_GENERATE_MODEL", ""),

		PostgresDSN: postgresDSN(),
		ServerAddr:  getEnvString("SERVER_ADDR", ":8080"),
	}
}

func postgresDSN() string {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnvString("PG_HOST", "localhost"),
		getEnvString("PG_PORT", "5432"),
		getEnvString("PG_USER", "postgres"),
		getEnvString("PG_PASS", "postgres"),
		getEnvString("PG_DB_NAME", "openjuris"),
	)
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
