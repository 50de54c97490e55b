package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Search   SearchConfig
}

type AppConfig struct {
	Port               string
	Version            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	StaticDir          string
	NatsURL            string
	RedisURL           string
	BackfillTopic      string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Connection   string
	QueryTimeout time.Duration
}

type APIKeys struct {
	GoogleGemini            string
	FirebaseCredentialsPath string
	FirebaseProjectId       string
	JwtSecret               string
}

type AIConfig struct {
	LLMProvider       string // "gemini" or "ollama"
	LLMModel          string // e.g. "gemini-2.0-flash", "llama3"
	EmbeddingProvider string // "gemini" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	ClassifyTimeout   time.Duration
	EmbedTimeout      time.Duration
}

type SearchConfig struct {
	MatchThreshold float64
	MatchCount     int
	ResultLimit    int
}

const defaultCorsOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173,http://127.0.0.1:3000"

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Version:            getEnv("APP_VERSION", "1.0.0"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", defaultCorsOrigins),
			StaticDir:          getEnv("STATIC_DIR", "static"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			BackfillTopic:      getEnv("EMBED_BACKFILL_TOPIC", "TASK_EMBEDDING_BACKFILL"),
			RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 0),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			QueryTimeout: getEnvAsSeconds("DB_QUERY_TIMEOUT_SECONDS", 10),
		},
		Keys: APIKeys{
			GoogleGemini:            getEnv("GEMINI_API_KEY", ""),
			FirebaseCredentialsPath: getEnv("FIREBASE_ADMIN_SDK_PATH", ""),
			FirebaseProjectId:       getEnv("FIREBASE_PROJECT_ID", ""),
			JwtSecret:               getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-2.0-flash"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			ClassifyTimeout:   getEnvAsSeconds("AI_CLASSIFY_TIMEOUT_SECONDS", 20),
			EmbedTimeout:      getEnvAsSeconds("AI_EMBED_TIMEOUT_SECONDS", 10),
		},
		Search: SearchConfig{
			MatchThreshold: getEnvAsFloat("SEARCH_MATCH_THRESHOLD", 0.3),
			MatchCount:     getEnvAsInt("SEARCH_MATCH_COUNT", 20),
			ResultLimit:    getEnvAsInt("SEARCH_RESULT_LIMIT", 20),
		},
	}
}

// IsProduction reports whether internal error text must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// AllowedOrigins returns the configured CORS origins as a trimmed list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.App.CorsAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
