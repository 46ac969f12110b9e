package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// API
	APIToken          string
	ServerPort        string
	CORSAllowedOrigin string

	// 生成バックエンド（プライマリ: Groq互換の無料ティア）
	GroqAPIKey  string
	GroqBaseURL string
	GroqModels  []string

	// 生成バックエンド（フォールバック: OpenAI有料ティア）
	OpenAIAPIKey string
	OpenAIModels []string

	// 生成バックエンド（ローカル: Ollama。モデル名が設定された場合のみ有効）
	OllamaModel string

	// 生成パラメータ
	GenTemperature float64

	// Reddit
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	RedditUserAgent    string

	// Fetch
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Publish
	PublishInterval  time.Duration
	PublishBatchSize int
	GlobalPostWindow time.Duration
	GlobalPostLimit  int
	DestPostWindow   time.Duration
	DestPostLimit    int

	// Ingest
	FeedURLs       []string
	IngestInterval time.Duration

	// Cache
	CacheRetentionDays int

	// Rate Limit
	RateLimitGeneral  int
	RateLimitGenerate int
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.APIToken = os.Getenv("API_TOKEN")
	if cfg.APIToken == "" {
		missing = append(missing, "API_TOKEN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.GroqBaseURL = getEnvString("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	cfg.GroqModels = getEnvList("GROQ_MODELS", []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"})

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModels = getEnvList("OPENAI_MODELS", []string{"gpt-4o-mini", "gpt-4o"})

	cfg.OllamaModel = os.Getenv("OLLAMA_MODEL")

	cfg.GenTemperature = getEnvFloat("GEN_TEMPERATURE", 0.7)

	cfg.RedditClientID = os.Getenv("REDDIT_CLIENT_ID")
	cfg.RedditClientSecret = os.Getenv("REDDIT_CLIENT_SECRET")
	cfg.RedditUsername = os.Getenv("REDDIT_USERNAME")
	cfg.RedditPassword = os.Getenv("REDDIT_PASSWORD")
	cfg.RedditUserAgent = getEnvString("REDDIT_USER_AGENT", "draftman/1.0 content pipeline")

	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)

	cfg.PublishInterval = getEnvDuration("PUBLISH_INTERVAL", 10*time.Minute)
	cfg.PublishBatchSize = getEnvInt("PUBLISH_BATCH_SIZE", 5)
	cfg.GlobalPostWindow = getEnvDuration("GLOBAL_POST_WINDOW", 24*time.Hour)
	cfg.GlobalPostLimit = getEnvInt("GLOBAL_POST_LIMIT", 1)
	cfg.DestPostWindow = getEnvDuration("DEST_POST_WINDOW", 7*24*time.Hour)
	cfg.DestPostLimit = getEnvInt("DEST_POST_LIMIT", 1)

	cfg.FeedURLs = getEnvList("FEED_URLS", nil)
	cfg.IngestInterval = getEnvDuration("INGEST_INTERVAL", 1*time.Hour)

	cfg.CacheRetentionDays = getEnvInt("CACHE_RETENTION_DAYS", 180)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitGenerate = getEnvInt("RATE_LIMIT_GENERATE", 10)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの環境変数をスライスとして読み込む。
// 空要素は除去される。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return defaultVal
	}
	return result
}
