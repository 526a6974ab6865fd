package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	GeminiAPIKey string
	ModelName    string

	NewsAPIKey string
	// SportsDBKey defaults to TheSportsDB's public demo key.
	SportsDBKey string

	MongoURL    string
	MongoDBName string

	StorageBackend string // "memory" or "mongo"
	CacheBackend   string // "memory" or "redis"
	RedisURL       string
	VizCacheTTL    time.Duration

	UseMockLLM bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads all env vars and builds the config. The Gemini key may come in
// under a couple of historical names.
func Load() *Config {
	cfg := &Config{
		Port: getEnv("NEST_PORT", "8080"),

		GeminiAPIKey: firstEnv("GEMINI_API_KEY", "NEST_GEMINI_API_KEY"),
		ModelName:    getEnv("NEST_MODEL_NAME", "gemini-2.5-flash"),

		NewsAPIKey:  firstEnv("NEWSAPI_KEY", "NEWS_API_KEY", "NEWSAPI_API_KEY"),
		SportsDBKey: getEnv("THESPORTSDB_KEY", "123"),

		MongoURL:    firstEnv("MONGODB_URL", "MONGODB_SRV"),
		MongoDBName: getEnv("MONGODB_DB_NAME", "newsnest"),

		StorageBackend: getEnv("NEST_STORAGE_BACKEND", "memory"),
		CacheBackend:   getEnv("NEST_CACHE_BACKEND", "memory"),
		RedisURL:       getEnv("NEST_REDIS_URL", ""),
		VizCacheTTL:    time.Duration(getIntEnv("NEST_VIZ_CACHE_TTL_MINUTES", 60)) * time.Minute,

		UseMockLLM: getBoolEnv("NEST_USE_MOCK_LLM", false),
	}

	if cfg.StorageBackend == "mongo" && cfg.MongoURL == "" {
		log.Fatal("MONGODB_URL must be set when NEST_STORAGE_BACKEND=mongo")
	}
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		log.Fatal("NEST_REDIS_URL must be set when NEST_CACHE_BACKEND=redis")
	}

	return cfg
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
