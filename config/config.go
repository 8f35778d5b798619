package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// HTTP server
	ListenAddr string

	// Storage
	DatabasePath      string
	SemanticIndexPath string
	SemanticMetaPath  string

	// External APIs
	SerpAPIKey string
	GroqAPIKey string
	GroqModel  string

	// Redis configuration (optional new-deal stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (fetch block cache, optional)
	MemcacheAddr string

	// Scrape configuration
	ScrapeInterval time.Duration
	MaxRepairCalls int
	WidgetPageSize int
	WidgetMaxPages int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	intervalHours, _ := strconv.Atoi(getEnv("SCRAPE_INTERVAL_HOURS", "12"))
	maxRepairs, _ := strconv.Atoi(getEnv("MAX_REPAIR_CALLS", "50"))
	pageSize, _ := strconv.Atoi(getEnv("WIDGET_PAGE_SIZE", "50"))
	maxPages, _ := strconv.Atoi(getEnv("WIDGET_MAX_PAGES", "30"))

	return Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		DatabasePath:         getEnv("DATABASE_PATH", "bankdeals.db"),
		SemanticIndexPath:    getEnv("SEMANTIC_INDEX_PATH", "data/semantic_index.json"),
		SemanticMetaPath:     getEnv("SEMANTIC_META_PATH", "data/semantic_meta.json"),
		SerpAPIKey:           getEnv("SERP_API_KEY", ""),
		GroqAPIKey:           getEnv("GROQ_API_KEY", ""),
		GroqModel:            getEnv("GROQ_MODEL", "openai/gpt-oss-120b"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "bankdeals"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		ScrapeInterval:       time.Duration(intervalHours) * time.Hour,
		MaxRepairCalls:       maxRepairs,
		WidgetPageSize:       pageSize,
		WidgetMaxPages:       maxPages,
		Environment:          getEnv("BANKDEAL_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.ScrapeInterval < time.Minute {
		return fmt.Errorf("SCRAPE_INTERVAL_HOURS too small: %s", c.ScrapeInterval)
	}
	if c.WidgetPageSize <= 0 {
		return fmt.Errorf("WIDGET_PAGE_SIZE must be positive")
	}
	if c.WidgetMaxPages <= 0 {
		return fmt.Errorf("WIDGET_MAX_PAGES must be positive")
	}
	if c.MaxRepairCalls < 0 {
		return fmt.Errorf("MAX_REPAIR_CALLS must not be negative")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
