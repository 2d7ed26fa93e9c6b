package config

import (
	"sync"
	"time"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// Process modes for OCR batches.
const (
	ProcessModeInline = "inline"
	ProcessModeQueue  = "queue"
)

// Lock backends guarding catalog writes.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type AppConfig struct {
	ListenAddr     string
	StorageType    string
	LocalRoot      string
	DataPrefix     string
	CatalogKey     string
	OCREngine      string
	OCRConcurrency int
	ProcessMode    string
	MaxUploadBytes int64
	SearchLimit    int
	TokenScorer    string
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockBackend   string
	LockTTL       time.Duration

	LogLevel    string
	LogEncoding string
	LogFile     string
}

// GetAppConfig returns the process-wide application config.
func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		appConfig = LoadAppConfig()
	})
	return appConfig
}

// LoadAppConfig reads the application config from the environment.
func LoadAppConfig() *AppConfig {
	loadEnv()

	return &AppConfig{
		ListenAddr:     getEnv("APP_LISTEN_ADDR", ":8080"),
		StorageType:    getEnv("STORAGE_TYPE", "local"),
		LocalRoot:      getEnv("LOCAL_STORAGE_ROOT", "storage"),
		DataPrefix:     getEnv("DATA_PREFIX", "Data"),
		CatalogKey:     getEnv("CATALOG_KEY", "doc_df.csv"),
		OCREngine:      getEnv("OCR_ENGINE", "auto"),
		OCRConcurrency: getInt("OCR_CONCURRENCY", 1),
		ProcessMode:    getEnv("PROCESS_MODE", ProcessModeInline),
		MaxUploadBytes: getInt64("MAX_UPLOAD_BYTES", 32<<20),
		SearchLimit:    getInt("SEARCH_LIMIT", 5),
		TokenScorer:    getEnv("SEARCH_TOKEN_SCORER", "partial_token_set"),
		AllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		LockBackend:   getEnv("CATALOG_LOCK_BACKEND", LockBackendLocal),
		LockTTL:       getDuration("CATALOG_LOCK_TTL", 30*time.Second),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),
		LogFile:     getEnv("LOG_FILE", "logs/app.log"),
	}
}

// QueueMode reports whether OCR batches go through the task queue.
func (c *AppConfig) QueueMode() bool {
	return c.ProcessMode == ProcessModeQueue
}
