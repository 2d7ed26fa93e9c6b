package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadAppConfig_Defaults(t *testing.T) {
	for _, key := range []string{"STORAGE_TYPE", "DATA_PREFIX", "CATALOG_KEY", "PROCESS_MODE", "SEARCH_LIMIT", "CATALOG_LOCK_TTL", "CATALOG_LOCK_BACKEND", "OCR_CONCURRENCY"} {
		t.Setenv(key, "")
	}

	cfg := LoadAppConfig()

	assert.Equal(t, "local", cfg.StorageType)
	assert.Equal(t, "Data", cfg.DataPrefix)
	assert.Equal(t, "doc_df.csv", cfg.CatalogKey)
	assert.Equal(t, 5, cfg.SearchLimit)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, LockBackendLocal, cfg.LockBackend)
	assert.Equal(t, 1, cfg.OCRConcurrency)
	assert.False(t, cfg.QueueMode())
}

func TestLoadAppConfig_FromEnv(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "minio")
	t.Setenv("PROCESS_MODE", "queue")
	t.Setenv("SEARCH_LIMIT", "3")
	t.Setenv("CATALOG_LOCK_TTL", "5s")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg := LoadAppConfig()

	assert.Equal(t, "minio", cfg.StorageType)
	assert.True(t, cfg.QueueMode())
	assert.Equal(t, 3, cfg.SearchLimit)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
	assert.EqualValues(t, 1024, cfg.MaxUploadBytes)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestLoadAppConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SEARCH_LIMIT", "many")
	t.Setenv("CATALOG_LOCK_TTL", "soon")

	cfg := LoadAppConfig()

	assert.Equal(t, 5, cfg.SearchLimit)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
}

func TestLoadTesseractConfig(t *testing.T) {
	t.Setenv("TESSERACT_LANGUAGES", "eng,deu")
	t.Setenv("TESSERACT_PREPROCESS", "false")

	cfg := LoadTesseractConfig()

	assert.Equal(t, []string{"eng", "deu"}, cfg.Languages)
	assert.False(t, cfg.Preprocess)
	assert.Equal(t, 300.0, cfg.DPI)
}

func TestLoadMinioConfig(t *testing.T) {
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MINIO_BUCKET_NAME", "scans")

	cfg := LoadMinioConfig()

	assert.True(t, cfg.UseSSL)
	assert.Equal(t, "scans", cfg.BucketName)
}
