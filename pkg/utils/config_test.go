package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Crawler.Concurrency)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Empty(t, cfg.Notify.BaseURL, "notifications disabled by default")
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawler:
  concurrency: 2
  timeout: 15s
notify:
  base_url: http://backend:8080
storage:
  backend: s3
  bucket: cine-catch-crawler-data
  region: ap-northeast-2
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Crawler.Concurrency)
	assert.Equal(t, 15*time.Second, cfg.Crawler.Timeout.Std())
	assert.Equal(t, "http://backend:8080", cfg.Notify.BaseURL)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "cine-catch-crawler-data", cfg.Storage.Bucket)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CINEWATCH_NOTIFY_BASE_URL", "http://other:9090")
	t.Setenv("CINEWATCH_CONCURRENCY", "3")
	t.Setenv("S3_DATA_BUCKET", "override-bucket")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://other:9090", cfg.Notify.BaseURL)
	assert.Equal(t, 3, cfg.Crawler.Concurrency)
	assert.Equal(t, "override-bucket", cfg.Storage.Bucket)
}

func TestLoadConfig_BadConcurrencyFallsBack(t *testing.T) {
	t.Setenv("CINEWATCH_CONCURRENCY", "not-a-number")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Crawler.Concurrency)
}
