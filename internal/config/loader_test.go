package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
log:
  level: debug
  format: console
database:
  dir: /srv/phreeqc/databases
  default: wateq4f
  keep_comments: true
  watch: true
normalizer:
  uncertainty_suffix: _sd
  extra_exempt_keys: [site, depth]
  allow_removal: true
generator:
  key_width: 24
  index_base: 0
  precision: 6
cache:
  backend: redis
  ttl: 30m
redis:
  addr: redis:6379
  db: 2
kafka:
  enabled: true
  jobs_topic: solver.jobs
  producer:
    brokers: [kafka-1:9092, kafka-2:9092]
    compression: snappy
  consumer:
    group_id: result-readers
    retry:
      max_retries: 5
minio:
  enabled: true
  endpoint: minio:9000
  bucket: chem
  prefix: databases/
metrics:
  enabled: true
  namespace: pp
server:
  port: 9090
  mode: debug
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/srv/phreeqc/databases", cfg.Database.Dir)
	assert.Equal(t, "wateq4f", cfg.Database.Default)
	assert.True(t, cfg.Database.KeepComments)
	assert.True(t, cfg.Database.Watch)
	assert.Equal(t, "_sd", cfg.Normalizer.UncertaintySuffix)
	assert.Equal(t, []string{"site", "depth"}, cfg.Normalizer.ExtraExemptKeys)
	assert.Equal(t, 24, cfg.Generator.KeyWidth)
	assert.Equal(t, 0, cfg.Generator.IndexBase)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Producer.Brokers)
	assert.Equal(t, cfg.Kafka.Producer.Brokers, cfg.Kafka.Consumer.Brokers)
	assert.Equal(t, 5, cfg.Kafka.Consumer.Retry.MaxRetries)
	assert.Equal(t, "minio:9000", cfg.MinIO.Endpoint)
	assert.Equal(t, "databases/", cfg.MinIO.Prefix)
	assert.Equal(t, "pp", cfg.Metrics.Namespace)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "log: [unterminated"))
	require.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "cache:\n  backend: memcached\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PHREEQPREP_DATABASE_DEFAULT", "llnl")
	t.Setenv("PHREEQPREP_SERVER_PORT", "7070")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, "llnl", cfg.Database.Default)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_DefaultIndexBase(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, "log:\n  level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultIndexBase, cfg.Generator.IndexBase)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	t.Setenv("PHREEQPREP_DATABASE_DIR", "/opt/db")
	t.Setenv("PHREEQPREP_CACHE_BACKEND", "none")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/opt/db", cfg.Database.Dir)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	t.Setenv("PHREEQPREP_LOG_LEVEL", "error")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestMustLoad_Success(t *testing.T) {
	assert.NotPanics(t, func() { MustLoad(createTempConfigFile(t, validConfigYAML)) })
}

func TestMustLoad_Panic(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "absent.yaml")) })
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := createTempConfigFile(t, "log:\n  level: info\n")

	var (
		mu     sync.Mutex
		levels []string
	)
	Watch(path, func(c *Config) {
		mu.Lock()
		levels = append(levels, c.Log.Level)
		mu.Unlock()
	}, nil)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(levels) > 0 && levels[len(levels)-1] == "debug"
	}, 3*time.Second, 20*time.Millisecond)
}

//Personal.AI order the ending
