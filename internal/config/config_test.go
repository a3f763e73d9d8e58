package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"peoplenet/internal/blob"
	"peoplenet/internal/core"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "peoplenet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "./peoplenet.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "fs", cfg.Blob.Driver)
	assert.Equal(t, "./blobdata", cfg.Blob.FSRoot)
	assert.Equal(t, 32, cfg.Exports.QueueSize)
	assert.False(t, cfg.Neo4j.Enabled())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, core.TracingConfig{
		Provider:    "none",
		Endpoint:    "localhost:4317",
		SampleRate:  1,
		ServiceName: "peoplenet",
	}, cfg.TracingSettings())
}

func TestTracingValidation(t *testing.T) {
	path := writeConfig(t, `
tracing:
  provider: zipkin
  sample_rate: 1.5
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracing.provider must be one of [none otlp] (got: zipkin)")
	assert.Contains(t, err.Error(), "tracing.sample_rate must be at most 1 (got: 1.5)")

	t.Setenv("PEOPLENET_TRACING_PROVIDER", "otlp")
	t.Setenv("PEOPLENET_TRACING_ENDPOINT", "collector:4317")
	t.Setenv("PEOPLENET_TRACING_INSECURE", "true")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "otlp", cfg.Tracing.Provider)
	assert.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	assert.True(t, cfg.Tracing.Insecure)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
  shutdown_timeout: 3s
storage:
  driver: postgres
  postgres_dsn: postgres://file/peoplenet
blob:
  driver: s3
  s3:
    bucket: from-file
    path_style: true
neo4j:
  uri: neo4j://localhost:7687
logging:
  level: debug
`)
	t.Setenv("PEOPLENET_POSTGRES_DSN", "postgres://env/peoplenet")
	t.Setenv("PEOPLENET_BLOB_S3_BUCKET", "from-env")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://env/peoplenet", cfg.Storage.PostgresDSN)
	assert.Equal(t, "from-env", cfg.Blob.S3.Bucket)
	assert.True(t, cfg.Blob.S3.PathStyle)
	assert.True(t, cfg.Neo4j.Enabled())
	assert.Equal(t, "neo4j", cfg.Neo4j.Username)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvDerivedAndAliasNames(t *testing.T) {
	t.Setenv("PEOPLENET_STORAGE_DRIVER", "memory")
	t.Setenv("PEOPLENET_HTTP_ADDR", "127.0.0.1:7000")
	t.Setenv("PEOPLENET_SQLITE_PATH", "/var/lib/peoplenet/alias.db")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "127.0.0.1:7000", cfg.HTTP.Addr)
	assert.Equal(t, "/var/lib/peoplenet/alias.db", cfg.Storage.SQLitePath)
}

func TestFlagsOverrideEnvOnlyWhenSet(t *testing.T) {
	t.Setenv("PEOPLENET_HTTP_ADDR", ":7000")
	t.Setenv("PEOPLENET_STORAGE_DRIVER", "memory")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	flags.String("storage", "sqlite", "")
	require.NoError(t, flags.Parse([]string{"--addr=:9999"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver, "unset flag must not mask env")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestValidationMessages(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: oracle
blob:
  driver: s3
exports:
  queue_size: 0
logging:
  format: xml
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "storage.driver must be one of [memory sqlite postgres] (got: oracle)")
	assert.Contains(t, msg, "blob.s3.bucket is required when blob.driver is s3")
	assert.Contains(t, msg, "exports.queue_size must be at least 1")
	assert.Contains(t, msg, "logging.format must be one of [json text]")
}

func TestPostgresRequiresDSN(t *testing.T) {
	t.Setenv("PEOPLENET_STORAGE_DRIVER", "postgres")
	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.postgres_dsn is required")
}

func TestSettingsConversion(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StorageConfig{Driver: core.StorageSQLite, SQLitePath: "./peoplenet.db"}, cfg.StorageSettings())
	b := cfg.BlobSettings()
	assert.Equal(t, blob.DriverFilesystem, b.Driver)
	assert.Equal(t, "./blobdata", b.FSRoot)
	assert.Equal(t, "us-east-1", b.S3.Region)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LoggingConfig{Level: "debug"}.SlogLevel().String())
	assert.Equal(t, "INFO", LoggingConfig{Level: "bogus"}.SlogLevel().String())
	assert.Equal(t, "ERROR", LoggingConfig{Level: "error"}.SlogLevel().String())
}
