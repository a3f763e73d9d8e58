// Package config loads peoplenet settings from an optional YAML file and
// PEOPLENET_* environment variables.
package config

import (
	"log/slog"
	"time"

	"peoplenet/internal/blob"
	"peoplenet/internal/core"
)

// Config is the root configuration.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Blob    BlobConfig    `mapstructure:"blob" yaml:"blob"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j" yaml:"neo4j"`
	Exports ExportsConfig `mapstructure:"exports" yaml:"exports"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Seed    SeedConfig    `mapstructure:"seed" yaml:"seed"`
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=1s"`
}

// StorageConfig selects the people/relationship store.
type StorageConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver" validate:"oneof=memory sqlite postgres"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn" validate:"required_if=Driver postgres"`
}

// BlobConfig selects where export artifacts are written.
type BlobConfig struct {
	Driver string   `mapstructure:"driver" yaml:"driver" validate:"oneof=fs s3 memory"`
	FSRoot string   `mapstructure:"fs_root" yaml:"fs_root" validate:"required_if=Driver fs"`
	S3     S3Config `mapstructure:"s3" yaml:"s3"`
}

// S3Config addresses an S3 compatible bucket.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Region          string `mapstructure:"region" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style" yaml:"path_style"`
}

// Neo4jConfig enables the graph mirror when URI is set.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri" yaml:"uri" validate:"omitempty,uri"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// Enabled reports whether a mirror should be started.
func (c Neo4jConfig) Enabled() bool { return c.URI != "" }

// ExportsConfig sizes the export worker.
type ExportsConfig struct {
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size" validate:"min=1,max=4096"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
	// Audit writes one JSON line per mutating operation to the log output.
	Audit  bool   `mapstructure:"audit" yaml:"audit"`
}

// SlogLevel converts Level into a slog.Level.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TracingConfig selects the span exporter. The none provider keeps spans
// unsampled.
type TracingConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider" validate:"oneof=none otlp"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint" validate:"required_if=Provider otlp"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"min=0,max=1"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
}

// SeedConfig optionally replaces the built-in seed dataset.
type SeedConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// StorageSettings converts the storage section for core.OpenPersistentStore.
func (c Config) StorageSettings() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
	}
}

// BlobSettings converts the blob section for blob.Open.
func (c Config) BlobSettings() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:          c.Blob.S3.Bucket,
			Region:          c.Blob.S3.Region,
			Endpoint:        c.Blob.S3.Endpoint,
			AccessKeyID:     c.Blob.S3.AccessKeyID,
			SecretAccessKey: c.Blob.S3.SecretAccessKey,
			PathStyle:       c.Blob.S3.PathStyle,
		},
	}
}

// TracingSettings converts the tracing section for core.InitTracing.
func (c Config) TracingSettings() core.TracingConfig {
	return core.TracingConfig{
		Provider:    c.Tracing.Provider,
		Endpoint:    c.Tracing.Endpoint,
		Insecure:    c.Tracing.Insecure,
		SampleRate:  c.Tracing.SampleRate,
		ServiceName: c.Tracing.ServiceName,
	}
}
