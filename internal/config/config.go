// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package config

import (
	"errors"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration.
// It is loaded in layers: defaults, then an optional YAML file, then environment variables.
type Config struct {
	// Env is the deployment environment name (dev, test, prod). It suffixes
	// secret names and is attached to every queue message.
	Env string `koanf:"env"`

	Region         RegionConfig         `koanf:"region"`
	Database       DatabaseConfig       `koanf:"database"`
	NATS           NATSConfig           `koanf:"nats"`
	Storage        StorageConfig        `koanf:"storage"`
	Secrets        SecretsConfig        `koanf:"secrets"`
	Strava         StravaConfig         `koanf:"strava"`
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	Dispatch       DispatchConfig       `koanf:"dispatch"`
	Logging        LoggingConfig        `koanf:"logging"`
	Server         ServerConfig         `koanf:"server"`
	Supervisor     SupervisorConfig     `koanf:"supervisor"`
	Seed           SeedConfig           `koanf:"seed"`
}

// RegionConfig describes the exploration area and how finely it is partitioned.
//
// Environment Variables:
//   - REGION_SW_LATITUDE, REGION_SW_LONGITUDE: south-west corner
//   - REGION_NE_LATITUDE, REGION_NE_LONGITUDE: north-east corner
//   - REGION_LAT_DIVISIONS, REGION_LON_DIVISIONS: grid size (default: 30 x 30)
type RegionConfig struct {
	SWLatitude   float64 `koanf:"sw_latitude"`
	SWLongitude  float64 `koanf:"sw_longitude"`
	NELatitude   float64 `koanf:"ne_latitude"`
	NELongitude  float64 `koanf:"ne_longitude"`
	LatDivisions int     `koanf:"lat_divisions"`
	LonDivisions int     `koanf:"lon_divisions"`
}

// DatabaseConfig holds work-item store settings.
//
// Driver selects the backend:
//   - duckdb: embedded, file at Path (":memory:" for tests). Single process only.
//   - sqlite: embedded, file at Path.
//   - postgres: server at DSN. Use this when seeder, dispatcher and worker run
//     as separate processes.
type DatabaseConfig struct {
	Driver       string        `koanf:"driver"`
	Path         string        `koanf:"path"`
	DSN          string        `koanf:"dsn"`
	MaxMemory    string        `koanf:"max_memory"` // DuckDB only
	Threads      int           `koanf:"threads"`    // DuckDB only (0 = NumCPU)
	MaxConns     int32         `koanf:"max_conns"`  // PostgreSQL pool size
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// NATSConfig holds queue settings.
type NATSConfig struct {
	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server with JetStream.
	// If false, expects an external NATS server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory and MaxStore bound JetStream resource usage in bytes.
	MaxMemory int64 `koanf:"max_memory"`
	MaxStore  int64 `koanf:"max_store"`

	// StreamName is the JetStream stream holding every pipeline subject.
	StreamName string `koanf:"stream_name"`

	// StreamMaxAge is how long queued messages are retained.
	StreamMaxAge time.Duration `koanf:"stream_max_age"`

	// DuplicateWindow is the JetStream de-duplication window for Nats-Msg-Id.
	DuplicateWindow time.Duration `koanf:"duplicate_window"`

	// ExploreTopic carries one cell per message from dispatcher to fetcher.
	ExploreTopic string `koanf:"explore_topic"`

	// ConvertTopic carries NDJSON conversion requests.
	ConvertTopic string `koanf:"convert_topic"`

	// PoisonTopic receives messages that can never succeed.
	PoisonTopic string `koanf:"poison_topic"`

	// DurablePrefix and QueueGroup name the JetStream consumers.
	DurablePrefix string `koanf:"durable_prefix"`
	QueueGroup    string `koanf:"queue_group"`

	// SubscribersCount is the number of concurrent message processors per topic.
	SubscribersCount int `koanf:"subscribers_count"`

	// MaxDeliver is the redelivery ceiling for a nacked message.
	MaxDeliver int `koanf:"max_deliver"`

	// MaxAckPending bounds in-flight unacknowledged messages.
	MaxAckPending int `koanf:"max_ack_pending"`

	// AckWait must exceed the worst-case fetch duration (six attempts with
	// 1+4+16+64+256 s of backoff) or JetStream redelivers mid-fetch.
	AckWait time.Duration `koanf:"ack_wait"`

	// CloseTimeout bounds graceful router shutdown.
	CloseTimeout time.Duration `koanf:"close_timeout"`

	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// StorageConfig holds blob store settings.
type StorageConfig struct {
	// Bucket receives raw segment batches and is the default bucket for
	// NDJSON conversion requests that name none.
	Bucket string `koanf:"bucket"`

	// NDJSONPrefix is the object-name prefix for converted files.
	NDJSONPrefix string `koanf:"ndjson_prefix"`
}

// SecretsConfig selects the secret store backend.
type SecretsConfig struct {
	// Backend is "nats" (JetStream KV) or "badger" (local directory).
	Backend string `koanf:"backend"`

	// KVBucket is the JetStream KV bucket name.
	KVBucket string `koanf:"kv_bucket"`

	// BadgerPath is the BadgerDB directory. Empty runs badger in memory.
	BadgerPath string `koanf:"badger_path"`
}

// StravaConfig holds external API settings.
type StravaConfig struct {
	BaseURL      string        `koanf:"base_url"`
	OAuthURL     string        `koanf:"oauth_url"`
	Timeout      time.Duration `koanf:"timeout"`
	ActivityType string        `koanf:"activity_type"`

	// RateLimit is the sustained request rate (requests per second) and
	// RateBurst the bucket size. Strava allows 100 requests per 15 minutes.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// RetryConfig holds the two retry policies of the pipeline.
type RetryConfig struct {
	Publish RetryPolicyConfig `koanf:"publish"`
	Fetch   RetryPolicyConfig `koanf:"fetch"`
}

// RetryPolicyConfig configures exponential backoff:
// delay after failed attempt a is BaseDelay * Factor^(a-1).
type RetryPolicyConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	Factor      float64       `koanf:"factor"`
	BaseDelay   time.Duration `koanf:"base_delay"`
}

// CircuitBreakerConfig configures the publish circuit breaker.
type CircuitBreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// DispatchConfig controls the worker's in-process dispatch loop.
type DispatchConfig struct {
	// Interval between dispatch runs inside the worker. Zero disables the
	// loop; pending cells are then dispatched by the standalone dispatcher.
	Interval time.Duration `koanf:"interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig holds the operations HTTP API settings.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// SupervisorConfig holds suture supervisor tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// SeedConfig holds seeder settings.
type SeedConfig struct {
	// CSVPath, when set and the file exists, seeds the cells listed in the
	// file instead of partitioning the region.
	CSVPath string `koanf:"csv_path"`

	// ExportCSVPath and GeoJSONPath, when set, receive a copy of the
	// generated grid for inspection.
	ExportCSVPath string `koanf:"export_csv_path"`
	GeoJSONPath   string `koanf:"geojson_path"`
}

// Load loads configuration from defaults, optional config file, and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
