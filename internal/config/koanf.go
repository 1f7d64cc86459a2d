// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/segmenthunter/config.yaml",
	"/etc/segmenthunter/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvFileEnvVar names the dotenv file loaded before the environment layer.
const EnvFileEnvVar = "ENV_FILE"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Env: "dev",
		Region: RegionConfig{
			SWLatitude:   51.45,
			SWLongitude:  -1.15,
			NELatitude:   51.75,
			NELongitude:  -0.85,
			LatDivisions: 30,
			LonDivisions: 30,
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/segmenthunter.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			MaxConns:     4,
			QueryTimeout: 30 * time.Second,
		},
		NATS: NATSConfig{
			URL:              "nats://127.0.0.1:4222",
			EmbeddedServer:   true,
			StoreDir:         "/data/nats/jetstream",
			MaxMemory:        256 << 20, // 256MB
			MaxStore:         10 << 30,  // 10GB
			StreamName:       "SEGMENT_HUNTER",
			StreamMaxAge:     7 * 24 * time.Hour,
			DuplicateWindow:  2 * time.Minute,
			ExploreTopic:     "cells.explore",
			ConvertTopic:     "blobs.convert",
			PoisonTopic:      "cells.poison",
			DurablePrefix:    "segment-hunter",
			QueueGroup:       "workers",
			SubscribersCount: 1,
			MaxDeliver:       5,
			MaxAckPending:    100,
			AckWait:          10 * time.Minute,
			CloseTimeout:     30 * time.Second,
			MaxReconnects:    -1,
			ReconnectWait:    2 * time.Second,
		},
		Storage: StorageConfig{
			Bucket:       "explored-segments",
			NDJSONPrefix: "explored_segments_ndjson",
		},
		Secrets: SecretsConfig{
			Backend:    "nats",
			KVBucket:   "secrets",
			BadgerPath: "/data/secrets",
		},
		Strava: StravaConfig{
			BaseURL:      "https://www.strava.com/api/v3",
			OAuthURL:     "https://www.strava.com/api/v3/oauth/token",
			Timeout:      30 * time.Second,
			ActivityType: "riding",
			RateLimit:    0.1,
			RateBurst:    10,
		},
		Retry: RetryConfig{
			Publish: RetryPolicyConfig{
				MaxAttempts: 3,
				Factor:      4,
				BaseDelay:   time.Second,
			},
			Fetch: RetryPolicyConfig{
				MaxAttempts: 6,
				Factor:      4,
				BaseDelay:   time.Second,
			},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Dispatch: DispatchConfig{
			Interval: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: override any mapped setting
//
// A dotenv file (ENV_FILE, default ".env") is read into the process
// environment before layer 3. Variables already set in the environment win.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv reads the dotenv file into the process environment.
// A missing file is not an error.
func loadDotEnv() error {
	path := os.Getenv(EnvFileEnvVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak into config.
var envMappings = map[string]string{
	"env": "env",

	"region_sw_latitude":   "region.sw_latitude",
	"region_sw_longitude":  "region.sw_longitude",
	"region_ne_latitude":   "region.ne_latitude",
	"region_ne_longitude":  "region.ne_longitude",
	"region_lat_divisions": "region.lat_divisions",
	"region_lon_divisions": "region.lon_divisions",

	"database_driver":        "database.driver",
	"database_path":          "database.path",
	"duckdb_path":            "database.path",
	"database_dsn":           "database.dsn",
	"database_url":           "database.dsn",
	"duckdb_max_memory":      "database.max_memory",
	"duckdb_threads":         "database.threads",
	"database_max_conns":     "database.max_conns",
	"database_query_timeout": "database.query_timeout",

	"nats_url":               "nats.url",
	"nats_embedded":          "nats.embedded_server",
	"nats_store_dir":         "nats.store_dir",
	"nats_max_memory":        "nats.max_memory",
	"nats_max_store":         "nats.max_store",
	"nats_stream_name":       "nats.stream_name",
	"nats_stream_max_age":    "nats.stream_max_age",
	"nats_duplicate_window":  "nats.duplicate_window",
	"nats_explore_topic":     "nats.explore_topic",
	"nats_convert_topic":     "nats.convert_topic",
	"nats_poison_topic":      "nats.poison_topic",
	"nats_durable_prefix":    "nats.durable_prefix",
	"nats_queue_group":       "nats.queue_group",
	"nats_subscribers":       "nats.subscribers_count",
	"nats_max_deliver":       "nats.max_deliver",
	"nats_max_ack_pending":   "nats.max_ack_pending",
	"nats_ack_wait":          "nats.ack_wait",
	"nats_close_timeout":     "nats.close_timeout",
	"nats_max_reconnects":    "nats.max_reconnects",
	"nats_reconnect_wait":    "nats.reconnect_wait",
	"storage_bucket":         "storage.bucket",
	"bucket_name":            "storage.bucket",
	"storage_ndjson_prefix":  "storage.ndjson_prefix",
	"secrets_backend":        "secrets.backend",
	"secrets_kv_bucket":      "secrets.kv_bucket",
	"secrets_badger_path":    "secrets.badger_path",
	"strava_base_url":        "strava.base_url",
	"strava_oauth_url":       "strava.oauth_url",
	"strava_timeout":         "strava.timeout",
	"strava_activity_type":   "strava.activity_type",
	"strava_rate_limit":      "strava.rate_limit",
	"strava_rate_burst":      "strava.rate_burst",
	"publish_max_attempts":   "retry.publish.max_attempts",
	"publish_backoff_factor": "retry.publish.factor",
	"publish_base_delay":     "retry.publish.base_delay",
	"fetch_max_attempts":     "retry.fetch.max_attempts",
	"fetch_backoff_factor":   "retry.fetch.factor",
	"fetch_base_delay":       "retry.fetch.base_delay",

	"circuit_breaker_enabled":           "circuit_breaker.enabled",
	"circuit_breaker_max_requests":      "circuit_breaker.max_requests",
	"circuit_breaker_interval":          "circuit_breaker.interval",
	"circuit_breaker_timeout":           "circuit_breaker.timeout",
	"circuit_breaker_failure_threshold": "circuit_breaker.failure_threshold",

	"dispatch_interval": "dispatch.interval",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"http_enabled":          "server.enabled",
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	"seed_csv_path":        "seed.csv_path",
	"seed_export_csv_path": "seed.export_csv_path",
	"seed_geojson_path":    "seed.geojson_path",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - ENV -> env
//   - DUCKDB_PATH -> database.path
//   - FETCH_MAX_ATTEMPTS -> retry.fetch.max_attempts
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
