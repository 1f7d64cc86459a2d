// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tomtom215/segmenthunter/internal/logging"
)

// envNamePattern restricts Env to characters valid in secret and bucket names.
var envNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Validate checks that required configuration is present and valid.
// Every returned error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateEnv,
		c.validateRegion,
		c.validateDatabase,
		c.validateNATS,
		c.validateStorage,
		c.validateSecrets,
		c.validateStrava,
		c.validateRetry,
		c.validateServer,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) validateEnv() error {
	if !envNamePattern.MatchString(c.Env) {
		return invalid("ENV must be lowercase alphanumeric with dashes, got %q", c.Env)
	}
	return nil
}

// validateRegion checks the exploration area. Zero divisions are allowed and
// produce an empty grid.
func (c *Config) validateRegion() error {
	r := c.Region
	if r.SWLatitude < -90 || r.SWLatitude > 90 || r.NELatitude < -90 || r.NELatitude > 90 {
		return invalid("region latitudes must be within [-90, 90]")
	}
	if r.SWLongitude < -180 || r.SWLongitude > 180 || r.NELongitude < -180 || r.NELongitude > 180 {
		return invalid("region longitudes must be within [-180, 180]")
	}
	if r.SWLatitude >= r.NELatitude {
		return invalid("REGION_SW_LATITUDE (%v) must be south of REGION_NE_LATITUDE (%v)", r.SWLatitude, r.NELatitude)
	}
	if r.SWLongitude >= r.NELongitude {
		return invalid("REGION_SW_LONGITUDE (%v) must be west of REGION_NE_LONGITUDE (%v)", r.SWLongitude, r.NELongitude)
	}
	if r.LatDivisions < 0 || r.LonDivisions < 0 {
		return invalid("region divisions must not be negative")
	}
	return nil
}

var validDrivers = map[string]bool{"duckdb": true, "sqlite": true, "postgres": true}

func (c *Config) validateDatabase() error {
	if !validDrivers[c.Database.Driver] {
		return invalid("DATABASE_DRIVER must be duckdb, sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" {
		if c.Database.DSN == "" {
			return invalid("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
		}
	} else if c.Database.Path == "" {
		return invalid("DATABASE_PATH is required when DATABASE_DRIVER=%s", c.Database.Driver)
	}
	if c.Database.QueryTimeout <= 0 {
		return invalid("DATABASE_QUERY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateNATS() error {
	n := c.NATS
	if !n.EmbeddedServer {
		if err := validateNATSURL(n.URL); err != nil {
			return invalid("NATS_URL is invalid: %v", err)
		}
	} else if n.StoreDir == "" {
		return invalid("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if n.StreamName == "" || strings.ContainsAny(n.StreamName, ". *>") {
		return invalid("NATS_STREAM_NAME must be non-empty and contain no '.', ' ', '*' or '>'")
	}
	for name, topic := range map[string]string{
		"NATS_EXPLORE_TOPIC": n.ExploreTopic,
		"NATS_CONVERT_TOPIC": n.ConvertTopic,
		"NATS_POISON_TOPIC":  n.PoisonTopic,
	} {
		if topic == "" {
			return invalid("%s is required", name)
		}
	}
	if n.SubscribersCount < 1 {
		return invalid("NATS_SUBSCRIBERS must be at least 1")
	}
	if n.MaxDeliver < 1 {
		return invalid("NATS_MAX_DELIVER must be at least 1")
	}
	if n.AckWait <= 0 {
		return invalid("NATS_ACK_WAIT must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Bucket == "" {
		return invalid("STORAGE_BUCKET is required")
	}
	if c.Storage.NDJSONPrefix == "" || strings.HasSuffix(c.Storage.NDJSONPrefix, "/") {
		return invalid("STORAGE_NDJSON_PREFIX must be non-empty without a trailing '/'")
	}
	return nil
}

func (c *Config) validateSecrets() error {
	switch c.Secrets.Backend {
	case "nats":
		if c.Secrets.KVBucket == "" {
			return invalid("SECRETS_KV_BUCKET is required when SECRETS_BACKEND=nats")
		}
	case "badger":
	default:
		return invalid("SECRETS_BACKEND must be nats or badger, got %q", c.Secrets.Backend)
	}
	return nil
}

func (c *Config) validateStrava() error {
	if err := validateHTTPURL(c.Strava.BaseURL, "STRAVA_BASE_URL"); err != nil {
		return invalid("%v", err)
	}
	if err := validateHTTPURL(c.Strava.OAuthURL, "STRAVA_OAUTH_URL"); err != nil {
		return invalid("%v", err)
	}
	if c.Strava.Timeout <= 0 {
		return invalid("STRAVA_TIMEOUT must be positive")
	}
	if c.Strava.ActivityType != "riding" && c.Strava.ActivityType != "running" {
		return invalid("STRAVA_ACTIVITY_TYPE must be riding or running, got %q", c.Strava.ActivityType)
	}
	if c.Strava.RateLimit < 0 || c.Strava.RateBurst < 1 {
		return invalid("STRAVA_RATE_LIMIT must not be negative and STRAVA_RATE_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateRetry() error {
	for name, p := range map[string]RetryPolicyConfig{"publish": c.Retry.Publish, "fetch": c.Retry.Fetch} {
		if p.MaxAttempts < 1 {
			return invalid("retry.%s.max_attempts must be at least 1", name)
		}
		if p.Factor < 1 {
			return invalid("retry.%s.factor must be at least 1", name)
		}
		if p.BaseDelay < 0 {
			return invalid("retry.%s.base_delay must not be negative", name)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 1 || c.Server.RateLimitWindow <= 0 {
		return invalid("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return invalid("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return invalid("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// LoggingConfig converts the logging section into a logging.Config.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
