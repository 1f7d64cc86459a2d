// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package config

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty env", func(c *Config) { c.Env = "" }, true},
		{"uppercase env", func(c *Config) { c.Env = "Prod" }, true},
		{"inverted latitudes", func(c *Config) { c.Region.SWLatitude, c.Region.NELatitude = 52, 51 }, true},
		{"latitude out of range", func(c *Config) { c.Region.NELatitude = 91 }, true},
		{"equal longitudes", func(c *Config) { c.Region.NELongitude = c.Region.SWLongitude }, true},
		{"zero divisions", func(c *Config) { c.Region.LatDivisions = 0 }, false},
		{"negative divisions", func(c *Config) { c.Region.LonDivisions = -1 }, true},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"sqlite without path", func(c *Config) { c.Database.Driver = "sqlite"; c.Database.Path = "" }, true},
		{"zero query timeout", func(c *Config) { c.Database.QueryTimeout = 0 }, true},
		{"external nats bad url", func(c *Config) { c.NATS.EmbeddedServer = false; c.NATS.URL = "http://x" }, true},
		{"external nats", func(c *Config) { c.NATS.EmbeddedServer = false }, false},
		{"stream name with dot", func(c *Config) { c.NATS.StreamName = "a.b" }, true},
		{"no poison topic", func(c *Config) { c.NATS.PoisonTopic = "" }, true},
		{"zero subscribers", func(c *Config) { c.NATS.SubscribersCount = 0 }, true},
		{"prefix trailing slash", func(c *Config) { c.Storage.NDJSONPrefix = "ndjson/" }, true},
		{"unknown secrets backend", func(c *Config) { c.Secrets.Backend = "vault" }, true},
		{"badger secrets", func(c *Config) { c.Secrets.Backend = "badger" }, false},
		{"strava base url scheme", func(c *Config) { c.Strava.BaseURL = "ftp://strava" }, true},
		{"running activity", func(c *Config) { c.Strava.ActivityType = "running" }, false},
		{"swimming activity", func(c *Config) { c.Strava.ActivityType = "swimming" }, true},
		{"zero fetch attempts", func(c *Config) { c.Retry.Fetch.MaxAttempts = 0 }, true},
		{"factor below one", func(c *Config) { c.Retry.Publish.Factor = 0.5 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad port server disabled", func(c *Config) { c.Server.Enabled = false; c.Server.Port = 0 }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected error to wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	lc := cfg.LoggingConfig()
	if lc.Level != "debug" || lc.Format != "console" || !lc.Timestamp {
		t.Errorf("LoggingConfig() = %+v", lc)
	}
}
