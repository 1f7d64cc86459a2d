// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

// Package config provides layered configuration loading for Segment Hunter.
//
// Configuration is assembled with Koanf v2 from three layers, later layers
// overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: CONFIG_PATH, else config.yaml / config.yml in the
//     working directory, else /etc/segmenthunter/config.yaml
//  3. Environment variables, through an explicit name-to-path table
//
// Before layer 3 a dotenv file (ENV_FILE, default ".env") is merged into the
// process environment with godotenv. Variables already present are kept.
//
// # Sections
//
//   - env: deployment environment name (dev, test, prod)
//   - region: exploration bounding box and grid size
//   - database: work-item store backend (duckdb, sqlite, postgres)
//   - nats: JetStream connection, stream, topics and consumer tuning
//   - storage: blob bucket and NDJSON prefix
//   - secrets: secret store backend (nats KV, badger)
//   - strava: API endpoints, timeout and client-side rate limit
//   - retry.publish, retry.fetch: exponential backoff policies
//   - circuit_breaker: publish circuit breaker
//   - dispatch: in-worker dispatch interval
//   - logging, server, supervisor, seed
//
// # Example
//
//	env: prod
//	database:
//	  driver: postgres
//	  dsn: postgres://hunter@db:5432/segments
//	retry:
//	  fetch:
//	    max_attempts: 6
//	    factor: 4
//	    base_delay: 1s
//
// Validation errors wrap ErrInvalidConfig.
package config
