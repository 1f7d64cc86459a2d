// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

/*
Package database provides the work-item store for Segment Hunter.

The store holds one table, bounding_boxes, with a row per grid cell and its
fetch status. Three backends implement the same Store interface:

  - duckdb (default): embedded DuckDB file or :memory:
  - sqlite: embedded SQLite through mattn/go-sqlite3
  - postgres: PostgreSQL through a pgx connection pool

Every statement is built with squirrel so the backends share one set of
queries and differ only in placeholder format and DDL.

Semantics:

  - Seed inserts all cells as pending inside one transaction, guarded by a
    row count. Re-running Seed on a populated table inserts nothing.
  - ListByStatus returns cells ordered by id.
  - SetStatus is idempotent and monotonic: fetched cannot go back to pending.
    A missing id yields ErrCellNotFound.

Each call runs under DatabaseConfig.QueryTimeout.

DuckDB allows a single writing process per file. Deployments that run the
dispatcher and workers as separate processes should use postgres.
*/
package database
