// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/models"
)

// SQLStore is the database/sql backed Store used for DuckDB and SQLite.
type SQLStore struct {
	conn    *sql.DB
	driver  string
	stmts   statements
	timeout time.Duration
}

// NewDuckDB opens (or creates) a DuckDB database at cfg.Path.
func NewDuckDB(ctx context.Context, cfg *config.DatabaseConfig) (*SQLStore, error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, err
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", cfg.Path, threads, maxMemory)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return newSQLStore(ctx, conn, DriverDuckDB, duckdbSchema, cfg.QueryTimeout)
}

// NewSQLite opens (or creates) a SQLite database at cfg.Path.
func NewSQLite(ctx context.Context, cfg *config.DatabaseConfig) (*SQLStore, error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers, and every :memory: connection is a separate database.
	conn.SetMaxOpenConns(1)

	return newSQLStore(ctx, conn, DriverSQLite, sqliteSchema, cfg.QueryTimeout)
}

func newSQLStore(ctx context.Context, conn *sql.DB, driver string, schema []string, timeout time.Duration) (*SQLStore, error) {
	s := &SQLStore{
		conn:    conn,
		driver:  driver,
		stmts:   newStatements(sq.Question),
		timeout: timeout,
	}

	if err := s.Ping(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if err := s.createTables(schema); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("driver", driver).Msg("Work-item store ready")
	return s, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func (s *SQLStore) createTables(schema []string) error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range schema {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Driver returns the backend name.
func (s *SQLStore) Driver() string {
	return s.driver
}

// Seed implements Store.
func (s *SQLStore) Seed(ctx context.Context, rects []orb.Bound) (n int, err error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := s.stmts.countAll().ToSql()
	if err != nil {
		return 0, err
	}
	var existing int
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&existing); err != nil {
		return 0, fmt.Errorf("failed to count cells: %w", err)
	}
	if existing > 0 {
		err = tx.Rollback()
		return 0, err
	}

	for _, batch := range batches(rects, seedBatchSize) {
		query, args, err = s.stmts.insert(batch).ToSql()
		if err != nil {
			return 0, err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("failed to insert cells: %w", err)
		}
		n += len(batch)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return n, nil
}

// ListByStatus implements Store.
func (s *SQLStore) ListByStatus(ctx context.Context, status models.Status) ([]models.Cell, error) {
	if err := validStatus(status); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := s.stmts.listByStatus(status).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s cells: %w", status, err)
	}
	defer closeWithLog(rows, nil, "rows")

	cells := []models.Cell{}
	for rows.Next() {
		c, err := scanCell(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cells: %w", err)
	}
	return cells, nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id int64) (models.Cell, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.get(ctx, id)
}

func (s *SQLStore) get(ctx context.Context, id int64) (models.Cell, error) {
	query, args, err := s.stmts.get(id).ToSql()
	if err != nil {
		return models.Cell{}, err
	}
	c, err := scanCell(s.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cell{}, fmt.Errorf("%w: id %d", ErrCellNotFound, id)
	}
	if err != nil {
		return models.Cell{}, fmt.Errorf("failed to get cell %d: %w", id, err)
	}
	return c, nil
}

// SetStatus implements Store.
func (s *SQLStore) SetStatus(ctx context.Context, id int64, status models.Status) error {
	if err := validStatus(status); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := s.stmts.setStatus(id, status).ToSql()
	if err != nil {
		return err
	}
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set status of cell %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	c, err := s.get(ctx, id)
	if errors.Is(err, ErrCellNotFound) {
		return checkTransition(id, false, "", status)
	}
	if err != nil {
		return err
	}
	return checkTransition(id, true, c.Status, status)
}

// CountByStatus implements Store.
func (s *SQLStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := s.stmts.countByStatus().ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count cells: %w", err)
	}
	defer closeWithLog(rows, nil, "rows")

	counts := emptyCounts()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

// Ping implements Store.
func (s *SQLStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.conn.PingContext(ctx)
}

// Checkpoint flushes the DuckDB write-ahead log into the database file.
func (s *SQLStore) Checkpoint(ctx context.Context) error {
	if s.driver != DriverDuckDB {
		return nil
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Close checkpoints DuckDB and closes the connection pool.
func (s *SQLStore) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.Checkpoint(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint before close failed")
	}
	return s.conn.Close()
}
