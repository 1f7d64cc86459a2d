// Segment Hunter - Strava Segment Discovery Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/segmenthunter

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"

	"github.com/tomtom215/segmenthunter/internal/config"
	"github.com/tomtom215/segmenthunter/internal/logging"
	"github.com/tomtom215/segmenthunter/internal/models"
)

// PostgresStore is the Store backed by a PostgreSQL connection pool.
// Unlike DuckDB it can be shared by the dispatcher and many workers.
type PostgresStore struct {
	pool    *pgxpool.Pool
	stmts   statements
	timeout time.Duration
}

// NewPostgres connects to cfg.DSN and creates the schema.
func NewPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &PostgresStore{
		pool:    pool,
		stmts:   newStatements(sq.Dollar),
		timeout: cfg.QueryTimeout,
	}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := s.createTables(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("driver", DriverPostgres).Int32("max_conns", poolCfg.MaxConns).Msg("Work-item store ready")
	return s, nil
}

func (s *PostgresStore) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range postgresSchema {
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Seed implements Store. Rows are loaded with COPY; the table lock makes
// concurrent seeders wait for the first one and then see a populated table.
func (s *PostgresStore) Seed(ctx context.Context, rects []orb.Bound) (int, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "LOCK TABLE "+tableName+" IN EXCLUSIVE MODE"); err != nil {
		return 0, fmt.Errorf("failed to lock %s: %w", tableName, err)
	}

	query, args, err := s.stmts.countAll().ToSql()
	if err != nil {
		return 0, err
	}
	var existing int
	if err := tx.QueryRow(ctx, query, args...).Scan(&existing); err != nil {
		return 0, fmt.Errorf("failed to count cells: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{tableName}, insertColumns,
		pgx.CopyFromSlice(len(rects), func(i int) ([]any, error) {
			return cellValues(rects[i]), nil
		}))
	if err != nil {
		return 0, fmt.Errorf("failed to copy cells: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return int(copied), nil
}

// ListByStatus implements Store.
func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]models.Cell, error) {
	if err := validStatus(status); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := s.stmts.listByStatus(status).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s cells: %w", status, err)
	}
	defer rows.Close()

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
func (s *PostgresStore) Get(ctx context.Context, id int64) (models.Cell, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.get(ctx, id)
}

func (s *PostgresStore) get(ctx context.Context, id int64) (models.Cell, error) {
	query, args, err := s.stmts.get(id).ToSql()
	if err != nil {
		return models.Cell{}, err
	}
	c, err := scanCell(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Cell{}, fmt.Errorf("%w: id %d", ErrCellNotFound, id)
	}
	if err != nil {
		return models.Cell{}, fmt.Errorf("failed to get cell %d: %w", id, err)
	}
	return c, nil
}

// SetStatus implements Store.
func (s *PostgresStore) SetStatus(ctx context.Context, id int64, status models.Status) error {
	if err := validStatus(status); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := s.stmts.setStatus(id, status).ToSql()
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set status of cell %d: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
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
func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query, args, err := s.stmts.countByStatus().ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count cells: %w", err)
	}
	defer rows.Close()

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
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
