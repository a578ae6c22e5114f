// Package postgres provides a Postgres-backed run report store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
)

// Config controls the Postgres connection pool used for report rows.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes run summaries and partition reports into Postgres. Expected
// schema:
//
//	CREATE TABLE harvest_runs (
//	    run_id TEXT PRIMARY KEY,
//	    started_at TIMESTAMPTZ NOT NULL,
//	    finished_at TIMESTAMPTZ NOT NULL,
//	    unique_records INT NOT NULL,
//	    records_written INT NOT NULL
//	);
//	CREATE TABLE harvest_partitions (
//	    run_id TEXT NOT NULL REFERENCES harvest_runs(run_id),
//	    partition TEXT NOT NULL,
//	    status TEXT NOT NULL,
//	    records_fetched INT NOT NULL,
//	    records_new INT NOT NULL,
//	    pages INT NOT NULL,
//	    error_text TEXT,
//	    started_at TIMESTAMPTZ NOT NULL,
//	    finished_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (run_id, partition)
//	);
type Store struct {
	pool execCloser
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("report.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool execCloser) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// StoreRun inserts the run row plus one row per partition report.
func (s *Store) StoreRun(ctx context.Context, summary catalog.RunSummary) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("report store is not configured")
	}
	if summary.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	const runQuery = `
INSERT INTO harvest_runs (run_id, started_at, finished_at, unique_records, records_written)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, runQuery,
		summary.RunID,
		summary.Started,
		summary.Finished,
		summary.UniqueRecords,
		summary.RecordsWritten,
	); err != nil {
		return fmt.Errorf("insert run row: %w", err)
	}

	const partitionQuery = `
INSERT INTO harvest_partitions (run_id, partition, status, records_fetched, records_new, pages, error_text, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, p := range summary.Partitions {
		if _, err := s.pool.Exec(ctx, partitionQuery,
			summary.RunID,
			string(p.Partition),
			string(p.Status),
			p.RecordsFetched,
			p.RecordsNew,
			p.Pages,
			p.ErrorText,
			p.Started,
			p.Finished,
		); err != nil {
			return fmt.Errorf("insert partition row %q: %w", p.Partition, err)
		}
	}
	return nil
}
