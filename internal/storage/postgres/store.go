// Package postgres provides a Postgres-backed Store implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/storage"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store persists sync groups in Postgres.
//
// Expected schema:
//
//	CREATE TABLE syncs (
//		created_at    TIMESTAMPTZ NOT NULL,
//		sync_key      TEXT NOT NULL,
//		total_revenue DOUBLE PRECISION NOT NULL
//	);
//	CREATE INDEX ON syncs (created_at DESC);
//	CREATE INDEX ON syncs (sync_key);
//
//	CREATE TABLE deals (
//		sync_key      TEXT NOT NULL,
//		division_id   TEXT NOT NULL,
//		title         TEXT NOT NULL,
//		url           TEXT NOT NULL,
//		tipped        BOOLEAN NOT NULL,
//		quantity_sold BIGINT NOT NULL,
//		unit_price    DOUBLE PRECISION NOT NULL,
//		currency      TEXT NOT NULL,
//		active_days   DOUBLE PRECISION NOT NULL,
//		revenue       DOUBLE PRECISION NOT NULL
//	);
//	CREATE INDEX ON deals (sync_key);
//	CREATE INDEX ON deals (division_id);
//	CREATE INDEX ON deals (currency);
//
//	CREATE TABLE revenue_summaries (
//		sync_key      TEXT NOT NULL,
//		total_revenue DOUBLE PRECISION NOT NULL
//	);
//	CREATE INDEX ON revenue_summaries (sync_key);
type Store struct {
	pool pool
}

// New creates a Store backed by a new pgx pool.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
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
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// InsertDeals writes the whole batch with a single multi-row INSERT.
func (s *Store) InsertDeals(ctx context.Context, ds []deals.Deal) error {
	if len(ds) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args = make([]any, 0, len(ds)*10)
	)
	sb.WriteString(`INSERT INTO deals (
	sync_key, division_id, title, url, tipped,
	quantity_sold, unit_price, currency, active_days, revenue
) VALUES `)
	for i, d := range ds {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 10
		sb.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10))
		args = append(args,
			d.SyncKey, d.DivisionID, d.Title, d.URL, d.Tipped,
			d.QuantitySold, d.UnitPrice, d.Currency, d.ActiveDays, d.Revenue)
	}
	if _, err := s.pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert deals: %w", err)
	}
	return nil
}

// InsertRevenueSummary writes one summary row.
func (s *Store) InsertRevenueSummary(ctx context.Context, summary deals.RevenueSummary) error {
	query := `INSERT INTO revenue_summaries (sync_key, total_revenue) VALUES ($1, $2)`
	if _, err := s.pool.Exec(ctx, query, summary.SyncKey, summary.TotalRevenue); err != nil {
		return fmt.Errorf("insert revenue summary: %w", err)
	}
	return nil
}

// InsertSyncMarker writes one marker row.
func (s *Store) InsertSyncMarker(ctx context.Context, marker deals.SyncMarker) error {
	query := `INSERT INTO syncs (created_at, sync_key, total_revenue) VALUES ($1, $2, $3)`
	if _, err := s.pool.Exec(ctx, query, marker.CreatedAt, marker.SyncKey, marker.TotalRevenue); err != nil {
		return fmt.Errorf("insert sync marker: %w", err)
	}
	return nil
}

// ListSyncMarkers returns markers newest first.
func (s *Store) ListSyncMarkers(ctx context.Context, limit int) ([]deals.SyncMarker, error) {
	query := `SELECT created_at, sync_key, total_revenue FROM syncs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync markers: %w", err)
	}
	defer rows.Close()

	var markers []deals.SyncMarker
	for rows.Next() {
		var m deals.SyncMarker
		if err := rows.Scan(&m.CreatedAt, &m.SyncKey, &m.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scan sync marker: %w", err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync markers: %w", err)
	}
	return markers, nil
}

// LastSync returns the newest marker.
func (s *Store) LastSync(ctx context.Context) (deals.SyncMarker, error) {
	query := `SELECT created_at, sync_key, total_revenue FROM syncs ORDER BY created_at DESC LIMIT 1`
	var m deals.SyncMarker
	err := s.pool.QueryRow(ctx, query).Scan(&m.CreatedAt, &m.SyncKey, &m.TotalRevenue)
	if errors.Is(err, pgx.ErrNoRows) {
		return deals.SyncMarker{}, storage.ErrNotFound
	}
	if err != nil {
		return deals.SyncMarker{}, fmt.Errorf("last sync: %w", err)
	}
	return m, nil
}

// DealsBySyncKey returns one run's deals ordered by revenue descending.
func (s *Store) DealsBySyncKey(ctx context.Context, syncKey string) ([]deals.Deal, error) {
	query := `SELECT sync_key, division_id, title, url, tipped,
	quantity_sold, unit_price, currency, active_days, revenue
FROM deals WHERE sync_key = $1 ORDER BY revenue DESC`
	rows, err := s.pool.Query(ctx, query, syncKey)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var ds []deals.Deal
	for rows.Next() {
		var d deals.Deal
		if err := rows.Scan(&d.SyncKey, &d.DivisionID, &d.Title, &d.URL, &d.Tipped,
			&d.QuantitySold, &d.UnitPrice, &d.Currency, &d.ActiveDays, &d.Revenue); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		ds = append(ds, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deals: %w", err)
	}
	return ds, nil
}

// DeleteSyncGroup removes all three record kinds for one sync key inside a
// single transaction, so a partially deleted group is never observable.
func (s *Store) DeleteSyncGroup(ctx context.Context, syncKey string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete sync group: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, query := range []string{
		`DELETE FROM deals WHERE sync_key = $1`,
		`DELETE FROM syncs WHERE sync_key = $1`,
		`DELETE FROM revenue_summaries WHERE sync_key = $1`,
	} {
		if _, err := tx.Exec(ctx, query, syncKey); err != nil {
			return fmt.Errorf("delete sync group %s: %w", syncKey, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete sync group: %w", err)
	}
	return nil
}
