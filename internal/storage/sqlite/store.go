// Package sqlite provides a SQLite-backed Store for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// Store persists sync groups in a SQLite database file.
// WAL mode allows report reads while a sync run is writing.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, applying pragmas and schema.
// Safe to call repeatedly.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent triggers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
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
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			d.SyncKey, d.DivisionID, d.Title, d.URL, d.Tipped,
			d.QuantitySold, d.UnitPrice, d.Currency, d.ActiveDays, d.Revenue)
	}
	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert deals: %w", err)
	}
	return nil
}

// InsertRevenueSummary writes one summary row.
func (s *Store) InsertRevenueSummary(ctx context.Context, summary deals.RevenueSummary) error {
	query := `INSERT INTO revenue_summaries (sync_key, total_revenue) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, summary.SyncKey, summary.TotalRevenue); err != nil {
		return fmt.Errorf("insert revenue summary: %w", err)
	}
	return nil
}

// InsertSyncMarker writes one marker row.
func (s *Store) InsertSyncMarker(ctx context.Context, marker deals.SyncMarker) error {
	query := `INSERT INTO syncs (created_at, sync_key, total_revenue) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, marker.CreatedAt, marker.SyncKey, marker.TotalRevenue); err != nil {
		return fmt.Errorf("insert sync marker: %w", err)
	}
	return nil
}

// ListSyncMarkers returns markers newest first.
func (s *Store) ListSyncMarkers(ctx context.Context, limit int) ([]deals.SyncMarker, error) {
	query := `SELECT created_at, sync_key, total_revenue FROM syncs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	err := s.db.QueryRowContext(ctx, query).Scan(&m.CreatedAt, &m.SyncKey, &m.TotalRevenue)
	if errors.Is(err, sql.ErrNoRows) {
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
FROM deals WHERE sync_key = ? ORDER BY revenue DESC`
	rows, err := s.db.QueryContext(ctx, query, syncKey)
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
// single transaction.
func (s *Store) DeleteSyncGroup(ctx context.Context, syncKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete sync group: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, query := range []string{
		`DELETE FROM deals WHERE sync_key = ?`,
		`DELETE FROM syncs WHERE sync_key = ?`,
		`DELETE FROM revenue_summaries WHERE sync_key = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, syncKey); err != nil {
			return fmt.Errorf("delete sync group %s: %w", syncKey, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete sync group: %w", err)
	}
	return nil
}
