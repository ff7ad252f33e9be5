// Package storage defines the snapshot repository interface.
package storage

import (
	"context"
	"errors"

	"github.com/groupwatch/dealstats/internal/deals"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("record not found")

// Store persists and queries sync groups. Records are grouped by sync key;
// there is no enforced referential integrity between the three kinds, so
// readers must tolerate orphans.
type Store interface {
	// InsertDeals writes a batch of deal rows in one bulk operation.
	InsertDeals(ctx context.Context, ds []deals.Deal) error

	// InsertRevenueSummary writes the denormalized run total.
	InsertRevenueSummary(ctx context.Context, summary deals.RevenueSummary) error

	// InsertSyncMarker writes the marker that makes a run visible.
	InsertSyncMarker(ctx context.Context, marker deals.SyncMarker) error

	// ListSyncMarkers returns markers ordered by creation time descending.
	// A limit <= 0 returns all markers.
	ListSyncMarkers(ctx context.Context, limit int) ([]deals.SyncMarker, error)

	// LastSync returns the most recent marker, or ErrNotFound.
	LastSync(ctx context.Context) (deals.SyncMarker, error)

	// DealsBySyncKey returns the deals of one run ordered by revenue
	// descending.
	DealsBySyncKey(ctx context.Context, syncKey string) ([]deals.Deal, error)

	// DeleteSyncGroup removes every deal, marker, and summary row tagged
	// with the sync key. Deleting an absent group is not an error.
	DeleteSyncGroup(ctx context.Context, syncKey string) error

	// Close releases underlying resources.
	Close() error
}
