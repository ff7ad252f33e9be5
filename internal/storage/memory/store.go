// Package memory provides an in-memory Store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/storage"
)

// Store keeps all sync groups in process memory.
type Store struct {
	mu        sync.RWMutex
	markers   []deals.SyncMarker
	summaries map[string]deals.RevenueSummary
	deals     map[string][]deals.Deal
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		summaries: make(map[string]deals.RevenueSummary),
		deals:     make(map[string][]deals.Deal),
	}
}

// InsertDeals appends a batch of deal rows.
func (s *Store) InsertDeals(_ context.Context, ds []deals.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range ds {
		s.deals[d.SyncKey] = append(s.deals[d.SyncKey], d)
	}
	return nil
}

// InsertRevenueSummary stores the run total keyed by sync key.
func (s *Store) InsertRevenueSummary(_ context.Context, summary deals.RevenueSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.SyncKey] = summary
	return nil
}

// InsertSyncMarker appends a marker.
func (s *Store) InsertSyncMarker(_ context.Context, marker deals.SyncMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append(s.markers, marker)
	return nil
}

// ListSyncMarkers returns markers newest first.
func (s *Store) ListSyncMarkers(_ context.Context, limit int) ([]deals.SyncMarker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]deals.SyncMarker, len(s.markers))
	copy(out, s.markers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LastSync returns the newest marker.
func (s *Store) LastSync(ctx context.Context) (deals.SyncMarker, error) {
	markers, err := s.ListSyncMarkers(ctx, 1)
	if err != nil {
		return deals.SyncMarker{}, err
	}
	if len(markers) == 0 {
		return deals.SyncMarker{}, storage.ErrNotFound
	}
	return markers[0], nil
}

// DealsBySyncKey returns one run's deals ordered by revenue descending.
func (s *Store) DealsBySyncKey(_ context.Context, syncKey string) ([]deals.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]deals.Deal, len(s.deals[syncKey]))
	copy(out, s.deals[syncKey])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue > out[j].Revenue
	})
	return out, nil
}

// DeleteSyncGroup removes all records for one sync key.
func (s *Store) DeleteSyncGroup(_ context.Context, syncKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deals, syncKey)
	delete(s.summaries, syncKey)
	kept := s.markers[:0]
	for _, m := range s.markers {
		if m.SyncKey != syncKey {
			kept = append(kept, m)
		}
	}
	s.markers = kept
	return nil
}

// RevenueSummary returns the stored summary for a sync key, if any.
// Exposed for tests and reports.
func (s *Store) RevenueSummary(syncKey string) (deals.RevenueSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[syncKey]
	return summary, ok
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
