package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dealstats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dealstats.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestSyncGroupRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)
	now := time.Date(2011, 2, 3, 10, 0, 0, 0, time.UTC)

	ds := []deals.Deal{
		{SyncKey: "k1", DivisionID: "chicago", Title: "low", URL: "https://example.com/1",
			QuantitySold: 2, UnitPrice: 5, Currency: "USD", ActiveDays: 1, Revenue: 10},
		{SyncKey: "k1", DivisionID: "boston", Title: "high", URL: "https://example.com/2", Tipped: true,
			QuantitySold: 100, UnitPrice: 10, Currency: "USD", ActiveDays: 1, Revenue: 1000},
	}
	require.NoError(t, s.InsertDeals(ctx, ds))
	require.NoError(t, s.InsertRevenueSummary(ctx, deals.RevenueSummary{SyncKey: "k1", TotalRevenue: 1010}))
	require.NoError(t, s.InsertSyncMarker(ctx, deals.SyncMarker{CreatedAt: now, SyncKey: "k1", TotalRevenue: 1010}))

	got, err := s.DealsBySyncKey(ctx, "k1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "high", got[0].Title)
	require.True(t, got[0].Tipped)
	require.Equal(t, 100, got[0].QuantitySold)
	require.Equal(t, "low", got[1].Title)

	last, err := s.LastSync(ctx)
	require.NoError(t, err)
	require.Equal(t, "k1", last.SyncKey)
	require.True(t, last.CreatedAt.Equal(now))
}

func TestListSyncMarkersOrderAndLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2011, 2, 3, 10, 0, 0, 0, time.UTC)
	for i, key := range []string{"a", "b", "c"} {
		m := deals.SyncMarker{CreatedAt: base.Add(time.Duration(i) * time.Hour), SyncKey: key}
		require.NoError(t, s.InsertSyncMarker(ctx, m))
	}

	markers, err := s.ListSyncMarkers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, markers, 3)
	require.Equal(t, "c", markers[0].SyncKey)
	require.Equal(t, "a", markers[2].SyncKey)

	limited, err := s.ListSyncMarkers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestLastSyncEmpty(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	_, err := s.LastSync(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteSyncGroup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)
	now := time.Date(2011, 2, 3, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertDeals(ctx, []deals.Deal{{SyncKey: "k1", Revenue: 1}}))
	require.NoError(t, s.InsertRevenueSummary(ctx, deals.RevenueSummary{SyncKey: "k1"}))
	require.NoError(t, s.InsertSyncMarker(ctx, deals.SyncMarker{CreatedAt: now, SyncKey: "k1"}))

	require.NoError(t, s.DeleteSyncGroup(ctx, "k1"))

	ds, err := s.DealsBySyncKey(ctx, "k1")
	require.NoError(t, err)
	require.Empty(t, ds)
	_, err = s.LastSync(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Absent group is not an error.
	require.NoError(t, s.DeleteSyncGroup(ctx, "missing"))
}
