package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/storage"
)

func marker(key string, at time.Time) deals.SyncMarker {
	return deals.SyncMarker{CreatedAt: at, SyncKey: key, TotalRevenue: 1}
}

func TestListSyncMarkersNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	base := time.Date(2011, 2, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertSyncMarker(ctx, marker("a", base)))
	require.NoError(t, s.InsertSyncMarker(ctx, marker("c", base.Add(2*time.Hour))))
	require.NoError(t, s.InsertSyncMarker(ctx, marker("b", base.Add(time.Hour))))

	markers, err := s.ListSyncMarkers(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, []string{markers[0].SyncKey, markers[1].SyncKey, markers[2].SyncKey})

	limited, err := s.ListSyncMarkers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	last, err := s.LastSync(ctx)
	require.NoError(t, err)
	require.Equal(t, "c", last.SyncKey)
}

func TestLastSyncEmpty(t *testing.T) {
	t.Parallel()

	_, err := New().LastSync(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDealsBySyncKeyOrdersByRevenueDesc(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertDeals(ctx, []deals.Deal{
		{SyncKey: "k", Title: "low", Revenue: 10},
		{SyncKey: "k", Title: "high", Revenue: 500},
		{SyncKey: "k", Title: "mid", Revenue: 50},
		{SyncKey: "other", Title: "elsewhere", Revenue: 999},
	}))

	got, err := s.DealsBySyncKey(ctx, "k")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "high", got[0].Title)
	require.Equal(t, "mid", got[1].Title)
	require.Equal(t, "low", got[2].Title)
}

func TestDeleteSyncGroupRemovesAllKinds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	at := time.Date(2011, 2, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertDeals(ctx, []deals.Deal{{SyncKey: "k", Revenue: 1}}))
	require.NoError(t, s.InsertRevenueSummary(ctx, deals.RevenueSummary{SyncKey: "k", TotalRevenue: 1}))
	require.NoError(t, s.InsertSyncMarker(ctx, marker("k", at)))

	require.NoError(t, s.DeleteSyncGroup(ctx, "k"))

	ds, err := s.DealsBySyncKey(ctx, "k")
	require.NoError(t, err)
	require.Empty(t, ds)
	_, ok := s.RevenueSummary("k")
	require.False(t, ok)
	markers, err := s.ListSyncMarkers(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, markers)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteSyncGroup(ctx, "k"))
}
