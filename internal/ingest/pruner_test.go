package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groupwatch/dealstats/internal/deals"
	storagememory "github.com/groupwatch/dealstats/internal/storage/memory"
)

// seedSyncGroup inserts a full sync group whose key is derived from at.
func seedSyncGroup(t *testing.T, store *storagememory.Store, at time.Time) string {
	t.Helper()
	ctx := context.Background()
	syncKey := at.Format(deals.SyncKeyLayout)
	require.NoError(t, store.InsertDeals(ctx, []deals.Deal{
		{SyncKey: syncKey, DivisionID: "chicago", Title: "deal", Revenue: 10},
	}))
	require.NoError(t, store.InsertRevenueSummary(ctx, deals.RevenueSummary{SyncKey: syncKey, TotalRevenue: 10}))
	require.NoError(t, store.InsertSyncMarker(ctx, deals.SyncMarker{CreatedAt: at, SyncKey: syncKey, TotalRevenue: 10}))
	return syncKey
}

func day(d, hour int) time.Time {
	return time.Date(2011, 2, d, hour, 0, 0, 0, time.UTC)
}

func TestPrunerKeepsNewestMarkerPerDay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storagememory.New()

	// 7 markers over 3 days: 4 are old.
	newest := map[string]string{}
	for _, tc := range []struct {
		day, hour int
	}{
		{1, 8}, {1, 9}, {1, 10},
		{2, 9}, {2, 10},
		{3, 9}, {3, 10},
	} {
		key := seedSyncGroup(t, store, day(tc.day, tc.hour))
		newest[fmt.Sprintf("2011-02-%02d", tc.day)] = key // last write per day is the 10:00 run
	}

	deleted, err := NewPruner(store, 0, zap.NewNop()).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, deleted)

	markers, err := store.ListSyncMarkers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, markers, 3)
	for _, m := range markers {
		require.Equal(t, newest[deals.DayKey(m.SyncKey)], m.SyncKey)
		// The whole group survives, not just the marker.
		ds, err := store.DealsBySyncKey(ctx, m.SyncKey)
		require.NoError(t, err)
		require.Len(t, ds, 1)
	}
}

func TestPrunerHonorsLimitAcrossInvocations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storagememory.New()
	for _, tc := range []struct {
		day, hour int
	}{
		{1, 8}, {1, 9}, {1, 10},
		{2, 9}, {2, 10},
		{3, 9}, {3, 10},
	} {
		seedSyncGroup(t, store, day(tc.day, tc.hour))
	}

	// N=7, D=3, cap=2: first pass deletes min(2, 4) groups.
	pruner := NewPruner(store, 2, zap.NewNop())
	deleted, err := pruner.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, deleted)

	// The next scheduled invocation continues pruning the remainder.
	deleted, err = pruner.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, deleted)

	markers, err := store.ListSyncMarkers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, markers, 3)
}

func TestPrunerDeletesMostRecentOldGroupsFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storagememory.New()
	oldDay1a := seedSyncGroup(t, store, day(1, 8))
	oldDay1b := seedSyncGroup(t, store, day(1, 9))
	seedSyncGroup(t, store, day(1, 10))
	oldDay3 := seedSyncGroup(t, store, day(3, 9))
	seedSyncGroup(t, store, day(3, 10))

	deleted, err := NewPruner(store, 1, zap.NewNop()).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	// The queue is walked newest first, so the day-3 old group goes first.
	remaining, err := store.ListSyncMarkers(ctx, 0)
	require.NoError(t, err)
	keys := make([]string, 0, len(remaining))
	for _, m := range remaining {
		keys = append(keys, m.SyncKey)
	}
	require.NotContains(t, keys, oldDay3)
	require.Contains(t, keys, oldDay1a)
	require.Contains(t, keys, oldDay1b)
}

func TestPrunerNoOldMarkersIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storagememory.New()
	seedSyncGroup(t, store, day(1, 10))
	seedSyncGroup(t, store, day(2, 10))

	deleted, err := NewPruner(store, 30, zap.NewNop()).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, deleted)

	markers, err := store.ListSyncMarkers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, markers, 2)
}

func TestPrunerEmptyStoreIsNoop(t *testing.T) {
	t.Parallel()

	deleted, err := NewPruner(storagememory.New(), 30, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, deleted)
}
