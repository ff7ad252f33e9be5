package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/storage"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func TestInsertDealsBulk(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	ds := []deals.Deal{
		{
			SyncKey: "2011-02-03 10:00:00.000000", DivisionID: "chicago",
			Title: "Spa Day", URL: "https://example.com/spa", Tipped: true,
			QuantitySold: 10, UnitPrice: 5.0, Currency: "USD", ActiveDays: 1.0, Revenue: 50.0,
		},
		{
			SyncKey: "2011-02-03 10:00:00.000000", DivisionID: "boston",
			Title: "Dinner", URL: "https://example.com/dinner", Tipped: false,
			QuantitySold: 100, UnitPrice: 10.0, Currency: "USD", ActiveDays: 3.0, Revenue: 1000.0 / 3.0,
		},
	}

	mock.ExpectExec("INSERT INTO deals").
		WithArgs(
			ds[0].SyncKey, ds[0].DivisionID, ds[0].Title, ds[0].URL, ds[0].Tipped,
			ds[0].QuantitySold, ds[0].UnitPrice, ds[0].Currency, ds[0].ActiveDays, ds[0].Revenue,
			ds[1].SyncKey, ds[1].DivisionID, ds[1].Title, ds[1].URL, ds[1].Tipped,
			ds[1].QuantitySold, ds[1].UnitPrice, ds[1].Currency, ds[1].ActiveDays, ds[1].Revenue,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	require.NoError(t, store.InsertDeals(context.Background(), ds))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDealsEmptyBatchIsNoop(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	require.NoError(t, store.InsertDeals(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSummaryAndMarker(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()

	mock.ExpectExec("INSERT INTO revenue_summaries").
		WithArgs("key", 123.5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO syncs").
		WithArgs(now, "key", 123.5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ctx := context.Background()
	require.NoError(t, store.InsertRevenueSummary(ctx, deals.RevenueSummary{SyncKey: "key", TotalRevenue: 123.5}))
	require.NoError(t, store.InsertSyncMarker(ctx, deals.SyncMarker{CreatedAt: now, SyncKey: "key", TotalRevenue: 123.5}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListSyncMarkers(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Unix(1700000000, 0).UTC()

	rows := pgxmock.NewRows([]string{"created_at", "sync_key", "total_revenue"}).
		AddRow(now, "b", 2.0).
		AddRow(now.Add(-time.Hour), "a", 1.0)
	mock.ExpectQuery("SELECT created_at, sync_key, total_revenue FROM syncs").
		WithArgs(500).
		WillReturnRows(rows)

	markers, err := store.ListSyncMarkers(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, markers, 2)
	require.Equal(t, "b", markers[0].SyncKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLastSyncNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT created_at, sync_key, total_revenue FROM syncs").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "sync_key", "total_revenue"}))

	_, err := store.LastSync(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDealsBySyncKey(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	rows := pgxmock.NewRows([]string{
		"sync_key", "division_id", "title", "url", "tipped",
		"quantity_sold", "unit_price", "currency", "active_days", "revenue",
	}).AddRow("key", "chicago", "Spa Day", "https://example.com/spa", true, 10, 5.0, "USD", 1.0, 50.0)
	mock.ExpectQuery("FROM deals WHERE sync_key").
		WithArgs("key").
		WillReturnRows(rows)

	ds, err := store.DealsBySyncKey(context.Background(), "key")
	require.NoError(t, err)
	require.Len(t, ds, 1)
	require.Equal(t, "Spa Day", ds[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSyncGroupUsesOneTransaction(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM deals").WithArgs("key").WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec("DELETE FROM syncs").WithArgs("key").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM revenue_summaries").WithArgs("key").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	require.NoError(t, store.DeleteSyncGroup(context.Background(), "key"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil)
	require.Error(t, err)
}
