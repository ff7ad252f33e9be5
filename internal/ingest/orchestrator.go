// Package ingest contains the sync orchestrator and the retention pruner.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/groupwatch/dealstats/internal/archive"
	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/metrics"
	"github.com/groupwatch/dealstats/internal/notify"
	"github.com/groupwatch/dealstats/internal/storage"
)

// Source is the upstream API surface the orchestrator consumes.
type Source interface {
	Divisions(ctx context.Context) ([]string, error)
	Deals(ctx context.Context, divisionID string) ([]deals.RawDeal, error)
}

// Orchestrator produces one timestamped sync group per run.
//
// All fetching and normalization happens before any write, so a failed run
// persists nothing. The three writes that follow (deals, summary, marker)
// are separate commits: a crash between them can leave deal rows with no
// marker pointing at them. Readers tolerate such orphans, and the marker
// is written last so a partially persisted run is never listed.
type Orchestrator struct {
	source    Source
	store     storage.Store
	archive   archive.Store
	publisher notify.Publisher
	clock     deals.Clock
	logger    *zap.Logger
}

// RunResult summarizes one successful orchestration run.
type RunResult struct {
	SyncKey      string
	Divisions    int
	DealCount    int
	TotalRevenue float64
}

// NewOrchestrator wires an Orchestrator. archiveStore and publisher may be
// nil to disable snapshot archiving and notifications.
func NewOrchestrator(
	source Source,
	store storage.Store,
	archiveStore archive.Store,
	publisher notify.Publisher,
	clock deals.Clock,
	logger *zap.Logger,
) *Orchestrator {
	if archiveStore == nil {
		archiveStore = archive.NoOp{}
	}
	if publisher == nil {
		publisher = notify.NoOp{}
	}
	return &Orchestrator{
		source:    source,
		store:     store,
		archive:   archiveStore,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// Run fetches every division's deals, normalizes them, and persists one
// sync group tagged with a freshly generated sync key.
func (o *Orchestrator) Run(ctx context.Context) (RunResult, error) {
	now := o.clock.Now()
	syncKey := now.Format(deals.SyncKeyLayout)

	divisions, err := o.source.Divisions(ctx)
	if err != nil {
		metrics.ObserveSync("failed")
		return RunResult{}, fmt.Errorf("fetch division list: %w", err)
	}

	var (
		batch       []deals.Deal
		total       float64
		perDivision = make(map[string]int, len(divisions))
	)
	for _, divisionID := range divisions {
		o.logger.Info("processing division", zap.String("division", divisionID))
		raws, err := o.source.Deals(ctx, divisionID)
		if err != nil {
			metrics.ObserveSync("failed")
			return RunResult{}, fmt.Errorf("fetch deals for %s: %w", divisionID, err)
		}
		for _, raw := range raws {
			deal, err := deals.Normalize(raw, divisionID, syncKey)
			if err != nil {
				metrics.ObserveSync("failed")
				return RunResult{}, err
			}
			if deal.ActiveDays > 1 {
				o.logger.Debug("deal spans multiple days",
					zap.String("url", deal.URL),
					zap.Float64("days", deal.ActiveDays))
			}
			total += deal.Revenue
			batch = append(batch, deal)
			perDivision[divisionID]++
		}
	}

	// Nothing has been written yet; the batch is committed only once every
	// fetch and normalization succeeded.
	if err := o.store.InsertDeals(ctx, batch); err != nil {
		metrics.ObserveSync("failed")
		return RunResult{}, fmt.Errorf("persist deals: %w", err)
	}
	if err := o.store.InsertRevenueSummary(ctx, deals.RevenueSummary{SyncKey: syncKey, TotalRevenue: total}); err != nil {
		metrics.ObserveSync("failed")
		return RunResult{}, fmt.Errorf("persist revenue summary: %w", err)
	}
	if err := o.store.InsertSyncMarker(ctx, deals.SyncMarker{CreatedAt: now, SyncKey: syncKey, TotalRevenue: total}); err != nil {
		metrics.ObserveSync("failed")
		return RunResult{}, fmt.Errorf("persist sync marker: %w", err)
	}

	metrics.ObserveSync("succeeded")
	metrics.SetLastSyncRevenue(total)
	for divisionID, n := range perDivision {
		metrics.AddDealsIngested(divisionID, n)
	}
	o.logger.Info("sync completed",
		zap.String("sync_key", syncKey),
		zap.Int("deals", len(batch)),
		zap.Float64("total_revenue", total))

	result := RunResult{
		SyncKey:      syncKey,
		Divisions:    len(divisions),
		DealCount:    len(batch),
		TotalRevenue: total,
	}
	o.archiveSnapshot(ctx, result, batch)
	o.notifyCompleted(ctx, result)
	return result, nil
}

// archiveSnapshot retains the normalized batch as JSON, best effort.
func (o *Orchestrator) archiveSnapshot(ctx context.Context, result RunResult, batch []deals.Deal) {
	snapshot := struct {
		SyncKey      string       `json:"sync_key"`
		TotalRevenue float64      `json:"total_revenue"`
		Deals        []deals.Deal `json:"deals"`
	}{result.SyncKey, result.TotalRevenue, batch}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		o.logger.Warn("marshal snapshot failed", zap.Error(err))
		return
	}
	path := fmt.Sprintf("%s/%s.json", deals.DayKey(result.SyncKey), result.SyncKey)
	uri, err := o.archive.PutObject(ctx, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		o.logger.Warn("archive snapshot failed", zap.Error(err))
		return
	}
	if uri != "" {
		o.logger.Info("snapshot archived", zap.String("uri", uri))
	}
}

// notifyCompleted publishes the sync-completed event, best effort.
func (o *Orchestrator) notifyCompleted(ctx context.Context, result RunResult) {
	event := notify.SyncCompleted{
		SyncKey:      result.SyncKey,
		TotalRevenue: result.TotalRevenue,
		DealCount:    result.DealCount,
		CompletedAt:  o.clock.Now(),
	}
	if _, err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("publish sync notification failed", zap.Error(err))
	}
}
