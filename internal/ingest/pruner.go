package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/groupwatch/dealstats/internal/deals"
	"github.com/groupwatch/dealstats/internal/metrics"
	"github.com/groupwatch/dealstats/internal/storage"
)

// DefaultPruneLimit bounds deletions per pruner invocation so a scheduled
// trigger with an execution deadline cannot be starved; later invocations
// continue where this one stopped.
const DefaultPruneLimit = 30

// Pruner deletes superseded sync groups, keeping the most recent sync per
// calendar day.
type Pruner struct {
	store  storage.Store
	limit  int
	logger *zap.Logger
}

// NewPruner wires a Pruner. A limit <= 0 falls back to DefaultPruneLimit.
func NewPruner(store storage.Store, limit int, logger *zap.Logger) *Pruner {
	if limit <= 0 {
		limit = DefaultPruneLimit
	}
	return &Pruner{
		store:  store,
		limit:  limit,
		logger: logger,
	}
}

// Run scans all sync markers newest first, keeps the first marker of each
// day key, and deletes up to the configured limit of older sync groups.
// It returns the number of groups deleted. Zero old markers is a no-op.
func (p *Pruner) Run(ctx context.Context) (int, error) {
	markers, err := p.store.ListSyncMarkers(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list sync markers: %w", err)
	}

	seen := make(map[string]bool)
	var old []string
	for _, m := range markers {
		day := deals.DayKey(m.SyncKey)
		if seen[day] {
			old = append(old, m.SyncKey)
		} else {
			seen[day] = true
		}
	}
	p.logger.Info("pruning old sync groups", zap.Int("queued", len(old)))

	if len(old) > p.limit {
		old = old[:p.limit]
	}
	deleted := 0
	for _, syncKey := range old {
		p.logger.Info("deleting sync group", zap.String("sync_key", syncKey))
		if err := p.store.DeleteSyncGroup(ctx, syncKey); err != nil {
			metrics.AddPrunedSyncGroups(deleted)
			return deleted, fmt.Errorf("delete sync group %s: %w", syncKey, err)
		}
		deleted++
	}
	metrics.AddPrunedSyncGroups(deleted)
	return deleted, nil
}
