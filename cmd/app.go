package cmd

import (
	"context"
	"fmt"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/groupwatch/dealstats/internal/archive"
	archivegcs "github.com/groupwatch/dealstats/internal/archive/gcs"
	archivelocal "github.com/groupwatch/dealstats/internal/archive/local"
	archivememory "github.com/groupwatch/dealstats/internal/archive/memory"
	"github.com/groupwatch/dealstats/internal/clock/system"
	"github.com/groupwatch/dealstats/internal/config"
	"github.com/groupwatch/dealstats/internal/groupon"
	"github.com/groupwatch/dealstats/internal/ingest"
	"github.com/groupwatch/dealstats/internal/logging"
	"github.com/groupwatch/dealstats/internal/metrics"
	"github.com/groupwatch/dealstats/internal/notify"
	notifymemory "github.com/groupwatch/dealstats/internal/notify/memory"
	notifypubsub "github.com/groupwatch/dealstats/internal/notify/pubsub"
	"github.com/groupwatch/dealstats/internal/storage"
	storememory "github.com/groupwatch/dealstats/internal/storage/memory"
	storepostgres "github.com/groupwatch/dealstats/internal/storage/postgres"
	storesqlite "github.com/groupwatch/dealstats/internal/storage/sqlite"
)

// application holds the assembled service dependencies shared by the
// subcommands.
type application struct {
	cfg          config.Config
	logger       *zap.Logger
	store        storage.Store
	publisher    notify.Publisher
	orchestrator *ingest.Orchestrator
	pruner       *ingest.Pruner
}

// newApplication loads configuration and wires every dependency by its
// configured provider.
func newApplication(ctx context.Context, cfgPath string) (*application, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	metrics.Init()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	archiveStore, err := newArchive(ctx, cfg)
	if err != nil {
		closeQuietly(store, logger)
		return nil, err
	}
	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		closeQuietly(store, logger)
		return nil, err
	}

	source := groupon.New(groupon.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		APIVersion: cfg.Upstream.APIVersion,
		ClientID:   cfg.Upstream.ClientID,
		UserAgent:  cfg.Upstream.UserAgent,
		Timeout:    cfg.UpstreamTimeout(),
	})

	return &application{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		publisher:    publisher,
		orchestrator: ingest.NewOrchestrator(source, store, archiveStore, publisher, system.Clock{}, logger),
		pruner:       ingest.NewPruner(store, cfg.Retention.PruneLimit, logger),
	}, nil
}

func (a *application) Close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("close publisher", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func newStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DB.Driver {
	case "postgres":
		store, err := storepostgres.New(ctx, storepostgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	case "sqlite":
		store, err := storesqlite.Open(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case "memory":
		return storememory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
}

func newArchive(ctx context.Context, cfg config.Config) (archive.Store, error) {
	switch cfg.Archive.Provider {
	case "", "none":
		return archive.NoOp{}, nil
	case "local":
		store, err := archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("open local archive: %w", err)
		}
		return store, nil
	case "memory":
		return archivememory.New(), nil
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("build gcs client: %w", err)
		}
		store, err := archivegcs.New(client, archivegcs.Config{
			Bucket: cfg.Archive.Bucket,
			Prefix: cfg.Archive.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open gcs archive: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported archive provider %q", cfg.Archive.Provider)
	}
}

func newPublisher(ctx context.Context, cfg config.Config) (notify.Publisher, error) {
	switch cfg.Notify.Provider {
	case "", "none":
		return notify.NoOp{}, nil
	case "memory":
		return notifymemory.New(), nil
	case "pubsub":
		pub, err := notifypubsub.New(ctx, cfg.Notify.ProjectID, cfg.Notify.TopicID)
		if err != nil {
			return nil, fmt.Errorf("open pubsub publisher: %w", err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("unsupported notify provider %q", cfg.Notify.Provider)
	}
}

func closeQuietly(store storage.Store, logger *zap.Logger) {
	if err := store.Close(); err != nil {
		logger.Warn("close store", zap.Error(err))
	}
}
