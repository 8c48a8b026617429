package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mgaultier/marks/internal/logger"
	"github.com/mgaultier/marks/internal/sources/seedfile"
	storeredis "github.com/mgaultier/marks/internal/store/redis"
)

// SeedReloader periodically re-imports the bookmark seed file for the
// configured owner. Entries whose URL is already saved are skipped via
// the store's unique constraint, so the import stays idempotent.
type SeedReloader struct {
	loader        *seedfile.Loader
	mapper        *seedfile.Mapper
	store         *storeredis.Store
	owner         string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewSeedReloader creates a new seed reloader
func NewSeedReloader(
	seedFile string,
	store *storeredis.Store,
	owner string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedReloader {
	return &SeedReloader{
		loader:        seedfile.NewLoader(seedFile),
		mapper:        seedfile.NewMapper(),
		store:         store,
		owner:         owner,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs an initial import and begins the periodic reload loop
func (sr *SeedReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed import failed: %w", err)
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload seed file",
						logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual seed reload triggered")
				if err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload seed file",
						logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (sr *SeedReloader) Stop() {
	close(sr.stopCh)
}

// Reload imports the seed file into the owner's bookmarks
func (sr *SeedReloader) Reload(ctx context.Context) error {
	sr.logger.Info("importing bookmark seed file",
		logger.String("owner", sr.owner))

	config, err := sr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load seed file: %w", err)
	}

	inputs, skipped, err := sr.mapper.MapEntries(config)
	if err != nil {
		return fmt.Errorf("failed to map seed entries: %w", err)
	}
	if len(skipped) > 0 {
		sr.logger.Warn("skipping invalid seed entries",
			logger.Int("count", len(skipped)))
	}

	imported := 0
	existing := 0
	for _, input := range inputs {
		_, err := sr.store.Insert(ctx, sr.owner, input.Title, input.URL)
		if err != nil {
			var storeErr *storeredis.Error
			if errors.As(err, &storeErr) && storeErr.Code == storeredis.CodeUniqueViolation {
				existing++
				continue
			}
			return fmt.Errorf("failed to import seed bookmark %q: %w", input.URL, err)
		}
		imported++
	}

	sr.logger.Info("seed import finished",
		logger.Int("imported", imported),
		logger.Int("existing", existing))
	return nil
}
