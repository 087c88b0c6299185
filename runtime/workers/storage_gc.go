package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const discardRatio = 0.5

// StorageGC periodically triggers Badger's value-log garbage collection.
// Badger never runs it on its own; without this worker the value log of
// a long-lived server grows without bound.
type StorageGC struct {
	db       *badger.DB
	log      *slog.Logger
	interval time.Duration
}

func NewStorageGC(db *badger.DB, log *slog.Logger, interval time.Duration) *StorageGC {
	return &StorageGC{db: db, log: log, interval: interval}
}

func (w *StorageGC) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := w.db.RunValueLogGC(discardRatio)
			switch {
			case err == nil:
				w.log.Debug("value log GC reclaimed space")
			case stderrors.Is(err, badger.ErrNoRewrite):
				// Nothing to reclaim this round
			default:
				w.log.Warn("value log GC failed", "error", err)
			}
		}
	}
}
