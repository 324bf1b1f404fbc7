package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/folioworks/folio/internal/records/metrics"
	"github.com/folioworks/folio/internal/records/store"
)

// RetentionService periodically purges records that have been soft-deleted
// longer than the configured window, preventing unbounded growth of the
// deleted population. Explicit purge semantics are unaffected; this is
// opt-in operational hygiene.
type RetentionService struct {
	Store    store.Store
	Logger   *slog.Logger
	Window   time.Duration
	Interval time.Duration
	Metrics  *metrics.Metrics // optional

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRetentionService creates a retention service. Window <= 0 disables the
// sweep entirely; interval defaults to 1 hour when not positive.
func NewRetentionService(store store.Store, logger *slog.Logger, window, interval time.Duration) *RetentionService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &RetentionService{
		Store:    store,
		Logger:   logger,
		Window:   window,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Enabled reports whether a retention window is configured.
func (s *RetentionService) Enabled() bool { return s.Window > 0 }

// Start begins the background worker that periodically sweeps expired
// soft-deleted records. Non-blocking; call Stop() to shut down.
func (s *RetentionService) Start() {
	go s.run()
	s.Logger.Info("retention service started", "window", s.Window, "interval", s.Interval)
}

// Stop gracefully shuts down the background worker. Blocks until any
// in-progress sweep finishes.
func (s *RetentionService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("retention service stopped")
}

// run is the main background worker loop.
func (s *RetentionService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep purges every record soft-deleted before the cutoff. The two kinds are
// swept independently - a failure in one does not stop the other.
func (s *RetentionService) sweep() {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.Window)

	accounts, err := s.Store.Accounts().PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to purge expired accounts", "error", err)
	}
	s.Metrics.AddRetentionPurged("account", accounts)

	documents, err := s.Store.Documents().PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to purge expired documents", "error", err)
	}
	s.Metrics.AddRetentionPurged("document", documents)

	if accounts > 0 || documents > 0 {
		s.Logger.Info("retention sweep completed",
			"accounts_purged", accounts,
			"documents_purged", documents,
		)
	}
}
