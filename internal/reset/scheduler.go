package reset

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/store"
)

// Scheduler polls the reset predicate and fires the reset callback when it
// becomes due. Two trigger paths converge on the same predicate: the 60s
// ticker and CheckNow, which clients call when they regain foreground
// visibility. The predicate's idempotence makes racing triggers harmless,
// so there is no firing lock.
type Scheduler struct {
	mu       sync.Mutex
	settings *store.SettingsStore
	onReset  func()
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler. onReset must perform the actual reset
// and advance the last-reset stamp, otherwise the predicate fires again on
// the next tick.
func NewScheduler(settings *store.SettingsStore, onReset func(), logger *slog.Logger) *Scheduler {
	return &Scheduler{
		settings: settings,
		onReset:  onReset,
		logger:   logger,
		interval: 60 * time.Second,
		now:      time.Now,
	}
}

// Start begins the polling loop with an immediate check. It is a no-op when
// auto-reset is disabled or no weekdays are configured.
func (s *Scheduler) Start(ctx context.Context) {
	cfg, err := s.settings.AutoReset()
	if err != nil {
		s.logger.Error("load auto-reset config", "error", err)
		return
	}
	if !cfg.Enabled || len(cfg.ResetDays) == 0 {
		s.logger.Debug("auto-reset disabled, scheduler not started")
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.CheckNow()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CheckNow()
			}
		}
	}()
}

// Stop tears down the polling loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Restart applies a configuration change: the loop is torn down and, when
// the new config allows it, started again with an immediate check.
func (s *Scheduler) Restart(ctx context.Context) {
	s.Stop()
	s.Start(ctx)
}

// Running reports whether the polling loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// CheckNow evaluates the predicate once against the freshly loaded config
// and fires the reset callback when due. Returns true when a reset fired.
func (s *Scheduler) CheckNow() bool {
	cfg, err := s.settings.AutoReset()
	if err != nil {
		s.logger.Error("load auto-reset config", "error", err)
		return false
	}
	if !s.due(cfg) {
		return false
	}

	s.logger.Info("auto-reset triggered", "at", s.now().Format(time.RFC3339))
	s.onReset()
	return true
}

func (s *Scheduler) due(cfg model.AutoResetConfig) bool {
	if !cfg.Enabled || len(cfg.ResetDays) == 0 {
		return false
	}
	return ShouldTrigger(cfg.ResetDays, cfg.ResetTime, cfg.LastResetDate, s.now())
}
