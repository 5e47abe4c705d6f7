package room

import (
	"context"
	"time"

	"chuchuang-service/pkg/logger"

	"go.uber.org/zap"
)

// Start launches the janitor that closes idle rooms. It runs until ctx ends.
func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		if s.cfg.CleanupInterval <= 0 || s.cfg.IdleTimeout <= 0 {
			return
		}
		go s.runJanitor(ctx)
	})
}

func (s *Service) runJanitor(ctx context.Context) {
	logger.Log.Info("room janitor started",
		zap.Duration("interval", s.cfg.CleanupInterval),
		zap.Duration("idleTimeout", s.cfg.IdleTimeout),
	)

	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("room janitor stopped")
			return
		case <-ticker.C:
			if n := s.Cleanup(ctx); n > 0 {
				logger.Log.Info("idle rooms closed", zap.Int("count", n))
			}
		}
	}
}

// Cleanup closes rooms untouched for longer than the idle timeout, together
// with any game they host, and returns how many were closed.
func (s *Service) Cleanup(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.IdleTimeout)

	s.mu.Lock()
	var stale []string
	for id, r := range s.rooms {
		if r.touchedAt.Before(cutoff) && !r.starting {
			stale = append(stale, id)
			delete(s.rooms, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.games.RemoveRuntime(ctx, id)
	}
	return len(stale)
}
