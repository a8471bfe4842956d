package core

// scheduler.go runs the session janitor. Sessions live in memory only; the
// janitor drops the ones nobody has touched for longer than the idle TTL.

import (
	"context"
	"log/slog"
	"time"
)

// JanitorConfig holds the janitor settings.
type JanitorConfig struct {
	IdleTTL       time.Duration // Sessions unused this long are dropped (default: 2h)
	SweepInterval time.Duration // How often to sweep (default: 5m)
}

func (c JanitorConfig) withDefaults() JanitorConfig {
	if c.IdleTTL <= 0 {
		c.IdleTTL = 2 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	return c
}

// StartJanitor sweeps idle sessions every SweepInterval until ctx is done.
// It blocks; run it in a goroutine.
func (s *Service) StartJanitor(ctx context.Context, cfg JanitorConfig) {
	cfg = cfg.withDefaults()
	slog.Info("session janitor started",
		"idle_ttl", cfg.IdleTTL,
		"sweep_interval", cfg.SweepInterval,
	)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			s.SweepIdle(time.Now(), cfg.IdleTTL)
		}
	}
}

// SweepIdle removes sessions last used before now-ttl and returns how many
// were dropped.
func (s *Service) SweepIdle(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.LastUsed().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		slog.Info("idle sessions removed", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}
