package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxFilesPerBatch bounds how many files one upload may carry.
	DefaultMaxFilesPerBatch = 50

	// DefaultMaxSessions bounds how many sessions are kept at once.
	DefaultMaxSessions = 1000
)

// ServiceConfig holds the limits the service enforces.
type ServiceConfig struct {
	MaxFilesPerBatch     int
	MaxConcurrentBatches int
	MaxBatchWait         time.Duration
	MaxSessions          int
	PeriodLocation       *time.Location
}

// Service owns the live sessions and is the entry point for frontends.
type Service struct {
	cfg     ServiceConfig
	limiter *BatchLimiter

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a Service with the given limits.
func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxFilesPerBatch <= 0 {
		cfg.MaxFilesPerBatch = DefaultMaxFilesPerBatch
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Service{
		cfg:      cfg,
		limiter:  NewBatchLimiter(cfg.MaxConcurrentBatches, cfg.MaxBatchWait),
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a new empty session. It fails with
// ErrTooManySessions once MaxSessions are live; the janitor frees slots.
func (s *Service) CreateSession() (*Session, error) {
	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		live := len(s.sessions)
		s.mu.Unlock()
		slog.Warn("session limit reached", "live", live, "limit", s.cfg.MaxSessions)
		return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, s.cfg.MaxSessions)
	}
	sess := NewSession(uuid.New().String(), PeriodOptions{Location: s.cfg.PeriodLocation})
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	slog.Info("session created", "session_id", sess.ID)
	return sess, nil
}

// Session looks up a live session.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Ingest loads a batch of files into a session.
// The call waits for a batch slot; ctx only bounds that wait, decoding
// itself is not interrupted.
func (s *Service) Ingest(ctx context.Context, sessionID string, files []InputFile, appendRows bool) (BatchReport, error) {
	if len(files) == 0 {
		return BatchReport{}, ErrNoFile
	}
	if len(files) > s.cfg.MaxFilesPerBatch {
		return BatchReport{}, fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, len(files), s.cfg.MaxFilesPerBatch)
	}

	sess, err := s.Session(sessionID)
	if err != nil {
		return BatchReport{}, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return BatchReport{}, err
	}
	defer s.limiter.Release()

	return sess.Ingest(files, appendRows), nil
}

// Analyze runs an analysis on a session's rows.
func (s *Service) Analyze(sessionID string, req AnalysisRequest) (*Report, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Analyze(req)
}

// Report returns a session's last analysis.
func (s *Service) Report(sessionID string) (*Report, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Report()
}

// Clear empties a session but keeps it alive.
func (s *Service) Clear(sessionID string) error {
	sess, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	sess.Clear()
	return nil
}

// DeleteSession drops a session entirely.
func (s *Service) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// LimiterStatus reports batch slot usage.
func (s *Service) LimiterStatus() BatchLimiterStatus {
	return s.limiter.Status()
}

// WaitForBatches blocks until running batches finish, for graceful shutdown.
func (s *Service) WaitForBatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
