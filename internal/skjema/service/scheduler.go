package service

import (
	"context"
	"time"

	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/pkg/config"
	"github.com/melosys/skjema-api/pkg/logger"
)

// Prosessor runs one processing attempt for a claimed submission
type Prosessor interface {
	Process(ctx context.Context, skjema *domain.Skjema) error
}

// RetryScheduler periodically sweeps for submissions that stalled in the
// pipeline and reprocesses them. The repository claim stamps each picked
// row, so overlapping sweeps do not double-process.
type RetryScheduler struct {
	repo      InnsendingRepo
	prosessor Prosessor
	cfg       config.InnsendingConfig
	logger    *logger.Logger
	cancel    context.CancelFunc
}

// NewRetryScheduler creates a new retry scheduler
func NewRetryScheduler(repo InnsendingRepo, prosessor Prosessor, cfg config.InnsendingConfig, log *logger.Logger) *RetryScheduler {
	return &RetryScheduler{
		repo:      repo,
		prosessor: prosessor,
		cfg:       cfg,
		logger:    log,
	}
}

// Start starts the scheduler in a background goroutine. The first sweep
// waits out the initial delay so submissions still in their synchronous
// processing window are not picked up on boot.
func (s *RetryScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().
			Dur("interval", s.cfg.RetryInterval).
			Dur("initial_delay", s.cfg.InitialDelay).
			Int("max_attempts", s.cfg.MaxAttempts).
			Msg("retry scheduler started")

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retry scheduler stopped")
			return
		case <-time.After(s.cfg.InitialDelay):
		}

		s.RunSweep(ctx)

		ticker := time.NewTicker(s.cfg.RetryInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("retry scheduler stopped")
				return
			case <-ticker.C:
				s.RunSweep(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *RetryScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// RunSweep claims and reprocesses every retry candidate. One failing
// candidate does not stop the rest of the sweep.
func (s *RetryScheduler) RunSweep(ctx context.Context) {
	start := time.Now()

	staleBefore := time.Now().Add(-s.cfg.StaleThreshold)
	kandidater, err := s.repo.ClaimRetryKandidater(ctx, staleBefore, s.cfg.MaxAttempts)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to claim retry candidates")
		return
	}

	if len(kandidater) == 0 {
		s.reportPermanentFeilet(ctx)
		return
	}

	s.logger.Info().Int("kandidater", len(kandidater)).Msg("retry sweep started")

	feilet := 0
	for _, skjema := range kandidater {
		if err := s.prosessor.Process(ctx, skjema); err != nil {
			feilet++
			s.logger.Error().Err(err).Str("skjema_id", skjema.ID).Msg("retry attempt failed")
		}
	}

	s.reportPermanentFeilet(ctx)

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("kandidater", len(kandidater)).
		Int("feilet", feilet).
		Msg("retry sweep completed")
}

// reportPermanentFeilet logs submissions that exhausted the attempt cap.
// They need manual follow-up; the sweep will not pick them up again.
func (s *RetryScheduler) reportPermanentFeilet(ctx context.Context) {
	count, err := s.repo.CountPermanentFeilet(ctx, s.cfg.MaxAttempts)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count permanently failed submissions")
		return
	}
	if count > 0 {
		s.logger.Warn().Int("antall", count).Msg("submissions permanently failed, manual follow-up required")
	}
}
