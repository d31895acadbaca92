package service

import (
	"context"
	"fmt"
	"time"

	"github.com/melosys/skjema-api/internal/arkiv"
	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/pkg/config"
	"github.com/melosys/skjema-api/pkg/logger"
	"github.com/melosys/skjema-api/pkg/messaging"
)

// InnsendingRepo is the persistence surface the pipeline needs
type InnsendingRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Skjema, error)
	RegistrerForsoek(ctx context.Context, id string) (int, error)
	OppdaterInnsendingStatus(ctx context.Context, id string, status domain.InnsendingStatus, journalpostID, sisteFeil *string) error
	ClaimRetryKandidater(ctx context.Context, staleBefore time.Time, maxForsoek int) ([]*domain.Skjema, error)
	CountPermanentFeilet(ctx context.Context, maxForsoek int) (int, error)
}

// Journalfoerer archives one submission and returns the journalpost ID
type Journalfoerer interface {
	Journalfoer(ctx context.Context, req *arkiv.JournalfoerRequest) (string, error)
}

// InnsendingPublisher is the event surface the pipeline needs
type InnsendingPublisher interface {
	PublishInnsendingMottatt(ctx context.Context, skjema *domain.Skjema, journalpostID string) error
	PublishInnsendingFerdig(ctx context.Context, skjema *domain.Skjema, journalpostID string)
	PublishInnsendingFeilet(ctx context.Context, skjemaID string, status domain.InnsendingStatus, feil string, forsoek int)
}

// InnsendingService drives a submission from MOTTATT to FERDIG:
// journal the form in the archive, then hand it over to case processing
// on the event bus. Each step records its failure status so the retry
// sweep can resume from where the pipeline stopped.
type InnsendingService struct {
	repo      InnsendingRepo
	arkiv     Journalfoerer
	publisher InnsendingPublisher
	cfg       config.InnsendingConfig
	logger    *logger.Logger
}

// NewInnsendingService creates a new submission pipeline service
func NewInnsendingService(repo InnsendingRepo, arkivClient Journalfoerer, publisher InnsendingPublisher, cfg config.InnsendingConfig, log *logger.Logger) *InnsendingService {
	return &InnsendingService{
		repo:      repo,
		arkiv:     arkivClient,
		publisher: publisher,
		cfg:       cfg,
		logger:    log,
	}
}

// ProcessByID loads the form and runs one processing attempt
func (s *InnsendingService) ProcessByID(ctx context.Context, skjemaID string) error {
	skjema, err := s.repo.GetByID(ctx, skjemaID)
	if err != nil {
		return err
	}
	return s.Process(ctx, skjema)
}

// Process runs one attempt of the submission pipeline. Finished
// submissions are a no-op, so a stray claim of an already completed row
// is harmless.
func (s *InnsendingService) Process(ctx context.Context, skjema *domain.Skjema) error {
	if skjema.Status != domain.SkjemaStatusSendtInn || skjema.InnsendingStatus == nil {
		return fmt.Errorf("skjema %s is not submitted", skjema.ID)
	}
	if *skjema.InnsendingStatus == domain.InnsendingStatusFerdig {
		return nil
	}

	log := s.logger.WithSkjemaID(skjema.ID)

	forsoek, err := s.repo.RegistrerForsoek(ctx, skjema.ID)
	if err != nil {
		return fmt.Errorf("failed to register attempt: %w", err)
	}

	korrelasjonsID := ""
	if skjema.KorrelasjonsID != nil {
		korrelasjonsID = *skjema.KorrelasjonsID
	}
	ctx = messaging.WithCorrelationID(ctx, korrelasjonsID)

	journalpostID, err := s.journalfoer(ctx, skjema, korrelasjonsID)
	if err != nil {
		s.registrerFeil(ctx, skjema.ID, domain.InnsendingStatusJournalforingFeilet, err, forsoek)
		return err
	}

	if err := s.publisher.PublishInnsendingMottatt(ctx, skjema, journalpostID); err != nil {
		s.registrerFeil(ctx, skjema.ID, domain.InnsendingStatusMeldingFeilet, err, forsoek)
		return err
	}

	if err := s.repo.OppdaterInnsendingStatus(ctx, skjema.ID, domain.InnsendingStatusFerdig, nil, nil); err != nil {
		return fmt.Errorf("failed to mark submission finished: %w", err)
	}

	s.publisher.PublishInnsendingFerdig(ctx, skjema, journalpostID)
	log.Info().Str("journalpost_id", journalpostID).Int("forsoek", forsoek).Msg("innsending ferdig")

	return nil
}

// journalfoer archives the form unless an earlier attempt already did.
// The archive deduplicates on korrelasjonsId, so re-archiving after a
// publish failure would also be safe; the stored journalpost just saves
// the round trip.
func (s *InnsendingService) journalfoer(ctx context.Context, skjema *domain.Skjema, korrelasjonsID string) (string, error) {
	if skjema.JournalpostID != nil && *skjema.JournalpostID != "" {
		return *skjema.JournalpostID, nil
	}

	journalpostID, err := s.arkiv.Journalfoer(ctx, &arkiv.JournalfoerRequest{
		SkjemaID:       skjema.ID,
		Skjematype:     string(skjema.Skjematype),
		Eier:           skjema.Eier,
		KorrelasjonsID: korrelasjonsID,
		Innhold:        skjema.Data,
	})
	if err != nil {
		return "", fmt.Errorf("journalfoering: %w", err)
	}

	if err := s.repo.OppdaterInnsendingStatus(ctx, skjema.ID, domain.InnsendingStatusJournalfort, &journalpostID, nil); err != nil {
		return "", fmt.Errorf("failed to record journalpost: %w", err)
	}
	skjema.JournalpostID = &journalpostID

	return journalpostID, nil
}

func (s *InnsendingService) registrerFeil(ctx context.Context, skjemaID string, status domain.InnsendingStatus, cause error, forsoek int) {
	feil := cause.Error()

	if err := s.repo.OppdaterInnsendingStatus(ctx, skjemaID, status, nil, &feil); err != nil {
		s.logger.Error().Err(err).Str("skjema_id", skjemaID).Msg("failed to record submission failure")
	}

	s.publisher.PublishInnsendingFeilet(ctx, skjemaID, status, feil, forsoek)

	s.logger.Warn().
		Str("skjema_id", skjemaID).
		Str("status", string(status)).
		Int("forsoek", forsoek).
		Str("feil", feil).
		Msg("innsending attempt failed")
}
