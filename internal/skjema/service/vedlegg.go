package service

import (
	"context"
	"fmt"

	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/internal/vedlegg"
	"github.com/melosys/skjema-api/pkg/config"
	"github.com/melosys/skjema-api/pkg/errors"
	"github.com/melosys/skjema-api/pkg/logger"
)

// VedleggRepo is the metadata persistence surface for attachments
type VedleggRepo interface {
	Create(ctx context.Context, vedlegg *domain.Vedlegg) error
	GetByID(ctx context.Context, id string) (*domain.Vedlegg, error)
	ListBySkjema(ctx context.Context, skjemaID string) ([]*domain.Vedlegg, error)
	Delete(ctx context.Context, id string) error
}

// VedleggPublisher is the event surface for attachment lifecycle
type VedleggPublisher interface {
	PublishVedleggLastetOpp(ctx context.Context, vedlegg *domain.Vedlegg)
	PublishVedleggSlettet(ctx context.Context, skjemaID, vedleggID string)
}

// VedleggService handles attachment uploads: content type and size limits,
// virus scanning, and the split between byte store and metadata row.
type VedleggService struct {
	skjemaRepo SkjemaRepo
	repo       VedleggRepo
	skanner    vedlegg.Skanner
	lager      vedlegg.Lager
	publisher  VedleggPublisher
	cfg        config.VedleggConfig
	logger     *logger.Logger
}

// NewVedleggService creates a new attachment service
func NewVedleggService(skjemaRepo SkjemaRepo, repo VedleggRepo, skanner vedlegg.Skanner, lager vedlegg.Lager, publisher VedleggPublisher, cfg config.VedleggConfig, log *logger.Logger) *VedleggService {
	return &VedleggService{
		skjemaRepo: skjemaRepo,
		repo:       repo,
		skanner:    skanner,
		lager:      lager,
		publisher:  publisher,
		cfg:        cfg,
		logger:     log,
	}
}

// LastOpp scans and stores an upload for a draft the caller owns
func (s *VedleggService) LastOpp(ctx context.Context, skjemaID, eier, filnavn, contentType string, innhold []byte) (*domain.Vedlegg, error) {
	skjema, err := s.eidUtkast(ctx, skjemaID, eier)
	if err != nil {
		return nil, err
	}

	if !domain.TillatteVedleggTyper[contentType] {
		return nil, errors.BadRequestWithKey("vedlegg.ugyldig_filtype")
	}
	if int64(len(innhold)) > s.cfg.MaxSizeBytes {
		return nil, errors.BadRequestWithKey("vedlegg.for_stor", map[string]string{
			"maks": fmt.Sprintf("%d MB", s.cfg.MaxSizeBytes/(1024*1024)),
		})
	}

	resultat, err := s.skanner.Skann(ctx, filnavn, innhold)
	if err != nil {
		return nil, errors.Internal("virus scan unavailable")
	}
	if resultat != vedlegg.SkannResultatOK {
		return nil, errors.BadRequestWithKey("vedlegg.infisert")
	}

	ref, err := s.lager.Lagre(ctx, innhold)
	if err != nil {
		return nil, err
	}

	meta := &domain.Vedlegg{
		SkjemaID:    skjema.ID,
		Filnavn:     filnavn,
		ContentType: contentType,
		Stoerrelse:  int64(len(innhold)),
		LagringRef:  ref,
	}
	if err := s.repo.Create(ctx, meta); err != nil {
		// Orphaned bytes are cleaned up right away
		if slettErr := s.lager.Slett(ctx, ref); slettErr != nil {
			s.logger.Error().Err(slettErr).Str("ref", ref).Msg("failed to clean up stored bytes")
		}
		return nil, err
	}

	s.publisher.PublishVedleggLastetOpp(ctx, meta)
	s.logger.WithSkjemaID(skjema.ID).Info().
		Str("vedlegg_id", meta.ID).
		Str("filnavn", filnavn).
		Int64("stoerrelse", meta.Stoerrelse).
		Msg("vedlegg lastet opp")

	return meta, nil
}

// Hent returns attachment metadata and bytes for a form the caller owns
func (s *VedleggService) Hent(ctx context.Context, skjemaID, vedleggID, eier string) (*domain.Vedlegg, []byte, error) {
	skjema, err := s.skjemaRepo.GetByID(ctx, skjemaID)
	if err != nil {
		return nil, nil, err
	}
	if skjema.Eier != eier {
		return nil, nil, errors.Forbidden("not the owner of this skjema")
	}

	meta, err := s.repo.GetByID(ctx, vedleggID)
	if err != nil {
		return nil, nil, err
	}
	if meta.SkjemaID != skjemaID {
		return nil, nil, errors.NotFound("vedlegg")
	}

	innhold, err := s.lager.Hent(ctx, meta.LagringRef)
	if err != nil {
		return nil, nil, errors.NotFound("vedlegg")
	}

	return meta, innhold, nil
}

// List lists attachments for a form the caller owns
func (s *VedleggService) List(ctx context.Context, skjemaID, eier string) ([]*domain.Vedlegg, error) {
	skjema, err := s.skjemaRepo.GetByID(ctx, skjemaID)
	if err != nil {
		return nil, err
	}
	if skjema.Eier != eier {
		return nil, errors.Forbidden("not the owner of this skjema")
	}

	return s.repo.ListBySkjema(ctx, skjemaID)
}

// Slett removes an attachment from a draft. Attachments on submitted forms
// are part of the archived submission and cannot be removed.
func (s *VedleggService) Slett(ctx context.Context, skjemaID, vedleggID, eier string) error {
	if _, err := s.eidUtkast(ctx, skjemaID, eier); err != nil {
		return err
	}

	meta, err := s.repo.GetByID(ctx, vedleggID)
	if err != nil {
		return err
	}
	if meta.SkjemaID != skjemaID {
		return errors.NotFound("vedlegg")
	}

	if err := s.repo.Delete(ctx, vedleggID); err != nil {
		return err
	}
	if err := s.lager.Slett(ctx, meta.LagringRef); err != nil {
		s.logger.Error().Err(err).Str("ref", meta.LagringRef).Msg("failed to delete stored bytes")
	}

	s.publisher.PublishVedleggSlettet(ctx, skjemaID, vedleggID)
	return nil
}

func (s *VedleggService) eidUtkast(ctx context.Context, skjemaID, eier string) (*domain.Skjema, error) {
	skjema, err := s.skjemaRepo.GetByID(ctx, skjemaID)
	if err != nil {
		return nil, err
	}
	if skjema.Eier != eier {
		return nil, errors.Forbidden("not the owner of this skjema")
	}
	if !skjema.ErUtkast() {
		return nil, errors.ConflictWithKey("skjema.innsending.ikke_utkast")
	}
	return skjema, nil
}
