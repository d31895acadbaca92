package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/internal/skjema/validation"
	"github.com/melosys/skjema-api/pkg/errors"
	"github.com/melosys/skjema-api/pkg/i18n"
	"github.com/melosys/skjema-api/pkg/logger"
)

// SkjemaRepo is the persistence surface the form service needs
type SkjemaRepo interface {
	Create(ctx context.Context, skjema *domain.Skjema) error
	GetByID(ctx context.Context, id string) (*domain.Skjema, error)
	ListByEier(ctx context.Context, eier string) ([]*domain.Skjema, error)
	UpdateData(ctx context.Context, id string, data json.RawMessage) error
	SendInn(ctx context.Context, id, korrelasjonsID string) error
}

// Innsender runs the submission pipeline for a freshly submitted form
type Innsender interface {
	ProcessByID(ctx context.Context, skjemaID string) error
}

// SkjemaService handles form drafts and submission
type SkjemaService struct {
	repo       SkjemaRepo
	validator  *validation.SkjemaValidator
	innsending Innsender
	logger     *logger.Logger
}

// NewSkjemaService creates a new form service
func NewSkjemaService(repo SkjemaRepo, validator *validation.SkjemaValidator, innsending Innsender, log *logger.Logger) *SkjemaService {
	return &SkjemaService{
		repo:       repo,
		validator:  validator,
		innsending: innsending,
		logger:     log,
	}
}

// Opprett creates a new draft owned by the caller
func (s *SkjemaService) Opprett(ctx context.Context, eier string, skjematype domain.Skjematype, data json.RawMessage) (*domain.Skjema, error) {
	skjema := &domain.Skjema{
		Skjematype: skjematype,
		Eier:       eier,
		Status:     domain.SkjemaStatusUtkast,
		Data:       data,
	}

	// Reject payloads that do not decode as the declared part
	if _, err := skjema.DecodeDel(); err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	if err := s.repo.Create(ctx, skjema); err != nil {
		return nil, err
	}

	s.logger.WithSkjemaID(skjema.ID).Info().
		Str("skjematype", string(skjematype)).
		Msg("skjema opprettet")

	return skjema, nil
}

// Hent fetches a form the caller owns
func (s *SkjemaService) Hent(ctx context.Context, id, eier string) (*domain.Skjema, error) {
	skjema, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if skjema.Eier != eier {
		return nil, errors.Forbidden("not the owner of this skjema")
	}
	return skjema, nil
}

// HentForSaksbehandling fetches a form without an ownership check. Reserved
// for the machine-to-machine surface used by case processing.
func (s *SkjemaService) HentForSaksbehandling(ctx context.Context, id string) (*domain.Skjema, error) {
	return s.repo.GetByID(ctx, id)
}

// List lists the caller's forms
func (s *SkjemaService) List(ctx context.Context, eier string) ([]*domain.Skjema, error) {
	return s.repo.ListByEier(ctx, eier)
}

// Oppdater replaces a draft's payload
func (s *SkjemaService) Oppdater(ctx context.Context, id, eier string, data json.RawMessage) (*domain.Skjema, error) {
	skjema, err := s.Hent(ctx, id, eier)
	if err != nil {
		return nil, err
	}

	skjema.Data = data
	if _, err := skjema.DecodeDel(); err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	if err := s.repo.UpdateData(ctx, id, data); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// SendInn validates the draft and submits it. On success the submission
// pipeline runs in the background; its outcome is visible through the
// form's innsending status.
func (s *SkjemaService) SendInn(ctx context.Context, id, eier string) (*domain.Skjema, error) {
	skjema, err := s.Hent(ctx, id, eier)
	if err != nil {
		return nil, err
	}
	if !skjema.ErUtkast() {
		return nil, errors.ConflictWithKey("skjema.innsending.allerede_sendt")
	}

	del, err := skjema.DecodeDel()
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	violations, err := s.validator.Valider(ctx, del)
	if err != nil {
		return nil, errors.Internal("validation lookup failed").WithDetails(map[string]string{"cause": err.Error()})
	}
	if len(violations) > 0 {
		return nil, errors.Validation(localizeViolations(ctx, violations))
	}

	korrelasjonsID := uuid.New().String()
	if err := s.repo.SendInn(ctx, id, korrelasjonsID); err != nil {
		return nil, err
	}

	s.logger.WithSkjemaID(id).WithCorrelationID(korrelasjonsID).Info().Msg("skjema sendt inn")

	// Run the first processing attempt outside the request. Failures are
	// recorded on the form and picked up by the retry sweep.
	go func() {
		bgCtx := context.Background()
		if err := s.innsending.ProcessByID(bgCtx, id); err != nil {
			s.logger.Error().Err(err).Str("skjema_id", id).Msg("initial innsending attempt failed")
		}
	}()

	return s.repo.GetByID(ctx, id)
}

// localizeViolations maps rule violations to field-keyed localized messages
func localizeViolations(ctx context.Context, violations []domain.Violation) map[string]string {
	details := make(map[string]string, len(violations))
	for _, v := range violations {
		details[v.Felt] = i18n.TFromContext(ctx, v.Aarsak)
	}
	return details
}
