package events

import (
	"context"
	"time"

	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/pkg/logger"
	"github.com/melosys/skjema-api/pkg/messaging"
)

// EventPublisher is the messaging surface the services depend on.
// Satisfied by messaging.Publisher and by test doubles.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// SkjemaEventPublisher publishes skjema lifecycle events
type SkjemaEventPublisher struct {
	publisher EventPublisher
	logger    *logger.Logger
}

// NewSkjemaEventPublisher creates a publisher bound to the skjema exchange
func NewSkjemaEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*SkjemaEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeSkjemaEvents, "skjema-api", log)
	if err != nil {
		return nil, err
	}

	return &SkjemaEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// NewSkjemaEventPublisherWith wraps an existing publisher. Used by tests.
func NewSkjemaEventPublisherWith(publisher EventPublisher, log *logger.Logger) *SkjemaEventPublisher {
	return &SkjemaEventPublisher{publisher: publisher, logger: log}
}

// PublishInnsendingMottatt hands a journaled submission over to case
// processing. The error is returned because a failed publish drives the
// submission into MELDING_FEILET.
func (p *SkjemaEventPublisher) PublishInnsendingMottatt(ctx context.Context, skjema *domain.Skjema, journalpostID string) error {
	innsendtTid := ""
	if skjema.InnsendtAt != nil {
		innsendtTid = skjema.InnsendtAt.UTC().Format(time.RFC3339)
	}

	data := messaging.InnsendingMottattEvent{
		SkjemaID:      skjema.ID,
		Skjematype:    string(skjema.Skjematype),
		Eier:          skjema.Eier,
		JournalpostID: journalpostID,
		InnsendtTid:   innsendtTid,
	}

	return p.publisher.Publish(ctx, messaging.EventInnsendingMottatt, data)
}

// PublishInnsendingFerdig announces the terminal success state
func (p *SkjemaEventPublisher) PublishInnsendingFerdig(ctx context.Context, skjema *domain.Skjema, journalpostID string) {
	data := messaging.InnsendingFerdigEvent{
		SkjemaID:      skjema.ID,
		JournalpostID: journalpostID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventInnsendingFerdig, data); err != nil {
		p.logger.Error().Err(err).Str("skjema_id", skjema.ID).Msg("failed to publish innsending ferdig event")
	}
}

// PublishInnsendingFeilet announces a failed processing attempt
func (p *SkjemaEventPublisher) PublishInnsendingFeilet(ctx context.Context, skjemaID string, status domain.InnsendingStatus, feil string, forsoek int) {
	data := messaging.InnsendingFeiletEvent{
		SkjemaID: skjemaID,
		Status:   string(status),
		Feil:     feil,
		Forsoek:  forsoek,
	}

	if err := p.publisher.Publish(ctx, messaging.EventInnsendingFeilet, data); err != nil {
		p.logger.Error().Err(err).Str("skjema_id", skjemaID).Msg("failed to publish innsending feilet event")
	}
}

// PublishVedleggLastetOpp announces a stored attachment
func (p *SkjemaEventPublisher) PublishVedleggLastetOpp(ctx context.Context, vedlegg *domain.Vedlegg) {
	data := messaging.VedleggLastetOppEvent{
		SkjemaID:   vedlegg.SkjemaID,
		VedleggID:  vedlegg.ID,
		Filnavn:    vedlegg.Filnavn,
		Stoerrelse: vedlegg.Stoerrelse,
	}

	if err := p.publisher.Publish(ctx, messaging.EventVedleggLastetOpp, data); err != nil {
		p.logger.Error().Err(err).Str("vedlegg_id", vedlegg.ID).Msg("failed to publish vedlegg lastet opp event")
	}
}

// PublishVedleggSlettet announces a removed attachment
func (p *SkjemaEventPublisher) PublishVedleggSlettet(ctx context.Context, skjemaID, vedleggID string) {
	data := messaging.VedleggSlettetEvent{
		SkjemaID:  skjemaID,
		VedleggID: vedleggID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventVedleggSlettet, data); err != nil {
		p.logger.Error().Err(err).Str("vedlegg_id", vedleggID).Msg("failed to publish vedlegg slettet event")
	}
}
