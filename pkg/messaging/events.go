package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Innsending lifecycle
	EventInnsendingMottatt = "skjema.innsending.mottatt"
	EventInnsendingFerdig  = "skjema.innsending.ferdig"
	EventInnsendingFeilet  = "skjema.innsending.feilet"

	// Vedlegg lifecycle
	EventVedleggLastetOpp = "skjema.vedlegg.lastet_opp"
	EventVedleggSlettet   = "skjema.vedlegg.slettet"
)

// Exchange names
const (
	ExchangeSkjemaEvents = "skjema.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// InnsendingMottattEvent is published when a submitted form has been
// journaled and is handed over to case processing.
type InnsendingMottattEvent struct {
	SkjemaID      string `json:"skjema_id"`
	Skjematype    string `json:"skjematype"`
	Eier          string `json:"eier"`
	JournalpostID string `json:"journalpost_id"`
	InnsendtTid   string `json:"innsendt_tidspunkt"`
}

// InnsendingFerdigEvent is published when the submission pipeline reaches
// its terminal success state.
type InnsendingFerdigEvent struct {
	SkjemaID      string `json:"skjema_id"`
	JournalpostID string `json:"journalpost_id"`
}

// InnsendingFeiletEvent is published when a processing attempt fails.
type InnsendingFeiletEvent struct {
	SkjemaID string `json:"skjema_id"`
	Status   string `json:"status"`
	Feil     string `json:"feil"`
	Forsoek  int    `json:"forsoek"`
}

// VedleggLastetOppEvent is published when an attachment passes the virus
// scan and is stored.
type VedleggLastetOppEvent struct {
	SkjemaID   string `json:"skjema_id"`
	VedleggID  string `json:"vedlegg_id"`
	Filnavn    string `json:"filnavn"`
	Stoerrelse int64  `json:"stoerrelse"`
}

// VedleggSlettetEvent is published when an attachment is removed.
type VedleggSlettetEvent struct {
	SkjemaID  string `json:"skjema_id"`
	VedleggID string `json:"vedlegg_id"`
}
