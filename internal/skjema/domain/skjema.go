package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Skjematype identifies which part of the A1 application a form holds.
type Skjematype string

const (
	SkjematypeArbeidsgiversDel Skjematype = "ARBEIDSGIVERS_DEL"
	SkjematypeArbeidstakersDel Skjematype = "ARBEIDSTAKERS_DEL"
)

// SkjemaStatus is the overall lifecycle status of a form.
type SkjemaStatus string

const (
	SkjemaStatusUtkast   SkjemaStatus = "UTKAST"
	SkjemaStatusSendtInn SkjemaStatus = "SENDT_INN"
)

// InnsendingStatus tracks the asynchronous post-submission pipeline.
// Success path: MOTTATT -> JOURNALFORT -> FERDIG. The two failure statuses
// are retryable; FERDIG is terminal.
type InnsendingStatus string

const (
	InnsendingStatusMottatt             InnsendingStatus = "MOTTATT"
	InnsendingStatusJournalfort         InnsendingStatus = "JOURNALFORT"
	InnsendingStatusFerdig              InnsendingStatus = "FERDIG"
	InnsendingStatusJournalforingFeilet InnsendingStatus = "JOURNALFORING_FEILET"
	InnsendingStatusMeldingFeilet       InnsendingStatus = "MELDING_FEILET"
)

// Retryable reports whether the scheduler should pick the status up again.
func (s InnsendingStatus) Retryable() bool {
	return s == InnsendingStatusJournalforingFeilet || s == InnsendingStatusMeldingFeilet
}

// Skjema is one A1 form instance. The payload is a tagged union keyed by
// Skjematype; use DecodeDel for the typed view.
type Skjema struct {
	ID         string          `db:"id" json:"id"`
	Skjematype Skjematype      `db:"skjematype" json:"skjematype"`
	Eier       string          `db:"eier" json:"eier"` // fnr or orgnr
	Status     SkjemaStatus    `db:"status" json:"status"`
	Data       json.RawMessage `db:"data" json:"data"`

	// Innsending metadata, only meaningful once Status is SENDT_INN
	InnsendingStatus *InnsendingStatus `db:"innsending_status" json:"innsending_status,omitempty"`
	JournalpostID    *string           `db:"journalpost_id" json:"journalpost_id,omitempty"`
	KorrelasjonsID   *string           `db:"korrelasjons_id" json:"korrelasjons_id,omitempty"`
	SisteFeil        *string           `db:"siste_feil" json:"siste_feil,omitempty"`
	Forsoek          int               `db:"forsoek" json:"forsoek"`
	SistForsoekt     *time.Time        `db:"sist_forsoekt" json:"sist_forsoekt,omitempty"`
	InnsendtAt       *time.Time        `db:"innsendt_at" json:"innsendt_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SkjemaDel is the typed view of the payload union. Exactly one field is
// non-nil, matching the Skjematype tag.
type SkjemaDel struct {
	Arbeidsgiver *ArbeidsgiversDel
	Arbeidstaker *ArbeidstakersDel
}

// DecodeDel decodes the raw payload into the variant named by the form's
// Skjematype. This is the single translation boundary between the stored
// form and the typed payload; the switch is exhaustive over Skjematype.
func (s *Skjema) DecodeDel() (*SkjemaDel, error) {
	if len(s.Data) == 0 {
		return &SkjemaDel{}, nil
	}

	switch s.Skjematype {
	case SkjematypeArbeidsgiversDel:
		var del ArbeidsgiversDel
		if err := json.Unmarshal(s.Data, &del); err != nil {
			return nil, fmt.Errorf("decode arbeidsgivers del: %w", err)
		}
		return &SkjemaDel{Arbeidsgiver: &del}, nil

	case SkjematypeArbeidstakersDel:
		var del ArbeidstakersDel
		if err := json.Unmarshal(s.Data, &del); err != nil {
			return nil, fmt.Errorf("decode arbeidstakers del: %w", err)
		}
		return &SkjemaDel{Arbeidstaker: &del}, nil

	default:
		return nil, fmt.Errorf("unknown skjematype %q", s.Skjematype)
	}
}

// ErUtkast reports whether the form is still mutable.
func (s *Skjema) ErUtkast() bool {
	return s.Status == SkjemaStatusUtkast
}
