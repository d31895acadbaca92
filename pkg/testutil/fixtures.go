package testutil

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/melosys/skjema-api/internal/skjema/domain"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// GyldigOrganisasjonsnummer is a structurally valid MOD-11 number used
// across tests.
const GyldigOrganisasjonsnummer = "990983666"

// GyldigFoedselsnummer is a syntactically plausible national identity
// number for test owners.
const GyldigFoedselsnummer = "12345678901"

// NyttUtkast returns a draft form owned by the given identity
func (f *FixtureFactory) NyttUtkast(eier string, skjematype domain.Skjematype) *domain.Skjema {
	f.sequence++
	return &domain.Skjema{
		ID:         uuid.New().String(),
		Skjematype: skjematype,
		Eier:       eier,
		Status:     domain.SkjemaStatusUtkast,
		Data:       json.RawMessage("{}"),
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
}

// NyttSendtInn returns a submitted form in the given innsending status
func (f *FixtureFactory) NyttSendtInn(eier string, status domain.InnsendingStatus) *domain.Skjema {
	skjema := f.NyttUtkast(eier, domain.SkjematypeArbeidsgiversDel)
	now := time.Now().UTC()
	korrelasjonsID := uuid.New().String()

	skjema.Status = domain.SkjemaStatusSendtInn
	skjema.InnsendingStatus = &status
	skjema.KorrelasjonsID = &korrelasjonsID
	skjema.InnsendtAt = &now
	return skjema
}

// GyldigArbeidsgiversDel returns an employer part that passes every
// validation rule.
func (f *FixtureFactory) GyldigArbeidsgiversDel() *domain.ArbeidsgiversDel {
	return &domain.ArbeidsgiversDel{
		ArbeidsgiverenINorge: &domain.ArbeidsgiverenINorge{
			OffentligVirksomhet: true,
		},
		Loenn: &domain.LoennOgGodtgjoersel{
			ArbeidsgiverBetalerAlt: true,
		},
		Utsendingsperiode: &domain.Periode{
			FraDato: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			TilDato: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		},
	}
}

// GyldigArbeidstakersDel returns a worker part that passes every
// validation rule.
func (f *FixtureFactory) GyldigArbeidstakersDel() *domain.ArbeidstakersDel {
	aktivitet := "Lønnet arbeid i Norge"
	return &domain.ArbeidstakersDel{
		Arbeidssituasjon: &domain.Arbeidssituasjon{
			HarVaertILoennetArbeid: true,
			AktivitetFoerUtsending: &aktivitet,
		},
		SkattOgInntekt: &domain.SkattOgInntekt{
			MottarYtelserFraAnnetEOSLand: false,
		},
		Tilleggsopplysninger: &domain.Tilleggsopplysninger{
			HarTilleggsopplysninger: false,
		},
		Utsendingsperiode: &domain.Periode{
			FraDato: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			TilDato: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		},
	}
}

// SkjemaData marshals a form part into the stored payload format
func (f *FixtureFactory) SkjemaData(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal fixture: %v", err))
	}
	return data
}

// NyttVedlegg returns attachment metadata for the given form
func (f *FixtureFactory) NyttVedlegg(skjemaID string) *domain.Vedlegg {
	f.sequence++
	return &domain.Vedlegg{
		ID:          uuid.New().String(),
		SkjemaID:    skjemaID,
		Filnavn:     fmt.Sprintf("vedlegg-%d.pdf", f.sequence),
		ContentType: "application/pdf",
		Stoerrelse:  2048,
		LagringRef:  uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
	}
}
