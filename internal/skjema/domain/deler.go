package domain

import "time"

// ArbeidsgiversDel is the employer's part of the A1 application.
type ArbeidsgiversDel struct {
	ArbeidsgiverenINorge *ArbeidsgiverenINorge `json:"arbeidsgiverenINorge,omitempty"`
	Loenn                *LoennOgGodtgjoersel  `json:"loenn,omitempty"`
	Utsendingsperiode    *Periode              `json:"utsendingsperiode,omitempty"`
}

// ArbeidstakersDel is the employee's part of the A1 application.
type ArbeidstakersDel struct {
	Arbeidssituasjon     *Arbeidssituasjon     `json:"arbeidssituasjon,omitempty"`
	SkattOgInntekt       *SkattOgInntekt       `json:"skattOgInntekt,omitempty"`
	Tilleggsopplysninger *Tilleggsopplysninger `json:"tilleggsopplysninger,omitempty"`
	Utsendingsperiode    *Periode              `json:"utsendingsperiode,omitempty"`
}

// ArbeidsgiverenINorge describes the Norwegian employer. The two follow-up
// flags are only meaningful for private-sector employers and must stay
// unset for public-sector ones.
type ArbeidsgiverenINorge struct {
	OffentligVirksomhet      bool  `json:"offentligVirksomhet"`
	Bemanningsforetak        *bool `json:"bemanningsforetak,omitempty"`
	OpprettholderVanligDrift *bool `json:"opprettholderVanligDrift,omitempty"`
}

// LoennOgGodtgjoersel covers who pays salary and benefits during the
// posting. Exactly one of ArbeidsgiverBetalerAlt / a non-nil Utbetalere
// must hold.
type LoennOgGodtgjoersel struct {
	ArbeidsgiverBetalerAlt bool        `json:"arbeidsgiverBetalerAlt"`
	Utbetalere             *Utbetalere `json:"utbetalere,omitempty"`
}

// Utbetalere lists the other payers of salary or benefits.
type Utbetalere struct {
	NorskeUtbetalere      []NorskUtbetaler      `json:"norskeUtbetalere,omitempty"`
	UtenlandskeUtbetalere []UtenlandskUtbetaler `json:"utenlandskeUtbetalere,omitempty"`
}

// NorskUtbetaler is a Norwegian payer identified by organisation number.
type NorskUtbetaler struct {
	Navn                string `json:"navn"`
	Organisasjonsnummer string `json:"organisasjonsnummer"`
}

// UtenlandskUtbetaler is a foreign payer.
type UtenlandskUtbetaler struct {
	Navn string `json:"navn"`
	Land string `json:"land"`
}

// Arbeidssituasjon describes the employee's work situation before and
// during the posting.
type Arbeidssituasjon struct {
	HarVaertILoennetArbeid          bool                   `json:"harVaertILoennetArbeid"`
	AktivitetFoerUtsending          *string                `json:"aktivitetFoerUtsending,omitempty"`
	SkalArbeideForFlereVirksomheter bool                   `json:"skalArbeideForFlereVirksomheter"`
	NorskeVirksomheter              []NorskVirksomhet      `json:"norskeVirksomheter,omitempty"`
	UtenlandskeVirksomheter         []UtenlandskVirksomhet `json:"utenlandskeVirksomheter,omitempty"`
}

// NorskVirksomhet is a Norwegian undertaking the employee will work for.
type NorskVirksomhet struct {
	Navn                string `json:"navn"`
	Organisasjonsnummer string `json:"organisasjonsnummer"`
}

// UtenlandskVirksomhet is a foreign undertaking the employee will work for.
type UtenlandskVirksomhet struct {
	Navn string `json:"navn"`
	Land string `json:"land"`
}

// SkattOgInntekt covers tax and income questions, notably benefit payments
// from other EEA countries or Switzerland.
type SkattOgInntekt struct {
	MottarYtelserFraAnnetEOSLand bool    `json:"mottarYtelserFraAnnetEoesLand"`
	YtelseLand                   *string `json:"ytelseLand,omitempty"`
	YtelseBeloep                 *string `json:"ytelseBeloep,omitempty"`
	YtelseBeskrivelse            *string `json:"ytelseBeskrivelse,omitempty"`
}

// Tilleggsopplysninger is the free-text additional information section.
type Tilleggsopplysninger struct {
	HarTilleggsopplysninger bool    `json:"harTilleggsopplysninger"`
	Tilleggsopplysninger    *string `json:"tilleggsopplysninger,omitempty"`
}

// Periode is a date range. Invariant: FraDato <= TilDato.
type Periode struct {
	FraDato time.Time `json:"fraDato"`
	TilDato time.Time `json:"tilDato"`
}
