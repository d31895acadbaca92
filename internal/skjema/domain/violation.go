package domain

// Violation is one field-level validation failure. Felt is the field path
// within the section ("" means the whole object) and Aarsak is a message
// catalog key, never prose.
type Violation struct {
	Felt   string `json:"felt"`
	Aarsak string `json:"aarsak"`
}

// Message catalog keys for violation reasons.
const (
	AarsakFeltPaakrevd          = "skjema.validering.felt.paakrevd"
	AarsakFeltSkalIkkeSettes    = "skjema.validering.felt.skal_ikke_settes"
	AarsakOrgnrUgyldig          = "skjema.validering.organisasjonsnummer.ugyldig"
	AarsakOrgnrFinnesIkke       = "skjema.validering.organisasjonsnummer.finnes_ikke"
	AarsakPeriodeFomEtterTom    = "skjema.validering.periode.fom_etter_tom"
	AarsakLoennUtbetalere       = "skjema.validering.loenn.utbetalere"
	AarsakVirksomheterPaakrevd  = "skjema.validering.virksomheter.paakrevd"
)

// NewViolation builds a violation for the given field and reason key.
func NewViolation(felt, aarsak string) Violation {
	return Violation{Felt: felt, Aarsak: aarsak}
}
