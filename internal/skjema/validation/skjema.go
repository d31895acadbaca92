package validation

import (
	"context"

	"github.com/melosys/skjema-api/internal/skjema/domain"
)

// SkjemaValidator runs the full rule set for a form part at submit time.
// Sections are validated independently; each section contributes at most
// one violation, and violations from all sections are collected.
type SkjemaValidator struct {
	orgnr *OrganisasjonsnummerValidator
}

// NewSkjemaValidator creates a validator backed by the given register
func NewSkjemaValidator(register OrganisasjonRegister) *SkjemaValidator {
	return &SkjemaValidator{orgnr: NewOrganisasjonsnummerValidator(register)}
}

// Valider validates the typed payload of a form. The switch over the union
// is exhaustive; an empty union yields no violations.
func (v *SkjemaValidator) Valider(ctx context.Context, del *domain.SkjemaDel) ([]domain.Violation, error) {
	switch {
	case del == nil:
		return nil, nil
	case del.Arbeidsgiver != nil:
		return v.validerArbeidsgiversDel(ctx, del.Arbeidsgiver)
	case del.Arbeidstaker != nil:
		return v.validerArbeidstakersDel(del.Arbeidstaker), nil
	default:
		return nil, nil
	}
}

func (v *SkjemaValidator) validerArbeidsgiversDel(ctx context.Context, del *domain.ArbeidsgiversDel) ([]domain.Violation, error) {
	var violations []domain.Violation

	violations = append(violations, ValiderArbeidsgiverenINorge(del.ArbeidsgiverenINorge)...)

	loennViolations, err := ValiderLoenn(ctx, v.orgnr, del.Loenn)
	if err != nil {
		return nil, err
	}
	violations = append(violations, loennViolations...)

	violations = append(violations, ValiderPeriode("utsendingsperiode", del.Utsendingsperiode)...)

	return violations, nil
}

func (v *SkjemaValidator) validerArbeidstakersDel(del *domain.ArbeidstakersDel) []domain.Violation {
	var violations []domain.Violation

	violations = append(violations, ValiderArbeidssituasjon(del.Arbeidssituasjon)...)
	violations = append(violations, ValiderSkattOgInntekt(del.SkattOgInntekt)...)
	violations = append(violations, ValiderTilleggsopplysninger(del.Tilleggsopplysninger)...)
	violations = append(violations, ValiderPeriode("utsendingsperiode", del.Utsendingsperiode)...)

	return violations
}
