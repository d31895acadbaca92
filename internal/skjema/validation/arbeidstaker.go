package validation

import (
	"strings"

	"github.com/melosys/skjema-api/internal/skjema/domain"
)

// ValiderArbeidssituasjon enforces the work-situation follow-ups: an
// employee without prior paid employment must describe their activity
// before the posting, and one working for several undertakings must list
// at least one Norwegian or foreign undertaking.
func ValiderArbeidssituasjon(del *domain.Arbeidssituasjon) []domain.Violation {
	if del == nil {
		return nil
	}

	if !del.HarVaertILoennetArbeid && erBlank(del.AktivitetFoerUtsending) {
		return []domain.Violation{domain.NewViolation("aktivitetFoerUtsending", domain.AarsakFeltPaakrevd)}
	}

	if del.SkalArbeideForFlereVirksomheter &&
		len(del.NorskeVirksomheter) == 0 && len(del.UtenlandskeVirksomheter) == 0 {
		return []domain.Violation{domain.NewViolation("virksomheter", domain.AarsakVirksomheterPaakrevd)}
	}

	return nil
}

// ValiderSkattOgInntekt enforces the EEA-benefit follow-ups: when the
// employee receives a benefit from another EEA country or Switzerland, the
// paying country, amount and description must all be filled in. The first
// missing field is reported.
func ValiderSkattOgInntekt(del *domain.SkattOgInntekt) []domain.Violation {
	if del == nil {
		return nil
	}

	if !del.MottarYtelserFraAnnetEOSLand {
		return nil
	}

	if erBlank(del.YtelseLand) {
		return []domain.Violation{domain.NewViolation("ytelseLand", domain.AarsakFeltPaakrevd)}
	}
	if erBlank(del.YtelseBeloep) {
		return []domain.Violation{domain.NewViolation("ytelseBeloep", domain.AarsakFeltPaakrevd)}
	}
	if erBlank(del.YtelseBeskrivelse) {
		return []domain.Violation{domain.NewViolation("ytelseBeskrivelse", domain.AarsakFeltPaakrevd)}
	}

	return nil
}

// ValiderTilleggsopplysninger enforces that the free-text field follows
// the yes/no answer: required (non-blank) on yes, absent on no. A blank
// but non-nil value counts as set.
func ValiderTilleggsopplysninger(del *domain.Tilleggsopplysninger) []domain.Violation {
	if del == nil {
		return nil
	}

	if del.HarTilleggsopplysninger {
		if erBlank(del.Tilleggsopplysninger) {
			return []domain.Violation{domain.NewViolation("tilleggsopplysninger", domain.AarsakFeltPaakrevd)}
		}
		return nil
	}

	if del.Tilleggsopplysninger != nil {
		return []domain.Violation{domain.NewViolation("tilleggsopplysninger", domain.AarsakFeltSkalIkkeSettes)}
	}

	return nil
}

// erBlank reports whether a string pointer is nil, empty or whitespace only.
func erBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
