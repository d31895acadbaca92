package validation

import (
	"github.com/melosys/skjema-api/internal/skjema/domain"
)

// ValiderPeriode checks the date-range invariant: a period violates when
// its start date is strictly after its end date.
func ValiderPeriode(felt string, periode *domain.Periode) []domain.Violation {
	if periode == nil {
		return nil
	}

	if periode.FraDato.After(periode.TilDato) {
		return []domain.Violation{domain.NewViolation(felt, domain.AarsakPeriodeFomEtterTom)}
	}

	return nil
}
