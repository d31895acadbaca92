package validation

import (
	"context"
	"fmt"

	"github.com/melosys/skjema-api/internal/skjema/domain"
)

// ValiderArbeidsgiverenINorge enforces the public-sector follow-up rule:
// a public-sector employer must leave both follow-up flags unset, a
// private-sector one must answer both. Bemanningsforetak is checked before
// OpprettholderVanligDrift; the first violation wins.
func ValiderArbeidsgiverenINorge(del *domain.ArbeidsgiverenINorge) []domain.Violation {
	if del == nil {
		return nil
	}

	if del.OffentligVirksomhet {
		if del.Bemanningsforetak != nil {
			return []domain.Violation{domain.NewViolation("bemanningsforetak", domain.AarsakFeltSkalIkkeSettes)}
		}
		if del.OpprettholderVanligDrift != nil {
			return []domain.Violation{domain.NewViolation("opprettholderVanligDrift", domain.AarsakFeltSkalIkkeSettes)}
		}
		return nil
	}

	if del.Bemanningsforetak == nil {
		return []domain.Violation{domain.NewViolation("bemanningsforetak", domain.AarsakFeltPaakrevd)}
	}
	if del.OpprettholderVanligDrift == nil {
		return []domain.Violation{domain.NewViolation("opprettholderVanligDrift", domain.AarsakFeltPaakrevd)}
	}

	return nil
}

// ValiderLoenn enforces that exactly one of "employer pays everything" and
// "other payers listed" holds, and checks each Norwegian payer's
// organisation number. The first violation from any payer is returned.
func ValiderLoenn(ctx context.Context, orgValidator *OrganisasjonsnummerValidator, del *domain.LoennOgGodtgjoersel) ([]domain.Violation, error) {
	if del == nil {
		return nil, nil
	}

	if del.ArbeidsgiverBetalerAlt == (del.Utbetalere != nil) {
		return []domain.Violation{domain.NewViolation("utbetalere", domain.AarsakLoennUtbetalere)}, nil
	}

	if del.Utbetalere != nil {
		for i, utbetaler := range del.Utbetalere.NorskeUtbetalere {
			felt := fmt.Sprintf("utbetalere.norskeUtbetalere[%d].organisasjonsnummer", i)
			violations, err := orgValidator.Valider(ctx, felt, utbetaler.Organisasjonsnummer)
			if err != nil {
				return nil, err
			}
			if len(violations) > 0 {
				return violations, nil
			}
		}
	}

	return nil, nil
}
