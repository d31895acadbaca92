// Package validation holds the cross-field rules for the A1 form parts.
// Every rule is an explicit function from a section to a violation list;
// nil sections are always valid (presence is enforced by the request DTO
// contract, not here). Rules short-circuit on the first violation within
// a section.
package validation

import (
	"context"

	"github.com/melosys/skjema-api/internal/skjema/domain"
)

// OrganisasjonRegister answers whether an organisation number exists in
// Enhetsregisteret.
type OrganisasjonRegister interface {
	Finnes(ctx context.Context, organisasjonsnummer string) (bool, error)
}

// mod11Vekter are the weights applied to the first eight digits of an
// organisation number.
var mod11Vekter = [8]int{3, 2, 7, 6, 5, 4, 3, 2}

// ErGyldigOrganisasjonsnummer checks format (exactly 9 ASCII digits) and
// the MOD-11 check digit. It does not consult the register.
func ErGyldigOrganisasjonsnummer(orgnr string) bool {
	if len(orgnr) != 9 {
		return false
	}
	for _, c := range orgnr {
		if c < '0' || c > '9' {
			return false
		}
	}

	sum := 0
	for i := 0; i < 8; i++ {
		sum += int(orgnr[i]-'0') * mod11Vekter[i]
	}

	kontroll := 11 - sum%11
	switch kontroll {
	case 10:
		// A remainder of 1 has no valid check digit
		return false
	case 11:
		kontroll = 0
	}

	return int(orgnr[8]-'0') == kontroll
}

// OrganisasjonsnummerValidator validates organisation numbers: format and
// checksum first, then existence in the register. Non-existence is a
// different violation than a malformed number.
type OrganisasjonsnummerValidator struct {
	register OrganisasjonRegister
}

// NewOrganisasjonsnummerValidator creates a validator backed by the given register
func NewOrganisasjonsnummerValidator(register OrganisasjonRegister) *OrganisasjonsnummerValidator {
	return &OrganisasjonsnummerValidator{register: register}
}

// Valider checks the organisation number in felt. The register is only
// consulted once format and checksum pass. A register lookup failure is
// returned as an error, not a violation.
func (v *OrganisasjonsnummerValidator) Valider(ctx context.Context, felt, orgnr string) ([]domain.Violation, error) {
	if !ErGyldigOrganisasjonsnummer(orgnr) {
		return []domain.Violation{domain.NewViolation(felt, domain.AarsakOrgnrUgyldig)}, nil
	}

	finnes, err := v.register.Finnes(ctx, orgnr)
	if err != nil {
		return nil, err
	}
	if !finnes {
		return []domain.Violation{domain.NewViolation(felt, domain.AarsakOrgnrFinnesIkke)}, nil
	}

	return nil, nil
}
