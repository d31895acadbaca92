package validation_test

import (
	"testing"

	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/internal/skjema/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValiderTilleggsopplysninger(t *testing.T) {
	tests := []struct {
		name       string
		del        *domain.Tilleggsopplysninger
		wantAarsak string
	}{
		{
			name: "nil section is valid",
			del:  nil,
		},
		{
			name:       "has opplysninger but text is nil",
			del:        &domain.Tilleggsopplysninger{HarTilleggsopplysninger: true},
			wantAarsak: domain.AarsakFeltPaakrevd,
		},
		{
			name:       "has opplysninger but text is empty",
			del:        &domain.Tilleggsopplysninger{HarTilleggsopplysninger: true, Tilleggsopplysninger: strPtr("")},
			wantAarsak: domain.AarsakFeltPaakrevd,
		},
		{
			name:       "has opplysninger but text is whitespace",
			del:        &domain.Tilleggsopplysninger{HarTilleggsopplysninger: true, Tilleggsopplysninger: strPtr("   ")},
			wantAarsak: domain.AarsakFeltPaakrevd,
		},
		{
			name: "has opplysninger with text is valid",
			del:  &domain.Tilleggsopplysninger{HarTilleggsopplysninger: true, Tilleggsopplysninger: strPtr("Noen tilleggsopplysninger")},
		},
		{
			name: "no opplysninger and nil text is valid",
			del:  &domain.Tilleggsopplysninger{HarTilleggsopplysninger: false},
		},
		{
			name:       "no opplysninger but text set",
			del:        &domain.Tilleggsopplysninger{HarTilleggsopplysninger: false, Tilleggsopplysninger: strPtr("Noen opplysninger")},
			wantAarsak: domain.AarsakFeltSkalIkkeSettes,
		},
		{
			// A blank string still counts as "set" in the no-branch
			name:       "no opplysninger but text is empty string",
			del:        &domain.Tilleggsopplysninger{HarTilleggsopplysninger: false, Tilleggsopplysninger: strPtr("")},
			wantAarsak: domain.AarsakFeltSkalIkkeSettes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := validation.ValiderTilleggsopplysninger(tt.del)

			if tt.wantAarsak == "" {
				assert.Empty(t, violations)
				return
			}

			require.Len(t, violations, 1)
			assert.Equal(t, "tilleggsopplysninger", violations[0].Felt)
			assert.Equal(t, tt.wantAarsak, violations[0].Aarsak)
		})
	}
}

func TestValiderSkattOgInntekt(t *testing.T) {
	tests := []struct {
		name     string
		del      *domain.SkattOgInntekt
		wantFelt string
	}{
		{
			name: "nil section is valid",
			del:  nil,
		},
		{
			name: "no benefit needs no follow-ups",
			del:  &domain.SkattOgInntekt{MottarYtelserFraAnnetEOSLand: false},
		},
		{
			name:     "benefit without land reports land first",
			del:      &domain.SkattOgInntekt{MottarYtelserFraAnnetEOSLand: true},
			wantFelt: "ytelseLand",
		},
		{
			name: "benefit without beloep",
			del: &domain.SkattOgInntekt{
				MottarYtelserFraAnnetEOSLand: true,
				YtelseLand:                   strPtr("Sverige"),
			},
			wantFelt: "ytelseBeloep",
		},
		{
			name: "benefit without beskrivelse",
			del: &domain.SkattOgInntekt{
				MottarYtelserFraAnnetEOSLand: true,
				YtelseLand:                   strPtr("Sverige"),
				YtelseBeloep:                 strPtr("1000 SEK"),
			},
			wantFelt: "ytelseBeskrivelse",
		},
		{
			name: "benefit with all follow-ups is valid",
			del: &domain.SkattOgInntekt{
				MottarYtelserFraAnnetEOSLand: true,
				YtelseLand:                   strPtr("Sverige"),
				YtelseBeloep:                 strPtr("1000 SEK"),
				YtelseBeskrivelse:            strPtr("Foreldrepenger"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := validation.ValiderSkattOgInntekt(tt.del)

			if tt.wantFelt == "" {
				assert.Empty(t, violations)
				return
			}

			require.Len(t, violations, 1)
			assert.Equal(t, tt.wantFelt, violations[0].Felt)
			assert.Equal(t, domain.AarsakFeltPaakrevd, violations[0].Aarsak)
		})
	}
}

func TestValiderArbeidssituasjon(t *testing.T) {
	t.Run("nil section is valid", func(t *testing.T) {
		assert.Empty(t, validation.ValiderArbeidssituasjon(nil))
	})

	t.Run("no prior paid work requires aktivitet", func(t *testing.T) {
		del := &domain.Arbeidssituasjon{HarVaertILoennetArbeid: false}

		violations := validation.ValiderArbeidssituasjon(del)
		require.Len(t, violations, 1)
		assert.Equal(t, "aktivitetFoerUtsending", violations[0].Felt)
		assert.Equal(t, domain.AarsakFeltPaakrevd, violations[0].Aarsak)
	})

	t.Run("blank aktivitet counts as missing", func(t *testing.T) {
		del := &domain.Arbeidssituasjon{
			HarVaertILoennetArbeid: false,
			AktivitetFoerUtsending: strPtr("  "),
		}

		violations := validation.ValiderArbeidssituasjon(del)
		require.Len(t, violations, 1)
	})

	t.Run("multiple undertakings require a list", func(t *testing.T) {
		del := &domain.Arbeidssituasjon{
			HarVaertILoennetArbeid:          true,
			SkalArbeideForFlereVirksomheter: true,
		}

		violations := validation.ValiderArbeidssituasjon(del)
		require.Len(t, violations, 1)
		assert.Equal(t, "virksomheter", violations[0].Felt)
		assert.Equal(t, domain.AarsakVirksomheterPaakrevd, violations[0].Aarsak)
	})

	t.Run("norwegian undertaking list satisfies the rule", func(t *testing.T) {
		del := &domain.Arbeidssituasjon{
			HarVaertILoennetArbeid:          true,
			SkalArbeideForFlereVirksomheter: true,
			NorskeVirksomheter: []domain.NorskVirksomhet{
				{Navn: "Virksomhet AS", Organisasjonsnummer: "990983666"},
			},
		}

		assert.Empty(t, validation.ValiderArbeidssituasjon(del))
	})

	t.Run("foreign undertaking list satisfies the rule", func(t *testing.T) {
		del := &domain.Arbeidssituasjon{
			HarVaertILoennetArbeid:          true,
			SkalArbeideForFlereVirksomheter: true,
			UtenlandskeVirksomheter: []domain.UtenlandskVirksomhet{
				{Navn: "Utland GmbH", Land: "DE"},
			},
		}

		assert.Empty(t, validation.ValiderArbeidssituasjon(del))
	})

	t.Run("prior work and single undertaking is valid", func(t *testing.T) {
		del := &domain.Arbeidssituasjon{HarVaertILoennetArbeid: true}

		assert.Empty(t, validation.ValiderArbeidssituasjon(del))
	})
}
