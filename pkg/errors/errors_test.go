package errors_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/melosys/skjema-api/pkg/errors"
	"github.com/melosys/skjema-api/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *errors.AppError
		wantCode   string
		wantStatus int
		wantIs     error
	}{
		{"not found", errors.NotFound("skjema"), "NOT_FOUND", http.StatusNotFound, errors.ErrNotFound},
		{"forbidden", errors.Forbidden("nope"), "FORBIDDEN", http.StatusForbidden, errors.ErrForbidden},
		{"conflict", errors.Conflict("taken"), "CONFLICT", http.StatusConflict, errors.ErrConflict},
		{"bad request", errors.BadRequest("bad"), "BAD_REQUEST", http.StatusBadRequest, errors.ErrBadRequest},
		{"internal", errors.Internal("boom"), "INTERNAL_ERROR", http.StatusInternalServerError, errors.ErrInternal},
		{"token expired", errors.TokenExpired(), "TOKEN_EXPIRED", http.StatusUnauthorized, errors.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.True(t, errors.Is(tt.err, tt.wantIs))
		})
	}
}

func TestAs(t *testing.T) {
	var err error = errors.ConflictWithKey("skjema.innsending.allerede_sendt")

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Equal(t, "skjema.innsending.allerede_sendt", appErr.MessageKey)
}

func TestLocalize(t *testing.T) {
	err := errors.ConflictWithKey("skjema.innsending.allerede_sendt")

	assert.Equal(t, "skjemaet er allerede sendt inn", err.Localize(context.Background()))

	enCtx := i18n.WithLocale(context.Background(), i18n.LocaleEnglish)
	assert.Equal(t, "the form has already been submitted", err.Localize(enCtx))
}

func TestLocalize_WithParams(t *testing.T) {
	err := errors.BadRequestWithKey("vedlegg.for_stor", map[string]string{"maks": "10 MB"})
	assert.Equal(t, "filen er større enn maksgrensen på 10 MB", err.Localize(context.Background()))
}

func TestWithDetails(t *testing.T) {
	err := errors.Validation(map[string]string{"utsendingsperiode": "fra-dato kan ikke være etter til-dato"})
	assert.Equal(t, "VALIDATION_ERROR", err.Code)
	assert.Contains(t, err.Details, "utsendingsperiode")

	withMore := errors.Internal("boom").WithDetails(map[string]string{"cause": "db"})
	assert.Equal(t, "db", withMore.Details["cause"])
}
