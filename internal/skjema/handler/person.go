package handler

import (
	"net/http"

	"github.com/melosys/skjema-api/internal/registry"
	"github.com/melosys/skjema-api/internal/skjema/validation"
	"github.com/melosys/skjema-api/pkg/errors"
	"github.com/melosys/skjema-api/pkg/httputil"
	"github.com/melosys/skjema-api/pkg/logger"
)

// OppslagHandler handles registry lookup endpoints: person verification
// against PDL and organization number validation against EREG
type OppslagHandler struct {
	pdl    *registry.PdlClient
	ereg   *registry.EregClient
	logger *logger.Logger
}

// NewOppslagHandler creates a new lookup handler
func NewOppslagHandler(pdl *registry.PdlClient, ereg *registry.EregClient, log *logger.Logger) *OppslagHandler {
	return &OppslagHandler{
		pdl:    pdl,
		ereg:   ereg,
		logger: log,
	}
}

// VerifiserPersonRequest is the request structure for person verification
type VerifiserPersonRequest struct {
	Foedselsnummer string `json:"foedselsnummer" validate:"required,len=11,numeric"`
}

// VerifiserPersonResponse reports whether the person is known and, when
// found, the registered name and birth date for prefill
type VerifiserPersonResponse struct {
	Funnet bool             `json:"funnet"`
	Person *registry.Person `json:"person,omitempty"`
}

// VerifiserPerson checks the national identity number against PDL
func (h *OppslagHandler) VerifiserPerson(w http.ResponseWriter, r *http.Request) {
	var req VerifiserPersonRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	person, err := h.pdl.HentPerson(r.Context(), req.Foedselsnummer)
	if err != nil {
		h.logger.WithError(err).Error().Msg("pdl lookup failed")
		httputil.ErrorLocalized(w, r, errors.Internal("person lookup unavailable"))
		return
	}

	httputil.JSON(w, http.StatusOK, &VerifiserPersonResponse{
		Funnet: person != nil,
		Person: person,
	})
}

// ValiderOrganisasjonsnummerRequest is the request structure for the
// organization number endpoint
type ValiderOrganisasjonsnummerRequest struct {
	Organisasjonsnummer string `json:"organisasjonsnummer" validate:"required"`
}

// ValiderOrganisasjonsnummerResponse reports the MOD-11 verdict and, for
// well-formed numbers, whether the unit is registered in EREG
type ValiderOrganisasjonsnummerResponse struct {
	Gyldig     bool `json:"gyldig"`
	Registrert bool `json:"registrert"`
}

// ValiderOrganisasjonsnummer checks an organization number syntactically
// and, when the checksum holds, against the register. A register outage
// fails the request rather than guessing a verdict.
func (h *OppslagHandler) ValiderOrganisasjonsnummer(w http.ResponseWriter, r *http.Request) {
	var req ValiderOrganisasjonsnummerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	resp := &ValiderOrganisasjonsnummerResponse{}
	if validation.ErGyldigOrganisasjonsnummer(req.Organisasjonsnummer) {
		resp.Gyldig = true

		registrert, err := h.ereg.Finnes(r.Context(), req.Organisasjonsnummer)
		if err != nil {
			h.logger.WithError(err).Error().Msg("ereg lookup failed")
			httputil.ErrorLocalized(w, r, errors.Internal("organization register unavailable"))
			return
		}
		resp.Registrert = registrert
	}

	httputil.JSON(w, http.StatusOK, resp)
}
