package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/melosys/skjema-api/internal/skjema/domain"
	"github.com/melosys/skjema-api/internal/skjema/service"
	"github.com/melosys/skjema-api/pkg/httputil"
	"github.com/melosys/skjema-api/pkg/logger"
)

// SkjemaHandler handles the form CRUD and submission endpoints
type SkjemaHandler struct {
	service *service.SkjemaService
	logger  *logger.Logger
}

// NewSkjemaHandler creates a new form handler
func NewSkjemaHandler(svc *service.SkjemaService, log *logger.Logger) *SkjemaHandler {
	return &SkjemaHandler{
		service: svc,
		logger:  log,
	}
}

// OpprettSkjemaRequest is the request structure for creating a draft
type OpprettSkjemaRequest struct {
	Skjematype string          `json:"skjematype" validate:"required,oneof=ARBEIDSGIVERS_DEL ARBEIDSTAKERS_DEL"`
	Data       json.RawMessage `json:"data"`
}

// OppdaterSkjemaRequest is the request structure for replacing draft data
type OppdaterSkjemaRequest struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

// Opprett creates a new draft owned by the authenticated user
func (h *SkjemaHandler) Opprett(w http.ResponseWriter, r *http.Request) {
	var req OpprettSkjemaRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	eier := httputil.GetSubject(r.Context())
	skjema, err := h.service.Opprett(r.Context(), eier, domain.Skjematype(req.Skjematype), req.Data)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	h.logger.WithSkjemaID(skjema.ID).Info().
		Str("skjematype", string(skjema.Skjematype)).
		Msg("skjema opprettet")

	httputil.Created(w, skjema)
}

// List lists the authenticated user's forms, newest first
func (h *SkjemaHandler) List(w http.ResponseWriter, r *http.Request) {
	eier := httputil.GetSubject(r.Context())

	skjemaer, err := h.service.List(r.Context(), eier)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, skjemaer)
}

// Hent gets one of the authenticated user's forms by ID
func (h *SkjemaHandler) Hent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	eier := httputil.GetSubject(r.Context())

	skjema, err := h.service.Hent(r.Context(), id, eier)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, skjema)
}

// Oppdater replaces the data of a draft
func (h *SkjemaHandler) Oppdater(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req OppdaterSkjemaRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	eier := httputil.GetSubject(r.Context())
	skjema, err := h.service.Oppdater(r.Context(), id, eier, req.Data)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, skjema)
}

// SendInn validates a draft and submits it for case processing
func (h *SkjemaHandler) SendInn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	eier := httputil.GetSubject(r.Context())

	skjema, err := h.service.SendInn(r.Context(), id, eier)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	h.logger.WithSkjemaID(skjema.ID).Info().
		Str("korrelasjons_id", derefStr(skjema.KorrelasjonsID)).
		Msg("skjema sendt inn")

	httputil.JSON(w, http.StatusOK, skjema)
}

// HentForSaksbehandling gets any form by ID without an ownership check.
// Mounted behind the machine-to-machine client allow-list.
func (h *SkjemaHandler) HentForSaksbehandling(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	skjema, err := h.service.HentForSaksbehandling(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	h.logger.WithSkjemaID(skjema.ID).Info().
		Str("client_id", httputil.GetClientID(r.Context())).
		Msg("skjema hentet for saksbehandling")

	httputil.JSON(w, http.StatusOK, skjema)
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
