package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/melosys/skjema-api/internal/skjema/service"
	"github.com/melosys/skjema-api/pkg/config"
	"github.com/melosys/skjema-api/pkg/errors"
	"github.com/melosys/skjema-api/pkg/httputil"
	"github.com/melosys/skjema-api/pkg/logger"
)

// VedleggHandler handles attachment upload, download and deletion
type VedleggHandler struct {
	service *service.VedleggService
	cfg     config.VedleggConfig
	logger  *logger.Logger
}

// NewVedleggHandler creates a new attachment handler
func NewVedleggHandler(svc *service.VedleggService, cfg config.VedleggConfig, log *logger.Logger) *VedleggHandler {
	return &VedleggHandler{
		service: svc,
		cfg:     cfg,
		logger:  log,
	}
}

// LastOpp uploads an attachment to a draft. Expects a multipart form with
// the file under the "fil" field.
func (h *VedleggHandler) LastOpp(w http.ResponseWriter, r *http.Request) {
	skjemaID := chi.URLParam(r, "id")
	eier := httputil.GetSubject(r.Context())

	// Multipart memory limit leaves headroom over the attachment size cap so
	// oversized files reach the service and get the localized rejection.
	if err := r.ParseMultipartForm(h.cfg.MaxSizeBytes + (1 << 20)); err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("invalid multipart form"))
		return
	}

	fil, header, err := r.FormFile("fil")
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequest("missing file field 'fil'"))
		return
	}
	defer fil.Close()

	innhold, err := io.ReadAll(fil)
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.Internal("failed to read upload"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(innhold)
	}

	vedlegg, err := h.service.LastOpp(r.Context(), skjemaID, eier, header.Filename, contentType, innhold)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, vedlegg)
}

// List lists the attachments on a form
func (h *VedleggHandler) List(w http.ResponseWriter, r *http.Request) {
	skjemaID := chi.URLParam(r, "id")
	eier := httputil.GetSubject(r.Context())

	vedleggene, err := h.service.List(r.Context(), skjemaID, eier)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, vedleggene)
}

// LastNed streams the attachment bytes back with the stored content type
func (h *VedleggHandler) LastNed(w http.ResponseWriter, r *http.Request) {
	skjemaID := chi.URLParam(r, "id")
	vedleggID := chi.URLParam(r, "vedleggId")
	eier := httputil.GetSubject(r.Context())

	meta, innhold, err := h.service.Hent(r.Context(), skjemaID, vedleggID, eier)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Filnavn))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(innhold)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(innhold); err != nil {
		h.logger.WithError(err).Warn().Str("vedlegg_id", vedleggID).Msg("failed to write attachment response")
	}
}

// Slett removes an attachment from a draft
func (h *VedleggHandler) Slett(w http.ResponseWriter, r *http.Request) {
	skjemaID := chi.URLParam(r, "id")
	vedleggID := chi.URLParam(r, "vedleggId")
	eier := httputil.GetSubject(r.Context())

	if err := h.service.Slett(r.Context(), skjemaID, vedleggID, eier); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.NoContent(w)
}
