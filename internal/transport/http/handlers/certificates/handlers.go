package certificateshandler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentra/internal/domain/certificate"
	"sentra/internal/requestctx"
	"sentra/internal/transport/http/api"
	"sentra/internal/transport/http/middleware"
)

const defaultListLimit = 100

type Handler struct {
	Certs *certificate.Service
}

func NewHandler(certs *certificate.Service) *Handler {
	return &Handler{Certs: certs}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/certificates", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{certificateID}", h.handleGet)
		r.Get("/{certificateID}/pdf", h.handleDownloadPDF)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	certs, err := h.Certs.List(r.Context(), user.OrganisationID, defaultListLimit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", err.Error(), reqID)
		return
	}
	api.Success(w, certs, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	cert, err := h.Certs.Get(r.Context(), user.OrganisationID, chi.URLParam(r, "certificateID"))
	if errors.Is(err, certificate.ErrCertificateNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "certificate not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", err.Error(), reqID)
		return
	}
	api.Success(w, cert, reqID)
}

func (h *Handler) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	cert, err := h.Certs.Get(r.Context(), user.OrganisationID, chi.URLParam(r, "certificateID"))
	if errors.Is(err, certificate.ErrCertificateNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "certificate not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", err.Error(), reqID)
		return
	}

	pdf, err := certificate.RenderPDF(cert)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "render_failed", err.Error(), reqID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.CertificateNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
