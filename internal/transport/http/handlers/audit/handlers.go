package audithandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentra/internal/domain/audit"
	"sentra/internal/domain/policy"
	"sentra/internal/requestctx"
	"sentra/internal/transport/http/api"
	"sentra/internal/transport/http/middleware"
)

const defaultListLimit = 100

type Handler struct {
	Store audit.Store
}

func NewHandler(store audit.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audits", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/latest", h.handleLatest)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	audits, err := h.Store.List(r.Context(), user.OrganisationID, defaultListLimit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", err.Error(), reqID)
		return
	}
	api.Success(w, audits, reqID)
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	dataType := policy.DataType(r.URL.Query().Get("dataType"))
	if dataType == "" {
		api.Fail(w, http.StatusBadRequest, "missing_data_type", "dataType query parameter is required", reqID)
		return
	}

	latest, err := h.Store.Latest(r.Context(), user.OrganisationID, dataType)
	if errors.Is(err, audit.ErrAuditNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "no audit snapshot for data type", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", err.Error(), reqID)
		return
	}
	api.Success(w, latest, reqID)
}
