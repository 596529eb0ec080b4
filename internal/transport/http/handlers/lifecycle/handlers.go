package lifecyclehandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sentra/internal/domain/lifecycle"
	"sentra/internal/requestctx"
	"sentra/internal/transport/http/api"
	"sentra/internal/transport/http/middleware"
)

const defaultListLimit = 100

type Handler struct {
	Orchestrator *lifecycle.Orchestrator
	Store        lifecycle.Store
	Runs         lifecycle.RunStore
}

func NewHandler(orchestrator *lifecycle.Orchestrator, store lifecycle.Store, runs lifecycle.RunStore) *Handler {
	return &Handler{Orchestrator: orchestrator, Store: store, Runs: runs}
}

// RegisterRoutes attaches the handler under an already-authenticated
// /lifecycle subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/scan", h.handleScan)
	r.Get("/status", h.handleStatus)
	r.Get("/records", h.handleListRecords)
	r.Get("/records/{recordID}", h.handleGetRecord)
	r.Post("/records/{recordID}/restore", h.handleRestore)
	r.Get("/runs", h.handleListRuns)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	result, err := h.Orchestrator.RunScan(r.Context(), user.OrganisationID)
	if errors.Is(err, lifecycle.ErrScanInProgress) {
		api.Fail(w, http.StatusConflict, "scan_in_progress", err.Error(), reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "scan_failed", err.Error(), reqID)
		return
	}
	api.Accepted(w, result, reqID)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	status, err := h.Orchestrator.Status(r.Context(), user.OrganisationID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "status_failed", err.Error(), reqID)
		return
	}
	api.Success(w, status, reqID)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	status := lifecycle.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = lifecycle.StatusRetentionPending
	}
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.Fail(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", reqID)
			return
		}
		limit = parsed
	}

	records, err := h.Store.ListByStatus(r.Context(), user.OrganisationID, status, limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", err.Error(), reqID)
		return
	}
	api.Success(w, records, reqID)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	rec, err := h.Store.Get(r.Context(), chi.URLParam(r, "recordID"))
	if errors.Is(err, lifecycle.ErrRecordNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "lifecycle record not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "get_failed", err.Error(), reqID)
		return
	}
	if rec.OrganisationID != user.OrganisationID {
		api.Fail(w, http.StatusNotFound, "not_found", "lifecycle record not found", reqID)
		return
	}
	api.Success(w, rec, reqID)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	recordID := chi.URLParam(r, "recordID")

	rec, err := h.Store.Get(r.Context(), recordID)
	if errors.Is(err, lifecycle.ErrRecordNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "lifecycle record not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "restore_failed", err.Error(), reqID)
		return
	}
	if rec.OrganisationID != user.OrganisationID {
		api.Fail(w, http.StatusNotFound, "not_found", "lifecycle record not found", reqID)
		return
	}

	restored, err := h.Orchestrator.Restore(r.Context(), recordID)
	if errors.Is(err, lifecycle.ErrInvalidTransition) {
		api.Fail(w, http.StatusConflict, "invalid_transition", "record cannot be restored from its current status", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "restore_failed", err.Error(), reqID)
		return
	}
	api.Success(w, restored, reqID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	runs, err := h.Runs.List(r.Context(), user.OrganisationID, defaultListLimit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", err.Error(), reqID)
		return
	}
	api.Success(w, runs, reqID)
}
