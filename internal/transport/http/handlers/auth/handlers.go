package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sentra/internal/auth"
	"sentra/internal/domain/org"
	"sentra/internal/requestctx"
	"sentra/internal/transport/http/api"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	Orgs   *org.Store
	Secret string
}

func NewHandler(orgs *org.Store, secret string) *Handler {
	return &Handler{Orgs: orgs, Secret: secret}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token          string `json:"token"`
	UserID         string `json:"userId"`
	OrganisationID string `json:"organisationId"`
	Role           string `json:"role"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	user, err := h.Orgs.UserByEmail(r.Context(), payload.Email)
	if errors.Is(err, org.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "login failed", reqID)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:         user.ID,
		OrganisationID: user.OrganisationID,
		Role:           user.Role,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "internal_error", "token generation failed", reqID)
		return
	}

	api.Success(w, loginResponse{
		Token:          token,
		UserID:         user.ID,
		OrganisationID: user.OrganisationID,
		Role:           user.Role,
	}, reqID)
}
