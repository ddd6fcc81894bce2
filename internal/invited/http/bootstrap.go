package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/pkg/httpx"
	"github.com/openoak/invited/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP godoc
//
//	@Summary		Bootstrap Endpoint
//	@Description	Create the initial staff account on an empty system. Requires the configured bootstrap token; rejected once any user exists.
//	@Tags			System
//	@Accept			json
//	@Produce		json
//	@Param			request	body		BootstrapRequest	true	"Bootstrap request"
//	@Success		201		{object}	BootstrapResponse	"user_id, username"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, err := h.BootstrapService.Bootstrap(ctx, req.Token, service.BootstrapData{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Groups:   req.Groups,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			httpx.WriteError(w, http.StatusConflict,
				"already_bootstrapped", "System already has an account")
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			httpx.WriteError(w, http.StatusUnauthorized,
				"unauthorized", "Invalid bootstrap token")
		case errors.Is(err, service.ErrBootstrapInvalid):
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "username, email, and password are required")
		default:
			log.Error("bootstrap failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Bootstrap failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, BootstrapResponse{
		UserID:   user.ID,
		Username: user.Username,
	})
}
