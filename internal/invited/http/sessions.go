package http

import (
	"errors"
	"net/http"

	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/pkg/httpx"
	"github.com/openoak/invited/pkg/slogx"
)

type SessionHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Exchange username and password for a session token. Inviters authenticate here before creating invitations.
//	@Tags			Sessions
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			username	formData	string				true	"Username"
//	@Param			password	formData	string				true	"Password"
//	@Success		200			{object}	LoginResponse		"user_id, username, staff, session_token"
//	@Failure		400			{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		401			{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/sessions [post].
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form data")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "username and password are required")
		return
	}

	user, token, err := h.SessionService.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized,
				"invalid_credentials", "Invalid username or password")
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Login failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		UserID:       user.ID,
		Username:     user.Username,
		Staff:        user.Staff,
		SessionToken: token,
	})
}
