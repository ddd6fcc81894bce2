package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/pkg/httpx"
	"github.com/openoak/invited/pkg/slogx"
)

type InviteCreateHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		Create Invitation Endpoint
//	@Description	Invite an email address to register an account. The code is generated and emailed to the target address.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		InviteRequest		true	"Invite request"
//	@Success		201		{object}	InviteResponse		"invitation, email_sent"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations [post].
func (h *InviteCreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	inviterID := userIDFromCtx(ctx)
	if inviterID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	inv, emailSent, err := h.InvitationService.Invite(ctx, inviterID, req.Email, req.GroupIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuotaExceeded):
			httpx.WriteError(w, http.StatusForbidden,
				"quota_exceeded", "You do not have any remaining invitations")
		case errors.Is(err, service.ErrDuplicateInvitation):
			httpx.WriteError(w, http.StatusConflict,
				"already_invited", "An invitation has already been sent to that address")
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			httpx.WriteError(w, http.StatusConflict,
				"already_registered", "A user with that email address has already registered")
		case errors.Is(err, service.ErrInvalidInviteRequest):
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "Invalid invitation parameters")
		default:
			log.Error("failed to create invitation", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Failed to create invitation")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, InviteResponse{
		Invitation: toInvitationPayload(inv),
		EmailSent:  emailSent,
	})
}
