package http

import (
	"errors"
	"net/http"

	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/pkg/httpx"
	"github.com/openoak/invited/pkg/slogx"
)

type InviteRedeemHandler struct {
	InvitationService *service.InvitationService
	SessionService    *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Redeem Invitation Endpoint
//	@Description	Redeem an invitation code to create a new account. The account's email is taken from the invitation, and a session token is returned so the new account is logged in.
//	@Tags			Invitations
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			code		path		string				true	"Invitation code"
//	@Param			username	formData	string				true	"Desired username"
//	@Param			password	formData	string				true	"Account password"
//	@Success		200			{object}	RedeemResponse		"user_id, username, email, session_token"
//	@Failure		400			{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		410			{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		500			{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/invitations/{code}/redeem [post].
func (h *InviteRedeemHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form data")
		return
	}

	code := r.PathValue("code")
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username is required")
		return
	}
	if password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password is required")
		return
	}

	user, err := h.InvitationService.Redeem(ctx, code, service.NewAccount{
		Username: username,
		Password: password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvitationNotFound):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_invitation",
				"The invitation code is not valid. Please check the link provided and try again.")
		case errors.Is(err, service.ErrInvitationExpired):
			httpx.WriteError(w, http.StatusGone,
				"invitation_expired", "This invitation has expired")
		case errors.Is(err, service.ErrUsernameAlreadyTaken):
			httpx.WriteError(w, http.StatusConflict,
				"username_taken", "Username is already taken")
		case errors.Is(err, service.ErrInvalidInviteRequest):
			httpx.WriteError(w, http.StatusBadRequest,
				"invalid_request", "Invalid redemption parameters")
		case errors.Is(err, service.ErrAccountCreationFailed):
			log.Error("account creation failed during redemption", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Failed to create account")
		default:
			log.Error("failed to redeem invitation", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Failed to redeem invitation")
		}
		return
	}

	// Log the new account in.
	token, err := h.SessionService.Issue(user)
	if err != nil {
		log.Error("failed to issue session after redemption", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Account created but login failed; please log in manually")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, RedeemResponse{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		SessionToken: token,
	})
}

type InvitePreviewHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		Invitation Preview Endpoint
//	@Description	Check whether an invitation code is redeemable before showing the registration form. Expired and unknown codes are reported distinctly.
//	@Tags			Invitations
//	@Produce		json
//	@Param			code	path		string				true	"Invitation code"
//	@Success		200		{object}	PreviewResponse		"invited_email, expires_at"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		410		{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/invitations/{code} [get].
func (h *InvitePreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	inv, err := h.InvitationService.Preview(ctx, r.PathValue("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvitationNotFound):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_invitation",
				"The invitation code is not valid. Please check the link provided and try again.")
		case errors.Is(err, service.ErrInvitationExpired):
			httpx.WriteError(w, http.StatusGone,
				"invitation_expired", "This invitation has expired")
		default:
			log.Error("failed to preview invitation", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Failed to look up invitation")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, PreviewResponse{
		InvitedEmail: inv.InvitedEmail,
		ExpiresAt:    inv.ExpiresAt,
	})
}
