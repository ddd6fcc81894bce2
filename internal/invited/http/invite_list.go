package http

import (
	"errors"
	"net/http"

	"github.com/openoak/invited/internal/invited/service"
	"github.com/openoak/invited/internal/invited/store"
	"github.com/openoak/invited/pkg/httpx"
	"github.com/openoak/invited/pkg/slogx"
)

type InviteListHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		List Invitations Endpoint
//	@Description	Staff-only list of all invitations, newest first, including used and expired ones.
//	@Tags			Invitations
//	@Produce		json
//	@Success		200	{object}	InvitationListResponse	"invitations"
//	@Failure		401	{object}	httpx.ErrorResponse		"error, error_description"
//	@Failure		403	{object}	httpx.ErrorResponse		"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations [get].
func (h *InviteListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	invitations, err := h.InvitationService.List(ctx)
	if err != nil {
		log.Error("failed to list invitations", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to list invitations")
		return
	}

	payload := make([]InvitationPayload, 0, len(invitations))
	for _, inv := range invitations {
		payload = append(payload, toInvitationPayload(inv))
	}

	httpx.WriteJSON(w, http.StatusOK, InvitationListResponse{Invitations: payload})
}

type InviteRemainingHandler struct {
	Quota *service.QuotaPolicy
	Store store.Store
}

// ServeHTTP godoc
//
//	@Summary		Remaining Invitations Endpoint
//	@Description	Report the authenticated inviter's remaining allowance for display. Staff always see a fixed allowance.
//	@Tags			Invitations
//	@Produce		json
//	@Success		200	{object}	RemainingResponse	"remaining, unlimited"
//	@Failure		401	{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/remaining [get].
func (h *InviteRemainingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := userIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	user, err := h.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Unknown account")
			return
		}
		log.Error("failed to fetch user", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to compute remaining invitations")
		return
	}

	allowance, err := h.Quota.Remaining(ctx, user)
	if err != nil {
		log.Error("failed to compute remaining invitations", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to compute remaining invitations")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, RemainingResponse{
		Remaining: allowance.Remaining,
		Unlimited: allowance.Unlimited,
	})
}

type InvitePurgeHandler struct {
	InvitationService *service.InvitationService
}

// ServeHTTP godoc
//
//	@Summary		Purge Expired Invitations Endpoint
//	@Description	Staff-only manual sweep of expired, unused invitations. The background housekeeping worker runs the same sweep periodically.
//	@Tags			Invitations
//	@Produce		json
//	@Success		200	{object}	PurgeResponse		"deleted"
//	@Failure		401	{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	httpx.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/purge [post].
func (h *InvitePurgeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	deleted, err := h.InvitationService.PurgeExpired(ctx)
	if err != nil {
		log.Error("failed to purge expired invitations", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to purge expired invitations")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, PurgeResponse{Deleted: deleted})
}
