package http

import (
	"time"

	"github.com/openoak/invited/internal/invited/domain"
)

// InviteRequest is the JSON body for creating an invitation.
type InviteRequest struct {
	Email    string   `json:"email"`
	GroupIDs []string `json:"group_ids,omitempty"`
}

// InvitationPayload is the JSON shape of an invitation.
type InvitationPayload struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	InviterID    string    `json:"inviter_id"`
	InvitedEmail string    `json:"invited_email"`
	GroupIDs     []string  `json:"group_ids,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Used         bool      `json:"used"`
	RedeemedBy   string    `json:"redeemed_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toInvitationPayload(inv domain.Invitation) InvitationPayload {
	return InvitationPayload{
		ID:           inv.ID,
		Code:         inv.Code,
		InviterID:    inv.InviterID,
		InvitedEmail: inv.InvitedEmail,
		GroupIDs:     inv.GroupIDs,
		ExpiresAt:    inv.ExpiresAt,
		Used:         inv.Used,
		RedeemedBy:   inv.RedeemedBy,
		CreatedAt:    inv.CreatedAt,
	}
}

// InviteResponse is returned after a successful invite. EmailSent is
// false when the invitation was created but the notification email
// could not be dispatched.
type InviteResponse struct {
	Invitation InvitationPayload `json:"invitation"`
	EmailSent  bool              `json:"email_sent"`
}

// InvitationListResponse is the staff list view.
type InvitationListResponse struct {
	Invitations []InvitationPayload `json:"invitations"`
}

// RemainingResponse reports an inviter's allowance for display.
type RemainingResponse struct {
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// PreviewResponse describes a redeemable invitation to its recipient.
type PreviewResponse struct {
	InvitedEmail string    `json:"invited_email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RedeemResponse is returned after a successful redemption. The session
// token logs the new account straight in.
type RedeemResponse struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	SessionToken string `json:"session_token"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Staff        bool   `json:"staff"`
	SessionToken string `json:"session_token"`
}

// BootstrapRequest creates the initial staff account.
type BootstrapRequest struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Groups   []string `json:"groups,omitempty"`
}

type BootstrapResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// PurgeResponse reports how many expired invitations were deleted.
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
