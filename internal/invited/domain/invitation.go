package domain

import "time"

// Invitation grants the bearer of its code the right to create one
// account bound to InvitedEmail. The code is generated once at creation
// and never regenerated or reused.
type Invitation struct {
	ID           string
	Code         string
	InviterID    string
	InvitedEmail string // stored lowercased; unique across all invitations
	GroupIDs     []string
	ExpiresAt    time.Time
	Used         bool
	RedeemedBy   string // user ID, empty until redemption
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the invitation is past its validity window at
// the given instant. Expiry is derived, not a stored state transition.
func (i Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
