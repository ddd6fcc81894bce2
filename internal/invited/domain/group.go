package domain

import "time"

// Group is a membership bucket the redeemed account joins. Groups are
// attached to an invitation at creation and applied at redemption.
type Group struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
