package service

import (
	"context"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/store"
)

// StaffAllowance is the fixed allowance reported for staff inviters.
// Display-only: staff are never actually blocked by the quota.
const StaffAllowance = 10

// Allowance is the result of a quota computation.
type Allowance struct {
	// Remaining invitations the inviter may issue. Meaningless when
	// Unlimited is set, except for staff where it carries the fixed
	// display value.
	Remaining int
	// Unlimited means the caller must always permit the invite.
	Unlimited bool
}

// QuotaPolicy computes remaining invitations per inviter from explicit
// configuration. PerUser of zero means no limit is configured.
type QuotaPolicy struct {
	Store   store.Store
	PerUser int
}

func (p *QuotaPolicy) Remaining(ctx context.Context, inviter domain.User) (Allowance, error) {
	// Staff bypass the limit but are shown a constant allowance.
	if inviter.Staff {
		return Allowance{Remaining: StaffAllowance, Unlimited: true}, nil
	}

	if p.PerUser <= 0 {
		return Allowance{Unlimited: true}, nil
	}

	issued, err := p.Store.Invitations().CountInvitationsByInviter(ctx, inviter.ID)
	if err != nil {
		return Allowance{}, err
	}

	remaining := p.PerUser - issued
	if remaining < 0 {
		// The limit may have been lowered below the already-issued
		// count; never report a negative value.
		remaining = 0
	}
	return Allowance{Remaining: remaining}, nil
}
