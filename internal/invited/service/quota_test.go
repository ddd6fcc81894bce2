package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaRemaining(t *testing.T) {
	ctx := context.Background()

	t.Run("unlimited when no limit configured", func(t *testing.T) {
		st := newTestStore(t)
		alice := seedUser(t, st, "alice", "alice@example.org", false)
		policy := &QuotaPolicy{Store: st, PerUser: 0}

		allowance, err := policy.Remaining(ctx, alice)
		require.NoError(t, err)
		assert.True(t, allowance.Unlimited)
	})

	t.Run("counts issued invitations against the limit", func(t *testing.T) {
		st := newTestStore(t)
		alice := seedUser(t, st, "alice", "alice@example.org", false)
		policy := &QuotaPolicy{Store: st, PerUser: 3}
		svc, _ := newInvitationService(st, 3)

		allowance, err := policy.Remaining(ctx, alice)
		require.NoError(t, err)
		assert.False(t, allowance.Unlimited)
		assert.Equal(t, 3, allowance.Remaining)

		_, _, err = svc.Invite(ctx, alice.ID, "one@example.org", nil)
		require.NoError(t, err)

		allowance, err = policy.Remaining(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 2, allowance.Remaining)
	})

	t.Run("floors at zero when the limit was lowered", func(t *testing.T) {
		st := newTestStore(t)
		alice := seedUser(t, st, "alice", "alice@example.org", false)
		svc, _ := newInvitationService(st, 0)

		_, _, err := svc.Invite(ctx, alice.ID, "one@example.org", nil)
		require.NoError(t, err)
		_, _, err = svc.Invite(ctx, alice.ID, "two@example.org", nil)
		require.NoError(t, err)

		policy := &QuotaPolicy{Store: st, PerUser: 1}
		allowance, err := policy.Remaining(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 0, allowance.Remaining, "never reports a negative allowance")
	})

	t.Run("staff get a fixed display allowance", func(t *testing.T) {
		st := newTestStore(t)
		admin := seedUser(t, st, "admin", "admin@example.org", true)
		policy := &QuotaPolicy{Store: st, PerUser: 1}

		allowance, err := policy.Remaining(ctx, admin)
		require.NoError(t, err)
		assert.True(t, allowance.Unlimited)
		assert.Equal(t, StaffAllowance, allowance.Remaining)
	})
}
