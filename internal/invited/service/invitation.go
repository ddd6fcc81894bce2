package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/store"
	"github.com/openoak/invited/pkg/cryptox"
	"github.com/openoak/invited/pkg/idx"
	"github.com/openoak/invited/pkg/slogx"
)

var (
	ErrInvalidInviteRequest   = errors.New("invalid invite request")
	ErrQuotaExceeded          = errors.New("no remaining invitations")
	ErrDuplicateInvitation    = errors.New("an invitation has already been sent to that address")
	ErrEmailAlreadyRegistered = errors.New("a user with that email address has already registered")
	ErrInvitationNotFound     = errors.New("invitation code is not valid")
	ErrInvitationExpired      = errors.New("invitation has expired")
	ErrUsernameAlreadyTaken   = errors.New("username already taken")
	ErrAccountCreationFailed  = errors.New("account creation failed")
)

// Notifier dispatches the invitation email. Implementations live at the
// mail-transport boundary; the service only logs delivery failures.
type Notifier interface {
	Send(ctx context.Context, inv domain.Invitation, inviter domain.User) error
}

// NewAccount carries the account-creation inputs supplied at
// redemption. The account's email never comes from here: the invitation
// is authoritative for which address is verified.
type NewAccount struct {
	Username string
	Password string
}

type InvitationService struct {
	Store    store.Store
	Quota    *QuotaPolicy
	Notifier Notifier

	// Validity is the configured window after which an unused
	// invitation expires.
	Validity time.Duration
}

// Invite validates an invite request and creates the invitation. The
// returned bool reports whether the notification email was dispatched;
// delivery is best-effort and never rolls back the created invitation.
func (s *InvitationService) Invite(
	ctx context.Context,
	inviterID string,
	email string,
	groupIDs []string,
) (domain.Invitation, bool, error) {
	log := slogx.FromContext(ctx)

	// 1. Normalise and validate the target address. Everything below
	// compares lowercased so users cannot dodge the uniqueness rules
	// with case tricks.
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Invitation{}, false, ErrInvalidInviteRequest
	}
	if _, err := mail.ParseAddress(email); err != nil {
		log.Warn("invite attempted with malformed email")
		return domain.Invitation{}, false, ErrInvalidInviteRequest
	}

	// 2. Resolve the inviter.
	inviter, err := s.Store.Users().GetUserByID(ctx, inviterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, false, ErrInvalidInviteRequest
		}
		log.Error("failed to fetch inviter", slog.Any("error", err))
		return domain.Invitation{}, false, err
	}

	// 3. Enforce the per-inviter quota.
	allowance, err := s.Quota.Remaining(ctx, inviter)
	if err != nil {
		log.Error("failed to compute remaining invitations", slog.Any("error", err))
		return domain.Invitation{}, false, err
	}
	if !allowance.Unlimited && allowance.Remaining <= 0 {
		log.Warn("invite rejected: quota exhausted",
			slog.String("inviter_id", inviter.ID),
		)
		return domain.Invitation{}, false, ErrQuotaExceeded
	}

	// 4. Reject if any invitation already targets this address,
	// regardless of who sent it. Prevents wasting invites and inviting
	// the same person under different usernames.
	if _, err := s.Store.Invitations().GetInvitationByEmail(ctx, email); err == nil {
		return domain.Invitation{}, false, ErrDuplicateInvitation
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check for existing invitation", slog.Any("error", err))
		return domain.Invitation{}, false, err
	}

	// 5. Reject if a registered account already uses this address.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.Invitation{}, false, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check for registered email", slog.Any("error", err))
		return domain.Invitation{}, false, err
	}

	// 6. Validate the target groups exist.
	if len(groupIDs) > 0 {
		if _, err := s.Store.Groups().GetGroupsByIDs(ctx, groupIDs); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Invitation{}, false, ErrInvalidInviteRequest
			}
			log.Error("failed to fetch groups", slog.Any("error", err))
			return domain.Invitation{}, false, err
		}
	}

	// 7. Generate the code and persist. The unique index on the invited
	// email is the backstop for concurrent invites to the same address.
	code, err := cryptox.GenerateInviteCode(inviter.Username)
	if err != nil {
		log.Error("failed to generate invitation code", slog.Any("error", err))
		return domain.Invitation{}, false, err
	}

	now := time.Now().UTC()
	inv := domain.Invitation{
		ID:           idx.New().String(),
		Code:         code,
		InviterID:    inviter.ID,
		InvitedEmail: email,
		GroupIDs:     groupIDs,
		ExpiresAt:    now.Add(s.Validity),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Invitations().CreateInvitation(ctx, inv)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Invitation{}, false, ErrDuplicateInvitation
		}
		log.Error("failed to create invitation",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
		return domain.Invitation{}, false, err
	}

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("inviter_id", inviter.ID),
		slog.Time("expires_at", inv.ExpiresAt),
	)

	// 8. Dispatch the email. Best-effort: a failure is reported to the
	// caller but the invitation stands.
	emailSent := true
	if err := s.Notifier.Send(ctx, inv, inviter); err != nil {
		emailSent = false
		log.Warn("failed to send invitation email",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
	}

	return inv, emailSent, nil
}

// Redeem exchanges a valid, unexpired, unused invitation code for a new
// account. Account creation, group membership, and marking the
// invitation used are atomic: a failure on any step rolls back all of
// them and leaves the invitation redeemable.
func (s *InvitationService) Redeem(
	ctx context.Context,
	code string,
	account NewAccount,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	if code == "" || account.Username == "" || account.Password == "" {
		return domain.User{}, ErrInvalidInviteRequest
	}

	// 2. Look up the invitation. Not-found deliberately reads the same
	// as a malformed code so callers learn nothing about valid shapes.
	inv, err := s.Store.Invitations().GetInvitationByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("redemption attempted with unknown code")
			return domain.User{}, ErrInvitationNotFound
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return domain.User{}, err
	}

	// 3. A used invitation is no longer a valid redemption target.
	if inv.Used {
		log.Warn("redemption attempted with already-used invitation",
			slog.String("invitation_id", inv.ID),
		)
		return domain.User{}, ErrInvitationNotFound
	}

	// 4. Expiry is checked at redemption time, independent of whether
	// cleanup ever ran. No deletion side effect here.
	if inv.Expired(time.Now().UTC()) {
		log.Warn("redemption attempted with expired invitation",
			slog.String("invitation_id", inv.ID),
			slog.Time("expired_at", inv.ExpiresAt),
		)
		return domain.User{}, ErrInvitationExpired
	}

	// 5. Verify the username is available before doing expensive work.
	if _, err := s.Store.Users().GetUserByUsername(ctx, account.Username); err == nil {
		return domain.User{}, ErrUsernameAlreadyTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check username availability", slog.Any("error", err))
		return domain.User{}, err
	}

	// 6. Hash the password using Argon2id.
	passwordHash, err := cryptox.HashPassword(account.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	// 7. Create the account and consume the invitation atomically.
	var newUser domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-read inside the transaction: a concurrent redemption may
		// have won between the checks above and here.
		current, err := tx.Invitations().GetInvitationByCode(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}
		if current.Used {
			return ErrInvitationNotFound
		}
		if current.Expired(time.Now().UTC()) {
			return ErrInvitationExpired
		}

		now := time.Now().UTC()
		newUser = domain.User{
			ID:           idx.New().String(),
			Username:     account.Username,
			Email:        current.InvitedEmail, // the invitation is authoritative
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := tx.Users().CreateUser(ctx, newUser); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUsernameAlreadyTaken
			}
			return errors.Join(ErrAccountCreationFailed, err)
		}

		if err := tx.Users().AddUserToGroups(ctx, newUser.ID, current.GroupIDs); err != nil {
			return errors.Join(ErrAccountCreationFailed, err)
		}

		// Guarded on used=0 so concurrent redemptions have exactly one
		// winner even across processes.
		if err := tx.Invitations().MarkInvitationUsed(ctx, current.ID, newUser.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}

		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	log.Info("account registered via invitation",
		slog.String("user_id", newUser.ID),
		slog.String("username", newUser.Username),
		slog.String("invitation_id", inv.ID),
	)

	return newUser, nil
}

// Preview returns a redeemable invitation by code, applying the same
// used/expired rules as Redeem without consuming anything. Intended for
// showing the registration form before the recipient commits.
func (s *InvitationService) Preview(ctx context.Context, code string) (domain.Invitation, error) {
	if code == "" {
		return domain.Invitation{}, ErrInvitationNotFound
	}

	inv, err := s.Store.Invitations().GetInvitationByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotFound
		}
		return domain.Invitation{}, err
	}
	if inv.Used {
		return domain.Invitation{}, ErrInvitationNotFound
	}
	if inv.Expired(time.Now().UTC()) {
		return domain.Invitation{}, ErrInvitationExpired
	}
	return inv, nil
}

// PurgeExpired removes every expired, unused invitation and returns how
// many were deleted. Used invitations are kept for the audit trail.
func (s *InvitationService) PurgeExpired(ctx context.Context) (int64, error) {
	log := slogx.FromContext(ctx)

	deleted, err := s.Store.Invitations().DeleteExpiredUnused(ctx)
	if err != nil {
		log.Error("failed to purge expired invitations", slog.Any("error", err))
		return 0, err
	}

	if deleted > 0 {
		log.Info("purged expired invitations", slog.Int64("deleted", deleted))
	}
	return deleted, nil
}

// List returns all invitations, newest first, for the admin view.
func (s *InvitationService) List(ctx context.Context) ([]domain.Invitation, error) {
	return s.Store.Invitations().ListInvitations(ctx)
}
