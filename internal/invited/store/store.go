package store

import (
	"context"
	"errors"

	"github.com/openoak/invited/internal/invited/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep
// concerns tidy and testable, and to stop callers from accidentally
// opening transactions within transactions.
type Store interface {
	Invitations() Invitations
	Users() Users
	Groups() Groups

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error,
	// the transaction is rolled back; otherwise it is committed. This is
	// the recommended way to run multi-step operations that must be
	// atomic (e.g. redeem-and-mark-used).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Invitations interface {
	// CreateInvitation inserts a new invitation plus its group
	// attachments. The unique index on the invited email is the
	// concurrency backstop; a violation surfaces as ErrAlreadyExists.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByCode returns an invitation by its opaque code.
	GetInvitationByCode(ctx context.Context, code string) (domain.Invitation, error)

	// GetInvitationByEmail looks up an invitation targeting the given
	// (lowercased) email address.
	GetInvitationByEmail(ctx context.Context, email string) (domain.Invitation, error)

	// CountInvitationsByInviter returns how many invitations a user has
	// issued, used and unused alike.
	CountInvitationsByInviter(ctx context.Context, inviterID string) (int, error)

	// MarkInvitationUsed sets used=1 and redeemed_by, guarded on used=0.
	// Returns ErrNotFound when the invitation was already used or does
	// not exist, so concurrent redeems have exactly one winner.
	MarkInvitationUsed(ctx context.Context, invitationID, redeemedByUserID string) error

	// DeleteExpiredUnused removes all invitations with expires_at in the
	// past and used=0, returning how many rows were deleted.
	DeleteExpiredUnused(ctx context.Context) (int64, error)

	// ListInvitations returns all invitations, newest first.
	ListInvitations(ctx context.Context) ([]domain.Invitation, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail looks up a registered account by (lowercased) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// AddUserToGroups attaches the user to each group id.
	AddUserToGroups(ctx context.Context, userID string, groupIDs []string) error

	// IsEmpty returns true if there are no users (bootstrap check).
	IsEmpty(ctx context.Context) (bool, error)
}

type Groups interface {
	CreateGroup(ctx context.Context, g domain.Group) error

	// GetGroupsByIDs returns the groups for the given ids; a missing id
	// yields ErrNotFound.
	GetGroupsByIDs(ctx context.Context, ids []string) ([]domain.Group, error)

	ListGroups(ctx context.Context) ([]domain.Group, error)
}
