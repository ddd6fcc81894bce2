package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/store"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, code, inviter_id, invited_email, expires_at, used, redeemed_by, created_at, updated_at`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (id, code, inviter_id, invited_email, expires_at, used, redeemed_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, NULL, ?, ?)`,
		inv.ID, inv.Code, inv.InviterID, inv.InvitedEmail, inv.ExpiresAt.UTC(),
		inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "invitations.invited_email") {
			return store.ErrAlreadyExists
		}
		if isUniqueViolation(err, "invitations.code") {
			// Codes are 256-bit hashes; a collision here means the
			// generator invariant is broken. Surface it, never retry.
			return fmt.Errorf("invitation code collision for %s: %w", inv.ID, err)
		}
		return err
	}

	for _, groupID := range inv.GroupIDs {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO invitation_groups (invitation_id, group_id)
			VALUES (?, ?)`,
			inv.ID, groupID,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *invitationsRepo) GetInvitationByCode(ctx context.Context, code string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE code = ?`,
		code,
	)
	return r.scanInvitation(ctx, row)
}

func (r *invitationsRepo) GetInvitationByEmail(ctx context.Context, email string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE invited_email = ?`,
		email,
	)
	return r.scanInvitation(ctx, row)
}

func (r *invitationsRepo) CountInvitationsByInviter(ctx context.Context, inviterID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM invitations WHERE inviter_id = ?`,
		inviterID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *invitationsRepo) MarkInvitationUsed(ctx context.Context, invitationID, redeemedByUserID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations
		SET used = 1, redeemed_by = ?, updated_at = ?
		WHERE id = ? AND used = 0`,
		redeemedByUserID, time.Now().UTC(), invitationID,
	)
	if err != nil {
		return err
	}

	// The used=0 guard makes this the single-winner gate for concurrent
	// redemptions: the loser sees zero rows affected.
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *invitationsRepo) DeleteExpiredUnused(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM invitations
		WHERE expires_at < ? AND used = 0`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *invitationsRepo) ListInvitations(ctx context.Context) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitationRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		groupIDs, err := r.groupIDsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].GroupIDs = groupIDs
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitationRow(row rowScanner) (domain.Invitation, error) {
	var (
		inv        domain.Invitation
		used       int
		redeemedBy sql.NullString
	)
	err := row.Scan(
		&inv.ID, &inv.Code, &inv.InviterID, &inv.InvitedEmail,
		&inv.ExpiresAt, &used, &redeemedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invitation{}, err
	}
	inv.Used = used == 1
	inv.RedeemedBy = mapNullString(redeemedBy)
	return inv, nil
}

func (r *invitationsRepo) scanInvitation(ctx context.Context, row *sql.Row) (domain.Invitation, error) {
	inv, err := scanInvitationRow(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}

	inv.GroupIDs, err = r.groupIDsFor(ctx, inv.ID)
	if err != nil {
		return domain.Invitation{}, err
	}
	return inv, nil
}

func (r *invitationsRepo) groupIDsFor(ctx context.Context, invitationID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_id FROM invitation_groups WHERE invitation_id = ? ORDER BY group_id`,
		invitationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
