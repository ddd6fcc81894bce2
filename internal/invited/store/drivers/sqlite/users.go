package sqlite

import (
	"context"
	"database/sql"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, password_hash, staff, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, staff, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, boolToInt(u.Staff),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") || isUniqueViolation(err, "users.email") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *usersRepo) AddUserToGroups(ctx context.Context, userID string, groupIDs []string) error {
	for _, groupID := range groupIDs {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)`,
			userID, groupID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u     domain.User
		staff int
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &staff, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Staff = staff == 1
	return u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
