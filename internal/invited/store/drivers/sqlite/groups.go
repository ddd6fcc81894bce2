package sqlite

import (
	"context"

	"github.com/openoak/invited/internal/invited/domain"
	"github.com/openoak/invited/internal/invited/store"
)

type groupsRepo struct {
	db dbtx
}

func (r *groupsRepo) CreateGroup(ctx context.Context, g domain.Group) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)`,
		g.ID, g.Name, g.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "groups.name") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *groupsRepo) GetGroupsByIDs(ctx context.Context, ids []string) ([]domain.Group, error) {
	out := make([]domain.Group, 0, len(ids))
	for _, id := range ids {
		row := r.db.QueryRowContext(ctx, `
			SELECT id, name, created_at FROM groups WHERE id = ?`, id)

		var g domain.Group
		if err := row.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, mapNotFound(err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *groupsRepo) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
