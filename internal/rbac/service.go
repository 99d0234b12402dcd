package rbac

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service resolves roles and permissions from PostgreSQL.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// EffectivePermissions returns the lower-cased permission names granted to a
// user through any of its roles.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.names(ctx, `SELECT DISTINCT LOWER(p.name)
FROM user_roles ur
JOIN role_permissions rp ON rp.role_id = ur.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = $1
ORDER BY 1`, userID)
}

// Roles returns the lower-cased role names of a user.
func (s *Service) Roles(ctx context.Context, userID int64) ([]string, error) {
	return s.names(ctx, `SELECT LOWER(r.name)
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = $1
ORDER BY 1`, userID)
}

// HasAny reports whether the user holds at least one of perms.
func (s *Service) HasAny(ctx context.Context, userID int64, perms ...string) (bool, error) {
	granted, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return hasAny(granted, normalize(perms)), nil
}

// Grants resolves roles and permissions together.
func (s *Service) Grants(ctx context.Context, userID int64) (Grants, error) {
	roles, err := s.Roles(ctx, userID)
	if err != nil {
		return Grants{}, err
	}
	perms, err := s.EffectivePermissions(ctx, userID)
	if err != nil {
		return Grants{}, err
	}
	return Grants{UserID: userID, Roles: roles, Permissions: perms}, nil
}

// ListPermissions returns all known permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, COALESCE(description, '') FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		var p Permission
		err := row.Scan(&p.ID, &p.Name, &p.Description)
		return p, err
	})
}

func (s *Service) names(ctx context.Context, query string, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names, nil
}
