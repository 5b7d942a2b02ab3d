package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/stay-reservation/internal/model"
)

// TenantRepo resolves requests to tenants. Resolution happens once
// per request, before any booking lookup, so records of different
// operators stay isolated.
type TenantRepo struct {
	db *sql.DB
}

// NewTenantRepo returns a new TenantRepo bound to the given database.
func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{db: db} }

// Resolve maps a request host (or an X-Tenant slug override) to a
// tenant. The host is matched without its port; slugs are matched
// case-insensitively.
func (r *TenantRepo) Resolve(ctx context.Context, hostOrSlug string) (*model.Tenant, error) {
	key := strings.ToLower(strings.TrimSpace(hostOrSlug))
	if i := strings.IndexByte(key, ':'); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return nil, ErrTenantNotFound
	}
	const q = `SELECT id, slug, domain, created_at FROM tenants WHERE domain = ? OR slug = ? LIMIT 1`
	var t model.Tenant
	err := r.db.QueryRowContext(ctx, q, key, key).Scan(&t.ID, &t.Slug, &t.Domain, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}
