package model

import "time"

// Property is a bookable listing owned by a tenant. Its pricing
// columns feed the pricing engine; the engine itself never reads
// the database.
//
// Fields:
//  ID        – primary key identifier.
//  TenantID  – owning tenant.
//  Name      – display name.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Property struct {
	ID        uint64    // properties.id
	TenantID  uint64    // properties.tenant_id
	Name      string    // properties.name
	CreatedAt time.Time // properties.created_at
	UpdatedAt time.Time // properties.updated_at
}
