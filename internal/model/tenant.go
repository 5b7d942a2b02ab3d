package model

import "time"

// Tenant is an operator running one or more properties on the
// platform. Requests are resolved to a tenant before any booking
// lookup so codes from one operator can never address another's
// records.
//
// Fields:
//  ID        – primary key identifier.
//  Slug      – short identifier usable in the X-Tenant header.
//  Domain    – hostname the tenant's booking pages are served from.
//  CreatedAt – creation timestamp.
type Tenant struct {
	ID        uint64    // tenants.id
	Slug      string    // tenants.slug
	Domain    string    // tenants.domain
	CreatedAt time.Time // tenants.created_at
}
