package middleware

// tenant.go resolves every request to a tenant before any booking
// lookup runs. The resolver is a narrow interface so handlers and
// tests never see the backing store. Resolution order: an explicit
// X-Tenant slug header, then the request host. Unknown tenants are
// a 404; a tenant must exist before any other routing decision.

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/repository"
)

// TenantResolver maps a request host or slug to a tenant.
// *repository.TenantRepo satisfies it.
type TenantResolver interface {
	Resolve(ctx context.Context, hostOrSlug string) (*model.Tenant, error)
}

// TenantResolve returns middleware that stores the resolved
// tenant's id and slug in the request context under "tenant_id"
// and "tenant_slug".
func TenantResolve(r TenantResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get("X-Tenant")
			if key == "" {
				key = c.Request().Host
			}
			t, err := r.Resolve(c.Request().Context(), key)
			if err != nil {
				if errors.Is(err, repository.ErrTenantNotFound) {
					return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown tenant"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant resolution failed"})
			}
			c.Set("tenant_id", t.ID)
			c.Set("tenant_slug", t.Slug)
			return next(c)
		}
	}
}

// TenantID extracts the tenant id placed in context by
// TenantResolve. The second return is false when the middleware
// did not run for this route.
func TenantID(c echo.Context) (uint64, bool) {
	v, ok := c.Get("tenant_id").(uint64)
	return v, ok
}
