package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/stay-reservation/internal/config"
	"github.com/iliyamo/stay-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/stay-reservation/internal/middleware" // import middleware for tenant resolution and rate limiting
)

// RegisterRoutes registers routes that do not require tenant
// resolution on the provided Echo instance. Currently it exposes
// only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterGuest registers the guest self-service endpoints. All of
// them run behind tenant resolution; the session-lookup endpoint is
// additionally rate limited because booking codes are the only
// credential a caller needs to present there.
func RegisterGuest(e *echo.Echo, g *handler.GuestHandler, resolver middleware.TenantResolver, rdb *redis.Client) {
	guest := e.Group("/v1/guest")
	guest.Use(middleware.TenantResolve(resolver))
	guest.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Exchange a public booking code for a session token.
	guest.POST("/session", g.BeginSession)
	// Perform a self-service action against the session's booking.
	// The action segment is one of: cancel, modify, retry-payment,
	// upgrade-account.
	guest.POST("/:action", g.Action)
}

// RegisterPublic registers unauthenticated browse endpoints. The
// quote preview is pure computation over stored pricing config, so
// its responses are served through the Redis response cache.
func RegisterPublic(e *echo.Echo, q *handler.QuoteHandler, resolver middleware.TenantResolver, rdb *redis.Client) {
	pub := e.Group("/v1/properties")
	pub.Use(middleware.TenantResolve(resolver))
	pub.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Itemized price preview for a date range and guest count.
	pub.GET("/:id/quote", q.GetQuote)
}
