// Package router defines how HTTP routes are registered for the API.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/arclive/gym-occupancy/internal/handler"
    "github.com/arclive/gym-occupancy/internal/middleware"
)

// RegisterRoutes registers routes that need no rate limiting or
// caching on the provided Echo instance.  Currently it exposes only a
// health check, used by load balancers and monitoring systems to
// verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterVisits registers the visit lifecycle endpoints.  The
// DeviceAuth middleware resolves an optional bearer device token
// before the rate limiter runs, so authenticated devices are limited
// by identity rather than by whatever IP the gym's NAT presents.
func RegisterVisits(e *echo.Echo, v *handler.VisitHandler, secret string, limiter echo.MiddlewareFunc) {
    g := e.Group("/v1")
    g.Use(middleware.DeviceAuth(secret))
    g.Use(limiter)
    // Open a visit for a device. 201 on success, 409 while an open
    // visit already exists for the device.
    g.POST("/checkin", v.CheckIn)
    // Close the device's open visit. 404 when there is none.
    g.POST("/checkout", v.CheckOut)
}

// RegisterReads registers the read-side endpoints: live occupancy and
// the statistics views.  Responses are cached briefly in Redis; the
// cache middleware degrades to a pass-through when Redis is down.
func RegisterReads(e *echo.Echo, o *handler.OccupancyHandler, s *handler.StatsHandler, secret string, limiter, cache echo.MiddlewareFunc) {
    g := e.Group("/v1")
    g.Use(middleware.DeviceAuth(secret))
    g.Use(limiter)
    g.Use(cache)
    // Current number of devices checked in, with exercise partition.
    g.GET("/occupancy", o.Get)
    // Gym-wide statistics: peak hours, daily headcount, breakdown.
    g.GET("/stats/gym", s.Gym)
    // Per-device statistics: totals, favourite exercise, streak,
    // recent visits. Device comes from ?device_id= or the token.
    g.GET("/stats/me", s.Me)
}

// RegisterDevices registers device-token issuance.  Registration is
// rate limited but never cached.
func RegisterDevices(e *echo.Echo, d *handler.DeviceHandler, limiter echo.MiddlewareFunc) {
    g := e.Group("/v1/devices")
    g.Use(limiter)
    g.POST("/register", d.Register)
}
