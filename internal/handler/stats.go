package handler

import (
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/arclive/gym-occupancy/internal/service"
)

// StatsHandler exposes the gym-wide and per-device statistics
// endpoints.  Both are pure reads over the visit history; neither
// takes locks, so a response may trail concurrent writes by a moment.
type StatsHandler struct {
    Stats *service.StatsService
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
    if stats == nil {
        panic("nil service passed to NewStatsHandler")
    }
    return &StatsHandler{Stats: stats}
}

// Gym handles GET /v1/stats/gym.  It returns peak hours (per-day
// averages over the past 30 days, sparse: hours without check-ins
// are omitted), the distinct-device headcount per day over the past
// week, and the 30-day exercise breakdown with all five categories
// always present.
func (h *StatsHandler) Gym(c echo.Context) error {
    stats, err := h.Stats.GymStats(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, stats)
}

// Me handles GET /v1/stats/me.  The device is identified by the
// device_id query parameter, or by the device token when one was
// presented.  Returns totals, the favourite exercise, the current
// visit streak and the 20 most recent visits.
func (h *StatsHandler) Me(c echo.Context) error {
    deviceID, err := resolveDeviceID(c, c.QueryParam("device_id"))
    if err != nil || deviceID == uuid.Nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device id"})
    }
    stats, err := h.Stats.PersonalStats(c.Request().Context(), deviceID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, stats)
}
