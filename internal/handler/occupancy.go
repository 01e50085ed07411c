package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/arclive/gym-occupancy/internal/service"
)

// OccupancyHandler exposes the live occupancy endpoint.
type OccupancyHandler struct {
    Stats *service.StatsService
}

// NewOccupancyHandler constructs an OccupancyHandler.
func NewOccupancyHandler(stats *service.StatsService) *OccupancyHandler {
    if stats == nil {
        panic("nil service passed to NewOccupancyHandler")
    }
    return &OccupancyHandler{Stats: stats}
}

// Get handles GET /v1/occupancy.  It returns the number of devices
// currently checked in along with the per-exercise partition of the
// open visits.  The count is derived from the open-row index, so it
// stays cheap no matter how much visit history accumulates.
func (h *OccupancyHandler) Get(c echo.Context) error {
    occ, err := h.Stats.Occupancy(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, occ)
}
