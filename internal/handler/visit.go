package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/arclive/gym-occupancy/internal/model"
    "github.com/arclive/gym-occupancy/internal/repository"
    "github.com/arclive/gym-occupancy/internal/service"
)

// VisitHandler exposes the check-in and check-out endpoints.  The
// handler is deliberately thin: request parsing and status mapping
// live here, every lifecycle rule lives in the service and below it
// in the store's constraints.
type VisitHandler struct {
    Visits *service.VisitService
}

// NewVisitHandler constructs a VisitHandler.  The service must be
// non-nil.
func NewVisitHandler(visits *service.VisitService) *VisitHandler {
    if visits == nil {
        panic("nil service passed to NewVisitHandler")
    }
    return &VisitHandler{Visits: visits}
}

// visitResponse is the JSON shape of a visit returned by check-in and
// check-out.  DurationMinutes is null while the visit is open.
type visitResponse struct {
    ID              uuid.UUID  `json:"id"`
    DeviceID        uuid.UUID  `json:"device_id"`
    CheckInTime     time.Time  `json:"check_in_time"`
    CheckOutTime    *time.Time `json:"check_out_time"`
    ExerciseType    *string    `json:"exercise_type"`
    DurationMinutes *int       `json:"duration_minutes"`
}

func toVisitResponse(v *model.Visit) visitResponse {
    var exercise *string
    if v.ExerciseType != nil {
        ex := string(*v.ExerciseType)
        exercise = &ex
    }
    return visitResponse{
        ID:              v.ID,
        DeviceID:        v.DeviceID,
        CheckInTime:     v.CheckInTime,
        CheckOutTime:    v.CheckOutTime,
        ExerciseType:    exercise,
        DurationMinutes: v.DurationMinutes(),
    }
}

// CheckIn handles POST /v1/checkin.  The body may carry a device_id
// and an optional exercise_type; a device authenticated with a device
// token may omit the device_id entirely.  Returns 201 with the new
// open visit, 409 when the device already has one, or 400 for
// malformed input.
func (h *VisitHandler) CheckIn(c echo.Context) error {
    var body struct {
        DeviceID     string  `json:"device_id"`
        ExerciseType *string `json:"exercise_type"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    deviceID, err := resolveDeviceID(c, body.DeviceID)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device id"})
    }
    var exercise *model.ExerciseType
    if body.ExerciseType != nil && *body.ExerciseType != "" {
        if !model.ValidExerciseType(*body.ExerciseType) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown exercise type"})
        }
        ex := model.ExerciseType(*body.ExerciseType)
        exercise = &ex
    }

    visit, err := h.Visits.CheckIn(c.Request().Context(), deviceID, exercise)
    if err != nil {
        if errors.Is(err, repository.ErrDeviceCheckedIn) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "device is already checked in"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusCreated, toVisitResponse(visit))
}

// CheckOut handles POST /v1/checkout.  Returns 200 with the closed
// visit including its duration, or 404 when no open visit exists for
// the device, which is also what the loser of two concurrent
// check-outs observes.
func (h *VisitHandler) CheckOut(c echo.Context) error {
    var body struct {
        DeviceID string `json:"device_id"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    deviceID, err := resolveDeviceID(c, body.DeviceID)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device id"})
    }

    visit, err := h.Visits.CheckOut(c.Request().Context(), deviceID)
    if err != nil {
        if errors.Is(err, repository.ErrNoActiveVisit) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no active visit found for this device"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, toVisitResponse(visit))
}

// resolveDeviceID picks the device identity for a request: the UUID
// injected by the DeviceAuth middleware wins, otherwise the value
// supplied by the caller is parsed.  An empty result is an error:
// every visit operation is scoped to exactly one device.
func resolveDeviceID(c echo.Context, fromBody string) (uuid.UUID, error) {
    if v := c.Get("device_id"); v != nil {
        if s, ok := v.(string); ok && s != "" {
            return uuid.Parse(s)
        }
    }
    return uuid.Parse(fromBody)
}
