package handler

import (
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/arclive/gym-occupancy/internal/utils"
)

// DeviceHandler issues device tokens.  Registration is anonymous: a
// device that does not supply its own UUID gets a fresh one.  The
// token lets clients call check-in/check-out without repeating the
// device_id and gives the rate limiter a stable identity to key on.
type DeviceHandler struct {
    Secret  string // HMAC secret shared with the DeviceAuth middleware
    TTLDays int    // token lifetime in days
}

// NewDeviceHandler constructs a DeviceHandler.
func NewDeviceHandler(secret string, ttlDays int) *DeviceHandler {
    return &DeviceHandler{Secret: secret, TTLDays: ttlDays}
}

// Register handles POST /v1/devices/register.  The optional body may
// carry an existing device_id (e.g. a phone re-registering after a
// reinstall); otherwise a new UUID is minted.  Returns 201 with the
// device_id, the signed token and its expiry.
func (h *DeviceHandler) Register(c echo.Context) error {
    var body struct {
        DeviceID string `json:"device_id"`
    }
    // An empty body is fine; only reject bodies that fail to parse.
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    deviceID := uuid.New()
    if body.DeviceID != "" {
        parsed, err := uuid.Parse(body.DeviceID)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device id"})
        }
        deviceID = parsed
    }
    token, err := utils.NewDeviceToken(h.Secret, deviceID, h.TTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue device token"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "device_id":  deviceID.String(),
        "token":      token.Token,
        "expires_at": token.Exp.Format(time.RFC3339),
    })
}
