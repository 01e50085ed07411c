package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/arclive/gym-occupancy/internal/utils"
)

// DeviceAuth returns an Echo middleware that validates an optional
// Bearer device token and injects the token's device UUID into the
// request context under "device_id". Requests without an
// Authorization header pass through untouched (callers may still
// supply device_id in the payload), but a header that is present and
// invalid is rejected with 401 so a client with a broken token fails
// loudly instead of silently falling back to anonymous rate limits.
func DeviceAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if auth == "" {
                return next(c)
            }
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "malformed authorization header"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")
            deviceID, err := utils.ParseDeviceToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid device token"})
            }
            c.Set("device_id", deviceID.String())
            return next(c)
        }
    }
}
