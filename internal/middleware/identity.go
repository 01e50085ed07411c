package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a device identifier extraction function that
// reads the device UUID placed in the Echo context by DeviceAuth. When
// no token was presented, "anon" is returned and the rate limiter
// falls back to keying on the client IP.

import (
    "github.com/labstack/echo/v4"
)

// deviceID extracts the authenticated device identifier from the
// context. It returns "anon" when no device token was presented.
func deviceID(c echo.Context) string {
    if v := c.Get("device_id"); v != nil {
        if s, ok := v.(string); ok && s != "" {
            return s
        }
    }
    return "anon"
}
