package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/arclive/gym-occupancy/internal/utils"
)

const testSecret = "test-secret"

func runDeviceAuth(t *testing.T, authorization string) (echo.Context, *httptest.ResponseRecorder, error) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/checkin", nil)
    if authorization != "" {
        req.Header.Set("Authorization", authorization)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    err := DeviceAuth(testSecret)(next)(c)
    return c, rec, err
}

func TestDeviceAuthInjectsDeviceID(t *testing.T) {
    deviceID := uuid.New()
    tok, err := utils.NewDeviceToken(testSecret, deviceID, 1)
    require.NoError(t, err)

    c, rec, err := runDeviceAuth(t, "Bearer "+tok.Token)
    require.NoError(t, err)
    require.Equal(t, http.StatusOK, rec.Code)
    require.Equal(t, deviceID.String(), c.Get("device_id"))
}

func TestDeviceAuthPassesThroughWithoutHeader(t *testing.T) {
    c, rec, err := runDeviceAuth(t, "")
    require.NoError(t, err)
    require.Equal(t, http.StatusOK, rec.Code)
    require.Nil(t, c.Get("device_id"))
}

func TestDeviceAuthRejectsBadToken(t *testing.T) {
    _, rec, err := runDeviceAuth(t, "Bearer garbage")
    require.NoError(t, err)
    require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeviceAuthRejectsMalformedHeader(t *testing.T) {
    _, rec, err := runDeviceAuth(t, "Token abc")
    require.NoError(t, err)
    require.Equal(t, http.StatusUnauthorized, rec.Code)
}
