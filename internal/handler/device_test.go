package handler

import (
    "encoding/json"
    "net/http"
    "testing"

    "github.com/google/uuid"
    "github.com/stretchr/testify/require"

    "github.com/arclive/gym-occupancy/internal/utils"
)

func TestRegisterMintsNewDevice(t *testing.T) {
    h := NewDeviceHandler("test-secret", 30)

    rec := postJSON(t, h.Register, "/v1/devices/register", `{}`)
    require.Equal(t, http.StatusCreated, rec.Code)

    var resp struct {
        DeviceID string `json:"device_id"`
        Token    string `json:"token"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

    deviceID, err := uuid.Parse(resp.DeviceID)
    require.NoError(t, err)

    parsed, err := utils.ParseDeviceToken("test-secret", resp.Token)
    require.NoError(t, err)
    require.Equal(t, deviceID, parsed)
}

func TestRegisterKeepsSuppliedDeviceID(t *testing.T) {
    h := NewDeviceHandler("test-secret", 30)
    deviceID := uuid.New()

    rec := postJSON(t, h.Register, "/v1/devices/register", `{"device_id":"`+deviceID.String()+`"}`)
    require.Equal(t, http.StatusCreated, rec.Code)

    var resp struct {
        DeviceID string `json:"device_id"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    require.Equal(t, deviceID.String(), resp.DeviceID)
}

func TestRegisterRejectsBadDeviceID(t *testing.T) {
    h := NewDeviceHandler("test-secret", 30)

    rec := postJSON(t, h.Register, "/v1/devices/register", `{"device_id":"nope"}`)
    require.Equal(t, http.StatusBadRequest, rec.Code)
}
