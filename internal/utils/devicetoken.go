// Package utils provides helper functions for device token creation
// and verification. Devices carry no user credentials; their identity
// is an opaque UUID embedded in an HMAC-signed token so that a client
// can omit the device_id from request payloads and the rate limiter
// can key on a stable identity instead of an IP address.
package utils

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// DeviceToken represents a signed JWT identifying one device along
// with its expiry. The Token field contains the serialized JWT string.
type DeviceToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewDeviceToken builds and signs an HS256 JWT for a device. The JWT
// includes standard claims: subject (sub) set to the device UUID,
// expiration (exp) and issued at (iat).
func NewDeviceToken(secret string, deviceID uuid.UUID, ttlDays int) (DeviceToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    claims := jwt.MapClaims{
        "sub": deviceID.String(),
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return DeviceToken{}, err
    }
    return DeviceToken{Token: signed, Exp: exp}, nil
}

// ParseDeviceToken verifies the signature and expiry of a device token
// and returns the embedded device UUID. Only HMAC-signed tokens are
// accepted; any other signing method is rejected.
func ParseDeviceToken(secret, raw string) (uuid.UUID, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, errors.New("unexpected signing method")
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return uuid.Nil, errors.New("invalid device token")
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return uuid.Nil, errors.New("invalid device token claims")
    }
    sub, ok := claims["sub"].(string)
    if !ok || sub == "" {
        return uuid.Nil, errors.New("device token missing subject")
    }
    id, err := uuid.Parse(sub)
    if err != nil {
        return uuid.Nil, errors.New("device token subject is not a UUID")
    }
    return id, nil
}
