// Package repository defines error types that are reused across the
// store layer. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. ErrDeviceCheckedIn and ErrNoActiveVisit are expected,
// user-facing conditions; anything else bubbling out of the store is
// treated as a system fault.
package repository

import "errors"

// ErrDeviceCheckedIn is returned when a check-in is attempted while
// the device already has an open visit. The open-visit uniqueness
// constraint rejects the insert; handlers should translate this into
// an HTTP 409 response.
var ErrDeviceCheckedIn = errors.New("device already checked in")

// ErrNoActiveVisit is returned when a check-out finds no open visit
// for the device, including the case where a concurrent check-out or
// the expiry sweeper committed the close first. Handlers should
// translate this into an HTTP 404 response.
var ErrNoActiveVisit = errors.New("no active visit for device")
