package model

import (
    "time"

    "github.com/google/uuid"
)

// ExerciseType is the categorical label a device may attach to a visit
// at check-in.  The set is fixed; anything outside it is rejected at
// the transport boundary before reaching the store.
type ExerciseType string

const (
    ExerciseChest  ExerciseType = "chest"
    ExerciseBack   ExerciseType = "back"
    ExerciseLegs   ExerciseType = "legs"
    ExerciseArms   ExerciseType = "arms"
    ExerciseCardio ExerciseType = "cardio"
)

// ExerciseTypes lists all known exercise categories in the order they
// are reported by the breakdown endpoints.
var ExerciseTypes = []ExerciseType{
    ExerciseChest, ExerciseBack, ExerciseLegs, ExerciseArms, ExerciseCardio,
}

// ValidExerciseType reports whether s is one of the known categories.
func ValidExerciseType(s string) bool {
    for _, t := range ExerciseTypes {
        if string(t) == s {
            return true
        }
    }
    return false
}

// Visit records a single interval of device presence in the gym.  A
// visit is open while CheckOutTime is nil and closed once it is set;
// closing is a one-way transition.  At most one open visit may exist
// per device at any instant; the store enforces this with a
// uniqueness constraint scoped to open rows.
//
// Fields:
//  ID           – primary key, assigned at creation.
//  DeviceID     – device that checked in; unique among open visits only.
//  CheckInTime  – set at creation, immutable, UTC.
//  CheckOutTime – nil while the visit is open; set exactly once on
//                 check-out or expiry, never cleared.
//  ExerciseType – optional category chosen at check-in, immutable.
type Visit struct {
    ID           uuid.UUID     // visits.id
    DeviceID     uuid.UUID     // visits.device_id
    CheckInTime  time.Time     // visits.check_in_time
    CheckOutTime *time.Time    // visits.check_out_time (nullable)
    ExerciseType *ExerciseType // visits.exercise_type (nullable)
}

// Open reports whether the visit has not been checked out yet.
func (v *Visit) Open() bool { return v.CheckOutTime == nil }

// DurationMinutes returns the whole minutes between check-in and
// check-out, or nil while the visit is still open.
func (v *Visit) DurationMinutes() *int {
    if v.CheckOutTime == nil {
        return nil
    }
    m := int(v.CheckOutTime.Sub(v.CheckInTime) / time.Minute)
    return &m
}
