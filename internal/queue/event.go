// Package queue defines the message payloads exchanged over the broker
// and the background consumer that mirrors closed visits to logs/visits.log.
package queue

// VisitClosedEvent is published whenever a visit transitions to
// closed, either by an explicit check-out or by the expiry sweeper.
// It carries enough information for downstream consumers to log or
// feed analytics without querying the primary database.
type VisitClosedEvent struct {
    VisitID         string  `json:"visit_id"`
    DeviceID        string  `json:"device_id"`
    ExerciseType    *string `json:"exercise_type,omitempty"`
    CheckInTime     string  `json:"check_in_time"`
    CheckOutTime    string  `json:"check_out_time"`
    DurationMinutes int     `json:"duration_minutes"`
    Reason          string  `json:"reason"` // "checkout" or "expired"
}

// Close reasons recorded on VisitClosedEvent.
const (
    CloseReasonCheckout = "checkout"
    CloseReasonExpired  = "expired"
)
