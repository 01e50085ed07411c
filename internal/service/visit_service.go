package service

import (
    "context"
    "time"

    "github.com/google/uuid"

    "github.com/arclive/gym-occupancy/internal/model"
    q "github.com/arclive/gym-occupancy/internal/queue"
)

// VisitStore is the slice of the visit store the lifecycle engine and
// the expiry sweeper depend on. repository.VisitRepo implements it;
// tests substitute stubs.
type VisitStore interface {
    // Create inserts a new open visit, returning
    // repository.ErrDeviceCheckedIn when the device already has one.
    Create(ctx context.Context, deviceID uuid.UUID, exercise *model.ExerciseType, checkIn time.Time) (*model.Visit, error)
    // CheckOut closes the device's open visit, returning
    // repository.ErrNoActiveVisit when there is none.
    CheckOut(ctx context.Context, deviceID uuid.UUID, checkOut time.Time) (*model.Visit, error)
    // ExpireBefore force-closes every open visit older than cutoff as
    // a single batch and returns the visits it closed.
    ExpireBefore(ctx context.Context, cutoff, closedAt time.Time) ([]model.Visit, error)
}

// VisitService is the visit lifecycle engine. Each device moves
// through no-visit -> open -> closed; closed is terminal and a new
// check-in starts a fresh record. All cross-request coordination is
// delegated to the store's transactional guarantees; the service
// holds no in-process locks, because multiple instances may run
// against the same database.
type VisitService struct {
    store  VisitStore
    events EventPublisher
    now    func() time.Time
}

// NewVisitService constructs a VisitService. The events publisher may
// be nil, in which case close events are simply not emitted.
func NewVisitService(store VisitStore, events EventPublisher) *VisitService {
    return &VisitService{
        store:  store,
        events: events,
        now:    func() time.Time { return time.Now().UTC() },
    }
}

// CheckIn opens a new visit for the device. A device that already has
// an open visit gets repository.ErrDeviceCheckedIn back untouched:
// that is an expected condition surfaced to the caller, never retried,
// since a retry could mask a legitimate conflict.
func (s *VisitService) CheckIn(ctx context.Context, deviceID uuid.UUID, exercise *model.ExerciseType) (*model.Visit, error) {
    return s.store.Create(ctx, deviceID, exercise, s.now())
}

// CheckOut closes the device's open visit at the current time and
// publishes a visit.closed event best-effort. Repeated check-outs
// after the first are safe: closing is a one-way transition guarded by
// the row lock, so later attempts see repository.ErrNoActiveVisit and
// the recorded check-out time is never altered.
func (s *VisitService) CheckOut(ctx context.Context, deviceID uuid.UUID) (*model.Visit, error) {
    visit, err := s.store.CheckOut(ctx, deviceID, s.now())
    if err != nil {
        return nil, err
    }
    s.publishClosed(ctx, visit, q.CloseReasonCheckout)
    return visit, nil
}

// publishClosed emits a visit.closed event for an already-committed
// close. Publish failures are logged by the publisher and dropped
// here; the transition itself has already happened.
func (s *VisitService) publishClosed(ctx context.Context, v *model.Visit, reason string) {
    if s.events == nil || v == nil || v.CheckOutTime == nil {
        return
    }
    var exercise *string
    if v.ExerciseType != nil {
        ex := string(*v.ExerciseType)
        exercise = &ex
    }
    duration := 0
    if d := v.DurationMinutes(); d != nil {
        duration = *d
    }
    _ = s.events.PublishVisitClosed(ctx, q.VisitClosedEvent{
        VisitID:         v.ID.String(),
        DeviceID:        v.DeviceID.String(),
        ExerciseType:    exercise,
        CheckInTime:     v.CheckInTime.Format(time.RFC3339),
        CheckOutTime:    v.CheckOutTime.Format(time.RFC3339),
        DurationMinutes: duration,
        Reason:          reason,
    })
}
