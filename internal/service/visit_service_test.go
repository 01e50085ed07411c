package service

import (
    "context"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/require"

    "github.com/arclive/gym-occupancy/internal/model"
    q "github.com/arclive/gym-occupancy/internal/queue"
    "github.com/arclive/gym-occupancy/internal/repository"
)

// stubVisitStore records lifecycle calls and plays back canned results.
type stubVisitStore struct {
    createErr   error
    created     []model.Visit
    checkoutErr error
    checkedOut  *model.Visit
    expired     []model.Visit
    expireErr   error
    expireCalls int
    lastCutoff  time.Time
}

func (s *stubVisitStore) Create(_ context.Context, deviceID uuid.UUID, exercise *model.ExerciseType, checkIn time.Time) (*model.Visit, error) {
    if s.createErr != nil {
        return nil, s.createErr
    }
    v := model.Visit{ID: uuid.New(), DeviceID: deviceID, CheckInTime: checkIn, ExerciseType: exercise}
    s.created = append(s.created, v)
    return &v, nil
}

func (s *stubVisitStore) CheckOut(_ context.Context, deviceID uuid.UUID, checkOut time.Time) (*model.Visit, error) {
    if s.checkoutErr != nil {
        return nil, s.checkoutErr
    }
    v := *s.checkedOut
    v.DeviceID = deviceID
    out := checkOut
    v.CheckOutTime = &out
    return &v, nil
}

func (s *stubVisitStore) ExpireBefore(_ context.Context, cutoff, closedAt time.Time) ([]model.Visit, error) {
    s.expireCalls++
    s.lastCutoff = cutoff
    if s.expireErr != nil {
        return nil, s.expireErr
    }
    out := make([]model.Visit, len(s.expired))
    copy(out, s.expired)
    for i := range out {
        t := closedAt
        out[i].CheckOutTime = &t
    }
    return out, nil
}

// stubPublisher collects published events.
type stubPublisher struct {
    events []q.VisitClosedEvent
    err    error
}

func (p *stubPublisher) PublishVisitClosed(_ context.Context, ev q.VisitClosedEvent) error {
    p.events = append(p.events, ev)
    return p.err
}

func TestCheckInPassesConflictThrough(t *testing.T) {
    store := &stubVisitStore{createErr: repository.ErrDeviceCheckedIn}
    svc := NewVisitService(store, nil)

    _, err := svc.CheckIn(context.Background(), uuid.New(), nil)
    require.ErrorIs(t, err, repository.ErrDeviceCheckedIn)
}

func TestCheckInStampsUTCNow(t *testing.T) {
    now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
    store := &stubVisitStore{}
    svc := NewVisitService(store, nil)
    svc.now = func() time.Time { return now }

    legs := model.ExerciseLegs
    visit, err := svc.CheckIn(context.Background(), uuid.New(), &legs)
    require.NoError(t, err)
    require.Equal(t, now, visit.CheckInTime)
    require.Nil(t, visit.CheckOutTime)
    require.Equal(t, model.ExerciseLegs, *visit.ExerciseType)
}

func TestCheckOutPublishesClosedEvent(t *testing.T) {
    now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
    cardio := model.ExerciseCardio
    store := &stubVisitStore{
        checkedOut: &model.Visit{
            ID:           uuid.New(),
            CheckInTime:  now.Add(-45 * time.Minute),
            ExerciseType: &cardio,
        },
    }
    pub := &stubPublisher{}
    svc := NewVisitService(store, pub)
    svc.now = func() time.Time { return now }

    visit, err := svc.CheckOut(context.Background(), uuid.New())
    require.NoError(t, err)
    require.NotNil(t, visit.CheckOutTime)

    require.Len(t, pub.events, 1)
    ev := pub.events[0]
    require.Equal(t, q.CloseReasonCheckout, ev.Reason)
    require.Equal(t, 45, ev.DurationMinutes)
    require.NotNil(t, ev.ExerciseType)
    require.Equal(t, "cardio", *ev.ExerciseType)
}

func TestCheckOutNoActiveVisitPublishesNothing(t *testing.T) {
    store := &stubVisitStore{checkoutErr: repository.ErrNoActiveVisit}
    pub := &stubPublisher{}
    svc := NewVisitService(store, pub)

    _, err := svc.CheckOut(context.Background(), uuid.New())
    require.ErrorIs(t, err, repository.ErrNoActiveVisit)
    require.Empty(t, pub.events)
}

func TestCheckOutSurvivesPublishFailure(t *testing.T) {
    store := &stubVisitStore{checkedOut: &model.Visit{ID: uuid.New(), CheckInTime: time.Now().UTC()}}
    pub := &stubPublisher{err: context.DeadlineExceeded}
    svc := NewVisitService(store, pub)

    visit, err := svc.CheckOut(context.Background(), uuid.New())
    require.NoError(t, err, "publish failure must not fail the checkout")
    require.NotNil(t, visit.CheckOutTime)
}
