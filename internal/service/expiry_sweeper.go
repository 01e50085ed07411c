package service

import (
    "context"
    "log"
    "time"

    q "github.com/arclive/gym-occupancy/internal/queue"
)

// Sweeper force-closes visits that have been open longer than MaxAge,
// on a fixed interval, for the lifetime of the process. It exists
// because devices leave the gym without checking out; without it, open
// visits would accumulate and the occupancy count would drift upward
// forever.
//
// The sweeper is owned by process lifecycle: main starts it once at
// boot and cancels its context at shutdown. A failed tick is logged
// and swallowed; the loop always re-arms for the next interval, so
// a transient store outage heals itself on the next tick without any
// in-tick retry.
type Sweeper struct {
    store    VisitStore
    events   EventPublisher
    interval time.Duration
    maxAge   time.Duration
    now      func() time.Time
}

// NewSweeper constructs a Sweeper. interval is how often to sweep,
// maxAge is the open-visit duration threshold beyond which a visit is
// force-closed. The events publisher may be nil.
func NewSweeper(store VisitStore, events EventPublisher, interval, maxAge time.Duration) *Sweeper {
    return &Sweeper{
        store:    store,
        events:   events,
        interval: interval,
        maxAge:   maxAge,
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// Run blocks until ctx is cancelled, sweeping once per interval. The
// first sweep happens after one full interval, not at startup, so a
// crash-looping process does not hammer the store.
func (s *Sweeper) Run(ctx context.Context) {
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()
    log.Printf("sweeper: running every %s, closing visits open longer than %s", s.interval, s.maxAge)
    for {
        select {
        case <-ctx.Done():
            log.Printf("sweeper: stopping: %v", ctx.Err())
            return
        case <-ticker.C:
            s.sweep(ctx)
        }
    }
}

// sweep performs one tick: close every visit that has been open longer
// than maxAge, as a single batch, stamped with the current time. Any
// error is logged and dropped; the next tick retries naturally.
func (s *Sweeper) sweep(ctx context.Context) {
    now := s.now()
    cutoff := now.Add(-s.maxAge)
    closed, err := s.store.ExpireBefore(ctx, cutoff, now)
    if err != nil {
        log.Printf("sweeper: tick failed: %v", err)
        return
    }
    if len(closed) == 0 {
        return
    }
    log.Printf("sweeper: force-closed %d stale visit(s)", len(closed))
    if s.events == nil {
        return
    }
    for i := range closed {
        v := closed[i]
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
            Reason:          q.CloseReasonExpired,
        })
    }
}
