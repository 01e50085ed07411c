package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/arclive/gym-occupancy/internal/model"
)

// StatsRepo provides the read-side aggregate queries over the visits
// table. None of the queries take locks: statistics tolerate
// concurrent writes and a snapshot-at-read answer is acceptable.
type StatsRepo struct {
    db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// HourCount pairs an hour of day (0-23, UTC) with a raw check-in count.
type HourCount struct {
    Hour  int
    Count int
}

// DateCount pairs a calendar date (UTC) with a distinct-device count.
type DateCount struct {
    Date  time.Time
    Count int
}

// CheckinsByHour groups check-ins since the given time by UTC
// hour-of-day. Hours without any check-in produce no row; the sparse
// shape is preserved all the way to the API response.
func (r *StatsRepo) CheckinsByHour(ctx context.Context, since time.Time) ([]HourCount, error) {
    const q = `SELECT HOUR(check_in_time) AS h, COUNT(*)
               FROM visits
               WHERE check_in_time > ?
               GROUP BY h
               ORDER BY h`
    rows, err := r.db.QueryContext(ctx, q, since.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []HourCount
    for rows.Next() {
        var hc HourCount
        if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
            return nil, err
        }
        out = append(out, hc)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// HeadcountByDate counts distinct devices per calendar date since the
// given time. A device checking in twice on one day counts once.
func (r *StatsRepo) HeadcountByDate(ctx context.Context, since time.Time) ([]DateCount, error) {
    const q = `SELECT DATE(check_in_time) AS d, COUNT(DISTINCT device_id)
               FROM visits
               WHERE check_in_time > ?
               GROUP BY d
               ORDER BY d`
    rows, err := r.db.QueryContext(ctx, q, since.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []DateCount
    for rows.Next() {
        var dc DateCount
        if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
            return nil, err
        }
        dc.Date = dc.Date.UTC()
        out = append(out, dc)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ExerciseCounts counts visits per exercise type since the given time,
// skipping rows with no type. The service layer zero-fills the five
// known categories.
func (r *StatsRepo) ExerciseCounts(ctx context.Context, since time.Time) (map[model.ExerciseType]int, error) {
    const q = `SELECT exercise_type, COUNT(*)
               FROM visits
               WHERE check_in_time > ? AND exercise_type IS NOT NULL
               GROUP BY exercise_type`
    rows, err := r.db.QueryContext(ctx, q, since.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    counts := make(map[model.ExerciseType]int)
    for rows.Next() {
        var ex string
        var n int
        if err := rows.Scan(&ex, &n); err != nil {
            return nil, err
        }
        counts[model.ExerciseType(ex)] = n
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return counts, nil
}

// VisitCount returns the total number of visits, open and closed, for
// one device.
func (r *StatsRepo) VisitCount(ctx context.Context, deviceID uuid.UUID) (int, error) {
    const q = `SELECT COUNT(*) FROM visits WHERE device_id = ?`
    var n int
    if err := r.db.QueryRowContext(ctx, q, deviceID.String()).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// MinutesTotal sums the duration of a device's closed visits in whole
// minutes. Seconds are summed first and divided once at the end, so
// sub-minute remainders across visits still accumulate; this matches
// how the statistics have always been reported.
func (r *StatsRepo) MinutesTotal(ctx context.Context, deviceID uuid.UUID) (int, error) {
    const q = `SELECT COALESCE(FLOOR(SUM(TIMESTAMPDIFF(SECOND, check_in_time, check_out_time)) / 60), 0)
               FROM visits
               WHERE device_id = ? AND check_out_time IS NOT NULL`
    var n int
    if err := r.db.QueryRowContext(ctx, q, deviceID.String()).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// FavouriteExercise returns the device's most frequent exercise type,
// or nil when the device has no typed visits. Ties are broken by
// whatever order the storage engine yields equal counts in; the result
// is non-deterministic on a tie.
func (r *StatsRepo) FavouriteExercise(ctx context.Context, deviceID uuid.UUID) (*model.ExerciseType, error) {
    const q = `SELECT exercise_type
               FROM visits
               WHERE device_id = ? AND exercise_type IS NOT NULL
               GROUP BY exercise_type
               ORDER BY COUNT(*) DESC
               LIMIT 1`
    var ex string
    err := r.db.QueryRowContext(ctx, q, deviceID.String()).Scan(&ex)
    if err == sql.ErrNoRows {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    t := model.ExerciseType(ex)
    return &t, nil
}

// VisitDates returns the distinct calendar dates (UTC) on which the
// device checked in, newest first. Feeds the streak walk.
func (r *StatsRepo) VisitDates(ctx context.Context, deviceID uuid.UUID) ([]time.Time, error) {
    const q = `SELECT DATE(check_in_time) AS d
               FROM visits
               WHERE device_id = ?
               GROUP BY d
               ORDER BY d DESC`
    rows, err := r.db.QueryContext(ctx, q, deviceID.String())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var dates []time.Time
    for rows.Next() {
        var d time.Time
        if err := rows.Scan(&d); err != nil {
            return nil, err
        }
        dates = append(dates, d.UTC())
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return dates, nil
}

// RecentVisits returns the device's most recent visits by check-in
// time descending, up to limit.
func (r *StatsRepo) RecentVisits(ctx context.Context, deviceID uuid.UUID, limit int) ([]model.Visit, error) {
    const q = `SELECT ` + visitColumns + `
               FROM visits
               WHERE device_id = ?
               ORDER BY check_in_time DESC
               LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, deviceID.String(), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectVisits(rows)
}
