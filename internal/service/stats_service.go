package service

import (
    "context"
    "math"
    "time"

    "github.com/google/uuid"

    "github.com/arclive/gym-occupancy/internal/model"
    "github.com/arclive/gym-occupancy/internal/repository"
)

// Trailing windows used by the gym-wide statistics.
const (
    peakHoursWindowDays = 30
    headcountWindowDays = 7
    breakdownWindowDays = 30
    recentVisitLimit    = 20
)

// OccupancyStore provides the open-visit counts behind the live
// occupancy endpoint. repository.VisitRepo implements it.
type OccupancyStore interface {
    CountOpen(ctx context.Context) (int, error)
    CountOpenByExercise(ctx context.Context) (map[model.ExerciseType]int, error)
}

// StatsStore provides the aggregate reads behind the statistics
// endpoints. repository.StatsRepo implements it.
type StatsStore interface {
    CheckinsByHour(ctx context.Context, since time.Time) ([]repository.HourCount, error)
    HeadcountByDate(ctx context.Context, since time.Time) ([]repository.DateCount, error)
    ExerciseCounts(ctx context.Context, since time.Time) (map[model.ExerciseType]int, error)
    VisitCount(ctx context.Context, deviceID uuid.UUID) (int, error)
    MinutesTotal(ctx context.Context, deviceID uuid.UUID) (int, error)
    FavouriteExercise(ctx context.Context, deviceID uuid.UUID) (*model.ExerciseType, error)
    VisitDates(ctx context.Context, deviceID uuid.UUID) ([]time.Time, error)
    RecentVisits(ctx context.Context, deviceID uuid.UUID, limit int) ([]model.Visit, error)
}

// Occupancy is the live occupancy snapshot: the number of open visits
// plus their partition by exercise type. All five known categories are
// always present; open visits without a type only contribute to Count.
type Occupancy struct {
    Count      int            `json:"count"`
    ByExercise map[string]int `json:"by_exercise"`
}

// HourlyAverage is one peak-hours bucket: a UTC hour of day and the
// average number of check-ins per day over the trailing window,
// rounded to one decimal.
type HourlyAverage struct {
    Hour  int     `json:"hour"`
    Count float64 `json:"count"`
}

// DailyHeadcount is the number of distinct devices seen on one
// calendar date.
type DailyHeadcount struct {
    Date  string `json:"date"` // ISO date YYYY-MM-DD
    Count int    `json:"count"`
}

// ExerciseBreakdown reports visit counts per category over the
// trailing window. Unseen categories are zero, never omitted.
type ExerciseBreakdown struct {
    Chest  int `json:"chest"`
    Back   int `json:"back"`
    Legs   int `json:"legs"`
    Arms   int `json:"arms"`
    Cardio int `json:"cardio"`
}

// GymStats is the gym-wide statistics payload.
type GymStats struct {
    PeakHours         []HourlyAverage   `json:"peak_hours"`
    DailyHeadcount    []DailyHeadcount  `json:"daily_headcount"`
    ExerciseBreakdown ExerciseBreakdown `json:"exercise_breakdown"`
}

// VisitDetail is one entry of a device's recent-visit list.
type VisitDetail struct {
    ID              uuid.UUID  `json:"id"`
    CheckInTime     time.Time  `json:"check_in_time"`
    CheckOutTime    *time.Time `json:"check_out_time"`
    ExerciseType    *string    `json:"exercise_type"`
    DurationMinutes *int       `json:"duration_minutes"`
}

// PersonalStats is the per-device statistics payload.
type PersonalStats struct {
    TotalVisits       int           `json:"total_visits"`
    TotalMinutes      int           `json:"total_minutes"`
    Streak            int           `json:"streak"`
    FavouriteExercise *string       `json:"favourite_exercise"`
    RecentVisits      []VisitDetail `json:"recent_visits"`
}

// StatsService is the aggregation engine: pure read-side computations
// over the visit store. Every query runs without locks and tolerates
// concurrent writes; a snapshot-at-read answer is acceptable for all
// of these views.
type StatsService struct {
    occupancy OccupancyStore
    stats     StatsStore
    now       func() time.Time
}

// NewStatsService constructs a StatsService over the two store slices.
func NewStatsService(occupancy OccupancyStore, stats StatsStore) *StatsService {
    return &StatsService{
        occupancy: occupancy,
        stats:     stats,
        now:       func() time.Time { return time.Now().UTC() },
    }
}

// Occupancy returns the live occupancy count and its exercise
// partition. Two reads with no intervening writes return identical
// results; the count always equals the number of open visits.
func (s *StatsService) Occupancy(ctx context.Context) (*Occupancy, error) {
    count, err := s.occupancy.CountOpen(ctx)
    if err != nil {
        return nil, err
    }
    byExercise, err := s.occupancy.CountOpenByExercise(ctx)
    if err != nil {
        return nil, err
    }
    out := &Occupancy{Count: count, ByExercise: make(map[string]int, len(model.ExerciseTypes))}
    for _, t := range model.ExerciseTypes {
        out.ByExercise[string(t)] = byExercise[t]
    }
    return out, nil
}

// GymStats assembles peak hours, daily headcount and the exercise
// breakdown. Peak hours are reported sparse: an hour with zero
// check-ins in the window produces no bucket at all, mirroring the
// shape of the grouped query. Clients treat missing hours as zero.
func (s *StatsService) GymStats(ctx context.Context) (*GymStats, error) {
    now := s.now()
    monthAgo := now.AddDate(0, 0, -peakHoursWindowDays)
    weekAgo := now.AddDate(0, 0, -headcountWindowDays)

    hours, err := s.stats.CheckinsByHour(ctx, monthAgo)
    if err != nil {
        return nil, err
    }
    peak := make([]HourlyAverage, 0, len(hours))
    for _, h := range hours {
        peak = append(peak, HourlyAverage{
            Hour:  h.Hour,
            Count: dailyAverage(h.Count, peakHoursWindowDays),
        })
    }

    daily, err := s.stats.HeadcountByDate(ctx, weekAgo)
    if err != nil {
        return nil, err
    }
    headcount := make([]DailyHeadcount, 0, len(daily))
    for _, d := range daily {
        headcount = append(headcount, DailyHeadcount{
            Date:  d.Date.Format("2006-01-02"),
            Count: d.Count,
        })
    }

    counts, err := s.stats.ExerciseCounts(ctx, monthAgo)
    if err != nil {
        return nil, err
    }

    return &GymStats{
        PeakHours:         peak,
        DailyHeadcount:    headcount,
        ExerciseBreakdown: breakdownFrom(counts),
    }, nil
}

// PersonalStats assembles the per-device view: total visits (open and
// closed), minutes over closed visits, favourite exercise, the streak
// of consecutive visit days and the most recent visits with their
// durations.
func (s *StatsService) PersonalStats(ctx context.Context, deviceID uuid.UUID) (*PersonalStats, error) {
    total, err := s.stats.VisitCount(ctx, deviceID)
    if err != nil {
        return nil, err
    }
    minutes, err := s.stats.MinutesTotal(ctx, deviceID)
    if err != nil {
        return nil, err
    }
    favourite, err := s.stats.FavouriteExercise(ctx, deviceID)
    if err != nil {
        return nil, err
    }
    dates, err := s.stats.VisitDates(ctx, deviceID)
    if err != nil {
        return nil, err
    }
    visits, err := s.stats.RecentVisits(ctx, deviceID, recentVisitLimit)
    if err != nil {
        return nil, err
    }

    recent := make([]VisitDetail, 0, len(visits))
    for _, v := range visits {
        var exercise *string
        if v.ExerciseType != nil {
            ex := string(*v.ExerciseType)
            exercise = &ex
        }
        recent = append(recent, VisitDetail{
            ID:              v.ID,
            CheckInTime:     v.CheckInTime,
            CheckOutTime:    v.CheckOutTime,
            ExerciseType:    exercise,
            DurationMinutes: v.DurationMinutes(),
        })
    }

    var fav *string
    if favourite != nil {
        f := string(*favourite)
        fav = &f
    }

    return &PersonalStats{
        TotalVisits:       total,
        TotalMinutes:      minutes,
        Streak:            calculateStreak(dates, s.now()),
        FavouriteExercise: fav,
        RecentVisits:      recent,
    }, nil
}

// dailyAverage converts a raw window count into a per-day average
// rounded to one decimal.
func dailyAverage(count, windowDays int) float64 {
    return math.Round(float64(count)/float64(windowDays)*10) / 10
}

// breakdownFrom zero-fills the five known categories from a sparse
// count map.
func breakdownFrom(counts map[model.ExerciseType]int) ExerciseBreakdown {
    return ExerciseBreakdown{
        Chest:  counts[model.ExerciseChest],
        Back:   counts[model.ExerciseBack],
        Legs:   counts[model.ExerciseLegs],
        Arms:   counts[model.ExerciseArms],
        Cardio: counts[model.ExerciseCardio],
    }
}

// calculateStreak counts consecutive calendar days with at least one
// visit, walking backward from the most recent distinct visit date.
// The anchor must be today or yesterday relative to now; otherwise the
// streak is 0. dates must be distinct calendar days, newest first, as
// returned by StatsStore.VisitDates.
func calculateStreak(dates []time.Time, now time.Time) int {
    if len(dates) == 0 {
        return 0
    }
    today := truncateToDay(now)
    latest := truncateToDay(dates[0])
    if latest.Before(today.AddDate(0, 0, -1)) {
        return 0
    }
    streak := 0
    expected := latest
    for _, d := range dates {
        if !truncateToDay(d).Equal(expected) {
            break
        }
        streak++
        expected = expected.AddDate(0, 0, -1)
    }
    return streak
}

// truncateToDay drops the time-of-day component in UTC.
func truncateToDay(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
