package service

import (
    "context"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/require"

    "github.com/arclive/gym-occupancy/internal/model"
    "github.com/arclive/gym-occupancy/internal/repository"
)

// stubOccupancyStore returns canned open-visit counts.
type stubOccupancyStore struct {
    count      int
    byExercise map[model.ExerciseType]int
    err        error
}

func (s *stubOccupancyStore) CountOpen(context.Context) (int, error) {
    return s.count, s.err
}

func (s *stubOccupancyStore) CountOpenByExercise(context.Context) (map[model.ExerciseType]int, error) {
    return s.byExercise, s.err
}

// stubStatsStore returns canned aggregate rows.
type stubStatsStore struct {
    hours     []repository.HourCount
    daily     []repository.DateCount
    exercises map[model.ExerciseType]int
    visits    int
    minutes   int
    favourite *model.ExerciseType
    dates     []time.Time
    recent    []model.Visit
}

func (s *stubStatsStore) CheckinsByHour(context.Context, time.Time) ([]repository.HourCount, error) {
    return s.hours, nil
}

func (s *stubStatsStore) HeadcountByDate(context.Context, time.Time) ([]repository.DateCount, error) {
    return s.daily, nil
}

func (s *stubStatsStore) ExerciseCounts(context.Context, time.Time) (map[model.ExerciseType]int, error) {
    return s.exercises, nil
}

func (s *stubStatsStore) VisitCount(context.Context, uuid.UUID) (int, error) {
    return s.visits, nil
}

func (s *stubStatsStore) MinutesTotal(context.Context, uuid.UUID) (int, error) {
    return s.minutes, nil
}

func (s *stubStatsStore) FavouriteExercise(context.Context, uuid.UUID) (*model.ExerciseType, error) {
    return s.favourite, nil
}

func (s *stubStatsStore) VisitDates(context.Context, uuid.UUID) ([]time.Time, error) {
    return s.dates, nil
}

func (s *stubStatsStore) RecentVisits(context.Context, uuid.UUID, int) ([]model.Visit, error) {
    return s.recent, nil
}

func day(y int, m time.Month, d int) time.Time {
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateStreakConsecutiveDays(t *testing.T) {
    now := time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)
    // Visits today, yesterday and the day before, then a gap.
    dates := []time.Time{
        day(2025, time.March, 10),
        day(2025, time.March, 9),
        day(2025, time.March, 8),
        day(2025, time.March, 6),
    }
    require.Equal(t, 3, calculateStreak(dates, now))
}

func TestCalculateStreakAnchoredAtYesterday(t *testing.T) {
    now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
    dates := []time.Time{
        day(2025, time.March, 9),
        day(2025, time.March, 8),
    }
    require.Equal(t, 2, calculateStreak(dates, now))
}

func TestCalculateStreakStaleAnchor(t *testing.T) {
    now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
    // Most recent visit was two days ago: no active streak.
    dates := []time.Time{
        day(2025, time.March, 8),
        day(2025, time.March, 7),
    }
    require.Equal(t, 0, calculateStreak(dates, now))
}

func TestCalculateStreakNoVisits(t *testing.T) {
    require.Equal(t, 0, calculateStreak(nil, time.Now().UTC()))
}

func TestGymStatsPeakHoursSparse(t *testing.T) {
    stats := NewStatsService(&stubOccupancyStore{}, &stubStatsStore{
        hours: []repository.HourCount{
            {Hour: 7, Count: 45},
            {Hour: 18, Count: 61},
        },
    })

    got, err := stats.GymStats(context.Background())
    require.NoError(t, err)

    // Hours without check-ins are omitted, not zero-filled: two input
    // rows produce exactly two buckets.
    require.Len(t, got.PeakHours, 2)
    require.Equal(t, HourlyAverage{Hour: 7, Count: 1.5}, got.PeakHours[0])
    require.Equal(t, HourlyAverage{Hour: 18, Count: 2.0}, got.PeakHours[1])
}

func TestGymStatsBreakdownZeroFilled(t *testing.T) {
    stats := NewStatsService(&stubOccupancyStore{}, &stubStatsStore{
        exercises: map[model.ExerciseType]int{
            model.ExerciseChest:  2,
            model.ExerciseCardio: 1,
        },
    })

    got, err := stats.GymStats(context.Background())
    require.NoError(t, err)
    require.Equal(t, ExerciseBreakdown{Chest: 2, Cardio: 1, Back: 0, Legs: 0, Arms: 0}, got.ExerciseBreakdown)
}

func TestGymStatsDailyHeadcount(t *testing.T) {
    stats := NewStatsService(&stubOccupancyStore{}, &stubStatsStore{
        daily: []repository.DateCount{
            {Date: day(2025, time.March, 8), Count: 12},
            {Date: day(2025, time.March, 9), Count: 17},
        },
    })

    got, err := stats.GymStats(context.Background())
    require.NoError(t, err)
    require.Equal(t, []DailyHeadcount{
        {Date: "2025-03-08", Count: 12},
        {Date: "2025-03-09", Count: 17},
    }, got.DailyHeadcount)
}

func TestOccupancyPartitionCoversAllCategories(t *testing.T) {
    stats := NewStatsService(&stubOccupancyStore{
        count: 3,
        byExercise: map[model.ExerciseType]int{
            model.ExerciseCardio: 1,
            model.ExerciseLegs:   1,
        },
    }, &stubStatsStore{})

    got, err := stats.Occupancy(context.Background())
    require.NoError(t, err)
    require.Equal(t, 3, got.Count)
    require.Equal(t, map[string]int{
        "chest": 0, "back": 0, "legs": 1, "arms": 0, "cardio": 1,
    }, got.ByExercise)
}

func TestOccupancyRepeatedReadsIdentical(t *testing.T) {
    stats := NewStatsService(&stubOccupancyStore{count: 5}, &stubStatsStore{})

    first, err := stats.Occupancy(context.Background())
    require.NoError(t, err)
    second, err := stats.Occupancy(context.Background())
    require.NoError(t, err)
    require.Equal(t, first, second)
}

func TestPersonalStats(t *testing.T) {
    now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
    deviceID := uuid.New()
    cardio := model.ExerciseCardio
    closedAt := now.Add(-30 * time.Minute)
    open := model.Visit{
        ID:          uuid.New(),
        DeviceID:    deviceID,
        CheckInTime: now.Add(-10 * time.Minute),
    }
    closed := model.Visit{
        ID:           uuid.New(),
        DeviceID:     deviceID,
        CheckInTime:  closedAt.Add(-75 * time.Minute),
        CheckOutTime: &closedAt,
        ExerciseType: &cardio,
    }

    stats := NewStatsService(&stubOccupancyStore{}, &stubStatsStore{
        visits:    4,
        minutes:   190,
        favourite: &cardio,
        dates: []time.Time{
            day(2025, time.March, 10),
            day(2025, time.March, 9),
        },
        recent: []model.Visit{open, closed},
    })
    stats.now = func() time.Time { return now }

    got, err := stats.PersonalStats(context.Background(), deviceID)
    require.NoError(t, err)
    require.Equal(t, 4, got.TotalVisits)
    require.Equal(t, 190, got.TotalMinutes)
    require.Equal(t, 2, got.Streak)
    require.NotNil(t, got.FavouriteExercise)
    require.Equal(t, "cardio", *got.FavouriteExercise)

    require.Len(t, got.RecentVisits, 2)
    require.Nil(t, got.RecentVisits[0].DurationMinutes, "open visit has no duration")
    require.NotNil(t, got.RecentVisits[1].DurationMinutes)
    require.Equal(t, 75, *got.RecentVisits[1].DurationMinutes)
}
