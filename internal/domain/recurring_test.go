package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/verification-service/internal/domain"
)

func futureDate(days int) time.Time {
	return time.Now().AddDate(0, 0, days)
}

func TestGenerateOccurrenceDates(t *testing.T) {
	t.Run("weekly", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		dates := domain.GenerateOccurrenceDates(domain.FrequencyWeekly, start, 3)

		require.Len(t, dates, 3)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), dates[0])
		assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), dates[1])
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), dates[2])
	})

	t.Run("daily", func(t *testing.T) {
		start := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
		dates := domain.GenerateOccurrenceDates(domain.FrequencyDaily, start, 3)

		require.Len(t, dates, 3)
		assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), dates[1])
		assert.Equal(t, time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), dates[2])
	})

	t.Run("monthly uses calendar months", func(t *testing.T) {
		start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		dates := domain.GenerateOccurrenceDates(domain.FrequencyMonthly, start, 3)

		require.Len(t, dates, 3)
		assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), dates[1])
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), dates[2])
	})
}

func TestNextOccurrenceDateMonthlyDayShift(t *testing.T) {
	// Jan 31 + 1 month overflows February and normalizes into March.
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	next := domain.NextOccurrenceDate(domain.FrequencyMonthly, start)

	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), next)
}

func TestNewRecurringSchedule(t *testing.T) {
	schedule, err := domain.NewRecurringSchedule(domain.FrequencyWeekly, futureDate(1), 4)
	require.NoError(t, err)

	assert.Equal(t, domain.FrequencyWeekly, schedule.Frequency())
	assert.Equal(t, 4, schedule.TotalOccurrences())
	assert.Equal(t, schedule.StartDate().AddDate(0, 0, 21), schedule.EndDate())

	occurrences := schedule.Occurrences()
	require.Len(t, occurrences, 4)
	for i, occ := range occurrences {
		assert.Equal(t, i+1, occ.Number)
		assert.Equal(t, domain.OccurrencePending, occ.Status)
	}
}

func TestNewRecurringScheduleValidation(t *testing.T) {
	tests := []struct {
		name      string
		frequency domain.RecurringFrequency
		start     time.Time
		total     int
	}{
		{name: "unknown frequency", frequency: "YEARLY", start: futureDate(1), total: 5},
		{name: "zero occurrences", frequency: domain.FrequencyDaily, start: futureDate(1), total: 0},
		{name: "negative occurrences", frequency: domain.FrequencyDaily, start: futureDate(1), total: -3},
		{name: "over the cap", frequency: domain.FrequencyDaily, start: futureDate(1), total: 400},
		{name: "start in the past", frequency: domain.FrequencyDaily, start: futureDate(-1), total: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewRecurringSchedule(tc.frequency, tc.start, tc.total)
			assert.Error(t, err)
		})
	}
}

func TestNewRecurringScheduleAcceptsTodayAndCap(t *testing.T) {
	_, err := domain.NewRecurringSchedule(domain.FrequencyDaily, time.Now(), 1)
	assert.NoError(t, err)

	_, err = domain.NewRecurringSchedule(domain.FrequencyDaily, futureDate(1), domain.MaxOccurrences)
	assert.NoError(t, err)
}

func TestScheduleProgressCounts(t *testing.T) {
	schedule, err := domain.NewRecurringSchedule(domain.FrequencyDaily, futureDate(1), 4)
	require.NoError(t, err)

	assert.Equal(t, 0, schedule.CompletedCount())
	assert.Equal(t, 4, schedule.PendingCount())
	assert.False(t, schedule.IsComplete())
	assert.Equal(t, 0.0, schedule.CompletionPercentage())

	occurrences := schedule.Occurrences()
	occurrences[0].Status = domain.OccurrenceCompleted
	occurrences[1].Status = domain.OccurrenceSkipped
	updated := schedule.WithOccurrences(occurrences)

	assert.Equal(t, 1, updated.CompletedCount())
	assert.Equal(t, 2, updated.PendingCount())
	assert.Equal(t, 25.0, updated.CompletionPercentage())
	assert.False(t, updated.IsComplete())

	next, ok := updated.NextScheduledDate()
	require.True(t, ok)
	assert.Equal(t, occurrences[2].ScheduledDate, next)

	// Original snapshot stays untouched.
	assert.Equal(t, 0, schedule.CompletedCount())
}

func TestScheduleIsCompleteWhenAllCompleted(t *testing.T) {
	schedule, err := domain.NewRecurringSchedule(domain.FrequencyDaily, futureDate(1), 2)
	require.NoError(t, err)

	occurrences := schedule.Occurrences()
	for i := range occurrences {
		occurrences[i].Status = domain.OccurrenceCompleted
	}
	updated := schedule.WithOccurrences(occurrences)

	assert.True(t, updated.IsComplete())
	assert.Equal(t, 100.0, updated.CompletionPercentage())

	_, ok := updated.NextScheduledDate()
	assert.False(t, ok)
}
