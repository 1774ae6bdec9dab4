package domain

import (
	"fmt"
	"time"

	apperrors "github.com/spec-kit/verification-service/pkg/util"
)

// RecurringFrequency enumerates supported recurrence periods.
type RecurringFrequency string

const (
	FrequencyDaily   RecurringFrequency = "DAILY"
	FrequencyWeekly  RecurringFrequency = "WEEKLY"
	FrequencyMonthly RecurringFrequency = "MONTHLY"
)

// OccurrenceStatus enumerates states of a single scheduled occurrence.
type OccurrenceStatus string

const (
	OccurrencePending   OccurrenceStatus = "PENDING"
	OccurrenceCompleted OccurrenceStatus = "COMPLETED"
	OccurrenceFailed    OccurrenceStatus = "FAILED"
	OccurrenceSkipped   OccurrenceStatus = "SKIPPED"
)

// MaxOccurrences bounds the total occurrence count of a recurring schedule.
const MaxOccurrences = 365

// Occurrence is one scheduled instance of a recurring request. Occurrences
// are created in bulk when the schedule is built and only transition status
// afterwards; they are never deleted.
type Occurrence struct {
	ID             string
	RequestID      string
	Number         int
	ScheduledDate  time.Time
	Status         OccurrenceStatus
	AgentID        *string
	CompletedAt    *time.Time
	DeliverableRef *string
}

// RecurringSchedule is an immutable value object describing a recurrence
// plan and a snapshot of its occurrences. The end date is derived from the
// frequency and occurrence count, never set independently.
type RecurringSchedule struct {
	frequency        RecurringFrequency
	startDate        time.Time
	endDate          time.Time
	totalOccurrences int
	occurrences      []Occurrence
}

// NextOccurrenceDate advances a date by one recurrence period. Monthly
// advancement uses calendar-month arithmetic, so the day-of-month may shift
// across shorter months (Jan 31 + 1 month lands in early March); that is
// the intended semantic.
func NextOccurrenceDate(frequency RecurringFrequency, from time.Time) time.Time {
	switch frequency {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from
	}
}

// GenerateOccurrenceDates produces the ordered scheduled dates for a plan:
// the first element is the start date, each subsequent element one period
// later.
func GenerateOccurrenceDates(frequency RecurringFrequency, start time.Time, total int) []time.Time {
	dates := make([]time.Time, 0, total)
	current := start
	for i := 0; i < total; i++ {
		dates = append(dates, current)
		current = NextOccurrenceDate(frequency, current)
	}
	return dates
}

// NewRecurringSchedule validates the plan and generates its occurrence
// snapshot. The start date must not be before today (date-only comparison)
// and the total must be within [1, MaxOccurrences].
func NewRecurringSchedule(frequency RecurringFrequency, start time.Time, total int) (*RecurringSchedule, error) {
	switch frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported recurring frequency %q", frequency),
			map[string]any{"frequency": frequency})
	}
	if total < 1 || total > MaxOccurrences {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("total occurrences must be between 1 and %d, got %d", MaxOccurrences, total),
			map[string]any{"total_occurrences": total})
	}
	if truncateToDay(start).Before(truncateToDay(time.Now())) {
		return nil, apperrors.NewValidationError(
			"recurring start date must not be in the past",
			map[string]any{"start_date": start.Format(time.DateOnly)})
	}

	dates := GenerateOccurrenceDates(frequency, start, total)
	occurrences := make([]Occurrence, total)
	for i, date := range dates {
		occurrences[i] = Occurrence{
			Number:        i + 1,
			ScheduledDate: date,
			Status:        OccurrencePending,
		}
	}

	return &RecurringSchedule{
		frequency:        frequency,
		startDate:        start,
		endDate:          dates[total-1],
		totalOccurrences: total,
		occurrences:      occurrences,
	}, nil
}

// Frequency returns the recurrence period.
func (s *RecurringSchedule) Frequency() RecurringFrequency { return s.frequency }

// StartDate returns the first scheduled date.
func (s *RecurringSchedule) StartDate() time.Time { return s.startDate }

// EndDate returns the derived last scheduled date.
func (s *RecurringSchedule) EndDate() time.Time { return s.endDate }

// TotalOccurrences returns the planned occurrence count.
func (s *RecurringSchedule) TotalOccurrences() int { return s.totalOccurrences }

// Occurrences returns a defensive copy of the occurrence snapshot.
func (s *RecurringSchedule) Occurrences() []Occurrence {
	out := make([]Occurrence, len(s.occurrences))
	copy(out, s.occurrences)
	return out
}

// WithOccurrences returns a copy of the schedule carrying the supplied
// occurrence snapshot, used by the owning aggregate to refresh progress
// counts from persisted state. The list is assumed temporally ordered.
func (s *RecurringSchedule) WithOccurrences(occurrences []Occurrence) *RecurringSchedule {
	snapshot := make([]Occurrence, len(occurrences))
	copy(snapshot, occurrences)
	clone := *s
	clone.occurrences = snapshot
	return &clone
}

// CompletedCount counts occurrences in COMPLETED status.
func (s *RecurringSchedule) CompletedCount() int {
	return s.countByStatus(OccurrenceCompleted)
}

// PendingCount counts occurrences in PENDING status.
func (s *RecurringSchedule) PendingCount() int {
	return s.countByStatus(OccurrencePending)
}

// IsComplete reports whether every planned occurrence completed.
func (s *RecurringSchedule) IsComplete() bool {
	return s.CompletedCount() == s.totalOccurrences
}

// CompletionPercentage returns completed/total as a percentage.
func (s *RecurringSchedule) CompletionPercentage() float64 {
	return float64(s.CompletedCount()) / float64(s.totalOccurrences) * 100
}

// NextScheduledDate returns the scheduled date of the first occurrence
// still PENDING in list order, or false when none remain.
func (s *RecurringSchedule) NextScheduledDate() (time.Time, bool) {
	for _, occ := range s.occurrences {
		if occ.Status == OccurrencePending {
			return occ.ScheduledDate, true
		}
	}
	return time.Time{}, false
}

func (s *RecurringSchedule) countByStatus(status OccurrenceStatus) int {
	count := 0
	for _, occ := range s.occurrences {
		if occ.Status == status {
			count++
		}
	}
	return count
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
