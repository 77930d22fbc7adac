package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitNameEmpty    = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong  = errors.New("habit name is too long (max 50 chars)")
	ErrHabitMissingID    = errors.New("habit id is missing")
	ErrInvalidFrequency  = errors.New("invalid frequency (must be daily or weekly)")
	ErrInvalidTargetTime = errors.New("invalid target time format (must be HH:MM 24h)")
	ErrNegativeCounter   = errors.New("habit counters cannot be negative")
	ErrHabitNotFound     = errors.New("habit not found")
)

var targetTimeRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	MaxNameLen      = 50

	// DateLayout is the calendar-date key used for completion history entries.
	// One entry per calendar day; lexicographic order equals chronological order.
	DateLayout = "2006-01-02"
)

// CompletionRecord is a single day in a habit's completion log.
type CompletionRecord struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type Habit struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Frequency         string             `json:"frequency"`
	TargetTime        *string            `json:"target_time,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	CompletedDays     int                `json:"completed_days"`
	TotalDays         int                `json:"total_days"`
	CompletionHistory []CompletionRecord `json:"completion_history"`
	IsCompleted       bool               `json:"is_completed"`
}

// DateKey formats a timestamp as the calendar-date key used by the history log.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func validateFrequency(frequency string) error {
	switch frequency {
	case FrequencyDaily, FrequencyWeekly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func NewHabit(name, frequency, targetTime string) (*Habit, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrHabitNameEmpty
	}
	if len(trimmed) > MaxNameLen {
		return nil, ErrHabitNameTooLong
	}

	if err := validateFrequency(frequency); err != nil {
		return nil, err
	}

	var targetPtr *string
	if targetTime != "" {
		if !targetTimeRegex.MatchString(targetTime) {
			return nil, ErrInvalidTargetTime
		}
		targetPtr = &targetTime
	}

	return &Habit{
		ID:                uuid.New().String(),
		Name:              trimmed,
		Frequency:         frequency,
		TargetTime:        targetPtr,
		CreatedAt:         time.Now().UTC(),
		CompletedDays:     0,
		TotalDays:         0,
		CompletionHistory: []CompletionRecord{},
		IsCompleted:       false,
	}, nil
}

// Validate checks the schema rules enforced at every store boundary:
// required fields, the frequency enum, target time format and
// non-negative counters.
func (h *Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return ErrHabitMissingID
	}

	trimmed := strings.TrimSpace(h.Name)
	if trimmed == "" {
		return ErrHabitNameEmpty
	}
	if len(trimmed) > MaxNameLen {
		return ErrHabitNameTooLong
	}

	if err := validateFrequency(h.Frequency); err != nil {
		return err
	}

	if h.TargetTime != nil && !targetTimeRegex.MatchString(*h.TargetTime) {
		return ErrInvalidTargetTime
	}

	if h.CompletedDays < 0 || h.TotalDays < 0 {
		return ErrNegativeCounter
	}

	return nil
}

// SortHistory orders the completion log chronologically in place.
func (h *Habit) SortHistory() {
	sort.Slice(h.CompletionHistory, func(i, j int) bool {
		return h.CompletionHistory[i].Date < h.CompletionHistory[j].Date
	})
}

// HistoryEntry returns a pointer to the record for the given date key,
// or nil if the log has no entry for that day.
func (h *Habit) HistoryEntry(date string) *CompletionRecord {
	for i := range h.CompletionHistory {
		if h.CompletionHistory[i].Date == date {
			return &h.CompletionHistory[i]
		}
	}
	return nil
}

// SetCompletion records the completion flag for the given date,
// overwriting the existing entry if the day was already logged.
func (h *Habit) SetCompletion(date string, completed bool) {
	if entry := h.HistoryEntry(date); entry != nil {
		entry.Completed = completed
		return
	}
	h.CompletionHistory = append(h.CompletionHistory, CompletionRecord{
		Date:      date,
		Completed: completed,
	})
}

// DaysSinceCreation counts calendar days from CreatedAt up to now, inclusive.
// A habit created today has lived 1 day.
func (h *Habit) DaysSinceCreation(now time.Time) int {
	created := h.CreatedAt.UTC().Truncate(24 * time.Hour)
	current := now.UTC().Truncate(24 * time.Hour)

	days := int(current.Sub(created).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Recalculate re-derives CompletedDays, TotalDays and IsCompleted from the
// completion history. Idempotent; this is the self-healing pass the store
// runs before reads and after toggles.
func (h *Habit) Recalculate(now time.Time) {
	h.SortHistory()

	completed := 0
	for _, record := range h.CompletionHistory {
		if record.Completed {
			completed++
		}
	}
	h.CompletedDays = completed

	h.TotalDays = len(h.CompletionHistory)
	if days := h.DaysSinceCreation(now); days > h.TotalDays {
		h.TotalDays = days
	}

	h.IsCompleted = false
	if entry := h.HistoryEntry(DateKey(now)); entry != nil {
		h.IsCompleted = entry.Completed
	}
}
