// Package progress derives per-habit metrics from a completion log.
// Every function is pure and total: malformed or missing input degrades to
// zero values, never to a panic. Callers rely on that contract.
package progress

import (
	"math"
	"sort"
	"time"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

const (
	TierSuccess   = "success"
	TierWarning   = "warning"
	TierAttention = "attention"

	RatingExcellent = "Excellent"
	RatingGreat     = "Great"
	RatingGood      = "Good"
	RatingFair      = "Fair"
	RatingNeedsWork = "Needs Improvement"
	RatingNoData    = "No Data"

	// DefaultWeeksBack is the lookback window for the weekly completion rate.
	DefaultWeeksBack = 4

	streakBonusPerDay = 5
	streakBonusCap    = 30
)

// CompletionPercentage returns the habit's all-time completion rate,
// rounded and clamped to [0,100]. Nil habit or zero total days yields 0.
func CompletionPercentage(h *domain.Habit) int {
	if h == nil || h.TotalDays <= 0 {
		return 0
	}

	pct := int(math.Round(float64(h.CompletedDays) / float64(h.TotalDays) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Streaks computes the current and longest streak over a completion log.
//
// Entries are sorted by date and runs are counted over consecutive *entries*,
// not consecutive calendar dates: days with no entry at all are simply not
// part of the sequence. That matches the persisted counters this engine has
// always produced, so it is kept deliberately.
func Streaks(history []domain.CompletionRecord) (current, longest int) {
	if len(history) == 0 {
		return 0, 0
	}

	sorted := make([]domain.CompletionRecord, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})

	for _, record := range sorted {
		if !record.Completed {
			break
		}
		current++
	}

	run := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Completed {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	return current, longest
}

// WeeklyCompletionRate returns the rounded completion rate over entries that
// fall within weeksBack*7 days of now. Zero when no entries match.
// A non-positive weeksBack falls back to DefaultWeeksBack.
func WeeklyCompletionRate(history []domain.CompletionRecord, weeksBack int) int {
	if len(history) == 0 {
		return 0
	}
	if weeksBack <= 0 {
		weeksBack = DefaultWeeksBack
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -weeksBack*7)
	cutoffKey := domain.DateKey(cutoff)

	total := 0
	completed := 0
	for _, record := range history {
		if _, err := time.Parse(domain.DateLayout, record.Date); err != nil {
			continue
		}
		if record.Date < cutoffKey {
			continue
		}
		total++
		if record.Completed {
			completed++
		}
	}

	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// ColorTier classifies a completion percentage for display purposes.
// The actual color values are a UI concern.
func ColorTier(percentage int) string {
	switch {
	case percentage >= 80:
		return TierSuccess
	case percentage >= 50:
		return TierWarning
	default:
		return TierAttention
	}
}

// Consistency is a weighted composite of completion rate, weekly rate and a
// capped streak bonus, mapped to a human-readable rating band.
type Consistency struct {
	Score  int    `json:"score"`
	Rating string `json:"rating"`
}

func ConsistencyScore(h *domain.Habit) Consistency {
	if h == nil || len(h.CompletionHistory) == 0 {
		return Consistency{Score: 0, Rating: RatingNoData}
	}

	completion := CompletionPercentage(h)
	weekly := WeeklyCompletionRate(h.CompletionHistory, DefaultWeeksBack)
	current, _ := Streaks(h.CompletionHistory)

	bonus := current * streakBonusPerDay
	if bonus > streakBonusCap {
		bonus = streakBonusCap
	}

	score := int(math.Round(0.4*float64(completion) + 0.3*float64(weekly) + 0.3*float64(bonus)))

	return Consistency{Score: score, Rating: ratingFor(score)}
}

func ratingFor(score int) string {
	switch {
	case score >= 90:
		return RatingExcellent
	case score >= 75:
		return RatingGreat
	case score >= 60:
		return RatingGood
	case score >= 40:
		return RatingFair
	default:
		return RatingNeedsWork
	}
}
