package progress

import (
	"fmt"
	"iter"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

// Insights yields human-readable commentary on a habit's performance.
// The sequence is lazy and single-use: ranging over it a second time yields
// nothing. A nil habit yields an empty sequence.
func Insights(h *domain.Habit) iter.Seq[string] {
	return singleUse(func(yield func(string) bool) {
		if h == nil {
			return
		}

		completion := CompletionPercentage(h)
		current, longest := Streaks(h.CompletionHistory)

		switch {
		case completion >= 80:
			if !yield(fmt.Sprintf("Excellent work on %q! You complete it %d%% of the time.", h.Name, completion)) {
				return
			}
		case completion >= 50:
			if !yield(fmt.Sprintf("Good progress on %q: %d%% completion so far.", h.Name, completion)) {
				return
			}
		default:
			if !yield(fmt.Sprintf("%q needs attention: only %d%% completion.", h.Name, completion)) {
				return
			}
		}

		switch {
		case current >= 7:
			if !yield(fmt.Sprintf("%d days in a row. Incredible streak!", current)) {
				return
			}
		case current >= 3:
			if !yield(fmt.Sprintf("%d-day streak going. Keep the momentum!", current)) {
				return
			}
		case current > 0:
			if !yield("Streak started. One day at a time.") {
				return
			}
		}

		if longest > current && longest > 3 {
			if !yield(fmt.Sprintf("Your record is %d days. You can get back there.", longest)) {
				return
			}
		}
	})
}

// Recommendations yields actionable suggestions triggered by weak metrics:
// low completion rate, a broken streak with meaningful history, or a weak
// recent week. Lazy and single-use like Insights.
func Recommendations(h *domain.Habit) iter.Seq[string] {
	return singleUse(func(yield func(string) bool) {
		if h == nil {
			return
		}

		completion := CompletionPercentage(h)
		current, _ := Streaks(h.CompletionHistory)
		weekly := WeeklyCompletionRate(h.CompletionHistory, DefaultWeeksBack)

		if completion < 50 {
			if !yield("Try attaching this habit to an existing routine to raise your completion rate.") {
				return
			}
		}

		if current == 0 && h.TotalDays > 3 {
			if !yield("Your streak is broken. Restart small today to rebuild it.") {
				return
			}
		}

		if weekly < 60 {
			if !yield("This week is lagging. Pick a fixed time of day and protect it.") {
				return
			}
		}
	})
}

// singleUse wraps a sequence so that only the first range consumes it.
func singleUse(seq iter.Seq[string]) iter.Seq[string] {
	consumed := false
	return func(yield func(string) bool) {
		if consumed {
			return
		}
		consumed = true
		seq(yield)
	}
}
