// Package achievements holds the fixed badge catalog and the evaluator that
// checks unlock conditions against aggregate user statistics.
package achievements

import "github.com/fpellegrini/ritmo-engine/internal/core/domain"

// Stats field keys used to map an achievement to the value feeding its
// progress bar.
const (
	StatTotalHabits      = "total_habits"
	StatTotalCompletions = "total_completions"
	StatCurrentStreak    = "current_streak"
	StatLongestStreak    = "longest_streak"
	StatCompletionRate   = "overall_completion_rate"
	StatPerfectWeeks     = "perfect_weeks"
	StatEarlyCompletions = "early_completions"
	StatLateCompletions  = "late_completions"
)

// catalog is the process-wide constant badge table. Order matters: it is the
// tie-break order for progress listings and the emission order of new
// unlocks.
var catalog = []domain.Achievement{
	{
		ID:          "getting_started",
		Title:       "Getting Started",
		Description: "Create your first habit",
		Icon:        "seedling",
		Category:    domain.CategoryMilestone,
		Target:      1,
		StatKey:     StatTotalHabits,
		Condition:   func(s domain.UserStats) bool { return s.TotalHabits >= 1 },
	},
	{
		ID:          "habit_builder",
		Title:       "Habit Builder",
		Description: "Track five habits at once",
		Icon:        "hammer",
		Category:    domain.CategoryMilestone,
		Target:      5,
		StatKey:     StatTotalHabits,
		Condition:   func(s domain.UserStats) bool { return s.TotalHabits >= 5 },
	},
	{
		ID:          "half_century",
		Title:       "Half Century",
		Description: "Log 50 completions in total",
		Icon:        "medal",
		Category:    domain.CategoryMilestone,
		Target:      50,
		StatKey:     StatTotalCompletions,
		Condition:   func(s domain.UserStats) bool { return s.TotalCompletions >= 50 },
	},
	{
		ID:          "centurion",
		Title:       "Centurion",
		Description: "Log 100 completions in total",
		Icon:        "trophy",
		Category:    domain.CategoryMilestone,
		Target:      100,
		StatKey:     StatTotalCompletions,
		Condition:   func(s domain.UserStats) bool { return s.TotalCompletions >= 100 },
	},
	{
		ID:          "spark",
		Title:       "Spark",
		Description: "Reach a 3-day streak",
		Icon:        "spark",
		Category:    domain.CategoryStreak,
		Target:      3,
		StatKey:     StatCurrentStreak,
		Condition:   func(s domain.UserStats) bool { return s.CurrentStreak >= 3 },
	},
	{
		ID:          "on_fire",
		Title:       "On Fire",
		Description: "Reach a 7-day streak",
		Icon:        "flame",
		Category:    domain.CategoryStreak,
		Target:      7,
		StatKey:     StatLongestStreak,
		Condition:   func(s domain.UserStats) bool { return s.LongestStreak >= 7 },
	},
	{
		ID:          "unstoppable",
		Title:       "Unstoppable",
		Description: "Reach a 30-day streak",
		Icon:        "rocket",
		Category:    domain.CategoryStreak,
		Target:      30,
		StatKey:     StatLongestStreak,
		Condition:   func(s domain.UserStats) bool { return s.LongestStreak >= 30 },
	},
	{
		ID:          "steady_hand",
		Title:       "Steady Hand",
		Description: "Hold a 50% overall completion rate",
		Icon:        "scales",
		Category:    domain.CategoryPerformance,
		Target:      50,
		StatKey:     StatCompletionRate,
		Condition:   func(s domain.UserStats) bool { return s.OverallCompletionRate >= 50 },
	},
	{
		ID:          "high_achiever",
		Title:       "High Achiever",
		Description: "Hold an 80% overall completion rate",
		Icon:        "star",
		Category:    domain.CategoryPerformance,
		Target:      80,
		StatKey:     StatCompletionRate,
		Condition:   func(s domain.UserStats) bool { return s.OverallCompletionRate >= 80 },
	},
	{
		ID:          "perfect_week",
		Title:       "Perfect Week",
		Description: "Complete a habit seven days straight in one week",
		Icon:        "calendar",
		Category:    domain.CategoryPerformance,
		Target:      1,
		StatKey:     StatPerfectWeeks,
		Condition:   func(s domain.UserStats) bool { return s.PerfectWeeks >= 1 },
	},
	{
		ID:          "early_bird",
		Title:       "Early Bird",
		Description: "Complete 25 habits scheduled before 9 AM",
		Icon:        "sunrise",
		Category:    domain.CategoryTiming,
		Target:      25,
		StatKey:     StatEarlyCompletions,
		Condition:   func(s domain.UserStats) bool { return s.EarlyCompletions >= 25 },
	},
	{
		ID:          "night_owl",
		Title:       "Night Owl",
		Description: "Complete 25 habits scheduled after 8 PM",
		Icon:        "moon",
		Category:    domain.CategoryTiming,
		Target:      25,
		StatKey:     StatLateCompletions,
		Condition:   func(s domain.UserStats) bool { return s.LateCompletions >= 25 },
	},
}

// Catalog returns a copy of the full badge table in canonical order.
func Catalog() []domain.Achievement {
	out := make([]domain.Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up a single catalog entry.
func ByID(id string) (domain.Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Achievement{}, false
}

// ByCategory returns catalog entries of one category, preserving order.
func ByCategory(category string) []domain.Achievement {
	var out []domain.Achievement
	for _, a := range catalog {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// statValue maps a stats field key to its numeric value.
func statValue(stats domain.UserStats, key string) int {
	switch key {
	case StatTotalHabits:
		return stats.TotalHabits
	case StatTotalCompletions:
		return stats.TotalCompletions
	case StatCurrentStreak:
		return stats.CurrentStreak
	case StatLongestStreak:
		return stats.LongestStreak
	case StatCompletionRate:
		return stats.OverallCompletionRate
	case StatPerfectWeeks:
		return stats.PerfectWeeks
	case StatEarlyCompletions:
		return stats.EarlyCompletions
	case StatLateCompletions:
		return stats.LateCompletions
	default:
		return 0
	}
}
