package domain

const (
	CategoryStreak      = "streak"
	CategoryPerformance = "performance"
	CategoryMilestone   = "milestone"
	CategoryTiming      = "timing"
)

// Achievement is an immutable catalog entry. The condition is a pure
// predicate over aggregate user statistics; Target and StatKey feed the
// progress-to-unlock view for locked badges.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Target      int    `json:"target"`
	StatKey     string `json:"stat_key"`

	Condition func(UserStats) bool `json:"-"`
}

// UserStats is the ephemeral aggregate over the whole habit collection.
// Recomputed on demand, never persisted.
type UserStats struct {
	TotalHabits           int `json:"total_habits"`
	TotalCompletions      int `json:"total_completions"`
	TotalDays             int `json:"total_days"`
	LongestStreak         int `json:"longest_streak"`
	CurrentStreak         int `json:"current_streak"`
	OverallCompletionRate int `json:"overall_completion_rate"`
	PerfectWeeks          int `json:"perfect_weeks"`
	EarlyCompletions      int `json:"early_completions"`
	LateCompletions       int `json:"late_completions"`
}

// AchievementProgress describes how close a locked badge is to unlocking.
type AchievementProgress struct {
	Achievement        Achievement `json:"achievement"`
	CurrentValue       int         `json:"current_value"`
	TargetValue        int         `json:"target_value"`
	ProgressPercentage int         `json:"progress_percentage"`
}
