package domain

import "errors"

var (
	ErrCoachUnavailable = errors.New("coach service unavailable")
)

// CoachAnalysis is the structured snapshot handed to the external
// text-generation collaborator. The engine only consumes a plain string back.
type CoachAnalysis struct {
	CompletionRate      int    `json:"completion_rate"`
	TotalHabits         int    `json:"total_habits"`
	CompletedToday      int    `json:"completed_today"`
	Streak              int    `json:"streak"`
	Category            string `json:"category"`
	MostConsistentHabit string `json:"most_consistent_habit,omitempty"`
	NeedsAttentionHabit string `json:"needs_attention_habit,omitempty"`
	RecentTrend         string `json:"recent_trend"`
}

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendSteady    = "steady"
)
