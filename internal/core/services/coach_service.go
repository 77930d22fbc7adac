package services

import (
	"context"
	"fmt"
	"log"

	"github.com/fpellegrini/ritmo-engine/internal/core/achievements"
	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
	"github.com/fpellegrini/ritmo-engine/internal/core/progress"
)

// TipGenerator is the external AI text-generation collaborator. The engine
// hands it a structured analysis and consumes only a string back.
type TipGenerator interface {
	GenerateTip(ctx context.Context, analysis domain.CoachAnalysis) (string, error)
}

// HabitReader is the read-only slice of the habit store the coach needs.
type HabitReader interface {
	GetAll(ctx context.Context) ([]domain.Habit, error)
}

// CoachService turns the habit collection into a motivational tip. When the
// external generator is unavailable it falls back to templated messages, so
// the caller's contract never depends on the collaborator being up.
type CoachService struct {
	store     HabitReader
	generator TipGenerator
}

func NewCoachService(store HabitReader, generator TipGenerator) *CoachService {
	return &CoachService{store: store, generator: generator}
}

// BuildAnalysis condenses the whole collection into the snapshot handed to
// the text generator.
func (s *CoachService) BuildAnalysis(ctx context.Context) (domain.CoachAnalysis, error) {
	habits, err := s.store.GetAll(ctx)
	if err != nil {
		return domain.CoachAnalysis{}, err
	}

	stats := achievements.CalculateUserStats(habits)

	analysis := domain.CoachAnalysis{
		CompletionRate: stats.OverallCompletionRate,
		TotalHabits:    stats.TotalHabits,
		Streak:         stats.CurrentStreak,
		Category:       progress.ColorTier(stats.OverallCompletionRate),
	}

	bestScore := -1
	worstRate := 101
	weeklySum := 0
	weeklyCount := 0
	for i := range habits {
		h := &habits[i]
		if h.IsCompleted {
			analysis.CompletedToday++
		}

		if c := progress.ConsistencyScore(h); c.Rating != progress.RatingNoData && c.Score > bestScore {
			bestScore = c.Score
			analysis.MostConsistentHabit = h.Name
		}

		if len(h.CompletionHistory) > 0 {
			if rate := progress.CompletionPercentage(h); rate < worstRate {
				worstRate = rate
				analysis.NeedsAttentionHabit = h.Name
			}
			weeklySum += progress.WeeklyCompletionRate(h.CompletionHistory, progress.DefaultWeeksBack)
			weeklyCount++
		}
	}

	analysis.RecentTrend = domain.TrendSteady
	if weeklyCount > 0 {
		weeklyAvg := weeklySum / weeklyCount
		switch {
		case weeklyAvg > stats.OverallCompletionRate+5:
			analysis.RecentTrend = domain.TrendImproving
		case weeklyAvg < stats.OverallCompletionRate-5:
			analysis.RecentTrend = domain.TrendDeclining
		}
	}

	return analysis, nil
}

// DailyTip returns a motivational message for the current state of the
// collection. External failures are absorbed into a templated fallback.
func (s *CoachService) DailyTip(ctx context.Context) (string, error) {
	analysis, err := s.BuildAnalysis(ctx)
	if err != nil {
		return "", err
	}

	if s.generator != nil {
		tip, err := s.generator.GenerateTip(ctx, analysis)
		if err == nil && tip != "" {
			return tip, nil
		}
		log.Printf("[COACH] Generator unavailable, using fallback tip: %v", err)
	}

	return fallbackTip(analysis), nil
}

func fallbackTip(a domain.CoachAnalysis) string {
	if a.TotalHabits == 0 {
		return "Add your first habit today. Small commitments compound."
	}

	switch a.Category {
	case progress.TierSuccess:
		if a.Streak > 0 {
			return fmt.Sprintf("You're at %d%% with a %d-day streak. Protect the chain today.", a.CompletionRate, a.Streak)
		}
		return fmt.Sprintf("Strong %d%% completion rate. Start today's streak early.", a.CompletionRate)
	case progress.TierWarning:
		if a.NeedsAttentionHabit != "" {
			return fmt.Sprintf("Solid progress overall. Give %q a little extra focus today.", a.NeedsAttentionHabit)
		}
		return "Solid progress. One more completion today moves the needle."
	default:
		if a.RecentTrend == domain.TrendImproving {
			return "The recent trend is up. Keep stacking small wins."
		}
		return "Pick your easiest habit and complete it now. Momentum beats motivation."
	}
}
