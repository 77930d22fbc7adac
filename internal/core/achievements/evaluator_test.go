package achievements_test

import (
	"testing"
	"time"

	"github.com/fpellegrini/ritmo-engine/internal/core/achievements"
	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(offset int) string {
	return domain.DateKey(time.Now().UTC().AddDate(0, 0, offset))
}

func ptr(s string) *string { return &s }

func habitWithRun(name string, days int) domain.Habit {
	history := make([]domain.CompletionRecord, 0, days)
	for i := -days + 1; i <= 0; i++ {
		history = append(history, domain.CompletionRecord{Date: day(i), Completed: true})
	}
	return domain.Habit{
		ID:                name,
		Name:              name,
		Frequency:         domain.FrequencyDaily,
		CompletedDays:     days,
		TotalDays:         days,
		CompletionHistory: history,
	}
}

func TestCalculateUserStats(t *testing.T) {
	t.Run("Edge Case: Empty collection yields all-zero stats", func(t *testing.T) {
		stats := achievements.CalculateUserStats(nil)
		assert.Equal(t, domain.UserStats{}, stats)
	})

	t.Run("Success: Aggregates totals and overall rate", func(t *testing.T) {
		habits := []domain.Habit{
			{ID: "a", CompletedDays: 7, TotalDays: 10},
			{ID: "b", CompletedDays: 3, TotalDays: 10},
		}

		stats := achievements.CalculateUserStats(habits)
		assert.Equal(t, 2, stats.TotalHabits)
		assert.Equal(t, 10, stats.TotalCompletions)
		assert.Equal(t, 20, stats.TotalDays)
		assert.Equal(t, 50, stats.OverallCompletionRate)
	})

	t.Run("Success: Streaks are the maximum over all habits", func(t *testing.T) {
		habits := []domain.Habit{
			habitWithRun("short", 2),
			habitWithRun("long", 9),
		}

		stats := achievements.CalculateUserStats(habits)
		assert.Equal(t, 9, stats.CurrentStreak)
		assert.Equal(t, 9, stats.LongestStreak)
	})

	t.Run("Success: Perfect week requires seven trailing completions", func(t *testing.T) {
		perfect := habitWithRun("perfect", 7)

		broken := habitWithRun("broken", 7)
		broken.CompletionHistory[6].Completed = false

		stats := achievements.CalculateUserStats([]domain.Habit{perfect, broken})
		assert.Equal(t, 1, stats.PerfectWeeks)
	})

	t.Run("Success: Early and late completions follow the target hour", func(t *testing.T) {
		early := habitWithRun("early", 4)
		early.TargetTime = ptr("07:00")

		late := habitWithRun("late", 3)
		late.TargetTime = ptr("21:30")

		midday := habitWithRun("midday", 5)
		midday.TargetTime = ptr("12:00")

		stats := achievements.CalculateUserStats([]domain.Habit{early, late, midday})
		assert.Equal(t, 4, stats.EarlyCompletions)
		assert.Equal(t, 3, stats.LateCompletions)
	})
}

func TestCheckAchievements(t *testing.T) {
	t.Run("Edge Case: Empty collection unlocks nothing", func(t *testing.T) {
		result := achievements.CheckAchievements(nil, nil)
		assert.Empty(t, result.AllUnlocked)
		assert.Empty(t, result.NewAchievements)
	})

	t.Run("Success: Satisfied badges come back in catalog order", func(t *testing.T) {
		habits := []domain.Habit{habitWithRun("streaker", 8)}

		result := achievements.CheckAchievements(habits, nil)

		require.NotEmpty(t, result.AllUnlocked)
		assert.Contains(t, result.AllUnlocked, "getting_started")
		assert.Contains(t, result.AllUnlocked, "spark")
		assert.Contains(t, result.AllUnlocked, "on_fire")
		assert.Contains(t, result.AllUnlocked, "perfect_week")
		assert.Equal(t, result.AllUnlocked, result.NewAchievements)
	})

	t.Run("Success: Already unlocked badges are not reported as new", func(t *testing.T) {
		habits := []domain.Habit{habitWithRun("streaker", 8)}

		first := achievements.CheckAchievements(habits, nil)
		second := achievements.CheckAchievements(habits, first.AllUnlocked)

		assert.Equal(t, first.AllUnlocked, second.AllUnlocked)
		assert.Empty(t, second.NewAchievements, "unlock checking is idempotent")
	})
}

func TestProgress(t *testing.T) {
	t.Run("Success: Locked badges sorted closest-to-unlock first", func(t *testing.T) {
		habits := []domain.Habit{habitWithRun("h", 5)}

		list := achievements.Progress(habits, []string{
			"getting_started", "spark", "steady_hand", "high_achiever", "perfect_week", "half_century",
		})

		require.NotEmpty(t, list)
		for i := 1; i < len(list); i++ {
			assert.GreaterOrEqual(t,
				list[i-1].ProgressPercentage, list[i].ProgressPercentage,
				"descending by progress")
		}
	})

	t.Run("Success: Unlocked badges are excluded", func(t *testing.T) {
		habits := []domain.Habit{habitWithRun("h", 5)}

		list := achievements.Progress(habits, []string{"getting_started"})
		for _, p := range list {
			assert.NotEqual(t, "getting_started", p.Achievement.ID)
		}
	})

	t.Run("Edge Case: Progress is capped at 100", func(t *testing.T) {
		habits := []domain.Habit{habitWithRun("a", 9), habitWithRun("b", 9)}

		// high_achiever is satisfied (100% rate) but not yet persisted as
		// unlocked; its progress entry must still cap at 100.
		list := achievements.Progress(habits, nil)
		for _, p := range list {
			assert.LessOrEqual(t, p.ProgressPercentage, 100)
			assert.GreaterOrEqual(t, p.ProgressPercentage, 0)
		}
	})

	t.Run("Success: Ties keep catalog order", func(t *testing.T) {
		// No habits: everything sits at 0%, so the listing must equal the
		// catalog ordering.
		list := achievements.Progress(nil, nil)
		catalog := achievements.Catalog()

		require.Len(t, list, len(catalog))
		for i := range catalog {
			assert.Equal(t, catalog[i].ID, list[i].Achievement.ID)
		}
	})
}

func TestCatalogLookups(t *testing.T) {
	t.Run("Success: ByID finds an entry", func(t *testing.T) {
		a, ok := achievements.ByID("centurion")
		require.True(t, ok)
		assert.Equal(t, domain.CategoryMilestone, a.Category)
		assert.Equal(t, 100, a.Target)
	})

	t.Run("Error: ByID misses unknown ids", func(t *testing.T) {
		_, ok := achievements.ByID("nope")
		assert.False(t, ok)
	})

	t.Run("Success: ByCategory filters while keeping order", func(t *testing.T) {
		streaks := achievements.ByCategory(domain.CategoryStreak)
		require.Len(t, streaks, 3)
		assert.Equal(t, "spark", streaks[0].ID)
		assert.Equal(t, "on_fire", streaks[1].ID)
		assert.Equal(t, "unstoppable", streaks[2].ID)
	})

	t.Run("Success: Catalog spans all four categories with at least 10 badges", func(t *testing.T) {
		catalog := achievements.Catalog()
		assert.GreaterOrEqual(t, len(catalog), 10)

		seen := make(map[string]bool)
		for _, a := range catalog {
			seen[a.Category] = true
		}
		assert.True(t, seen[domain.CategoryStreak])
		assert.True(t, seen[domain.CategoryPerformance])
		assert.True(t, seen[domain.CategoryMilestone])
		assert.True(t, seen[domain.CategoryTiming])
	})
}
