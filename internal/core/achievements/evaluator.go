package achievements

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
	"github.com/fpellegrini/ritmo-engine/internal/core/progress"
)

const (
	earlyHourCutoff = 9
	lateHourCutoff  = 20
	perfectWeekLen  = 7
)

// CalculateUserStats aggregates the whole habit collection into the stats
// object badge predicates run against. An empty collection yields all zeros.
//
// Early/late completions are a deliberate approximation: they assume each
// completion happened at the habit's target time, because the history log
// keeps no per-completion timestamps.
func CalculateUserStats(habits []domain.Habit) domain.UserStats {
	stats := domain.UserStats{TotalHabits: len(habits)}

	for i := range habits {
		h := &habits[i]

		stats.TotalCompletions += h.CompletedDays
		stats.TotalDays += h.TotalDays

		current, longest := progress.Streaks(h.CompletionHistory)
		if current > stats.CurrentStreak {
			stats.CurrentStreak = current
		}
		if longest > stats.LongestStreak {
			stats.LongestStreak = longest
		}

		if hasPerfectWeek(h.CompletionHistory) {
			stats.PerfectWeeks++
		}

		if hour, ok := targetHour(h.TargetTime); ok {
			switch {
			case hour < earlyHourCutoff:
				stats.EarlyCompletions += h.CompletedDays
			case hour >= lateHourCutoff:
				stats.LateCompletions += h.CompletedDays
			}
		}
	}

	if stats.TotalDays > 0 {
		rate := float64(stats.TotalCompletions) / float64(stats.TotalDays) * 100
		stats.OverallCompletionRate = int(math.Round(rate))
	}

	return stats
}

func hasPerfectWeek(history []domain.CompletionRecord) bool {
	if len(history) < perfectWeekLen {
		return false
	}

	sorted := make([]domain.CompletionRecord, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	for _, record := range sorted[len(sorted)-perfectWeekLen:] {
		if !record.Completed {
			return false
		}
	}
	return true
}

func targetHour(targetTime *string) (int, bool) {
	if targetTime == nil {
		return 0, false
	}
	parts := strings.SplitN(*targetTime, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

// CheckResult lists every currently satisfied badge and the subset that was
// not already unlocked, both in catalog order.
type CheckResult struct {
	AllUnlocked     []string `json:"all_unlocked"`
	NewAchievements []string `json:"new_achievements"`
}

// CheckAchievements evaluates every catalog predicate against freshly
// computed stats. Pure and re-entrant: identical inputs always produce
// identical results.
func CheckAchievements(habits []domain.Habit, alreadyUnlocked []string) CheckResult {
	stats := CalculateUserStats(habits)

	known := make(map[string]struct{}, len(alreadyUnlocked))
	for _, id := range alreadyUnlocked {
		known[id] = struct{}{}
	}

	result := CheckResult{
		AllUnlocked:     []string{},
		NewAchievements: []string{},
	}
	for _, a := range catalog {
		if !a.Condition(stats) {
			continue
		}
		result.AllUnlocked = append(result.AllUnlocked, a.ID)
		if _, ok := known[a.ID]; !ok {
			result.NewAchievements = append(result.NewAchievements, a.ID)
		}
	}

	return result
}

// Progress reports how close each still-locked badge is to unlocking,
// sorted closest-first. Ties keep catalog order.
func Progress(habits []domain.Habit, unlockedIDs []string) []domain.AchievementProgress {
	stats := CalculateUserStats(habits)

	unlocked := make(map[string]struct{}, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlocked[id] = struct{}{}
	}

	out := make([]domain.AchievementProgress, 0, len(catalog))
	for _, a := range catalog {
		if _, ok := unlocked[a.ID]; ok {
			continue
		}

		target := a.Target
		if target <= 0 {
			target = 1
		}

		value := statValue(stats, a.StatKey)
		pct := int(math.Round(float64(value) / float64(target) * 100))
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}

		out = append(out, domain.AchievementProgress{
			Achievement:        a,
			CurrentValue:       value,
			TargetValue:        target,
			ProgressPercentage: pct,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProgressPercentage > out[j].ProgressPercentage
	})

	return out
}
