package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

func TestSyncFull(t *testing.T) {
	t.Run("Success: clean store completes without repairs", func(t *testing.T) {
		router, _ := setupRouter()
		createHabit(t, router, "Gym")

		w := doJSON(router, "POST", "/api/v1/sync/full", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var result domain.SyncResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, domain.SyncStatusCompleted, result.Status)
		assert.False(t, result.Repaired)
		assert.Equal(t, 1, result.HabitCount)
		require.NotNil(t, result.Report)
		assert.True(t, result.Report.Valid)
	})

	t.Run("Success: repairs duplicated ids and persists the fix", func(t *testing.T) {
		router, kv := setupRouter()

		now := time.Now().UTC()
		habits := []domain.Habit{
			{ID: "dup", Name: "A", Frequency: domain.FrequencyDaily, CreatedAt: now},
			{ID: "dup", Name: "B", Frequency: domain.FrequencyDaily, CreatedAt: now},
		}
		envelope := domain.NewEnvelope(habits)
		raw, err := json.Marshal(envelope)
		require.NoError(t, err)
		require.NoError(t, kv.Set(context.Background(), "ritmo:habits", string(raw)))

		w := doJSON(router, "POST", "/api/v1/sync/full", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var result domain.SyncResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, domain.SyncStatusCompleted, result.Status)
		assert.True(t, result.Repaired)

		list := doJSON(router, "GET", "/api/v1/habits", "")
		var repaired []domain.Habit
		require.NoError(t, json.Unmarshal(list.Body.Bytes(), &repaired))
		require.Len(t, repaired, 2)
		assert.NotEqual(t, repaired[0].ID, repaired[1].ID)
	})

	t.Run("Success: recalculate option rebuilds counters first", func(t *testing.T) {
		router, _ := setupRouter()
		createHabit(t, router, "Gym")

		w := doJSON(router, "POST", "/api/v1/sync/full", `{"recalculate": true}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSyncRefresh(t *testing.T) {
	t.Run("Success: reports added habits against a stale snapshot", func(t *testing.T) {
		router, _ := setupRouter()
		habit := createHabit(t, router, "Gym")

		w := doJSON(router, "POST", "/api/v1/sync/refresh", `{"habits": []}`)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Changes domain.ChangeSet `json:"changes"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Changes.HasChanges)
		assert.Equal(t, []string{habit.ID}, resp.Changes.Added)
	})

	t.Run("Fail: 400 on malformed body", func(t *testing.T) {
		router, _ := setupRouter()

		w := doJSON(router, "POST", "/api/v1/sync/refresh", `{"habits": "nope"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSyncStatus(t *testing.T) {
	t.Run("Success: idle before any sync", func(t *testing.T) {
		router, _ := setupRouter()

		w := doJSON(router, "GET", "/api/v1/sync/status", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"in_progress":false`)
		assert.NotContains(t, w.Body.String(), "last_sync")
	})

	t.Run("Success: records last sync time after a run", func(t *testing.T) {
		router, _ := setupRouter()

		full := doJSON(router, "POST", "/api/v1/sync/full", "")
		require.Equal(t, http.StatusOK, full.Code)

		w := doJSON(router, "GET", "/api/v1/sync/status", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "last_sync")
	})
}

func TestCoachEndpoints(t *testing.T) {
	t.Run("Success: tip falls back to templates without a generator", func(t *testing.T) {
		router, _ := setupRouter()

		w := doJSON(router, "GET", "/api/v1/coach/tip", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["tip"])
	})

	t.Run("Success: analysis reflects the collection", func(t *testing.T) {
		router, _ := setupRouter()
		habit := createHabit(t, router, "Gym")

		done := doJSON(router, "PUT", "/api/v1/habits/"+habit.ID+"/completion", `{"completed": true}`)
		require.Equal(t, http.StatusOK, done.Code)

		w := doJSON(router, "GET", "/api/v1/coach/analysis", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var analysis domain.CoachAnalysis
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
		assert.Equal(t, 1, analysis.TotalHabits)
		assert.Equal(t, 1, analysis.CompletedToday)
		assert.Equal(t, 100, analysis.CompletionRate)
	})
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupRouter()

	w := doJSON(router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"store":"reachable"`)
}
