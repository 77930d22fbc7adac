package coach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)

	return client, srv
}

func TestNewClient(t *testing.T) {
	t.Run("Error: missing base url is rejected", func(t *testing.T) {
		_, err := NewClient(Config{})
		assert.Error(t, err)
	})

	t.Run("Success: trailing slash is trimmed", func(t *testing.T) {
		c, err := NewClient(Config{BaseURL: "http://coach.local/"})
		require.NoError(t, err)
		assert.Equal(t, "http://coach.local", c.baseURL)
	})
}

func TestClient_GenerateTip(t *testing.T) {
	analysis := domain.CoachAnalysis{
		CompletionRate: 70,
		TotalHabits:    3,
		Streak:         5,
		Category:       "warning",
		RecentTrend:    domain.TrendImproving,
	}

	t.Run("Success: posts analysis and returns the tip", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/tips", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var got domain.CoachAnalysis
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, analysis, got)

			json.NewEncoder(w).Encode(map[string]string{"tip": "Protect your streak today."})
		})

		tip, err := client.GenerateTip(context.Background(), analysis)
		assert.NoError(t, err)
		assert.Equal(t, "Protect your streak today.", tip)
	})

	t.Run("Success: retries after a server error", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				http.Error(w, "upstream busy", http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"tip": "Back on track."})
		})

		tip, err := client.GenerateTip(context.Background(), analysis)
		assert.NoError(t, err)
		assert.Equal(t, "Back on track.", tip)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("Error: empty tip counts as an invalid response", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"tip": "   "})
		})

		_, err := client.GenerateTip(context.Background(), analysis)
		assert.ErrorIs(t, err, domain.ErrCoachUnavailable)
	})

	t.Run("Error: persistent failures surface ErrCoachUnavailable", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "down", http.StatusInternalServerError)
		})

		_, err := client.GenerateTip(context.Background(), analysis)
		assert.ErrorIs(t, err, domain.ErrCoachUnavailable)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("Error: malformed body counts as an invalid response", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})

		_, err := client.GenerateTip(context.Background(), analysis)
		assert.ErrorIs(t, err, domain.ErrCoachUnavailable)
	})
}
