package workers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
	"github.com/fpellegrini/ritmo-engine/internal/core/workers"
	"github.com/stretchr/testify/assert"
)

type stubRecalculator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubRecalculator) RecalculateAll(ctx context.Context) ([]domain.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Habit{}, nil
}

func (s *stubRecalculator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRecalcWorker(t *testing.T) {
	t.Run("Success: Enqueued jobs trigger recalculation", func(t *testing.T) {
		store := &stubRecalculator{}
		worker := workers.NewRecalcWorker(store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		worker.Start(ctx)

		worker.Enqueue("completion_toggle")
		worker.Enqueue("habit_created")

		waitFor(t, func() bool { return store.callCount() == 2 })
	})

	t.Run("Success: Store errors do not kill the loop", func(t *testing.T) {
		store := &stubRecalculator{err: errors.New("storage down")}
		worker := workers.NewRecalcWorker(store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		worker.Start(ctx)

		worker.Enqueue("a")
		worker.Enqueue("b")

		waitFor(t, func() bool { return store.callCount() == 2 })
	})

	t.Run("Success: Cancellation stops processing", func(t *testing.T) {
		store := &stubRecalculator{}
		worker := workers.NewRecalcWorker(store)

		ctx, cancel := context.WithCancel(context.Background())
		worker.Start(ctx)
		cancel()

		time.Sleep(50 * time.Millisecond)
		worker.Enqueue("late")
		time.Sleep(50 * time.Millisecond)

		assert.LessOrEqual(t, store.callCount(), 1)
	})
}
