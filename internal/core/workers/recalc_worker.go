package workers

import (
	"context"
	"log"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

type HabitRecalculator interface {
	RecalculateAll(ctx context.Context) ([]domain.Habit, error)
}

type RecalcJob struct {
	Trigger string
}

// RecalcWorker runs counter recalculation in the background after mutations,
// so HTTP handlers never pay for a full collection pass. Jobs are dropped
// when the queue is full; the next sync pass catches up anyway.
type RecalcWorker struct {
	store HabitRecalculator
	jobs  chan RecalcJob
}

func NewRecalcWorker(store HabitRecalculator) *RecalcWorker {
	return &RecalcWorker{
		store: store,
		jobs:  make(chan RecalcJob, 100),
	}
}

func (w *RecalcWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Recalc Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Recalc Worker shutting down...")
				return
			}
		}
	}()
}

func (w *RecalcWorker) Enqueue(trigger string) {
	select {
	case w.jobs <- RecalcJob{Trigger: trigger}:
	default:
		log.Printf("Recalc Worker queue full! Dropping job (trigger=%s)", trigger)
	}
}

func (w *RecalcWorker) processJob(ctx context.Context, job RecalcJob) {
	habits, err := w.store.RecalculateAll(ctx)
	if err != nil {
		log.Printf("Worker Error recalculating (trigger=%s): %v", job.Trigger, err)
		return
	}
	log.Printf("Recalculation done (trigger=%s): %d habit(s)", job.Trigger, len(habits))
}
