package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

// Fixed storage keys. The whole habit collection lives under one key as a
// versioned envelope; unlocked achievement ids live under a second key.
const (
	habitsKey       = "ritmo:habits"
	achievementsKey = "ritmo:achievements"
)

// HabitService is the single owner of the persisted habit collection.
// Storage and validation failures never escape as panics: they are logged
// here and surfaced as sentinel errors the handlers translate.
type HabitService struct {
	kv domain.KeyValueStore
}

func NewHabitService(kv domain.KeyValueStore) *HabitService {
	return &HabitService{kv: kv}
}

type CreateHabitInput struct {
	Name       string
	Frequency  string
	TargetTime string
}

type UpdateHabitInput struct {
	Name       *string
	Frequency  *string
	TargetTime *string
}

// GetAll reads the envelope and returns its habit collection. A missing key,
// a corrupted payload or a failed schema validation all degrade to an empty
// list so corrupted state never propagates to callers.
func (s *HabitService) GetAll(ctx context.Context) ([]domain.Habit, error) {
	raw, err := s.kv.Get(ctx, habitsKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return []domain.Habit{}, nil
		}
		log.Printf("[STORE] Failed to read habits: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	var envelope domain.StoredData
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		log.Printf("[STORE] Corrupted envelope, treating as empty: %v", err)
		return []domain.Habit{}, nil
	}

	if err := envelope.Validate(); err != nil {
		log.Printf("[STORE] Envelope failed schema validation, returning empty list: %v", err)
		return []domain.Habit{}, nil
	}

	if envelope.Habits == nil {
		return []domain.Habit{}, nil
	}
	return envelope.Habits, nil
}

// SaveAll wraps the collection in a fresh envelope and persists it.
// Validation failures abort before any write reaches storage.
func (s *HabitService) SaveAll(ctx context.Context, habits []domain.Habit) error {
	envelope := domain.NewEnvelope(habits)
	if err := envelope.Validate(); err != nil {
		log.Printf("[STORE] Refusing to persist invalid collection: %v", err)
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("%w: marshal envelope: %v", domain.ErrStorageFailure, err)
	}

	if err := s.kv.Set(ctx, habitsKey, string(data)); err != nil {
		log.Printf("[STORE] Failed to persist habits: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	return nil
}

// Add validates the input, synthesizes a new habit and appends it to the
// persisted collection. Nothing is written when validation fails.
func (s *HabitService) Add(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	habit, err := domain.NewHabit(input.Name, input.Frequency, input.TargetTime)
	if err != nil {
		return nil, err
	}

	habits, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	habits = append(habits, *habit)
	if err := s.SaveAll(ctx, habits); err != nil {
		return nil, err
	}

	return habit, nil
}

// Update merges the non-nil fields into the habit with the given id.
func (s *HabitService) Update(ctx context.Context, id string, input UpdateHabitInput) error {
	habits, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	idx := indexByID(habits, id)
	if idx < 0 {
		return domain.ErrHabitNotFound
	}

	habit := habits[idx]
	if input.Name != nil {
		habit.Name = *input.Name
	}
	if input.Frequency != nil {
		habit.Frequency = *input.Frequency
	}
	if input.TargetTime != nil {
		if *input.TargetTime == "" {
			habit.TargetTime = nil
		} else {
			habit.TargetTime = input.TargetTime
		}
	}

	if err := habit.Validate(); err != nil {
		return err
	}

	habits[idx] = habit
	return s.SaveAll(ctx, habits)
}

// UpdateCompletion is the completion-toggle state machine: it sets or
// overwrites today's history entry, re-sorts the log, recomputes counters
// and persists the whole collection. Toggling to the current value is a
// no-op on history content but still recomputes counters.
func (s *HabitService) UpdateCompletion(ctx context.Context, id string, completed bool) (*domain.Habit, error) {
	habits, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexByID(habits, id)
	if idx < 0 {
		return nil, domain.ErrHabitNotFound
	}

	now := time.Now().UTC()
	habit := habits[idx]
	habit.SetCompletion(domain.DateKey(now), completed)
	habit.Recalculate(now)
	habit.IsCompleted = completed

	habits[idx] = habit
	if err := s.SaveAll(ctx, habits); err != nil {
		return nil, err
	}

	return &habit, nil
}

// Delete removes the habit with the given id from the persisted collection.
func (s *HabitService) Delete(ctx context.Context, id string) error {
	habits, err := s.GetAll(ctx)
	if err != nil {
		return err
	}

	idx := indexByID(habits, id)
	if idx < 0 {
		return domain.ErrHabitNotFound
	}

	habits = append(habits[:idx], habits[idx+1:]...)
	return s.SaveAll(ctx, habits)
}

// RecalculateAll re-derives every habit's counters from its history and
// persists the result. This is the self-healing entry point invoked before
// reads-for-display and by the synchronizer.
func (s *HabitService) RecalculateAll(ctx context.Context) ([]domain.Habit, error) {
	habits, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range habits {
		habits[i].Recalculate(now)
	}

	if err := s.SaveAll(ctx, habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// ClearAll wipes both the habit envelope and the unlocked achievement set.
func (s *HabitService) ClearAll(ctx context.Context) error {
	if err := s.kv.Delete(ctx, habitsKey); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	if err := s.kv.Delete(ctx, achievementsKey); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// UnlockedAchievementIDs reads the persisted unlocked badge set.
// Absent or corrupted data degrades to an empty set.
func (s *HabitService) UnlockedAchievementIDs(ctx context.Context) ([]string, error) {
	raw, err := s.kv.Get(ctx, achievementsKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return []string{}, nil
		}
		log.Printf("[STORE] Failed to read achievements: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Printf("[STORE] Corrupted achievement set, treating as empty: %v", err)
		return []string{}, nil
	}
	return ids, nil
}

func (s *HabitService) SaveUnlockedAchievementIDs(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: marshal achievements: %v", domain.ErrStorageFailure, err)
	}
	if err := s.kv.Set(ctx, achievementsKey, string(data)); err != nil {
		log.Printf("[STORE] Failed to persist achievements: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// UnlockAchievement appends an id to the unlocked set. Idempotent: unlocking
// an already-present id is a no-op. Returns whether the id was newly added.
func (s *HabitService) UnlockAchievement(ctx context.Context, id string) (bool, error) {
	ids, err := s.UnlockedAchievementIDs(ctx)
	if err != nil {
		return false, err
	}

	for _, existing := range ids {
		if existing == id {
			return false, nil
		}
	}

	ids = append(ids, id)
	if err := s.SaveUnlockedAchievementIDs(ctx, ids); err != nil {
		return false, err
	}
	return true, nil
}

func indexByID(habits []domain.Habit, id string) int {
	for i := range habits {
		if habits[i].ID == id {
			return i
		}
	}
	return -1
}

// WithOptimisticUpdate applies persist to next and returns next when the
// write succeeds, or current when it fails. Callers holding an in-memory
// copy use this to commit-or-rollback optimistic UI mutations.
func WithOptimisticUpdate[T any](current, next T, persist func(T) error) (T, error) {
	if err := persist(next); err != nil {
		return current, err
	}
	return next, nil
}
