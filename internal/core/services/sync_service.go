package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

// HabitStore is the slice of the habit service the synchronizer needs.
type HabitStore interface {
	GetAll(ctx context.Context) ([]domain.Habit, error)
	SaveAll(ctx context.Context, habits []domain.Habit) error
	RecalculateAll(ctx context.Context) ([]domain.Habit, error)
}

// SyncService keeps the persisted habit collection internally consistent.
// It is an explicit, constructor-injected service instance: the in-progress
// guard and the observer list live on the instance, never in package state.
type SyncService struct {
	store HabitStore

	mu           sync.Mutex
	inProgress   bool
	lastSyncTime time.Time

	lmu       sync.Mutex
	listeners map[int]domain.SyncListener
	nextID    int
}

func NewSyncService(store HabitStore) *SyncService {
	return &SyncService{
		store:     store,
		listeners: make(map[int]domain.SyncListener),
	}
}

// Subscribe registers a progress listener and returns its subscription id.
func (s *SyncService) Subscribe(listener domain.SyncListener) int {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	s.nextID++
	s.listeners[s.nextID] = listener
	return s.nextID
}

func (s *SyncService) Unsubscribe(id int) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	delete(s.listeners, id)
}

func (s *SyncService) notify(stage string, percent int) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	for _, listener := range s.listeners {
		listener(domain.SyncEvent{Stage: stage, Percent: percent})
	}
}

// Status reports whether a sync is running and when the last one finished.
func (s *SyncService) Status() (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgress, s.lastSyncTime
}

// integrityCheck inspects the collection for one class of inconsistency and
// returns nil when that class is absent.
type integrityCheck func(habits []domain.Habit) *domain.IntegrityIssue

var integrityChecks = []integrityCheck{
	checkDuplicateIDs,
	checkMissingFields,
	checkFrequencies,
	checkCounterBounds,
	checkCounterDrift,
}

// ValidateIntegrity scans the collection for structural and logical
// inconsistencies. It never fails: a panicking scan step is converted into a
// single critical validation_error issue.
func (s *SyncService) ValidateIntegrity(habits []domain.Habit) (report domain.IntegrityReport) {
	report = domain.IntegrityReport{
		Issues:  []domain.IntegrityIssue{},
		Summary: map[string]int{},
	}

	defer func() {
		if r := recover(); r != nil {
			report.Issues = append(report.Issues, domain.IntegrityIssue{
				Type:     domain.IssueValidationError,
				Severity: domain.SeverityCritical,
				Message:  fmt.Sprintf("integrity scan failed: %v", r),
			})
		}
		for _, issue := range report.Issues {
			report.Summary[issue.Severity]++
		}
		report.Valid = len(report.Issues) == 0
	}()

	for _, check := range integrityChecks {
		if issue := check(habits); issue != nil {
			report.Issues = append(report.Issues, *issue)
		}
	}

	return report
}

func checkDuplicateIDs(habits []domain.Habit) *domain.IntegrityIssue {
	seen := make(map[string]int)
	var duplicates []string
	for i := range habits {
		id := habits[i].ID
		if id == "" {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			duplicates = append(duplicates, id)
		}
	}
	if len(duplicates) == 0 {
		return nil
	}
	return &domain.IntegrityIssue{
		Type:     domain.IssueDuplicateIDs,
		Severity: domain.SeverityHigh,
		Message:  fmt.Sprintf("%d duplicated habit id(s)", len(duplicates)),
		HabitIDs: duplicates,
	}
}

func checkMissingFields(habits []domain.Habit) *domain.IntegrityIssue {
	var missing []string
	for i := range habits {
		if habits[i].ID == "" || habits[i].Name == "" {
			ref := habits[i].ID
			if ref == "" {
				ref = fmt.Sprintf("index %d", i)
			}
			missing = append(missing, ref)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.IntegrityIssue{
		Type:     domain.IssueMissingFields,
		Severity: domain.SeverityCritical,
		Message:  fmt.Sprintf("%d habit(s) missing id or name", len(missing)),
		HabitIDs: missing,
	}
}

func checkFrequencies(habits []domain.Habit) *domain.IntegrityIssue {
	var badFreq []string
	for i := range habits {
		switch habits[i].Frequency {
		case domain.FrequencyDaily, domain.FrequencyWeekly:
		default:
			badFreq = append(badFreq, habits[i].ID)
		}
	}
	if len(badFreq) == 0 {
		return nil
	}
	return &domain.IntegrityIssue{
		Type:     domain.IssueInvalidFrequency,
		Severity: domain.SeverityMedium,
		Message:  fmt.Sprintf("%d habit(s) with invalid frequency", len(badFreq)),
		HabitIDs: badFreq,
	}
}

func checkCounterBounds(habits []domain.Habit) *domain.IntegrityIssue {
	var overCounted []string
	for i := range habits {
		if habits[i].CompletedDays > habits[i].TotalDays {
			overCounted = append(overCounted, habits[i].ID)
		}
	}
	if len(overCounted) == 0 {
		return nil
	}
	return &domain.IntegrityIssue{
		Type:     domain.IssueCompletedExceedTotal,
		Severity: domain.SeverityHigh,
		Message:  fmt.Sprintf("%d habit(s) with completed days above total days", len(overCounted)),
		HabitIDs: overCounted,
	}
}

// Counter drift of 1 can happen benignly around midnight; anything beyond
// that is a real mismatch.
func checkCounterDrift(habits []domain.Habit) *domain.IntegrityIssue {
	var mismatched []string
	for i := range habits {
		trueCount := 0
		for _, record := range habits[i].CompletionHistory {
			if record.Completed {
				trueCount++
			}
		}
		diff := habits[i].CompletedDays - trueCount
		if diff < 0 {
			diff = -diff
		}
		if diff > 1 {
			mismatched = append(mismatched, habits[i].ID)
		}
	}
	if len(mismatched) == 0 {
		return nil
	}
	return &domain.IntegrityIssue{
		Type:     domain.IssueHistoryCountMismatch,
		Severity: domain.SeverityMedium,
		Message:  fmt.Sprintf("%d habit(s) with counters drifting from history", len(mismatched)),
		HabitIDs: mismatched,
	}
}

// repairFunc applies the deterministic fix for one issue type, mutating the
// working copy in place.
type repairFunc func(repaired []domain.Habit, issue domain.IntegrityIssue)

var repairFuncs = map[string]repairFunc{
	domain.IssueDuplicateIDs:         repairDuplicateIDs,
	domain.IssueMissingFields:        repairMissingIDs,
	domain.IssueInvalidFrequency:     repairFrequencies,
	domain.IssueHistoryCountMismatch: repairCounters,
	domain.IssueCompletedExceedTotal: repairCounters,
}

// RepairIntegrity applies the deterministic fix for each recognized issue
// type and returns the repaired collection. Unrecognized issue types are
// left untouched. On any internal failure the original collection comes
// back unmodified: repair never worsens state.
func (s *SyncService) RepairIntegrity(habits []domain.Habit, issues []domain.IntegrityIssue) (repaired []domain.Habit) {
	original := habits

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SYNC] Repair failed, keeping original collection: %v", r)
			repaired = original
		}
	}()

	repaired = make([]domain.Habit, len(habits))
	copy(repaired, habits)

	for _, issue := range issues {
		fix, ok := repairFuncs[issue.Type]
		if !ok {
			log.Printf("[SYNC] No deterministic fix for issue type %q, leaving as is", issue.Type)
			continue
		}
		fix(repaired, issue)
	}

	return repaired
}

// The first occurrence of each duplicate group keeps its id.
func repairDuplicateIDs(repaired []domain.Habit, _ domain.IntegrityIssue) {
	seen := make(map[string]bool)
	for i := range repaired {
		id := repaired[i].ID
		if !seen[id] {
			seen[id] = true
			continue
		}
		repaired[i].ID = uuid.New().String()
		log.Printf("[SYNC] Regenerated duplicate id %s -> %s", id, repaired[i].ID)
	}
}

func repairMissingIDs(repaired []domain.Habit, _ domain.IntegrityIssue) {
	for i := range repaired {
		if repaired[i].ID == "" {
			repaired[i].ID = uuid.New().String()
		}
	}
}

func repairFrequencies(repaired []domain.Habit, _ domain.IntegrityIssue) {
	for i := range repaired {
		switch repaired[i].Frequency {
		case domain.FrequencyDaily, domain.FrequencyWeekly:
		default:
			repaired[i].Frequency = domain.FrequencyDaily
		}
	}
}

func repairCounters(repaired []domain.Habit, issue domain.IntegrityIssue) {
	now := time.Now().UTC()
	for _, id := range issue.HabitIDs {
		if idx := indexByID(repaired, id); idx >= 0 {
			repaired[idx].Recalculate(now)
		}
	}
}

// DetectChanges diffs two collection snapshots by habit id. Pure; it touches
// no storage.
func (s *SyncService) DetectChanges(oldHabits, newHabits []domain.Habit) domain.ChangeSet {
	oldByID := make(map[string]*domain.Habit, len(oldHabits))
	for i := range oldHabits {
		oldByID[oldHabits[i].ID] = &oldHabits[i]
	}
	newByID := make(map[string]*domain.Habit, len(newHabits))
	for i := range newHabits {
		newByID[newHabits[i].ID] = &newHabits[i]
	}

	changes := domain.ChangeSet{
		Added:    []string{},
		Removed:  []string{},
		Modified: []string{},
	}

	for i := range newHabits {
		id := newHabits[i].ID
		old, exists := oldByID[id]
		if !exists {
			changes.Added = append(changes.Added, id)
			continue
		}
		if habitModified(old, &newHabits[i]) {
			changes.Modified = append(changes.Modified, id)
		}
	}

	for i := range oldHabits {
		if _, exists := newByID[oldHabits[i].ID]; !exists {
			changes.Removed = append(changes.Removed, oldHabits[i].ID)
		}
	}

	changes.Total = len(changes.Added) + len(changes.Removed) + len(changes.Modified)
	changes.HasChanges = changes.Total > 0
	return changes
}

func habitModified(prev, next *domain.Habit) bool {
	return prev.Name != next.Name ||
		prev.IsCompleted != next.IsCompleted ||
		prev.CompletedDays != next.CompletedDays ||
		prev.TotalDays != next.TotalDays
}

type SyncOptions struct {
	Force       bool
	Recalculate bool
}

// PerformFullSync runs a full consistency cycle: optional recalculation,
// load, validate, repair-and-persist when needed. A concurrent call without
// Force returns a skipped result immediately instead of queuing. The
// in-progress guard is cleared on every exit path.
func (s *SyncService) PerformFullSync(ctx context.Context, opts SyncOptions) domain.SyncResult {
	s.mu.Lock()
	if s.inProgress && !opts.Force {
		s.mu.Unlock()
		return domain.SyncResult{
			Status:  domain.SyncStatusSkipped,
			Message: domain.ErrSyncInProgress.Error(),
		}
	}
	s.inProgress = true
	s.mu.Unlock()

	started := time.Now()

	defer func() {
		s.mu.Lock()
		s.inProgress = false
		s.mu.Unlock()
	}()

	fail := func(msg string, err error) domain.SyncResult {
		log.Printf("[SYNC] %s: %v", msg, err)
		return domain.SyncResult{
			Status:   domain.SyncStatusFailed,
			Message:  fmt.Sprintf("%s: %v", msg, err),
			Duration: time.Since(started),
		}
	}

	s.notify("starting", 25)

	var habits []domain.Habit
	var err error
	if opts.Recalculate {
		habits, err = s.store.RecalculateAll(ctx)
		if err != nil {
			return fail("recalculation failed", err)
		}
	} else {
		habits, err = s.store.GetAll(ctx)
		if err != nil {
			return fail("load failed", err)
		}
	}

	s.notify("validating", 50)

	report := s.ValidateIntegrity(habits)

	repairedAny := false
	if !report.Valid {
		s.notify("repairing", 75)

		repaired := s.RepairIntegrity(habits, report.Issues)
		if err := s.store.SaveAll(ctx, repaired); err != nil {
			return fail("persisting repairs failed", err)
		}
		habits = repaired
		repairedAny = true
		log.Printf("[SYNC] Repaired %d integrity issue(s)", len(report.Issues))
	} else {
		s.notify("repairing", 75)
	}

	s.mu.Lock()
	s.lastSyncTime = time.Now().UTC()
	last := s.lastSyncTime
	s.mu.Unlock()

	s.notify("done", 100)

	return domain.SyncResult{
		Status:       domain.SyncStatusCompleted,
		Report:       &report,
		Repaired:     repairedAny,
		HabitCount:   len(habits),
		Duration:     time.Since(started),
		LastSyncTime: last,
	}
}

// PerformIncrementalRefresh loads the latest persisted snapshot and diffs it
// against the caller's in-memory snapshot. Storage is never mutated.
func (s *SyncService) PerformIncrementalRefresh(ctx context.Context, currentHabits []domain.Habit) (domain.ChangeSet, error) {
	latest, err := s.store.GetAll(ctx)
	if err != nil {
		return domain.ChangeSet{}, err
	}
	return s.DetectChanges(currentHabits, latest), nil
}
