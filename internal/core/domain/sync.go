package domain

import (
	"errors"
	"time"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
)

const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Integrity issue types detected by the synchronizer's validation scan.
const (
	IssueDuplicateIDs         = "duplicate_ids"
	IssueMissingFields        = "missing_fields"
	IssueInvalidFrequency     = "invalid_frequency"
	IssueCompletedExceedTotal = "completed_exceeds_total"
	IssueHistoryCountMismatch = "history_count_mismatch"
	IssueValidationError      = "validation_error"
)

// IntegrityIssue is a detected structural or logical inconsistency in the
// stored habit collection. Issues are never fatal: they are reported and
// auto-repaired where a deterministic fix exists.
type IntegrityIssue struct {
	Type     string   `json:"type"`
	Severity string   `json:"severity"`
	Message  string   `json:"message"`
	HabitIDs []string `json:"habit_ids,omitempty"`
}

type IntegrityReport struct {
	Valid   bool             `json:"valid"`
	Issues  []IntegrityIssue `json:"issues"`
	Summary map[string]int   `json:"summary"`
}

// ChangeSet is the structured diff between two habit collection snapshots,
// keyed by habit id.
type ChangeSet struct {
	Added      []string `json:"added"`
	Removed    []string `json:"removed"`
	Modified   []string `json:"modified"`
	HasChanges bool     `json:"has_changes"`
	Total      int      `json:"total"`
}

const (
	SyncStatusCompleted = "completed"
	SyncStatusSkipped   = "skipped"
	SyncStatusFailed    = "failed"
)

type SyncResult struct {
	Status       string           `json:"status"`
	Message      string           `json:"message,omitempty"`
	Report       *IntegrityReport `json:"report,omitempty"`
	Repaired     bool             `json:"repaired"`
	HabitCount   int              `json:"habit_count"`
	Duration     time.Duration    `json:"duration_ns"`
	LastSyncTime time.Time        `json:"last_sync_time"`
}

// SyncEvent is delivered to subscribers at fixed milestones of a full sync.
type SyncEvent struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
}

// SyncListener receives progress events. Listeners must not block.
type SyncListener func(SyncEvent)
