// Package orch coordinates sync runs: diffing a manifest against its
// bundle, driving the generators, routing writes through safeio and
// reporting a per-artifact SyncRecord.
package orch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction identifies which way a sync run propagates changes.
type Direction string

const (
	// Forward propagates manifest changes into the bundle field schema.
	Forward Direction = "forward"
	// Reverse regenerates manifest and artifacts from the field schema.
	Reverse Direction = "reverse"
)

// State is the orchestrator's position in a run. Transitions are linear;
// a run never revisits an earlier state.
type State string

const (
	StateIdle       State = "idle"
	StateDiffing    State = "diffing"
	StateGenerating State = "generating"
	StateWriting    State = "writing"
	StateReporting  State = "reporting"
)

// ArtifactResult is the outcome for one artifact (or one field operation
// during forward sync).
type ArtifactResult struct {
	Generator  string `json:"generator"`
	Path       string `json:"path,omitempty"`
	Success    bool   `json:"success"`
	Written    bool   `json:"written"`
	Message    string `json:"message,omitempty"`
	BackupPath string `json:"backup_path,omitempty"`
}

// SyncRecord is the structured report of one sync run. Transient: returned
// to the caller, never persisted.
type SyncRecord struct {
	RunID     string           `json:"run_id"`
	BundleID  string           `json:"bundle_id"`
	Direction Direction        `json:"direction"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Artifacts []ArtifactResult `json:"artifacts,omitempty"`
	Success   bool             `json:"success"`
	// Partial marks a run where some artifacts succeeded and some failed.
	Partial bool   `json:"partial"`
	Message string `json:"message,omitempty"`
}

func newRecord(bundleID string, direction Direction) *SyncRecord {
	return &SyncRecord{
		RunID:     uuid.NewString(),
		BundleID:  bundleID,
		Direction: direction,
		StartedAt: time.Now(),
	}
}

// finish derives the aggregate flags from the artifact results.
func (r *SyncRecord) finish() *SyncRecord {
	r.Duration = time.Since(r.StartedAt)
	failed := 0
	for _, a := range r.Artifacts {
		if !a.Success {
			failed++
		}
	}
	r.Success = failed == 0
	r.Partial = failed > 0 && failed < len(r.Artifacts)
	return r
}

// add appends an artifact result.
func (r *SyncRecord) add(result ArtifactResult) {
	r.Artifacts = append(r.Artifacts, result)
}

// SyncContext is the mutable context handed to listeners. A pre-sync
// listener may cancel the run before any generation or write happens.
type SyncContext struct {
	BundleID  string
	Direction Direction
	cancelled bool
	reason    string
}

// Cancel vetoes the run.
func (c *SyncContext) Cancel(reason string) {
	c.cancelled = true
	c.reason = reason
}

// Cancelled reports whether a listener vetoed the run.
func (c *SyncContext) Cancelled() bool {
	return c.cancelled
}

// Listener observes sync runs. PreSync runs before diffing and may cancel;
// PostSync runs after reporting. Listeners are invoked synchronously in
// registration order.
type Listener interface {
	PreSync(ctx *SyncContext)
	PostSync(ctx *SyncContext, record *SyncRecord)
}

// ListenerFuncs adapts plain functions to the Listener interface. Either
// function may be nil.
type ListenerFuncs struct {
	Pre  func(ctx *SyncContext)
	Post func(ctx *SyncContext, record *SyncRecord)
}

func (l ListenerFuncs) PreSync(ctx *SyncContext) {
	if l.Pre != nil {
		l.Pre(ctx)
	}
}

func (l ListenerFuncs) PostSync(ctx *SyncContext, record *SyncRecord) {
	if l.Post != nil {
		l.Post(ctx, record)
	}
}

// SyncCancelledError reports a run vetoed by a pre-sync listener.
type SyncCancelledError struct {
	BundleID string
	Reason   string
}

func (e *SyncCancelledError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("sync of %s cancelled: %s", e.BundleID, e.Reason)
	}
	return fmt.Sprintf("sync of %s cancelled by listener", e.BundleID)
}
