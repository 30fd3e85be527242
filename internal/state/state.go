// Package state persists per-application deployment state.
//
// The state file is the authoritative record of what solodeploy last did
// for an application: the pid it launched, the release it deployed, and the
// package fingerprint installed. Stop and restart operate on this record
// instead of pattern-matching process command lines.
package state

import "time"

// DeployState represents the recorded deployment of one application.
type DeployState struct {
	// App is the application name the state belongs to.
	App string `json:"app"`

	// PID is the pid of the launched instance, 0 when stopped.
	PID int `json:"pid"`

	// ReleaseID identifies the most recent deploy attempt.
	ReleaseID string `json:"releaseId"`

	// PackagesHash fingerprints the package list installed at deploy time.
	PackagesHash string `json:"packagesHash"`

	// SchemaHash fingerprints the configured schema file at deploy time,
	// empty when no schema file is configured. The data store is only
	// initialized once, so a changed schema file never reaches an existing
	// store; the fingerprint lets a later deploy warn about the drift.
	SchemaHash string `json:"schemaHash,omitempty"`

	// Port is the port the instance was launched on.
	Port int `json:"port"`

	// LogFile is the log path the instance writes to.
	LogFile string `json:"logFile"`

	// LastOutcome is the outcome of the most recent deploy
	// ("success", "degraded", "failed").
	LastOutcome string `json:"lastOutcome"`

	// DeployedAt is when the instance was launched.
	DeployedAt time.Time `json:"deployedAt"`

	// UpdatedAt is when this record was last written.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDeployState creates a new empty DeployState for the given application.
func NewDeployState(app string) *DeployState {
	return &DeployState{App: app}
}

// Running reports whether the record claims a live instance. The caller
// still has to confirm the pid against the process table.
func (s *DeployState) Running() bool {
	return s.PID > 0
}

// ClearPID marks the instance stopped.
func (s *DeployState) ClearPID() {
	s.PID = 0
}
