package engine

import (
	"time"

	"github.com/danieljhkim/solodeploy/internal/health"
	"github.com/danieljhkim/solodeploy/internal/planner"
	"github.com/danieljhkim/solodeploy/internal/store"
)

// StageResult records one executed pipeline stage.
type StageResult struct {
	// Stage is the pipeline stage.
	Stage planner.Stage

	// Action is what the stage did (or skipped).
	Action planner.Action

	// Detail is a human-readable description of the outcome.
	Detail string
}

// DeployResult represents the result of running the deploy pipeline.
type DeployResult struct {
	// ReleaseID identifies this deploy attempt (empty for dry runs).
	ReleaseID string

	// Plan is the stage plan computed before execution.
	Plan *planner.Plan

	// Stages is the list of stages that actually executed, in order.
	Stages []StageResult

	// StoreInitialized reports whether the data store schema was created
	// on this run (first-time initialization).
	StoreInitialized bool

	// StoppedPID is the prior instance terminated before launch, 0 if none.
	StoppedPID int

	// PID is the pid of the launched instance.
	PID int

	// Health is the post-launch probe report, nil for dry runs and for
	// pipelines that failed before the health stage.
	Health *health.Report

	// Outcome is "success", "degraded", or "failed".
	Outcome string

	// Warnings lists non-fatal problems encountered along the way.
	Warnings []string
}

// StatusResult represents the current deployment status.
type StatusResult struct {
	// App is the application name.
	App string

	// Deployed reports whether any deployment state exists.
	Deployed bool

	// Running reports whether the recorded pid is alive right now.
	Running bool

	// PID is the recorded pid, 0 when stopped.
	PID int

	// ReleaseID is the most recent release.
	ReleaseID string

	// LastOutcome is the outcome of the most recent deploy.
	LastOutcome string

	// DeployedAt is when the current instance was launched.
	DeployedAt time.Time

	// Workspace, LogFile, and DBFile are the resolved artifact paths.
	Workspace string
	LogFile   string
	DBFile    string

	// Health is the live probe report when requested, nil otherwise.
	Health *health.Report

	// History holds recent releases when requested, newest first.
	History []store.Release
}

// StopResult represents the result of stopping the application.
type StopResult struct {
	// PID is the pid that was stopped, 0 if nothing was running.
	PID int

	// WasRunning reports whether a live instance was found.
	WasRunning bool
}
