package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danieljhkim/solodeploy/internal/health"
	"github.com/danieljhkim/solodeploy/internal/planner"
	"github.com/danieljhkim/solodeploy/internal/store"
)

// Deploy runs the provision-launch-verify pipeline.
//
// One invocation is one pass: Start → WorkspaceReady → EnvironmentReady →
// StoreReady → ProcessRestarted → HealthChecked. Failures in the first four
// stages abort immediately; an unhealthy probe only degrades the reported
// outcome unless the request demands strict health.
func (e *Engine) Deploy(ctx context.Context, req *DeployRequest) (*DeployResult, error) {
	facts, err := e.gatherFacts()
	if err != nil {
		return nil, err
	}
	plan := planner.Build(facts)
	result := &DeployResult{Plan: plan}

	if req.DryRun {
		return result, nil
	}

	result.ReleaseID = uuid.New().String()
	startedAt := e.clock.Now()

	fail := func(failErr error) (*DeployResult, error) {
		result.Outcome = store.OutcomeFailed
		e.recordRelease(ctx, result, startedAt, ErrorKind(failErr))
		return result, failErr
	}

	// Stage 1: workspace
	step := plan.Step(planner.StageWorkspace)
	e.reporter.StageStarted(step.Stage, step.Detail)
	detail, err := e.ensureWorkspace()
	if err != nil {
		return fail(err)
	}
	e.finishStage(result, step, detail)

	// Stage 2: runtime environment
	step = plan.Step(planner.StageRuntime)
	e.reporter.StageStarted(step.Stage, step.Detail)
	detail, err = e.ensureRuntime(ctx, step.Action)
	if err != nil {
		return fail(err)
	}
	e.finishStage(result, step, detail)

	// Stage 3: data store
	step = plan.Step(planner.StageStore)
	e.reporter.StageStarted(step.Stage, step.Detail)
	initialized, detail, err := e.ensureDataStore(ctx, step.Action)
	if err != nil {
		return fail(err)
	}
	result.StoreInitialized = initialized
	if !initialized {
		if warn := e.schemaDriftWarning(); warn != "" {
			result.Warnings = append(result.Warnings, warn)
		}
	}
	e.finishStage(result, step, detail)

	// Stage 4: process restart
	step = plan.Step(planner.StageProcess)
	e.reporter.StageStarted(step.Stage, step.Detail)
	stoppedPID, pid, warnings, err := e.restartProcess(result.ReleaseID, result.StoreInitialized)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return fail(err)
	}
	result.StoppedPID = stoppedPID
	result.PID = pid
	e.finishStage(result, step, fmt.Sprintf("launched pid %d", pid))

	// Stage 5: health probe (non-fatal)
	step = plan.Step(planner.StageHealth)
	e.reporter.StageStarted(step.Stage, step.Detail)
	report, err := e.verifyHealth(ctx)
	if err != nil {
		// Only context cancellation reaches here; the launch itself went
		// through, so record the deploy before propagating.
		result.Outcome = store.OutcomeDegraded
		e.recordRelease(ctx, result, startedAt, "cancelled")
		return result, err
	}
	result.Health = report
	e.finishStage(result, step, fmt.Sprintf("%s after %d attempt(s)", report.Status, report.Attempts))

	if report.Status == health.Healthy {
		result.Outcome = store.OutcomeSuccess
		e.recordRelease(ctx, result, startedAt, "")
	} else {
		result.Outcome = store.OutcomeDegraded
		e.recordRelease(ctx, result, startedAt, ErrorKind(ErrHealthCheck))
	}
	e.recordOutcome(result)

	if result.Outcome == store.OutcomeDegraded && req.StrictHealth {
		return result, fmt.Errorf("%w: %s", ErrHealthCheck, report.Detail)
	}
	return result, nil
}

func (e *Engine) finishStage(result *DeployResult, step *planner.Step, detail string) {
	if detail == "" {
		detail = step.Detail
	}
	result.Stages = append(result.Stages, StageResult{
		Stage:  step.Stage,
		Action: step.Action,
		Detail: detail,
	})
	e.reporter.StageFinished(step.Stage, detail)
}

// recordRelease appends this deploy attempt to the history store.
// History is best-effort: a failure to record never fails the deploy.
func (e *Engine) recordRelease(ctx context.Context, result *DeployResult, startedAt time.Time, errKind string) {
	rel := store.Release{
		ID:         result.ReleaseID,
		App:        e.cfg.AppName,
		Outcome:    result.Outcome,
		ErrorKind:  errKind,
		StartedAt:  startedAt,
		FinishedAt: e.clock.Now(),
	}
	if err := e.history.Append(ctx, rel); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed to record deploy history: %v", err))
	}
}

// recordOutcome writes the final outcome back into the deployment state.
func (e *Engine) recordOutcome(result *DeployResult) {
	st, err := e.loadOrCreateState()
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return
	}
	st.LastOutcome = result.Outcome
	st.UpdatedAt = e.clock.Now()
	if err := e.stateStore.Save(e.cfg.AppName, st); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save deployment state: %v", err))
	}
}
