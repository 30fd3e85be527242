// Package engine provides the core pipeline logic for solodeploy operations.
//
// The engine package acts as the orchestration layer between CLI commands
// and lower-level operations. It drives the linear deploy pipeline
// (workspace, runtime environment, data store, process restart, health
// probe) and the status/stop/logs queries around it.
//
// Failure policy: any stage failure before the health probe aborts the
// remaining pipeline and surfaces the originating error; an unhealthy probe
// is reported, not propagated, since the process may still be starting up.
package engine

import (
	"fmt"
	"os"

	"github.com/danieljhkim/solodeploy/internal/clock"
	"github.com/danieljhkim/solodeploy/internal/config"
	"github.com/danieljhkim/solodeploy/internal/envx"
	"github.com/danieljhkim/solodeploy/internal/fsops"
	"github.com/danieljhkim/solodeploy/internal/hash"
	"github.com/danieljhkim/solodeploy/internal/health"
	"github.com/danieljhkim/solodeploy/internal/planner"
	"github.com/danieljhkim/solodeploy/internal/procs"
	"github.com/danieljhkim/solodeploy/internal/state"
	"github.com/danieljhkim/solodeploy/internal/store"
)

// Reporter receives stage progress while the pipeline runs. Implementations
// must not block; the CLI uses one to print per-stage progress lines.
type Reporter interface {
	// StageStarted is called before a stage executes.
	StageStarted(stage planner.Stage, detail string)

	// StageFinished is called after a stage executes successfully.
	StageFinished(stage planner.Stage, detail string)
}

// nopReporter discards all progress events.
type nopReporter struct{}

func (nopReporter) StageStarted(planner.Stage, string)  {}
func (nopReporter) StageFinished(planner.Stage, string) {}

// Engine orchestrates all solodeploy operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fs          fsops.FS
	runtime     envx.Runtime
	supervisor  procs.Supervisor
	initializer store.Initializer
	history     store.HistoryStore
	stateStore  state.StateStore
	prober      health.Prober
	hasher      hash.Hasher
	clock       clock.Clock
	cfg         *config.Config
	reporter    Reporter
}

// New creates a new Engine with the given dependencies.
func New(
	fs fsops.FS,
	runtime envx.Runtime,
	supervisor procs.Supervisor,
	initializer store.Initializer,
	history store.HistoryStore,
	stateStore state.StateStore,
	prober health.Prober,
	hasher hash.Hasher,
	clk clock.Clock,
	cfg *config.Config,
) *Engine {
	return &Engine{
		fs:          fs,
		runtime:     runtime,
		supervisor:  supervisor,
		initializer: initializer,
		history:     history,
		stateStore:  stateStore,
		prober:      prober,
		hasher:      hasher,
		clock:       clk,
		cfg:         cfg,
		reporter:    nopReporter{},
	}
}

// SetReporter installs a progress reporter. A nil reporter restores the
// default no-op.
func (e *Engine) SetReporter(r Reporter) {
	if r == nil {
		e.reporter = nopReporter{}
		return
	}
	e.reporter = r
}

// gatherFacts observes the filesystem and recorded state to build the
// planner's input.
func (e *Engine) gatherFacts() (planner.Facts, error) {
	facts := planner.Facts{InstallPolicy: e.cfg.InstallPolicy}

	var err error
	if facts.WorkspaceExists, err = e.fs.Exists(e.cfg.Workspace); err != nil {
		return facts, fmt.Errorf("%w: failed to check workspace: %v", ErrFilesystem, err)
	}
	if facts.EnvExists, err = e.runtime.Exists(e.cfg.VenvDir()); err != nil {
		return facts, fmt.Errorf("%w: failed to check runtime environment: %v", ErrEnvironmentSetup, err)
	}
	if facts.StoreExists, err = e.fs.Exists(e.cfg.DBFile); err != nil {
		return facts, fmt.Errorf("%w: failed to check data store: %v", ErrFilesystem, err)
	}

	// Prior instance and package fingerprint come from recorded state.
	prior, err := e.stateStore.Load(e.cfg.AppName)
	if err != nil {
		if !os.IsNotExist(err) {
			return facts, fmt.Errorf("%w: failed to load deployment state: %v", ErrFilesystem, err)
		}
		facts.PackagesChanged = true
		return facts, nil
	}

	facts.PriorPID = prior.PID
	facts.PackagesChanged = prior.PackagesHash != e.hasher.HashBytes(e.cfg.PackagesManifest())
	return facts, nil
}

// loadOrCreateState returns the recorded deployment state, or a fresh one
// when none exists yet.
func (e *Engine) loadOrCreateState() (*state.DeployState, error) {
	st, err := e.stateStore.Load(e.cfg.AppName)
	if err != nil {
		if os.IsNotExist(err) {
			return state.NewDeployState(e.cfg.AppName), nil
		}
		return nil, fmt.Errorf("failed to load deployment state: %w", err)
	}
	return st, nil
}
