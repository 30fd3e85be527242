package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/danieljhkim/solodeploy/internal/state"
)

func TestStop(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	deployed := env.deploy(t, &DeployRequest{})

	// Execute
	result, err := env.engine.Stop(context.Background())

	// Verify
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !result.WasRunning || result.PID != deployed.PID {
		t.Errorf("unexpected stop result: %+v", result)
	}
	if len(env.supervisor.Stopped) != 1 || env.supervisor.Stopped[0] != deployed.PID {
		t.Errorf("expected stop of pid %d, got %v", deployed.PID, env.supervisor.Stopped)
	}

	// The pid is cleared from state.
	st, err := env.stateStore.Load("app")
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if st.Running() {
		t.Errorf("expected cleared pid, got %d", st.PID)
	}

	// A second stop reports not running.
	if _, err := env.engine.Stop(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning on second stop, got %v", err)
	}
}

func TestStop_NoState(t *testing.T) {
	// Setup
	env := newTestEnv(t)

	// Execute
	_, err := env.engine.Stop(context.Background())

	// Verify
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestStop_StalePID(t *testing.T) {
	// Setup: recorded pid with no live process
	env := newTestEnv(t)
	st := state.NewDeployState("app")
	st.PID = 4242
	if err := env.stateStore.Save("app", st); err != nil {
		t.Fatalf("failed to seed state: %v", err)
	}

	// Execute
	result, err := env.engine.Stop(context.Background())

	// Verify: cleaned up without a kill attempt
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if result.WasRunning {
		t.Error("expected WasRunning false for a stale pid")
	}
	if len(env.supervisor.Stopped) != 0 {
		t.Errorf("expected no stop call, got %v", env.supervisor.Stopped)
	}
	loaded, err := env.stateStore.Load("app")
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if loaded.Running() {
		t.Errorf("expected cleared pid, got %d", loaded.PID)
	}
}
