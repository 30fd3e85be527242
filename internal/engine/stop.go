package engine

import (
	"context"
	"fmt"
	"os"
)

// Stop terminates the recorded instance and clears the pid from state.
//
// A record pointing at a dead pid is cleaned up and reported as not running
// rather than treated as a failure; ErrNotRunning is reserved for the case
// where no deployment state exists at all.
func (e *Engine) Stop(ctx context.Context) (*StopResult, error) {
	st, err := e.stateStore.Load(e.cfg.AppName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no deployment state for %s", ErrNotRunning, e.cfg.AppName)
		}
		return nil, fmt.Errorf("%w: failed to load deployment state: %v", ErrFilesystem, err)
	}
	if !st.Running() {
		return nil, fmt.Errorf("%w: %s has no recorded pid", ErrNotRunning, e.cfg.AppName)
	}

	result := &StopResult{PID: st.PID}

	if e.supervisor.Alive(st.PID) {
		if err := e.supervisor.Stop(st.PID, e.cfg.StopGrace()); err != nil {
			return nil, fmt.Errorf("failed to stop pid %d: %w", st.PID, err)
		}
		result.WasRunning = true
	}

	st.ClearPID()
	st.UpdatedAt = e.clock.Now()
	if err := e.stateStore.Save(e.cfg.AppName, st); err != nil {
		return result, fmt.Errorf("%w: failed to save deployment state: %v", ErrFilesystem, err)
	}
	return result, nil
}
