package engine

import (
	"context"
	"fmt"
	"os"
)

// Status reports the recorded deployment state, optionally augmented with a
// live health probe and recent release history.
func (e *Engine) Status(ctx context.Context, req *StatusRequest) (*StatusResult, error) {
	result := &StatusResult{
		App:       e.cfg.AppName,
		Workspace: e.cfg.Workspace,
		LogFile:   e.cfg.LogFile,
		DBFile:    e.cfg.DBFile,
	}

	st, err := e.stateStore.Load(e.cfg.AppName)
	switch {
	case err == nil:
		result.Deployed = true
		result.PID = st.PID
		result.ReleaseID = st.ReleaseID
		result.LastOutcome = st.LastOutcome
		result.DeployedAt = st.DeployedAt
		result.Running = st.Running() && e.supervisor.Alive(st.PID)
	case os.IsNotExist(err):
		// Never deployed; nothing more to report from state.
	default:
		return nil, fmt.Errorf("%w: failed to load deployment state: %v", ErrFilesystem, err)
	}

	if req.Probe && result.Running {
		report, err := e.prober.Probe(ctx, e.cfg.HealthURL())
		if err != nil {
			return nil, err
		}
		result.Health = report
	}

	if req.HistoryLimit > 0 {
		history, err := e.history.Recent(ctx, e.cfg.AppName, req.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load release history: %w", err)
		}
		result.History = history
	}

	return result, nil
}
