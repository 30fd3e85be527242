package engine

import (
	"fmt"
)

// restartProcess replaces any recorded prior instance with a fresh launch.
// storeInitialized marks a deploy that created the data store this run, so
// the schema fingerprint can be (re)recorded against the fresh store.
//
// Stopping the prior instance is best-effort: a stale or unkillable pid
// produces a warning, never a failed deploy, since the goal is getting the
// new instance up. The launch itself is fatal on failure.
func (e *Engine) restartProcess(releaseID string, storeInitialized bool) (stoppedPID, pid int, warnings []string, err error) {
	st, err := e.loadOrCreateState()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %v", ErrFilesystem, err)
	}

	if st.Running() {
		if e.supervisor.Alive(st.PID) {
			if stopErr := e.supervisor.Stop(st.PID, e.cfg.StopGrace()); stopErr != nil {
				warnings = append(warnings, fmt.Sprintf("failed to stop prior pid %d: %v", st.PID, stopErr))
			} else {
				stoppedPID = st.PID
			}
		} else {
			warnings = append(warnings, fmt.Sprintf("recorded pid %d is not running, clearing stale state", st.PID))
		}
		st.ClearPID()
	}

	// Keep one prior log generation so the previous instance's output
	// survives the restart.
	if logExists, exErr := e.fs.Exists(e.cfg.LogFile); exErr == nil && logExists {
		if rnErr := e.fs.Rename(e.cfg.LogFile, e.cfg.LogFile+".1"); rnErr != nil {
			warnings = append(warnings, fmt.Sprintf("failed to rotate log: %v", rnErr))
		}
	}

	pid, err = e.supervisor.Launch(e.cfg.LaunchCommand(), e.cfg.Workspace, e.cfg.LogFile)
	if err != nil {
		return stoppedPID, 0, warnings, fmt.Errorf("%w: %v", ErrProcessLaunch, err)
	}

	now := e.clock.Now()
	st.PID = pid
	st.ReleaseID = releaseID
	st.PackagesHash = e.hasher.HashBytes(e.cfg.PackagesManifest())
	// The schema fingerprint tracks the store, not the deploy: refresh it
	// only when this run built the store (or nothing was recorded yet).
	if storeInitialized || st.SchemaHash == "" {
		st.SchemaHash = e.schemaFingerprint()
	}
	st.Port = e.cfg.Port
	st.LogFile = e.cfg.LogFile
	st.DeployedAt = now
	st.UpdatedAt = now
	if saveErr := e.stateStore.Save(e.cfg.AppName, st); saveErr != nil {
		warnings = append(warnings, fmt.Sprintf("failed to save deployment state: %v", saveErr))
	}

	return stoppedPID, pid, warnings, nil
}
