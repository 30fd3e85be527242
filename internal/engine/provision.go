package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/solodeploy/internal/planner"
)

// ensureWorkspace makes sure the workspace directory tree exists.
func (e *Engine) ensureWorkspace() (string, error) {
	if err := e.fs.MkdirAll(e.cfg.Workspace, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create workspace %s: %v", ErrFilesystem, e.cfg.Workspace, err)
	}
	return fmt.Sprintf("workspace %s ready", e.cfg.Workspace), nil
}

// ensureRuntime brings the runtime environment to the planned state: create
// it and install packages, install into an existing one, or leave it alone.
func (e *Engine) ensureRuntime(ctx context.Context, action planner.Action) (string, error) {
	envDir := e.cfg.VenvDir()

	switch action {
	case planner.ActionCreate:
		if err := e.runtime.Create(ctx, e.cfg.Python, envDir); err != nil {
			return "", fmt.Errorf("%w: %v", ErrEnvironmentSetup, err)
		}
		if err := e.runtime.Install(ctx, envDir, e.cfg.Packages); err != nil {
			return "", fmt.Errorf("%w: %v", ErrEnvironmentSetup, err)
		}
		return fmt.Sprintf("created %s, installed %d package(s)", envDir, len(e.cfg.Packages)), nil

	case planner.ActionInstall:
		if err := e.runtime.Install(ctx, envDir, e.cfg.Packages); err != nil {
			return "", fmt.Errorf("%w: %v", ErrEnvironmentSetup, err)
		}
		return fmt.Sprintf("installed %d package(s)", len(e.cfg.Packages)), nil

	default:
		return "runtime environment up to date", nil
	}
}

// ensureDataStore initializes the data store schema exactly once. An
// existing store file is the gate: when present, initialization is skipped
// entirely so existing data is never touched.
func (e *Engine) ensureDataStore(ctx context.Context, action planner.Action) (bool, string, error) {
	if action == planner.ActionSkip {
		return false, "data store exists, schema init skipped", nil
	}

	if err := e.initializer.Init(ctx, e.cfg.DBFile); err != nil {
		return false, "", fmt.Errorf("%w: %v", ErrStoreInit, err)
	}

	// The store file is the init-once marker for future runs; make sure the
	// initializer actually produced it.
	exists, err := e.fs.Exists(e.cfg.DBFile)
	if err != nil {
		return false, "", fmt.Errorf("%w: failed to verify data store: %v", ErrStoreInit, err)
	}
	if !exists {
		return false, "", fmt.Errorf("%w: initializer did not create %s", ErrStoreInit, e.cfg.DBFile)
	}
	return true, fmt.Sprintf("initialized data store %s", e.cfg.DBFile), nil
}

// schemaFingerprint hashes the configured schema file. Empty when no schema
// file is configured or it cannot be read.
func (e *Engine) schemaFingerprint() string {
	if e.cfg.SchemaFile == "" {
		return ""
	}
	sum, err := e.hasher.HashFile(e.cfg.SchemaFile)
	if err != nil {
		return ""
	}
	return sum
}

// schemaDriftWarning reports when the schema file differs from the one
// fingerprinted at store initialization. The store is initialized at most
// once, so an edited schema file silently never applies; the deploy still
// proceeds, but the operator should hear about it.
func (e *Engine) schemaDriftWarning() string {
	current := e.schemaFingerprint()
	if current == "" {
		return ""
	}
	prior, err := e.stateStore.Load(e.cfg.AppName)
	if err != nil || prior.SchemaHash == "" {
		return ""
	}
	if prior.SchemaHash != current {
		return fmt.Sprintf("schema file %s changed since the data store was initialized; the existing store is left untouched", e.cfg.SchemaFile)
	}
	return ""
}
