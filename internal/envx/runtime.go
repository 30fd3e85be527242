// Package envx manages isolated Python runtime environments.
//
// A runtime environment is a venv directory inside the workspace holding a
// private package installation, independent of the system interpreter. The
// Runtime interface wraps the interpreter and pip invocations so the engine
// can be tested without touching a real toolchain.
package envx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runtime provides an abstraction for runtime environment operations.
type Runtime interface {
	// Exists reports whether a runtime environment is present at envPath.
	Exists(envPath string) (bool, error)

	// Create builds a new environment at envPath using the given interpreter.
	Create(ctx context.Context, python, envPath string) error

	// Install installs or upgrades the given packages into the environment.
	Install(ctx context.Context, envPath string, packages []string) error
}

// RealRuntime implements Runtime using the system Python toolchain.
type RealRuntime struct{}

// NewRealRuntime creates a new RealRuntime.
func NewRealRuntime() *RealRuntime {
	return &RealRuntime{}
}

// Exists reports whether envPath holds a runtime environment.
// Presence of pyvenv.cfg is the venv marker; a bare directory does not count.
func (r *RealRuntime) Exists(envPath string) (bool, error) {
	info, err := os.Stat(filepath.Join(envPath, "pyvenv.cfg"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat environment marker: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// Create builds a new environment at envPath using `python -m venv`.
func (r *RealRuntime) Create(ctx context.Context, python, envPath string) error {
	cmd := exec.CommandContext(ctx, python, "-m", "venv", envPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to create environment with %s: %w\n%s", python, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Install installs or upgrades the given packages with the environment's pip.
func (r *RealRuntime) Install(ctx context.Context, envPath string, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	pip := filepath.Join(envPath, "bin", "pip")
	args := append([]string{"install", "--upgrade"}, packages...)
	cmd := exec.CommandContext(ctx, pip, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to install packages: %w\n%s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// FakeRuntime implements Runtime with recorded calls for testing.
type FakeRuntime struct {
	// Present marks environment paths that report as existing.
	Present map[string]bool

	// Created records Create calls as envPath values, in order.
	Created []string

	// Installed records Install calls as package lists, in order.
	Installed [][]string

	createErr  error
	installErr error
}

// NewFakeRuntime creates a new FakeRuntime with no environments present.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{Present: make(map[string]bool)}
}

// SetCreateError sets the error returned by Create.
func (r *FakeRuntime) SetCreateError(err error) {
	r.createErr = err
}

// SetInstallError sets the error returned by Install.
func (r *FakeRuntime) SetInstallError(err error) {
	r.installErr = err
}

// Exists reports the predetermined presence of envPath.
func (r *FakeRuntime) Exists(envPath string) (bool, error) {
	return r.Present[envPath], nil
}

// Create records the call and marks the environment present.
func (r *FakeRuntime) Create(ctx context.Context, python, envPath string) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.Created = append(r.Created, envPath)
	r.Present[envPath] = true
	return nil
}

// Install records the requested package list.
func (r *FakeRuntime) Install(ctx context.Context, envPath string, packages []string) error {
	if r.installErr != nil {
		return r.installErr
	}
	r.Installed = append(r.Installed, packages)
	return nil
}
