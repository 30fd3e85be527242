// Package procs manages the detached application process.
//
// The supervisor launches the process manager in its own session with
// stdout and stderr redirected to the application log, and records the pid
// so later invocations can stop the exact process they started instead of
// pattern-matching command lines.
package procs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/danieljhkim/solodeploy/internal/fsops"
)

// Supervisor provides an abstraction for application process lifecycle
// operations.
type Supervisor interface {
	// Launch starts argv detached from the controlling terminal with both
	// output streams appended to logPath, and returns the new pid without
	// waiting for the process to initialize.
	Launch(argv []string, dir, logPath string) (pid int, err error)

	// Stop terminates pid with SIGTERM, escalating to SIGKILL after the
	// grace period. A pid that is not running is not an error.
	Stop(pid int, grace time.Duration) error

	// Alive reports whether pid refers to a running process.
	Alive(pid int) bool
}

// RealSupervisor implements Supervisor using OS processes.
type RealSupervisor struct {
	fs fsops.FS
}

// NewRealSupervisor creates a new RealSupervisor.
func NewRealSupervisor(fs fsops.FS) *RealSupervisor {
	return &RealSupervisor{fs: fs}
}

// Launch starts the application process in a new session.
func (s *RealSupervisor) Launch(argv []string, dir, logPath string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("launch command is empty")
	}

	logFile, err := s.fs.OpenAppend(logPath, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		_ = logFile.Close()
	}()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	// New session: the process survives this invocation and has no
	// controlling terminal.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start process: %w", err)
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release process handle: %w", err)
	}
	return pid, nil
}

// Stop terminates the process gracefully, then forcefully if needed.
func (s *RealSupervisor) Stop(pid int, grace time.Duration) error {
	if pid <= 0 {
		return nil
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return fmt.Errorf("failed to send SIGTERM to pid %d: %w", pid, err)
	}

	// Poll for exit during the grace period. The process is detached, so
	// there is no Wait handle to block on.
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !s.Alive(pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return fmt.Errorf("failed to send SIGKILL to pid %d: %w", pid, err)
	}
	return nil
}

// Alive reports whether pid refers to a running process. A zombie counts as
// dead: an exited child of this process stays in the table unreaped (Launch
// releases the handle), and kill(pid, 0) still succeeds for it.
func (s *RealSupervisor) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err != nil {
		// EPERM means the process exists but belongs to another user.
		return errors.Is(err, syscall.EPERM)
	}
	return !isZombie(pid)
}

// isZombie checks the process state in /proc/<pid>/stat. The state field
// follows the parenthesized command name, which may itself contain spaces
// and parentheses, so scan from the last ')'.
func isZombie(pid int) bool {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	i := bytes.LastIndexByte(data, ')')
	if i < 0 || i+2 >= len(data) {
		return false
	}
	return data[i+2] == 'Z'
}

var _ Supervisor = (*RealSupervisor)(nil)

// FakeSupervisor implements Supervisor with in-memory process records for
// testing.
type FakeSupervisor struct {
	// NextPID is the pid returned by the next Launch.
	NextPID int

	// Launched records each Launch call.
	Launched []LaunchRecord

	// Stopped records pids passed to Stop, in order.
	Stopped []int

	// Running marks pids that Alive reports as running.
	Running map[int]bool

	launchErr error
	stopErr   error
}

// LaunchRecord captures the arguments of one Launch call.
type LaunchRecord struct {
	Argv    []string
	Dir     string
	LogPath string
}

// NewFakeSupervisor creates a new FakeSupervisor.
func NewFakeSupervisor() *FakeSupervisor {
	return &FakeSupervisor{
		NextPID: 1000,
		Running: make(map[int]bool),
	}
}

// SetLaunchError sets the error returned by Launch.
func (s *FakeSupervisor) SetLaunchError(err error) {
	s.launchErr = err
}

// SetStopError sets the error returned by Stop.
func (s *FakeSupervisor) SetStopError(err error) {
	s.stopErr = err
}

// Launch records the call and returns a synthetic pid.
func (s *FakeSupervisor) Launch(argv []string, dir, logPath string) (int, error) {
	if s.launchErr != nil {
		return 0, s.launchErr
	}
	s.Launched = append(s.Launched, LaunchRecord{Argv: argv, Dir: dir, LogPath: logPath})
	pid := s.NextPID
	s.NextPID++
	s.Running[pid] = true
	return pid, nil
}

// Stop records the pid and marks it not running.
func (s *FakeSupervisor) Stop(pid int, grace time.Duration) error {
	if s.stopErr != nil {
		return s.stopErr
	}
	s.Stopped = append(s.Stopped, pid)
	delete(s.Running, pid)
	return nil
}

// Alive reports the recorded running state.
func (s *FakeSupervisor) Alive(pid int) bool {
	return s.Running[pid]
}
