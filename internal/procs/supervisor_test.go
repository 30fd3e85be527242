package procs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danieljhkim/solodeploy/internal/fsops"
)

func TestRealSupervisorLaunch(t *testing.T) {
	t.Run("starts a detached process and redirects output", func(t *testing.T) {
		tmpDir := t.TempDir()
		logPath := filepath.Join(tmpDir, "app.log")
		s := NewRealSupervisor(fsops.NewRealFS())

		pid, err := s.Launch([]string{"/bin/sh", "-c", "echo started; sleep 30"}, tmpDir, logPath)
		if err != nil {
			t.Fatalf("Launch failed: %v", err)
		}
		defer s.Stop(pid, time.Second)

		if pid <= 0 {
			t.Fatalf("Launch returned pid %d", pid)
		}
		if !s.Alive(pid) {
			t.Error("process should be alive after Launch")
		}

		// Output lands in the log file
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			data, _ := os.ReadFile(logPath)
			if strings.Contains(string(data), "started") {
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
		t.Error("log file never received process output")
	})

	t.Run("fails for missing binary", func(t *testing.T) {
		tmpDir := t.TempDir()
		s := NewRealSupervisor(fsops.NewRealFS())

		_, err := s.Launch([]string{"/no/such/binary"}, tmpDir, filepath.Join(tmpDir, "app.log"))
		if err == nil {
			t.Error("expected error for missing binary")
		}
	})

	t.Run("fails for empty argv", func(t *testing.T) {
		tmpDir := t.TempDir()
		s := NewRealSupervisor(fsops.NewRealFS())

		_, err := s.Launch(nil, tmpDir, filepath.Join(tmpDir, "app.log"))
		if err == nil {
			t.Error("expected error for empty argv")
		}
	})

	t.Run("appends to an existing log", func(t *testing.T) {
		tmpDir := t.TempDir()
		logPath := filepath.Join(tmpDir, "app.log")
		if err := os.WriteFile(logPath, []byte("previous run\n"), 0644); err != nil {
			t.Fatal(err)
		}
		s := NewRealSupervisor(fsops.NewRealFS())

		pid, err := s.Launch([]string{"/bin/sh", "-c", "echo fresh"}, tmpDir, logPath)
		if err != nil {
			t.Fatalf("Launch failed: %v", err)
		}
		defer s.Stop(pid, time.Second)

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			data, _ := os.ReadFile(logPath)
			if strings.Contains(string(data), "previous run") && strings.Contains(string(data), "fresh") {
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
		t.Error("launch truncated the existing log")
	})
}

func TestRealSupervisorStop(t *testing.T) {
	t.Run("terminates a running process", func(t *testing.T) {
		tmpDir := t.TempDir()
		s := NewRealSupervisor(fsops.NewRealFS())

		pid, err := s.Launch([]string{"/bin/sleep", "30"}, tmpDir, filepath.Join(tmpDir, "app.log"))
		if err != nil {
			t.Fatalf("Launch failed: %v", err)
		}

		if err := s.Stop(pid, 2*time.Second); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		// Allow the kernel a moment to reap
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && s.Alive(pid) {
			time.Sleep(50 * time.Millisecond)
		}
		if s.Alive(pid) {
			t.Error("process still alive after Stop")
		}
	})

	t.Run("not running is not an error", func(t *testing.T) {
		s := NewRealSupervisor(fsops.NewRealFS())

		// A pid far beyond pid_max on typical setups, or at least very
		// unlikely to be running.
		if err := s.Stop(999999999, time.Second); err != nil {
			t.Errorf("Stop on dead pid returned error: %v", err)
		}
	})

	t.Run("zero pid is a no-op", func(t *testing.T) {
		s := NewRealSupervisor(fsops.NewRealFS())
		if err := s.Stop(0, time.Second); err != nil {
			t.Errorf("Stop(0) returned error: %v", err)
		}
	})
}

func TestRealSupervisorAlive(t *testing.T) {
	s := NewRealSupervisor(fsops.NewRealFS())

	if s.Alive(0) {
		t.Error("Alive(0) = true")
	}
	if s.Alive(-1) {
		t.Error("Alive(-1) = true")
	}
	if !s.Alive(os.Getpid()) {
		t.Error("Alive(self) = false")
	}
}

func TestRealSupervisorAlive_ExitedChild(t *testing.T) {
	// A launched process that exits on its own is never reaped by this
	// process (the handle is released), so it lingers as a zombie that
	// kill(pid, 0) still reaches. Alive must report it dead anyway,
	// otherwise Stop burns its whole grace period on a corpse.
	tmpDir := t.TempDir()
	s := NewRealSupervisor(fsops.NewRealFS())

	pid, err := s.Launch([]string{"/bin/sh", "-c", "exit 0"}, tmpDir, filepath.Join(tmpDir, "app.log"))
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && s.Alive(pid) {
		time.Sleep(50 * time.Millisecond)
	}
	if s.Alive(pid) {
		t.Errorf("Alive(%d) = true for an exited child", pid)
	}
}

func TestFakeSupervisor(t *testing.T) {
	t.Run("launch and stop lifecycle", func(t *testing.T) {
		s := NewFakeSupervisor()

		pid, err := s.Launch([]string{"gunicorn"}, "/ws", "/ws/app.log")
		if err != nil {
			t.Fatal(err)
		}
		if !s.Alive(pid) {
			t.Error("pid should be alive after Launch")
		}

		if err := s.Stop(pid, time.Second); err != nil {
			t.Fatal(err)
		}
		if s.Alive(pid) {
			t.Error("pid should be dead after Stop")
		}
		if len(s.Stopped) != 1 || s.Stopped[0] != pid {
			t.Errorf("Stopped = %v", s.Stopped)
		}
	})

	t.Run("injected launch error", func(t *testing.T) {
		s := NewFakeSupervisor()
		boom := errors.New("boom")
		s.SetLaunchError(boom)

		if _, err := s.Launch([]string{"x"}, "", ""); !errors.Is(err, boom) {
			t.Errorf("Launch error = %v, want boom", err)
		}
	})
}
