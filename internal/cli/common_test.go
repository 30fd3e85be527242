package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSetup(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SOLODEPLOY_ROOT", root)
	t.Setenv("SOLODEPLOY_CONFIG", "")
	configPath = ""

	cfg, paths, err := loadSetup()
	if err != nil {
		t.Fatalf("loadSetup() error = %v", err)
	}
	if paths.Root != root {
		t.Errorf("expected root %s, got %s", root, paths.Root)
	}
	if cfg.AppName != "app" {
		t.Errorf("expected default app name, got %q", cfg.AppName)
	}

	// The data root directories were created.
	if _, err := os.Stat(filepath.Join(root, "state")); err != nil {
		t.Errorf("expected state dir: %v", err)
	}
}

func TestNewEngine(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SOLODEPLOY_ROOT", root)
	t.Setenv("SOLODEPLOY_CONFIG", "")
	configPath = ""

	cfg, paths, err := loadSetup()
	if err != nil {
		t.Fatalf("loadSetup() error = %v", err)
	}

	eng, closer, err := newEngine(cfg, paths)
	if err != nil {
		t.Fatalf("newEngine() error = %v", err)
	}
	defer closer()
	if eng == nil {
		t.Fatal("newEngine() returned nil engine")
	}
}

func TestOutputJSON(t *testing.T) {
	data := map[string]string{"test": "value"}

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := outputJSON(data)
	if err != nil {
		t.Fatalf("outputJSON() error = %v", err)
	}

	_ = w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	output := buf.String()

	// Verify it's valid JSON
	var v interface{}
	if err := json.Unmarshal([]byte(output), &v); err != nil {
		t.Errorf("outputJSON() produced invalid JSON: %v", err)
	}
}

func TestFormatError(t *testing.T) {
	got := FormatError(os.ErrNotExist)
	if got == "" {
		t.Error("FormatError() returned empty string")
	}
	if !contains(got, "Error:") {
		t.Errorf("FormatError() = %q, expected to contain 'Error:'", got)
	}
}

func TestPrintFunctions(t *testing.T) {
	// Capture stdout/stderr
	oldStdout := os.Stdout
	oldStderr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	PrintSuccess("Success message")
	PrintWarning("Warning message")
	PrintError("Error message")
	PrintInfo("Info message")
	PrintStep("Step message")

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var bufOut, bufErr bytes.Buffer
	_, _ = bufOut.ReadFrom(rOut)
	_, _ = bufErr.ReadFrom(rErr)

	if bufOut.String() == "" {
		t.Error("PrintSuccess/PrintInfo should write to stdout")
	}
	if bufErr.String() == "" {
		t.Error("PrintError should write to stderr")
	}
}
