package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testPaths(t *testing.T) *Paths {
	t.Helper()
	root := t.TempDir()
	return &Paths{
		Root:      root,
		State:     filepath.Join(root, "state"),
		Config:    filepath.Join(root, "deploy.toml"),
		HistoryDB: filepath.Join(root, "history.db"),
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Run("returns paths based on home directory", func(t *testing.T) {
		oldRoot := os.Getenv("SOLODEPLOY_ROOT")
		defer os.Setenv("SOLODEPLOY_ROOT", oldRoot)
		os.Unsetenv("SOLODEPLOY_ROOT")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		if paths.Root == "" {
			t.Error("Root should not be empty")
		}
		if filepath.Base(paths.Root) != ".solodeploy" {
			t.Errorf("Root should end with .solodeploy, got: %s", paths.Root)
		}
		if paths.State != filepath.Join(paths.Root, "state") {
			t.Errorf("State path incorrect: got %s", paths.State)
		}
		if paths.Config != filepath.Join(paths.Root, "deploy.toml") {
			t.Errorf("Config path incorrect: got %s", paths.Config)
		}
		if paths.HistoryDB != filepath.Join(paths.Root, "history.db") {
			t.Errorf("HistoryDB path incorrect: got %s", paths.HistoryDB)
		}
	})

	t.Run("respects SOLODEPLOY_ROOT environment variable", func(t *testing.T) {
		customRoot := "/custom/solodeploy/path"

		oldRoot := os.Getenv("SOLODEPLOY_ROOT")
		defer os.Setenv("SOLODEPLOY_ROOT", oldRoot)
		os.Setenv("SOLODEPLOY_ROOT", customRoot)

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		if paths.Root != customRoot {
			t.Errorf("Expected root %s, got %s", customRoot, paths.Root)
		}
		if paths.State != filepath.Join(customRoot, "state") {
			t.Errorf("State should be under custom root, got: %s", paths.State)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	paths := testPaths(t)
	cfg := Default(paths)

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.InstallPolicy != InstallAlways {
		t.Errorf("InstallPolicy = %s, want always", cfg.InstallPolicy)
	}
	if cfg.HealthAttempts != 1 {
		t.Errorf("HealthAttempts = %d, want 1 (single best-effort probe)", cfg.HealthAttempts)
	}
	if len(cfg.Packages) != 3 {
		t.Errorf("Packages = %v, want 3 defaults", cfg.Packages)
	}

	// Derived paths follow workspace and app name
	if cfg.DBFile != filepath.Join(cfg.Workspace, "app.db") {
		t.Errorf("DBFile = %s", cfg.DBFile)
	}
	if cfg.LogFile != filepath.Join(cfg.Workspace, "app.log") {
		t.Errorf("LogFile = %s", cfg.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		paths := testPaths(t)

		cfg, err := Load("", paths)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Port != 8000 {
			t.Errorf("Port = %d, want default 8000", cfg.Port)
		}
	})

	t.Run("file values override defaults", func(t *testing.T) {
		paths := testPaths(t)
		contents := `
app_name = "tutor"
port = 9001
workers = 4
packages = ["flask"]
install_policy = "if-changed"
`
		if err := os.WriteFile(paths.Config, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load("", paths)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if cfg.AppName != "tutor" {
			t.Errorf("AppName = %s, want tutor", cfg.AppName)
		}
		if cfg.Port != 9001 {
			t.Errorf("Port = %d, want 9001", cfg.Port)
		}
		if cfg.Workers != 4 {
			t.Errorf("Workers = %d, want 4", cfg.Workers)
		}
		if cfg.InstallPolicy != InstallIfChanged {
			t.Errorf("InstallPolicy = %s, want if-changed", cfg.InstallPolicy)
		}
		// Unset values keep defaults
		if cfg.Python != "python3" {
			t.Errorf("Python = %s, want python3", cfg.Python)
		}
		// Derived paths pick up the app name
		if filepath.Base(cfg.DBFile) != "tutor.db" {
			t.Errorf("DBFile = %s, want tutor.db", cfg.DBFile)
		}
	})

	t.Run("derived paths follow a customized workspace", func(t *testing.T) {
		paths := testPaths(t)
		ws := filepath.Join(t.TempDir(), "srv", "tutor")
		contents := "workspace = \"" + ws + "\"\n"
		if err := os.WriteFile(paths.Config, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load("", paths)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if cfg.DBFile != filepath.Join(ws, "app.db") {
			t.Errorf("DBFile = %s, want %s", cfg.DBFile, filepath.Join(ws, "app.db"))
		}
		if cfg.LogFile != filepath.Join(ws, "app.log") {
			t.Errorf("LogFile = %s, want %s", cfg.LogFile, filepath.Join(ws, "app.log"))
		}
	})

	t.Run("explicit db_file and log_file are kept", func(t *testing.T) {
		paths := testPaths(t)
		contents := `
db_file = "/var/data/tutor.db"
log_file = "/var/log/tutor.log"
`
		if err := os.WriteFile(paths.Config, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load("", paths)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if cfg.DBFile != "/var/data/tutor.db" {
			t.Errorf("DBFile = %s, want explicit value", cfg.DBFile)
		}
		if cfg.LogFile != "/var/log/tutor.log" {
			t.Errorf("LogFile = %s, want explicit value", cfg.LogFile)
		}
	})

	t.Run("explicit path wins", func(t *testing.T) {
		paths := testPaths(t)
		other := filepath.Join(t.TempDir(), "alt.toml")
		if err := os.WriteFile(other, []byte("port = 7777\n"), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(other, paths)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Port != 7777 {
			t.Errorf("Port = %d, want 7777", cfg.Port)
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		paths := testPaths(t)
		if err := os.WriteFile(paths.Config, []byte("install_policy = \"sometimes\"\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := Load("", paths); err == nil {
			t.Error("expected validation error for unknown install_policy")
		}
	})

	t.Run("malformed TOML is rejected", func(t *testing.T) {
		paths := testPaths(t)
		if err := os.WriteFile(paths.Config, []byte("port = = 1\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := Load("", paths); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	paths := testPaths(t)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty app name", func(c *Config) { c.AppName = "" }},
		{"port too low", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"unknown policy", func(c *Config) { c.InstallPolicy = "never" }},
		{"zero health attempts", func(c *Config) { c.HealthAttempts = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default(paths)
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLaunchCommand(t *testing.T) {
	paths := testPaths(t)

	t.Run("derives gunicorn invocation", func(t *testing.T) {
		cfg := Default(paths)
		cfg.Port = 8000
		cfg.Workers = 2

		argv := cfg.LaunchCommand()
		if filepath.Base(argv[0]) != "gunicorn" {
			t.Errorf("argv[0] = %s, want gunicorn", argv[0])
		}
		joined := strings.Join(argv, " ")
		if !strings.Contains(joined, "-w 2") {
			t.Errorf("argv missing worker count: %v", argv)
		}
		if !strings.Contains(joined, "-b 0.0.0.0:8000") {
			t.Errorf("argv missing bind address: %v", argv)
		}
		if argv[len(argv)-1] != "app:app" {
			t.Errorf("argv missing wsgi app: %v", argv)
		}
	})

	t.Run("explicit command wins", func(t *testing.T) {
		cfg := Default(paths)
		cfg.Command = []string{"/usr/bin/myserver", "--port", "8000"}

		argv := cfg.LaunchCommand()
		if argv[0] != "/usr/bin/myserver" {
			t.Errorf("argv = %v, want explicit command", argv)
		}
	})
}

func TestHealthURL(t *testing.T) {
	paths := testPaths(t)

	cfg := Default(paths)
	cfg.Port = 8123
	if got := cfg.HealthURL(); got != "http://127.0.0.1:8123/" {
		t.Errorf("HealthURL = %s", got)
	}

	cfg.HealthPath = "healthz"
	if got := cfg.HealthURL(); got != "http://127.0.0.1:8123/healthz" {
		t.Errorf("HealthURL = %s, want leading slash added", got)
	}
}

func TestDurations(t *testing.T) {
	paths := testPaths(t)
	cfg := Default(paths)

	if cfg.HealthDelay() != 2*time.Second {
		t.Errorf("HealthDelay = %v, want 2s", cfg.HealthDelay())
	}
	if cfg.HealthTimeout() != 3*time.Second {
		t.Errorf("HealthTimeout = %v, want 3s", cfg.HealthTimeout())
	}
	if cfg.StopGrace() != 5*time.Second {
		t.Errorf("StopGrace = %v, want 5s", cfg.StopGrace())
	}
}
