package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Install policies controlling how the package set is (re)installed into
// the runtime environment on each deploy.
const (
	// InstallAlways reinstalls the package set on every deploy. This matches
	// the original provisioning behavior and is the default.
	InstallAlways = "always"

	// InstallIfMissing installs only when the runtime environment was just
	// created.
	InstallIfMissing = "if-missing"

	// InstallIfChanged installs when the package list fingerprint differs
	// from the one recorded at the last deploy.
	InstallIfChanged = "if-changed"
)

// Config holds the deploy configuration for a single application.
type Config struct {
	// AppName names the log, state, and data store files (default: "app").
	AppName string `toml:"app_name"`

	// Workspace is the root directory owning all deployment artifacts.
	Workspace string `toml:"workspace"`

	// Bind is the address the process manager binds to (default: 0.0.0.0).
	Bind string `toml:"bind"`

	// Port is the listening port (default: 8000).
	Port int `toml:"port"`

	// Workers is the process manager worker count (default: 2).
	Workers int `toml:"workers"`

	// Python is the interpreter used to build the runtime environment.
	Python string `toml:"python"`

	// Packages is the dependency set installed into the runtime environment.
	Packages []string `toml:"packages"`

	// InstallPolicy is one of "always", "if-missing", "if-changed".
	InstallPolicy string `toml:"install_policy"`

	// Command overrides the launch argv. When empty, a gunicorn-style
	// command is derived from Workers, Bind, Port, and WSGIApp.
	Command []string `toml:"command"`

	// WSGIApp is the module:callable served by the process manager.
	WSGIApp string `toml:"wsgi_app"`

	// DBFile is the application data store path (default: <workspace>/<app>.db).
	DBFile string `toml:"db_file"`

	// SchemaFile is an optional SQL file run once to initialize the data
	// store. When empty, a built-in minimal schema is used.
	SchemaFile string `toml:"schema_file"`

	// LogFile is the application log path (default: <workspace>/<app>.log).
	LogFile string `toml:"log_file"`

	// HealthPath is the probe request path (default: "/").
	HealthPath string `toml:"health_path"`

	// HealthDelaySeconds is the fixed wait before the first probe (default: 2).
	HealthDelaySeconds int `toml:"health_delay_seconds"`

	// HealthTimeoutSeconds is the per-probe request timeout (default: 3).
	HealthTimeoutSeconds int `toml:"health_timeout_seconds"`

	// HealthAttempts is the probe budget (default: 1, a single best-effort
	// check with no retries).
	HealthAttempts int `toml:"health_attempts"`

	// StopGraceSeconds is how long to wait after SIGTERM before SIGKILL
	// when replacing a prior instance (default: 5).
	StopGraceSeconds int `toml:"stop_grace_seconds"`
}

// Default returns the default configuration rooted under the given paths.
func Default(paths *Paths) *Config {
	cfg := defaults(paths)
	cfg.applyDerived()
	return cfg
}

// defaults returns the base configuration with DBFile and LogFile left
// empty. They are derived from workspace and app name only after any config
// file has been applied, so a customized workspace moves them with it.
func defaults(paths *Paths) *Config {
	return &Config{
		AppName:              "app",
		Workspace:            filepath.Join(paths.Root, "app"),
		Bind:                 "0.0.0.0",
		Port:                 8000,
		Workers:              2,
		Python:               "python3",
		Packages:             []string{"flask", "gunicorn", "requests"},
		InstallPolicy:        InstallAlways,
		WSGIApp:              "app:app",
		HealthPath:           "/",
		HealthDelaySeconds:   2,
		HealthTimeoutSeconds: 3,
		HealthAttempts:       1,
		StopGraceSeconds:     5,
	}
}

// Load reads the configuration file at path, layering it over defaults.
// When path is empty, SOLODEPLOY_CONFIG is consulted, then the default
// location under the data root. A missing file yields the defaults.
func Load(path string, paths *Paths) (*Config, error) {
	if path == "" {
		path = os.Getenv("SOLODEPLOY_CONFIG")
	}
	if path == "" {
		path = paths.Config
	}

	cfg := defaults(paths)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDerived()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDerived fills in paths derived from the workspace and app name when
// they were not set explicitly.
func (c *Config) applyDerived() {
	if c.DBFile == "" {
		c.DBFile = filepath.Join(c.Workspace, c.AppName+".db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.Workspace, c.AppName+".log")
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("invalid config: app_name must not be empty")
	}
	if c.Workspace == "" {
		return fmt.Errorf("invalid config: workspace must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid config: port %d out of range", c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid config: workers must be at least 1, got %d", c.Workers)
	}
	switch c.InstallPolicy {
	case InstallAlways, InstallIfMissing, InstallIfChanged:
	default:
		return fmt.Errorf("invalid config: unknown install_policy %q", c.InstallPolicy)
	}
	if c.HealthAttempts < 1 {
		return fmt.Errorf("invalid config: health_attempts must be at least 1, got %d", c.HealthAttempts)
	}
	return nil
}

// VenvDir returns the runtime environment directory inside the workspace.
func (c *Config) VenvDir() string {
	return filepath.Join(c.Workspace, "venv")
}

// LaunchCommand returns the argv used to start the application process.
// An explicit command from the config wins; otherwise a gunicorn invocation
// from the runtime environment is built.
func (c *Config) LaunchCommand() []string {
	if len(c.Command) > 0 {
		return c.Command
	}
	return []string{
		filepath.Join(c.VenvDir(), "bin", "gunicorn"),
		"-w", fmt.Sprintf("%d", c.Workers),
		"-b", fmt.Sprintf("%s:%d", c.Bind, c.Port),
		c.WSGIApp,
	}
}

// HealthURL returns the local probe URL. Probes always target loopback;
// Bind only controls the listening address of the application.
func (c *Config) HealthURL() string {
	path := c.HealthPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("http://127.0.0.1:%d%s", c.Port, path)
}

// HealthDelay returns the fixed wait before the first probe.
func (c *Config) HealthDelay() time.Duration {
	return time.Duration(c.HealthDelaySeconds) * time.Second
}

// HealthTimeout returns the per-probe request timeout.
func (c *Config) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSeconds) * time.Second
}

// StopGrace returns the SIGTERM-to-SIGKILL grace period.
func (c *Config) StopGrace() time.Duration {
	return time.Duration(c.StopGraceSeconds) * time.Second
}

// PackagesManifest returns the canonical byte form of the package list used
// for change-detection fingerprints.
func (c *Config) PackagesManifest() []byte {
	return []byte(strings.Join(c.Packages, "\n"))
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Sample is a commented starter configuration written by `config init`.
const Sample = `# solodeploy configuration

app_name = "app"

# Root directory owning all deployment artifacts for this app.
# Defaults to <data-root>/app when omitted.
# workspace = "/home/user/.solodeploy/app"

bind = "0.0.0.0"
port = 8000
workers = 2

python = "python3"
packages = ["flask", "gunicorn", "requests"]

# always | if-missing | if-changed
install_policy = "always"

wsgi_app = "app:app"

# Optional SQL file run once when the data store is first created.
# schema_file = "schema.sql"

health_path = "/"
health_delay_seconds = 2
health_timeout_seconds = 3
health_attempts = 1
stop_grace_seconds = 5
`
