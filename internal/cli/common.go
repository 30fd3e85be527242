package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danieljhkim/solodeploy/internal/clock"
	"github.com/danieljhkim/solodeploy/internal/config"
	"github.com/danieljhkim/solodeploy/internal/engine"
	"github.com/danieljhkim/solodeploy/internal/envx"
	"github.com/danieljhkim/solodeploy/internal/fsops"
	"github.com/danieljhkim/solodeploy/internal/hash"
	"github.com/danieljhkim/solodeploy/internal/health"
	"github.com/danieljhkim/solodeploy/internal/procs"
	"github.com/danieljhkim/solodeploy/internal/state"
	"github.com/danieljhkim/solodeploy/internal/store"
)

// loadSetup resolves the data root paths and the deploy configuration.
func loadSetup() (*config.Config, *config.Paths, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	cfg, err := config.Load(configPath, paths)
	if err != nil {
		return nil, nil, err
	}
	return cfg, paths, nil
}

// newEngine creates a new engine with real implementations of all dependencies.
// The returned closer releases the history database handle.
func newEngine(cfg *config.Config, paths *config.Paths) (*engine.Engine, func(), error) {
	fs := fsops.NewRealFS()

	schema, err := store.LoadSchema(cfg.SchemaFile)
	if err != nil {
		return nil, nil, err
	}

	history, err := store.OpenHistory(paths.HistoryDB)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		_ = history.Close()
	}

	eng := engine.New(
		fs,
		envx.NewRealRuntime(),
		procs.NewRealSupervisor(fs),
		store.NewSQLiteInitializer(schema),
		history,
		state.NewFileStateStore(fs, paths.State),
		health.NewHTTPProber(cfg.HealthTimeout(), cfg.HealthAttempts, time.Second),
		hash.NewSHA256Hasher(),
		&clock.RealClock{},
		cfg,
	)
	return eng, closer, nil
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatError formats an error for display at the exit boundary.
func FormatError(err error) string {
	initColors()
	return errorColor.Sprintf("Error: %v", err)
}
