// Package config manages solodeploy configuration and filesystem paths.
//
// Configuration comes from a TOML file (deploy.toml) layered over defaults
// that match the original provisioning behavior. The data root holding
// state files and the deploy history database defaults to ~/.solodeploy/
// and can be relocated via environment variable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by solodeploy itself
// (as opposed to the deployed application's workspace).
type Paths struct {
	// Root is the base directory for all solodeploy data (default: ~/.solodeploy)
	Root string

	// State is the directory containing per-app deployment state files
	State string

	// Config is the path to the deploy configuration file
	Config string

	// HistoryDB is the path to the deploy history database
	HistoryDB string
}

// DefaultPaths returns the default paths for solodeploy.
// Paths can be overridden with environment variables:
// - SOLODEPLOY_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("SOLODEPLOY_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".solodeploy")
	}

	return &Paths{
		Root:      root,
		State:     filepath.Join(root, "state"),
		Config:    filepath.Join(root, "deploy.toml"),
		HistoryDB: filepath.Join(root, "history.db"),
	}, nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.State,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
