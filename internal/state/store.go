package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/solodeploy/internal/fsops"
)

// StateStore provides an interface for persisting deployment state.
type StateStore interface {
	// Load loads the deployment state for the given application.
	// Returns os.ErrNotExist if the state doesn't exist.
	Load(app string) (*DeployState, error)

	// Save saves the deployment state atomically.
	Save(app string, state *DeployState) error

	// Delete deletes the deployment state file.
	Delete(app string) error
}

// FileStateStore implements StateStore using JSON files on disk.
type FileStateStore struct {
	fs       fsops.FS
	stateDir string
}

// NewFileStateStore creates a new FileStateStore.
func NewFileStateStore(fs fsops.FS, stateDir string) *FileStateStore {
	return &FileStateStore{
		fs:       fs,
		stateDir: stateDir,
	}
}

// Load loads the deployment state for the given application.
func (s *FileStateStore) Load(app string) (*DeployState, error) {
	path := filepath.Join(s.stateDir, app+".json")

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read deployment state: %w", err)
	}

	var state DeployState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deployment state: %w", err)
	}

	return &state, nil
}

// Save saves the deployment state atomically.
func (s *FileStateStore) Save(app string, state *DeployState) error {
	path := filepath.Join(s.stateDir, app+".json")

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deployment state: %w", err)
	}

	if err := s.fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write deployment state: %w", err)
	}

	return nil
}

// Delete deletes the deployment state file.
func (s *FileStateStore) Delete(app string) error {
	path := filepath.Join(s.stateDir, app+".json")

	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete deployment state: %w", err)
	}

	return nil
}
