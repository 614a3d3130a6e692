package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorruptCheckpoint means a checkpoint file is missing or failed
// structural validation. Never auto-repaired: the operator must discard
// or inspect the file.
var ErrCorruptCheckpoint = errors.New("workflow: corrupt checkpoint")

// CheckpointStore persists the full State as a human-inspectable JSON
// file using write-to-temp-then-rename, so a crash never leaves a
// partially written checkpoint behind.
type CheckpointStore struct {
	path string
}

// NewCheckpointStore targets the given file path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Path returns the checkpoint file location.
func (s *CheckpointStore) Path() string {
	return s.path
}

// Save atomically writes the state.
func (s *CheckpointStore) Save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	// Temp file must live in the same directory for the rename to be
	// atomic on all filesystems.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// Load reads the checkpoint back in full. A missing, unreadable or
// structurally invalid file is ErrCorruptCheckpoint; the system never
// fabricates a workflow state from a damaged file.
func (s *CheckpointStore) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptCheckpoint, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptCheckpoint, err)
	}
	if err := validate(st); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptCheckpoint, err)
	}
	return st, nil
}

func validate(st State) error {
	if !st.Phase.valid() {
		return fmt.Errorf("unknown phase %q", st.Phase)
	}
	if st.Iteration < 0 {
		return fmt.Errorf("negative iteration %d", st.Iteration)
	}
	if st.Subject == "" {
		return errors.New("empty subject description")
	}
	return nil
}
