package cursor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/moldovancsaba/amanoba-sub006/internal/schemas"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// StateStore reads and writes the whole RunState record.
type StateStore interface {
	Load(ctx context.Context) (types.RunState, error)
	Save(ctx context.Context, state types.RunState) error
}

// FileStateStore keeps the RunState as a JSON document on disk.
// Writes replace the file atomically so a crash never leaves a torn record.
type FileStateStore struct {
	path string
}

// NewFileStateStore creates a store backed by path.
func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

// Path returns the backing file path.
func (s *FileStateStore) Path() string {
	return s.path
}

// Load reads the state. A missing file yields the zero state.
func (s *FileStateStore) Load(_ context.Context) (types.RunState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.RunState{Notes: []string{}}, nil
	}
	if err != nil {
		return types.RunState{}, &StateError{Path: s.path, Message: "failed to read state file", Cause: err}
	}

	if err := schemas.Validate(schemas.RunState, data); err != nil {
		return types.RunState{}, &StateError{Path: s.path, Message: "state file does not match schema", Cause: err}
	}

	var state types.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return types.RunState{}, &StateError{Path: s.path, Message: "failed to parse state file", Cause: err}
	}
	if state.Notes == nil {
		state.Notes = []string{}
	}
	return state, nil
}

// Save replaces the state file with state.
func (s *FileStateStore) Save(_ context.Context, state types.RunState) error {
	if state.Notes == nil {
		state.Notes = []string{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return &StateError{Path: s.path, Message: "failed to marshal state", Cause: err}
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &StateError{Path: s.path, Message: "failed to create state directory", Cause: err}
		}
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return &StateError{Path: s.path, Message: "failed to write state file", Cause: err}
	}
	return nil
}

// MemoryStateStore keeps the state in memory. Used for dry runs and tests.
type MemoryStateStore struct {
	mu    sync.Mutex
	state types.RunState
	saves int
}

// NewMemoryStateStore creates a store seeded with state.
func NewMemoryStateStore(state types.RunState) *MemoryStateStore {
	return &MemoryStateStore{state: state}
}

// Load returns a copy of the stored state.
func (s *MemoryStateStore) Load(_ context.Context) (types.RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state), nil
}

// Save replaces the stored state.
func (s *MemoryStateStore) Save(_ context.Context, state types.RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copyState(state)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStateStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func copyState(state types.RunState) types.RunState {
	out := state
	if state.Cursor != nil {
		c := *state.Cursor
		out.Cursor = &c
	}
	out.Notes = append([]string{}, state.Notes...)
	return out
}
