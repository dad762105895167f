// Package local keeps progress snapshots as JSON files, one per learner.
// Snapshots are how progress moves between machines.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/game"
	"github.com/goccy/go-json"
)

const ext = ".json"

// Store provides thread-safe JSON file storage for progress snapshots
type Store struct {
	basePath string
	mu       sync.RWMutex
}

// NewStore creates a snapshot store rooted at basePath
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Path returns the snapshot file for a learner
func (s *Store) Path(learnerID string) (string, error) {
	if learnerID == "" || learnerID != filepath.Base(learnerID) || strings.HasPrefix(learnerID, ".") {
		return "", fmt.Errorf("%w: learner id %q", domain.ErrInvalidInput, learnerID)
	}
	return filepath.Join(s.basePath, learnerID+ext), nil
}

// Save writes a learner's snapshot. The file is replaced atomically.
func (s *Store) Save(_ context.Context, learnerID string, state *game.GameState) error {
	path, err := s.Path(learnerID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.basePath, learnerID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads a learner's snapshot
func (s *Store) Load(_ context.Context, learnerID string) (*game.GameState, error) {
	path, err := s.Path(learnerID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := ReadSnapshot(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProgressNotFound, learnerID)
	}
	return state, err
}

// Delete removes a learner's snapshot
func (s *Store) Delete(_ context.Context, learnerID string) error {
	path, err := s.Path(learnerID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrProgressNotFound, learnerID)
		}
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// List returns the learners with a snapshot
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := strings.CutSuffix(entry.Name(), ext); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ReadSnapshot decodes a snapshot file written by Save. The returned error
// satisfies os.IsNotExist when the file is missing.
func ReadSnapshot(path string) (*game.GameState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state game.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot %s: %v", domain.ErrInvalidInput, filepath.Base(path), err)
	}
	return &state, nil
}
