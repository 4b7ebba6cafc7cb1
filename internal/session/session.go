// Package session persists the operator's identity between runs, the
// terminal equivalent of the browser session slot.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrsinham/retinascan/internal/model"
)

// Repository is the durable session slot: one user, surviving restarts,
// cleared explicitly on logout. It is injected into whatever needs the
// identity rather than read as ambient global state.
type Repository interface {
	Get() (*model.User, error)
	Set(user *model.User) error
	Clear() error
}

// FileRepository stores the session as a JSON file under the user's
// config directory.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository at the given path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// DefaultPath returns the standard session location, e.g.
// ~/.config/retinascan/session.json on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, "retinascan", "session.json"), nil
}

// Get returns the stored user, or nil when no session exists. A file
// that cannot be parsed is treated as no session rather than an error,
// so a corrupt slot never locks the operator out.
func (r *FileRepository) Get() (*model.User, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, nil
	}
	return &user, nil
}

// Set stores the user, creating the parent directory if needed. The
// file is owner-only: it identifies a clinician.
func (r *FileRepository) Set(user *model.User) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an empty slot is not an
// error.
func (r *FileRepository) Clear() error {
	err := os.Remove(r.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
