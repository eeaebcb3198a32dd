package cursor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bendanzhentan/eliza/internal/errs"
)

// Store persists the id boundary separating processed from unprocessed
// interactions. An absent cursor means "process everything seen".
type Store interface {
	// Load returns the persisted cursor. ok is false when no cursor has
	// been saved yet.
	Load() (value string, ok bool, err error)
	// Save durably records the cursor. Failures are persistence-kind
	// errors; the caller logs them and carries on.
	Save(value string) error
}

// FileStore keeps the cursor as a single text value in a file, surviving
// process restarts.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed cursor store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the cursor file. A missing file is not an error.
func (s *FileStore) Load() (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errs.Persistence(fmt.Errorf("read cursor file %s: %w", s.path, err))
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Save writes the cursor via a temp file and rename so a crash mid-write
// never leaves a truncated cursor behind. Saving the same value again is a
// harmless idempotent overwrite.
func (s *FileStore) Save(value string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Persistence(fmt.Errorf("create cursor directory %s: %w", dir, err))
	}

	tmp, err := os.CreateTemp(dir, ".cursor-*")
	if err != nil {
		return errs.Persistence(fmt.Errorf("create cursor temp file: %w", err))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(value + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Persistence(fmt.Errorf("write cursor temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Persistence(fmt.Errorf("close cursor temp file: %w", err))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errs.Persistence(fmt.Errorf("rename cursor file: %w", err))
	}
	return nil
}
