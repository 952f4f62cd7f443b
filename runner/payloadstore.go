package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ PayloadStore = (*dirPayloadStore)(nil)

// PayloadStore retains raw worker result payloads for debugging. Scratch
// result files are deleted right after being read; a store is the deliberate
// way to keep them.
type PayloadStore interface {
	Store(testFile string, payload []byte) error
	Load(testFile string) ([]byte, error)
}

// dirPayloadStore writes one payload file per test file under a directory.
type dirPayloadStore struct {
	dir string
}

// NewDirPayloadStore creates a store rooted at dir, creating it if needed.
func NewDirPayloadStore(dir string) (PayloadStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("payload store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create payload directory: %w", err)
	}
	return &dirPayloadStore{dir: dir}, nil
}

// Store writes the payload under a name derived from the test file path.
// Payloads for distinct test files never collide, so concurrent stores from
// different workers need no locking.
func (s *dirPayloadStore) Store(testFile string, payload []byte) error {
	name := payloadFileName(testFile)
	if err := os.WriteFile(filepath.Join(s.dir, name), payload, 0o644); err != nil {
		return fmt.Errorf("failed to store payload for %s: %w", testFile, err)
	}
	return nil
}

// Load reads back a previously stored payload.
func (s *dirPayloadStore) Load(testFile string) ([]byte, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, payloadFileName(testFile)))
	if err != nil {
		return nil, fmt.Errorf("failed to load payload for %s: %w", testFile, err)
	}
	return payload, nil
}

// payloadFileName flattens a test file path into a single filename.
func payloadFileName(testFile string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(testFile)
	return name + ".json"
}
