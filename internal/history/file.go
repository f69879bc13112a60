package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tannerhall/repowatch/internal/logging"
)

const defaultFileName = "repowatch-history.json"

// FileRecorder persists delivery history to a JSON file.
type FileRecorder struct {
	mu       sync.Mutex
	filePath string
	records  []Record
	logger   logging.Logger
}

// NewFileRecorder creates or loads a recorder backed by a file in dir.
func NewFileRecorder(dir string, logger logging.Logger) (*FileRecorder, error) {
	if dir == "" {
		dir = "."
	}
	filePath := filepath.Join(dir, defaultFileName)

	r := &FileRecorder{
		filePath: filePath,
		records:  []Record{},
		logger:   logger.Named("file_history"),
	}

	if err := r.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load delivery history from %s: %w", filePath, err)
	}

	r.logger.Info("File history recorder initialized.", "path", filePath, "loaded_records", len(r.records))
	return r, nil
}

func (r *FileRecorder) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return err // Handles os.IsNotExist
	}
	if len(data) == 0 {
		return nil
	}
	var loaded []Record
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to unmarshal history file %s: %w", r.filePath, err)
	}
	r.records = loaded
	return nil
}

// save writes the full record list back to the file atomically.
func (r *FileRecorder) save() error {
	data, err := json.MarshalIndent(r.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tempFilePath := r.filePath + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp history file %s: %w", tempFilePath, err)
	}
	if err := os.Rename(tempFilePath, r.filePath); err != nil {
		_ = os.Remove(tempFilePath)
		return fmt.Errorf("failed to rename temp history file to %s: %w", r.filePath, err)
	}
	return nil
}

// Record appends a delivery record and persists the file.
func (r *FileRecorder) Record(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
	if err := r.save(); err != nil {
		r.logger.Warn("Failed to save delivery history", "error", err)
		return err
	}
	return nil
}

// Close is a no-op for the file recorder.
func (r *FileRecorder) Close() error {
	return nil
}
