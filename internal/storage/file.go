package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type FileSink struct {
	mu       sync.Mutex
	filename string
}

func NewFileSink(filename string) *FileSink {
	return &FileSink{filename: filename}
}

func (s *FileSink) Name() string {
	return "file"
}

// Store replaces the file contents with data. The url is not written; the
// payload already carries it.
func (s *FileSink) Store(ctx context.Context, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Write to temp file first for atomicity
	tmpFile := s.filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpFile, err)
	}

	if err := os.Rename(tmpFile, s.filename); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename %s: %w", tmpFile, err)
	}

	return nil
}

func (s *FileSink) Close() error {
	return nil
}
