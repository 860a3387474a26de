package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// CreateFlowDir creates the temporary directory for a flow's cached files
func CreateFlowDir(baseDir, flowID string) (string, error) {
	flowDir := filepath.Join(baseDir, flowID)
	if err := os.MkdirAll(flowDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", flowDir, err)
	}
	return flowDir, nil
}

// SaveStream writes a stream to destPath, creating parent directories
func SaveStream(r io.Reader, destPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, r)
	if err != nil {
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	return n, nil
}

// CleanupFlowFiles removes all cached files for a flow
func CleanupFlowFiles(baseDir, flowID string) error {
	flowDir := filepath.Join(baseDir, flowID)
	return os.RemoveAll(flowDir)
}

// ScheduleCleanup schedules automatic cleanup after a delay
func ScheduleCleanup(baseDir, flowID string, delay time.Duration) {
	go func() {
		time.Sleep(delay)
		_ = CleanupFlowFiles(baseDir, flowID)
	}()
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
