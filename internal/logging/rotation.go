package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(B|KB|MB|GB)?$`)

// RotatingFile is an io.WriteCloser that rotates the file once it would grow
// past maxSize bytes, keeping up to maxBackups numbered copies (log.1, log.2, ...).
type RotatingFile struct {
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
	mu         sync.Mutex
}

// OpenRotatingFile opens path for appending. A maxSize of 0 disables rotation;
// a maxBackups of 0 discards the old file on rotation.
func OpenRotatingFile(path string, maxSize int64, maxBackups int) (*RotatingFile, error) {
	rf := &RotatingFile{
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
	}
	if err := rf.openFile(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (r *RotatingFile) openFile() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	r.file = f
	r.size = info.Size()
	return nil
}

// Write implements io.Writer
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSize > 0 && r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		// A failed rotation still writes to whatever file is open.
		_ = r.rotate()
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Close implements io.Closer
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// rotate shifts log -> log.1 -> log.2 ... and drops the oldest
func (r *RotatingFile) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return err
		}
	}

	_ = os.Remove(r.backupPath(r.maxBackups))
	for i := r.maxBackups - 1; i >= 1; i-- {
		if _, err := os.Stat(r.backupPath(i)); err == nil {
			_ = os.Rename(r.backupPath(i), r.backupPath(i+1))
		}
	}

	if r.maxBackups > 0 {
		_ = os.Rename(r.path, r.backupPath(1))
	} else {
		_ = os.Remove(r.path)
	}

	r.size = 0
	return r.openFile()
}

func (r *RotatingFile) backupPath(n int) string {
	return fmt.Sprintf("%s.%d", r.path, n)
}

// ParseSize parses "10MB", "1GB", "500KB" or a plain byte count.
// It returns 0 for empty or invalid input.
func ParseSize(s string) int64 {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0
	}
	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0
	}

	multiplier := float64(1)
	switch matches[2] {
	case "KB":
		multiplier = 1024
	case "MB":
		multiplier = 1024 * 1024
	case "GB":
		multiplier = 1024 * 1024 * 1024
	}
	return int64(value * multiplier)
}

// OpenOutput opens the log destination for path: stdout when path is empty,
// otherwise a RotatingFile. The returned closer is nil for stdout.
func OpenOutput(path, maxSize string, maxBackups int) (io.Writer, io.Closer, error) {
	if path == "" {
		return os.Stdout, nil, nil
	}
	rf, err := OpenRotatingFile(path, ParseSize(maxSize), maxBackups)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return rf, rf, nil
}
