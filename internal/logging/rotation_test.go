package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"100", 100},
		{"100b", 100},
		{"1KB", 1024},
		{"10MB", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wirehttp.log")

	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	line := append(bytes.Repeat([]byte("a"), 29), '\n')
	for i := 0; i < 4; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, p := range []string{path, path + ".1", path + ".2"} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should exist: %v", p, err)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("%s.3 should not exist beyond maxBackups", path)
	}

	data, _ := os.ReadFile(path)
	if len(data) != len(line) {
		t.Errorf("current log has %d bytes, want %d", len(data), len(line))
	}
}

func TestRotatingFile_NoRotationWhenDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wirehttp.log")

	rf, err := OpenRotatingFile(path, 0, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		_, _ = rf.Write([]byte("0123456789\n"))
	}
	_ = rf.Close()

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup should exist when rotation is disabled")
	}
}

func TestOpenOutput(t *testing.T) {
	w, closer, err := OpenOutput("", "", 0)
	if err != nil || w != os.Stdout || closer != nil {
		t.Errorf("OpenOutput('') = %v, %v, %v, want stdout", w, closer, err)
	}

	path := filepath.Join(t.TempDir(), "out.log")
	w, closer, err = OpenOutput(path, "1MB", 3)
	if err != nil {
		t.Fatalf("OpenOutput(file) error = %v", err)
	}
	defer closer.Close()

	logger := NewLogger(Config{Level: InfoLevel, Output: w})
	logger.Info("to file", nil)

	data, _ := os.ReadFile(path)
	if !bytes.Contains(data, []byte("to file")) {
		t.Errorf("log file = %q, want the entry", data)
	}
}
