// Package testutil holds golden-file helpers shared by package tests.
package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden controls whether golden files should be updated.
// Use: go test ./internal/wire -run Golden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// GoldenPath returns testdata/<name>.golden relative to the package under test.
func GoldenPath(name string) string {
	return filepath.Join("testdata", name+".golden")
}

// CompareGolden compares got byte-for-byte against the golden file, failing
// with a line diff on mismatch. With -update it rewrites the file instead.
func CompareGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	goldenPath := GoldenPath(name)
	if *updateGolden {
		UpdateGolden(t, name, got)
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%q\n\nRun with -update to create:\n  go test -run %s -update",
				goldenPath, got, t.Name())
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(got, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\nRun with -update to refresh:\n  go test -run %s -update",
			name, lineDiff(string(expected), string(got), goldenPath), t.Name())
	}
}

// UpdateGolden writes data to the golden file, creating testdata/ if needed.
func UpdateGolden(t *testing.T, name string, data []byte) {
	t.Helper()

	goldenPath := GoldenPath(name)
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		t.Fatalf("Failed to create testdata directory: %v", err)
	}
	if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
		t.Fatalf("Failed to write golden file: %v", err)
	}
}

// lineDiff lists differing lines, quoted so CR and other control bytes show.
func lineDiff(expected, got, path string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s (expected)\n", path)
	fmt.Fprintf(&buf, "+++ %s (got)\n", path)

	expectedLines := strings.SplitAfter(expected, "\n")
	gotLines := strings.SplitAfter(got, "\n")

	n := len(expectedLines)
	if len(gotLines) > n {
		n = len(gotLines)
	}
	for i := 0; i < n; i++ {
		var exp, act string
		if i < len(expectedLines) {
			exp = expectedLines[i]
		}
		if i < len(gotLines) {
			act = gotLines[i]
		}
		if exp == act {
			continue
		}
		fmt.Fprintf(&buf, "@@ line %d @@\n", i+1)
		if exp != "" {
			fmt.Fprintf(&buf, "-%q\n", exp)
		}
		if act != "" {
			fmt.Fprintf(&buf, "+%q\n", act)
		}
	}
	return buf.String()
}
