package main

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"wirehttp/internal/logging"
	"wirehttp/internal/storage"
)

func TestReadJournal(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "journal.db"), logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	defer db.Close()

	for _, target := range []string{"/", "/", "/echo/x"} {
		if err := db.Record(storage.Entry{ID: uuid.NewString(), Method: "GET", Target: target, Status: 200}); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := readJournal(db, 0, false)
	if err != nil {
		t.Fatalf("readJournal() error = %v", err)
	}
	if summary.Total != 3 || len(summary.Summary) != 2 || summary.Recent != nil {
		t.Errorf("summary = %+v", summary)
	}

	recent, err := readJournal(db, 2, true)
	if err != nil {
		t.Fatalf("readJournal(recent) error = %v", err)
	}
	if len(recent.Recent) != 2 || recent.Summary != nil {
		t.Errorf("recent = %+v", recent)
	}
}
