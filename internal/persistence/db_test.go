package persistence

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/talgya/mini-census/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadRun(t *testing.T) {
	db := openTestDB(t)

	records := []engine.YearRecord{
		{Year: 0, TotalLiving: 2, Children: 2},
		{Year: 1, TotalLiving: 2, Children: 2},
		{Year: 2, TotalLiving: 3, Children: 1, Couples: 1, DeceasedCumulative: 1},
	}
	run := NewRun()
	run.Seed = 42
	run.TotalYears = 3
	run.GraduationAge = 16
	run.SampleSize = 2
	run.FertilityThreshold = 250
	run.Kinship = "symmetric"

	if err := db.SaveRun(run, records); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Seed != 42 || got.Kinship != "symmetric" || got.SampleSize != 2 {
		t.Errorf("unexpected run %+v", got)
	}
	if got.FinalLiving != 3 || got.FinalDeceased != 1 {
		t.Errorf("final counts = %d/%d, want 3/1", got.FinalLiving, got.FinalDeceased)
	}

	loaded, err := db.LoadRecords(run.ID)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if !slices.Equal(loaded, records) {
		t.Errorf("LoadRecords = %+v, want %+v", loaded, records)
	}
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 3; i++ {
		run := NewRun()
		run.Seed = int64(i)
		run.Kinship = "legacy"
		if err := db.SaveRun(run, nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs with limit, got %d", len(runs))
	}
}

func TestMissingRun(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetRun("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun: expected ErrRunNotFound, got %v", err)
	}
	if _, err := db.LoadRecords("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LoadRecords: expected ErrRunNotFound, got %v", err)
	}
}
