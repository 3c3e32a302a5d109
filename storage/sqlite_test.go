package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	s := NewSQLiteStore(path)
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	run := RunRecord{
		VersionedRecord: NewVersionedRecord(),
		ID:              "run-7",
		Box:             [3]int32{8, 8, 8},
		Periodic:        true,
		Seed:            1,
		NumMonomers:     2,
		NumSpecies:      2,
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	// Upsert: saving again must not fail.
	run.NumSpecies = 3
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	back, ok, err := s.GetRun(ctx, "run-7")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || back.NumSpecies != 3 {
		t.Fatalf("upsert not visible: ok=%v record=%+v", ok, back)
	}

	for step := 0; step < 3; step++ {
		frame := Frame{
			VersionedRecord: NewVersionedRecord(),
			RunID:           "run-7",
			Step:            step * 10,
			Positions:       [][3]int32{{2, 2, 2}, {4, 2, 2}},
		}
		if err := s.SaveFrame(ctx, frame); err != nil {
			t.Fatal(err)
		}
	}
	frames, err := s.GetFrames(ctx, "run-7")
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 || frames[2].Step != 20 {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	s := NewSQLiteStore("")
	if err := s.Init(context.Background()); err == nil {
		t.Fatal("empty path accepted")
	}
}
