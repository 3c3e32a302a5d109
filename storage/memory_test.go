package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Init(ctx); err != nil {
		t.Fatal(err)
	}

	run := RunRecord{
		VersionedRecord: NewVersionedRecord(),
		ID:              "run-1",
		Box:             [3]int32{64, 64, 64},
		Periodic:        true,
		Seed:            42,
		NumMonomers:     4096,
		NumSpecies:      2,
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	back, ok, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("run not found")
	}
	if back.Box != run.Box || back.Seed != run.Seed || back.NumMonomers != run.NumMonomers {
		t.Errorf("round trip mismatch: %+v", back)
	}

	_, ok, err = s.GetRun(ctx, "missing")
	if err != nil || ok {
		t.Errorf("missing run: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreFramesSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, step := range []int{300, 100, 200} {
		frame := Frame{
			VersionedRecord: NewVersionedRecord(),
			RunID:           "run-1",
			Step:            step,
			Positions:       [][3]int32{{int32(step), 0, 0}},
		}
		if err := s.SaveFrame(ctx, frame); err != nil {
			t.Fatal(err)
		}
	}

	frames, err := s.GetFrames(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 {
		t.Fatalf("%d frames, want 3", len(frames))
	}
	for i, want := range []int{100, 200, 300} {
		if frames[i].Step != want {
			t.Errorf("frame %d has step %d, want %d", i, frames[i].Step, want)
		}
		if frames[i].Positions[0][0] != int32(want) {
			t.Errorf("frame %d payload mismatch", i)
		}
	}
}

func TestCodecVersionMismatch(t *testing.T) {
	run := RunRecord{ID: "old"}
	run.SchemaVersion = 99
	run.CodecVersion = CurrentCodecVersion
	payload, err := EncodeRun(run)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeRun(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("got %v, want ErrVersionMismatch", err)
	}
}

func TestFactory(t *testing.T) {
	if _, err := NewStore("memory", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore("", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore("sqlite", "x.db"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore("redis", ""); err == nil {
		t.Fatal("unknown backend accepted")
	}
}
