package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorWindow(t *testing.T) {
	p := NewPerfCollector(4)

	for i := 0; i < 6; i++ {
		p.StartSweep()
		p.StartPhase(PhaseCheck)
		time.Sleep(time.Millisecond)
		p.StartPhase(PhaseZero)
		p.EndSweep()
	}

	s := p.Stats()
	if s.AvgSweepDuration <= 0 {
		t.Error("average sweep duration not positive")
	}
	if s.MinSweepDuration > s.MaxSweepDuration {
		t.Errorf("min %v > max %v", s.MinSweepDuration, s.MaxSweepDuration)
	}
	if s.PhaseAvg[PhaseCheck] <= 0 {
		t.Error("check phase not measured")
	}
	if s.SweepsPerSecond <= 0 {
		t.Error("throughput not positive")
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	p := NewPerfCollector(8)
	s := p.Stats()
	if s.AvgSweepDuration != 0 || len(s.PhaseAvg) != 0 {
		t.Errorf("empty collector produced stats: %+v", s)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	p := NewPerfCollector(2)
	p.StartSweep()
	p.StartPhase(PhaseCheck)
	time.Sleep(time.Millisecond)
	p.EndSweep()

	row := p.Stats().ToCSV(42)
	if row.Step != 42 {
		t.Errorf("Step = %d, want 42", row.Step)
	}
	if row.AvgSweepUs <= 0 {
		t.Error("AvgSweepUs not positive")
	}
}
