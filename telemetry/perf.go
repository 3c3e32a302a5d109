package telemetry

import (
	"log/slog"
	"time"
)

// Phase names of one Monte-Carlo step.
const (
	PhaseCheck     = "check"
	PhasePerform   = "perform"
	PhaseZero      = "zero"
	PhaseVerify    = "verify"
	PhaseTelemetry = "telemetry"
)

// PerfSample holds timing data for a single sweep.
type PerfSample struct {
	SweepDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks sweep timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	sweepStart    time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a collector averaging over windowSize sweeps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartSweep begins timing a new sweep.
func (p *PerfCollector) StartSweep() {
	p.sweepStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// AddPhase accumulates an externally measured duration into the current
// sweep's phase breakdown.
func (p *PerfCollector) AddPhase(phase string, d time.Duration) {
	p.currentPhases[phase] += d
}

// StartPhase begins timing a phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndSweep finishes the current sweep and records the sample.
func (p *PerfCollector) EndSweep() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.samples[p.writeIndex] = PerfSample{
		SweepDuration: now.Sub(p.sweepStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated timings over the window.
type PerfStats struct {
	AvgSweepDuration time.Duration
	MinSweepDuration time.Duration
	MaxSweepDuration time.Duration
	PhaseAvg         map[string]time.Duration
	PhasePct         map[string]float64
	SweepsPerSecond  float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minS, maxS time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.SweepDuration
		if i == 0 || s.SweepDuration < minS {
			minS = s.SweepDuration
		}
		if s.SweepDuration > maxS {
			maxS = s.SweepDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)
	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgSweepDuration: avg,
		MinSweepDuration: minS,
		MaxSweepDuration: maxS,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		SweepsPerSecond:  perSec,
	}
}

// PerfStatsCSV is the flat perf.csv row shape.
type PerfStatsCSV struct {
	Step        int     `csv:"step"`
	AvgSweepUs  int64   `csv:"avg_sweep_us"`
	MinSweepUs  int64   `csv:"min_sweep_us"`
	MaxSweepUs  int64   `csv:"max_sweep_us"`
	SweepsPerSec float64 `csv:"sweeps_per_sec"`
	CheckPct    float64 `csv:"check_pct"`
	PerformPct  float64 `csv:"perform_pct"`
	ZeroPct     float64 `csv:"zero_pct"`
}

// ToCSV flattens the stats for CSV output at the given step.
func (s PerfStats) ToCSV(step int) PerfStatsCSV {
	return PerfStatsCSV{
		Step:         step,
		AvgSweepUs:   s.AvgSweepDuration.Microseconds(),
		MinSweepUs:   s.MinSweepDuration.Microseconds(),
		MaxSweepUs:   s.MaxSweepDuration.Microseconds(),
		SweepsPerSec: s.SweepsPerSecond,
		CheckPct:     s.PhasePct[PhaseCheck],
		PerformPct:   s.PhasePct[PhasePerform],
		ZeroPct:      s.PhasePct[PhaseZero],
	}
}

// LogStats logs the window aggregates through slog.
func (s PerfStats) LogStats() {
	slog.Info("perf window",
		"avg_sweep_us", s.AvgSweepDuration.Microseconds(),
		"min_sweep_us", s.MinSweepDuration.Microseconds(),
		"max_sweep_us", s.MaxSweepDuration.Microseconds(),
		"sweeps_per_sec", int(s.SweepsPerSecond),
	)
}
