package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lgh0504/pscbfm/bfmfile"
	"github.com/lgh0504/pscbfm/config"
	"github.com/lgh0504/pscbfm/engine"
	"github.com/lgh0504/pscbfm/lattice"
	"github.com/lgh0504/pscbfm/storage"
	"github.com/lgh0504/pscbfm/telemetry"
	"github.com/lgh0504/pscbfm/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	inPath := flag.String("in", "", "Input .bfm trajectory (empty = synthesize a melt from config)")
	outPath := flag.String("out", "", "Output .bfm trajectory")
	sweeps := flag.Int("sweeps", 0, "Monte-Carlo steps to run (0 = use config)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = use config)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	storeKind := flag.String("store", "", "Checkpoint store backend: memory|sqlite (empty = use config)")
	dbPath := flag.String("db", "", "SQLite database path (empty = use config)")
	runID := flag.String("run-id", "", "Run id for the checkpoint store (empty = derived from time)")
	saveEvery := flag.Int("save-every", -1, "Store a frame every N sweeps (-1 = use config)")
	checkEvery := flag.Int("check-every", -1, "Run the verifier every N sweeps (-1 = use config)")
	maxWorkers := flag.Int("max-workers", -1, "Kernel worker cap (-1 = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *sweeps > 0 {
		cfg.Run.Sweeps = *sweeps
	}
	if *seed != 0 {
		cfg.Run.Seed = *seed
	}
	if *storeKind != "" {
		cfg.Storage.Backend = *storeKind
	}
	if *dbPath != "" {
		cfg.Storage.SQLitePath = *dbPath
	}
	if *saveEvery >= 0 {
		cfg.Run.SaveEvery = *saveEvery
	}
	if *checkEvery >= 0 {
		cfg.Run.CheckEvery = *checkEvery
	}
	if *maxWorkers >= 0 {
		cfg.Kernel.MaxWorkers = *maxWorkers
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(cfg, *inPath, *outPath, *outputDir, *runID, *headless); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, inPath, outPath, outputDir, runID string, headless bool) error {
	// Stage the system: either a .bfm file or a synthetic melt.
	var traj *bfmfile.Trajectory
	if inPath != "" {
		t, err := bfmfile.ReadFile(inPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", inPath, err)
		}
		for _, cmd := range t.Skipped {
			slog.Warn("skipped unknown bfm command", "command", cmd)
		}
		traj = t
	} else {
		traj = synthesizeMelt(cfg)
	}

	e := engine.New[int32](engine.Options{
		NonPeriodic:   cfg.Derived.NonPeriodic,
		UniformColors: cfg.Coloring.Uniform,
		Seed:          cfg.Run.Seed,
		MaxWorkers:    cfg.Kernel.MaxWorkers,
	})
	if err := bfmfile.Stage(traj, e); err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	if err := e.Initialize(); err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer e.Cleanup()

	// Telemetry
	chains := telemetry.RecoverChains(e.NumMonomers(), e.Neighbors)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	output, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}

	// Checkpoint store
	ctx := context.Background()
	store, err := storage.NewStore(cfg.Storage.Backend, cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	if runID == "" {
		runID = fmt.Sprintf("run-%d", time.Now().Unix())
	}
	px, _, _ := e.Periodic()
	bx, by, bz := e.Box()
	record := storage.RunRecord{
		VersionedRecord: storage.NewVersionedRecord(),
		ID:              runID,
		Box:             [3]int32{bx, by, bz},
		Periodic:        px,
		Seed:            cfg.Run.Seed,
		NumMonomers:     e.NumMonomers(),
		NumSpecies:      e.NumSpecies(),
		CreatedUnix:     time.Now().Unix(),
	}
	if err := store.SaveRun(ctx, record); err != nil {
		return err
	}

	slog.Info("starting simulation",
		"monomers", e.NumMonomers(),
		"species", e.NumSpecies(),
		"sweeps", cfg.Run.Sweeps,
		"seed", cfg.Run.Seed,
		"headless", headless,
		"run_id", runID,
	)

	if !headless {
		sim := &simAdapter{e: e}
		return viewer.Run(cfg.Viewer, sim)
	}

	var counters engine.Counters
	e.OnSweep = func(step int, c engine.Counters) { counters = c }

	pos := func(i int) (float64, float64, float64) {
		x, y, z, _ := e.Position(i)
		return float64(x), float64(y), float64(z)
	}

	for step := 1; step <= cfg.Run.Sweeps; step++ {
		perf.StartSweep()
		if err := e.RunSweeps(1); err != nil {
			return err
		}
		perf.AddPhase(telemetry.PhaseCheck, counters.CheckTime)
		perf.AddPhase(telemetry.PhasePerform, counters.PerformTime)
		perf.AddPhase(telemetry.PhaseZero, counters.ZeroTime)

		if cfg.Run.CheckEvery > 0 && step%cfg.Run.CheckEvery == 0 {
			perf.StartPhase(telemetry.PhaseVerify)
			if err := e.Verify(); err != nil {
				return err
			}
		}

		perf.StartPhase(telemetry.PhaseTelemetry)
		if cfg.Telemetry.StatsEvery > 0 && step%cfg.Telemetry.StatsEvery == 0 {
			stats := telemetry.NewSweepStats(step,
				counters.Proposals, counters.CheckAccepted, counters.Committed, chains, pos)
			if err := output.WriteSweep(stats); err != nil {
				return err
			}
		}
		if cfg.Run.SaveEvery > 0 && step%cfg.Run.SaveEvery == 0 {
			if err := store.SaveFrame(ctx, storage.Frame{
				VersionedRecord: storage.NewVersionedRecord(),
				RunID:           runID,
				Step:            step,
				Positions:       snapshotPositions(e),
			}); err != nil {
				return err
			}
		}
		perf.EndSweep()

		if cfg.Telemetry.PerfWindow > 0 && step%cfg.Telemetry.PerfWindow == 0 {
			s := perf.Stats()
			s.LogStats()
			if err := output.WritePerf(s, step); err != nil {
				return err
			}
		}
	}

	if err := e.Verify(); err != nil {
		return err
	}

	if outPath != "" {
		traj.Positions = snapshotPositions(e)
		traj.MCS = e.Step()
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := bfmfile.WriteHeader(f, traj); err != nil {
			return err
		}
		if err := bfmfile.WriteFrame(f, e.Step(), traj.Positions); err != nil {
			return err
		}
	}

	slog.Info("simulation finished", "steps", e.Step())
	return nil
}

// snapshotPositions copies the committed positions in original order.
func snapshotPositions(e *engine.Engine[int32]) [][3]int32 {
	out := make([][3]int32, e.NumMonomers())
	for i := range out {
		x, y, z, _ := e.Position(i)
		out[i] = [3]int32{x, y, z}
	}
	return out
}

// synthesizeMelt builds a default system when no trajectory is given:
// stretched chains of up to 32 monomers stacked on a grid, filling the configured
// box at moderate density.
func synthesizeMelt(cfg *config.Config) *bfmfile.Trajectory {
	bx, by, bz := cfg.Box.X, cfg.Box.Y, cfg.Box.Z

	chainLen := int(bx) / 2
	if chainLen > 32 {
		chainLen = 32
	}
	if chainLen < 1 {
		chainLen = 1
	}
	chainsPerPlane := int(by) / 4
	if chainsPerPlane < 1 {
		chainsPerPlane = 1
	}
	planes := int(bz) / 4
	if planes < 1 {
		planes = 1
	}
	numChains := chainsPerPlane * planes

	t := &bfmfile.Trajectory{
		NumMonomers: numChains * chainLen,
		Box:         [3]int32{bx, by, bz},
		Periodic:    [3]bool{!cfg.Derived.NonPeriodic, !cfg.Derived.NonPeriodic, !cfg.Derived.NonPeriodic},
		BondVectors: lattice.StandardBondVectors(),
		Attributes:  map[int]byte{},
	}
	for c := 0; c < numChains; c++ {
		y := int32(4 * (c % chainsPerPlane))
		z := int32(4 * (c / chainsPerPlane))
		for i := 0; i < chainLen; i++ {
			id := c*chainLen + i
			t.Positions = append(t.Positions, [3]int32{int32(2 * i), y, z})
			if i > 0 {
				t.Bonds = append(t.Bonds, [2]int{id - 1, id})
			}
		}
	}
	return t
}

// simAdapter exposes the engine to the viewer.
type simAdapter struct {
	e *engine.Engine[int32]
}

func (s *simAdapter) Box() (int32, int32, int32) { return s.e.Box() }
func (s *simAdapter) NumMonomers() int           { return s.e.NumMonomers() }
func (s *simAdapter) Species(i int) int          { return s.e.Species(i) }
func (s *simAdapter) Step() int                  { return s.e.Step() }
func (s *simAdapter) RunSweeps(n int) error      { return s.e.RunSweeps(n) }

func (s *simAdapter) Position(i int) (int32, int32, int32) {
	x, y, z, _ := s.e.Position(i)
	return x, y, z
}
