// Package engine implements the parallel bond-fluctuation-model Monte-Carlo
// engine: staged configuration of box, monomers and bond set, species
// coloring and sorted layout at initialization, and the three-phase
// check/perform/zero kernel pipeline that moves thousands of monomers
// concurrently on a shared lattice.
package engine

import (
	"log/slog"
	"time"

	"github.com/lgh0504/pscbfm/graph"
	"github.com/lgh0504/pscbfm/lattice"
	"github.com/lgh0504/pscbfm/layout"
	"github.com/lgh0504/pscbfm/rng"
)

// Coord is the lattice coordinate element. int16 suffices for boxes up to
// 2^15 and halves the position arrays; int32 is the safe default. The
// engine's behavior is identical for both widths.
type Coord interface {
	~int16 | ~int32
}

// Configuration constants.
const (
	// MaxConnectivity is the neighbor capacity of one monomer.
	MaxConnectivity = 7

	// Alignment pads every species region so warp-wide loads never span
	// species boundaries.
	Alignment = 32

	// RequiredAllowedBonds is the only legal allowed-entry count of a fully
	// staged bond table.
	RequiredAllowedBonds = lattice.RequiredAllowedBonds
)

// Options selects engine behavior fixed at construction time.
type Options struct {
	// NonPeriodic selects closed walls on all axes. SetPeriodicity must agree
	// with this selection.
	NonPeriodic bool

	// UniformColors rebalances species populations after coloring.
	UniformColors bool

	// Seed drives the deterministic per-substep seed stream.
	Seed uint64

	// MaxWorkers caps kernel parallelism; 0 means GOMAXPROCS.
	MaxWorkers int

	// Log receives engine lifecycle events; nil uses slog.Default.
	Log *slog.Logger
}

// Counters aggregates move statistics and kernel timings of one Monte-Carlo
// step.
type Counters struct {
	Proposals     int // monomers examined by check kernels
	CheckAccepted int // accepted by phase A
	Committed     int // accepted by phase B and applied

	CheckTime   time.Duration
	PerformTime time.Duration
	ZeroTime    time.Duration
}

// Engine is the move engine for one simulation box. All staging calls must
// happen before Initialize; kernels run between Initialize and Cleanup.
type Engine[C Coord] struct {
	opts Options
	log  *slog.Logger

	// Staging state (host mirror, original monomer order).
	bx, by, bz     int32
	boxSet         bool
	perX, perY, perZ bool
	periodicitySet bool
	numMonomers    int
	stagedX        []C
	stagedY        []C
	stagedZ        []C
	stagedSet      []bool
	attributes     []byte
	neighbors      [][]int
	bondTable      lattice.BondTable

	initialized bool

	// Device mirror (sorted, species-aligned order), valid while initialized.
	lat        *lattice.Lattice
	plan       *layout.Plan
	colors     []int
	numSpecies int
	posX       []C
	posY       []C
	posZ       []C
	tags       []byte
	flags      []byte
	stream     *rng.SeedStream
	pool       *kernelPool[C]
	step       int

	// OnSweep, when set, is called after every completed Monte-Carlo step.
	OnSweep func(step int, c Counters)
}

// New creates an unconfigured engine.
func New[C Coord](opts Options) *Engine[C] {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Engine[C]{opts: opts, log: log}
}

// SetBoxSize stages the box edge lengths; each must be a power of two.
func (e *Engine[C]) SetBoxSize(bx, by, bz int32) error {
	if e.initialized {
		return &StateError{Op: "SetBoxSize", Msg: "engine already initialized"}
	}
	for _, b := range [3]int32{bx, by, bz} {
		if b <= 0 || b&(b-1) != 0 {
			return configErrorf("box edge %d is not a power of two", b)
		}
	}
	e.bx, e.by, e.bz = bx, by, bz
	e.boxSet = true
	return nil
}

// SetPeriodicity stages per-axis periodicity. The flags must agree with the
// construction-time NonPeriodic selection; a mismatch is a configuration
// error.
func (e *Engine[C]) SetPeriodicity(px, py, pz bool) error {
	if e.initialized {
		return &StateError{Op: "SetPeriodicity", Msg: "engine already initialized"}
	}
	want := !e.opts.NonPeriodic
	if px != want || py != want || pz != want {
		return configErrorf("periodicity (%v,%v,%v) conflicts with configured periodic=%v",
			px, py, pz, want)
	}
	e.perX, e.perY, e.perZ = px, py, pz
	e.periodicitySet = true
	return nil
}

// SetNumMonomers allocates the monomer attribute arrays. Valid once per
// lifecycle.
func (e *Engine[C]) SetNumMonomers(n int) error {
	if e.initialized {
		return &StateError{Op: "SetNumMonomers", Msg: "engine already initialized"}
	}
	if e.numMonomers != 0 {
		return &StateError{Op: "SetNumMonomers", Msg: "monomer count already set"}
	}
	if n <= 0 {
		return configErrorf("monomer count %d must be positive", n)
	}
	e.numMonomers = n
	e.stagedX = make([]C, n)
	e.stagedY = make([]C, n)
	e.stagedZ = make([]C, n)
	e.stagedSet = make([]bool, n)
	e.attributes = make([]byte, n)
	e.neighbors = make([][]int, n)
	return nil
}

// SetPosition stages the lattice position of monomer i.
func (e *Engine[C]) SetPosition(i int, x, y, z int32) error {
	if e.initialized {
		return &StateError{Op: "SetPosition", Msg: "engine already initialized"}
	}
	if i < 0 || i >= e.numMonomers {
		return configErrorf("monomer index %d out of range [0,%d)", i, e.numMonomers)
	}
	if !e.boxSet {
		return &StateError{Op: "SetPosition", Msg: "box size not set"}
	}
	// Closed walls demand in-box anchors; periodic axes accept unwrapped
	// coordinates and mask them at lattice indexing.
	if e.opts.NonPeriodic {
		if x < 0 || x >= e.bx-1 || y < 0 || y >= e.by-1 || z < 0 || z >= e.bz-1 {
			return configErrorf("position (%d,%d,%d) outside box (%d,%d,%d)", x, y, z, e.bx, e.by, e.bz)
		}
	}
	e.stagedX[i] = C(x)
	e.stagedY[i] = C(y)
	e.stagedZ[i] = C(z)
	e.stagedSet[i] = true
	return nil
}

// SetAttribute stages the caller tag of monomer i. Only the low 5 bits are
// available; the engine owns bits 5-7 for the neighbor count.
func (e *Engine[C]) SetAttribute(i int, a byte) error {
	if e.initialized {
		return &StateError{Op: "SetAttribute", Msg: "engine already initialized"}
	}
	if i < 0 || i >= e.numMonomers {
		return configErrorf("monomer index %d out of range [0,%d)", i, e.numMonomers)
	}
	if a > 31 {
		return configErrorf("attribute %d exceeds 5 bits", a)
	}
	e.attributes[i] = a
	return nil
}

// AddBond stages an undirected bond between monomers i and j.
func (e *Engine[C]) AddBond(i, j int) error {
	if e.initialized {
		return &StateError{Op: "AddBond", Msg: "engine already initialized"}
	}
	if i < 0 || i >= e.numMonomers || j < 0 || j >= e.numMonomers || i == j {
		return configErrorf("bond (%d,%d) out of range for %d monomers", i, j, e.numMonomers)
	}
	for _, nb := range e.neighbors[i] {
		if nb == j {
			return nil // already bonded
		}
	}
	if len(e.neighbors[i]) >= MaxConnectivity {
		return configErrorf("monomer %d exceeds %d neighbors", i, MaxConnectivity)
	}
	if len(e.neighbors[j]) >= MaxConnectivity {
		return configErrorf("monomer %d exceeds %d neighbors", j, MaxConnectivity)
	}
	e.neighbors[i] = append(e.neighbors[i], j)
	e.neighbors[j] = append(e.neighbors[j], i)
	return nil
}

// SetAllowedBond stages one bond-table entry.
func (e *Engine[C]) SetAllowedBond(dx, dy, dz int32, allowed bool) error {
	if e.initialized {
		return &StateError{Op: "SetAllowedBond", Msg: "engine already initialized"}
	}
	if !lattice.InRange(dx, dy, dz) {
		return configErrorf("bond vector (%d,%d,%d) outside [-4,3]", dx, dy, dz)
	}
	e.bondTable.Set(dx, dy, dz, allowed)
	return nil
}

// Initialize freezes the staged configuration: colors the bond graph, packs
// monomers into the sorted species layout, primes the lattice, and starts the
// kernel workers.
func (e *Engine[C]) Initialize() error {
	if e.initialized {
		return &StateError{Op: "Initialize", Msg: "already initialized; Cleanup first"}
	}
	if !e.boxSet {
		return &StateError{Op: "Initialize", Msg: "box size not set"}
	}
	if !e.periodicitySet {
		return &StateError{Op: "Initialize", Msg: "periodicity not set"}
	}
	if e.numMonomers == 0 {
		return &StateError{Op: "Initialize", Msg: "monomer count not set"}
	}
	if got := e.bondTable.AllowedCount(); got != RequiredAllowedBonds {
		return configErrorf("bond table allows %d vectors, want %d", got, RequiredAllowedBonds)
	}
	for i, set := range e.stagedSet {
		if !set {
			return configErrorf("monomer %d has no staged position", i)
		}
	}

	colors, numSpecies, err := graph.Color(graph.SliceAdjacency(e.neighbors), e.opts.UniformColors)
	if err != nil {
		return configErrorf("coloring failed: %v", err)
	}
	e.colors = colors
	e.numSpecies = numSpecies
	e.plan = layout.New(colors, numSpecies, e.neighbors, Alignment)

	lat, err := lattice.New(e.bx, e.by, e.bz)
	if err != nil {
		return configErrorf("%v", err)
	}
	e.lat = lat

	np := e.plan.PaddedTotal
	e.posX = make([]C, np)
	e.posY = make([]C, np)
	e.posZ = make([]C, np)
	e.tags = make([]byte, np)
	e.flags = make([]byte, np)

	for i := 0; i < e.numMonomers; i++ {
		j := e.plan.ToSorted[i]
		e.posX[j] = e.stagedX[i]
		e.posY[j] = e.stagedY[i]
		e.posZ[j] = e.stagedZ[i]
		e.tags[j] = e.attributes[i]&0x1f | byte(len(e.neighbors[i]))<<5
	}

	// Prime the committed lattice; the scratch grid stays all-zero.
	e.lat.Clear()
	for i := 0; i < e.numMonomers; i++ {
		x, y, z := int32(e.stagedX[i]), int32(e.stagedY[i]), int32(e.stagedZ[i])
		if e.lat.Committed(x, y, z) {
			return configErrorf("monomer %d collides with an earlier monomer at (%d,%d,%d)", i, x, y, z)
		}
		e.lat.SetCommitted(x, y, z)
	}

	e.stream = rng.NewSeedStream(e.opts.Seed)
	e.pool = newKernelPool(e, e.opts.MaxWorkers)
	e.step = 0
	e.initialized = true

	e.log.Info("engine initialized",
		"monomers", e.numMonomers,
		"species", e.numSpecies,
		"padded", np,
		"box", [3]int32{e.bx, e.by, e.bz},
		"periodic", !e.opts.NonPeriodic,
		"workers", e.pool.numWorkers,
	)
	return nil
}

// Position returns the current position of monomer i in original index
// order. While initialized it reads the committed sorted arrays; otherwise it
// reads the staged values.
func (e *Engine[C]) Position(i int) (x, y, z C, err error) {
	if i < 0 || i >= e.numMonomers {
		return 0, 0, 0, configErrorf("monomer index %d out of range [0,%d)", i, e.numMonomers)
	}
	if e.initialized {
		j := e.plan.ToSorted[i]
		return e.posX[j], e.posY[j], e.posZ[j], nil
	}
	return e.stagedX[i], e.stagedY[i], e.stagedZ[i], nil
}

// NumMonomers returns the staged monomer count.
func (e *Engine[C]) NumMonomers() int { return e.numMonomers }

// NumSpecies returns the species count; valid after Initialize.
func (e *Engine[C]) NumSpecies() int { return e.numSpecies }

// Species returns the species id of monomer i; valid after Initialize.
func (e *Engine[C]) Species(i int) int { return e.colors[i] }

// Step returns the number of completed Monte-Carlo steps.
func (e *Engine[C]) Step() int { return e.step }

// Neighbors exposes the staged adjacency of monomer i.
func (e *Engine[C]) Neighbors(i int) []int { return e.neighbors[i] }

// Periodic reports per-axis periodicity.
func (e *Engine[C]) Periodic() (px, py, pz bool) { return e.perX, e.perY, e.perZ }

// Box returns the staged box edge lengths.
func (e *Engine[C]) Box() (bx, by, bz int32) { return e.bx, e.by, e.bz }

// Cleanup copies the committed positions back into the host mirror, stops
// the kernel workers and releases the sorted arrays and grids. The engine
// returns to the staging state and may be reconfigured.
func (e *Engine[C]) Cleanup() error {
	if !e.initialized {
		return &StateError{Op: "Cleanup", Msg: "engine not initialized"}
	}
	for i := 0; i < e.numMonomers; i++ {
		j := e.plan.ToSorted[i]
		e.stagedX[i] = e.posX[j]
		e.stagedY[i] = e.posY[j]
		e.stagedZ[i] = e.posZ[j]
	}
	e.pool.stop()
	e.pool = nil
	e.lat = nil
	e.plan = nil
	e.colors = nil
	e.numSpecies = 0
	e.posX, e.posY, e.posZ = nil, nil, nil
	e.tags = nil
	e.flags = nil
	e.stream = nil
	e.initialized = false
	e.log.Info("engine cleaned up", "steps", e.step)
	return nil
}
