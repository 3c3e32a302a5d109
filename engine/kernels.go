package engine

import (
	"errors"
	"time"

	"github.com/lgh0504/pscbfm/lattice"
	"github.com/lgh0504/pscbfm/rng"
)

// RunSweeps executes n Monte-Carlo steps. One step is NumSpecies substeps;
// each substep draws a species and a 32-bit seed from the seed stream and
// runs the check, perform and zero kernels over that species with a barrier
// between each.
func (e *Engine[C]) RunSweeps(n int) error {
	if !e.initialized {
		return &StateError{Op: "RunSweeps", Msg: "engine not initialized"}
	}
	if !e.pool.running {
		return &DeviceError{Err: errors.New("kernel workers not running")}
	}
	for i := 0; i < n; i++ {
		c := e.runStep()
		e.step++
		if e.OnSweep != nil {
			e.OnSweep(e.step, c)
		}
	}
	return nil
}

// RunSubstep runs a single substep on an explicit species and seed. Exposed
// for tests that need to observe per-substep state such as scratch-lattice
// cleanliness.
func (e *Engine[C]) RunSubstep(species int, sigma uint32) (Counters, error) {
	if !e.initialized {
		return Counters{}, &StateError{Op: "RunSubstep", Msg: "engine not initialized"}
	}
	if species < 0 || species >= e.numSpecies {
		return Counters{}, configErrorf("species %d out of range [0,%d)", species, e.numSpecies)
	}
	return e.runSubstep(species, sigma), nil
}

func (e *Engine[C]) runStep() Counters {
	var total Counters
	for sub := 0; sub < e.numSpecies; sub++ {
		species := int(e.stream.NextBelow(uint32(e.numSpecies)))
		sigma := e.stream.Next()
		c := e.runSubstep(species, sigma)
		total.Proposals += c.Proposals
		total.CheckAccepted += c.CheckAccepted
		total.Committed += c.Committed
		total.CheckTime += c.CheckTime
		total.PerformTime += c.PerformTime
		total.ZeroTime += c.ZeroTime
	}
	return total
}

func (e *Engine[C]) runSubstep(species int, sigma uint32) Counters {
	n := e.plan.Count[species]
	if n == 0 {
		return Counters{}
	}
	off := e.plan.Offset[species]

	e.pool.resetCounters()
	t0 := time.Now()
	e.pool.dispatch(phaseCheck, species, sigma, off, off+n)
	t1 := time.Now()
	e.pool.dispatch(phasePerform, species, sigma, off, off+n)
	t2 := time.Now()
	e.pool.dispatch(phaseZero, species, sigma, off, off+n)
	t3 := time.Now()

	checkAccepted, committed := e.pool.totals()
	return Counters{
		Proposals:     n,
		CheckAccepted: checkAccepted,
		Committed:     committed,
		CheckTime:     t1.Sub(t0),
		PerformTime:   t2.Sub(t1),
		ZeroTime:      t3.Sub(t2),
	}
}

func (e *Engine[C]) runChunk(c kernelChunk, w *workerCounters) {
	switch c.phase {
	case phaseCheck:
		e.checkRange(c.species, c.sigma, c.start, c.end, w)
	case phasePerform:
		e.performRange(c.start, c.end, w)
	default:
		e.zeroRange(c.start, c.end)
	}
}

// checkRange is phase A: propose one move per monomer, test bonds against the
// allowed table and excluded volume against the committed lattice, and mark
// accepted destinations in the scratch lattice. The committed grid is only
// read here; scratch stores are idempotent writes of 1.
func (e *Engine[C]) checkRange(species int, sigma uint32, j0, j1 int, w *workerCounters) {
	plan := e.plan
	off := plan.Offset[species]
	pitch := plan.Pitch[species]
	matOff := plan.MatOffset[species]

	for j := j0; j < j1; j++ {
		x, y, z := int32(e.posX[j]), int32(e.posY[j]), int32(e.posZ[j])
		d := int(rng.DirectionDraw(uint32(j), sigma))
		dir := lattice.Directions[d]
		nx, ny, nz := x+dir[0], y+dir[1], z+dir[2]

		e.flags[j] = 0

		if e.opts.NonPeriodic {
			// The monomer is a 2³ cube anchored at its corner, so the anchor
			// must stay within [0, B-1) on every axis.
			if nx < 0 || nx >= e.bx-1 || ny < 0 || ny >= e.by-1 || nz < 0 || nz >= e.bz-1 {
				continue
			}
		}

		k := int(e.tags[j] >> 5)
		m := j - off
		ok := true
		for s := 0; s < k; s++ {
			nb := plan.Neighbors[matOff+s*pitch+m]
			dx := int32(e.posX[nb]) - nx
			dy := int32(e.posY[nb]) - ny
			dz := int32(e.posZ[nb]) - nz
			if !e.bondTable.Allowed(dx, dy, dz) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		if e.lat.FaceCommitted(x, y, z, d) {
			continue
		}

		e.flags[j] = byte(d)<<2 | 1
		e.lat.SetScratch(nx, ny, nz)
		w.checkAccepted++
	}
}

// performRange is phase B: re-run the face test against the scratch lattice,
// which now holds every phase-A destination of this species. Two moves whose
// destinations fall within each other's faces both see the other's mark and
// both stay put. Survivors move on the committed grid.
func (e *Engine[C]) performRange(j0, j1 int, w *workerCounters) {
	for j := j0; j < j1; j++ {
		f := e.flags[j]
		if f&1 == 0 {
			continue
		}
		d := int(f >> 2)
		x, y, z := int32(e.posX[j]), int32(e.posY[j]), int32(e.posZ[j])
		if e.lat.FaceScratch(x, y, z, d) {
			continue
		}
		dir := lattice.Directions[d]
		e.flags[j] = f | 2
		e.lat.SetCommitted(x+dir[0], y+dir[1], z+dir[2])
		e.lat.ClearCommitted(x, y, z)
		w.committed++
	}
}

// zeroRange is phase C: clear the scratch destinations written in phase A so
// the next substep starts from an all-zero scratch, and apply the position
// update of fully accepted moves.
func (e *Engine[C]) zeroRange(j0, j1 int) {
	for j := j0; j < j1; j++ {
		f := e.flags[j]
		if f&1 == 0 {
			continue
		}
		d := int(f >> 2)
		dir := lattice.Directions[d]
		x, y, z := int32(e.posX[j]), int32(e.posY[j]), int32(e.posZ[j])
		e.lat.ClearScratch(x+dir[0], y+dir[1], z+dir[2])
		if f&3 == 3 {
			e.posX[j] += C(dir[0])
			e.posY[j] += C(dir[1])
			e.posZ[j] += C(dir[2])
		}
		e.flags[j] = 0
	}
}
