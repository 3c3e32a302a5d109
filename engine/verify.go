package engine

import "fmt"

// Verify runs the O(N) invariant checks: excluded volume over all 2³ cubes,
// bond validity against the allowed table, coloring separation, and scratch
// cleanliness. It returns an InvariantError describing the first violation,
// or nil. Valid only while initialized.
func (e *Engine[C]) Verify() error {
	if !e.initialized {
		return &StateError{Op: "Verify", Msg: "engine not initialized"}
	}
	if err := e.verifyOccupancy(); err != nil {
		return err
	}
	if err := e.verifyBonds(); err != nil {
		return err
	}
	if err := e.verifyColoring(); err != nil {
		return err
	}
	return e.VerifyScratchZero()
}

// verifyOccupancy marks all 8 corners of every monomer's cube, with wrap at
// the box edges, and requires the marked-cell count to equal 8·N. Any overlap
// between cubes collapses marks and lowers the count.
func (e *Engine[C]) verifyOccupancy() error {
	buf := make([]byte, e.lat.Cells())
	count := 0
	for i := 0; i < e.numMonomers; i++ {
		j := e.plan.ToSorted[i]
		x, y, z := int32(e.posX[j]), int32(e.posY[j]), int32(e.posZ[j])
		for _, dx := range [2]int32{0, 1} {
			for _, dy := range [2]int32{0, 1} {
				for _, dz := range [2]int32{0, 1} {
					idx := e.lat.Index(x+dx, y+dy, z+dz)
					if buf[idx] == 0 {
						buf[idx] = 1
						count++
					}
				}
			}
		}
		// The committed grid must agree with the stored anchor.
		if !e.lat.Committed(x, y, z) {
			return &InvariantError{Index: i, Other: -1, Msg: "anchor cell not set in committed lattice"}
		}
	}
	if count != 8*e.numMonomers {
		return &InvariantError{
			Index: -1, Other: -1,
			Msg: fmt.Sprintf("cube corners collide: %d distinct cells, want %d", count, 8*e.numMonomers),
		}
	}
	return nil
}

// verifyBonds checks every edge for max-norm length ≤ 3 and table membership.
func (e *Engine[C]) verifyBonds() error {
	for i := 0; i < e.numMonomers; i++ {
		ji := e.plan.ToSorted[i]
		for _, nb := range e.neighbors[i] {
			jn := e.plan.ToSorted[nb]
			dx := int32(e.posX[jn]) - int32(e.posX[ji])
			dy := int32(e.posY[jn]) - int32(e.posY[ji])
			dz := int32(e.posZ[jn]) - int32(e.posZ[ji])
			if maxAbs(dx, dy, dz) > 3 {
				return &InvariantError{Index: i, Other: nb,
					Msg: "bond longer than 3 in max norm"}
			}
			if !e.bondTable.Allowed(dx, dy, dz) {
				return &InvariantError{Index: i, Other: nb, Msg: "bond vector not in allowed set"}
			}
		}
	}
	return nil
}

// verifyColoring re-checks adjacency separation of the species assignment.
func (e *Engine[C]) verifyColoring() error {
	for i := 0; i < e.numMonomers; i++ {
		for _, nb := range e.neighbors[i] {
			if e.colors[i] == e.colors[nb] {
				return &InvariantError{Index: i, Other: nb, Msg: "bonded monomers share a species"}
			}
		}
	}
	return nil
}

// VerifyScratchZero asserts the scratch lattice is all-zero. Usable between
// substeps as a test hook.
func (e *Engine[C]) VerifyScratchZero() error {
	if !e.initialized {
		return &StateError{Op: "VerifyScratchZero", Msg: "engine not initialized"}
	}
	if !e.lat.ScratchZero() {
		return &InvariantError{Index: -1, Other: -1, Msg: "scratch lattice not zero"}
	}
	return nil
}

func maxAbs(vs ...int32) int32 {
	var m int32
	for _, v := range vs {
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}
