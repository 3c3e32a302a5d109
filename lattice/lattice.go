package lattice

import "fmt"

// Lattice holds the two occupancy grids of the simulation box: the committed
// grid reflecting accepted positions and the scratch grid used to detect
// same-substep parallel-move clashes. Box edges must be powers of two so that
// coordinate wrapping is a bitwise AND.
type Lattice struct {
	bx, by, bz int32
	maskX      int32
	maskY      int32
	maskZ      int32
	lgX        uint
	lgXY       uint

	committed []byte
	scratch   []byte
}

// New allocates a lattice for a box with the given edge lengths.
func New(bx, by, bz int32) (*Lattice, error) {
	for _, b := range [3]int32{bx, by, bz} {
		if b <= 0 || b&(b-1) != 0 {
			return nil, fmt.Errorf("box edge %d is not a power of two", b)
		}
	}
	l := &Lattice{
		bx: bx, by: by, bz: bz,
		maskX: bx - 1, maskY: by - 1, maskZ: bz - 1,
		lgX:  log2(uint32(bx)),
		lgXY: log2(uint32(bx) * uint32(by)),
	}
	n := int(bx) * int(by) * int(bz)
	l.committed = make([]byte, n)
	l.scratch = make([]byte, n)
	return l, nil
}

func log2(v uint32) uint {
	var n uint
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// Box returns the edge lengths.
func (l *Lattice) Box() (bx, by, bz int32) { return l.bx, l.by, l.bz }

// Cells returns the number of cells per grid.
func (l *Lattice) Cells() int { return len(l.committed) }

// Index returns the linear cell index for a (possibly out-of-box) coordinate.
func (l *Lattice) Index(x, y, z int32) int {
	return l.termX(x) | l.termY(y) | l.termZ(z)
}

func (l *Lattice) termX(x int32) int { return int(x & l.maskX) }
func (l *Lattice) termY(y int32) int { return int(y&l.maskY) << l.lgX }
func (l *Lattice) termZ(z int32) int { return int(z&l.maskZ) << l.lgXY }

// Clear zeroes both grids.
func (l *Lattice) Clear() {
	clear(l.committed)
	clear(l.scratch)
}

// SetCommitted marks the committed cell at (x,y,z).
func (l *Lattice) SetCommitted(x, y, z int32) { l.committed[l.Index(x, y, z)] = 1 }

// ClearCommitted empties the committed cell at (x,y,z).
func (l *Lattice) ClearCommitted(x, y, z int32) { l.committed[l.Index(x, y, z)] = 0 }

// Committed reports occupancy of the committed cell at (x,y,z).
func (l *Lattice) Committed(x, y, z int32) bool { return l.committed[l.Index(x, y, z)] != 0 }

// SetScratch marks the scratch cell at (x,y,z). Stores are idempotent byte
// writes; concurrent workers may set the same cell.
func (l *Lattice) SetScratch(x, y, z int32) { l.scratch[l.Index(x, y, z)] = 1 }

// ClearScratch empties the scratch cell at (x,y,z).
func (l *Lattice) ClearScratch(x, y, z int32) { l.scratch[l.Index(x, y, z)] = 0 }

// ScratchZero reports whether the scratch grid is all-zero.
func (l *Lattice) ScratchZero() bool {
	for _, c := range l.scratch {
		if c != 0 {
			return false
		}
	}
	return true
}

// FaceCommitted runs the 3×3 face test for a move from (x,y,z) along
// direction d against the committed grid. It reports true if any of the nine
// cells on the plane two steps ahead of the origin is occupied.
func (l *Lattice) FaceCommitted(x, y, z int32, d int) bool {
	return l.faceOccupied(l.committed, x, y, z, d)
}

// FaceScratch runs the same test against the scratch grid.
func (l *Lattice) FaceScratch(x, y, z int32, d int) bool {
	return l.faceOccupied(l.scratch, x, y, z, d)
}

// faceOccupied tests the 3×3 plane at coord[axis]+2*sign; the two transverse
// axes sweep {-1,0,+1} around the origin. The nine linear indices are sums of
// three precomputed terms per axis.
func (l *Lattice) faceOccupied(cells []byte, x, y, z int32, d int) bool {
	var occ byte
	switch d >> 1 {
	case 0:
		tx := l.termX(x + 2*Directions[d][0])
		ty := [3]int{l.termY(y - 1), l.termY(y), l.termY(y + 1)}
		tz := [3]int{l.termZ(z - 1), l.termZ(z), l.termZ(z + 1)}
		for _, a := range ty {
			for _, b := range tz {
				occ |= cells[tx|a|b]
			}
		}
	case 1:
		ty := l.termY(y + 2*Directions[d][1])
		tx := [3]int{l.termX(x - 1), l.termX(x), l.termX(x + 1)}
		tz := [3]int{l.termZ(z - 1), l.termZ(z), l.termZ(z + 1)}
		for _, a := range tx {
			for _, b := range tz {
				occ |= cells[a|ty|b]
			}
		}
	default:
		tz := l.termZ(z + 2*Directions[d][2])
		tx := [3]int{l.termX(x - 1), l.termX(x), l.termX(x + 1)}
		ty := [3]int{l.termY(y - 1), l.termY(y), l.termY(y + 1)}
		for _, a := range tx {
			for _, b := range ty {
				occ |= cells[a|b|tz]
			}
		}
	}
	return occ != 0
}
