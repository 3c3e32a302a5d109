// Package lattice implements the occupancy grids and bond tables of the
// bond-fluctuation model: a 512-entry allowed-bond lookup, the six unit move
// directions, and the dual committed/scratch lattice with the 3×3 face test
// used by the move kernels.
package lattice

// TableSize is the size of the packed bond lookup table. Bond difference
// vectors live in [-4,3] per axis, so three 3-bit fields cover the range.
const TableSize = 512

// RequiredAllowedBonds is the number of allowed entries a valid BFM bond set
// produces after initialization.
const RequiredAllowedBonds = 108

// Directions holds the six canonical unit moves, indexed by direction id.
// Axis = id>>1, sign = -1 for even ids and +1 for odd ids.
var Directions = [6][3]int32{
	{-1, 0, 0}, {+1, 0, 0},
	{0, -1, 0}, {0, +1, 0},
	{0, 0, -1}, {0, 0, +1},
}

// BondIndex packs a bond difference vector into its table slot.
func BondIndex(dx, dy, dz int32) int {
	return int((dz&7)<<6 | (dy&7)<<3 | dx&7)
}

// BondTable marks which bond difference vectors are allowed. The zero value
// forbids everything.
type BondTable struct {
	allowed [TableSize]bool
	count   int
}

// Set marks the vector (dx,dy,dz) allowed or forbidden. Components outside
// [-4,3] cannot be represented and are reported by InRange before staging.
func (t *BondTable) Set(dx, dy, dz int32, allowed bool) {
	idx := BondIndex(dx, dy, dz)
	if t.allowed[idx] != allowed {
		if allowed {
			t.count++
		} else {
			t.count--
		}
		t.allowed[idx] = allowed
	}
}

// Allowed reports whether the difference vector (dx,dy,dz) is an allowed bond.
func (t *BondTable) Allowed(dx, dy, dz int32) bool {
	return t.allowed[BondIndex(dx, dy, dz)]
}

// AllowedIndex reports the entry at a packed table slot.
func (t *BondTable) AllowedIndex(idx int) bool { return t.allowed[idx] }

// AllowedCount returns the number of allowed entries.
func (t *BondTable) AllowedCount() int { return t.count }

// InRange reports whether a difference vector is representable in the table.
func InRange(dx, dy, dz int32) bool {
	return dx >= -4 && dx <= 3 && dy >= -4 && dy <= 3 && dz >= -4 && dz <= 3
}

// BondVector is one caller-supplied bond table entry.
type BondVector struct {
	DX, DY, DZ int32
	Allowed    bool
}

// StandardBondVectors returns the classic 108-vector BFM bond set: every
// permutation and sign combination of (2,0,0), (2,1,0), (2,1,1), (2,2,1),
// (3,0,0) and (3,1,0).
func StandardBondVectors() []BondVector {
	classes := [][3]int32{
		{2, 0, 0},
		{2, 1, 0},
		{2, 1, 1},
		{2, 2, 1},
		{3, 0, 0},
		{3, 1, 0},
	}
	seen := make(map[[3]int32]bool)
	var out []BondVector
	for _, c := range classes {
		for _, p := range permute3(c) {
			for _, v := range signCombos(p) {
				if !seen[v] {
					seen[v] = true
					out = append(out, BondVector{DX: v[0], DY: v[1], DZ: v[2], Allowed: true})
				}
			}
		}
	}
	return out
}

func permute3(v [3]int32) [][3]int32 {
	idx := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	out := make([][3]int32, 0, 6)
	for _, p := range idx {
		out = append(out, [3]int32{v[p[0]], v[p[1]], v[p[2]]})
	}
	return out
}

func signCombos(v [3]int32) [][3]int32 {
	out := make([][3]int32, 0, 8)
	for s := 0; s < 8; s++ {
		w := v
		for a := 0; a < 3; a++ {
			if s&(1<<a) != 0 {
				w[a] = -w[a]
			}
		}
		out = append(out, w)
	}
	return out
}
