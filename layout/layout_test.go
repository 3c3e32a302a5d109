package layout

import "testing"

func TestOffsetsAligned(t *testing.T) {
	colors := []int{0, 1, 0, 1, 0, 2}
	neighbors := make([][]int, len(colors))
	p := New(colors, 3, neighbors, 4)

	wantCount := []int{3, 2, 1}
	wantOffset := []int{0, 4, 8}
	for c := 0; c < 3; c++ {
		if p.Count[c] != wantCount[c] {
			t.Errorf("Count[%d] = %d, want %d", c, p.Count[c], wantCount[c])
		}
		if p.Offset[c] != wantOffset[c] {
			t.Errorf("Offset[%d] = %d, want %d", c, p.Offset[c], wantOffset[c])
		}
		if p.Offset[c]%4 != 0 {
			t.Errorf("Offset[%d] = %d not aligned", c, p.Offset[c])
		}
	}
	if p.PaddedTotal != 12 {
		t.Errorf("PaddedTotal = %d, want 12", p.PaddedTotal)
	}
}

func TestBijection(t *testing.T) {
	colors := []int{2, 0, 1, 0, 2, 2, 1, 0}
	neighbors := make([][]int, len(colors))
	p := New(colors, 3, neighbors, 32)

	seen := make(map[int]bool)
	for i := range colors {
		j := p.ToSorted[i]
		if j < 0 || j >= p.PaddedTotal {
			t.Fatalf("ToSorted[%d] = %d out of range", i, j)
		}
		if seen[j] {
			t.Fatalf("sorted index %d assigned twice", j)
		}
		seen[j] = true
		if p.ToOriginal[j] != i {
			t.Fatalf("ToOriginal[%d] = %d, want %d", j, p.ToOriginal[j], i)
		}
		// Region membership: sorted index must lie inside its species region.
		c := colors[i]
		if j < p.Offset[c] || j >= p.Offset[c]+p.Count[c] {
			t.Fatalf("monomer %d (species %d) landed at %d outside [%d,%d)",
				i, c, j, p.Offset[c], p.Offset[c]+p.Count[c])
		}
	}

	// Every unassigned slot is padding.
	for j := 0; j < p.PaddedTotal; j++ {
		if !seen[j] && p.ToOriginal[j] != None {
			t.Fatalf("padding slot %d holds %d", j, p.ToOriginal[j])
		}
	}
}

func TestNeighborMatrixRewrite(t *testing.T) {
	// Dimer + isolated monomer, two species.
	colors := []int{0, 1, 0}
	neighbors := [][]int{{1}, {0}, {}}
	p := New(colors, 2, neighbors, 32)

	// Monomer 0 (species 0) must list monomer 1 under its sorted id.
	j0 := p.ToSorted[0]
	got := p.Neighbor(0, j0, 0)
	if got != int32(p.ToSorted[1]) {
		t.Errorf("neighbor slot 0 of monomer 0 = %d, want %d", got, p.ToSorted[1])
	}
	// Remaining slots empty.
	for s := 1; s < MaxConnectivity; s++ {
		if p.Neighbor(0, j0, s) != None {
			t.Errorf("slot %d of monomer 0 not empty", s)
		}
	}
	// Isolated monomer has no neighbors at all.
	j2 := p.ToSorted[2]
	for s := 0; s < MaxConnectivity; s++ {
		if p.Neighbor(0, j2, s) != None {
			t.Errorf("slot %d of monomer 2 not empty", s)
		}
	}
}

func TestSpeciesOf(t *testing.T) {
	colors := []int{0, 0, 1, 1, 1, 2}
	p := New(colors, 3, make([][]int, len(colors)), 8)
	for i, c := range colors {
		if got := p.SpeciesOf(p.ToSorted[i]); got != c {
			t.Errorf("SpeciesOf(ToSorted[%d]) = %d, want %d", i, got, c)
		}
	}
}

func TestEmptySpeciesRegion(t *testing.T) {
	// Species 1 unused: zero-width region, later offsets unchanged by it.
	colors := []int{0, 0, 2}
	p := New(colors, 3, make([][]int, 3), 4)
	if p.Count[1] != 0 || p.Pitch[1] != 0 {
		t.Errorf("empty species has Count=%d Pitch=%d", p.Count[1], p.Pitch[1])
	}
	if p.Offset[2] != 4 {
		t.Errorf("Offset[2] = %d, want 4", p.Offset[2])
	}
	if p.PaddedTotal != 8 {
		t.Errorf("PaddedTotal = %d, want 8", p.PaddedTotal)
	}
}
