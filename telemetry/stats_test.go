package telemetry

import (
	"math"
	"testing"
)

// adjacency helper: builds neighbor lists from edge pairs.
func adjFromEdges(n int, edges [][2]int) func(i int) []int {
	lists := make([][]int, n)
	for _, e := range edges {
		lists[e[0]] = append(lists[e[0]], e[1])
		lists[e[1]] = append(lists[e[1]], e[0])
	}
	return func(i int) []int { return lists[i] }
}

func TestRecoverChains(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		edges      [][2]int
		wantChains int
		wantSizes  []int
	}{
		{"single chain", 4, [][2]int{{0, 1}, {1, 2}, {2, 3}}, 1, []int{4}},
		{"two chains plus isolated", 5, [][2]int{{0, 1}, {3, 4}}, 3, []int{2, 1, 2}},
		{"isolated monomers", 3, nil, 3, []int{1, 1, 1}},
		{"chain plus isolated", 4, [][2]int{{1, 2}, {2, 3}}, 2, []int{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := RecoverChains(tt.n, adjFromEdges(tt.n, tt.edges))
			if cs.NumChains() != tt.wantChains {
				t.Fatalf("got %d chains, want %d", cs.NumChains(), tt.wantChains)
			}
			sizes := map[int]int{}
			for c := 0; c < cs.NumChains(); c++ {
				sizes[len(cs.Chain(c))]++
			}
			want := map[int]int{}
			for _, s := range tt.wantSizes {
				want[s]++
			}
			for s, cnt := range want {
				if sizes[s] != cnt {
					t.Errorf("chains of size %d: got %d, want %d", s, sizes[s], cnt)
				}
			}
		})
	}
}

func TestRecoverChainsVisitsEachOnce(t *testing.T) {
	// A chain has two endpoints; the walk must not produce it twice.
	cs := RecoverChains(3, adjFromEdges(3, [][2]int{{0, 1}, {1, 2}}))
	if cs.NumChains() != 1 {
		t.Fatalf("got %d chains, want 1", cs.NumChains())
	}
	if len(cs.Chain(0)) != 3 {
		t.Fatalf("chain has %d monomers, want 3", len(cs.Chain(0)))
	}
}

func TestMeasureEndToEnd(t *testing.T) {
	cs := RecoverChains(3, adjFromEdges(3, [][2]int{{0, 1}, {1, 2}}))
	positions := [][3]float64{{0, 0, 0}, {2, 0, 0}, {4, 0, 0}}
	pos := func(i int) (float64, float64, float64) {
		return positions[i][0], positions[i][1], positions[i][2]
	}
	meanE2E, stdE2E, meanRg2 := cs.Measure(pos)
	if math.Abs(meanE2E-16) > 1e-9 {
		t.Errorf("meanE2E = %v, want 16", meanE2E)
	}
	if stdE2E != 0 {
		t.Errorf("stdE2E = %v for a single chain, want 0", stdE2E)
	}
	// Rg² of three collinear points spaced 2 apart around center (2,0,0):
	// (4 + 0 + 4)/3.
	if math.Abs(meanRg2-8.0/3.0) > 1e-9 {
		t.Errorf("meanRg2 = %v, want %v", meanRg2, 8.0/3.0)
	}
}

func TestNewSweepStats(t *testing.T) {
	s := NewSweepStats(7, 100, 40, 30, nil, nil)
	if s.Step != 7 || s.Proposals != 100 {
		t.Errorf("counters not carried: %+v", s)
	}
	if math.Abs(s.AcceptRate-0.3) > 1e-9 {
		t.Errorf("AcceptRate = %v, want 0.3", s.AcceptRate)
	}
	zero := NewSweepStats(0, 0, 0, 0, nil, nil)
	if zero.AcceptRate != 0 {
		t.Errorf("AcceptRate with no proposals = %v, want 0", zero.AcceptRate)
	}
}
