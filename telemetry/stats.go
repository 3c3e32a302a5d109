// Package telemetry collects per-sweep statistics of a simulation run:
// acceptance counters, polymer conformation measures, and kernel phase
// timings, with CSV output for offline analysis.
package telemetry

import (
	"gonum.org/v1/gonum/stat"
)

// SweepStats holds the aggregated statistics of one Monte-Carlo step.
type SweepStats struct {
	Step          int     `csv:"step"`
	Proposals     int     `csv:"proposals"`
	CheckAccepted int     `csv:"check_accepted"`
	Committed     int     `csv:"committed"`
	AcceptRate    float64 `csv:"accept_rate"`

	// Conformation measures over all recovered chains.
	MeanEndToEndSq float64 `csv:"mean_e2e_sq"`
	StdEndToEndSq  float64 `csv:"std_e2e_sq"`
	MeanGyrationSq float64 `csv:"mean_rg_sq"`
}

// ChainSet is the linear-chain decomposition of the bond graph, recovered
// once per run and reused for every measurement.
type ChainSet struct {
	chains [][]int
}

// RecoverChains walks the adjacency from every degree-1 endpoint and returns
// the linear chains of the system. Monomers on rings or branch points are
// skipped; isolated monomers form single-element chains and contribute zero
// extension.
func RecoverChains(n int, neighbors func(i int) []int) *ChainSet {
	visited := make([]bool, n)
	cs := &ChainSet{}

	for i := 0; i < n; i++ {
		if visited[i] || len(neighbors(i)) > 1 {
			continue
		}
		if len(neighbors(i)) == 0 {
			visited[i] = true
			cs.chains = append(cs.chains, []int{i})
			continue
		}
		// Endpoint: walk to the other end.
		chain := []int{i}
		visited[i] = true
		prev, cur := i, neighbors(i)[0]
		for {
			chain = append(chain, cur)
			visited[cur] = true
			next := -1
			for _, nb := range neighbors(cur) {
				if nb != prev {
					next = nb
					break
				}
			}
			if next < 0 || len(neighbors(cur)) > 2 {
				break
			}
			prev, cur = cur, next
		}
		cs.chains = append(cs.chains, chain)
	}
	return cs
}

// NumChains returns the number of recovered chains.
func (cs *ChainSet) NumChains() int { return len(cs.chains) }

// Chain returns the monomer ids of chain c in walk order.
func (cs *ChainSet) Chain(c int) []int { return cs.chains[c] }

// Measure computes conformation statistics from unwrapped positions.
func (cs *ChainSet) Measure(pos func(i int) (x, y, z float64)) (meanE2E, stdE2E, meanRg2 float64) {
	if len(cs.chains) == 0 {
		return 0, 0, 0
	}
	e2e := make([]float64, 0, len(cs.chains))
	rg2 := make([]float64, 0, len(cs.chains))

	for _, chain := range cs.chains {
		first := chain[0]
		last := chain[len(chain)-1]
		x0, y0, z0 := pos(first)
		x1, y1, z1 := pos(last)
		dx, dy, dz := x1-x0, y1-y0, z1-z0
		e2e = append(e2e, dx*dx+dy*dy+dz*dz)

		var cx, cy, cz float64
		for _, i := range chain {
			x, y, z := pos(i)
			cx += x
			cy += y
			cz += z
		}
		inv := 1 / float64(len(chain))
		cx, cy, cz = cx*inv, cy*inv, cz*inv
		var sum float64
		for _, i := range chain {
			x, y, z := pos(i)
			sum += (x-cx)*(x-cx) + (y-cy)*(y-cy) + (z-cz)*(z-cz)
		}
		rg2 = append(rg2, sum*inv)
	}

	meanE2E = stat.Mean(e2e, nil)
	if len(e2e) > 1 {
		stdE2E = stat.StdDev(e2e, nil)
	}
	meanRg2 = stat.Mean(rg2, nil)
	return meanE2E, stdE2E, meanRg2
}

// NewSweepStats assembles the per-sweep record from move counters and chain
// measures.
func NewSweepStats(step, proposals, checkAccepted, committed int, cs *ChainSet, pos func(i int) (x, y, z float64)) SweepStats {
	s := SweepStats{
		Step:          step,
		Proposals:     proposals,
		CheckAccepted: checkAccepted,
		Committed:     committed,
	}
	if proposals > 0 {
		s.AcceptRate = float64(committed) / float64(proposals)
	}
	if cs != nil {
		s.MeanEndToEndSq, s.StdEndToEndSq, s.MeanGyrationSq = cs.Measure(pos)
	}
	return s
}
