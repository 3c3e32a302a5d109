// Package main provides a throughput benchmark for the move engine: it
// synthesizes melts over a range of box sizes, times repeated sweeps, and
// reports monomer moves per second.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lgh0504/pscbfm/engine"
	"github.com/lgh0504/pscbfm/lattice"
)

const chainLen = 32

func main() {
	// CLI flags
	boxes := flag.String("boxes", "32,64,128", "Comma-separated box edge lengths")
	sweeps := flag.Int("sweeps", 200, "Sweeps per measurement")
	reps := flag.Int("reps", 3, "Repetitions per box size")
	seed := flag.Uint64("seed", 42, "RNG seed")
	workers := flag.Int("workers", 0, "Kernel worker cap (0 = all CPUs)")
	outputDir := flag.String("output", "", "Output directory for results CSV")
	flag.Parse()

	var edges []int32
	for _, f := range strings.Split(*boxes, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			log.Fatalf("bad box edge %q: %v", f, err)
		}
		edges = append(edges, int32(v))
	}

	var logWriter *csv.Writer
	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0755); err != nil {
			log.Fatalf("failed to create output directory: %v", err)
		}
		f, err := os.Create(filepath.Join(*outputDir, "bench.csv"))
		if err != nil {
			log.Fatalf("failed to create log file: %v", err)
		}
		defer f.Close()
		logWriter = csv.NewWriter(f)
		defer logWriter.Flush()
		logWriter.Write([]string{"box", "monomers", "species", "rep", "seconds", "moves_per_sec"})
	}

	for _, edge := range edges {
		rates := make([]float64, 0, *reps)
		for rep := 0; rep < *reps; rep++ {
			rate, n, species, elapsed := benchOnce(edge, *sweeps, *seed+uint64(rep), *workers)
			rates = append(rates, rate)
			fmt.Printf("box=%d n=%d species=%d rep=%d  %.2fs  %.3g moves/s\n",
				edge, n, species, rep, elapsed.Seconds(), rate)
			if logWriter != nil {
				logWriter.Write([]string{
					strconv.Itoa(int(edge)),
					strconv.Itoa(n),
					strconv.Itoa(species),
					strconv.Itoa(rep),
					fmt.Sprintf("%.4f", elapsed.Seconds()),
					fmt.Sprintf("%.6g", rate),
				})
			}
		}
		mean := stat.Mean(rates, nil)
		sd := 0.0
		if len(rates) > 1 {
			sd = stat.StdDev(rates, nil)
		}
		fmt.Printf("box=%d  %.3g ± %.2g moves/s\n", edge, mean, sd)
	}
}

// benchOnce builds a melt in an edge³ box, runs the sweeps, and returns the
// attempted-move rate.
func benchOnce(edge int32, sweeps int, seed uint64, workers int) (rate float64, n, species int, elapsed time.Duration) {
	e := engine.New[int32](engine.Options{Seed: seed, MaxWorkers: workers})
	must(e.SetBoxSize(edge, edge, edge))
	must(e.SetPeriodicity(true, true, true))

	// Chains must fit along x without wrapping onto themselves.
	length := chainLen
	if int(edge)/2 < length {
		length = int(edge) / 2
	}
	chainsPerPlane := int(edge) / 4
	planes := int(edge) / 4
	numChains := chainsPerPlane * planes
	n = numChains * length
	must(e.SetNumMonomers(n))
	for c := 0; c < numChains; c++ {
		y := int32(4 * (c % chainsPerPlane))
		z := int32(4 * (c / chainsPerPlane))
		for i := 0; i < length; i++ {
			id := c*length + i
			must(e.SetPosition(id, int32(2*i), y, z))
			if i > 0 {
				must(e.AddBond(id-1, id))
			}
		}
	}
	for _, v := range lattice.StandardBondVectors() {
		must(e.SetAllowedBond(v.DX, v.DY, v.DZ, v.Allowed))
	}
	must(e.Initialize())
	defer e.Cleanup()
	species = e.NumSpecies()

	var proposals int
	e.OnSweep = func(step int, c engine.Counters) { proposals += c.Proposals }

	start := time.Now()
	must(e.RunSweeps(sweeps))
	elapsed = time.Since(start)

	rate = float64(proposals) / elapsed.Seconds()
	return rate, n, species, elapsed
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
