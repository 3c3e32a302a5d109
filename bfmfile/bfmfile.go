// Package bfmfile reads and writes the line-oriented .bfm trajectory format:
// header commands (!number_of_monomers, !box_*, !periodic_*,
// !set_of_bondvectors, !bonds, !attributes) followed by !mcs coordinate
// blocks. Monomer indices are 1-based on disk and 0-based in memory.
package bfmfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lgh0504/pscbfm/engine"
	"github.com/lgh0504/pscbfm/lattice"
)

// Trajectory is the in-memory form of one .bfm file: the static system
// description plus the positions of the most recent !mcs block.
type Trajectory struct {
	NumMonomers int
	Box         [3]int32
	Periodic    [3]bool
	BondVectors []lattice.BondVector
	Bonds       [][2]int
	Attributes  map[int]byte
	MCS         int
	Positions   [][3]int32

	// Skipped lists header commands the reader did not understand.
	Skipped []string
}

// ReadFile parses the .bfm file at path.
func ReadFile(path string) (*Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses a .bfm stream. Later !mcs blocks replace earlier ones, so the
// returned positions are the final frame.
func Read(r io.Reader) (*Trajectory, error) {
	t := &Trajectory{Attributes: make(map[int]byte)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	// section tracks which multi-line block the cursor is inside.
	const (
		secNone = iota
		secBondVectors
		secBonds
		secAttributes
		secMCS
	)
	section := secNone
	mcsRead := 0
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "!") {
			cmd, val, _ := strings.Cut(line, "=")
			switch cmd {
			case "!number_of_monomers":
				n, err := strconv.Atoi(strings.TrimSpace(val))
				if err != nil || n <= 0 {
					return nil, fmt.Errorf("line %d: bad monomer count %q", lineNo, val)
				}
				t.NumMonomers = n
				section = secNone
			case "!box_x", "!box_y", "!box_z":
				b, err := strconv.ParseInt(strings.TrimSpace(val), 10, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad box edge %q", lineNo, val)
				}
				switch cmd {
				case "!box_x":
					t.Box[0] = int32(b)
				case "!box_y":
					t.Box[1] = int32(b)
				case "!box_z":
					t.Box[2] = int32(b)
				}
				section = secNone
			case "!periodic_x", "!periodic_y", "!periodic_z":
				p := strings.TrimSpace(val) == "1"
				switch cmd {
				case "!periodic_x":
					t.Periodic[0] = p
				case "!periodic_y":
					t.Periodic[1] = p
				case "!periodic_z":
					t.Periodic[2] = p
				}
				section = secNone
			case "!set_of_bondvectors":
				section = secBondVectors
			case "!bonds", "!add_bonds":
				section = secBonds
			case "!attributes":
				section = secAttributes
			case "!mcs":
				step, err := strconv.Atoi(strings.TrimSpace(val))
				if err != nil {
					return nil, fmt.Errorf("line %d: bad mcs %q", lineNo, val)
				}
				if t.NumMonomers == 0 {
					return nil, fmt.Errorf("line %d: !mcs before !number_of_monomers", lineNo)
				}
				t.MCS = step
				t.Positions = make([][3]int32, 0, t.NumMonomers)
				mcsRead = 0
				section = secMCS
			default:
				t.Skipped = append(t.Skipped, cmd)
				section = secNone
			}
			continue
		}

		switch section {
		case secBondVectors:
			// "dx dy dz:id" - the id after the colon is informational.
			vec, _, _ := strings.Cut(line, ":")
			fields := strings.Fields(vec)
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: bad bond vector %q", lineNo, line)
			}
			var v [3]int32
			for i, f := range fields {
				x, err := strconv.ParseInt(f, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad bond vector %q", lineNo, line)
				}
				v[i] = int32(x)
			}
			t.BondVectors = append(t.BondVectors, lattice.BondVector{
				DX: v[0], DY: v[1], DZ: v[2], Allowed: true,
			})
		case secBonds:
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: bad bond %q", lineNo, line)
			}
			i, err1 := strconv.Atoi(fields[0])
			j, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil || i < 1 || j < 1 {
				return nil, fmt.Errorf("line %d: bad bond %q", lineNo, line)
			}
			t.Bonds = append(t.Bonds, [2]int{i - 1, j - 1})
		case secAttributes:
			// "start-end:value", 1-based inclusive range.
			rng, valStr, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: bad attribute %q", lineNo, line)
			}
			lo, hi, ok := strings.Cut(rng, "-")
			if !ok {
				return nil, fmt.Errorf("line %d: bad attribute range %q", lineNo, rng)
			}
			first, err1 := strconv.Atoi(strings.TrimSpace(lo))
			last, err2 := strconv.Atoi(strings.TrimSpace(hi))
			a, err3 := strconv.Atoi(strings.TrimSpace(valStr))
			if err1 != nil || err2 != nil || err3 != nil || first < 1 || last < first {
				return nil, fmt.Errorf("line %d: bad attribute %q", lineNo, line)
			}
			for i := first; i <= last; i++ {
				t.Attributes[i-1] = byte(a)
			}
		case secMCS:
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: bad coordinate %q", lineNo, line)
			}
			var p [3]int32
			for i, f := range fields {
				x, err := strconv.ParseInt(f, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad coordinate %q", lineNo, line)
				}
				p[i] = int32(x)
			}
			t.Positions = append(t.Positions, p)
			mcsRead++
			if mcsRead == t.NumMonomers {
				section = secNone
			}
		default:
			return nil, fmt.Errorf("line %d: stray data %q", lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if t.NumMonomers == 0 {
		return nil, fmt.Errorf("missing !number_of_monomers")
	}
	if t.Positions != nil && len(t.Positions) != t.NumMonomers {
		return nil, fmt.Errorf("last !mcs block has %d coordinates, want %d",
			len(t.Positions), t.NumMonomers)
	}
	return t, nil
}

// Stage pushes the trajectory into a freshly constructed engine.
func Stage[C engine.Coord](t *Trajectory, e *engine.Engine[C]) error {
	if err := e.SetBoxSize(t.Box[0], t.Box[1], t.Box[2]); err != nil {
		return err
	}
	if err := e.SetPeriodicity(t.Periodic[0], t.Periodic[1], t.Periodic[2]); err != nil {
		return err
	}
	if err := e.SetNumMonomers(t.NumMonomers); err != nil {
		return err
	}
	if len(t.Positions) != t.NumMonomers {
		return fmt.Errorf("trajectory has no complete coordinate block")
	}
	for i, p := range t.Positions {
		if err := e.SetPosition(i, p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	for i, a := range t.Attributes {
		if err := e.SetAttribute(i, a); err != nil {
			return err
		}
	}
	for _, b := range t.Bonds {
		if err := e.AddBond(b[0], b[1]); err != nil {
			return err
		}
	}
	for _, v := range t.BondVectors {
		if err := e.SetAllowedBond(v.DX, v.DY, v.DZ, v.Allowed); err != nil {
			return err
		}
	}
	return nil
}

// WriteHeader writes the static system description.
func WriteHeader(w io.Writer, t *Trajectory) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "!number_of_monomers=%d\n", t.NumMonomers)
	fmt.Fprintf(bw, "!box_x=%d\n!box_y=%d\n!box_z=%d\n", t.Box[0], t.Box[1], t.Box[2])
	fmt.Fprintf(bw, "!periodic_x=%d\n!periodic_y=%d\n!periodic_z=%d\n",
		b2i(t.Periodic[0]), b2i(t.Periodic[1]), b2i(t.Periodic[2]))

	if len(t.BondVectors) > 0 {
		fmt.Fprintln(bw, "!set_of_bondvectors")
		for id, v := range t.BondVectors {
			fmt.Fprintf(bw, "%d %d %d:%d\n", v.DX, v.DY, v.DZ, id)
		}
	}
	if len(t.Attributes) > 0 {
		fmt.Fprintln(bw, "!attributes")
		for i := 0; i < t.NumMonomers; i++ {
			if a, ok := t.Attributes[i]; ok {
				fmt.Fprintf(bw, "%d-%d:%d\n", i+1, i+1, a)
			}
		}
	}
	if len(t.Bonds) > 0 {
		fmt.Fprintln(bw, "!bonds")
		for _, b := range t.Bonds {
			fmt.Fprintf(bw, "%d %d\n", b[0]+1, b[1]+1)
		}
	}
	return bw.Flush()
}

// WriteFrame appends one !mcs block.
func WriteFrame(w io.Writer, step int, positions [][3]int32) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "!mcs=%d\n", step)
	for _, p := range positions {
		fmt.Fprintf(bw, "%d %d %d\n", p[0], p[1], p[2])
	}
	return bw.Flush()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
