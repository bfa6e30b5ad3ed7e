// Package graphfile streams the PLADS graph text format (spec.md §6),
// counting vertices and edges in a single pass and emitting the side files
// the external metric scripts consume.
package graphfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	graph "github.com/Emeline-1/basic_graph"
)

// Counts holds the result of one pass over a graph file.
type Counts struct {
	Vertices int
	Edges    int
	// Density is E / V^2, computed directly from the counts above
	// (spec.md §4.2 — no external script is invoked for this one).
	Density float64
}

// SideFiles is the trio of temp files a metric script invocation needs,
// named with the partition ordinal so concurrent invocations never collide
// (spec.md §4.2).
type SideFiles struct {
	VerticesPath string
	EdgesPath    string
	EdgesCSVPath string
}

// Paths returns the conventional side-file names for partition id within dir.
func Paths(dir string, id int) SideFiles {
	return SideFiles{
		VerticesPath: fmt.Sprintf("%s/vertices_%d.txt", dir, id),
		EdgesPath:    fmt.Sprintf("%s/edges_%d.txt", dir, id),
		EdgesCSVPath: fmt.Sprintf("%s/edges_%d.csv", dir, id),
	}
}

// Remove deletes all three side files. Errors are ignored — the files are
// purely ephemeral scratch space for a single metric invocation.
func (s SideFiles) Remove() {
	os.Remove(s.VerticesPath)
	os.Remove(s.EdgesPath)
	os.Remove(s.EdgesCSVPath)
}

// Read streams graphPath once, writing the vertex/edge/edge-CSV side files
// for partition id into dir and returning the vertex/edge counts and density.
//
// Record kinds (spec.md §6): "v <id> <label>" (vertex), "e|u|d <a> <b> <label>"
// (edge, direction not distinguished for metric purposes), "% ..." (comment
// to end of line, skipped). Blank/whitespace-only lines are tolerated.
func Read(graphPath string, dir string, id int) (Counts, SideFiles, error) {
	f, err := os.Open(graphPath)
	if err != nil {
		return Counts{}, SideFiles{}, fmt.Errorf("graphfile: open %q: %w", graphPath, err)
	}
	defer f.Close()

	sides := Paths(dir, id)
	vf, err := os.Create(sides.VerticesPath)
	if err != nil {
		return Counts{}, SideFiles{}, fmt.Errorf("graphfile: create %q: %w", sides.VerticesPath, err)
	}
	defer vf.Close()
	ef, err := os.Create(sides.EdgesPath)
	if err != nil {
		return Counts{}, SideFiles{}, fmt.Errorf("graphfile: create %q: %w", sides.EdgesPath, err)
	}
	defer ef.Close()
	ecsv, err := os.Create(sides.EdgesCSVPath)
	if err != nil {
		return Counts{}, SideFiles{}, fmt.Errorf("graphfile: create %q: %w", sides.EdgesCSVPath, err)
	}
	defer ecsv.Close()

	vw := bufio.NewWriter(vf)
	ew := bufio.NewWriter(ef)
	ecw := bufio.NewWriter(ecsv)

	g := graph.New()

	var counts Counts
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 2 {
				continue
			}
			counts.Vertices++
			fmt.Fprintln(vw, fields[1])
		case "e", "u", "d":
			if len(fields) < 3 {
				continue
			}
			a, b := fields[1], fields[2]
			counts.Edges++
			fmt.Fprintf(ew, "%s %s\n", a, b)
			fmt.Fprintf(ecw, "%s,%s\n", a, b)
			g.Add_edge(a, b)
		default:
			// Unrecognized line kind: ignore rather than fail the whole pass.
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return Counts{}, SideFiles{}, fmt.Errorf("graphfile: scanning %q: %w", graphPath, err)
	}

	if err := vw.Flush(); err != nil {
		return Counts{}, SideFiles{}, err
	}
	if err := ew.Flush(); err != nil {
		return Counts{}, SideFiles{}, err
	}
	if err := ecw.Flush(); err != nil {
		return Counts{}, SideFiles{}, err
	}

	if counts.Vertices > 0 {
		counts.Density = float64(counts.Edges) / (float64(counts.Vertices) * float64(counts.Vertices))
	}

	return counts, sides, nil
}

// stripComment truncates line at the first unquoted '%'.
func stripComment(line string) string {
	inQuote := false
	for i, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case '%':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}
