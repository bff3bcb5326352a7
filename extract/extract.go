// Package extract writes the time series of every sensor, for every cycle
// that lies entirely within a selected window, to its own CSV file.
package extract

import (
	"fmt"
	"path"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/carbocation/vocsensor"
	"github.com/carbocation/vocsensor/cycle"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"
)

// DefaultRoot is where segments are written unless configured otherwise.
const DefaultRoot = "extracted_data"

// Sample is one line of a segment file.
type Sample struct {
	Time      float64 `csv:"time"`
	Intensity float64 `csv:"intensity"`
}

// SegmentPath is the sink-relative path of one sensor's segment for cycle c:
// <datasetID>/concentration_<label>/Cycle_<NN>/C<row+1>_A<col+1>.csv
func SegmentPath(datasetID string, c cycle.Cycle, row, col int) string {
	return path.Join(
		datasetID,
		"concentration_"+string(c.Concentration),
		fmt.Sprintf("Cycle_%02d", c.Number()),
		fmt.Sprintf("C%d_A%d.csv", row+1, col+1),
	)
}

// CycleIndices returns the half-open index range [start, end) of times that
// belongs to c. Both ends are the first index whose time is at or after the
// cycle boundary; end is clamped to the last valid index.
func CycleIndices(times []float64, c cycle.Cycle) (start, end int) {
	start = sort.SearchFloat64s(times, c.Start)
	end = sort.SearchFloat64s(times, c.End)
	if end >= len(times) {
		end = len(times) - 1
	}

	return start, end
}

type Result struct {
	Window   cycle.Window
	Cycles   []cycle.Cycle // cycles for which segments were written
	Segments int
	Files    []string // sink-relative paths, in write order
}

// Empty reports that no complete cycle fell inside the window. This is a
// normal outcome, not an error.
func (r Result) Empty() bool {
	return r.Segments == 0
}

type Extractor struct {
	Sink      vocsensor.Sink
	DatasetID string
	Log       vocsensor.Logger
}

// Extract writes one segment per (cycle, sensor row, sensor column) for every
// cycle of s fully contained in w. times and rows must share their length,
// as a sensorarray.Dataset guarantees. Output is deterministic, so
// re-running an extraction rewrites identical files.
func (e Extractor) Extract(w cycle.Window, s cycle.Schedule, times []float64, rows []*mat.Dense) (Result, error) {
	log := vocsensor.OrNop(e.Log)
	out := Result{Window: w}

	if e.Sink == nil {
		return out, pfx.Err(fmt.Errorf("no output configured for extraction"))
	}

	log.Println("--- Starting Full Time-Series Extraction for Cycles in Window ---")
	log.Printf("Filtering cycles within user-defined window: %.2fs to %.2fs\n", w.Start, w.End)
	log.Printf("Data will be saved in the '%s' directory.\n", e.Sink)

	for _, c := range s.Contained(w) {
		log.Printf("  -> Processing Cycle %d...\n", c.Number())

		start, end := CycleIndices(times, c)
		if start >= end {
			log.Printf("  Cycle %d has no samples in the recording; skipped.\n", c.Number())
			continue
		}

		timeSegment := times[start:end]
		for row, m := range rows {
			_, cols := m.Dims()
			for col := 0; col < cols; col++ {
				samples := make([]Sample, len(timeSegment))
				for k, tm := range timeSegment {
					samples[k] = Sample{Time: tm, Intensity: m.At(start+k, col)}
				}

				name := SegmentPath(e.DatasetID, c, row, col)
				if err := e.write(name, samples); err != nil {
					return out, err
				}
				out.Files = append(out.Files, name)
				out.Segments++
			}
		}

		out.Cycles = append(out.Cycles, c)
	}

	if out.Empty() {
		log.Println("Extraction complete: No full cycles were found within your selected window.")
	} else {
		log.Printf("SUCCESS: Extracted and saved %d individual sensor segments.\n", out.Segments)
	}

	return out, nil
}

func (e Extractor) write(name string, samples []Sample) error {
	w, err := e.Sink.Create(name)
	if err != nil {
		return err
	}

	if err := gocsv.Marshal(samples, w); err != nil {
		w.Close()
		return pfx.Err(fmt.Errorf("%s: %v", name, err))
	}

	return pfx.Err(w.Close())
}
