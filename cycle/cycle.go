// Package cycle models the exposure schedule of an experiment: a flat list of
// boundary timestamps read as (start, end) pairs, each pair a cycle, with
// the cycles divided evenly and in order among the concentrations tested.
package cycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration is reported when boundaries and concentrations do not
// describe a usable schedule.
var ErrConfiguration = errors.New("invalid experiment configuration")

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Concentration labels one exposure level, e.g. "10" for 10% NH3. Config
// files may spell it as a number or a string.
type Concentration string

func (c *Concentration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*c = Concentration(str)
		return nil
	}

	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("concentration must be a number or a string, got %s", s)
	}
	*c = Concentration(s)

	return nil
}

func (c *Concentration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: concentration must be a number or a string", value.Line)
	}
	*c = Concentration(strings.TrimSpace(value.Value))

	return nil
}

// Validate checks that c can name an output directory: it must be non-empty
// and must not contain path separators or be a relative path element.
func (c Concentration) Validate() error {
	s := string(c)
	if s == "" {
		return configError("empty concentration label")
	}
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return configError("concentration label %q cannot be used in a directory name", s)
	}

	return nil
}

// Cycle is one exposure phase.
type Cycle struct {
	Index              int           `json:"index"` // 0-based position in the schedule
	Start              float64       `json:"start"`
	End                float64       `json:"end"`
	Concentration      Concentration `json:"concentration"`
	ConcentrationIndex int           `json:"concentration_index"`
}

// Number is the 1-based cycle number used in output paths.
func (c Cycle) Number() int {
	return c.Index + 1
}

func (c Cycle) String() string {
	return fmt.Sprintf("Cycle %d (%g-%g, concentration %s)", c.Number(), c.Start, c.End, c.Concentration)
}

// Window is a user-selected time range.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewWindow returns the window spanning a and b in either order.
func NewWindow(a, b float64) Window {
	if b < a {
		a, b = b, a
	}

	return Window{Start: a, End: b}
}

// Contains reports whether c lies entirely within w. Partial overlap does
// not count.
func (w Window) Contains(c Cycle) bool {
	return c.Start >= w.Start && c.End <= w.End
}

// Schedule is a validated set of cycles.
type Schedule struct {
	boundaries     []float64
	concentrations []Concentration
	cycles         []Cycle
}

// New validates the boundaries and concentrations and assigns each cycle its
// concentration: with n cycles and k concentrations, cycles
// [i*n/k, (i+1)*n/k) get concentrations[i]. n must be a multiple of k.
func New(boundaries []float64, concentrations []Concentration) (Schedule, error) {
	if len(boundaries) == 0 {
		return Schedule{}, configError("no interval boundaries")
	}
	if len(boundaries)%2 != 0 {
		return Schedule{}, configError("%d interval boundaries do not form (start, end) pairs", len(boundaries))
	}
	for i, b := range boundaries {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return Schedule{}, configError("interval boundary %d (%v) is not a finite number", i+1, b)
		}
	}
	if !sort.Float64sAreSorted(boundaries) {
		return Schedule{}, configError("interval boundaries must be non-decreasing")
	}
	if len(concentrations) == 0 {
		return Schedule{}, configError("no concentrations")
	}
	for _, c := range concentrations {
		if err := c.Validate(); err != nil {
			return Schedule{}, err
		}
	}

	numCycles := len(boundaries) / 2
	if numCycles%len(concentrations) != 0 {
		return Schedule{}, configError("%d cycles cannot be divided evenly among %d concentrations", numCycles, len(concentrations))
	}
	perConcentration := numCycles / len(concentrations)

	s := Schedule{
		boundaries:     append([]float64(nil), boundaries...),
		concentrations: append([]Concentration(nil), concentrations...),
		cycles:         make([]Cycle, numCycles),
	}

	for i := range s.cycles {
		ci := i / perConcentration
		s.cycles[i] = Cycle{
			Index:              i,
			Start:              boundaries[2*i],
			End:                boundaries[2*i+1],
			Concentration:      concentrations[ci],
			ConcentrationIndex: ci,
		}
	}

	return s, nil
}

// Cycles returns every cycle in order.
func (s Schedule) Cycles() []Cycle {
	return append([]Cycle(nil), s.cycles...)
}

func (s Schedule) Len() int {
	return len(s.cycles)
}

func (s Schedule) Concentrations() []Concentration {
	return append([]Concentration(nil), s.concentrations...)
}

// Boundaries returns the flat boundary list the schedule was built from.
func (s Schedule) Boundaries() []float64 {
	return append([]float64(nil), s.boundaries...)
}

// RequiredEndTime is the last boundary; recordings must reach it to cover
// the whole experiment.
func (s Schedule) RequiredEndTime() float64 {
	if len(s.boundaries) == 0 {
		return 0
	}

	return s.boundaries[len(s.boundaries)-1]
}

// Contained returns the cycles lying entirely within w.
func (s Schedule) Contained(w Window) []Cycle {
	var out []Cycle
	for _, c := range s.cycles {
		if w.Contains(c) {
			out = append(out, c)
		}
	}

	return out
}
