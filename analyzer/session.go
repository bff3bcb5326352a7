// Package analyzer holds the interactive state of one loaded dataset: the
// active sensor row, sensor and signal, and a begin/update/end time
// selection from which intensity changes are computed and cycles exported.
package analyzer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/carbocation/vocsensor"
	"github.com/carbocation/vocsensor/cycle"
	"github.com/carbocation/vocsensor/extract"
	"github.com/carbocation/vocsensor/sensorarray"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptySelection = errors.New("no analysis window has been selected")
	ErrOutOfRange     = errors.New("selection is outside of the recording")
)

const instructions = "Click and drag to analyze a window, or click 'Extract Cycles in Window' to save."

// Point is a sample on the active sensor's trace.
type Point struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

type SensorDelta struct {
	Sensor int     `json:"sensor"` // 0-based column, A1 is 0
	I1     float64 `json:"i1"`
	I2     float64 `json:"i2"`
	Delta  float64 `json:"delta"`
}

// Analysis is the outcome of a completed selection on one sensor row.
type Analysis struct {
	Row    int           `json:"row"`
	Window cycle.Window  `json:"window"`
	Start  Point         `json:"start"`
	End    Point         `json:"end"`
	Deltas []SensorDelta `json:"deltas"`
}

// State is a snapshot of a session for display.
type State struct {
	Row     int           `json:"row"`
	Sensor  int           `json:"sensor"`
	Signal  string        `json:"signal"`
	Anchor  *Point        `json:"anchor,omitempty"`
	Preview *Point        `json:"preview,omitempty"`
	Window  *cycle.Window `json:"window,omitempty"`
}

// Session is not safe for concurrent use.
type Session struct {
	ds        *sensorarray.Dataset
	schedule  cycle.Schedule
	extractor extract.Extractor
	log       vocsensor.Logger

	row    int
	sensor int
	kind   sensorarray.SignalKind

	anchor  *Point
	preview *Point
	window  *cycle.Window
}

// New starts a session on row C1, sensor A1 and the summary signal.
func New(ds *sensorarray.Dataset, schedule cycle.Schedule, extractor extract.Extractor, log vocsensor.Logger) (*Session, error) {
	if ds == nil || ds.Len() == 0 || ds.NumRows() == 0 {
		return nil, fmt.Errorf("analyzer: dataset has no samples")
	}

	log = vocsensor.OrNop(log)
	if extractor.Log == nil {
		extractor.Log = log
	}

	s := &Session{
		ds:        ds,
		schedule:  schedule,
		extractor: extractor,
		log:       log,
		kind:      sensorarray.Summary,
	}

	log.Println("--- Interactive Draggable Analyzer Ready ---")
	log.Println(instructions)

	return s, nil
}

func (s *Session) Dataset() *sensorarray.Dataset { return s.ds }

func (s *Session) Schedule() cycle.Schedule { return s.schedule }

func (s *Session) Row() int { return s.row }

func (s *Session) Sensor() int { return s.sensor }

func (s *Session) Signal() sensorarray.SignalKind { return s.kind }

// SelectRow switches the active sensor row. Any selection is discarded.
func (s *Session) SelectRow(row int) error {
	if row < 0 || row >= s.ds.NumRows() {
		return fmt.Errorf("row must be between 1 and %d, got %d", s.ds.NumRows(), row+1)
	}

	s.row = row
	s.ClearSelection()
	s.log.Printf("--- Switched to Row C%d ---\n", row+1)
	s.log.Println(instructions)

	return nil
}

// SelectSensor changes which column the selection end points are read from.
// The selection survives.
func (s *Session) SelectSensor(sensor int) error {
	if sensor < 0 || sensor >= s.ds.NumCols() {
		return fmt.Errorf("sensor must be between 1 and %d, got %d", s.ds.NumCols(), sensor+1)
	}

	s.sensor = sensor
	s.log.Printf("Active Sensor changed to: A%d\n", sensor+1)
	s.log.Println(instructions)

	return nil
}

// SetSignal changes the signal being analyzed. Any selection is discarded.
func (s *Session) SetSignal(kind sensorarray.SignalKind) error {
	if _, err := s.ds.Signal(kind); err != nil {
		return err
	}

	s.kind = kind
	s.ClearSelection()
	s.log.Printf("--- Analyzing %s ---\n", kind.Label())

	return nil
}

// ActiveRow returns the time x column matrix currently being analyzed.
func (s *Session) ActiveRow() *mat.Dense {
	_, m, _ := s.ds.DataForRow(s.row, s.kind)
	return m
}

func (s *Session) index(t float64) (int, error) {
	if math.IsNaN(t) {
		return 0, ErrOutOfRange
	}

	return sort.SearchFloat64s(s.ds.Time, t), nil
}

func (s *Session) point(i int) Point {
	return Point{Index: i, Time: s.ds.Time[i], Value: s.ActiveRow().At(i, s.sensor)}
}

// BeginSelection anchors a new selection at the first sample at or after t.
// A t past the last sample leaves the session without a selection and
// returns ErrOutOfRange.
func (s *Session) BeginSelection(t float64) (Point, error) {
	s.ClearSelection()

	i, err := s.index(t)
	if err != nil {
		return Point{}, err
	}
	if i >= s.ds.Len() {
		return Point{}, ErrOutOfRange
	}

	p := s.point(i)
	s.anchor = &p

	return p, nil
}

func (s *Session) endPoint(t float64) (Point, error) {
	if s.anchor == nil {
		return Point{}, ErrEmptySelection
	}

	i, err := s.index(t)
	if err != nil {
		return Point{}, err
	}
	if i >= s.ds.Len() {
		i = s.ds.Len() - 1
	}

	return s.point(i), nil
}

// UpdateSelection previews the end of the selection at the first sample at
// or after t, clamped to the last sample.
func (s *Session) UpdateSelection(t float64) (Point, error) {
	p, err := s.endPoint(t)
	if err != nil {
		return Point{}, err
	}

	s.preview = &p

	return p, nil
}

// EndSelection completes the selection and reports I1, I2 and their
// difference for every sensor of the active row. The resulting window is
// kept for Extract.
func (s *Session) EndSelection(t float64) (Analysis, error) {
	end, err := s.endPoint(t)
	if err != nil {
		return Analysis{}, err
	}

	start := *s.anchor
	m := s.ActiveRow()
	_, cols := m.Dims()

	out := Analysis{
		Row:    s.row,
		Window: cycle.NewWindow(start.Time, end.Time),
		Start:  start,
		End:    end,
		Deltas: make([]SensorDelta, cols),
	}

	s.log.Printf("--- Visual Analysis for Row C%d ---\n", s.row+1)
	s.log.Printf("--- Time Window: %.2fs to %.2fs ---\n", start.Time, end.Time)
	for j := 0; j < cols; j++ {
		i1 := m.At(start.Index, j)
		i2 := m.At(end.Index, j)
		out.Deltas[j] = SensorDelta{Sensor: j, I1: i1, I2: i2, Delta: i2 - i1}
		s.log.Printf("  Sensor A%d:  I1=%-7.2f | I2=%-7.2f | ΔI = % .2f\n", j+1, i1, i2, i2-i1)
	}
	s.log.Println(instructions)

	s.preview = &end
	w := out.Window
	s.window = &w

	return out, nil
}

// Window returns the completed selection, if any.
func (s *Session) Window() (cycle.Window, bool) {
	if s.window == nil {
		return cycle.Window{}, false
	}

	return *s.window, true
}

func (s *Session) ClearSelection() {
	s.anchor = nil
	s.preview = nil
	s.window = nil
}

func (s *Session) State() State {
	st := State{
		Row:    s.row,
		Sensor: s.sensor,
		Signal: s.kind.String(),
	}
	if s.anchor != nil {
		p := *s.anchor
		st.Anchor = &p
	}
	if s.preview != nil {
		p := *s.preview
		st.Preview = &p
	}
	if s.window != nil {
		w := *s.window
		st.Window = &w
	}

	return st
}

// Extract writes every cycle inside the completed selection, for every
// sensor of every row of the active signal.
func (s *Session) Extract() (extract.Result, error) {
	w, ok := s.Window()
	if !ok {
		s.log.Println("Extraction failed: Please define an analysis window by clicking and dragging first.")
		return extract.Result{}, ErrEmptySelection
	}

	rows, err := s.ds.Signal(s.kind)
	if err != nil {
		return extract.Result{}, err
	}

	return s.extractor.Extract(w, s.schedule, s.ds.Time, rows)
}
