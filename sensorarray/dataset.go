package sensorarray

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/vocsensor"
	"gonum.org/v1/gonum/mat"
)

// Default channel file names inside a dataset directory.
const (
	DefaultRedFile   = "TestRed.csv"
	DefaultGreenFile = "TestGreen.csv"
	DefaultBlueFile  = "TestBlue.csv"
)

// Physical layout of the sensor array.
const (
	DefaultNumRows = 7
	DefaultNumCols = 9
)

// SignalKind selects which signal of a Dataset to work with.
type SignalKind int

const (
	Summary SignalKind = iota
	Red
	Green
	Blue
)

func (k SignalKind) String() string {
	switch k {
	case Summary:
		return "summary"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}

	return fmt.Sprintf("SignalKind(%d)", int(k))
}

// Label is the human readable name used on plots.
func (k SignalKind) Label() string {
	if k == Summary {
		return "Summary Luminance"
	}

	return strings.Title(k.String()) + " Level"
}

func ParseSignalKind(s string) (SignalKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "summary", "luminance":
		return Summary, nil
	case "red":
		return Red, nil
	case "green":
		return Green, nil
	case "blue":
		return Blue, nil
	}

	return Summary, fmt.Errorf("invalid signal type %q (want summary, red, green or blue)", s)
}

// Dataset is a synchronized recording: three channels and their luminance
// combination, all sharing Time. It is not modified after construction.
type Dataset struct {
	Time    []float64
	Red     []*mat.Dense
	Green   []*mat.Dense
	Blue    []*mat.Dense
	Summary []*mat.Dense

	Policy   Policy
	Extended int // number of synthesized timestamps at the end of Time
}

func (d *Dataset) Len() int {
	return len(d.Time)
}

func (d *Dataset) NumRows() int {
	return len(d.Summary)
}

func (d *Dataset) NumCols() int {
	if len(d.Summary) == 0 {
		return 0
	}

	_, cols := d.Summary[0].Dims()
	return cols
}

// Signal returns the per-row matrices of the requested kind.
func (d *Dataset) Signal(kind SignalKind) ([]*mat.Dense, error) {
	switch kind {
	case Summary:
		return d.Summary, nil
	case Red:
		return d.Red, nil
	case Green:
		return d.Green, nil
	case Blue:
		return d.Blue, nil
	}

	return nil, fmt.Errorf("invalid signal type %v", kind)
}

// DataForRow returns the time vector and the time x column matrix of one
// sensor row (0 for C1).
func (d *Dataset) DataForRow(row int, kind SignalKind) ([]float64, *mat.Dense, error) {
	rows, err := d.Signal(kind)
	if err != nil {
		return nil, nil, err
	}

	if row < 0 || row >= len(rows) {
		return nil, nil, fmt.Errorf("sensor row must be between 0 and %d, got %d", len(rows)-1, row)
	}

	return d.Time, rows[row], nil
}

// ChannelPaths locates the three files of a dataset.
type ChannelPaths struct {
	Red   string
	Green string
	Blue  string
}

// JoinPath joins name onto dir, which may be a local directory or a gs://
// prefix.
func JoinPath(dir, name string) string {
	if vocsensor.IsGoogleStoragePath(dir) {
		return "gs://" + path.Join(strings.TrimPrefix(dir, "gs://"), name)
	}

	return filepath.Join(dir, name)
}

// DefaultChannelPaths returns the conventional file names inside dir.
func DefaultChannelPaths(dir string) ChannelPaths {
	return ChannelPaths{
		Red:   JoinPath(dir, DefaultRedFile),
		Green: JoinPath(dir, DefaultGreenFile),
		Blue:  JoinPath(dir, DefaultBlueFile),
	}
}

type DatasetOptions struct {
	// NumRows is the number of physical sensor rows; DefaultNumRows if zero.
	NumRows int

	Align AlignOptions

	// Client is only needed for gs:// paths.
	Client *storage.Client

	Log vocsensor.Logger
}

// NewDataset loads the three channels, synchronizes them and computes the
// luminance signal. Every channel that fails to load is reported to the
// logger; if any did, the returned error is a *DataUnavailableError.
func NewDataset(paths ChannelPaths, opts DatasetOptions) (*Dataset, error) {
	log := vocsensor.OrNop(opts.Log)

	numRows := opts.NumRows
	if numRows == 0 {
		numRows = DefaultNumRows
	}

	log.Println("Loading all RGB data...")

	var failures []error
	load := func(name, p string) Channel {
		ch, err := LoadChannelFromPath(name, p, numRows, opts.Client)
		if err != nil {
			log.Printf("Error: %v\n", err)
			failures = append(failures, err)
		}
		return ch
	}

	red := load("red", paths.Red)
	green := load("green", paths.Green)
	blue := load("blue", paths.Blue)

	if len(failures) > 0 {
		return nil, &DataUnavailableError{Failures: failures}
	}

	alignOpts := opts.Align
	if alignOpts.Log == nil {
		alignOpts.Log = log
	}

	return Align(red, green, blue, alignOpts)
}
