// Package config describes the gases and datasets available for analysis
// and how their recordings are to be loaded.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/vocsensor"
	"github.com/carbocation/vocsensor/cycle"
	"github.com/carbocation/vocsensor/extract"
	"github.com/carbocation/vocsensor/sensorarray"
	"gopkg.in/yaml.v3"
)

// ErrUnknownDataset is returned when a gas or dataset key is not configured.
var ErrUnknownDataset = errors.New("unknown dataset")

type Format int

const (
	JSON Format = iota
	YAML
)

// FormatOf picks the format from a file extension; anything that is not
// .yaml or .yml is read as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}

	return JSON
}

type Config struct {
	ConfigPath string `json:"-" yaml:"-"`

	Rows        int     `json:"rows" yaml:"rows"`
	Cols        int     `json:"cols" yaml:"cols"`
	DefaultStep float64 `json:"default_step" yaml:"default_step"`
	Policy      string  `json:"policy" yaml:"policy"`
	Output      string  `json:"output" yaml:"output"`

	Gases map[string]Gas `json:"gases" yaml:"gases"`
}

type Gas struct {
	Name     string             `json:"name" yaml:"name"`
	Datasets map[string]Dataset `json:"datasets" yaml:"datasets"`
}

type Dataset struct {
	Name    string `json:"name" yaml:"name"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Optional overrides of the conventional file names in DataDir. Full
	// paths (or gs:// URLs) are used as-is.
	RedFile   string `json:"red_file,omitempty" yaml:"red_file,omitempty"`
	GreenFile string `json:"green_file,omitempty" yaml:"green_file,omitempty"`
	BlueFile  string `json:"blue_file,omitempty" yaml:"blue_file,omitempty"`

	Intervals      []float64             `json:"intervals" yaml:"intervals"`
	Concentrations []cycle.Concentration `json:"concentrations" yaml:"concentrations"`
}

// DatasetID names a dataset in output paths.
func DatasetID(gas, dataset string) string {
	return gas + "_" + dataset
}

func ParseFromPath(path string) (Config, error) {
	f, err := os.Open(vocsensor.ExpandHome(path))
	if err != nil {
		return Config{ConfigPath: path}, pfx.Err(err)
	}
	defer f.Close()

	out, err := Parse(f, FormatOf(path))
	out.ConfigPath = vocsensor.ExpandHome(path)

	return out, err
}

// Parse decodes, fills defaults, expands ~ in paths and validates every
// dataset's schedule.
func Parse(r io.Reader, format Format) (Config, error) {
	out := Config{}

	var err error
	switch format {
	case YAML:
		err = yaml.NewDecoder(r).Decode(&out)
	default:
		err = json.NewDecoder(r).Decode(&out)
		if e, ok := err.(*json.SyntaxError); ok {
			err = fmt.Errorf("syntax error at byte offset %d: %w", e.Offset, err)
		}
	}
	if err != nil {
		return out, pfx.Err(err)
	}

	if out.Rows == 0 {
		out.Rows = sensorarray.DefaultNumRows
	}
	if out.Cols == 0 {
		out.Cols = sensorarray.DefaultNumCols
	}
	if out.DefaultStep == 0 {
		out.DefaultStep = sensorarray.DefaultStep
	}
	if out.Policy == "" {
		out.Policy = sensorarray.Pad.String()
	}
	if out.Output == "" {
		out.Output = extract.DefaultRoot
	}

	// Interpret ~ if present
	out.Output = vocsensor.ExpandHome(out.Output)
	for gk, g := range out.Gases {
		for dk, d := range g.Datasets {
			d.DataDir = vocsensor.ExpandHome(d.DataDir)
			g.Datasets[dk] = d
		}
		out.Gases[gk] = g
	}

	return out, out.Validate()
}

// Validate checks the global settings and every dataset's schedule.
func (c Config) Validate() error {
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("%w: sensor array must be at least 1x1, got %dx%d", cycle.ErrConfiguration, c.Rows, c.Cols)
	}
	if c.DefaultStep < 0 {
		return fmt.Errorf("%w: default_step must be positive, got %v", cycle.ErrConfiguration, c.DefaultStep)
	}
	if _, err := sensorarray.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("%w: %v", cycle.ErrConfiguration, err)
	}

	for _, gk := range c.GasKeys() {
		g := c.Gases[gk]
		for _, dk := range g.DatasetKeys() {
			if id := DatasetID(gk, dk); strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
				return fmt.Errorf("%w: dataset %q cannot be used in a directory name", cycle.ErrConfiguration, id)
			}
			if _, err := g.Datasets[dk].Schedule(); err != nil {
				return fmt.Errorf("dataset %s: %w", DatasetID(gk, dk), err)
			}
		}
	}

	return nil
}

// UsesGoogleStorage reports whether any input or the output lives in a
// gs:// bucket, in which case a storage client is needed.
func (c Config) UsesGoogleStorage() bool {
	if vocsensor.IsGoogleStoragePath(c.Output) {
		return true
	}

	for _, g := range c.Gases {
		for _, d := range g.Datasets {
			p := d.ChannelPaths()
			for _, v := range []string{p.Red, p.Green, p.Blue} {
				if vocsensor.IsGoogleStoragePath(v) {
					return true
				}
			}
		}
	}

	return false
}

// GasKeys returns the configured gases in a stable order.
func (c Config) GasKeys() []string {
	out := make([]string, 0, len(c.Gases))
	for k := range c.Gases {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

func (g Gas) DatasetKeys() []string {
	out := make([]string, 0, len(g.Datasets))
	for k := range g.Datasets {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

func (c Config) Lookup(gas, dataset string) (Gas, Dataset, error) {
	g, ok := c.Gases[gas]
	if !ok {
		return Gas{}, Dataset{}, fmt.Errorf("%w: no gas %q is configured", ErrUnknownDataset, gas)
	}

	d, ok := g.Datasets[dataset]
	if !ok {
		return g, Dataset{}, fmt.Errorf("%w: no dataset %q defined for %s", ErrUnknownDataset, dataset, g.Name)
	}

	return g, d, nil
}

func (d Dataset) Schedule() (cycle.Schedule, error) {
	return cycle.New(d.Intervals, d.Concentrations)
}

func (d Dataset) ChannelPaths() sensorarray.ChannelPaths {
	out := sensorarray.DefaultChannelPaths(d.DataDir)

	override := func(dst *string, name string) {
		if name == "" {
			return
		}
		if filepath.IsAbs(name) || vocsensor.IsGoogleStoragePath(name) || strings.HasPrefix(name, "~") {
			*dst = vocsensor.ExpandHome(name)
			return
		}
		*dst = sensorarray.JoinPath(d.DataDir, name)
	}
	override(&out.Red, d.RedFile)
	override(&out.Green, d.GreenFile)
	override(&out.Blue, d.BlueFile)

	return out
}

// Loaded is a dataset ready for analysis.
type Loaded struct {
	ID       string
	Gas      Gas
	Dataset  Dataset
	Data     *sensorarray.Dataset
	Schedule cycle.Schedule
}

// Load reads and synchronizes the recording of one dataset with the
// configured policy, padding towards the end of its last cycle.
func (c Config) Load(gas, dataset string, client *storage.Client, log vocsensor.Logger) (Loaded, error) {
	log = vocsensor.OrNop(log)

	g, d, err := c.Lookup(gas, dataset)
	if err != nil {
		return Loaded{}, err
	}

	schedule, err := d.Schedule()
	if err != nil {
		return Loaded{}, err
	}

	policy, err := sensorarray.ParsePolicy(c.Policy)
	if err != nil {
		return Loaded{}, err
	}

	log.Printf("--- Loading Gas: %s, Dataset: %s ---\n", g.Name, d.Name)

	ds, err := sensorarray.NewDataset(d.ChannelPaths(), sensorarray.DatasetOptions{
		NumRows: c.Rows,
		Align: sensorarray.AlignOptions{
			Policy:          policy,
			RequiredEndTime: sensorarray.EndTime(schedule.RequiredEndTime()),
			DefaultStep:     c.DefaultStep,
			Log:             log,
		},
		Client: client,
		Log:    log,
	})
	if err != nil {
		return Loaded{}, err
	}

	if ds.NumCols() != c.Cols {
		return Loaded{}, fmt.Errorf("%w: dataset %s has %d sensors per row, configured for %d", sensorarray.ErrMalformedInput, DatasetID(gas, dataset), ds.NumCols(), c.Cols)
	}

	return Loaded{
		ID:       DatasetID(gas, dataset),
		Gas:      g,
		Dataset:  d,
		Data:     ds,
		Schedule: schedule,
	}, nil
}
