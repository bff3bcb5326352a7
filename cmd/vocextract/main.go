// vocextract analyzes one time window of a configured dataset without the
// interactive server: it prints each sensor's change in intensity across
// the window for one row, then exports every exposure cycle inside it.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/vocsensor"
	"github.com/carbocation/vocsensor/analyzer"
	_ "github.com/carbocation/vocsensor/compileinfoprint"
	"github.com/carbocation/vocsensor/config"
	"github.com/carbocation/vocsensor/extract"
	"github.com/carbocation/vocsensor/sensorarray"
	"github.com/gocarina/gocsv"
)

type options struct {
	Config  string
	Gas     string
	Dataset string
	Start   float64
	End     float64
	Row     int
	Sensor  int
	Signal  string
	Output  string
	DryRun  bool
}

func main() {
	var opts options
	var list bool
	flag.StringVar(&opts.Config, "config", "", "JSON or YAML file describing the gases and datasets.")
	flag.StringVar(&opts.Gas, "gas", "", "Key of the gas, as in the config.")
	flag.StringVar(&opts.Dataset, "dataset", "", "Key of the dataset, as in the config.")
	flag.Float64Var(&opts.Start, "start", 0, "Start of the analysis window, in seconds.")
	flag.Float64Var(&opts.End, "end", 0, "End of the analysis window, in seconds.")
	flag.IntVar(&opts.Row, "row", 1, "Sensor row to report deltas for (1 for C1).")
	flag.IntVar(&opts.Sensor, "sensor", 1, "Active sensor (1 for A1).")
	flag.StringVar(&opts.Signal, "signal", "summary", "Signal to analyze: summary, red, green or blue.")
	flag.StringVar(&opts.Output, "output", "", "(Optional) Directory or gs:// prefix for extracted cycles. Overrides the config's output.")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "(Optional) Report deltas and the cycles in the window without writing any files.")
	flag.BoolVar(&list, "list", false, "(Optional) List the configured gases and datasets and exit.")
	flag.Parse()

	if opts.Config == "" || (!list && (opts.Gas == "" || opts.Dataset == "")) {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.ParseFromPath(opts.Config)
	if err != nil {
		log.Fatalln(err)
	}

	if list {
		printDatasets(os.Stdout, cfg)
		return
	}

	if err := run(cfg, opts, os.Stdout, log.New(os.Stderr, log.Prefix(), log.Ldate|log.Ltime)); err != nil {
		log.Fatalln(err)
	}
}

func printDatasets(w io.Writer, cfg config.Config) {
	for _, gk := range cfg.GasKeys() {
		g := cfg.Gases[gk]
		fmt.Fprintf(w, "%s\t%s\n", gk, g.Name)
		for _, dk := range g.DatasetKeys() {
			fmt.Fprintf(w, "\t%s\t%s\t%s\n", dk, config.DatasetID(gk, dk), g.Datasets[dk].Name)
		}
	}
}

func run(cfg config.Config, opts options, stdout io.Writer, logger *log.Logger) error {
	if opts.Output != "" {
		cfg.Output = opts.Output
	}

	kind, err := sensorarray.ParseSignalKind(opts.Signal)
	if err != nil {
		return err
	}

	var sclient *storage.Client
	if cfg.UsesGoogleStorage() {
		sclient, err = storage.NewClient(context.Background())
		if err != nil {
			return err
		}
		defer sclient.Close()
	}

	loaded, err := cfg.Load(opts.Gas, opts.Dataset, sclient, logger)
	if err != nil {
		return err
	}

	var sink vocsensor.Sink
	if !opts.DryRun {
		if sink, err = vocsensor.NewSink(cfg.Output, sclient); err != nil {
			return err
		}
	}

	session, err := analyzer.New(loaded.Data, loaded.Schedule, extract.Extractor{Sink: sink, DatasetID: loaded.ID, Log: logger}, logger)
	if err != nil {
		return err
	}

	if err := session.SetSignal(kind); err != nil {
		return err
	}
	if err := session.SelectRow(opts.Row - 1); err != nil {
		return err
	}
	if err := session.SelectSensor(opts.Sensor - 1); err != nil {
		return err
	}

	if _, err := session.BeginSelection(opts.Start); err != nil {
		return fmt.Errorf("start %v: %w", opts.Start, err)
	}
	analysis, err := session.EndSelection(opts.End)
	if err != nil {
		return err
	}

	if err := writeDeltas(stdout, analysis); err != nil {
		return err
	}

	if opts.DryRun {
		for _, c := range loaded.Schedule.Contained(analysis.Window) {
			logger.Printf("Would extract %s\n", c)
		}
		return nil
	}

	res, err := session.Extract()
	if err != nil {
		return err
	}

	logger.Printf("%d segments from %d cycles written to %s\n", res.Segments, len(res.Cycles), sink)

	return nil
}

type deltaRow struct {
	Sensor string  `csv:"sensor"`
	Start  float64 `csv:"start_time"`
	End    float64 `csv:"end_time"`
	I1     float64 `csv:"i1"`
	I2     float64 `csv:"i2"`
	Delta  float64 `csv:"delta_i"`
}

// writeDeltas prints the analysis as a tab-delimited table.
func writeDeltas(w io.Writer, a analyzer.Analysis) error {
	rows := make([]deltaRow, 0, len(a.Deltas))
	for _, d := range a.Deltas {
		rows = append(rows, deltaRow{
			Sensor: fmt.Sprintf("C%d_A%d", a.Row+1, d.Sensor+1),
			Start:  a.Start.Time,
			End:    a.End.Time,
			I1:     d.I1,
			I2:     d.I2,
			Delta:  d.Delta,
		})
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	return gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw))
}
