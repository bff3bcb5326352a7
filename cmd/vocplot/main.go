// vocplot renders the response of each sensor row of a configured dataset
// to PNG, with the exposure cycles shaded by concentration, and optionally
// a map of the sensor array highlighting the plotted row.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	_ "github.com/carbocation/vocsensor/compileinfoprint"
	"github.com/carbocation/vocsensor/config"
	"github.com/carbocation/vocsensor/plot"
	"github.com/carbocation/vocsensor/sensorarray"
)

type options struct {
	Gas     string
	Dataset string
	Row     int
	Signal  string
	Out     string
	Board   bool
	YMin    float64
	YMax    float64
}

func main() {
	var opts options
	configPath := flag.String("config", "", "JSON or YAML file describing the gases and datasets.")
	flag.StringVar(&opts.Gas, "gas", "", "Key of the gas, as in the config.")
	flag.StringVar(&opts.Dataset, "dataset", "", "Key of the dataset, as in the config.")
	flag.IntVar(&opts.Row, "row", 0, "(Optional) Sensor row to plot (1 for C1). If 0, every row is plotted.")
	flag.StringVar(&opts.Signal, "signal", "summary", "Signal to plot: summary, red, green or blue.")
	flag.StringVar(&opts.Out, "out", ".", "Directory where PNG files will be written.")
	flag.BoolVar(&opts.Board, "board", false, "(Optional) Also draw the sensor array with the plotted row highlighted.")
	flag.Float64Var(&opts.YMin, "ymin", 0, "(Optional) Lower bound of the intensity axis. Fit to the data if ymin == ymax.")
	flag.Float64Var(&opts.YMax, "ymax", 0, "(Optional) Upper bound of the intensity axis.")
	flag.Parse()

	if *configPath == "" || opts.Gas == "" || opts.Dataset == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.ParseFromPath(*configPath)
	if err != nil {
		log.Fatalln(err)
	}

	var sclient *storage.Client
	if cfg.UsesGoogleStorage() {
		sclient, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	loaded, err := cfg.Load(opts.Gas, opts.Dataset, sclient, log.New(os.Stderr, log.Prefix(), log.Ldate|log.Ltime))
	if err != nil {
		log.Fatalln(err)
	}

	files, err := render(loaded, cfg, opts)
	if err != nil {
		log.Fatalln(err)
	}

	for _, f := range files {
		fmt.Println(f)
	}
}

// render writes the requested plots and returns their paths.
func render(loaded config.Loaded, cfg config.Config, opts options) ([]string, error) {
	kind, err := sensorarray.ParseSignalKind(opts.Signal)
	if err != nil {
		return nil, err
	}

	rows := []int{opts.Row - 1}
	if opts.Row == 0 {
		rows = rows[:0]
		for i := 0; i < loaded.Data.NumRows(); i++ {
			rows = append(rows, i)
		}
	}

	if err := os.MkdirAll(opts.Out, 0755); err != nil {
		return nil, err
	}

	var out []string
	for _, row := range rows {
		times, m, err := loaded.Data.DataForRow(row, kind)
		if err != nil {
			return out, err
		}

		rc := plot.RowChart{
			Time:        times,
			Row:         m,
			RowIndex:    row,
			SignalLabel: kind.Label(),
			Schedule:    loaded.Schedule,
			YMin:        opts.YMin,
			YMax:        opts.YMax,
		}

		name := filepath.Join(opts.Out, fmt.Sprintf("%s_C%d_%s.png", loaded.ID, row+1, kind))
		if err := writePNG(name, rc.Render); err != nil {
			return out, err
		}
		out = append(out, name)

		if opts.Board {
			b := plot.Board{Rows: cfg.Rows, Cols: cfg.Cols, Row: row, Sensor: -1}
			name := filepath.Join(opts.Out, fmt.Sprintf("%s_C%d_board.png", loaded.ID, row+1))
			if err := writePNG(name, b.Render); err != nil {
				return out, err
			}
			out = append(out, name)
		}
	}

	return out, nil
}
