// Package plot renders a sensor row's response over time, with the
// exposure cycles shaded, and a map of the sensor array.
package plot

import (
	"fmt"
	"io"
	"math"

	"github.com/carbocation/vocsensor/cycle"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/mat"
)

// Tableau 10, in matplotlib's order.
var sensorColors = []string{
	"1f77b4", "ff7f0e", "2ca02c", "d62728", "9467bd",
	"8c564b", "e377c2", "7f7f7f", "bcbd22", "17becf",
}

var sensorDashes = [][]float64{
	nil,
	{10, 5},
	{2, 3},
	{8, 3, 2, 3},
}

// Concentrations are shaded in this order: pink, light blue, then others.
var concentrationColors = []string{
	"ffc0cb", "add8e6", "90ee90", "ffdab9", "d8bfd8", "f0e68c",
}

const (
	bandAlpha      = 77 // ~0.3
	selectionAlpha = 102
	xMargin        = 100
)

// RowChart draws every sensor of one row against time.
type RowChart struct {
	Time     []float64
	Row      *mat.Dense
	RowIndex int

	// SignalLabel names the plotted signal, e.g. "Summary Luminance".
	SignalLabel string

	Schedule  cycle.Schedule
	Selection *cycle.Window

	// If YMin == YMax the range is fit to the data.
	YMin, YMax float64

	Width, Height int
}

func (rc RowChart) yRange() *chart.ContinuousRange {
	if rc.YMin != rc.YMax {
		return &chart.ContinuousRange{Min: rc.YMin, Max: rc.YMax}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	if rc.Row != nil {
		lo, hi = mat.Min(rc.Row), mat.Max(rc.Row)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		lo, hi = 0, 1
	}

	pad := 0.05 * (hi - lo)
	if pad == 0 {
		pad = 1
	}

	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// xEnd is the right edge of the plot: the later of the last sample and the
// last cycle boundary, plus a margin.
func (rc RowChart) xEnd() float64 {
	end := rc.Schedule.RequiredEndTime()
	if n := len(rc.Time); n > 0 && rc.Time[n-1] > end {
		end = rc.Time[n-1]
	}

	return end + xMargin
}

func (rc RowChart) Chart() (chart.Chart, error) {
	if rc.Row == nil {
		return chart.Chart{}, fmt.Errorf("no sensor data to plot")
	}

	n, cols := rc.Row.Dims()
	if n != len(rc.Time) {
		return chart.Chart{}, fmt.Errorf("%d timestamps but %d samples", len(rc.Time), n)
	}

	label := rc.SignalLabel
	if label == "" {
		label = "Signal"
	}

	width, height := rc.Width, rc.Height
	if width == 0 {
		width = 1440
	}
	if height == 0 {
		height = 640
	}

	series := make([]chart.Series, 0, cols)
	for j := 0; j < cols; j++ {
		series = append(series, chart.ContinuousSeries{
			Name: fmt.Sprintf("A%d", j+1),
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex(sensorColors[j%len(sensorColors)]).WithAlpha(180),
				StrokeWidth:     1.5,
				StrokeDashArray: sensorDashes[j%len(sensorDashes)],
			},
			XValues: rc.Time,
			YValues: mat.Col(nil, j, rc.Row),
		})
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Analyze Row C%d (%s)", rc.RowIndex+1, label),
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Time (second)",
			Range:          &chart.ContinuousRange{Min: 0, Max: rc.xEnd()},
			GridMajorStyle: gridStyle(),
		},
		YAxis: chart.YAxis{
			Name:           label + " (Intensity)",
			Range:          rc.yRange(),
			GridMajorStyle: gridStyle(),
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		rc.bands(graph.XAxis.Range),
		chart.Legend(&graph),
	}

	return graph, nil
}

// Render writes the chart as a PNG.
func (rc RowChart) Render(w io.Writer) error {
	graph, err := rc.Chart()
	if err != nil {
		return err
	}

	return graph.Render(chart.PNG, w)
}

func gridStyle() chart.Style {
	return chart.Style{
		StrokeColor:     drawing.ColorFromHex("dddddd"),
		StrokeWidth:     1,
		StrokeDashArray: []float64{4, 4},
	}
}

// bands shades each cycle by concentration, labelling the first cycle of
// each concentration, and highlights the selection.
func (rc RowChart) bands(xr chart.Range) chart.Renderable {
	return func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
		xMin, xMax := xr.GetMin(), xr.GetMax()
		toX := func(t float64) int {
			if t < xMin {
				t = xMin
			}
			if t > xMax {
				t = xMax
			}
			return cb.Left + int(math.Round((t-xMin)/(xMax-xMin)*float64(cb.Width())))
		}

		fill := func(a, b float64, c drawing.Color) {
			r.SetFillColor(c)
			r.SetStrokeColor(drawing.ColorTransparent)
			r.MoveTo(toX(a), cb.Top)
			r.LineTo(toX(b), cb.Top)
			r.LineTo(toX(b), cb.Bottom)
			r.LineTo(toX(a), cb.Bottom)
			r.Close()
			r.Fill()
		}

		defaults.GetTextOptions().WriteToRenderer(r)
		r.SetFontSize(8)
		r.SetFontColor(drawing.ColorFromHex("555555"))

		labelled := make(map[int]bool)
		for _, c := range rc.Schedule.Cycles() {
			color := drawing.ColorFromHex(concentrationColors[c.ConcentrationIndex%len(concentrationColors)])
			fill(c.Start, c.End, color.WithAlpha(bandAlpha))

			if !labelled[c.ConcentrationIndex] {
				labelled[c.ConcentrationIndex] = true
				r.Text(fmt.Sprintf("%s exposure", c.Concentration), toX(c.Start)+2, cb.Bottom-4)
			}
		}

		if rc.Selection != nil {
			fill(rc.Selection.Start, rc.Selection.End, drawing.ColorFromHex("ffff00").WithAlpha(selectionAlpha))
		}
	}
}
