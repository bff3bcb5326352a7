package sensorarray

import (
	"gonum.org/v1/gonum/mat"
)

// Channel is one color channel of a recording: a time vector and one
// time x column matrix per physical sensor row.
type Channel struct {
	Name string
	Time []float64
	Rows []*mat.Dense
}

// Len is the number of time samples.
func (c Channel) Len() int {
	return len(c.Time)
}

func (c Channel) NumRows() int {
	return len(c.Rows)
}

func (c Channel) NumCols() int {
	if len(c.Rows) == 0 {
		return 0
	}

	_, cols := c.Rows[0].Dims()
	return cols
}

// Flatten re-interleaves the sensor rows into the sample column order of the
// source file (time column excluded): column j of sensor row i goes back to
// position i + j*NumRows.
func (c Channel) Flatten() [][]float64 {
	numRows, numCols := c.NumRows(), c.NumCols()

	out := make([][]float64, c.Len())
	for t := range out {
		record := make([]float64, numRows*numCols)
		for i, m := range c.Rows {
			for j := 0; j < numCols; j++ {
				record[i+j*numRows] = m.At(t, j)
			}
		}
		out[t] = record
	}

	return out
}

// reshape deinterleaves flat, which holds nTimes records of width samples
// each, into numRows matrices of nTimes x (width/numRows).
func reshape(flat []float64, nTimes, width, numRows int) []*mat.Dense {
	numCols := width / numRows

	rows := make([]*mat.Dense, numRows)
	for i := range rows {
		m := mat.NewDense(nTimes, numCols, nil)
		for t := 0; t < nTimes; t++ {
			record := flat[t*width : (t+1)*width]
			for j := 0; j < numCols; j++ {
				m.Set(t, j, record[i+j*numRows])
			}
		}
		rows[i] = m
	}

	return rows
}

// conform returns a copy of m with exactly n rows: longer matrices are
// truncated and shorter ones are extended by repeating their last row.
func conform(m *mat.Dense, n int) *mat.Dense {
	have, cols := m.Dims()

	out := mat.NewDense(n, cols, nil)
	if have >= n {
		out.Copy(m.Slice(0, n, 0, cols))
		return out
	}

	out.Slice(0, have, 0, cols).(*mat.Dense).Copy(m)
	last := mat.Row(nil, have-1, m)
	for t := have; t < n; t++ {
		out.SetRow(t, last)
	}

	return out
}

func conformAll(rows []*mat.Dense, n int) []*mat.Dense {
	out := make([]*mat.Dense, len(rows))
	for i, m := range rows {
		out[i] = conform(m, n)
	}

	return out
}
