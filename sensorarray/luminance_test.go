package sensorarray

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func uniform(rows, cols int, v float64) []*mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, v)
		}
	}
	return []*mat.Dense{m}
}

func TestLuminance(t *testing.T) {
	for _, v := range []struct {
		r, g, b, want float64
	}{
		{100, 100, 100, 100},
		{0, 0, 0, 0},
		{100, 0, 0, 29.9},
		{0, 0, 100, 11.4},
	} {
		out := Luminance(uniform(3, 9, v.r), uniform(3, 9, v.g), uniform(3, 9, v.b))
		for i := 0; i < 3; i++ {
			for j := 0; j < 9; j++ {
				if got := out[0].At(i, j); got != v.want {
					t.Fatalf("R=%v G=%v B=%v: got %v, want %v", v.r, v.g, v.b, got, v.want)
				}
			}
		}
	}
}
