package sensorarray

import "gonum.org/v1/gonum/mat"

// ITU-R BT.601 luma weights. They sum to one, so equal channels combine to
// that same value.
const (
	LumaRed   = 0.299
	LumaGreen = 0.587
	LumaBlue  = 0.114
)

// Luminance combines same-shaped red, green and blue row matrices into
// 0.299*R + 0.587*G + 0.114*B, element-wise.
func Luminance(red, green, blue []*mat.Dense) []*mat.Dense {
	out := make([]*mat.Dense, len(red))

	for i := range red {
		r, g, b := red[i], green[i], blue[i]
		rows, cols := r.Dims()

		m := mat.NewDense(rows, cols, nil)
		m.Apply(func(t, j int, v float64) float64 {
			// Explicit conversions keep each product rounded on its own, so the
			// result does not depend on whether the compiler fuses operations.
			return float64(float64(LumaRed*v)+float64(LumaGreen*g.At(t, j))) + float64(LumaBlue*b.At(t, j))
		}, r)
		out[i] = m
	}

	return out
}
