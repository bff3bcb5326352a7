package plot

import (
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	cellSize    = 48
	boardMargin = 40
)

// Board is a map of the sensor array with the active row highlighted and
// the active sensor outlined.
type Board struct {
	Rows, Cols int
	Row        int
	Sensor     int
}

func (b Board) Image() (image.Image, error) {
	dc, err := b.draw()
	if err != nil {
		return nil, err
	}

	return dc.Image(), nil
}

// Render writes the board as a PNG.
func (b Board) Render(w io.Writer) error {
	dc, err := b.draw()
	if err != nil {
		return err
	}

	return dc.EncodePNG(w)
}

func (b Board) draw() (*gg.Context, error) {
	if b.Rows < 1 || b.Cols < 1 {
		return nil, fmt.Errorf("sensor array must be at least 1x1, got %dx%d", b.Rows, b.Cols)
	}

	w := 2*boardMargin + b.Cols*cellSize
	h := 2*boardMargin + b.Rows*cellSize
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	x0, y0 := float64(boardMargin), float64(boardMargin)

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored("GMR Sensor Array", float64(w)/2, float64(boardMargin)/2, 0.5, 0.5)

	for i := 0; i < b.Rows; i++ {
		dc.DrawStringAnchored(fmt.Sprintf("C%d", i+1), x0-6, y0+(float64(i)+0.5)*cellSize, 1, 0.5)

		for j := 0; j < b.Cols; j++ {
			x, y := x0+float64(j*cellSize), y0+float64(i*cellSize)

			dc.DrawRectangle(x, y, cellSize, cellSize)
			if i == b.Row {
				dc.SetRGBA(0, 1, 0, 0.4) // lime
			} else {
				dc.SetRGB(0.94, 0.94, 0.94)
			}
			dc.FillPreserve()
			dc.SetRGB(0.6, 0.6, 0.6)
			dc.SetLineWidth(1)
			dc.Stroke()
		}
	}

	for j := 0; j < b.Cols; j++ {
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("A%d", j+1), x0+(float64(j)+0.5)*cellSize, y0+float64(b.Rows*cellSize)+12, 0.5, 0.5)
	}

	if b.Row >= 0 && b.Row < b.Rows && b.Sensor >= 0 && b.Sensor < b.Cols {
		dc.DrawRectangle(x0+float64(b.Sensor*cellSize), y0+float64(b.Row*cellSize), cellSize, cellSize)
		dc.SetHexColor("#228b22")
		dc.SetLineWidth(3)
		dc.Stroke()
	}

	return dc, nil
}
