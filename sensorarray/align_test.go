package sensorarray

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func matEqual(a, b *mat.Dense) bool {
	return mat.Equal(a, b)
}

// syntheticChannel returns an n-sample channel of numRows x numCols sensors
// sampled every step seconds, where every sensor of row i reads base+i+t.
func syntheticChannel(name string, n, numRows, numCols int, step, base float64) Channel {
	ch := Channel{Name: name, Time: make([]float64, n)}
	for t := range ch.Time {
		ch.Time[t] = float64(t) * step
	}
	for i := 0; i < numRows; i++ {
		m := mat.NewDense(n, numCols, nil)
		for t := 0; t < n; t++ {
			for j := 0; j < numCols; j++ {
				m.Set(t, j, base+float64(i)+float64(t))
			}
		}
		ch.Rows = append(ch.Rows, m)
	}
	return ch
}

func checkShape(t *testing.T, ds *Dataset) {
	t.Helper()
	for _, sig := range [][]*mat.Dense{ds.Red, ds.Green, ds.Blue, ds.Summary} {
		for i, m := range sig {
			if r, _ := m.Dims(); r != len(ds.Time) {
				t.Fatalf("Row C%d has %d samples but the time vector has %d", i+1, r, len(ds.Time))
			}
		}
	}
}

func TestAlignTruncate(t *testing.T) {
	red := syntheticChannel("red", 12, 7, 9, 1, 100)
	green := syntheticChannel("green", 10, 7, 9, 1, 100)
	blue := syntheticChannel("blue", 15, 7, 9, 1, 100)

	ds, err := Align(red, green, blue, AlignOptions{Policy: Truncate})
	if err != nil {
		t.Fatal(err)
	}

	if ds.Len() != 10 {
		t.Fatalf("Expected the shortest length 10, got %d", ds.Len())
	}
	checkShape(t, ds)

	if ds.Extended != 0 {
		t.Fatalf("Truncation should not synthesize timestamps, got %d", ds.Extended)
	}
}

func TestAlignPad(t *testing.T) {
	red := syntheticChannel("red", 20, 7, 9, 0.5, 100)
	green := syntheticChannel("green", 25, 7, 9, 0.5, 120)
	blue := syntheticChannel("blue", 18, 7, 9, 0.5, 90)

	required := 30.0
	ds, err := Align(red, green, blue, AlignOptions{Policy: Pad, RequiredEndTime: &required})
	if err != nil {
		t.Fatal(err)
	}
	checkShape(t, ds)

	if last := ds.Time[ds.Len()-1]; last < required {
		t.Fatalf("Timeline ends at %v, before the required %v", last, required)
	}

	// Green is the longest channel, so its native timeline is kept verbatim.
	for i, v := range green.Time {
		if ds.Time[i] != v {
			t.Fatalf("Time[%d] = %v, want %v", i, ds.Time[i], v)
		}
	}

	for name, pair := range map[string][2][]*mat.Dense{
		"red":   {red.Rows, ds.Red},
		"green": {green.Rows, ds.Green},
		"blue":  {blue.Rows, ds.Blue},
	} {
		src, got := pair[0], pair[1]
		for i := range src {
			have, cols := src[i].Dims()
			for tm := 0; tm < ds.Len(); tm++ {
				for j := 0; j < cols; j++ {
					want := src[i].At(tm, j)
					if tm >= have {
						want = src[i].At(have-1, j)
					}
					if got[i].At(tm, j) != want {
						t.Fatalf("%s C%d_A%d at %d: got %v, want %v", name, i+1, j+1, tm, got[i].At(tm, j), want)
					}
				}
			}
		}
	}
}

func TestAlignPadNotNeeded(t *testing.T) {
	red := syntheticChannel("red", 50, 2, 3, 1, 0)
	green := syntheticChannel("green", 40, 2, 3, 1, 0)
	blue := syntheticChannel("blue", 45, 2, 3, 1, 0)

	ds, err := Align(red, green, blue, AlignOptions{Policy: Pad, RequiredEndTime: EndTime(30)})
	if err != nil {
		t.Fatal(err)
	}

	if ds.Len() != 50 || ds.Extended != 0 {
		t.Fatalf("Expected the 50 native samples of the longest channel, got %d (%d synthesized)", ds.Len(), ds.Extended)
	}
	checkShape(t, ds)
}

func TestAlignPadWithoutEndTimeTruncates(t *testing.T) {
	red := syntheticChannel("red", 20, 7, 9, 0.5, 100)
	green := syntheticChannel("green", 25, 7, 9, 0.5, 120)
	blue := syntheticChannel("blue", 18, 7, 9, 0.5, 90)

	ds, err := Align(red, green, blue, AlignOptions{Policy: Pad})
	if err != nil {
		t.Fatal(err)
	}

	if ds.Len() != 18 || ds.Extended != 0 {
		t.Fatalf("Expected the shortest length 18, got %d (%d synthesized)", ds.Len(), ds.Extended)
	}
	if ds.Policy != Truncate {
		t.Fatalf("Expected the truncate policy to be recorded, got %v", ds.Policy)
	}
	checkShape(t, ds)
}

func TestAlignPadNonFiniteEndTime(t *testing.T) {
	red := syntheticChannel("red", 5, 1, 2, 1, 0)
	green := syntheticChannel("green", 5, 1, 2, 1, 0)
	blue := syntheticChannel("blue", 5, 1, 2, 1, 0)

	for _, target := range []float64{math.Inf(1), math.NaN()} {
		if _, err := Align(red, green, blue, AlignOptions{Policy: Pad, RequiredEndTime: EndTime(target)}); err == nil {
			t.Fatalf("Expected an error for required end time %v", target)
		}
	}
}

func TestExtendTimelineNonFinite(t *testing.T) {
	times := []float64{0, 1, 2}
	for _, v := range []struct {
		target, step float64
	}{
		{math.Inf(1), 0.1},
		{math.NaN(), 0.1},
		{10, math.Inf(1)},
		{10, math.NaN()},
	} {
		out := ExtendTimeline(times, v.target, v.step)
		if len(out) != len(times) {
			t.Fatalf("ExtendTimeline(%v, %v, %v) = %v, want the input unchanged", times, v.target, v.step, out)
		}
	}
}

func TestAverageStep(t *testing.T) {
	for _, v := range []struct {
		times    []float64
		window   int
		step     float64
		fallback bool
	}{
		{nil, 100, 0.1, true},
		{[]float64{5}, 100, 0.1, true},
		{[]float64{0, 1}, 100, 0.1, true},
		{[]float64{0, 0, 0, 0}, 100, 0.1, true},
		{[]float64{0, 2, 4, 6}, 100, 2, false},
		{[]float64{0, 1, 1, 3}, 100, 1.5, false},
		// Only the last two deltas are considered.
		{[]float64{0, 10, 11, 12}, 2, 1, false},
	} {
		step, fellBack := AverageStep(v.times, v.window, 0.1)
		if step != v.step || fellBack != v.fallback {
			t.Fatalf("%v (window %d): got (%v, %v), want (%v, %v)", v.times, v.window, step, fellBack, v.step, v.fallback)
		}
	}
}

func TestExtendTimelineDefaultStep(t *testing.T) {
	red := syntheticChannel("red", 1, 1, 2, 1, 7)
	green := syntheticChannel("green", 1, 1, 2, 1, 7)
	blue := syntheticChannel("blue", 1, 1, 2, 1, 7)

	ds, err := Align(red, green, blue, AlignOptions{Policy: Pad, RequiredEndTime: EndTime(2), DefaultStep: 0.5})
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0, 0.5, 1, 1.5, 2}
	if ds.Len() != len(want) {
		t.Fatalf("Expected %v, got %v", want, ds.Time)
	}
	for i := range want {
		if ds.Time[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, ds.Time)
		}
	}

	for tm := 0; tm < ds.Len(); tm++ {
		if ds.Red[0].At(tm, 1) != 7 {
			t.Fatalf("Padded value at %d is %v, want 7", tm, ds.Red[0].At(tm, 1))
		}
	}
}

func TestAlignShapeMismatch(t *testing.T) {
	red := syntheticChannel("red", 5, 7, 9, 1, 0)
	green := syntheticChannel("green", 5, 7, 8, 1, 0)
	blue := syntheticChannel("blue", 5, 7, 9, 1, 0)

	if _, err := Align(red, green, blue, AlignOptions{}); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Expected ErrMalformedInput, got %v", err)
	}
}

func TestNewDatasetMissingChannel(t *testing.T) {
	dir := t.TempDir()
	paths := DefaultChannelPaths(dir)

	csv := stridedCSV(3, 7, 9, ",")
	for _, p := range []string{paths.Red, paths.Blue} {
		if err := os.WriteFile(p, []byte(csv), 0644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := NewDataset(paths, DatasetOptions{})
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("Expected ErrDataUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("Expected the green failure to be ErrFileNotFound, got %v", err)
	}
}

func TestNewDataset(t *testing.T) {
	dir := t.TempDir()
	paths := DefaultChannelPaths(dir)

	for p, n := range map[string]int{paths.Red: 4, paths.Green: 3, paths.Blue: 5} {
		if err := os.WriteFile(p, []byte(stridedCSV(n, 7, 9, ",")), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ds, err := NewDataset(paths, DatasetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 3 || ds.NumRows() != 7 || ds.NumCols() != 9 {
		t.Fatalf("Unexpected dataset shape %d x %dx%d", ds.Len(), ds.NumRows(), ds.NumCols())
	}

	tv, row, err := ds.DataForRow(2, Green)
	if err != nil {
		t.Fatal(err)
	}
	if len(tv) != 3 || row.At(1, 0) != 1002 {
		t.Fatalf("Unexpected green row C3: %v", mat.Formatted(row))
	}

	if _, _, err := ds.DataForRow(7, Summary); err == nil {
		t.Fatal("Expected an error for row 7")
	}

	if filepath.Base(paths.Green) != DefaultGreenFile {
		t.Fatalf("Unexpected default green path %s", paths.Green)
	}
}
