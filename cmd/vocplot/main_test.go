package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/vocsensor/config"
	"github.com/carbocation/vocsensor/cycle"
	"github.com/carbocation/vocsensor/sensorarray"
	"gonum.org/v1/gonum/mat"
)

func testLoaded(t *testing.T) config.Loaded {
	t.Helper()

	n := 50
	times := make([]float64, n)
	rows := make([]*mat.Dense, 2)
	for i := range rows {
		rows[i] = mat.NewDense(n, 3, nil)
	}
	for tm := 0; tm < n; tm++ {
		times[tm] = float64(tm)
		for i := range rows {
			for j := 0; j < 3; j++ {
				rows[i].Set(tm, j, float64(100+10*i+j+tm))
			}
		}
	}

	schedule, err := cycle.New([]float64{10, 20, 30, 40}, []cycle.Concentration{"10", "30"})
	if err != nil {
		t.Fatal(err)
	}

	return config.Loaded{
		ID:       "nh3_run1",
		Data:     &sensorarray.Dataset{Time: times, Red: rows, Green: rows, Blue: rows, Summary: rows},
		Schedule: schedule,
	}
}

func TestRenderAllRows(t *testing.T) {
	out := t.TempDir()
	cfg := config.Config{Rows: 2, Cols: 3}

	files, err := render(testLoaded(t), cfg, options{Signal: "summary", Out: out, Board: true})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"nh3_run1_C1_summary.png", "nh3_run1_C1_board.png", "nh3_run1_C2_summary.png", "nh3_run1_C2_board.png"}
	if len(files) != len(want) {
		t.Fatalf("Expected %d files, got %v", len(want), files)
	}
	for i, f := range files {
		if f != filepath.Join(out, want[i]) {
			t.Fatalf("Expected %s, got %s", want[i], f)
		}

		r, err := os.Open(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := png.Decode(r); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		r.Close()
	}
}

func TestRenderOneRow(t *testing.T) {
	files, err := render(testLoaded(t), config.Config{Rows: 2, Cols: 3}, options{Row: 2, Signal: "red", Out: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "nh3_run1_C2_red.png" {
		t.Fatalf("Unexpected files %v", files)
	}

	if _, err := render(testLoaded(t), config.Config{Rows: 2, Cols: 3}, options{Row: 3, Out: t.TempDir()}); err == nil {
		t.Fatalf("Expected an error for row C3 of a 2-row array")
	}
}
