package sensorarray

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stridedCSV builds nTimes lines of time,v_1..v_{rows*cols} where the sample
// in input column c of line t is t*1000+c.
func stridedCSV(nTimes, numRows, numCols int, delim string) string {
	var b strings.Builder
	for t := 0; t < nTimes; t++ {
		fields := []string{fmt.Sprintf("%g", float64(t)*0.5)}
		for c := 0; c < numRows*numCols; c++ {
			fields = append(fields, fmt.Sprintf("%d", t*1000+c))
		}
		b.WriteString(strings.Join(fields, delim))
		b.WriteString("\n")
	}
	return b.String()
}

func TestLoadChannelReshape(t *testing.T) {
	ch, err := LoadChannel(strings.NewReader(stridedCSV(4, 7, 9, ",")), 7)
	if err != nil {
		t.Fatal(err)
	}

	if ch.Len() != 4 || ch.NumRows() != 7 || ch.NumCols() != 9 {
		t.Fatalf("Expected 4 samples of 7x9, got %d samples of %dx%d", ch.Len(), ch.NumRows(), ch.NumCols())
	}

	for tm := 0; tm < 4; tm++ {
		if ch.Time[tm] != float64(tm)*0.5 {
			t.Fatalf("Time[%d] = %v", tm, ch.Time[tm])
		}
		for i := 0; i < 7; i++ {
			for j := 0; j < 9; j++ {
				if got, want := ch.Rows[i].At(tm, j), float64(tm*1000+i+j*7); got != want {
					t.Fatalf("C%d_A%d at t=%d: got %v, want %v", i+1, j+1, tm, got, want)
				}
			}
		}
	}
}

func TestLoadChannelRoundTrip(t *testing.T) {
	ch, err := LoadChannel(strings.NewReader(stridedCSV(3, 7, 9, ",")), 7)
	if err != nil {
		t.Fatal(err)
	}

	for tm, record := range ch.Flatten() {
		if len(record) != 63 {
			t.Fatalf("Expected 63 samples, got %d", len(record))
		}
		for c, v := range record {
			if v != float64(tm*1000+c) {
				t.Fatalf("Line %d column %d: got %v, want %v", tm, c, v, float64(tm*1000+c))
			}
		}
	}
}

func TestLoadChannelSingleRow(t *testing.T) {
	ch, err := LoadChannel(strings.NewReader(stridedCSV(1, 7, 9, ",")), 7)
	if err != nil {
		t.Fatal(err)
	}

	if ch.Len() != 1 {
		t.Fatalf("Expected 1 sample, got %d", ch.Len())
	}

	for i, m := range ch.Rows {
		if r, c := m.Dims(); r != 1 || c != 9 {
			t.Fatalf("C%d: expected a 1x9 matrix, got %dx%d", i+1, r, c)
		}
	}
}

func TestLoadChannelTabDelimited(t *testing.T) {
	comma, err := LoadChannel(strings.NewReader(stridedCSV(5, 7, 9, ",")), 7)
	if err != nil {
		t.Fatal(err)
	}

	tab, err := LoadChannel(strings.NewReader(stridedCSV(5, 7, 9, "\t")), 7)
	if err != nil {
		t.Fatal(err)
	}

	for i := range comma.Rows {
		if !matEqual(comma.Rows[i], tab.Rows[i]) {
			t.Fatalf("C%d differs between comma and tab input", i+1)
		}
	}
}

func TestLoadChannelSkipsBlankAndCommentLines(t *testing.T) {
	in := "# exported by the rig\n0,1,2\n\n1,3,4\n"
	ch, err := LoadChannel(strings.NewReader(in), 2)
	if err != nil {
		t.Fatal(err)
	}

	if ch.Len() != 2 || ch.Rows[1].At(1, 0) != 4 {
		t.Fatalf("Unexpected channel: %+v", ch.Flatten())
	}
}

func TestLoadChannelMalformed(t *testing.T) {
	for name, in := range map[string]string{
		"empty":       "",
		"not numeric": "0,1,2\n1,abc,3\n",
		"ragged":      "0,1,2\n1,2\n",
		"time only":   "0\n1\n",
		"uneven rows": "0,1,2,3\n",
		"nan time":    "0,1,2\nNaN,3,4\n",
		"inf sample":  "0,1,2\n1,+Inf,4\n",
	} {
		_, err := LoadChannel(strings.NewReader(in), 2)
		if !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("%s: expected ErrMalformedInput, got %v", name, err)
		}
	}
}

func TestLoadChannelFromPathMissing(t *testing.T) {
	_, err := LoadChannelFromPath("red", filepath.Join(t.TempDir(), "TestRed.csv"), 7, nil)
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("Expected ErrFileNotFound, got %v", err)
	}

	var ce *ChannelError
	if !errors.As(err, &ce) || ce.Channel != "red" {
		t.Fatalf("Expected a ChannelError naming the red channel, got %#v", err)
	}
}

func TestLoadChannelFromPathGzip(t *testing.T) {
	dir := t.TempDir()
	raw := stridedCSV(6, 7, 9, ",")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(raw)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	plainPath := filepath.Join(dir, "plain.csv")
	gzPath := filepath.Join(dir, "packed.csv.gz")
	if err := os.WriteFile(plainPath, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(gzPath, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	plain, err := LoadChannelFromPath("green", plainPath, 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	packed, err := LoadChannelFromPath("green", gzPath, 7, nil)
	if err != nil {
		t.Fatal(err)
	}

	if plain.Len() != packed.Len() {
		t.Fatalf("Lengths differ: %d vs %d", plain.Len(), packed.Len())
	}
	for i := range plain.Rows {
		if !matEqual(plain.Rows[i], packed.Rows[i]) {
			t.Fatalf("C%d differs between plain and gzip input", i+1)
		}
	}
}
