package sensorarray

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/vocsensor"
)

// LoadChannel parses one channel file. Every line is data, of the form
// time,v_1,...,v_{rows*cols}; there is no header. Blank lines and lines
// starting with # are skipped. The delimiter is sniffed from the content.
//
// A file with a single data line yields 1 x cols matrices.
func LoadChannel(r io.Reader, numRows int) (Channel, error) {
	if numRows < 1 {
		return Channel{}, pfx.Err(fmt.Errorf("number of sensor rows must be positive, got %d", numRows))
	}

	br := bufio.NewReaderSize(r, 64*1024)

	cr := csv.NewReader(br)
	cr.Comma = vocsensor.DetermineDelimiter(br)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var times, flat []float64
	width := -1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			line := 0
			if pe, ok := err.(*csv.ParseError); ok {
				line = pe.Line
			}
			return Channel{}, malformed(line, "%v", err)
		}

		line, _ := cr.FieldPos(0)

		if width < 0 {
			width = len(record) - 1
			if width < 1 {
				return Channel{}, malformed(line, "expected a time column followed by sensor samples, got %d column(s)", len(record))
			}
			if width%numRows != 0 {
				return Channel{}, malformed(line, "%d sensor samples cannot be split evenly into %d sensor rows", width, numRows)
			}
		} else if len(record)-1 != width {
			return Channel{}, malformed(line, "expected %d sensor samples, got %d", width, len(record)-1)
		}

		for col, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return Channel{}, malformed(line, "column %d (%q) is not a number", col+1, field)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Channel{}, malformed(line, "column %d (%q) is not a finite number", col+1, field)
			}

			if col == 0 {
				times = append(times, v)
			} else {
				flat = append(flat, v)
			}
		}
	}

	if len(times) == 0 {
		return Channel{}, malformed(0, "no data rows")
	}

	return Channel{
		Time: times,
		Rows: reshape(flat, len(times), width, numRows),
	}, nil
}

// LoadChannelFromPath loads the channel called name from a local path or a
// gs:// path; compressed files are read transparently. A missing file is
// reported as ErrFileNotFound.
func LoadChannelFromPath(name, path string, numRows int, client *storage.Client) (Channel, error) {
	src, err := vocsensor.OpenDecompressedSource(context.Background(), path, client)
	if vocsensor.IsNotExist(err) {
		return Channel{}, &ChannelError{Channel: name, Path: path, Err: ErrFileNotFound}
	} else if err != nil {
		return Channel{}, err
	}
	defer src.Close()

	ch, err := LoadChannel(src, numRows)
	if ce, ok := err.(*ChannelError); ok {
		ce.Channel = name
		ce.Path = path
		return Channel{}, ce
	} else if err != nil {
		return Channel{}, err
	}

	ch.Name = name

	return ch, nil
}
