package vocsensor

import (
	"bufio"
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

// How much of the stream is inspected when guessing the delimiter.
const sniffBytes = 64 * 1024

// Numeric data makes '.' and '-' look like perfectly regular delimiters, so
// only these are ever accepted from the detector.
var acceptedDelimiters = map[byte]struct{}{
	',':  {},
	'\t': {},
	';':  {},
	'|':  {},
}

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file. The reader is peeked, not
// consumed, so it can be handed to a csv.Reader afterwards.
func DetermineDelimiter(r *bufio.Reader) rune {
	// Peek reports an error when the stream is shorter than requested, but
	// still returns what it has.
	sample, _ := r.Peek(sniffBytes)
	if len(sample) == 0 {
		return ','
	}

	d := detector.New()
	for _, delim := range d.DetectDelimiter(bytes.NewReader(sample), '"') {
		if len(delim) != 1 {
			continue
		}
		if _, ok := acceptedDelimiters[delim[0]]; ok {
			return rune(delim[0])
		}
	}

	return mostFrequentOnFirstLine(sample)
}

// mostFrequentOnFirstLine picks the accepted delimiter that occurs most often
// on the first line, or ',' if none occurs.
func mostFrequentOnFirstLine(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}

	best, bestCount := byte(','), 0
	for _, c := range []byte{',', '\t', ';', '|'} {
		if n := bytes.Count(sample, []byte{c}); n > bestCount {
			best, bestCount = c, n
		}
	}

	return rune(best)
}
