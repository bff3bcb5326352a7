package sensorarray

import (
	"fmt"
	"math"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/vocsensor"
	"gonum.org/v1/gonum/stat"
)

// Policy chooses how channels of different lengths are reconciled onto one
// timeline.
type Policy int

const (
	// Truncate slices every channel to the shortest one.
	Truncate Policy = iota

	// Pad extends the longest channel's timeline up to a required end time
	// and conforms every channel to it, holding each sensor's last value.
	Pad
)

func (p Policy) String() string {
	switch p {
	case Truncate:
		return "truncate"
	case Pad:
		return "pad"
	}

	return fmt.Sprintf("Policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return Truncate, nil
	case "pad":
		return Pad, nil
	}

	return Truncate, fmt.Errorf("unknown synchronization policy %q (want truncate or pad)", s)
}

const (
	// DefaultStep is the synthesized sample spacing used when a timeline has
	// too few increasing timestamps to estimate its own.
	DefaultStep = 0.1

	// DefaultStepWindow is how many trailing time deltas are averaged to
	// estimate the sample spacing.
	DefaultStepWindow = 100
)

type AlignOptions struct {
	Policy Policy

	// RequiredEndTime is the time the Pad policy extends the timeline to;
	// normally the last experiment interval boundary. Without it, Pad
	// behaves like Truncate.
	RequiredEndTime *float64

	// DefaultStep overrides the package DefaultStep when positive.
	DefaultStep float64

	// StepWindow overrides DefaultStepWindow when positive.
	StepWindow int

	Log vocsensor.Logger
}

func (o AlignOptions) defaultStep() float64 {
	if o.DefaultStep > 0 {
		return o.DefaultStep
	}
	return DefaultStep
}

func (o AlignOptions) stepWindow() int {
	if o.StepWindow > 0 {
		return o.StepWindow
	}
	return DefaultStepWindow
}

// AverageStep estimates the sample spacing of times from the mean of the
// positive deltas among its last window deltas. If fewer than two positive
// deltas exist, fallback is returned and usedFallback is true.
func AverageStep(times []float64, window int, fallback float64) (step float64, usedFallback bool) {
	if len(times) < 2 {
		return fallback, true
	}

	from := len(times) - 1 - window
	if from < 0 {
		from = 0
	}

	deltas := make([]float64, 0, len(times)-from-1)
	for i := from + 1; i < len(times); i++ {
		if d := times[i] - times[i-1]; d > 0 {
			deltas = append(deltas, d)
		}
	}

	if len(deltas) < 2 {
		return fallback, true
	}

	return stat.Mean(deltas, nil), false
}

// EndTime returns a pointer to t, for AlignOptions.RequiredEndTime.
func EndTime(t float64) *float64 {
	return &t
}

// ExtendTimeline appends timestamps spaced by step after the last element of
// times until the final one is at or past target. times is not modified, and
// is returned as is when target or step is not finite.
func ExtendTimeline(times []float64, target, step float64) []float64 {
	out := append(make([]float64, 0, len(times)), times...)
	if !isFinite(target) || !isFinite(step) {
		return out
	}
	if len(out) == 0 || out[len(out)-1] >= target || !(step > 0) {
		return out
	}

	last := out[len(out)-1]
	for k := 1; ; k++ {
		next := last + float64(k)*step
		out = append(out, next)
		if next >= target {
			break
		}
	}

	return out
}

// Align reconciles the three channels onto one timeline according to
// opts.Policy and computes the luminance signal. All channels must describe
// the same sensor array shape.
func Align(red, green, blue Channel, opts AlignOptions) (*Dataset, error) {
	log := vocsensor.OrNop(opts.Log)
	channels := []Channel{red, green, blue}

	for _, ch := range channels {
		if ch.Len() == 0 || ch.NumRows() == 0 {
			return nil, &DataUnavailableError{Failures: []error{
				&ChannelError{Channel: ch.Name, Err: ErrMalformedInput, Detail: "no samples"},
			}}
		}
		for i, m := range ch.Rows {
			if r, _ := m.Dims(); r != ch.Len() {
				return nil, &ChannelError{Channel: ch.Name, Err: ErrMalformedInput,
					Detail: fmt.Sprintf("sensor row C%d has %d samples but the time vector has %d", i+1, r, ch.Len())}
			}
		}
		if ch.NumRows() != red.NumRows() || ch.NumCols() != red.NumCols() {
			return nil, &ChannelError{Channel: ch.Name, Err: ErrMalformedInput,
				Detail: fmt.Sprintf("array is %dx%d but the red channel is %dx%d", ch.NumRows(), ch.NumCols(), red.NumRows(), red.NumCols())}
		}
	}

	policy := opts.Policy
	if policy == Pad && opts.RequiredEndTime == nil {
		log.Println("No required end time; synchronizing to the shortest channel instead of padding.")
		policy = Truncate
	}

	var timeline []float64
	extended := 0

	switch policy {
	case Pad:
		target := *opts.RequiredEndTime
		if !isFinite(target) {
			return nil, pfx.Err(fmt.Errorf("required end time must be finite, got %v", target))
		}

		base := channels[0]
		for _, ch := range channels[1:] {
			if ch.Len() > base.Len() {
				base = ch
			}
		}

		lastTime := base.Time[base.Len()-1]
		if lastTime >= target {
			log.Printf("Time vector covers the experiment (ends at %.2f, required %.2f); no padding needed.\n", lastTime, target)
			timeline = append([]float64(nil), base.Time...)
			break
		}

		step, fellBack := AverageStep(base.Time, opts.stepWindow(), opts.defaultStep())
		if fellBack {
			log.Printf("Too few increasing timestamps to estimate the sample spacing; using the default step of %g.\n", step)
		}

		timeline = ExtendTimeline(base.Time, target, step)
		extended = len(timeline) - base.Len()
		log.Printf("Padded the %s timeline with %d points at step %.4f (from %.2f to %.2f).\n", base.Name, extended, step, lastTime, timeline[len(timeline)-1])

	case Truncate:
		minLen := red.Len()
		for _, ch := range channels[1:] {
			if ch.Len() < minLen {
				minLen = ch.Len()
			}
		}
		timeline = append([]float64(nil), green.Time[:minLen]...)
		log.Printf("Data synchronized to shortest length: %d points.\n", minLen)

	default:
		return nil, pfx.Err(fmt.Errorf("unknown synchronization policy %v", opts.Policy))
	}

	n := len(timeline)
	ds := &Dataset{
		Time:     timeline,
		Red:      conformAll(red.Rows, n),
		Green:    conformAll(green.Rows, n),
		Blue:     conformAll(blue.Rows, n),
		Policy:   policy,
		Extended: extended,
	}

	log.Println("Calculating summary (Luminance) signal...")
	ds.Summary = Luminance(ds.Red, ds.Green, ds.Blue)

	return ds, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
