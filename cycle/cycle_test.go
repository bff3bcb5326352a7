package cycle

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func mustNew(t *testing.T, boundaries []float64, concentrations ...Concentration) Schedule {
	t.Helper()
	s, err := New(boundaries, concentrations)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestContained(t *testing.T) {
	s := mustNew(t, []float64{100, 200, 300, 400}, "10")

	got := s.Contained(NewWindow(50, 250))
	if len(got) != 1 || got[0].Number() != 1 || got[0].Start != 100 || got[0].End != 200 {
		t.Fatalf("Expected only cycle 1, got %v", got)
	}

	if got := s.Contained(NewWindow(50, 150)); len(got) != 0 {
		t.Fatalf("Partial overlap should not qualify, got %v", got)
	}

	if got := s.Contained(NewWindow(450, 50)); len(got) != 2 {
		t.Fatalf("A reversed window covering both cycles should qualify both, got %v", got)
	}

	// Boundaries are inclusive.
	if got := s.Contained(NewWindow(300, 400)); len(got) != 1 || got[0].Number() != 2 {
		t.Fatalf("Expected cycle 2, got %v", got)
	}
}

func TestConcentrationAssignment(t *testing.T) {
	boundaries := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		boundaries = append(boundaries, float64(100*(i+1)))
	}

	s := mustNew(t, boundaries, "10", "30")
	cycles := s.Cycles()
	if len(cycles) != 10 {
		t.Fatalf("Expected 10 cycles, got %d", len(cycles))
	}

	for i, c := range cycles {
		want := Concentration("10")
		if i >= 5 {
			want = "30"
		}
		if c.Concentration != want {
			t.Fatalf("Cycle index %d: got concentration %s, want %s", i, c.Concentration, want)
		}
	}

	if cycles[4].Concentration == cycles[5].Concentration {
		t.Fatal("Cycles 4 and 5 straddle the concentration boundary and must differ")
	}

	if s.RequiredEndTime() != 2000 {
		t.Fatalf("RequiredEndTime = %v", s.RequiredEndTime())
	}
}

func TestNewRejects(t *testing.T) {
	for name, v := range map[string]struct {
		boundaries     []float64
		concentrations []Concentration
	}{
		"empty":            {nil, []Concentration{"10"}},
		"odd":              {[]float64{1, 2, 3}, []Concentration{"10"}},
		"decreasing":       {[]float64{1, 5, 4, 6}, []Concentration{"10"}},
		"no concentration": {[]float64{1, 2}, nil},
		"uneven partition": {[]float64{1, 2, 3, 4, 5, 6}, []Concentration{"10", "30"}},
		"infinite end":     {[]float64{1, math.Inf(1)}, []Concentration{"10"}},
		"nan start":        {[]float64{math.NaN(), 2}, []Concentration{"10"}},
		"parent label":     {[]float64{1, 2}, []Concentration{".."}},
		"label with slash": {[]float64{1, 2}, []Concentration{"../x"}},
		"backslash label":  {[]float64{1, 2}, []Concentration{`a\b`}},
		"empty label":      {[]float64{1, 2}, []Concentration{""}},
	} {
		if _, err := New(v.boundaries, v.concentrations); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s: expected ErrConfiguration, got %v", name, err)
		}
	}
}

func TestConcentrationJSON(t *testing.T) {
	var got []Concentration
	if err := json.Unmarshal([]byte(`[10, "30", 2.5]`), &got); err != nil {
		t.Fatal(err)
	}

	if len(got) != 3 || got[0] != "10" || got[1] != "30" || got[2] != "2.5" {
		t.Fatalf("Unexpected concentrations %v", got)
	}

	if err := json.Unmarshal([]byte(`[true]`), &got); err == nil {
		t.Fatal("Expected an error for a boolean concentration")
	}
}
