package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	values := []float64{-20, -10, 0, 4.5, 10, 11, math.Inf(1)}
	want := []float64{-10, -10, 0, 4.5, 10, 10, 10}

	ClipSlice(values, r1.Interval{Min: -10, Max: 10})
	if !floats.Equal(values, want) {
		t.Errorf("clip:\n\twant(%v)\n\thave(%v)", want, values)
	}
}

func TestAllFinite(t *testing.T) {
	if !AllFinite([]float64{0, 1, -1e300}) {
		t.Error("finite values reported as non-finite")
	}
	if AllFinite([]float64{0, math.NaN()}) {
		t.Error("NaN reported as finite")
	}
	if AllFinite([]float64{math.Inf(-1)}) {
		t.Error("-Inf reported as finite")
	}
}

func TestPow(t *testing.T) {
	got := Pow(0.5, []float64{0, 1, 3})
	want := []float64{1, 0.5, 0.125}
	if !floats.EqualApprox(got, want, 1e-12) {
		t.Errorf("pow:\n\twant(%v)\n\thave(%v)", want, got)
	}
}
