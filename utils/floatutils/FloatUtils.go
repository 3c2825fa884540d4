// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// ClipSlice clips each element of values in place to the interval
func ClipSlice(values []float64, interval r1.Interval) {
	for i := range values {
		values[i] = ClipInterval(values[i], interval)
	}
}

// AllFinite returns whether no element of values is NaN or infinite
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Pow returns base**exp for each exponent in exps
func Pow(base float64, exps []float64) []float64 {
	out := make([]float64, len(exps))
	for i, e := range exps {
		out[i] = math.Pow(base, e)
	}
	return out
}

// Ones returns a slice of n 1.0's
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0
	}
	return out
}
