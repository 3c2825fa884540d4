// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MinStd is the smallest standard deviation used when standardizing
const MinStd = 1e-4

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// MaxVec finds and returns the index of the maximum value in a vector.
// If multiple equal max values exist, only the first one is returned.
func MaxVec(values mat.Vector) int {
	max, idx := values.AtVec(0), 0
	numActions := values.Len()

	for i := 0; i < numActions; i++ {
		if values.AtVec(i) > max {
			max = values.AtVec(i)
			idx = i
		}
	}
	return idx
}

// Standardize standardizes values in place to zero mean and unit
// standard deviation. The standard deviation is bounded below by minStd
// so that constant inputs do not cause a division by zero. Inputs with
// fewer than two elements use minStd as their standard deviation.
func Standardize(values []float64, minStd float64) {
	if len(values) == 0 {
		return
	}

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 || math.IsNaN(std) {
		std = minStd
	}
	std = math.Max(std, minStd)

	floats.AddConst(-mean, values)
	floats.Scale(1/std, values)
}

// UpperScan returns the T x T upper triangular matrix W that solves the
// backward recursion y[t] = x[t] + coef[t] * y[t+1], y[T] = 0 through
// y = W x. Entry W[t][j] for j >= t is the product coef[t] * ... *
// coef[j-1].
func UpperScan(coef []float64) *mat.Dense {
	T := len(coef)
	w := mat.NewDense(T, T, nil)
	for t := 0; t < T; t++ {
		w.Set(t, t, 1.0)
		for j := t + 1; j < T; j++ {
			w.Set(t, j, w.At(t, j-1)*coef[j-1])
		}
	}
	return w
}

// VecOnes returns a vector of 1.0's
func VecOnes(length int) *mat.VecDense {
	oneSlice := make([]float64, length)
	for i := 0; i < length; i++ {
		oneSlice[i] = 1.0
	}
	return mat.NewVecDense(length, oneSlice)
}
