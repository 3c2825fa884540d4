package returns

import (
	"encoding/binary"
	"math"

	"github.com/samuelfneumann/valuetarget/utils/matutils"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/mat"
)

// Every recursive estimator reduces to the backward linear recursion
//
//	y[t] = x[t] + c[t] * y[t+1],	y[T] = 0
//
// along each lane of the time dimension, for estimator-specific terms
// x and coefficients c. The scans below solve the recursion for all
// lanes at once, writing y in the same row major layout as x and c.

// sequentialScan solves the recursion with a backward loop over time
func sequentialScan(x, c []float64, lanes tensorutils.Lanes) []float64 {
	y := make([]float64, len(x))
	T := lanes.Len()

	for lane := 0; lane < lanes.Count(); lane++ {
		next := 0.0
		for t := T - 1; t >= 0; t-- {
			i := lanes.Index(lane, t)
			y[i] = x[i] + c[i]*next
			next = y[i]
		}
	}
	return y
}

// scanGroup is a set of lanes sharing the same recursion coefficients
type scanGroup struct {
	coef  []float64
	lanes []int
}

// groupLanes groups the lanes of c by their recursion coefficients.
// Groups are returned in order of their first lane.
func groupLanes(c []float64, lanes tensorutils.Lanes) []*scanGroup {
	T := lanes.Len()
	var groups []*scanGroup
	index := make(map[string]*scanGroup)

	coef := make([]float64, T)
	key := make([]byte, 8*T)
	for lane := 0; lane < lanes.Count(); lane++ {
		lanes.Gather(c, lane, coef)
		// The last coefficient multiplies y[T] = 0
		coef[T-1] = 0

		for t, v := range coef {
			binary.LittleEndian.PutUint64(key[8*t:], math.Float64bits(v))
		}
		group, ok := index[string(key)]
		if !ok {
			group = &scanGroup{coef: append([]float64(nil), coef...)}
			index[string(key)] = group
			groups = append(groups, group)
		}
		group.lanes = append(group.lanes, lane)
	}
	return groups
}

// vectorizedScan solves the recursion in closed form. For coefficients
// c, the solution is y = W x where W is upper triangular with
// W[t][j] = c[t] * ... * c[j-1]. Lanes with equal coefficients share a
// single matrix W, and all their terms are solved with one matrix
// product. If most lanes have coefficients of their own, the backward
// loop is used instead.
func vectorizedScan(x, c []float64, lanes tensorutils.Lanes) []float64 {
	groups := groupLanes(c, lanes)
	if len(groups) > 1 && 2*len(groups) > lanes.Count() {
		return sequentialScan(x, c, lanes)
	}

	T := lanes.Len()
	y := make([]float64, len(x))
	lane := make([]float64, T)
	for _, g := range groups {
		W := matutils.UpperScan(g.coef)

		X := mat.NewDense(T, len(g.lanes), nil)
		for j, l := range g.lanes {
			lanes.Gather(x, l, lane)
			X.SetCol(j, lane)
		}

		var Y mat.Dense
		Y.Mul(W, X)

		for j, l := range g.lanes {
			mat.Col(lane, j, &Y)
			lanes.Scatter(y, l, lane)
		}
	}
	return y
}

// scan solves the recursion using the vectorized or sequential scan
func scan(x, c []float64, lanes tensorutils.Lanes, vectorized bool) []float64 {
	if vectorized {
		return vectorizedScan(x, c, lanes)
	}
	return sequentialScan(x, c, lanes)
}
