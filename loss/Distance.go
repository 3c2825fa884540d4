// Package loss implements the training losses that consume value
// targets: the temporal difference loss of deep Q-learning and the
// cross-entropy loss of categorical distributional Q-learning. Each
// loss also returns a per-transition priority suitable for prioritized
// experience replay.
package loss

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/stat"
	"gorgonia.org/tensor"
)

// Distance is an elementwise distance between predictions and targets
type Distance string

const (
	L1       Distance = "l1"
	L2       Distance = "l2"
	SmoothL1 Distance = "smooth_l1"
)

// Validate returns an error if the distance is unknown
func (d Distance) Validate() error {
	switch d {
	case L1, L2, SmoothL1:
		return nil
	}
	return fmt.Errorf("distance: unknown distance %q", string(d))
}

// Of returns the distance between x and y
func (d Distance) Of(x, y float64) float64 {
	diff := math.Abs(x - y)
	switch d {
	case L1:
		return diff
	case L2:
		return diff * diff
	default:
		if diff < 1 {
			return 0.5 * diff * diff
		}
		return diff - 0.5
	}
}

// DistanceLoss returns the elementwise distance d between two tensors
// of equal size
func DistanceLoss(x, y *tensor.Dense, d Distance) (*tensor.Dense, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	xd, err := tensorutils.Float64s(x)
	if err != nil {
		return nil, fmt.Errorf("distanceLoss: %v", err)
	}
	yd, err := tensorutils.Float64s(y)
	if err != nil {
		return nil, fmt.Errorf("distanceLoss: %v", err)
	}
	if len(xd) != len(yd) {
		return nil, targeterr.Shapef("distanceLoss", "size mismatch "+
			"\n\twant(%v)\n\thave(%v)", len(xd), len(yd))
	}

	out := make([]float64, len(xd))
	for i := range out {
		out[i] = d.Of(xd[i], yd[i])
	}
	return tensorutils.New(out, x.Shape()), nil
}

// Output is the result of a loss computation
type Output struct {
	// Loss is the mean loss over all transitions
	Loss float64

	// Priority holds one priority per transition, with the batch shape
	// of the input batch followed by a trailing dimension of 1
	Priority *tensor.Dense
}

// mean returns the mean of the data of t
func mean(t *tensor.Dense) (float64, error) {
	data, err := tensorutils.Float64s(t)
	if err != nil {
		return 0, err
	}
	return stat.Mean(data, nil), nil
}
