// Package batch implements batches of transitions over which value
// targets are computed, along with the layout describing how the batch
// dimensions of a batch are organized.
package batch

import (
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gorgonia.org/tensor"
)

// NoTimeDim is the TimeDim of a Layout whose batch has no time axis,
// for example a single time step extracted from a trajectory.
const NoTimeDim = -1

// Layout describes the leading batch dimensions shared by every tensor
// in a Batch and which of those dimensions is the time axis. A batch of
// trajectories usually has BatchShape [B, T] with TimeDim 1.
type Layout struct {
	BatchShape tensor.Shape
	TimeDim    int
}

// NewLayout returns a new Layout
func NewLayout(batchShape []int, timeDim int) Layout {
	return Layout{BatchShape: tensor.Shape(batchShape).Clone(), TimeDim: timeDim}
}

// Validate returns an error if the layout has no batch dimensions, if
// the time dimension is out of range, or if any batch dimension is
// empty.
func (l Layout) Validate() error {
	if len(l.BatchShape) < 1 {
		return targeterr.Shapef("layout", "expected at least one batch "+
			"dimension \n\thave(%v)", l.BatchShape)
	}
	if l.TimeDim != NoTimeDim && (l.TimeDim < 0 ||
		l.TimeDim >= len(l.BatchShape)) {
		return targeterr.Shapef("layout", "time dimension out of range "+
			"\n\twant([0, %d))\n\thave(%v)", len(l.BatchShape), l.TimeDim)
	}
	if l.TimeDim != NoTimeDim && l.BatchShape[l.TimeDim] == 0 {
		return targeterr.Shapef("layout", "time dimension is empty")
	}
	for i, d := range l.BatchShape {
		if d < 1 {
			return targeterr.Shapef("layout", "batch dimension %d is empty "+
				"\n\thave(%v)", i, l.BatchShape)
		}
	}
	return nil
}

// HasTime returns whether the layout has a time dimension
func (l Layout) HasTime() bool {
	return l.TimeDim != NoTimeDim
}

// T returns the number of time steps in the layout, which is 1 if the
// layout has no time dimension
func (l Layout) T() int {
	if !l.HasTime() {
		return 1
	}
	return l.BatchShape[l.TimeDim]
}

// Size returns the total number of transitions in the layout
func (l Layout) Size() int {
	return l.BatchShape.TotalSize()
}

// Check returns an error if the shape of t does not start with the
// layout's batch shape. The name is used in error messages.
func (l Layout) Check(name string, t *tensor.Dense) error {
	shape := t.Shape()
	if len(shape) < len(l.BatchShape) {
		return targeterr.Shapef("layout", "%s has too few dimensions "+
			"\n\twant(%v, ...)\n\thave(%v)", name, l.BatchShape, shape)
	}
	if !tensorutils.ShapeEq(shape[:len(l.BatchShape)], l.BatchShape) {
		return targeterr.Shapef("layout", "%s has wrong batch shape "+
			"\n\twant(%v, ...)\n\thave(%v)", name, l.BatchShape, shape)
	}
	return nil
}
