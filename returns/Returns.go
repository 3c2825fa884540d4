// Package returns implements functional return and advantage
// estimators over batches of transitions: TD(0), TD(1), TD(λ) and
// generalized advantage estimation (GAE).
//
// Every estimator takes real-valued tensors of rewards, termination
// flags, (next) state values and discounts which must broadcast
// together: tensors must have the same number of dimensions and along
// each dimension either agree or have size 1. Estimators that recurse
// over time take the index of the time dimension of the broadcast
// shape. A negative time dimension treats every element as a
// trajectory of a single step.
//
// The recursive estimators come in two forms, a sequential form that
// runs a backward loop over each trajectory and a vectorized form that
// computes the same targets in closed form through matrix products.
// Both forms compute the same targets up to floating point error.
package returns

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/matutils"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gorgonia.org/tensor"
)

// Discount returns the tensor of per-transition discounts ℽ^k of the
// given shape, where k is the number of steps to the next observation
// of each transition. If steps is nil, every transition is discounted
// by ℽ.
func Discount(gamma float64, steps []float64, shape tensor.Shape) (*tensor.Dense, error) {
	size := shape.TotalSize()
	discount := make([]float64, size)

	if steps == nil {
		for i := range discount {
			discount[i] = gamma
		}
		return tensorutils.New(discount, shape), nil
	}

	if len(steps) != size {
		return nil, targeterr.Shapef("discount", "steps to next observation "+
			"must have one element per transition \n\twant(%v)\n\thave(%v)",
			size, len(steps))
	}
	for i, k := range steps {
		discount[i] = math.Pow(gamma, k)
	}
	return tensorutils.New(discount, shape), nil
}

// TD0 computes the TD(0) target
//
//	target = reward + discount * (1 - done) * nextValue
//
// for each transition independently.
func TD0(discount, nextValue, reward, done *tensor.Dense) (*tensor.Dense, error) {
	in, err := prepare("td0", -1, discount, nextValue, reward, done, nil)
	if err != nil {
		return nil, err
	}

	target := make([]float64, len(in.reward))
	for i := range target {
		target[i] = in.reward[i] + in.discount[i]*in.notDone[i]*in.nextValue[i]
	}
	return tensorutils.New(target, in.shape), nil
}

// Standardize returns a copy of x standardized to zero mean and unit
// standard deviation over all elements. The standard deviation is
// bounded below by minStd.
func Standardize(x *tensor.Dense, minStd float64) (*tensor.Dense, error) {
	data, err := tensorutils.Float64s(x)
	if err != nil {
		return nil, fmt.Errorf("standardize: %v", err)
	}

	out := make([]float64, len(data))
	copy(out, data)
	matutils.Standardize(out, minStd)
	return tensorutils.New(out, x.Shape()), nil
}

// inputs holds the broadcast inputs of an estimator in row major order
type inputs struct {
	shape tensor.Shape
	lanes tensorutils.Lanes

	discount  []float64
	nextValue []float64
	reward    []float64
	notDone   []float64
	value     []float64
}

// prepare broadcasts the inputs of an estimator to a common shape and
// computes the lanes of that shape along the time dimension. The value
// tensor is optional.
func prepare(op string, timeDim int, discount, nextValue, reward, done,
	value *tensor.Dense) (*inputs, error) {
	named := []struct {
		name string
		t    *tensor.Dense
	}{
		{"discount", discount},
		{"next value", nextValue},
		{"reward", reward},
		{"done", done},
	}
	if value != nil {
		named = append(named, struct {
			name string
			t    *tensor.Dense
		}{"value", value})
	}

	shapes := make([]tensor.Shape, 0, len(named))
	for _, n := range named {
		if n.t == nil {
			return nil, targeterr.Shapef(op, "%s is nil", n.name)
		}
		shapes = append(shapes, n.t.Shape())
	}

	shape, err := tensorutils.BroadcastShape(shapes...)
	if err != nil {
		return nil, targeterr.Shapef(op, "%v", err)
	}
	if len(shape) == 0 {
		return nil, targeterr.Shapef(op, "inputs must have at least one "+
			"dimension")
	}

	in := &inputs{shape: shape}
	if timeDim < 0 {
		in.lanes, err = tensorutils.NewLanes(tensor.Shape{shape.TotalSize(), 1},
			1)
	} else {
		in.lanes, err = tensorutils.NewLanes(shape, timeDim)
	}
	if err != nil {
		return nil, targeterr.Shapef(op, "%v", err)
	}
	if in.lanes.Len() == 0 {
		return nil, targeterr.Shapef(op, "time dimension is empty")
	}

	expand := func(t *tensor.Dense) ([]float64, error) {
		data, err := tensorutils.Float64s(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		return tensorutils.Expand(data, t.Shape(), shape), nil
	}

	if in.discount, err = expand(discount); err != nil {
		return nil, err
	}
	if in.nextValue, err = expand(nextValue); err != nil {
		return nil, err
	}
	if in.reward, err = expand(reward); err != nil {
		return nil, err
	}
	if value != nil {
		if in.value, err = expand(value); err != nil {
			return nil, err
		}
	}

	notDone, err := tensorutils.NotDone(done)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	in.notDone = tensorutils.Expand(notDone, done.Shape(), shape)

	return in, nil
}

func missingValue(op string) error {
	return targeterr.Shapef(op, "value is nil")
}
