// Package tensorutils implements utilities for working with the
// *tensor.Dense values that hold batches of transitions: typed access to
// backing data, broadcasting, slicing along an axis and iteration over
// the one-dimensional lanes of a tensor along its time axis.
package tensorutils

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Slice implements a struct that can be used for slicing tensors.
//
// Given a tensor T and a Slice S, T.Slice(..., S, ...) is equivalent to
// T[..., S.start:S.end:S.step, ...]
type Slice struct {
	start, end, step int
}

// Start returns the start index for the tensor slice
func (s Slice) Start() int {
	return s.start
}

// End returns the ending index for the tensor slice
func (s Slice) End() int {
	return s.end
}

// Step returns the step for the tensor slice
func (s Slice) Step() int {
	return s.step
}

// Len returns the number of indices selected by the slice
func (s Slice) Len() int {
	if s.step <= 0 || s.end <= s.start {
		return 0
	}
	return (s.end - s.start + s.step - 1) / s.step
}

// NewSlice returns a new Slice that can be used to slice tensors
func NewSlice(start, stop, step int) Slice {
	return Slice{start, stop, step}
}

// Float64s returns the backing data of a float64 tensor in row major
// order. Views are materialized first.
func Float64s(t *tensor.Dense) ([]float64, error) {
	if t == nil {
		return nil, fmt.Errorf("float64s: nil tensor")
	}
	if t.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("float64s: illegal dtype \n\twant(%v)"+
			"\n\thave(%v)", tensor.Float64, t.Dtype())
	}
	t = materialize(t)
	if t.Shape().IsScalar() {
		return []float64{t.ScalarValue().(float64)}, nil
	}
	return t.Data().([]float64), nil
}

// NotDone returns 1 - done for each element of a termination tensor.
// Termination flags may be stored as bools or as float64 0/1 values.
func NotDone(done *tensor.Dense) ([]float64, error) {
	if done == nil {
		return nil, fmt.Errorf("notdone: nil tensor")
	}
	done = materialize(done)

	switch done.Dtype() {
	case tensor.Bool:
		flags := done.Data().([]bool)
		out := make([]float64, len(flags))
		for i, d := range flags {
			if !d {
				out[i] = 1.0
			}
		}
		return out, nil

	case tensor.Float64:
		flags := done.Data().([]float64)
		out := make([]float64, len(flags))
		for i, d := range flags {
			out[i] = 1.0 - d
		}
		return out, nil

	default:
		return nil, fmt.Errorf("notdone: illegal dtype %v for termination "+
			"flags", done.Dtype())
	}
}

// New returns a new float64 tensor with the given backing data and
// shape.
func New(data []float64, shape tensor.Shape) *tensor.Dense {
	return tensor.New(
		tensor.WithShape(shape.Clone()...),
		tensor.WithBacking(data),
	)
}

func materialize(t *tensor.Dense) *tensor.Dense {
	if !t.IsMaterializable() {
		return t
	}
	return t.Materialize().(*tensor.Dense)
}

// BroadcastShape returns the shape that all argument shapes broadcast
// to. Shapes must have the same number of dimensions, and along each
// dimension either agree or have size 1.
func BroadcastShape(shapes ...tensor.Shape) (tensor.Shape, error) {
	if len(shapes) == 0 {
		return nil, fmt.Errorf("broadcastshape: no shapes given")
	}

	out := shapes[0].Clone()
	for _, s := range shapes[1:] {
		if len(s) != len(out) {
			return nil, fmt.Errorf("broadcastshape: cannot broadcast %v "+
				"with %v: differing number of dimensions", out, s)
		}
		for i := range s {
			switch {
			case s[i] == out[i]:
			case out[i] == 1:
				out[i] = s[i]
			case s[i] == 1:
			default:
				return nil, fmt.Errorf("broadcastshape: cannot broadcast "+
					"%v with %v along dimension %d", out, s, i)
			}
		}
	}
	return out, nil
}

// Expand broadcasts row major data of shape from into shape to. The
// shape from must be broadcastable to the shape to. If the shapes are
// equal, data is returned unchanged.
func Expand(data []float64, from, to tensor.Shape) []float64 {
	if ShapeEq(from, to) {
		return data
	}

	fromStrides := strides(from)
	toStrides := strides(to)
	out := make([]float64, to.TotalSize())

	for i := range out {
		rem := i
		src := 0
		for d := range to {
			idx := rem / toStrides[d]
			rem %= toStrides[d]
			if from[d] != 1 {
				src += idx * fromStrides[d]
			}
		}
		out[i] = data[src]
	}
	return out
}

// ShapeEq returns whether two shapes have the same dimensions. Unlike
// tensor.Shape.Eq, a column vector and a vector are not equal.
func ShapeEq(a, b tensor.Shape) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// strides returns the row major strides of a shape
func strides(shape tensor.Shape) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// Lanes describes the one-dimensional lanes of a row major tensor along
// a single axis. A tensor of shape [*outer, n, *inner] has
// prod(outer) * prod(inner) lanes each of length n.
type Lanes struct {
	outer, length, inner int
}

// NewLanes returns the Lanes of a tensor of the given shape along axis
func NewLanes(shape tensor.Shape, axis int) (Lanes, error) {
	if axis < 0 || axis >= len(shape) {
		return Lanes{}, fmt.Errorf("newlanes: axis %d out of range for "+
			"shape %v", axis, shape)
	}

	outer := 1
	for _, d := range shape[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	return Lanes{outer: outer, length: shape[axis], inner: inner}, nil
}

// Count returns the number of lanes
func (l Lanes) Count() int {
	return l.outer * l.inner
}

// Len returns the length of each lane
func (l Lanes) Len() int {
	return l.length
}

// Index returns the position in the row major backing data of element
// t of lane
func (l Lanes) Index(lane, t int) int {
	o, i := lane/l.inner, lane%l.inner
	return o*l.length*l.inner + t*l.inner + i
}

// Gather copies lane from data into dst, which must have length Len()
func (l Lanes) Gather(data []float64, lane int, dst []float64) {
	for t := range dst {
		dst[t] = data[l.Index(lane, t)]
	}
}

// Scatter copies src into lane of data
func (l Lanes) Scatter(data []float64, lane int, src []float64) {
	for t, v := range src {
		data[l.Index(lane, t)] = v
	}
}

// Take returns a copy of the elements of t selected by s along axis.
// Unlike tensor views, the result is always materialized and keeps
// every dimension of t, even when s selects a single index.
func Take(t *tensor.Dense, axis int, s Slice) (*tensor.Dense, error) {
	shape := t.Shape()
	lanes, err := NewLanes(shape, axis)
	if err != nil {
		return nil, fmt.Errorf("take: %v", err)
	}
	if s.start < 0 || s.end > lanes.Len() || s.Len() == 0 {
		return nil, fmt.Errorf("take: illegal slice [%d:%d:%d] for axis "+
			"of size %d", s.start, s.end, s.step, lanes.Len())
	}

	newShape := shape.Clone()
	newShape[axis] = s.Len()
	out, err := NewLanes(newShape, axis)
	if err != nil {
		return nil, fmt.Errorf("take: %v", err)
	}

	t = materialize(t)
	switch t.Dtype() {
	case tensor.Float64:
		src := t.Data().([]float64)
		dst := make([]float64, newShape.TotalSize())
		for lane := 0; lane < lanes.Count(); lane++ {
			for j, i := 0, s.start; i < s.end; i, j = i+s.step, j+1 {
				dst[out.Index(lane, j)] = src[lanes.Index(lane, i)]
			}
		}
		return New(dst, newShape), nil

	case tensor.Bool:
		src := t.Data().([]bool)
		dst := make([]bool, newShape.TotalSize())
		for lane := 0; lane < lanes.Count(); lane++ {
			for j, i := 0, s.start; i < s.end; i, j = i+s.step, j+1 {
				dst[out.Index(lane, j)] = src[lanes.Index(lane, i)]
			}
		}
		return tensor.New(tensor.WithShape(newShape...),
			tensor.WithBacking(dst)), nil

	default:
		return nil, fmt.Errorf("take: illegal dtype %v", t.Dtype())
	}
}

// Squeeze returns a copy of t with dimension axis removed. The
// dimension must have size 1.
func Squeeze(t *tensor.Dense, axis int) (*tensor.Dense, error) {
	shape := t.Shape()
	if axis < 0 || axis >= len(shape) || shape[axis] != 1 {
		return nil, fmt.Errorf("squeeze: cannot squeeze axis %d of shape %v",
			axis, shape)
	}

	newShape := make(tensor.Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:axis]...)
	newShape = append(newShape, shape[axis+1:]...)

	c := materialize(t).Clone().(*tensor.Dense)
	if err := c.Reshape(newShape...); err != nil {
		return nil, fmt.Errorf("squeeze: %v", err)
	}
	return c, nil
}
