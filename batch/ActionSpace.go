package batch

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gorgonia.org/tensor"
)

// ActionSpace determines how the actions of a batch are represented
type ActionSpace int

const (
	// OneHot actions are a vector over actions with a single 1
	OneHot ActionSpace = iota

	// MultiOneHot actions are a concatenation of one-hot vectors. Only
	// a single action may be selected per transition.
	MultiOneHot

	// Binary actions are a binary mask over actions. Only a single
	// action may be selected per transition.
	Binary

	// Categorical actions are integer action indices stored as floats
	Categorical
)

func (a ActionSpace) String() string {
	switch a {
	case OneHot:
		return "one_hot"
	case MultiOneHot:
		return "mult_one_hot"
	case Binary:
		return "binary"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// IsMask returns whether actions of the space are masks over actions
func (a ActionSpace) IsMask() bool {
	return a == OneHot || a == MultiOneHot || a == Binary
}

// ParseActionSpace returns the ActionSpace named by s
func ParseActionSpace(s string) (ActionSpace, error) {
	for _, a := range []ActionSpace{OneHot, MultiOneHot, Binary, Categorical} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("parseActionSpace: unknown action space %v", s)
}

// Indices returns the index of the action taken in each of n
// transitions. Mask actions must have exactly one selected action out
// of numActions per transition, and categorical actions must be
// integers in [0, numActions).
func Indices(action *tensor.Dense, space ActionSpace, n,
	numActions int) ([]int, error) {
	data, err := tensorutils.Float64s(action)
	if err != nil {
		return nil, fmt.Errorf("indices: %v", err)
	}
	indices := make([]int, n)

	if space.IsMask() {
		if len(data) != n*numActions {
			return nil, targeterr.Shapef("indices", "action mask has wrong "+
				"size \n\twant(%v)\n\thave(%v)", n*numActions, len(data))
		}
		for i := 0; i < n; i++ {
			hot := 0
			for a, v := range data[i*numActions : (i+1)*numActions] {
				if v != 0 {
					hot++
					indices[i] = a
				}
			}
			if hot != 1 {
				return nil, targeterr.Shapef("indices", "action mask %d "+
					"must select exactly one action \n\thave(%v)", i, hot)
			}
		}
		return indices, nil
	}

	if len(data) != n {
		return nil, targeterr.Shapef("indices", "categorical actions have "+
			"wrong size \n\twant(%v)\n\thave(%v)", n, len(data))
	}
	for i, v := range data {
		if v != math.Trunc(v) || v < 0 || int(v) >= numActions {
			return nil, targeterr.Shapef("indices", "categorical action "+
				"out of range \n\twant([0, %d))\n\thave(%v)", numActions, v)
		}
		indices[i] = int(v)
	}
	return indices, nil
}

// SelectAction returns the values of the actions taken. The values
// tensor has shape [*L, *M, A] where L are the leadDims leading
// dimensions indexing transitions and A is the number of actions. The
// action tensor holds one action per transition in the representation
// given by space. The result has shape [*L, *M, 1].
func SelectAction(values, action *tensor.Dense, space ActionSpace,
	leadDims int) (*tensor.Dense, error) {
	shape := values.Shape()
	if leadDims < 1 || leadDims >= len(shape) {
		return nil, targeterr.Shapef("selectAction", "values of shape %v "+
			"cannot have %d leading dimensions", shape, leadDims)
	}

	n := tensor.Shape(shape[:leadDims]).TotalSize()
	numActions := shape[len(shape)-1]
	mid := tensor.Shape(shape[leadDims : len(shape)-1]).TotalSize()

	indices, err := Indices(action, space, n, numActions)
	if err != nil {
		return nil, err
	}

	data, err := tensorutils.Float64s(values)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %v", err)
	}

	out := make([]float64, n*mid)
	for i := 0; i < n; i++ {
		for j := 0; j < mid; j++ {
			out[i*mid+j] = data[(i*mid+j)*numActions+indices[i]]
		}
	}

	outShape := shape.Clone()
	outShape[len(outShape)-1] = 1
	return tensorutils.New(out, outShape), nil
}
