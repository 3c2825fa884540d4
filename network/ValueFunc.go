// Package network implements the value functions that estimators call
// to predict the values of observations: adapters for plain functions,
// and gorgonia neural networks whose weights are passed in explicitly
// as Params snapshots.
package network

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// Mode determines how a value function is invoked.
//
// If HeldOut is set, the value function is invoked for a prediction
// that is only used as a frozen target: the prediction must not share
// memory with, or record gradient information for, the weights it was
// given. If Grad is set, the prediction may take part in gradient
// computation.
type Mode struct {
	Grad    bool
	HeldOut bool
}

// ValueFunc predicts the values of a batch of observations. Given
// observations of shape [*L, F], a ValueFunc predicts values of shape
// [*L, O], where O is 1 for state value functions and the number of
// actions for action value functions.
//
// A Stateless ValueFunc holds no weights of its own and must be given
// Params on each call. Other value functions ignore the Params they
// are given.
type ValueFunc interface {
	Predict(obs *tensor.Dense, params *Params, mode Mode) (*tensor.Dense,
		error)
	Stateless() bool
}

// Func adapts a plain function of observations to a ValueFunc
type Func func(obs *tensor.Dense) (*tensor.Dense, error)

// Predict implements the ValueFunc interface
func (f Func) Predict(obs *tensor.Dense, _ *Params, _ Mode) (*tensor.Dense,
	error) {
	return f(obs)
}

// Stateless implements the ValueFunc interface
func (f Func) Stateless() bool {
	return false
}

// Greedy wraps an action value function to predict the value of the
// greedy action in each state, max_a q(s, a). Predictions have shape
// [*L, 1].
type Greedy struct {
	ValueFunc
}

// Predict implements the ValueFunc interface
func (g Greedy) Predict(obs *tensor.Dense, params *Params,
	mode Mode) (*tensor.Dense, error) {
	q, err := g.ValueFunc.Predict(obs, params, mode)
	if err != nil {
		return nil, err
	}

	data, err := tensorutils.Float64s(q)
	if err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	shape := q.Shape()
	actions := shape[len(shape)-1]
	if actions == 0 {
		return nil, fmt.Errorf("predict: no actions to maximize over")
	}

	rows := len(data) / actions
	max := make([]float64, rows)
	for i := range max {
		max[i] = floats.Max(data[i*actions : (i+1)*actions])
	}

	outShape := shape.Clone()
	outShape[len(outShape)-1] = 1
	return tensorutils.New(max, outShape), nil
}
