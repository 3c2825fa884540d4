package loss

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/estimator"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gorgonia.org/tensor"
)

// DQNConfig configures a DQN loss. If Estimator is nil, TD(0) targets
// with the default discount are used.
type DQNConfig struct {
	ActionSpace batch.ActionSpace
	Distance    Distance
	Estimator   estimator.Config
}

// DQN implements the deep Q-learning loss. Action values of the taken
// actions are regressed onto targets bootstrapped from the greedy
// action values of the next observations.
type DQN struct {
	qFn      network.ValueFunc
	target   estimator.ValueEstimator
	space    batch.ActionSpace
	distance Distance
}

// NewDQN returns a new DQN loss of the action value function qFn,
// which maps observations of shape [*L, F] to action values of shape
// [*L, A].
func NewDQN(qFn network.ValueFunc, c DQNConfig) (*DQN, error) {
	if c.Distance == "" {
		c.Distance = L2
	}
	if err := c.Distance.Validate(); err != nil {
		return nil, fmt.Errorf("newDQN: %v", err)
	}

	ec := c.Estimator
	if ec == nil {
		var err error
		if ec, err = estimator.DefaultConfig(estimator.TD0Estimate); err != nil {
			return nil, err
		}
	}
	if ec.Type() == estimator.GAEEstimate {
		return nil, targeterr.Unsupportedf("newDQN", "cannot bootstrap "+
			"action values with %v", ec.Type())
	}

	target, err := ec.Create(network.Greedy{ValueFunc: qFn})
	if err != nil {
		return nil, fmt.Errorf("newDQN: %w", err)
	}

	return &DQN{
		qFn:      qFn,
		target:   target,
		space:    c.ActionSpace,
		distance: c.Distance,
	}, nil
}

// Forward computes the loss over a batch. The action values of the
// batch are predicted with params, and the values of next observations
// with targetParams, or a detached copy of params if targetParams is
// nil.
func (d *DQN) Forward(b *batch.Batch, params,
	targetParams *network.Params) (Output, error) {
	const op = "dqn"
	if b == nil || b.Observation == nil || b.Action == nil {
		return Output{}, targeterr.Shapef(op, "batch requires "+
			"observations and actions")
	}
	if err := b.Validate(); err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}
	if d.qFn.Stateless() && params == nil {
		return Output{}, targeterr.MissingParameterf(op, "stateless value "+
			"function called without parameters")
	}

	q, err := d.qFn.Predict(b.Observation, params, network.Mode{Grad: true})
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}
	pred, err := batch.SelectAction(q, b.Action, d.space, len(b.BatchShape))
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}

	target, err := d.target.ValueEstimate(b, estimator.Options{
		Params:       params,
		TargetParams: targetParams,
	})
	if err != nil {
		return Output{}, err
	}

	predData, err := tensorutils.Float64s(pred)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %v", op, err)
	}
	targetData, err := tensorutils.Float64s(target)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %v", op, err)
	}
	if len(predData) != len(targetData) {
		return Output{}, targeterr.Shapef(op, "predictions and targets "+
			"differ in size \n\twant(%v)\n\thave(%v)", len(predData),
			len(targetData))
	}

	priority := make([]float64, len(predData))
	for i := range priority {
		priority[i] = L2.Of(predData[i], targetData[i])
	}

	losses, err := DistanceLoss(pred, target, d.distance)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}
	loss, err := mean(losses)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %v", op, err)
	}

	return Output{
		Loss:     loss,
		Priority: tensorutils.New(priority, priorityShape(b)),
	}, nil
}

// priorityShape returns the shape of per-transition priorities
func priorityShape(b *batch.Batch) tensor.Shape {
	return append(b.BatchShape.Clone(), 1)
}
