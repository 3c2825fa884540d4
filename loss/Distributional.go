package loss

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/distributional"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// CrossEntropy returns -Σ_z m[n, z] log p[n, z] for each row n of the
// target mass m and log probabilities logp, both of shape [N, Z]. The
// result has shape [N].
func CrossEntropy(m, logp *tensor.Dense) (*tensor.Dense, error) {
	if !tensorutils.ShapeEq(m.Shape(), logp.Shape()) ||
		len(m.Shape()) != 2 {
		return nil, targeterr.Shapef("crossEntropy", "illegal shapes "+
			"\n\twant([N, Z], [N, Z])\n\thave(%v, %v)", m.Shape(),
			logp.Shape())
	}
	N, Z := m.Shape()[0], m.Shape()[1]

	md, err := tensorutils.Float64s(m)
	if err != nil {
		return nil, fmt.Errorf("crossEntropy: %v", err)
	}
	pd, err := tensorutils.Float64s(logp)
	if err != nil {
		return nil, fmt.Errorf("crossEntropy: %v", err)
	}

	ce := make([]float64, N)
	for n := range ce {
		ce[n] = -floats.Dot(md[n*Z:(n+1)*Z], pd[n*Z:(n+1)*Z])
	}
	return tensorutils.New(ce, tensor.Shape{N}), nil
}

// DistributionalDQN implements the categorical distributional
// Q-learning loss, the cross-entropy between the projected target
// distribution and the predicted distribution of the taken actions.
type DistributionalDQN struct {
	projector *distributional.Projector
}

// NewDistributionalDQN returns a new distributional DQN loss of the
// categorical value function valueFn
func NewDistributionalDQN(valueFn network.ValueFunc,
	c distributional.Config) (*DistributionalDQN, error) {
	p, err := c.Create(valueFn)
	if err != nil {
		return nil, fmt.Errorf("newDistributionalDQN: %w", err)
	}
	return &DistributionalDQN{projector: p}, nil
}

// Forward computes the loss over a batch with a single batch dimension.
// The priority of each transition is its cross-entropy.
func (d *DistributionalDQN) Forward(b *batch.Batch, params,
	targetParams *network.Params) (Output, error) {
	out, err := d.projector.Target(b, params, targetParams)
	if err != nil {
		return Output{}, fmt.Errorf("distributionalDQN: %w", err)
	}

	ce, err := CrossEntropy(out.M, out.LogPsA)
	if err != nil {
		return Output{}, err
	}
	loss, err := mean(ce)
	if err != nil {
		return Output{}, fmt.Errorf("distributionalDQN: %v", err)
	}

	if err := ce.Reshape(priorityShape(b)...); err != nil {
		return Output{}, fmt.Errorf("distributionalDQN: %v", err)
	}
	return Output{Loss: loss, Priority: ce}, nil
}
