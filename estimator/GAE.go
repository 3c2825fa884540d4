package estimator

import (
	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/returns"
	"github.com/samuelfneumann/valuetarget/utils/matutils"
	"gorgonia.org/tensor"
)

// GAE implements the generalized advantage estimator GAE(λ) of
// https://arxiv.org/abs/1506.02438. Unlike the TD estimators, GAE
// needs the values of the current observations to compute value
// targets, so ValueEstimate predicts them with opts.Params.
type GAE struct {
	base
	lambda     float64
	averageGAE bool
	vectorized bool
}

// NewGAE returns a new GAE value estimator. If averageGAE is true,
// advantages are standardized after the value targets are computed
// from them.
func NewGAE(valueFn network.ValueFunc, gamma, lambda float64, averageGAE,
	differentiable, vectorized bool) *GAE {
	return &GAE{
		base:       newBase(valueFn, gamma, differentiable),
		lambda:     lambda,
		averageGAE: averageGAE,
		vectorized: vectorized,
	}
}

// Type implements the ValueEstimator interface
func (g *GAE) Type() Type {
	return GAEEstimate
}

// Estimate implements the ValueEstimator interface
func (g *GAE) Estimate(b *batch.Batch, opts Options) (Result, error) {
	const op = "gae"
	if err := g.validate(op, b); err != nil {
		return Result{}, err
	}

	value, err := g.value(op, b, opts)
	if err != nil {
		return Result{}, err
	}
	nextValue, err := g.nextValue(op, b, opts)
	if err != nil {
		return Result{}, err
	}
	discount, err := g.discount(op, b)
	if err != nil {
		return Result{}, err
	}

	var advantage, valueTarget *tensor.Dense
	if g.vectorized {
		advantage, valueTarget, err = returns.VecGAE(discount, g.lambda,
			value, nextValue, b.Next.Reward, b.Next.Done, timeDim(b))
	} else {
		advantage, valueTarget, err = returns.GAE(discount, g.lambda, value,
			nextValue, b.Next.Reward, b.Next.Done, timeDim(b))
	}
	if err != nil {
		return Result{}, err
	}

	if g.averageGAE {
		advantage, err = returns.Standardize(advantage, matutils.MinStd)
		if err != nil {
			return Result{}, err
		}
	}

	return Result{
		Advantage:   advantage,
		ValueTarget: valueTarget,
		Value:       value,
		Tracked:     g.differentiable,
	}, nil
}

// ValueEstimate implements the ValueEstimator interface
func (g *GAE) ValueEstimate(b *batch.Batch,
	opts Options) (*tensor.Dense, error) {
	result, err := g.Estimate(b, opts)
	if err != nil {
		return nil, err
	}
	return result.ValueTarget, nil
}
