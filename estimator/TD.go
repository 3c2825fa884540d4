package estimator

import (
	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/returns"
	"gorgonia.org/tensor"
)

// TD0 implements the TD(0) value estimator, which bootstraps the value
// target of each transition from the value of its next observation:
//
//	target = reward + ℽ^k * (1 - done) * v(s')
//
// where k is the number of steps to the next observation.
type TD0 struct {
	base
	averageRewards bool
}

// NewTD0 returns a new TD(0) value estimator. If averageRewards is
// true, rewards are standardized before estimation and the batch's
// rewards are replaced by the standardized rewards.
func NewTD0(valueFn network.ValueFunc, gamma float64, averageRewards,
	differentiable bool) *TD0 {
	return &TD0{
		base:           newBase(valueFn, gamma, differentiable),
		averageRewards: averageRewards,
	}
}

// Type implements the ValueEstimator interface
func (t *TD0) Type() Type {
	return TD0Estimate
}

// Estimate implements the ValueEstimator interface
func (t *TD0) Estimate(b *batch.Batch, opts Options) (Result, error) {
	return estimate("td0", &t.base, t.averageRewards, b, opts, t.target)
}

// ValueEstimate implements the ValueEstimator interface
func (t *TD0) ValueEstimate(b *batch.Batch,
	opts Options) (*tensor.Dense, error) {
	return valueEstimate("td0", &t.base, t.averageRewards, b, opts, t.target)
}

func (t *TD0) target(b *batch.Batch, discount,
	nextValue *tensor.Dense) (*tensor.Dense, error) {
	return returns.TD0(discount, nextValue, b.Next.Reward, b.Next.Done)
}

// TD1 implements the TD(1) value estimator, which computes value
// targets as the discounted sum of rewards until the end of each
// trajectory, bootstrapped from the value of the last next
// observation of the trajectory.
type TD1 struct {
	base
	averageRewards bool
}

// NewTD1 returns a new TD(1) value estimator
func NewTD1(valueFn network.ValueFunc, gamma float64, averageRewards,
	differentiable bool) *TD1 {
	return &TD1{
		base:           newBase(valueFn, gamma, differentiable),
		averageRewards: averageRewards,
	}
}

// Type implements the ValueEstimator interface
func (t *TD1) Type() Type {
	return TD1Estimate
}

// Estimate implements the ValueEstimator interface
func (t *TD1) Estimate(b *batch.Batch, opts Options) (Result, error) {
	return estimate("td1", &t.base, t.averageRewards, b, opts, t.target)
}

// ValueEstimate implements the ValueEstimator interface
func (t *TD1) ValueEstimate(b *batch.Batch,
	opts Options) (*tensor.Dense, error) {
	return valueEstimate("td1", &t.base, t.averageRewards, b, opts, t.target)
}

func (t *TD1) target(b *batch.Batch, discount,
	nextValue *tensor.Dense) (*tensor.Dense, error) {
	return returns.VecTD1(discount, nextValue, b.Next.Reward, b.Next.Done,
		timeDim(b))
}

// TDLambda implements the TD(λ) value estimator, which computes value
// targets as the λ-weighted average of the n-step returns of each
// transition.
type TDLambda struct {
	base
	lambda         float64
	averageRewards bool
	vectorized     bool
}

// NewTDLambda returns a new TD(λ) value estimator. If vectorized is
// true, targets are computed in closed form, otherwise with a backward
// loop over time. Both compute the same targets.
func NewTDLambda(valueFn network.ValueFunc, gamma, lambda float64,
	averageRewards, differentiable, vectorized bool) *TDLambda {
	return &TDLambda{
		base:           newBase(valueFn, gamma, differentiable),
		lambda:         lambda,
		averageRewards: averageRewards,
		vectorized:     vectorized,
	}
}

// Type implements the ValueEstimator interface
func (t *TDLambda) Type() Type {
	return TDLambdaEstimate
}

// Estimate implements the ValueEstimator interface
func (t *TDLambda) Estimate(b *batch.Batch, opts Options) (Result, error) {
	return estimate("tdLambda", &t.base, t.averageRewards, b, opts, t.target)
}

// ValueEstimate implements the ValueEstimator interface
func (t *TDLambda) ValueEstimate(b *batch.Batch,
	opts Options) (*tensor.Dense, error) {
	return valueEstimate("tdLambda", &t.base, t.averageRewards, b, opts,
		t.target)
}

func (t *TDLambda) target(b *batch.Batch, discount,
	nextValue *tensor.Dense) (*tensor.Dense, error) {
	if t.vectorized {
		return returns.VecTDLambda(discount, t.lambda, nextValue,
			b.Next.Reward, b.Next.Done, timeDim(b))
	}
	return returns.TDLambda(discount, t.lambda, nextValue, b.Next.Reward,
		b.Next.Done, timeDim(b))
}

// targetFunc computes value targets from the next values of a batch
type targetFunc func(b *batch.Batch, discount,
	nextValue *tensor.Dense) (*tensor.Dense, error)

// valueEstimate computes the value targets of a batch with a
// bootstrapping estimator
func valueEstimate(op string, e *base, averageRewards bool, b *batch.Batch,
	opts Options, target targetFunc) (*tensor.Dense, error) {
	if err := e.validate(op, b); err != nil {
		return nil, err
	}
	if averageRewards {
		if err := standardizeRewards(op, b); err != nil {
			return nil, err
		}
	}

	nextValue, err := e.nextValue(op, b, opts)
	if err != nil {
		return nil, err
	}
	discount, err := e.discount(op, b)
	if err != nil {
		return nil, err
	}
	return target(b, discount, nextValue)
}

// estimate computes the advantages and value targets of a batch with a
// bootstrapping estimator
func estimate(op string, e *base, averageRewards bool, b *batch.Batch,
	opts Options, target targetFunc) (Result, error) {
	if err := e.validate(op, b); err != nil {
		return Result{}, err
	}

	value, err := e.value(op, b, opts)
	if err != nil {
		return Result{}, err
	}

	valueTarget, err := valueEstimate(op, e, averageRewards, b, opts, target)
	if err != nil {
		return Result{}, err
	}

	advantage, err := subtract(op, valueTarget, value)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Advantage:   advantage,
		ValueTarget: valueTarget,
		Value:       value,
		Tracked:     e.differentiable,
	}, nil
}
