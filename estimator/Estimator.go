// Package estimator implements value estimators: objects that compute
// the advantages and value targets of a batch of transitions from the
// predictions of a value function.
//
// A value estimator calls its value function on the current and next
// observations of a batch, then hands the rewards, termination flags
// and values to one of the estimators of package returns. Predictions
// are always made in held out mode, so that no prediction used as a
// target aliases the weights it was computed with.
package estimator

import (
	"fmt"
	"os"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/returns"
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/matutils"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gorgonia.org/tensor"
)

// Type describes the kind of a ValueEstimator
type Type string

const (
	TD0Estimate      Type = "TD0"
	TD1Estimate      Type = "TD1"
	TDLambdaEstimate Type = "TDLambda"
	GAEEstimate      Type = "GAE"
)

// Options holds the optional inputs of a call to a ValueEstimator.
//
// Params are the weights used to predict the values of the current
// observations and TargetParams the weights used to predict the values
// of the next observations. If TargetParams is nil, a detached copy of
// Params is used. Both are ignored by value functions that are not
// stateless.
//
// Value and NextValue are predictions of the current and next values
// computed by the caller. When present, the value function is not
// called for them.
type Options struct {
	Params       *network.Params
	TargetParams *network.Params
	Value        *tensor.Dense
	NextValue    *tensor.Dense
}

// Result is the output of a ValueEstimator. Tracked is metadata only: it
// reports whether the estimator was configured as differentiable. The
// returned tensors are plain copies and never hold gradient information.
type Result struct {
	Advantage   *tensor.Dense
	ValueTarget *tensor.Dense
	Value       *tensor.Dense
	Tracked     bool
}

// ValueEstimator computes advantages and value targets of batches of
// transitions
type ValueEstimator interface {
	// Estimate returns the advantages and value targets of the batch
	Estimate(b *batch.Batch, opts Options) (Result, error)

	// ValueEstimate returns only the value targets of the batch. It
	// does not predict the current values unless the estimator needs
	// them to compute its targets.
	ValueEstimate(b *batch.Batch, opts Options) (*tensor.Dense, error)

	// SetStepper sets the Stepper used to find the next observations
	// of a batch
	SetStepper(s batch.Stepper)

	// Type returns the type of the estimator
	Type() Type
}

// base implements the functionality shared by all value estimators
type base struct {
	valueFn        network.ValueFunc
	stepper        batch.Stepper
	gamma          float64
	differentiable bool
}

func newBase(valueFn network.ValueFunc, gamma float64,
	differentiable bool) base {
	return base{
		valueFn:        valueFn,
		stepper:        batch.NextStep{},
		gamma:          gamma,
		differentiable: differentiable,
	}
}

// SetStepper implements the ValueEstimator interface
func (e *base) SetStepper(s batch.Stepper) {
	e.stepper = s
}

// mode returns the Mode in which the value function is called. Calls are
// always held out, so Grad is passed on to the value function but a
// held-out prediction never binds gradients to its weights.
func (e *base) mode() network.Mode {
	return network.Mode{Grad: e.differentiable, HeldOut: true}
}

// validate returns an error if the batch cannot be estimated
func (e *base) validate(op string, b *batch.Batch) error {
	if b == nil {
		return targeterr.Shapef(op, "nil batch")
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// predict returns the values of the current observations of b
func (e *base) predict(op string, b *batch.Batch,
	params *network.Params) (*tensor.Dense, error) {
	if e.valueFn == nil {
		return nil, targeterr.Unsupportedf(op, "no value function to "+
			"predict values with")
	}
	if e.valueFn.Stateless() && params == nil {
		return nil, targeterr.MissingParameterf(op, "stateless value "+
			"function called without parameters")
	}
	if b.Observation == nil {
		return nil, targeterr.Shapef(op, "batch has no observations")
	}

	value, err := e.valueFn.Predict(b.Observation, params, e.mode())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := b.Check("value", value); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

// value returns the values of the current observations, either given
// in opts or predicted with opts.Params
func (e *base) value(op string, b *batch.Batch,
	opts Options) (*tensor.Dense, error) {
	if opts.Value != nil {
		if err := b.Check("value", opts.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return opts.Value, nil
	}
	return e.predict(op, b, opts.Params)
}

// nextValue returns the values of the next observations, either given
// in opts or predicted with the target parameters
func (e *base) nextValue(op string, b *batch.Batch,
	opts Options) (*tensor.Dense, error) {
	if opts.NextValue != nil {
		if err := b.Check("next value", opts.NextValue); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return opts.NextValue, nil
	}

	next, err := e.stepper.Step(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e.predict(op, next, targetParams(opts))
}

// targetParams returns the parameters for predicting next values
func targetParams(opts Options) *network.Params {
	if opts.TargetParams != nil {
		return opts.TargetParams
	}
	if opts.Params != nil {
		return opts.Params.Detach()
	}
	return nil
}

// discount returns the per-transition discount of the batch
func (e *base) discount(op string, b *batch.Batch) (*tensor.Dense, error) {
	if b.StepsToNextObs == nil {
		shape := make(tensor.Shape, len(b.Next.Reward.Shape()))
		for i := range shape {
			shape[i] = 1
		}
		return returns.Discount(e.gamma, nil, shape)
	}

	steps, err := b.Steps()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return returns.Discount(e.gamma, steps, b.StepsToNextObs.Shape())
}

// standardizeRewards standardizes the rewards of the batch in place,
// replacing b.Next.Reward
func standardizeRewards(op string, b *batch.Batch) error {
	reward, err := tensorutils.Float64s(b.Next.Reward)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if len(reward) < 2 {
		fmt.Fprintf(os.Stderr, "Warning: standardizing a single reward "+
			"in %s\n", op)
	}

	standardized, err := returns.Standardize(b.Next.Reward, matutils.MinStd)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	b.Next.Reward = standardized
	return nil
}

// timeDim returns the time dimension of the batch to pass to package
// returns
func timeDim(b *batch.Batch) int {
	if !b.HasTime() {
		return -1
	}
	return b.TimeDim
}

// subtract returns x - y, broadcasting y to the shape of x
func subtract(op string, x, y *tensor.Dense) (*tensor.Dense, error) {
	shape, err := tensorutils.BroadcastShape(x.Shape(), y.Shape())
	if err != nil {
		return nil, targeterr.Shapef(op, "%v", err)
	}

	xd, err := tensorutils.Float64s(x)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	yd, err := tensorutils.Float64s(y)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	xd = tensorutils.Expand(xd, x.Shape(), shape)
	yd = tensorutils.Expand(yd, y.Shape(), shape)

	out := make([]float64, len(xd))
	for i := range out {
		out[i] = xd[i] - yd[i]
	}
	return tensorutils.New(out, shape), nil
}
