package distributional

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/returns"
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/matutils"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Output is the result of a distributional target computation
type Output struct {
	// M is the projected target mass of shape [N, Z]
	M *tensor.Dense

	// LogPsA holds the online log probabilities of the taken actions
	// over the support, of shape [N, Z]
	LogPsA *tensor.Dense
}

// SelectGreedy returns, for each of the N transitions, the action with
// the largest expected value under the log probabilities logp of shape
// [N, Z, A]. Ties go to the lowest action index.
func SelectGreedy(logp *tensor.Dense, s Support) ([]int, error) {
	shape := logp.Shape()
	if len(shape) != 3 || shape[1] != s.Atoms {
		return nil, targeterr.Shapef("selectGreedy", "illegal shape of log "+
			"probabilities \n\twant([N, %d, A])\n\thave(%v)", s.Atoms, shape)
	}
	N, Z, A := shape[0], shape[1], shape[2]

	data, err := tensorutils.Float64s(logp)
	if err != nil {
		return nil, fmt.Errorf("selectGreedy: %v", err)
	}

	atoms := s.Values()
	actions := make([]int, N)
	expected := mat.NewVecDense(A, nil)
	for n := 0; n < N; n++ {
		expected.Zero()
		for z := 0; z < Z; z++ {
			for a := 0; a < A; a++ {
				p := math.Exp(data[(n*Z+z)*A+a])
				expected.SetVec(a, expected.AtVec(a)+p*atoms[z])
			}
		}
		actions[n] = matutils.MaxVec(expected)
	}
	return actions, nil
}

// ActionProbs returns the probabilities over the support of the given
// actions, exp(logp[n, :, actions[n]]), as a tensor of shape [N, Z]
func ActionProbs(logp *tensor.Dense, actions []int) (*tensor.Dense, error) {
	shape := logp.Shape()
	if len(shape) != 3 || shape[0] != len(actions) {
		return nil, targeterr.Shapef("actionProbs", "illegal shape of log "+
			"probabilities \n\twant([%d, Z, A])\n\thave(%v)", len(actions),
			shape)
	}
	N, Z, A := shape[0], shape[1], shape[2]

	data, err := tensorutils.Float64s(logp)
	if err != nil {
		return nil, fmt.Errorf("actionProbs: %v", err)
	}

	probs := make([]float64, N*Z)
	for n, a := range actions {
		if a < 0 || a >= A {
			return nil, targeterr.Shapef("actionProbs", "action out of "+
				"range \n\twant([0, %d))\n\thave(%v)", A, a)
		}
		for z := 0; z < Z; z++ {
			probs[n*Z+z] = math.Exp(data[(n*Z+z)*A+a])
		}
	}
	return tensorutils.New(probs, tensor.Shape{N, Z}), nil
}

// Target computes the projected categorical target of a batch with a
// single batch dimension of N transitions.
//
// The online log probabilities of the taken actions are predicted with
// params. The next action is always selected greedily by expected value
// under params, even if the batch holds next actions, and its
// probabilities are then evaluated under targetParams. If targetParams
// is nil, a detached copy of params is used instead.
func (p *Projector) Target(b *batch.Batch, params,
	targetParams *network.Params) (Output, error) {
	return p.target(b, params, targetParams, nil)
}

// TargetWithNextActions is like Target, but evaluates the given next
// actions, one per transition, under targetParams instead of selecting
// them with params. The caller is responsible for nextActions being
// greedy with respect to the online weights.
func (p *Projector) TargetWithNextActions(b *batch.Batch, params,
	targetParams *network.Params, nextActions []int) (Output, error) {
	if nextActions == nil {
		return Output{}, targeterr.Shapef("target", "nil next actions")
	}
	return p.target(b, params, targetParams, nextActions)
}

func (p *Projector) target(b *batch.Batch, params,
	targetParams *network.Params, nextActions []int) (Output, error) {
	const op = "target"
	if b == nil {
		return Output{}, targeterr.Shapef(op, "nil batch")
	}
	if err := b.Validate(); err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(b.BatchShape) != 1 || b.HasTime() {
		return Output{}, targeterr.Shapef(op, "distributional targets "+
			"require exactly one batch dimension \n\thave(%v)", b.BatchShape)
	}
	if b.Observation == nil || b.Action == nil {
		return Output{}, targeterr.Shapef(op, "batch requires "+
			"observations and actions")
	}
	if p.valueFn == nil {
		return Output{}, targeterr.Unsupportedf(op, "no value function to "+
			"predict distributions with")
	}
	if p.valueFn.Stateless() && params == nil {
		return Output{}, targeterr.MissingParameterf(op, "stateless value "+
			"function called without parameters")
	}
	N := b.BatchShape[0]

	logp, err := p.predict(b.Observation, params, network.Mode{Grad: true})
	if err != nil {
		return Output{}, err
	}
	logPsA, err := batch.SelectAction(logp, b.Action, p.space, 1)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := logPsA.Reshape(N, p.support.Atoms); err != nil {
		return Output{}, fmt.Errorf("%s: %v", op, err)
	}

	next, err := p.stepper.Step(b)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}
	heldOut := network.Mode{HeldOut: true}

	actions := nextActions
	if actions == nil {
		onlineNext, err := p.predict(next.Observation, params, heldOut)
		if err != nil {
			return Output{}, err
		}
		actions, err = SelectGreedy(onlineNext, p.support)
		if err != nil {
			return Output{}, fmt.Errorf("%s: %w", op, err)
		}
	} else if len(actions) != N {
		return Output{}, targeterr.Shapef(op, "wrong number of next "+
			"actions \n\twant(%v)\n\thave(%v)", N, len(actions))
	}

	if targetParams == nil && params != nil {
		targetParams = params.Detach()
	}
	targetNext, err := p.predict(next.Observation, targetParams, heldOut)
	if err != nil {
		return Output{}, err
	}
	pnsA, err := ActionProbs(targetNext, actions)
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}

	var discount *tensor.Dense
	if b.StepsToNextObs == nil {
		discount, err = returns.Discount(p.gamma, nil, tensor.Shape{N})
	} else {
		var steps []float64
		if steps, err = b.Steps(); err == nil {
			discount, err = returns.Discount(p.gamma, steps, tensor.Shape{N})
		}
	}
	if err != nil {
		return Output{}, fmt.Errorf("%s: %w", op, err)
	}

	m, err := p.Project(b.Next.Reward, b.Next.Done, discount, pnsA)
	if err != nil {
		return Output{}, err
	}
	return Output{M: m, LogPsA: logPsA}, nil
}

// predict returns the log probabilities of shape [N, Z, A] over the
// support of the observations
func (p *Projector) predict(obs *tensor.Dense, params *network.Params,
	mode network.Mode) (*tensor.Dense, error) {
	logp, err := p.valueFn.Predict(obs, params, mode)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	shape := logp.Shape()
	if len(shape) != 3 || shape[1] != p.support.Atoms {
		return nil, targeterr.Shapef("target", "value function must "+
			"predict log probabilities of shape [N, %d, A] \n\thave(%v)",
			p.support.Atoms, shape)
	}
	return logp, nil
}
