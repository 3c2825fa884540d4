package returns

import (
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gorgonia.org/tensor"
)

// GAE computes generalized advantage estimates (GAE(λ)) following
// https://arxiv.org/abs/1506.02438 and the value targets derived from
// them. With TD errors
//
//	δ[t] = reward[t] + discount[t] * (1 - done[t]) * nextValue[t] - value[t]
//
// the advantages satisfy
//
//	A[t] = δ[t] + discount[t] * λ * (1 - done[t]) * A[t+1],	A[T] = 0
//
// and the value target is A + value. GAE runs a backward loop over
// time; VecGAE computes the same estimates in closed form.
func GAE(discount *tensor.Dense, lambda float64, value, nextValue, reward,
	done *tensor.Dense, timeDim int) (advantage, target *tensor.Dense,
	err error) {
	return gae("gae", discount, lambda, value, nextValue, reward, done,
		timeDim, false)
}

// VecGAE computes generalized advantage estimates in vectorized form.
// See GAE.
func VecGAE(discount *tensor.Dense, lambda float64, value, nextValue, reward,
	done *tensor.Dense, timeDim int) (advantage, target *tensor.Dense,
	err error) {
	return gae("vecGAE", discount, lambda, value, nextValue, reward, done,
		timeDim, true)
}

func gae(op string, discount *tensor.Dense, lambda float64, value,
	nextValue, reward, done *tensor.Dense, timeDim int,
	vectorized bool) (*tensor.Dense, *tensor.Dense, error) {
	if value == nil {
		return nil, nil, missingValue(op)
	}
	in, err := prepare(op, timeDim, discount, nextValue, reward, done, value)
	if err != nil {
		return nil, nil, err
	}

	delta := make([]float64, len(in.reward))
	c := make([]float64, len(in.reward))
	for i := range delta {
		g := in.discount[i] * in.notDone[i]
		delta[i] = in.reward[i] + g*in.nextValue[i] - in.value[i]
		c[i] = g * lambda
	}

	adv := scan(delta, c, in.lanes, vectorized)
	target := make([]float64, len(adv))
	for i := range target {
		target[i] = adv[i] + in.value[i]
	}

	return tensorutils.New(adv, in.shape), tensorutils.New(target, in.shape), nil
}
