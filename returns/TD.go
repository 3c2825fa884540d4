package returns

import (
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gorgonia.org/tensor"
)

// TD1 computes the TD(1) target, the discounted sum of rewards until
// the end of each trajectory, bootstrapped from the next value of the
// last step:
//
//	G[t] = reward[t] + discount[t] * (1 - done[t]) * G[t+1]
//	G[T-1] = reward[T-1] + discount[T-1] * (1 - done[T-1]) * nextValue[T-1]
//
// A termination resets the return, so that no reward flows past the
// end of an episode. TD1 runs a backward loop over time; VecTD1
// computes the same target in closed form.
func TD1(discount, nextValue, reward, done *tensor.Dense,
	timeDim int) (*tensor.Dense, error) {
	return td1("td1", discount, nextValue, reward, done, timeDim, false)
}

// VecTD1 computes the TD(1) target in vectorized form. See TD1.
func VecTD1(discount, nextValue, reward, done *tensor.Dense,
	timeDim int) (*tensor.Dense, error) {
	return td1("vecTD1", discount, nextValue, reward, done, timeDim, true)
}

func td1(op string, discount, nextValue, reward, done *tensor.Dense,
	timeDim int, vectorized bool) (*tensor.Dense, error) {
	in, err := prepare(op, timeDim, discount, nextValue, reward, done, nil)
	if err != nil {
		return nil, err
	}

	x := make([]float64, len(in.reward))
	c := make([]float64, len(in.reward))
	copy(x, in.reward)
	for i := range c {
		c[i] = in.discount[i] * in.notDone[i]
	}

	// Bootstrap from the last step of each trajectory
	last := in.lanes.Len() - 1
	for lane := 0; lane < in.lanes.Count(); lane++ {
		i := in.lanes.Index(lane, last)
		x[i] += c[i] * in.nextValue[i]
	}

	return tensorutils.New(scan(x, c, in.lanes, vectorized), in.shape), nil
}

// TDLambda computes the TD(λ) target, the λ-weighted average of the
// n-step returns, through the backward recursion
//
//	G[t] = reward[t] + discount[t] * (1 - done[t]) *
//		((1 - λ) * nextValue[t] + λ * G[t+1])
//
// The last step of each trajectory has no successor return and is
// bootstrapped fully from its next value. With λ = 0 the target is the
// TD(0) target and with λ = 1 the TD(1) target. TDLambda runs a
// backward loop over time; VecTDLambda computes the same target in
// closed form.
func TDLambda(discount *tensor.Dense, lambda float64, nextValue, reward,
	done *tensor.Dense, timeDim int) (*tensor.Dense, error) {
	return tdLambda("tdLambda", discount, lambda, nextValue, reward, done,
		timeDim, false)
}

// VecTDLambda computes the TD(λ) target in vectorized form. See
// TDLambda.
func VecTDLambda(discount *tensor.Dense, lambda float64, nextValue, reward,
	done *tensor.Dense, timeDim int) (*tensor.Dense, error) {
	return tdLambda("vecTDLambda", discount, lambda, nextValue, reward, done,
		timeDim, true)
}

func tdLambda(op string, discount *tensor.Dense, lambda float64, nextValue,
	reward, done *tensor.Dense, timeDim int,
	vectorized bool) (*tensor.Dense, error) {
	in, err := prepare(op, timeDim, discount, nextValue, reward, done, nil)
	if err != nil {
		return nil, err
	}

	x := make([]float64, len(in.reward))
	c := make([]float64, len(in.reward))
	for i := range x {
		g := in.discount[i] * in.notDone[i]
		x[i] = in.reward[i] + g*(1-lambda)*in.nextValue[i]
		c[i] = g * lambda
	}

	last := in.lanes.Len() - 1
	for lane := 0; lane < in.lanes.Count(); lane++ {
		i := in.lanes.Index(lane, last)
		x[i] += c[i] * in.nextValue[i]
	}

	return tensorutils.New(scan(x, c, in.lanes, vectorized), in.shape), nil
}
