package distributional

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/estimator"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/floatutils"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/spatial/r1"
	"gorgonia.org/tensor"
)

// Config configures a Projector. Estimator names the value estimator
// whose bootstrapping the targets follow; only TD(0) targets can be
// projected, and the empty Type is taken to mean TD(0).
type Config struct {
	Gamma       float64
	Support     Support
	ActionSpace batch.ActionSpace
	Estimator   estimator.Type
}

// Validate checks a configuration for errors
func (c Config) Validate() error {
	if c.Estimator != "" && c.Estimator != estimator.TD0Estimate {
		return targeterr.Unsupportedf("validate", "distributional targets "+
			"only support %v estimation \n\thave(%v)", estimator.TD0Estimate,
			c.Estimator)
	}
	if math.IsNaN(c.Gamma) || math.IsInf(c.Gamma, 0) {
		return fmt.Errorf("validate: gamma must be finite \n\thave(%v)",
			c.Gamma)
	}
	return c.Support.Validate()
}

// Create returns the Projector the configuration describes. The value
// function must predict log probabilities of shape [N, Z, A] over the
// Z atoms of the support for each of A actions.
func (c Config) Create(valueFn network.ValueFunc) (*Projector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Projector{
		support: c.Support,
		atoms:   c.Support.Values(),
		gamma:   c.Gamma,
		space:   c.ActionSpace,
		valueFn: valueFn,
		stepper: batch.NextStep{},
	}, nil
}

// Projector computes categorical distributional Bellman targets on a
// fixed support. A Projector holds no mutable state and is safe for
// concurrent use.
type Projector struct {
	support Support
	atoms   []float64
	gamma   float64
	space   batch.ActionSpace
	valueFn network.ValueFunc
	stepper batch.Stepper
}

// Support returns the support of the projector
func (p *Projector) Support() Support {
	return p.support
}

// SetStepper sets the Stepper used to find the next observations of a
// batch
func (p *Projector) SetStepper(s batch.Stepper) {
	p.stepper = s
}

// Project projects the distribution pnsA over the support, shifted and
// scaled by the Bellman operator
//
//	Tz = reward + (1 - done) * discount * z
//
// back onto the support by linear interpolation between adjacent atoms.
// The argument pnsA holds probabilities of shape [N, Z], and reward,
// done and discount hold one element per row. The returned mass has
// shape [N, Z] and each row has the same total mass as the same row of
// pnsA.
func (p *Projector) Project(reward, done, discount,
	pnsA *tensor.Dense) (*tensor.Dense, error) {
	const op = "project"
	Z := p.support.Atoms

	shape := pnsA.Shape()
	if len(shape) != 2 || shape[1] != Z {
		return nil, targeterr.Shapef(op, "illegal shape of next state "+
			"probabilities \n\twant([N, %d])\n\thave(%v)", Z, shape)
	}
	N := shape[0]

	probs, err := tensorutils.Float64s(pnsA)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	r, err := rowValues(op, "reward", reward, N)
	if err != nil {
		return nil, err
	}
	g, err := rowValues(op, "discount", discount, N)
	if err != nil {
		return nil, err
	}
	if done == nil {
		return nil, targeterr.Shapef(op, "done is nil")
	}
	notDone, err := tensorutils.NotDone(done)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	if len(notDone) != N {
		return nil, targeterr.Shapef(op, "done must have one element per "+
			"row \n\twant(%v)\n\thave(%v)", N, len(notDone))
	}

	// Bellman shifted support, clamped to the support bounds
	tz := make([]float64, N*Z)
	for n := 0; n < N; n++ {
		for z, atom := range p.atoms {
			tz[n*Z+z] = r[n] + notDone[n]*g[n]*atom
		}
	}
	floatutils.ClipSlice(tz, r1.Interval{Min: p.support.VMin,
		Max: p.support.VMax})
	if !floatutils.AllFinite(tz) {
		return nil, targeterr.NumericDivergencef(op, "non-finite values in "+
			"the Bellman shifted support")
	}

	dz := p.support.DeltaZ()
	m := make([]float64, N*Z)
	for n := 0; n < N; n++ {
		for z := 0; z < Z; z++ {
			i := n*Z + z
			// Rounding in dz may place a clamped atom just outside the
			// index range of the support
			b := floatutils.Clip((tz[i]-p.support.VMin)/dz, 0, float64(Z-1))
			low, up := math.Floor(b), math.Ceil(b)

			// When b lands exactly on an atom, widen the bin so that
			// the mass is not lost. The upper bound is widened only if
			// the lower bound could not be.
			if up > 0 && low == up {
				low--
			}
			if low < float64(Z-1) && low == up {
				up++
			}

			m[n*Z+int(low)] += probs[i] * (up - b)
			m[n*Z+int(up)] += probs[i] * (b - low)
		}
	}

	return tensorutils.New(m, tensor.Shape{N, Z}), nil
}

// rowValues returns the data of a tensor holding one element per row
func rowValues(op, name string, t *tensor.Dense, N int) ([]float64, error) {
	if t == nil {
		return nil, targeterr.Shapef(op, "%s is nil", name)
	}
	data, err := tensorutils.Float64s(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	if len(data) != N {
		return nil, targeterr.Shapef(op, "%s must have one element per "+
			"row \n\twant(%v)\n\thave(%v)", name, N, len(data))
	}
	return data, nil
}
