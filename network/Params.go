package network

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Params is a snapshot of the weights of a parametric value function,
// such as the online or target weights of a value network. A nil
// *Params denotes an absent snapshot.
//
// Value functions never modify the Params they are given. A detached
// Params is a deep copy made for use as a frozen bootstrap target,
// through which no gradient should flow back to the weights being
// optimized.
type Params struct {
	weights  []*tensor.Dense
	detached bool
}

// NewParams returns a new Params holding the given weights. The
// weights are not copied.
func NewParams(weights ...*tensor.Dense) *Params {
	return &Params{weights: weights}
}

// Weights returns the weights of the snapshot
func (p *Params) Weights() []*tensor.Dense {
	return p.weights
}

// Len returns the number of weight tensors in the snapshot
func (p *Params) Len() int {
	return len(p.weights)
}

// Detached returns whether the snapshot was created by Detach
func (p *Params) Detached() bool {
	return p.detached
}

// Detach returns a deep copy of the snapshot which shares no memory
// with p
func (p *Params) Detach() *Params {
	weights := make([]*tensor.Dense, len(p.weights))
	for i, w := range p.weights {
		weights[i] = w.Clone().(*tensor.Dense)
	}
	return &Params{weights: weights, detached: true}
}

// Polyak returns the Polyak average (1 - tau) * p + tau * source of two
// snapshots with the same layout. Polyak averaging is commonly used to
// slowly track online weights with target weights.
func (p *Params) Polyak(source *Params, tau float64) (*Params, error) {
	if source.Len() != p.Len() {
		return nil, fmt.Errorf("polyak: snapshots have different numbers "+
			"of weights \n\twant(%v)\n\thave(%v)", p.Len(), source.Len())
	}

	weights := make([]*tensor.Dense, p.Len())
	for i := range p.weights {
		if !p.weights[i].Shape().Eq(source.weights[i].Shape()) {
			return nil, fmt.Errorf("polyak: weight %d has wrong shape "+
				"\n\twant(%v)\n\thave(%v)", i, p.weights[i].Shape(),
				source.weights[i].Shape())
		}

		w, err := p.weights[i].MulScalar(1-tau, true)
		if err != nil {
			return nil, fmt.Errorf("polyak: %v", err)
		}

		s, err := source.weights[i].MulScalar(tau, true)
		if err != nil {
			return nil, fmt.Errorf("polyak: %v", err)
		}

		weights[i], err = w.Add(s)
		if err != nil {
			return nil, fmt.Errorf("polyak: %v", err)
		}
	}
	return &Params{weights: weights, detached: p.detached}, nil
}
