package network

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// CategoricalMLP implements a distributional action value function
// that predicts, for each action, a categorical distribution over a
// fixed number of atoms. Predictions are log probabilities of shape
// [*L, Z, A] for observations of shape [*L, F], with Z atoms and A
// actions.
type CategoricalMLP struct {
	net     *MLP
	atoms   int
	actions int
}

// NewCategoricalMLP returns a new CategoricalMLP. The arguments
// hiddenSizes, biases and activations are as in NewMLP.
func NewCategoricalMLP(features, atoms, actions int, hiddenSizes []int,
	biases []bool, activations []*Activation) (*CategoricalMLP, error) {
	if atoms < 2 {
		return nil, fmt.Errorf("newCategoricalMLP: at least two atoms "+
			"required \n\thave(%v)", atoms)
	}
	if actions < 1 {
		return nil, fmt.Errorf("newCategoricalMLP: at least one action "+
			"required \n\thave(%v)", actions)
	}

	net, err := NewMLP(features, atoms*actions, hiddenSizes, biases,
		activations)
	if err != nil {
		return nil, fmt.Errorf("newCategoricalMLP: %v", err)
	}
	return &CategoricalMLP{net: net, atoms: atoms, actions: actions}, nil
}

// Atoms returns the number of atoms of each predicted distribution
func (c *CategoricalMLP) Atoms() int {
	return c.atoms
}

// Actions returns the number of actions
func (c *CategoricalMLP) Actions() int {
	return c.actions
}

// Stateless implements the ValueFunc interface
func (c *CategoricalMLP) Stateless() bool {
	return true
}

// Layout returns the shapes of the weights of the network
func (c *CategoricalMLP) Layout() []tensor.Shape {
	return c.net.Layout()
}

// NewParams returns new weights for the network
func (c *CategoricalMLP) NewParams(init G.InitWFn) *Params {
	return c.net.NewParams(init)
}

// Predict implements the ValueFunc interface
func (c *CategoricalMLP) Predict(obs *tensor.Dense, params *Params,
	mode Mode) (*tensor.Dense, error) {
	logits, err := c.net.Predict(obs, params, mode)
	if err != nil {
		return nil, err
	}
	data := logits.Data().([]float64)

	// Logits of row n are laid out as [Z, A]; normalize over Z for each
	// action
	Z, A := c.atoms, c.actions
	rows := len(data) / (Z * A)
	logp := make([]float64, len(data))
	column := make([]float64, Z)
	for n := 0; n < rows; n++ {
		row := data[n*Z*A : (n+1)*Z*A]
		for a := 0; a < A; a++ {
			for z := 0; z < Z; z++ {
				column[z] = row[z*A+a]
			}
			lse := floats.LogSumExp(column)
			for z := 0; z < Z; z++ {
				logp[n*Z*A+z*A+a] = column[z] - lse
			}
		}
	}

	shape := logits.Shape()
	outShape := make(tensor.Shape, 0, len(shape)+1)
	outShape = append(outShape, shape[:len(shape)-1]...)
	outShape = append(outShape, Z, A)
	return tensorutils.New(logp, outShape), nil
}
