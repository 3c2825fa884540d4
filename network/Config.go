package network

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/initwfn"
)

// MLPConfig configures an MLP value function and the initialization of
// its weights. MLPConfig can be JSON serialized into configuration
// files. If Atoms is larger than 1, the configuration describes a
// CategoricalMLP with Outputs actions.
type MLPConfig struct {
	Features    int
	Outputs     int
	Atoms       int
	HiddenSizes []int
	Biases      []bool
	Activations []*Activation
	InitWFn     *initwfn.InitWFn
}

// Validate checks a configuration for errors
func (c MLPConfig) Validate() error {
	if c.Features < 1 || c.Outputs < 1 {
		return fmt.Errorf("validate: features and outputs must be positive")
	}
	if len(c.HiddenSizes) != len(c.Biases) ||
		len(c.HiddenSizes) != len(c.Activations) {
		return fmt.Errorf("validate: need one bias and activation per " +
			"hidden layer")
	}
	for i, act := range c.Activations {
		if act == nil {
			return fmt.Errorf("validate: activation %d is nil", i)
		}
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer")
	}
	return nil
}

// Create returns the value function described by the configuration
// along with freshly initialized weights for it
func (c MLPConfig) Create() (ValueFunc, *Params, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("create: %v", err)
	}

	if c.Atoms > 1 {
		net, err := NewCategoricalMLP(c.Features, c.Atoms, c.Outputs,
			c.HiddenSizes, c.Biases, c.Activations)
		if err != nil {
			return nil, nil, fmt.Errorf("create: %v", err)
		}
		return net, net.NewParams(c.InitWFn.InitWFn()), nil
	}

	net, err := NewMLP(c.Features, c.Outputs, c.HiddenSizes, c.Biases,
		c.Activations)
	if err != nil {
		return nil, nil, fmt.Errorf("create: %v", err)
	}
	return net, net.NewParams(c.InitWFn.InitWFn()), nil
}
