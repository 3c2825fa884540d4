package network

import (
	"fmt"
	"sync"

	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a stateless multi-layered perceptron value function.
// The MLP holds no weights: the weights used for a prediction are given
// as a Params on each call to Predict, in the order returned by
// Layout. This allows the same network to predict with online and
// target weights.
//
// A computational graph is built for each batch size the MLP is called
// with. Graphs are cached and shared between calls, and calls to
// Predict are safe for concurrent use.
type MLP struct {
	features    int
	outputs     int
	sizes       []int
	biases      []bool
	activations []*Activation

	mu     sync.Mutex
	graphs map[int]*mlpGraph
}

// mlpGraph is the computational graph of an MLP for a fixed batch size
type mlpGraph struct {
	g          *G.ExprGraph
	input      *G.Node
	layers     []*fcLayer
	learnables G.Nodes
	prediction *G.Node
	predVal    G.Value
}

// NewMLP returns a new MLP with the given number of input features and
// outputs.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. The
// function works such that for index i, hiddenSizes[i] is the number of
// nodes in hidden layer i; biases[i] is true if the hidden layer will
// contain a bias unit and false otherwise; and activations[i] is the
// activation function for hidden layer i. A final linear layer with a
// bias unit maps the last hidden layer to the outputs.
func NewMLP(features, outputs int, hiddenSizes []int, biases []bool,
	activations []*Activation) (*MLP, error) {
	if features < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: features and outputs must be "+
			"positive \n\thave(%v, %v)", features, outputs)
	}

	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newMLP: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newMLP: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	for i, size := range hiddenSizes {
		if size < 1 {
			return nil, fmt.Errorf("newMLP: hidden layer %d must have "+
				"positive size \n\thave(%v)", i, size)
		}
	}

	// Add the final linear layer
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	b := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	return &MLP{
		features:    features,
		outputs:     outputs,
		sizes:       sizes,
		biases:      b,
		activations: acts,
		graphs:      make(map[int]*mlpGraph),
	}, nil
}

// Features returns the number of features in a single observation
// vector that the MLP takes as input.
func (m *MLP) Features() int {
	return m.features
}

// Outputs returns the number of outputs from the network
func (m *MLP) Outputs() int {
	return m.outputs
}

// Stateless implements the ValueFunc interface
func (m *MLP) Stateless() bool {
	return true
}

// Layout returns the shapes of the weights of the MLP in the order
// they must appear in a Params: for each layer the weights of shape
// [in, out] followed by the bias of shape [1, out] if the layer has a
// bias unit.
func (m *MLP) Layout() []tensor.Shape {
	shapes := make([]tensor.Shape, 0, 2*len(m.sizes))
	in := m.features
	for i, out := range m.sizes {
		shapes = append(shapes, tensor.Shape{in, out})
		if m.biases[i] {
			shapes = append(shapes, tensor.Shape{1, out})
		}
		in = out
	}
	return shapes
}

// NewParams returns new weights for the MLP. Weights are initialized
// with init and biases with zeroes.
func (m *MLP) NewParams(init G.InitWFn) *Params {
	weights := make([]*tensor.Dense, 0, 2*len(m.sizes))
	in := m.features
	for i, out := range m.sizes {
		w := init(tensor.Float64, in, out).([]float64)
		weights = append(weights, tensorutils.New(w, tensor.Shape{in, out}))
		if m.biases[i] {
			weights = append(weights, tensorutils.New(make([]float64, out),
				tensor.Shape{1, out}))
		}
		in = out
	}
	return NewParams(weights...)
}

// checkParams returns an error if params do not fit the MLP
func (m *MLP) checkParams(params *Params) error {
	layout := m.Layout()
	if params.Len() != len(layout) {
		return fmt.Errorf("predict: wrong number of weights \n\twant(%v)"+
			"\n\thave(%v)", len(layout), params.Len())
	}
	for i, w := range params.Weights() {
		if !tensorutils.ShapeEq(w.Shape(), layout[i]) {
			return fmt.Errorf("predict: weight %d has wrong shape "+
				"\n\twant(%v)\n\thave(%v)", i, layout[i], w.Shape())
		}
	}
	return nil
}

// Predict implements the ValueFunc interface. Observations of shape
// [*L, F] are mapped to predictions of shape [*L, O].
func (m *MLP) Predict(obs *tensor.Dense, params *Params,
	mode Mode) (*tensor.Dense, error) {
	if params == nil {
		return nil, targeterr.MissingParameterf("predict", "stateless "+
			"value function called without parameters")
	}
	if err := m.checkParams(params); err != nil {
		return nil, err
	}

	shape := obs.Shape()
	if len(shape) < 1 || shape[len(shape)-1] != m.features {
		return nil, targeterr.Shapef("predict", "invalid observation "+
			"shape \n\twant([..., %v])\n\thave(%v)", m.features, shape)
	}
	data, err := tensorutils.Float64s(obs)
	if err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	rows := len(data) / m.features

	// Held out predictions never alias the caller's weights
	weights := params
	if mode.HeldOut {
		weights = params.Detach()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	net, err := m.graph(rows)
	if err != nil {
		return nil, err
	}

	input := make([]float64, len(data))
	copy(input, data)
	if err := G.Let(net.input, tensorutils.New(input,
		tensor.Shape{rows, m.features})); err != nil {
		return nil, fmt.Errorf("predict: could not set input: %v", err)
	}
	for i, w := range weights.Weights() {
		if err := G.Let(net.learnables[i], w); err != nil {
			return nil, fmt.Errorf("predict: could not set weight %d: %v",
				i, err)
		}
	}

	var vm G.VM
	if mode.Grad && !mode.HeldOut {
		vm = G.NewTapeMachine(net.g, G.BindDualValues(net.learnables...))
	} else {
		vm = G.NewTapeMachine(net.g)
	}
	defer vm.Close()

	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: could not compute forward pass: %v",
			err)
	}

	out := make([]float64, rows*m.outputs)
	copy(out, net.predVal.Data().([]float64))

	outShape := shape.Clone()
	outShape[len(outShape)-1] = m.outputs
	return tensorutils.New(out, outShape), nil
}

// graph returns the cached computational graph for the batch size,
// building it if needed. The caller must hold m.mu.
func (m *MLP) graph(batch int) (*mlpGraph, error) {
	if net, ok := m.graphs[batch]; ok {
		return net, nil
	}

	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, m.features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	net := &mlpGraph{g: g, input: input}
	in := m.features
	for i, out := range m.sizes {
		layer := newFCLayer(g, i, in, out, m.biases[i], m.activations[i])
		net.layers = append(net.layers, layer)
		net.learnables = append(net.learnables, layer.learnables()...)
		in = out
	}

	pred := input
	var err error
	for i, l := range net.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "predict: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}
	net.prediction = pred
	G.Read(net.prediction, &net.predVal)

	m.graphs[batch] = net
	return net, nil
}
