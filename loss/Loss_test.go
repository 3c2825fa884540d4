package loss

import (
	"math"
	"testing"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/distributional"
	"github.com/samuelfneumann/valuetarget/estimator"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

const tol = 1e-9

// linearQ predicts the action values [s, 2s] of a single feature s
var linearQ = network.Func(func(obs *tensor.Dense) (*tensor.Dense, error) {
	s := obs.Data().([]float64)
	q := make([]float64, 0, 2*len(s))
	for _, v := range s {
		q = append(q, v, 2*v)
	}
	return tensorutils.New(q, tensor.Shape{len(s), 2}), nil
})

func column(data ...float64) *tensor.Dense {
	return tensorutils.New(data, tensor.Shape{len(data), 1})
}

// qBatch returns a batch of three transitions whose action values
// are [2, 2, 6] and whose TD(0) targets with gamma 0.5 are [1, 2, 2]
func qBatch(action *tensor.Dense) *batch.Batch {
	return &batch.Batch{
		Layout:      batch.NewLayout([]int{3}, batch.NoTimeDim),
		Observation: column(1, 2, 3),
		Action:      action,
		Next: batch.Next{
			Observation: column(1, 1, 0),
			Reward:      column(0, 1, 2),
			Done: tensor.New(tensor.WithShape(3, 1),
				tensor.WithBacking([]bool{false, false, true})),
		},
	}
}

func TestDistance(t *testing.T) {
	x := tensorutils.New([]float64{0, 0, 0, 0}, tensor.Shape{4})
	y := tensorutils.New([]float64{0.5, -0.5, 2, -3}, tensor.Shape{4})

	tests := []struct {
		distance Distance
		want     []float64
	}{
		{L1, []float64{0.5, 0.5, 2, 3}},
		{L2, []float64{0.25, 0.25, 4, 9}},
		{SmoothL1, []float64{0.125, 0.125, 1.5, 2.5}},
	}

	for _, test := range tests {
		t.Run(string(test.distance), func(t *testing.T) {
			d, err := DistanceLoss(x, y, test.distance)
			if err != nil {
				t.Fatal(err)
			}
			if !floats.EqualApprox(d.Data().([]float64), test.want, tol) {
				t.Errorf("want(%v) have(%v)", test.want, d.Data())
			}
		})
	}

	if _, err := DistanceLoss(x, y, "l3"); err == nil {
		t.Error("no error for unknown distance")
	}
}

func TestDQN(t *testing.T) {
	categorical := column(1, 0, 1)
	oneHot := tensorutils.New([]float64{0, 1, 1, 0, 0, 1},
		tensor.Shape{3, 2})

	tests := []struct {
		name     string
		space    batch.ActionSpace
		action   *tensor.Dense
		distance Distance
		loss     float64
	}{
		{"categorical l2", batch.Categorical, categorical, L2, 17.0 / 3},
		{"categorical l1", batch.Categorical, categorical, L1, 5.0 / 3},
		{"one hot smooth l1", batch.OneHot, oneHot, SmoothL1, 4.0 / 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dqn, err := NewDQN(linearQ, DQNConfig{
				ActionSpace: test.space,
				Distance:    test.distance,
				Estimator:   estimator.TD0Config{Gamma: 0.5},
			})
			if err != nil {
				t.Fatal(err)
			}

			out, err := dqn.Forward(qBatch(test.action), nil, nil)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(out.Loss-test.loss) > tol {
				t.Errorf("loss: want(%v) have(%v)", test.loss, out.Loss)
			}

			want := []float64{1, 0, 16}
			if !floats.EqualApprox(out.Priority.Data().([]float64), want,
				tol) {
				t.Errorf("priority:\n\twant(%v)\n\thave(%v)", want,
					out.Priority.Data())
			}
			if !tensorutils.ShapeEq(out.Priority.Shape(), tensor.Shape{3, 1}) {
				t.Errorf("priority shape: want([3 1]) have(%v)",
					out.Priority.Shape())
			}
		})
	}
}

func TestDQNUnsupportedEstimator(t *testing.T) {
	_, err := NewDQN(linearQ, DQNConfig{Estimator: estimator.GAEConfig{
		Gamma:  0.99,
		Lambda: 0.95,
	}})
	if !targeterr.IsUnsupported(err) {
		t.Errorf("want unsupported error have(%v)", err)
	}

	// TD(λ) targets are supported
	_, err = NewDQN(linearQ, DQNConfig{Estimator: estimator.TDLambdaConfig{
		Gamma:  0.99,
		Lambda: 0.95,
	}})
	if err != nil {
		t.Error(err)
	}
}

func TestCrossEntropy(t *testing.T) {
	m := tensorutils.New([]float64{1, 0, 0.5, 0.5}, tensor.Shape{2, 2})
	logp := tensorutils.New([]float64{
		math.Log(0.5), math.Log(0.5),
		math.Log(0.25), math.Log(0.75),
	}, tensor.Shape{2, 2})

	ce, err := CrossEntropy(m, logp)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{math.Log(2), -0.5 * (math.Log(0.25) + math.Log(0.75))}
	if !floats.EqualApprox(ce.Data().([]float64), want, tol) {
		t.Errorf("want(%v) have(%v)", want, ce.Data())
	}

	if _, err := CrossEntropy(m, column(0, 0)); !targeterr.IsShape(err) {
		t.Errorf("want shape error have(%v)", err)
	}
}

func TestDistributionalDQN(t *testing.T) {
	// A categorical network that predicts the same distribution over
	// three atoms for each of two actions in every state
	probs := []float64{0.2, 0.2, 0.6, 0.6, 0.2, 0.2}
	net := network.Func(func(obs *tensor.Dense) (*tensor.Dense, error) {
		N := obs.Shape()[0]
		logp := make([]float64, 0, N*len(probs))
		for n := 0; n < N; n++ {
			for _, p := range probs {
				logp = append(logp, math.Log(p))
			}
		}
		return tensorutils.New(logp, tensor.Shape{N, 3, 2}), nil
	})

	loss, err := NewDistributionalDQN(net, distributional.Config{
		Gamma:       1,
		Support:     distributional.Support{VMin: -1, VMax: 1, Atoms: 3},
		ActionSpace: batch.Categorical,
	})
	if err != nil {
		t.Fatal(err)
	}

	b := &batch.Batch{
		Layout:      batch.NewLayout([]int{1}, batch.NoTimeDim),
		Observation: column(0),
		Action:      column(0),
		Next: batch.Next{
			Observation: column(0),
			Reward:      column(0),
			Done:        column(1),
		},
	}
	out, err := loss.Forward(b, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// The terminal target puts all mass on the middle atom, so the loss
	// is -log p(z = 0 | a = 0)
	if want := -math.Log(0.6); math.Abs(out.Loss-want) > tol {
		t.Errorf("loss: want(%v) have(%v)", want, out.Loss)
	}
	if !tensorutils.ShapeEq(out.Priority.Shape(), tensor.Shape{1, 1}) {
		t.Errorf("priority shape: want([1 1]) have(%v)",
			out.Priority.Shape())
	}

	_, err = NewDistributionalDQN(net, distributional.Config{
		Gamma:     1,
		Support:   distributional.Support{VMin: -1, VMax: 1, Atoms: 3},
		Estimator: estimator.TD1Estimate,
	})
	if !targeterr.IsUnsupported(err) {
		t.Errorf("want unsupported error have(%v)", err)
	}
}
