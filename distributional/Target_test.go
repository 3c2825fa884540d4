package distributional

import (
	"fmt"
	"math"
	"testing"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// tableNet predicts the same distribution for every observation: its
// single weight holds the probabilities of shape [Z, A]
type tableNet struct{}

func (tableNet) Stateless() bool { return true }

func (tableNet) Predict(obs *tensor.Dense, params *network.Params,
	_ network.Mode) (*tensor.Dense, error) {
	if params == nil || params.Len() != 1 {
		return nil, fmt.Errorf("predict: want one weight")
	}
	table := params.Weights()[0]
	probs := table.Data().([]float64)
	N := obs.Shape()[0]

	out := make([]float64, 0, N*len(probs))
	for n := 0; n < N; n++ {
		for _, p := range probs {
			out = append(out, math.Log(p))
		}
	}
	shape := append(tensor.Shape{N}, table.Shape()...)
	return tensorutils.New(out, shape), nil
}

// table returns the params of a tableNet with two actions, given the
// distribution over the support of each action
func table(a0, a1 []float64) *network.Params {
	probs := make([]float64, 0, 2*len(a0))
	for z := range a0 {
		probs = append(probs, a0[z], a1[z])
	}
	return network.NewParams(tensorutils.New(probs,
		tensor.Shape{len(a0), 2}))
}

var (
	low    = []float64{0.6, 0.1, 0.1, 0.1, 0.1}
	high   = []float64{0.1, 0.1, 0.1, 0.1, 0.6}
	middle = []float64{0.1, 0.1, 0.6, 0.1, 0.1}
	flat   = []float64{0.2, 0.2, 0.2, 0.2, 0.2}
)

// twoStepBatch returns a batch of a terminal and a non-terminal
// transition, both with zero reward
func twoStepBatch() *batch.Batch {
	return &batch.Batch{
		Layout:      batch.NewLayout([]int{2}, batch.NoTimeDim),
		Observation: column(0, 1),
		Action:      column(1, 0),
		Next: batch.Next{
			Observation: column(1, 2),
			Reward:      column(0, 0),
			Done:        flags(true, false),
		},
	}
}

func row(t *tensor.Dense, n int) []float64 {
	Z := t.Shape()[1]
	return t.Data().([]float64)[n*Z : (n+1)*Z]
}

func TestSelectGreedy(t *testing.T) {
	s := Support{VMin: -10, VMax: 10, Atoms: 5}
	logp, err := tableNet{}.Predict(column(0), table(low, high),
		network.Mode{})
	if err != nil {
		t.Fatal(err)
	}
	actions, err := SelectGreedy(logp, s)
	if err != nil {
		t.Fatal(err)
	}
	if actions[0] != 1 {
		t.Errorf("greedy action: want(1) have(%v)", actions[0])
	}

	probs, err := ActionProbs(logp, actions)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(row(probs, 0), high, tol) {
		t.Errorf("probabilities:\n\twant(%v)\n\thave(%v)", high,
			row(probs, 0))
	}

	if _, err := ActionProbs(logp, []int{2}); !targeterr.IsShape(err) {
		t.Errorf("out of range action: want shape error have(%v)", err)
	}
}

func TestTargetDoubleQ(t *testing.T) {
	p := newProjector(t, 1, tableNet{})

	// The online parameters select the action with high expected value,
	// which is then evaluated by the target parameters
	online := table(low, high)
	target := table(flat, middle)
	out, err := p.Target(twoStepBatch(), online, target)
	if err != nil {
		t.Fatal(err)
	}

	terminal := []float64{0, 0, 1, 0, 0}
	if !floats.EqualApprox(row(out.M, 0), terminal, tol) {
		t.Errorf("terminal mass:\n\twant(%v)\n\thave(%v)", terminal,
			row(out.M, 0))
	}
	if !floats.EqualApprox(row(out.M, 1), middle, tol) {
		t.Errorf("bootstrapped mass:\n\twant(%v)\n\thave(%v)", middle,
			row(out.M, 1))
	}

	// Log probabilities of the taken actions under the online weights
	for n, want := range [][]float64{high, low} {
		logWant := make([]float64, len(want))
		for i, v := range want {
			logWant[i] = math.Log(v)
		}
		if !floats.EqualApprox(row(out.LogPsA, n), logWant, tol) {
			t.Errorf("log probabilities %d:\n\twant(%v)\n\thave(%v)", n,
				logWant, row(out.LogPsA, n))
		}
	}
}

func TestTargetDetachedOnline(t *testing.T) {
	p := newProjector(t, 1, tableNet{})
	out, err := p.Target(twoStepBatch(), table(low, high), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(row(out.M, 1), high, tol) {
		t.Errorf("bootstrapped mass:\n\twant(%v)\n\thave(%v)", high,
			row(out.M, 1))
	}
}

func TestTargetIgnoresStoredNextActions(t *testing.T) {
	p := newProjector(t, 1, tableNet{})
	b := twoStepBatch()

	// Stored next actions of the behaviour policy do not replace the
	// greedy selection under the online weights
	b.Next.Action = column(0, 0)
	out, err := p.Target(b, table(low, high), table(flat, middle))
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(row(out.M, 1), middle, tol) {
		t.Errorf("bootstrapped mass:\n\twant(%v)\n\thave(%v)", middle,
			row(out.M, 1))
	}
}

func TestTargetWithNextActions(t *testing.T) {
	p := newProjector(t, 1, tableNet{})

	out, err := p.TargetWithNextActions(twoStepBatch(), table(low, high),
		table(flat, middle), []int{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(row(out.M, 1), flat, tol) {
		t.Errorf("bootstrapped mass:\n\twant(%v)\n\thave(%v)", flat,
			row(out.M, 1))
	}

	_, err = p.TargetWithNextActions(twoStepBatch(), table(low, high), nil,
		[]int{0})
	if !targeterr.IsShape(err) {
		t.Errorf("wrong number of actions: want shape error have(%v)", err)
	}
	_, err = p.TargetWithNextActions(twoStepBatch(), table(low, high), nil,
		[]int{0, 2})
	if !targeterr.IsShape(err) {
		t.Errorf("out of range action: want shape error have(%v)", err)
	}
}

func TestTargetStepsToNextObs(t *testing.T) {
	// A two step transition with gamma 0.5 contracts the support by 4
	p := newProjector(t, 0.5, tableNet{})
	b := twoStepBatch()
	b.StepsToNextObs = column(1, 2)

	out, err := p.Target(b, table(low, flat), nil)
	if err != nil {
		t.Fatal(err)
	}

	// Tz = [-2.5, -1.25, 0, 1.25, 2.5] lies within the middle three
	// atoms
	want := []float64{0, 0.15, 0.7, 0.15, 0}
	if !floats.EqualApprox(row(out.M, 1), want, tol) {
		t.Errorf("bootstrapped mass:\n\twant(%v)\n\thave(%v)", want,
			row(out.M, 1))
	}
}

func TestTargetErrors(t *testing.T) {
	p := newProjector(t, 0.9, tableNet{})

	if _, err := p.Target(twoStepBatch(), nil, nil); !targeterr.IsMissingParameter(err) {
		t.Errorf("no params: want missing parameter have(%v)", err)
	}

	b := twoStepBatch()
	b.Layout = batch.NewLayout([]int{2, 1}, 1)
	b.Observation = tensorutils.New([]float64{0, 1}, tensor.Shape{2, 1, 1})
	b.Action = tensorutils.New([]float64{1, 0}, tensor.Shape{2, 1, 1})
	b.Next.Observation = tensorutils.New([]float64{1, 2}, tensor.Shape{2, 1, 1})
	b.Next.Reward = tensorutils.New([]float64{0, 0}, tensor.Shape{2, 1, 1})
	b.Next.Done = tensor.New(tensor.WithShape(2, 1, 1),
		tensor.WithBacking([]bool{true, false}))
	if _, err := p.Target(b, table(low, high), nil); !targeterr.IsShape(err) {
		t.Errorf("time dimension: want shape error have(%v)", err)
	}

	b = twoStepBatch()
	b.Action = column(2, 0)
	if _, err := p.Target(b, table(low, high), nil); !targeterr.IsShape(err) {
		t.Errorf("illegal action: want shape error have(%v)", err)
	}

	noFn := newProjector(t, 0.9, nil)
	if _, err := noFn.Target(twoStepBatch(), table(low, high), nil); !targeterr.IsUnsupported(err) {
		t.Errorf("no value function: want unsupported have(%v)", err)
	}
}
