package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTerminal(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0, 1})

	tests := []struct {
		name     string
		step     TimeStep
		terminal bool
	}{
		{"first", New(First, 0, 1, obs, 0), false},
		{"mid", New(Mid, 1, 0.99, obs, 1), false},
		{"terminal", New(Last, 1, 0, obs, 2), true},
		{"cutoff", New(Last, 1, 0.99, obs, 2), false},
	}

	for _, test := range tests {
		if got := test.step.Terminal(); got != test.terminal {
			t.Errorf("%v: want(%v) have(%v)", test.name, test.terminal, got)
		}
	}
}

func TestNewTransition(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0, 1})
	next := mat.NewVecDense(2, []float64{1, 2})
	action := mat.NewVecDense(1, []float64{1})

	step := New(Mid, 0.5, 0.99, obs, 3)
	nextStep := New(Last, -1, 0, next, 4)

	tr, err := NewTransition(step, action, nextStep, 1)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Reward != -1 || !tr.Done || tr.Steps != 1 {
		t.Errorf("transition: have(%v)", tr)
	}
	if !mat.Equal(tr.NextState, next) {
		t.Error("next state not taken from next step")
	}

	if _, err := NewTransition(step, action, nextStep, 0); err == nil {
		t.Error("expected error for zero steps to next observation")
	}

	short := New(Mid, 0, 1, mat.NewVecDense(3, nil), 4)
	if _, err := NewTransition(step, action, short, 1); err == nil {
		t.Error("expected error for mismatched observation sizes")
	}
}
