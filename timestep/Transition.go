package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (s, a, r, s') tuple of the agent-environment
// interaction. Steps is the number of environment steps between State
// and NextState, which is larger than 1 for n-step or frame-skipped
// transitions.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	Done      bool
	NextState mat.Vector
	Steps     int
}

// NewTransition returns the transition from step to nextStep when
// taking action. The reward and termination of the transition are
// read from nextStep.
func NewTransition(step TimeStep, action mat.Vector, nextStep TimeStep,
	steps int) (Transition, error) {
	if steps < 1 {
		return Transition{}, fmt.Errorf("newTransition: steps to next "+
			"observation must be positive \n\twant(>=1)\n\thave(%v)", steps)
	}
	if step.Observation == nil || nextStep.Observation == nil {
		return Transition{}, fmt.Errorf("newTransition: timestep has no " +
			"observation")
	}
	if step.Observation.Len() != nextStep.Observation.Len() {
		return Transition{}, fmt.Errorf("newTransition: observation sizes "+
			"differ \n\twant(%v)\n\thave(%v)", step.Observation.Len(),
			nextStep.Observation.Len())
	}

	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		Done:      nextStep.Terminal(),
		NextState: nextStep.Observation,
		Steps:     steps,
	}, nil
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Reward: %.2f  |  Done: %v  |  Steps: %v",
		t.Reward, t.Done, t.Steps)
}
