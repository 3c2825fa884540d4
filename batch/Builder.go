package batch

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/timestep"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// FromTransitions stacks B trajectories of T transitions each into a
// Batch with BatchShape [B, T] and TimeDim 1. Observations have shape
// [B, T, F] and actions, if every transition has one, have shape
// [B, T, A]. Rewards, termination flags and steps to the next
// observation have shape [B, T, 1].
func FromTransitions(trajectories [][]timestep.Transition) (*Batch, error) {
	B := len(trajectories)
	if B == 0 {
		return nil, targeterr.Shapef("fromTransitions", "no trajectories")
	}
	T := len(trajectories[0])
	if T == 0 {
		return nil, targeterr.Shapef("fromTransitions", "time dimension "+
			"is empty")
	}
	first := trajectories[0][0]
	F := first.State.Len()
	A := 0
	if first.Action != nil {
		A = first.Action.Len()
	}

	obs := make([]float64, 0, B*T*F)
	nextObs := make([]float64, 0, B*T*F)
	actions := make([]float64, 0, B*T*A)
	rewards := make([]float64, 0, B*T)
	done := make([]bool, 0, B*T)
	steps := make([]float64, 0, B*T)

	for i, trajectory := range trajectories {
		if len(trajectory) != T {
			return nil, targeterr.Shapef("fromTransitions", "trajectory %d "+
				"has wrong length \n\twant(%v)\n\thave(%v)", i, T,
				len(trajectory))
		}

		for t, tr := range trajectory {
			if tr.State.Len() != F || tr.NextState.Len() != F {
				return nil, targeterr.Shapef("fromTransitions", "transition "+
					"(%d, %d) has wrong observation size \n\twant(%v)"+
					"\n\thave(%v)", i, t, F, tr.State.Len())
			}
			if (tr.Action == nil) != (first.Action == nil) ||
				(tr.Action != nil && tr.Action.Len() != A) {
				return nil, targeterr.Shapef("fromTransitions", "transition "+
					"(%d, %d) has inconsistent action", i, t)
			}

			obs = append(obs, vecData(tr.State)...)
			nextObs = append(nextObs, vecData(tr.NextState)...)
			if tr.Action != nil {
				actions = append(actions, vecData(tr.Action)...)
			}
			rewards = append(rewards, tr.Reward)
			done = append(done, tr.Done)
			steps = append(steps, float64(tr.Steps))
		}
	}

	doneT := tensor.New(tensor.WithShape(B, T, 1), tensor.WithBacking(done))
	b := &Batch{
		Layout:         NewLayout([]int{B, T}, 1),
		Observation:    tensorutils.New(obs, tensor.Shape{B, T, F}),
		StepsToNextObs: tensorutils.New(steps, tensor.Shape{B, T, 1}),
		Next: Next{
			Observation: tensorutils.New(nextObs, tensor.Shape{B, T, F}),
			Reward:      tensorutils.New(rewards, tensor.Shape{B, T, 1}),
			Done:        doneT,
		},
	}
	if A > 0 {
		b.Action = tensorutils.New(actions, tensor.Shape{B, T, A})
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("fromTransitions: %w", err)
	}
	return b, nil
}

// FromEpisode builds the transitions of a single episode. Episode
// holds the T+1 timesteps of the episode and actions the T actions
// taken between them.
func FromEpisode(episode []timestep.TimeStep,
	actions []mat.Vector) ([]timestep.Transition, error) {
	if len(episode) < 2 {
		return nil, targeterr.Shapef("fromEpisode", "episode must have "+
			"at least two timesteps \n\thave(%v)", len(episode))
	}
	if actions != nil && len(actions) != len(episode)-1 {
		return nil, targeterr.Shapef("fromEpisode", "wrong number of "+
			"actions \n\twant(%v)\n\thave(%v)", len(episode)-1, len(actions))
	}

	transitions := make([]timestep.Transition, len(episode)-1)
	for t := range transitions {
		var action mat.Vector
		if actions != nil {
			action = actions[t]
		}

		tr, err := timestep.NewTransition(episode[t], action, episode[t+1], 1)
		if err != nil {
			return nil, fmt.Errorf("fromEpisode: %v", err)
		}
		transitions[t] = tr
	}
	return transitions, nil
}

func vecData(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
