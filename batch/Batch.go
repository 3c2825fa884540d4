package batch

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"gorgonia.org/tensor"
)

// Next holds the fields of a Batch that describe the step following
// each transition. Reward and Done are those received on entering the
// next step.
type Next struct {
	Observation *tensor.Dense
	Reward      *tensor.Dense
	Done        *tensor.Dense
	Action      *tensor.Dense
}

// Batch is a batch of transitions. Every tensor has shape
// [*BatchShape, *F] for some feature shape F; rewards, termination
// flags and steps to the next observation have F = [1]. Done may hold
// bools or float64 0/1 flags. Action and StepsToNextObs are optional;
// a nil StepsToNextObs means every transition spans a single step.
type Batch struct {
	Layout
	Observation    *tensor.Dense
	Action         *tensor.Dense
	StepsToNextObs *tensor.Dense
	Next           Next
}

// Validate returns an error if the batch layout is invalid, if the
// batch has no rewards or termination flags, or if any tensor in the
// batch does not share the layout's batch shape.
func (b *Batch) Validate() error {
	if err := b.Layout.Validate(); err != nil {
		return err
	}
	if b.Next.Reward == nil {
		return targeterr.Shapef("validate", "batch has no rewards")
	}
	if b.Next.Done == nil {
		return targeterr.Shapef("validate", "batch has no termination "+
			"flags")
	}

	for name, t := range b.fields() {
		if t == nil {
			continue
		}
		if err := b.Layout.Check(name, t); err != nil {
			return err
		}
	}
	return nil
}

func (b *Batch) fields() map[string]*tensor.Dense {
	return map[string]*tensor.Dense{
		"observation":       b.Observation,
		"action":            b.Action,
		"steps_to_next_obs": b.StepsToNextObs,
		"next observation":  b.Next.Observation,
		"next reward":       b.Next.Reward,
		"next done":         b.Next.Done,
		"next action":       b.Next.Action,
	}
}

// Steps returns the number of environment steps spanned by each
// transition, which is 1 for each transition if the batch does not
// record StepsToNextObs. The returned slice has one element per
// transition.
func (b *Batch) Steps() ([]float64, error) {
	if b.StepsToNextObs == nil {
		steps := make([]float64, b.Size())
		for i := range steps {
			steps[i] = 1.0
		}
		return steps, nil
	}

	steps, err := tensorutils.Float64s(b.StepsToNextObs)
	if err != nil {
		return nil, fmt.Errorf("steps: %v", err)
	}
	if len(steps) != b.Size() {
		return nil, targeterr.Shapef("steps", "steps_to_next_obs must "+
			"have one element per transition \n\twant(%v)\n\thave(%v)",
			b.Size(), len(steps))
	}
	for _, s := range steps {
		if s < 1 {
			return nil, targeterr.Shapef("steps", "steps_to_next_obs must "+
				"be at least 1 \n\thave(%v)", s)
		}
	}
	return steps, nil
}

// Step returns a new Batch holding a copy of time step t of b. The
// returned batch has no time dimension.
func (b *Batch) Step(t int) (*Batch, error) {
	if err := b.Layout.Validate(); err != nil {
		return nil, err
	}
	if !b.HasTime() {
		return nil, targeterr.Shapef("step", "batch has no time dimension")
	}
	if t < 0 || t >= b.T() {
		return nil, targeterr.Shapef("step", "time step out of range "+
			"\n\twant([0, %d))\n\thave(%v)", b.T(), t)
	}

	batchShape := make(tensor.Shape, 0, len(b.BatchShape)-1)
	batchShape = append(batchShape, b.BatchShape[:b.TimeDim]...)
	batchShape = append(batchShape, b.BatchShape[b.TimeDim+1:]...)
	if len(batchShape) == 0 {
		batchShape = tensor.Shape{1}
	}

	take := func(x *tensor.Dense) (*tensor.Dense, error) {
		if x == nil {
			return nil, nil
		}
		step, err := tensorutils.Take(x, b.TimeDim,
			tensorutils.NewSlice(t, t+1, 1))
		if err != nil {
			return nil, err
		}
		if len(b.BatchShape) == 1 {
			// Keep a single batch dimension of size 1
			return step, nil
		}
		return tensorutils.Squeeze(step, b.TimeDim)
	}

	out := &Batch{Layout: Layout{BatchShape: batchShape, TimeDim: NoTimeDim}}
	dst := []**tensor.Dense{
		&out.Observation, &out.Action, &out.StepsToNextObs,
		&out.Next.Observation, &out.Next.Reward, &out.Next.Done,
		&out.Next.Action,
	}
	src := []*tensor.Dense{
		b.Observation, b.Action, b.StepsToNextObs,
		b.Next.Observation, b.Next.Reward, b.Next.Done, b.Next.Action,
	}
	for i := range src {
		x, err := take(src[i])
		if err != nil {
			return nil, fmt.Errorf("step: %v", err)
		}
		*dst[i] = x
	}
	return out, nil
}

// Flatten returns a copy of b whose batch dimensions are flattened into
// a single dimension. Every tensor of b is cloned. The returned batch has
// no time dimension.
func (b *Batch) Flatten() (*Batch, error) {
	if err := b.Layout.Validate(); err != nil {
		return nil, err
	}

	n := b.Size()
	out := &Batch{Layout: Layout{BatchShape: tensor.Shape{n},
		TimeDim: NoTimeDim}}
	dst := []**tensor.Dense{
		&out.Observation, &out.Action, &out.StepsToNextObs,
		&out.Next.Observation, &out.Next.Reward, &out.Next.Done,
		&out.Next.Action,
	}
	src := []*tensor.Dense{
		b.Observation, b.Action, b.StepsToNextObs,
		b.Next.Observation, b.Next.Reward, b.Next.Done, b.Next.Action,
	}
	for i, x := range src {
		if x == nil {
			continue
		}
		if err := b.Check("flatten", x); err != nil {
			return nil, err
		}
		shape := x.Shape()
		newShape := append(tensor.Shape{n}, shape[len(b.BatchShape):]...)
		c := x.Clone().(*tensor.Dense)
		if err := c.Reshape(newShape...); err != nil {
			return nil, fmt.Errorf("flatten: %v", err)
		}
		*dst[i] = c
	}
	return out, nil
}
