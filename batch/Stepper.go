package batch

import "github.com/samuelfneumann/valuetarget/targeterr"

// Stepper produces the view of a batch whose current fields are the
// next-step fields of the original batch. Estimators use the view to
// predict the values of next observations for bootstrapping.
type Stepper interface {
	Step(b *Batch) (*Batch, error)
}

// NextStep is the default Stepper. The view it returns shares its
// tensors with the original batch and has no next-step fields of its
// own.
type NextStep struct{}

// Step implements the Stepper interface
func (NextStep) Step(b *Batch) (*Batch, error) {
	if b.Next.Observation == nil {
		return nil, targeterr.Shapef("step", "batch has no next "+
			"observations")
	}
	if err := b.Layout.Check("next observation", b.Next.Observation); err != nil {
		return nil, err
	}

	return &Batch{
		Layout:      Layout{BatchShape: b.BatchShape.Clone(), TimeDim: b.TimeDim},
		Observation: b.Next.Observation,
		Action:      b.Next.Action,
	}, nil
}
