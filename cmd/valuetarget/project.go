package main

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/distributional"
	"github.com/samuelfneumann/valuetarget/returns"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"github.com/spf13/cobra"
	"gorgonia.org/tensor"
)

// distributions is the JSON input of the project command: one row of
// next state probabilities over the support per transition
type distributions struct {
	Reward []float64
	Done   []bool
	Steps  []float64
	Probs  [][]float64
}

// projection is the JSON output of the project command
type projection struct {
	Support []float64
	M       [][]float64
}

func projectCommand() *cobra.Command {
	var (
		gamma float64
		vMin  float64
		vMax  float64
		atoms int
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project Bellman shifted distributions onto a support",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := distributional.Config{
				Gamma:   gamma,
				Support: distributional.Support{VMin: vMin, VMax: vMax, Atoms: atoms},
			}
			p, err := c.Create(nil)
			if err != nil {
				return err
			}

			var in distributions
			if err := readInput(cmd, &in); err != nil {
				return err
			}
			out, err := runProject(p, gamma, in)
			if err != nil {
				return err
			}

			if plotFile != "" {
				if err := plotProjection(plotFile, out); err != nil {
					return err
				}
			}
			return writeOutput(cmd, out)
		},
	}

	cmd.Flags().Float64Var(&gamma, "gamma", 0.99, "Discount factor")
	cmd.Flags().Float64Var(&vMin, "vmin", -10, "Smallest atom of the support")
	cmd.Flags().Float64Var(&vMax, "vmax", 10, "Largest atom of the support")
	cmd.Flags().IntVar(&atoms, "atoms", 51, "Number of atoms of the support")
	return cmd
}

// runProject projects the distributions onto the support of p
func runProject(p *distributional.Projector, gamma float64,
	in distributions) (projection, error) {
	N := len(in.Probs)
	if N == 0 {
		return projection{}, fmt.Errorf("project: no distributions")
	}
	Z := p.Support().Atoms

	probs := make([]float64, 0, N*Z)
	for _, row := range in.Probs {
		if len(row) != Z {
			return projection{}, fmt.Errorf("project: distributions must "+
				"have %d atoms", Z)
		}
		probs = append(probs, row...)
	}
	if len(in.Done) != N {
		return projection{}, fmt.Errorf("project: Done must have %d "+
			"elements", N)
	}

	discount, err := returns.Discount(gamma, in.Steps, tensor.Shape{N, 1})
	if err != nil {
		return projection{}, err
	}
	done := tensor.New(tensor.WithShape(N, 1), tensor.WithBacking(in.Done))

	m, err := p.Project(tensorutils.New(in.Reward, tensor.Shape{len(in.Reward), 1}),
		done, discount, tensorutils.New(probs, tensor.Shape{N, Z}))
	if err != nil {
		return projection{}, err
	}
	M, err := rows(m)
	if err != nil {
		return projection{}, err
	}
	return projection{Support: p.Support().Values(), M: M}, nil
}
