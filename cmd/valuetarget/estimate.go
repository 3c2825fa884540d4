package main

import (
	"fmt"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/estimator"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"github.com/spf13/cobra"
	"gorgonia.org/tensor"
)

// trajectories is the JSON input of the estimate command: B
// trajectories of T steps each, with precomputed values of the current
// and next observations. Value is needed only to compute advantages,
// and a nil Steps means each transition spans a single step.
type trajectories struct {
	Reward    [][]float64
	Done      [][]bool
	Value     [][]float64
	NextValue [][]float64
	Steps     [][]float64
}

// estimates is the JSON output of the estimate command
type estimates struct {
	Type      estimator.Type
	Advantage [][]float64 `json:",omitempty"`
	Target    [][]float64
}

func estimateCommand() *cobra.Command {
	var (
		estimatorType  string
		gamma          float64
		lambda         float64
		average        bool
		sequential     bool
		configFile     string
		typedEstimator estimator.TypedConfig
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Compute advantages and value targets of trajectories",
		RunE: func(cmd *cobra.Command, args []string) error {
			var est estimator.ValueEstimator
			var err error

			if configFile != "" {
				if err = readJSON(configFile, &typedEstimator); err != nil {
					return err
				}
				est, err = typedEstimator.Create(nil)
			} else {
				overrides := make(map[string]interface{})
				flags := cmd.Flags()
				if flags.Changed("gamma") {
					overrides["Gamma"] = gamma
				}
				if flags.Changed("lambda") {
					overrides["Lambda"] = lambda
				}
				if flags.Changed("sequential") {
					overrides["Vectorized"] = !sequential
				}
				if flags.Changed("average") {
					key := "AverageRewards"
					if estimator.Type(estimatorType) == estimator.GAEEstimate {
						key = "AverageGAE"
					}
					overrides[key] = average
				}
				est, err = estimator.Make(estimator.Type(estimatorType), nil,
					overrides)
			}
			if err != nil {
				return err
			}

			var in trajectories
			if err := readInput(cmd, &in); err != nil {
				return err
			}
			out, err := runEstimate(est, in)
			if err != nil {
				return err
			}

			if plotFile != "" {
				if err := plotEstimates(plotFile, in, out); err != nil {
					return err
				}
			}
			return writeOutput(cmd, out)
		},
	}

	cmd.Flags().StringVarP(&estimatorType, "type", "t",
		string(estimator.TD0Estimate), "Estimator type: TD0, TD1, TDLambda "+
			"or GAE")
	cmd.Flags().Float64Var(&gamma, "gamma", estimator.DefaultGamma,
		"Discount factor")
	cmd.Flags().Float64Var(&lambda, "lambda", estimator.DefaultLambda,
		"Trace decay of TDLambda and GAE")
	cmd.Flags().BoolVar(&average, "average", false,
		"Standardize rewards, or advantages for GAE")
	cmd.Flags().BoolVar(&sequential, "sequential", false,
		"Use the sequential form of TDLambda and GAE")
	cmd.Flags().StringVarP(&configFile, "config", "c", "",
		"JSON estimator configuration, overriding the other flags")
	return cmd
}

// runEstimate computes the estimates of trajectories
func runEstimate(est estimator.ValueEstimator,
	in trajectories) (estimates, error) {
	b, opts, err := in.batch()
	if err != nil {
		return estimates{}, err
	}
	out := estimates{Type: est.Type()}

	if opts.Value == nil {
		target, err := est.ValueEstimate(b, opts)
		if err != nil {
			return estimates{}, err
		}
		out.Target, err = rows(target)
		return out, err
	}

	result, err := est.Estimate(b, opts)
	if err != nil {
		return estimates{}, err
	}
	if out.Advantage, err = rows(result.Advantage); err != nil {
		return estimates{}, err
	}
	if out.Target, err = rows(result.ValueTarget); err != nil {
		return estimates{}, err
	}
	return out, nil
}

// batch returns the batch of shape [B, T] described by the
// trajectories, and the precomputed values to estimate it with
func (t trajectories) batch() (*batch.Batch, estimator.Options, error) {
	B := len(t.Reward)
	if B == 0 || len(t.Reward[0]) == 0 {
		return nil, estimator.Options{}, fmt.Errorf("batch: no rewards")
	}
	T := len(t.Reward[0])
	shape := tensor.Shape{B, T, 1}

	reward, err := flatten("Reward", t.Reward, B, T)
	if err != nil {
		return nil, estimator.Options{}, err
	}
	nextValue, err := flatten("NextValue", t.NextValue, B, T)
	if err != nil {
		return nil, estimator.Options{}, err
	}
	if len(t.Done) != B {
		return nil, estimator.Options{}, fmt.Errorf("batch: Done must "+
			"have %d trajectories", B)
	}
	done := make([]bool, 0, B*T)
	for _, d := range t.Done {
		if len(d) != T {
			return nil, estimator.Options{}, fmt.Errorf("batch: Done "+
				"trajectories must have %d steps", T)
		}
		done = append(done, d...)
	}

	b := &batch.Batch{
		Layout: batch.NewLayout(shape[:2], 1),
		Next: batch.Next{
			Reward: tensorutils.New(reward, shape),
			Done: tensor.New(tensor.WithShape(shape...),
				tensor.WithBacking(done)),
		},
	}
	opts := estimator.Options{NextValue: tensorutils.New(nextValue, shape)}

	if t.Value != nil {
		value, err := flatten("Value", t.Value, B, T)
		if err != nil {
			return nil, estimator.Options{}, err
		}
		opts.Value = tensorutils.New(value, shape)
	}
	if t.Steps != nil {
		steps, err := flatten("Steps", t.Steps, B, T)
		if err != nil {
			return nil, estimator.Options{}, err
		}
		b.StepsToNextObs = tensorutils.New(steps, shape)
	}
	return b, opts, nil
}

// flatten concatenates B trajectories of T steps each
func flatten(name string, x [][]float64, B, T int) ([]float64, error) {
	if len(x) != B {
		return nil, fmt.Errorf("batch: %s must have %d trajectories", name,
			B)
	}
	out := make([]float64, 0, B*T)
	for _, traj := range x {
		if len(traj) != T {
			return nil, fmt.Errorf("batch: %s trajectories must have %d "+
				"steps", name, T)
		}
		out = append(out, traj...)
	}
	return out, nil
}

// rows splits the data of a tensor of shape [B, ...] into B rows
func rows(t *tensor.Dense) ([][]float64, error) {
	data, err := tensorutils.Float64s(t)
	if err != nil {
		return nil, err
	}
	B := t.Shape()[0]
	cols := len(data) / B

	out := make([][]float64, B)
	for i := range out {
		out[i] = append([]float64(nil), data[i*cols:(i+1)*cols]...)
	}
	return out, nil
}
