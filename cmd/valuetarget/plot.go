package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// plotEstimates plots the rewards, values and targets of the first
// trajectory against time
func plotEstimates(path string, in trajectories, out estimates) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%v estimates", out.Type)
	p.X.Label.Text = "Time step"
	p.Y.Label.Text = "Value"

	series := []struct {
		name string
		data [][]float64
	}{
		{"Reward", in.Reward},
		{"Value", in.Value},
		{"Target", out.Target},
		{"Advantage", out.Advantage},
	}

	for i, s := range series {
		if len(s.data) == 0 {
			continue
		}
		line, err := plotter.NewLine(points(nil, s.data[0]))
		if err != nil {
			return fmt.Errorf("plotEstimates: %v", err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plotEstimates: %v", err)
	}
	return nil
}

// plotProjection plots each projected distribution over the support
func plotProjection(path string, out projection) error {
	p := plot.New()
	p.Title.Text = "Projected target distributions"
	p.X.Label.Text = "Return"
	p.Y.Label.Text = "Probability"

	for i, m := range out.M {
		line, err := plotter.NewLine(points(out.Support, m))
		if err != nil {
			return fmt.Errorf("plotProjection: %v", err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("Transition %d", i), line)
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plotProjection: %v", err)
	}
	return nil
}

// points returns the points (x[i], y[i]). If x is nil, the index of
// each point is used instead.
func points(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(y))
	for i, v := range y {
		pts[i].Y = v
		if x == nil {
			pts[i].X = float64(i)
		} else {
			pts[i].X = x[i]
		}
	}
	return pts
}
