package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

const tol = 1e-6

// run executes the command line with the given standard input and
// returns its standard output
func run(t *testing.T, stdin string, args ...string) []byte {
	t.Helper()
	inputFile, outputFile, plotFile = "", "", ""

	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	return out.Bytes()
}

const gaeInput = `{
	"Reward": [[1, 0.5, -1]],
	"Done": [[false, false, true]],
	"Value": [[2, 1, 0]],
	"NextValue": [[1, 0, 0]]
}`

func TestEstimateGAE(t *testing.T) {
	for _, sequential := range []string{"--sequential=false", "--sequential"} {
		var out estimates
		data := run(t, gaeInput, "estimate", "--type", "GAE", "--lambda",
			"0.95", sequential)
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatal(err)
		}

		wantAdv := []float64{-1.36479025, -1.4405, -1}
		wantTarget := []float64{0.63520975, -0.4405, -1}
		if !floats.EqualApprox(out.Advantage[0], wantAdv, tol) {
			t.Errorf("advantage:\n\twant(%v)\n\thave(%v)", wantAdv,
				out.Advantage[0])
		}
		if !floats.EqualApprox(out.Target[0], wantTarget, tol) {
			t.Errorf("target:\n\twant(%v)\n\thave(%v)", wantTarget,
				out.Target[0])
		}
	}
}

func TestEstimateConfigFile(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "td0.json")
	err := os.WriteFile(config, []byte(`{"Type": "TD0", "Config": {"Gamma": 0.5}}`),
		0644)
	if err != nil {
		t.Fatal(err)
	}

	// Without values only targets are computed
	input := `{
		"Reward": [[1, 1]],
		"Done": [[false, true]],
		"NextValue": [[4, 4]]
	}`
	var out estimates
	if err := json.Unmarshal(run(t, input, "estimate", "-c", config), &out); err != nil {
		t.Fatal(err)
	}
	if out.Advantage != nil {
		t.Errorf("advantage: want(nil) have(%v)", out.Advantage)
	}
	want := []float64{3, 1}
	if !floats.EqualApprox(out.Target[0], want, tol) {
		t.Errorf("target:\n\twant(%v)\n\thave(%v)", want, out.Target[0])
	}
}

func TestEstimatePlot(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "batch.json")
	output := filepath.Join(dir, "out.json")
	img := filepath.Join(dir, "gae.png")
	if err := os.WriteFile(input, []byte(gaeInput), 0644); err != nil {
		t.Fatal(err)
	}

	run(t, "", "estimate", "--type", "GAE", "-i", input, "-o", output,
		"--plot", img)
	for _, path := range []string{output, img} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%v not written: %v", path, err)
		}
	}
}

func TestEstimateErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
	}{
		{"unknown type", gaeInput, []string{"estimate", "--type", "Retrace"}},
		{"bad lambda", gaeInput, []string{"estimate", "--type", "GAE",
			"--lambda", "2"}},
		{"ragged", `{"Reward": [[1, 2]], "Done": [[false]],
			"NextValue": [[1, 2]]}`, []string{"estimate"}},
		{"unknown field", `{"Rewards": [[1]]}`, []string{"estimate"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			inputFile, outputFile, plotFile = "", "", ""
			cmd := rootCommand()
			cmd.SetIn(strings.NewReader(test.input))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs(test.args)
			if err := cmd.Execute(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRows(t *testing.T) {
	m := tensor.New(tensor.WithShape(2, 2),
		tensor.WithBacking([]float64{1, 2, 3, 4}))
	out, err := rows(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || !floats.Equal(out[1], []float64{3, 4}) {
		t.Errorf("rows: \n\twant([[1 2] [3 4]])\n\thave(%v)", out)
	}

	done := tensor.New(tensor.WithShape(2, 1),
		tensor.WithBacking([]bool{true, false}))
	if _, err := rows(done); err == nil {
		t.Error("rows: expected an error for a non-float64 tensor")
	}
}

func TestProject(t *testing.T) {
	input := `{
		"Reward": [0],
		"Done": [false],
		"Probs": [[0.2, 0.2, 0.2, 0.2, 0.2]]
	}`
	var out projection
	data := run(t, input, "project", "--gamma", "0.9", "--atoms", "5")
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}

	want := []float64{0.16, 0.22, 0.24, 0.22, 0.16}
	if !floats.EqualApprox(out.M[0], want, tol) {
		t.Errorf("mass:\n\twant(%v)\n\thave(%v)", want, out.M[0])
	}
	if support := []float64{-10, -5, 0, 5, 10}; !floats.Equal(out.Support, support) {
		t.Errorf("support:\n\twant(%v)\n\thave(%v)", support, out.Support)
	}
}
