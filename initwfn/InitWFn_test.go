package initwfn

import (
	"encoding/json"
	"testing"

	"gorgonia.org/tensor"
)

func TestJSON(t *testing.T) {
	init, err := NewGlorotU(1.5)
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(init)
	if err != nil {
		t.Fatal(err)
	}

	var decoded InitWFn
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != GlorotU {
		t.Errorf("type: want(%v) have(%v)", GlorotU, decoded.Type)
	}
	if c, ok := decoded.Config.(GlorotUConfig); !ok || c.Gain != 1.5 {
		t.Errorf("config: have(%v)", decoded.Config)
	}
	if decoded.InitWFn() == nil {
		t.Error("decoded InitWFn has no Gorgonia InitWFn")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []string{
		`{"Type": "Xavier"}`,
		`{"Type": "HeU", "Config": {"Gain": -1}}`,
		`{"Type": "Uniform", "Config": {"Low": 1, "High": 0}}`,
	}

	for _, test := range tests {
		var init InitWFn
		if err := json.Unmarshal([]byte(test), &init); err == nil {
			t.Errorf("expected error decoding %v", test)
		}
	}
}

func TestCreate(t *testing.T) {
	init, err := NewConstant(0.5)
	if err != nil {
		t.Fatal(err)
	}

	weights := init.InitWFn()(tensor.Float64, 2, 3).([]float64)
	if len(weights) != 6 {
		t.Fatalf("weights: want(6) have(%v)", len(weights))
	}
	for _, w := range weights {
		if w != 0.5 {
			t.Errorf("constant weight: want(0.5) have(%v)", w)
		}
	}
}
