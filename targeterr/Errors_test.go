package targeterr

import (
	"fmt"
	"testing"
)

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"shape", Shapef("td0", "bad shape %v", []int{2, 0}), Shape},
		{"missing", MissingParameterf("estimate", "no params"), MissingParameter},
		{"divergence", NumericDivergencef("project", "Tz not finite"),
			NumericDivergence},
		{"unsupported", Unsupportedf("new", "GAE"), UnsupportedConfiguration},
	}

	predicates := map[Kind]func(error) bool{
		Shape:                    IsShape,
		MissingParameter:         IsMissingParameter,
		NumericDivergence:        IsNumericDivergence,
		UnsupportedConfiguration: IsUnsupported,
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for kind, pred := range predicates {
				if got, want := pred(test.err), kind == test.kind; got != want {
					t.Errorf("%v predicate on %v error: want(%v) have(%v)",
						kind, test.kind, want, got)
				}
			}

			// Predicates must see through wrapping
			wrapped := fmt.Errorf("outer: %w", test.err)
			if !predicates[test.kind](wrapped) {
				t.Errorf("predicate did not match wrapped %v error", test.kind)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Shapef("td1", "time dimension is empty")
	if got, want := err.Error(), "td1: time dimension is empty"; got != want {
		t.Errorf("message:\n\twant(%v)\n\thave(%v)", want, got)
	}

	if IsShape(fmt.Errorf("plain")) {
		t.Error("plain error reported as shape error")
	}
}
