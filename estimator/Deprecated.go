package estimator

import (
	"fmt"
	"os"

	"github.com/samuelfneumann/valuetarget/network"
)

// NewTD0Estimate returns a new TD(0) value estimator.
//
// Deprecated: use NewTD0 or TD0Config instead.
func NewTD0Estimate(valueFn network.ValueFunc, gamma float64,
	averageRewards, differentiable bool) *TD0 {
	deprecated("NewTD0Estimate", "NewTD0")
	return NewTD0(valueFn, gamma, averageRewards, differentiable)
}

// NewTD1Estimate returns a new TD(1) value estimator.
//
// Deprecated: use NewTD1 or TD1Config instead.
func NewTD1Estimate(valueFn network.ValueFunc, gamma float64,
	averageRewards, differentiable bool) *TD1 {
	deprecated("NewTD1Estimate", "NewTD1")
	return NewTD1(valueFn, gamma, averageRewards, differentiable)
}

// NewTDLambdaEstimate returns a new TD(λ) value estimator.
//
// Deprecated: use NewTDLambda or TDLambdaConfig instead.
func NewTDLambdaEstimate(valueFn network.ValueFunc, gamma, lambda float64,
	averageRewards, differentiable, vectorized bool) *TDLambda {
	deprecated("NewTDLambdaEstimate", "NewTDLambda")
	return NewTDLambda(valueFn, gamma, lambda, averageRewards, differentiable,
		vectorized)
}

func deprecated(name, replacement string) {
	fmt.Fprintf(os.Stderr, "Warning: %s is deprecated and will be removed, "+
		"use %s instead\n", name, replacement)
}
