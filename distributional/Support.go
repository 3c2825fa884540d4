// Package distributional implements the categorical distributional
// Bellman target: projection of a shifted and scaled return
// distribution back onto a fixed support of atoms, and the construction
// of full targets with double estimator action selection.
package distributional

import (
	"fmt"
	"math"
)

// Support is a fixed grid of Atoms evenly spaced atoms
// VMin = z_0 < z_1 < ... < z_{Atoms-1} = VMax
type Support struct {
	VMin  float64
	VMax  float64
	Atoms int
}

// NewSupport returns a new Support
func NewSupport(vMin, vMax float64, atoms int) (Support, error) {
	s := Support{VMin: vMin, VMax: vMax, Atoms: atoms}
	return s, s.Validate()
}

// Validate returns an error if the support is invalid
func (s Support) Validate() error {
	if s.Atoms < 2 {
		return fmt.Errorf("support: at least two atoms required "+
			"\n\thave(%v)", s.Atoms)
	}
	if math.IsNaN(s.VMin) || math.IsNaN(s.VMax) || math.IsInf(s.VMin, 0) ||
		math.IsInf(s.VMax, 0) || s.VMin >= s.VMax {
		return fmt.Errorf("support: illegal bounds \n\twant(VMin < VMax)"+
			"\n\thave(%v, %v)", s.VMin, s.VMax)
	}
	return nil
}

// DeltaZ returns the distance between adjacent atoms
func (s Support) DeltaZ() float64 {
	return (s.VMax - s.VMin) / float64(s.Atoms-1)
}

// Values returns the atoms of the support
func (s Support) Values() []float64 {
	dz := s.DeltaZ()
	z := make([]float64, s.Atoms)
	for i := range z {
		z[i] = s.VMin + float64(i)*dz
	}
	z[s.Atoms-1] = s.VMax
	return z
}
