package distributional

import (
	"math"
	"testing"

	"github.com/samuelfneumann/valuetarget/batch"
	"github.com/samuelfneumann/valuetarget/estimator"
	"github.com/samuelfneumann/valuetarget/network"
	"github.com/samuelfneumann/valuetarget/targeterr"
	"github.com/samuelfneumann/valuetarget/utils/tensorutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
)

const tol = 1e-6

func newProjector(t *testing.T, gamma float64,
	valueFn network.ValueFunc) *Projector {
	t.Helper()
	c := Config{
		Gamma:       gamma,
		Support:     Support{VMin: -10, VMax: 10, Atoms: 5},
		ActionSpace: batch.Categorical,
		Estimator:   estimator.TD0Estimate,
	}
	p, err := c.Create(valueFn)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func column(data ...float64) *tensor.Dense {
	return tensorutils.New(data, tensor.Shape{len(data), 1})
}

func flags(done ...bool) *tensor.Dense {
	return tensor.New(tensor.WithShape(len(done), 1),
		tensor.WithBacking(done))
}

func uniform(n, z int) *tensor.Dense {
	p := make([]float64, n*z)
	for i := range p {
		p[i] = 1 / float64(z)
	}
	return tensorutils.New(p, tensor.Shape{n, z})
}

func TestSupport(t *testing.T) {
	s, err := NewSupport(-10, 10, 5)
	if err != nil {
		t.Fatal(err)
	}
	if dz := s.DeltaZ(); dz != 5 {
		t.Errorf("deltaZ: want(5) have(%v)", dz)
	}
	want := []float64{-10, -5, 0, 5, 10}
	if !floats.Equal(s.Values(), want) {
		t.Errorf("values:\n\twant(%v)\n\thave(%v)", want, s.Values())
	}

	for _, bad := range []Support{
		{VMin: 0, VMax: 1, Atoms: 1},
		{VMin: 1, VMax: 1, Atoms: 5},
		{VMin: math.Inf(-1), VMax: 1, Atoms: 5},
	} {
		if bad.Validate() == nil {
			t.Errorf("no error for support %+v", bad)
		}
	}
}

func TestProjectReference(t *testing.T) {
	p := newProjector(t, 0.9, nil)
	m, err := p.Project(column(0), flags(false), column(0.9), uniform(1, 5))
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0.16, 0.22, 0.24, 0.22, 0.16}
	if !floats.EqualApprox(m.Data().([]float64), want, tol) {
		t.Errorf("mass:\n\twant(%v)\n\thave(%v)", want, m.Data())
	}
	if !tensorutils.ShapeEq(m.Shape(), tensor.Shape{1, 5}) {
		t.Errorf("shape: want([1 5]) have(%v)", m.Shape())
	}
}

func TestProjectDegenerateBins(t *testing.T) {
	p := newProjector(t, 0.9, nil)
	probs := tensorutils.New([]float64{
		0.1, 0.2, 0.3, 0.2, 0.2,
		0.1, 0.2, 0.3, 0.2, 0.2,
		0.1, 0.2, 0.3, 0.2, 0.2,
	}, tensor.Shape{3, 5})

	// Terminal transitions collapse onto a single atom, including the
	// atoms at both ends of the support after clamping
	m, err := p.Project(column(-20, 20, 5), flags(true, true, true),
		column(0.9, 0.9, 0.9), probs)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{
		1, 0, 0, 0, 0,
		0, 0, 0, 0, 1,
		0, 0, 0, 1, 0,
	}
	if !floats.EqualApprox(m.Data().([]float64), want, tol) {
		t.Errorf("mass:\n\twant(%v)\n\thave(%v)", want, m.Data())
	}
}

func TestProjectInexactSupport(t *testing.T) {
	// (VMax - VMin) / dz rounds to slightly more than Atoms - 1 for this
	// support, so clamped atoms must not index past the last atom
	const Z = 51
	c := Config{Gamma: 0.99, Support: Support{VMin: -5,
		VMax: 11.666666666666666, Atoms: Z}}
	p, err := c.Create(nil)
	if err != nil {
		t.Fatal(err)
	}

	m, err := p.Project(column(100, -100), flags(false, false),
		column(0.99, 0.99), uniform(2, Z))
	if err != nil {
		t.Fatal(err)
	}

	mass := m.Data().([]float64)
	for n, atom := range []int{Z - 1, 0} {
		row := mass[n*Z : (n+1)*Z]
		if sum := floats.Sum(row); math.Abs(sum-1) > 1e-12 {
			t.Errorf("row %d: mass not conserved: have(%v)", n, sum)
		}
		if math.Abs(row[atom]-1) > 1e-12 {
			t.Errorf("row %d: want all mass on atom %d have(%v)", n, atom,
				row)
		}
	}
}

func TestProjectIdentity(t *testing.T) {
	// With no reward and no discounting every atom maps onto itself
	p := newProjector(t, 1, nil)
	want := []float64{0.05, 0.15, 0.5, 0.2, 0.1}
	probs := tensorutils.New(append([]float64(nil), want...),
		tensor.Shape{1, 5})

	m, err := p.Project(column(0), flags(false), column(1), probs)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(m.Data().([]float64), want, tol) {
		t.Errorf("mass:\n\twant(%v)\n\thave(%v)", want, m.Data())
	}
}

func TestProjectConservesMass(t *testing.T) {
	const N, Z = 64, 11
	src := rand.NewSource(1)
	normal := distuv.Normal{Mu: 0, Sigma: 8, Src: src}
	unif := distuv.Uniform{Min: 0, Max: 1, Src: src}
	bernoulli := distuv.Bernoulli{P: 0.3, Src: src}

	c := Config{Gamma: 0.99, Support: Support{VMin: -10, VMax: 10, Atoms: Z}}
	p, err := c.Create(nil)
	if err != nil {
		t.Fatal(err)
	}

	reward := make([]float64, N)
	discount := make([]float64, N)
	done := make([]bool, N)
	probs := make([]float64, N*Z)
	for n := 0; n < N; n++ {
		reward[n] = normal.Rand()
		discount[n] = unif.Rand()
		done[n] = bernoulli.Rand() == 1

		row := probs[n*Z : (n+1)*Z]
		for z := range row {
			row[z] = unif.Rand()
		}
		floats.Scale(1/floats.Sum(row), row)
	}

	m, err := p.Project(column(reward...), flags(done...),
		column(discount...), tensorutils.New(probs, tensor.Shape{N, Z}))
	if err != nil {
		t.Fatal(err)
	}

	mass := m.Data().([]float64)
	for n := 0; n < N; n++ {
		row := mass[n*Z : (n+1)*Z]
		if sum := floats.Sum(row); math.Abs(sum-1) > tol {
			t.Errorf("row %d: mass not conserved: have(%v)", n, sum)
		}
		if floats.Min(row) < 0 {
			t.Errorf("row %d: negative mass %v", n, row)
		}
	}
}

func TestProjectErrors(t *testing.T) {
	p := newProjector(t, 0.9, nil)

	_, err := p.Project(column(math.NaN()), flags(false), column(0.9),
		uniform(1, 5))
	if !targeterr.IsNumericDivergence(err) {
		t.Errorf("NaN reward: want numeric divergence have(%v)", err)
	}

	_, err = p.Project(column(0), flags(false), column(0.9), uniform(1, 4))
	if !targeterr.IsShape(err) {
		t.Errorf("wrong atoms: want shape error have(%v)", err)
	}

	_, err = p.Project(column(0, 1), flags(false), column(0.9),
		uniform(1, 5))
	if !targeterr.IsShape(err) {
		t.Errorf("wrong rewards: want shape error have(%v)", err)
	}

	probs := tensorutils.New(make([]float64, 10), tensor.Shape{1, 2, 5})
	_, err = p.Project(column(0), flags(false), column(0.9), probs)
	if !targeterr.IsShape(err) {
		t.Errorf("extra dimension: want shape error have(%v)", err)
	}
}

func TestConfigUnsupportedEstimator(t *testing.T) {
	for _, typ := range []estimator.Type{estimator.TD1Estimate,
		estimator.TDLambdaEstimate, estimator.GAEEstimate} {
		c := Config{
			Gamma:     0.99,
			Support:   Support{VMin: -1, VMax: 1, Atoms: 3},
			Estimator: typ,
		}
		if _, err := c.Create(nil); !targeterr.IsUnsupported(err) {
			t.Errorf("%v: want unsupported error have(%v)", typ, err)
		}
	}

	// The empty estimator type defaults to TD(0)
	c := Config{Gamma: 0.99, Support: Support{VMin: -1, VMax: 1, Atoms: 3}}
	if _, err := c.Create(nil); err != nil {
		t.Error(err)
	}
}

func BenchmarkProject(b *testing.B) {
	const N, Z = 256, 51
	c := Config{Gamma: 0.99, Support: Support{VMin: -10, VMax: 10, Atoms: Z}}
	p, err := c.Create(nil)
	if err != nil {
		b.Fatal(err)
	}

	reward := make([]float64, N)
	for i := range reward {
		reward[i] = float64(i%21) - 10
	}
	done := make([]bool, N)
	gamma := make([]float64, N)
	for i := range gamma {
		gamma[i] = 0.99
	}
	rt, dt, gt, pt := column(reward...), flags(done...), column(gamma...),
		uniform(N, Z)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Project(rt, dt, gt, pt); err != nil {
			b.Fatal(err)
		}
	}
}
