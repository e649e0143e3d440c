package koopman

import (
	"math"
	"testing"

	"github.com/diegoolguinw/KKKF/dynamic"
	"github.com/diegoolguinw/KKKF/kernel"
	"github.com/diegoolguinw/KKKF/noise"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// newLinearSystem builds a fully observed linear system x[k+1] = A*x[k]
// with a Gaussian state prior seeded by seed.
func newLinearSystem(t *testing.T, a *mat.Dense, seed uint64) *dynamic.System {
	nx, _ := a.Dims()

	f := func(x mat.Vector) mat.Vector {
		out := &mat.VecDense{}
		out.MulVec(a, x)

		return out
	}
	g := func(x mat.Vector) mat.Vector {
		out := &mat.VecDense{}
		out.CloneFromVec(x)

		return out
	}

	cov := mat.NewSymDense(nx, nil)
	for i := 0; i < nx; i++ {
		cov.SetSym(i, i, 1.0)
	}

	prior, err := noise.NewGaussianFromSource(make([]float64, nx), cov, rand.NewSource(seed))
	assert.NoError(t, err)

	sys, err := dynamic.New(nx, nx, f, g, prior, nil, nil)
	assert.NoError(t, err)

	return sys
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{0.9, 0.1, 0.0, 0.8})
	sys := newLinearSystem(t, a, 1)
	k := kernel.NewLinear(0.0)

	op, err := New(sys, k, &Config{Samples: 20, Ridge: 1e-8})
	assert.NotNil(op)
	assert.NoError(err)

	nx, n := op.Dims()
	assert.Equal(2, nx)
	assert.Equal(20, n)
	assert.Equal(1e-8, op.Ridge())

	// nil system/kernel/config
	op, err = New(nil, k, &Config{Samples: 10})
	assert.Nil(op)
	assert.Error(err)
	op, err = New(sys, nil, &Config{Samples: 10})
	assert.Nil(op)
	assert.Error(err)
	op, err = New(sys, k, nil)
	assert.Nil(op)
	assert.Error(err)

	// negative ridge is a configuration error, not a silent default
	op, err = New(sys, k, &Config{Samples: 10, Ridge: -1.0})
	assert.Nil(op)
	assert.Error(err)

	// no basis and no sample count
	op, err = New(sys, k, &Config{})
	assert.Nil(op)
	assert.Error(err)

	// mismatched explicit basis
	op, err = New(sys, k, &Config{Basis: mat.NewDense(3, 5, nil)})
	assert.Nil(op)
	assert.Error(err)
}

func TestLiftSelfConsistency(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{0.9, 0.1, 0.0, 0.8})
	sys := newLinearSystem(t, a, 2)
	k := kernel.NewRBF(1.0, 2.0)

	op, err := New(sys, k, &Config{Samples: 15, Ridge: 1e-8})
	assert.NoError(err)

	basis := op.Basis().(*mat.Dense)
	gram := op.Gram().(*mat.Dense)

	_, n := op.Dims()
	for i := 0; i < n; i++ {
		phi, err := op.Lift(basis.ColView(i))
		assert.NoError(err)

		// lifting basis point i reproduces Gram column i
		for j := 0; j < n; j++ {
			assert.InDelta(gram.At(j, i), phi.AtVec(j), 1e-12)
		}
	}
}

func TestLiftDimMismatch(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(1, 1, []float64{0.9})
	sys := newLinearSystem(t, a, 3)

	op, err := New(sys, kernel.NewLinear(0.0), &Config{Samples: 10, Ridge: 1e-8})
	assert.NoError(err)

	_, err = op.Lift(mat.NewVecDense(2, nil))
	assert.Error(err)

	_, err = op.LiftBatch(mat.NewDense(2, 3, nil))
	assert.Error(err)

	_, err = op.Reconstruct(mat.NewVecDense(3, nil))
	assert.Error(err)
}

func TestLinearRecovery(t *testing.T) {
	assert := assert.New(t)

	// for a linear map and a linear kernel the estimated operator
	// must recover the map through lift/advance/reconstruct
	a := mat.NewDense(2, 2, []float64{0.9, 0.1, -0.2, 0.8})
	sys := newLinearSystem(t, a, 4)
	k := kernel.NewLinear(0.0)

	op, err := New(sys, k, &Config{Samples: 50, Ridge: 1e-9})
	assert.NoError(err)

	for _, xs := range [][]float64{
		{1.0, 0.0},
		{0.0, 1.0},
		{0.5, -2.0},
	} {
		x := mat.NewVecDense(2, xs)

		want := &mat.VecDense{}
		want.MulVec(a, x)

		got, err := op.Predict(x)
		assert.NoError(err)
		assert.True(mat.EqualApprox(want, got, 1e-5), "want %v got %v", want, got)
	}
}

func TestPropagateBatch(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(2, 2, []float64{0.9, 0.0, 0.0, 0.8})
	sys := newLinearSystem(t, a, 5)

	op, err := New(sys, kernel.NewLinear(0.0), &Config{Samples: 30, Ridge: 1e-9})
	assert.NoError(err)

	x := mat.NewDense(2, 3, []float64{
		1, 0, 2,
		0, 1, -1,
	})

	got, err := op.PropagateBatch(x)
	assert.NoError(err)

	want := &mat.Dense{}
	want.Mul(a, x)
	assert.True(mat.EqualApprox(want, got, 1e-5))
}

func TestExplicitBasis(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(1, 1, []float64{0.9})
	sys := newLinearSystem(t, a, 6)

	basis := mat.NewDense(1, 5, []float64{-2, -1, 0, 1, 2})

	op, err := New(sys, kernel.NewLinear(0.0), &Config{Basis: basis, Ridge: 1e-9})
	assert.NoError(err)

	_, n := op.Dims()
	assert.Equal(5, n)

	// supplied basis is referenced through a copy: mutating the
	// caller matrix must not change the operator basis
	basis.Set(0, 0, 100)
	assert.Equal(-2.0, op.Basis().At(0, 0))
}

func TestNearSingularGram(t *testing.T) {
	assert := assert.New(t)

	a := mat.NewDense(1, 1, []float64{0.9})
	sys := newLinearSystem(t, a, 7)

	// duplicated basis points make the Gram matrix exactly singular;
	// the ridge floor must keep the solve alive
	basis := mat.NewDense(1, 4, []float64{1, 1, 2, 2})

	op, err := New(sys, kernel.NewRBF(1.0, 1.0), &Config{Basis: basis})
	assert.NotNil(op)
	assert.NoError(err)

	x := mat.NewVecDense(1, []float64{1.5})
	got, err := op.Predict(x)
	assert.NoError(err)
	assert.False(math.IsNaN(got.AtVec(0)), "prediction is NaN")
}
