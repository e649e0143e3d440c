package sim

import (
	"testing"

	"github.com/diegoolguinw/KKKF/dynamic"
	"github.com/diegoolguinw/KKKF/noise"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestInitCond(t *testing.T) {
	assert := assert.New(t)

	state := mat.NewVecDense(2, []float64{1.0, 3.0})
	cov := mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25})

	ic := NewInitCond(state, cov)
	assert.NotNil(ic)

	assert.True(mat.EqualApprox(state, ic.State(), 0.0))
	assert.True(mat.EqualApprox(cov, ic.Cov(), 0.0))

	// the initial condition keeps its own copies
	state.SetVec(0, -100)
	assert.Equal(1.0, ic.State().AtVec(0))
}

func TestTrajectory(t *testing.T) {
	assert := assert.New(t)

	f := func(x mat.Vector) mat.Vector {
		out := mat.NewVecDense(1, nil)
		out.ScaleVec(0.9, x)

		return out
	}
	g := func(x mat.Vector) mat.Vector {
		out := &mat.VecDense{}
		out.CloneFromVec(x)

		return out
	}

	q, err := noise.NewGaussianFromSource([]float64{0}, mat.NewSymDense(1, []float64{1e-6}), rand.NewSource(1))
	assert.NoError(err)

	sys, err := dynamic.New(1, 1, f, g, nil, q, nil)
	assert.NoError(err)

	x0 := mat.NewVecDense(1, []float64{1.0})

	states, observations, err := Trajectory(sys, x0, 10)
	assert.NoError(err)

	sr, sc := states.Dims()
	assert.Equal(1, sr)
	assert.Equal(10, sc)

	or, oc := observations.Dims()
	assert.Equal(1, or)
	assert.Equal(10, oc)

	// the trajectory decays geometrically up to the tiny process noise
	assert.InDelta(0.9, states.At(0, 0), 0.01)
	assert.InDelta(0.81, states.At(0, 1), 0.01)

	zs := Observations(observations)
	assert.Equal(10, len(zs))
	assert.Equal(observations.At(0, 3), zs[3].AtVec(0))

	// invalid step count
	_, _, err = Trajectory(sys, x0, 0)
	assert.Error(err)
}
