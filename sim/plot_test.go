package sim

import (
	"testing"

	kkkf "github.com/diegoolguinw/KKKF"
	"github.com/diegoolguinw/KKKF/estimate"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func newEstimates(t *testing.T, steps int) []kkkf.Estimate {
	ests := make([]kkkf.Estimate, steps)
	for i := range ests {
		est, err := estimate.NewBaseWithCov(mat.NewVecDense(1, []float64{float64(i)}), mat.NewSymDense(1, []float64{0.1}))
		assert.NoError(t, err)
		ests[i] = est
	}

	return ests
}

func TestNewSeriesPlot(t *testing.T) {
	assert := assert.New(t)

	steps := 5
	states := mat.NewDense(1, steps, nil)
	observations := mat.NewDense(1, steps, nil)
	estimates := newEstimates(t, steps)

	p, err := NewSeriesPlot(0, states, observations, estimates)
	assert.NotNil(p)
	assert.NoError(err)

	// nil data
	p, err = NewSeriesPlot(0, nil, observations, estimates)
	assert.Nil(p)
	assert.Error(err)

	// no estimates
	p, err = NewSeriesPlot(0, states, observations, nil)
	assert.Nil(p)
	assert.Error(err)

	// mismatched step counts
	p, err = NewSeriesPlot(0, states, mat.NewDense(1, steps+1, nil), estimates)
	assert.Nil(p)
	assert.Error(err)

	// component index out of range
	p, err = NewSeriesPlot(1, states, observations, estimates)
	assert.Nil(p)
	assert.Error(err)
}
