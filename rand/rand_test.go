package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestWithCovN(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 2})

	samples, err := WithCovN(cov, 10, nil)
	assert.NotNil(samples)
	assert.NoError(err)

	rows, cols := samples.Dims()
	assert.Equal(2, rows)
	assert.Equal(10, cols)

	// invalid sample count
	samples, err = WithCovN(cov, -10, nil)
	assert.Nil(samples)
	assert.Error(err)
}

func TestWithCovNDeterminism(t *testing.T) {
	assert := assert.New(t)

	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})

	s1, err := WithCovN(cov, 5, rand.NewSource(7))
	assert.NoError(err)
	s2, err := WithCovN(cov, 5, rand.NewSource(7))
	assert.NoError(err)

	assert.True(mat.EqualApprox(s1, s2, 0.0))
}
