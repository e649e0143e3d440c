package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewBase(t *testing.T) {
	assert := assert.New(t)

	val := mat.NewVecDense(2, []float64{1.0, 3.0})

	e, err := NewBase(val)
	assert.NotNil(e)
	assert.NoError(err)

	assert.Equal(val.Len(), e.Val().Len())
	assert.Equal(val.Len(), e.Cov().SymmetricDim())

	for i := 0; i < val.Len(); i++ {
		assert.Equal(val.AtVec(i), e.Val().AtVec(i))
		for j := 0; j < val.Len(); j++ {
			assert.Equal(0.0, e.Cov().At(i, j))
		}
	}
}

func TestNewBaseWithCov(t *testing.T) {
	assert := assert.New(t)

	val := mat.NewVecDense(2, []float64{1.0, 3.0})
	cov := mat.NewSymDense(2, []float64{0.25, 0.1, 0.1, 0.5})

	e, err := NewBaseWithCov(val, cov)
	assert.NotNil(e)
	assert.NoError(err)

	assert.True(mat.EqualApprox(val, e.Val(), 0.0))
	assert.True(mat.EqualApprox(cov, e.Cov(), 0.0))

	// mismatched dimensions
	badCov := mat.NewSymDense(3, nil)
	e, err = NewBaseWithCov(val, badCov)
	assert.Nil(e)
	assert.Error(err)
}

func TestBaseImmutability(t *testing.T) {
	assert := assert.New(t)

	val := mat.NewVecDense(1, []float64{2.0})
	cov := mat.NewSymDense(1, []float64{1.0})

	e, err := NewBaseWithCov(val, cov)
	assert.NoError(err)

	// mutating the returned value must not affect the estimate
	v := e.Val().(*mat.VecDense)
	v.SetVec(0, -100.0)
	assert.Equal(2.0, e.Val().AtVec(0))

	c := e.Cov().(*mat.SymDense)
	c.SetSym(0, 0, -100.0)
	assert.Equal(1.0, e.Cov().At(0, 0))
}
