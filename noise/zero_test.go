package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewZero(t *testing.T) {
	assert := assert.New(t)

	z, err := NewZero(2)
	assert.NotNil(z)
	assert.NoError(err)

	z, err = NewZero(-2)
	assert.Nil(z)
	assert.Error(err)
}

func TestZeroSample(t *testing.T) {
	assert := assert.New(t)

	size := 3
	z, err := NewZero(size)
	assert.NoError(err)

	sample := z.Sample()
	assert.Equal(size, sample.Len())
	for i := 0; i < size; i++ {
		assert.Equal(0.0, sample.AtVec(i))
	}

	samples := z.SampleN(4)
	r, c := samples.Dims()
	assert.Equal(size, r)
	assert.Equal(4, c)

	assert.Equal(size, z.Cov().SymmetricDim())
	assert.Equal(size, len(z.Mean()))
	assert.NoError(z.Reset())
}
