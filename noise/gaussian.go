package noise

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov mat.Symmetric
	// src is the source of randomness used to draw samples
	src rand.Source
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// The noise is seeded from the wall clock; use NewGaussianFromSource when
// deterministic sampling is required.
// It returns error if it fails to create Gaussian.
func NewGaussian(mean []float64, cov mat.Symmetric) (*Gaussian, error) {
	return NewGaussianFromSource(mean, cov, nil)
}

// NewGaussianFromSource creates new Gaussian noise with given mean and covariance
// which draws its samples from src. A nil src falls back to a time-seeded source.
// It returns error if mean and cov dimensions disagree or if cov is not positive definite.
func NewGaussianFromSource(mean []float64, cov mat.Symmetric, src rand.Source) (*Gaussian, error) {
	if len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid mean and covariance dimensions: %d vs %d", len(mean), cov.SymmetricDim())
	}

	if src == nil {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}

	dist, ok := distmv.NewNormal(mean, cov, rand.New(src))
	if !ok {
		return nil, fmt.Errorf("failed to create new Gaussian noise")
	}

	return &Gaussian{
		dist: dist,
		mean: mean,
		cov:  cov,
		src:  src,
	}, nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// SampleN generates n independent samples from Gaussian noise
// and returns them stored as matrix columns.
func (g *Gaussian) SampleN(n int) *mat.Dense {
	samples := mat.NewDense(len(g.mean), n, nil)

	buf := make([]float64, len(g.mean))
	for c := 0; c < n; c++ {
		g.dist.Rand(buf)
		samples.SetCol(c, buf)
	}

	return samples
}

// Rand draws a single sample: it makes Gaussian usable as a state prior.
func (g *Gaussian) Rand() mat.Vector {
	return g.Sample()
}

// RandN draws n independent samples stored as matrix columns.
func (g *Gaussian) RandN(n int) *mat.Dense {
	return g.SampleN(n)
}

// Dim returns the dimension of the sample space.
func (g *Gaussian) Dim() int {
	return len(g.mean)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	return g.cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	return g.mean
}

// Reset re-creates the underlying distribution from the stored source.
// It returns error if it fails to reset the noise.
func (g *Gaussian) Reset() error {
	dist, ok := distmv.NewNormal(g.mean, g.cov, rand.New(g.src))
	if !ok {
		return fmt.Errorf("failed to reset Gaussian noise")
	}
	g.dist = dist

	return nil
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
