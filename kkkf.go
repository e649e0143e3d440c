package kkkf

import "gonum.org/v1/gonum/mat"

// Filter is a sequential Bayesian state filter.
type Filter interface {
	// Predict advances the state estimate one step forward
	Predict() (Estimate, error)
	// Update corrects the state estimate using measurement z
	Update(z mat.Vector) (Estimate, error)
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is a state estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// SampleN returns n independent noise samples stored as matrix columns
	SampleN(n int) *mat.Dense
	// Reset resets the noise
	Reset() error
}

// Distribution is a probability distribution over the state space.
// It is used to model the prior from which filter ensembles and
// Koopman operator basis points are drawn.
type Distribution interface {
	// Rand draws a single sample
	Rand() mat.Vector
	// RandN draws n independent samples stored as matrix columns
	RandN(n int) *mat.Dense
	// Dim returns the dimension of the sample space
	Dim() int
}
