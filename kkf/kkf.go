// Package kkf implements a sequential kernel Koopman filter: a recursive
// Bayesian filter which propagates a Monte Carlo state ensemble through a
// kernel EDMD approximation of the Koopman operator and corrects it with a
// Kalman-style update whose gain is estimated from sample covariances.
package kkf

import (
	"fmt"
	"math"
	"time"

	kkkf "github.com/diegoolguinw/KKKF"
	"github.com/diegoolguinw/KKKF/dynamic"
	"github.com/diegoolguinw/KKKF/estimate"
	"github.com/diegoolguinw/KKKF/koopman"
	mtx "github.com/diegoolguinw/KKKF/matrix"
	"github.com/diegoolguinw/KKKF/rand"
	"github.com/milosgajdos/matrix"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// DefaultJitter is the default regularization added to the diagonal of the
// innovation covariance before the gain solve. It is a tunable floor:
// set Config.Jitter to override it.
const DefaultJitter = 1e-9

// Config is kernel Koopman filter configuration
type Config struct {
	// EnsembleSize is the number of ensemble members drawn per step.
	// It must be at least 2: covariances are unbiased sample estimates.
	EnsembleSize int
	// Jitter is the innovation covariance regularization floor.
	// Zero means DefaultJitter; negative values are rejected.
	Jitter float64
	// Src is the source of randomness for the per-step ensemble draws.
	// A nil Src falls back to a time-seeded source.
	Src xrand.Source
}

// KKF is a kernel Koopman Kalman filter.
// It consumes an estimated Koopman operator and a finite observation
// sequence and produces one posterior state estimate per observation.
type KKF struct {
	// op is the estimated Koopman operator
	op *koopman.Operator
	// sys is the dynamical system the operator was estimated for
	sys *dynamic.System
	// p is the ensemble size
	p int
	// jitter regularizes the innovation covariance
	jitter float64
	// src drives the per-step ensemble draws
	src xrand.Source
	// mean is the current posterior mean
	mean *mat.VecDense
	// cov is the current posterior covariance
	cov *mat.SymDense
	// x stores the current ensemble members as columns
	x *mat.Dense
	// inn is the last innovation vector
	inn *mat.VecDense
	// gain is the last gain matrix
	gain *mat.Dense
}

// check KKF implements the filter interface
var _ kkkf.Filter = (*KKF)(nil)

// New creates a new kernel Koopman filter and returns it.
// The filter starts from initial condition ic and draws a fresh ensemble of
// c.EnsembleSize members from the running posterior at every step.
// It returns error if the configuration or the initial condition dimensions
// are invalid.
func New(op *koopman.Operator, ic kkkf.InitCond, c *Config) (*KKF, error) {
	if op == nil {
		return nil, fmt.Errorf("invalid Koopman operator: nil")
	}

	if c == nil {
		return nil, fmt.Errorf("invalid config: nil")
	}

	if c.EnsembleSize < 2 {
		return nil, fmt.Errorf("invalid ensemble size: %d", c.EnsembleSize)
	}

	if c.Jitter < 0 {
		return nil, fmt.Errorf("invalid jitter: %g", c.Jitter)
	}
	jitter := c.Jitter
	if jitter == 0 {
		jitter = DefaultJitter
	}

	src := c.Src
	if src == nil {
		src = xrand.NewSource(uint64(time.Now().UnixNano()))
	}

	sys := op.System()
	nx, ny := sys.Dims()

	if ic == nil {
		return nil, fmt.Errorf("invalid initial condition: nil")
	}

	if ic.State().Len() != nx || ic.Cov().SymmetricDim() != nx {
		return nil, fmt.Errorf("invalid initial condition dimension: %d", ic.State().Len())
	}

	mean := &mat.VecDense{}
	mean.CloneFromVec(ic.State())

	cov := mat.NewSymDense(nx, nil)
	cov.CopySym(ic.Cov())

	return &KKF{
		op:     op,
		sys:    sys,
		p:      c.EnsembleSize,
		jitter: jitter,
		src:    src,
		mean:   mean,
		cov:    cov,
		x:      mat.NewDense(nx, c.EnsembleSize, nil),
		inn:    mat.NewVecDense(ny, nil),
		gain:   mat.NewDense(nx, ny, nil),
	}, nil
}

// Predict advances the state estimate one step forward and returns it.
// It draws a fresh ensemble from the current posterior, lifts every member
// into kernel feature coordinates, advances the features through the
// operator matrix, reconstructs the states and perturbs them with fresh
// process noise draws.
// It returns error if sampling or propagation fails or if the predicted
// estimate contains non-finite values.
func (k *KKF) Predict() (kkkf.Estimate, error) {
	// fresh zero-mean ensemble shaped by the current posterior covariance
	x, err := rand.WithCovN(k.cov, k.p, k.src)
	if err != nil {
		return nil, fmt.Errorf("failed to draw ensemble: %v", err)
	}

	nx, _ := k.sys.Dims()
	for c := 0; c < k.p; c++ {
		for r := 0; r < nx; r++ {
			x.Set(r, c, x.At(r, c)+k.mean.AtVec(r))
		}
	}

	// advance every member through the Koopman operator
	xNext, err := k.op.PropagateBatch(x)
	if err != nil {
		return nil, fmt.Errorf("ensemble propagation failed: %v", err)
	}

	// fresh process noise draws, one per member
	q := k.sys.StateNoise().SampleN(k.p)
	if qr, _ := q.Dims(); qr == nx {
		xNext.Add(xNext, q)
	}

	mean := mat.NewVecDense(nx, mtx.RowMeans(xNext))

	cov, err := matrix.Cov(xNext, "cols")
	if err != nil {
		return nil, fmt.Errorf("failed to estimate predicted covariance: %v", err)
	}

	if !vecFinite(mean) || !symFinite(cov) {
		return nil, fmt.Errorf("predicted estimate contains non-finite values")
	}

	k.x = xNext
	k.mean.CopyVec(mean)
	k.cov.CopySym(cov)

	return estimate.NewBaseWithCov(mean, cov)
}

// Update corrects the state estimate using measurement z and returns the
// corrected estimate.
// Every ensemble member is observed with a fresh observation noise draw,
// the gain is estimated from the sample cross- and innovation covariances
// and every member is corrected linearly towards the measurement.
// It returns error if the size of z is invalid, if the innovation covariance
// stays singular after the jitter floor or if the posterior contains
// non-finite values.
func (k *KKF) Update(z mat.Vector) (kkkf.Estimate, error) {
	nx, ny := k.sys.Dims()

	if z.Len() != ny {
		return nil, fmt.Errorf("invalid measurement size: %d", z.Len())
	}

	if !vecFinite(z) {
		return nil, fmt.Errorf("measurement contains non-finite values")
	}

	// observe every member with a fresh observation noise draw
	y := mat.NewDense(ny, k.p, nil)
	for c := 0; c < k.p; c++ {
		yc, err := k.sys.Observe(k.x.ColView(c), k.sys.OutputNoise().Sample())
		if err != nil {
			return nil, fmt.Errorf("ensemble observation failed: %v", err)
		}
		for r := 0; r < ny; r++ {
			y.Set(r, c, yc.AtVec(r))
		}
	}

	yMean := mtx.RowMeans(y)
	for r := 0; r < ny; r++ {
		k.inn.SetVec(r, z.AtVec(r)-yMean[r])
	}

	// center members and outputs for the sample covariances
	xc := mat.NewDense(nx, k.p, nil)
	xMean := mtx.RowMeans(k.x)
	for c := 0; c < k.p; c++ {
		for r := 0; r < nx; r++ {
			xc.Set(r, c, k.x.At(r, c)-xMean[r])
		}
	}

	yCtr := mat.NewDense(ny, k.p, nil)
	for c := 0; c < k.p; c++ {
		for r := 0; r < ny; r++ {
			yCtr.Set(r, c, y.At(r, c)-yMean[r])
		}
	}

	// unbiased sample cross-covariance between state and predicted output
	pxy := &mat.Dense{}
	pxy.Mul(xc, yCtr.T())
	pxy.Scale(1/float64(k.p-1), pxy)

	// innovation covariance with jitter floor
	pyyd := &mat.Dense{}
	pyyd.Mul(yCtr, yCtr.T())
	pyyd.Scale(1/float64(k.p-1), pyyd)

	pyy := mat.NewSymDense(ny, nil)
	for i := 0; i < ny; i++ {
		for j := i; j < ny; j++ {
			pyy.SetSym(i, j, (pyyd.At(i, j)+pyyd.At(j, i))/2)
		}
		pyy.SetSym(i, i, pyy.At(i, i)+k.jitter)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(pyy); !ok {
		return nil, fmt.Errorf("innovation covariance singular after jitter %g", k.jitter)
	}

	gainT := &mat.Dense{}
	if err := chol.SolveTo(gainT, pxy.T()); err != nil {
		return nil, fmt.Errorf("gain computation failed: %v", err)
	}
	k.gain.CloneFrom(gainT.T())

	// correct every member towards the measurement
	resid := mat.NewVecDense(ny, nil)
	corr := mat.NewVecDense(nx, nil)
	for c := 0; c < k.p; c++ {
		for r := 0; r < ny; r++ {
			resid.SetVec(r, z.AtVec(r)-y.At(r, c))
		}
		corr.MulVec(k.gain, resid)
		for r := 0; r < nx; r++ {
			k.x.Set(r, c, k.x.At(r, c)+corr.AtVec(r))
		}
	}

	mean := mat.NewVecDense(nx, mtx.RowMeans(k.x))

	cov, err := matrix.Cov(k.x, "cols")
	if err != nil {
		return nil, fmt.Errorf("failed to estimate posterior covariance: %v", err)
	}

	if !vecFinite(mean) || !symFinite(cov) {
		return nil, fmt.Errorf("posterior estimate contains non-finite values")
	}

	k.mean.CopyVec(mean)
	k.cov.CopySym(cov)

	return estimate.NewBaseWithCov(mean, cov)
}

// Run consumes the finite observation sequence zs in order and returns one
// posterior estimate per observation.
// It returns error if zs is empty or if any predict or update step fails;
// step errors name the failing time index so a bad estimate never
// propagates silently into later steps.
func (k *KKF) Run(zs []mat.Vector) ([]kkkf.Estimate, error) {
	if len(zs) == 0 {
		return nil, fmt.Errorf("empty observation sequence")
	}

	estimates := make([]kkkf.Estimate, 0, len(zs))
	for t, z := range zs {
		if _, err := k.Predict(); err != nil {
			return nil, fmt.Errorf("filter step %d: %v", t, err)
		}

		est, err := k.Update(z)
		if err != nil {
			return nil, fmt.Errorf("filter step %d: %v", t, err)
		}

		estimates = append(estimates, est)
	}

	return estimates, nil
}

// Cov returns the current posterior covariance.
func (k *KKF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.cov.SymmetricDim(), nil)
	cov.CopySym(k.cov)

	return cov
}

// Innov returns the innovation vector of the last update.
func (k *KKF) Innov() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}

// Gain returns the gain matrix of the last update.
func (k *KKF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.gain)

	return gain
}

// Ensemble returns the current ensemble members stored as matrix columns.
func (k *KKF) Ensemble() mat.Matrix {
	x := &mat.Dense{}
	x.CloneFrom(k.x)

	return x
}

// vecFinite reports whether every entry of v is a finite number.
func vecFinite(v mat.Vector) bool {
	for i := 0; i < v.Len(); i++ {
		val := v.AtVec(i)
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}

	return true
}

// symFinite reports whether every entry of s is a finite number.
func symFinite(s mat.Symmetric) bool {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			val := s.At(i, j)
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return false
			}
		}
	}

	return true
}
