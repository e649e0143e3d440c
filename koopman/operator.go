// Package koopman estimates a finite-rank approximation of the Koopman
// operator of a non-linear dynamical system using kernel EDMD: the operator
// is represented in the feature basis spanned by kernel evaluations against
// a fixed set of sampled basis points.
package koopman

import (
	"fmt"
	"math"

	"github.com/diegoolguinw/KKKF/dynamic"
	"github.com/diegoolguinw/KKKF/kernel"
	"gonum.org/v1/gonum/mat"
)

// DefaultRidge is the default regularization added to the diagonal of the
// Gram matrix before solving for the operator. Kernel Gram matrices are
// frequently near-singular for smooth kernels at non-trivial sample counts,
// so the solve always runs against the ridged matrix. The floor is a
// tunable: set Config.Ridge to override it.
const DefaultRidge = 1e-10

// Config is Koopman operator estimator configuration
type Config struct {
	// Samples is the number of basis points drawn from the
	// system state prior when no basis is supplied
	Samples int
	// Ridge is the Gram matrix regularization floor.
	// Zero means DefaultRidge; negative values are rejected.
	Ridge float64
	// Basis optionally supplies the basis points stored as matrix
	// columns instead of sampling them from the state prior
	Basis *mat.Dense
}

// Operator is a finite-rank kernel EDMD approximation of the Koopman operator.
// It is immutable once estimated: the filter only reads its basis and
// multiplies against its matrix.
type Operator struct {
	// sys is the dynamical system the operator was estimated for
	sys *dynamic.System
	// kern evaluates the kernel feature map
	kern kernel.Kernel
	// basis stores the basis points as columns (nx x n)
	basis *mat.Dense
	// images stores the noise-free one-step propagation of the basis points
	images *mat.Dense
	// gram is the unridged kernel Gram matrix of the basis points (n x n)
	gram *mat.Dense
	// u is the estimated operator matrix (n x n)
	u *mat.Dense
	// b reconstructs states from feature coordinates (n x nx)
	b *mat.Dense
	// ridge is the applied regularization
	ridge float64
}

// New estimates the Koopman operator of sys in the feature basis of k and returns it.
// Basis points are taken from c.Basis or, when nil, drawn i.i.d. from the system
// state prior. Each basis point is propagated one noise-free step to form the
// EDMD dictionary pairs, and the operator is solved from the ridge-regularized
// Gram system.
// It returns error if the configuration is invalid, if basis sampling or
// propagation fails, or if the estimate contains non-finite values.
func New(sys *dynamic.System, k kernel.Kernel, c *Config) (*Operator, error) {
	if sys == nil || k == nil {
		return nil, fmt.Errorf("operator build: system and kernel must be defined")
	}

	if c == nil {
		return nil, fmt.Errorf("operator build: invalid config: nil")
	}

	if c.Ridge < 0 {
		return nil, fmt.Errorf("operator build: invalid ridge: %g", c.Ridge)
	}
	ridge := c.Ridge
	if ridge == 0 {
		ridge = DefaultRidge
	}

	nx, _ := sys.Dims()

	basis := &mat.Dense{}
	if c.Basis != nil {
		br, bc := c.Basis.Dims()
		if br != nx {
			return nil, fmt.Errorf("operator build: invalid basis point dimension: %d", br)
		}
		if bc < 1 {
			return nil, fmt.Errorf("operator build: empty basis")
		}
		basis.CloneFrom(c.Basis)
	} else {
		if c.Samples < 1 {
			return nil, fmt.Errorf("operator build: invalid sample count: %d", c.Samples)
		}
		samples, err := sys.SampleInitial(c.Samples)
		if err != nil {
			return nil, fmt.Errorf("operator build: %v", err)
		}
		basis = samples
	}

	_, n := basis.Dims()

	// noise-free propagation of every basis point: the EDMD dictionary pairs
	images := mat.NewDense(nx, n, nil)
	for j := 0; j < n; j++ {
		img, err := sys.Propagate(basis.ColView(j), nil)
		if err != nil {
			return nil, fmt.Errorf("operator build: basis propagation failed: %v", err)
		}
		for i := 0; i < nx; i++ {
			images.Set(i, j, img.AtVec(i))
		}
	}

	gram, err := kernel.Gram(k, basis, basis)
	if err != nil {
		return nil, fmt.Errorf("operator build: %v", err)
	}

	cross, err := kernel.Gram(k, basis, images)
	if err != nil {
		return nil, fmt.Errorf("operator build: %v", err)
	}

	// Column j of cross is the lifted image of basis point j, so the operator
	// satisfies U*gram = cross. Solve the transposed symmetric system instead.
	kreg := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			kreg.SetSym(i, j, (gram.At(i, j)+gram.At(j, i))/2)
		}
		kreg.SetSym(i, i, kreg.At(i, i)+ridge)
	}

	ut := &mat.Dense{}
	if err := solveSym(ut, kreg, cross.T()); err != nil {
		return nil, fmt.Errorf("operator build: gram matrix solve failed after ridge %g: %v", ridge, err)
	}

	u := &mat.Dense{}
	u.CloneFrom(ut.T())

	// state reconstruction: solve so that basis states are reproduced
	// from their own feature coordinates
	b := &mat.Dense{}
	if err := solveSym(b, kreg, basis.T()); err != nil {
		return nil, fmt.Errorf("operator build: reconstruction solve failed after ridge %g: %v", ridge, err)
	}

	if !isFinite(u) || !isFinite(b) {
		return nil, fmt.Errorf("operator build: estimate contains non-finite values")
	}

	return &Operator{
		sys:    sys,
		kern:   k,
		basis:  basis,
		images: images,
		gram:   gram,
		u:      u,
		b:      b,
		ridge:  ridge,
	}, nil
}

// Lift maps state x into kernel feature coordinates against the basis points:
// the i-th coordinate is the kernel evaluated at x and basis point i.
// It returns error if the dimension of x disagrees with the system.
func (o *Operator) Lift(x mat.Vector) (*mat.VecDense, error) {
	nx, n := o.Dims()
	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector dimension: %d", x.Len())
	}

	phi := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		phi.SetVec(i, o.kern.Eval(x, o.basis.ColView(i)))
	}

	return phi, nil
}

// LiftBatch lifts the states stored in the columns of x into feature
// coordinates, one column of the returned matrix per state.
// It returns error if the state dimension disagrees with the system.
func (o *Operator) LiftBatch(x *mat.Dense) (*mat.Dense, error) {
	nx, _ := o.Dims()
	xr, _ := x.Dims()
	if xr != nx {
		return nil, fmt.Errorf("invalid state dimension: %d", xr)
	}

	return kernel.Gram(o.kern, o.basis, x)
}

// Reconstruct maps feature coordinates z back to a state vector.
// It returns error if the dimension of z disagrees with the basis size.
func (o *Operator) Reconstruct(z mat.Vector) (mat.Vector, error) {
	_, n := o.Dims()
	if z.Len() != n {
		return nil, fmt.Errorf("invalid feature vector dimension: %d", z.Len())
	}

	out := &mat.VecDense{}
	out.MulVec(o.b.T(), z)

	return out, nil
}

// Predict advances state x one step through the estimated operator:
// lift, advance the feature coordinates, reconstruct.
// It returns error if the dimension of x disagrees with the system.
func (o *Operator) Predict(x mat.Vector) (mat.Vector, error) {
	phi, err := o.Lift(x)
	if err != nil {
		return nil, err
	}

	next := &mat.VecDense{}
	next.MulVec(o.u, phi)

	return o.Reconstruct(next)
}

// PropagateBatch advances the states stored in the columns of x one step
// through the estimated operator and returns the advanced states as columns.
// It returns error if the state dimension disagrees with the system.
func (o *Operator) PropagateBatch(x *mat.Dense) (*mat.Dense, error) {
	z, err := o.LiftBatch(x)
	if err != nil {
		return nil, err
	}

	zNext := &mat.Dense{}
	zNext.Mul(o.u, z)

	out := &mat.Dense{}
	out.Mul(o.b.T(), zNext)

	return out, nil
}

// Basis returns the operator basis points stored as matrix columns.
func (o *Operator) Basis() mat.Matrix {
	basis := &mat.Dense{}
	basis.CloneFrom(o.basis)

	return basis
}

// Matrix returns the estimated Koopman operator matrix.
func (o *Operator) Matrix() mat.Matrix {
	u := &mat.Dense{}
	u.CloneFrom(o.u)

	return u
}

// Gram returns the unridged Gram matrix of the basis points.
func (o *Operator) Gram() mat.Matrix {
	gram := &mat.Dense{}
	gram.CloneFrom(o.gram)

	return gram
}

// Ridge returns the applied Gram matrix regularization.
func (o *Operator) Ridge() float64 {
	return o.ridge
}

// Dims returns the state space dimension and the number of basis points.
func (o *Operator) Dims() (nx, n int) {
	nx, _ = o.sys.Dims()
	_, n = o.basis.Dims()

	return nx, n
}

// System returns the dynamical system the operator was estimated for.
func (o *Operator) System() *dynamic.System {
	return o.sys
}

// solveSym solves a*x = b for symmetric positive definite a.
// It tries Cholesky first and falls back to an SVD pseudo-inverse
// when the factorization fails for a near-singular a.
func solveSym(dst *mat.Dense, a *mat.SymDense, b mat.Matrix) error {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); ok {
		return chol.SolveTo(dst, b)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return fmt.Errorf("SVD factorization failed")
	}

	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)

	vals := svd.Values(nil)
	tol := float64(len(vals)) * vals[0] * 1e-15
	for i := range vals {
		if vals[i] > tol {
			vals[i] = 1 / vals[i]
		} else {
			vals[i] = 0
		}
	}
	diag := mat.NewDiagDense(len(vals), vals)

	pinv := &mat.Dense{}
	pinv.Product(v, diag, u.T())
	dst.Mul(pinv, b)

	return nil
}

// isFinite reports whether every entry of m is a finite number.
func isFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}

	return true
}
