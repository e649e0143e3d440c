package dynamic

import (
	"fmt"

	kkkf "github.com/diegoolguinw/KKKF"
	"github.com/diegoolguinw/KKKF/noise"
	"gonum.org/v1/gonum/mat"
)

// StateFunc maps a state vector to a state vector.
type StateFunc func(x mat.Vector) mat.Vector

// System describes a discrete-time stochastic dynamical system
//
//	x[k+1] = f(x[k]) + w[k]
//	y[k]   = g(x[k]) + v[k]
//
// where w is process noise and v is observation noise.
// System is a plain value object: it bundles the state and observation
// dimensions, the deterministic transition and observation maps and the
// three distributions (state prior, process noise, observation noise).
// It is immutable once constructed.
type System struct {
	// nx is the state space dimension
	nx int
	// ny is the observation space dimension
	ny int
	// f is the deterministic state transition map
	f StateFunc
	// g is the deterministic observation map
	g StateFunc
	// prior is the initial state distribution
	prior kkkf.Distribution
	// stateNoise is process noise a.k.a. dynamics noise
	stateNoise kkkf.Noise
	// outputNoise is observation noise a.k.a. measurement noise
	outputNoise kkkf.Noise
}

// New creates a new System and returns it.
// Nil stateNoise or outputNoise are replaced with zero noise of the right dimension.
// It returns error if the dimensions are not positive, if either map is nil
// or if the supplied distributions disagree with the system dimensions.
func New(nx, ny int, f, g StateFunc, prior kkkf.Distribution, stateNoise, outputNoise kkkf.Noise) (*System, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid system dimensions: [%d x %d]", nx, ny)
	}

	if f == nil || g == nil {
		return nil, fmt.Errorf("system propagation and observation functions must be defined")
	}

	if prior != nil && prior.Dim() != nx {
		return nil, fmt.Errorf("invalid state prior dimension: %d", prior.Dim())
	}

	if stateNoise != nil {
		if stateNoise.Cov().SymmetricDim() != nx {
			return nil, fmt.Errorf("invalid state noise dimension: %d", stateNoise.Cov().SymmetricDim())
		}
	} else {
		stateNoise, _ = noise.NewZero(nx)
	}

	if outputNoise != nil {
		if outputNoise.Cov().SymmetricDim() != ny {
			return nil, fmt.Errorf("invalid output noise dimension: %d", outputNoise.Cov().SymmetricDim())
		}
	} else {
		outputNoise, _ = noise.NewZero(ny)
	}

	return &System{
		nx:          nx,
		ny:          ny,
		f:           f,
		g:           g,
		prior:       prior,
		stateNoise:  stateNoise,
		outputNoise: outputNoise,
	}, nil
}

// NewAdditive creates a new System from maps parameterized by their noise:
// f(x, w) and g(x, v). The deterministic maps of the returned system are the
// empirical means of f and g over nsamples fresh noise draws per evaluation.
// It returns error under the same conditions as New.
func NewAdditive(nx, ny int, f, g func(x, n mat.Vector) mat.Vector, prior kkkf.Distribution, stateNoise, outputNoise kkkf.Noise, nsamples int) (*System, error) {
	if f == nil || g == nil {
		return nil, fmt.Errorf("system propagation and observation functions must be defined")
	}

	if nsamples <= 0 {
		return nil, fmt.Errorf("invalid number of noise samples: %d", nsamples)
	}

	if stateNoise == nil {
		stateNoise, _ = noise.NewZero(nx)
	}
	if outputNoise == nil {
		outputNoise, _ = noise.NewZero(ny)
	}

	meanF := func(x mat.Vector) mat.Vector {
		sum := mat.NewVecDense(nx, nil)
		for i := 0; i < nsamples; i++ {
			sum.AddVec(sum, f(x, stateNoise.Sample()))
		}
		sum.ScaleVec(1/float64(nsamples), sum)

		return sum
	}

	meanG := func(x mat.Vector) mat.Vector {
		sum := mat.NewVecDense(ny, nil)
		for i := 0; i < nsamples; i++ {
			sum.AddVec(sum, g(x, outputNoise.Sample()))
		}
		sum.ScaleVec(1/float64(nsamples), sum)

		return sum
	}

	return New(nx, ny, meanF, meanG, prior, stateNoise, outputNoise)
}

// Propagate applies the transition map to state x and adds process noise w.
// A nil w propagates the state noise-free.
// It returns error if the dimensions of x or w disagree with the system.
func (s *System) Propagate(x, w mat.Vector) (mat.Vector, error) {
	if x.Len() != s.nx {
		return nil, fmt.Errorf("invalid state vector dimension: %d", x.Len())
	}

	if w != nil && w.Len() != s.nx {
		return nil, fmt.Errorf("invalid process noise dimension: %d", w.Len())
	}

	out := &mat.VecDense{}
	out.CloneFromVec(s.f(x))
	if out.Len() != s.nx {
		return nil, fmt.Errorf("transition map returned vector of dimension %d, want %d", out.Len(), s.nx)
	}

	if w != nil {
		out.AddVec(out, w)
	}

	return out, nil
}

// Observe applies the observation map to state x and adds observation noise v.
// A nil v observes the state noise-free.
// It returns error if the dimensions of x or v disagree with the system.
func (s *System) Observe(x, v mat.Vector) (mat.Vector, error) {
	if x.Len() != s.nx {
		return nil, fmt.Errorf("invalid state vector dimension: %d", x.Len())
	}

	if v != nil && v.Len() != s.ny {
		return nil, fmt.Errorf("invalid observation noise dimension: %d", v.Len())
	}

	out := &mat.VecDense{}
	out.CloneFromVec(s.g(x))
	if out.Len() != s.ny {
		return nil, fmt.Errorf("observation map returned vector of dimension %d, want %d", out.Len(), s.ny)
	}

	if v != nil {
		out.AddVec(out, v)
	}

	return out, nil
}

// SampleInitial draws n independent samples from the state prior
// and returns them stored as matrix columns.
// It returns error if the system has no prior or n is not positive.
func (s *System) SampleInitial(n int) (*mat.Dense, error) {
	if s.prior == nil {
		return nil, fmt.Errorf("system has no state prior distribution")
	}

	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples requested: %d", n)
	}

	return s.prior.RandN(n), nil
}

// Dims returns the state and observation space dimensions.
func (s *System) Dims() (nx, ny int) {
	return s.nx, s.ny
}

// StatePrior returns the initial state distribution.
func (s *System) StatePrior() kkkf.Distribution {
	return s.prior
}

// StateNoise returns the process noise.
func (s *System) StateNoise() kkkf.Noise {
	return s.stateNoise
}

// OutputNoise returns the observation noise.
func (s *System) OutputNoise() kkkf.Noise {
	return s.outputNoise
}
