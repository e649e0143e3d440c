package sim

import (
	"fmt"

	"github.com/diegoolguinw/KKKF/dynamic"
	"gonum.org/v1/gonum/mat"
)

// InitCond implements kkkf.InitCond
type InitCond struct {
	state *mat.VecDense
	cov   *mat.SymDense
}

// NewInitCond creates new InitCond and returns it
func NewInitCond(state mat.Vector, cov mat.Symmetric) *InitCond {
	s := &mat.VecDense{}
	s.CloneFromVec(state)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &InitCond{
		state: s,
		cov:   c,
	}
}

// State returns initial state
func (c *InitCond) State() mat.Vector {
	state := mat.NewVecDense(c.state.Len(), nil)
	state.CloneFromVec(c.state)

	return state
}

// Cov returns initial covariance
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(c.cov.SymmetricDim(), nil)
	cov.CopySym(c.cov)

	return cov
}

// Trajectory rolls the system forward from x0 for the given number of steps
// with fresh process noise, observing every visited state with fresh
// observation noise. It returns the visited states and their observations
// stored as matrix columns, one column per step.
// It returns error if steps is not positive or if propagation or
// observation fails.
func Trajectory(sys *dynamic.System, x0 mat.Vector, steps int) (states, observations *mat.Dense, err error) {
	if steps <= 0 {
		return nil, nil, fmt.Errorf("invalid number of steps: %d", steps)
	}

	nx, ny := sys.Dims()

	states = mat.NewDense(nx, steps, nil)
	observations = mat.NewDense(ny, steps, nil)

	x := &mat.VecDense{}
	x.CloneFromVec(x0)

	for t := 0; t < steps; t++ {
		xNext, err := sys.Propagate(x, sys.StateNoise().Sample())
		if err != nil {
			return nil, nil, fmt.Errorf("simulation step %d: %v", t, err)
		}

		y, err := sys.Observe(xNext, sys.OutputNoise().Sample())
		if err != nil {
			return nil, nil, fmt.Errorf("simulation step %d: %v", t, err)
		}

		for i := 0; i < nx; i++ {
			states.Set(i, t, xNext.AtVec(i))
		}
		for i := 0; i < ny; i++ {
			observations.Set(i, t, y.AtVec(i))
		}

		x.CloneFromVec(xNext)
	}

	return states, observations, nil
}

// Observations converts the columns of the observation matrix produced by
// Trajectory into the ordered vector sequence consumed by the filter.
func Observations(observations *mat.Dense) []mat.Vector {
	_, steps := observations.Dims()

	zs := make([]mat.Vector, steps)
	for t := 0; t < steps; t++ {
		z := &mat.VecDense{}
		z.CloneFromVec(observations.ColView(t))
		zs[t] = z
	}

	return zs
}
