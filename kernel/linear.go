package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	linear *Linear
	_      Kernel = linear // Check that Linear respects the Kernel interface.
	_      Gramer = linear
)

// Linear is the linear kernel k(x, y) = x.y + c.
// With c = 0 its feature space is the state space itself, which makes
// Koopman operator estimates exact for linear dynamics.
type Linear struct {
	c float64
}

// NewLinear creates a new linear kernel with additive constant c.
func NewLinear(c float64) *Linear {
	return &Linear{c: c}
}

// Eval returns the kernel evaluated at x and y.
func (k *Linear) Eval(x, y mat.Vector) float64 {
	return mat.Dot(x, y) + k.c
}

// Gram returns the batch kernel evaluation computed as a single matrix product.
func (k *Linear) Gram(x, y *mat.Dense) (*mat.Dense, error) {
	xr, _ := x.Dims()
	yr, _ := y.Dims()
	if xr != yr {
		return nil, fmt.Errorf("mismatched point dimensions: %d vs %d", xr, yr)
	}

	out := new(mat.Dense)
	out.Mul(x.T(), y)

	if k.c != 0 {
		r, c := out.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out.Set(i, j, out.At(i, j)+k.c)
			}
		}
	}

	return out, nil
}

// String implements the Stringer interface.
func (k *Linear) String() string {
	return fmt.Sprintf("Linear{c=%v}", k.c)
}
