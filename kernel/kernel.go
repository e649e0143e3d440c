package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Kernel is a symmetric positive semi-definite similarity function
// over pairs of state vectors.
type Kernel interface {
	// Eval returns the kernel evaluated at x and y.
	// It panics if the dimensions of x and y disagree.
	Eval(x, y mat.Vector) float64
}

// Gramer is implemented by kernels which provide a vectorized
// evaluation over batches of points stored as matrix columns.
type Gramer interface {
	// Gram returns the |x| x |y| matrix of kernel evaluations.
	Gram(x, y *mat.Dense) (*mat.Dense, error)
}

// Gram builds the Gram matrix of kernel k between the points stored
// in the columns of x and y: out[i][j] = k(x_i, y_j).
// It delegates to the kernel's own batch evaluation when available.
// It returns error if x and y dimensions disagree.
func Gram(k Kernel, x, y *mat.Dense) (*mat.Dense, error) {
	xr, xc := x.Dims()
	yr, yc := y.Dims()

	if xr != yr {
		return nil, fmt.Errorf("mismatched point dimensions: %d vs %d", xr, yr)
	}

	if g, ok := k.(Gramer); ok {
		return g.Gram(x, y)
	}

	out := mat.NewDense(xc, yc, nil)
	for i := 0; i < xc; i++ {
		xi := x.ColView(i)
		for j := 0; j < yc; j++ {
			out.Set(i, j, k.Eval(xi, y.ColView(j)))
		}
	}

	return out, nil
}
