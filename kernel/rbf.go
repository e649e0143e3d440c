package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	rbf *RBF
	_   Kernel = rbf // Check that RBF respects the Kernel interface.
)

// RBF is the squared exponential (Gaussian) kernel
//
//	k(x, y) = variance * exp(-|x-y|^2 / (2*lscale^2))
type RBF struct {
	variance float64
	lscale   float64
}

// NewRBF creates a new RBF kernel with given variance and length scale.
func NewRBF(variance, lscale float64) *RBF {
	return &RBF{
		variance: variance,
		lscale:   lscale,
	}
}

// Eval returns the kernel evaluated at x and y.
func (k *RBF) Eval(x, y mat.Vector) float64 {
	d := sqDist(x, y)
	return k.variance * math.Exp(-d/(2*k.lscale*k.lscale))
}

// String implements the Stringer interface.
func (k *RBF) String() string {
	return fmt.Sprintf("RBF{variance=%v, lscale=%v}", k.variance, k.lscale)
}

// sqDist returns the squared Euclidean distance between x and y.
func sqDist(x, y mat.Vector) float64 {
	d := 0.0
	for i := 0; i < x.Len(); i++ {
		v := x.AtVec(i) - y.AtVec(i)
		d += v * v
	}

	return d
}
