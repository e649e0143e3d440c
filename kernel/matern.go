package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	matern32 *Matern32
	matern52 *Matern52
	_        Kernel = matern32 // Check that Matern32 respects the Kernel interface.
	_        Kernel = matern52 // Check that Matern52 respects the Kernel interface.
)

// Matern32 is the Matern kernel with smoothness 3/2:
//
//	k(x, y) = variance * (1 + sqrt(3)*r/l) * exp(-sqrt(3)*r/l)
//
// where r is the Euclidean distance between x and y.
type Matern32 struct {
	variance float64
	lambda   float64
}

// NewMatern32 creates a new Matern 3/2 kernel with given variance and length scale.
func NewMatern32(variance, lscale float64) *Matern32 {
	return &Matern32{
		variance: variance,
		lambda:   math.Sqrt(3) / lscale,
	}
}

// Eval returns the kernel evaluated at x and y.
func (k *Matern32) Eval(x, y mat.Vector) float64 {
	r := math.Sqrt(sqDist(x, y))
	return k.variance * (1 + k.lambda*r) * math.Exp(-k.lambda*r)
}

// String implements the Stringer interface.
func (k *Matern32) String() string {
	return fmt.Sprintf("Matern32{variance=%v, lambda=%v}", k.variance, k.lambda)
}

// Matern52 is the Matern kernel with smoothness 5/2:
//
//	k(x, y) = variance * (1 + sqrt(5)*r/l + 5*r^2/(3*l^2)) * exp(-sqrt(5)*r/l)
//
// where r is the Euclidean distance between x and y.
type Matern52 struct {
	variance float64
	lambda   float64
}

// NewMatern52 creates a new Matern 5/2 kernel with given variance and length scale.
func NewMatern52(variance, lscale float64) *Matern52 {
	return &Matern52{
		variance: variance,
		lambda:   math.Sqrt(5) / lscale,
	}
}

// Eval returns the kernel evaluated at x and y.
func (k *Matern52) Eval(x, y mat.Vector) float64 {
	r := math.Sqrt(sqDist(x, y))
	lr := k.lambda * r
	return k.variance * (1 + lr + lr*lr/3) * math.Exp(-lr)
}

// String implements the Stringer interface.
func (k *Matern52) String() string {
	return fmt.Sprintf("Matern52{variance=%v, lambda=%v}", k.variance, k.lambda)
}
