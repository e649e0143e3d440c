package matrix

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RowSums returns a slice containing m row sums.
// It panics if m is nil.
func RowSums(m *mat.Dense) []float64 {
	rows, _ := m.Dims()
	sum := make([]float64, rows)

	for i := 0; i < rows; i++ {
		sum[i] = floats.Sum(m.RawRowView(i))
	}

	return sum
}

// ColSums returns a slice containing m column sums.
// It panics if m is nil.
func ColSums(m *mat.Dense) []float64 {
	_, cols := m.Dims()
	sum := make([]float64, cols)

	for i := 0; i < cols; i++ {
		sum[i] = mat.Sum(m.ColView(i))
	}

	return sum
}

// RowMeans returns a slice containing m row means.
// When m stores an ensemble of states in its columns
// the returned slice is the ensemble mean state.
// It panics if m is nil.
func RowMeans(m *mat.Dense) []float64 {
	_, cols := m.Dims()

	mean := RowSums(m)
	floats.Scale(1/float64(cols), mean)

	return mean
}

// ColMeans returns a slice containing m column means.
// It panics if m is nil.
func ColMeans(m *mat.Dense) []float64 {
	rows, _ := m.Dims()

	mean := ColSums(m)
	floats.Scale(1/float64(rows), mean)

	return mean
}
