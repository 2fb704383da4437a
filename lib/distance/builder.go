package distance

import (
	"fmt"

	"github.com/kpaschen/hhgjoin/lib/datatypes"
	"gonum.org/v1/gonum/mat"
)

// A Builder computes pairwise distance matrices for observation
// matrices. When its input already is a distance matrix (square with an
// all-zero diagonal), the input is validated and passed through instead
// of being recomputed.
type Builder struct {
	metric Metric
}

func NewBuilder(metric Metric) *Builder {
	if metric == nil {
		metric = EuclideanMetric{}
	}
	return &Builder{metric: metric}
}

// IsDistanceMatrix reports whether m can be taken as a distance matrix
// without recomputation: it has to be square and the sum of its squared
// diagonal entries has to be zero.
func IsDistanceMatrix(m *mat.Dense) bool {
	rows, cols := m.Dims()
	if rows != cols {
		return false
	}
	diagSquares := 0.0
	for i := 0; i < rows; i++ {
		d := m.At(i, i)
		diagSquares += d * d
	}
	return diagSquares == 0.0
}

// Build returns the n x n pairwise distance matrix for the n rows of m.
// If m already is a distance matrix it is copied through unchanged.
// Build never modifies its input.
func (b *Builder) Build(m *mat.Dense) (*mat.Dense, error) {
	rows, cols := m.Dims()
	if rows == 0 {
		return nil, &datatypes.DimensionMismatchError{What: "observation rows", Got: 0, Want: 1}
	}
	if cols == 0 {
		return nil, &datatypes.DimensionMismatchError{What: "observation columns", Got: 0, Want: 1}
	}

	if IsDistanceMatrix(m) {
		if err := validateDistanceMatrix(m); err != nil {
			return nil, err
		}
		return mat.DenseCopyOf(m), nil
	}

	// Built-in metrics are symmetric by construction; a caller-supplied
	// metric has to prove it.
	checkSymmetry := !isBuiltin(b.metric)

	result := mat.NewDense(rows, rows, nil)
	for i := 0; i < rows; i++ {
		rowI := m.RawRowView(i)
		for j := i + 1; j < rows; j++ {
			d := b.metric.Distance(rowI, m.RawRowView(j))
			if d < 0 {
				return nil, &datatypes.InvalidInputError{
					Reason: fmt.Sprintf("metric %s returned negative distance %f for rows %d and %d",
						b.metric.Name(), d, i, j),
				}
			}
			if checkSymmetry {
				dBack := b.metric.Distance(m.RawRowView(j), rowI)
				if d != dBack {
					return nil, &datatypes.InvalidInputError{
						Reason: fmt.Sprintf("metric %s is asymmetric for rows %d and %d: %f vs %f",
							b.metric.Name(), i, j, d, dBack),
					}
				}
			}
			result.Set(i, j, d)
			result.Set(j, i, d)
		}
	}
	return result, nil
}

func isBuiltin(m Metric) bool {
	switch m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric:
		return true
	}
	return false
}

func validateDistanceMatrix(m *mat.Dense) error {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		for j := i + 1; j < rows; j++ {
			if m.At(i, j) < 0 {
				return &datatypes.InvalidInputError{
					Reason: fmt.Sprintf("distance matrix has negative entry %f at (%d,%d)", m.At(i, j), i, j),
				}
			}
			if m.At(i, j) != m.At(j, i) {
				return &datatypes.InvalidInputError{
					Reason: fmt.Sprintf("distance matrix is asymmetric at (%d,%d): %f vs %f",
						i, j, m.At(i, j), m.At(j, i)),
				}
			}
		}
	}
	return nil
}

// PermuteIndex reorders the rows and columns of the distance matrix d
// according to perm, so that the result is the distance matrix of the
// underlying observations in permuted order. Reindexing both axes keeps
// the symmetry and zero-diagonal invariants; permuting raw entries
// would not.
func PermuteIndex(d *mat.Dense, perm []int) (*mat.Dense, error) {
	rows, _ := d.Dims()
	if len(perm) != rows {
		return nil, &datatypes.DimensionMismatchError{What: "permutation length", Got: len(perm), Want: rows}
	}
	result := mat.NewDense(rows, rows, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < rows; j++ {
			result.Set(i, j, d.At(perm[i], perm[j]))
		}
	}
	return result, nil
}
