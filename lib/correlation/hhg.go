// Package correlation computes the HHG correlation measure between two
// distance matrices.
package correlation

import (
	"github.com/kpaschen/hhgjoin/lib/datatypes"
	"gonum.org/v1/gonum/mat"
)

// Statistic computes the HHG correlation on two n x n distance matrices.
//
// For every ordered pair (i, j) with i != j, the remaining points are
// classified into a 2x2 contingency table by whether they lie within
// distance dx[i][j] of i in X-space and within dy[i][j] of i in Y-space.
// Each table contributes a normalized chi-square term; the statistic is
// the sum of those terms. Pairs whose table has an empty margin carry no
// information and contribute zero.
//
// The computation is O(n^3): n^2 pairs with one scan over the rows of
// dx and dy per pair.
func Statistic(dx, dy *mat.Dense) (float64, datatypes.Metadata, error) {
	n, cols := dx.Dims()
	if n != cols {
		return 0, nil, &datatypes.DimensionMismatchError{What: "x distance matrix columns", Got: cols, Want: n}
	}
	yRows, yCols := dy.Dims()
	if yRows != n || yCols != n {
		return 0, nil, &datatypes.DimensionMismatchError{What: "y distance matrix rows", Got: yRows, Want: n}
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		rowX := dx.RawRowView(i)
		rowY := dy.RawRowView(i)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sum += pairContribution(rowX, rowY, rowX[j], rowY[j], n)
		}
	}

	// Metadata is reserved for future diagnostics such as the per-pair
	// contribution matrix.
	return sum, datatypes.NewMetadata(), nil
}

// pairContribution scores one ordered pair (i, j). rowX and rowY are the
// i-th rows of the distance matrices, radiusX and radiusY the distances
// from i to j in the two spaces.
func pairContribution(rowX, rowY []float64, radiusX, radiusY float64, n int) float64 {
	// One scan classifies every point k by whether it lies within
	// radiusX of i in X-space (A) and within radiusY in Y-space (B).
	// The indices i and j themselves always land in the A-and-B cell,
	// which is why t11 subtracts 2 below.
	countA, countB, countAB := 0, 0, 0
	for k := 0; k < n; k++ {
		a := rowX[k] <= radiusX
		b := rowY[k] <= radiusY
		if a {
			countA++
		}
		if b {
			countB++
		}
		if a && b {
			countAB++
		}
	}

	t11 := countAB - 2
	t12 := countA - countAB
	t21 := countB - countAB
	t22 := n - countA - countB + countAB

	// For n < 3 the table margins collapse and t11 can go negative;
	// the denominator guard turns those pairs into zero contributions
	// rather than errors.
	denom := (t11 + t12) * (t21 + t22) * (t11 + t21) * (t12 + t22)
	if denom <= 0 {
		return 0.0
	}
	diff := float64(t12*t21 - t11*t22)
	return float64(n-2) * diff * diff / float64(denom)
}
