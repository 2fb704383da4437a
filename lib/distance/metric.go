// Package distance turns raw observation matrices into pairwise
// distance matrices.
package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// A Metric computes the distance between two observations given as
// feature vectors of equal length.
type Metric interface {
	Distance(a, b []float64) float64
	Name() string
}

// Func adapts a plain function into a Metric.
type Func func(a, b []float64) float64

func (f Func) Distance(a, b []float64) float64 { return f(a, b) }
func (f Func) Name() string                    { return "custom" }

// EuclideanMetric computes the Euclidean (L2) distance.
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b []float64) float64 {
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	return floats.Norm(diff, 2)
}

func (EuclideanMetric) Name() string { return "euclidean" }

// ManhattanMetric computes the Manhattan (L1) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

func (ManhattanMetric) Name() string { return "manhattan" }

// ChebyshevMetric computes the Chebyshev (L-infinity) distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 {
	var maxVal float64
	for i := range a {
		if v := math.Abs(a[i] - b[i]); v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

func (ChebyshevMetric) Name() string { return "chebyshev" }

// ByName returns the built-in metric with the given name.
func ByName(name string) (Metric, error) {
	switch name {
	case "", "euclidean":
		return EuclideanMetric{}, nil
	case "manhattan":
		return ManhattanMetric{}, nil
	case "chebyshev":
		return ChebyshevMetric{}, nil
	}
	return nil, fmt.Errorf("unknown distance metric %q", name)
}
