// Package settings contains all the parameters for the hhgjoin test.
package settings

import (
	"time"

	"github.com/kpaschen/hhgjoin/lib/distance"
)

const (
	METRIC_EUCLIDEAN = "euclidean"
	METRIC_MANHATTAN = "manhattan"
	METRIC_CHEBYSHEV = "chebyshev"
)

type HHGSettings struct {
	// The number of permutation replications to use when estimating
	// the null distribution (R).
	ReplicationFactor int

	// Seed for the permutation random number source. All permutations
	// are drawn from this one seeded source, so a fixed seed makes the
	// whole p-value computation reproducible.
	Seed int64

	// Whether a seed was supplied. Without one, the seed is taken from
	// the wall clock.
	SeedSet bool

	// The number of goroutines scoring permutation replications.
	// The replications are independent, so this only affects speed,
	// never the result.
	Workers int

	// Name of the built-in distance metric to use when the inputs are
	// raw observation matrices.
	MetricName string

	// Metric overrides MetricName with a caller-supplied distance
	// function. Distances it returns must be symmetric and nonnegative.
	Metric distance.Metric

	// When set, the permutation test stores its null distribution and
	// the observed statistic in the returned metadata.
	KeepNullDistribution bool
}

func (s HHGSettings) ComputeSettingsFields() HHGSettings {
	if s.ReplicationFactor == 0 {
		s.ReplicationFactor = 1000
	}
	if !s.SeedSet {
		s.Seed = time.Now().UnixNano()
		s.SeedSet = true
	}
	if s.Workers == 0 {
		s.Workers = 1
	}
	if s.MetricName == "" {
		s.MetricName = METRIC_EUCLIDEAN
	}
	return s
}
