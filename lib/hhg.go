// Package lib is the entry point for the hhgjoin independence test.
//
// The HHG statistic measures dependence between two paired samples of
// possibly different dimensionality through rank-based local contingency
// tables over their pairwise distances. Significance is estimated with a
// permutation test.
package lib

import (
	"fmt"
	"math"

	"github.com/kpaschen/hhgjoin/lib/correlation"
	"github.com/kpaschen/hhgjoin/lib/datatypes"
	"github.com/kpaschen/hhgjoin/lib/distance"
	"github.com/kpaschen/hhgjoin/lib/permtest"
	"github.com/kpaschen/hhgjoin/lib/settings"
	"gonum.org/v1/gonum/mat"
)

// ComputeStatistic computes the HHG correlation between the samples
// x and y. Each sample is either an n x p observation matrix or an
// already-built n x n distance matrix; both forms need the same n.
func ComputeStatistic(x, y *mat.Dense, config settings.HHGSettings) (float64, datatypes.Metadata, error) {
	config = config.ComputeSettingsFields()
	if err := validateSamplePair(x, y); err != nil {
		return 0, nil, err
	}
	builder, err := builderFor(config)
	if err != nil {
		return 0, nil, err
	}
	dx, err := builder.Build(x)
	if err != nil {
		return 0, nil, err
	}
	dy, err := builder.Build(y)
	if err != nil {
		return 0, nil, err
	}
	return correlation.Statistic(dx, dy)
}

// ComputePValue estimates the significance of the HHG correlation
// between x and y with a permutation test of config.ReplicationFactor
// replications. The call is self-contained: it derives its own observed
// statistic and null distribution, independent of any prior call.
func ComputePValue(x, y *mat.Dense, config settings.HHGSettings) (float64, datatypes.Metadata, error) {
	config = config.ComputeSettingsFields()
	if err := validateSamplePair(x, y); err != nil {
		return 0, nil, err
	}
	builder, err := builderFor(config)
	if err != nil {
		return 0, nil, err
	}
	return permtest.NewTester(config, builder).PValue(x, y)
}

func builderFor(config settings.HHGSettings) (*distance.Builder, error) {
	metric := config.Metric
	if metric == nil {
		var err error
		metric, err = distance.ByName(config.MetricName)
		if err != nil {
			return nil, &datatypes.InvalidInputError{Reason: err.Error()}
		}
	}
	return distance.NewBuilder(metric), nil
}

func validateSamplePair(x, y *mat.Dense) error {
	if x == nil || y == nil {
		return &datatypes.InvalidInputError{Reason: "sample matrices must not be nil"}
	}
	xRows, _ := x.Dims()
	yRows, _ := y.Dims()
	if xRows != yRows {
		return &datatypes.DimensionMismatchError{What: "y sample rows", Got: yRows, Want: xRows}
	}
	if xRows < 2 {
		return &datatypes.DimensionMismatchError{What: "sample rows", Got: xRows, Want: 2}
	}
	if err := validateFinite("x", x); err != nil {
		return err
	}
	return validateFinite("y", y)
}

func validateFinite(name string, m *mat.Dense) error {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &datatypes.InvalidInputError{
					Reason: fmt.Sprintf("sample %s has non-finite value %f at (%d,%d)", name, v, i, j),
				}
			}
		}
	}
	return nil
}
