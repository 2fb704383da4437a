package lib

import (
	"math"
	"testing"

	"github.com/kpaschen/hhgjoin/lib/correlation"
	"github.com/kpaschen/hhgjoin/lib/datatypes"
	"github.com/kpaschen/hhgjoin/lib/distance"
	"github.com/kpaschen/hhgjoin/lib/settings"
	"gonum.org/v1/gonum/mat"
)

// Ten paired observations used as a regression fixture; the expected
// statistic was verified against an independent implementation.
var (
	regressionX = []float64{0.07487683, -0.18073412, 0.37266440, 0.06074847, 0.76899045,
		0.51862516, -0.13480764, -0.54368083, -0.73812644, 0.54910974}
	regressionY = []float64{-1.31741173, -0.41634224, 2.24021815, 0.88317196, 2.00149312,
		1.35857623, -0.06729464, 0.16168344, -0.61048226, 0.41711113}
)

const regressionStatistic = 49.76471655328797

func columnVector(values []float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

func TestComputeStatisticRegression(t *testing.T) {
	statistic, metadata, err := ComputeStatistic(
		columnVector(regressionX), columnVector(regressionY), settings.HHGSettings{})
	if err != nil {
		t.Fatalf("unexpected error computing statistic: %v", err)
	}
	if math.Abs(statistic-regressionStatistic) > 0.0000001 {
		t.Errorf("unexpected statistic %v, expected %v", statistic, regressionStatistic)
	}
	if len(metadata) != 0 {
		t.Errorf("expected empty metadata but got %v", metadata)
	}
}

func TestComputeStatisticMatchesPrebuiltDistances(t *testing.T) {
	x := columnVector(regressionX)
	y := columnVector(regressionY)

	fromSamples, _, err := ComputeStatistic(x, y, settings.HHGSettings{})
	if err != nil {
		t.Fatalf("unexpected error computing statistic from samples: %v", err)
	}

	builder := distance.NewBuilder(nil)
	dx, err := builder.Build(x)
	if err != nil {
		t.Fatalf("unexpected error building x distances: %v", err)
	}
	dy, err := builder.Build(y)
	if err != nil {
		t.Fatalf("unexpected error building y distances: %v", err)
	}
	fromDistances, _, err := correlation.Statistic(dx, dy)
	if err != nil {
		t.Fatalf("unexpected error computing statistic from distances: %v", err)
	}

	if fromSamples != fromDistances {
		t.Errorf("statistic from samples %v differs from statistic from distance matrices %v",
			fromSamples, fromDistances)
	}

	// The boundary accepts prebuilt distance matrices directly, too.
	passedThrough, _, err := ComputeStatistic(dx, dy, settings.HHGSettings{})
	if err != nil {
		t.Fatalf("unexpected error computing statistic on distance matrices: %v", err)
	}
	if passedThrough != fromSamples {
		t.Errorf("statistic on prebuilt distance matrices %v differs from %v",
			passedThrough, fromSamples)
	}
}

func TestComputeStatisticCustomMetric(t *testing.T) {
	config := settings.HHGSettings{
		Metric: distance.Func(func(a, b []float64) float64 {
			return math.Abs(a[0] - b[0])
		}),
	}
	custom, _, err := ComputeStatistic(
		columnVector(regressionX), columnVector(regressionY), config)
	if err != nil {
		t.Fatalf("unexpected error with custom metric: %v", err)
	}
	// In one dimension the absolute difference is the euclidean
	// distance, so the statistic has to match the default.
	if math.Abs(custom-regressionStatistic) > 0.0000001 {
		t.Errorf("unexpected statistic %v with custom metric, expected %v",
			custom, regressionStatistic)
	}
}

func TestComputePValueRegression(t *testing.T) {
	config := settings.HHGSettings{
		ReplicationFactor: 1000,
		Seed:              12345,
		SeedSet:           true,
		Workers:           4,
	}
	p1, _, err := ComputePValue(columnVector(regressionX), columnVector(regressionY), config)
	if err != nil {
		t.Fatalf("unexpected error computing p-value: %v", err)
	}
	if p1 < 0.0 || p1 > 1.0 {
		t.Errorf("p-value %f outside [0,1]", p1)
	}
	p2, _, err := ComputePValue(columnVector(regressionX), columnVector(regressionY), config)
	if err != nil {
		t.Fatalf("unexpected error computing p-value: %v", err)
	}
	if p1 != p2 {
		t.Errorf("p-value is not reproducible under a fixed seed: %v vs %v", p1, p2)
	}
}

func TestComputeStatisticRejectsMismatchedRows(t *testing.T) {
	_, _, err := ComputeStatistic(
		columnVector([]float64{0.0, 1.0, 2.0}),
		columnVector([]float64{0.0, 1.0}),
		settings.HHGSettings{})
	if err == nil {
		t.Fatalf("expected error for samples with different row counts")
	}
	if !datatypes.IsDimensionMismatch(err) {
		t.Errorf("expected DimensionMismatchError but got %v", err)
	}
}

func TestComputeStatisticRejectsTinySamples(t *testing.T) {
	_, _, err := ComputeStatistic(
		columnVector([]float64{1.0}),
		columnVector([]float64{2.0}),
		settings.HHGSettings{})
	if err == nil {
		t.Fatalf("expected error for single-row samples")
	}
}

func TestComputeStatisticRejectsNonFiniteValues(t *testing.T) {
	cases := [][]float64{
		{0.0, math.NaN(), 2.0},
		{0.0, math.Inf(1), 2.0},
		{0.0, math.Inf(-1), 2.0},
	}
	for _, values := range cases {
		_, _, err := ComputeStatistic(
			columnVector(values),
			columnVector([]float64{0.0, 1.0, 2.0}),
			settings.HHGSettings{})
		if err == nil {
			t.Fatalf("expected error for non-finite sample values %v", values)
		}
		if !datatypes.IsInvalidInput(err) {
			t.Errorf("expected InvalidInputError but got %v", err)
		}
	}
}

func TestComputeStatisticRejectsUnknownMetric(t *testing.T) {
	_, _, err := ComputeStatistic(
		columnVector([]float64{0.0, 1.0, 2.0}),
		columnVector([]float64{0.0, 1.0, 2.0}),
		settings.HHGSettings{MetricName: "hamming"})
	if err == nil {
		t.Fatalf("expected error for unknown metric name")
	}
	if !datatypes.IsInvalidInput(err) {
		t.Errorf("expected InvalidInputError but got %v", err)
	}
}

func TestComputePValueRejectsNegativeReplications(t *testing.T) {
	config := settings.HHGSettings{ReplicationFactor: -1}
	_, _, err := ComputePValue(
		columnVector([]float64{0.0, 1.0, 2.0}),
		columnVector([]float64{0.0, 1.0, 2.0}),
		config)
	if err == nil {
		t.Fatalf("expected error for negative replication factor")
	}
	if !datatypes.IsInvalidInput(err) {
		t.Errorf("expected InvalidInputError but got %v", err)
	}
}
