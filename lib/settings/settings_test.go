package settings

import (
	"testing"

	"github.com/kpaschen/hhgjoin/lib/distance"
)

func TestMetricNamesResolve(t *testing.T) {
	for _, name := range []string{METRIC_EUCLIDEAN, METRIC_MANHATTAN, METRIC_CHEBYSHEV} {
		metric, err := distance.ByName(name)
		if err != nil {
			t.Errorf("metric constant %q does not resolve: %v", name, err)
			continue
		}
		if metric.Name() != name {
			t.Errorf("metric constant %q resolves to metric named %q", name, metric.Name())
		}
	}
}

func TestComputeSettingsFields(t *testing.T) {
	s := HHGSettings{}.ComputeSettingsFields()
	if s.ReplicationFactor != 1000 {
		t.Errorf("unexpected default replication factor %d", s.ReplicationFactor)
	}
	if !s.SeedSet {
		t.Errorf("expected a seed to be chosen")
	}
	if s.Workers != 1 {
		t.Errorf("unexpected default worker count %d", s.Workers)
	}
	if s.MetricName != METRIC_EUCLIDEAN {
		t.Errorf("unexpected default metric %s", s.MetricName)
	}

	s = HHGSettings{ReplicationFactor: 50, Seed: 3, SeedSet: true, Workers: 4}.ComputeSettingsFields()
	if s.ReplicationFactor != 50 || s.Seed != 3 || s.Workers != 4 {
		t.Errorf("explicit settings were overwritten: %+v", s)
	}
}
