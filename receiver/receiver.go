// Package receiver exposes the independence test over HTTP.
package receiver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/kpaschen/hhgjoin/lib"
	"github.com/kpaschen/hhgjoin/lib/datatypes"
	"github.com/kpaschen/hhgjoin/lib/settings"
	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	statisticRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hhgjoin_statistic_requests_total",
			Help: "Total number of statistic computation requests.",
		},
	)
	pvalueRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hhgjoin_pvalue_requests_total",
			Help: "Total number of p-value computation requests.",
		},
	)
	permutationReplications = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hhgjoin_permutation_replications_total",
			Help: "Total number of permutation replications computed.",
		},
	)
	rejectedRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hhgjoin_rejected_requests_total",
			Help: "Total number of requests rejected for invalid input.",
		},
	)
	computationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hhgjoin_computation_duration_milliseconds",
			Help:    "Duration of statistic and p-value computations.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
	sampleSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hhgjoin_last_sample_size",
			Help: "Number of observations in the most recent request.",
		},
	)
)

func init() {
	prometheus.MustRegister(statisticRequests)
	prometheus.MustRegister(pvalueRequests)
	prometheus.MustRegister(permutationReplications)
	prometheus.MustRegister(rejectedRequests)
	prometheus.MustRegister(computationDuration)
	prometheus.MustRegister(sampleSize)
}

type TestProcessor struct {
	config settings.HHGSettings

	// Upper bound on the replication factor a request may ask for.
	maxReplications int
}

func NewTestProcessor(config settings.HHGSettings, maxReplications int) *TestProcessor {
	return &TestProcessor{
		config:          config.ComputeSettingsFields(),
		maxReplications: maxReplications,
	}
}

type testRequest struct {
	X [][]float64 `json:"x"`
	Y [][]float64 `json:"y"`

	Replications int    `json:"replications,omitempty"`
	Seed         *int64 `json:"seed,omitempty"`
	Metric       string `json:"metric,omitempty"`
}

type testResponse struct {
	Test      string  `json:"test"`
	Statistic float64 `json:"statistic"`

	PValue        *float64           `json:"pValue,omitempty"`
	Replications  int                `json:"replications,omitempty"`
	NullQuantiles map[string]float64 `json:"nullQuantiles,omitempty"`
}

func denseFromRows(name string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sample %s is empty", name)
	}
	columns := len(rows[0])
	if columns == 0 {
		return nil, fmt.Errorf("sample %s has empty rows", name)
	}
	data := make([]float64, 0, len(rows)*columns)
	for i, row := range rows {
		if len(row) != columns {
			return nil, fmt.Errorf("sample %s has %d values in row %d but %d in row 0",
				name, len(row), i, columns)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), columns, data), nil
}

func (t *TestProcessor) parseRequest(r *http.Request) (*mat.Dense, *mat.Dense, settings.HHGSettings, error) {
	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, t.config, fmt.Errorf("failed to decode request: %v", err)
	}
	x, err := denseFromRows("x", req.X)
	if err != nil {
		return nil, nil, t.config, err
	}
	y, err := denseFromRows("y", req.Y)
	if err != nil {
		return nil, nil, t.config, err
	}

	config := t.config
	if req.Replications > 0 {
		if t.maxReplications > 0 && req.Replications > t.maxReplications {
			return nil, nil, config, fmt.Errorf("replication factor %d exceeds the limit of %d",
				req.Replications, t.maxReplications)
		}
		config.ReplicationFactor = req.Replications
	}
	if req.Seed != nil {
		config.Seed = *req.Seed
	} else {
		// Without a request seed, every request gets its own; reusing
		// the seed frozen at construction time would replay the same
		// permutation sequence for the lifetime of the process.
		config.Seed = time.Now().UnixNano()
	}
	config.SeedSet = true
	if req.Metric != "" {
		config.MetricName = req.Metric
	}

	rows, _ := x.Dims()
	sampleSize.Set(float64(rows))
	return x, y, config, nil
}

func statusFor(err error) int {
	if datatypes.IsInvalidInput(err) || datatypes.IsDimensionMismatch(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ComputeStatistic handles POST requests asking for the HHG correlation
// of the two sample matrices in the request body.
func (t *TestProcessor) ComputeStatistic(w http.ResponseWriter, r *http.Request) {
	statisticRequests.Inc()
	x, y, config, err := t.parseRequest(r)
	if err != nil {
		rejectedRequests.Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	statistic, _, err := lib.ComputeStatistic(x, y, config)
	if err != nil {
		log.Printf("statistic computation failed: %v\n", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	computationDuration.Observe(float64(time.Since(start).Milliseconds()))

	writeResponse(w, &testResponse{Test: "hhg", Statistic: statistic})
}

// ComputePValue handles POST requests asking for the permutation-test
// p-value of the two sample matrices in the request body.
func (t *TestProcessor) ComputePValue(w http.ResponseWriter, r *http.Request) {
	pvalueRequests.Inc()
	x, y, config, err := t.parseRequest(r)
	if err != nil {
		rejectedRequests.Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	config.KeepNullDistribution = true

	start := time.Now()
	pvalue, metadata, err := lib.ComputePValue(x, y, config)
	if err != nil {
		log.Printf("p-value computation failed: %v\n", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	computationDuration.Observe(float64(time.Since(start).Milliseconds()))
	permutationReplications.Add(float64(config.ReplicationFactor))

	response := &testResponse{
		Test:         "hhg",
		PValue:       &pvalue,
		Replications: config.ReplicationFactor,
	}
	if observed, ok := metadata[datatypes.MetaObservedStatistic].(float64); ok {
		response.Statistic = observed
	}
	if nulls, ok := metadata.NullDistribution(); ok {
		response.NullQuantiles = nullQuantiles(nulls)
	}
	writeResponse(w, response)
}

func nullQuantiles(nulls []float64) map[string]float64 {
	sorted := make([]float64, len(nulls))
	copy(sorted, nulls)
	sort.Float64s(sorted)
	return map[string]float64{
		"0.50": stat.Quantile(0.50, stat.Empirical, sorted, nil),
		"0.95": stat.Quantile(0.95, stat.Empirical, sorted, nil),
		"0.99": stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
}

func writeResponse(w http.ResponseWriter, response *testResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("failed to encode response: %v\n", err)
	}
}
