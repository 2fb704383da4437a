// Package datatypes holds the types shared between the hhgjoin packages.
package datatypes

import (
	"errors"
	"fmt"
)

// Metadata carries optional diagnostics alongside a statistic or p-value.
// The core computations return it empty; callers can ask for extra keys
// through the settings.
type Metadata map[string]interface{}

// Reserved metadata keys.
const (
	MetaNullDistribution  = "null_distribution"
	MetaObservedStatistic = "observed_statistic"
)

func NewMetadata() Metadata {
	return make(Metadata)
}

// NullDistribution returns the null distribution stored in m, if any.
func (m Metadata) NullDistribution() ([]float64, bool) {
	v, exists := m[MetaNullDistribution]
	if !exists {
		return nil, false
	}
	dist, ok := v.([]float64)
	return dist, ok
}

// A DimensionMismatchError reports inputs whose shapes disagree, such as
// sample matrices with different row counts or distance matrices of
// different sizes.
type DimensionMismatchError struct {
	What string
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch for %s: got %d, want %d", e.What, e.Got, e.Want)
}

// An InvalidInputError reports inputs that are malformed rather than
// mis-shaped: NaN or Inf entries, a non-positive replication factor, or a
// metric that produced an asymmetric or negative distance.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func IsDimensionMismatch(err error) bool {
	var dme *DimensionMismatchError
	return errors.As(err, &dme)
}

func IsInvalidInput(err error) bool {
	var iie *InvalidInputError
	return errors.As(err, &iie)
}
