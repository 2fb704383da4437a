// Package permtest estimates the significance of an HHG statistic with
// a permutation test.
package permtest

import (
	"log"
	"math/rand"
	"sync"

	"github.com/kpaschen/hhgjoin/lib/correlation"
	"github.com/kpaschen/hhgjoin/lib/datatypes"
	"github.com/kpaschen/hhgjoin/lib/distance"
	"github.com/kpaschen/hhgjoin/lib/settings"
	"gonum.org/v1/gonum/mat"
)

// A Tester runs the HHG permutation test. Every PValue call derives its
// own observed statistic and null distribution from its arguments; a
// Tester holds configuration only, never data from previous calls.
type Tester struct {
	config  settings.HHGSettings
	builder *distance.Builder
}

func NewTester(config settings.HHGSettings, builder *distance.Builder) *Tester {
	if builder == nil {
		builder = distance.NewBuilder(nil)
	}
	return &Tester{config: config, builder: builder}
}

// Name identifies the independence test implemented by this package.
func (t *Tester) Name() string {
	return "hhg"
}

// PValue tests independence of the paired samples x and y.
//
// It computes the observed statistic, then rebuilds the statistic for
// ReplicationFactor random reorderings of the y sample and reports the
// fraction of replications at least as large as the observed value.
// The permutations act on the index order of the observations, so the
// y distance matrix is reindexed on both axes; this holds whether the
// caller passed raw samples or a prebuilt distance matrix.
func (t *Tester) PValue(x, y *mat.Dense) (float64, datatypes.Metadata, error) {
	reps := t.config.ReplicationFactor
	if reps <= 0 {
		return 0, nil, &datatypes.InvalidInputError{
			Reason: "replication factor must be a positive integer",
		}
	}
	xRows, _ := x.Dims()
	yRows, _ := y.Dims()
	if xRows != yRows {
		return 0, nil, &datatypes.DimensionMismatchError{What: "y sample rows", Got: yRows, Want: xRows}
	}

	dx, err := t.builder.Build(x)
	if err != nil {
		return 0, nil, err
	}
	dy, err := t.builder.Build(y)
	if err != nil {
		return 0, nil, err
	}

	observed, _, err := correlation.Statistic(dx, dy)
	if err != nil {
		return 0, nil, err
	}

	nulls, err := t.nullDistribution(dx, dy, xRows, reps)
	if err != nil {
		return 0, nil, err
	}

	atLeastAsExtreme := 0
	for _, v := range nulls {
		if v >= observed {
			atLeastAsExtreme++
		}
	}
	p := float64(atLeastAsExtreme) / float64(reps)

	metadata := datatypes.NewMetadata()
	if t.config.KeepNullDistribution {
		metadata[datatypes.MetaNullDistribution] = nulls
		metadata[datatypes.MetaObservedStatistic] = observed
	}
	return p, metadata, nil
}

// nullDistribution scores reps permutation replications. All
// permutations come from one source seeded with the configured seed, in
// replication order, before any scoring starts. The workers then fill
// the result slice by replication index, so the output is identical for
// any worker count.
func (t *Tester) nullDistribution(dx, dy *mat.Dense, n int, reps int) ([]float64, error) {
	source := rand.New(rand.NewSource(t.config.Seed))
	perms := make([][]int, reps)
	for r := 0; r < reps; r++ {
		perms[r] = source.Perm(n)
	}

	nulls := make([]float64, reps)
	errs := make([]error, reps)

	workers := t.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > reps {
		workers = reps
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for r := range indices {
				permuted, err := distance.PermuteIndex(dy, perms[r])
				if err != nil {
					errs[r] = err
					continue
				}
				value, _, err := correlation.Statistic(dx, permuted)
				if err != nil {
					errs[r] = err
					continue
				}
				nulls[r] = value
			}
		}()
	}
	for r := 0; r < reps; r++ {
		indices <- r
	}
	close(indices)
	wg.Wait()

	for r, err := range errs {
		if err != nil {
			log.Printf("permutation replication %d failed: %v\n", r, err)
			return nil, err
		}
	}
	return nulls, nil
}
