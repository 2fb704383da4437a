package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/kpaschen/hhgjoin/lib"
	"github.com/kpaschen/hhgjoin/lib/settings"
	"gonum.org/v1/gonum/mat"
)

func readMatrix(filename string) *mat.Dense {
	file, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	defer file.Close()
	lineCount := 0
	columnCount := 0
	data := make([]float64, 0)
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimSuffix(line, "\n")
		if len(line) > 0 {
			lineCount++
			parts := strings.Fields(line)
			if columnCount == 0 {
				columnCount = len(parts)
			} else if columnCount != len(parts) {
				panic(fmt.Errorf("inconsistent number of values in line %d of %s: expected %d but got %d",
					lineCount, filename, columnCount, len(parts)))
			}
			for _, p := range parts {
				v, err := strconv.ParseFloat(p, 64)
				if err != nil {
					panic(fmt.Errorf("on line %d of %s, failed to parse %s into a float: %v",
						lineCount, filename, p, err))
				}
				data = append(data, v)
			}
		}
		if err != nil {
			break // err is usually io.EOF
		}
	}
	if lineCount == 0 {
		panic(fmt.Errorf("no sample values found in %s", filename))
	}
	return mat.NewDense(lineCount, columnCount, data)
}

func main() {
	xfile := flag.String("x", "", "Name of the file with the first sample matrix")
	yfile := flag.String("y", "", "Name of the file with the second sample matrix")
	replications := flag.Int("replications", 1000, "number of permutation replications for the p-value")
	seed := flag.Int64("seed", 0, "seed for the permutation random source; 0 means use the clock")
	workers := flag.Int("workers", 1, "number of goroutines scoring permutation replications")
	metric := flag.String("metric", settings.METRIC_EUCLIDEAN, "distance metric. Possible values: euclidean, manhattan, chebyshev")
	statOnly := flag.Bool("statOnly", false, "only compute the statistic, skip the permutation test")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile here")
	flag.Parse()

	switch *metric {
	case settings.METRIC_EUCLIDEAN, settings.METRIC_MANHATTAN, settings.METRIC_CHEBYSHEV:
	default:
		panic(fmt.Errorf("unknown metric %q", *metric))
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			panic(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	x := readMatrix(*xfile)
	y := readMatrix(*yfile)

	config := settings.HHGSettings{
		ReplicationFactor: *replications,
		Workers:           *workers,
		MetricName:        *metric,
	}
	if *seed != 0 {
		config.Seed = *seed
		config.SeedSet = true
	}

	statistic, _, err := lib.ComputeStatistic(x, y, config)
	if err != nil {
		fmt.Printf("caught error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("hhg statistic: %f\n", statistic)

	if !*statOnly {
		pvalue, _, err := lib.ComputePValue(x, y, config)
		if err != nil {
			fmt.Printf("caught error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("p-value after %d replications: %f\n", *replications, pvalue)
	}
}
