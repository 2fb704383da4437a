package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/kpaschen/hhgjoin/lib/settings"
	"github.com/kpaschen/hhgjoin/receiver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/collectors/version"
)

type config struct {
	testAddress    string
	metricsAddress string
}

func main() {
	var metricsAddr string
	var testAddr string
	var replications int
	var maxReplications int
	var workers int
	var metric string

	flag.StringVar(&metricsAddr, "metrics-address", ":9203", "The address the metrics endpoint binds to.")
	flag.StringVar(&testAddr, "listen-address", ":9201", "The address that the test endpoint binds to.")
	flag.IntVar(&replications, "replications", 1000, "default number of permutation replications for p-value requests")
	flag.IntVar(&maxReplications, "maxReplications", 100000, "the largest replication factor a request may ask for. 0 means no limit.")
	flag.IntVar(&workers, "workers", 4, "number of goroutines scoring permutation replications")
	flag.StringVar(&metric, "metric", settings.METRIC_EUCLIDEAN, "default distance metric. Possible values: euclidean, manhattan, chebyshev")

	flag.Parse()

	switch metric {
	case settings.METRIC_EUCLIDEAN, settings.METRIC_MANHATTAN, settings.METRIC_CHEBYSHEV:
	default:
		log.Fatalf("unknown metric %q", metric)
	}

	cfg := &config{
		testAddress:    testAddr,
		metricsAddress: metricsAddr,
	}

	hhgConfig := settings.HHGSettings{
		ReplicationFactor: replications,
		Workers:           workers,
		MetricName:        metric,
	}
	hhgConfig = hhgConfig.ComputeSettingsFields()

	prometheus.MustRegister(version.NewCollector("hhgjoin"))

	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(cfg.metricsAddress, nil)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	processor := receiver.NewTestProcessor(hhgConfig, maxReplications)
	testRouter := mux.NewRouter().StrictSlash(true)
	testRouter.HandleFunc("/api/v1/statistic", processor.ComputeStatistic).Methods("POST")
	testRouter.HandleFunc("/api/v1/pvalue", processor.ComputePValue).Methods("POST")

	testServer := &http.Server{
		Addr:    cfg.testAddress,
		Handler: testRouter,
	}
	go func() {
		log.Printf("independence test service listening on port %s\n", cfg.testAddress)
		if err := testServer.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				log.Fatal(err)
			}
		}
	}()

	<-stop
	log.Println("independence test service shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := testServer.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
