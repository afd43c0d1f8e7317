package evo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ipdevo_generations_total",
		Help: "Generations advanced successfully",
	})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipdevo_generation_failures_total",
		Help: "Generation steps that failed, by reason",
	}, []string{"reason"})

	matchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ipdevo_matches_total",
		Help: "Pairwise IPD matches played",
	})

	crossoversTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ipdevo_crossovers_total",
		Help: "Adjacent pairs recombined",
	})

	mutatedBitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ipdevo_mutated_bits_total",
		Help: "Strategy table bits flipped by mutation",
	})

	meanFitnessGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ipdevo_mean_fitness",
		Help: "Mean fitness of the last evaluated generation",
	})

	maxFitnessGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ipdevo_max_fitness",
		Help: "Best fitness of the last evaluated generation",
	})

	cooperationGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ipdevo_cooperation_rate",
		Help: "Mean cooperating share of strategy tables in the last evaluated generation",
	})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ipdevo_generation_duration_seconds",
		Help:    "Wall time of one generation step",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
	})
)
