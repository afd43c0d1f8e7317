package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ipdevo/internal/config"
	"ipdevo/internal/stats"
	"ipdevo/pkg/ipdevo"
)

type runOptions struct {
	population     int
	memory         int
	generations    int
	rounds         int
	crossoverRate  float64
	mutateRate     float64
	inject         string
	selection      string
	tournamentSize int
	seed           int64
	workers        int
	artifactsDir   string
	every          int
	quiet          bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a population and print the final match report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvolution(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.population, "pop", 0, "population size (even)")
	f.IntVar(&opts.memory, "memory", 0, "rounds of history each strategy remembers")
	f.IntVar(&opts.generations, "gens", 0, "generations to run")
	f.IntVar(&opts.rounds, "rounds", 0, "rounds per match")
	f.Float64Var(&opts.crossoverRate, "crossover", 0, "per-pair crossover probability")
	f.Float64Var(&opts.mutateRate, "mutate", 0, "per-bit mutation probability")
	f.StringVar(&opts.inject, "inject", "", "reference strategy injection: none|replace|additive")
	f.StringVar(&opts.selection, "selection", "", "parent selection: roulette|tournament")
	f.IntVar(&opts.tournamentSize, "tournament-size", 0, "tournament size for tournament selection")
	f.Int64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")
	f.IntVar(&opts.workers, "workers", 0, "parallel match workers")
	f.StringVar(&opts.artifactsDir, "artifacts-dir", "", "write per-run CSV and JSON artifacts under this directory")
	f.IntVar(&opts.every, "every", 1, "print every n-th generation")
	f.BoolVar(&opts.quiet, "quiet", false, "skip per-generation lines")
	return cmd
}

func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	ev := &cfg.Evolution
	if f.Changed("pop") {
		ev.PopulationSize = o.population
	}
	if f.Changed("memory") {
		ev.Memory = o.memory
	}
	if f.Changed("gens") {
		ev.Generations = o.generations
	}
	if f.Changed("rounds") {
		ev.RoundsPerMatch = o.rounds
	}
	if f.Changed("crossover") {
		ev.CrossoverRate = o.crossoverRate
	}
	if f.Changed("mutate") {
		ev.MutateRate = o.mutateRate
	}
	if f.Changed("inject") {
		ev.Inject = o.inject
	}
	if f.Changed("selection") {
		ev.Selection = o.selection
	}
	if f.Changed("tournament-size") {
		ev.TournamentSize = o.tournamentSize
	}
	if f.Changed("seed") {
		ev.Seed = o.seed
	}
	if f.Changed("workers") {
		ev.Workers = o.workers
	}
	if f.Changed("artifacts-dir") {
		cfg.Artifacts.Dir = o.artifactsDir
	}
}

func runEvolution(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	if opts.every < 1 {
		return usageError("--every must be >= 1")
	}
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	opts.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := root.newLogger(cfg)
	if err != nil {
		return err
	}
	client, err := root.newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	stopMetrics, err := startMetricsServer(root.metricsAddr, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	out := root.stdout
	last := cfg.Evolution.Generations - 1
	progress := func(s ipdevo.Summary) error {
		if opts.quiet || (s.Generation%opts.every != 0 && s.Generation != last) {
			return nil
		}
		fmt.Fprintf(out, "generation %d average %.2f best %d\n", s.Generation, s.Mean, s.Max)
		return nil
	}

	started := time.Now()
	summary, err := client.RunConfig(cmd.Context(), cfg, progress)
	if err != nil {
		if summary.RunID != "" {
			fmt.Fprintf(root.stderr, "run_id=%s completed_generations=%d\n", summary.RunID, len(summary.Generations))
		}
		return err
	}

	reports := make([]stats.MatchReport, len(summary.Report))
	for i, m := range summary.Report {
		reports[i] = ipdevo.MatchReportRow(m)
	}
	fmt.Fprintln(out)
	stats.WriteMatchTable(out, "Best genome "+summary.BestTable, reports, stats.WithStyle(root.tableStyle()))

	var matches int64
	for _, s := range summary.Generations {
		matches += int64(s.Size / 2)
	}
	fmt.Fprintf(out, "run_id=%s profile=%s seed=%d generations=%d matches=%s elapsed=%s\n",
		summary.RunID,
		summary.Profile,
		summary.Seed,
		len(summary.Generations),
		humanize.Comma(matches),
		time.Since(started).Round(time.Millisecond),
	)
	fmt.Fprintf(out, "final_mean=%.2f final_max=%d best=%s\n", summary.FinalMean, summary.FinalMax, summary.BestFingerprint)
	if summary.ArtifactsDir != "" {
		fmt.Fprintf(out, "artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	}
	return nil
}
