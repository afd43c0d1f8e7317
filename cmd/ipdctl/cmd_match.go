package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ipdevo/internal/stats"
	"ipdevo/pkg/ipdevo"
)

type matchOptions struct {
	memory int
	rounds int
	seed   int64
	trace  bool
}

func newMatchCmd(root *rootOptions) *cobra.Command {
	opts := &matchOptions{}
	cmd := &cobra.Command{
		Use:   "match <strategy-a> <strategy-b>",
		Short: "Play two named strategies against each other",
		Long:  "Strategies: " + strings.Join(ipdevo.StrategyNames(), ", "),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError("ipdctl match <strategy-a> <strategy-b>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, root, opts, args[0], args[1])
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.memory, "memory", 1, "history length of both strategies")
	f.IntVar(&opts.rounds, "rounds", 0, "rounds to play (default from config)")
	f.Int64Var(&opts.seed, "seed", 0, "seed for the random strategy")
	f.BoolVar(&opts.trace, "trace", false, "print every round")
	return cmd
}

func runMatch(cmd *cobra.Command, root *rootOptions, opts *matchOptions, a, b string) error {
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	rounds := opts.rounds
	if !cmd.Flags().Changed("rounds") {
		rounds = cfg.Evolution.RoundsPerMatch
	}
	if rounds < 1 {
		return usageError("--rounds must be >= 1")
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

	payoff := cfg.Payoff
	result, err := client.Match(ipdevo.MatchRequest{
		A:      a,
		B:      b,
		Memory: opts.memory,
		Rounds: rounds,
		Payoff: &payoff,
		Seed:   opts.seed,
		Trace:  opts.trace,
	})
	if err != nil {
		return err
	}

	out := root.stdout
	if opts.trace {
		for i, r := range result.Trace {
			fmt.Fprintf(out, "round=%d a=%s b=%s score_a=%d score_b=%d\n", i, move(r.MoveA), move(r.MoveB), r.ScoreA, r.ScoreB)
		}
	}
	stats.WriteMatchTable(out, "Match", []stats.MatchReport{{
		Label:        result.A + " vs " + result.B,
		Opponent:     result.B,
		Rounds:       result.Rounds,
		ScoreA:       result.ScoreA,
		ScoreB:       result.ScoreB,
		CooperationA: result.CooperationA,
		CooperationB: result.CooperationB,
	}}, stats.WithStyle(root.tableStyle()))
	return nil
}

func move(cooperate bool) string {
	if cooperate {
		return "C"
	}
	return "D"
}
