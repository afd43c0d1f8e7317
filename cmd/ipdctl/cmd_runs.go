package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ipdevo/internal/config"
	"ipdevo/internal/stats"
	"ipdevo/pkg/ipdevo"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return usageError("--limit must be >= 1")
			}
			client, err := root.openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			runs, err := client.Runs(cmd.Context(), ipdevo.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(root.stdout, "no runs recorded")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(root.stdout)
			t.SetStyle(root.tableStyle())
			t.AppendHeader(table.Row{"RUN ID", "CREATED", "PROFILE", "STATUS", "SEED", "POP", "MEM", "GENS", "FINAL MEAN", "FINAL MAX"})
			for _, r := range runs {
				gens := fmt.Sprintf("%d/%d", r.Completed, r.Generations)
				status := r.Status
				if r.FailedGeneration != nil {
					status += "@" + strconv.Itoa(*r.FailedGeneration)
				}
				t.AppendRow(table.Row{
					r.RunID,
					humanize.Time(r.CreatedAt),
					r.Profile,
					status,
					r.Seed,
					humanize.Comma(int64(r.Population)),
					r.Memory,
					gens,
					fmt.Sprintf("%.2f", r.FinalMean),
					r.FinalMax,
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		runID  string
		latest bool
		limit  int
		every  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the per-generation summary of a recorded run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID == "" && !latest {
				return usageError("ipdctl history --run-id <id> | --latest")
			}
			if every < 1 {
				return usageError("--every must be >= 1")
			}
			client, err := root.openClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			items, err := client.History(cmd.Context(), ipdevo.HistoryRequest{RunID: runID, Latest: latest, Limit: limit})
			if err != nil {
				return err
			}
			rows := make([]stats.GenerationRow, len(items))
			for i, item := range items {
				rows[i] = stats.GenerationRow{
					Generation:      item.Generation,
					Size:            item.Size,
					Mean:            item.Mean,
					StdDev:          item.StdDev,
					Min:             item.Min,
					Max:             item.Max,
					CooperationRate: item.CooperationRate,
					Diversity:       item.Diversity,
					BestFingerprint: item.BestFingerprint,
				}
			}
			stats.WriteGenerationTable(root.stdout, rows, every, stats.WithStyle(root.tableStyle()))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&runID, "run-id", "", "run to show")
	f.BoolVar(&latest, "latest", false, "show the most recent run")
	f.IntVar(&limit, "limit", 0, "show at most this many generations (0 shows all)")
	f.IntVar(&every, "every", 1, "show every n-th generation")
	return cmd
}

func newProfilesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configuration presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range config.ProfileNames() {
				desc, _ := config.ProfileDescription(name)
				fmt.Fprintf(root.stdout, "%-10s %s\n", name, desc)
			}
			return nil
		},
	}
}

func (o *rootOptions) openClient(cmd *cobra.Command) (*ipdevo.Client, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := o.newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return o.newClient(cfg, logger)
}
