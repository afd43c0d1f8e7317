package stats

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableOption adjusts a table writer before rendering.
type TableOption func(table.Writer)

func WithStyle(style table.Style) TableOption {
	return func(t table.Writer) {
		t.SetStyle(style)
	}
}

func applyTableOptions(t table.Writer, opts []TableOption) {
	for _, opt := range opts {
		opt(t)
	}
}

// WriteGenerationTable renders the per-generation series. every > 1 keeps
// only every n-th generation plus the last one.
func WriteGenerationTable(w io.Writer, rows []GenerationRow, every int, opts ...TableOption) {
	if every <= 0 {
		every = 1
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Generations")
	t.AppendHeader(table.Row{"GEN", "SIZE", "MEAN", "STDDEV", "MIN", "MAX", "COOP", "DISTINCT", "BEST"})
	for i, row := range rows {
		if i%every != 0 && i != len(rows)-1 {
			continue
		}
		t.AppendRow(table.Row{
			row.Generation,
			row.Size,
			fmt.Sprintf("%.2f", row.Mean),
			fmt.Sprintf("%.2f", row.StdDev),
			row.Min,
			row.Max,
			fmt.Sprintf("%5.1f%%", 100*row.CooperationRate),
			row.Diversity,
			row.BestFingerprint,
		})
	}
	if len(rows) > 0 {
		means := make([]float64, len(rows))
		for i, row := range rows {
			means[i] = row.Mean
		}
		d := Describe(means)
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("%.2f", d.Mean), fmt.Sprintf("%.2f", d.StdDev), "", fmt.Sprintf("%.0f", d.Max)})
	}
	applyTableOptions(t, opts)
	t.Render()
}

func WriteMatchTable(w io.Writer, title string, reports []MatchReport, opts ...TableOption) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"MATCH", "ROUNDS", "SCORE A", "SCORE B", "COOP A", "COOP B"})
	for _, r := range reports {
		t.AppendRow(table.Row{
			r.Label,
			r.Rounds,
			r.ScoreA,
			r.ScoreB,
			fmt.Sprintf("%5.1f%%", 100*r.CooperationA),
			fmt.Sprintf("%5.1f%%", 100*r.CooperationB),
		})
	}
	applyTableOptions(t, opts)
	t.Render()
}
