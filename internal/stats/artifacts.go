package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	configFile         = "config.json"
	generationsFile    = "generations.csv"
	bestFile           = "best.json"
	reportFile         = "report.json"
	generationsColumns = 10
)

type RunConfig struct {
	RunID          string  `json:"run_id"`
	Profile        string  `json:"profile,omitempty"`
	PopulationSize int     `json:"population_size"`
	Memory         int     `json:"memory"`
	Generations    int     `json:"generations"`
	RoundsPerMatch int     `json:"rounds_per_match"`
	CrossoverRate  float64 `json:"crossover_rate"`
	MutateRate     float64 `json:"mutate_rate"`
	Inject         string  `json:"inject"`
	Selection      string  `json:"selection"`
	Seed           int64   `json:"seed"`
	Workers        int     `json:"workers"`
}

// GenerationRow is one line of generations.csv.
type GenerationRow struct {
	Generation      int     `json:"generation"`
	Size            int     `json:"size"`
	Mean            float64 `json:"mean"`
	StdDev          float64 `json:"std_dev"`
	Min             int     `json:"min"`
	Max             int     `json:"max"`
	Total           int     `json:"total"`
	CooperationRate float64 `json:"cooperation_rate"`
	Diversity       int     `json:"diversity"`
	BestFingerprint string  `json:"best_fingerprint"`
}

type BestGenome struct {
	Fingerprint     string  `json:"fingerprint"`
	Memory          int     `json:"memory"`
	Table           string  `json:"table"`
	CooperationBias float64 `json:"cooperation_bias"`
}

// MatchReport is one head-to-head line of the final report.
type MatchReport struct {
	Label           string  `json:"label"`
	Opponent        string  `json:"opponent"`
	Rounds          int     `json:"rounds"`
	ScoreA          int     `json:"score_a"`
	ScoreB          int     `json:"score_b"`
	CooperationA    float64 `json:"cooperation_a"`
	CooperationB    float64 `json:"cooperation_b"`
	OpponentSummary string  `json:"opponent_summary,omitempty"`
}

type RunArtifacts struct {
	Config      RunConfig       `json:"config"`
	Generations []GenerationRow `json:"generations"`
	Best        *BestGenome     `json:"best,omitempty"`
	Report      []MatchReport   `json:"report,omitempty"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := WriteGenerationSeries(runDir, artifacts.Generations); err != nil {
		return "", err
	}
	if artifacts.Best != nil {
		if err := writeJSON(filepath.Join(runDir, bestFile), artifacts.Best); err != nil {
			return "", err
		}
	}
	if len(artifacts.Report) > 0 {
		if err := writeJSON(filepath.Join(runDir, reportFile), artifacts.Report); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadBestGenome(baseDir, runID string) (BestGenome, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, bestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return BestGenome{}, false, nil
		}
		return BestGenome{}, false, err
	}
	var best BestGenome
	if err := json.Unmarshal(data, &best); err != nil {
		return BestGenome{}, false, err
	}
	return best, true, nil
}

func WriteGenerationHeader(writer *csv.Writer) error {
	return writer.Write([]string{
		"generation", "size",
		"mean", "std_dev", "min", "max", "total",
		"cooperation_rate", "diversity", "best_fingerprint",
	})
}

func WriteGenerationRow(writer *csv.Writer, row GenerationRow) error {
	return writer.Write([]string{
		strconv.Itoa(row.Generation),
		strconv.Itoa(row.Size),
		strconv.FormatFloat(row.Mean, 'f', -1, 64),
		strconv.FormatFloat(row.StdDev, 'f', -1, 64),
		strconv.Itoa(row.Min),
		strconv.Itoa(row.Max),
		strconv.Itoa(row.Total),
		strconv.FormatFloat(row.CooperationRate, 'f', -1, 64),
		strconv.Itoa(row.Diversity),
		row.BestFingerprint,
	})
}

func WriteGenerationSeries(runDir string, rows []GenerationRow) error {
	file, err := os.Create(filepath.Join(runDir, generationsFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := WriteGenerationHeader(writer); err != nil {
		return err
	}
	for _, row := range rows {
		if err := WriteGenerationRow(writer, row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadGenerationSeries(baseDir, runID string) ([]GenerationRow, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, generationsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []GenerationRow{}, true, nil
		}
		return nil, false, err
	}

	rows := make([]GenerationRow, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		row, err := parseGenerationRow(record)
		if err != nil {
			return nil, false, fmt.Errorf("generations row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	return rows, true, nil
}

func parseGenerationRow(record []string) (GenerationRow, error) {
	if len(record) < generationsColumns {
		return GenerationRow{}, fmt.Errorf("expected %d columns, got %d", generationsColumns, len(record))
	}
	ints := make([]int, 0, 6)
	for _, idx := range []int{0, 1, 4, 5, 6, 8} {
		v, err := strconv.Atoi(strings.TrimSpace(record[idx]))
		if err != nil {
			return GenerationRow{}, err
		}
		ints = append(ints, v)
	}
	floats := make([]float64, 0, 3)
	for _, idx := range []int{2, 3, 7} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return GenerationRow{}, err
		}
		floats = append(floats, v)
	}
	return GenerationRow{
		Generation:      ints[0],
		Size:            ints[1],
		Mean:            floats[0],
		StdDev:          floats[1],
		Min:             ints[2],
		Max:             ints[3],
		Total:           ints[4],
		CooperationRate: floats[2],
		Diversity:       ints[5],
		BestFingerprint: record[9],
	}, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
