package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the ledger entry for one evolution run. Genomes are not
// persisted; only the fingerprint of the final best strategy is kept.
type RunRecord struct {
	VersionedRecord
	ID             string    `json:"id"`
	Profile        string    `json:"profile,omitempty"`
	PopulationSize int       `json:"population_size"`
	Memory         int       `json:"memory"`
	Generations    int       `json:"generations"`
	RoundsPerMatch int       `json:"rounds_per_match"`
	CrossoverRate  float64   `json:"crossover_rate"`
	MutateRate     float64   `json:"mutate_rate"`
	Inject         string    `json:"inject"`
	Selection      string    `json:"selection"`
	Seed           int64     `json:"seed"`
	Workers        int       `json:"workers"`
	Status         RunStatus `json:"status"`
	// FailedGeneration is set when Status is failed at a generation step.
	FailedGeneration *int      `json:"failed_generation,omitempty"`
	Error            string    `json:"error,omitempty"`
	Completed        int       `json:"completed_generations"`
	FinalMean        float64   `json:"final_mean"`
	FinalMax         int       `json:"final_max"`
	BestFingerprint  string    `json:"best_fingerprint,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// GenerationRecord is the persisted summary of one evaluated generation.
type GenerationRecord struct {
	VersionedRecord
	RunID           string  `json:"run_id"`
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
	DurationMS      float64 `json:"duration_ms"`
}
