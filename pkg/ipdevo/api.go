// Package ipdevo is the embedding API for the iterated prisoner's dilemma
// evolution simulator. It wires configuration, the run ledger and artifact
// output around internal/evo.
package ipdevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"ipdevo/internal/config"
	"ipdevo/internal/evo"
	"ipdevo/internal/genotype"
	"ipdevo/internal/logging"
	"ipdevo/internal/model"
	"ipdevo/internal/scape"
	"ipdevo/internal/stats"
	"ipdevo/internal/storage"
)

const defaultDBPath = "ipdevo.db"

// Payoff is the per-round reward table.
type Payoff = scape.Payoff

// Summary describes one evaluated generation.
type Summary = evo.Summary

type Options struct {
	StoreKind string
	DBPath    string
	// ArtifactsDir enables per-run CSV and JSON output when set.
	ArtifactsDir string
	Logger       *slog.Logger
}

type Client struct {
	store        storage.Store
	artifactsDir string
	logger       *slog.Logger

	initMu      sync.Mutex
	initialized bool
}

// RunRequest overrides the selected profile. Zero values keep the profile's
// setting; rates are pointers because 0 is a meaningful rate.
type RunRequest struct {
	Profile        string
	Population     int
	Memory         int
	Generations    int
	Rounds         int
	CrossoverRate  *float64
	MutateRate     *float64
	Inject         string
	Selection      string
	TournamentSize int
	Payoff         *Payoff
	Seed           int64
	Workers        int
	// Progress is called after every generation; a non-nil error stops the run.
	Progress func(Summary) error
}

type MatchItem struct {
	Label        string
	Opponent     string
	Rounds       int
	ScoreA       int
	ScoreB       int
	CooperationA float64
	CooperationB float64
}

type RunSummary struct {
	RunID           string
	Profile         string
	Seed            int64
	Generations     []Summary
	FinalMean       float64
	FinalMax        int
	BestFingerprint string
	BestTable       string
	Report          []MatchItem
	ArtifactsDir    string
}

type MatchRequest struct {
	A      string
	B      string
	Memory int
	Rounds int
	Payoff *Payoff
	// Seed drives the "random" strategy.
	Seed  int64
	Trace bool
}

type MatchSummary struct {
	A            string
	B            string
	Rounds       int
	ScoreA       int
	ScoreB       int
	CooperationA float64
	CooperationB float64
	Trace        scape.Trace
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	Profile          string
	Status           string
	CreatedAt        time.Time
	Seed             int64
	Population       int
	Memory           int
	Generations      int
	Completed        int
	FinalMean        float64
	FinalMax         int
	FailedGeneration *int
	Error            string
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type GenerationItem struct {
	Generation      int
	Size            int
	Mean            float64
	StdDev          float64
	Min             int
	Max             int
	CooperationRate float64
	Diversity       int
	BestFingerprint string
}

const StrategyRandom = "random"

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		store:        store,
		artifactsDir: opts.ArtifactsDir,
		logger:       logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the run ledger. Other methods call it on demand.
func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

// ResolveConfig applies a request on top of the defaults and its profile.
func ResolveConfig(req RunRequest) (config.Config, error) {
	cfg := config.Default()
	if req.Profile != "" {
		if err := cfg.ApplyProfile(req.Profile); err != nil {
			return cfg, err
		}
	}
	ev := &cfg.Evolution
	if req.Population > 0 {
		ev.PopulationSize = req.Population
	}
	if req.Memory > 0 {
		ev.Memory = req.Memory
	}
	if req.Generations > 0 {
		ev.Generations = req.Generations
	}
	if req.Rounds > 0 {
		ev.RoundsPerMatch = req.Rounds
	}
	if req.CrossoverRate != nil {
		ev.CrossoverRate = *req.CrossoverRate
	}
	if req.MutateRate != nil {
		ev.MutateRate = *req.MutateRate
	}
	if req.Inject != "" {
		ev.Inject = req.Inject
	}
	if req.Selection != "" {
		ev.Selection = req.Selection
	}
	if req.TournamentSize > 0 {
		ev.TournamentSize = req.TournamentSize
	}
	if req.Workers > 0 {
		ev.Workers = req.Workers
	}
	ev.Seed = req.Seed
	if req.Payoff != nil {
		cfg.Payoff = *req.Payoff
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Run evolves a population and records it in the ledger. When a generation
// fails the returned summary still holds the completed generations and the
// error wraps *evo.GenerationError.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg, err := ResolveConfig(req)
	if err != nil {
		return RunSummary{}, err
	}
	return c.RunConfig(ctx, cfg, req.Progress)
}

// RunConfig is Run for an already resolved configuration.
func (c *Client) RunConfig(ctx context.Context, cfg config.Config, progress func(Summary) error) (RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	evoCfg, err := cfg.ToEvoConfig()
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	seed := cfg.Evolution.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)

	record := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		Profile:         cfg.Profile,
		PopulationSize:  evoCfg.PopulationSize,
		Memory:          evoCfg.Memory,
		Generations:     cfg.Evolution.Generations,
		RoundsPerMatch:  evoCfg.RoundsPerMatch,
		CrossoverRate:   evoCfg.CrossoverRate,
		MutateRate:      evoCfg.MutateRate,
		Inject:          string(evoCfg.Inject),
		Selection:       evoCfg.Selector.Name(),
		Seed:            seed,
		Workers:         evoCfg.Workers,
		Status:          model.RunStatusRunning,
		CreatedAt:       time.Now().UTC(),
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}

	rng := genotype.NewSource(seed)
	pop, err := evo.NewPopulation(evoCfg, rng, evo.WithLogger(logger))
	if err != nil {
		return RunSummary{}, c.failRun(ctx, record, err)
	}
	logger.Info("run started",
		"profile", cfg.Profile,
		"population", evoCfg.PopulationSize,
		"memory", evoCfg.Memory,
		"generations", cfg.Evolution.Generations,
		"seed", seed,
	)

	history, runErr := pop.Run(ctx, cfg.Evolution.Generations, func(s Summary) error {
		if err := c.store.AppendGeneration(ctx, generationRecord(runID, s)); err != nil {
			return fmt.Errorf("record generation %d: %w", s.Generation, err)
		}
		if progress != nil {
			return progress(s)
		}
		return nil
	})

	summary := RunSummary{
		RunID:       runID,
		Profile:     cfg.Profile,
		Seed:        seed,
		Generations: history,
	}
	record.Completed = len(history)
	if n := len(history); n > 0 {
		last := history[n-1]
		summary.FinalMean = last.Mean
		summary.FinalMax = last.Max
		summary.BestFingerprint = last.BestFingerprint
		record.FinalMean = last.Mean
		record.FinalMax = last.Max
		record.BestFingerprint = last.BestFingerprint
	}
	if runErr != nil {
		return summary, c.failRun(ctx, record, runErr)
	}

	report, best, err := finalReport(pop, evoCfg)
	if err != nil {
		return summary, c.failRun(ctx, record, err)
	}
	summary.Report = report
	summary.BestTable = best.String()

	if c.artifactsDir != "" {
		runDir, err := stats.WriteRunArtifacts(c.artifactsDir, buildArtifacts(runID, cfg, seed, history, best, report))
		if err != nil {
			return summary, c.failRun(ctx, record, fmt.Errorf("write artifacts: %w", err))
		}
		summary.ArtifactsDir = filepath.Clean(runDir)
	}

	record.Status = model.RunStatusCompleted
	record.FinishedAt = time.Now().UTC()
	if err := c.store.SaveRun(ctx, record); err != nil {
		return summary, fmt.Errorf("save run: %w", err)
	}
	logger.Info("run completed", "final_mean", summary.FinalMean, "final_max", summary.FinalMax, "best", summary.BestFingerprint)
	return summary, nil
}

func (c *Client) failRun(ctx context.Context, record model.RunRecord, cause error) error {
	record.Status = model.RunStatusFailed
	record.Error = cause.Error()
	record.FinishedAt = time.Now().UTC()
	var genErr *evo.GenerationError
	if errors.As(cause, &genErr) {
		gen := genErr.Generation
		record.FailedGeneration = &gen
	}
	c.logger.Error("run failed", "run_id", record.ID, "error", cause)
	// The ledger write uses a fresh context so a cancelled run is still recorded.
	if err := c.store.SaveRun(context.WithoutCancel(ctx), record); err != nil {
		return errors.Join(cause, fmt.Errorf("save failed run: %w", err))
	}
	return cause
}

// finalReport plays the best genome against the reference strategies,
// itself and a random member of the final population.
func finalReport(pop *evo.Population, cfg evo.Config) ([]MatchItem, *genotype.Genome, error) {
	best, ok := pop.Best()
	if !ok {
		return nil, nil, errors.New("no generation has been evaluated")
	}
	coop, err := genotype.AlwaysCooperate(cfg.Memory)
	if err != nil {
		return nil, nil, err
	}
	defect, err := genotype.AlwaysDefect(cfg.Memory)
	if err != nil {
		return nil, nil, err
	}
	opponents := []struct {
		name   string
		genome *genotype.Genome
	}{
		{genotype.StrategyAlwaysCooperate, coop},
		{genotype.StrategyAlwaysDefect, defect},
		{"best", best},
		{"random member", pop.RandomMember()},
	}
	report := make([]MatchItem, 0, len(opponents))
	for _, o := range opponents {
		a, b, trace := scape.PlayTrace(cfg.RoundsPerMatch, best, o.genome, cfg.Payoff)
		coopA, coopB := trace.CooperationRates()
		report = append(report, MatchItem{
			Label:        "best vs " + o.name,
			Opponent:     o.name,
			Rounds:       cfg.RoundsPerMatch,
			ScoreA:       a,
			ScoreB:       b,
			CooperationA: coopA,
			CooperationB: coopB,
		})
	}
	return report, best, nil
}

func generationRecord(runID string, s Summary) model.GenerationRecord {
	return model.GenerationRecord{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		Generation:      s.Generation,
		Size:            s.Size,
		Mean:            s.Mean,
		StdDev:          s.StdDev,
		Min:             s.Min,
		Max:             s.Max,
		Total:           s.Total,
		CooperationRate: s.CooperationRate,
		Diversity:       s.Diversity,
		BestFingerprint: s.BestFingerprint,
		DurationMS:      float64(s.Duration) / float64(time.Millisecond),
	}
}

func buildArtifacts(runID string, cfg config.Config, seed int64, history []Summary, best *genotype.Genome, report []MatchItem) stats.RunArtifacts {
	rows := make([]stats.GenerationRow, len(history))
	for i, s := range history {
		rows[i] = GenerationRow(s)
	}
	matches := make([]stats.MatchReport, len(report))
	for i, m := range report {
		matches[i] = MatchReportRow(m)
	}
	sig := genotype.ComputeSignature(best)
	return stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:          runID,
			Profile:        cfg.Profile,
			PopulationSize: cfg.Evolution.PopulationSize,
			Memory:         cfg.Evolution.Memory,
			Generations:    cfg.Evolution.Generations,
			RoundsPerMatch: cfg.Evolution.RoundsPerMatch,
			CrossoverRate:  cfg.Evolution.CrossoverRate,
			MutateRate:     cfg.Evolution.MutateRate,
			Inject:         cfg.Evolution.Inject,
			Selection:      cfg.Evolution.Selection,
			Seed:           seed,
			Workers:        cfg.Evolution.Workers,
		},
		Generations: rows,
		Best: &stats.BestGenome{
			Fingerprint:     sig.Fingerprint,
			Memory:          best.Memory(),
			Table:           best.String(),
			CooperationBias: sig.Summary.CooperationBias,
		},
		Report: matches,
	}
}

// GenerationRow converts a summary for CSV and table output.
func GenerationRow(s Summary) stats.GenerationRow {
	return stats.GenerationRow{
		Generation:      s.Generation,
		Size:            s.Size,
		Mean:            s.Mean,
		StdDev:          s.StdDev,
		Min:             s.Min,
		Max:             s.Max,
		Total:           s.Total,
		CooperationRate: s.CooperationRate,
		Diversity:       s.Diversity,
		BestFingerprint: s.BestFingerprint,
	}
}

func MatchReportRow(m MatchItem) stats.MatchReport {
	return stats.MatchReport{
		Label:        m.Label,
		Opponent:     m.Opponent,
		Rounds:       m.Rounds,
		ScoreA:       m.ScoreA,
		ScoreB:       m.ScoreB,
		CooperationA: m.CooperationA,
		CooperationB: m.CooperationB,
	}
}

// Match plays two named strategies head to head.
func (c *Client) Match(req MatchRequest) (MatchSummary, error) {
	if req.Memory <= 0 {
		req.Memory = 1
	}
	if req.Rounds <= 0 {
		req.Rounds = config.Default().Evolution.RoundsPerMatch
	}
	payoff := scape.DefaultPayoff()
	if req.Payoff != nil {
		payoff = *req.Payoff
	}
	if err := payoff.Validate(); err != nil {
		return MatchSummary{}, err
	}

	rng := genotype.NewSource(req.Seed)
	a, err := strategyByName(req.A, req.Memory, rng)
	if err != nil {
		return MatchSummary{}, fmt.Errorf("strategy a: %w", err)
	}
	b, err := strategyByName(req.B, req.Memory, rng)
	if err != nil {
		return MatchSummary{}, fmt.Errorf("strategy b: %w", err)
	}

	scoreA, scoreB, trace := scape.PlayTrace(req.Rounds, a, b, payoff)
	coopA, coopB := trace.CooperationRates()
	out := MatchSummary{
		A:            req.A,
		B:            req.B,
		Rounds:       req.Rounds,
		ScoreA:       scoreA,
		ScoreB:       scoreB,
		CooperationA: coopA,
		CooperationB: coopB,
	}
	if req.Trace {
		out.Trace = trace
	}
	return out, nil
}

func strategyByName(name string, memory int, rng genotype.Source) (*genotype.Genome, error) {
	if name == StrategyRandom {
		return genotype.New(memory, rng)
	}
	return genotype.ByName(name, memory)
}

// StrategyNames lists names accepted by Match.
func StrategyNames() []string {
	return append(genotype.StrategyNames(), StrategyRandom)
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:            r.ID,
			Profile:          r.Profile,
			Status:           string(r.Status),
			CreatedAt:        r.CreatedAt,
			Seed:             r.Seed,
			Population:       r.PopulationSize,
			Memory:           r.Memory,
			Generations:      r.Generations,
			Completed:        r.Completed,
			FinalMean:        r.FinalMean,
			FinalMax:         r.FinalMax,
			FailedGeneration: r.FailedGeneration,
			Error:            r.Error,
		})
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]GenerationItem, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	runID := req.RunID
	if req.Latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = runs[0].ID
	}
	if runID == "" {
		return nil, errors.New("history requires run id or latest")
	}

	records, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generation history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}
	out := make([]GenerationItem, 0, len(records))
	for _, r := range records {
		out = append(out, GenerationItem{
			Generation:      r.Generation,
			Size:            r.Size,
			Mean:            r.Mean,
			StdDev:          r.StdDev,
			Min:             r.Min,
			Max:             r.Max,
			CooperationRate: r.CooperationRate,
			Diversity:       r.Diversity,
			BestFingerprint: r.BestFingerprint,
		})
	}
	return out, nil
}
