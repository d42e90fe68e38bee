package agglo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Config controls a training run.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// HoldoutSkip holds out every HoldoutSkip-th vector (by corpus position,
	// starting with the first) for evaluation. Negative values train on
	// every vector. Must not be 0 or 1. Default: 10.
	HoldoutSkip int

	// Features names the features eligible for selection, in preference
	// order for ties. Empty means every byte feature. Default: empty.
	Features []string

	// Distance measures how dissimilar two vectors are. Required.
	Distance DistanceMeasure

	// Partitioner builds candidate trees. Default: IndexPartitioner over the
	// run's feature definition.
	Partitioner Partitioner

	// Scorer turns leaf impurities into global impurity and merge costs.
	// Default: LogPenaltyScorer.
	Scorer Scorer

	// MinLeafGrowth stops training when the best feature increases the
	// number of populated leaves by a smaller fraction. Must be >= 0.
	// Default: 0.01.
	MinLeafGrowth float64

	// Workers controls the number of goroutines used to score candidate
	// features and fill the merge matrix. 0 means use runtime.NumCPU().
	// Results do not depend on Workers.
	Workers int

	// Logger receives progress records. Default: NoopLogger.
	Logger *Logger

	// Observer receives progress metrics. Default: NoopObserver.
	Observer Observer
}

// StopReason tells why training ended.
type StopReason int

const (
	// StopLeafGrowth means the best remaining feature added too few leaves.
	StopLeafGrowth StopReason = iota
	// StopFeaturesExhausted means every eligible feature is on the path.
	StopFeaturesExhausted
)

func (r StopReason) String() string {
	switch r {
	case StopLeafGrowth:
		return "leaf_growth"
	case StopFeaturesExhausted:
		return "features_exhausted"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// DepthReport describes one completed depth.
type DepthReport struct {
	// Depth is 1 for the first feature tested.
	Depth       int
	Feature     int
	FeatureName string
	// PrevLeaves and CandidateLeaves are the populated leaf counts of the
	// candidate trees without and with Feature.
	PrevLeaves      int
	CandidateLeaves int
	// GlobalImpurity of the winning candidate tree.
	GlobalImpurity float64
	// NewLeaves is the number of leaves grafted, Survivors the number left
	// after merging.
	NewLeaves int
	Survivors int
	// MergedGlobalImpurity is the global impurity of the surviving leaves.
	MergedGlobalImpurity float64
	Merges               []MergeStep
	// Leaves is the number of live leaves in the whole graph.
	Leaves     int
	HeldOut    Evaluation
	SelectTime time.Duration
	// MergeTime covers grafting and merging.
	MergeTime time.Duration
}

// Result contains the output of a training run.
type Result struct {
	// Graph is the trained decision graph. It is never nil on success.
	Graph *Graph

	// Path lists the selected feature indices, root first.
	Path []int

	// Depths has one report per grafted depth.
	Depths []DepthReport

	// StopReason tells why the depth loop ended.
	StopReason StopReason

	// Final is the last selection that was rejected by the stop criterion.
	// It is nil when training stopped because features ran out.
	Final *Selection

	// RunID tags the log records of this run.
	RunID string

	// TrainingSize and HeldOutSize are the sizes of the two splits.
	TrainingSize int
	HeldOutSize  int
}

// DefaultConfig returns a Config with reasonable defaults. Distance must
// still be set.
func DefaultConfig() Config {
	return Config{
		HoldoutSkip:   DefaultHoldoutSkip,
		MinLeafGrowth: DefaultMinLeafGrowth,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.Distance == nil {
		return errors.New("agglo: Distance is required")
	}
	if cfg.HoldoutSkip >= 0 && cfg.HoldoutSkip < 2 {
		return fmt.Errorf("agglo: HoldoutSkip must be >= 2 or negative, got %d", cfg.HoldoutSkip)
	}
	if cfg.MinLeafGrowth < 0 || math.IsNaN(cfg.MinLeafGrowth) {
		return fmt.Errorf("agglo: MinLeafGrowth must be >= 0, got %f", cfg.MinLeafGrowth)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("agglo: Workers must be >= 0 (0 means runtime.NumCPU()), got %d", cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config, def *FeatureDefinition) {
	if cfg.HoldoutSkip == 0 {
		cfg.HoldoutSkip = DefaultHoldoutSkip
	}
	if cfg.Partitioner == nil {
		cfg.Partitioner = IndexPartitioner{Def: def}
	}
	if cfg.Scorer == nil {
		cfg.Scorer = LogPenaltyScorer{}
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = NoopObserver{}
	}
}

// Train grows a decision graph over vectors one feature at a time. At each
// depth it selects the feature with the lowest global impurity, grafts its
// partition onto the graph, merges the new leaves while merging lowers the
// global impurity and evaluates the held-out split. It stops when the best
// feature adds too few leaves or no eligible feature is left.
//
// Cancelling ctx aborts the run between and inside depths.
func Train(ctx context.Context, vectors []*FeatureVector, def *FeatureDefinition, cfg Config) (*Result, error) {
	applyDefaults(&cfg, def)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	corpus, err := NewCorpus(vectors, def, cfg.HoldoutSkip)
	if err != nil {
		return nil, err
	}
	training := corpus.Training()
	if len(training) == 0 {
		return nil, ErrEmptyCorpus
	}
	eligible, err := def.resolveFeatures(cfg.Features)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := cfg.Logger.WithRun(runID)
	log.InfoContext(ctx, "training started",
		"training", len(training),
		"held_out", len(corpus.HeldOut()),
		"eligible_features", len(eligible),
		"workers", cfg.Workers,
	)

	t := &trainer{
		cfg:       cfg,
		def:       def,
		log:       log,
		graph:     NewGraph(def, training),
		model:     NewImpurityModel(cfg.Distance, cfg.Scorer, len(training)),
		evaluator: NewEvaluator(corpus.HeldOut(), cfg.Distance),
		grafter:   NewGrafter(def),
	}
	t.selector = NewFeatureSelector(training, eligible, cfg.Partitioner, t.model, cfg.MinLeafGrowth, cfg.Workers)
	t.merger = NewClusterMerger(t.model, cfg.Workers)

	res := &Result{
		Graph:        t.graph,
		RunID:        runID,
		TrainingSize: len(training),
		HeldOutSize:  len(corpus.HeldOut()),
	}
	if err := t.run(ctx, res); err != nil {
		log.LogStop(ctx, res.StopReason, len(res.Depths), 0, err)
		return nil, err
	}
	log.LogStop(ctx, res.StopReason, len(res.Depths), t.graph.NumLeaves(), nil)
	return res, nil
}

// trainer carries the per-run state shared by the components.
type trainer struct {
	cfg       Config
	def       *FeatureDefinition
	log       *Logger
	graph     *Graph
	model     *ImpurityModel
	selector  *FeatureSelector
	grafter   *Grafter
	merger    *ClusterMerger
	evaluator *Evaluator
}

func (t *trainer) run(ctx context.Context, res *Result) error {
	var path []int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		sel, err := t.selector.Select(ctx, path)
		if errors.Is(err, ErrFeaturesExhausted) {
			res.StopReason = StopFeaturesExhausted
			res.Path = path
			return nil
		}
		if err != nil {
			return err
		}
		selectTime := time.Since(start)
		t.cfg.Observer.ObserveSelection(selectTime, len(t.selector.eligible)-len(path))
		if sel.Stop {
			res.StopReason = StopLeafGrowth
			res.Final = &sel
			res.Path = path
			return nil
		}

		report, err := t.grow(ctx, sel)
		if err != nil {
			return err
		}
		path = append(path, sel.Feature)
		report.Depth = len(path)
		report.SelectTime = selectTime

		res.Depths = append(res.Depths, report)
		t.log.LogDepth(ctx, report)
		t.cfg.Observer.ObserveDepth(report)
		t.cfg.Observer.ObserveCache(t.model.Computations())
	}
}

// grow grafts sel onto the graph, merges the new leaves and evaluates the
// result.
func (t *trainer) grow(ctx context.Context, sel Selection) (DepthReport, error) {
	start := time.Now()
	newLeaves, err := t.grafter.Graft(t.graph, sel.Tree)
	if err != nil {
		return DepthReport{}, err
	}
	survivors, steps, err := t.merger.Merge(ctx, t.graph, newLeaves)
	if err != nil {
		return DepthReport{}, err
	}
	mergeTime := time.Since(start)
	t.cfg.Observer.ObserveMerge(mergeTime, len(steps))

	mergedGI, err := t.model.GlobalImpurity(t.graph, survivors)
	if err != nil {
		return DepthReport{}, err
	}
	if err := t.graph.Validate(t.model.Total()); err != nil {
		return DepthReport{}, err
	}
	// Leaves of this depth are replaced by the next graft.
	t.model.Reset()

	return DepthReport{
		Feature:              sel.Feature,
		FeatureName:          t.def.Name(sel.Feature),
		PrevLeaves:           sel.PrevLeaves,
		CandidateLeaves:      sel.NumLeaves,
		GlobalImpurity:       sel.GlobalImpurity,
		NewLeaves:            len(newLeaves),
		Survivors:            len(survivors),
		MergedGlobalImpurity: mergedGI,
		Merges:               slices.Clip(steps),
		Leaves:               t.graph.NumLeaves(),
		HeldOut:              t.evaluator.Evaluate(t.graph),
		MergeTime:            mergeTime,
	}, nil
}
