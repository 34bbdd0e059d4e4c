package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/terraces/pkg/cache"
	tio "github.com/matzehuels/terraces/pkg/io"
	"github.com/matzehuels/terraces/pkg/observability"
	"github.com/matzehuels/terraces/pkg/terrace"
	"github.com/matzehuels/terraces/pkg/tree"
)

// Runner executes analyses with caching.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long results stay cached. Zero means cache.TTLAnalysis.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs parse → root → constraints → analyses.
//
// Results without an enumeration are cached; enumeration always runs so
// that the sink receives the trees.
func (r *Runner) Execute(ctx context.Context, opts Options) (res *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	start := time.Now()
	defer func() {
		observability.Analysis().OnAnalysisComplete(ctx, opts.Modes.Names(), time.Since(start), err)
	}()

	cacheable := !opts.Modes.Has(ModeEnumerate) || opts.Sink == nil
	key := r.Keyer.AnalysisKey(
		cache.Hash([]byte(opts.Newick)),
		cache.Hash([]byte(opts.Matrix)),
		cache.AnalysisKeyOpts{Root: opts.Root, Modes: uint8(opts.Modes)})
	if cacheable && !opts.Refresh {
		if cached, ok := r.lookup(ctx, key, opts.Modes); ok {
			r.Logger.Info("cache hit", "root", cached.Root)
			return cached, nil
		}
	}

	// Stage 1: Parse and root
	parseStart := time.Now()
	in, err := Parse(opts.Newick, opts.Matrix, opts.Root)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	res = &Result{
		Modes: opts.Modes,
		Root:  in.Matrix.Name(in.Root),
		Stats: Stats{
			Species:    in.Matrix.Species(),
			Partitions: in.Matrix.Partitions(),
			ParseTime:  time.Since(parseStart),
		},
		CacheInfo: CacheInfo{Key: key},
	}
	observability.Analysis().OnAnalysisStart(ctx, res.Stats.Species, res.Stats.Partitions)
	r.Logger.Info("parsed inputs",
		"species", res.Stats.Species,
		"partitions", res.Stats.Partitions,
		"root", res.Root,
		"duration", res.Stats.ParseTime)

	// Stage 2: Constraints
	csStart := time.Now()
	res.Constraints = ExtractSupertreeConstraints(in.Tree, in.Matrix)
	res.Stats.Constraints = len(res.Constraints)
	res.Stats.ConstraintTime = time.Since(csStart)
	observability.Analysis().OnConstraints(ctx, res.Stats.Constraints)
	r.Logger.Info("extracted constraints",
		"constraints", res.Stats.Constraints,
		"duration", res.Stats.ConstraintTime)

	// Stage 3: Analyses
	analysisStart := time.Now()
	if err := r.analyse(ctx, in, res, opts); err != nil {
		return nil, err
	}
	res.Stats.AnalysisTime = time.Since(analysisStart)
	r.Logger.Info("analysed terrace",
		"modes", opts.Modes.String(),
		"count", res.Count,
		"duration", res.Stats.AnalysisTime)

	if cacheable {
		r.store(ctx, key, res)
	}
	return res, nil
}

func (r *Runner) analyse(ctx context.Context, in *Inputs, res *Result, opts Options) error {
	leaves, labels := in.Leaves(), in.Labels()
	cs := res.Constraints
	topts := opts.Terrace

	switch {
	case opts.Modes.Has(ModeEnumerate):
		count, err := terrace.ListTrees(ctx, cs, in.Root, leaves, labels, opts.Sink, topts)
		if err != nil {
			return fmt.Errorf("enumerate: %w", err)
		}
		res.Count = count
	case opts.Modes.Has(ModeCount):
		count, err := terrace.Count(ctx, leaves, cs, in.Root, topts)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		res.Count = count
	}

	if opts.Modes.Has(ModeDetect) {
		if res.Count != nil {
			res.OnTerrace = res.Count.Cmp(big.NewInt(1)) > 0
		} else {
			on, err := terrace.Detect(ctx, leaves, cs, in.Root, topts)
			if err != nil {
				return fmt.Errorf("detect: %w", err)
			}
			res.OnTerrace = on
		}
	}

	if opts.Modes.Has(ModeCompress) {
		t, err := terrace.Compressed(ctx, leaves, cs, in.Root, topts)
		if err != nil {
			return fmt.Errorf("compress: %w", err)
		}
		res.Compressed = tree.Newick(t, labels)
	}
	return nil
}

func (r *Runner) lookup(ctx context.Context, key string, modes Mode) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		if err != nil {
			r.Logger.Warn("cache lookup failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "analysis")
		return nil, false
	}
	rep, err := tio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "analysis")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "analysis")
	res := FromReport(rep, modes)
	res.CacheInfo = CacheInfo{Hit: true, Key: key}
	return res, true
}

func (r *Runner) store(ctx context.Context, key string, res *Result) {
	var buf bytes.Buffer
	if err := tio.WriteJSON(res.Report(), &buf); err != nil {
		return
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = cache.TTLAnalysis
	}
	if err := r.Cache.Set(ctx, key, buf.Bytes(), ttl); err != nil {
		r.Logger.Warn("cache store failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "analysis", buf.Len())
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.Terrace.Logger == nil {
		opts.Terrace.Logger = opts.Logger
	}
}
