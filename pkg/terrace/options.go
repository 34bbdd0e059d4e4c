package terrace

import (
	"fmt"
	"math/big"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/terraces/pkg/errors"
	"github.com/matzehuels/terraces/pkg/leafset"
)

// DefaultParallelThreshold is the leaf count above which the top-level
// partition tuples are processed by the worker pool.
const DefaultParallelThreshold = 50

// Rooted is passed as the root leaf to request rooted results.
const Rooted = -1

// Options configures a terrace computation. The zero value is usable.
type Options struct {
	// ParallelThreshold is the leaf count above which the top-level
	// recursion fans out. Zero means DefaultParallelThreshold.
	ParallelThreshold int `json:"parallel_threshold,omitempty" toml:"parallel_threshold"`

	// Workers is the size of the worker pool. Zero means runtime.NumCPU();
	// one disables parallelism.
	Workers int `json:"workers,omitempty" toml:"workers"`

	// Strategy selects the leaf set backing. Empty means automatic.
	Strategy leafset.Strategy `json:"strategy,omitempty" toml:"strategy"`

	// Budget bounds concrete enumeration.
	Budget Budget `json:"budget,omitempty" toml:"budget"`

	Logger *log.Logger `json:"-" toml:"-"`
}

// Budget limits how many concrete trees an enumeration may materialise.
// MaxTrees zero means unlimited.
type Budget struct {
	MaxTrees uint64 `json:"max_trees,omitempty" toml:"max_trees"`
}

// ErrBudgetExceeded is wrapped by errors returned when a terrace holds more
// trees than the configured budget. Callers can fall back to [Compressed].
var ErrBudgetExceeded = errors.New(errors.ErrCodeBudgetExceeded, "enumeration budget exceeded")

// Check returns an error wrapping ErrBudgetExceeded if count exceeds the
// budget.
func (b Budget) Check(count *big.Int) error {
	if b.MaxTrees == 0 {
		return nil
	}
	if count.Cmp(new(big.Int).SetUint64(b.MaxTrees)) > 0 {
		return errors.Wrap(errors.ErrCodeBudgetExceeded, ErrBudgetExceeded,
			"terrace holds %s trees, budget allows %d", count, b.MaxTrees)
	}
	return nil
}

// Validate rejects negative sizes and unknown strategies.
func (o Options) Validate() error {
	if o.ParallelThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "parallel threshold must not be negative, got %d", o.ParallelThreshold)
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	if _, err := leafset.ParseStrategy(string(o.Strategy)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, err, "invalid options")
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.ParallelThreshold == 0 {
		o.ParallelThreshold = DefaultParallelThreshold
	}
	if o.Strategy == "" {
		o.Strategy = leafset.StrategyAuto
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// String summarises the options for log output.
func (o Options) String() string {
	return fmt.Sprintf("threshold=%d workers=%d strategy=%s max_trees=%d",
		o.ParallelThreshold, o.Workers, o.Strategy, o.Budget.MaxTrees)
}
