package idt

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/themaplelab/openj9-omr-sub000/absinterp"
	"github.com/themaplelab/openj9-omr-sub000/pkg/logging"
)

// OptLevel is the optimization level of the compilation the tree is built
// for. Higher levels get larger budgets.
type OptLevel int

const (
	OptCold OptLevel = iota
	OptWarm
	OptHot
	OptVeryHot
	OptScorching
)

var optLevelNames = [...]string{"cold", "warm", "hot", "veryhot", "scorching"}

func (l OptLevel) String() string {
	if l < 0 || int(l) >= len(optLevelNames) {
		return fmt.Sprintf("OptLevel(%d)", int(l))
	}
	return optLevelNames[l]
}

// ParseOptLevel parses an optimization level name.
func ParseOptLevel(s string) (OptLevel, error) {
	for i, name := range optLevelNames {
		if strings.EqualFold(s, name) {
			return OptLevel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown optimization level %q", s)
}

// Options configures tree construction and proposal selection.
type Options struct {
	// Pruning
	MinRootCallRatio   float64 `yaml:"min_root_call_ratio"`  // drop calls whose root call ratio falls below this (default: 1/400)
	ColdBlockFrequency int     `yaml:"cold_block_frequency"` // drop calls from blocks colder than this (default: 0)
	MaxDepth           int     `yaml:"max_depth"`            // max tree depth below the root; 0 is unlimited (default: 0)

	// Benefit
	PredicateWeight int `yaml:"predicate_weight"` // benefit per foldable predicate (default: 1)

	// Budget formula, see BudgetFor
	HotBudgetFloor    int `yaml:"hot_budget_floor"`    // default: 1500
	HotBudgetFactor   int `yaml:"hot_budget_factor"`   // default: 2
	WarmSizeThreshold int `yaml:"warm_size_threshold"` // default: 250
	WarmBudget        int `yaml:"warm_budget"`         // default: 250
	ColdBudget        int `yaml:"cold_budget"`         // default: 10

	Interpreter absinterp.Options `yaml:"interpreter"`

	// Logging configuration
	LogLevel string         `yaml:"log_level"` // "error", "warn", "info", "debug"; empty disables logging
	Logger   logging.Logger `yaml:"-"`         // overrides LogLevel when set
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		MinRootCallRatio:   1.0 / 400,
		ColdBlockFrequency: 0,
		MaxDepth:           0,
		PredicateWeight:    1,
		HotBudgetFloor:     1500,
		HotBudgetFactor:    2,
		WarmSizeThreshold:  250,
		WarmBudget:         250,
		ColdBudget:         10,
		Interpreter:        absinterp.DefaultOptions(),
	}
}

// LoadOptions decodes YAML options from r on top of the defaults. Fields
// absent from the document keep their default values.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return Options{}, fmt.Errorf("failed to decode options: %w", err)
	}
	if opts.MinRootCallRatio < 0 || opts.MinRootCallRatio > 1 {
		return Options{}, fmt.Errorf("min_root_call_ratio %v outside [0,1]", opts.MinRootCallRatio)
	}
	if opts.PredicateWeight < 0 {
		return Options{}, fmt.Errorf("predicate_weight %d is negative", opts.PredicateWeight)
	}
	return opts, nil
}

// BudgetFor returns the inlining budget in bytes for a root method of the
// given size compiled at level. Hot and above get the larger of the floor
// and a multiple of the root size; warm compilations get a fixed budget
// for small roots only; cold compilations get the cold budget.
func (o Options) BudgetFor(level OptLevel, rootSize int) int {
	switch {
	case level >= OptHot:
		return max(o.HotBudgetFloor, o.HotBudgetFactor*rootSize)
	case level == OptWarm:
		if rootSize < o.WarmSizeThreshold {
			return o.WarmBudget
		}
		return o.ColdBudget
	default:
		return o.ColdBudget
	}
}

func (o Options) logger() logging.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.FromLevel(o.LogLevel)
}
