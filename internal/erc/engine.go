package erc

import (
	"chipforge/internal/domain"
)

// Options tunes an Engine
type Options struct {
	// Strict reports connectivity inconsistencies as errors instead of warnings
	Strict bool `json:"strict" yaml:"strict"`
	// Connectivity enables the pin/net consistency pass
	Connectivity bool `json:"connectivity" yaml:"connectivity"`
}

// DefaultOptions returns the options used by Validate
func DefaultOptions() Options {
	return Options{Connectivity: true}
}

// Engine runs the AHB rule set. It holds no mutable state, so one Engine
// may validate any number of designs concurrently.
type Engine struct {
	opts Options
}

// New creates an engine with the given options
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the engine's options
func (e *Engine) Options() Options {
	return e.opts
}

// Validate checks a design with the default options
func Validate(d *domain.Design) domain.ERCResult {
	return New(DefaultOptions()).Validate(d)
}

// Validate checks every AHB bus of the design, then the design-wide rules.
// Rules never stop each other: the result lists every finding of the run.
// The design is only read.
func (e *Engine) Validate(d *domain.Design) domain.ERCResult {
	if d == nil {
		f := newFindings()
		f.errorf("No design provided; nothing to validate")
		return f.result
	}

	buses := d.AHBBuses()
	if len(buses) == 0 {
		f := newFindings()
		if len(d.Components) == 0 {
			f.errorf("No AHB components found")
		} else {
			f.warnf("No AHB bus found")
		}
		return f.result
	}

	results := make([]domain.ERCResult, 0, len(buses)+1)
	for _, bus := range buses {
		results = append(results, e.ValidateBus(bus, d))
	}
	results = append(results, e.validateDesign(d))

	return Merge(results...)
}

// ValidateBus runs every per-bus rule against one bus of the design
func (e *Engine) ValidateBus(bus *domain.Bus, d *domain.Design) domain.ERCResult {
	sc := Resolve(bus, d)
	f := newFindings()
	for _, rule := range busRules {
		rule.check(&sc, d, f)
	}
	return f.result
}

func (e *Engine) validateDesign(d *domain.Design) domain.ERCResult {
	f := newFindings()
	for _, rule := range designRules {
		rule.check(d, f)
	}

	if e.opts.Connectivity {
		for _, issue := range d.ConnectivityIssues() {
			if e.opts.Strict {
				f.errorf("%s", issue.Message)
			} else {
				f.warnf("%s", issue.Message)
			}
		}
	}
	return f.result
}

// RuleNames lists the rules an engine runs, per-bus rules first
func RuleNames() []string {
	names := make([]string, 0, len(busRules)+len(designRules))
	for _, r := range busRules {
		names = append(names, r.name)
	}
	for _, r := range designRules {
		names = append(names, r.name)
	}
	return names
}
