package idt

import (
	inliner "github.com/themaplelab/openj9-omr-sub000"
	"github.com/themaplelab/openj9-omr-sub000/absinterp"
)

// Estimator scores a call by matching the caller's argument values against
// the callee's summary. It is pure and safe to call repeatedly.
type Estimator struct {
	Oracle inliner.SubtypeOracle
	Weight int // benefit per predicate that holds
}

// StaticBenefit returns Weight times the number of predicates in s that
// hold for args. Predicates on arguments beyond len(args) never hold.
func (e Estimator) StaticBenefit(s *absinterp.Summary, args []absinterp.Value) int {
	if s == nil {
		return 0
	}
	total := 0
	for _, p := range s.Predicates {
		if p.Param < 0 || p.Param >= len(args) {
			continue
		}
		if p.Holds(args[p.Param], e.Oracle) {
			total += e.Weight
		}
	}
	return total
}
