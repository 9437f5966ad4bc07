package idt

import (
	"math"
	"testing"

	inliner "github.com/themaplelab/openj9-omr-sub000"
	"github.com/themaplelab/openj9-omr-sub000/absinterp"
)

// parents is a subtype oracle over single inheritance.
type parents map[string]string

func (p parents) IsSubtype(sub, super string) inliner.Tristate {
	for c := sub; c != ""; c = p[c] {
		if c == super {
			return inliner.Yes
		}
	}
	return inliner.No
}

// isZeroSummary is the summary of "return x == 0 ? 0 : 1" on argument 0,
// plus a null check on argument 1.
func isZeroSummary() *absinterp.Summary {
	s := absinterp.NewSummary("t/U.f(ILjava/lang/Object;)I")
	s.Predicates = []absinterp.Predicate{
		{Param: 0, Fold: absinterp.IfEq, Required: absinterp.Const(0)},
		{Param: 0, Fold: absinterp.IfEq, Required: absinterp.Range(math.MinInt32, -1)},
		{Param: 0, Fold: absinterp.IfEq, Required: absinterp.Range(1, math.MaxInt32)},
		{Param: 1, Fold: absinterp.NullCheck, Required: absinterp.NonNullObject("")},
		{Param: 1, Fold: absinterp.InstanceOf, Required: absinterp.NonNullObject("p/Base")},
	}
	return s
}

func TestStaticBenefit(t *testing.T) {
	top := absinterp.Top(absinterp.KindReference)
	tests := []struct {
		name string
		args []absinterp.Value
		want int
	}{
		{"unknown", []absinterp.Value{absinterp.Top(absinterp.KindInt32), top}, 0},
		{"zero", []absinterp.Value{absinterp.IntConst(0), top}, 1},
		{"positive", []absinterp.Value{absinterp.IntConst(7), top}, 1},
		{"straddles zero", []absinterp.Value{absinterp.Known(absinterp.KindInt32, absinterp.Range(-1, 1)), top}, 0},
		{"negative range", []absinterp.Value{absinterp.Known(absinterp.KindInt32, absinterp.Range(-9, -2)), top}, 1},
		{"non-null", []absinterp.Value{absinterp.IntConst(0), absinterp.Known(absinterp.KindReference, absinterp.NonNullObject("p/Other"))}, 2},
		{"subtype", []absinterp.Value{absinterp.IntConst(0), absinterp.Known(absinterp.KindReference, absinterp.FixedObject("p/Leaf"))}, 3},
		{"null", []absinterp.Value{absinterp.IntConst(0), absinterp.NullRef()}, 1},
		{"missing args", nil, 0},
		{"short args", []absinterp.Value{absinterp.IntConst(0)}, 1},
	}
	e := Estimator{Oracle: parents{"p/Leaf": "p/Base"}, Weight: 1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.StaticBenefit(isZeroSummary(), tt.args); got != tt.want {
				t.Errorf("StaticBenefit = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStaticBenefitWeightAndNil(t *testing.T) {
	args := []absinterp.Value{absinterp.IntConst(0), absinterp.NullRef()}
	if got := (Estimator{Weight: 5}).StaticBenefit(isZeroSummary(), args); got != 5 {
		t.Errorf("weighted benefit = %d, want 5", got)
	}
	if got := (Estimator{Weight: 5}).StaticBenefit(nil, args); got != 0 {
		t.Errorf("benefit without summary = %d, want 0", got)
	}
}

// Refining an argument never lowers the benefit.
func TestStaticBenefitMonotone(t *testing.T) {
	e := Estimator{Weight: 1}
	s := isZeroSummary()
	chain := []absinterp.Value{
		absinterp.Top(absinterp.KindInt32),
		absinterp.Known(absinterp.KindInt32, absinterp.Range(-5, 5)),
		absinterp.Known(absinterp.KindInt32, absinterp.Range(1, 5)),
		absinterp.IntConst(3),
	}
	last := -1
	for _, v := range chain {
		got := e.StaticBenefit(s, []absinterp.Value{v})
		if got < last {
			t.Errorf("benefit dropped from %d to %d at %s", last, got, v)
		}
		last = got
	}
}
