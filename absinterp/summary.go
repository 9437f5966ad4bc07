package absinterp

import (
	"fmt"
	"math"
	"strings"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

// FoldKind is the kind of operation a predicate could fold away.
type FoldKind uint8

const (
	IfEq FoldKind = iota
	IfNe
	IfGe
	IfGt
	IfLe
	IfLt
	IfNull
	IfNonNull
	NullCheck
	InstanceOf
	CheckCast
)

func (k FoldKind) String() string {
	switch k {
	case IfEq:
		return "ifeq"
	case IfNe:
		return "ifne"
	case IfGe:
		return "ifge"
	case IfGt:
		return "ifgt"
	case IfLe:
		return "ifle"
	case IfLt:
		return "iflt"
	case IfNull:
		return "ifnull"
	case IfNonNull:
		return "ifnonnull"
	case NullCheck:
		return "nullcheck"
	case InstanceOf:
		return "instanceof"
	case CheckCast:
		return "checkcast"
	default:
		return "unknown"
	}
}

// Ordering reports whether k compares an integer against zero.
func (k FoldKind) Ordering() bool {
	return k <= IfLt
}

// Predicate states that the operation of kind Fold would fold if argument
// Param were known to satisfy Required.
type Predicate struct {
	Param    int
	Fold     FoldKind
	Required *Fact
}

func (p Predicate) String() string {
	return fmt.Sprintf("arg%d %s %s", p.Param, p.Fold, p.Required)
}

// Holds reports whether an argument abstracted as arg makes the predicate's
// operation foldable. A top argument never does.
func (p Predicate) Holds(arg Value, oracle inliner.SubtypeOracle) bool {
	f := arg.Fact
	if f == nil || p.Required == nil {
		return false
	}
	switch {
	case p.Fold.Ordering():
		return p.Required.Contains(f)
	case p.Required.Kind == FactNull:
		return f.Kind == FactNull
	case p.Fold == InstanceOf || p.Fold == CheckCast:
		if !f.IsNonNull() {
			return false
		}
		if p.Required.Class == "" || p.Required.Class == f.Class {
			return true
		}
		if oracle == nil || f.Class == "" {
			return false
		}
		return oracle.IsSubtype(f.Class, p.Required.Class) == inliner.Yes
	default:
		return p.Required.NonNull && f.IsNonNull()
	}
}

// Summary is the ordered list of predicates discovered while interpreting
// one method. It is read-only once interpretation finishes.
type Summary struct {
	Method     inliner.MethodID
	Predicates []Predicate
}

// NewSummary returns an empty summary for method id.
func NewSummary(id inliner.MethodID) *Summary {
	return &Summary{Method: id}
}

// Len returns the number of predicates.
func (s *Summary) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Predicates)
}

// ForParam returns the predicates keyed on argument k.
func (s *Summary) ForParam(k int) []Predicate {
	var out []Predicate
	for _, p := range s.Predicates {
		if p.Param == k {
			out = append(out, p)
		}
	}
	return out
}

func (s *Summary) add(param int, fold FoldKind, required *Fact) {
	s.Predicates = append(s.Predicates, Predicate{Param: param, Fold: fold, Required: required})
}

// addBranch records the outcomes of a compare-against-zero branch on
// argument k: each range makes the branch direction known.
func (s *Summary) addBranch(k int, fold FoldKind) {
	const lo, hi = math.MinInt32, math.MaxInt32
	switch fold {
	case IfEq, IfNe:
		s.add(k, fold, Const(0))
		s.add(k, fold, Range(lo, -1))
		s.add(k, fold, Range(1, hi))
	case IfLt, IfGe:
		s.add(k, fold, Range(lo, -1))
		s.add(k, fold, Range(0, hi))
	case IfGt, IfLe:
		s.add(k, fold, Range(lo, 0))
		s.add(k, fold, Range(1, hi))
	}
}

// addNullTest records both outcomes of a null comparison.
func (s *Summary) addNullTest(k int, fold FoldKind) {
	s.add(k, fold, Null())
	s.add(k, fold, NonNullObject(""))
}

// addNullCheck records that an implicit null check on argument k folds if
// the argument is known non-null.
func (s *Summary) addNullCheck(k int) {
	s.add(k, NullCheck, NonNullObject(""))
}

// addTypeTest records an instanceof or checkcast against class on
// argument k: a non-null instance of class, or null, decides it.
func (s *Summary) addTypeTest(k int, fold FoldKind, class string) {
	s.add(k, fold, NonNullObject(class))
	s.add(k, fold, Null())
}

func (s *Summary) String() string {
	if s == nil {
		return "<no summary>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", s.Method)
	for _, p := range s.Predicates {
		b.WriteString("\n  ")
		b.WriteString(p.String())
	}
	return b.String()
}
