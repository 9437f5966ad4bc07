package absinterp

import (
	"fmt"
	"math"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

// Kind is the primitive kind of a stack or local slot.
type Kind uint8

const (
	KindUntyped Kind = iota // second word of a 64-bit value, or an unusable local
	KindInt32
	KindInt64
	KindFloat
	KindDouble
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int"
	case KindInt64:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindReference:
		return "ref"
	default:
		return "untyped"
	}
}

// Wide reports whether values of this kind take two slots.
func (k Kind) Wide() bool {
	return k == KindInt64 || k == KindDouble
}

// KindOf maps a descriptor sort to the kind of slot holding it.
func KindOf(s inliner.Sort) Kind {
	switch s {
	case inliner.SortInt:
		return KindInt32
	case inliner.SortLong:
		return KindInt64
	case inliner.SortFloat:
		return KindFloat
	case inliner.SortDouble:
		return KindDouble
	case inliner.SortRef:
		return KindReference
	default:
		return KindUntyped
	}
}

// FactKind discriminates the refinements a Fact can carry.
type FactKind uint8

const (
	FactRange  FactKind = iota + 1 // integer interval [Lo, Hi]; a constant when Lo == Hi
	FactNull                       // the null reference
	FactObject                     // instance of Class; Fixed for exact type, NonNull when known non-null
	FactArray                      // non-null array of type Class with length in [Lo, Hi]
	FactString                     // non-null constant string Str
)

func (k FactKind) String() string {
	switch k {
	case FactRange:
		return "range"
	case FactNull:
		return "null"
	case FactObject:
		return "object"
	case FactArray:
		return "array"
	case FactString:
		return "string"
	default:
		return "unknown"
	}
}

// StringClass is the class of constant strings.
const StringClass = "java/lang/String"

// Fact is a refinement of the set of values a slot can hold. Facts are
// immutable; operations return new facts.
type Fact struct {
	Kind    FactKind
	Lo, Hi  int64
	Class   string
	Fixed   bool
	NonNull bool
	Str     string
}

// Const returns the fact for a single integer.
func Const(v int64) *Fact {
	return &Fact{Kind: FactRange, Lo: v, Hi: v}
}

// Range returns the fact for the integers in [lo, hi].
func Range(lo, hi int64) *Fact {
	if lo > hi {
		lo, hi = hi, lo
	}
	return &Fact{Kind: FactRange, Lo: lo, Hi: hi}
}

// Null returns the fact for the null reference.
func Null() *Fact {
	return &Fact{Kind: FactNull}
}

// NonNullObject returns the fact for any non-null instance of class. An
// empty class means any class.
func NonNullObject(class string) *Fact {
	return &Fact{Kind: FactObject, Class: class, NonNull: true}
}

// FixedObject returns the fact for a non-null instance of exactly class.
func FixedObject(class string) *Fact {
	return &Fact{Kind: FactObject, Class: class, Fixed: true, NonNull: true}
}

// Array returns the fact for a non-null array of the given descriptor whose
// length lies in [lo, hi], clamped to the lengths an array can have.
func Array(desc string, lo, hi int64) *Fact {
	lo = min(max(lo, 0), math.MaxInt32)
	hi = min(max(hi, lo), math.MaxInt32)
	return &Fact{Kind: FactArray, Class: desc, Lo: lo, Hi: hi, NonNull: true}
}

// String returns the fact for a constant string.
func String(s string) *Fact {
	return &Fact{Kind: FactString, Class: StringClass, Str: s, Fixed: true, NonNull: true}
}

// IsConst reports whether f is a single integer, and returns it.
func (f *Fact) IsConst() (int64, bool) {
	if f != nil && f.Kind == FactRange && f.Lo == f.Hi {
		return f.Lo, true
	}
	return 0, false
}

// IsNonNull reports whether f excludes null.
func (f *Fact) IsNonNull() bool {
	return f != nil && f.Kind != FactNull && f.Kind != FactRange && f.NonNull
}

// Contains reports whether every integer in g is also in f.
func (f *Fact) Contains(g *Fact) bool {
	if f == nil || g == nil || f.Kind != FactRange || g.Kind != FactRange {
		return false
	}
	return f.Lo <= g.Lo && g.Hi <= f.Hi
}

// Equal reports whether two facts describe the same set. nil is top.
func (f *Fact) Equal(g *Fact) bool {
	if f == nil || g == nil {
		return f == g
	}
	return *f == *g
}

func (f *Fact) String() string {
	if f == nil {
		return "top"
	}
	switch f.Kind {
	case FactRange:
		if f.Lo == f.Hi {
			return fmt.Sprintf("const(%d)", f.Lo)
		}
		return fmt.Sprintf("range[%d,%d]", f.Lo, f.Hi)
	case FactNull:
		return "null"
	case FactObject:
		s := "object"
		if f.Class != "" {
			s += "(" + f.Class + ")"
		}
		if f.Fixed {
			s += "!exact"
		}
		if f.NonNull {
			s += "!nonnull"
		}
		return s
	case FactArray:
		return fmt.Sprintf("array(%s,len[%d,%d])", f.Class, f.Lo, f.Hi)
	case FactString:
		return fmt.Sprintf("string(%q)", f.Str)
	default:
		return "?"
	}
}

// asObject widens a constant string to its exact non-null class fact, so
// that strings and objects share one chain of the lattice.
func asObject(f *Fact) *Fact {
	if f.Kind == FactString {
		return FixedObject(StringClass)
	}
	return f
}

// joinFacts is the least upper bound of two facts; nil is top.
func joinFacts(a, b *Fact) *Fact {
	if a == nil || b == nil {
		return nil
	}
	if a.Equal(b) {
		return a
	}
	if a.Kind == FactString || b.Kind == FactString {
		if a.Kind == FactString && b.Kind == FactString {
			return FixedObject(StringClass)
		}
		a, b = asObject(a), asObject(b)
	}
	if a.Kind != b.Kind {
		return nil
	}
	switch a.Kind {
	case FactRange:
		return Range(min(a.Lo, b.Lo), max(a.Hi, b.Hi))
	case FactNull:
		return a
	case FactObject:
		if a.Class != b.Class || a.NonNull != b.NonNull {
			return nil
		}
		if a.Fixed == b.Fixed {
			return a
		}
		return &Fact{Kind: FactObject, Class: a.Class, NonNull: a.NonNull}
	case FactArray:
		if a.Class != b.Class {
			return nil
		}
		return Array(a.Class, min(a.Lo, b.Lo), max(a.Hi, b.Hi))
	}
	return nil
}

// Value is one abstract value: an optional fact, the kind of slot it lives
// in, and an optional formal parameter marker.
type Value struct {
	Fact    *Fact // nil means top
	Kind    Kind
	Padding bool // second slot of a 64-bit value

	// param is the formal parameter position plus one; zero means the value
	// is not known to be an incoming argument.
	param int32
}

// Top returns the least informative value of a kind.
func Top(k Kind) Value {
	return Value{Kind: k}
}

// Known returns a value of kind k with fact f.
func Known(k Kind, f *Fact) Value {
	return Value{Kind: k, Fact: f}
}

// IntConst returns an Int32 constant.
func IntConst(v int32) Value {
	return Known(KindInt32, Const(int64(v)))
}

// LongConst returns an Int64 constant.
func LongConst(v int64) Value {
	return Known(KindInt64, Const(v))
}

// NullRef returns the null reference.
func NullRef() Value {
	return Known(KindReference, Null())
}

// Pad returns the placeholder for the second slot of a 64-bit value.
func Pad() Value {
	return Value{Kind: KindUntyped, Padding: true}
}

// unusable returns the marker stored in locals that hold no readable value.
func unusable() Value {
	return Value{Kind: KindUntyped}
}

// IsTop reports whether v carries no fact.
func (v Value) IsTop() bool {
	return v.Fact == nil
}

// Param returns the formal parameter position v is known to be.
func (v Value) Param() (int, bool) {
	if v.param == 0 {
		return 0, false
	}
	return int(v.param - 1), true
}

// WithParam returns v marked as the formal parameter at position k.
func (v Value) WithParam(k int) Value {
	v.param = int32(k) + 1
	return v
}

// Opaque returns v with its parameter marker cleared.
func (v Value) Opaque() Value {
	v.param = 0
	return v
}

// Readable reports whether v may be loaded by an instruction.
func (v Value) Readable() bool {
	return !v.Padding && v.Kind != KindUntyped
}

// Equal reports whether two values are identical, facts compared by value.
func (v Value) Equal(o Value) bool {
	return v.Kind == o.Kind && v.Padding == o.Padding && v.param == o.param && v.Fact.Equal(o.Fact)
}

func (v Value) String() string {
	if v.Padding {
		return "pad"
	}
	s := v.Kind.String() + ":" + v.Fact.String()
	if k, ok := v.Param(); ok {
		s += fmt.Sprintf("@arg%d", k)
	}
	return s
}

// Merge joins o into v in place. Merging values of different kinds, or a
// padding slot with a non-padding one, panics with ErrTypeMismatch.
func (v *Value) Merge(o Value) {
	if v.Kind != o.Kind {
		panic(fmt.Errorf("%w: %s with %s", inliner.ErrTypeMismatch, v.Kind, o.Kind))
	}
	if v.Padding || o.Padding {
		if v.Padding != o.Padding {
			panic(fmt.Errorf("%w: padding slot with %s", inliner.ErrTypeMismatch, o))
		}
		return
	}
	v.Fact = joinFacts(v.Fact, o.Fact)
	if v.param != o.param {
		v.param = 0
	}
}

// Join returns the merge of a and b without modifying either.
func Join(a, b Value) Value {
	a.Merge(b)
	return a
}
