package absinterp

import (
	"errors"
	"math"
	"testing"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

func sampleRefs() []Value {
	return []Value{
		Top(KindReference),
		NullRef(),
		Known(KindReference, NonNullObject("A")),
		Known(KindReference, FixedObject("A")),
		Known(KindReference, FixedObject("B")),
		Known(KindReference, String("x")),
		Known(KindReference, String("y")),
		Known(KindReference, NonNullObject(StringClass)),
		Known(KindReference, Array("[I", 0, 3)),
		Known(KindReference, Array("[I", 2, 5)),
		Known(KindReference, NonNullObject("A")).WithParam(0),
		Known(KindReference, NonNullObject("A")).WithParam(1),
	}
}

func sampleInts() []Value {
	return []Value{
		Top(KindInt32),
		IntConst(0),
		IntConst(7),
		Known(KindInt32, Range(-5, 3)),
		Known(KindInt32, Range(10, 20)),
		IntConst(0).WithParam(2),
		Top(KindInt32).WithParam(2),
	}
}

func TestMergeLatticeLaws(t *testing.T) {
	for _, samples := range [][]Value{sampleRefs(), sampleInts()} {
		for _, a := range samples {
			if got := Join(a, a); !got.Equal(a) {
				t.Errorf("idempotence: %s ⊔ %s = %s", a, a, got)
			}
			for _, b := range samples {
				ab, ba := Join(a, b), Join(b, a)
				if !ab.Equal(ba) {
					t.Errorf("commutativity: %s ⊔ %s = %s, reversed %s", a, b, ab, ba)
				}
				for _, c := range samples {
					l := Join(Join(a, b), c)
					r := Join(a, Join(b, c))
					if !l.Equal(r) {
						t.Errorf("associativity: (%s ⊔ %s) ⊔ %s = %s, other grouping %s", a, b, c, l, r)
					}
				}
			}
		}
	}
}

func TestMergeTopAbsorbs(t *testing.T) {
	for _, v := range sampleRefs() {
		if got := Join(Top(KindReference), v); !got.IsTop() {
			t.Errorf("top ⊔ %s = %s, want top", v, got)
		}
	}
	for _, v := range sampleInts() {
		if got := Join(v, Top(KindInt32)); !got.IsTop() {
			t.Errorf("%s ⊔ top = %s, want top", v, got)
		}
	}
}

func TestJoinFacts(t *testing.T) {
	tests := []struct {
		name string
		a, b *Fact
		want *Fact
	}{
		{"constants hull", Const(1), Const(5), Range(1, 5)},
		{"ranges hull", Range(-3, 0), Range(2, 4), Range(-3, 4)},
		{"null with null", Null(), Null(), Null()},
		{"null with object", Null(), NonNullObject("A"), nil},
		{"fixed with unfixed", FixedObject("A"), NonNullObject("A"), NonNullObject("A")},
		{"different classes", FixedObject("A"), FixedObject("B"), nil},
		{"array lengths", Array("[I", 1, 1), Array("[I", 4, 9), Array("[I", 1, 9)},
		{"array element types", Array("[I", 1, 1), Array("[J", 1, 1), nil},
		{"equal strings", String("s"), String("s"), String("s")},
		{"different strings", String("s"), String("t"), FixedObject(StringClass)},
		{"string with string object", String("s"), NonNullObject(StringClass), NonNullObject(StringClass)},
		{"range with null", Const(0), Null(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinFacts(tt.a, tt.b); !got.Equal(tt.want) {
				t.Errorf("joinFacts(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMergeParamMarker(t *testing.T) {
	a := IntConst(1).WithParam(0)
	if k, ok := Join(a, IntConst(1).WithParam(0)).Param(); !ok || k != 0 {
		t.Errorf("equal markers: got (%d, %v), want (0, true)", k, ok)
	}
	if _, ok := Join(a, IntConst(1).WithParam(1)).Param(); ok {
		t.Error("different markers survived the merge")
	}
	if _, ok := Join(a, IntConst(1)).Param(); ok {
		t.Error("marker survived a merge with an unmarked value")
	}
}

func expectTypeMismatch(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, inliner.ErrTypeMismatch) {
			t.Fatalf("panic value %v does not wrap ErrTypeMismatch", r)
		}
	}()
	fn()
}

func TestMergePaddingWithValuePanics(t *testing.T) {
	expectTypeMismatch(t, func() {
		v := Pad()
		v.Merge(Value{Kind: KindUntyped})
	})
}

func TestMergeKindMismatchPanics(t *testing.T) {
	expectTypeMismatch(t, func() {
		v := IntConst(1)
		v.Merge(NullRef())
	})
}

func TestMergePaddingWithPadding(t *testing.T) {
	v := Pad()
	v.Merge(Pad())
	if !v.Padding || v.Readable() {
		t.Errorf("padding merge = %s, want padding", v)
	}
}

func TestArrayClampsLength(t *testing.T) {
	f := Array("[I", -4, math.MaxInt64)
	if f.Lo != 0 || f.Hi != math.MaxInt32 {
		t.Errorf("Array length = [%d,%d], want [0,%d]", f.Lo, f.Hi, math.MaxInt32)
	}
	if f := Array("[I", -5, -3); f.Lo != 0 || f.Hi != 0 {
		t.Errorf("Array length of a negative range = [%d,%d], want [0,0]", f.Lo, f.Hi)
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{IntConst(3), "int:const(3)"},
		{Top(KindInt64).WithParam(1), "long:top@arg1"},
		{Known(KindInt32, Range(0, 9)), "int:range[0,9]"},
		{Known(KindReference, FixedObject("A")), "ref:object(A)!exact!nonnull"},
		{Known(KindReference, String("hi")), `ref:string("hi")`},
		{Pad(), "pad"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
