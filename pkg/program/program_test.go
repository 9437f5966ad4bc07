package program

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

func loadShapes(t *testing.T) *Program {
	t.Helper()
	p, err := LoadFile("testdata/shapes.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return p
}

func methodIDs(ms []*inliner.Method) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = string(m.ID)
	}
	return out
}

func TestLoad(t *testing.T) {
	p := loadShapes(t)
	if got := len(p.Methods()); got != 6 {
		t.Fatalf("loaded %d methods, want 6", got)
	}

	scale, err := p.FindMethod("shapes/Main.scale")
	if err != nil {
		t.Fatalf("FindMethod: %v", err)
	}
	if scale.ByteSize != 12 || !scale.Static || scale.MaxLocals != 2 || scale.NumArgs() != 2 {
		t.Errorf("scale = %+v", scale)
	}

	g, err := p.Graph(scale)
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(g.Blocks) != 3 || g.EntryFrequency() != 100 {
		t.Errorf("graph has %d blocks, entry frequency %d", len(g.Blocks), g.EntryFrequency())
	}
	if diff := cmp.Diff([]int{0}, g.Blocks[2].Preds); diff != "" {
		t.Errorf("preds of block 2 (-want +got):\n%s", diff)
	}
	if b := g.Blocks[2]; b.StartBCI != 6 || b.EndBCI != 9 {
		t.Errorf("block 2 spans [%d,%d], want [6,9]", b.StartBCI, b.EndBCI)
	}
}

func TestGraphUnavailable(t *testing.T) {
	p := loadShapes(t)
	for _, name := range []string{"shapes/Main.nativeHash", "shapes/Shape.area"} {
		m, err := p.FindMethod(name)
		if err != nil {
			t.Fatalf("FindMethod(%s): %v", name, err)
		}
		if _, err := p.Graph(m); !errors.Is(err, inliner.ErrGraphUnavailable) {
			t.Errorf("Graph(%s) error = %v, want ErrGraphUnavailable", name, err)
		}
	}
}

func TestFindMethodErrors(t *testing.T) {
	p := loadShapes(t)
	if _, err := p.FindMethod("shapes/Main.missing"); err == nil {
		t.Error("FindMethod found a missing method")
	}
	m, err := p.FindMethod("shapes/Circle.area()I")
	if err != nil || m.Class != "shapes/Circle" {
		t.Errorf("FindMethod by full id = %v, %v", m, err)
	}
}

func TestResolve(t *testing.T) {
	p := loadShapes(t)
	caller, _ := p.FindMethod("shapes/Main.total")
	ref := func(class, name, desc string) *inliner.SymbolRef {
		return &inliner.SymbolRef{Kind: inliner.RefMethod, Class: class, Name: name, Descriptor: desc}
	}
	tests := []struct {
		name string
		kind inliner.InvokeKind
		ref  *inliner.SymbolRef
		want []string
	}{
		{"interface dispatch", inliner.InvokeInterface, ref("shapes/Shape", "area", "()I"),
			[]string{"shapes/Base.area()I", "shapes/Circle.area()I"}},
		{"virtual on leaf", inliner.InvokeVirtual, ref("shapes/Circle", "area", "()I"),
			[]string{"shapes/Circle.area()I"}},
		{"inherited implementation", inliner.InvokeVirtual, ref("shapes/Square", "area", "()I"),
			[]string{"shapes/Base.area()I"}},
		{"static", inliner.InvokeStatic, ref("shapes/Main", "scale", "(II)I"),
			[]string{"shapes/Main.scale(II)I"}},
		{"static on instance method", inliner.InvokeStatic, ref("shapes/Circle", "area", "()I"), []string{}},
		{"unknown method", inliner.InvokeStatic, ref("shapes/Main", "nope", "()V"), []string{}},
		{"unresolved", inliner.InvokeStatic, &inliner.SymbolRef{Kind: inliner.RefMethod, Class: "shapes/Main", Name: "scale", Descriptor: "(II)I", Unresolved: true}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Resolve(inliner.CallSiteRef{Caller: caller, BCI: 1, Kind: tt.kind, Ref: tt.ref})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if diff := cmp.Diff(tt.want, methodIDs(got)); diff != "" {
				t.Errorf("candidates (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsSubtype(t *testing.T) {
	p := loadShapes(t)
	tests := []struct {
		sub, super string
		want       inliner.Tristate
	}{
		{"shapes/Circle", "shapes/Shape", inliner.Yes},
		{"shapes/Circle", "shapes/Base", inliner.Yes},
		{"shapes/Circle", "shapes/Circle", inliner.Yes},
		{"shapes/Circle", "shapes/Square", inliner.No},
		{"shapes/Base", "shapes/Circle", inliner.No},
		{"x/Unknown", "shapes/Shape", inliner.Maybe},
		{"x/Unknown", ObjectClass, inliner.Yes},
		{"[I", ObjectClass, inliner.Yes},
		{"[I", "java/io/Serializable", inliner.Yes},
		{"[I", "shapes/Shape", inliner.No},
		{"[[I", "[Ljava/lang/Object;", inliner.Maybe},
	}
	for _, tt := range tests {
		if got := p.IsSubtype(tt.sub, tt.super); got != tt.want {
			t.Errorf("IsSubtype(%s, %s) = %s, want %s", tt.sub, tt.super, got, tt.want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "classes:\n  - name: A\n    colour: red\n", "colour"},
		{"unknown class", "methods:\n  - {class: A, name: f, descriptor: ()V, size: 1}\n", "unknown class"},
		{"duplicate class", "classes:\n  - name: A\n  - name: A\n", "duplicate class"},
		{"bad descriptor", "classes: [{name: A}]\nmethods:\n  - {class: A, name: f, descriptor: (Q)V, size: 1}\n", "invalid descriptor"},
		{"bad successor", "classes: [{name: A}]\nmethods:\n  - {class: A, name: f, descriptor: ()V, size: 1, blocks: [{succs: [4], code: ['0: return']}]}\n", "successor 4"},
		{"bad code", "classes: [{name: A}]\nmethods:\n  - {class: A, name: f, descriptor: ()V, size: 1, blocks: [{code: ['0: frobnicate']}]}\n", "unknown mnemonic"},
		{"abstract with code", "classes: [{name: A}]\nmethods:\n  - {class: A, name: f, descriptor: ()V, abstract: true, blocks: [{code: ['0: return']}]}\n", "abstract method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("Load succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
