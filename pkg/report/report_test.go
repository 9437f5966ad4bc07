package report

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/themaplelab/openj9-omr-sub000/idt"
	"github.com/themaplelab/openj9-omr-sub000/pkg/program"
)

const fixture = `
classes:
  - name: r/Main
methods:
  - class: r/Main
    name: isZero
    descriptor: (I)I
    static: true
    size: 10
    blocks:
      - frequency: 10
        succs: [1, 2]
        code: ["0: iload_0", "1: ifeq 6"]
      - frequency: 5
        code: ["4: iconst_1", "5: ireturn"]
      - frequency: 5
        code: ["6: iconst_0", "7: ireturn"]
  - class: r/Main
    name: main
    descriptor: ()I
    static: true
    size: 30
    blocks:
      - frequency: 10
        code:
          - "0: iconst_0"
          - "1: invokestatic r/Main.isZero(I)I"
          - "4: invokestatic r/Main.missing(I)I"
          - "7: ireturn"
`

func buildReport(t *testing.T, budget int) *Report {
	t.Helper()
	p, err := program.Load(strings.NewReader(fixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	root, err := p.FindMethod("r/Main.main")
	if err != nil {
		t.Fatalf("FindMethod: %v", err)
	}
	tree, err := idt.NewBuilder(p, p, idt.DefaultOptions()).Build(context.Background(), root, budget)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return New(tree, idt.Select(tree, budget), budget)
}

func TestNew(t *testing.T) {
	r := buildReport(t, 20)
	if diff := cmp.Diff([]int{0, 1}, r.Selected); diff != "" {
		t.Errorf("selected (-want +got):\n%s", diff)
	}
	if len(r.Nodes) != 2 || r.Cost != 10 || r.Benefit != 1 {
		t.Fatalf("report = %+v", r)
	}
	child := r.Nodes[1]
	if child.Parent != 0 || child.Depth != 1 || child.CallSiteBCI != 1 || len(child.Predicates) != 3 {
		t.Errorf("child = %+v", child)
	}
	if diff := cmp.Diff([]Prune{{Reason: "unresolved", Count: 1}}, r.Pruned); diff != "" {
		t.Errorf("pruned (-want +got):\n%s", diff)
	}
}

func TestWriteText(t *testing.T) {
	r := buildReport(t, 20)
	var b strings.Builder
	if err := r.WriteText(&b); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), b.String())
	}
	header, root, child := lines[1], lines[2], lines[3]
	col := strings.Index(header, "METHOD")
	if strings.Index(root, "r/Main.main") != col || strings.Index(child, "  r/Main.isZero") != col {
		t.Errorf("method column not aligned:\n%s", b.String())
	}
	if !strings.HasPrefix(root, "*") || !strings.HasPrefix(child, "*") {
		t.Errorf("selected nodes not marked:\n%s", b.String())
	}
	if lines[4] != "selected 2 of 2 nodes, cost 10 of 20, benefit 1.000" || lines[5] != "pruned unresolved: 1" {
		t.Errorf("footer:\n%s", strings.Join(lines[4:], "\n"))
	}
}

func TestYAML(t *testing.T) {
	r := buildReport(t, 5)
	out, err := r.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	var back struct {
		Compilation string `yaml:"compilation"`
		Selected    []int  `yaml:"selected"`
		Nodes       []struct {
			Method string `yaml:"method"`
		} `yaml:"nodes"`
		Pruned []Prune `yaml:"pruned"`
	}
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if back.Compilation != r.Compilation || len(back.Nodes) != 1 {
		t.Errorf("decoded = %+v", back)
	}
	if diff := cmp.Diff([]int{0}, back.Selected); diff != "" {
		t.Errorf("selected (-want +got):\n%s", diff)
	}
	want := []Prune{{Reason: "budget", Count: 1}, {Reason: "unresolved", Count: 1}}
	if diff := cmp.Diff(want, back.Pruned); diff != "" {
		t.Errorf("pruned (-want +got):\n%s", diff)
	}
}
