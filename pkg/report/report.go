// Package report renders an inlining tree and its selected proposal as an
// aligned text table or as YAML.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/itchyny/go-yaml"
	"github.com/mattn/go-runewidth"

	"github.com/themaplelab/openj9-omr-sub000/idt"
)

// maxMethodWidth caps the method column of the text table.
const maxMethodWidth = 72

// Node is one tree node in a report.
type Node struct {
	ID            int      `yaml:"id"`
	Parent        int      `yaml:"parent"`
	Depth         int      `yaml:"depth"`
	Method        string   `yaml:"method"`
	CallSiteBCI   int      `yaml:"bci"`
	Size          int      `yaml:"size"`
	Budget        int      `yaml:"budget"`
	CallRatio     float64  `yaml:"call_ratio"`
	RootCallRatio float64  `yaml:"root_call_ratio"`
	StaticBenefit int      `yaml:"static_benefit"`
	Status        string   `yaml:"status"`
	Predicates    []string `yaml:"predicates,omitempty"`
	Selected      bool     `yaml:"selected"`
}

// Prune counts the candidates rejected for one reason.
type Prune struct {
	Reason string `yaml:"reason"`
	Count  int    `yaml:"count"`
}

// Report is the serializable outcome of one build and selection.
type Report struct {
	Compilation string   `yaml:"compilation"`
	Root        string   `yaml:"root"`
	Budget      int      `yaml:"budget"`
	Cost        int      `yaml:"cost"`
	Benefit     float64  `yaml:"benefit"`
	Selected    []int    `yaml:"selected"`
	Nodes       []Node   `yaml:"nodes"`
	Pruned      []Prune  `yaml:"pruned,omitempty"`
	Warnings    []string `yaml:"warnings,omitempty"`
}

var pruneReasons = []idt.PruneReason{
	idt.PruneColdBlock,
	idt.PruneBudget,
	idt.PruneRecursion,
	idt.PruneLowValue,
	idt.PruneDepth,
	idt.PruneUnresolved,
}

// New builds a report for tree and the proposal selected from it.
func New(tree *idt.Tree, p *idt.Proposal, budget int) *Report {
	r := &Report{
		Compilation: tree.Compilation,
		Root:        string(tree.Root().Method.ID),
		Budget:      budget,
		Cost:        p.Cost(),
		Benefit:     p.Benefit(),
		Warnings:    tree.Warnings(),
	}
	for _, id := range p.Nodes() {
		r.Selected = append(r.Selected, int(id))
	}
	tree.Walk(func(n *idt.Node) bool {
		rn := Node{
			ID:            int(n.ID),
			Parent:        int(n.Parent),
			Depth:         tree.Depth(n.ID),
			Method:        string(n.Method.ID),
			CallSiteBCI:   n.CallSiteBCI,
			Size:          n.Method.ByteSize,
			Budget:        n.Budget,
			CallRatio:     n.CallRatio,
			RootCallRatio: n.RootCallRatio,
			StaticBenefit: n.StaticBenefit,
			Status:        n.Status.String(),
			Selected:      p.Contains(n.ID),
		}
		if n.Summary != nil {
			for _, pred := range n.Summary.Predicates {
				rn.Predicates = append(rn.Predicates, pred.String())
			}
		}
		r.Nodes = append(r.Nodes, rn)
		return true
	})
	for _, reason := range pruneReasons {
		if c := tree.Pruned(reason); c > 0 {
			r.Pruned = append(r.Pruned, Prune{Reason: reason.String(), Count: c})
		}
	}
	return r
}

// YAML encodes the report.
func (r *Report) YAML() ([]byte, error) {
	b, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return b, nil
}

// WriteYAML writes the YAML encoding of the report to w.
func (r *Report) WriteYAML(w io.Writer) error {
	b, err := r.YAML()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

var columns = []string{"", "ID", "METHOD", "BCI", "SIZE", "BUDGET", "RATIO", "BENEFIT", "STATUS"}

// WriteText writes the tree as a table, one row per node with the method
// indented by depth. Selected nodes are marked with '*'.
func (r *Report) WriteText(w io.Writer) error {
	rows := [][]string{columns}
	for _, n := range r.Nodes {
		mark := ""
		if n.Selected {
			mark = "*"
		}
		bci := "-"
		if n.CallSiteBCI >= 0 {
			bci = fmt.Sprint(n.CallSiteBCI)
		}
		method := runewidth.Truncate(strings.Repeat("  ", n.Depth)+n.Method, maxMethodWidth, "…")
		rows = append(rows, []string{
			mark,
			fmt.Sprint(n.ID),
			method,
			bci,
			fmt.Sprint(n.Size),
			fmt.Sprint(n.Budget),
			fmt.Sprintf("%.4f", n.RootCallRatio),
			fmt.Sprint(n.StaticBenefit),
			n.Status,
		})
	}

	widths := make([]int, len(columns))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "compilation %s root %s\n", r.Compilation, r.Root)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(row)-1 {
				b.WriteString(cell)
			} else {
				b.WriteString(runewidth.FillRight(cell, widths[i]))
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "selected %d of %d nodes, cost %d of %d, benefit %.3f\n",
		len(r.Selected), len(r.Nodes), r.Cost, r.Budget, r.Benefit)
	for _, p := range r.Pruned {
		fmt.Fprintf(&b, "pruned %s: %d\n", p.Reason, p.Count)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warning)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
