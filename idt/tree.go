// Package idt builds the inlining dependency tree (IDT) of a root method,
// estimates the static benefit of every candidate call, and selects the
// subset of candidates to inline within a byte budget.
package idt

import (
	"fmt"
	"strings"

	inliner "github.com/themaplelab/openj9-omr-sub000"
	"github.com/themaplelab/openj9-omr-sub000/absinterp"
)

// NodeID is the index of a node in its tree. IDs are assigned in creation
// order, so the root is always 0.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

// Status tracks the expansion of a node.
type Status uint8

const (
	Unvisited    Status = iota
	Interpreting        // the method is being interpreted
	Summarized          // the method has a summary and its children were added
	Failed              // interpretation aborted; no summary, no children
	NoGraph             // the method has no analyzable body
)

func (s Status) String() string {
	switch s {
	case Unvisited:
		return "unvisited"
	case Interpreting:
		return "interpreting"
	case Summarized:
		return "summarized"
	case Failed:
		return "failed"
	case NoGraph:
		return "no-graph"
	default:
		return "unknown"
	}
}

// Node is one candidate call site in the tree.
type Node struct {
	ID     NodeID
	Method *inliner.Method

	// Budget is the number of bytes still available to the node's
	// descendants.
	Budget int

	CallSiteBCI   int     // offset of the call in the parent; -1 for the root
	CallRatio     float64 // call frequency relative to the parent's entry
	RootCallRatio float64 // call frequency relative to the root's entry
	StaticBenefit int

	// Summary is shared by every node for the same method.
	Summary *absinterp.Summary

	// Args are the parent's abstract arguments at the call site.
	Args []absinterp.Value

	Parent   NodeID
	Children []NodeID
	Status   Status
}

// IsRoot reports whether n is the root of its tree.
func (n *Node) IsRoot() bool {
	return n.Parent == NoNode
}

// Cost returns the number of bytes inlining n adds. The root is being
// compiled anyway and costs nothing.
func (n *Node) Cost() int {
	if n.IsRoot() {
		return 0
	}
	return n.Method.ByteSize
}

// Benefit returns the static benefit weighted by how often the call runs
// per execution of the root.
func (n *Node) Benefit() float64 {
	return float64(n.StaticBenefit) * n.RootCallRatio
}

func (n *Node) String() string {
	return fmt.Sprintf("#%d %s@%d budget=%d ratio=%.4f benefit=%d", n.ID, n.Method, n.CallSiteBCI, n.Budget, n.RootCallRatio, n.StaticBenefit)
}

// PruneReason is why a candidate call was not added to the tree.
type PruneReason uint8

const (
	PruneColdBlock PruneReason = iota
	PruneBudget
	PruneRecursion
	PruneLowValue
	PruneDepth
	PruneUnresolved
	numPruneReasons
)

func (r PruneReason) String() string {
	switch r {
	case PruneColdBlock:
		return "cold-block"
	case PruneBudget:
		return "budget"
	case PruneRecursion:
		return "recursion"
	case PruneLowValue:
		return "low-value"
	case PruneDepth:
		return "depth"
	case PruneUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Tree is the arena holding every node of one build. Nodes are only
// appended; children lists are append-only.
type Tree struct {
	nodes    []*Node
	warnings []string
	pruned   [numPruneReasons]int

	// Compilation identifies the build in logs and reports.
	Compilation string
}

func newTree(compilation string) *Tree {
	return &Tree{Compilation: compilation}
}

// add appends a node under parent and returns it. The root is added with
// parent NoNode.
func (t *Tree) add(parent NodeID, m *inliner.Method) *Node {
	n := &Node{ID: NodeID(len(t.nodes)), Method: m, Parent: parent, CallSiteBCI: -1}
	switch {
	case parent == NoNode:
		if len(t.nodes) != 0 {
			panic(fmt.Errorf("%w: second root %s", inliner.ErrMalformedTree, m))
		}
	case parent < 0 || int(parent) >= len(t.nodes):
		panic(fmt.Errorf("%w: parent %d of %s does not exist", inliner.ErrMalformedTree, parent, m))
	default:
		p := t.nodes[parent]
		p.Children = append(p.Children, n.ID)
	}
	t.nodes = append(t.nodes, n)
	return n
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.nodes[0]
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes[id]
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits the nodes in pre-order, children in call-site order. When fn
// returns false the children of that node are skipped.
func (t *Tree) Walk(fn func(n *Node) bool) {
	var visit func(id NodeID)
	visit = func(id NodeID) {
		n := t.nodes[id]
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	if len(t.nodes) > 0 {
		visit(0)
	}
}

// Depth returns the number of edges between the root and id.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for n := t.nodes[id]; !n.IsRoot(); n = t.nodes[n.Parent] {
		d++
	}
	return d
}

// Warnings returns the precision-loss and degradation messages collected
// while building.
func (t *Tree) Warnings() []string {
	return t.warnings
}

// Pruned returns how many candidate calls were rejected for reason r.
func (t *Tree) Pruned(r PruneReason) int {
	return t.pruned[r]
}

func (t *Tree) warn(format string, args ...any) {
	t.warnings = append(t.warnings, fmt.Sprintf(format, args...))
}

// Validate checks the parent/child invariants of the arena.
func (t *Tree) Validate() error {
	if len(t.nodes) == 0 {
		return fmt.Errorf("%w: empty tree", inliner.ErrMalformedTree)
	}
	for i, n := range t.nodes {
		if n.ID != NodeID(i) {
			return fmt.Errorf("%w: node at %d has id %d", inliner.ErrMalformedTree, i, n.ID)
		}
		if i == 0 {
			if !n.IsRoot() {
				return fmt.Errorf("%w: node 0 has parent %d", inliner.ErrMalformedTree, n.Parent)
			}
			continue
		}
		if n.Parent < 0 || n.Parent >= n.ID {
			return fmt.Errorf("%w: node %d has parent %d", inliner.ErrMalformedTree, n.ID, n.Parent)
		}
		found := false
		for _, c := range t.nodes[n.Parent].Children {
			if c == n.ID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: node %d missing from children of %d", inliner.ErrMalformedTree, n.ID, n.Parent)
		}
	}
	return nil
}

func (t *Tree) String() string {
	var b strings.Builder
	t.Walk(func(n *Node) bool {
		b.WriteString(strings.Repeat("  ", t.Depth(n.ID)))
		b.WriteString(n.String())
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
