package idt

import (
	"fmt"
	"strings"

	"golang.org/x/tools/container/intsets"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

// Proposal is a set of tree nodes selected for inlining, with its total
// cost and benefit kept up to date as nodes are added. A Proposal must not
// be copied by value.
type Proposal struct {
	tree    *Tree
	set     intsets.Sparse
	cost    int
	benefit float64
}

// NewProposal returns an empty proposal over t.
func NewProposal(t *Tree) *Proposal {
	return &Proposal{tree: t}
}

// Add inserts node id.
func (p *Proposal) Add(id NodeID) {
	if !p.set.Insert(int(id)) {
		return
	}
	n := p.tree.Node(id)
	p.cost += n.Cost()
	p.benefit += n.Benefit()
}

// Contains reports whether node id is selected.
func (p *Proposal) Contains(id NodeID) bool {
	return id >= 0 && p.set.Has(int(id))
}

// Union adds every node of o to p.
func (p *Proposal) Union(o *Proposal) {
	for _, id := range o.set.AppendTo(nil) {
		p.Add(NodeID(id))
	}
}

// Overlaps reports whether p and o share a node.
func (p *Proposal) Overlaps(o *Proposal) bool {
	return p.set.Intersects(&o.set)
}

// Clone returns an independent copy of p.
func (p *Proposal) Clone() *Proposal {
	c := &Proposal{tree: p.tree, cost: p.cost, benefit: p.benefit}
	c.set.Copy(&p.set)
	return c
}

// Len returns the number of selected nodes.
func (p *Proposal) Len() int {
	return p.set.Len()
}

// Nodes returns the selected node ids in increasing order.
func (p *Proposal) Nodes() []NodeID {
	ids := p.set.AppendTo(nil)
	out := make([]NodeID, len(ids))
	for i, id := range ids {
		out[i] = NodeID(id)
	}
	return out
}

// Cost returns the total byte size of the selected nodes.
func (p *Proposal) Cost() int {
	return p.cost
}

// Benefit returns the total weighted benefit of the selected nodes.
func (p *Proposal) Benefit() float64 {
	return p.benefit
}

// Validate checks that p contains the root, that every selected node's
// parent is selected, and that the cost fits budget.
func (p *Proposal) Validate(budget int) error {
	if p.Len() > 0 && !p.Contains(0) {
		return fmt.Errorf("%w: proposal without root", inliner.ErrMalformedTree)
	}
	for _, id := range p.Nodes() {
		if int(id) >= p.tree.Len() {
			return fmt.Errorf("%w: proposal names node %d of %d", inliner.ErrMalformedTree, id, p.tree.Len())
		}
		if n := p.tree.Node(id); !n.IsRoot() && !p.Contains(n.Parent) {
			return fmt.Errorf("node %d selected without its parent %d", id, n.Parent)
		}
	}
	if p.cost > budget {
		return fmt.Errorf("proposal cost %d exceeds budget %d", p.cost, budget)
	}
	return nil
}

func (p *Proposal) String() string {
	ids := p.Nodes()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(int(id))
	}
	return fmt.Sprintf("{%s} cost=%d benefit=%.3f", strings.Join(parts, ","), p.cost, p.benefit)
}
