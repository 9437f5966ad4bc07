package idt

import (
	"container/heap"
)

// frontier is a max-heap of nodes whose parent has already been ordered.
type frontier struct {
	tree *Tree
	ids  []NodeID
}

func (f *frontier) Len() int { return len(f.ids) }

// Less orders by larger cost, then larger benefit, then smaller id.
func (f *frontier) Less(i, j int) bool {
	a, b := f.tree.Node(f.ids[i]), f.tree.Node(f.ids[j])
	if a.Cost() != b.Cost() {
		return a.Cost() > b.Cost()
	}
	if a.Benefit() != b.Benefit() {
		return a.Benefit() > b.Benefit()
	}
	return a.ID < b.ID
}

func (f *frontier) Swap(i, j int) { f.ids[i], f.ids[j] = f.ids[j], f.ids[i] }
func (f *frontier) Push(x any)    { f.ids = append(f.ids, x.(NodeID)) }

func (f *frontier) Pop() any {
	last := f.ids[len(f.ids)-1]
	f.ids = f.ids[:len(f.ids)-1]
	return last
}

// priorityOrder numbers the nodes of t so that every node follows its
// parent and, among the nodes available at each step, the most expensive
// comes first.
func priorityOrder(t *Tree) []NodeID {
	order := make([]NodeID, 0, t.Len())
	f := &frontier{tree: t, ids: []NodeID{0}}
	for f.Len() > 0 {
		id := heap.Pop(f).(NodeID)
		order = append(order, id)
		for _, c := range t.Node(id).Children {
			heap.Push(f, c)
		}
	}
	return order
}

// Select chooses the nodes of t to inline within budget: the benefit
// maximizing set whose total cost fits the budget and that contains the
// parent of every node it contains. The root is always selected at no
// cost. A negative budget is treated as zero.
//
// Select is a knapsack over the tree: row r of the table considers the
// first r+1 nodes in priority order, and cell (r, b) holds the best
// proposal found for budget b.
func Select(t *Tree, budget int) *Proposal {
	if budget < 0 {
		budget = 0
	}
	order := priorityOrder(t)

	rootOnly := NewProposal(t)
	rootOnly.Add(0)
	prev := make([]*Proposal, budget+1)
	for b := range prev {
		prev[b] = rootOnly
	}
	rows := [][]*Proposal{prev}

	for r := 1; r < len(order); r++ {
		v := order[r]
		row := make([]*Proposal, budget+1)
		for b := 0; b <= budget; b++ {
			row[b] = prev[b]
			if p := extend(t, rows, v, b); p != nil && p.Benefit() > row[b].Benefit() {
				row[b] = p
			}
		}
		rows = append(rows, row)
		prev = row
	}
	return prev[budget]
}

// extend builds the best candidate for cell (len(rows), b) that contains
// v. It collects the chain of v's ancestors missing from the previous row
// at the remaining budget, then looks back for a cell that already holds
// the chain's open dependency without sharing any of its nodes. It returns
// nil when no such cell exists or the chain does not fit.
func extend(t *Tree, rows [][]*Proposal, v NodeID, b int) *Proposal {
	prev := rows[len(rows)-1]
	chain := NewProposal(t)
	chain.Add(v)
	top := t.Node(v)
	for {
		if chain.Cost() > b {
			return nil
		}
		if prev[b-chain.Cost()].Contains(top.Parent) {
			break
		}
		// The root is in every cell, so the walk stops below it.
		top = t.Node(top.Parent)
		chain.Add(top.ID)
	}

	rem := b - chain.Cost()
	for r := len(rows) - 1; r >= 0; r-- {
		cand := rows[r][rem]
		if cand.Overlaps(chain) || !cand.Contains(top.Parent) {
			continue
		}
		p := cand.Clone()
		p.Union(chain)
		if p.Cost() > b {
			return nil
		}
		return p
	}
	return nil
}
