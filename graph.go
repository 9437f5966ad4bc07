package inliner

import "fmt"

// Block is a basic block of a method's control flow graph.
type Block struct {
	ID           int
	StartBCI     int
	EndBCI       int
	Frequency    int // estimated execution count relative to the other blocks
	Instructions []Instruction
	Preds        []int
	Succs        []int
}

// Graph is the control flow graph of one method. Blocks are indexed by
// their ID.
type Graph struct {
	Blocks []*Block
	Entry  int
}

// NewGraph validates blocks, fills in instruction ranges and predecessor
// lists, and returns the graph. Blocks[i].ID must equal i.
func NewGraph(blocks []*Block, entry int) (*Graph, error) {
	if entry < 0 || entry >= len(blocks) {
		return nil, fmt.Errorf("entry block %d out of range [0,%d)", entry, len(blocks))
	}
	for i, b := range blocks {
		if b == nil {
			return nil, fmt.Errorf("block %d is nil", i)
		}
		if b.ID != i {
			return nil, fmt.Errorf("block at index %d has id %d", i, b.ID)
		}
		b.Preds = b.Preds[:0]
	}
	for _, b := range blocks {
		for _, s := range b.Succs {
			if s < 0 || s >= len(blocks) {
				return nil, fmt.Errorf("block %d: successor %d out of range", b.ID, s)
			}
			blocks[s].Preds = append(blocks[s].Preds, b.ID)
		}
		if n := len(b.Instructions); n > 0 {
			b.StartBCI = b.Instructions[0].BCI
			b.EndBCI = b.Instructions[n-1].BCI
		}
	}
	return &Graph{Blocks: blocks, Entry: entry}, nil
}

// EntryFrequency returns the execution frequency of the entry block.
func (g *Graph) EntryFrequency() int {
	return g.Blocks[g.Entry].Frequency
}

// ReversePostOrder returns the blocks reachable from the entry in reverse
// postorder of a depth-first walk that visits successors in order.
func (g *Graph) ReversePostOrder() []*Block {
	visited := make([]bool, len(g.Blocks))
	post := make([]*Block, 0, len(g.Blocks))

	type frame struct {
		b    *Block
		next int
	}
	stack := []frame{{b: g.Blocks[g.Entry]}}
	visited[g.Entry] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			s := top.b.Succs[top.next]
			top.next++
			if !visited[s] {
				visited[s] = true
				stack = append(stack, frame{b: g.Blocks[s]})
			}
			continue
		}
		post = append(post, top.b)
		stack = stack[:len(stack)-1]
	}

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// Reachable returns a mask of the blocks reachable from the entry.
func (g *Graph) Reachable() []bool {
	mask := make([]bool, len(g.Blocks))
	for _, b := range g.ReversePostOrder() {
		mask[b.ID] = true
	}
	return mask
}

// BlockAt returns the block containing the instruction at bci.
func (g *Graph) BlockAt(bci int) (*Block, bool) {
	for _, b := range g.Blocks {
		for i := range b.Instructions {
			if b.Instructions[i].BCI == bci {
				return b, true
			}
		}
	}
	return nil, false
}
