package idt

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	inliner "github.com/themaplelab/openj9-omr-sub000"
	"github.com/themaplelab/openj9-omr-sub000/absinterp"
	"github.com/themaplelab/openj9-omr-sub000/pkg/logging"
)

// Builder grows the inlining dependency tree of a root method. A Builder
// holds no per-build state and may be reused.
type Builder struct {
	opts      Options
	graphs    inliner.ControlFlowProvider
	catalog   inliner.MethodCatalog
	interp    *absinterp.Interpreter
	estimator Estimator
	logger    logging.Logger
}

// NewBuilder creates a builder that reads method bodies from graphs and
// resolves call sites through catalog.
func NewBuilder(graphs inliner.ControlFlowProvider, catalog inliner.MethodCatalog, opts Options) *Builder {
	logger := opts.logger()
	return &Builder{
		opts:      opts,
		graphs:    graphs,
		catalog:   catalog,
		interp:    absinterp.NewInterpreter(opts.Interpreter, catalog, logger),
		estimator: Estimator{Oracle: catalog, Weight: opts.PredicateWeight},
		logger:    logger,
	}
}

// buildContext is the mutable state of one Build call, threaded through
// the recursive expansion.
type buildContext struct {
	ctx  context.Context
	tree *Tree
	log  logging.Logger

	// memo maps a fully expanded method to the first node that expanded it.
	memo map[inliner.MethodID]NodeID

	// stack holds the methods between the root and the node being expanded.
	stack []stackEntry
}

type stackEntry struct {
	method inliner.MethodID

	// cut is set once a call below this entry was pruned because its
	// callee sits further down the stack. The subtree then depends on the
	// call path and is not memoized.
	cut bool
}

func (bc *buildContext) onStack(id inliner.MethodID) bool {
	for _, e := range bc.stack {
		if e.method == id {
			return true
		}
	}
	return false
}

// cutAbove flags every entry above the innermost occurrence of id.
func (bc *buildContext) cutAbove(id inliner.MethodID) {
	for i := len(bc.stack) - 1; i >= 0 && bc.stack[i].method != id; i-- {
		bc.stack[i].cut = true
	}
}

func (bc *buildContext) push(id inliner.MethodID) {
	bc.stack = append(bc.stack, stackEntry{method: id})
}

func (bc *buildContext) top() stackEntry {
	return bc.stack[len(bc.stack)-1]
}

func (bc *buildContext) pop() {
	bc.stack = bc.stack[:len(bc.stack)-1]
}

// pendingCall is a call site seen while interpreting a node, waiting for
// the node's summary to complete before its candidates are expanded.
type pendingCall struct {
	site *absinterp.CallSite
}

// Build constructs the tree for root with the given byte budget. Only
// context cancellation fails a build; every other problem degrades a
// single node and is reported through Tree.Warnings.
func (b *Builder) Build(ctx context.Context, root *inliner.Method, budget int) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("root method cannot be nil")
	}
	compilation := uuid.NewString()
	bc := &buildContext{
		ctx:  ctx,
		tree: newTree(compilation),
		log:  b.logger.With(map[string]any{"compilation": compilation}),
		memo: make(map[inliner.MethodID]NodeID),
	}

	bc.log.With(map[string]any{"root": string(root.ID), "budget": budget}).Infof("Building inlining tree")

	n := bc.tree.add(NoNode, root)
	n.Budget = budget
	n.CallRatio = 1
	n.RootCallRatio = 1

	if err := b.expand(bc, n.ID); err != nil {
		return nil, err
	}

	bc.log.With(map[string]any{
		"nodes":    bc.tree.Len(),
		"memoized": len(bc.memo),
		"warnings": len(bc.tree.warnings),
	}).Infof("Inlining tree complete")
	return bc.tree, nil
}

// expand summarizes the method of node id and adds and expands its
// children, depth first.
func (b *Builder) expand(bc *buildContext, id NodeID) error {
	if err := bc.ctx.Err(); err != nil {
		return err
	}
	n := bc.tree.Node(id)
	log := bc.log.With(map[string]any{"node": int(id), "method": string(n.Method.ID)})

	if src, ok := bc.memo[n.Method.ID]; ok {
		log.With(map[string]any{"source": int(src)}).Debugf("Reusing memoized summary")
		b.cloneSubtree(bc, src, id)
		return nil
	}

	n.Status = Interpreting
	g, err := b.graphs.Graph(n.Method)
	if err != nil {
		n.Status = NoGraph
		if !errors.Is(err, inliner.ErrGraphUnavailable) {
			bc.tree.warn("%s: %v", n.Method, err)
		}
		log.Debugf("No control flow graph: %v", err)
		return nil
	}

	bc.push(n.Method.ID)
	defer bc.pop()

	var pending []pendingCall
	visitor := absinterp.VisitorFunc(func(site *absinterp.CallSite) absinterp.Value {
		pending = append(pending, pendingCall{site: site})
		return site.ReturnTop()
	})

	res, err := b.interp.Run(bc.ctx, n.Method, g, visitor)
	if err != nil {
		if ctxErr := bc.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		n.Status = Failed
		bc.tree.warn("%s: interpretation failed: %v", n.Method, err)
		log.Infof("Interpretation failed: %v", err)
		bc.memo[n.Method.ID] = id
		return nil
	}
	n.Summary = res.Summary
	for _, w := range res.Warnings {
		bc.tree.warn("%s: %s", n.Method, w)
	}

	log.With(map[string]any{"predicates": res.Summary.Len(), "calls": len(pending)}).Debugf("Method summarized")

	for _, call := range pending {
		if err := b.expandCall(bc, id, g, call); err != nil {
			return err
		}
	}
	n.Status = Summarized
	if bc.top().cut {
		log.Debugf("Subtree cut by recursion, not memoized")
		return nil
	}
	bc.memo[n.Method.ID] = id
	return nil
}

// expandCall resolves one call site of node id and adds and expands a
// child for every admitted candidate.
func (b *Builder) expandCall(bc *buildContext, id NodeID, g *inliner.Graph, call pendingCall) error {
	site := call.site
	candidates, err := b.catalog.Resolve(site.SiteRef())
	if err != nil || len(candidates) == 0 {
		bc.tree.pruned[PruneUnresolved]++
		if err != nil {
			bc.tree.warn("%s@%d: %v", site.Caller, site.BCI, err)
		}
		return nil
	}
	if site.Block.Frequency < b.opts.ColdBlockFrequency {
		bc.tree.pruned[PruneColdBlock] += len(candidates)
		return nil
	}

	ratio := 1.0
	if entry := g.EntryFrequency(); entry > 0 {
		ratio = float64(site.Block.Frequency) / float64(entry)
	}
	ratio /= float64(len(candidates))

	for _, callee := range candidates {
		child, ok := b.addChild(bc, id, callee, ratio)
		if !ok {
			continue
		}
		child.CallSiteBCI = site.BCI
		child.Args = site.Args
		if err := b.expand(bc, child.ID); err != nil {
			return err
		}
		child.StaticBenefit = b.estimator.StaticBenefit(child.Summary, child.Args)
	}
	return nil
}

// admit applies the pruning rules to a prospective child of parent.
func (b *Builder) admit(bc *buildContext, parent *Node, callee *inliner.Method, ratio float64) (PruneReason, bool) {
	switch {
	case callee.ByteSize > parent.Budget:
		return PruneBudget, false
	case bc.onStack(callee.ID):
		return PruneRecursion, false
	case parent.RootCallRatio*ratio < b.opts.MinRootCallRatio:
		return PruneLowValue, false
	case b.opts.MaxDepth > 0 && bc.tree.Depth(parent.ID)+1 > b.opts.MaxDepth:
		return PruneDepth, false
	}
	return 0, true
}

// addChild creates a child of node id for callee if it passes the pruning
// rules.
func (b *Builder) addChild(bc *buildContext, id NodeID, callee *inliner.Method, ratio float64) (*Node, bool) {
	parent := bc.tree.Node(id)
	if reason, ok := b.admit(bc, parent, callee, ratio); !ok {
		bc.tree.pruned[reason]++
		if reason == PruneRecursion {
			bc.cutAbove(callee.ID)
		}
		bc.log.With(map[string]any{
			"parent": int(id),
			"callee": string(callee.ID),
			"reason": reason.String(),
		}).Debugf("Call pruned")
		return nil, false
	}
	child := bc.tree.add(id, callee)
	child.Budget = parent.Budget - callee.ByteSize
	child.CallRatio = ratio
	child.RootCallRatio = parent.RootCallRatio * ratio
	return child, true
}

// cloneSubtree gives node dst the summary of the memoized node src and
// copies src's children under it. Every copied child passes the pruning
// rules again against dst's budget, ratio and call stack; subtrees that fail
// are cut. Only subtrees that no recursion prune shaped are memoized, so a
// clone never lacks a call that would be legal under dst.
func (b *Builder) cloneSubtree(bc *buildContext, src, dst NodeID) {
	s, d := bc.tree.Node(src), bc.tree.Node(dst)
	d.Summary = s.Summary
	d.Status = s.Status

	bc.push(d.Method.ID)
	defer bc.pop()

	for _, cid := range s.Children {
		c := bc.tree.Node(cid)
		child, ok := b.addChild(bc, dst, c.Method, c.CallRatio)
		if !ok {
			continue
		}
		child.CallSiteBCI = c.CallSiteBCI
		child.Args = c.Args
		child.StaticBenefit = c.StaticBenefit
		b.cloneSubtree(bc, cid, child.ID)
	}
}
