// Package absinterp implements the abstract interpreter that walks a
// method's control flow graph over an abstract value domain, recording the
// predicates under which branches and type tests on incoming arguments
// would fold, and reporting call sites to a visitor.
package absinterp

import (
	"context"
	"errors"
	"fmt"

	inliner "github.com/themaplelab/openj9-omr-sub000"
	"github.com/themaplelab/openj9-omr-sub000/pkg/logging"
)

// ErrUnsupportedOpcode reports an instruction the interpreter cannot model
// at all (jsr/ret subroutines). It aborts the whole method.
var ErrUnsupportedOpcode = errors.New("unsupported opcode")

// Interpreter runs abstract interpretation over one method at a time. It
// holds no per-method state and may be reused.
type Interpreter struct {
	opts   Options
	oracle inliner.SubtypeOracle
	logger logging.Logger
}

// NewInterpreter creates an interpreter. oracle may be nil, in which case
// type tests are only refined for identical classes.
func NewInterpreter(opts Options, oracle inliner.SubtypeOracle, logger logging.Logger) *Interpreter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Interpreter{opts: opts, oracle: oracle, logger: logger}
}

// Result is the outcome of interpreting one method.
type Result struct {
	Summary *Summary

	// States holds the exit state of every block indexed by block ID; nil
	// for blocks that are unreachable.
	States []*State

	Warnings []string
}

// frame is the per-method context shared by the transformers.
type frame struct {
	in       *Interpreter
	method   *inliner.Method
	block    *inliner.Block
	summary  *Summary
	visitor  CallSiteVisitor
	warnings []string
}

func (fr *frame) warn(format string, args ...any) {
	if fr.in.opts.EnableWarnings {
		fr.warnings = append(fr.warnings, fmt.Sprintf(format, args...))
	}
}

// unresolved handles a reference that only the VM could resolve: it fails
// in strict mode and otherwise records a warning so the caller degrades the
// result to top.
func (fr *frame) unresolved(ins *inliner.Instruction) error {
	if fr.in.opts.StrictMode {
		return fmt.Errorf("%w: %s", inliner.ErrUnresolvedSymbol, ins.Ref)
	}
	fr.warn("bci %d: unresolved %s, widening to top", ins.BCI, ins.Ref)
	return nil
}

// Run interprets m over g, reporting call sites to v (nil records nothing).
// Blocks are visited once, in reverse postorder.
func (in *Interpreter) Run(ctx context.Context, m *inliner.Method, g *inliner.Graph, v CallSiteVisitor) (*Result, error) {
	if v == nil {
		v = NopVisitor{}
	}
	log := in.logger.With(map[string]any{"method": string(m.ID)})

	order := g.ReversePostOrder()
	reachable := make([]bool, len(g.Blocks))
	for _, b := range order {
		reachable[b.ID] = true
	}

	fr := &frame{in: in, method: m, summary: NewSummary(m.ID), visitor: v}
	states := make([]*State, len(g.Blocks))
	written := writtenLocals(g)

	log.With(map[string]any{"blocks": len(g.Blocks), "reachable": len(order)}).Debugf("Starting abstract interpretation")

	for _, b := range order {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		st, how := in.entryState(m, g, b, states, reachable, written)
		if st == nil {
			continue
		}
		log.With(map[string]any{
			"block": b.ID,
			"entry": how,
			"depth": st.Depth(),
		}).Debugf("Interpreting block")

		fr.block = b
		for i := range b.Instructions {
			ins := &b.Instructions[i]
			if err := fr.step(st, ins); err != nil {
				log.With(map[string]any{"bci": ins.BCI, "op": ins.Op.String()}).Infof("Interpretation aborted: %v", err)
				return nil, fmt.Errorf("%s at bci %d (%s): %w", m.ID, ins.BCI, ins.Op, err)
			}
		}
		states[b.ID] = st
	}

	log.With(map[string]any{
		"predicates": fr.summary.Len(),
		"warnings":   len(fr.warnings),
	}).Debugf("Interpretation completed")

	return &Result{Summary: fr.summary, States: states, Warnings: fr.warnings}, nil
}

// writtenLocals flags every local slot that some store or iinc in g may
// overwrite.
func writtenLocals(g *inliner.Graph) []bool {
	var written []bool
	mark := func(i int) {
		if i < 0 {
			return
		}
		for len(written) <= i {
			written = append(written, false)
		}
		written[i] = true
	}
	for _, b := range g.Blocks {
		for i := range b.Instructions {
			ins := &b.Instructions[i]
			switch op := ins.Op; {
			case op == inliner.Iinc:
				mark(ins.Index)
			case op >= inliner.Istore && op <= inliner.Astore3:
				n := ins.Local()
				mark(n)
				switch {
				case op == inliner.Lstore, op == inliner.Dstore,
					op >= inliner.Lstore0 && op <= inliner.Lstore3,
					op >= inliner.Dstore0 && op <= inliner.Dstore3:
					mark(n + 1)
				}
			}
		}
	}
	return written
}

// entryState computes the state on entry to b from its predecessors. It
// returns nil for blocks without an interpreted predecessor.
func (in *Interpreter) entryState(m *inliner.Method, g *inliner.Graph, b *inliner.Block, states []*State, reachable []bool, written []bool) (*State, string) {
	var ready []*State
	pending := false
	for _, p := range b.Preds {
		if !reachable[p] {
			continue
		}
		if states[p] == nil {
			pending = true
			continue
		}
		ready = append(ready, states[p])
	}

	if b.ID == g.Entry {
		st := EntryState(m)
		if pending || len(ready) > 0 {
			// The entry block heads a loop.
			return st.Widen(written), "widen"
		}
		return st, "params"
	}

	switch {
	case len(ready) == 0:
		return nil, ""
	case pending:
		return ready[0].Widen(written), "widen"
	case len(ready) == 1:
		return ready[0].Copy(), "copy"
	}
	st := ready[0].Copy()
	for _, o := range ready[1:] {
		st.Merge(o)
	}
	return st, "merge"
}

// step applies the transformer for one instruction.
func (fr *frame) step(st *State, ins *inliner.Instruction) error {
	t := transfers[ins.Op]
	if t == nil {
		return fmt.Errorf("%w: unknown opcode %s", ErrVerify, ins.Op)
	}
	if err := t(fr, st, ins); err != nil {
		return err
	}
	if limit := fr.in.opts.MaxStackDepth; limit > 0 && st.Depth() > limit {
		return fmt.Errorf("%w: stack depth %d exceeds %d", ErrVerify, st.Depth(), limit)
	}
	return nil
}
