package absinterp

import (
	"fmt"
	"unicode/utf16"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

func initControl(t *[256]transfer) {
	zeroTests := map[inliner.Opcode]FoldKind{
		inliner.Ifeq: IfEq,
		inliner.Ifne: IfNe,
		inliner.Iflt: IfLt,
		inliner.Ifge: IfGe,
		inliner.Ifgt: IfGt,
		inliner.Ifle: IfLe,
	}
	for op, fold := range zeroTests {
		t[op] = compareZero(fold)
	}
	for op := inliner.IfIcmpeq; op <= inliner.IfIcmple; op++ {
		t[op] = popValues(KindInt32, KindInt32)
	}
	t[inliner.IfAcmpeq] = popValues(KindReference, KindReference)
	t[inliner.IfAcmpne] = popValues(KindReference, KindReference)
	t[inliner.Ifnull] = compareNull(IfNull)
	t[inliner.Ifnonnull] = compareNull(IfNonNull)
	t[inliner.Goto] = popValues()
	t[inliner.GotoW] = popValues()
	t[inliner.Jsr] = subroutine
	t[inliner.JsrW] = subroutine
	t[inliner.Ret] = subroutine
	t[inliner.Tableswitch] = popValues(KindInt32)
	t[inliner.Lookupswitch] = popValues(KindInt32)

	t[inliner.Ireturn] = popValues(KindInt32)
	t[inliner.Lreturn] = popValues(KindInt64)
	t[inliner.Freturn] = popValues(KindFloat)
	t[inliner.Dreturn] = popValues(KindDouble)
	t[inliner.Areturn] = popValues(KindReference)
	t[inliner.Return] = popValues()

	t[inliner.Wide] = func(_ *frame, _ *State, ins *inliner.Instruction) error {
		return fmt.Errorf("%w: undecoded wide prefix", ErrVerify)
	}

	for op := inliner.Invokevirtual; op <= inliner.Invokedynamic; op++ {
		t[op] = invoke
	}
}

// popValues pops one value of each kind, last kind first, and pushes
// nothing.
func popValues(kinds ...Kind) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		for i := len(kinds) - 1; i >= 0; i-- {
			if _, err := st.pop(kinds[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

func compareZero(fold FoldKind) transfer {
	return func(fr *frame, st *State, _ *inliner.Instruction) error {
		v, err := st.pop(KindInt32)
		if err != nil {
			return err
		}
		if k, ok := v.Param(); ok {
			fr.summary.addBranch(k, fold)
		}
		return nil
	}
}

func compareNull(fold FoldKind) transfer {
	return func(fr *frame, st *State, _ *inliner.Instruction) error {
		v, err := st.pop(KindReference)
		if err != nil {
			return err
		}
		if k, ok := v.Param(); ok {
			fr.summary.addNullTest(k, fold)
		}
		return nil
	}
}

func subroutine(_ *frame, _ *State, ins *inliner.Instruction) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOpcode, ins.Op)
}

func invoke(fr *frame, st *State, ins *inliner.Instruction) error {
	kind, _ := inliner.InvokeKindOf(ins.Op)
	if kind == inliner.InvokeDynamic {
		return fmt.Errorf("%w: invokedynamic call site", inliner.ErrUnresolvedSymbol)
	}
	ref := ins.Ref
	if ref == nil || ref.Kind != inliner.RefMethod {
		return fmt.Errorf("%w: %s without method reference", ErrVerify, ins.Op)
	}
	sig, err := inliner.ParseMethodDescriptor(ref.Descriptor)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}

	first := 0
	if kind.HasReceiver() {
		first = 1
	}
	args := make([]Value, first+len(sig.Params))
	for i := len(sig.Params) - 1; i >= 0; i-- {
		v, err := st.pop(KindOf(sig.Params[i].Sort))
		if err != nil {
			return err
		}
		args[first+i] = v
	}
	if kind.HasReceiver() {
		recv, err := st.pop(KindReference)
		if err != nil {
			return err
		}
		if k, ok := recv.Param(); ok {
			fr.summary.addNullCheck(k)
		}
		args[0] = recv
	}

	site := &CallSite{
		Caller: fr.method,
		Block:  fr.block,
		BCI:    ins.BCI,
		Kind:   kind,
		Ref:    ref,
		Args:   args,
		Return: sig.Return,
	}

	var ret Value
	if ref.Unresolved {
		if err := fr.unresolved(ins); err != nil {
			return err
		}
		ret = site.ReturnTop()
	} else {
		ret = fr.visitor.OnCall(site)
		if v, ok := intrinsic(site); ok {
			ret = v
		}
	}

	if sig.Return.Sort == inliner.SortVoid {
		return nil
	}
	if want := KindOf(sig.Return.Sort); ret.Kind != want || ret.Padding {
		fr.warn("bci %d: visitor returned %s for %s, using top", ins.BCI, ret, sig.Return)
		ret = Top(want)
	}
	st.push(ret.Opaque())
	return nil
}

// intrinsic evaluates the few library calls whose result is known from
// the arguments alone.
func intrinsic(site *CallSite) (Value, bool) {
	ref := site.Ref
	switch {
	case ref.Class == StringClass && ref.Name == "length" && ref.Descriptor == "()I":
		if f := site.Args[0].Fact; f != nil && f.Kind == FactString {
			return IntConst(int32(len(utf16.Encode([]rune(f.Str))))), true
		}
	case ref.Name == "getClass" && ref.Descriptor == "()Ljava/lang/Class;" && site.Kind.HasReceiver():
		return Known(KindReference, FixedObject("java/lang/Class")), true
	}
	return Value{}, false
}
