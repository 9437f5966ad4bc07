package absinterp

import (
	"fmt"
	"math"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

// transfer applies one instruction to the state of the block being
// interpreted. Only branch and call transformers touch the summary or the
// visitor.
type transfer func(fr *frame, st *State, ins *inliner.Instruction) error

// transfers maps every opcode to its transformer; nil entries are invalid
// opcodes.
var transfers [256]transfer

func init() {
	t := &transfers

	// Constants.
	t[inliner.Nop] = func(*frame, *State, *inliner.Instruction) error { return nil }
	t[inliner.AconstNull] = pushValue(NullRef())
	for op := inliner.IconstM1; op <= inliner.Iconst5; op++ {
		t[op] = pushValue(IntConst(int32(op) - int32(inliner.Iconst0)))
	}
	t[inliner.Lconst0] = pushValue(LongConst(0))
	t[inliner.Lconst1] = pushValue(LongConst(1))
	for op := inliner.Fconst0; op <= inliner.Fconst2; op++ {
		t[op] = pushValue(Top(KindFloat))
	}
	t[inliner.Dconst0] = pushValue(Top(KindDouble))
	t[inliner.Dconst1] = pushValue(Top(KindDouble))
	t[inliner.Bipush] = pushImmediate
	t[inliner.Sipush] = pushImmediate
	t[inliner.Ldc] = loadConstant
	t[inliner.LdcW] = loadConstant
	t[inliner.Ldc2W] = loadConstant

	// Locals.
	kinds := [...]Kind{KindInt32, KindInt64, KindFloat, KindDouble, KindReference}
	for i, k := range kinds {
		t[inliner.Iload+inliner.Opcode(i)] = loadLocal(k)
		t[inliner.Istore+inliner.Opcode(i)] = storeLocal(k)
		for n := 0; n < 4; n++ {
			t[inliner.Iload0+inliner.Opcode(4*i+n)] = loadLocal(k)
			t[inliner.Istore0+inliner.Opcode(4*i+n)] = storeLocal(k)
		}
	}
	t[inliner.Iinc] = increment

	// Array elements.
	t[inliner.Iaload] = arrayLoad(Top(KindInt32))
	t[inliner.Laload] = arrayLoad(Top(KindInt64))
	t[inliner.Faload] = arrayLoad(Top(KindFloat))
	t[inliner.Daload] = arrayLoad(Top(KindDouble))
	t[inliner.Aaload] = arrayLoad(Top(KindReference))
	t[inliner.Baload] = arrayLoad(Known(KindInt32, Range(math.MinInt8, math.MaxInt8)))
	t[inliner.Caload] = arrayLoad(Known(KindInt32, Range(0, math.MaxUint16)))
	t[inliner.Saload] = arrayLoad(Known(KindInt32, Range(math.MinInt16, math.MaxInt16)))
	t[inliner.Iastore] = arrayStore(KindInt32)
	t[inliner.Lastore] = arrayStore(KindInt64)
	t[inliner.Fastore] = arrayStore(KindFloat)
	t[inliner.Dastore] = arrayStore(KindDouble)
	t[inliner.Aastore] = arrayStore(KindReference)
	t[inliner.Bastore] = arrayStore(KindInt32)
	t[inliner.Castore] = arrayStore(KindInt32)
	t[inliner.Sastore] = arrayStore(KindInt32)

	// Operand stack.
	t[inliner.Pop] = popOne
	t[inliner.Pop2] = shuffle(2, []int{1})
	t[inliner.Dup] = dupOne
	t[inliner.DupX1] = shuffle(2, []int{0, 1}, 0, 1, 0)
	t[inliner.DupX2] = shuffle(3, []int{0, 2}, 0, 2, 1, 0)
	t[inliner.Dup2] = shuffle(2, []int{1}, 1, 0, 1, 0)
	t[inliner.Dup2X1] = shuffle(3, []int{1, 2}, 1, 0, 2, 1, 0)
	t[inliner.Dup2X2] = shuffle(4, []int{1, 3}, 1, 0, 3, 2, 1, 0)
	t[inliner.Swap] = shuffle(2, []int{0, 1}, 0, 1)

	initArithmetic(t)
	initControl(t)
	initObjects(t)
}

func pushValue(v Value) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		st.push(v)
		return nil
	}
}

func pushImmediate(_ *frame, st *State, ins *inliner.Instruction) error {
	st.push(IntConst(int32(ins.Imm)))
	return nil
}

func loadConstant(fr *frame, st *State, ins *inliner.Instruction) error {
	ref := ins.Ref
	if ref == nil {
		return fmt.Errorf("%w: %s without constant", ErrVerify, ins.Op)
	}
	switch ref.Kind {
	case inliner.RefInt:
		st.push(IntConst(int32(ins.Imm)))
	case inliner.RefLong:
		st.push(LongConst(ins.Imm))
	case inliner.RefFloat:
		st.push(Top(KindFloat))
	case inliner.RefDouble:
		st.push(Top(KindDouble))
	case inliner.RefString:
		st.push(Known(KindReference, String(ref.Str)))
	case inliner.RefClass:
		if ref.Unresolved {
			if err := fr.unresolved(ins); err != nil {
				return err
			}
			st.push(Top(KindReference))
			return nil
		}
		st.push(Known(KindReference, FixedObject("java/lang/Class")))
	default:
		return fmt.Errorf("%w: %s of %s constant", ErrVerify, ins.Op, ref.Kind)
	}
	return nil
}

// loadLocal pushes the local unchanged; the formal parameter marker of a
// direct argument load survives.
func loadLocal(k Kind) transfer {
	return func(_ *frame, st *State, ins *inliner.Instruction) error {
		v, err := st.load(ins.Local(), k)
		if err != nil {
			return err
		}
		st.push(v)
		return nil
	}
}

func storeLocal(k Kind) transfer {
	return func(_ *frame, st *State, ins *inliner.Instruction) error {
		v, err := st.pop(k)
		if err != nil {
			return err
		}
		st.store(ins.Local(), v)
		return nil
	}
}

func increment(_ *frame, st *State, ins *inliner.Instruction) error {
	v, err := st.load(ins.Index, KindInt32)
	if err != nil {
		return err
	}
	res := Top(KindInt32)
	if c, ok := v.Fact.IsConst(); ok {
		res = IntConst(int32(c) + int32(ins.Imm))
	}
	st.store(ins.Index, res)
	return nil
}

func arrayLoad(elem Value) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		if _, err := st.pop(KindInt32); err != nil {
			return err
		}
		if _, err := st.pop(KindReference); err != nil {
			return err
		}
		st.push(elem)
		return nil
	}
}

func arrayStore(k Kind) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		if _, err := st.pop(k); err != nil {
			return err
		}
		if _, err := st.pop(KindInt32); err != nil {
			return err
		}
		_, err := st.pop(KindReference)
		return err
	}
}

func popOne(_ *frame, st *State, ins *inliner.Instruction) error {
	v, err := st.popSlot()
	if err != nil {
		return err
	}
	if v.Padding {
		return fmt.Errorf("%w: %s splits a 64-bit value", ErrVerify, ins.Op)
	}
	return nil
}

func dupOne(_ *frame, st *State, ins *inliner.Instruction) error {
	v, err := st.popSlot()
	if err != nil {
		return err
	}
	if v.Padding {
		return fmt.Errorf("%w: %s splits a 64-bit value", ErrVerify, ins.Op)
	}
	st.pushSlot(v)
	st.pushSlot(v)
	return nil
}

// shuffle pops n slots and pushes them back in the order given by pattern,
// where 0 names the slot that was on top. Each index in bottoms is the
// deepest slot of one operand and must not hold a padding word. Slots are
// copied as they are, so the padding word travels with its value.
func shuffle(n int, bottoms []int, pattern ...int) transfer {
	return func(_ *frame, st *State, ins *inliner.Instruction) error {
		top := make([]Value, n)
		for i := 0; i < n; i++ {
			v, err := st.popSlot()
			if err != nil {
				return err
			}
			top[i] = v
		}
		for _, i := range bottoms {
			if top[i].Padding {
				return fmt.Errorf("%w: %s splits a 64-bit value", ErrVerify, ins.Op)
			}
		}
		for _, i := range pattern {
			st.pushSlot(top[i])
		}
		return nil
	}
}
