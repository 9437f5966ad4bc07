package absinterp

import (
	inliner "github.com/themaplelab/openj9-omr-sub000"
)

func initArithmetic(t *[256]transfer) {
	t[inliner.Iadd] = intBinary(func(a, b int32) (int32, bool) { return a + b, true })
	t[inliner.Isub] = intBinary(func(a, b int32) (int32, bool) { return a - b, true })
	t[inliner.Imul] = intBinary(func(a, b int32) (int32, bool) { return a * b, true })
	t[inliner.Idiv] = intBinary(func(a, b int32) (int32, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	})
	t[inliner.Irem] = intBinary(func(a, b int32) (int32, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	})
	t[inliner.Ishl] = intBinary(func(a, b int32) (int32, bool) { return a << uint32(b&31), true })
	t[inliner.Ishr] = intBinary(func(a, b int32) (int32, bool) { return a >> uint32(b&31), true })
	t[inliner.Iushr] = intBinary(func(a, b int32) (int32, bool) { return int32(uint32(a) >> uint32(b&31)), true })
	t[inliner.Iand] = intBinary(func(a, b int32) (int32, bool) { return a & b, true })
	t[inliner.Ior] = intBinary(func(a, b int32) (int32, bool) { return a | b, true })
	t[inliner.Ixor] = intBinary(func(a, b int32) (int32, bool) { return a ^ b, true })
	t[inliner.Ineg] = intUnary

	t[inliner.Ladd] = longBinary(func(a, b int64) (int64, bool) { return a + b, true })
	t[inliner.Lsub] = longBinary(func(a, b int64) (int64, bool) { return a - b, true })
	t[inliner.Lmul] = longBinary(func(a, b int64) (int64, bool) { return a * b, true })
	t[inliner.Ldiv] = longBinary(func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	})
	t[inliner.Lrem] = longBinary(func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	})
	t[inliner.Land] = longBinary(func(a, b int64) (int64, bool) { return a & b, true })
	t[inliner.Lor] = longBinary(func(a, b int64) (int64, bool) { return a | b, true })
	t[inliner.Lxor] = longBinary(func(a, b int64) (int64, bool) { return a ^ b, true })
	t[inliner.Lshl] = longShift(func(a int64, s uint32) int64 { return a << s })
	t[inliner.Lshr] = longShift(func(a int64, s uint32) int64 { return a >> s })
	t[inliner.Lushr] = longShift(func(a int64, s uint32) int64 { return int64(uint64(a) >> s) })
	t[inliner.Lneg] = longUnary

	for _, op := range []inliner.Opcode{inliner.Fadd, inliner.Fsub, inliner.Fmul, inliner.Fdiv, inliner.Frem} {
		t[op] = opaqueBinary(KindFloat, KindFloat)
	}
	for _, op := range []inliner.Opcode{inliner.Dadd, inliner.Dsub, inliner.Dmul, inliner.Ddiv, inliner.Drem} {
		t[op] = opaqueBinary(KindDouble, KindDouble)
	}
	t[inliner.Fneg] = convert(KindFloat, KindFloat, nil)
	t[inliner.Dneg] = convert(KindDouble, KindDouble, nil)

	// Conversions. Integer constants convert exactly; everything else
	// becomes top of the destination kind.
	t[inliner.I2l] = convert(KindInt32, KindInt64, func(x int64) int64 { return x })
	t[inliner.I2f] = convert(KindInt32, KindFloat, nil)
	t[inliner.I2d] = convert(KindInt32, KindDouble, nil)
	t[inliner.L2i] = convert(KindInt64, KindInt32, func(x int64) int64 { return int64(int32(x)) })
	t[inliner.L2f] = convert(KindInt64, KindFloat, nil)
	t[inliner.L2d] = convert(KindInt64, KindDouble, nil)
	t[inliner.F2i] = convert(KindFloat, KindInt32, nil)
	t[inliner.F2l] = convert(KindFloat, KindInt64, nil)
	t[inliner.F2d] = convert(KindFloat, KindDouble, nil)
	t[inliner.D2i] = convert(KindDouble, KindInt32, nil)
	t[inliner.D2l] = convert(KindDouble, KindInt64, nil)
	t[inliner.D2f] = convert(KindDouble, KindFloat, nil)
	t[inliner.I2b] = convert(KindInt32, KindInt32, func(x int64) int64 { return int64(int8(x)) })
	t[inliner.I2c] = convert(KindInt32, KindInt32, func(x int64) int64 { return int64(uint16(x)) })
	t[inliner.I2s] = convert(KindInt32, KindInt32, func(x int64) int64 { return int64(int16(x)) })

	// Comparisons.
	t[inliner.Lcmp] = longCompare
	t[inliner.Fcmpl] = opaqueBinary(KindFloat, KindInt32)
	t[inliner.Fcmpg] = opaqueBinary(KindFloat, KindInt32)
	t[inliner.Dcmpl] = opaqueBinary(KindDouble, KindInt32)
	t[inliner.Dcmpg] = opaqueBinary(KindDouble, KindInt32)
}

// intBinary folds an int operation when both operands are constants. fn
// reports false when the result is unknown (division by zero).
func intBinary(fn func(a, b int32) (int32, bool)) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		vs, err := st.popN(KindInt32, 2)
		if err != nil {
			return err
		}
		res := Top(KindInt32)
		a, aok := vs[0].Fact.IsConst()
		b, bok := vs[1].Fact.IsConst()
		if aok && bok {
			if r, ok := fn(int32(a), int32(b)); ok {
				res = IntConst(r)
			}
		}
		st.push(res)
		return nil
	}
}

func intUnary(_ *frame, st *State, _ *inliner.Instruction) error {
	v, err := st.pop(KindInt32)
	if err != nil {
		return err
	}
	res := Top(KindInt32)
	if c, ok := v.Fact.IsConst(); ok {
		res = IntConst(-int32(c))
	}
	st.push(res)
	return nil
}

func longBinary(fn func(a, b int64) (int64, bool)) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		b, err := st.pop(KindInt64)
		if err != nil {
			return err
		}
		a, err := st.pop(KindInt64)
		if err != nil {
			return err
		}
		res := Top(KindInt64)
		x, xok := a.Fact.IsConst()
		y, yok := b.Fact.IsConst()
		if xok && yok {
			if r, ok := fn(x, y); ok {
				res = LongConst(r)
			}
		}
		st.push(res)
		return nil
	}
}

// longShift shifts a long by an int count masked to six bits.
func longShift(fn func(a int64, s uint32) int64) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		s, err := st.pop(KindInt32)
		if err != nil {
			return err
		}
		a, err := st.pop(KindInt64)
		if err != nil {
			return err
		}
		res := Top(KindInt64)
		x, xok := a.Fact.IsConst()
		n, nok := s.Fact.IsConst()
		if xok && nok {
			res = LongConst(fn(x, uint32(n)&63))
		}
		st.push(res)
		return nil
	}
}

func longUnary(_ *frame, st *State, _ *inliner.Instruction) error {
	v, err := st.pop(KindInt64)
	if err != nil {
		return err
	}
	res := Top(KindInt64)
	if c, ok := v.Fact.IsConst(); ok {
		res = LongConst(-c)
	}
	st.push(res)
	return nil
}

func longCompare(_ *frame, st *State, _ *inliner.Instruction) error {
	b, err := st.pop(KindInt64)
	if err != nil {
		return err
	}
	a, err := st.pop(KindInt64)
	if err != nil {
		return err
	}
	res := Known(KindInt32, Range(-1, 1))
	x, xok := a.Fact.IsConst()
	y, yok := b.Fact.IsConst()
	if xok && yok {
		switch {
		case x < y:
			res = IntConst(-1)
		case x > y:
			res = IntConst(1)
		default:
			res = IntConst(0)
		}
	}
	st.push(res)
	return nil
}

// opaqueBinary pops two operands of kind in and pushes top of kind out;
// comparisons producing -1, 0 or 1 push that range instead.
func opaqueBinary(in, out Kind) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		if _, err := st.pop(in); err != nil {
			return err
		}
		if _, err := st.pop(in); err != nil {
			return err
		}
		if out == KindInt32 {
			st.push(Known(KindInt32, Range(-1, 1)))
			return nil
		}
		st.push(Top(out))
		return nil
	}
}

// convert pops a value of kind from and pushes one of kind to. With a
// non-nil fn an integer constant operand converts exactly.
func convert(from, to Kind, fn func(int64) int64) transfer {
	return func(_ *frame, st *State, _ *inliner.Instruction) error {
		v, err := st.pop(from)
		if err != nil {
			return err
		}
		res := Top(to)
		if c, ok := v.Fact.IsConst(); ok && fn != nil {
			res = Known(to, Const(fn(c)))
		}
		st.push(res)
		return nil
	}
}
