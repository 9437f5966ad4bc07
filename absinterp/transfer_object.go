package absinterp

import (
	"fmt"
	"math"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

func initObjects(t *[256]transfer) {
	t[inliner.Getstatic] = fieldAccess(false, false)
	t[inliner.Putstatic] = fieldAccess(false, true)
	t[inliner.Getfield] = fieldAccess(true, false)
	t[inliner.Putfield] = fieldAccess(true, true)

	t[inliner.New] = newObject
	t[inliner.Newarray] = newPrimitiveArray
	t[inliner.Anewarray] = newObjectArray
	t[inliner.Multianewarray] = newMultiArray
	t[inliner.Arraylength] = arrayLength
	t[inliner.Athrow] = throw

	t[inliner.Checkcast] = checkCast
	t[inliner.Instanceof] = instanceOf

	t[inliner.Monitorenter] = popValues(KindReference)
	t[inliner.Monitorexit] = popValues(KindReference)
}

// fieldAccess models the four field instructions. Field contents are never
// tracked, so loads always produce top of the declared kind.
func fieldAccess(instance, put bool) transfer {
	return func(fr *frame, st *State, ins *inliner.Instruction) error {
		ref := ins.Ref
		if ref == nil || ref.Kind != inliner.RefField {
			return fmt.Errorf("%w: %s without field reference", ErrVerify, ins.Op)
		}
		typ, err := inliner.ParseFieldDescriptor(ref.Descriptor)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrVerify, err)
		}
		if ref.Unresolved {
			if err := fr.unresolved(ins); err != nil {
				return err
			}
		}
		k := KindOf(typ.Sort)
		if put {
			if _, err := st.pop(k); err != nil {
				return err
			}
		}
		if instance {
			obj, err := st.pop(KindReference)
			if err != nil {
				return err
			}
			if p, ok := obj.Param(); ok {
				fr.summary.addNullCheck(p)
			}
		}
		if !put {
			st.push(Top(k))
		}
		return nil
	}
}

func newObject(fr *frame, st *State, ins *inliner.Instruction) error {
	ref := ins.Ref
	if ref == nil || ref.Kind != inliner.RefClass {
		return fmt.Errorf("%w: new without class reference", ErrVerify)
	}
	if ref.Unresolved {
		if err := fr.unresolved(ins); err != nil {
			return err
		}
		st.push(Top(KindReference))
		return nil
	}
	st.push(Known(KindReference, FixedObject(ref.Class)))
	return nil
}

// arrayOf pushes an array of desc whose length is bounded by count. A count
// that is always negative throws, so nothing is known about the length.
func arrayOf(st *State, desc string, count Value) {
	lo, hi := int64(0), int64(math.MaxInt32)
	if f := count.Fact; f != nil && f.Kind == FactRange && f.Hi >= 0 {
		lo, hi = f.Lo, f.Hi
	}
	st.push(Known(KindReference, Array(desc, lo, hi)))
}

func newPrimitiveArray(_ *frame, st *State, ins *inliner.Instruction) error {
	desc, ok := inliner.PrimitiveArrayDescriptor(ins.Imm)
	if !ok {
		return fmt.Errorf("%w: newarray type code %d", ErrVerify, ins.Imm)
	}
	count, err := st.pop(KindInt32)
	if err != nil {
		return err
	}
	arrayOf(st, desc, count)
	return nil
}

func newObjectArray(_ *frame, st *State, ins *inliner.Instruction) error {
	ref := ins.Ref
	if ref == nil || ref.Kind != inliner.RefClass {
		return fmt.Errorf("%w: anewarray without class reference", ErrVerify)
	}
	count, err := st.pop(KindInt32)
	if err != nil {
		return err
	}
	arrayOf(st, inliner.ArrayDescriptor(ref.Class), count)
	return nil
}

// newMultiArray pops one count per dimension; the outermost count, deepest
// on the stack, bounds the length of the result.
func newMultiArray(_ *frame, st *State, ins *inliner.Instruction) error {
	ref := ins.Ref
	if ref == nil || ref.Kind != inliner.RefClass {
		return fmt.Errorf("%w: multianewarray without class reference", ErrVerify)
	}
	if ins.Imm < 1 {
		return fmt.Errorf("%w: multianewarray with %d dimensions", ErrVerify, ins.Imm)
	}
	counts, err := st.popN(KindInt32, int(ins.Imm))
	if err != nil {
		return err
	}
	arrayOf(st, ref.Class, counts[0])
	return nil
}

func arrayLength(fr *frame, st *State, _ *inliner.Instruction) error {
	arr, err := st.pop(KindReference)
	if err != nil {
		return err
	}
	if k, ok := arr.Param(); ok {
		fr.summary.addNullCheck(k)
	}
	if f := arr.Fact; f != nil && f.Kind == FactArray {
		st.push(Known(KindInt32, Range(f.Lo, f.Hi)))
		return nil
	}
	st.push(Known(KindInt32, Range(0, math.MaxInt32)))
	return nil
}

func throw(_ *frame, st *State, _ *inliner.Instruction) error {
	if _, err := st.pop(KindReference); err != nil {
		return err
	}
	st.clearStack()
	return nil
}

// isInstance decides whether a non-null value described by f is an
// instance of class.
func (fr *frame) isInstance(f *Fact, class string) inliner.Tristate {
	if f == nil || !f.IsNonNull() {
		return inliner.Maybe
	}
	if f.Class == class || class == "java/lang/Object" {
		return inliner.Yes
	}
	if fr.in.oracle == nil || f.Class == "" {
		return inliner.Maybe
	}
	switch fr.in.oracle.IsSubtype(f.Class, class) {
	case inliner.Yes:
		return inliner.Yes
	case inliner.No:
		if f.Fixed {
			return inliner.No
		}
	}
	return inliner.Maybe
}

func checkCast(fr *frame, st *State, ins *inliner.Instruction) error {
	ref := ins.Ref
	if ref == nil || ref.Kind != inliner.RefClass {
		return fmt.Errorf("%w: checkcast without class reference", ErrVerify)
	}
	if ref.Unresolved {
		if err := fr.unresolved(ins); err != nil {
			return err
		}
	}
	v, err := st.pop(KindReference)
	if err != nil {
		return err
	}
	if k, ok := v.Param(); ok {
		fr.summary.addTypeTest(k, CheckCast, ref.Class)
	}
	res := v.Opaque()
	switch f := v.Fact; {
	case f != nil && f.Kind == FactNull:
	case fr.isInstance(f, ref.Class) == inliner.Yes:
	case ref.Unresolved:
		res = Top(KindReference)
	default:
		res = Known(KindReference, &Fact{Kind: FactObject, Class: ref.Class, NonNull: f.IsNonNull()})
	}
	st.push(res)
	return nil
}

func instanceOf(fr *frame, st *State, ins *inliner.Instruction) error {
	ref := ins.Ref
	if ref == nil || ref.Kind != inliner.RefClass {
		return fmt.Errorf("%w: instanceof without class reference", ErrVerify)
	}
	if ref.Unresolved {
		if err := fr.unresolved(ins); err != nil {
			return err
		}
	}
	v, err := st.pop(KindReference)
	if err != nil {
		return err
	}
	if k, ok := v.Param(); ok {
		fr.summary.addTypeTest(k, InstanceOf, ref.Class)
	}
	f := v.Fact
	switch {
	case f != nil && f.Kind == FactNull:
		st.push(IntConst(0))
	case fr.isInstance(f, ref.Class) == inliner.Yes:
		st.push(IntConst(1))
	case fr.isInstance(f, ref.Class) == inliner.No:
		st.push(IntConst(0))
	default:
		st.push(Known(KindInt32, Range(0, 1)))
	}
	return nil
}
