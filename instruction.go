package inliner

import (
	"fmt"
	"strings"
)

// RefKind classifies a constant pool entry referenced by an instruction.
type RefKind uint8

const (
	RefClass RefKind = iota + 1
	RefField
	RefMethod
	RefString
	RefInt
	RefLong
	RefFloat
	RefDouble
)

func (k RefKind) String() string {
	switch k {
	case RefClass:
		return "class"
	case RefField:
		return "field"
	case RefMethod:
		return "method"
	case RefString:
		return "string"
	case RefInt:
		return "int"
	case RefLong:
		return "long"
	case RefFloat:
		return "float"
	case RefDouble:
		return "double"
	default:
		return "unknown"
	}
}

// SymbolRef is the symbolic operand of an instruction: a class, field or
// method reference, or a loadable constant.
type SymbolRef struct {
	Kind       RefKind
	Class      string // internal class name, e.g. java/lang/String
	Name       string // field or method name
	Descriptor string // field or method descriptor
	Str        string // value of a string constant

	// Unresolved marks a reference the VM has not resolved yet. Only
	// information available from the constant pool itself may be used.
	Unresolved bool
}

func (r *SymbolRef) String() string {
	if r == nil {
		return "<nil>"
	}
	switch r.Kind {
	case RefField:
		return r.Class + "." + r.Name + ":" + r.Descriptor
	case RefMethod:
		return r.Class + "." + r.Name + r.Descriptor
	case RefString:
		return fmt.Sprintf("%q", r.Str)
	case RefClass:
		return r.Class
	default:
		return r.Kind.String()
	}
}

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	BCI    int
	Op     Opcode
	Index  int        // local variable slot (loads, stores, iinc, ret)
	Imm    int64      // immediate: push value, iinc delta, ldc integer, newarray type, dimensions
	Target int        // branch target offset
	Cases  []int      // switch case targets; Target holds the default
	Ref    *SymbolRef // constant pool operand
}

// Local returns the local variable slot accessed by a load or store,
// including the implicit slot of the xload_<n> and xstore_<n> forms.
func (ins *Instruction) Local() int {
	switch op := ins.Op; {
	case op >= Iload0 && op <= Aload3:
		return int(op-Iload0) % 4
	case op >= Istore0 && op <= Astore3:
		return int(op-Istore0) % 4
	}
	return ins.Index
}

func (ins *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %s", ins.BCI, ins.Op)
	switch op := ins.Op; {
	case op == Bipush || op == Sipush || op == Newarray:
		fmt.Fprintf(&b, " %d", ins.Imm)
	case op == Iinc:
		fmt.Fprintf(&b, " %d %d", ins.Index, ins.Imm)
	case op >= Iload && op <= Aload, op >= Istore && op <= Astore, op == Ret:
		fmt.Fprintf(&b, " %d", ins.Index)
	case op == Tableswitch || op == Lookupswitch:
		fmt.Fprintf(&b, " default=%d cases=%v", ins.Target, ins.Cases)
	case op.IsBranch():
		fmt.Fprintf(&b, " %d", ins.Target)
	case ins.Ref != nil:
		if ins.Ref.Kind == RefInt || ins.Ref.Kind == RefLong {
			fmt.Fprintf(&b, " %d", ins.Imm)
		} else {
			b.WriteString(" " + ins.Ref.String())
		}
		if op == Multianewarray {
			fmt.Fprintf(&b, " %d", ins.Imm)
		}
	}
	return b.String()
}

// InvokeKind is the dispatch flavor of a call instruction.
type InvokeKind uint8

const (
	InvokeVirtual InvokeKind = iota
	InvokeSpecial
	InvokeStatic
	InvokeInterface
	InvokeDynamic
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeVirtual:
		return "virtual"
	case InvokeSpecial:
		return "special"
	case InvokeStatic:
		return "static"
	case InvokeInterface:
		return "interface"
	case InvokeDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// HasReceiver reports whether calls of this kind pass an implicit receiver.
func (k InvokeKind) HasReceiver() bool {
	return k != InvokeStatic && k != InvokeDynamic
}

// InvokeKindOf maps an invoke opcode to its kind.
func InvokeKindOf(op Opcode) (InvokeKind, bool) {
	switch op {
	case Invokevirtual:
		return InvokeVirtual, true
	case Invokespecial:
		return InvokeSpecial, true
	case Invokestatic:
		return InvokeStatic, true
	case Invokeinterface:
		return InvokeInterface, true
	case Invokedynamic:
		return InvokeDynamic, true
	}
	return 0, false
}
