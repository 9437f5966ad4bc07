package inliner

import "fmt"

// Opcode is a JVM bytecode operation. The numeric values are the ones used
// in class files.
type Opcode uint8

const (
	Nop Opcode = iota // 0x00
	AconstNull        // 0x01
	IconstM1          // 0x02
	Iconst0           // 0x03
	Iconst1           // 0x04
	Iconst2           // 0x05
	Iconst3           // 0x06
	Iconst4           // 0x07
	Iconst5           // 0x08
	Lconst0           // 0x09
	Lconst1           // 0x0a
	Fconst0           // 0x0b
	Fconst1           // 0x0c
	Fconst2           // 0x0d
	Dconst0           // 0x0e
	Dconst1           // 0x0f
	Bipush            // 0x10
	Sipush            // 0x11
	Ldc               // 0x12
	LdcW              // 0x13
	Ldc2W             // 0x14
	Iload             // 0x15
	Lload             // 0x16
	Fload             // 0x17
	Dload             // 0x18
	Aload             // 0x19
	Iload0            // 0x1a
	Iload1            // 0x1b
	Iload2            // 0x1c
	Iload3            // 0x1d
	Lload0            // 0x1e
	Lload1            // 0x1f
	Lload2            // 0x20
	Lload3            // 0x21
	Fload0            // 0x22
	Fload1            // 0x23
	Fload2            // 0x24
	Fload3            // 0x25
	Dload0            // 0x26
	Dload1            // 0x27
	Dload2            // 0x28
	Dload3            // 0x29
	Aload0            // 0x2a
	Aload1            // 0x2b
	Aload2            // 0x2c
	Aload3            // 0x2d
	Iaload            // 0x2e
	Laload            // 0x2f
	Faload            // 0x30
	Daload            // 0x31
	Aaload            // 0x32
	Baload            // 0x33
	Caload            // 0x34
	Saload            // 0x35
	Istore            // 0x36
	Lstore            // 0x37
	Fstore            // 0x38
	Dstore            // 0x39
	Astore            // 0x3a
	Istore0           // 0x3b
	Istore1           // 0x3c
	Istore2           // 0x3d
	Istore3           // 0x3e
	Lstore0           // 0x3f
	Lstore1           // 0x40
	Lstore2           // 0x41
	Lstore3           // 0x42
	Fstore0           // 0x43
	Fstore1           // 0x44
	Fstore2           // 0x45
	Fstore3           // 0x46
	Dstore0           // 0x47
	Dstore1           // 0x48
	Dstore2           // 0x49
	Dstore3           // 0x4a
	Astore0           // 0x4b
	Astore1           // 0x4c
	Astore2           // 0x4d
	Astore3           // 0x4e
	Iastore           // 0x4f
	Lastore           // 0x50
	Fastore           // 0x51
	Dastore           // 0x52
	Aastore           // 0x53
	Bastore           // 0x54
	Castore           // 0x55
	Sastore           // 0x56
	Pop               // 0x57
	Pop2              // 0x58
	Dup               // 0x59
	DupX1             // 0x5a
	DupX2             // 0x5b
	Dup2              // 0x5c
	Dup2X1            // 0x5d
	Dup2X2            // 0x5e
	Swap              // 0x5f
	Iadd              // 0x60
	Ladd              // 0x61
	Fadd              // 0x62
	Dadd              // 0x63
	Isub              // 0x64
	Lsub              // 0x65
	Fsub              // 0x66
	Dsub              // 0x67
	Imul              // 0x68
	Lmul              // 0x69
	Fmul              // 0x6a
	Dmul              // 0x6b
	Idiv              // 0x6c
	Ldiv              // 0x6d
	Fdiv              // 0x6e
	Ddiv              // 0x6f
	Irem              // 0x70
	Lrem              // 0x71
	Frem              // 0x72
	Drem              // 0x73
	Ineg              // 0x74
	Lneg              // 0x75
	Fneg              // 0x76
	Dneg              // 0x77
	Ishl              // 0x78
	Lshl              // 0x79
	Ishr              // 0x7a
	Lshr              // 0x7b
	Iushr             // 0x7c
	Lushr             // 0x7d
	Iand              // 0x7e
	Land              // 0x7f
	Ior               // 0x80
	Lor               // 0x81
	Ixor              // 0x82
	Lxor              // 0x83
	Iinc              // 0x84
	I2l               // 0x85
	I2f               // 0x86
	I2d               // 0x87
	L2i               // 0x88
	L2f               // 0x89
	L2d               // 0x8a
	F2i               // 0x8b
	F2l               // 0x8c
	F2d               // 0x8d
	D2i               // 0x8e
	D2l               // 0x8f
	D2f               // 0x90
	I2b               // 0x91
	I2c               // 0x92
	I2s               // 0x93
	Lcmp              // 0x94
	Fcmpl             // 0x95
	Fcmpg             // 0x96
	Dcmpl             // 0x97
	Dcmpg             // 0x98
	Ifeq              // 0x99
	Ifne              // 0x9a
	Iflt              // 0x9b
	Ifge              // 0x9c
	Ifgt              // 0x9d
	Ifle              // 0x9e
	IfIcmpeq          // 0x9f
	IfIcmpne          // 0xa0
	IfIcmplt          // 0xa1
	IfIcmpge          // 0xa2
	IfIcmpgt          // 0xa3
	IfIcmple          // 0xa4
	IfAcmpeq          // 0xa5
	IfAcmpne          // 0xa6
	Goto              // 0xa7
	Jsr               // 0xa8
	Ret               // 0xa9
	Tableswitch       // 0xaa
	Lookupswitch      // 0xab
	Ireturn           // 0xac
	Lreturn           // 0xad
	Freturn           // 0xae
	Dreturn           // 0xaf
	Areturn           // 0xb0
	Return            // 0xb1
	Getstatic         // 0xb2
	Putstatic         // 0xb3
	Getfield          // 0xb4
	Putfield          // 0xb5
	Invokevirtual     // 0xb6
	Invokespecial     // 0xb7
	Invokestatic      // 0xb8
	Invokeinterface   // 0xb9
	Invokedynamic     // 0xba
	New               // 0xbb
	Newarray          // 0xbc
	Anewarray         // 0xbd
	Arraylength       // 0xbe
	Athrow            // 0xbf
	Checkcast         // 0xc0
	Instanceof        // 0xc1
	Monitorenter      // 0xc2
	Monitorexit       // 0xc3
	Wide              // 0xc4
	Multianewarray    // 0xc5
	Ifnull            // 0xc6
	Ifnonnull         // 0xc7
	GotoW             // 0xc8
	JsrW              // 0xc9
)

// NumOpcodes is one past the largest defined opcode.
const NumOpcodes = int(JsrW) + 1

var opcodeNames = [NumOpcodes]string{
	"nop",
	"aconst_null",
	"iconst_m1",
	"iconst_0",
	"iconst_1",
	"iconst_2",
	"iconst_3",
	"iconst_4",
	"iconst_5",
	"lconst_0",
	"lconst_1",
	"fconst_0",
	"fconst_1",
	"fconst_2",
	"dconst_0",
	"dconst_1",
	"bipush",
	"sipush",
	"ldc",
	"ldc_w",
	"ldc2_w",
	"iload",
	"lload",
	"fload",
	"dload",
	"aload",
	"iload_0",
	"iload_1",
	"iload_2",
	"iload_3",
	"lload_0",
	"lload_1",
	"lload_2",
	"lload_3",
	"fload_0",
	"fload_1",
	"fload_2",
	"fload_3",
	"dload_0",
	"dload_1",
	"dload_2",
	"dload_3",
	"aload_0",
	"aload_1",
	"aload_2",
	"aload_3",
	"iaload",
	"laload",
	"faload",
	"daload",
	"aaload",
	"baload",
	"caload",
	"saload",
	"istore",
	"lstore",
	"fstore",
	"dstore",
	"astore",
	"istore_0",
	"istore_1",
	"istore_2",
	"istore_3",
	"lstore_0",
	"lstore_1",
	"lstore_2",
	"lstore_3",
	"fstore_0",
	"fstore_1",
	"fstore_2",
	"fstore_3",
	"dstore_0",
	"dstore_1",
	"dstore_2",
	"dstore_3",
	"astore_0",
	"astore_1",
	"astore_2",
	"astore_3",
	"iastore",
	"lastore",
	"fastore",
	"dastore",
	"aastore",
	"bastore",
	"castore",
	"sastore",
	"pop",
	"pop2",
	"dup",
	"dup_x1",
	"dup_x2",
	"dup2",
	"dup2_x1",
	"dup2_x2",
	"swap",
	"iadd",
	"ladd",
	"fadd",
	"dadd",
	"isub",
	"lsub",
	"fsub",
	"dsub",
	"imul",
	"lmul",
	"fmul",
	"dmul",
	"idiv",
	"ldiv",
	"fdiv",
	"ddiv",
	"irem",
	"lrem",
	"frem",
	"drem",
	"ineg",
	"lneg",
	"fneg",
	"dneg",
	"ishl",
	"lshl",
	"ishr",
	"lshr",
	"iushr",
	"lushr",
	"iand",
	"land",
	"ior",
	"lor",
	"ixor",
	"lxor",
	"iinc",
	"i2l",
	"i2f",
	"i2d",
	"l2i",
	"l2f",
	"l2d",
	"f2i",
	"f2l",
	"f2d",
	"d2i",
	"d2l",
	"d2f",
	"i2b",
	"i2c",
	"i2s",
	"lcmp",
	"fcmpl",
	"fcmpg",
	"dcmpl",
	"dcmpg",
	"ifeq",
	"ifne",
	"iflt",
	"ifge",
	"ifgt",
	"ifle",
	"if_icmpeq",
	"if_icmpne",
	"if_icmplt",
	"if_icmpge",
	"if_icmpgt",
	"if_icmple",
	"if_acmpeq",
	"if_acmpne",
	"goto",
	"jsr",
	"ret",
	"tableswitch",
	"lookupswitch",
	"ireturn",
	"lreturn",
	"freturn",
	"dreturn",
	"areturn",
	"return",
	"getstatic",
	"putstatic",
	"getfield",
	"putfield",
	"invokevirtual",
	"invokespecial",
	"invokestatic",
	"invokeinterface",
	"invokedynamic",
	"new",
	"newarray",
	"anewarray",
	"arraylength",
	"athrow",
	"checkcast",
	"instanceof",
	"monitorenter",
	"monitorexit",
	"wide",
	"multianewarray",
	"ifnull",
	"ifnonnull",
	"goto_w",
	"jsr_w",
}

// opcodeLengths holds the encoded size of each instruction in bytes.
// Zero marks the variable length forms (switches and wide).
var opcodeLengths = [NumOpcodes]uint8{
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	2, 3, 2, 3, 3, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 2, 0, 0, 1, 1, 1, 1,
	1, 1, 3, 3, 3, 3, 3, 3, 3, 5, 5, 3, 2, 3, 1, 1,
	3, 3, 1, 1, 0, 4, 3, 3, 5, 5,
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, NumOpcodes)
	for i, name := range opcodeNames {
		m[name] = Opcode(i)
	}
	return m
}()

func (op Opcode) String() string {
	if int(op) < NumOpcodes {
		return opcodeNames[op]
	}
	return fmt.Sprintf("opcode(0x%02x)", uint8(op))
}

// Valid reports whether op is a defined JVM opcode.
func (op Opcode) Valid() bool {
	return int(op) < NumOpcodes
}

// Length returns the encoded size of the instruction, or 0 when the size
// depends on its operands.
func (op Opcode) Length() int {
	if !op.Valid() {
		return 0
	}
	return int(opcodeLengths[op])
}

// LookupOpcode returns the opcode with the given mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// IsBranch reports whether op transfers control to a target offset.
func (op Opcode) IsBranch() bool {
	switch {
	case op >= Ifeq && op <= Jsr:
		return true
	case op == Ifnull, op == Ifnonnull, op == GotoW, op == JsrW:
		return true
	}
	return false
}

// IsInvoke reports whether op is one of the invoke instructions.
func (op Opcode) IsInvoke() bool {
	return op >= Invokevirtual && op <= Invokedynamic
}

// IsReturn reports whether op returns from the method.
func (op Opcode) IsReturn() bool {
	return op >= Ireturn && op <= Return
}
