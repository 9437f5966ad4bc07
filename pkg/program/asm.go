package program

import (
	"fmt"
	"strconv"
	"strings"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

// ParseInstruction parses one line of fixture code:
//
//	<bci>: <mnemonic> [operands]
//
// Operands follow the javap conventions loosely:
//
//	iload 3                     local slot
//	iinc 1 -1                   slot and delta
//	bipush 12                   immediate
//	newarray int                element type name or type code
//	ifeq 14                     branch target
//	tableswitch 40 20 30        default target, then case targets
//	ldc 7 | ldc 7L | ldc 1.5f | ldc 2.0d | ldc "text" | ldc java/lang/String
//	getfield p/A.count:I        field reference
//	invokevirtual p/A.get(I)J   method reference
//	new p/A                     class reference
//	multianewarray [[I 2        array descriptor and dimensions
//
// A symbolic operand prefixed with '?' is marked unresolved.
func ParseInstruction(line string) (inliner.Instruction, error) {
	var ins inliner.Instruction
	pos, text, ok := strings.Cut(line, ":")
	if !ok {
		return ins, fmt.Errorf("missing bci in %q", line)
	}
	bci, err := strconv.Atoi(strings.TrimSpace(pos))
	if err != nil {
		return ins, fmt.Errorf("invalid bci in %q: %w", line, err)
	}
	ins.BCI = bci

	text = strings.TrimSpace(text)
	mnemonic, operand, _ := strings.Cut(text, " ")
	operand = strings.TrimSpace(operand)
	op, ok := inliner.LookupOpcode(mnemonic)
	if !ok {
		return ins, fmt.Errorf("unknown mnemonic %q at bci %d", mnemonic, bci)
	}
	ins.Op = op

	if err := parseOperand(&ins, operand); err != nil {
		return ins, fmt.Errorf("bci %d %s: %w", bci, mnemonic, err)
	}
	return ins, nil
}

func parseOperand(ins *inliner.Instruction, operand string) error {
	fields := strings.Fields(operand)
	switch op := ins.Op; {
	case op >= inliner.Iload && op <= inliner.Aload,
		op >= inliner.Istore && op <= inliner.Astore,
		op == inliner.Ret:
		return ints(fields, &ins.Index)

	case op == inliner.Iinc:
		var delta int
		if err := ints(fields, &ins.Index, &delta); err != nil {
			return err
		}
		ins.Imm = int64(delta)

	case op == inliner.Bipush || op == inliner.Sipush:
		var v int
		if err := ints(fields, &v); err != nil {
			return err
		}
		ins.Imm = int64(v)

	case op == inliner.Newarray:
		if len(fields) != 1 {
			return fmt.Errorf("want element type, got %q", operand)
		}
		if code, ok := inliner.PrimitiveArrayCode(fields[0]); ok {
			ins.Imm = code
			return nil
		}
		code, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid element type %q", fields[0])
		}
		ins.Imm = code

	case op == inliner.Tableswitch || op == inliner.Lookupswitch:
		if len(fields) == 0 {
			return fmt.Errorf("missing default target")
		}
		targets := make([]int, len(fields))
		for i, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return fmt.Errorf("invalid target %q", f)
			}
			targets[i] = n
		}
		ins.Target, ins.Cases = targets[0], targets[1:]

	case op.IsBranch():
		return ints(fields, &ins.Target)

	case op == inliner.Ldc || op == inliner.LdcW || op == inliner.Ldc2W:
		return parseConstant(ins, operand)

	case op >= inliner.Getstatic && op <= inliner.Putfield:
		ref, err := parseMemberRef(operand, inliner.RefField)
		if err != nil {
			return err
		}
		ins.Ref = ref

	case op.IsInvoke():
		ref, err := parseMemberRef(operand, inliner.RefMethod)
		if err != nil {
			return err
		}
		ins.Ref = ref

	case op == inliner.New || op == inliner.Anewarray || op == inliner.Checkcast || op == inliner.Instanceof:
		if len(fields) != 1 {
			return fmt.Errorf("want class name, got %q", operand)
		}
		ins.Ref = classRef(fields[0])

	case op == inliner.Multianewarray:
		if len(fields) != 2 {
			return fmt.Errorf("want descriptor and dimensions, got %q", operand)
		}
		dims, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid dimensions %q", fields[1])
		}
		ins.Ref = classRef(fields[0])
		ins.Imm = int64(dims)

	default:
		if operand != "" {
			return fmt.Errorf("unexpected operand %q", operand)
		}
	}
	return nil
}

func ints(fields []string, dst ...*int) error {
	if len(fields) != len(dst) {
		return fmt.Errorf("want %d integer operands, got %d", len(dst), len(fields))
	}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("invalid integer %q", f)
		}
		*dst[i] = n
	}
	return nil
}

func unresolved(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "?"); ok {
		return rest, true
	}
	return s, false
}

func classRef(s string) *inliner.SymbolRef {
	name, u := unresolved(s)
	return &inliner.SymbolRef{Kind: inliner.RefClass, Class: name, Unresolved: u}
}

// parseMemberRef parses "Class.name:desc" for fields and
// "Class.name(desc)ret" for methods.
func parseMemberRef(s string, kind inliner.RefKind) (*inliner.SymbolRef, error) {
	s, u := unresolved(s)
	var owner, desc string
	if kind == inliner.RefMethod {
		i := strings.IndexByte(s, '(')
		if i < 0 {
			return nil, fmt.Errorf("method reference %q has no descriptor", s)
		}
		owner, desc = s[:i], s[i:]
		if _, err := inliner.ParseMethodDescriptor(desc); err != nil {
			return nil, err
		}
	} else {
		var ok bool
		owner, desc, ok = strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("field reference %q has no descriptor", s)
		}
		if _, err := inliner.ParseFieldDescriptor(desc); err != nil {
			return nil, err
		}
	}
	dot := strings.LastIndexByte(owner, '.')
	if dot <= 0 || dot == len(owner)-1 {
		return nil, fmt.Errorf("reference %q needs Class.name", s)
	}
	return &inliner.SymbolRef{
		Kind:       kind,
		Class:      owner[:dot],
		Name:       owner[dot+1:],
		Descriptor: desc,
		Unresolved: u,
	}, nil
}

func parseConstant(ins *inliner.Instruction, s string) error {
	if s == "" {
		return fmt.Errorf("missing constant")
	}
	if strings.HasPrefix(s, `"`) {
		str, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid string constant %s: %w", s, err)
		}
		ins.Ref = &inliner.SymbolRef{Kind: inliner.RefString, Str: str}
		return nil
	}
	if c := s[0]; c == '-' || (c >= '0' && c <= '9') {
		return parseNumber(ins, s)
	}
	ins.Ref = classRef(s)
	return nil
}

func parseNumber(ins *inliner.Instruction, s string) error {
	last := s[len(s)-1]
	switch {
	case last == 'L' || last == 'l':
		v, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid long constant %q", s)
		}
		ins.Imm = v
		ins.Ref = &inliner.SymbolRef{Kind: inliner.RefLong}
	case last == 'f' || last == 'F':
		if _, err := strconv.ParseFloat(s[:len(s)-1], 32); err != nil {
			return fmt.Errorf("invalid float constant %q", s)
		}
		ins.Ref = &inliner.SymbolRef{Kind: inliner.RefFloat}
	case last == 'd' || last == 'D' || strings.ContainsAny(s, ".eE"):
		if _, err := strconv.ParseFloat(strings.TrimRight(s, "dD"), 64); err != nil {
			return fmt.Errorf("invalid double constant %q", s)
		}
		ins.Ref = &inliner.SymbolRef{Kind: inliner.RefDouble}
	default:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid int constant %q", s)
		}
		ins.Imm = v
		ins.Ref = &inliner.SymbolRef{Kind: inliner.RefInt}
	}
	return nil
}
