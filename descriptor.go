package inliner

import (
	"fmt"
	"strings"
)

// Sort is the computational category of a JVM type.
type Sort uint8

const (
	SortVoid Sort = iota
	SortInt       // boolean, byte, char, short and int
	SortLong
	SortFloat
	SortDouble
	SortRef
)

func (s Sort) String() string {
	switch s {
	case SortVoid:
		return "void"
	case SortInt:
		return "int"
	case SortLong:
		return "long"
	case SortFloat:
		return "float"
	case SortDouble:
		return "double"
	case SortRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Type is a parsed field type.
type Type struct {
	Sort Sort
	// Name is the internal class name for class types and the full
	// descriptor for array types ("[I", "[Ljava/lang/String;").
	Name string
}

// Slots returns the number of local or stack slots a value of this type
// occupies.
func (t Type) Slots() int {
	switch t.Sort {
	case SortVoid:
		return 0
	case SortLong, SortDouble:
		return 2
	default:
		return 1
	}
}

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool {
	return t.Sort == SortRef && strings.HasPrefix(t.Name, "[")
}

func (t Type) String() string {
	if t.Sort == SortRef {
		return t.Name
	}
	return t.Sort.String()
}

// Signature is a parsed method descriptor.
type Signature struct {
	Params []Type
	Return Type
}

// ArgSlots returns the number of slots the declared parameters occupy,
// excluding any receiver.
func (s Signature) ArgSlots() int {
	n := 0
	for _, p := range s.Params {
		n += p.Slots()
	}
	return n
}

// ParseFieldDescriptor parses a single field descriptor such as "I" or
// "[Ljava/lang/Object;".
func ParseFieldDescriptor(desc string) (Type, error) {
	t, n, err := parseType(desc, 0)
	if err != nil {
		return Type{}, err
	}
	if n != len(desc) {
		return Type{}, fmt.Errorf("trailing characters in field descriptor %q", desc)
	}
	if t.Sort == SortVoid {
		return Type{}, fmt.Errorf("void is not a field type: %q", desc)
	}
	return t, nil
}

// ParseMethodDescriptor parses a method descriptor such as "(IJ)V".
func ParseMethodDescriptor(desc string) (Signature, error) {
	if !strings.HasPrefix(desc, "(") {
		return Signature{}, fmt.Errorf("method descriptor %q does not start with '('", desc)
	}
	var sig Signature
	i := 1
	for {
		if i >= len(desc) {
			return Signature{}, fmt.Errorf("unterminated parameter list in %q", desc)
		}
		if desc[i] == ')' {
			i++
			break
		}
		t, next, err := parseType(desc, i)
		if err != nil {
			return Signature{}, err
		}
		if t.Sort == SortVoid {
			return Signature{}, fmt.Errorf("void parameter in %q", desc)
		}
		sig.Params = append(sig.Params, t)
		i = next
	}
	ret, next, err := parseType(desc, i)
	if err != nil {
		return Signature{}, err
	}
	if next != len(desc) {
		return Signature{}, fmt.Errorf("trailing characters in method descriptor %q", desc)
	}
	sig.Return = ret
	return sig, nil
}

func parseType(desc string, i int) (Type, int, error) {
	if i >= len(desc) {
		return Type{}, i, fmt.Errorf("truncated descriptor %q", desc)
	}
	switch desc[i] {
	case 'V':
		return Type{Sort: SortVoid}, i + 1, nil
	case 'Z', 'B', 'C', 'S', 'I':
		return Type{Sort: SortInt}, i + 1, nil
	case 'J':
		return Type{Sort: SortLong}, i + 1, nil
	case 'F':
		return Type{Sort: SortFloat}, i + 1, nil
	case 'D':
		return Type{Sort: SortDouble}, i + 1, nil
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			return Type{}, i, fmt.Errorf("unterminated class name in %q", desc)
		}
		return Type{Sort: SortRef, Name: desc[i+1 : i+end]}, i + end + 1, nil
	case '[':
		start := i
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		elem, next, err := parseType(desc, i)
		if err != nil {
			return Type{}, i, err
		}
		if elem.Sort == SortVoid {
			return Type{}, i, fmt.Errorf("array of void in %q", desc)
		}
		return Type{Sort: SortRef, Name: desc[start:next]}, next, nil
	default:
		return Type{}, i, fmt.Errorf("invalid descriptor character %q in %q", desc[i], desc)
	}
}

// ArrayDescriptor returns the descriptor of an array whose elements are of
// class or array type name.
func ArrayDescriptor(name string) string {
	if strings.HasPrefix(name, "[") {
		return "[" + name
	}
	return "[L" + name + ";"
}

// primitiveArrays maps the newarray type codes to array descriptors.
var primitiveArrays = map[int64]string{
	4:  "[Z",
	5:  "[C",
	6:  "[F",
	7:  "[D",
	8:  "[B",
	9:  "[S",
	10: "[I",
	11: "[J",
}

// PrimitiveArrayDescriptor returns the descriptor for a newarray type code.
func PrimitiveArrayDescriptor(code int64) (string, bool) {
	d, ok := primitiveArrays[code]
	return d, ok
}

// PrimitiveArrayCode is the inverse of PrimitiveArrayDescriptor, keyed by
// the Java element type name ("int", "boolean", ...).
func PrimitiveArrayCode(elem string) (int64, bool) {
	switch elem {
	case "boolean":
		return 4, true
	case "char":
		return 5, true
	case "float":
		return 6, true
	case "double":
		return 7, true
	case "byte":
		return 8, true
	case "short":
		return 9, true
	case "int":
		return 10, true
	case "long":
		return 11, true
	}
	return 0, false
}
