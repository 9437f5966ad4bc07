// Package inliner models JVM methods, their bytecode and control flow
// graphs, and the collaborators an inlining engine queries to resolve calls
// and compare classes.
package inliner

import (
	"errors"
	"fmt"
)

// MethodID is the persistent identity of a method: "Class.name(desc)".
// It is stable across call sites and is used as the memoization key.
type MethodID string

// NewMethodID builds the identity of a method from its components.
func NewMethodID(class, name, desc string) MethodID {
	return MethodID(class + "." + name + desc)
}

// Method describes a concrete method known to the catalog.
type Method struct {
	ID         MethodID
	Class      string
	Name       string
	Descriptor string
	Static     bool
	Abstract   bool
	ByteSize   int // size of the bytecode in bytes; the inlining cost
	MaxLocals  int
	Sig        Signature
}

// NewMethod creates a method and parses its descriptor.
func NewMethod(class, name, desc string, static bool, byteSize int) (*Method, error) {
	sig, err := ParseMethodDescriptor(desc)
	if err != nil {
		return nil, fmt.Errorf("method %s.%s: %w", class, name, err)
	}
	m := &Method{
		ID:         NewMethodID(class, name, desc),
		Class:      class,
		Name:       name,
		Descriptor: desc,
		Static:     static,
		ByteSize:   byteSize,
		Sig:        sig,
	}
	m.MaxLocals = m.ParamSlots()
	return m, nil
}

// ParamSlots returns the number of local slots used by the receiver and the
// declared parameters.
func (m *Method) ParamSlots() int {
	n := m.Sig.ArgSlots()
	if !m.Static {
		n++
	}
	return n
}

// NumArgs returns the number of logical arguments, counting the receiver.
func (m *Method) NumArgs() int {
	n := len(m.Sig.Params)
	if !m.Static {
		n++
	}
	return n
}

func (m *Method) String() string {
	if m == nil {
		return "<nil>"
	}
	return string(m.ID)
}

// Tristate is the answer of a query that the type system may be unable to
// decide.
type Tristate uint8

const (
	Maybe Tristate = iota
	Yes
	No
)

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "maybe"
	}
}

// CallSiteRef identifies a call instruction within its enclosing method.
type CallSiteRef struct {
	Caller *Method
	BCI    int
	Kind   InvokeKind
	Ref    *SymbolRef
}

// ControlFlowProvider supplies the control flow graph of a method.
type ControlFlowProvider interface {
	// Graph returns the graph for m, or an error wrapping
	// ErrGraphUnavailable when m has no analyzable body.
	Graph(m *Method) (*Graph, error)
}

// SubtypeOracle answers assignability questions between classes.
type SubtypeOracle interface {
	IsSubtype(sub, super string) Tristate
}

// MethodCatalog resolves call sites to concrete callees.
type MethodCatalog interface {
	SubtypeOracle

	// Resolve returns the candidate callees of a call site. An empty
	// result means no candidate could be determined.
	Resolve(site CallSiteRef) ([]*Method, error)
}

var (
	// ErrGraphUnavailable is returned by a ControlFlowProvider for methods
	// without a body (native, abstract, or simply unknown).
	ErrGraphUnavailable = errors.New("control flow graph unavailable")

	// ErrUnresolvedSymbol reports a symbolic reference that can only be
	// resolved by the running VM.
	ErrUnresolvedSymbol = errors.New("unresolved symbol")

	// ErrTypeMismatch is the panic payload raised when abstract states of
	// incompatible shapes are merged.
	ErrTypeMismatch = errors.New("type mismatch in merge")

	// ErrMalformedTree is the panic payload raised when a call tree breaks
	// its parent/child invariants.
	ErrMalformedTree = errors.New("malformed call tree")
)
