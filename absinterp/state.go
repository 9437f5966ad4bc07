package absinterp

import (
	"errors"
	"fmt"
	"strings"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

// ErrVerify reports bytecode that does not type check against the abstract
// state: stack underflow, a kind mismatch, or a read of an unusable slot.
var ErrVerify = errors.New("abstract verification failed")

// State is the abstract machine state of one method at one program point:
// the local variable array and the operand stack.
type State struct {
	locals []Value
	stack  []Value
}

// NewState returns a state with maxLocals unusable locals and an empty stack.
func NewState(maxLocals int) *State {
	s := &State{
		locals: make([]Value, maxLocals),
		stack:  make([]Value, 0, 8),
	}
	for i := range s.locals {
		s.locals[i] = unusable()
	}
	return s
}

// EntryState builds the state on entry to m: the receiver in slot 0 for
// instance methods followed by the declared parameters. Every parameter
// value is marked with its logical position.
func EntryState(m *inliner.Method) *State {
	s := NewState(max(m.MaxLocals, m.ParamSlots()))
	slot, pos := 0, 0
	if !m.Static {
		s.locals[0] = Known(KindReference, NonNullObject(m.Class)).WithParam(0)
		slot, pos = 1, 1
	}
	for _, p := range m.Sig.Params {
		k := KindOf(p.Sort)
		s.locals[slot] = Top(k).WithParam(pos)
		if k.Wide() {
			s.locals[slot+1] = Pad()
		}
		slot += p.Slots()
		pos++
	}
	return s
}

// Copy returns a state sharing nothing mutable with s.
func (s *State) Copy() *State {
	c := &State{
		locals: make([]Value, len(s.locals)),
		stack:  make([]Value, len(s.stack), max(cap(s.stack), 8)),
	}
	copy(c.locals, s.locals)
	copy(c.stack, s.stack)
	return c
}

// Widen returns a copy of s with the same shape in which every value has
// been promoted to top of its kind. Locals not flagged in written keep their
// formal parameter marker; every other marker is dropped.
func (s *State) Widen(written []bool) *State {
	c := s.Copy()
	for i, v := range c.locals {
		if v.Padding {
			continue
		}
		w := Top(v.Kind)
		if k, ok := v.Param(); ok && (i >= len(written) || !written[i]) {
			w = w.WithParam(k)
		}
		c.locals[i] = w
	}
	for i, v := range c.stack {
		if !v.Padding {
			c.stack[i] = Top(v.Kind)
		}
	}
	return c
}

// Merge joins o into s in place. Locals whose kinds disagree become
// unusable; stack slots must agree in depth and kind, otherwise Merge
// panics with ErrTypeMismatch.
func (s *State) Merge(o *State) {
	if len(s.stack) != len(o.stack) {
		panic(fmt.Errorf("%w: stack depth %d with %d", inliner.ErrTypeMismatch, len(s.stack), len(o.stack)))
	}
	for len(s.locals) < len(o.locals) {
		s.locals = append(s.locals, unusable())
	}
	for i := range s.locals {
		other := unusable()
		if i < len(o.locals) {
			other = o.locals[i]
		}
		cur := s.locals[i]
		if cur.Kind != other.Kind || cur.Padding != other.Padding {
			s.locals[i] = unusable()
			continue
		}
		s.locals[i].Merge(other)
	}
	for i := range s.stack {
		s.stack[i].Merge(o.stack[i])
	}
	s.dropBrokenPairs()
}

// dropBrokenPairs invalidates 64-bit locals whose padding slot was lost.
func (s *State) dropBrokenPairs() {
	for i, v := range s.locals {
		if !v.Kind.Wide() || v.Padding {
			continue
		}
		if i+1 >= len(s.locals) || !s.locals[i+1].Padding {
			s.locals[i] = unusable()
		}
	}
	for i, v := range s.locals {
		if v.Padding && (i == 0 || !s.locals[i-1].Kind.Wide()) {
			s.locals[i] = unusable()
		}
	}
}

// Equal reports whether two states hold identical values.
func (s *State) Equal(o *State) bool {
	if len(s.locals) != len(o.locals) || len(s.stack) != len(o.stack) {
		return false
	}
	for i := range s.locals {
		if !s.locals[i].Equal(o.locals[i]) {
			return false
		}
	}
	for i := range s.stack {
		if !s.stack[i].Equal(o.stack[i]) {
			return false
		}
	}
	return true
}

// Depth returns the number of operand stack slots in use.
func (s *State) Depth() int {
	return len(s.stack)
}

// NumLocals returns the size of the local variable array.
func (s *State) NumLocals() int {
	return len(s.locals)
}

// Local returns the value in slot i.
func (s *State) Local(i int) Value {
	if i < 0 || i >= len(s.locals) {
		return unusable()
	}
	return s.locals[i]
}

// StackAt returns the stack slot at depth i counted from the bottom.
func (s *State) StackAt(i int) Value {
	return s.stack[i]
}

// push pushes one value, adding the padding slot for 64-bit kinds.
func (s *State) push(v Value) {
	s.stack = append(s.stack, v)
	if v.Kind.Wide() {
		s.stack = append(s.stack, Pad())
	}
}

// pushSlot pushes exactly one slot.
func (s *State) pushSlot(v Value) {
	s.stack = append(s.stack, v)
}

// popSlot removes and returns exactly one slot.
func (s *State) popSlot() (Value, error) {
	if len(s.stack) == 0 {
		return Value{}, fmt.Errorf("%w: stack underflow", ErrVerify)
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v, nil
}

// pop removes a value of kind k, including its padding slot for 64-bit
// kinds.
func (s *State) pop(k Kind) (Value, error) {
	if k.Wide() {
		p, err := s.popSlot()
		if err != nil {
			return Value{}, err
		}
		if !p.Padding {
			return Value{}, fmt.Errorf("%w: expected %s, found %s", ErrVerify, k, p)
		}
	}
	v, err := s.popSlot()
	if err != nil {
		return Value{}, err
	}
	if v.Padding || v.Kind != k {
		return Value{}, fmt.Errorf("%w: expected %s, found %s", ErrVerify, k, v)
	}
	return v, nil
}

// popN pops n single-slot values of kind k and returns them bottom first.
func (s *State) popN(k Kind, n int) ([]Value, error) {
	vs := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := s.pop(k)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

// load returns the readable value of kind k in slot i.
func (s *State) load(i int, k Kind) (Value, error) {
	v := s.Local(i)
	if !v.Readable() || v.Kind != k {
		return Value{}, fmt.Errorf("%w: load %s from local %d holding %s", ErrVerify, k, i, v)
	}
	if k.Wide() && !s.Local(i+1).Padding {
		return Value{}, fmt.Errorf("%w: local %d lost its second word", ErrVerify, i)
	}
	return v, nil
}

// store writes v to slot i, growing the local array as needed. Storing over
// either half of a 64-bit local invalidates the other half.
func (s *State) store(i int, v Value) {
	width := 1
	if v.Kind.Wide() {
		width = 2
	}
	for len(s.locals) < i+width {
		s.locals = append(s.locals, unusable())
	}
	if i > 0 && s.locals[i-1].Kind.Wide() && !s.locals[i-1].Padding {
		s.locals[i-1] = unusable()
	}
	if end := i + width; end < len(s.locals) && s.locals[end].Padding {
		s.locals[end] = unusable()
	}
	s.locals[i] = v
	if width == 2 {
		s.locals[i+1] = Pad()
	}
}

// clearStack empties the operand stack.
func (s *State) clearStack() {
	s.stack = s.stack[:0]
}

func (s *State) String() string {
	var b strings.Builder
	b.WriteString("locals[")
	for i, v := range s.locals {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.String())
	}
	b.WriteString("] stack[")
	for i, v := range s.stack {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}
