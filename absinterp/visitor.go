package absinterp

import inliner "github.com/themaplelab/openj9-omr-sub000"

// CallSite describes a call instruction reached during interpretation.
type CallSite struct {
	Caller *inliner.Method
	Block  *inliner.Block
	BCI    int
	Kind   inliner.InvokeKind
	Ref    *inliner.SymbolRef

	// Args holds one value per logical argument, receiver first. The
	// padding slots of 64-bit arguments are not included.
	Args   []Value
	Return inliner.Type
}

// SiteRef returns the identity of the call site for catalog lookups.
func (c *CallSite) SiteRef() inliner.CallSiteRef {
	return inliner.CallSiteRef{Caller: c.Caller, BCI: c.BCI, Kind: c.Kind, Ref: c.Ref}
}

// ReturnTop returns the least informative value of the declared return
// type. It is meaningless for void calls.
func (c *CallSite) ReturnTop() Value {
	return Top(KindOf(c.Return.Sort))
}

// CallSiteVisitor is notified of every call site the interpreter reaches.
// The returned value is pushed as the call's result.
type CallSiteVisitor interface {
	OnCall(site *CallSite) Value
}

// NopVisitor records nothing and returns top for every call.
type NopVisitor struct{}

func (NopVisitor) OnCall(site *CallSite) Value {
	return site.ReturnTop()
}

// VisitorFunc adapts a function to CallSiteVisitor.
type VisitorFunc func(site *CallSite) Value

func (f VisitorFunc) OnCall(site *CallSite) Value {
	return f(site)
}
