package program

import (
	"strings"

	inliner "github.com/themaplelab/openj9-omr-sub000"
)

var arraySupertypes = map[string]bool{
	ObjectClass:            true,
	"java/lang/Cloneable":  true,
	"java/io/Serializable": true,
}

// IsSubtype reports whether sub is assignable to super. Classes missing
// from the program make the answer Maybe unless the known part of the
// hierarchy already decides it.
func (p *Program) IsSubtype(sub, super string) inliner.Tristate {
	if sub == super || super == ObjectClass {
		return inliner.Yes
	}
	if strings.HasPrefix(sub, "[") {
		if arraySupertypes[super] {
			return inliner.Yes
		}
		if !strings.HasPrefix(super, "[") {
			return inliner.No
		}
		return inliner.Maybe
	}
	found, complete := p.reaches(sub, super, map[string]bool{})
	switch {
	case found:
		return inliner.Yes
	case complete:
		return inliner.No
	default:
		return inliner.Maybe
	}
}

// reaches walks the supertypes of name looking for target. complete is
// false when the walk met a class the program does not describe.
func (p *Program) reaches(name, target string, seen map[string]bool) (found, complete bool) {
	if name == target {
		return true, true
	}
	if seen[name] {
		return false, true
	}
	seen[name] = true
	c, ok := p.classes[name]
	if !ok {
		return false, false
	}
	complete = true
	parents := append([]string{}, c.Interfaces...)
	if c.Super != "" {
		parents = append(parents, c.Super)
	}
	for _, s := range parents {
		f, ok := p.reaches(s, target, seen)
		if f {
			return true, true
		}
		complete = complete && ok
	}
	return false, complete
}

// lookup finds the implementation of name+desc visible from class, walking
// up the superclass chain.
func (p *Program) lookup(class, name, desc string) *inliner.Method {
	for class != "" {
		if e, ok := p.methods[inliner.NewMethodID(class, name, desc)]; ok {
			return e.method
		}
		c, ok := p.classes[class]
		if !ok {
			return nil
		}
		class = c.Super
	}
	return nil
}

// Resolve returns the concrete callees of a call site. Static and special
// calls bind to the single visible implementation. Virtual and interface
// calls consider every non-interface class that is a subtype of the
// referenced class (class hierarchy analysis), in declaration order.
func (p *Program) Resolve(site inliner.CallSiteRef) ([]*inliner.Method, error) {
	ref := site.Ref
	if ref == nil || ref.Kind != inliner.RefMethod || ref.Unresolved {
		return nil, nil
	}
	switch site.Kind {
	case inliner.InvokeStatic, inliner.InvokeSpecial:
		m := p.lookup(ref.Class, ref.Name, ref.Descriptor)
		if m == nil || m.Abstract || m.Static != (site.Kind == inliner.InvokeStatic) {
			return nil, nil
		}
		return []*inliner.Method{m}, nil
	case inliner.InvokeVirtual, inliner.InvokeInterface:
		var out []*inliner.Method
		seen := map[inliner.MethodID]bool{}
		for _, name := range p.classOrder {
			c := p.classes[name]
			if c.Interface || p.IsSubtype(name, ref.Class) != inliner.Yes {
				continue
			}
			m := p.lookup(name, ref.Name, ref.Descriptor)
			if m == nil || m.Abstract || m.Static || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}
		return out, nil
	}
	return nil, nil
}
